package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"raf-importer/internal/library"
)

func TestOpenLibrary(t *testing.T) {
	h, dir := newTestHandlers(t)
	writeRAF(t, dir, "DSCF0001.RAF")
	writeRAF(t, dir, "DSCF0002.RAF")

	body := strings.NewReader(`{"path":"` + dir + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/library", body)
	w := httptest.NewRecorder()
	h.OpenLibrary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Status    string `json:"status"`
		Directory string `json:"directory"`
		Files     int    `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("Expected status=ok, got %s", response.Status)
	}
	if response.Files != 2 {
		t.Errorf("Expected files=2, got %d", response.Files)
	}
	if response.Directory != h.session.Dir() {
		t.Errorf("Expected directory=%s, got %s", h.session.Dir(), response.Directory)
	}
}

func TestOpenLibraryDefaultsToConfig(t *testing.T) {
	h, dir := newTestHandlers(t)
	writeRAF(t, dir, "DSCF0001.RAF")

	req := httptest.NewRequest(http.MethodPost, "/api/library", nil)
	w := httptest.NewRecorder()
	h.OpenLibrary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if h.session.Dir() != dir {
		t.Errorf("Expected configured library %s to be opened, got %s", dir, h.session.Dir())
	}
}

func TestOpenLibraryMissingDirectory(t *testing.T) {
	h, _ := newTestHandlers(t)

	body := strings.NewReader(`{"path":"/no/such/library"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/library", body)
	w := httptest.NewRecorder()
	h.OpenLibrary(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404, got %d", w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["error"] == "" {
		t.Error("Expected an error message")
	}
}

func TestOpenLibraryInvalidBody(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/library", strings.NewReader("{"))
	w := httptest.NewRecorder()
	h.OpenLibrary(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestOpenLibraryClearsStartupError(t *testing.T) {
	h, dir := newTestHandlers(t)
	writeRAF(t, dir, "DSCF0001.RAF")
	h.SetStartupError(errors.New("initial open failed"))

	req := httptest.NewRequest(http.MethodPost, "/api/library", nil)
	w := httptest.NewRecorder()
	h.OpenLibrary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if got := h.startupError(); got != "" {
		t.Errorf("Expected startup error to be cleared, got %q", got)
	}
}

func TestListFilesNoDirectory(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	w := httptest.NewRecorder()
	h.ListFiles(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestListFiles(t *testing.T) {
	h, dir := newTestHandlers(t)
	first := writeRAF(t, dir, "DSCF0001.RAF")
	second := writeRAF(t, dir, "DSCF0002.RAF")
	openLibrary(t, h, dir)
	waitThumbnail(t, h, first)
	waitThumbnail(t, h, second)

	if err := h.session.Rate(second, 4); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/library", nil)
	w := httptest.NewRecorder()
	h.ListFiles(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response struct {
		Directory string      `json:"directory"`
		Total     int         `json:"total"`
		Files     []FileEntry `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response.Total != 2 {
		t.Fatalf("Expected total=2, got %d", response.Total)
	}
	if response.Files[0].Name != "DSCF0001.RAF" || response.Files[1].Name != "DSCF0002.RAF" {
		t.Errorf("Unexpected order: %+v", response.Files)
	}
	if response.Files[1].Rating != 4 {
		t.Errorf("Expected rating=4 on second file, got %d", response.Files[1].Rating)
	}
	if !response.Files[0].Cached || !response.Files[1].Cached {
		t.Error("Expected both files cached after waiting for thumbnails")
	}
	if response.Files[0].Size == 0 {
		t.Error("Expected a non-zero size")
	}
	if response.Files[0].ModTime.IsZero() {
		t.Error("Expected a modification time")
	}
}

func TestGetStatus(t *testing.T) {
	h, dir := newTestHandlers(t)
	writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)

	req := httptest.NewRequest(http.MethodGet, "/api/library/status", nil)
	w := httptest.NewRecorder()
	h.GetStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var status library.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if status.Directory != h.session.Dir() {
		t.Errorf("Expected directory=%s, got %s", h.session.Dir(), status.Directory)
	}
	if status.Files != 1 {
		t.Errorf("Expected files=1, got %d", status.Files)
	}
	if status.Batch == nil {
		t.Error("Expected batch stats after open")
	}
}

func TestReloadLibrary(t *testing.T) {
	h, dir := newTestHandlers(t)
	writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)

	writeRAF(t, dir, "DSCF0002.RAF")

	req := httptest.NewRequest(http.MethodPost, "/api/library/reload", nil)
	w := httptest.NewRecorder()
	h.ReloadLibrary(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var response struct {
		Status string `json:"status"`
		Files  int    `json:"files"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.Files != 2 {
		t.Errorf("Expected files=2 after reload, got %d", response.Files)
	}
}

func TestReloadLibraryNoDirectory(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/library/reload", nil)
	w := httptest.NewRecorder()
	h.ReloadLibrary(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409, got %d", w.Code)
	}
}

func TestCancelLoadNoBatch(t *testing.T) {
	h, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/library/cancel", nil)
	w := httptest.NewRecorder()
	h.CancelLoad(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var response map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response["cancelled"] {
		t.Error("Expected cancelled=false with no batch running")
	}
}

func TestCancelLoadRunning(t *testing.T) {
	gate := make(chan struct{})
	h, dir := newTestHandlersWith(t, func(c *library.Config) {
		c.Source = stubSource{gate: gate}
	})
	// Release blocked decodes before the session closes
	t.Cleanup(func() { close(gate) })

	writeRAF(t, dir, "DSCF0001.RAF")
	writeRAF(t, dir, "DSCF0002.RAF")
	openLibrary(t, h, dir)

	req := httptest.NewRequest(http.MethodPost, "/api/library/cancel", nil)
	w := httptest.NewRecorder()
	h.CancelLoad(w, req)

	var response map[string]bool
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !response["cancelled"] {
		t.Error("Expected cancelled=true while decodes are in flight")
	}
}
