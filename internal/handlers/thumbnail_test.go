package handlers

import (
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"raf-importer/internal/library"
)

func getThumbnail(h *Handlers, url string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	h.GetThumbnail(w, req)
	return w
}

func TestGetThumbnailRequiresPath(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := getThumbnail(h, "/api/thumbnail")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without path, got %d", w.Code)
	}
}

func TestGetThumbnailNoDirectory(t *testing.T) {
	h, _ := newTestHandlers(t)

	w := getThumbnail(h, "/api/thumbnail?path=/photos/DSCF0001.RAF")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 with no library open, got %d", w.Code)
	}
}

func TestGetThumbnailOutsideLibrary(t *testing.T) {
	h, dir := newTestHandlers(t)
	writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)

	w := getThumbnail(h, "/api/thumbnail?path=/etc/passwd")
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for path outside library, got %d", w.Code)
	}
}

func TestGetThumbnailUnknownFile(t *testing.T) {
	h, dir := newTestHandlers(t)
	path := writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)
	waitThumbnail(t, h, path)

	w := getThumbnail(h, "/api/thumbnail?path="+dir+"/DSCF9999.RAF")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown file, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "File not found") {
		t.Errorf("Expected file-not-found message, got %q", w.Body.String())
	}
}

func TestGetThumbnailNotLoaded(t *testing.T) {
	gate := make(chan struct{})
	h, dir := newTestHandlersWith(t, func(c *library.Config) {
		c.Source = stubSource{gate: gate}
	})
	t.Cleanup(func() { close(gate) })

	path := writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)

	w := getThumbnail(h, "/api/thumbnail?path="+path)
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 while decode is pending, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not loaded") {
		t.Errorf("Expected not-loaded message, got %q", w.Body.String())
	}
}

func TestGetThumbnail(t *testing.T) {
	h, dir := newTestHandlers(t)
	path := writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)
	waitThumbnail(t, h, path)

	w := getThumbnail(h, "/api/thumbnail?path="+path)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", ct)
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age") {
		t.Errorf("Expected cacheable response, got %q", cc)
	}

	img, err := jpeg.Decode(w.Body)
	if err != nil {
		t.Fatalf("Response is not a JPEG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 12 || bounds.Dy() != 8 {
		t.Errorf("Expected 12x8 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestGetThumbnailResized(t *testing.T) {
	h, dir := newTestHandlers(t)
	path := writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)
	waitThumbnail(t, h, path)

	w := getThumbnail(h, "/api/thumbnail?path="+path+"&size=6")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	img, err := jpeg.Decode(w.Body)
	if err != nil {
		t.Fatalf("Response is not a JPEG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 6 || bounds.Dy() != 4 {
		t.Errorf("Expected 6x4 after fitting to 6, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestGetThumbnailInvalidSize(t *testing.T) {
	h, dir := newTestHandlers(t)
	path := writeRAF(t, dir, "DSCF0001.RAF")
	openLibrary(t, h, dir)
	waitThumbnail(t, h, path)

	for _, size := range []string{"abc", "-1"} {
		w := getThumbnail(h, "/api/thumbnail?path="+path+"&size="+size)
		if w.Code != http.StatusBadRequest {
			t.Errorf("size=%s: expected 400, got %d", size, w.Code)
		}
	}
}

func TestIsSubPath(t *testing.T) {
	tests := []struct {
		parent string
		child  string
		want   bool
	}{
		{"/photos", "/photos/DSCF0001.RAF", true},
		{"/photos", "/photos", true},
		{"/photos", "/photos2/DSCF0001.RAF", false},
		{"/photos", "/etc/passwd", false},
		{"/photos", "/", false},
	}

	for _, tt := range tests {
		if got := isSubPath(tt.parent, tt.child); got != tt.want {
			t.Errorf("isSubPath(%q, %q) = %v, want %v", tt.parent, tt.child, got, tt.want)
		}
	}
}
