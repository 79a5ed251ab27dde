package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"raf-importer/internal/library"
	"raf-importer/internal/raf"
	"raf-importer/internal/startup"

	"github.com/disintegration/imaging"
)

// The handlers are exercised against a real session; only the decode
// boundaries are stubbed. Develop and encode results are readable
// strings so export assertions can check the full argument flow.

type stubSource struct {
	gate chan struct{}
}

func (s stubSource) LoadPreview(_ context.Context, path string) (image.Image, raf.Metadata, error) {
	if s.gate != nil {
		<-s.gate
	}
	if strings.Contains(path, "corrupt") {
		return nil, raf.Metadata{}, errors.New("truncated container")
	}
	return imaging.New(12, 8, color.Gray{Y: 128}), raf.Metadata{}, nil
}

type stubDeveloper struct {
	gate chan struct{}
}

func (d stubDeveloper) Develop(_ context.Context, path string) ([]byte, raf.Metadata, error) {
	if d.gate != nil {
		<-d.gate
	}
	return []byte("developed " + filepath.Base(path)), raf.Metadata{}, nil
}

type stubEncoder struct{}

func (stubEncoder) EncodeJPEG(developed []byte, _ raf.Orientation, quality int) ([]byte, error) {
	return []byte(fmt.Sprintf("jpeg q%d %s", quality, developed)), nil
}

// newTestHandlersWith builds handlers around a session with stubbed
// decode boundaries. mutate may swap individual stubs.
func newTestHandlersWith(t *testing.T, mutate func(*library.Config)) (*Handlers, string) {
	t.Helper()

	dir := t.TempDir()
	config := &startup.Config{
		LibraryDir:  dir,
		ExportDir:   filepath.Join(t.TempDir(), "export"),
		JPEGQuality: 90,
	}

	sessionConfig := library.Config{
		Source:        stubSource{},
		Developer:     stubDeveloper{},
		Encoder:       stubEncoder{},
		DecodeWorkers: 2,
		JPEGQuality:   config.JPEGQuality,
	}
	if mutate != nil {
		mutate(&sessionConfig)
	}

	session := library.NewSession(sessionConfig)
	t.Cleanup(session.Close)

	return New(session, config), dir
}

func newTestHandlers(t *testing.T) (*Handlers, string) {
	t.Helper()
	return newTestHandlersWith(t, nil)
}

func writeRAF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("raf"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func openLibrary(t *testing.T, h *Handlers, dir string) {
	t.Helper()
	if _, err := h.session.Open(dir); err != nil {
		t.Fatalf("Open(%s) error: %v", dir, err)
	}
}

func waitThumbnail(t *testing.T, h *Handlers, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := h.session.Thumbnail(path); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("thumbnail for %s never loaded", path)
}

func waitExportDone(t *testing.T, h *Handlers) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if h.session.ExportReport() != nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("export never finished")
}

func TestNewHandlers(t *testing.T) {
	h, _ := newTestHandlers(t)

	if h.session == nil {
		t.Error("Expected session to be set")
	}
	if h.config == nil {
		t.Error("Expected config to be set")
	}
	if h.started.IsZero() {
		t.Error("Expected started timestamp to be set")
	}
}

func TestSetStartupError(t *testing.T) {
	h, _ := newTestHandlers(t)

	h.SetStartupError(errors.New("library mount missing"))
	if got := h.startupError(); got != "library mount missing" {
		t.Errorf("startupError() = %q", got)
	}

	h.SetStartupError(nil)
	if got := h.startupError(); got != "" {
		t.Errorf("startupError() after clear = %q", got)
	}
}
