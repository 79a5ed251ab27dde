package library

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"raf-importer/internal/export"
	"raf-importer/internal/preview"
	"raf-importer/internal/raf"
	"raf-importer/internal/rating"
)

type stubSource struct {
	mu     sync.Mutex
	calls  map[string]int
	images map[string]image.Image
	fail   map[string]error
}

func newStubSource() *stubSource {
	return &stubSource{
		calls:  make(map[string]int),
		images: make(map[string]image.Image),
		fail:   make(map[string]error),
	}
}

func (s *stubSource) LoadPreview(ctx context.Context, path string) (image.Image, raf.Metadata, error) {
	s.mu.Lock()
	s.calls[path]++
	img := s.images[path]
	err := s.fail[path]
	s.mu.Unlock()

	if err != nil {
		return nil, raf.Metadata{}, err
	}
	if img == nil {
		img = rampImage(false)
	}
	return img, raf.Metadata{SensorWidth: 6000, SensorHeight: 4000}, nil
}

func (s *stubSource) callsFor(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[path]
}

// rampImage returns a horizontal luminance ramp; inverting it yields a
// frame far away in difference-hash space.
func rampImage(inverted bool) image.Image {
	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := uint8(x * 4)
			if inverted {
				v = uint8(252 - x*4)
			}
			img.SetGray(x, y, color.Gray{Y: v})
		}
	}
	return img
}

type stubDeveloper struct{}

func (stubDeveloper) Develop(ctx context.Context, path string) ([]byte, raf.Metadata, error) {
	return []byte("developed:" + path), raf.Metadata{SensorWidth: 6000, SensorHeight: 4000}, nil
}

type stubEncoder struct{}

func (stubEncoder) EncodeJPEG(developed []byte, orient raf.Orientation, quality int) ([]byte, error) {
	return []byte(fmt.Sprintf("jpeg q%d %s", quality, developed)), nil
}

func newTestSession(src *stubSource) *Session {
	return NewSession(Config{
		Source:        src,
		Developer:     stubDeveloper{},
		Encoder:       stubEncoder{},
		DecodeWorkers: 2,
		Threshold:     10,
	})
}

func waitSettled(t *testing.T, s *Session, total int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := s.Status()
		if st.Batch != nil && st.Batch.Loaded+st.Batch.Cached+st.Batch.Failed == total {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("batch did not settle to %d items in time", total)
}

func activeBatch(s *Session) *preview.Batch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batch
}

func waitBatchDone(t *testing.T, s *Session) {
	t.Helper()
	b := activeBatch(s)
	if b == nil {
		t.Fatal("no active batch")
	}
	select {
	case <-b.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("batch did not settle in time")
	}
}

func waitExportDone(t *testing.T, job *export.Job) *export.Report {
	t.Helper()
	select {
	case <-job.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("export did not finish in time")
	}
	return job.Report()
}

func TestOpenScansAndLoadsThumbnails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "DSCF0003.RAF")
	writeFile(t, dir, "DSCF0001.RAF")
	writeFile(t, dir, "DSCF0002.raf")
	writeFile(t, dir, "notes.txt")

	src := newStubSource()
	s := newTestSession(src)
	defer s.Close()

	n, err := s.Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Open() = %d files, want 3", n)
	}

	want := []string{
		filepath.Join(dir, "DSCF0001.RAF"),
		filepath.Join(dir, "DSCF0002.raf"),
		filepath.Join(dir, "DSCF0003.RAF"),
	}
	if got := s.Files(); !reflect.DeepEqual(got, want) {
		t.Errorf("Files() = %v, want %v", got, want)
	}

	waitSettled(t, s, 3)

	for _, path := range want {
		thumb, ok := s.Thumbnail(path)
		if !ok {
			t.Errorf("Thumbnail(%s) missing after load", path)
			continue
		}
		if thumb.Orientation != raf.OrientNone {
			t.Errorf("Thumbnail(%s).Orientation = %v, want none for landscape", path, thumb.Orientation)
		}
	}

	st := s.Status()
	if st.Files != 3 || st.Cached != 3 || st.Directory != dir {
		t.Errorf("Status() = %+v, want 3 files cached in %s", st, dir)
	}
}

func TestOpenResetsPreviousDirectory(t *testing.T) {
	dir1 := t.TempDir()
	dir2 := t.TempDir()
	first := writeFile(t, dir1, "DSCF0001.RAF")
	writeFile(t, dir2, "DSCF0100.RAF")
	writeFile(t, dir2, "DSCF0101.RAF")

	src := newStubSource()
	s := newTestSession(src)
	defer s.Close()

	if _, err := s.Open(dir1); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, s, 1)
	if err := s.Rate(first, 5); err != nil {
		t.Fatal(err)
	}

	n, err := s.Open(dir2)
	if err != nil {
		t.Fatalf("Open(dir2) error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Open(dir2) = %d files, want 2", n)
	}

	if got := len(s.Ratings()); got != 0 {
		t.Errorf("Ratings() has %d entries after reopen, want 0", got)
	}
	if _, ok := s.Thumbnail(first); ok {
		t.Error("thumbnail from previous directory survived reopen")
	}
	if got := s.RatingOf(first); got != 0 {
		t.Errorf("RatingOf(old file) = %d, want 0", got)
	}

	waitSettled(t, s, 2)
}

func TestReloadKeepsStateForSurvivors(t *testing.T) {
	dir := t.TempDir()
	keep := writeFile(t, dir, "DSCF0001.RAF")
	gone := writeFile(t, dir, "DSCF0002.RAF")

	src := newStubSource()
	s := newTestSession(src)
	defer s.Close()

	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, s, 2)

	if err := s.Rate(keep, 5); err != nil {
		t.Fatal(err)
	}
	if err := s.Rate(gone, 3); err != nil {
		t.Fatal(err)
	}

	if err := os.Remove(gone); err != nil {
		t.Fatal(err)
	}
	added := writeFile(t, dir, "DSCF0003.RAF")

	n, err := s.Reload()
	if err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if n != 2 {
		t.Fatalf("Reload() = %d files, want 2", n)
	}
	waitSettled(t, s, 2)

	if got := s.RatingOf(keep); got != 5 {
		t.Errorf("RatingOf(survivor) = %d, want 5", got)
	}
	if got := s.RatingOf(gone); got != 0 {
		t.Errorf("RatingOf(removed) = %d, want 0", got)
	}
	if got := s.Rated(); !reflect.DeepEqual(got, []string{keep}) {
		t.Errorf("Rated() = %v, want only the survivor", got)
	}

	// The survivor was cached, so only the new file needed a decode.
	if src.callsFor(keep) != 1 {
		t.Errorf("survivor decoded %d times, want 1", src.callsFor(keep))
	}
	if src.callsFor(added) != 1 {
		t.Errorf("new file decoded %d times, want 1", src.callsFor(added))
	}
}

func TestRateRejectsUnknownPath(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "DSCF0001.RAF")

	s := newTestSession(newStubSource())
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}

	err := s.Rate(filepath.Join(dir, "DSCF9999.RAF"), 4)
	if !errors.Is(err, ErrUnknownFile) {
		t.Errorf("Rate(unknown) error = %v, want ErrUnknownFile", err)
	}

	err = s.Rate(filepath.Join(dir, "DSCF0001.RAF"), 9)
	if !errors.Is(err, rating.ErrInvalidRating) {
		t.Errorf("Rate(9) error = %v, want ErrInvalidRating", err)
	}
}

func TestFilterByMinRating(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "DSCF0001.RAF")
	b := writeFile(t, dir, "DSCF0002.RAF")
	c := writeFile(t, dir, "DSCF0003.RAF")

	s := newTestSession(newStubSource())
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}

	if err := s.Rate(a, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.Rate(c, 5); err != nil {
		t.Fatal(err)
	}

	if got := s.FilterByMinRating(0); !reflect.DeepEqual(got, []string{a, b, c}) {
		t.Errorf("FilterByMinRating(0) = %v, want every file", got)
	}
	if got := s.FilterByMinRating(3); !reflect.DeepEqual(got, []string{c}) {
		t.Errorf("FilterByMinRating(3) = %v, want %v", got, []string{c})
	}
	if got := s.FilterByMinRating(1); !reflect.DeepEqual(got, []string{a, c}) {
		t.Errorf("FilterByMinRating(1) = %v, want %v", got, []string{a, c})
	}
}

func TestExportOnlyRatedFiles(t *testing.T) {
	dir := t.TempDir()
	destDir := filepath.Join(t.TempDir(), "picked")
	writeFile(t, dir, "DSCF0001.RAF")
	pick := writeFile(t, dir, "DSCF0002.RAF")
	writeFile(t, dir, "DSCF0003.RAF")

	s := newTestSession(newStubSource())
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}

	if err := s.Rate(pick, 4); err != nil {
		t.Fatal(err)
	}

	job, err := s.Export(destDir, 0)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	report := waitExportDone(t, job)

	if report.Succeeded != 1 || report.Failed != 0 {
		t.Fatalf("report = %d succeeded, %d failed, want 1 and 0", report.Succeeded, report.Failed)
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		t.Fatalf("reading destination: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "DSCF0002.jpg" {
		t.Fatalf("destination = %v, want exactly DSCF0002.jpg", entries)
	}

	if stats := s.ExportStatus(); stats == nil || stats.Running {
		t.Errorf("ExportStatus() = %+v, want finished stats", stats)
	}
	if got := s.ExportReport(); got == nil || got.Succeeded != 1 {
		t.Errorf("ExportReport() = %+v, want the finished report", got)
	}
}

func TestExportWithoutRatings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "DSCF0001.RAF")

	s := newTestSession(newStubSource())
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Export(t.TempDir(), 0); !errors.Is(err, ErrNoCandidates) {
		t.Errorf("Export() error = %v, want ErrNoCandidates", err)
	}
	if _, err := s.Export("", 0); err == nil {
		t.Error("Export(\"\") error = nil, want destination error")
	}
}

func TestGroupsClusterSimilarFrames(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "DSCF0001.RAF")
	b := writeFile(t, dir, "DSCF0002.RAF")
	c := writeFile(t, dir, "DSCF0003.RAF")

	src := newStubSource()
	src.images[a] = rampImage(false)
	src.images[b] = rampImage(false)
	src.images[c] = rampImage(true)

	s := newTestSession(src)
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, s, 3)

	groups := s.Groups(0)
	if len(groups) != 1 {
		t.Fatalf("Groups(0) = %v, want one burst", groups)
	}
	if !reflect.DeepEqual(groups[0], []string{a, b}) {
		t.Errorf("Groups(0)[0] = %v, want %v", groups[0], []string{a, b})
	}
}

func TestFailedDecodeStillSettles(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "DSCF0001.RAF")
	bad := writeFile(t, dir, "DSCF0002.RAF")

	src := newStubSource()
	src.fail[bad] = fmt.Errorf("%w: %s: truncated", raf.ErrDecode, bad)

	s := newTestSession(src)
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, s, 2)

	if _, ok := s.Thumbnail(good); !ok {
		t.Error("good file missing from cache")
	}
	if _, ok := s.Thumbnail(bad); ok {
		t.Error("failed file should not be cached")
	}

	st := s.Status()
	if st.Batch.Failed != 1 || st.Batch.Loaded != 1 {
		t.Errorf("batch stats = %+v, want 1 loaded 1 failed", st.Batch)
	}
}

func TestCancelLoad(t *testing.T) {
	dir := t.TempDir()
	for i := 1; i <= 3; i++ {
		writeFile(t, dir, fmt.Sprintf("DSCF000%d.RAF", i))
	}

	s := newTestSession(newStubSource())
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}

	// Whether cancel lands before or after completion, the session must
	// settle and answer consistently.
	cancelled := s.CancelLoad()
	waitBatchDone(t, s)

	st := s.Status()
	if cancelled != st.Batch.Cancelled {
		t.Errorf("CancelLoad() = %v but batch says cancelled=%v", cancelled, st.Batch.Cancelled)
	}
	if s.CancelLoad() {
		t.Error("CancelLoad() on settled batch = true, want false")
	}
}

func TestWatcherTriggersReload(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "DSCF0001.RAF")

	s := newTestSession(newStubSource())
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, s, 1)

	if err := s.StartWatching(20 * time.Millisecond); err != nil {
		t.Fatalf("StartWatching() error = %v", err)
	}

	added := writeFile(t, dir, "DSCF0002.RAF")

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		files := s.Files()
		if len(files) == 2 && files[1] == added {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("session never picked up %s", added)
}

func TestStartWatchingRequiresOpenDirectory(t *testing.T) {
	s := newTestSession(newStubSource())
	defer s.Close()

	if err := s.StartWatching(0); !errors.Is(err, ErrNoDirectory) {
		t.Errorf("StartWatching() error = %v, want ErrNoDirectory", err)
	}
}

func TestGetStats(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "DSCF0001.RAF")
	writeFile(t, dir, "DSCF0002.RAF")

	s := newTestSession(newStubSource())
	defer s.Close()
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}
	waitSettled(t, s, 2)
	if err := s.Rate(a, 5); err != nil {
		t.Fatal(err)
	}

	stats := s.GetStats()
	if stats.TotalFiles != 2 || stats.RatedFiles != 1 || stats.CachedEntries != 2 {
		t.Errorf("GetStats() = %+v, want 2 files, 1 rated, 2 cached", stats)
	}
	if stats.CacheBytes == 0 {
		t.Error("GetStats().CacheBytes = 0, want nonzero")
	}
	// Both default thumbnails share a ramp, so they form one group.
	if stats.SimilarGroups != 1 {
		t.Errorf("GetStats().SimilarGroups = %d, want 1", stats.SimilarGroups)
	}
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "DSCF0001.RAF")

	s := newTestSession(newStubSource())
	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}

	s.Close()
	s.Close()

	if _, err := s.Open(dir); !errors.Is(err, ErrClosed) {
		t.Errorf("Open() after Close error = %v, want ErrClosed", err)
	}
	if _, err := s.Reload(); !errors.Is(err, ErrClosed) {
		t.Errorf("Reload() after Close error = %v, want ErrClosed", err)
	}
}

func TestStatusBeforeOpen(t *testing.T) {
	s := newTestSession(newStubSource())
	defer s.Close()

	st := s.Status()
	if st.Directory != "" || st.Files != 0 || st.Batch != nil || st.Export != nil {
		t.Errorf("Status() = %+v, want empty", st)
	}
	if s.CancelLoad() {
		t.Error("CancelLoad() = true with no batch")
	}
	if s.CancelExport() {
		t.Error("CancelExport() = true with no job")
	}
	if _, err := s.Reload(); !errors.Is(err, ErrNoDirectory) {
		t.Errorf("Reload() error = %v, want ErrNoDirectory", err)
	}
}

func TestExportedJPEGQualityFlows(t *testing.T) {
	dir := t.TempDir()
	destDir := t.TempDir()
	pick := writeFile(t, dir, "DSCF0001.RAF")

	s := NewSession(Config{
		Source:      newStubSource(),
		Developer:   stubDeveloper{},
		Encoder:     stubEncoder{},
		JPEGQuality: 80,
	})
	defer s.Close()

	if _, err := s.Open(dir); err != nil {
		t.Fatal(err)
	}
	if err := s.Rate(pick, 1); err != nil {
		t.Fatal(err)
	}

	job, err := s.Export(destDir, 0)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	waitExportDone(t, job)

	data, err := os.ReadFile(filepath.Join(destDir, "DSCF0001.jpg"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(data), "q80") {
		t.Errorf("output = %q, want quality 80 payload", data)
	}
}
