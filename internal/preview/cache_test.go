package preview

import (
	"fmt"
	"image/color"
	"sync"
	"testing"

	"github.com/disintegration/imaging"

	"raf-importer/internal/raf"
)

func thumbOfSize(w, h int) Thumbnail {
	return Thumbnail{
		Image:       imaging.New(w, h, color.NRGBA{R: 100, G: 110, B: 120, A: 255}),
		Orientation: raf.OrientNone,
	}
}

func TestCacheGetPut(t *testing.T) {
	c := NewCache()

	if _, ok := c.Get("/a.RAF"); ok {
		t.Fatal("Get() on empty cache reported a hit")
	}

	want := thumbOfSize(8, 6)
	c.Put("/a.RAF", want)

	got, ok := c.Get("/a.RAF")
	if !ok {
		t.Fatal("Get() missed after Put()")
	}
	if got.Image != want.Image {
		t.Error("Get() returned a different image than Put() stored")
	}
}

func TestCachePutReplaces(t *testing.T) {
	c := NewCache()

	c.Put("/a.RAF", thumbOfSize(8, 6))
	c.Put("/a.RAF", thumbOfSize(8, 6))

	if c.Len() != 1 {
		t.Errorf("Len() = %d after double Put, want 1", c.Len())
	}
	if c.Bytes() != 8*6*4 {
		t.Errorf("Bytes() = %d, want %d", c.Bytes(), 8*6*4)
	}

	// Replacing with a smaller image adjusts the accounting.
	c.Put("/a.RAF", thumbOfSize(4, 3))
	if c.Bytes() != 4*3*4 {
		t.Errorf("Bytes() = %d after replacement, want %d", c.Bytes(), 4*3*4)
	}
}

func TestCacheClear(t *testing.T) {
	c := NewCache()
	c.Put("/a.RAF", thumbOfSize(8, 6))
	c.Put("/b.RAF", thumbOfSize(8, 6))

	c.Clear()

	if c.Len() != 0 {
		t.Errorf("Len() = %d after Clear, want 0", c.Len())
	}
	if c.Bytes() != 0 {
		t.Errorf("Bytes() = %d after Clear, want 0", c.Bytes())
	}
	if _, ok := c.Get("/a.RAF"); ok {
		t.Error("Get() hit after Clear")
	}
}

func TestCacheConcurrentPuts(t *testing.T) {
	c := NewCache()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c.Put(fmt.Sprintf("/f%d.RAF", i), thumbOfSize(8, 6))
		}(i)
	}
	wg.Wait()

	if c.Len() != 8 {
		t.Fatalf("Len() = %d after 8 concurrent Puts, want 8", c.Len())
	}
	for i := 0; i < 8; i++ {
		if _, ok := c.Get(fmt.Sprintf("/f%d.RAF", i)); !ok {
			t.Errorf("entry /f%d.RAF lost", i)
		}
	}
	if c.Bytes() != 8*8*6*4 {
		t.Errorf("Bytes() = %d, want %d", c.Bytes(), 8*8*6*4)
	}
}

func BenchmarkCacheGet(b *testing.B) {
	c := NewCache()
	c.Put("/a.RAF", thumbOfSize(160, 120))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get("/a.RAF")
	}
}
