package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/image/font/gofont/goregular"
)

func TestLocalStoreFetch(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "u1", "logos"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "u1", "logos", "agent_white.png"), []byte("png"), 0644); err != nil {
		t.Fatal(err)
	}

	store := &LocalStore{Root: root}
	dst := filepath.Join(t.TempDir(), "nested", "logo.png")
	if err := store.Fetch(context.Background(), "u1/logos/agent_white.png", dst); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if data, _ := os.ReadFile(dst); string(data) != "png" {
		t.Errorf("fetched content = %q", data)
	}

	err := store.Fetch(context.Background(), "u1/logos/missing.png", dst)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

type countingFetcher struct {
	calls atomic.Int32
	fail  map[string]bool
	delay time.Duration
}

func (f *countingFetcher) Fetch(ctx context.Context, key, dst string) error {
	f.calls.Add(1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.fail[key] {
		return ErrNotFound
	}
	return writeFile(dst, strings.NewReader(key))
}

func TestCacheFetchesOnce(t *testing.T) {
	f := &countingFetcher{delay: 10 * time.Millisecond}
	dir := t.TempDir()
	c := NewCache(f, dir, time.Second, zerolog.Nop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.Get(context.Background(), "music/track.mp3"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Errorf("fetcher called %d times, want 1", n)
	}
	path, _ := c.Get(context.Background(), "music/track.mp3")
	if !strings.HasPrefix(path, dir) {
		t.Errorf("asset %s stored outside the workspace", path)
	}
}

func TestCacheKeepsKeysInsideWorkspace(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(&countingFetcher{}, dir, 0, zerolog.Nop())
	path, err := c.Get(context.Background(), "../../etc/passwd")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(path, dir) {
		t.Errorf("path %s escaped workspace %s", path, dir)
	}
}

func TestPrefetchToleratesMissing(t *testing.T) {
	f := &countingFetcher{fail: map[string]bool{"fonts/missing.ttf": true}}
	c := NewCache(f, t.TempDir(), time.Second, zerolog.Nop())

	err := c.Prefetch(context.Background(), "fonts/missing.ttf", "logos/a.png", "", "logos/b.png")
	if err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	if _, err := c.Get(context.Background(), "fonts/missing.ttf"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing asset should stay missing, got %v", err)
	}
	if n := f.calls.Load(); n != 3 {
		t.Errorf("fetch calls = %d, want 3", n)
	}
}

func TestPrefetchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewCache(&countingFetcher{delay: time.Second}, t.TempDir(), 0, zerolog.Nop())
	if err := c.Prefetch(ctx, "a", "b"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestFontsFallback(t *testing.T) {
	c := NewCache(&countingFetcher{fail: map[string]bool{"fonts/brand.ttf": true}}, t.TempDir(), 0, zerolog.Nop())
	fonts := NewFonts(c, zerolog.Nop())

	face := fonts.Face(context.Background(), "fonts/brand.ttf", 40)
	if face == nil {
		t.Fatal("expected default face")
	}
	if again := fonts.Face(context.Background(), "fonts/brand.ttf", 40); again != face {
		t.Error("faces should be cached per key and size")
	}

	// fetched but not a font file
	c2 := NewCache(&countingFetcher{}, t.TempDir(), 0, zerolog.Nop())
	if NewFonts(c2, zerolog.Nop()).Face(context.Background(), "fonts/garbage.ttf", 20) == nil {
		t.Error("unparseable font must fall back")
	}
}

func TestFontsFirstSkipsMissing(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "fonts"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "fonts", "Title.ttf"), goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	c := NewCache(&LocalStore{Root: root}, t.TempDir(), 0, zerolog.Nop())
	fonts := NewFonts(c, zerolog.Nop())
	ctx := context.Background()

	fallback := fonts.First(ctx, 30)
	got := fonts.First(ctx, 30, "", "agent-1/fonts/Title.ttf", "fonts/Title.ttf")
	if got == nil || got == fallback {
		t.Fatal("expected the configured font, not the embedded fallback")
	}
	if fonts.First(ctx, 30, "agent-1/fonts/Title.ttf") != fallback {
		t.Error("a missing key alone should give the embedded face")
	}
}
