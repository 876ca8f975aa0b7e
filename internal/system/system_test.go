package system

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatest(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "old.mp3")
	newer := filepath.Join(dir, "new.MP3")
	other := filepath.Join(dir, "cover.png")
	for _, p := range []string{old, newer, other} {
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	past := time.Now().Add(-time.Hour)
	os.Chtimes(old, past, past)
	os.Chtimes(other, time.Now().Add(time.Hour), time.Now().Add(time.Hour))

	got, err := FindLatest(dir, AudioExtensions...)
	if err != nil {
		t.Fatal(err)
	}
	if got != newer {
		t.Errorf("FindLatest = %s, want %s", got, newer)
	}

	// a file path searches its directory
	got, err = FindLatest(old, AudioExtensions...)
	if err != nil || got != newer {
		t.Errorf("FindLatest(file) = %s, %v", got, err)
	}

	if _, err := FindLatest(dir, ".flac"); err == nil {
		t.Error("expected error when nothing matches")
	}
}

func TestPickEncoder(t *testing.T) {
	tests := []struct {
		list string
		want string
	}{
		{" V..... h264_videotoolbox   VideoToolbox H.264 Encoder", "h264_videotoolbox"},
		{" V..... h264_nvenc   NVIDIA NVENC H.264 encoder", "h264_nvenc"},
		{" V..... libx264   libx264 H.264", "libx264"},
		{"", "libx264"},
	}
	for _, tt := range tests {
		if got := pickEncoder(tt.list); got != tt.want {
			t.Errorf("pickEncoder(%q) = %s, want %s", tt.list, got, tt.want)
		}
	}
}

func TestResolveEncoderExplicit(t *testing.T) {
	if got := ResolveEncoder(context.Background(), "ffmpeg", "libx265"); got != "libx265" {
		t.Errorf("got %s", got)
	}
}

func TestFramePoolClearsReusedFrames(t *testing.T) {
	p := NewFramePool()
	size := image.Pt(4, 2)

	f := p.Get(size)
	if f.Rect.Size() != size {
		t.Fatalf("size = %v", f.Rect.Size())
	}
	f.Pix[0] = 255
	p.Put(f)

	g := p.Get(size)
	if g.Pix[0] != 0 {
		t.Error("reused frame not cleared")
	}
	if p.Get(image.Pt(2, 2)).Rect.Size() != image.Pt(2, 2) {
		t.Error("wrong size from second pool")
	}
}

func TestHumanBytes(t *testing.T) {
	tests := map[uint64]string{
		512:             "512 B",
		2048:            "2.0 KiB",
		3 * 1024 * 1024: "3.0 MiB",
		16 << 30:        "16.0 GiB",
	}
	for in, want := range tests {
		if got := humanBytes(in); got != want {
			t.Errorf("humanBytes(%d) = %s, want %s", in, got, want)
		}
	}
}
