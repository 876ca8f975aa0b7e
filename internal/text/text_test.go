package text

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestWordCountSplit(t *testing.T) {
	tests := []struct {
		text     string
		maxLines int
		want     string
	}{
		{"", 3, ""},
		{"Sunset Villa", 3, "Sunset Villa"},
		{"1234 Ocean View Boulevard Santa Monica", 3, "1234 Ocean View\nBoulevard Santa Monica"},
		{"one two three four five six seven eight nine ten", 2, "one two three four five\nsix seven eight nine ten"},
		{"a b c d e f g", 3, "a b c\nd e\nf g"},
	}
	for _, tt := range tests {
		got, err := WordCount{}.Split(context.Background(), tt.text, tt.maxLines)
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("Split(%q, %d) = %q, want %q", tt.text, tt.maxLines, got, tt.want)
		}
		if CountLines(got) > tt.maxLines {
			t.Errorf("Split(%q) produced %d lines", tt.text, CountLines(got))
		}
	}
}

type failingSplitter struct{ out string }

func (f failingSplitter) Split(context.Context, string, int) (string, error) {
	if f.out == "" {
		return "", errors.New("provider down")
	}
	return f.out, nil
}

func TestFallback(t *testing.T) {
	ctx := context.Background()
	fb := Fallback{Primary: failingSplitter{}, Logger: zerolog.Nop()}
	got, err := fb.Split(ctx, "a b c d", 2)
	if err != nil || got != "a b\nc d" {
		t.Errorf("fallback split = %q, %v", got, err)
	}

	fb.Primary = failingSplitter{out: "a\nb\nc\nd"}
	if got, _ := fb.Split(ctx, "a b c d", 2); CountLines(got) != 2 {
		t.Errorf("over-long provider answer must be replaced, got %q", got)
	}

	fb.Primary = failingSplitter{out: "a b c\nd"}
	if got, _ := fb.Split(ctx, "a b c d", 2); got != "a b c\nd" {
		t.Errorf("provider answer discarded: %q", got)
	}
}

func TestWrapRespectsWidth(t *testing.T) {
	face := DefaultFace(32)
	text := "Spacious four bedroom family home with ocean views"
	width := 300

	lines := Wrap(face, text, width)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", lines)
	}
	if strings.Join(lines, " ") != text {
		t.Errorf("wrap lost words: %q", lines)
	}
	for _, l := range lines {
		if strings.Contains(l, " ") && Measure(face, []string{l}) > width {
			t.Errorf("line %q wider than %d", l, width)
		}
	}

	if got := Wrap(face, "short\n\nlines  \n", 1000); len(got) != 2 || got[1] != "lines" {
		t.Errorf("explicit breaks not kept: %q", got)
	}
}

func TestRenderSize(t *testing.T) {
	face := DefaultFace(20)
	img := Render(face, []string{"one", "two", "three"}, 200, Style{LineHeight: 30})
	if img.Bounds().Dx() != 200 || img.Bounds().Dy() != 90 {
		t.Errorf("Render bounds = %v", img.Bounds())
	}

	opaque := 0
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] > 0 {
			opaque++
		}
	}
	if opaque == 0 {
		t.Error("nothing was drawn")
	}
}

func TestCommandSplitter(t *testing.T) {
	if ParseCommand("   ") != nil {
		t.Error("blank command line should yield no splitter")
	}
	if _, err := exec.LookPath("cat"); err != nil {
		t.Skip("cat not available")
	}
	c := ParseCommand("cat")
	got, err := c.Split(context.Background(), "one two  \n\nthree\n", 2)
	if err != nil {
		t.Fatal(err)
	}
	if got != "one two\nthree" {
		t.Errorf("Split = %q", got)
	}

	bad := &Command{Name: "false"}
	if _, err := bad.Split(context.Background(), "x", 1); err == nil {
		t.Error("expected error from failing command")
	}
}
