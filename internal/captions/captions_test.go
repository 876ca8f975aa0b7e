package captions

import (
	"bytes"
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuild(t *testing.T) {
	script := "Welcome to 12 Palm Avenue. This stunning home offers 4.5 baths and a pool with ocean views!"
	cues := Build(script, 10, 30)

	if len(cues) < 3 {
		t.Fatalf("expected several cues, got %d", len(cues))
	}
	if cues[0].Text != "Welcome to 12 Palm Avenue." {
		t.Errorf("first cue should end at the sentence: %q", cues[0].Text)
	}
	for i, c := range cues {
		if utf8.RuneCountInString(c.Text) > 30 {
			t.Errorf("cue %d too long: %q", i, c.Text)
		}
		if c.End <= c.Start {
			t.Errorf("cue %d has no duration", i)
		}
		if i > 0 && c.Start != cues[i-1].End {
			t.Errorf("cue %d does not follow the previous one", i)
		}
	}
	if cues[0].Start != 0 || cues[len(cues)-1].End != 10 {
		t.Errorf("cues must span the whole narration: %v..%v", cues[0].Start, cues[len(cues)-1].End)
	}

	joined := make([]string, len(cues))
	for i, c := range cues {
		joined[i] = c.Text
	}
	if strings.Join(joined, " ") != script {
		t.Error("words lost while chunking")
	}
}

func TestBuildEmpty(t *testing.T) {
	if Build("   ", 5, 40) != nil || Build("hello", 0, 40) != nil {
		t.Error("expected no cues")
	}
}

func TestShift(t *testing.T) {
	cues := Shift([]Cue{{Start: 0, End: 1.5, Text: "a"}}, 2)
	if math.Abs(cues[0].Start-2) > 1e-9 || math.Abs(cues[0].End-3.5) > 1e-9 {
		t.Errorf("Shift = %+v", cues[0])
	}
}

func TestWriteSRT(t *testing.T) {
	var buf bytes.Buffer
	err := WriteSRT(&buf, []Cue{{Start: 1.5, End: 3.25, Text: "Hello"}, {Start: 3661.007, End: 3662, Text: "World"}})
	if err != nil {
		t.Fatal(err)
	}
	want := "1\n00:00:01,500 --> 00:00:03,250\nHello\n\n2\n01:01:01,007 --> 01:01:02,000\nWorld\n\n"
	if buf.String() != want {
		t.Errorf("SRT output:\n%s\nwant:\n%s", buf.String(), want)
	}
}
