package ffmpeg

import (
	"context"
	"math"
	"os/exec"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func skipIfNoFFmpeg(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}
}

func TestStreamOutput(t *testing.T) {
	input := strings.Join([]string{
		"[mp4 @ 0x1] something odd",
		"frame=12",
		"fps=24.5",
		"out_time_us=500000",
		"speed=1.5x",
		"progress=continue",
		"frame=24",
		"out_time_us=1000000",
		"progress=end",
	}, "\n")

	var got []Progress
	var logs []string
	streamOutput(strings.NewReader(input), func(p *Progress) { got = append(got, *p) }, func(l string) { logs = append(logs, l) })

	if len(got) != 2 {
		t.Fatalf("expected 2 progress blocks, got %d", len(got))
	}
	if got[0].Frame != 12 || got[0].FPS != 24.5 || math.Abs(got[0].OutTime-0.5) > 1e-9 || got[0].Speed != "1.5x" || got[0].Done {
		t.Errorf("first block = %+v", got[0])
	}
	if got[1].Frame != 24 || !got[1].Done {
		t.Errorf("second block = %+v", got[1])
	}
	if len(logs) != 1 || !strings.Contains(logs[0], "something odd") {
		t.Errorf("log lines = %q", logs)
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration(`{"streams":[],"format":{"filename":"a.wav","duration":"9.523810"}}`)
	if err != nil || math.Abs(d-9.52381) > 1e-6 {
		t.Errorf("ParseDuration = %f, %v", d, err)
	}
	if _, err := ParseDuration(`{"format":{}}`); err == nil {
		t.Error("expected error for missing duration")
	}
}

func TestTail(t *testing.T) {
	tl := newTail(2)
	for _, l := range []string{"a", "b", "c"} {
		tl.add(l)
	}
	if tl.String() != "b\nc" {
		t.Errorf("tail = %q", tl.String())
	}
}

func TestRunCancelled(t *testing.T) {
	skipIfNoFFmpeg(t)
	e, err := New(zerolog.Nop(), 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = e.Run(ctx, RunOptions{Args: []string{"-f", "lavfi", "-i", "anullsrc", "-t", "60", "-f", "null", "-"}})
	if err == nil {
		t.Error("expected error from cancelled run")
	}
}
