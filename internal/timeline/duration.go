// Package timeline holds frame-accurate time arithmetic. Durations are kept as
// whole seconds plus a frame remainder against a frame rate so that summing many
// clips never accumulates floating point drift.
package timeline

import (
	"fmt"
	"math"
)

// Duration is seconds + frames, interpreted against an fps supplied by the caller.
type Duration struct {
	Seconds int `json:"seconds" yaml:"seconds"`
	Frames  int `json:"frames" yaml:"frames"`
}

// Zero is the empty duration.
var Zero = Duration{}

// ToSeconds converts d to floating point seconds.
func (d Duration) ToSeconds(fps int) float64 {
	if fps <= 0 {
		return float64(d.Seconds)
	}
	return float64(d.Seconds) + float64(d.Frames)/float64(fps)
}

// FromSeconds converts x seconds into a normalized Duration. Negative input yields Zero.
func FromSeconds(x float64, fps int) Duration {
	if x <= 0 || fps <= 0 {
		return Zero
	}
	sec := math.Floor(x)
	frames := int(math.Round((x - sec) * float64(fps)))
	d := Duration{Seconds: int(sec), Frames: frames}
	if d.Frames >= fps {
		d.Seconds++
		d.Frames = 0
	}
	return d
}

// FromFrames builds a normalized Duration from an absolute frame count.
func FromFrames(n, fps int) Duration {
	if n <= 0 || fps <= 0 {
		return Zero
	}
	return Duration{Seconds: n / fps, Frames: n % fps}
}

// Add sums two durations, carrying whole seconds out of the frame field.
func (d Duration) Add(o Duration, fps int) Duration {
	sum := Duration{Seconds: d.Seconds + o.Seconds, Frames: d.Frames + o.Frames}
	if fps <= 0 {
		return sum
	}
	for sum.Frames >= fps {
		sum.Frames -= fps
		sum.Seconds++
	}
	return sum
}

// AddFrames advances d by n frames.
func (d Duration) AddFrames(n, fps int) Duration {
	return d.Add(Duration{Frames: n}, fps)
}

// TotalFrames returns the absolute frame count of d.
func (d Duration) TotalFrames(fps int) int {
	return d.Seconds*fps + d.Frames
}

// Valid reports whether d is non-negative and normalized for fps.
func (d Duration) Valid(fps int) bool {
	return d.Seconds >= 0 && d.Frames >= 0 && d.Frames < fps
}

// IsZero reports whether d spans no time.
func (d Duration) IsZero() bool {
	return d.Seconds == 0 && d.Frames == 0
}

func (d Duration) String() string {
	return fmt.Sprintf("%02d:%02d", d.Seconds, d.Frames)
}
