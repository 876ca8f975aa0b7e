package edl

import (
	"errors"
	"fmt"
)

// SequenceError reports a clip_number that does not follow 1..N list order.
type SequenceError struct {
	Index    int
	Expected int
	Got      int
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("clip at position %d: clip_number must be sequential starting at 1, expected %d, got %d",
		e.Index, e.Expected, e.Got)
}

// FrameOverflowError reports a duration whose frame field is not below fps.
type FrameOverflowError struct {
	ClipNumber int
	Field      string
	Frames     int
	FPS        int
}

func (e *FrameOverflowError) Error() string {
	return fmt.Sprintf("clip %d: %s.frames (%d) must be less than fps (%d)",
		e.ClipNumber, e.Field, e.Frames, e.FPS)
}

// TransitionError reports a transition effect other than Cut or Fade.
type TransitionError struct {
	ClipNumber int
	Effect     string
}

func (e *TransitionError) Error() string {
	if e.ClipNumber == 0 {
		return fmt.Sprintf("unsupported transition effect %q", e.Effect)
	}
	return fmt.Sprintf("clip %d: unsupported transition effect %q", e.ClipNumber, e.Effect)
}

var (
	ErrNoClips = errors.New("edl: clips list cannot be empty")
	ErrBadFPS  = errors.New("edl: fps must be greater than zero")
)

// Validate checks e and fills defaults. It must succeed before any rendering starts.
func (e *EDL) Validate() error {
	if e.FPS <= 0 {
		return ErrBadFPS
	}
	if len(e.Clips) == 0 {
		return ErrNoClips
	}
	if e.Orientation == "" {
		e.Orientation = Landscape
	}

	for i, c := range e.Clips {
		if c.ClipNumber != i+1 {
			return &SequenceError{Index: i, Expected: i + 1, Got: c.ClipNumber}
		}
	}

	for _, c := range e.Clips {
		if err := e.validateClip(c); err != nil {
			return err
		}
	}
	return nil
}

func (e *EDL) validateClip(c Clip) error {
	if c.Duration.Seconds < 0 || c.Duration.Frames < 0 {
		return fmt.Errorf("clip %d: duration must be non-negative", c.ClipNumber)
	}
	if c.Duration.Frames >= e.FPS {
		return &FrameOverflowError{ClipNumber: c.ClipNumber, Field: "duration", Frames: c.Duration.Frames, FPS: e.FPS}
	}

	transitions := []struct {
		field string
		tr    *Transition
	}{
		{"transition_in.duration", c.TransitionIn},
		{"transition_out.duration", c.TransitionOut},
	}
	for _, t := range transitions {
		if t.tr == nil {
			continue
		}
		if t.tr.Duration.Frames >= e.FPS {
			return &FrameOverflowError{ClipNumber: c.ClipNumber, Field: t.field, Frames: t.tr.Duration.Frames, FPS: e.FPS}
		}
		switch t.tr.Effect {
		case TransitionCut, TransitionFade:
		case "":
			t.tr.Effect = TransitionCut
		default:
			return &TransitionError{ClipNumber: c.ClipNumber, Effect: string(t.tr.Effect)}
		}
	}

	if c.Opacity != nil && (*c.Opacity < 0 || *c.Opacity > 1) {
		return fmt.Errorf("clip %d: opacity %.2f out of range [0,1]", c.ClipNumber, *c.Opacity)
	}
	if len(c.Multiple) > MaxOverlays {
		return fmt.Errorf("clip %d: at most %d overlays allowed, got %d", c.ClipNumber, MaxOverlays, len(c.Multiple))
	}
	for _, o := range c.Multiple {
		if o.Start != nil && o.Start.Frames >= e.FPS {
			return &FrameOverflowError{ClipNumber: c.ClipNumber, Field: "multiple.start", Frames: o.Start.Frames, FPS: e.FPS}
		}
		if o.End != nil && o.End.Frames >= e.FPS {
			return &FrameOverflowError{ClipNumber: c.ClipNumber, Field: "multiple.end", Frames: o.End.Frames, FPS: e.FPS}
		}
	}
	return nil
}
