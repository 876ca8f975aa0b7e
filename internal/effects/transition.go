package effects

import (
	"image"
	"image/color"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
	"github.com/Kondomino/kondo-movie-sub001/internal/timeline"
)

// ApplyTransition sets the fade ramps of l from the clip's transitions.
// Cut leaves the layer untouched.
func ApplyTransition(l layer.Layer, clip edl.Clip, fps int) (layer.Layer, error) {
	in, err := fadeSeconds(clip.TransitionIn, clip.ClipNumber, fps)
	if err != nil {
		return l, err
	}
	out, err := fadeSeconds(clip.TransitionOut, clip.ClipNumber, fps)
	if err != nil {
		return l, err
	}
	l.FadeIn = min(in, l.Duration)
	l.FadeOut = min(out, l.Duration)
	return l, nil
}

func fadeSeconds(tr *edl.Transition, clipNumber, fps int) (float64, error) {
	if tr == nil {
		return 0, nil
	}
	switch tr.Effect {
	case edl.TransitionCut, "":
		return 0, nil
	case edl.TransitionFade:
		return tr.Duration.ToSeconds(fps), nil
	}
	return 0, &edl.TransitionError{ClipNumber: clipNumber, Effect: string(tr.Effect)}
}

// TransitionFrame returns a one-frame black layer at cursor and the cursor one frame later.
func TransitionFrame(cursor timeline.Duration, fps int, size image.Point) (layer.Layer, timeline.Duration) {
	l := layer.Layer{
		Name:     "transition-frame",
		Kind:     layer.Blank,
		Source:   layer.NewColor(color.Black, size),
		Start:    cursor.ToSeconds(fps),
		Duration: 1 / float64(fps),
		Opacity:  1,
	}
	return l, cursor.AddFrames(1, fps)
}
