package scene

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
	"github.com/Kondomino/kondo-movie-sub001/internal/timeline"
)

// errSkip drops a clip without advancing the cursor.
var errSkip = errors.New("clip skipped")

// span is the absolute time window of a clip's own content.
type span struct {
	Start, Duration float64
}

// content is what a builder draws for one clip. Layers get the clip
// transitions; Overlays carry their own timing and are drawn above.
type content struct {
	Layers   []layer.Layer
	Overlays []layer.Layer
}

type builderFunc func(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error)

var builders = map[edl.ClipType]builderFunc{
	edl.ClipImage:            buildImage,
	edl.ClipTitle:            buildTitle,
	edl.ClipPresents:         buildPresents,
	edl.ClipAgentLogo:        buildAgentLogo,
	edl.ClipBrokerageLogo:    buildBrokerageLogo,
	edl.ClipAgentName:        buildAgentName,
	edl.ClipAddress:          buildTextCard,
	edl.ClipPropertyLocation: buildTextCard,
	edl.ClipOccasionText:     buildTextCard,
	edl.ClipOccasionSubtitle: buildTextCard,
}

// Build renders one clip starting at cursor and returns its layers and the new cursor.
func Build(ctx context.Context, cursor timeline.Duration, clip edl.Clip, rc *Context) ([]layer.Layer, timeline.Duration, error) {
	fn, ok := builders[clip.ClipType]
	if !ok {
		return nil, cursor, fmt.Errorf("no scene builder for clip type %q", clip.ClipType)
	}
	fps := rc.FPS
	at := cursor

	var out []layer.Layer
	if clip.TransitionIn != nil && clip.TransitionIn.TransitionFrame {
		var blank layer.Layer
		blank, at = effects.TransitionFrame(at, fps, rc.Size)
		out = append(out, blank)
	}

	c, err := fn(ctx, rc, clip, span{Start: at.ToSeconds(fps), Duration: clip.Duration.ToSeconds(fps)})
	if errors.Is(err, errSkip) {
		rc.Logger.Debug().Int("clip", clip.ClipNumber).Str("type", string(clip.ClipType)).Msg("clip skipped")
		return nil, cursor, nil
	}
	if err != nil {
		return nil, cursor, err
	}

	for _, l := range c.Layers {
		l, err = effects.ApplyTransition(l, clip, fps)
		if err != nil {
			return nil, cursor, err
		}
		out = append(out, l)
	}
	out = append(out, c.Overlays...)
	at = at.Add(clip.Duration, fps)

	if clip.TransitionOut != nil && clip.TransitionOut.TransitionFrame {
		var blank layer.Layer
		blank, at = effects.TransitionFrame(at, fps, rc.Size)
		out = append(out, blank)
	}

	rc.Logger.Debug().
		Int("clip", clip.ClipNumber).
		Str("type", string(clip.ClipType)).
		Str("start", cursor.String()).
		Str("end", at.String()).
		Int("layers", len(out)).
		Msg("clip built")
	return out, at, nil
}

// Timeline builds every clip in order. The returned cursor is the video duration.
func Timeline(ctx context.Context, e *edl.EDL, rc *Context) (*layer.Stack, timeline.Duration, error) {
	stack := &layer.Stack{}
	cursor := timeline.Zero
	for _, clip := range e.Clips {
		if err := ctx.Err(); err != nil {
			return nil, cursor, err
		}
		ls, next, err := Build(ctx, cursor, clip, rc)
		if err != nil {
			return nil, cursor, fmt.Errorf("clip %d (%s): %w", clip.ClipNumber, clip.ClipType, err)
		}
		stack.Append(ls...)
		cursor = next
	}
	return stack, cursor, nil
}
