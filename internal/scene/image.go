package scene

import (
	"context"
	"fmt"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

func buildImage(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error) {
	img := rc.Media[clip.ClipNumber]
	if img == nil {
		return content{}, fmt.Errorf("no media prepared for clip %d", clip.ClipNumber)
	}
	eff, err := effects.New(clip.ClipEffect)
	if err != nil {
		return content{}, err
	}

	bg := layer.Layer{
		Name:     fmt.Sprintf("image-%d", clip.ClipNumber),
		Kind:     layer.Background,
		Source:   eff.Source(img, EffectParams(rc.Config, rc.Size, rc.FPS, clip)),
		Start:    s.Start,
		Duration: s.Duration,
		Opacity:  clip.Alpha(),
	}

	var overlays []layer.Layer
	for _, ov := range clip.Multiple {
		overlays = append(overlays, rc.overlay(ctx, clip, ov, s)...)
	}
	return content{Layers: []layer.Layer{bg}, Overlays: overlays}, nil
}

func buildTitle(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error) {
	if !ConsumesMedia(clip, rc.Movie) {
		return content{Layers: rc.endTitles(ctx, s, true)}, nil
	}
	return buildImage(ctx, rc, clip, s)
}
