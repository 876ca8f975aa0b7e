package scene

import (
	"errors"
	"fmt"
	"image"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
)

var ErrNotEnoughMedia = errors.New("not enough media for the edit")

// Slot is one clip's claim on the ordered media list.
type Slot struct {
	Clip   edl.Clip
	Index  int // position in the ordered media
	Effect effects.Effect
	Params effects.Params
}

// Canvas is the size the media must be crop-filled to.
func (s Slot) Canvas() image.Point {
	return s.Effect.CanvasSize(s.Params)
}

// ConsumesMedia reports whether clip shows the next ordered still.
// A title clip shows a photo when end titles are off.
func ConsumesMedia(clip edl.Clip, movie *config.Movie) bool {
	switch clip.ClipType {
	case edl.ClipImage:
		return true
	case edl.ClipTitle:
		return movie == nil || !movie.EndTitles.Enabled
	}
	return false
}

// PlanMedia assigns ordered media to clips in EDL order.
func PlanMedia(e *edl.EDL, movie *config.Movie, cfg *config.Config, size image.Point, available int) ([]Slot, error) {
	var slots []Slot
	for _, clip := range e.Clips {
		if !ConsumesMedia(clip, movie) {
			continue
		}
		eff, err := effects.New(clip.ClipEffect)
		if err != nil {
			return nil, fmt.Errorf("clip %d: %w", clip.ClipNumber, err)
		}
		slots = append(slots, Slot{
			Clip:   clip,
			Index:  len(slots),
			Effect: eff,
			Params: EffectParams(cfg, size, e.FPS, clip),
		})
	}
	if len(slots) > available {
		return nil, fmt.Errorf("%w: %d provided, %d needed", ErrNotEnoughMedia, available, len(slots))
	}
	return slots, nil
}
