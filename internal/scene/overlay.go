package scene

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

// overlayTiming resolves the overlay window. Start and end are absolute
// timeline positions; a missing end runs to the end of the clip.
func (rc *Context) overlayTiming(ov edl.Overlay, s span) (span, bool) {
	if ov.Start == nil {
		return s, true
	}
	start := ov.Start.ToSeconds(rc.FPS)
	end := s.Start + s.Duration
	if ov.End != nil {
		end = ov.End.ToSeconds(rc.FPS)
	}
	if end <= start {
		return span{}, false
	}
	return span{Start: start, Duration: end - start}, true
}

func (rc *Context) fades(l *layer.Layer, ov edl.Overlay) {
	fps := float64(rc.FPS)
	if ov.FadeIn != nil && ov.FadeIn.Frames > 0 {
		l.FadeIn = min(float64(ov.FadeIn.Frames)/fps, l.Duration)
	}
	if ov.FadeOut != nil && ov.FadeOut.Frames > 0 {
		l.FadeOut = min(float64(ov.FadeOut.Frames)/fps, l.Duration)
	}
}

func offsets(tr *edl.Transform) image.Point {
	var p image.Point
	if tr == nil {
		return p
	}
	if tr.XOffset != nil {
		p.X = int(math.Round(*tr.XOffset))
	}
	if tr.YOffset != nil {
		p.Y = int(math.Round(*tr.YOffset))
	}
	return p
}

func scaleOf(tr *edl.Transform) float64 {
	if tr == nil || tr.Scale == nil || *tr.Scale <= 0 {
		return 1
	}
	return *tr.Scale
}

// captionTop is the first row reserved for captions; overlays stay above it.
func (rc *Context) captionTop() float64 {
	f := rc.Config.Captions.PortraitHeightFactor
	if rc.Landscape() {
		f = rc.Config.Captions.LandscapeHeightFactor
	}
	return float64(rc.Size.Y) * f
}

// overlay renders one entry of a clip's overlay list. Unavailable overlays
// yield nothing and never fail the clip.
func (rc *Context) overlay(ctx context.Context, clip edl.Clip, ov edl.Overlay, s span) []layer.Layer {
	switch ov.ClipType {
	case edl.ClipTitle:
		return rc.endTitles(ctx, s, false)
	case edl.ClipAgentLogo, edl.ClipBrokerageLogo:
		return rc.logoOverlay(ctx, ov, s)
	case edl.ClipPresents:
		if !rc.agentPresents() {
			return nil
		}
		return rc.presentsOverlay(ctx, ov, s)
	case edl.ClipAddress:
		if hasOverlay(clip, edl.ClipOccasionText) && rc.cardText(edl.ClipOccasionText) != "" {
			return nil
		}
	case edl.ClipAgentName:
		if !rc.agentPresents() {
			return nil
		}
	case edl.ClipPropertyLocation, edl.ClipOccasionText, edl.ClipOccasionSubtitle:
	default:
		rc.Logger.Warn().Str("type", string(ov.ClipType)).Int("clip", clip.ClipNumber).Msg("unsupported overlay type")
		return nil
	}
	return rc.textOverlay(ctx, ov, s)
}

func hasOverlay(clip edl.Clip, kind edl.ClipType) bool {
	for _, ov := range clip.Multiple {
		if ov.ClipType == kind {
			return true
		}
	}
	return false
}

func (rc *Context) overlaySize(ov edl.Overlay) float64 {
	if ov.FontSize > 0 {
		return float64(ov.FontSize)
	}
	return rc.Config.Titles.OverlayFontSize
}

// textOverlay places a single text line in the top, middle or bottom third of
// the area above the captions.
func (rc *Context) textOverlay(ctx context.Context, ov edl.Overlay, s span) []layer.Layer {
	txt := rc.cardText(ov.ClipType)
	if txt == "" {
		return nil
	}
	at, ok := rc.overlayTiming(ov, s)
	if !ok {
		return nil
	}
	t := rc.Config.Titles
	m := rc.Margins()
	width := rc.Size.X - 2*m.H
	b := block{
		Text:     txt,
		Keys:     rc.fontKeys(ov.ClipType),
		Size:     rc.overlaySize(ov) * scaleOf(ov.Transform),
		LineSize: t.MainLineSize,
		MaxLines: 1,
		Color:    rc.fontColor(),
	}
	face, lines := rc.shape(ctx, b, width)

	avail := rc.captionTop()
	section := avail / 3
	lh := float64(t.MainLineSize)
	var y float64
	switch ov.Position {
	case edl.PositionTop:
		y = section/2 - lh/2
	case edl.PositionCenter:
		y = avail/2 - lh/2
	default:
		y = avail - section/2 - lh/2
	}
	pos := image.Pt(m.H, int(math.Round(y))).Add(offsets(ov.Transform))

	l := still(fmt.Sprintf("overlay-%s", ov.ClipType), layer.Foreground, rc.render(face, lines, width, b), pos, at)
	rc.fades(&l, ov)
	return []layer.Layer{l}
}

// presentsOverlay draws the presents line over the photo without a card background.
func (rc *Context) presentsOverlay(ctx context.Context, ov edl.Overlay, s span) []layer.Layer {
	at, ok := rc.overlayTiming(ov, s)
	if !ok {
		return nil
	}
	m := rc.Margins()
	width := rc.Size.X - 2*m.H
	b := rc.presentsBlock(rc.overlaySize(ov))
	face, lines := rc.shape(ctx, b, width)
	pos := image.Pt(m.H, rc.Size.Y/2-b.LineSize/2).Add(offsets(ov.Transform))

	l := still("overlay-presents", layer.Foreground, rc.render(face, lines, width, b), pos, at)
	rc.fades(&l, ov)
	return []layer.Layer{l}
}

// logoOverlay fits the logo into a third of the frame and centers it horizontally.
func (rc *Context) logoOverlay(ctx context.Context, ov edl.Overlay, s span) []layer.Layer {
	at, ok := rc.overlayTiming(ov, s)
	if !ok {
		return nil
	}
	img, err := rc.loadImage(ctx, rc.userKey("logos", logoFiles[ov.ClipType]))
	if err != nil {
		rc.Logger.Warn().Err(err).Str("logo", string(ov.ClipType)).Msg("logo overlay unavailable")
		return nil
	}

	section := float64(rc.Size.Y) / 3
	m := rc.Margins()
	var box [2]float64
	if rc.Landscape() {
		box = [2]float64{float64(rc.Size.X - m.H), section - float64(m.V)}
	} else {
		box = [2]float64{float64(rc.Size.X) * 0.4, section * 0.4}
	}
	k := scaleOf(ov.Transform)
	fit := effects.FitWithin(img, image.Pt(int(box[0]*k), int(box[1]*k)))
	sz := fit.Bounds().Size()
	if sz.X == 0 || sz.Y == 0 {
		return nil
	}

	var y float64
	switch ov.Position {
	case edl.PositionTop:
		y = section/2 - float64(sz.Y)/2
	case edl.PositionCenter:
		y = section + section/2 - float64(sz.Y)/2
	default:
		y = 2*section + section/2 - float64(sz.Y)/2
	}
	pos := image.Pt((rc.Size.X-sz.X)/2, int(math.Round(y))).Add(offsets(ov.Transform))

	l := still(fmt.Sprintf("overlay-%s", ov.ClipType), layer.Foreground, fit, pos, at)
	rc.fades(&l, ov)
	return []layer.Layer{l}
}
