package scene

import (
	"context"
	"image"

	"github.com/skip2/go-qrcode"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

func (rc *Context) agentPresents() bool {
	return rc.Movie != nil && rc.Movie.AgentPresents
}

// endTitles lays out the main title above the frame center when a subtitle
// follows, or centered on its own.
func (rc *Context) endTitles(ctx context.Context, s span, withBackground bool) []layer.Layer {
	t := rc.Config.Titles
	m := rc.Margins()
	width := rc.Size.X - 2*m.H
	mid := rc.Size.Y / 2
	fg := rc.fontColor()

	var out []layer.Layer
	if withBackground {
		out = append(out, rc.background("end-titles-bg", s))
	}

	sub := rc.subTitle()
	mainBlock := block{
		Text:     rc.mainTitle(),
		Keys:     rc.fontKeys(edl.ClipTitle),
		Size:     t.MainFontSize,
		LineSize: t.MainLineSize,
		MaxLines: t.MaxLines,
		Split:    true,
		Color:    fg,
	}
	face, lines := rc.shape(ctx, mainBlock, width)
	mh := len(lines) * t.MainLineSize
	y := mid - mh/2
	if sub != "" {
		y = mid - mh - t.Gap/2
	}
	out = append(out, still("end-titles-main", layer.Foreground, rc.render(face, lines, width, mainBlock), image.Pt(m.H, y), s))

	if sub != "" {
		subBlock := block{
			Text:     sub,
			Keys:     rc.fontKeys(edl.ClipPropertyLocation),
			Size:     t.SubFontSize,
			LineSize: t.SubLineSize,
			MaxLines: t.MaxLines,
			Split:    true,
			Color:    fg,
		}
		face, lines := rc.shape(ctx, subBlock, width)
		out = append(out, still("end-titles-sub", layer.Foreground, rc.render(face, lines, width, subBlock), image.Pt(m.H, mid+t.Gap/2), s))
	}

	if qr := rc.listingQR(s); qr != nil {
		out = append(out, *qr)
	}
	return out
}

// listingQR places a QR code of the listing URL in the bottom-right margin corner.
func (rc *Context) listingQR(s span) *layer.Layer {
	if rc.Movie == nil || rc.Movie.ListingURL == "" || rc.Config.Titles.QRCodeSize <= 0 {
		return nil
	}
	q, err := qrcode.New(rc.Movie.ListingURL, qrcode.Medium)
	if err != nil {
		rc.Logger.Warn().Err(err).Str("url", rc.Movie.ListingURL).Msg("could not encode listing QR code")
		return nil
	}
	size := rc.Config.Titles.QRCodeSize
	img := q.Image(size)

	m := rc.Margins()
	b := img.Bounds()
	pos := image.Pt(rc.Size.X-m.H/2-b.Dx(), rc.Size.Y-m.V/2-b.Dy())
	l := still("listing-qr", layer.Foreground, img, pos, s)
	return &l
}

func buildPresents(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error) {
	if !rc.agentPresents() {
		return content{}, errSkip
	}
	return content{Layers: []layer.Layer{
		rc.background("presents-bg", s),
		rc.centered(ctx, "presents", rc.presentsBlock(0), s),
	}}, nil
}

func (rc *Context) presentsBlock(size float64) block {
	t := rc.Config.Titles
	if size <= 0 {
		size = t.MainFontSize
	}
	return block{
		Text:     t.PresentsText,
		Keys:     rc.fontKeys(edl.ClipPresents),
		Size:     size,
		LineSize: t.MainLineSize,
		MaxLines: 1,
		Color:    rc.fontColor(),
	}
}

func buildAgentName(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error) {
	if !rc.agentPresents() {
		return content{}, errSkip
	}
	return rc.textCard(ctx, clip.ClipType, s)
}

// buildTextCard renders address, location and occasion cards.
func buildTextCard(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error) {
	return rc.textCard(ctx, clip.ClipType, s)
}

func (rc *Context) textCard(ctx context.Context, kind edl.ClipType, s span) (content, error) {
	txt := rc.cardText(kind)
	if txt == "" {
		return content{}, errSkip
	}
	t := rc.Config.Titles
	b := block{
		Text:     txt,
		Keys:     rc.fontKeys(kind),
		Size:     t.MainFontSize,
		LineSize: t.MainLineSize,
		MaxLines: t.MaxLines,
		Split:    true,
		Color:    rc.fontColor(),
	}
	name := string(kind)
	return content{Layers: []layer.Layer{
		rc.background(name+"-bg", s),
		rc.centered(ctx, name, b, s),
	}}, nil
}
