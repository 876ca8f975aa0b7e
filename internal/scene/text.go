package scene

import (
	"context"
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/font"

	"github.com/Kondomino/kondo-movie-sub001/internal/config"
	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
	"github.com/Kondomino/kondo-movie-sub001/internal/text"
)

// block is a piece of text waiting for layout.
type block struct {
	Text     string
	Keys     []string
	Size     float64
	LineSize int
	MaxLines int
	Split    bool
	Color    color.Color
}

// fontFiles maps text kinds to the per-user font file name.
var fontFiles = map[edl.ClipType]string{
	edl.ClipAgentName:        "AgentName.ttf",
	edl.ClipAddress:          "Address.ttf",
	edl.ClipPropertyLocation: "PropertyLocation.ttf",
	edl.ClipOccasionText:     "OccasionTitle.ttf",
	edl.ClipOccasionSubtitle: "OccasionSubtitle.ttf",
	edl.ClipTitle:            "Title.ttf",
	edl.ClipPresents:         "Presents.ttf",
}

// fontKeys lists the font candidates of a text kind: the user's font, then the configured one.
func (rc *Context) fontKeys(kind edl.ClipType) []string {
	f := rc.Config.Fonts
	var fallback string
	switch kind {
	case edl.ClipTitle:
		fallback = f.Title
	case edl.ClipPresents:
		fallback = f.Presents
	case edl.ClipAgentName:
		fallback = f.AgentName
	case edl.ClipPropertyLocation, edl.ClipOccasionSubtitle:
		fallback = f.Subtitle
	default:
		fallback = f.Overlay
	}
	return []string{rc.userKey("fonts", fontFiles[kind]), fallback}
}

func (rc *Context) face(ctx context.Context, size float64, keys ...string) font.Face {
	if rc.Fonts == nil {
		return text.DefaultFace(size)
	}
	return rc.Fonts.First(ctx, size, keys...)
}

// shape is the provisional layout pass. It asks the splitter for line breaks,
// then shapes the text at width so the real line count is known.
func (rc *Context) shape(ctx context.Context, b block, width int) (font.Face, []string) {
	face := rc.face(ctx, b.Size, b.Keys...)
	src := b.Text
	if b.Split {
		out, err := rc.splitter().Split(ctx, b.Text, b.MaxLines)
		switch {
		case err != nil:
			rc.Logger.Warn().Err(err).Msg("line split failed, wrapping by width only")
		case out != "":
			src = out
		}
	}
	return face, text.Wrap(face, src, width)
}

// render is the final layout pass, sized by the shaped line count.
func (rc *Context) render(face font.Face, lines []string, width int, b block) *image.RGBA {
	return text.Render(face, lines, width, text.Style{
		Color:      b.Color,
		LineHeight: b.LineSize,
		Align:      text.AlignCenter,
	})
}

// centered lays b out in the middle of the frame between the title margins.
func (rc *Context) centered(ctx context.Context, name string, b block, s span) layer.Layer {
	m := rc.Margins()
	width := rc.Size.X - 2*m.H
	face, lines := rc.shape(ctx, b, width)
	h := len(lines) * b.LineSize
	pos := image.Pt(m.H, rc.Size.Y/2-h/2)
	return still(name, layer.Foreground, rc.render(face, lines, width, b), pos, s)
}

func still(name string, kind layer.Kind, img image.Image, pos image.Point, s span) layer.Layer {
	return layer.Layer{
		Name:     name,
		Kind:     kind,
		Source:   &layer.Still{Image: img},
		Start:    s.Start,
		Duration: s.Duration,
		Position: pos,
		Opacity:  1,
	}
}

func (rc *Context) fontColor() color.Color {
	c, err := ParseHexColor(rc.Config.Titles.FontColor)
	if err != nil {
		return color.White
	}
	return c
}

// background is the full-frame solid layer of a card.
func (rc *Context) background(name string, s span) layer.Layer {
	c, err := ParseHexColor(rc.Config.Titles.BackgroundColor)
	if err != nil {
		c = color.RGBA{A: 255}
	}
	return layer.Layer{
		Name:     name,
		Kind:     layer.Background,
		Source:   layer.NewColor(c, rc.Size),
		Start:    s.Start,
		Duration: s.Duration,
		Opacity:  1,
	}
}

// mainTitle is the property headline with fallbacks.
func (rc *Context) mainTitle() string {
	if rc.Movie != nil {
		if t := strings.TrimSpace(rc.Movie.EndTitles.MainTitle); t != "" {
			return t
		}
		if t := strings.TrimSpace(rc.Movie.Property.Address); t != "" {
			return t
		}
	}
	rc.Logger.Warn().Msg("no main title, using generic fallback")
	return rc.Config.Titles.FallbackMain
}

// subTitle is the property detail line, empty when the job has none.
func (rc *Context) subTitle() string {
	if rc.Movie == nil {
		return ""
	}
	if t := strings.TrimSpace(rc.Movie.EndTitles.SubTitle); t != "" {
		return t
	}
	return strings.TrimSpace(rc.Movie.Property.Location)
}

// cardText returns the text a text-only clip type shows, empty when there is none.
func (rc *Context) cardText(kind edl.ClipType) string {
	m := rc.Movie
	if m == nil {
		m = &config.Movie{}
	}
	switch kind {
	case edl.ClipAgentName:
		if m.AgentName != "" {
			return strings.ToUpper(m.AgentName)
		}
		return strings.ToUpper(m.UserID)
	case edl.ClipAddress:
		return strings.ToUpper(ExpandAbbreviations(rc.mainTitle()))
	case edl.ClipPropertyLocation:
		if sub := rc.subTitle(); sub != "" {
			return strings.ToUpper(sub)
		}
		rc.Logger.Warn().Msg("no property details, using generic fallback")
		return strings.ToUpper(rc.Config.Titles.FallbackSub)
	case edl.ClipOccasionText:
		return strings.ToUpper(strings.TrimSpace(m.Occasion.Text))
	case edl.ClipOccasionSubtitle:
		return strings.ToUpper(strings.TrimSpace(m.Occasion.Subtitle))
	}
	return ""
}
