// Package edl describes an edit decision list: the ordered clip, transition and
// duration specification a movie is assembled from.
package edl

import (
	"fmt"
	"strings"

	"github.com/Kondomino/kondo-movie-sub001/internal/timeline"
)

type ClipType string

const (
	ClipImage            ClipType = "Image"
	ClipTitle            ClipType = "Title"
	ClipPresents         ClipType = "Presents"
	ClipAgentLogo        ClipType = "AgentLogo"
	ClipBrokerageLogo    ClipType = "BrokerageLogo"
	ClipAgentName        ClipType = "AgentName"
	ClipAddress          ClipType = "Address"
	ClipPropertyLocation ClipType = "PropertyLocation"
	ClipOccasionText     ClipType = "OccasionText"
	ClipOccasionSubtitle ClipType = "OccasionSubtitle"
)

// ClipTypes lists every clip type in declaration order.
var ClipTypes = []ClipType{
	ClipImage, ClipTitle, ClipPresents, ClipAgentLogo, ClipBrokerageLogo,
	ClipAgentName, ClipAddress, ClipPropertyLocation, ClipOccasionText, ClipOccasionSubtitle,
}

type ClipEffect string

const (
	EffectNone     ClipEffect = ""
	EffectZoomIn   ClipEffect = "ZoomIn"
	EffectZoomOut  ClipEffect = "ZoomOut"
	EffectPanLeft  ClipEffect = "PanLeft"
	EffectPanRight ClipEffect = "PanRight"
)

var clipEffects = []ClipEffect{EffectZoomIn, EffectZoomOut, EffectPanLeft, EffectPanRight}

type TransitionEffect string

const (
	TransitionCut  TransitionEffect = "Cut"
	TransitionFade TransitionEffect = "Fade"
)

var transitionEffects = []TransitionEffect{TransitionCut, TransitionFade}

type Orientation string

const (
	Landscape Orientation = "landscape"
	Portrait  Orientation = "portrait"
	Hybrid    Orientation = "hybrid"
)

var orientations = []Orientation{Landscape, Portrait, Hybrid}

type Position string

const (
	PositionTop    Position = "top"
	PositionCenter Position = "center"
	PositionBottom Position = "bottom"
)

var positions = []Position{PositionTop, PositionCenter, PositionBottom}

// MaxOverlays caps the per-clip overlay list.
const MaxOverlays = 10

// Transition describes how a clip enters or leaves the timeline.
type Transition struct {
	Effect          TransitionEffect  `json:"effect" yaml:"effect"`
	Duration        timeline.Duration `json:"duration" yaml:"duration"`
	TransitionFrame bool              `json:"transition_frame,omitempty" yaml:"transition_frame,omitempty"`
}

// Frames is a bare frame count used by overlay fades.
type Frames struct {
	Frames int `json:"frames" yaml:"frames"`
}

type Transform struct {
	Scale   *float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	XOffset *float64 `json:"x_offset,omitempty" yaml:"x_offset,omitempty"`
	YOffset *float64 `json:"y_offset,omitempty" yaml:"y_offset,omitempty"`
}

// Overlay is a text element drawn on top of an image clip.
type Overlay struct {
	ClipType  ClipType           `json:"clip_type" yaml:"clip_type"`
	Position  Position           `json:"position" yaml:"position"`
	FontSize  int                `json:"font_size,omitempty" yaml:"font_size,omitempty"`
	Start     *timeline.Duration `json:"start,omitempty" yaml:"start,omitempty"`
	End       *timeline.Duration `json:"end,omitempty" yaml:"end,omitempty"`
	FadeIn    *Frames            `json:"fade_in,omitempty" yaml:"fade_in,omitempty"`
	FadeOut   *Frames            `json:"fade_out,omitempty" yaml:"fade_out,omitempty"`
	Transform *Transform         `json:"transform,omitempty" yaml:"transform,omitempty"`
}

type Clip struct {
	ClipNumber    int               `json:"clip_number" yaml:"clip_number"`
	ClipType      ClipType          `json:"clip_type" yaml:"clip_type"`
	Duration      timeline.Duration `json:"duration" yaml:"duration"`
	ClipEffect    ClipEffect        `json:"clip_effect,omitempty" yaml:"clip_effect,omitempty"`
	Opacity       *float64          `json:"opacity,omitempty" yaml:"opacity,omitempty"`
	Multiple      []Overlay         `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	TransitionIn  *Transition       `json:"transition_in,omitempty" yaml:"transition_in,omitempty"`
	TransitionOut *Transition       `json:"transition_out,omitempty" yaml:"transition_out,omitempty"`
}

// Alpha returns the clip opacity, 1.0 when unset.
func (c Clip) Alpha() float64 {
	if c.Opacity == nil {
		return 1.0
	}
	return *c.Opacity
}

type EDL struct {
	Name            string      `json:"name" yaml:"name"`
	Soundtrack      string      `json:"soundtrack_uri" yaml:"soundtrack_uri"`
	FPS             int         `json:"fps" yaml:"fps"`
	Rank            int         `json:"rank,omitempty" yaml:"rank,omitempty"`
	Orientation     Orientation `json:"orientation,omitempty" yaml:"orientation,omitempty"`
	VoiceoverOffset *int        `json:"voiceover_offset,omitempty" yaml:"voiceover_offset,omitempty"`
	Clips           []Clip      `json:"clips" yaml:"clips"`
}

// Duration is the nominal length of all clips, transition frames included.
func (e *EDL) Duration() timeline.Duration {
	total := timeline.Zero
	for _, c := range e.Clips {
		if c.TransitionIn != nil && c.TransitionIn.TransitionFrame {
			total = total.AddFrames(1, e.FPS)
		}
		total = total.Add(c.Duration, e.FPS)
		if c.TransitionOut != nil && c.TransitionOut.TransitionFrame {
			total = total.AddFrames(1, e.FPS)
		}
	}
	return total
}

// Enum names are matched ignoring case, underscores and dashes so that
// "ZOOM_IN", "zoom-in" and "ZoomIn" all decode to the same value.
func fold(s string) string {
	r := strings.NewReplacer("_", "", "-", "", " ", "")
	return strings.ToLower(r.Replace(s))
}

func match[T ~string](kind string, raw []byte, values []T) (T, error) {
	want := fold(string(raw))
	for _, v := range values {
		if fold(string(v)) == want {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, string(raw))
}

func (c *ClipType) UnmarshalText(b []byte) error {
	v, err := match("clip type", b, ClipTypes)
	*c = v
	return err
}

func (e *ClipEffect) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*e = EffectNone
		return nil
	}
	v, err := match("clip effect", b, clipEffects)
	*e = v
	return err
}

func (e *TransitionEffect) UnmarshalText(b []byte) error {
	v, err := match("transition effect", b, transitionEffects)
	if err != nil {
		return &TransitionError{Effect: string(b)}
	}
	*e = v
	return nil
}

func (o *Orientation) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*o = Landscape
		return nil
	}
	v, err := match("orientation", b, orientations)
	*o = v
	return err
}

func (p *Position) UnmarshalText(b []byte) error {
	v, err := match("position", b, positions)
	*p = v
	return err
}
