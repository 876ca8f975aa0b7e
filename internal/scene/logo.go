package scene

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"

	"github.com/Kondomino/kondo-movie-sub001/internal/edl"
	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
	"github.com/Kondomino/kondo-movie-sub001/internal/layer"
)

var logoFiles = map[edl.ClipType]string{
	edl.ClipAgentLogo:     "agent_white.png",
	edl.ClipBrokerageLogo: "brokerage_white.png",
}

func buildAgentLogo(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error) {
	return rc.logoCard(ctx, clip.ClipType, s), nil
}

func buildBrokerageLogo(ctx context.Context, rc *Context, clip edl.Clip, s span) (content, error) {
	return rc.logoCard(ctx, clip.ClipType, s), nil
}

// logoCard centers the user's logo between the title margins. A missing logo
// leaves the plain background.
func (rc *Context) logoCard(ctx context.Context, kind edl.ClipType, s span) content {
	name := string(kind)
	out := []layer.Layer{rc.background(name+"-bg", s)}

	img, err := rc.loadImage(ctx, rc.userKey("logos", logoFiles[kind]))
	if err != nil {
		rc.Logger.Warn().Err(err).Str("logo", name).Msg("logo unavailable, showing background only")
		return content{Layers: out}
	}
	m := rc.Margins()
	fit := effects.FitWithin(img, image.Pt(rc.Size.X-2*m.H, rc.Size.Y-2*m.V))
	b := fit.Bounds()
	if b.Empty() {
		return content{Layers: out}
	}
	pos := image.Pt((rc.Size.X-b.Dx())/2, (rc.Size.Y-b.Dy())/2)
	out = append(out, still(name, layer.Foreground, fit, pos, s))
	return content{Layers: out}
}

var errNoAssets = errors.New("no asset source")

// loadImage fetches and decodes an image asset.
func (rc *Context) loadImage(ctx context.Context, key string) (image.Image, error) {
	if key == "" {
		return nil, errors.New("empty asset key")
	}
	if rc.Assets == nil {
		return nil, errNoAssets
	}
	path, err := rc.Assets.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", key, err)
	}
	return img, nil
}
