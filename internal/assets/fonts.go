package assets

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/image/font"

	"github.com/Kondomino/kondo-movie-sub001/internal/text"
)

// Fonts hands out font faces by asset key, falling back to the embedded face.
type Fonts struct {
	cache  *Cache
	logger zerolog.Logger

	mu     sync.Mutex
	faces  map[string]font.Face
	failed map[string]bool
}

func NewFonts(cache *Cache, logger zerolog.Logger) *Fonts {
	return &Fonts{
		cache:  cache,
		logger: logger.With().Str("component", "fonts").Logger(),
		faces:  make(map[string]font.Face),
		failed: make(map[string]bool),
	}
}

// Face returns key at size points. Fetch or parse failures yield the default face.
func (f *Fonts) Face(ctx context.Context, key string, size float64) font.Face {
	return f.First(ctx, size, key)
}

// First returns the first of keys that can be fetched and parsed.
// Empty keys are skipped; when none load the embedded face is used.
func (f *Fonts) First(ctx context.Context, size float64, keys ...string) font.Face {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, key := range keys {
		if key == "" || f.cache == nil || f.failed[key] {
			continue
		}
		id := fmt.Sprintf("%s@%.1f", key, size)
		if face, ok := f.faces[id]; ok {
			return face
		}
		face, err := f.load(ctx, key, size)
		if err != nil {
			f.logger.Debug().Err(err).Str("font", key).Msg("font unavailable")
			f.failed[key] = true
			continue
		}
		f.faces[id] = face
		return face
	}

	id := fmt.Sprintf("@%.1f", size)
	if face, ok := f.faces[id]; ok {
		return face
	}
	face := text.DefaultFace(size)
	f.faces[id] = face
	return face
}

func (f *Fonts) load(ctx context.Context, key string, size float64) (font.Face, error) {
	path, err := f.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return text.LoadFace(path, size)
}
