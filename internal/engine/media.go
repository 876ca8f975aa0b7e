package engine

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Kondomino/kondo-movie-sub001/internal/effects"
	"github.com/Kondomino/kondo-movie-sub001/internal/scene"
)

// prepareMedia рендерит нужные клипам кадры и подгоняет их под холст эффекта.
// Работает параллельно, как пул рендеринга страниц; порядок задает Slot, а не завершение.
func prepareMedia(ctx context.Context, slots []scene.Slot, media []Still, dpi, workers int) (map[int]image.Image, error) {
	if workers <= 0 {
		workers = 1
	}
	out := make(map[int]image.Image, len(slots))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, s := range slots {
		s := s
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			item := media[s.Index]
			img, err := item.Render(dpi)
			if err != nil {
				return fmt.Errorf("render media %s for clip %d: %w", item.Name(), s.Clip.ClipNumber, err)
			}
			canvas := effects.CropToFill(img, s.Canvas())

			mu.Lock()
			out[s.Clip.ClipNumber] = canvas
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
