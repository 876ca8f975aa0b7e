package system

import (
	"image"
	"sync"
)

// FramePool переиспользует кадры *image.RGBA по размеру,
// чтобы рендер не создавал по буферу на каждый кадр и не нагружал GC.
type FramePool struct {
	mu    sync.Mutex
	pools map[image.Point]*sync.Pool
}

func NewFramePool() *FramePool {
	return &FramePool{pools: make(map[image.Point]*sync.Pool)}
}

func (p *FramePool) poolFor(size image.Point, create bool) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pool := p.pools[size]
	if pool == nil && create {
		pool = &sync.Pool{New: func() any {
			return image.NewRGBA(image.Rectangle{Max: size})
		}}
		p.pools[size] = pool
	}
	return pool
}

// Get возвращает кадр размера size. Переиспользованный кадр обнуляется.
func (p *FramePool) Get(size image.Point) *image.RGBA {
	img := p.poolFor(size, true).Get().(*image.RGBA)
	clear(img.Pix)
	return img
}

// Put принимает только кадры тех размеров, что уже выдавались.
func (p *FramePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	if pool := p.poolFor(img.Rect.Size(), false); pool != nil {
		pool.Put(img)
	}
}
