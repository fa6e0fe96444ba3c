package system

import (
	"image"
	"sync"
)

// ImagePool переиспользует холсты image.RGBA между воркерами,
// чтобы не выделять по буферу на каждый кадр. Холсты одного размера
// взаимозаменяемы независимо от начала координат.
type ImagePool struct {
	mu    sync.Mutex
	sizes map[image.Point]*sync.Pool
}

var canvasPool = NewImagePool()

func NewImagePool() *ImagePool {
	return &ImagePool{sizes: make(map[image.Point]*sync.Pool)}
}

// GetImage returns a canvas of the given size from the shared pool.
func GetImage(rect image.Rectangle) *image.RGBA {
	return canvasPool.Get(rect)
}

// PutImage returns a canvas to the shared pool.
func PutImage(img *image.RGBA) {
	canvasPool.Put(img)
}

func (p *ImagePool) poolFor(size image.Point) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.sizes[size]
	if !ok {
		pool = &sync.Pool{
			New: func() any {
				return image.NewRGBA(image.Rectangle{Max: size})
			},
		}
		p.sizes[size] = pool
	}
	return pool
}

// Get returns a canvas covering rect. Pixels of a reused canvas are left as
// they were; callers paint the whole canvas.
func (p *ImagePool) Get(rect image.Rectangle) *image.RGBA {
	img := p.poolFor(rect.Size()).Get().(*image.RGBA)
	img.Rect = rect
	return img
}

// Put hands a canvas back. Sub-images share a parent's pixels and are not pooled.
func (p *ImagePool) Put(img *image.RGBA) {
	if img == nil {
		return
	}
	size := img.Rect.Size()
	if size.X <= 0 || size.Y <= 0 || img.Stride != size.X*4 || len(img.Pix) != size.X*size.Y*4 {
		return
	}
	p.poolFor(size).Put(img)
}
