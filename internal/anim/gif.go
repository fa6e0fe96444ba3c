package anim

import (
	"context"
	"fmt"
	"image"
	"image/color/palette"
	"image/gif"
	"math"
	"os"
	"time"

	"github.com/ivlev/frames2gif/internal/quantize"
)

type GIFEncoder struct{}

func (e *GIFEncoder) Palettized() bool { return true }

func (e *GIFEncoder) Encode(ctx context.Context, frames []image.Image, path string, timing Timing) error {
	if err := checkFrames(frames, timing); err != nil {
		return err
	}

	g := &gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		Disposal:  make([]byte, len(frames)),
		LoopCount: timing.LoopCount,
	}
	for i, img := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		pm, ok := img.(*image.Paletted)
		if !ok {
			pm = quantize.Apply(img, palette.Plan9, false)
		}
		g.Image[i] = pm
		g.Delay[i] = Centiseconds(timing.Delays[i])
		g.Disposal[i] = gif.DisposalNone
	}
	b := frames[0].Bounds()
	g.Config.Width, g.Config.Height = b.Dx(), b.Dy()

	tmp := partialPath(path)
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	err = gif.EncodeAll(f, g)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		err = fmt.Errorf("gif encode: %w", err)
	}
	return commit(tmp, path, err)
}

// Centiseconds converts a delay to GIF units, rounding, never below 1.
func Centiseconds(d time.Duration) int {
	cs := int(math.Round(d.Seconds() * 100))
	if cs < 1 {
		return 1
	}
	return cs
}
