package engine

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ivlev/frames2gif/internal/anim"
	"github.com/ivlev/frames2gif/internal/config"
	"github.com/ivlev/frames2gif/internal/quantize"
	"github.com/ivlev/frames2gif/internal/renderer"
	"github.com/ivlev/frames2gif/internal/sequence"
	"github.com/ivlev/frames2gif/internal/source"
	"github.com/ivlev/frames2gif/internal/system"
)

type AnimationProject struct {
	Config  *config.Config
	Source  source.Source
	Encoder anim.Encoder
}

// Result summarises a finished run.
type Result struct {
	Frames  int
	Output  string
	Delays  []time.Duration
	Elapsed time.Duration
}

func NewAnimationProject(cfg *config.Config, src source.Source, enc anim.Encoder) *AnimationProject {
	return &AnimationProject{
		Config:  cfg,
		Source:  src,
		Encoder: enc,
	}
}

func (p *AnimationProject) Run(ctx context.Context) (*Result, error) {
	startTime := time.Now()

	frameCount := p.Source.FrameCount()
	if frameCount == 0 {
		return nil, source.ErrNoFrames
	}

	bg, err := config.ParseHexColor(p.Config.Background)
	if err != nil {
		return nil, err
	}

	width, height, err := p.canvasSize()
	if err != nil {
		return nil, err
	}

	workers := p.Config.Workers
	if workers <= 0 {
		workers = system.DefaultWorkers()
	}
	if workers > frameCount {
		workers = frameCount
	}

	palettized := p.Encoder.Palettized()
	system.CheckMemory(frameCount, width, height, workers, palettized)

	fmt.Println("--- [FRAMES -> ANIMATION] ---")
	fmt.Printf("[*] Кадров: %d | Холст: %dx%d | Потоков: %d\n", frameCount, width, height, workers)
	fmt.Printf("[*] Интервал: %s | Пауза перед повтором: %s\n", p.Config.Interval, p.Config.RepeatDelay)
	fmt.Println("-----------------------------")

	var pal color.Palette
	if palettized {
		pal, err = p.buildPalette(width, height, bg)
		if err != nil {
			return nil, fmt.Errorf("палитра: %w", err)
		}
	}

	renderStart := time.Now()
	frames, err := p.renderFrames(ctx, width, height, workers, bg, pal)
	if err != nil {
		return nil, err
	}
	renderTime := time.Since(renderStart)

	var overrides []time.Duration
	if ds, ok := p.Source.(source.DelaySource); ok {
		overrides = ds.FrameDelays()
	}
	delays := p.Config.FrameDelays(frameCount, overrides)

	if dir := filepath.Dir(p.Config.Output); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	fmt.Println("[*] Сборка анимации...")
	encodeStart := time.Now()
	timing := anim.Timing{Delays: delays, LoopCount: p.Config.LoopCount}
	if err := p.Encoder.Encode(ctx, frames, p.Config.Output, timing); err != nil {
		return nil, fmt.Errorf("ошибка сборки анимации: %w", err)
	}
	encodeTime := time.Since(encodeStart)

	if p.Config.SequenceOut != "" {
		if err := p.writeSequence(delays); err != nil {
			log.Printf("[!] Не удалось записать последовательность: %v", err)
		}
	}

	res := &Result{
		Frames:  frameCount,
		Output:  p.Config.Output,
		Delays:  delays,
		Elapsed: time.Since(startTime),
	}

	if p.Config.ShowStats {
		fps := float64(frameCount) / res.Elapsed.Seconds()
		fmt.Printf("--- [PERFORMANCE REPORT] ---\n"+
			"Build: %s\n"+
			"Total Time: %.2fs\n"+
			"Decoding + Quantize: %.2fs\n"+
			"Encoding: %.2fs\n"+
			"Effective FPS: %.2f\n"+
			"----------------------------\n",
			p.Config.BuildVersion, res.Elapsed.Seconds(), renderTime.Seconds(), encodeTime.Seconds(), fps)
	}

	return res, nil
}

// canvasSize returns the configured size, filling a missing side from the
// first frame's aspect ratio.
func (p *AnimationProject) canvasSize() (int, int, error) {
	w, h := p.Config.Width, p.Config.Height
	if w > 0 && h > 0 {
		return w, h, nil
	}

	srcW, srcH, err := p.Source.FrameDimensions(0)
	if err != nil {
		return 0, 0, fmt.Errorf("размер первого кадра: %w", err)
	}
	if srcW == 0 || srcH == 0 {
		return 0, 0, fmt.Errorf("первый кадр %s пуст", p.Source.FrameName(0))
	}

	switch {
	case w > 0:
		h = w * srcH / srcW
	case h > 0:
		w = h * srcW / srcH
	default:
		w, h = srcW, srcH
	}
	return max(w, 1), max(h, 1), nil
}

// sampleIndices picks n evenly spread frame indices including first and last.
func sampleIndices(count, n int) []int {
	if n <= 0 || count <= 0 {
		return nil
	}
	if n >= count {
		n = count
	}
	if n == 1 {
		return []int{0}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i * (count - 1) / (n - 1)
	}
	return idx
}

func (p *AnimationProject) buildPalette(width, height int, bg color.Color) (color.Palette, error) {
	method := quantize.Method(p.Config.PaletteMethod)

	var samples []image.Image
	if method.Adaptive() {
		for _, i := range sampleIndices(p.Source.FrameCount(), p.Config.PaletteSamples) {
			img, err := p.Source.RenderFrame(i)
			if err != nil {
				return nil, fmt.Errorf("кадр %s: %w", p.Source.FrameName(i), err)
			}
			canvas := image.NewRGBA(image.Rect(0, 0, width, height))
			renderer.Compose(canvas, img, bg)
			samples = append(samples, canvas)
		}
		fmt.Printf("[*] Палитра %s по %d кадрам\n", method, len(samples))
	}

	return quantize.Build(method, samples, p.Config.Colors, bg)
}

// renderFrames decodes and composes every frame on a bounded worker pool.
// Results land at their own index, so output order is input order whatever
// the completion order. The first error cancels the rest.
func (p *AnimationProject) renderFrames(ctx context.Context, width, height, workers int, bg color.Color, pal color.Palette) ([]image.Image, error) {
	frameCount := p.Source.FrameCount()
	frames := make([]image.Image, frameCount)
	rect := image.Rect(0, 0, width, height)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var done atomic.Int64
	for i := 0; i < frameCount; i++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			img, err := p.Source.RenderFrame(i)
			if err != nil {
				return fmt.Errorf("кадр %d (%s): %w", i+1, p.Source.FrameName(i), err)
			}

			if pal != nil {
				canvas := system.GetImage(rect)
				renderer.Compose(canvas, img, bg)
				frames[i] = quantize.Apply(canvas, pal, p.Config.Dither)
				system.PutImage(canvas)
			} else {
				canvas := image.NewRGBA(rect)
				renderer.Compose(canvas, img, bg)
				frames[i] = canvas
			}

			n := done.Add(1)
			if n%25 == 0 || int(n) == frameCount {
				fmt.Printf("[>] Ready: %d/%d\n", n, frameCount)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return frames, nil
}

func (p *AnimationProject) writeSequence(delays []time.Duration) error {
	names := make([]string, p.Source.FrameCount())
	for i := range names {
		names[i] = p.Source.FrameName(i)
		if abs, err := filepath.Abs(names[i]); err == nil {
			names[i] = abs
		}
	}

	// repeat delay is stored once, not folded into the last frame
	perFrame := make([]time.Duration, len(delays))
	copy(perFrame, delays)
	perFrame[len(perFrame)-1] -= p.Config.RepeatDelay

	seq := sequence.FromPaths(names, perFrame)
	seq.Interval = p.Config.Interval
	repeat := p.Config.RepeatDelay
	seq.RepeatDelay = &repeat
	if err := sequence.Write(seq, p.Config.SequenceOut); err != nil {
		return err
	}
	fmt.Printf("[*] Последовательность сохранена: %s\n", p.Config.SequenceOut)
	return nil
}
