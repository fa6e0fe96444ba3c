// Package quantize reduces true-colour frames to the shared palette a GIF needs.
package quantize

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"log"
	"math"
	"slices"

	"github.com/cenkalti/dominantcolor"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
)

type Method string

const (
	Plan9    Method = "plan9"
	WebSafe  Method = "websafe"
	Dominant Method = "dominant"
	KMeans   Method = "kmeans"
)

// maxSamples bounds the pixels fed to kmeans across all sample frames.
const maxSamples = 12000

// Adaptive reports whether the method needs sample frames.
func (m Method) Adaptive() bool {
	return m == Dominant || m == KMeans
}

// Build returns a palette of at most size colours. Fixed methods ignore
// samples; adaptive ones fall back to Plan9 if extraction yields nothing.
// bg, when not nil, is always part of a palette smaller than the full one.
func Build(m Method, samples []image.Image, size int, bg color.Color) (color.Palette, error) {
	if size < 2 || size > 256 {
		return nil, fmt.Errorf("palette size %d out of range 2..256", size)
	}

	var cols []colorful.Color
	switch m {
	case Plan9:
		return reduce(palette.Plan9, size, bg), nil
	case WebSafe:
		return reduce(palette.WebSafe, size, bg), nil
	case Dominant:
		cols = dominantColors(samples, size)
	case KMeans:
		cols = kmeansColors(samples, size)
	default:
		return nil, fmt.Errorf("unknown palette method %q", m)
	}

	if len(cols) == 0 {
		log.Printf("[!] Палитра %s пуста, используется plan9", m)
		return reduce(palette.Plan9, size, bg), nil
	}

	return finish(cols, size, bg), nil
}

// finish puts bg first, drops duplicates, cuts to size and sorts dark to bright.
func finish(cols []colorful.Color, size int, bg color.Color) color.Palette {
	if bg != nil {
		bgc, _ := colorful.MakeColor(bg)
		cols = append([]colorful.Color{bgc}, cols...)
	}
	cols = dedupe(cols)
	if len(cols) > size {
		cols = cols[:size]
	}
	SortByBrightness(cols)

	pal := make(color.Palette, len(cols))
	for i, c := range cols {
		r, g, b := c.Clamped().RGB255()
		pal[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return pal
}

// reduce picks size colours of a fixed palette spread evenly from darkest to
// brightest, so black and white survive any size.
func reduce(p color.Palette, size int, bg color.Color) color.Palette {
	if len(p) <= size {
		return p
	}

	all := make([]colorful.Color, len(p))
	for i, c := range p {
		all[i], _ = colorful.MakeColor(c)
	}
	SortByBrightness(all)

	n := size
	if bg != nil {
		n--
	}
	picked := make([]colorful.Color, 0, size)
	if n == 1 {
		picked = append(picked, all[len(all)-1])
	} else {
		for i := 0; i < n; i++ {
			picked = append(picked, all[i*(len(all)-1)/(n-1)])
		}
	}
	return finish(picked, size, bg)
}

// Apply maps src onto pal, optionally with Floyd-Steinberg error diffusion.
func Apply(src image.Image, pal color.Palette, dither bool) *image.Paletted {
	b := src.Bounds()
	dst := image.NewPaletted(b, pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, b, src, b.Min)
	} else {
		draw.Draw(dst, b, src, b.Min, draw.Src)
	}
	return dst
}

// SortByBrightness orders colors from darkest to brightest by relative luminance.
func SortByBrightness(cols []colorful.Color) {
	slices.SortStableFunc(cols, func(a, b colorful.Color) int {
		ya, yb := luminance(a), luminance(b)
		switch {
		case ya < yb:
			return -1
		case ya > yb:
			return 1
		}
		return 0
	})
}

func luminance(c colorful.Color) float64 {
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// dedupe keeps the first of any colours that collapse to the same 8-bit value.
func dedupe(cols []colorful.Color) []colorful.Color {
	seen := make(map[[3]uint8]bool, len(cols))
	out := cols[:0]
	for _, c := range cols {
		r, g, b := c.Clamped().RGB255()
		key := [3]uint8{r, g, b}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
	}
	return out
}

type weighted struct {
	col    colorful.Color
	weight float64
}

func dominantColors(samples []image.Image, k int) []colorful.Color {
	var all []weighted
	for _, img := range samples {
		for _, c := range dominantcolor.FindWeight(img, k) {
			col, _ := colorful.MakeColor(c.RGBA)
			all = append(all, weighted{col: col.Clamped(), weight: c.Weight})
		}
	}
	return byWeight(all)
}

func kmeansColors(samples []image.Image, k int) []colorful.Color {
	var dataset clusters.Observations
	for _, img := range samples {
		dataset = append(dataset, observations(img, maxSamples/max(len(samples), 1))...)
	}
	if len(dataset) == 0 {
		return nil
	}

	km := kmeans.New()
	cc, err := km.Partition(dataset, min(k, len(dataset)))
	if err != nil {
		log.Printf("[!] kmeans: %v", err)
		return nil
	}

	all := make([]weighted, 0, len(cc))
	for _, c := range cc {
		if len(c.Center) < 3 || len(c.Observations) == 0 {
			continue
		}
		col := colorful.Color{R: c.Center[0], G: c.Center[1], B: c.Center[2]}.Clamped()
		all = append(all, weighted{col: col, weight: float64(len(c.Observations))})
	}
	return byWeight(all)
}

// observations subsamples opaque pixels of img on a regular grid.
func observations(img image.Image, limit int) clusters.Observations {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 || limit <= 0 {
		return nil
	}
	step := 1
	if w*h > limit {
		step = int(math.Sqrt(float64(w*h)/float64(limit))) + 1
	}

	obs := make(clusters.Observations, 0, min(w*h, limit))
	for y := b.Min.Y; y < b.Max.Y; y += step {
		for x := b.Min.X; x < b.Max.X; x += step {
			r, g, bl, a := img.At(x, y).RGBA()
			if a == 0 {
				continue
			}
			obs = append(obs, clusters.Coordinates{
				float64(r) / 65535.0,
				float64(g) / 65535.0,
				float64(bl) / 65535.0,
			})
		}
	}
	return obs
}

func byWeight(all []weighted) []colorful.Color {
	slices.SortStableFunc(all, func(a, b weighted) int {
		switch {
		case a.weight > b.weight:
			return -1
		case a.weight < b.weight:
			return 1
		}
		return 0
	})
	cols := make([]colorful.Color, len(all))
	for i, w := range all {
		cols[i] = w.col
	}
	return cols
}
