package renderer

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// FitRect returns the largest rectangle with src's aspect ratio that fits in
// dst, centred in dst.
func FitRect(src, dst image.Rectangle) image.Rectangle {
	sw, sh := src.Dx(), src.Dy()
	dw, dh := dst.Dx(), dst.Dy()
	if sw == 0 || sh == 0 || dw == 0 || dh == 0 {
		return image.Rectangle{Min: dst.Min, Max: dst.Min}
	}

	w, h := dw, sh*dw/sw
	if h > dh {
		w, h = sw*dh/sh, dh
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	x := dst.Min.X + (dw-w)/2
	y := dst.Min.Y + (dh-h)/2
	return image.Rect(x, y, x+w, y+h)
}

// Compose draws src onto dst as a single layer: background fill, then the
// frame scaled to fit and centred.
func Compose(dst *image.RGBA, src image.Image, bg color.Color) {
	bounds := dst.Bounds()
	draw.Draw(dst, bounds, image.NewUniform(bg), image.Point{}, draw.Src)

	sb := src.Bounds()
	target := FitRect(sb, bounds)
	if target.Empty() {
		return
	}

	switch {
	case target.Dx() == sb.Dx() && target.Dy() == sb.Dy():
		// без масштабирования
		draw.Draw(dst, target, src, sb.Min, draw.Over)
	case target.Dx() < sb.Dx():
		draw.CatmullRom.Scale(dst, target, src, sb, draw.Over, nil)
	default:
		draw.BiLinear.Scale(dst, target, src, sb, draw.Over, nil)
	}
}
