package anim

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Timing is the display schedule of an animation.
type Timing struct {
	Delays    []time.Duration // one per frame, repeat delay already folded into the last
	LoopCount int             // 0 = forever, -1 = play once, n = repeat n times
}

type Encoder interface {
	// Palettized reports whether Encode expects *image.Paletted frames.
	Palettized() bool
	Encode(ctx context.Context, frames []image.Image, path string, timing Timing) error
}

// ForPath selects the encoder by output extension.
func ForPath(path, videoEncoder string, quality int) (Encoder, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".gif":
		return &GIFEncoder{}, nil
	case ".mp4", ".mov", ".webm", ".mkv":
		return &FFmpegEncoder{EncoderName: videoEncoder, Quality: quality}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", ext)
	}
}

func checkFrames(frames []image.Image, timing Timing) error {
	if len(frames) == 0 {
		return fmt.Errorf("no frames to encode")
	}
	if len(timing.Delays) != len(frames) {
		return fmt.Errorf("%d frames but %d delays", len(frames), len(timing.Delays))
	}
	return nil
}

// partialPath is where output is written before the final rename.
func partialPath(path string) string {
	return filepath.Join(filepath.Dir(path), ".partial-"+filepath.Base(path))
}

// commit moves a finished partial file into place, or removes it on failure.
func commit(tmp, path string, err error) error {
	if err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
