package source

import (
	"errors"
	"fmt"
	"image"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"

	"github.com/ivlev/frames2gif/internal/config"
)

var (
	ErrNoFrames     = errors.New("no frames found")
	ErrMissingFrame = errors.New("frame file is missing")
)

type Source interface {
	FrameCount() int
	FrameDimensions(index int) (width, height int, err error)
	RenderFrame(index int) (image.Image, error)
	FrameName(index int) string
	Close() error
}

// DelaySource is implemented by sources that carry per-frame display durations.
type DelaySource interface {
	FrameDelays() []time.Duration
}

type FitzPDFSource struct {
	doc  *fitz.Document
	path string
	dpi  int
}

func NewFitzPDFSource(path string, dpi int) (*FitzPDFSource, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, err
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, ErrNoFrames
	}
	return &FitzPDFSource{doc: doc, path: path, dpi: dpi}, nil
}

func (f *FitzPDFSource) FrameCount() int {
	return f.doc.NumPage()
}

func (f *FitzPDFSource) FrameDimensions(index int) (int, int, error) {
	rect, err := f.doc.Bound(index)
	if err != nil {
		return 0, 0, err
	}
	// Bound is in points (1/72")
	scale := float64(f.dpi) / 72.0
	return int(float64(rect.Dx()) * scale), int(float64(rect.Dy()) * scale), nil
}

func (f *FitzPDFSource) RenderFrame(index int) (image.Image, error) {
	// Document is not safe for concurrent use: each worker opens its own.
	workerDoc, err := fitz.New(f.path)
	if err != nil {
		return nil, err
	}
	defer workerDoc.Close()
	return workerDoc.ImageDPI(index, float64(f.dpi))
}

func (f *FitzPDFSource) FrameName(index int) string {
	return fmt.Sprintf("%s#%d", f.path, index+1)
}

func (f *FitzPDFSource) Close() error {
	return f.doc.Close()
}

// Open picks the source for the configured input: a template range when no
// input is given, otherwise a PDF, a sequence file, an image or a directory.
// A sequence file's own timing replaces the configured one.
func Open(cfg *config.Config) (Source, error) {
	input := cfg.Input
	if input == "" {
		return NewTemplateSource(cfg.Dir, cfg.Pattern, cfg.First, cfg.Last, cfg.SkipMissing)
	}

	switch strings.ToLower(filepath.Ext(input)) {
	case ".pdf":
		return NewFitzPDFSource(input, cfg.DPI)
	case ".yaml", ".yml":
		src, seq, err := NewSequenceSource(input)
		if err != nil {
			return nil, err
		}
		if seq.Interval > 0 {
			cfg.Interval = seq.Interval
		}
		if seq.RepeatDelay != nil {
			cfg.RepeatDelay = *seq.RepeatDelay
		}
		log.Printf("[*] Последовательность: %s (%d кадров)", input, src.FrameCount())
		return src, nil
	default:
		return NewImageSource(input)
	}
}
