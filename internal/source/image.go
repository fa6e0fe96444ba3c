package source

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ivlev/frames2gif/internal/sequence"
	"github.com/ivlev/frames2gif/internal/system"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// IsImage reports whether the file extension is one the decoders handle.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// ImageSource serves frames from an ordered list of image files.
type ImageSource struct {
	paths  []string
	delays []time.Duration
}

// NewTemplateSource enumerates fmt.Sprintf(pattern, i) in dir for i in [first, last].
func NewTemplateSource(dir, pattern string, first, last int, skipMissing bool) (*ImageSource, error) {
	if last < first {
		return nil, fmt.Errorf("range %d..%d: %w", first, last, ErrNoFrames)
	}

	paths := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		p := filepath.Join(dir, fmt.Sprintf(pattern, i))
		if _, err := os.Stat(p); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if !skipMissing {
				return nil, fmt.Errorf("%s: %w", p, ErrMissingFrame)
			}
			log.Printf("[!] Кадр пропущен, файл не найден: %s", p)
			continue
		}
		paths = append(paths, p)
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, pattern), ErrNoFrames)
	}
	return &ImageSource{paths: paths}, nil
}

// NewImageSource accepts a single image or a directory of images. Directory
// entries are ordered by the numbers in their names.
func NewImageSource(path string) (*ImageSource, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	var paths []string
	if fi.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if !entry.IsDir() && IsImage(entry.Name()) {
				paths = append(paths, filepath.Join(path, entry.Name()))
			}
		}
		sort.SliceStable(paths, func(i, j int) bool {
			return system.NaturalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
		})
	} else {
		paths = []string{path}
	}

	if len(paths) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoFrames)
	}
	return &ImageSource{paths: paths}, nil
}

// NewSequenceSource reads a YAML sequence file. Relative frame paths are
// resolved against the file's directory.
func NewSequenceSource(path string) (*ImageSource, *sequence.Sequence, error) {
	seq, err := sequence.Read(path)
	if err != nil {
		return nil, nil, fmt.Errorf("sequence %s: %w", path, err)
	}
	paths := seq.Paths(filepath.Dir(path))
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", p, ErrMissingFrame)
		}
	}
	return &ImageSource{paths: paths, delays: seq.Delays()}, seq, nil
}

func (s *ImageSource) FrameCount() int {
	return len(s.paths)
}

func (s *ImageSource) Paths() []string {
	return s.paths
}

func (s *ImageSource) FrameDelays() []time.Duration {
	return s.delays
}

func (s *ImageSource) FrameDimensions(index int) (int, int, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return cfg.Width, cfg.Height, nil
}

func (s *ImageSource) RenderFrame(index int) (image.Image, error) {
	f, err := os.Open(s.paths[index])
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.paths[index], err)
	}
	return img, nil
}

func (s *ImageSource) FrameName(index int) string {
	return s.paths[index]
}

func (s *ImageSource) Close() error {
	return nil
}
