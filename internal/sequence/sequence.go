package sequence

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const Version = "1.0"

// Sequence is an explicit, ordered list of animation frames.
type Sequence struct {
	Version     string        `yaml:"version"`
	Interval    time.Duration `yaml:"interval,omitempty"`
	// nil keeps the configured pause; an explicit 0s disables it.
	RepeatDelay *time.Duration `yaml:"repeat_delay,omitempty"`
	Frames      []Frame       `yaml:"frames"`
}

// Frame is one still image of the animation
type Frame struct {
	Index int           `yaml:"index"`
	Input string        `yaml:"input"`
	Delay time.Duration `yaml:"delay,omitempty"` // 0 = use the sequence interval
}

// FromPaths builds a sequence in the given order. delays may be shorter than paths.
func FromPaths(paths []string, delays []time.Duration) *Sequence {
	seq := &Sequence{Version: Version, Frames: make([]Frame, len(paths))}
	for i, p := range paths {
		seq.Frames[i] = Frame{Index: i + 1, Input: p}
		if i < len(delays) {
			seq.Frames[i].Delay = delays[i]
		}
	}
	return seq
}

// Paths resolves frame inputs; relative paths are taken relative to baseDir.
func (s *Sequence) Paths(baseDir string) []string {
	paths := make([]string, len(s.Frames))
	for i, f := range s.Frames {
		p := f.Input
		if !filepath.IsAbs(p) && baseDir != "" {
			p = filepath.Join(baseDir, p)
		}
		paths[i] = p
	}
	return paths
}

func (s *Sequence) Delays() []time.Duration {
	delays := make([]time.Duration, len(s.Frames))
	for i, f := range s.Frames {
		delays[i] = f.Delay
		if delays[i] == 0 {
			delays[i] = s.Interval
		}
	}
	return delays
}

// Validate checks that every frame has an input and that indices, when set, ascend.
func (s *Sequence) Validate() error {
	if len(s.Frames) == 0 {
		return fmt.Errorf("sequence has no frames")
	}
	prev := 0
	for i, f := range s.Frames {
		if strings.TrimSpace(f.Input) == "" {
			return fmt.Errorf("frame %d has no input", i+1)
		}
		if f.Delay < 0 {
			return fmt.Errorf("frame %d has negative delay %s", i+1, f.Delay)
		}
		if f.Index != 0 {
			if f.Index <= prev {
				return fmt.Errorf("frame %d: index %d is not ascending", i+1, f.Index)
			}
			prev = f.Index
		}
	}
	return nil
}

// DefaultPath returns the sequence file path written next to an output animation.
func DefaultPath(output string) string {
	return strings.TrimSuffix(output, filepath.Ext(output)) + ".frames.yaml"
}
