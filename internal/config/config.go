package config

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию повторяют исходный сценарий сборки анимации.
const (
	DefaultDir         = "DemoFigs"
	DefaultPattern     = "gen_%d.png"
	DefaultFirst       = 1
	DefaultLast        = 100
	DefaultOutput      = "anim1.gif"
	DefaultInterval    = 50 * time.Millisecond
	DefaultRepeatDelay = 1000 * time.Millisecond
	DefaultBackground  = "#ffffff"
	DefaultColors      = 256
	DefaultDPI         = 150
	DefaultQuality     = 23
)

var paletteMethods = []string{"plan9", "websafe", "dominant", "kmeans"}

type Config struct {
	Dir     string `yaml:"dir"`
	Pattern string `yaml:"pattern"`
	First   int    `yaml:"first"`
	Last    int    `yaml:"last"`
	// Input переопределяет шаблон: файл, папка, PDF или файл последовательности (.yaml).
	Input  string `yaml:"input"`
	Output string `yaml:"output"`

	Interval    time.Duration `yaml:"interval"`
	RepeatDelay time.Duration `yaml:"repeat_delay"`
	// 0 - бесконечно, -1 - один проход.
	LoopCount int `yaml:"loop_count"`

	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	Background string `yaml:"background"`

	PaletteMethod  string `yaml:"palette"`
	Colors         int    `yaml:"colors"`
	PaletteSamples int    `yaml:"palette_samples"`
	Dither         bool   `yaml:"dither"`

	Workers     int    `yaml:"workers"`
	DPI         int    `yaml:"dpi"`
	SkipMissing bool   `yaml:"skip_missing"`
	SequenceOut string `yaml:"sequence_out"`

	VideoEncoder string `yaml:"video_encoder"`
	Quality      int    `yaml:"quality"`

	ShowStats    bool   `yaml:"show_stats"`
	BuildVersion string `yaml:"-"`
}

// Default returns the settings of the 100-frame DemoFigs animation.
func Default() *Config {
	return &Config{
		Dir:            DefaultDir,
		Pattern:        DefaultPattern,
		First:          DefaultFirst,
		Last:           DefaultLast,
		Output:         DefaultOutput,
		Interval:       DefaultInterval,
		RepeatDelay:    DefaultRepeatDelay,
		Background:     DefaultBackground,
		PaletteMethod:  "plan9",
		Colors:         DefaultColors,
		PaletteSamples: 3,
		DPI:            DefaultDPI,
		Quality:        DefaultQuality,
	}
}

// LoadFile накладывает YAML-файл на текущие значения.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("разбор %s: %w", path, err)
	}
	return nil
}

// Validate checks the settings that would otherwise fail deep inside the pipeline.
func (c *Config) Validate() error {
	var errs []error

	if c.Input == "" {
		if c.Pattern == "" {
			errs = append(errs, errors.New("pattern is empty and no input given"))
		} else if !strings.Contains(c.Pattern, "%") {
			errs = append(errs, fmt.Errorf("pattern %q has no number verb", c.Pattern))
		}
		if c.Last < c.First {
			errs = append(errs, fmt.Errorf("last frame %d is before first frame %d", c.Last, c.First))
		}
	}
	if c.Output == "" {
		errs = append(errs, errors.New("output path is empty"))
	}
	if c.Interval <= 0 {
		errs = append(errs, fmt.Errorf("interval must be positive, got %s", c.Interval))
	}
	if c.RepeatDelay < 0 {
		errs = append(errs, fmt.Errorf("repeat delay must not be negative, got %s", c.RepeatDelay))
	}
	if c.LoopCount < -1 {
		errs = append(errs, fmt.Errorf("loop count must be -1 or greater, got %d", c.LoopCount))
	}
	if c.Width < 0 || c.Height < 0 {
		errs = append(errs, fmt.Errorf("invalid canvas size %dx%d", c.Width, c.Height))
	}
	if c.Colors < 2 || c.Colors > 256 {
		errs = append(errs, fmt.Errorf("colors must be within 2..256, got %d", c.Colors))
	}
	if !validPaletteMethod(c.PaletteMethod) {
		errs = append(errs, fmt.Errorf("unknown palette method %q (use %s)", c.PaletteMethod, strings.Join(paletteMethods, ", ")))
	}
	if _, err := ParseHexColor(c.Background); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func validPaletteMethod(m string) bool {
	for _, pm := range paletteMethods {
		if m == pm {
			return true
		}
	}
	return false
}

// ParseHexColor accepts "rrggbb" or "#rrggbb" in any letter case.
func ParseHexColor(s string) (color.RGBA, error) {
	hex := strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(hex, "#") {
		hex = "#" + hex
	}
	if len(hex) != 7 {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}, nil
}

// FrameDelays returns one display duration per frame. Non-zero overrides win
// over the interval; the repeat delay is added to the final frame.
func (c *Config) FrameDelays(n int, overrides []time.Duration) []time.Duration {
	if n <= 0 {
		return nil
	}
	delays := make([]time.Duration, n)
	for i := range delays {
		delays[i] = c.Interval
		if i < len(overrides) && overrides[i] > 0 {
			delays[i] = overrides[i]
		}
	}
	delays[n-1] += c.RepeatDelay
	return delays
}
