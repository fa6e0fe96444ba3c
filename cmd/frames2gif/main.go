package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/ivlev/frames2gif/internal/anim"
	"github.com/ivlev/frames2gif/internal/config"
	"github.com/ivlev/frames2gif/internal/engine"
	"github.com/ivlev/frames2gif/internal/sequence"
	"github.com/ivlev/frames2gif/internal/source"
	"github.com/ivlev/frames2gif/internal/system"
)

// version is set via ldflags at build time
var version = "dev"

// Пустые значения флагов означают "взять из конфигурации".
type CLI struct {
	Input  string `arg:"" name:"input" help:"Папка, изображение, PDF или файл последовательности (.yaml). Если пусто, используется шаблон --dir/--pattern." optional:""`
	Output string `short:"o" help:"Путь к анимации (.gif, .mp4, .webm, .mov, .mkv) или папка для имени с отметкой времени"`
	Config string `short:"c" help:"YAML-файл конфигурации" type:"existingfile"`

	Dir     string `help:"Папка с кадрами для шаблона"`
	Pattern string `help:"Шаблон имени кадра, например gen_%d.png"`
	Range   string `help:"Диапазон номеров кадров, например 1:100"`

	Interval    time.Duration `help:"Длительность показа одного кадра (например, 50ms)"`
	RepeatDelay string        `name:"repeat-delay" help:"Пауза перед повтором (например, 1s)"`
	Loops       string        `help:"Количество повторов (0 - бесконечно)"`
	Once        bool          `help:"Проиграть один раз без повтора"`

	Width      int    `help:"Ширина холста (0 - по первому кадру)"`
	Height     int    `help:"Высота холста (0 - по первому кадру)"`
	Background string `help:"Цвет фона, #rrggbb"`

	Palette string `help:"Палитра: plan9, websafe, dominant, kmeans"`
	Colors  int    `help:"Размер палитры (2-256)"`
	Dither  bool   `help:"Диффузия ошибки Флойда-Стейнберга"`

	Workers     int    `help:"Потоки (0 - по числу CPU)"`
	DPI         int    `help:"DPI для PDF"`
	SkipMissing bool   `name:"skip-missing" help:"Пропускать отсутствующие кадры шаблона"`
	SequenceOut string `name:"sequence-out" help:"Сохранить итоговую последовательность кадров в YAML (auto - рядом с анимацией)"`
	Quality     int    `help:"Качество видео (0 - авто)"`
	Stats       bool   `help:"Показать отчёт о производительности"`
	Version     bool   `help:"Показать версию"`
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("frames2gif"),
		kong.Description("Собирает пронумерованные кадры в зацикленную анимацию."),
		kong.UsageOnError(),
	)

	if cli.Version {
		fmt.Printf("frames2gif %s\n", version)
		os.Exit(0)
	}

	res, err := run(&cli)
	if err != nil {
		log.Fatalf("[-] %v", err)
	}

	fmt.Printf("[+++] Успех! Результат: %s (%d кадров, %.2fs)\n", res.Output, res.Frames, res.Elapsed.Seconds())
}

// run owns the source for the whole build, so it is closed on every exit path.
func run(cli *CLI) (*engine.Result, error) {
	cfg, err := buildConfig(cli)
	if err != nil {
		return nil, fmt.Errorf("ошибка конфигурации: %w", err)
	}

	src, err := source.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации источника: %w", err)
	}
	defer src.Close()

	enc, err := anim.ForPath(cfg.Output, cfg.VideoEncoder, cfg.Quality)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := engine.NewAnimationProject(cfg, src, enc).Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка проекта: %w", err)
	}
	return res, nil
}

func buildConfig(cli *CLI) (*config.Config, error) {
	cfg := config.Default()
	if cli.Config != "" {
		if err := cfg.LoadFile(cli.Config); err != nil {
			return nil, err
		}
	}

	setString(&cfg.Input, cli.Input)
	setString(&cfg.Output, cli.Output)
	setString(&cfg.Dir, cli.Dir)
	setString(&cfg.Pattern, cli.Pattern)
	setString(&cfg.Background, cli.Background)
	setString(&cfg.PaletteMethod, cli.Palette)
	setString(&cfg.SequenceOut, cli.SequenceOut)
	setInt(&cfg.Width, cli.Width)
	setInt(&cfg.Height, cli.Height)
	setInt(&cfg.Colors, cli.Colors)
	setInt(&cfg.Workers, cli.Workers)
	setInt(&cfg.DPI, cli.DPI)
	setInt(&cfg.Quality, cli.Quality)

	if cli.Range != "" {
		first, last, err := parseRange(cli.Range)
		if err != nil {
			return nil, err
		}
		cfg.First, cfg.Last = first, last
	}
	if cli.Interval != 0 {
		cfg.Interval = cli.Interval
	}
	if cli.RepeatDelay != "" {
		d, err := time.ParseDuration(cli.RepeatDelay)
		if err != nil {
			return nil, fmt.Errorf("repeat-delay: %w", err)
		}
		cfg.RepeatDelay = d
	}
	if cli.Loops != "" {
		n, err := strconv.Atoi(cli.Loops)
		if err != nil {
			return nil, fmt.Errorf("loops: %w", err)
		}
		cfg.LoopCount = n
	}
	if cli.Once {
		cfg.LoopCount = -1
	}
	cfg.Dither = cfg.Dither || cli.Dither
	cfg.SkipMissing = cfg.SkipMissing || cli.SkipMissing
	cfg.ShowStats = cfg.ShowStats || cli.Stats
	cfg.BuildVersion = version

	if isDir(cfg.Output) {
		name := cfg.Input
		if name == "" {
			name = cfg.Dir
		}
		cfg.Output = system.GenerateOutputPath(cfg.Output, name, ".gif")
	}
	if cfg.SequenceOut == "auto" {
		cfg.SequenceOut = sequence.DefaultPath(cfg.Output)
	}

	if isVideo(cfg.Output) && cfg.VideoEncoder == "" {
		encoderName, _ := system.GetBestH264Encoder()
		if encoderName != "libx264" {
			fmt.Printf("[*] Обнаружено аппаратное ускорение: %s\n", encoderName)
		}
		cfg.VideoEncoder = encoderName
	}

	return cfg, cfg.Validate()
}

// parseRange accepts "first:last" or a single number.
func parseRange(s string) (int, int, error) {
	var first, last int
	if !strings.Contains(s, ":") {
		if _, err := fmt.Sscanf(s, "%d", &first); err != nil {
			return 0, 0, fmt.Errorf("диапазон %q: %w", s, err)
		}
		return first, first, nil
	}
	if _, err := fmt.Sscanf(s, "%d:%d", &first, &last); err != nil {
		return 0, 0, fmt.Errorf("диапазон %q: %w", s, err)
	}
	return first, last, nil
}

func isVideo(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp4", ".mov", ".webm", ".mkv":
		return true
	}
	return false
}

// isDir reports whether the output names a directory rather than a file.
func isDir(path string) bool {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator)) {
		return true
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
