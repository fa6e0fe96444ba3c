package main

import (
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestParseRange(t *testing.T) {
	tests := []struct {
		in          string
		first, last int
		wantErr     bool
	}{
		{"1:100", 1, 100, false},
		{"0:9", 0, 9, false},
		{"7", 7, 7, false},
		{"a:b", 0, 0, true},
		{"", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			first, last, err := parseRange(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if first != tt.first || last != tt.last {
				t.Errorf("got %d:%d, want %d:%d", first, last, tt.first, tt.last)
			}
		})
	}
}

func TestBuildConfigDefaults(t *testing.T) {
	cfg, err := buildConfig(&CLI{})
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.Output != "anim1.gif" || cfg.Last != 100 || cfg.Interval != 50*time.Millisecond {
		t.Errorf("defaults not kept: %+v", cfg)
	}
}

func TestBuildConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("interval: 80ms\nrepeat_delay: 2s\noutput: file.gif\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfig(&CLI{
		Config:      path,
		Output:      "flag.gif",
		Range:       "5:9",
		RepeatDelay: "0s",
		Once:        true,
	})
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if cfg.Output != "flag.gif" {
		t.Errorf("flag should win over file, got %s", cfg.Output)
	}
	if cfg.Interval != 80*time.Millisecond {
		t.Errorf("file interval should be kept, got %s", cfg.Interval)
	}
	if cfg.RepeatDelay != 0 {
		t.Errorf("explicit zero repeat delay should apply, got %s", cfg.RepeatDelay)
	}
	if cfg.First != 5 || cfg.Last != 9 {
		t.Errorf("range not applied: %d..%d", cfg.First, cfg.Last)
	}
	if cfg.LoopCount != -1 {
		t.Errorf("--once should disable looping, got %d", cfg.LoopCount)
	}
}

func TestBuildConfigInvalid(t *testing.T) {
	if _, err := buildConfig(&CLI{Range: "9:1"}); err == nil {
		t.Error("expected error for reversed range")
	}
	if _, err := buildConfig(&CLI{RepeatDelay: "soon"}); err == nil {
		t.Error("expected error for bad duration")
	}
}

func TestBuildConfigOutputDirAndAutoSequence(t *testing.T) {
	outDir := t.TempDir()
	cfg, err := buildConfig(&CLI{Output: outDir, SequenceOut: "auto"})
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}

	if filepath.Dir(cfg.Output) != outDir {
		t.Errorf("output should land in %s, got %s", outDir, cfg.Output)
	}
	if !strings.HasPrefix(filepath.Base(cfg.Output), "DemoFigs_") || filepath.Ext(cfg.Output) != ".gif" {
		t.Errorf("unexpected generated name %s", cfg.Output)
	}
	if want := strings.TrimSuffix(cfg.Output, ".gif") + ".frames.yaml"; cfg.SequenceOut != want {
		t.Errorf("expected sequence next to output %s, got %s", want, cfg.SequenceOut)
	}
}

func TestBuildConfigLoopsZeroOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	if err := os.WriteFile(path, []byte("loop_count: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := buildConfig(&CLI{Config: path, Loops: "0"})
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.LoopCount != 0 {
		t.Errorf("--loops 0 should restore endless looping, got %d", cfg.LoopCount)
	}

	cfg, err = buildConfig(&CLI{Config: path})
	if err != nil {
		t.Fatalf("buildConfig failed: %v", err)
	}
	if cfg.LoopCount != 3 {
		t.Errorf("file loop count should be kept, got %d", cfg.LoopCount)
	}

	if _, err := buildConfig(&CLI{Loops: "forever"}); err == nil {
		t.Error("expected error for non-numeric loops")
	}
}

func writeTestFrames(t *testing.T, dir string, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		for p := 0; p < len(img.Pix); p += 4 {
			img.Pix[p] = uint8(i * 40)
			img.Pix[p+3] = 255
		}
		f, err := os.Create(filepath.Join(dir, "gen_"+strconv.Itoa(i)+".png"))
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(f, img); err != nil {
			t.Fatal(err)
		}
		f.Close()
	}
}

func TestRunBuildsAnimation(t *testing.T) {
	dir := t.TempDir()
	writeTestFrames(t, dir, 3)
	out := filepath.Join(dir, "anim.gif")

	res, err := run(&CLI{Dir: dir, Range: "1:3", Output: out})
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Frames != 3 || res.Output != out {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestRunUnsupportedOutput(t *testing.T) {
	dir := t.TempDir()
	writeTestFrames(t, dir, 1)

	_, err := run(&CLI{Dir: dir, Range: "1", Output: filepath.Join(dir, "anim.bmp")})
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Fatalf("expected unsupported format error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "anim.bmp")); !os.IsNotExist(err) {
		t.Error("no output should be written")
	}
}
