package sequence

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSequenceWriteRead(t *testing.T) {
	seq := FromPaths([]string{"gen_1.png", "gen_2.png", "gen_3.png"}, []time.Duration{0, 120 * time.Millisecond})
	seq.Interval = 50 * time.Millisecond
	repeat := time.Second
	seq.RepeatDelay = &repeat

	path := filepath.Join(t.TempDir(), "anim.frames.yaml")
	if err := Write(seq, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	read, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if read.Version != Version {
		t.Errorf("Version mismatch: expected %s, got %s", Version, read.Version)
	}
	if len(read.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(read.Frames))
	}
	for i, f := range read.Frames {
		if f.Index != i+1 {
			t.Errorf("frame %d: expected index %d, got %d", i, i+1, f.Index)
		}
	}
	if read.Frames[1].Delay != 120*time.Millisecond {
		t.Errorf("per-frame delay lost: %s", read.Frames[1].Delay)
	}
	if read.RepeatDelay == nil || *read.RepeatDelay != time.Second {
		t.Errorf("repeat delay lost: %v", read.RepeatDelay)
	}
}

func TestSequenceReadHandWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.yaml")
	data := []byte(`version: "1.0"
interval: 40ms
frames:
  - input: a.png
  - input: b.png
    delay: 250ms
`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	seq, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	delays := seq.Delays()
	if delays[0] != 40*time.Millisecond || delays[1] != 250*time.Millisecond {
		t.Errorf("unexpected delays %v", delays)
	}

	paths := seq.Paths("/frames")
	if paths[0] != filepath.Join("/frames", "a.png") {
		t.Errorf("relative path not resolved: %s", paths[0])
	}
}

func TestSequenceValidate(t *testing.T) {
	tests := []struct {
		name string
		seq  Sequence
	}{
		{"empty", Sequence{}},
		{"missing input", Sequence{Frames: []Frame{{Input: ""}}}},
		{"negative delay", Sequence{Frames: []Frame{{Input: "a.png", Delay: -time.Millisecond}}}},
		{"descending index", Sequence{Frames: []Frame{{Index: 2, Input: "a.png"}, {Index: 1, Input: "b.png"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.seq.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	if got := DefaultPath("out/anim1.gif"); got != "out/anim1.frames.yaml" {
		t.Errorf("unexpected path %s", got)
	}
}

func TestWriteStampsVersionAndCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "anim1.frames.yaml")
	seq := &Sequence{Frames: []Frame{{Index: 1, Input: "a.png"}}}

	if err := Write(seq, path); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	read, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if read.Version != Version {
		t.Errorf("expected version %s, got %q", Version, read.Version)
	}
	if read.RepeatDelay != nil {
		t.Errorf("unset repeat delay should stay absent, got %s", *read.RepeatDelay)
	}

	if err := Write(&Sequence{}, path); err == nil {
		t.Error("expected error writing an empty sequence")
	}
}

func TestReadRejectsUnknownVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seq.yaml")
	if err := os.WriteFile(path, []byte("version: \"2.0\"\nframes:\n  - input: a.png\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Read(path); err == nil {
		t.Error("expected error for unknown version")
	}
}
