package sequence

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Write validates seq and writes it as YAML, creating the parent directory.
// A missing version is stamped with the current one.
func Write(seq *Sequence, path string) error {
	if seq.Version == "" {
		seq.Version = Version
	}
	if err := seq.Validate(); err != nil {
		return fmt.Errorf("sequence %s: %w", path, err)
	}

	data, err := yaml.Marshal(seq)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads and validates a sequence file.
func Read(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var seq Sequence
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("sequence %s: %w", path, err)
	}
	if seq.Version != "" && seq.Version != Version {
		return nil, fmt.Errorf("sequence %s: unsupported version %q", path, seq.Version)
	}
	if err := seq.Validate(); err != nil {
		return nil, fmt.Errorf("sequence %s: %w", path, err)
	}
	return &seq, nil
}
