package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// BinSpec is one pay table row as written in BINS_FILE.
type BinSpec struct {
	Low        float64  `yaml:"low"`
	High       float64  `yaml:"high"`
	Multiplier float64  `yaml:"multiplier"`
	Label      string   `yaml:"label"`
	Color      [3]uint8 `yaml:"color"`
	Rare       bool     `yaml:"rare"`
}

type binsFile struct {
	Bins []BinSpec `yaml:"bins"`
}

// LoadBins reads a YAML pay table. An empty path returns nil so callers fall
// back to the built-in ladder. Partition checks happen when the table is built.
func LoadBins(path string) ([]BinSpec, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bins file: %w", err)
	}
	return ParseBins(data)
}

// ParseBins decodes a pay table document.
func ParseBins(data []byte) ([]BinSpec, error) {
	var f binsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse bins file: %w", err)
	}
	if len(f.Bins) == 0 {
		return nil, fmt.Errorf("bins file has no bins")
	}
	return f.Bins, nil
}
