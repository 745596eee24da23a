package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("STARTING_BALANCE", "250.5")
	t.Setenv("PEG_ROWS", "7")
	t.Setenv("GRAVITY_X", "not-a-number")
	t.Setenv("MIGRATE_ON_START", "yes")
	t.Setenv("COLLISION_POLICY", "nearest")

	cfg := Load()

	if cfg.StartingBalance != 250.5 {
		t.Errorf("StartingBalance = %v, want 250.5", cfg.StartingBalance)
	}
	if cfg.PegRows != 7 {
		t.Errorf("PegRows = %d, want 7", cfg.PegRows)
	}
	if cfg.GravityX != 0.05 {
		t.Errorf("GravityX = %v, want default 0.05 for an unparsable value", cfg.GravityX)
	}
	if !cfg.MigrateOnStart {
		t.Error("MigrateOnStart should accept yes")
	}
	if cfg.CollisionPolicy != "nearest" {
		t.Errorf("CollisionPolicy = %q", cfg.CollisionPolicy)
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_OFF", "off")
	t.Setenv("FLAG_BAD", "maybe")
	if getEnvBool("FLAG_OFF", true) {
		t.Error("off parsed as true")
	}
	if !getEnvBool("FLAG_BAD", true) {
		t.Error("unknown value should keep the default")
	}
	if getEnvBool("FLAG_UNSET_FOR_TEST", false) {
		t.Error("unset flag should keep the default")
	}
}

const sampleBins = `
bins:
  - {low: 0, high: 150, multiplier: 1000, label: "1000x", color: [255, 215, 0], rare: true}
  - {low: 150, high: 600, multiplier: 0.5, label: "0.5x", color: [120, 120, 120]}
`

func TestParseBins(t *testing.T) {
	bins, err := ParseBins([]byte(sampleBins))
	if err != nil {
		t.Fatalf("ParseBins: %v", err)
	}
	if len(bins) != 2 {
		t.Fatalf("got %d bins, want 2", len(bins))
	}
	if !bins[0].Rare || bins[0].Color != [3]uint8{255, 215, 0} || bins[0].Multiplier != 1000 {
		t.Errorf("first bin = %+v", bins[0])
	}
	if bins[1].Low != 150 || bins[1].High != 600 || bins[1].Label != "0.5x" {
		t.Errorf("second bin = %+v", bins[1])
	}

	if _, err := ParseBins([]byte("bins: []")); err == nil {
		t.Error("empty pay table accepted")
	}
	if _, err := ParseBins([]byte("bins: [")); err == nil {
		t.Error("malformed yaml accepted")
	}
}

func TestLoadBins(t *testing.T) {
	bins, err := LoadBins("")
	if err != nil || bins != nil {
		t.Errorf("empty path = %v, %v; want nil, nil", bins, err)
	}

	path := filepath.Join(t.TempDir(), "bins.yaml")
	if err := os.WriteFile(path, []byte(sampleBins), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	bins, err = LoadBins(path)
	if err != nil || len(bins) != 2 {
		t.Errorf("LoadBins = %d bins, %v", len(bins), err)
	}

	if _, err := LoadBins(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file accepted")
	}
}
