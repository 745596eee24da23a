package game

import (
	"errors"
	"testing"
)

func defaultBinSet(t *testing.T) *BinSet {
	t.Helper()
	set, err := NewBinSet(DefaultHeight, DefaultBins(DefaultHeight, DefaultMarginTop, DefaultHeight-DefaultMarginBottom))
	if err != nil {
		t.Fatalf("NewBinSet: %v", err)
	}
	return set
}

func checkPartition(t *testing.T, height float64, bins []PayoutBin) {
	t.Helper()
	if bins[0].Low != 0 {
		t.Errorf("first bin starts at %v, want 0", bins[0].Low)
	}
	if last := bins[len(bins)-1]; last.High != height {
		t.Errorf("last bin ends at %v, want %v", last.High, height)
	}
	rare := 0
	for i, b := range bins {
		if b.Low >= b.High {
			t.Errorf("bin %q is empty", b.Label)
		}
		if i > 0 && bins[i-1].High != b.Low {
			t.Errorf("gap or overlap between %q and %q", bins[i-1].Label, b.Label)
		}
		if b.Rare {
			rare++
		}
	}
	if rare != 1 {
		t.Errorf("rare bins = %d, want 1", rare)
	}
}

func TestDefaultBinsPartitionHeight(t *testing.T) {
	checkPartition(t, DefaultHeight, defaultBinSet(t).Bins())
}

func TestDefaultBinsKeepStockLadder(t *testing.T) {
	bins := defaultBinSet(t).Bins()
	want := []float64{0, 150, 240, 330, 420, 540}
	for i, b := range bins {
		if b.Low != want[i] {
			t.Errorf("bin %q starts at %v, want %v", b.Label, b.Low, want[i])
		}
	}
}

func TestDefaultBinsPartitionAcrossGeometries(t *testing.T) {
	cases := []struct {
		name                 string
		height, apexY, baseY float64
	}{
		{"default", 600, 60, 570},
		{"tall", 1200, 60, 1170},
		{"short", 450, 60, 420},
		{"shorter", 400, 60, 370},
		{"squat", 200, 60, 170},
		{"tiny span", 130, 60, 100},
		{"no margins", 300, 0, 300},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bins := DefaultBins(tc.height, tc.apexY, tc.baseY)
			set, err := NewBinSet(tc.height, bins)
			if err != nil {
				t.Fatalf("NewBinSet: %v", err)
			}
			checkPartition(t, tc.height, set.Bins())
		})
	}
}

func TestConfigurePartitionsAnyPeggedHeight(t *testing.T) {
	for h := 150.0; h <= 1200; h += 50 {
		cfg := DefaultPhysicsConfig()
		cfg.Height = h
		if _, err := GeneratePegField(cfg); err != nil {
			continue
		}
		table, err := Configure(cfg)
		if err != nil {
			t.Errorf("Configure(height=%v): %v", h, err)
			continue
		}
		checkPartition(t, h, table.Bins.Bins())
		for y := 0.0; y < h; y += 0.5 {
			if _, err := table.Bins.Resolve(y, 1); err != nil {
				t.Fatalf("height %v: Resolve(%v): %v", h, y, err)
			}
		}
	}
}

func TestDefaultBinsEveryPixelResolves(t *testing.T) {
	set := defaultBinSet(t)
	for y := 0.0; y < DefaultHeight; y += 0.5 {
		if _, err := set.Resolve(y, 1); err != nil {
			t.Fatalf("Resolve(%v): %v", y, err)
		}
	}
}

func TestResolveLowerBoundIsInclusive(t *testing.T) {
	set := defaultBinSet(t)

	p, err := set.Resolve(150, 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Label != "130x" {
		t.Errorf("y=150 resolved to %q, want 130x", p.Label)
	}

	p, err = set.Resolve(149.999, 10)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Label != "1000x" {
		t.Errorf("y=149.999 resolved to %q, want 1000x", p.Label)
	}
}

func TestResolveOutsidePartition(t *testing.T) {
	set := defaultBinSet(t)
	for _, y := range []float64{-1, DefaultHeight, DefaultHeight + 10} {
		if _, err := set.Resolve(y, 10); !errors.Is(err, ErrConfigurationInvalid) {
			t.Errorf("Resolve(%v) err = %v, want ErrConfigurationInvalid", y, err)
		}
	}
}

func TestResolveWinnings(t *testing.T) {
	set, err := NewBinSet(100, []PayoutBin{
		{Low: 0, High: 50, Multiplier: 5, Label: "5x", Rare: true},
		{Low: 50, High: 100, Multiplier: 0.5, Label: "0.5x"},
	})
	if err != nil {
		t.Fatalf("NewBinSet: %v", err)
	}
	p, err := set.Resolve(10, 100)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if p.Winnings != 500 || p.Multiplier != 5 {
		t.Errorf("payout = %+v, want 500 at 5x", p)
	}
}

func TestNewBinSetSortsBins(t *testing.T) {
	set, err := NewBinSet(100, []PayoutBin{
		{Low: 50, High: 100, Multiplier: 1, Label: "low"},
		{Low: 0, High: 50, Multiplier: 2, Label: "high", Rare: true},
	})
	if err != nil {
		t.Fatalf("NewBinSet: %v", err)
	}
	if bins := set.Bins(); bins[0].Label != "high" {
		t.Errorf("bins not sorted by lower bound: %+v", bins)
	}
}

func TestNewBinSetRejectsBadPartitions(t *testing.T) {
	cases := []struct {
		name string
		bins []PayoutBin
	}{
		{"empty", nil},
		{"not from zero", []PayoutBin{{Low: 10, High: 100, Multiplier: 1, Rare: true}}},
		{"short of height", []PayoutBin{{Low: 0, High: 90, Multiplier: 1, Rare: true}}},
		{"gap", []PayoutBin{
			{Low: 0, High: 40, Multiplier: 2, Rare: true},
			{Low: 50, High: 100, Multiplier: 1},
		}},
		{"overlap", []PayoutBin{
			{Low: 0, High: 60, Multiplier: 2, Rare: true},
			{Low: 50, High: 100, Multiplier: 1},
		}},
		{"empty range", []PayoutBin{
			{Low: 0, High: 0, Multiplier: 1},
			{Low: 0, High: 100, Multiplier: 2, Rare: true},
		}},
		{"negative multiplier", []PayoutBin{{Low: 0, High: 100, Multiplier: -1, Rare: true}}},
		{"no rare bin", []PayoutBin{{Low: 0, High: 100, Multiplier: 1}}},
		{"two rare bins", []PayoutBin{
			{Low: 0, High: 50, Multiplier: 2, Rare: true},
			{Low: 50, High: 100, Multiplier: 2, Rare: true},
		}},
		{"rare not highest", []PayoutBin{
			{Low: 0, High: 50, Multiplier: 1, Rare: true},
			{Low: 50, High: 100, Multiplier: 2},
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewBinSet(100, tc.bins); !errors.Is(err, ErrConfigurationInvalid) {
				t.Errorf("err = %v, want ErrConfigurationInvalid", err)
			}
		})
	}
}
