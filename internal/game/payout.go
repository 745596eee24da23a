package game

import (
	"fmt"
	"math"
	"sort"
)

// RGB is a display color for renderers.
type RGB [3]uint8

// PayoutBin is one landing region. Its vertical range is half-open: [Low, High).
type PayoutBin struct {
	Low        float64 `json:"low" yaml:"low"`
	High       float64 `json:"high" yaml:"high"`
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`
	Label      string  `json:"label" yaml:"label"`
	Color      RGB     `json:"color" yaml:"color"`
	Rare       bool    `json:"rare" yaml:"rare"`
}

// Contains reports whether y falls in [Low, High).
func (b PayoutBin) Contains(y float64) bool {
	return b.Low <= y && y < b.High
}

// BinSet is a validated partition of [0, Height) into payout bins, ordered by Low.
type BinSet struct {
	Height float64
	bins   []PayoutBin
}

// Payout is the outcome of resolving a final position.
type Payout struct {
	Bin        PayoutBin `json:"bin"`
	Label      string    `json:"label"`
	Multiplier float64   `json:"multiplier"`
	Winnings   float64   `json:"winnings"`
}

// NewBinSet sorts bins by lower bound and checks that they partition
// [0, height) exactly: first Low is 0, last High is height, each bin is
// non-empty and starts where the previous one ended. Exactly one bin must be
// flagged rare and it must carry the highest multiplier.
func NewBinSet(height float64, bins []PayoutBin) (*BinSet, error) {
	if height <= 0 || math.IsNaN(height) || math.IsInf(height, 0) {
		return nil, fmt.Errorf("bin set height %v: %w", height, ErrConfigurationInvalid)
	}
	if len(bins) == 0 {
		return nil, fmt.Errorf("bin set is empty: %w", ErrConfigurationInvalid)
	}

	sorted := make([]PayoutBin, len(bins))
	copy(sorted, bins)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Low < sorted[j].Low })

	if sorted[0].Low != 0 {
		return nil, fmt.Errorf("first bin starts at %v, not 0: %w", sorted[0].Low, ErrConfigurationInvalid)
	}
	if last := sorted[len(sorted)-1]; last.High != height {
		return nil, fmt.Errorf("last bin ends at %v, not %v: %w", last.High, height, ErrConfigurationInvalid)
	}

	rare := -1
	maxMult := math.Inf(-1)
	for i, b := range sorted {
		if !(b.Low < b.High) {
			return nil, fmt.Errorf("bin %q has empty range [%v, %v): %w", b.Label, b.Low, b.High, ErrConfigurationInvalid)
		}
		if b.Multiplier < 0 || math.IsNaN(b.Multiplier) || math.IsInf(b.Multiplier, 0) {
			return nil, fmt.Errorf("bin %q multiplier %v: %w", b.Label, b.Multiplier, ErrConfigurationInvalid)
		}
		if i > 0 && sorted[i-1].High != b.Low {
			return nil, fmt.Errorf("bins %q and %q are not contiguous: %w", sorted[i-1].Label, b.Label, ErrConfigurationInvalid)
		}
		if b.Rare {
			if rare >= 0 {
				return nil, fmt.Errorf("more than one rare bin: %w", ErrConfigurationInvalid)
			}
			rare = i
		}
		if b.Multiplier > maxMult {
			maxMult = b.Multiplier
		}
	}
	if rare < 0 {
		return nil, fmt.Errorf("no rare bin flagged: %w", ErrConfigurationInvalid)
	}
	if sorted[rare].Multiplier != maxMult {
		return nil, fmt.Errorf("rare bin %q is not the highest multiplier: %w", sorted[rare].Label, ErrConfigurationInvalid)
	}

	return &BinSet{Height: height, bins: sorted}, nil
}

// Bins returns a copy of the bins ordered by lower bound.
func (s *BinSet) Bins() []PayoutBin {
	out := make([]PayoutBin, len(s.bins))
	copy(out, s.bins)
	return out
}

// Find returns the bin containing y.
func (s *BinSet) Find(y float64) (PayoutBin, bool) {
	for _, b := range s.bins {
		if b.Contains(y) {
			return b, true
		}
	}
	return PayoutBin{}, false
}

// Resolve maps a final vertical position to its bin and computes winnings.
// A position outside every bin means the partition is broken.
func (s *BinSet) Resolve(y, wager float64) (Payout, error) {
	b, ok := s.Find(y)
	if !ok {
		return Payout{}, fmt.Errorf("no bin contains y=%v: %w", y, ErrConfigurationInvalid)
	}
	return Payout{
		Bin:        b,
		Label:      b.Label,
		Multiplier: b.Multiplier,
		Winnings:   wager * b.Multiplier,
	}, nil
}

// DefaultBins builds the stock pay ladder scaled to the triangle's vertical
// span. Four equal bands start at the apex, the 2x band is a third taller and
// the 0.2x band takes the last 30px above the base (less on very short
// fields). On the default 600px field the bands are 90px tall. The top band
// reaches up to 0 and the bottom band down to height so the set covers the
// whole field.
func DefaultBins(height, apexY, baseY float64) []PayoutBin {
	floor := math.Min(30, (baseY-apexY)/6)
	bottom := baseY - floor
	band := 3 * (bottom - apexY) / 16
	return []PayoutBin{
		{Low: 0, High: apexY + band, Multiplier: 1000, Label: "1000x", Color: RGB{255, 215, 0}, Rare: true},
		{Low: apexY + band, High: apexY + 2*band, Multiplier: 130, Label: "130x", Color: RGB{255, 140, 0}},
		{Low: apexY + 2*band, High: apexY + 3*band, Multiplier: 26, Label: "26x", Color: RGB{255, 100, 100}},
		{Low: apexY + 3*band, High: apexY + 4*band, Multiplier: 10, Label: "10x", Color: RGB{200, 200, 100}},
		{Low: apexY + 4*band, High: bottom, Multiplier: 2, Label: "2x", Color: RGB{180, 180, 180}},
		{Low: bottom, High: height, Multiplier: 0.2, Label: "0.2x", Color: RGB{100, 100, 100}},
	}
}
