package game

import (
	"fmt"
	"math"
)

// Peg is an immovable obstacle. Index is its position in generation order,
// which is also the order pegs are tested for collisions.
type Peg struct {
	Index    int  `json:"index"`
	Row      int  `json:"row"`
	Position Vec2 `json:"position"`
}

// Triangle is the play area: A is the launch anchor (bottom-left), B the apex
// (top-right) and C the far base corner.
type Triangle struct {
	A Vec2 `json:"a"`
	B Vec2 `json:"b"`
	C Vec2 `json:"c"`
}

// PegField is the immutable peg layout shared by every round.
type PegField struct {
	Triangle Triangle `json:"triangle"`
	Pegs     []Peg    `json:"pegs"`
	Rows     int      `json:"rows"`
}

// PointInTriangle reports whether p lies inside (or on an edge of) triangle abc
// using barycentric coordinates. Degenerate triangles contain nothing.
func PointInTriangle(p, a, b, c Vec2) bool {
	denom := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(denom) < degenerateEpsilon {
		return false
	}

	l1 := ((b.Y-c.Y)*(p.X-c.X) + (c.X-b.X)*(p.Y-c.Y)) / denom
	l2 := ((c.Y-a.Y)*(p.X-c.X) + (a.X-c.X)*(p.Y-c.Y)) / denom
	l3 := 1 - l1 - l2

	return l1 >= 0 && l2 >= 0 && l3 >= 0
}

// PlayTriangle derives the three anchors from the playfield margins. The base
// corner C sits where a 30 degree line from A meets the base, giving the
// 30-60-90 shape of the board.
func PlayTriangle(cfg PhysicsConfig) Triangle {
	a := NewVec2(cfg.MarginLeft, cfg.Height-cfg.MarginBottom)
	b := NewVec2(cfg.Width-cfg.MarginRight, cfg.MarginTop)
	height := a.Y - b.Y
	base := height / math.Tan(30*math.Pi/180)
	c := NewVec2(a.X+base, a.Y)
	return Triangle{A: a, B: b, C: c}
}

// GeneratePegField lays pegs out row by row from the apex toward the base on
// a staggered grid, keeping only positions inside the play triangle. The
// layout depends on cfg alone.
func GeneratePegField(cfg PhysicsConfig) (*PegField, error) {
	if cfg.SpacingX <= 0 || cfg.SpacingY <= 0 {
		return nil, fmt.Errorf("peg spacing must be positive: %w", ErrConfigurationInvalid)
	}

	tri := PlayTriangle(cfg)
	a, b, c := tri.A, tri.B, tri.C
	span := a.Y - b.Y
	if span <= 0 {
		return nil, fmt.Errorf("apex must be above launch anchor: %w", ErrConfigurationInvalid)
	}

	field := &PegField{Triangle: tri}
	row := 0
	for y := b.Y + cfg.RowInset; y <= a.Y-cfg.RowInset; y += cfg.SpacingY {
		if cfg.Rows > 0 && row >= cfg.Rows {
			break
		}

		progress := (y - b.Y) / span
		left := a.X
		right := b.X + progress*(c.X-b.X)

		offset := 0.0
		if row%2 == 1 {
			offset = cfg.SpacingX / 2
		}

		for x := left + cfg.SpacingX + offset; x < right-cfg.EdgeInset; x += cfg.SpacingX {
			p := NewVec2(x, y)
			if PointInTriangle(p, a, b, c) {
				field.Pegs = append(field.Pegs, Peg{Index: len(field.Pegs), Row: row, Position: p})
			}
		}
		row++
	}
	field.Rows = row

	if len(field.Pegs) == 0 {
		return nil, fmt.Errorf("peg field is empty: %w", ErrConfigurationInvalid)
	}
	return field, nil
}
