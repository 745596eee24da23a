package game

import (
	"fmt"
	"math"
)

// PhysicsConfig is everything that shapes a table: playfield, peg layout,
// integration constants and the pay table. A zero Bins slice means the stock
// ladder from DefaultBins.
type PhysicsConfig struct {
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	MarginLeft   float64 `json:"margin_left"`
	MarginBottom float64 `json:"margin_bottom"`
	MarginRight  float64 `json:"margin_right"`
	MarginTop    float64 `json:"margin_top"`

	Rows      int     `json:"rows"` // 0 = as many as fit
	SpacingX  float64 `json:"spacing_x"`
	SpacingY  float64 `json:"spacing_y"`
	RowInset  float64 `json:"row_inset"`
	EdgeInset float64 `json:"edge_inset"`

	BallRadius      float64 `json:"ball_radius"`
	PegRadius       float64 `json:"peg_radius"`
	InitialSpeed    float64 `json:"initial_speed"`
	GravityX        float64 `json:"gravity_x"`
	GravityY        float64 `json:"gravity_y"`
	MaxSpeed        float64 `json:"max_speed"`
	Restitution     float64 `json:"restitution"`
	WallRestitution float64 `json:"wall_restitution"`
	ExitMargin      float64 `json:"exit_margin"`
	MaxTicks        int     `json:"max_ticks"`

	MinWager float64         `json:"min_wager"`
	Policy   CollisionPolicy `json:"collision_policy"`
	Bins     []PayoutBin     `json:"bins,omitempty"`
}

// DefaultPhysicsConfig returns the stock 800x600 board.
func DefaultPhysicsConfig() PhysicsConfig {
	return PhysicsConfig{
		Width:           DefaultWidth,
		Height:          DefaultHeight,
		MarginLeft:      DefaultMarginLeft,
		MarginBottom:    DefaultMarginBottom,
		MarginRight:     DefaultMarginRight,
		MarginTop:       DefaultMarginTop,
		SpacingX:        DefaultSpacingX,
		SpacingY:        DefaultSpacingY,
		RowInset:        DefaultRowInset,
		EdgeInset:       DefaultEdgeInset,
		BallRadius:      DefaultBallRadius,
		PegRadius:       DefaultPegRadius,
		InitialSpeed:    DefaultInitialSpeed,
		GravityX:        DefaultGravityX,
		GravityY:        DefaultGravityY,
		MaxSpeed:        DefaultMaxSpeed,
		Restitution:     DefaultRestitution,
		WallRestitution: DefaultWallRestitution,
		ExitMargin:      DefaultExitMargin,
		MaxTicks:        DefaultMaxTicks,
		MinWager:        DefaultMinWager,
		Policy:          CollisionPolicyFirstMatch,
	}
}

// ExitX is the horizontal line past which a ball is settled.
func (c PhysicsConfig) ExitX() float64 {
	return c.Width - c.ExitMargin
}

func (c PhysicsConfig) validate() error {
	finite := func(name string, v float64) error {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not finite: %w", name, ErrConfigurationInvalid)
		}
		return nil
	}
	for name, v := range map[string]float64{
		"width": c.Width, "height": c.Height, "gravity_x": c.GravityX, "gravity_y": c.GravityY,
		"initial_speed": c.InitialSpeed, "restitution": c.Restitution,
		"wall_restitution": c.WallRestitution, "exit_margin": c.ExitMargin,
	} {
		if err := finite(name, v); err != nil {
			return err
		}
	}

	switch {
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("playfield %vx%v: %w", c.Width, c.Height, ErrConfigurationInvalid)
	case c.BallRadius <= 0 || c.PegRadius <= 0:
		return fmt.Errorf("radii must be positive: %w", ErrConfigurationInvalid)
	case 2*c.BallRadius >= c.Height:
		return fmt.Errorf("ball does not fit the playfield: %w", ErrConfigurationInvalid)
	case !(c.MaxSpeed > 0):
		return fmt.Errorf("max speed must be positive: %w", ErrConfigurationInvalid)
	case c.Restitution < 0 || c.Restitution > 1:
		return fmt.Errorf("restitution %v outside [0,1]: %w", c.Restitution, ErrConfigurationInvalid)
	case c.WallRestitution < 0 || c.WallRestitution > 1:
		return fmt.Errorf("wall restitution %v outside [0,1]: %w", c.WallRestitution, ErrConfigurationInvalid)
	case c.MaxTicks <= 0:
		return fmt.Errorf("max ticks must be positive: %w", ErrConfigurationInvalid)
	case c.Rows < 0:
		return fmt.Errorf("rows must not be negative: %w", ErrConfigurationInvalid)
	case !(c.MinWager > 0):
		return fmt.Errorf("min wager must be positive: %w", ErrConfigurationInvalid)
	}

	switch c.Policy {
	case CollisionPolicyFirstMatch, CollisionPolicyNearest:
	default:
		return fmt.Errorf("unknown collision policy %q: %w", c.Policy, ErrConfigurationInvalid)
	}
	return nil
}

// Table is the shared, read-only setup every round runs on.
type Table struct {
	Config PhysicsConfig
	Field  *PegField
	Bins   *BinSet
}

// Configure validates cfg, lays out the pegs and builds the bin set.
// Any failure wraps ErrConfigurationInvalid.
func Configure(cfg PhysicsConfig) (*Table, error) {
	if cfg.Policy == "" {
		cfg.Policy = CollisionPolicyFirstMatch
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	field, err := GeneratePegField(cfg)
	if err != nil {
		return nil, err
	}

	bins := cfg.Bins
	if len(bins) == 0 {
		bins = DefaultBins(cfg.Height, field.Triangle.B.Y, field.Triangle.A.Y)
	}
	set, err := NewBinSet(cfg.Height, bins)
	if err != nil {
		return nil, err
	}
	cfg.Bins = set.Bins()

	return &Table{Config: cfg, Field: field, Bins: set}, nil
}

// Launch returns the starting position of every ball.
func (t *Table) Launch() Vec2 {
	return t.Field.Triangle.A
}
