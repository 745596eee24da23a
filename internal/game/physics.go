package game

import (
	"fmt"
	"math"

	"github.com/blinko/backend/internal/fairness"
)

// minCollisionDistance below which a ball and peg centre are treated as
// coincident and no collision is resolved (the normal is undefined).
const minCollisionDistance = 1e-9

// Ball is the one moving body of a drop.
type Ball struct {
	Position Vec2    `json:"position"`
	Velocity Vec2    `json:"velocity"`
	Radius   float64 `json:"radius"`
}

// CollisionKind tells wall bounces from peg hits.
type CollisionKind string

const (
	CollisionWall CollisionKind = "wall"
	CollisionPeg  CollisionKind = "peg"
)

// CollisionEvent records a single collision for replay audits and renderers.
type CollisionEvent struct {
	Tick     int           `json:"tick"`
	Kind     CollisionKind `json:"kind"`
	PegIndex int           `json:"peg_index"` // -1 for walls
	Kick     float64       `json:"kick"`
	Cursor   int           `json:"cursor"` // stream cursor after the kick, 0 for walls
	SpeedIn  float64       `json:"speed_in"`
	SpeedOut float64       `json:"speed_out"`
	Position Vec2          `json:"position"`
}

// Drop runs one ball from launch to settlement. It owns the ball and reads
// kicks from the stream, one per peg collision.
type Drop struct {
	table    *Table
	stream   *fairness.KickStream
	ball     *Ball
	phase    DropPhase
	ticks    int
	events   []CollisionEvent
	timedOut bool
}

// NewDrop prepares an idle drop on table drawing kicks from stream.
func NewDrop(table *Table, stream *fairness.KickStream) *Drop {
	return &Drop{
		table:  table,
		stream: stream,
		phase:  DropIdle,
		events: make([]CollisionEvent, 0),
	}
}

// Launch places the ball at the launch anchor with the initial horizontal speed.
func (d *Drop) Launch() error {
	if d.phase != DropIdle {
		return fmt.Errorf("launch in %s: %w", d.phase, ErrWrongPhase)
	}
	cfg := d.table.Config
	d.ball = &Ball{
		Position: d.table.Launch(),
		Velocity: NewVec2(cfg.InitialSpeed, 0),
		Radius:   cfg.BallRadius,
	}
	d.phase = DropDropping
	return nil
}

// Step advances the simulation by one fixed time step and reports whether the
// ball has settled. Stepping an idle or settled drop does nothing.
func (d *Drop) Step() bool {
	if d.phase != DropDropping {
		return d.phase == DropSettled
	}
	cfg := d.table.Config
	b := d.ball
	d.ticks++

	// Biased gravity, speed cap, explicit Euler.
	b.Velocity = b.Velocity.Plus(NewVec2(cfg.GravityX, cfg.GravityY))
	b.Velocity = b.Velocity.ClampMagnitude(cfg.MaxSpeed)
	b.Position = b.Position.Plus(b.Velocity)

	if b.Position.Y < b.Radius || b.Position.Y > cfg.Height-b.Radius {
		speedIn := b.Velocity.Magnitude()
		b.Velocity.Y = -b.Velocity.Y * cfg.WallRestitution
		d.clampY()
		d.events = append(d.events, CollisionEvent{
			Tick:     d.ticks,
			Kind:     CollisionWall,
			PegIndex: -1,
			SpeedIn:  speedIn,
			SpeedOut: b.Velocity.Magnitude(),
			Position: b.Position,
		})
	}

	if peg, dist, ok := d.findPeg(); ok {
		d.resolvePeg(peg, dist)
	}

	if b.Position.X >= cfg.ExitX() {
		d.phase = DropSettled
	} else if d.ticks >= cfg.MaxTicks {
		d.timedOut = true
		d.phase = DropSettled
	}
	return d.phase == DropSettled
}

// findPeg picks the peg to respond to this tick according to the table policy.
func (d *Drop) findPeg() (Peg, float64, bool) {
	cfg := d.table.Config
	reach := cfg.BallRadius + cfg.PegRadius
	pos := d.ball.Position

	var best Peg
	bestDist := math.Inf(1)
	found := false
	for _, p := range d.table.Field.Pegs {
		dist := pos.DistanceTo(p.Position)
		if dist >= reach || dist <= minCollisionDistance {
			continue
		}
		if cfg.Policy != CollisionPolicyNearest {
			return p, dist, true
		}
		if dist < bestDist {
			best, bestDist, found = p, dist, true
		}
	}
	return best, bestDist, found
}

func (d *Drop) resolvePeg(p Peg, dist float64) {
	cfg := d.table.Config
	b := d.ball

	n := b.Position.Minus(p.Position).Times(1 / dist)
	speedIn := b.Velocity.Magnitude()
	kick := d.stream.Next()

	r := b.Velocity.Reflect(n)
	out := NewVec2(r.X*cfg.Restitution, (r.Y+kick)*cfg.Restitution)
	if out.Magnitude() > speedIn {
		out = out.ClampMagnitude(speedIn)
	}
	b.Velocity = out

	b.Position = b.Position.Plus(n.Times(cfg.BallRadius + cfg.PegRadius - dist))
	d.clampY()

	d.events = append(d.events, CollisionEvent{
		Tick:     d.ticks,
		Kind:     CollisionPeg,
		PegIndex: p.Index,
		Kick:     kick,
		Cursor:   d.stream.Cursor(),
		SpeedIn:  speedIn,
		SpeedOut: out.Magnitude(),
		Position: b.Position,
	})
}

func (d *Drop) clampY() {
	b := d.ball
	b.Position.Y = math.Max(b.Radius, math.Min(b.Position.Y, d.table.Config.Height-b.Radius))
}

// Ball returns the ball in flight, nil before launch.
func (d *Drop) Ball() *Ball {
	return d.ball
}

func (d *Drop) Phase() DropPhase {
	return d.phase
}

// Ticks is the number of steps taken so far.
func (d *Drop) Ticks() int {
	return d.ticks
}

// Events returns the collisions recorded so far.
func (d *Drop) Events() []CollisionEvent {
	return d.events
}

// TimedOut reports whether the drop settled on the tick budget rather than
// reaching the exit line.
func (d *Drop) TimedOut() bool {
	return d.timedOut
}

// PegHits counts peg collisions, which equals kicks consumed.
func (d *Drop) PegHits() int {
	n := 0
	for _, e := range d.events {
		if e.Kind == CollisionPeg {
			n++
		}
	}
	return n
}
