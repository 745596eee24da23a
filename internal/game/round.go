package game

import (
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/blinko/backend/internal/fairness"
)

// Settlement is the resolved outcome of one drop.
type Settlement struct {
	RoundID       string           `json:"round_id"`
	Wager         float64          `json:"wager"`
	BalanceBefore float64          `json:"balance_before"`
	BalanceAfter  float64          `json:"balance_after"`
	FinalPosition Vec2             `json:"final_position"`
	Label         string           `json:"label"`
	Multiplier    float64          `json:"multiplier"`
	Winnings      float64          `json:"winnings"`
	Rare          bool             `json:"rare"`
	Digest        string           `json:"digest"`
	ClientSeed    string           `json:"client_seed"`
	Ticks         int              `json:"ticks"`
	PegHits       int              `json:"peg_hits"`
	TimedOut      bool             `json:"timed_out"`
	Collisions    []CollisionEvent `json:"collisions"`
	SettledAt     time.Time        `json:"settled_at"`
}

// RoundSnapshot is the plain record a host serializes for clients.
type RoundSnapshot struct {
	ID         string  `json:"id"`
	Phase      Phase   `json:"phase"`
	Balance    float64 `json:"balance"`
	Wager      float64 `json:"wager"`
	Digest     string  `json:"digest,omitempty"`
	ClientSeed string  `json:"client_seed,omitempty"`
	Tick       int     `json:"tick"`
	Position   *Vec2   `json:"position,omitempty"`
	Velocity   *Vec2   `json:"velocity,omitempty"`
	Label      string  `json:"label,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Winnings   float64 `json:"winnings,omitempty"`
}

// Round is a player's betting loop on one table:
// AwaitingBet -> Dropping -> ShowingResult -> AwaitingBet.
// A Round is not safe for concurrent use; hosts serialize access.
type Round struct {
	id      string
	table   *Table
	phase   Phase
	balance float64
	wager   float64

	commitment *fairness.Commitment
	drop       *Drop

	settlement *Settlement
	// revealable is the commitment of the last settled drop.
	revealable *fairness.Commitment
}

// NewRound returns an idle round waiting for a bet.
func NewRound(table *Table, wager, balance float64) *Round {
	return &Round{
		table:   table,
		phase:   PhaseAwaitingBet,
		balance: balance,
		wager:   wager,
	}
}

// StartRound validates the wager, draws a fresh commitment and drops the ball.
// On error nothing is returned and no balance is taken.
func StartRound(table *Table, wager, balance float64) (*Round, error) {
	r := NewRound(table, wager, balance)
	if err := r.checkWager(wager); err != nil {
		return nil, err
	}
	c, err := fairness.NewCommitment(nil)
	if err != nil {
		return nil, fmt.Errorf("new commitment: %w", err)
	}
	if err := r.Start(c); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Round) checkWager(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 || w < r.table.Config.MinWager {
		return fmt.Errorf("wager %v: %w", w, ErrInvalidWager)
	}
	if w > r.balance {
		return fmt.Errorf("wager %v exceeds balance %v: %w", w, r.balance, ErrInsufficientBalance)
	}
	return nil
}

// SetWager replaces the wager while awaiting a bet.
func (r *Round) SetWager(w float64) error {
	if r.phase != PhaseAwaitingBet {
		return fmt.Errorf("set wager in %s: %w", r.phase, ErrWrongPhase)
	}
	if err := r.checkWager(w); err != nil {
		return err
	}
	r.wager = w
	return nil
}

// DoubleWager doubles the wager, capped at the balance.
func (r *Round) DoubleWager() error {
	if r.phase != PhaseAwaitingBet {
		return fmt.Errorf("double wager in %s: %w", r.phase, ErrWrongPhase)
	}
	r.wager = math.Max(r.table.Config.MinWager, math.Min(r.balance, r.wager*2))
	return nil
}

// HalveWager halves the wager, floored at the minimum wager.
func (r *Round) HalveWager() error {
	if r.phase != PhaseAwaitingBet {
		return fmt.Errorf("halve wager in %s: %w", r.phase, ErrWrongPhase)
	}
	r.wager = math.Max(r.table.Config.MinWager, r.wager/2)
	return nil
}

// Start takes the wager from the balance and launches a ball driven by c.
func (r *Round) Start(c *fairness.Commitment) error {
	if r.phase != PhaseAwaitingBet {
		return fmt.Errorf("start in %s: %w", r.phase, ErrWrongPhase)
	}
	if err := r.checkWager(r.wager); err != nil {
		return err
	}

	drop := NewDrop(r.table, c.Stream())
	if err := drop.Launch(); err != nil {
		return err
	}

	r.id = uuid.NewString()
	r.balance -= r.wager
	r.commitment = c
	r.drop = drop
	r.settlement = nil
	r.phase = PhaseDropping

	log.Printf("[ROUND] %s started: wager=%.2f balance=%.2f digest=%s", r.id, r.wager, r.balance, c.Digest())
	return nil
}

// Tick steps the drop once. It reports whether this call settled the round.
// Outside Dropping it does nothing.
func (r *Round) Tick() bool {
	if r.phase != PhaseDropping {
		return false
	}
	if !r.drop.Step() {
		return false
	}
	r.settle()
	return true
}

func (r *Round) settle() {
	ball := r.drop.Ball()
	before := r.balance + r.wager

	s := &Settlement{
		RoundID:       r.id,
		Wager:         r.wager,
		BalanceBefore: before,
		FinalPosition: ball.Position,
		Digest:        r.commitment.Digest(),
		ClientSeed:    r.commitment.ClientSeed(),
		Ticks:         r.drop.Ticks(),
		PegHits:       r.drop.PegHits(),
		TimedOut:      r.drop.TimedOut(),
		Collisions:    r.drop.Events(),
		SettledAt:     time.Now().UTC(),
	}

	payout, err := r.table.Bins.Resolve(ball.Position.Y, r.wager)
	if err != nil {
		log.Printf("[ROUND] %s settled without payout: %v", r.id, err)
	} else {
		s.Label = payout.Label
		s.Multiplier = payout.Multiplier
		s.Winnings = payout.Winnings
		s.Rare = payout.Bin.Rare
	}

	r.balance += s.Winnings
	s.BalanceAfter = r.balance

	r.commitment.Seal()
	r.revealable = r.commitment
	r.settlement = s
	r.phase = PhaseShowingResult

	log.Printf("[ROUND] %s settled: y=%.2f bin=%s winnings=%.2f balance=%.2f ticks=%d",
		r.id, ball.Position.Y, s.Label, s.Winnings, r.balance, s.Ticks)
}

// Acknowledge leaves the result screen. Outside ShowingResult it does nothing.
func (r *Round) Acknowledge() {
	if r.phase != PhaseShowingResult {
		return
	}
	r.drop = nil
	r.commitment = nil
	r.phase = PhaseAwaitingBet
}

// Abandon discards the ball and commitment of an in-flight drop. The wager is
// not returned.
func (r *Round) Abandon() error {
	if r.phase != PhaseDropping {
		return fmt.Errorf("abandon in %s: %w", r.phase, ErrWrongPhase)
	}
	log.Printf("[ROUND] %s abandoned after %d ticks", r.id, r.drop.Ticks())
	r.drop = nil
	r.commitment = nil
	r.phase = PhaseAwaitingBet
	return nil
}

// Reveal discloses the seeds of the last settled drop.
func (r *Round) Reveal() (fairness.RevealedSeeds, error) {
	if r.revealable == nil {
		return fairness.RevealedSeeds{}, fairness.ErrNotSealed
	}
	return r.revealable.Reveal()
}

// Commitment returns the commitment of the drop in flight or on display.
func (r *Round) Commitment() *fairness.Commitment {
	return r.commitment
}

func (r *Round) ID() string { return r.id }
func (r *Round) Phase() Phase { return r.phase }
func (r *Round) Balance() float64 { return r.balance }
func (r *Round) Wager() float64 { return r.wager }
func (r *Round) Table() *Table { return r.table }
func (r *Round) Settlement() *Settlement { return r.settlement }

// Ball returns the ball while dropping, nil otherwise.
func (r *Round) Ball() *Ball {
	if r.phase != PhaseDropping || r.drop == nil {
		return nil
	}
	return r.drop.Ball()
}

// Digest is the commitment digest of the current drop, empty when idle.
func (r *Round) Digest() string {
	if r.commitment == nil {
		return ""
	}
	return r.commitment.Digest()
}

// Snapshot captures the round as a plain record.
func (r *Round) Snapshot() RoundSnapshot {
	snap := RoundSnapshot{
		ID:      r.id,
		Phase:   r.phase,
		Balance: r.balance,
		Wager:   r.wager,
	}
	if r.commitment != nil {
		snap.Digest = r.commitment.Digest()
		snap.ClientSeed = r.commitment.ClientSeed()
	}
	if r.drop != nil {
		snap.Tick = r.drop.Ticks()
		if b := r.drop.Ball(); b != nil {
			pos, vel := b.Position, b.Velocity
			snap.Position = &pos
			snap.Velocity = &vel
		}
	}
	if r.phase == PhaseShowingResult && r.settlement != nil {
		snap.Label = r.settlement.Label
		snap.Multiplier = r.settlement.Multiplier
		snap.Winnings = r.settlement.Winnings
	}
	return snap
}
