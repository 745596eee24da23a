package game

// Phase is the round state machine phase.
type Phase string

const (
	PhaseAwaitingBet   Phase = "AWAITING_BET"
	PhaseDropping      Phase = "DROPPING"
	PhaseShowingResult Phase = "SHOWING_RESULT"
)

// DropPhase is the physics engine phase for a single drop.
type DropPhase string

const (
	DropIdle     DropPhase = "IDLE"
	DropDropping DropPhase = "DROPPING"
	DropSettled  DropPhase = "SETTLED"
)

// CollisionPolicy selects which overlapping peg responds when several overlap
// the ball on the same tick.
type CollisionPolicy string

const (
	// CollisionPolicyFirstMatch takes the first overlapping peg in generation order.
	CollisionPolicyFirstMatch CollisionPolicy = "first_match"
	// CollisionPolicyNearest takes the overlapping peg closest to the ball centre,
	// ties broken by generation order.
	CollisionPolicyNearest CollisionPolicy = "nearest"
)
