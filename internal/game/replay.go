package game

import (
	"encoding/hex"
	"fmt"

	"github.com/blinko/backend/internal/fairness"
)

// Replay re-runs a drop from revealed seeds and returns its settlement. With
// the same table, seeds and wager the result matches the original round.
func Replay(table *Table, serverSeed, clientSeed []byte, wager, balance float64) (*Settlement, error) {
	r := NewRound(table, wager, balance)
	if err := r.Start(fairness.NewCommitmentFromSeeds(serverSeed, clientSeed)); err != nil {
		return nil, err
	}
	for !r.Tick() {
	}
	return r.Settlement(), nil
}

// ReplayRevealed decodes hex seeds, checks them against the published digest
// and replays the drop.
func ReplayRevealed(table *Table, seeds fairness.RevealedSeeds, wager, balance float64) (*Settlement, error) {
	ok, err := fairness.Verify(seeds)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("seeds do not match digest %s: %w", seeds.Digest, fairness.ErrInvalidSeed)
	}
	serverSeed, _ := hex.DecodeString(seeds.ServerSeed)
	clientSeed, _ := hex.DecodeString(seeds.ClientSeed)
	return Replay(table, serverSeed, clientSeed, wager, balance)
}
