package game

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/blinko/backend/internal/database"
	"github.com/blinko/backend/internal/migrations"
)

func TestRoundLedger(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}
	if err := migrations.RunMigrations(dbURL, "../../migrations"); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := database.Connect(dbURL)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	m := NewManager(defaultTable(t), NewMemorySessionStore(), db, nil, testConfig())
	s, err := m.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := m.Start(ctx, s.ID, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tickUntilSettled(t, m, s.ID)
	settlement, _ := m.LastSettlement(ctx, s.ID)

	rounds, err := ListSessionRounds(db, s.ID, 10, 0)
	if err != nil {
		t.Fatalf("ListSessionRounds: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("rounds = %d, want 1", len(rounds))
	}
	got := rounds[0]
	if got.ID != settlement.RoundID || got.Digest != settlement.Digest || got.Label != settlement.Label {
		t.Errorf("ledger row %+v does not match settlement %+v", got, settlement)
	}
	if !got.ServerSeed.Valid {
		t.Error("server seed not stored for a settled round")
	}

	one, err := GetRound(db, got.ID)
	if err != nil || one.ID != got.ID {
		t.Errorf("GetRound: %v %v", one, err)
	}
	if _, err := GetRound(db, "not-a-uuid"); !errors.Is(err, ErrRoundNotFound) {
		t.Errorf("malformed id err = %v, want ErrRoundNotFound", err)
	}
}
