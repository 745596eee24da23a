package game

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/blinko/backend/internal/fairness"
	"github.com/blinko/backend/internal/models"
)

// recordSessionToDB upserts a session row. Failures are logged only.
func (m *Manager) recordSessionToDB(s *models.Session) {
	if m == nil || m.db == nil || s == nil {
		return
	}
	_, err := m.db.Exec(`
		INSERT INTO sessions (id, balance, wager, client_seed, created_at, last_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			balance = EXCLUDED.balance,
			wager = EXCLUDED.wager,
			client_seed = EXCLUDED.client_seed,
			last_active = EXCLUDED.last_active
	`, s.ID, s.Balance, s.Wager, s.ClientSeed, s.CreatedAt, s.LastActive)
	if err != nil {
		log.Printf("[DB] Failed to save session %s: %v", s.ID, err)
	}
}

// recordSettlementToDB appends a settled drop with its revealed seeds.
func (m *Manager) recordSettlementToDB(sessionID string, st *Settlement, seeds fairness.RevealedSeeds) {
	if m == nil || m.db == nil || st == nil {
		return
	}

	collisions, err := json.Marshal(st.Collisions)
	if err != nil {
		log.Printf("[DB] Failed to marshal collisions for round %s: %v", st.RoundID, err)
		collisions = []byte("[]")
	}

	_, err = m.db.Exec(`
		INSERT INTO rounds (id, session_id, wager, client_seed, server_seed, digest, final_x, final_y,
			label, multiplier, winnings, balance_after, peg_hits, ticks, timed_out, collisions, created_at, settled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16::jsonb,NOW(),$17)
	`,
		st.RoundID, sessionID, st.Wager, st.ClientSeed, nullString(seeds.ServerSeed), st.Digest,
		st.FinalPosition.X, st.FinalPosition.Y, st.Label, st.Multiplier, st.Winnings, st.BalanceAfter,
		st.PegHits, st.Ticks, st.TimedOut, string(collisions), st.SettledAt,
	)
	if err != nil {
		log.Printf("[DB] Failed to record round %s for session %s: %v", st.RoundID, sessionID, err)
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const roundColumns = `id, session_id, wager, client_seed, server_seed, digest, final_x, final_y, label,
	multiplier, winnings, balance_after, peg_hits, ticks, timed_out, collisions, created_at, settled_at`

// ListRounds returns settled rounds, newest first.
func ListRounds(db *sqlx.DB, limit, offset int) ([]models.RoundRecord, error) {
	var rounds []models.RoundRecord
	err := db.Select(&rounds, `SELECT `+roundColumns+` FROM rounds ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	return rounds, err
}

// ListSessionRounds returns a session's settled rounds, newest first.
func ListSessionRounds(db *sqlx.DB, sessionID string, limit, offset int) ([]models.RoundRecord, error) {
	var rounds []models.RoundRecord
	err := db.Select(&rounds, `SELECT `+roundColumns+` FROM rounds WHERE session_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, sessionID, limit, offset)
	return rounds, err
}

// GetRound loads one round. Unknown or malformed ids give ErrRoundNotFound.
func GetRound(db *sqlx.DB, id string) (*models.RoundRecord, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrRoundNotFound
	}
	var r models.RoundRecord
	err := db.Get(&r, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}
