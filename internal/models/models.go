package models

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

// Session is a player's wallet and betting state
type Session struct {
	ID         string    `db:"id" json:"id"`
	Balance    float64   `db:"balance" json:"balance"`
	Wager      float64   `db:"wager" json:"wager"`
	ClientSeed string    `db:"client_seed" json:"client_seed,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	LastActive time.Time `db:"last_active" json:"last_active"`
}

// RoundRecord is one settled drop in the ledger
type RoundRecord struct {
	ID           string          `db:"id" json:"id"`
	SessionID    string          `db:"session_id" json:"session_id"`
	Wager        float64         `db:"wager" json:"wager"`
	ClientSeed   string          `db:"client_seed" json:"client_seed"`
	ServerSeed   sql.NullString  `db:"server_seed" json:"server_seed,omitempty"`
	Digest       string          `db:"digest" json:"digest"`
	FinalX       float64         `db:"final_x" json:"final_x"`
	FinalY       float64         `db:"final_y" json:"final_y"`
	Label        string          `db:"label" json:"label"`
	Multiplier   float64         `db:"multiplier" json:"multiplier"`
	Winnings     float64         `db:"winnings" json:"winnings"`
	BalanceAfter float64         `db:"balance_after" json:"balance_after"`
	PegHits      int             `db:"peg_hits" json:"peg_hits"`
	Ticks        int             `db:"ticks" json:"ticks"`
	TimedOut     bool            `db:"timed_out" json:"timed_out"`
	Collisions   json.RawMessage `db:"collisions" json:"collisions,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	SettledAt    sql.NullTime    `db:"settled_at" json:"settled_at,omitempty"`
}

// AdminAccount is an operator allowed to read the round ledger
type AdminAccount struct {
	Username    string         `db:"username" json:"username"`
	DisplayName string         `db:"display_name" json:"display_name"`
	TokenHash   string         `db:"token_hash" json:"-"`
	Roles       pq.StringArray `db:"roles" json:"roles"`
	AllowedIPs  pq.StringArray `db:"allowed_ips" json:"allowed_ips"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// AdminAudit records an admin action
type AdminAudit struct {
	ID        int             `db:"id" json:"id"`
	AdminUser string          `db:"admin_username" json:"admin_username"`
	IP        string          `db:"ip" json:"ip"`
	Route     string          `db:"route" json:"route"`
	Action    string          `db:"action" json:"action"`
	Details   json.RawMessage `db:"details" json:"details"`
	Success   bool            `db:"success" json:"success"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// RuntimeConfig is a DB-backed override of a config value
type RuntimeConfig struct {
	Key         string         `db:"key" json:"key"`
	Value       string         `db:"value" json:"value"`
	ValueType   string         `db:"value_type" json:"value_type"`
	Description sql.NullString `db:"description" json:"description,omitempty"`
	UpdatedBy   sql.NullString `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}
