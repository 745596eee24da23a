package game

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/fairness"
	"github.com/blinko/backend/internal/models"
)

// Redis keys and channels shared with the websocket layer and idle worker.
const (
	RoundEventsChannel = "round_events"
	SessionIdleKey     = "session_idle"
)

// Event types delivered to listeners.
const (
	EventRoundTick    = "round_tick"
	EventRoundSettled = "round_settled"
	EventRoundStarted = "round_started"
)

// Event is a round update for one session.
type Event struct {
	Type       string         `json:"type"`
	SessionID  string         `json:"session_id"`
	Snapshot   *RoundSnapshot `json:"snapshot,omitempty"`
	Settlement *Settlement    `json:"settlement,omitempty"`
}

// EventSink receives events produced by the tick loop.
type EventSink func(Event)

type activeSession struct {
	session  *models.Session
	round    *Round
	lastSeen time.Time
	rev      uint64 // bumped on every checkpoint, guarded by Manager.mu

	saveMu   sync.Mutex
	savedRev uint64
}

// Manager owns every live round and drives them from a single ticker.
type Manager struct {
	table    *Table
	store    SessionStore
	rdb      *redis.Client // optional: snapshots, idle ZSET, pub/sub
	db       *sqlx.DB      // optional: session and round ledger
	config   *config.Config
	sessions map[string]*activeSession
	sink     EventSink
	mu       sync.RWMutex
}

// NewManager wires a manager. rdb and db may be nil.
func NewManager(table *Table, store SessionStore, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *Manager {
	return &Manager{
		table:    table,
		store:    store,
		rdb:      rdb,
		db:       db,
		config:   cfg,
		sessions: make(map[string]*activeSession),
	}
}

// Table returns the shared table.
func (m *Manager) Table() *Table {
	return m.table
}

// SetEventSink registers the receiver of tick and settlement events.
func (m *Manager) SetEventSink(sink EventSink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sink = sink
}

// CreateSession opens a session with the configured starting balance.
// clientSeed is an optional hex string reused for every drop of the session.
func (m *Manager) CreateSession(ctx context.Context, clientSeed string) (*models.Session, error) {
	if clientSeed != "" {
		if _, err := hex.DecodeString(clientSeed); err != nil {
			return nil, fmt.Errorf("client seed: %w", fairness.ErrInvalidSeed)
		}
	}

	rt := m.config.Runtime()
	now := time.Now().UTC()
	s := &models.Session{
		ID:         uuid.NewString(),
		Balance:    rt.StartingBalance,
		Wager:      rt.DefaultWager,
		ClientSeed: clientSeed,
		CreatedAt:  now,
		LastActive: now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	m.recordSessionToDB(s)

	m.mu.Lock()
	m.sessions[s.ID] = &activeSession{
		session:  s,
		round:    NewRound(m.table, s.Wager, s.Balance),
		lastSeen: now,
	}
	m.mu.Unlock()

	m.touch(ctx, s.ID)
	log.Printf("[SESSION] Created session %s balance=%.2f", s.ID, s.Balance)
	return s, nil
}

// active loads a session into memory. Caller holds m.mu.
func (m *Manager) active(ctx context.Context, sessionID string) (*activeSession, error) {
	if a, ok := m.sessions[sessionID]; ok {
		return a, nil
	}
	s, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	a := &activeSession{
		session:  s,
		round:    NewRound(m.table, s.Wager, s.Balance),
		lastSeen: time.Now(),
	}
	m.sessions[sessionID] = a
	return a, nil
}

// syncSession copies the round's money back into the session record.
func (a *activeSession) syncSession() *models.Session {
	a.session.Balance = a.round.Balance()
	a.session.Wager = a.round.Wager()
	a.session.LastActive = time.Now().UTC()
	s := *a.session
	return &s
}

// checkpoint syncs the session and numbers the copy. Caller holds m.mu.
func (a *activeSession) checkpoint() (*models.Session, uint64) {
	s := a.syncSession()
	a.rev++
	return s, a.rev
}

// persist saves a checkpoint unless a later one is already stored, so a slow
// save never rolls the stored balance back.
func (m *Manager) persist(ctx context.Context, a *activeSession, s *models.Session, rev uint64) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()
	if rev <= a.savedRev {
		return nil
	}
	if err := m.store.Save(ctx, s); err != nil {
		return err
	}
	a.savedRev = rev
	return nil
}

// withRound runs fn against the session's round and persists the result.
func (m *Manager) withRound(ctx context.Context, sessionID string, fn func(r *Round) error) (RoundSnapshot, error) {
	m.mu.Lock()
	a, err := m.active(ctx, sessionID)
	if err != nil {
		m.mu.Unlock()
		return RoundSnapshot{}, err
	}
	if err := fn(a.round); err != nil {
		m.mu.Unlock()
		return RoundSnapshot{}, err
	}
	a.lastSeen = time.Now()
	snap := a.round.Snapshot()
	s, rev := a.checkpoint()
	m.mu.Unlock()

	if err := m.persist(ctx, a, s, rev); err != nil {
		log.Printf("[SESSION] Failed to save session %s: %v", sessionID, err)
	}
	m.saveRoundToRedis(ctx, sessionID, snap)
	m.touch(ctx, sessionID)
	return snap, nil
}

// Session returns the stored session with the live balance applied.
func (m *Manager) Session(ctx context.Context, sessionID string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return a.syncSession(), nil
}

// State returns the current round snapshot.
func (m *Manager) State(ctx context.Context, sessionID string) (RoundSnapshot, error) {
	return m.withRound(ctx, sessionID, func(r *Round) error { return nil })
}

func (m *Manager) SetWager(ctx context.Context, sessionID string, w float64) (RoundSnapshot, error) {
	return m.withRound(ctx, sessionID, func(r *Round) error { return r.SetWager(w) })
}

func (m *Manager) DoubleWager(ctx context.Context, sessionID string) (RoundSnapshot, error) {
	return m.withRound(ctx, sessionID, func(r *Round) error { return r.DoubleWager() })
}

func (m *Manager) HalveWager(ctx context.Context, sessionID string) (RoundSnapshot, error) {
	return m.withRound(ctx, sessionID, func(r *Round) error { return r.HalveWager() })
}

// Start drops a ball for the session. clientSeed (hex) overrides the
// session's own seed for this drop; when both are empty one is generated.
func (m *Manager) Start(ctx context.Context, sessionID, clientSeed string) (RoundSnapshot, error) {
	snap, err := m.withRound(ctx, sessionID, func(r *Round) error {
		if r.Phase() == PhaseDropping {
			return ErrRoundInProgress
		}
		seedHex := clientSeed
		if seedHex == "" {
			if a, ok := m.sessions[sessionID]; ok {
				seedHex = a.session.ClientSeed
			}
		}
		seed, err := hex.DecodeString(seedHex)
		if err != nil {
			return fmt.Errorf("client seed: %w", fairness.ErrInvalidSeed)
		}
		c, err := fairness.NewCommitment(seed)
		if err != nil {
			return err
		}
		return r.Start(c)
	})
	if err != nil {
		return snap, err
	}
	m.emit(Event{Type: EventRoundStarted, SessionID: sessionID, Snapshot: &snap})
	return snap, nil
}

func (m *Manager) Acknowledge(ctx context.Context, sessionID string) (RoundSnapshot, error) {
	return m.withRound(ctx, sessionID, func(r *Round) error {
		if r.Phase() != PhaseShowingResult {
			return fmt.Errorf("acknowledge in %s: %w", r.Phase(), ErrWrongPhase)
		}
		r.Acknowledge()
		return nil
	})
}

func (m *Manager) Abandon(ctx context.Context, sessionID string) (RoundSnapshot, error) {
	return m.withRound(ctx, sessionID, func(r *Round) error { return r.Abandon() })
}

// Reveal discloses the seeds of the session's last settled drop.
func (m *Manager) Reveal(ctx context.Context, sessionID string) (fairness.RevealedSeeds, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.active(ctx, sessionID)
	if err != nil {
		return fairness.RevealedSeeds{}, err
	}
	return a.round.Reveal()
}

// LastSettlement returns the session's most recent settlement, if any.
func (m *Manager) LastSettlement(ctx context.Context, sessionID string) (*Settlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, err := m.active(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return a.round.Settlement(), nil
}

type settled struct {
	sessionID  string
	active     *activeSession
	session    *models.Session
	rev        uint64
	settlement *Settlement
	seeds      fairness.RevealedSeeds
	snapshot   RoundSnapshot
}

// Tick advances every dropping round by one step and emits the resulting events.
func (m *Manager) Tick(ctx context.Context) {
	var ticks []Event
	var done []settled

	m.mu.Lock()
	for id, a := range m.sessions {
		if a.round.Phase() != PhaseDropping {
			continue
		}
		if !a.round.Tick() {
			snap := a.round.Snapshot()
			ticks = append(ticks, Event{Type: EventRoundTick, SessionID: id, Snapshot: &snap})
			continue
		}
		seeds, _ := a.round.Reveal()
		s, rev := a.checkpoint()
		done = append(done, settled{
			sessionID:  id,
			active:     a,
			session:    s,
			rev:        rev,
			settlement: a.round.Settlement(),
			seeds:      seeds,
			snapshot:   a.round.Snapshot(),
		})
	}
	m.mu.Unlock()

	for _, e := range ticks {
		m.emit(e)
	}
	for _, d := range done {
		m.onSettled(ctx, d)
	}
}

func (m *Manager) onSettled(ctx context.Context, d settled) {
	if err := m.persist(ctx, d.active, d.session, d.rev); err != nil {
		log.Printf("[SESSION] Failed to save session %s after settle: %v", d.sessionID, err)
	}
	m.recordSessionToDB(d.session)
	m.recordSettlementToDB(d.sessionID, d.settlement, d.seeds)
	m.saveRoundToRedis(ctx, d.sessionID, d.snapshot)

	snap := d.snapshot
	e := Event{Type: EventRoundSettled, SessionID: d.sessionID, Snapshot: &snap, Settlement: d.settlement}
	if m.rdb != nil {
		data, err := json.Marshal(e)
		if err != nil {
			log.Printf("[REDIS] Failed to marshal settle event for %s: %v", d.sessionID, err)
			return
		}
		if err := m.rdb.Publish(ctx, RoundEventsChannel, data).Err(); err != nil {
			log.Printf("[REDIS] Failed to publish settle event for %s: %v", d.sessionID, err)
			m.emit(e)
		}
		return
	}
	m.emit(e)
}

func (m *Manager) emit(e Event) {
	m.mu.RLock()
	sink := m.sink
	m.mu.RUnlock()
	if sink != nil {
		sink(e)
	}
}

// Run drives Tick at the configured rate until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) {
	rate := m.config.TickRate
	if rate <= 0 {
		rate = 60
	}
	ticker := time.NewTicker(time.Second / time.Duration(rate))
	defer ticker.Stop()

	log.Printf("[TICK] Round ticker started at %d Hz", rate)
	for {
		select {
		case <-ctx.Done():
			log.Println("[TICK] Round ticker stopping")
			return
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Evict abandons any drop in flight and forgets the session in memory. The
// stored session is kept.
func (m *Manager) Evict(ctx context.Context, sessionID string) {
	m.mu.Lock()
	a, ok := m.sessions[sessionID]
	if !ok {
		m.mu.Unlock()
		return
	}
	if a.round.Phase() == PhaseDropping {
		a.round.Abandon()
	}
	s, rev := a.checkpoint()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	if err := m.persist(ctx, a, s, rev); err != nil {
		log.Printf("[SESSION] Failed to save evicted session %s: %v", sessionID, err)
	}
	m.recordSessionToDB(s)
	log.Printf("[SESSION] Evicted idle session %s", sessionID)
}

// IdleSessions lists in-memory sessions not seen since cutoff.
func (m *Manager) IdleSessions(cutoff time.Time) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for id, a := range m.sessions {
		if a.lastSeen.Before(cutoff) {
			ids = append(ids, id)
		}
	}
	return ids
}

// touch schedules the session's idle deadline in Redis.
func (m *Manager) touch(ctx context.Context, sessionID string) {
	idle := m.config.Runtime().IdleTimeoutSecs
	if m.rdb == nil || idle <= 0 {
		return
	}
	deadline := time.Now().Add(time.Duration(idle) * time.Second).Unix()
	if err := m.rdb.ZAdd(ctx, SessionIdleKey, redis.Z{Score: float64(deadline), Member: sessionID}).Err(); err != nil {
		log.Printf("[REDIS] Failed to schedule idle deadline for %s: %v", sessionID, err)
	}
}

// saveRoundToRedis caches the latest snapshot for reconnecting clients.
func (m *Manager) saveRoundToRedis(ctx context.Context, sessionID string, snap RoundSnapshot) {
	if m.rdb == nil {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[REDIS] Failed to marshal round snapshot for %s: %v", sessionID, err)
		return
	}
	if err := m.rdb.SetEx(ctx, "round:"+sessionID+":state", data, time.Hour).Err(); err != nil {
		log.Printf("[REDIS] Failed to save round snapshot for %s: %v", sessionID, err)
	}
}
