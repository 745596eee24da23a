package game

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/blinko/backend/internal/config"
	"github.com/blinko/backend/internal/fairness"
)

func testConfig() *config.Config {
	return &config.Config{
		StartingBalance: 1000,
		DefaultWager:    10,
		MinWager:        1,
		TickRate:        60,
		IdleTimeoutSecs: 60,
	}
}

type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) sink(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == kind {
			n++
		}
	}
	return n
}

func newTestManager(t *testing.T) (*Manager, *MemorySessionStore, *eventRecorder) {
	t.Helper()
	store := NewMemorySessionStore()
	m := NewManager(defaultTable(t), store, nil, nil, testConfig())
	rec := &eventRecorder{}
	m.SetEventSink(rec.sink)
	return m, store, rec
}

func tickUntilSettled(t *testing.T, m *Manager, sessionID string) RoundSnapshot {
	t.Helper()
	ctx := context.Background()
	for i := 0; i <= m.Table().Config.MaxTicks; i++ {
		m.Tick(ctx)
		snap, err := m.State(ctx, sessionID)
		if err != nil {
			t.Fatalf("State: %v", err)
		}
		if snap.Phase == PhaseShowingResult {
			return snap
		}
	}
	t.Fatal("round never settled")
	return RoundSnapshot{}
}

func TestManagerSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	m, store, rec := newTestManager(t)

	s, err := m.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Balance != 1000 || s.Wager != 10 {
		t.Errorf("new session = %+v", s)
	}

	snap, err := m.Start(ctx, s.ID, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap.Phase != PhaseDropping || snap.Balance != 990 {
		t.Errorf("after start: phase=%s balance=%v", snap.Phase, snap.Balance)
	}
	if _, err := m.Start(ctx, s.ID, ""); !errors.Is(err, ErrRoundInProgress) {
		t.Errorf("second start err = %v, want ErrRoundInProgress", err)
	}
	if _, err := m.Reveal(ctx, s.ID); !errors.Is(err, fairness.ErrNotSealed) {
		t.Errorf("reveal while dropping err = %v, want ErrNotSealed", err)
	}

	result := tickUntilSettled(t, m, s.ID)
	if rec.count(EventRoundSettled) != 1 {
		t.Errorf("settled events = %d, want 1", rec.count(EventRoundSettled))
	}
	if rec.count(EventRoundTick) == 0 {
		t.Error("no tick events emitted")
	}

	settlement, err := m.LastSettlement(ctx, s.ID)
	if err != nil || settlement == nil {
		t.Fatalf("LastSettlement: %v %v", settlement, err)
	}
	stored, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if stored.Balance != settlement.BalanceAfter || result.Balance != settlement.BalanceAfter {
		t.Errorf("stored balance %v, snapshot %v, settlement %v", stored.Balance, result.Balance, settlement.BalanceAfter)
	}

	seeds, err := m.Reveal(ctx, s.ID)
	if err != nil {
		t.Fatalf("Reveal: %v", err)
	}
	if ok, _ := fairness.Verify(seeds); !ok {
		t.Error("revealed seeds do not verify")
	}

	if _, err := m.Start(ctx, s.ID, ""); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("start on result screen err = %v, want ErrWrongPhase", err)
	}
	snap, err = m.Acknowledge(ctx, s.ID)
	if err != nil || snap.Phase != PhaseAwaitingBet {
		t.Errorf("Acknowledge: phase=%s err=%v", snap.Phase, err)
	}
	if _, err := m.Acknowledge(ctx, s.ID); !errors.Is(err, ErrWrongPhase) {
		t.Errorf("second acknowledge err = %v, want ErrWrongPhase", err)
	}
}

func TestManagerWagerCommands(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(t)
	s, _ := m.CreateSession(ctx, "")

	snap, err := m.DoubleWager(ctx, s.ID)
	if err != nil || snap.Wager != 20 {
		t.Errorf("DoubleWager: wager=%v err=%v", snap.Wager, err)
	}
	snap, err = m.HalveWager(ctx, s.ID)
	if err != nil || snap.Wager != 10 {
		t.Errorf("HalveWager: wager=%v err=%v", snap.Wager, err)
	}
	if _, err := m.SetWager(ctx, s.ID, 5000); !errors.Is(err, ErrInsufficientBalance) {
		t.Errorf("SetWager over balance err = %v", err)
	}
	if _, err := m.SetWager(ctx, s.ID, 42); err != nil {
		t.Fatalf("SetWager: %v", err)
	}
	stored, _ := store.Get(ctx, s.ID)
	if stored.Wager != 42 {
		t.Errorf("stored wager = %v, want 42", stored.Wager)
	}
}

func TestManagerUnknownSession(t *testing.T) {
	m, _, _ := newTestManager(t)
	if _, err := m.State(context.Background(), "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("err = %v, want ErrSessionNotFound", err)
	}
}

func TestManagerRejectsBadClientSeed(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)
	if _, err := m.CreateSession(ctx, "not-hex"); !errors.Is(err, fairness.ErrInvalidSeed) {
		t.Errorf("CreateSession err = %v, want ErrInvalidSeed", err)
	}
	s, _ := m.CreateSession(ctx, "abcd")
	if _, err := m.Start(ctx, s.ID, "zz"); !errors.Is(err, fairness.ErrInvalidSeed) {
		t.Errorf("Start err = %v, want ErrInvalidSeed", err)
	}
	snap, err := m.Start(ctx, s.ID, "")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap.ClientSeed != "abcd" {
		t.Errorf("client seed = %q, want session seed abcd", snap.ClientSeed)
	}
}

func TestManagerEvictsIdleSessions(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(t)
	s, _ := m.CreateSession(ctx, "")
	if _, err := m.Start(ctx, s.ID, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if ids := m.IdleSessions(time.Now().Add(-time.Minute)); len(ids) != 0 {
		t.Errorf("fresh session reported idle: %v", ids)
	}
	ids := m.IdleSessions(time.Now().Add(time.Minute))
	if len(ids) != 1 || ids[0] != s.ID {
		t.Fatalf("idle sessions = %v, want [%s]", ids, s.ID)
	}

	sweepMemoryIdle(ctx, m, 0)
	if len(m.IdleSessions(time.Now().Add(time.Minute))) != 1 {
		t.Fatal("zero timeout evicted a session")
	}

	time.Sleep(5 * time.Millisecond)
	sweepMemoryIdle(ctx, m, time.Millisecond)

	if len(m.IdleSessions(time.Now().Add(time.Hour))) != 0 {
		t.Error("session still in memory after eviction")
	}
	stored, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("evicted session lost from store: %v", err)
	}
	if stored.Balance != 990 {
		t.Errorf("stored balance = %v, want 990 (abandoned wager is not refunded)", stored.Balance)
	}

	// The session reloads from the store on next use.
	snap, err := m.State(ctx, s.ID)
	if err != nil || snap.Phase != PhaseAwaitingBet {
		t.Errorf("reloaded state: phase=%s err=%v", snap.Phase, err)
	}
}

func TestPersistKeepsNewestCheckpoint(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(t)
	s, _ := m.CreateSession(ctx, "")

	m.mu.Lock()
	a := m.sessions[s.ID]
	older, olderRev := a.checkpoint()
	if err := a.round.SetWager(20); err != nil {
		m.mu.Unlock()
		t.Fatalf("SetWager: %v", err)
	}
	newer, newerRev := a.checkpoint()
	m.mu.Unlock()

	// The settle path saves first, the command that read before it lands late.
	if err := m.persist(ctx, a, newer, newerRev); err != nil {
		t.Fatalf("persist newer: %v", err)
	}
	if err := m.persist(ctx, a, older, olderRev); err != nil {
		t.Fatalf("persist older: %v", err)
	}

	stored, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Wager != 20 {
		t.Errorf("stored wager = %v, want 20 from the newer checkpoint", stored.Wager)
	}
}

func TestStoredBalanceFollowsSettlementUnderLoad(t *testing.T) {
	ctx := context.Background()
	m, store, _ := newTestManager(t)
	s, _ := m.CreateSession(ctx, "")
	if _, err := m.Start(ctx, s.ID, ""); err != nil {
		t.Fatalf("Start: %v", err)
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					m.State(ctx, s.ID)
				}
			}
		}()
	}
	tickUntilSettled(t, m, s.ID)
	close(stop)
	wg.Wait()

	live, err := m.Session(ctx, s.ID)
	if err != nil {
		t.Fatalf("Session: %v", err)
	}
	stored, err := store.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Balance != live.Balance {
		t.Errorf("stored balance %v, live balance %v", stored.Balance, live.Balance)
	}
}

func TestRuntimeSettingsChangeWhileSessionsOpen(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			m.config.UpdateRuntime(func(r *config.Runtime) {
				r.StartingBalance = 500
				r.DefaultWager = 5
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if _, err := m.CreateSession(ctx, ""); err != nil {
				t.Errorf("CreateSession: %v", err)
				return
			}
		}
	}()
	wg.Wait()

	s, err := m.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.Balance != 500 || s.Wager != 5 {
		t.Errorf("new session balance=%v wager=%v, want 500 and 5", s.Balance, s.Wager)
	}
}
