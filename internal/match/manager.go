package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cueladder/backend/internal/metrics"
)

// Match statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// ErrInvalidMatchState rejects scoring on the wrong match, by a
// non-participant, or after completion.
var ErrInvalidMatchState = errors.New("invalid match state")

const snapshotTTL = time.Hour

func snapshotKey(id string) string {
	return "live_match:" + id
}

// LiveMatch is the in-play score sheet for one match. It lives in memory
// for the duration of play, with JSON snapshots in Redis for reads and
// restart recovery.
type LiveMatch struct {
	ID          string      `json:"id"`
	ChallengeID int         `json:"challenge_id,omitempty"`
	Player1ID   int         `json:"player1_id"`
	Player2ID   int         `json:"player2_id"`
	GamesToWin  int         `json:"games_to_win"`
	Scores      map[int]int `json:"scores"`
	Frames      int         `json:"frames"`
	Status      string      `json:"status"`
	WinnerID    int         `json:"winner_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// resolution bookkeeping, guarded by Manager.mu
	resolved  bool
	resolving bool
}

func (lm *LiveMatch) clone() *LiveMatch {
	cp := *lm
	cp.Scores = make(map[int]int, len(lm.Scores))
	for id, score := range lm.Scores {
		cp.Scores[id] = score
	}
	return &cp
}

func (lm *LiveMatch) loserID() int {
	if lm.WinnerID == lm.Player1ID {
		return lm.Player2ID
	}
	return lm.Player1ID
}

// Resolver receives the outcome of a completed match and applies the
// ladder mutation. A successful resolution fires exactly once per match.
type Resolver interface {
	ResolveMatch(ctx context.Context, challengeID int, matchID string, winnerID, loserID int) error
}

// Manager owns every live match. Nothing else writes scores.
type Manager struct {
	mu       sync.RWMutex
	matches  map[string]*LiveMatch
	pairs    map[string]string // unordered pair -> active match id
	rdb      *redis.Client
	resolver Resolver
}

func NewManager(rdb *redis.Client) *Manager {
	return &Manager{
		matches: make(map[string]*LiveMatch),
		pairs:   make(map[string]string),
		rdb:     rdb,
	}
}

// SetResolver wires the completion handler. Must be set before play starts.
func (m *Manager) SetResolver(r Resolver) {
	m.resolver = r
}

func pairKey(a, b int) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}

// CreateMatch starts a zero-zero match between two players outside any
// challenge (a direct ladder match).
func (m *Manager) CreateMatch(ctx context.Context, player1ID, player2ID, gamesToWin int) (*LiveMatch, error) {
	return m.create(ctx, "", player1ID, player2ID, gamesToWin, 0)
}

// StartForChallenge spawns the live match backing a scheduled challenge and
// returns its id. A non-empty matchID revives a match lost to a restart.
func (m *Manager) StartForChallenge(ctx context.Context, challengeID, player1ID, player2ID, gamesToWin int, matchID string) (string, error) {
	lm, err := m.create(ctx, matchID, player1ID, player2ID, gamesToWin, challengeID)
	if err != nil {
		return "", err
	}
	return lm.ID, nil
}

func (m *Manager) create(ctx context.Context, id string, player1ID, player2ID, gamesToWin, challengeID int) (*LiveMatch, error) {
	if player1ID == player2ID {
		return nil, fmt.Errorf("%w: a member cannot play themselves", ErrInvalidMatchState)
	}
	if gamesToWin < 1 {
		return nil, fmt.Errorf("%w: games to win must be at least 1", ErrInvalidMatchState)
	}

	m.mu.Lock()
	key := pairKey(player1ID, player2ID)
	if existing, ok := m.pairs[key]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: active match %s already exists for this pair", ErrInvalidMatchState, existing)
	}
	if id == "" {
		id = uuid.New().String()
	}
	if _, ok := m.matches[id]; ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: match id %s already in use", ErrInvalidMatchState, id)
	}

	now := time.Now().UTC()
	lm := &LiveMatch{
		ID:          id,
		ChallengeID: challengeID,
		Player1ID:   player1ID,
		Player2ID:   player2ID,
		GamesToWin:  gamesToWin,
		Scores:      map[int]int{player1ID: 0, player2ID: 0},
		Status:      StatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.matches[id] = lm
	m.pairs[key] = id
	snapshot := lm.clone()
	m.mu.Unlock()

	metrics.IncActiveLiveMatches()
	m.saveSnapshot(ctx, snapshot)
	log.Printf("[MATCH] ✓ Live match %s started: %d vs %d (first to %d)", id, player1ID, player2ID, gamesToWin)
	return snapshot, nil
}

// ScorePoint credits one frame to playerID. Reaching the winning score
// completes the match and hands the result to the resolver, outside the
// lock. A resolver failure leaves the match completed but unresolved;
// ResolveAgain retries it.
func (m *Manager) ScorePoint(ctx context.Context, matchID string, playerID int) (*LiveMatch, error) {
	m.mu.RLock()
	_, ok := m.matches[matchID]
	m.mu.RUnlock()
	if !ok {
		if _, err := m.restore(ctx, matchID); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	lm, ok := m.matches[matchID]
	if !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: match %s not found", ErrInvalidMatchState, matchID)
	}
	if lm.Status != StatusActive {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: match %s is already %s", ErrInvalidMatchState, matchID, lm.Status)
	}
	if _, participant := lm.Scores[playerID]; !participant {
		m.mu.Unlock()
		return nil, fmt.Errorf("%w: member %d is not playing match %s", ErrInvalidMatchState, playerID, matchID)
	}

	lm.Scores[playerID]++
	lm.Frames++
	lm.UpdatedAt = time.Now().UTC()

	completed := lm.Scores[playerID] >= lm.GamesToWin
	if completed {
		lm.Status = StatusCompleted
		lm.WinnerID = playerID
		delete(m.pairs, pairKey(lm.Player1ID, lm.Player2ID))
	}
	snapshot := lm.clone()
	challengeID := lm.ChallengeID
	m.mu.Unlock()

	metrics.RecordMatchPointScored()
	m.saveSnapshot(ctx, snapshot)

	if !completed {
		return snapshot, nil
	}

	metrics.DecActiveLiveMatches()
	log.Printf("[MATCH] ✓ Match %s completed: winner %d (%d-%d)",
		matchID, snapshot.WinnerID, snapshot.Scores[snapshot.WinnerID], snapshot.Scores[snapshot.loserID()])

	if err := m.resolve(ctx, challengeID, matchID, snapshot.WinnerID, snapshot.loserID()); err != nil {
		log.Printf("[MATCH] Resolution of match %s failed: %v", matchID, err)
		return snapshot, fmt.Errorf("match completed but ladder update failed: %w", err)
	}
	return snapshot, nil
}

// ScorePointFor credits a point to playerID on behalf of actorID. The
// actor must be playing the match; either participant may record a frame
// for the other, as the marker at the table does, but nobody outside the
// match may touch its score.
func (m *Manager) ScorePointFor(ctx context.Context, matchID string, actorID, playerID int) (*LiveMatch, error) {
	lm, err := m.Get(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if actorID != lm.Player1ID && actorID != lm.Player2ID {
		return nil, fmt.Errorf("%w: member %d is not playing match %s", ErrInvalidMatchState, actorID, matchID)
	}
	return m.ScorePoint(ctx, matchID, playerID)
}

// Get returns the match from memory, falling back to the Redis snapshot.
func (m *Manager) Get(ctx context.Context, matchID string) (*LiveMatch, error) {
	m.mu.RLock()
	if lm, ok := m.matches[matchID]; ok {
		cp := lm.clone()
		m.mu.RUnlock()
		return cp, nil
	}
	m.mu.RUnlock()

	return m.loadSnapshot(ctx, matchID)
}

// Abort discards an active match without a result, freeing the pair slot.
func (m *Manager) Abort(ctx context.Context, matchID string) error {
	m.mu.Lock()
	lm, ok := m.matches[matchID]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	if lm.Status != StatusActive {
		m.mu.Unlock()
		return fmt.Errorf("%w: match %s is already %s", ErrInvalidMatchState, matchID, lm.Status)
	}
	delete(m.matches, matchID)
	delete(m.pairs, pairKey(lm.Player1ID, lm.Player2ID))
	m.mu.Unlock()

	metrics.DecActiveLiveMatches()
	if m.rdb != nil {
		m.rdb.Del(ctx, snapshotKey(matchID))
	}
	log.Printf("[MATCH] Match %s aborted", matchID)
	return nil
}

// ResolveAgain retries the ladder update for a completed match whose first
// resolution failed.
func (m *Manager) ResolveAgain(ctx context.Context, matchID string) error {
	m.mu.RLock()
	lm, ok := m.matches[matchID]
	if !ok {
		m.mu.RUnlock()
		return fmt.Errorf("%w: match %s not found", ErrInvalidMatchState, matchID)
	}
	if lm.Status != StatusCompleted {
		m.mu.RUnlock()
		return fmt.Errorf("%w: match %s is not completed", ErrInvalidMatchState, matchID)
	}
	challengeID, winnerID, loserID := lm.ChallengeID, lm.WinnerID, lm.loserID()
	m.mu.RUnlock()

	return m.resolve(ctx, challengeID, matchID, winnerID, loserID)
}

// resolve hands the outcome to the resolver at most once concurrently and
// marks the match resolved on success.
func (m *Manager) resolve(ctx context.Context, challengeID int, matchID string, winnerID, loserID int) error {
	if m.resolver == nil {
		return fmt.Errorf("no resolver configured for match %s", matchID)
	}

	m.mu.Lock()
	lm, ok := m.matches[matchID]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: match %s not found", ErrInvalidMatchState, matchID)
	}
	if lm.resolved {
		m.mu.Unlock()
		return fmt.Errorf("%w: match %s already resolved", ErrInvalidMatchState, matchID)
	}
	if lm.resolving {
		m.mu.Unlock()
		return fmt.Errorf("%w: resolution of match %s already in progress", ErrInvalidMatchState, matchID)
	}
	lm.resolving = true
	m.mu.Unlock()

	err := m.resolver.ResolveMatch(ctx, challengeID, matchID, winnerID, loserID)

	m.mu.Lock()
	lm.resolving = false
	if err == nil {
		lm.resolved = true
	}
	m.mu.Unlock()
	return err
}

// StartCleanup drops resolved matches an hour after completion. Snapshots
// stay readable in Redis until their TTL runs out.
func (m *Manager) StartCleanup(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Printf("[MATCH] Cleanup stopped")
				return
			case <-ticker.C:
				m.dropStale()
			}
		}
	}()
}

func (m *Manager) dropStale() {
	cutoff := time.Now().UTC().Add(-snapshotTTL)

	m.mu.Lock()
	for id, lm := range m.matches {
		if lm.Status == StatusCompleted && lm.resolved && lm.UpdatedAt.Before(cutoff) {
			delete(m.matches, id)
		}
	}
	m.mu.Unlock()
}

func (m *Manager) saveSnapshot(ctx context.Context, lm *LiveMatch) {
	if m.rdb == nil {
		return
	}
	b, err := json.Marshal(lm)
	if err != nil {
		log.Printf("[MATCH] Marshal snapshot %s failed: %v", lm.ID, err)
		return
	}
	if err := m.rdb.SetEx(ctx, snapshotKey(lm.ID), b, snapshotTTL).Err(); err != nil {
		log.Printf("[MATCH] Save snapshot %s failed: %v", lm.ID, err)
	}
}

func (m *Manager) loadSnapshot(ctx context.Context, matchID string) (*LiveMatch, error) {
	if m.rdb == nil {
		return nil, fmt.Errorf("%w: match %s not found", ErrInvalidMatchState, matchID)
	}
	data, err := m.rdb.Get(ctx, snapshotKey(matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: match %s not found", ErrInvalidMatchState, matchID)
	}

	var lm LiveMatch
	if err := json.Unmarshal([]byte(data), &lm); err != nil {
		return nil, fmt.Errorf("decode match snapshot %s: %w", matchID, err)
	}
	return &lm, nil
}

// restore brings a snapshot back into memory after a restart. An active
// match re-claims its pair slot; a completed one is assumed resolved by
// the process that completed it.
func (m *Manager) restore(ctx context.Context, matchID string) (*LiveMatch, error) {
	lm, err := m.loadSnapshot(ctx, matchID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.matches[matchID]; ok {
		return existing.clone(), nil
	}
	if lm.Status == StatusActive {
		key := pairKey(lm.Player1ID, lm.Player2ID)
		if other, ok := m.pairs[key]; ok && other != matchID {
			return nil, fmt.Errorf("%w: active match %s already exists for this pair", ErrInvalidMatchState, other)
		}
		m.pairs[key] = matchID
		metrics.IncActiveLiveMatches()
	} else {
		lm.resolved = true
	}
	m.matches[matchID] = lm

	log.Printf("[MATCH] Restored match %s from snapshot", matchID)
	return lm.clone(), nil
}
