// Package memory provides in-memory repository implementations used in
// development and tests.
package memory

import (
	"context"
	"sync"
	"time"

	"finbot/internal/domain/models"
)

// HistoryRepository is an in-memory, append-only conversation log keyed
// by (user_id, session_id). Semantics mirror the Postgres implementation:
// monotonically increasing ids, turns returned in append order, listed
// slices are copies.
type HistoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	turns  map[historyKey][]models.Turn
}

type historyKey struct {
	userID    string
	sessionID string
}

// NewHistoryRepository creates an empty in-memory history store.
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		turns: make(map[historyKey][]models.Turn),
	}
}

// Append persists one turn.
func (r *HistoryRepository) Append(ctx context.Context, turn *models.Turn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	turn.ID = r.nextID
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}

	key := historyKey{userID: turn.UserID, sessionID: turn.SessionID}
	r.turns[key] = append(r.turns[key], *turn)
	return nil
}

// List returns the conversation's turns in append order.
func (r *HistoryRepository) List(ctx context.Context, userID, sessionID string) ([]models.Turn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.turns[historyKey{userID: userID, sessionID: sessionID}]
	out := make([]models.Turn, len(stored))
	copy(out, stored)
	return out, nil
}
