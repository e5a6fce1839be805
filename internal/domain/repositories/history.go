package repositories

import (
	"context"

	"finbot/internal/domain/models"
)

// HistoryRepository is the durable, append-only per-conversation message
// log. Appends for distinct (user, session) keys are safe concurrently;
// ordering within a key follows append order.
type HistoryRepository interface {
	// Append durably persists one turn. The turn is never mutated after
	// append; a crash mid-loop leaves a replayable prefix.
	Append(ctx context.Context, turn *models.Turn) error

	// List returns the conversation's turns in append order.
	List(ctx context.Context, userID, sessionID string) ([]models.Turn, error)
}
