package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"finbot/internal/domain/models"
	"finbot/internal/domain/repositories"
	"finbot/internal/llm"
)

// PostgresHistoryRepository implements the HistoryRepository interface
// using PostgreSQL. Turn ordering rides on the BIGSERIAL primary key:
// append is a single INSERT, so concurrent appends on distinct
// conversation keys need no coordination.
type PostgresHistoryRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
	logger *slog.Logger
}

// NewHistoryRepository creates a new PostgresHistoryRepository
func NewHistoryRepository(config *RepositoryConfig) repositories.HistoryRepository {
	return &PostgresHistoryRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Append durably persists one turn.
func (r *PostgresHistoryRepository) Append(ctx context.Context, turn *models.Turn) error {
	var toolCallsJSON []byte
	if len(turn.ToolCalls) > 0 {
		var err error
		toolCallsJSON, err = json.Marshal(turn.ToolCalls)
		if err != nil {
			return fmt.Errorf("marshal tool calls: %w", err)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, session_id, role, content, tool_calls, tool_call_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, r.tables.ChatTurns)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		turn.UserID,
		turn.SessionID,
		turn.Role,
		turn.Content,
		toolCallsJSON,
		turn.ToolCallID,
	).Scan(&turn.ID, &turn.CreatedAt)

	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}

	return nil
}

// List returns the conversation's turns in append order.
func (r *PostgresHistoryRepository) List(ctx context.Context, userID, sessionID string) ([]models.Turn, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, session_id, role, content, tool_calls, tool_call_id, created_at
		FROM %s
		WHERE user_id = $1 AND session_id = $2
		ORDER BY id
	`, r.tables.ChatTurns)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []models.Turn
	for rows.Next() {
		var (
			turn          models.Turn
			toolCallsJSON []byte
		)
		if err := rows.Scan(
			&turn.ID,
			&turn.UserID,
			&turn.SessionID,
			&turn.Role,
			&turn.Content,
			&toolCallsJSON,
			&turn.ToolCallID,
			&turn.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if len(toolCallsJSON) > 0 {
			var calls []llm.ToolCall
			if err := json.Unmarshal(toolCallsJSON, &calls); err != nil {
				return nil, fmt.Errorf("unmarshal tool calls for turn %d: %w", turn.ID, err)
			}
			turn.ToolCalls = calls
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}

	return turns, nil
}
