package models

import (
	"time"

	"finbot/internal/llm"
)

// Turn roles. System prompts are rebuilt per agent round and never
// persisted, so RoleSystem appears only in outgoing requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Turn is one entry in a conversation's append-only history. A tool turn
// references the call id emitted by the immediately preceding assistant
// turn; turns are never mutated after append.
type Turn struct {
	ID         int64          `json:"id" db:"id"`
	UserID     string         `json:"user_id" db:"user_id"`
	SessionID  string         `json:"session_id" db:"session_id"`
	Role       string         `json:"role" db:"role"`
	Content    *string        `json:"content" db:"content"`
	ToolCalls  []llm.ToolCall `json:"tool_calls,omitempty" db:"tool_calls"`
	ToolCallID *string        `json:"tool_call_id,omitempty" db:"tool_call_id"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// Message converts the stored turn to its wire representation.
func (t *Turn) Message() llm.Message {
	msg := llm.Message{
		Role:      t.Role,
		ToolCalls: t.ToolCalls,
	}
	if t.Content != nil {
		msg.Content = *t.Content
	}
	if t.ToolCallID != nil {
		msg.ToolCallID = *t.ToolCallID
	}
	return msg
}
