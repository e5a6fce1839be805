package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finbot/internal/config"
	"finbot/internal/domain"
	"finbot/internal/domain/models"
	"finbot/internal/domain/repositories"
	"finbot/internal/llm"
	"finbot/internal/service/agent/tools"
)

// CapabilityRegistry exposes the declared tool surface sent to the model.
type CapabilityRegistry interface {
	Definitions() []llm.Tool
}

// Result is the outcome of one completed agent turn. Logs holds the
// stage labels the tools emitted while working, in emission order.
type Result struct {
	Answer string   `json:"answer"`
	Logs   []string `json:"logs,omitempty"`
}

// Orchestrator runs the agent loop: it alternates between asking the
// reasoning service for the next step and dispatching the tool calls it
// requests, persisting every turn so a conversation survives restarts.
type Orchestrator struct {
	reasoner     tools.Reasoner
	capabilities CapabilityRegistry
	registry     *tools.Registry
	history      repositories.HistoryRepository
	documents    repositories.DocumentRepository
	broker       *ProgressBroker
	sessions     *sessionLock
	logger       *slog.Logger
	now          func() time.Time
}

func NewOrchestrator(
	reasoner tools.Reasoner,
	capabilities CapabilityRegistry,
	registry *tools.Registry,
	history repositories.HistoryRepository,
	documents repositories.DocumentRepository,
	broker *ProgressBroker,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		reasoner:     reasoner,
		capabilities: capabilities,
		registry:     registry,
		history:      history,
		documents:    documents,
		broker:       broker,
		sessions:     newSessionLock(),
		logger:       logger,
		now:          time.Now,
	}
}

// Run processes one user message and returns the assistant's answer.
// Concurrent calls for the same conversation are serialized; a turn that
// exhausts its tool rounds returns domain.ErrLoopBudgetExceeded with the
// history prefix intact for retry.
func (o *Orchestrator) Run(ctx context.Context, userID, sessionID, message string) (*Result, error) {
	release := o.sessions.acquire(userID, sessionID)
	defer release()

	logger := o.logger.With("user_id", userID, "session_id", sessionID)

	// Collect stage labels for the response, fan them out to progress
	// subscribers, and chain to any observer the caller installed.
	var (
		logsMu sync.Mutex
		logs   []string
	)
	parent := ctx
	ctx = tools.WithProgress(ctx, func(label string) {
		logsMu.Lock()
		logs = append(logs, label)
		logsMu.Unlock()
		if o.broker != nil {
			o.broker.Publish(userID, sessionID, label)
		}
		tools.Progress(parent, label)
	})

	userTurn := &models.Turn{
		UserID:    userID,
		SessionID: sessionID,
		Role:      models.RoleUser,
		Content:   &message,
	}
	if err := o.history.Append(ctx, userTurn); err != nil {
		return nil, fmt.Errorf("append user turn: %w", err)
	}

	for round := 1; round <= config.MaxAgentRounds; round++ {
		messages, err := o.buildMessages(ctx, userID, sessionID)
		if err != nil {
			return nil, err
		}

		logger.Debug("requesting completion", "round", round, "messages", len(messages))
		assistant, err := o.reasoner.Complete(ctx, &llm.ChatRequest{
			Model:       o.reasoner.Model(),
			Messages:    messages,
			Tools:       o.capabilities.Definitions(),
			Temperature: config.AgentTemperature,
		})
		if err != nil {
			return nil, fmt.Errorf("completion round %d: %w", round, err)
		}

		// The assistant turn is persisted verbatim before any dispatch so
		// a crash mid-round leaves a history the next turn can resume from.
		if err := o.appendAssistantTurn(ctx, userID, sessionID, assistant); err != nil {
			return nil, err
		}

		// Textual content ends the turn even when tool calls ride along
		// with it; the answer wins and the requested calls are ignored.
		if assistant.Content != "" || len(assistant.ToolCalls) == 0 {
			logger.Info("agent turn finished", "rounds", round)
			logsMu.Lock()
			collected := append([]string(nil), logs...)
			logsMu.Unlock()
			return &Result{Answer: assistant.Content, Logs: collected}, nil
		}

		logger.Info("dispatching tool calls", "round", round, "calls", len(assistant.ToolCalls))
		results := o.dispatch(ctx, assistant.ToolCalls)
		for _, res := range results {
			if err := o.appendToolTurn(ctx, userID, sessionID, res); err != nil {
				return nil, err
			}
		}
	}

	logger.Warn("agent loop budget exhausted")
	return nil, domain.ErrLoopBudgetExceeded
}

// History returns the conversation's user-visible turns: user messages
// and assistant replies that carry text. Tool plumbing stays internal.
func (o *Orchestrator) History(ctx context.Context, userID, sessionID string) ([]models.Turn, error) {
	turns, err := o.history.List(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	visible := make([]models.Turn, 0, len(turns))
	for _, turn := range turns {
		if turn.Role != models.RoleUser && turn.Role != models.RoleAssistant {
			continue
		}
		if turn.Content == nil || *turn.Content == "" {
			continue
		}
		visible = append(visible, turn)
	}
	return visible, nil
}

// buildMessages assembles the request transcript: a freshly rendered
// system prompt followed by the persisted conversation.
func (o *Orchestrator) buildMessages(ctx context.Context, userID, sessionID string) ([]llm.Message, error) {
	corpusSize, err := o.documents.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("count corpus: %w", err)
	}

	turns, err := o.history.List(ctx, userID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	messages := make([]llm.Message, 0, len(turns)+1)
	messages = append(messages, llm.Message{
		Role:    models.RoleSystem,
		Content: buildSystemPrompt(corpusSize, o.now()),
	})
	for i := range turns {
		messages = append(messages, turns[i].Message())
	}
	return messages, nil
}

// dispatch parses the model's tool calls and runs them in parallel.
// Calls with malformed argument JSON become error results locally; they
// never reach an executor.
func (o *Orchestrator) dispatch(ctx context.Context, toolCalls []llm.ToolCall) []tools.Result {
	calls := make([]tools.Call, 0, len(toolCalls))
	results := make([]tools.Result, len(toolCalls))
	executable := make([]int, 0, len(toolCalls))

	for i, tc := range toolCalls {
		var input map[string]interface{}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &input); err != nil {
			o.logger.Warn("malformed tool arguments", "name", tc.Function.Name, "call_id", tc.ID)
			results[i] = tools.Result{
				ID:      tc.ID,
				Name:    tc.Function.Name,
				Err:     domain.ErrMalformedArguments,
				IsError: true,
			}
			continue
		}
		calls = append(calls, tools.Call{ID: tc.ID, Name: tc.Function.Name, Input: input})
		executable = append(executable, i)
	}

	for i, res := range o.registry.ExecuteParallel(ctx, calls) {
		results[executable[i]] = res
	}
	return results
}

func (o *Orchestrator) appendAssistantTurn(ctx context.Context, userID, sessionID string, msg *llm.Message) error {
	turn := &models.Turn{
		UserID:    userID,
		SessionID: sessionID,
		Role:      models.RoleAssistant,
		ToolCalls: msg.ToolCalls,
	}
	if msg.Content != "" {
		turn.Content = &msg.Content
	}
	if err := o.history.Append(ctx, turn); err != nil {
		return fmt.Errorf("append assistant turn: %w", err)
	}
	return nil
}

func (o *Orchestrator) appendToolTurn(ctx context.Context, userID, sessionID string, res tools.Result) error {
	payload, err := json.Marshal(res.Payload())
	if err != nil {
		return fmt.Errorf("marshal tool result %s: %w", res.ID, err)
	}
	content := string(payload)

	turn := &models.Turn{
		UserID:     userID,
		SessionID:  sessionID,
		Role:       models.RoleTool,
		Content:    &content,
		ToolCallID: &res.ID,
	}
	if err := o.history.Append(ctx, turn); err != nil {
		return fmt.Errorf("append tool turn: %w", err)
	}
	return nil
}
