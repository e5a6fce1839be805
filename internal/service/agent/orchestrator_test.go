package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"finbot/internal/config"
	"finbot/internal/domain"
	"finbot/internal/domain/models"
	"finbot/internal/llm"
	"finbot/internal/repository/memory"
	"finbot/internal/service/agent/tools"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedReasoner replays a fixed sequence of assistant messages and
// records every request it receives.
type scriptedReasoner struct {
	script   []llm.Message
	requests []llm.ChatRequest
}

func (s *scriptedReasoner) Complete(ctx context.Context, req *llm.ChatRequest) (*llm.Message, error) {
	s.requests = append(s.requests, *req)
	idx := len(s.requests) - 1
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	msg := s.script[idx]
	return &msg, nil
}

func (s *scriptedReasoner) Model() string { return "test-model" }

type stubDocuments struct{ count int }

func (s *stubDocuments) Create(ctx context.Context, doc *models.Document) error { return nil }
func (s *stubDocuments) GetByPdfURL(ctx context.Context, pdfURL string) (*models.Document, error) {
	return nil, domain.ErrNotFound
}
func (s *stubDocuments) Search(ctx context.Context, filter *models.StructuredFilter, limit int) ([]models.Document, error) {
	return nil, nil
}
func (s *stubDocuments) Count(ctx context.Context) (int, error) { return s.count, nil }

type stubCapabilities struct{}

func (s *stubCapabilities) Definitions() []llm.Tool {
	return []llm.Tool{{Type: "function", Function: llm.Function{Name: "echo"}}}
}

type echoExecutor struct{ calls int }

func (e *echoExecutor) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	e.calls++
	return map[string]interface{}{"echo": input["value"]}, nil
}

func assistantReply(content string) llm.Message {
	return llm.Message{Role: models.RoleAssistant, Content: content}
}

func assistantToolCall(id, name, args string) llm.Message {
	return llm.Message{
		Role: models.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:       id,
			Type:     "function",
			Function: llm.ToolCallFunction{Name: name, Arguments: args},
		}},
	}
}

func newTestOrchestrator(reasoner *scriptedReasoner, exec tools.Executor) (*Orchestrator, *memory.HistoryRepository) {
	registry := tools.NewRegistry(testLogger())
	if exec != nil {
		registry.Register("echo", exec)
	}
	history := memory.NewHistoryRepository()
	o := NewOrchestrator(reasoner, &stubCapabilities{}, registry, history, &stubDocuments{count: 7}, NewProgressBroker(), testLogger())
	return o, history
}

func TestRunTerminalReplyNoDispatch(t *testing.T) {
	reasoner := &scriptedReasoner{script: []llm.Message{assistantReply("GR/2024/1 was issued on 5 March 2024.")}}
	exec := &echoExecutor{}
	o, history := newTestOrchestrator(reasoner, exec)

	result, err := o.Run(context.Background(), "u1", "s1", "when was GR/2024/1 issued?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "GR/2024/1 was issued on 5 March 2024." {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if exec.calls != 0 {
		t.Errorf("expected no tool dispatch, got %d calls", exec.calls)
	}

	turns, _ := history.List(context.Background(), "u1", "s1")
	if len(turns) != 2 {
		t.Fatalf("expected user and assistant turns, got %d", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[1].Role != models.RoleAssistant {
		t.Errorf("unexpected turn roles: %s, %s", turns[0].Role, turns[1].Role)
	}
}

func TestRunContentWinsOverToolCalls(t *testing.T) {
	// A message carrying both text and tool calls ends the turn with the
	// text; the requested calls must not be dispatched.
	mixed := assistantToolCall("c1", "echo", `{"value":"hi"}`)
	mixed.Content = "GR/2024/9 concerns pension revisions."
	reasoner := &scriptedReasoner{script: []llm.Message{
		mixed,
		assistantReply("second round answer"),
	}}
	exec := &echoExecutor{}
	o, history := newTestOrchestrator(reasoner, exec)

	result, err := o.Run(context.Background(), "u1", "s1", "what is GR/2024/9 about?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "GR/2024/9 concerns pension revisions." {
		t.Errorf("expected the mixed message's content, got %q", result.Answer)
	}
	if exec.calls != 0 {
		t.Errorf("expected no dispatch alongside a textual answer, got %d calls", exec.calls)
	}
	if len(reasoner.requests) != 1 {
		t.Errorf("expected a single completion round, got %d", len(reasoner.requests))
	}

	turns, _ := history.List(context.Background(), "u1", "s1")
	if len(turns) != 2 {
		t.Fatalf("expected user and assistant turns only, got %d", len(turns))
	}
}

func TestRunSystemPromptRebuiltNotPersisted(t *testing.T) {
	reasoner := &scriptedReasoner{script: []llm.Message{
		assistantToolCall("c1", "echo", `{"value":"hi"}`),
		assistantReply("done"),
	}}
	o, history := newTestOrchestrator(reasoner, &echoExecutor{})

	if _, err := o.Run(context.Background(), "u1", "s1", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(reasoner.requests) != 2 {
		t.Fatalf("expected 2 completion rounds, got %d", len(reasoner.requests))
	}
	for i, req := range reasoner.requests {
		first := req.Messages[0]
		if first.Role != models.RoleSystem {
			t.Errorf("round %d: expected leading system message, got %s", i+1, first.Role)
		}
		if !strings.Contains(first.Content, "7 government resolutions") {
			t.Errorf("round %d: expected corpus size in system prompt", i+1)
		}
	}

	turns, _ := history.List(context.Background(), "u1", "s1")
	for _, turn := range turns {
		if turn.Role == models.RoleSystem {
			t.Error("system prompt must never be persisted")
		}
	}
}

func TestRunToolRoundTrip(t *testing.T) {
	reasoner := &scriptedReasoner{script: []llm.Message{
		assistantToolCall("c1", "echo", `{"value":"hi"}`),
		assistantReply("the echo said hi"),
	}}
	exec := &echoExecutor{}
	o, history := newTestOrchestrator(reasoner, exec)

	result, err := o.Run(context.Background(), "u1", "s1", "echo hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Answer != "the echo said hi" {
		t.Errorf("unexpected answer: %q", result.Answer)
	}
	if exec.calls != 1 {
		t.Errorf("expected one dispatch, got %d", exec.calls)
	}

	turns, _ := history.List(context.Background(), "u1", "s1")
	if len(turns) != 4 {
		t.Fatalf("expected user/assistant/tool/assistant, got %d turns", len(turns))
	}
	toolTurn := turns[2]
	if toolTurn.Role != models.RoleTool {
		t.Fatalf("expected tool turn third, got %s", toolTurn.Role)
	}
	if toolTurn.ToolCallID == nil || *toolTurn.ToolCallID != "c1" {
		t.Error("tool turn must carry the originating call id")
	}
	if toolTurn.Content == nil || !strings.Contains(*toolTurn.Content, `"echo":"hi"`) {
		t.Errorf("unexpected tool payload: %v", toolTurn.Content)
	}

	// The second request must replay the assistant tool-call turn and its
	// result so the model can ground its final answer.
	second := reasoner.requests[1].Messages
	last := second[len(second)-1]
	if last.Role != models.RoleTool || last.ToolCallID != "c1" {
		t.Errorf("expected tool result as last request message, got role=%s id=%s", last.Role, last.ToolCallID)
	}
}

func TestRunMalformedArgumentsBecomeErrorTurn(t *testing.T) {
	reasoner := &scriptedReasoner{script: []llm.Message{
		assistantToolCall("c1", "echo", `{not json`),
		assistantReply("sorry, that failed"),
	}}
	exec := &echoExecutor{}
	o, history := newTestOrchestrator(reasoner, exec)

	if _, err := o.Run(context.Background(), "u1", "s1", "echo"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.calls != 0 {
		t.Error("malformed arguments must not reach the executor")
	}

	turns, _ := history.List(context.Background(), "u1", "s1")
	toolTurn := turns[2]
	if toolTurn.Content == nil || !strings.Contains(*toolTurn.Content, "invalid arguments format") {
		t.Errorf("expected error payload in tool turn, got %v", toolTurn.Content)
	}
}

func TestRunUnknownCapabilityBecomesErrorTurn(t *testing.T) {
	reasoner := &scriptedReasoner{script: []llm.Message{
		assistantToolCall("c1", "launch_rocket", `{}`),
		assistantReply("I don't have that ability"),
	}}
	o, history := newTestOrchestrator(reasoner, &echoExecutor{})

	if _, err := o.Run(context.Background(), "u1", "s1", "launch"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	turns, _ := history.List(context.Background(), "u1", "s1")
	toolTurn := turns[2]
	if toolTurn.Content == nil || !strings.Contains(*toolTurn.Content, "unknown capability") {
		t.Errorf("expected unknown-capability payload, got %v", toolTurn.Content)
	}
}

func TestRunLoopBudgetExceeded(t *testing.T) {
	// The model never stops asking for tools.
	reasoner := &scriptedReasoner{script: []llm.Message{
		assistantToolCall("c1", "echo", `{"value":"again"}`),
	}}
	o, history := newTestOrchestrator(reasoner, &echoExecutor{})

	_, err := o.Run(context.Background(), "u1", "s1", "loop forever")
	if !errors.Is(err, domain.ErrLoopBudgetExceeded) {
		t.Fatalf("expected ErrLoopBudgetExceeded, got %v", err)
	}
	if len(reasoner.requests) != config.MaxAgentRounds {
		t.Errorf("expected %d rounds, got %d", config.MaxAgentRounds, len(reasoner.requests))
	}

	// The persisted prefix stays intact for retry.
	turns, _ := history.List(context.Background(), "u1", "s1")
	if len(turns) != 1+2*config.MaxAgentRounds {
		t.Errorf("expected full persisted prefix, got %d turns", len(turns))
	}
}
