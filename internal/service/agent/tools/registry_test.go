package tools

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"finbot/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type stubExecutor struct {
	delay  time.Duration
	result interface{}
	err    error
}

func (s *stubExecutor) Execute(ctx context.Context, input map[string]interface{}) (interface{}, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.result, s.err
}

func TestRegistryExecuteUnknownCapability(t *testing.T) {
	r := NewRegistry(testLogger())

	res := r.Execute(context.Background(), Call{ID: "c1", Name: "no_such_tool"})

	if !res.IsError {
		t.Fatal("expected error result for unknown capability")
	}
	if !errors.Is(res.Err, domain.ErrUnknownCapability) {
		t.Errorf("expected ErrUnknownCapability, got %v", res.Err)
	}
	if res.ID != "c1" {
		t.Errorf("expected call id preserved, got %q", res.ID)
	}
}

func TestRegistryExecuteErrorBecomesPayload(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Register("failing", &stubExecutor{err: errors.New("backend down")})

	res := r.Execute(context.Background(), Call{ID: "c1", Name: "failing"})

	if !res.IsError {
		t.Fatal("expected error result")
	}
	payload, ok := res.Payload().(map[string]string)
	if !ok {
		t.Fatalf("expected error payload map, got %T", res.Payload())
	}
	if payload["error"] != "backend down" {
		t.Errorf("unexpected error payload: %v", payload)
	}
}

func TestRegistryExecuteParallelPreservesOrder(t *testing.T) {
	r := NewRegistry(testLogger())
	// The slow executor finishes last; its result must still come first.
	r.Register("slow", &stubExecutor{delay: 50 * time.Millisecond, result: "slow-result"})
	r.Register("fast", &stubExecutor{result: "fast-result"})

	calls := []Call{
		{ID: "c1", Name: "slow"},
		{ID: "c2", Name: "fast"},
		{ID: "c3", Name: "fast"},
	}
	results := r.ExecuteParallel(context.Background(), calls)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for i, call := range calls {
		if results[i].ID != call.ID {
			t.Errorf("result %d: expected id %q, got %q", i, call.ID, results[i].ID)
		}
	}
	if results[0].Result != "slow-result" {
		t.Errorf("expected slow result first, got %v", results[0].Result)
	}
}

func TestRegistryRegisterDuplicatePanics(t *testing.T) {
	r := NewRegistry(testLogger())
	r.Register("dup", &stubExecutor{})

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	r.Register("dup", &stubExecutor{})
}
