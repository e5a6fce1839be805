package tools

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"finbot/internal/domain"
)

// Registry maps capability names to their executors and dispatches
// invocation batches.
type Registry struct {
	executors map[string]Executor
	logger    *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		executors: make(map[string]Executor),
		logger:    logger,
	}
}

// Register binds an executor to a capability name. Registering the same
// name twice is a programming error and panics at startup.
func (r *Registry) Register(name string, exec Executor) {
	if _, exists := r.executors[name]; exists {
		panic(fmt.Sprintf("tools: duplicate executor registration: %s", name))
	}
	r.executors[name] = exec
}

// Get returns the executor for a capability name.
func (r *Registry) Get(name string) (Executor, bool) {
	exec, ok := r.executors[name]
	return exec, ok
}

// Execute runs a single invocation. Executor failures and unknown
// capability names are captured in the Result, not returned: every Call
// yields a Result so the conversation transcript stays well-formed.
func (r *Registry) Execute(ctx context.Context, call Call) Result {
	exec, ok := r.executors[call.Name]
	if !ok {
		r.logger.Warn("unknown capability requested", "name", call.Name, "call_id", call.ID)
		return Result{
			ID:      call.ID,
			Name:    call.Name,
			Err:     fmt.Errorf("%w: %s", domain.ErrUnknownCapability, call.Name),
			IsError: true,
		}
	}

	out, err := exec.Execute(ctx, call.Input)
	if err != nil {
		r.logger.Warn("capability execution failed", "name", call.Name, "call_id", call.ID, "error", err)
		return Result{ID: call.ID, Name: call.Name, Err: err, IsError: true}
	}
	return Result{ID: call.ID, Name: call.Name, Result: out}
}

// ExecuteParallel runs all invocations concurrently and returns results
// in the same order as the input calls, regardless of completion order.
func (r *Registry) ExecuteParallel(ctx context.Context, calls []Call) []Result {
	results := make([]Result, len(calls))

	var wg sync.WaitGroup
	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c Call) {
			defer wg.Done()
			results[idx] = r.Execute(ctx, c)
		}(i, call)
	}
	wg.Wait()

	return results
}
