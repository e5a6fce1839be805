package tools

import "context"

// Executor runs one capability. Implementations must be safe for
// concurrent use and respect context cancellation.
type Executor interface {
	// Execute runs the capability with the parsed invocation arguments.
	// The returned value must be JSON-serializable; it becomes the
	// tool-result payload fed back to the reasoning service. An error
	// return is converted to an error payload by the registry, never
	// propagated out of the dispatch round.
	Execute(ctx context.Context, input map[string]interface{}) (interface{}, error)
}

// Call represents a single capability invocation request.
type Call struct {
	ID    string                 `json:"id"`    // call id from the reasoning service
	Name  string                 `json:"name"`  // capability name
	Input map[string]interface{} `json:"input"` // parsed arguments
}

// Result represents the outcome of one invocation. Exactly one Result is
// produced per Call, carrying the same ID.
type Result struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Result  interface{} `json:"result"`
	Err     error       `json:"-"`
	IsError bool        `json:"is_error"`
}

// Payload returns the JSON-serializable body for the tool-result turn.
// Failures become structured error payloads so the model can
// self-correct or tell the user what went wrong.
func (r Result) Payload() interface{} {
	if r.IsError {
		return map[string]string{"error": r.Err.Error()}
	}
	return r.Result
}
