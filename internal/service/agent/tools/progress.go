package tools

import "context"

// ProgressFunc receives human-readable status lines emitted by
// long-running executors (page counts, summarization passes). Callers
// that don't care simply don't install one.
type ProgressFunc func(message string)

type progressKey struct{}

// WithProgress returns a context carrying a progress callback.
func WithProgress(ctx context.Context, fn ProgressFunc) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// Progress emits a status line if the context carries a callback.
func Progress(ctx context.Context, message string) {
	if fn, ok := ctx.Value(progressKey{}).(ProgressFunc); ok && fn != nil {
		fn(message)
	}
}
