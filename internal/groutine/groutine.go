// Package groutine starts named goroutines. The name is attached as a pprof label and
// carried in the context so log lines from background work can say where they came from.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey string

const nameKey ctxKey = "goroutine_name"

// Go starts a named goroutine under an optional parent context.
// Example usage:
//
//	groutine.Go(ctx, "simulator-racp", func(ctx context.Context) {
//	    // emit notifications
//	})
//
// If parent is nil, context.Background() is used.
func Go(parent context.Context, name string, fn func(ctx context.Context)) {
	if parent == nil {
		parent = context.Background()
	}

	go pprof.Do(parent, pprof.Labels("goroutine_name", name), func(ctx context.Context) {
		fn(context.WithValue(ctx, nameKey, name))
	})
}

// Name returns the goroutine name stored by Go, or "" outside such a goroutine
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(nameKey).(string); ok {
		return s
	}
	return ""
}
