// Package groutine starts goroutines carrying a pprof label with their name,
// so background loops show up by name in profiles and goroutine dumps.
package groutine

import (
	"context"
	"runtime/pprof"
)

type ctxKey struct{}

// labelKey is the pprof label holding the goroutine name
const labelKey = "goroutine_name"

// Go runs fn in a new goroutine labelled name. fn receives a context derived
// from parent (context.Background() when nil) that carries the name.
func Go(parent context.Context, name string, fn func(ctx context.Context)) {
	if parent == nil {
		parent = context.Background()
	}

	go pprof.Do(parent, pprof.Labels(labelKey, name), func(ctx context.Context) {
		fn(context.WithValue(ctx, ctxKey{}, name))
	})
}

// Name returns the name given to Go, or "" outside a named goroutine
func Name(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	name, _ := ctx.Value(ctxKey{}).(string)
	return name
}

// Label returns the pprof label value set by Go
func Label(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	v, _ := pprof.Label(ctx, labelKey)
	return v
}
