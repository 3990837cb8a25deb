// Package failpoint provides named, context-scoped deterministic injection
// hooks. Tests attach a hook to a context with WithHook; production code
// calls Hit at the named site, which is a no-op unless a test has attached
// a hook for that name. This lets partial-failure recovery (an interrupted
// band, a block write that never completes) be exercised deterministically
// without faking the transport.
package failpoint

import "context"

// Hook is called when its registered site is hit. Returning a non-nil
// error aborts the operation at that site exactly as a real failure would.
type Hook func(ctx context.Context) error

type contextKey struct{}

// WithHook returns a context carrying hook registered under name, in
// addition to any hooks already attached to ctx.
func WithHook(ctx context.Context, name string, hook Hook) context.Context {
	existing := hooksFrom(ctx)
	hooks := make(map[string]Hook, len(existing)+1)
	for k, v := range existing {
		hooks[k] = v
	}
	hooks[name] = hook
	return context.WithValue(ctx, contextKey{}, hooks)
}

func hooksFrom(ctx context.Context) map[string]Hook {
	hooks, _ := ctx.Value(contextKey{}).(map[string]Hook)
	return hooks
}

// Hit invokes the hook registered for name on ctx, if any, and returns its
// error. With no hook attached, Hit is a zero-cost no-op.
func Hit(ctx context.Context, name string) error {
	hook, ok := hooksFrom(ctx)[name]
	if !ok {
		return nil
	}
	return hook(ctx)
}
