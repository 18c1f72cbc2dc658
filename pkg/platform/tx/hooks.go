package tx

import (
	"context"
	"sync"
)

type hooksKey struct{}

type hooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

// AfterCommit defers fn until the enclosing unit of work commits. Outside a
// unit of work fn runs immediately. Hooks are discarded on rollback.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	h, ok := ctx.Value(hooksKey{}).(*hooks)
	if !ok {
		fn(ctx)
		return
	}
	h.mu.Lock()
	h.fns = append(h.fns, fn)
	h.mu.Unlock()
}

// withHooks opens a hook scope unless ctx already has one, in which case the
// outermost scope owns the hooks.
func withHooks(ctx context.Context) (context.Context, *hooks, bool) {
	if h, ok := ctx.Value(hooksKey{}).(*hooks); ok {
		return ctx, h, false
	}
	h := &hooks{}
	return context.WithValue(ctx, hooksKey{}, h), h, true
}

func (h *hooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}
