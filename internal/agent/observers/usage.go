package observers

import (
	"context"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/renal-diet-poc/server/internal/agent/model"
)

type usageKey struct{}

// UsageTracker accumulates token usage and cost for one workflow run.
// Model callbacks find it through the context.
type UsageTracker struct {
	mu    sync.Mutex
	usage model.Usage
}

// WithUsage attaches a fresh tracker to ctx.
func WithUsage(ctx context.Context) (context.Context, *UsageTracker) {
	t := &UsageTracker{}
	return context.WithValue(ctx, usageKey{}, t), t
}

// UsageFrom returns the tracker attached to ctx, or nil.
func UsageFrom(ctx context.Context) *UsageTracker {
	t, _ := ctx.Value(usageKey{}).(*UsageTracker)
	return t
}

func (t *UsageTracker) Record(modelName string, usage *schema.TokenUsage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.Add(modelName, usage)
}

// Snapshot returns a copy of the totals so far.
func (t *UsageTracker) Snapshot() model.Usage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.usage
}
