package explain

import (
	"context"
	"fmt"

	"github.com/WessleyAI/occumatch/pkg/resilience"
)

type throttled struct {
	next Explainer
	lim  *resilience.Limiter
}

// Throttle bounds calls to next by the provider's request quota. A call
// that cannot get a token before ctx expires fails without reaching the
// provider.
func Throttle(next Explainer, lim *resilience.Limiter) Explainer {
	if lim == nil {
		return next
	}
	return &throttled{next: next, lim: lim}
}

func (t *throttled) Name() string { return t.next.Name() }

func (t *throttled) Explain(ctx context.Context, req Request) (string, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return "", fmt.Errorf("explain: %s quota: %w", t.next.Name(), err)
	}
	return t.next.Explain(ctx, req)
}
