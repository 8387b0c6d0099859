package semantic

import (
	"context"
	"errors"

	"github.com/WessleyAI/occumatch/engine/embed"
)

// ErrSearchUnavailable marks a failed call to the index. It is never used
// for a successful search that matched nothing.
var ErrSearchUnavailable = errors.New("vector search unavailable")

// ErrDimensionMismatch is returned when a query or collection does not
// have the configured vector size.
var ErrDimensionMismatch = errors.New("vector dimension mismatch")

// Match is a single nearest-neighbor hit. Metadata is the stored payload,
// passed through untouched.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// Searcher runs top-K similarity queries. Results are ordered by
// descending score. Implementations must be safe for concurrent use.
type Searcher interface {
	Search(ctx context.Context, vec embed.Vector, topK int) ([]Match, error)
}
