package semantic

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/WessleyAI/occumatch/engine/catalog"
	"github.com/WessleyAI/occumatch/engine/embed"
)

type memoryEntry struct {
	id       string
	vec      embed.Vector
	metadata map[string]any
}

// MemoryIndex is a brute-force cosine index over a catalog held in memory.
// It is immutable after construction and safe for concurrent use.
type MemoryIndex struct {
	dims    int
	entries []memoryEntry
}

// NewMemoryIndex embeds every record with e.
func NewMemoryIndex(e *embed.Embedder, records []catalog.Record) *MemoryIndex {
	entries := make([]memoryEntry, len(records))
	for i, r := range records {
		entries[i] = memoryEntry{id: r.ID, vec: e.Embed(r.Text()), metadata: r.Metadata()}
	}
	return &MemoryIndex{dims: e.Dimensions(), entries: entries}
}

// Len returns the number of indexed records.
func (m *MemoryIndex) Len() int { return len(m.entries) }

// Search returns the topK most similar records, best first. Equal scores
// keep catalog order.
func (m *MemoryIndex) Search(ctx context.Context, vec embed.Vector, topK int) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("semantic: memory search: %w: %w", ErrSearchUnavailable, err)
	}
	if len(vec) != m.dims {
		return nil, fmt.Errorf("semantic: memory search: query has %d dims, want %d: %w", len(vec), m.dims, ErrDimensionMismatch)
	}

	out := make([]Match, len(m.entries))
	for i, e := range m.entries {
		out[i] = Match{ID: e.id, Score: cosine(vec, e.vec), Metadata: copyMetadata(e.metadata)}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })

	if topK < 1 {
		topK = 1
	}
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// cosine returns 0 when either vector is zero.
func cosine(a, b embed.Vector) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func copyMetadata(md map[string]any) map[string]any {
	out := make(map[string]any, len(md))
	for k, v := range md {
		out[k] = v
	}
	return out
}
