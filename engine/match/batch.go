package match

import (
	"context"

	"github.com/WessleyAI/occumatch/pkg/fn"
)

// BatchItem is the outcome of one text in a batch. Exactly one of Result
// and Err is set.
type BatchItem struct {
	Index  int
	Input  string
	Result *Result
	Err    error
}

// Success reports whether the item produced a result.
func (it BatchItem) Success() bool { return it.Err == nil && it.Result != nil }

// BatchResult holds one item per input text, in input order.
type BatchResult struct {
	Items          []BatchItem
	SuccessCount   int
	TotalProcessed int
}

// SearchBatch runs Search for every text with bounded concurrency. A
// batch outside 1..MaxBatchSize returns a *ValidationError; otherwise each
// item succeeds or fails on its own.
func (s *Service) SearchBatch(ctx context.Context, texts []string) (*BatchResult, error) {
	if err := ValidateBatch(texts, s.opts.MaxBatchSize); err != nil {
		s.metrics.Request("batch", "invalid_input")
		return nil, err
	}
	s.metrics.Batch(len(texts))
	s.logger.Info("match batch start", "size", len(texts), "concurrency", s.opts.BatchConcurrency)

	results := fn.ParMapResult(ctx, texts, s.opts.BatchConcurrency, func(ctx context.Context, _ int, text string) fn.Result[*Result] {
		return fn.FromPair(s.run(ctx, "batch_item", text, s.opts.BatchTopK))
	})

	out := &BatchResult{
		Items:          make([]BatchItem, len(texts)),
		TotalProcessed: len(texts),
	}
	for i, r := range results {
		res, err := r.Unwrap()
		out.Items[i] = BatchItem{Index: i, Input: texts[i], Result: res, Err: err}
		if out.Items[i].Success() {
			out.SuccessCount++
		}
	}

	s.metrics.Request("batch", "done")
	s.logger.Info("match batch done", "size", len(texts), "success", out.SuccessCount)
	return out, nil
}
