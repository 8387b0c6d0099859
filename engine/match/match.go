// Package match orchestrates a job-description search: it validates the
// text, embeds it, queries the occupation index, ranks the hits and asks
// an LLM to explain the best one. The explanation is best-effort; every
// other stage failing fails the request.
package match

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/WessleyAI/occumatch/engine/catalog"
	"github.com/WessleyAI/occumatch/engine/embed"
	"github.com/WessleyAI/occumatch/engine/explain"
	"github.com/WessleyAI/occumatch/engine/rank"
	"github.com/WessleyAI/occumatch/engine/semantic"
	"github.com/WessleyAI/occumatch/pkg/fn"
	"github.com/WessleyAI/occumatch/pkg/metrics"
	"github.com/WessleyAI/occumatch/pkg/resilience"
)

// Outcome is the terminal state of a successful search.
type Outcome string

const (
	OutcomeDone      Outcome = "done"
	OutcomeNoMatches Outcome = "no_matches"
)

// Options configures the matching pipeline.
type Options struct {
	TopK             int
	BatchTopK        int
	MaxTextLength    int
	MaxBatchSize     int
	BatchConcurrency int
	SearchTimeout    time.Duration
	ExplainTimeout   time.Duration
	SearchRetry      fn.RetryOpts
	SearchBreaker    resilience.BreakerOpts
	ExplainBreaker   resilience.BreakerOpts
	// CacheTTL enables the result cache when positive.
	CacheTTL        time.Duration
	CacheMaxEntries int64
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		TopK:             3,
		BatchTopK:        5,
		MaxTextLength:    5000,
		MaxBatchSize:     10,
		BatchConcurrency: 10,
		SearchTimeout:    5 * time.Second,
		ExplainTimeout:   30 * time.Second,
		SearchRetry: fn.RetryOpts{
			MaxAttempts: 2,
			InitialWait: 200 * time.Millisecond,
			MaxWait:     2 * time.Second,
			Jitter:      true,
		},
		SearchBreaker: resilience.BreakerOpts{
			Name:          "search",
			FailThreshold: 5,
			Timeout:       30 * time.Second,
		},
		ExplainBreaker: resilience.BreakerOpts{
			Name:          "explain",
			FailThreshold: 3,
			Timeout:       time.Minute,
		},
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 1000,
	}
}

// Result is a completed search. Matches are ordered by descending raw
// score and TopMatch is Matches[0], nil when nothing matched.
type Result struct {
	RequestID           string           `json:"requestId"`
	Input               string           `json:"input"`
	Outcome             Outcome          `json:"outcome"`
	TopMatch            *rank.Candidate  `json:"topMatch"`
	Matches             []rank.Candidate `json:"allMatches"`
	Explanation         string           `json:"explanation,omitempty"`
	ExplanationDegraded bool             `json:"explanationDegraded"`
	Cached              bool             `json:"cached,omitempty"`
	Timestamp           time.Time        `json:"timestamp"`
	Duration            time.Duration    `json:"-"`
}

// Service runs searches. It is safe for concurrent use.
type Service struct {
	embedder       *embed.Embedder
	search         semantic.Searcher
	explainer      explain.Explainer
	searchBreaker  *resilience.Breaker
	explainBreaker *resilience.Breaker
	cache          *resultCache
	pipeline       fn.Stage[*query, *query]
	opts           Options
	logger         *slog.Logger
	metrics        *metrics.Metrics
	now            func() time.Time
	newID          func() string
}

// query is the state carried through the pipeline stages.
type query struct {
	text       string
	topK       int
	vec        embed.Vector
	matches    []semantic.Match
	candidates []rank.Candidate
}

// New creates a Service. A nil explainer always yields the fallback
// explanation; a nil logger uses slog.Default; m may be nil.
func New(embedder *embed.Embedder, search semantic.Searcher, explainer explain.Explainer, opts Options, logger *slog.Logger, m *metrics.Metrics) (*Service, error) {
	if embedder == nil {
		return nil, errors.New("match: embedder is required")
	}
	if search == nil {
		return nil, errors.New("match: searcher is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = withDefaults(opts)

	s := &Service{
		embedder:  embedder,
		search:    search,
		explainer: explainer,
		opts:      opts,
		logger:    logger,
		metrics:   m,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	s.searchBreaker = resilience.NewBreaker(s.observeBreaker(opts.SearchBreaker))
	s.explainBreaker = resilience.NewBreaker(s.observeBreaker(opts.ExplainBreaker))

	if opts.CacheTTL > 0 {
		c, err := newResultCache(opts.CacheMaxEntries, opts.CacheTTL)
		if err != nil {
			return nil, fmt.Errorf("match: create cache: %w", err)
		}
		s.cache = c
	}

	s.pipeline = fn.Pipeline(
		fn.TracedStage("match.validate", s.validateStage),
		fn.TracedStage("match.embed", s.embedStage),
		fn.TracedStage("match.search", s.searchStage),
		fn.TracedStage("match.rank", s.rankStage),
	)
	return s, nil
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.TopK <= 0 {
		opts.TopK = def.TopK
	}
	if opts.BatchTopK <= 0 {
		opts.BatchTopK = def.BatchTopK
	}
	if opts.MaxTextLength <= 0 {
		opts.MaxTextLength = def.MaxTextLength
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = def.MaxBatchSize
	}
	if opts.BatchConcurrency <= 0 || opts.BatchConcurrency > opts.MaxBatchSize {
		opts.BatchConcurrency = opts.MaxBatchSize
	}
	if opts.SearchTimeout <= 0 {
		opts.SearchTimeout = def.SearchTimeout
	}
	if opts.ExplainTimeout <= 0 {
		opts.ExplainTimeout = def.ExplainTimeout
	}
	if opts.SearchRetry.MaxAttempts <= 0 {
		opts.SearchRetry = def.SearchRetry
	}
	if opts.SearchBreaker.Name == "" {
		opts.SearchBreaker.Name = def.SearchBreaker.Name
	}
	if opts.ExplainBreaker.Name == "" {
		opts.ExplainBreaker.Name = def.ExplainBreaker.Name
	}
	return opts
}

func (s *Service) observeBreaker(opts resilience.BreakerOpts) resilience.BreakerOpts {
	next := opts.OnStateChange
	opts.OnStateChange = func(name string, from, to resilience.State) {
		s.logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		s.metrics.Breaker(name, int(to))
		if next != nil {
			next(name, from, to)
		}
	}
	return opts
}

// Options returns the effective options after defaults were applied.
func (s *Service) Options() Options { return s.opts }

// ExplainerName is the configured provider, or "none".
func (s *Service) ExplainerName() string {
	if s.explainer == nil {
		return "none"
	}
	return s.explainer.Name()
}

// Close releases the result cache.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.close()
	}
}

// Search matches text against the catalog and returns the top candidates.
// Invalid input returns a *ValidationError; an unreachable index returns an
// error wrapping ErrUpstreamUnavailable. A search that matched nothing is
// a successful Result with Outcome OutcomeNoMatches.
func (s *Service) Search(ctx context.Context, text string) (*Result, error) {
	return s.run(ctx, "search", text, s.opts.TopK)
}

func (s *Service) run(ctx context.Context, operation, text string, topK int) (*Result, error) {
	start := s.now()
	s.logger.Info("match search start", "operation", operation, "text_len", len(text), "top_k", topK)

	key := cacheKey(strings.TrimSpace(text), topK)
	if s.cache != nil {
		if hit, ok := s.cache.get(key); ok {
			s.metrics.CacheLookup(true)
			s.metrics.Request(operation, string(hit.Outcome))
			res := hit
			res.RequestID = s.newID()
			res.Input = text
			res.Cached = true
			res.Timestamp = s.now().UTC()
			res.Duration = s.now().Sub(start)
			return res, nil
		}
		s.metrics.CacheLookup(false)
	}

	q, err := s.pipeline(ctx, &query{text: text, topK: topK}).Unwrap()
	if err != nil {
		kind := Kind(err)
		switch kind {
		case KindInvalidInput:
		case KindCanceled, KindTimeout:
			s.logger.Warn("match search abandoned", "operation", operation, "err", err)
		default:
			s.logger.Error("match search failed", "operation", operation, "err", err)
		}
		s.metrics.Request(operation, kind)
		return nil, err
	}

	res := &Result{
		RequestID: s.newID(),
		Input:     text,
		Outcome:   OutcomeNoMatches,
		Matches:   q.candidates,
	}
	if len(q.candidates) > 0 {
		res.Outcome = OutcomeDone
		res.TopMatch = &q.candidates[0]
		res.Explanation, res.ExplanationDegraded = s.explain(ctx, text, q.candidates[0])
	}
	res.Timestamp = s.now().UTC()
	res.Duration = s.now().Sub(start)

	if s.cache != nil && !res.ExplanationDegraded {
		s.cache.set(key, res)
	}

	s.metrics.Request(operation, string(res.Outcome))
	s.logger.Info("match search done",
		"operation", operation,
		"request_id", res.RequestID,
		"outcome", res.Outcome,
		"matches", len(res.Matches),
		"degraded", res.ExplanationDegraded,
		"duration", res.Duration,
	)
	return res, nil
}

func (s *Service) validateStage(_ context.Context, q *query) fn.Result[*query] {
	if err := ValidateText(q.text, s.opts.MaxTextLength); err != nil {
		return fn.Err[*query](err)
	}
	return fn.Ok(q)
}

func (s *Service) embedStage(_ context.Context, q *query) fn.Result[*query] {
	defer s.metrics.ObserveStage("embed", time.Now())
	q.vec = s.embedder.Embed(q.text)
	return fn.Ok(q)
}

func (s *Service) searchStage(ctx context.Context, q *query) fn.Result[*query] {
	defer s.metrics.ObserveStage("search", time.Now())

	retry := s.opts.SearchRetry
	// Attempt timeouts are retried; the caller's own deadline is not.
	retry.Retryable = func(error) bool { return ctx.Err() == nil }
	retry.OnRetry = func(attempt int, err error) {
		s.logger.Warn("match search retry", "attempt", attempt, "err", err)
	}

	r := resilience.CallResult(s.searchBreaker, ctx, func(ctx context.Context) fn.Result[[]semantic.Match] {
		return fn.Retry(ctx, retry, func(ctx context.Context) fn.Result[[]semantic.Match] {
			ctx, cancel := context.WithTimeout(ctx, s.opts.SearchTimeout)
			defer cancel()
			return fn.FromPair(s.search.Search(ctx, q.vec, q.topK))
		})
	})
	matches, err := r.Unwrap()
	if err != nil {
		if ctx.Err() != nil {
			return fn.Err[*query](fmt.Errorf("match: search: %w", ctx.Err()))
		}
		return fn.Err[*query](fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err))
	}
	q.matches = matches
	return fn.Ok(q)
}

func (s *Service) rankStage(_ context.Context, q *query) fn.Result[*query] {
	defer s.metrics.ObserveStage("rank", time.Now())
	q.candidates = rank.Rank(q.matches, q.topK)
	return fn.Ok(q)
}

// explain returns the provider explanation for top, or the fallback text
// and true when it is unavailable.
func (s *Service) explain(ctx context.Context, text string, top rank.Candidate) (string, bool) {
	provider := s.ExplainerName()
	if s.explainer == nil {
		s.metrics.ExplainFallback(provider)
		return explain.FallbackExplanation, true
	}
	defer s.metrics.ObserveStage("explain", time.Now())

	ctx, cancel := context.WithTimeout(ctx, s.opts.ExplainTimeout)
	defer cancel()

	req := explainRequest(text, top)
	stage := fn.TracedStage("match.explain", func(ctx context.Context, req explain.Request) fn.Result[string] {
		return resilience.CallResult(s.explainBreaker, ctx, func(ctx context.Context) fn.Result[string] {
			return fn.FromPair(s.explainer.Explain(ctx, req))
		})
	})
	out, err := stage(ctx, req).Unwrap()
	if err != nil {
		s.logger.Warn("match explanation degraded", "provider", provider, "err", err)
		s.metrics.ExplainFallback(provider)
		return explain.FallbackExplanation, true
	}
	return out, false
}

// explainRequest builds the prompt input from the top candidate's stored
// occupation profile.
func explainRequest(text string, top rank.Candidate) explain.Request {
	var profile catalog.Record
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &profile,
	})
	if err == nil {
		// Partial profiles are fine; the prompt has placeholders.
		_ = dec.Decode(top.Metadata)
	}
	return explain.Request{
		Input:       text,
		Title:       top.Title,
		Code:        profile.Code,
		Score:       top.RawScore,
		Description: profile.Description,
	}
}
