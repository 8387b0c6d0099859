// Package app wires configuration into a ready match.Service: it opens
// the vector backend, picks the LLM provider and owns their shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/WessleyAI/occumatch/engine/catalog"
	"github.com/WessleyAI/occumatch/engine/embed"
	"github.com/WessleyAI/occumatch/engine/explain"
	"github.com/WessleyAI/occumatch/engine/match"
	"github.com/WessleyAI/occumatch/engine/semantic"
	"github.com/WessleyAI/occumatch/pkg/config"
	"github.com/WessleyAI/occumatch/pkg/metrics"
	"github.com/WessleyAI/occumatch/pkg/resilience"
)

// App holds the long-lived collaborators of a process.
type App struct {
	Service *match.Service
	Backend string

	store   *semantic.VectorStore
	dims    int
	closers []func() error
	logger  *slog.Logger
}

// Build creates the service described by cfg. m may be nil.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Backend: cfg.VectorBackend, dims: cfg.EmbedDimensions, logger: logger}
	embedder := embed.New(cfg.EmbedDimensions)

	searcher, err := a.openSearcher(ctx, cfg, embedder)
	if err != nil {
		a.Close()
		return nil, err
	}

	explainer, err := NewExplainer(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	svc, err := match.New(embedder, searcher, explainer, Options(cfg), logger, m)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Service = svc
	a.closers = append(a.closers, func() error { svc.Close(); return nil })

	logger.Info("app ready",
		"backend", a.Backend,
		"dims", cfg.EmbedDimensions,
		"explainer", svc.ExplainerName(),
	)
	return a, nil
}

func (a *App) openSearcher(ctx context.Context, cfg config.Config, embedder *embed.Embedder) (semantic.Searcher, error) {
	switch cfg.VectorBackend {
	case config.BackendMemory:
		records := catalog.Sample()
		if cfg.CatalogFile != "" {
			loaded, err := catalog.LoadFile(cfg.CatalogFile)
			if err != nil {
				return nil, fmt.Errorf("app: %w", err)
			}
			records = loaded
		}
		idx := semantic.NewMemoryIndex(embedder, records)
		a.logger.Info("memory index built", "records", idx.Len())
		return idx, nil

	case config.BackendQdrant:
		store, err := semantic.New(cfg.QdrantURL, cfg.QdrantCollection, semantic.Options{
			APIKey: cfg.QdrantAPIKey,
			TLS:    cfg.QdrantTLS,
		})
		if err != nil {
			return nil, fmt.Errorf("app: qdrant connect: %w", err)
		}
		a.store = store
		a.closers = append(a.closers, store.Close)

		// A wrong collection is fatal; an unreachable one is reported by
		// requests and health checks until it comes back.
		if err := store.VerifyCollection(ctx, cfg.EmbedDimensions); err != nil {
			if errors.Is(err, semantic.ErrDimensionMismatch) {
				return nil, fmt.Errorf("app: %w", err)
			}
			a.logger.Warn("qdrant collection not verified", "collection", cfg.QdrantCollection, "err", err)
		}
		return store, nil

	default:
		return nil, fmt.Errorf("app: unknown vector backend %q", cfg.VectorBackend)
	}
}

// NewExplainer returns the configured provider throttled to cfg.LLMRPS, or
// nil when explanations are disabled or no API key is set.
func NewExplainer(ctx context.Context, cfg config.Config, logger *slog.Logger) (explain.Explainer, error) {
	var (
		e   explain.Explainer
		err error
	)
	switch cfg.LLMProvider {
	case config.ProviderNone, "":
		return nil, nil
	case config.ProviderGroq:
		e, err = explain.NewGroq(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqBaseURL)
	case config.ProviderGemini:
		e, err = explain.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil, fmt.Errorf("app: unknown llm provider %q", cfg.LLMProvider)
	}
	if errors.Is(err, explain.ErrMissingCredentials) {
		logger.Warn("llm api key not set, explanations will use the fallback", "provider", cfg.LLMProvider)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	return explain.Throttle(e, resilience.PerSecond(cfg.LLMRPS, 1)), nil
}

// Options translates cfg into match options.
func Options(cfg config.Config) match.Options {
	opts := match.DefaultOptions()
	opts.TopK = cfg.TopK
	opts.BatchTopK = cfg.BatchTopK
	opts.BatchConcurrency = cfg.BatchConcurrency
	opts.SearchTimeout = cfg.SearchTimeout
	opts.ExplainTimeout = cfg.ExplainTimeout
	opts.CacheTTL = cfg.CacheTTL
	return opts
}

// Ready reports whether the vector backend can serve queries.
func (a *App) Ready(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.VerifyCollection(ctx, a.dims)
}

// Close releases everything Build opened, newest first.
func (a *App) Close() error {
	errs := make([]error, len(a.closers))
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs[i] = a.closers[i]()
	}
	a.closers = nil
	return errors.Join(errs...)
}
