// Package main implements the occupation matching API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WessleyAI/occumatch/engine/app"
	"github.com/WessleyAI/occumatch/pkg/config"
	"github.com/WessleyAI/occumatch/pkg/metrics"
	"github.com/WessleyAI/occumatch/pkg/mid"
	"github.com/nats-io/nats.go"
)

const (
	serviceName = "occumatch-api"
	version     = "1.0.0"

	// maxBodyBytes bounds request bodies; a full batch of maximum-length
	// texts fits comfortably.
	maxBodyBytes = 1 << 20
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// --- Build matching service ---
	a, err := app.Build(ctx, cfg, logger, m)
	if err != nil {
		return fmt.Errorf("build app: %w", err)
	}
	defer a.Close()

	s := newServer(a.Service, a.Ready, a.Backend, logger, m)

	// --- Optional NATS responder ---
	if cfg.NATSURL != "" {
		nc, err := nats.Connect(cfg.NATSURL, nats.Name(serviceName))
		if err != nil {
			return fmt.Errorf("nats connect: %w", err)
		}
		defer nc.Drain()

		stopNATS, err := s.serveNATS(nc)
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer stopNATS()
		logger.Info("nats responder started", "url", cfg.NATSURL, "subjects", []string{subjectSearch, subjectBatch})
	}

	// --- Build HTTP server ---
	handler := mid.Chain(s.routes(),
		mid.Recover(logger),
		mid.RequestID(),
		mid.Logger(logger),
		mid.CORS(cfg.CORSOrigin),
		mid.MaxBody(maxBodyBytes),
		mid.OTel(serviceName),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port, "version", version, "backend", a.Backend)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
