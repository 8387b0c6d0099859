package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/WessleyAI/occumatch/engine/app"
	"github.com/WessleyAI/occumatch/engine/match"
	"github.com/WessleyAI/occumatch/pkg/config"
	"github.com/WessleyAI/occumatch/pkg/natsutil"
	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	appName = "occumatch"

	subjectSearch = "occumatch.search"
	subjectBatch  = "occumatch.search.batch"
)

var errSearchFailed = errors.New("search failed")

// cli carries the state shared by every subcommand.
type cli struct {
	v       *viper.Viper
	cfgFile string
	remote  string
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:          appName,
		Short:        "occumatch matches free-text job descriptions to occupation codes",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", "a config file (yaml, json or toml)")
	flags.StringVar(&c.remote, "remote", "", "NATS url of a running api; searches run there instead of in-process")
	flags.DurationVar(&c.timeout, "timeout", time.Minute, "overall deadline of a command")
	flags.String("backend", "", "vector backend: qdrant or memory")
	flags.String("catalog", "", "catalog file for the memory backend")
	flags.String("provider", "", "explanation provider: groq, gemini or none")
	flags.Int("top-k", 0, "number of matches to return")
	flags.String("log-level", "", "debug, info, warn or error")

	for key, flag := range map[string]string{
		"vector_backend": "backend",
		"catalog_file":   "catalog",
		"llm_provider":   "provider",
		"top_k":          "top-k",
		"log_level":      "log-level",
	} {
		if err := c.v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind %s: %v", flag, err))
		}
	}

	root.AddCommand(c.searchCmd(), c.batchCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), appName, "1.0.0")
		},
	}
}

func (c *cli) searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search TEXT...",
		Short: "match one job description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			text := strings.Join(args, " ")
			var env match.Envelope
			if c.remote != "" {
				var err error
				env, err = remote[match.Envelope](ctx, c.remote, subjectSearch, map[string]string{"text": text})
				if err != nil {
					return err
				}
			} else {
				a, err := c.build(ctx, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer a.Close()
				res, err := a.Service.Search(ctx, text)
				env = match.NewEnvelope(res, err, time.Now())
			}

			if err := printJSON(cmd.OutOrStdout(), env); err != nil {
				return err
			}
			if !env.Success {
				return fmt.Errorf("%w: %s", errSearchFailed, env.Error)
			}
			return nil
		},
	}
}

func (c *cli) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch [FILE]",
		Short: "match every non-blank line of FILE (or stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), c.timeout)
			defer cancel()

			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}
			texts, err := readLines(in)
			if err != nil {
				return err
			}

			var env match.BatchEnvelope
			if c.remote != "" {
				env, err = remote[match.BatchEnvelope](ctx, c.remote, subjectBatch, map[string][]string{"texts": texts})
				if err != nil {
					return err
				}
			} else {
				a, err := c.build(ctx, cmd.ErrOrStderr())
				if err != nil {
					return err
				}
				defer a.Close()
				res, err := a.Service.SearchBatch(ctx, texts)
				env = match.NewBatchEnvelope(res, err, time.Now())
			}

			if err := printJSON(cmd.OutOrStdout(), env); err != nil {
				return err
			}
			if !env.Success {
				return fmt.Errorf("%w: %s", errSearchFailed, env.Error)
			}
			return nil
		},
	}
}

// build loads the configuration and assembles an in-process service that
// logs to stderr.
func (c *cli) build(ctx context.Context, stderr io.Writer) (*app.App, error) {
	cfg, err := config.Load(c.v, c.cfgFile)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	return app.Build(ctx, cfg, logger, nil)
}

func remote[Resp any](ctx context.Context, url, subject string, req any) (Resp, error) {
	var zero Resp
	nc, err := nats.Connect(url, nats.Name(appName+"-cli"))
	if err != nil {
		return zero, fmt.Errorf("nats connect: %w", err)
	}
	defer nc.Close()
	return natsutil.Request[any, Resp](ctx, nc, subject, req)
}

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
