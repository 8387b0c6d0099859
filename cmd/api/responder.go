package main

import (
	"context"
	"time"

	"github.com/WessleyAI/occumatch/engine/match"
	"github.com/WessleyAI/occumatch/pkg/natsutil"
	"github.com/nats-io/nats.go"
)

// NATS request/reply subjects. Requests and replies use the HTTP bodies.
const (
	subjectSearch = "occumatch.search"
	subjectBatch  = "occumatch.search.batch"
	natsQueue     = "occumatch-api"

	natsRequestTimeout = 60 * time.Second
	natsWorkers        = 16
)

// serveNATS answers search requests on NATS until the returned stop
// function is called.
func (s *server) serveNATS(nc *nats.Conn) (stop func(), err error) {
	opts := natsutil.RespondOpts{Queue: natsQueue, Workers: natsWorkers, Logger: s.logger}

	search, err := natsutil.Respond(nc, subjectSearch, opts,
		func(ctx context.Context, req SearchRequest) match.Envelope {
			ctx, cancel := context.WithTimeout(ctx, natsRequestTimeout)
			defer cancel()
			env, _ := s.search(ctx, req.Text)
			return env
		},
		func(error) match.Envelope { return s.badBody() },
	)
	if err != nil {
		return nil, err
	}

	batch, err := natsutil.Respond(nc, subjectBatch, opts,
		func(ctx context.Context, req BatchRequest) match.BatchEnvelope {
			ctx, cancel := context.WithTimeout(ctx, natsRequestTimeout)
			defer cancel()
			env, _ := s.searchBatch(ctx, req.Texts)
			return env
		},
		func(error) match.BatchEnvelope { return s.badBatchBody() },
	)
	if err != nil {
		search.Stop()
		return nil, err
	}

	stop = func() {
		search.Stop()
		batch.Stop()
	}
	return stop, nil
}
