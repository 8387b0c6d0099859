package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/WessleyAI/occumatch/engine/match"
	"github.com/WessleyAI/occumatch/pkg/natsutil"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func startTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	srv, err := natsserver.NewServer(&natsserver.Options{Port: -1})
	if err != nil {
		t.Fatal(err)
	}
	srv.Start()
	if !srv.ReadyForConnections(3 * time.Second) {
		t.Fatal("nats not ready")
	}
	nc, err := nats.Connect(srv.ClientURL())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		nc.Close()
		srv.Shutdown()
	})
	return nc
}

func TestServeNATS(t *testing.T) {
	nc := startTestNATS(t)
	s := newTestServer(t, nil, nil)
	stop, err := s.serveNATS(nc)
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	env, err := natsutil.Request[SearchRequest, match.Envelope](ctx, nc, subjectSearch, SearchRequest{Text: "I bake bread"})
	if err != nil {
		t.Fatal(err)
	}
	if !env.Success || env.TopMatch == nil {
		t.Fatalf("unexpected envelope %+v", env)
	}

	env, err = natsutil.Request[SearchRequest, match.Envelope](ctx, nc, subjectSearch, SearchRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if env.Success || env.ErrorKind != match.KindInvalidInput {
		t.Fatalf("expected invalid input, got %+v", env)
	}

	batch, err := natsutil.Request[BatchRequest, match.BatchEnvelope](ctx, nc, subjectBatch, BatchRequest{Texts: []string{"nurse", "welder"}})
	if err != nil {
		t.Fatal(err)
	}
	if !batch.Success || batch.SuccessCount != 2 {
		t.Fatalf("unexpected batch %+v", batch)
	}
}

func TestServeNATS_BadRequest(t *testing.T) {
	nc := startTestNATS(t)
	s := newTestServer(t, nil, nil)
	stop, err := s.serveNATS(nc)
	if err != nil {
		t.Fatal(err)
	}
	defer stop()

	msg, err := nc.Request(subjectSearch, []byte("{"), 2*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(msg.Data); got == "" || !strings.Contains(got, match.KindInvalidInput) {
		t.Fatalf("unexpected reply %s", got)
	}
}
