// Package natsutil provides typed NATS request/reply helpers with
// OpenTelemetry trace propagation.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// natsHeaderCarrier adapts nats.Msg headers for OTel TextMapCarrier.
type natsHeaderCarrier nats.Msg

func (c *natsHeaderCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *natsHeaderCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *natsHeaderCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Request sends a JSON-encoded request and decodes the response. The wait
// is bounded by ctx, or by nats.DefaultTimeout when ctx has no deadline.
func Request[Req, Resp any](ctx context.Context, nc *nats.Conn, subject string, req Req) (Resp, error) {
	var zero Resp
	data, err := json.Marshal(req)
	if err != nil {
		return zero, fmt.Errorf("natsutil: encode request: %w", err)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, nats.DefaultTimeout)
		defer cancel()
	}
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
	}
	otel.GetTextMapPropagator().Inject(ctx, (*natsHeaderCarrier)(msg))
	resp, err := nc.RequestMsgWithContext(ctx, msg)
	if err != nil {
		return zero, fmt.Errorf("natsutil: request %s: %w", subject, err)
	}
	var result Resp
	if err := json.Unmarshal(resp.Data, &result); err != nil {
		return zero, fmt.Errorf("natsutil: decode response: %w", err)
	}
	return result, nil
}

// DefaultWorkers bounds concurrent handlers when RespondOpts.Workers is unset.
const DefaultWorkers = 8

// RespondOpts tunes Respond. The zero value subscribes without a queue
// group, runs DefaultWorkers handlers at once and logs to slog.Default.
type RespondOpts struct {
	Queue   string
	Workers int
	Logger  *slog.Logger
}

// Responder is a running Respond subscription.
type Responder struct {
	sub     *nats.Subscription
	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// Stop unsubscribes and waits for in-flight handlers to reply.
func (r *Responder) Stop() error {
	err := r.sub.Unsubscribe()
	r.mu.Lock()
	r.stopped = true
	r.mu.Unlock()
	r.wg.Wait()
	return err
}

// start registers one in-flight handler; false once stopped.
func (r *Responder) start() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.wg.Add(1)
	return true
}

// Respond serves request/reply on subject. Requests are decoded as Req and
// handled with the trace context from the message headers; the returned
// Resp is sent back as JSON. Undecodable requests are answered with
// onBadRequest. Up to opts.Workers handlers run at once; further messages
// wait in the subscription's pending queue. A non-empty opts.Queue
// load-balances across responders.
func Respond[Req, Resp any](nc *nats.Conn, subject string, opts RespondOpts, handler func(context.Context, Req) Resp, onBadRequest func(error) Resp) (*Responder, error) {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Responder{}
	sem := make(chan struct{}, opts.Workers)

	serve := func(msg *nats.Msg) {
		ctx := otel.GetTextMapPropagator().Extract(context.Background(), (*natsHeaderCarrier)(msg))

		var resp Resp
		var req Req
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			resp = onBadRequest(err)
		} else {
			resp = handler(ctx, req)
		}

		data, err := json.Marshal(resp)
		if err != nil {
			logger.Error("nats encode reply", "subject", subject, "err", err)
			return
		}
		if err := msg.Respond(data); err != nil {
			logger.Error("nats reply", "subject", subject, "err", err)
		}
	}

	cb := func(msg *nats.Msg) {
		if msg.Reply == "" {
			return
		}
		if !r.start() {
			return
		}
		sem <- struct{}{}
		go func() {
			defer func() {
				<-sem
				r.wg.Done()
			}()
			serve(msg)
		}()
	}

	var err error
	if opts.Queue != "" {
		r.sub, err = nc.QueueSubscribe(subject, opts.Queue, cb)
	} else {
		r.sub, err = nc.Subscribe(subject, cb)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}
