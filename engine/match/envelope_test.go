package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/WessleyAI/occumatch/engine/rank"
	"github.com/WessleyAI/occumatch/engine/semantic"
)

var stamp = time.Date(2024, 5, 6, 7, 8, 9, 123e6, time.UTC)

func doneResult() *Result {
	cands := rank.Rank(sampleMatches(), 3)
	return &Result{
		RequestID:   "req-1",
		Input:       "I fix wiring",
		Outcome:     OutcomeDone,
		TopMatch:    &cands[0],
		Matches:     cands,
		Explanation: "because",
		Timestamp:   stamp,
		Duration:    42 * time.Millisecond,
	}
}

func TestNewEnvelopeSuccess(t *testing.T) {
	env := NewEnvelope(doneResult(), nil, time.Now())
	if !env.Success || env.TopMatch == nil || env.TopMatch.Title != "Electrician" {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if env.TopMatch.Quality != "Excellent" || env.TopMatch.Score != 0.876 {
		t.Fatalf("unexpected top match %+v", env.TopMatch)
	}
	if len(env.AllMatches) != 3 || env.AllMatches[0].ID != env.TopMatch.ID {
		t.Fatal("topMatch must be the first of allMatches")
	}
	if env.ProcessingTime != 42 || env.Timestamp != "2024-05-06T07:08:09.123Z" {
		t.Fatalf("processingTime=%d timestamp=%s", env.ProcessingTime, env.Timestamp)
	}
}

func TestNewEnvelopeNoMatches(t *testing.T) {
	res := &Result{RequestID: "r", Input: "x", Outcome: OutcomeNoMatches, Timestamp: stamp}
	env := NewEnvelope(res, nil, stamp)
	if !env.Success || env.Message != "No matching occupation found" || env.TopMatch != nil {
		t.Fatalf("unexpected envelope %+v", env)
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"allMatches":[]`) || !strings.Contains(string(data), `"outcome":"no_matches"`) {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestNewEnvelopeErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
		msg    string
	}{
		{"validation", NewValidationError("text", "", ErrEmptyText), http.StatusBadRequest, KindInvalidInput, "text is required"},
		{"upstream", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, semantic.ErrSearchUnavailable), http.StatusServiceUnavailable, KindUpstreamUnavailable, "service temporarily unavailable, try again"},
		{"upstream attempt timeout", fmt.Errorf("%w: %w", ErrUpstreamUnavailable, context.DeadlineExceeded), http.StatusServiceUnavailable, KindUpstreamUnavailable, "service temporarily unavailable, try again"},
		{"canceled", fmt.Errorf("match: search: %w", context.Canceled), StatusClientClosedRequest, KindCanceled, "request canceled"},
		{"deadline", fmt.Errorf("match: search: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, KindTimeout, "request timed out"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, KindInternal, "An unexpected error occurred"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := NewEnvelope(nil, tc.err, stamp)
			if env.Success || env.ErrorKind != tc.kind || !strings.Contains(env.Error, tc.msg) {
				t.Fatalf("unexpected envelope %+v", env)
			}
			if Status(tc.err) != tc.status {
				t.Fatalf("status = %d, want %d", Status(tc.err), tc.status)
			}
			if env.Timestamp == "" {
				t.Fatal("failures carry a timestamp")
			}
		})
	}
	if Status(nil) != http.StatusOK || Kind(nil) != "" || Message(nil) != "" {
		t.Fatal("nil error should map to success")
	}
}

func TestNewBatchEnvelope(t *testing.T) {
	res := &BatchResult{
		Items: []BatchItem{
			{Index: 0, Input: "I fix wiring", Result: doneResult()},
			{Index: 1, Input: "", Err: NewValidationError("text", "", ErrEmptyText)},
		},
		SuccessCount:   1,
		TotalProcessed: 2,
	}
	env := NewBatchEnvelope(res, nil, stamp)
	if !env.Success || env.TotalProcessed != 2 || env.SuccessCount != 1 || len(env.Results) != 2 {
		t.Fatalf("unexpected envelope %+v", env)
	}
	if !env.Results[0].Success || env.Results[1].Success || env.Results[1].Index != 1 {
		t.Fatalf("unexpected results %+v", env.Results)
	}

	data, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Results []struct {
			Index   int    `json:"index"`
			Input   string `json:"input"`
			Success bool   `json:"success"`
			Error   string `json:"error"`
		} `json:"results"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Results[0].Input != "I fix wiring" || decoded.Results[1].Error == "" {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestNewBatchEnvelopeError(t *testing.T) {
	env := NewBatchEnvelope(nil, NewValidationError("texts", "", ErrBatchSize), stamp)
	if env.Success || env.ErrorKind != KindInvalidInput {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
