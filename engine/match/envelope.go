package match

import (
	"context"
	"errors"
	"net/http"
	"time"
)

const noMatchesMessage = "No matching occupation found"

// Error kinds reported to callers.
const (
	KindInvalidInput        = "invalid_input"
	KindUpstreamUnavailable = "upstream_unavailable"
	KindCanceled            = "canceled"
	KindTimeout             = "timeout"
	KindInternal            = "internal"
)

// StatusClientClosedRequest is reported when the caller went away before
// the search finished. net/http has no name for it.
const StatusClientClosedRequest = 499

const (
	canceledMessage = "request canceled"
	timeoutMessage  = "request timed out"
	internalMessage = "An unexpected error occurred"
)

// Envelope is the wire shape of a single search.
type Envelope struct {
	Success             bool        `json:"success"`
	RequestID           string      `json:"requestId,omitempty"`
	Input               string      `json:"input,omitempty"`
	Outcome             Outcome     `json:"outcome,omitempty"`
	Message             string      `json:"message,omitempty"`
	TopMatch            *MatchView  `json:"topMatch,omitempty"`
	AllMatches          []MatchView `json:"allMatches"`
	Explanation         string      `json:"explanation,omitempty"`
	ExplanationDegraded bool        `json:"explanationDegraded,omitempty"`
	Cached              bool        `json:"cached,omitempty"`
	Error               string      `json:"error,omitempty"`
	ErrorKind           string      `json:"errorKind,omitempty"`
	ProcessingTime      int64       `json:"processingTime"`
	Timestamp           string      `json:"timestamp"`
}

// MatchView is a ranked candidate as rendered to callers.
type MatchView struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Score      float64        `json:"score"`
	Confidence float64        `json:"confidence"`
	Quality    string         `json:"quality"`
	Metadata   map[string]any `json:"metadata"`
}

// BatchEnvelope is the wire shape of a batch search.
type BatchEnvelope struct {
	Success        bool                `json:"success"`
	TotalProcessed int                 `json:"totalProcessed"`
	SuccessCount   int                 `json:"successCount"`
	Results        []BatchItemEnvelope `json:"results"`
	Error          string              `json:"error,omitempty"`
	ErrorKind      string              `json:"errorKind,omitempty"`
	Timestamp      string              `json:"timestamp"`
}

// BatchItemEnvelope is one entry of BatchEnvelope.Results.
type BatchItemEnvelope struct {
	Index int    `json:"index"`
	Input string `json:"input"`
	Envelope
}

// Status maps a search error to an HTTP status code. Upstream failures are
// checked before context errors because a failed attempt may carry its own
// attempt deadline.
func Status(err error) int {
	switch Kind(err) {
	case "":
		return http.StatusOK
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case KindCanceled:
		return StatusClientClosedRequest
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// Kind classifies err for the errorKind field.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsValidation(err):
		return KindInvalidInput
	case errors.Is(err, ErrUpstreamUnavailable):
		return KindUpstreamUnavailable
	case errors.Is(err, context.Canceled):
		return KindCanceled
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	default:
		return KindInternal
	}
}

// Message is the caller-facing text for err. Upstream details stay in logs.
func Message(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	switch Kind(err) {
	case "":
		return ""
	case KindUpstreamUnavailable:
		return ErrUpstreamUnavailable.Error()
	case KindCanceled:
		return canceledMessage
	case KindTimeout:
		return timeoutMessage
	default:
		return internalMessage
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// NewEnvelope renders a Search outcome. now stamps failures, which carry
// no Result.
func NewEnvelope(res *Result, err error, now time.Time) Envelope {
	if err != nil {
		return Envelope{
			Success:    false,
			Error:      Message(err),
			ErrorKind:  Kind(err),
			AllMatches: []MatchView{},
			Timestamp:  formatTime(now),
		}
	}

	env := Envelope{
		Success:             true,
		RequestID:           res.RequestID,
		Input:               res.Input,
		Outcome:             res.Outcome,
		AllMatches:          make([]MatchView, len(res.Matches)),
		Explanation:         res.Explanation,
		ExplanationDegraded: res.ExplanationDegraded,
		Cached:              res.Cached,
		ProcessingTime:      res.Duration.Milliseconds(),
		Timestamp:           formatTime(res.Timestamp),
	}
	for i, c := range res.Matches {
		env.AllMatches[i] = MatchView{
			ID:         c.ID,
			Title:      c.Title,
			Score:      c.RawScore,
			Confidence: c.Confidence,
			Quality:    string(c.Quality),
			Metadata:   c.Metadata,
		}
	}
	if len(env.AllMatches) > 0 {
		top := env.AllMatches[0]
		env.TopMatch = &top
	} else {
		env.Message = noMatchesMessage
	}
	return env
}

// NewBatchEnvelope renders a SearchBatch outcome.
func NewBatchEnvelope(res *BatchResult, err error, now time.Time) BatchEnvelope {
	if err != nil {
		return BatchEnvelope{
			Success:   false,
			Results:   []BatchItemEnvelope{},
			Error:     Message(err),
			ErrorKind: Kind(err),
			Timestamp: formatTime(now),
		}
	}
	env := BatchEnvelope{
		Success:        true,
		TotalProcessed: res.TotalProcessed,
		SuccessCount:   res.SuccessCount,
		Results:        make([]BatchItemEnvelope, len(res.Items)),
		Timestamp:      formatTime(now),
	}
	for i, it := range res.Items {
		env.Results[i] = BatchItemEnvelope{
			Index:    it.Index,
			Input:    it.Input,
			Envelope: NewEnvelope(it.Result, it.Err, now),
		}
	}
	return env
}
