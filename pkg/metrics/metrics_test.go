package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRequestCounter(t *testing.T) {
	m := New()
	m.Request("search", "done")
	m.Request("search", "done")
	m.Request("search", "no_matches")

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("search", "done")); got != 2 {
		t.Fatalf("done = %v", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("search", "no_matches")); got != 1 {
		t.Fatalf("no_matches = %v", got)
	}
}

func TestStageAndBatch(t *testing.T) {
	m := New()
	m.ObserveStage("embed", time.Now().Add(-10*time.Millisecond))
	m.Batch(3)

	if n := testutil.CollectAndCount(m.StageDuration); n != 1 {
		t.Fatalf("stage series = %d", n)
	}
	if n := testutil.CollectAndCount(m.BatchSize); n != 1 {
		t.Fatalf("batch series = %d", n)
	}
}

func TestFallbackBreakerCache(t *testing.T) {
	m := New()
	m.ExplainFallback("groq")
	m.Breaker("search", 1)
	m.CacheLookup(true)
	m.CacheLookup(false)
	m.CacheLookup(false)

	if got := testutil.ToFloat64(m.ExplainFallbacks.WithLabelValues("groq")); got != 1 {
		t.Fatalf("fallbacks = %v", got)
	}
	if got := testutil.ToFloat64(m.BreakerState.WithLabelValues("search")); got != 1 {
		t.Fatalf("breaker = %v", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 2 {
		t.Fatalf("misses = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Request("search", "done")
	m.ObserveStage("embed", time.Now())
	m.ExplainFallback("none")
	m.Batch(1)
	m.Breaker("search", 0)
	m.CacheLookup(true)
	if m.Registry() != nil {
		t.Fatal("expected nil registry")
	}

	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusTeapot) })
	rec := httptest.NewRecorder()
	m.Instrument("/x", h).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestInstrumentAndHandler(t *testing.T) {
	m := New()
	h := m.Instrument("/api/search", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/search", nil))

	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/search", "post", "400")); got != 1 {
		t.Fatalf("http requests = %v", got)
	}

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "occumatch_http_requests_total") {
		t.Fatal("exposition missing http counter")
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatal("exposition missing runtime collector")
	}
}
