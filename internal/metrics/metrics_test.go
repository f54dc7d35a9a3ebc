package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	c := New()

	c.RecordAppended("transaction")
	c.RecordAppended("transaction")
	c.PublishFailed("expense")
	c.MirrorSynced("expense", nil)
	c.MirrorSynced("expense", errors.New("quota"))
	c.ObserveHTTP("/balance", http.MethodGet, http.StatusOK, 5*time.Millisecond)

	if got := testutil.ToFloat64(c.appended.WithLabelValues("transaction")); got != 2 {
		t.Errorf("appended = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.publishFailure.WithLabelValues("expense")); got != 1 {
		t.Errorf("publish failures = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.mirrorSync.WithLabelValues("expense", "error")); got != 1 {
		t.Errorf("mirror errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.httpRequests.WithLabelValues("/balance", "GET", "200")); got != 1 {
		t.Errorf("http requests = %v, want 1", got)
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.RecordAppended("expense")
	c.PublishFailed("expense")
	c.MirrorSynced("expense", nil)
	c.ObserveHTTP("/", http.MethodGet, http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordAppended("expense")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if !strings.Contains(string(body), `finbook_records_appended_total{kind="expense"} 1`) {
		t.Fatalf("metric missing from exposition:\n%s", body)
	}
}
