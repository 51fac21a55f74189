package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gmpdesk/gmp-dashboard/shared"
)

const feedPayload = `{
	"data": [
		{
			"ipo": "Tata Technologies",
			"price": "475-500",
			"gmp": "₹410",
			"est_listing": "910 (82%)",
			"ipo_size": "3,042.51 Cr",
			"lot": "30",
			"open": "22-Nov",
			"close": "24-Nov",
			"boa_dt": "28-Nov",
			"listing": "30-Nov",
			"gmp_updated": "18-Dec 16:01",
			"classname": "colorlightgreen"
		},
		{
			"ipo": "INOX&nbsp;India",
			"price": "627-660",
			"gmp": "-",
			"est_listing": "",
			"ipo_size": "1,459.32 Cr",
			"lot": "22",
			"open": "14-Dec",
			"close": "18-Dec",
			"boa_dt": "",
			"listing": "",
			"gmp_updated": "18-Dec 10:30",
			"classname": ""
		}
	]
}`

func fastPolicy(attempts int) shared.RetryPolicy {
	return shared.RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestFetchRecordsDecodesEnvelope(t *testing.T) {
	var gotUserAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(feedPayload))
	}))
	defer server.Close()

	svc := NewFeedService(server.URL, 5*time.Second, 0, fastPolicy(1))
	records, err := svc.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}

	first := records[0]
	if first.Name != "Tata Technologies" || first.Price != "475-500" || first.GMP != "₹410" {
		t.Errorf("first record mangled: %+v", first)
	}
	if first.OpenDate != "22-Nov" || first.AllotmentDate != "28-Nov" || first.RowClass != "colorlightgreen" {
		t.Errorf("first record date/class fields mangled: %+v", first)
	}

	// Raw feed text is preserved; decoding is the formatter's job.
	if records[1].Name != "INOX&nbsp;India" {
		t.Errorf("entity text rewritten in transit: %q", records[1].Name)
	}

	if ua := gotUserAgent.Load(); ua != shared.BrowserUserAgent {
		t.Errorf("user agent = %v, want the browser string", ua)
	}
}

func TestFetchRecordsRetriesServerErrors(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(feedPayload))
	}))
	defer server.Close()

	svc := NewFeedService(server.URL, 5*time.Second, 0, fastPolicy(3))
	records, err := svc.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("fetch failed after retries: %v", err)
	}
	if len(records) != 2 {
		t.Errorf("got %d records, want 2", len(records))
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("server hits = %d, want 3", got)
	}
}

func TestFetchRecordsExhaustsRetries(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	svc := NewFeedService(server.URL, 5*time.Second, 0, fastPolicy(3))
	_, err := svc.FetchRecords(context.Background())
	if err == nil {
		t.Fatal("expected the fetch to fail")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Errorf("server hits = %d, want all 3 attempts", got)
	}

	var svcErr *shared.ServiceError
	if !errors.As(err, &svcErr) || svcErr.StatusCode != http.StatusBadGateway {
		t.Errorf("error = %v, want a status error carrying 502", err)
	}
}

func TestFetchRecordsDoesNotRetryMalformedPayload(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("<html>definitely not json</html>"))
	}))
	defer server.Close()

	svc := NewFeedService(server.URL, 5*time.Second, 0, fastPolicy(3))
	_, err := svc.FetchRecords(context.Background())
	if err == nil {
		t.Fatal("expected the fetch to fail")
	}
	if shared.IsRetryable(err) {
		t.Error("decode failures must not be retryable")
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("server hits = %d, want a single attempt", got)
	}
}

func TestFetchRecordsRejectsMissingDataArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"rows": []}`))
	}))
	defer server.Close()

	svc := NewFeedService(server.URL, 5*time.Second, 0, fastPolicy(1))
	_, err := svc.FetchRecords(context.Background())
	if err == nil {
		t.Fatal("expected a payload without a data array to fail")
	}

	var svcErr *shared.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Category != shared.CategoryDecode {
		t.Errorf("error = %v, want a decode error", err)
	}
}

func TestFetchRecordsAcceptsEmptyDataArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	svc := NewFeedService(server.URL, 5*time.Second, 0, fastPolicy(1))
	records, err := svc.FetchRecords(context.Background())
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
}

func TestFetchRecordsNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens on the URL anymore

	svc := NewFeedService(server.URL, time.Second, 0, fastPolicy(1))
	_, err := svc.FetchRecords(context.Background())
	if err == nil {
		t.Fatal("expected the fetch to fail")
	}

	var svcErr *shared.ServiceError
	if !errors.As(err, &svcErr) || svcErr.Category != shared.CategoryNetwork {
		t.Errorf("error = %v, want a network error", err)
	}
}

func TestFetchRecordsHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(feedPayload))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	svc := NewFeedService(server.URL, 5*time.Second, 0, fastPolicy(1))
	if _, err := svc.FetchRecords(ctx); err == nil {
		t.Fatal("expected the canceled fetch to fail")
	}
}
