package api

import (
	"context"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// fakeClock allows deterministic control of time passage.
type fakeClock struct {
	now   time.Time
	slept time.Duration
}

func newFakeClock() *fakeClock              { return &fakeClock{now: time.Unix(0, 0)} }
func (fc *fakeClock) Now() time.Time        { return fc.now }
func (fc *fakeClock) Sleep(d time.Duration) { fc.now = fc.now.Add(d); fc.slept += d }

// fakeRT returns a queued series of responses or errors.
type fakeRT struct {
	calls atomic.Int64
	queue []any // *http.Response or error
}

func (frt *fakeRT) RoundTrip(_ *http.Request) (*http.Response, error) {
	idx := frt.calls.Add(1) - 1
	if int(idx) >= len(frt.queue) {
		return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
	}
	switch item := frt.queue[idx].(type) {
	case *http.Response:
		if item.Body == nil {
			item.Body = http.NoBody
		}
		return item, nil
	case error:
		return nil, item
	}
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody}, nil
}

func newReq() *http.Request {
	req, _ := http.NewRequestWithContext(context.Background(), http.MethodGet, "http://api.test/x", nil)
	return req
}

func testOpts(fc *fakeClock) TransportOptions {
	return TransportOptions{
		RetryMax:    2,
		BackoffBase: 250 * time.Millisecond,
		BackoffCap:  5 * time.Second,
		Clock:       fc,
		JitterFn:    func(time.Duration, int) time.Duration { return 0 },
		Metrics:     NewMetrics(),
		Limit:       Limit{RPS: 1000, Burst: 1000},
	}
}

func TestRetryAfterSeconds(t *testing.T) {
	fc := newFakeClock()
	opts := testOpts(fc)
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"2"}}, Body: http.NoBody},
		&http.Response{StatusCode: 200, Body: http.NoBody},
	}}
	tr := NewTransport(opts)
	tr.Base = frt

	resp, err := tr.RoundTrip(newReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	if fc.slept != 2*time.Second {
		t.Fatalf("expected 2s sleep, got %v", fc.slept)
	}
	if opts.Metrics.TotalRetries.Load() != 1 {
		t.Fatalf("expected 1 retry, got %d", opts.Metrics.TotalRetries.Load())
	}
}

func TestBackoffOn503(t *testing.T) {
	fc := newFakeClock()
	opts := testOpts(fc)
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 503, Body: http.NoBody},
		&http.Response{StatusCode: 200, Body: http.NoBody},
	}}
	tr := NewTransport(opts)
	tr.Base = frt

	resp, err := tr.RoundTrip(newReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("want 200, got %d", resp.StatusCode)
	}
	// first backoff is base
	if fc.slept != 250*time.Millisecond {
		t.Fatalf("expected 250ms sleep, got %v", fc.slept)
	}
}

func TestNoRetryOn400(t *testing.T) {
	fc := newFakeClock()
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 400, Body: http.NoBody},
	}}
	tr := NewTransport(testOpts(fc))
	tr.Base = frt

	resp, err := tr.RoundTrip(newReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 400 {
		t.Fatalf("want 400 passed through, got %d", resp.StatusCode)
	}
	if frt.calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", frt.calls.Load())
	}
}

func TestWithoutRetrySingleAttempt(t *testing.T) {
	fc := newFakeClock()
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 503, Body: http.NoBody},
		&http.Response{StatusCode: 200, Body: http.NoBody},
	}}
	tr := NewTransport(testOpts(fc))
	tr.Base = frt

	req, _ := http.NewRequestWithContext(WithoutRetry(context.Background()), http.MethodGet, "http://api.test/x", nil)
	resp, err := tr.RoundTrip(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 503 {
		t.Fatalf("want the 503 passed through, got %d", resp.StatusCode)
	}
	if frt.calls.Load() != 1 {
		t.Fatalf("expected single attempt, got %d", frt.calls.Load())
	}
	if fc.slept != 0 {
		t.Fatalf("expected no backoff sleep, got %v", fc.slept)
	}
}

func TestRetryCountersAttribution(t *testing.T) {
	fc := newFakeClock()
	frt := &fakeRT{queue: []any{
		&http.Response{StatusCode: 503, Body: http.NoBody},
		&http.Response{StatusCode: 429, Body: http.NoBody},
		&http.Response{StatusCode: 200, Body: http.NoBody},
	}}
	tr := NewTransport(testOpts(fc))
	tr.Base = frt

	rc := &RetryCounters{}
	req, _ := http.NewRequestWithContext(WithRetryCounters(context.Background(), rc), http.MethodGet, "http://api.test/x", nil)
	if _, err := tr.RoundTrip(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rc.Total != 2 || rc.Status5xx != 1 || rc.Status429 != 1 {
		t.Fatalf("unexpected counters: %+v", rc)
	}
}
