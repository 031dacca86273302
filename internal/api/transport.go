package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Limit is a requests-per-second limit with a burst capacity.
type Limit struct {
	RPS   float64
	Burst int
}

// TransportOptions configures the retrying, rate-limited transport.
type TransportOptions struct {
	RetryMax    int
	BackoffBase time.Duration
	BackoffCap  time.Duration
	JitterFn    func(base time.Duration, attempt int) time.Duration
	Clock       Clock
	Metrics     *Metrics
	Limit       Limit
}

// DefaultTransportOptions returns defaults for the catalog backend, tunable
// via ECAT_RPS, ECAT_BURST, ECAT_RETRY_MAX, ECAT_RETRY_BASE_MS and
// ECAT_RETRY_CAP_MS.
func DefaultTransportOptions() TransportOptions {
	lim := Limit{RPS: 20, Burst: 20}
	if v := strings.TrimSpace(os.Getenv("ECAT_RPS")); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			lim.RPS = f
		}
	}
	if v := strings.TrimSpace(os.Getenv("ECAT_BURST")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			lim.Burst = n
		}
	}

	retryMax := 3
	if v := strings.TrimSpace(os.Getenv("ECAT_RETRY_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			retryMax = n
		}
	}
	backoffBase := 250 * time.Millisecond
	if v := strings.TrimSpace(os.Getenv("ECAT_RETRY_BASE_MS")); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			backoffBase = time.Duration(ms) * time.Millisecond
		}
	}
	backoffCap := 5 * time.Second
	if v := strings.TrimSpace(os.Getenv("ECAT_RETRY_CAP_MS")); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			backoffCap = time.Duration(ms) * time.Millisecond
		}
	}

	return TransportOptions{
		RetryMax:    retryMax,
		BackoffBase: backoffBase,
		BackoffCap:  backoffCap,
		Clock:       realClock{},
		JitterFn: func(base time.Duration, attempt int) time.Duration {
			if base <= 0 {
				return 0
			}
			// full jitter on top of the exponential delay
			return time.Duration(rand.Int63n(base.Nanoseconds()))
		},
		Metrics: NewMetrics(),
		Limit:   lim,
	}
}

// tokenBucket paces requests with fractional token refill.
type tokenBucket struct {
	mu     sync.Mutex
	rps    float64
	burst  float64
	tokens float64
	last   time.Time
	clock  Clock
}

func newTokenBucket(lim Limit, clock Clock) *tokenBucket {
	burst := float64(max(1, lim.Burst))
	return &tokenBucket{
		rps:    lim.RPS,
		burst:  burst,
		tokens: burst,
		last:   clock.Now(),
		clock:  clock,
	}
}

func (tb *tokenBucket) refillLocked(now time.Time) {
	delta := now.Sub(tb.last).Seconds() * tb.rps
	if delta > 0 {
		tb.tokens = math.Min(tb.burst, tb.tokens+delta)
		tb.last = now
	}
}

func (tb *tokenBucket) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tb.mu.Lock()
		now := tb.clock.Now()
		tb.refillLocked(now)
		if tb.tokens >= 1 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}
		need := 1 - tb.tokens
		wait := time.Duration((need / tb.rps) * float64(time.Second))
		tb.mu.Unlock()
		if wait <= 0 {
			wait = 5 * time.Millisecond
		}
		tb.clock.Sleep(wait)
	}
}

// Transport wraps a base RoundTripper with rate limiting and retries on
// 429/5xx and transient network errors.
type Transport struct {
	Base http.RoundTripper
	Opts TransportOptions

	once sync.Once
	lim  *tokenBucket
}

// NewTransport creates the transport from opts.
func NewTransport(opts TransportOptions) *Transport {
	return &Transport{Opts: opts}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

func (t *Transport) clock() Clock {
	if t.Opts.Clock != nil {
		return t.Opts.Clock
	}
	return realClock{}
}

func (t *Transport) limiter() *tokenBucket {
	t.once.Do(func() {
		lim := t.Opts.Limit
		if lim.RPS <= 0 {
			lim = Limit{RPS: 20, Burst: 20}
		}
		t.lim = newTokenBucket(lim, t.clock())
	})
	return t.lim
}

// ensureGetBody makes write bodies replayable across retries.
func ensureGetBody(req *http.Request) error {
	if req.Body == nil || req.GetBody != nil {
		return nil
	}
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return nil
	}
	buf, err := io.ReadAll(req.Body)
	if err != nil {
		return err
	}
	req.Body.Close()
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}
	req.Body = io.NopCloser(bytes.NewReader(buf))
	return nil
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	_ = ensureGetBody(req)

	lim := t.limiter()
	if t.Opts.Metrics != nil {
		t.Opts.Metrics.IncRequest(req.Method)
	}

	attempts := max(1, t.Opts.RetryMax+1)
	if retryDisabled(req.Context()) {
		attempts = 1
	}
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := lim.Wait(req.Context()); err != nil {
			return nil, err
		}

		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			req.Body = body
		}

		resp, err := t.base().RoundTrip(req)
		if err != nil {
			if isTransientNetErr(err) && attempt < attempts-1 {
				lastErr = err
				if rc := RetryCountersFrom(req.Context()); rc != nil {
					rc.Total++
					rc.Net++
				}
				t.sleepBackoff(attempt)
				continue
			}
			return nil, err
		}

		if t.Opts.Metrics != nil {
			t.Opts.Metrics.IncStatus(resp.StatusCode)
		}

		if shouldRetryStatus(resp.StatusCode) && attempt < attempts-1 {
			if rc := RetryCountersFrom(req.Context()); rc != nil {
				rc.Total++
				if resp.StatusCode == http.StatusTooManyRequests {
					rc.Status429++
				} else {
					rc.Status5xx++
				}
			}
			if t.Opts.Metrics != nil {
				t.Opts.Metrics.IncRetry()
			}
			resp.Body.Close()
			if ra := parseRetryAfter(resp.Header.Get("Retry-After"), t.clock().Now()); ra > 0 {
				d := minDur(ra, t.Opts.BackoffCap)
				t.clock().Sleep(d)
				if t.Opts.Metrics != nil {
					t.Opts.Metrics.AddBackoff(d)
				}
				continue
			}
			t.sleepBackoff(attempt)
			continue
		}

		return resp, nil
	}
	if lastErr == nil {
		lastErr = errors.New("max retries exceeded")
	}
	return nil, lastErr
}

func (t *Transport) sleepBackoff(attempt int) {
	base := t.Opts.BackoffBase
	if base <= 0 {
		base = 250 * time.Millisecond
	}
	cap := t.Opts.BackoffCap
	if cap <= 0 {
		cap = 5 * time.Second
	}
	delay := minDur(time.Duration(float64(base)*math.Pow(2, float64(attempt))), cap)
	if t.Opts.JitterFn != nil {
		delay = minDur(delay+t.Opts.JitterFn(delay, attempt), cap)
	}
	t.clock().Sleep(delay)
	if t.Opts.Metrics != nil {
		t.Opts.Metrics.AddBackoff(delay)
	}
}

func isTransientNetErr(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "timeout") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "temporary")
}

func shouldRetryStatus(code int) bool {
	return code == http.StatusTooManyRequests ||
		code == http.StatusBadGateway ||
		code == http.StatusServiceUnavailable ||
		code == http.StatusGatewayTimeout
}

func parseRetryAfter(h string, now time.Time) time.Duration {
	h = strings.TrimSpace(h)
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(h); err == nil {
		if d := when.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}
