package api

import "context"

type retryCtxKey struct{}

// RetryCounters holds per-request retry attribution updated by the transport.
type RetryCounters struct {
	Total     int64
	Status429 int64
	Status5xx int64
	Net       int64
}

// WithRetryCounters attaches counters to ctx so the transport can attribute
// retries to this request chain specifically.
func WithRetryCounters(ctx context.Context, rc *RetryCounters) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, retryCtxKey{}, rc)
}

// RetryCountersFrom returns the counters attached to ctx, or nil.
func RetryCountersFrom(ctx context.Context) *RetryCounters {
	if ctx == nil {
		return nil
	}
	if rc, ok := ctx.Value(retryCtxKey{}).(*RetryCounters); ok {
		return rc
	}
	return nil
}

type noRetryKey struct{}

// WithoutRetry marks a request chain as single-attempt. The sync workflow
// uses it: a failed trigger is terminal and a failed status poll stops the
// chain, so extra transport attempts would only delay that outcome.
func WithoutRetry(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, noRetryKey{}, true)
}

func retryDisabled(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(noRetryKey{}).(bool)
	return v
}
