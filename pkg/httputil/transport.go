package httputil

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/matzehuels/splitdelegation/pkg/observability"
)

type transientKey struct{}

// WithTransient returns a context carrying a flag that [NewTransport] sets
// when a request made with that context fails transiently.
func WithTransient(ctx context.Context) (context.Context, *atomic.Bool) {
	flag := new(atomic.Bool)
	return context.WithValue(ctx, transientKey{}, flag), flag
}

func markTransient(ctx context.Context) {
	if flag, ok := ctx.Value(transientKey{}).(*atomic.Bool); ok {
		flag.Store(true)
	}
}

// Transient reports whether an HTTP status is worth retrying.
func Transient(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

type transport struct {
	base http.RoundTripper
}

// NewTransport wraps base (http.DefaultTransport when nil) with
// observability hooks and transient failure tracking.
func NewTransport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base}
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path

	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		markTransient(ctx)
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, err
	}
	if Transient(resp.StatusCode) {
		markTransient(ctx)
	}
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))
	return resp, nil
}
