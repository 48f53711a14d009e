package fetcher

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Connection pool limits relative to the concurrency bound. The pool is
// sized at twice the admission capacity so admitted fetches never starve
// waiting for a connection.
const (
	poolSizeFactor         = 2
	defaultIdleConnTimeout = 60 * time.Second
	defaultKeepAlive       = 30 * time.Second
)

// connectTimeoutKey carries the per-attempt connect timeout from the timeout
// selector to the shared transport's dialer.
type connectTimeoutKey struct{}

// withConnectTimeout attaches a connect timeout to ctx for the dialer.
func withConnectTimeout(ctx context.Context, d time.Duration) context.Context {
	return context.WithValue(ctx, connectTimeoutKey{}, d)
}

// newTransport builds the single shared connection pool for a batch. All
// concurrent fetches reuse it; per-attempt connect timeouts arrive through
// the request context so one pool can serve every timeout profile.
func newTransport(concurrency int) *http.Transport {
	dialer := &net.Dialer{
		KeepAlive: defaultKeepAlive,
	}

	return &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			if d, ok := ctx.Value(connectTimeoutKey{}).(time.Duration); ok && d > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d)
				defer cancel()
			}
			return dialer.DialContext(ctx, network, addr)
		},
		MaxIdleConns:        poolSizeFactor * concurrency,
		MaxIdleConnsPerHost: poolSizeFactor * concurrency,
		MaxConnsPerHost:     poolSizeFactor * concurrency,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}
}
