package sitemap

import (
	"log/slog"
	"net/http"
	"time"
)

// RetryPolicy controls the retrying transport.
type RetryPolicy struct {
	MaxAttempts int           // retries after the initial attempt
	Backoff     time.Duration // base delay, doubled per attempt
	BackoffMax  time.Duration // cap on the per-attempt delay, 0 for none
}

// Retryable HTTP responses and methods, mirroring the transient-failure set
// the catalog is known to emit under load.
var (
	retryStatuses = map[int]bool{
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusBadGateway:          true,
		http.StatusServiceUnavailable:  true,
		http.StatusGatewayTimeout:      true,
	}

	retryMethods = map[string]bool{
		http.MethodGet:     true,
		http.MethodHead:    true,
		http.MethodOptions: true,
	}
)

// retryTransport decorates a RoundTripper with bounded retries and
// exponential backoff for transient failures. Only idempotent, bodyless
// methods are retried.
type retryTransport struct {
	base   http.RoundTripper
	policy RetryPolicy
}

// NewRetryTransport wraps base with the given retry policy. A nil base uses
// http.DefaultTransport.
func NewRetryTransport(base http.RoundTripper, policy RetryPolicy) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &retryTransport{base: base, policy: policy}
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !retryMethods[req.Method] {
		return t.base.RoundTrip(req)
	}

	var (
		resp *http.Response
		err  error
	)

	for attempt := 0; ; attempt++ {
		resp, err = t.base.RoundTrip(req)

		retryable := false
		if err != nil {
			retryable = true
		} else if retryStatuses[resp.StatusCode] {
			retryable = true
		}

		if !retryable || attempt >= t.policy.MaxAttempts {
			return resp, err
		}

		if resp != nil {
			resp.Body.Close()
		}

		delay := t.backoff(attempt + 1)
		slog.Debug("retrying request",
			slog.String("url", req.URL.String()),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
		)

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(delay):
		}
	}
}

func (t *retryTransport) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := t.policy.Backoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := t.policy.BackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}
