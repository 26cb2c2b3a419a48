package rest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy controls how transient failures are retried.
type RetryPolicy struct {
	MaxRetries  int           // Total attempts, including the first
	MaxDelay    time.Duration // Upper bound for a single wait
	BackoffBase time.Duration // Initial wait, doubled after every attempt
}

// DefaultRetryPolicy is used when no retry option is given.
var DefaultRetryPolicy = RetryPolicy{
	MaxRetries:  5,
	MaxDelay:    10 * time.Second,
	BackoffBase: 500 * time.Millisecond,
}

// NoRetry disables retries.
var NoRetry = RetryPolicy{MaxRetries: 1}

// send performs the request, retrying network errors, 429 and 5xx responses.
// Requests that are not idempotent are only retried on 429. The last response is returned
// even when it is retryable so the caller can turn it into an *Error.
func (c *Client) send(ctx context.Context, tmpl *http.Request, body []byte, idempotent bool) (*http.Response, []byte, error) {
	var (
		resp     *http.Response
		respBody []byte
		attempt  int
	)

	policy := newBackOff(c.retryPolicy)
	retries := c.retryPolicy.MaxRetries - 1
	if retries < 0 {
		retries = 0
	}
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(retries)), ctx)

	operation := func() error {
		attempt++
		resp, respBody = nil, nil

		req := cloneRequest(ctx, tmpl, body)
		if c.auth != nil {
			header, rawQuery := req.Header.Clone(), req.URL.RawQuery
			if err := c.auth(ctx, req); err != nil {
				return backoff.Permanent(fmt.Errorf("failed to authorize request: %w", err))
			}
			if c.trace {
				req = req.WithContext(withCredentials(req.Context(), addedCredentials(header, rawQuery, req)))
			}
		}

		res, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			if !idempotent {
				return backoff.Permanent(err)
			}
			return err
		}
		data, err := readBody(res)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}
		resp, respBody = res, data

		if shouldRetry(res.StatusCode) {
			if !idempotent && res.StatusCode != http.StatusTooManyRequests {
				return nil
			}
			policy.retryAfter = parseRetryAfter(res.Header.Get("Retry-After"), time.Now())
			return fmt.Errorf("retryable status %d", res.StatusCode)
		}
		return nil
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Debug("retrying request",
			"method", tmpl.Method,
			"url", redactURL(tmpl.URL),
			"attempt", attempt,
			"delay", delay,
			"error", err,
		)
	}

	err := backoff.RetryNotify(operation, b, notify)
	if err != nil && ctx.Err() != nil {
		return nil, nil, fmt.Errorf("context cancelled during retry: %w", ctx.Err())
	}
	if resp != nil && shouldRetry(resp.StatusCode) {
		// Retries exhausted on an API error: surface the response itself.
		return resp, respBody, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return resp, respBody, nil
}

// shouldRetry reports whether a response status is worth another attempt.
func shouldRetry(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// isIdempotent reports whether repeating req cannot apply it twice. POST and
// PATCH count only when they carry an Idempotency-Key.
func isIdempotent(req *http.Request) bool {
	switch req.Method {
	case http.MethodPost, http.MethodPatch:
		return req.Header.Get("Idempotency-Key") != ""
	}
	return true
}

// cloneRequest copies the template request and gives it a fresh body.
func cloneRequest(ctx context.Context, tmpl *http.Request, body []byte) *http.Request {
	req := tmpl.Clone(ctx)
	if body == nil {
		req.Body = http.NoBody
		return req
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	req.ContentLength = int64(len(body))
	return req
}

// retryAfterBackOff is an exponential backoff that yields once to a delay
// requested by the server.
type retryAfterBackOff struct {
	*backoff.ExponentialBackOff
	retryAfter time.Duration
	maxDelay   time.Duration
}

func newBackOff(p RetryPolicy) *retryAfterBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.BackoffBase
	if exp.InitialInterval <= 0 {
		exp.InitialInterval = DefaultRetryPolicy.BackoffBase
	}
	exp.MaxInterval = p.MaxDelay
	if exp.MaxInterval <= 0 {
		exp.MaxInterval = DefaultRetryPolicy.MaxDelay
	}
	exp.Multiplier = 2
	exp.MaxElapsedTime = 0
	exp.Reset()
	return &retryAfterBackOff{ExponentialBackOff: exp, maxDelay: exp.MaxInterval}
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.ExponentialBackOff.NextBackOff()
	if next == backoff.Stop || b.retryAfter <= 0 {
		return next
	}
	next, b.retryAfter = b.retryAfter, 0
	if next > b.maxDelay {
		next = b.maxDelay
	}
	return next
}

// parseRetryAfter reads a Retry-After value given either in seconds or as an
// HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
