package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/mindscope/internal/logger"
)

// retryPolicy bounds attempts and exponential backoff for one provider.
type retryPolicy struct {
	maxAttempts int
	baseDelay   time.Duration
	maxDelay    time.Duration
}

func newRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration, defaults retryPolicy) retryPolicy {
	p := retryPolicy{maxAttempts: maxAttempts, baseDelay: baseDelay, maxDelay: maxDelay}
	if p.maxAttempts <= 0 {
		p.maxAttempts = defaults.maxAttempts
	}
	if p.baseDelay <= 0 {
		p.baseDelay = defaults.baseDelay
	}
	if p.maxDelay <= 0 {
		p.maxDelay = defaults.maxDelay
	}
	return p
}

// backoff returns the jittered wait before the given retry (1-based), capped at maxDelay.
func (p retryPolicy) backoff(retry int) time.Duration {
	d := p.baseDelay
	for i := 1; i < retry; i++ {
		d *= 2
		if p.maxDelay > 0 && d >= p.maxDelay {
			d = p.maxDelay
			break
		}
	}
	d = withJitter(d)
	if p.maxDelay > 0 && d > p.maxDelay {
		d = p.maxDelay
	}
	return d
}

// jsonPost is one JSON POST endpoint with its error mapping.
type jsonPost struct {
	client   *http.Client
	provider string
	endpoint string
	header   http.Header
	policy   retryPolicy
	// classify turns a non-2xx response into a typed error.
	classify func(apiErr *APIError, resp *http.Response) error
	// transportErr wraps a transport failure that will not be retried.
	transportErr func(error) error
}

// do sends payload, retrying 429/5xx responses and transient network
// errors. decode receives every 2xx response.
func (p jsonPost) do(ctx context.Context, payload []byte, decode func(*http.Response) error) error {
	var lastErr error
	for attempt := 1; attempt <= p.policy.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		for k, vals := range p.header {
			for _, v := range vals {
				req.Header.Add(k, v)
			}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := p.client.Do(req)
		if err != nil {
			if isRetryableNetErr(err) && attempt < p.policy.maxAttempts {
				lastErr = err
				wait := p.policy.backoff(attempt)
				logger.Log.Warnf("%s: transient network error, retrying in %s: %v", p.provider, wait, err)
				if err := sleepCtx(ctx, wait); err != nil {
					return err
				}
				continue
			}
			if p.transportErr != nil {
				return p.transportErr(err)
			}
			return fmt.Errorf("http request: %w", err)
		}

		var retryAfter time.Duration
		retryable := false
		err = func() error {
			defer resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return decode(resp)
			}
			apiErr := readAPIError(resp)
			retryable = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
			if ra := resp.Header.Get("Retry-After"); ra != "" {
				if secs, err := parseRetryAfterSeconds(ra); err == nil && secs > 0 {
					retryAfter = time.Duration(secs) * time.Second
				}
			}
			return p.classify(apiErr, resp)
		}()
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable || attempt == p.policy.maxAttempts {
			break
		}
		wait := retryAfter
		if wait <= 0 {
			wait = p.policy.backoff(attempt)
		}
		logger.Log.Warnf("%s: attempt %d/%d failed, retrying in %s: %v", p.provider, attempt, p.policy.maxAttempts, wait, err)
		if err := sleepCtx(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

// readAPIError decodes the common error envelopes: {"error":{"message","code"}},
// {"error":"..."} and {"message","code"}.
func readAPIError(resp *http.Response) *APIError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
	var raw map[string]any
	_ = json.Unmarshal(body, &raw)
	apiErr := &APIError{StatusCode: resp.StatusCode, Raw: raw, RequestID: extractRequestID(resp)}
	src := raw
	switch v := raw["error"].(type) {
	case map[string]any:
		src = v
	case string:
		apiErr.Message = v
	}
	if msg, ok := src["message"].(string); ok && apiErr.Message == "" {
		apiErr.Message = msg
	}
	switch code := src["code"].(type) {
	case string:
		apiErr.Code = code
	case float64:
		apiErr.Code = strconv.Itoa(int(code))
	}
	return apiErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	return errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)
}

// parseRetryAfterSeconds interprets a Retry-After value as seconds or an HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

// classifyAPIError maps a hosted-provider APIError to typed errors.
func classifyAPIError(apiErr *APIError, resp *http.Response) error {
	sc := apiErr.StatusCode
	switch {
	case sc == http.StatusUnauthorized || sc == http.StatusForbidden:
		return &AuthError{APIError: apiErr}
	case sc == http.StatusTooManyRequests:
		var ra time.Duration
		if v := resp.Header.Get("Retry-After"); v != "" {
			if secs, err := parseRetryAfterSeconds(v); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
		}
		return &RateLimitError{APIError: apiErr, RetryAfter: ra}
	case sc == http.StatusNotFound:
		if apiErr.Code == "model_not_found" || containsAllFold(apiErr.Message, "model", "not", "found") {
			return &ModelNotFoundError{APIError: apiErr}
		}
		return apiErr
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case apiErr.Code == "quota_exceeded" || containsAnyFold(apiErr.Message, "quota", "billing", "limit exceeded"):
		return &QuotaExceededError{APIError: apiErr}
	case sc >= 500:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

// classifyLocalError maps errors from a local runtime, where a 404 means
// the model has not been pulled.
func classifyLocalError(apiErr *APIError, _ *http.Response) error {
	switch sc := apiErr.StatusCode; {
	case sc == http.StatusNotFound:
		return &ModelNotFoundError{APIError: apiErr}
	case sc == http.StatusBadRequest:
		return &BadRequestError{APIError: apiErr}
	case sc >= 500:
		return &ServerError{APIError: apiErr}
	}
	return apiErr
}

func containsAllFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if !containsFold(s, sub) {
			return false
		}
	}
	return true
}

func containsAnyFold(s string, subs ...string) bool {
	for _, sub := range subs {
		if containsFold(s, sub) {
			return true
		}
	}
	return false
}

func containsFold(s, sub string) bool {
	if s == "" || sub == "" {
		return false
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

// extractRequestID pulls a best-effort request ID from common headers.
func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "OpenAI-Request-ID", "Openrouter-Request-ID", "X-Amzn-Requestid"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns d with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
