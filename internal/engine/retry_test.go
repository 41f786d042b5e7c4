package engine

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func fastRetry(max int) RetryConfig {
	return RetryConfig{
		MaxRetries:  max,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
		Retryable:   func(error) bool { return true },
	}
}

func TestRetryDo(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds first try", func(t *testing.T) {
		calls := 0
		got, err := RetryDo(ctx, fastRetry(3), func() (string, error) {
			calls++
			return "ok", nil
		})
		if err != nil || got != "ok" || calls != 1 {
			t.Errorf("got (%q, %v) after %d calls", got, err, calls)
		}
	})

	t.Run("recovers after failures", func(t *testing.T) {
		calls := 0
		got, err := RetryDo(ctx, fastRetry(3), func() (int, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("transient")
			}
			return 42, nil
		})
		if err != nil || got != 42 || calls != 3 {
			t.Errorf("got (%d, %v) after %d calls", got, err, calls)
		}
	})

	t.Run("exhausts retries", func(t *testing.T) {
		calls := 0
		_, err := RetryDo(ctx, fastRetry(2), func() (int, error) {
			calls++
			return 0, errors.New("always")
		})
		if err == nil || calls != 3 {
			t.Errorf("err = %v after %d calls, want error after 3", err, calls)
		}
	})

	t.Run("non-retryable stops immediately", func(t *testing.T) {
		rc := fastRetry(3)
		rc.Retryable = func(error) bool { return false }
		calls := 0
		_, err := RetryDo(ctx, rc, func() (int, error) {
			calls++
			return 0, errors.New("fatal")
		})
		if err == nil || calls != 1 {
			t.Errorf("err = %v after %d calls, want error after 1", err, calls)
		}
	})

	t.Run("cancelled context stops", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := RetryDo(cctx, fastRetry(3), func() (int, error) {
			return 0, errors.New("never retried")
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	})
}

func TestRetryHTTP(t *testing.T) {
	ctx := context.Background()

	t.Run("retries 503 then succeeds", func(t *testing.T) {
		calls := 0
		resp, err := RetryHTTP(ctx, fastRetry(3), func() (*http.Response, error) {
			calls++
			code := http.StatusServiceUnavailable
			if calls >= 2 {
				code = http.StatusOK
			}
			return &http.Response{StatusCode: code, Body: http.NoBody}, nil
		})
		if err != nil || resp.StatusCode != http.StatusOK || calls != 2 {
			t.Errorf("resp=%v err=%v calls=%d", resp, err, calls)
		}
	})

	t.Run("404 passes through without retry", func(t *testing.T) {
		calls := 0
		resp, err := RetryHTTP(ctx, fastRetry(3), func() (*http.Response, error) {
			calls++
			return &http.Response{StatusCode: http.StatusNotFound, Body: http.NoBody}, nil
		})
		if err != nil || resp.StatusCode != http.StatusNotFound || calls != 1 {
			t.Errorf("resp=%v err=%v calls=%d", resp, err, calls)
		}
	})
}

func TestIsRetryableLLM(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"context canceled", context.Canceled, false},
		{"deadline exceeded", context.DeadlineExceeded, true},
		{"rate limit text", errors.New("API error: rate limit exceeded"), true},
		{"429 text", errors.New("unexpected status 429"), true},
		{"resource exhausted", errors.New("RESOURCE_EXHAUSTED: quota"), true},
		{"overloaded", errors.New("model is overloaded"), true},
		{"503 text", errors.New("upstream 503"), true},
		{"plain failure", errors.New("invalid api key"), false},
		{"net timeout", &net.DNSError{IsTimeout: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isRetryableLLM(tt.err); got != tt.want {
				t.Errorf("isRetryableLLM(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsRetryableStatus(t *testing.T) {
	for _, code := range []int{429, 500, 502, 503, 504} {
		if !isRetryableStatus(code) {
			t.Errorf("%d should be retryable", code)
		}
	}
	for _, code := range []int{200, 301, 400, 401, 403, 404} {
		if isRetryableStatus(code) {
			t.Errorf("%d should not be retryable", code)
		}
	}
}

func TestHTTPStatusErrorMessage(t *testing.T) {
	err := &httpStatusError{StatusCode: 503}
	if !strings.Contains(err.Error(), "Service Unavailable") {
		t.Errorf("Error() = %q", err.Error())
	}
}
