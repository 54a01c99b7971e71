package httpds

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// newTestClient returns a client that records backoff waits instead of
// sleeping.
func newTestClient(retries int) (*Client, *[]time.Duration) {
	c := NewClient(Config{
		MaxRetries:     retries,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     4 * time.Millisecond,
	})
	var waits []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	return c, &waits
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true})
	if c.httpClient.Timeout != 30*time.Second {
		t.Fatalf("timeout = %v", c.httpClient.Timeout)
	}
	if c.maxRetries != 0 || c.initialBackoff <= 0 || c.maxBackoff <= 0 {
		t.Fatalf("defaults = retries %d initial %v max %v", c.maxRetries, c.initialBackoff, c.maxBackoff)
	}
	tp, ok := c.httpClient.Transport.(*http.Transport)
	if !ok || tp.TLSClientConfig == nil || !tp.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("expected default transport with InsecureSkipVerify")
	}
}

func TestNewClient_CustomTransport(t *testing.T) {
	t.Parallel()

	custom := &http.Transport{TLSClientConfig: &tls.Config{}}
	c := NewClient(Config{Transport: custom, InsecureSkipVerify: true})
	if c.httpClient.Transport != custom {
		t.Fatalf("custom transport not used")
	}
	if custom.TLSClientConfig.InsecureSkipVerify {
		t.Fatalf("TLS settings must not be applied to a custom transport")
	}
}

// TestGet_Retries covers the retry policy: transient statuses are retried up
// to MaxRetries, everything else is returned on the first attempt.
func TestGet_Retries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		statuses []int // per attempt; the last one repeats
		retries  int
		wantErr  bool
		wantHits int32
		wantCode int
	}{
		{"ok first try", []int{200}, 3, false, 1, 200},
		{"5xx then ok", []int{500, 502, 200}, 3, false, 3, 200},
		{"429 then ok", []int{429, 200}, 1, false, 2, 200},
		{"exhausted", []int{503}, 2, true, 3, 0},
		{"not retryable", []int{404}, 5, false, 1, 404},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var hits int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(atomic.AddInt32(&hits, 1)) - 1
				if n >= len(tc.statuses) {
					n = len(tc.statuses) - 1
				}
				w.WriteHeader(tc.statuses[n])
			}))
			defer srv.Close()

			c, waits := newTestClient(tc.retries)
			resp, err := c.Get(context.Background(), srv.URL, nil)
			if tc.wantErr {
				if err == nil {
					resp.Body.Close()
					t.Fatalf("expected error")
				}
			} else {
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				resp.Body.Close()
				if resp.StatusCode != tc.wantCode {
					t.Fatalf("status = %d want %d", resp.StatusCode, tc.wantCode)
				}
			}
			if got := atomic.LoadInt32(&hits); got != tc.wantHits {
				t.Fatalf("attempts = %d want %d", got, tc.wantHits)
			}
			if len(*waits) != int(tc.wantHits)-1 {
				t.Fatalf("backoff waits = %v for %d attempts", *waits, tc.wantHits)
			}
		})
	}
}

func TestGet_EmptyURL(t *testing.T) {
	t.Parallel()

	c, _ := newTestClient(0)
	if _, err := c.Get(context.Background(), "", nil); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	ms := time.Millisecond
	tests := []struct {
		initial time.Duration
		attempt int
		max     time.Duration
		want    time.Duration
	}{
		{100 * ms, 0, time.Second, 100 * ms},
		{100 * ms, 1, time.Second, 200 * ms},
		{100 * ms, 2, time.Second, 400 * ms},
		{600 * ms, 1, time.Second, time.Second},
		{2 * time.Second, 0, time.Second, time.Second},
		{100 * ms, 62, time.Second, time.Second},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("%v/attempt=%d", tt.initial, tt.attempt), func(t *testing.T) {
			t.Parallel()

			if got := backoffDuration(tt.initial, tt.attempt, tt.max); got != tt.want {
				t.Fatalf("backoffDuration(%v, %d, %v) = %v want %v", tt.initial, tt.attempt, tt.max, got, tt.want)
			}
		})
	}
}

func TestSleepWithContext_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepWithContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
