package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestRetry(t *testing.T) {
	transient := &RetryableError{Err: errors.New("503")}
	permanent := errors.New("404")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantErr   error
	}{
		{"success first try", nil, 1, nil},
		{"recovers", []error{transient, transient}, 3, nil},
		{"gives up", []error{transient, transient, transient, transient}, 3, transient},
		{"permanent error", []error{permanent}, 1, permanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := Retry(context.Background(), 3, time.Millisecond, func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}
				return nil
			})
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRetryCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func() error {
		calls++
		cancel()
		return &RetryableError{Err: errors.New("boom")}
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestPolicyHonorsRetryAfterAndMaxDelay(t *testing.T) {
	p := Policy{Attempts: 2, Delay: time.Hour, MaxDelay: 5 * time.Millisecond}
	calls := 0
	start := time.Now()
	err := p.Do(context.Background(), func() error {
		calls++
		if calls == 1 {
			return &RetryableError{Err: errors.New("429"), After: time.Hour}
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Fatalf("err = %v, calls = %d", err, calls)
	}
	if time.Since(start) > time.Second {
		t.Error("MaxDelay did not cap the wait")
	}
}

func TestRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"7", 7 * time.Second},
		{"-1", 0},
		{"soon", 0},
		{"Mon, 01 Jan 2001 00:00:00 GMT", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := RetryAfter(h); got != tt.want {
			t.Errorf("RetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}

	future := time.Now().Add(time.Minute).UTC().Format(http.TimeFormat)
	h := http.Header{"Retry-After": []string{future}}
	if got := RetryAfter(h); got <= 0 || got > time.Minute {
		t.Errorf("RetryAfter(date) = %v", got)
	}
}
