package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/matzehuels/cratedeps/pkg/cache"
	"github.com/matzehuels/cratedeps/pkg/httputil"
)

func testClient(t *testing.T, headers map[string]string) *Client {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return NewClient(c, "test", time.Hour, headers).
		WithRetry(httputil.Policy{Attempts: 2, Delay: time.Millisecond})
}

func TestNewClient(t *testing.T) {
	headers := map[string]string{"Authorization": "Bearer token"}
	client := NewClient(nil, "test", time.Hour, headers)

	if client.http == nil {
		t.Error("NewClient() http client is nil")
	}
	if client.cache == nil {
		t.Error("NewClient() should fall back to a null cache")
	}
	if client.headers["Authorization"] != "Bearer token" {
		t.Error("NewClient() headers not set correctly")
	}
}

func TestClientGet(t *testing.T) {
	type response struct {
		Message string `json:"message"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		json.NewEncoder(w).Encode(response{Message: "hello"})
	}))
	defer server.Close()

	client := testClient(t, nil)

	var resp response
	if err := client.Get(context.Background(), server.URL, &resp); err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if resp.Message != "hello" {
		t.Errorf("Get() message = %q, want %q", resp.Message, "hello")
	}
}

func TestClientGetWithHeadersOverridesDefaults(t *testing.T) {
	var override, def string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		override = r.Header.Get("X-Override")
		def = r.Header.Get("X-Default")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}))
	defer server.Close()

	client := testClient(t, map[string]string{"X-Override": "default", "X-Default": "kept"})

	var resp map[string]string
	err := client.GetWithHeaders(context.Background(), server.URL, map[string]string{"X-Override": "overridden"}, &resp)
	if err != nil {
		t.Fatalf("GetWithHeaders() error: %v", err)
	}
	if override != "overridden" {
		t.Errorf("X-Override = %q, want %q", override, "overridden")
	}
	if def != "kept" {
		t.Errorf("X-Default = %q, want %q", def, "kept")
	}
}

func TestClientGetText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{\"a\":1}\n{\"a\":2}\n"))
	}))
	defer server.Close()

	text, err := testClient(t, nil).GetText(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("GetText() error: %v", err)
	}
	if text != "{\"a\":1}\n{\"a\":2}\n" {
		t.Errorf("GetText() = %q", text)
	}
}

func TestClientGetStatusErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		notFound  bool
		wantRetry bool
	}{
		{"not found", http.StatusNotFound, true, false},
		{"server error", http.StatusInternalServerError, false, true},
		{"rate limited", http.StatusTooManyRequests, false, true},
		{"forbidden", http.StatusForbidden, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Retry-After", "3")
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			var resp map[string]string
			err := testClient(t, nil).Get(context.Background(), server.URL, &resp)
			if err == nil {
				t.Fatal("Get() should fail")
			}
			if errors.Is(err, ErrNotFound) != tt.notFound {
				t.Errorf("errors.Is(ErrNotFound) = %v, want %v", !tt.notFound, tt.notFound)
			}
			var re *httputil.RetryableError
			if errors.As(err, &re) != tt.wantRetry {
				t.Errorf("retryable = %v, want %v", !tt.wantRetry, tt.wantRetry)
			}
			if tt.status == http.StatusTooManyRequests && re != nil && re.After != 3*time.Second {
				t.Errorf("After = %v, want 3s", re.After)
			}
		})
	}
}

func TestClientCached(t *testing.T) {
	client := testClient(t, nil)
	ctx := context.Background()

	type payload struct {
		Value string `json:"value"`
	}

	fetches := 0
	load := func(refresh bool) payload {
		var v payload
		err := client.Cached(ctx, "key", refresh, &v, func() error {
			fetches++
			v = payload{Value: "fetched"}
			return nil
		})
		if err != nil {
			t.Fatalf("Cached() error: %v", err)
		}
		return v
	}

	if got := load(false); got.Value != "fetched" {
		t.Errorf("first load = %+v", got)
	}
	if got := load(false); got.Value != "fetched" {
		t.Errorf("cached load = %+v", got)
	}
	if fetches != 1 {
		t.Errorf("fetches = %d, want 1", fetches)
	}

	load(true)
	if fetches != 2 {
		t.Errorf("fetches after refresh = %d, want 2", fetches)
	}
}

func TestClientCachedRetries(t *testing.T) {
	client := testClient(t, nil)

	calls := 0
	var v string
	err := client.Cached(context.Background(), "flaky", true, &v, func() error {
		calls++
		if calls == 1 {
			return &httputil.RetryableError{Err: ErrNetwork}
		}
		v = "ok"
		return nil
	})
	if err != nil || v != "ok" || calls != 2 {
		t.Errorf("err = %v, v = %q, calls = %d", err, v, calls)
	}
}

func TestClientCachedFetchError(t *testing.T) {
	client := testClient(t, nil)

	calls := 0
	var v string
	err := client.Cached(context.Background(), "missing", false, &v, func() error {
		calls++
		return ErrNotFound
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Cached() error = %v, want ErrNotFound", err)
	}
	if calls != 1 {
		t.Errorf("non-retryable error fetched %d times", calls)
	}
}

func TestCheckStatus(t *testing.T) {
	tests := []struct {
		code      int
		wantErr   bool
		wantRetry bool
	}{
		{200, false, false},
		{400, true, false},
		{403, true, false},
		{404, true, false},
		{429, true, true},
		{500, true, true},
		{503, true, true},
	}

	for _, tt := range tests {
		err := checkStatus(tt.code)
		if (err != nil) != tt.wantErr {
			t.Errorf("checkStatus(%d) error = %v", tt.code, err)
		}
		var re *httputil.RetryableError
		if errors.As(err, &re) != tt.wantRetry {
			t.Errorf("checkStatus(%d) retryable mismatch", tt.code)
		}
	}
}

func TestNormalizeCrateName(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Serde", "serde"},
		{"  tokio ", "tokio"},
		{"serde_json", "serde_json"},
	}
	for _, tt := range tests {
		if got := NormalizeCrateName(tt.in); got != tt.want {
			t.Errorf("NormalizeCrateName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
