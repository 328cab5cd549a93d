package crates

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
	"github.com/matzehuels/cratedeps/pkg/integrations"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := NewClient(cache.NewNullCache(), time.Hour).WithBaseURL(baseURL)
	c.WithRetry(httputil.Policy{Attempts: 1})
	return c
}

func TestClient_FetchVersions(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		if r.URL.Path != "/crates/serde/versions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.URL.Query().Get("page") == "2" {
			json.NewEncoder(w).Encode(map[string]any{
				"versions": []Version{{Num: "0.9.0"}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"versions": []Version{{Num: "1.0.1"}, {Num: "1.0.0", Yanked: true}},
			"meta":     map[string]string{"next_page": "?page=2"},
		})
	}))
	defer server.Close()

	versions, err := testClient(t, server.URL).FetchVersions(context.Background(), "serde", true)
	if err != nil {
		t.Fatalf("FetchVersions: %v", err)
	}
	want := []Version{{Num: "1.0.1"}, {Num: "1.0.0", Yanked: true}, {Num: "0.9.0"}}
	if len(versions) != len(want) {
		t.Fatalf("versions = %+v, want %+v", versions, want)
	}
	for i := range want {
		if versions[i] != want[i] {
			t.Errorf("versions[%d] = %+v, want %+v", i, versions[i], want[i])
		}
	}
	if userAgent != integrations.UserAgent {
		t.Errorf("User-Agent = %q", userAgent)
	}
}

func TestClient_FetchDependencies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/crates/serde/1.0.0/dependencies" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(depsResponse{Dependencies: []Dependency{
			{CrateID: "serde_derive", Req: "=1.0.0", Kind: "normal", Optional: true},
			{CrateID: "serde_json", Req: "^1", Kind: "dev"},
		}})
	}))
	defer server.Close()

	deps, err := testClient(t, server.URL).FetchDependencies(context.Background(), "serde", "1.0.0", true)
	if err != nil {
		t.Fatalf("FetchDependencies: %v", err)
	}
	if len(deps) != 2 {
		t.Fatalf("deps = %+v", deps)
	}
	if deps[0].CrateID != "serde_derive" || deps[0].Req != "=1.0.0" || !deps[0].Optional {
		t.Errorf("deps[0] = %+v", deps[0])
	}
	if deps[1].Kind != "dev" {
		t.Errorf("deps[1].Kind = %q, want dev", deps[1].Kind)
	}
}

func TestClient_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := testClient(t, server.URL)
	if _, err := c.FetchVersions(context.Background(), "nonexistent", true); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("FetchVersions error = %v, want ErrNotFound", err)
	}
	if _, err := c.FetchDependencies(context.Background(), "nonexistent", "1.0.0", true); !errors.Is(err, integrations.ErrNotFound) {
		t.Errorf("FetchDependencies error = %v, want ErrNotFound", err)
	}
}

func TestClient_CachesResponses(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode(map[string]any{"versions": []Version{{Num: "1.0.0"}}})
	}))
	defer server.Close()

	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer fc.Close()

	c := NewClient(fc, time.Hour).WithBaseURL(server.URL)
	for range 3 {
		if _, err := c.FetchVersions(context.Background(), "log", false); err != nil {
			t.Fatalf("FetchVersions: %v", err)
		}
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1", hits)
	}
}
