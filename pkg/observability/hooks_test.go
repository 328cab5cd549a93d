package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Build hooks
	b := NoopBuildHooks{}
	b.OnBuildStart(ctx, "serde")
	b.OnBuildComplete(ctx, "serde", 3, 2, time.Second, nil)
	b.OnResolve(ctx, "serde_derive", time.Millisecond, nil)
	b.OnExport(ctx, "dot", 512, time.Millisecond, nil)

	// Registry hooks
	NoopRegistryHooks{}.OnQuery(ctx, "postgres", "versions", time.Millisecond, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "versions")
	c.OnCacheMiss(ctx, "deps")
	c.OnCacheSet(ctx, "graph", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "crates.io", "/api/v1/crates/serde/versions")
	h.OnResponse(ctx, "GET", "crates.io", "/api/v1/crates/serde/versions", 200, time.Second)
	h.OnError(ctx, "GET", "crates.io", "/api/v1/crates/serde/versions", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Build() should return NoopBuildHooks by default")
	}
	if _, ok := Registry().(NoopRegistryHooks); !ok {
		t.Error("Registry() should return NoopRegistryHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customBuild := &testBuildHooks{}
	SetBuildHooks(customBuild)
	if Build() != customBuild {
		t.Error("SetBuildHooks should set custom hooks")
	}

	customRegistry := &testRegistryHooks{}
	SetRegistryHooks(customRegistry)
	if Registry() != customRegistry {
		t.Error("SetRegistryHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Build().(NoopBuildHooks); !ok {
		t.Error("Reset() should restore NoopBuildHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testBuildHooks{}
	SetBuildHooks(custom)
	SetBuildHooks(nil)

	if Build() != custom {
		t.Error("SetBuildHooks(nil) should be ignored")
	}

	Reset()
}

func TestPrometheusRecordsMetrics(t *testing.T) {
	ctx := context.Background()
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg)

	p.OnBuildComplete(ctx, "serde", 4, 3, 50*time.Millisecond, nil)
	p.OnBuildComplete(ctx, "nope", 0, 0, time.Millisecond, errors.New("boom"))
	p.OnCacheHit(ctx, "versions")
	p.OnCacheHit(ctx, "versions")
	p.OnCacheMiss(ctx, "deps")
	p.OnQuery(ctx, "postgres", "versions", time.Millisecond, nil)
	p.OnResponse(ctx, "GET", "crates.io", "/", 200, time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	got := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				key := mf.GetName()
				for _, l := range m.GetLabel() {
					key += "," + l.GetName() + "=" + l.GetValue()
				}
				got[key] = c.GetValue()
			}
		}
	}

	tests := []struct {
		key  string
		want float64
	}{
		{"cratedeps_builds_total,result=ok", 1},
		{"cratedeps_builds_total,result=error", 1},
		{"cratedeps_cache_operations_total,key_type=versions,outcome=hit", 2},
		{"cratedeps_cache_operations_total,key_type=deps,outcome=miss", 1},
		{"cratedeps_registry_queries_total,op=versions,registry=postgres,result=ok", 1},
		{"cratedeps_http_client_requests_total,host=crates.io,status=200", 1},
	}
	for _, tt := range tests {
		if got[tt.key] != tt.want {
			t.Errorf("%s = %v, want %v", tt.key, got[tt.key], tt.want)
		}
	}
}

func TestNewPrometheusRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewPrometheus(reg)

	defer func() {
		if recover() == nil {
			t.Error("registering the same metrics twice should panic")
		}
	}()
	NewPrometheus(reg)
}

// Test implementations
type testBuildHooks struct{ NoopBuildHooks }
type testRegistryHooks struct{ NoopRegistryHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
