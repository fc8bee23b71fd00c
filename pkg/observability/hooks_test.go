package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnLoadStart(ctx, "safe.eth", "dir")
	p.OnLoadComplete(ctx, "safe.eth", 10, time.Second, nil)
	p.OnComputeStart(ctx, "safe.eth", 100)
	p.OnComputeComplete(ctx, "safe.eth", time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "result")
	c.OnCacheMiss(ctx, "result")
	c.OnCacheSet(ctx, "http", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "api.thegraph.com", "/subgraphs/name/x")
	h.OnResponse(ctx, "POST", "api.thegraph.com", "/subgraphs/name/x", 200, time.Second)
	h.OnError(ctx, "POST", "api.thegraph.com", "/subgraphs/name/x", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
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
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)
	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	m := NewMetrics(prometheus.NewRegistry())

	m.OnComputeStart(ctx, "safe.eth", 42)
	m.OnComputeComplete(ctx, "safe.eth", time.Millisecond, nil)
	m.OnComputeComplete(ctx, "safe.eth", time.Millisecond, errors.New("boom"))
	m.OnCacheHit(ctx, "result")
	m.OnCacheSet(ctx, "result", 512)
	m.OnResponse(ctx, "POST", "example.com", "/", 200, time.Millisecond)
	m.OnError(ctx, "POST", "example.com", "/", errors.New("refused"))

	tests := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"graph nodes", m.graphNodes.WithLabelValues("safe.eth"), 42},
		{"ok computations", m.computes.WithLabelValues("safe.eth", "ok"), 1},
		{"failed computations", m.computes.WithLabelValues("safe.eth", "error"), 1},
		{"cache hits", m.cache.WithLabelValues("result", "hit"), 1},
		{"cache bytes", m.cacheBytes.WithLabelValues("result"), 512},
		{"upstream ok", m.requests.WithLabelValues("example.com", "200"), 1},
		{"upstream errors", m.requests.WithLabelValues("example.com", "error"), 1},
	}
	for _, tt := range tests {
		if got := testutil.ToFloat64(tt.c); got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
