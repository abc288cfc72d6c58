// Package observability lets callers observe pipeline runs, cache traffic and
// API requests without this module depending on a metrics backend.
//
// # Hooks
//
// Three interfaces cover the event categories:
//
//   - [PipelineHooks]: decode, each rewrite pass, sort, encode
//   - [CacheHooks]: result and artifact cache hits, misses and writes
//   - [HTTPHooks]: requests and responses of the HTTP API, keyed by route pattern
//
// Every category defaults to a no-op. Binaries register implementations once
// at startup, before the first pipeline run:
//
//	observability.Install(observability.NewLogHooks(logger))
//
// Libraries emit events through the accessors:
//
//	observability.Pipeline().OnPassStart(ctx, "lower-gemm", g.NodeCount())
//	res := pass.Run(g)
//	observability.Pipeline().OnPassComplete(ctx, "lower-gemm", changes, time.Since(start))
//
// [LogHooks] is the bundled implementation; it writes every event to a
// charmbracelet/log logger at debug level.
package observability

import (
	"context"
	"sync"
	"time"
)

// PipelineHooks receives events from the optimization pipeline.
type PipelineHooks interface {
	OnDecodeComplete(ctx context.Context, nodeCount int, duration time.Duration, err error)

	// changes is the number of nodes and initializers the pass lowered,
	// inserted or removed.
	OnPassStart(ctx context.Context, pass string, nodeCount int)
	OnPassComplete(ctx context.Context, pass string, changes int, duration time.Duration)

	OnSortComplete(ctx context.Context, nodeCount int, duration time.Duration, err error)
	OnEncodeComplete(ctx context.Context, size int, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType is "result" or "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP API. route is the matched route
// pattern (for example "/v1/optimize"), never the raw request path.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, route string)
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnDecodeComplete(context.Context, int, time.Duration, error) {}
func (NoopPipelineHooks) OnPassStart(context.Context, string, int)                    {}
func (NoopPipelineHooks) OnPassComplete(context.Context, string, int, time.Duration)  {}
func (NoopPipelineHooks) OnSortComplete(context.Context, int, time.Duration, error)   {}
func (NoopPipelineHooks) OnEncodeComplete(context.Context, int, time.Duration, error) {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// =============================================================================
// Registry
// =============================================================================

type registry struct {
	pipeline PipelineHooks
	cache    CacheHooks
	http     HTTPHooks
}

func defaults() registry {
	return registry{NoopPipelineHooks{}, NoopCacheHooks{}, NoopHTTPHooks{}}
}

var (
	mu    sync.RWMutex
	hooks = defaults()
)

// SetPipelineHooks registers pipeline hooks. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	hooks.pipeline = h
	mu.Unlock()
}

// SetCacheHooks registers cache hooks. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	hooks.cache = h
	mu.Unlock()
}

// SetHTTPHooks registers HTTP hooks. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	hooks.http = h
	mu.Unlock()
}

// Install registers h for every hook interface it implements and reports
// how many categories it took over.
func Install(h any) int {
	var n int
	if p, ok := h.(PipelineHooks); ok {
		SetPipelineHooks(p)
		n++
	}
	if c, ok := h.(CacheHooks); ok {
		SetCacheHooks(c)
		n++
	}
	if x, ok := h.(HTTPHooks); ok {
		SetHTTPHooks(x)
		n++
	}
	return n
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	mu.RLock()
	defer mu.RUnlock()
	return hooks.pipeline
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return hooks.cache
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	mu.RLock()
	defer mu.RUnlock()
	return hooks.http
}

// Reset restores the no-op hooks. Tests call it in cleanup.
func Reset() {
	mu.Lock()
	hooks = defaults()
	mu.Unlock()
}
