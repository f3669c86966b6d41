// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers register hooks at startup to
// receive events about smoothing passes, pipeline I/O, and cache operations.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// The negflo engine and the pipeline call the hooks; the HTTP server registers
// Prometheus-backed implementations when it starts.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSmoothHooks(&mySmoothHooks{})
//	    observability.SetCacheHooks(&myCacheHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Smooth().OnPassStart(ctx, "sm2", columns)
//	// ... smooth ...
//	observability.Smooth().OnPassComplete(ctx, "sm2", columns, unresolved, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Smooth Hooks
// =============================================================================

// SmoothHooks receives events from the smoothing engine.
type SmoothHooks interface {
	// OnPassStart is called before a mode is applied to every column.
	OnPassStart(ctx context.Context, mode string, columns int)

	// OnPassComplete is called after a pass. unresolved counts the columns
	// left with negative volume that could not be redistributed.
	OnPassComplete(ctx context.Context, mode string, columns, unresolved int, duration time.Duration, err error)
}

// =============================================================================
// Pipeline Hooks
// =============================================================================

// PipelineHooks receives events from the load/write stages of the pipeline.
type PipelineHooks interface {
	// Load events
	OnLoadStart(ctx context.Context, source string)
	OnLoadComplete(ctx context.Context, source string, rows int, duration time.Duration, err error)

	// Write events
	OnWriteComplete(ctx context.Context, path string, size int, err error)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSmoothHooks is a no-op implementation of SmoothHooks.
type NoopSmoothHooks struct{}

func (NoopSmoothHooks) OnPassStart(context.Context, string, int) {}
func (NoopSmoothHooks) OnPassComplete(context.Context, string, int, int, time.Duration, error) {
}

// NoopPipelineHooks is a no-op implementation of PipelineHooks.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnLoadStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnLoadComplete(context.Context, string, int, time.Duration, error) {}
func (NoopPipelineHooks) OnWriteComplete(context.Context, string, int, error)               {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	smoothHooks   SmoothHooks   = NoopSmoothHooks{}
	pipelineHooks PipelineHooks = NoopPipelineHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	hooksMu       sync.RWMutex
)

// SetSmoothHooks registers custom smoothing hooks.
// This should be called once at application startup before any passes run.
func SetSmoothHooks(h SmoothHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		smoothHooks = h
	}
}

// SetPipelineHooks registers custom pipeline hooks.
func SetPipelineHooks(h PipelineHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		pipelineHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// Smooth returns the registered smoothing hooks.
func Smooth() SmoothHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return smoothHooks
}

// Pipeline returns the registered pipeline hooks.
func Pipeline() PipelineHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return pipelineHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	smoothHooks = NoopSmoothHooks{}
	pipelineHooks = NoopPipelineHooks{}
	cacheHooks = NoopCacheHooks{}
}
