// Package observability provides hooks for metrics, tracing, and logging.
//
// This package enables optional instrumentation without adding hard dependencies
// on specific observability backends. Consumers can register hooks at startup
// to receive events about HTTP exchanges, cache operations, circuit-breaker
// transitions, and offline-queue activity.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// This approach:
//   - Avoids import cycles (hooks are registered by main, not by libraries)
//   - Keeps the core library dependency-free from observability frameworks
//   - Allows different backends (OpenTelemetry, Prometheus, DataDog, etc.)
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetHTTPHooks(&myHTTPHooks{})
//	    observability.SetQueueHooks(&myQueueHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.HTTP().OnRequest(ctx, method, host, path)
//	// ... send ...
//	observability.HTTP().OnResponse(ctx, method, host, path, status, elapsed)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)

	// OnRetry records a retry attempt. attempt is 1-based and counts
	// retries, not the initial request.
	OnRetry(ctx context.Context, method, host, path string, attempt int)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from response-cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, namespace string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, namespace string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, namespace string, size int)

	// OnFallback records a stale cached value served after a network failure.
	OnFallback(ctx context.Context, namespace string)
}

// =============================================================================
// Breaker Hooks
// =============================================================================

// BreakerHooks receives events from circuit-breaker state transitions.
type BreakerHooks interface {
	// OnOpen records a breaker tripping open for a host.
	OnOpen(host string, consecutiveFailures int)

	// OnClose records a breaker resetting to closed.
	OnClose(host string)

	// OnReject records a call rejected because the breaker is open.
	OnReject(host string)
}

// =============================================================================
// Queue Hooks
// =============================================================================

// QueueHooks receives events from the offline mutation queue.
type QueueHooks interface {
	// OnEnqueue records a mutation queued because the network was unavailable.
	OnEnqueue(ctx context.Context, itemID, method, url string)

	// OnReplay records the outcome of replaying one queued item.
	OnReplay(ctx context.Context, itemID string, applied bool)

	// OnPersistError records a queue-store write that failed after the call
	// already reported success to its caller. This is the data-loss window
	// of the optimistic queue contract.
	OnPersistError(ctx context.Context, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}
func (NoopHTTPHooks) OnRetry(context.Context, string, string, string, int)                   {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}
func (NoopCacheHooks) OnFallback(context.Context, string)      {}

// NoopBreakerHooks is a no-op implementation of BreakerHooks.
type NoopBreakerHooks struct{}

func (NoopBreakerHooks) OnOpen(string, int) {}
func (NoopBreakerHooks) OnClose(string)     {}
func (NoopBreakerHooks) OnReject(string)    {}

// NoopQueueHooks is a no-op implementation of QueueHooks.
type NoopQueueHooks struct{}

func (NoopQueueHooks) OnEnqueue(context.Context, string, string, string) {}
func (NoopQueueHooks) OnReplay(context.Context, string, bool)            {}
func (NoopQueueHooks) OnPersistError(context.Context, error)             {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	httpHooks    HTTPHooks    = NoopHTTPHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
	breakerHooks BreakerHooks = NoopBreakerHooks{}
	queueHooks   QueueHooks   = NoopQueueHooks{}
	hooksMu      sync.RWMutex
)

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any client operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
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

// SetBreakerHooks registers custom circuit-breaker hooks.
// This should be called once at application startup before any client operations.
func SetBreakerHooks(h BreakerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		breakerHooks = h
	}
}

// SetQueueHooks registers custom offline-queue hooks.
// This should be called once at application startup before any queue operations.
func SetQueueHooks(h QueueHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		queueHooks = h
	}
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// Breaker returns the registered circuit-breaker hooks.
func Breaker() BreakerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return breakerHooks
}

// Queue returns the registered offline-queue hooks.
func Queue() QueueHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return queueHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	httpHooks = NoopHTTPHooks{}
	cacheHooks = NoopCacheHooks{}
	breakerHooks = NoopBreakerHooks{}
	queueHooks = NoopQueueHooks{}
}
