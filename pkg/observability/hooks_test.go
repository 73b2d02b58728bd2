package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingHTTPHooks struct {
	mu        sync.Mutex
	requests  int
	responses int
	errors    int
	retries   int
}

func (h *countingHTTPHooks) OnRequest(context.Context, string, string, string) {
	h.mu.Lock()
	h.requests++
	h.mu.Unlock()
}

func (h *countingHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {
	h.mu.Lock()
	h.responses++
	h.mu.Unlock()
}

func (h *countingHTTPHooks) OnError(context.Context, string, string, string, error) {
	h.mu.Lock()
	h.errors++
	h.mu.Unlock()
}

func (h *countingHTTPHooks) OnRetry(context.Context, string, string, string, int) {
	h.mu.Lock()
	h.retries++
	h.mu.Unlock()
}

func TestSetAndGetHTTPHooks(t *testing.T) {
	defer Reset()

	hooks := &countingHTTPHooks{}
	SetHTTPHooks(hooks)

	ctx := context.Background()
	HTTP().OnRequest(ctx, "GET", "api.example.com", "/users")
	HTTP().OnResponse(ctx, "GET", "api.example.com", "/users", 200, time.Millisecond)
	HTTP().OnRetry(ctx, "GET", "api.example.com", "/users", 1)

	if hooks.requests != 1 || hooks.responses != 1 || hooks.retries != 1 {
		t.Errorf("hook counts = %d/%d/%d, want 1/1/1", hooks.requests, hooks.responses, hooks.retries)
	}
}

func TestSetNilKeepsExisting(t *testing.T) {
	defer Reset()

	hooks := &countingHTTPHooks{}
	SetHTTPHooks(hooks)
	SetHTTPHooks(nil)

	HTTP().OnRequest(context.Background(), "GET", "h", "/")
	if hooks.requests != 1 {
		t.Error("nil registration should not replace existing hooks")
	}
}

func TestReset(t *testing.T) {
	hooks := &countingHTTPHooks{}
	SetHTTPHooks(hooks)
	Reset()

	HTTP().OnRequest(context.Background(), "GET", "h", "/")
	if hooks.requests != 0 {
		t.Error("Reset should restore no-op hooks")
	}
}

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	// Must not panic.
	ctx := context.Background()
	Cache().OnCacheHit(ctx, "users")
	Cache().OnFallback(ctx, "users")
	Breaker().OnOpen("api.example.com", 3)
	Breaker().OnReject("api.example.com")
	Queue().OnEnqueue(ctx, "id", "POST", "https://api.example.com/users")
	Queue().OnPersistError(ctx, nil)
}

func TestConcurrentAccess(t *testing.T) {
	defer Reset()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			SetHTTPHooks(&countingHTTPHooks{})
		}()
		go func() {
			defer wg.Done()
			HTTP().OnRequest(context.Background(), "GET", "h", "/")
		}()
	}
	wg.Wait()
}
