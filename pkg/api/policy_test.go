package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/olivekit/oliveapi/pkg/cache"
)

// flakyServer serves widgets until fail is set, then only errors.
func flakyServer(t *testing.T, body string) (*httptest.Server, *atomic.Bool, *atomic.Int32) {
	t.Helper()

	var fail atomic.Bool
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if fail.Load() {
			http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &fail, &hits
}

func cachedClient(t *testing.T, serverURL string, opts ...ClientOption) *Client {
	t.Helper()

	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	return mustClient(t, append([]ClientOption{
		WithBaseURL(serverURL),
		WithCache(backend),
	}, opts...)...)
}

func TestAcceptPolicyFallsBackToCache(t *testing.T) {
	server, fail, _ := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	c := cachedClient(t, server.URL)
	ctx := context.Background()

	// Populate the cache with a live response.
	first, err := Get[widget](ctx, c, "/widgets/1")
	if err != nil {
		t.Fatalf("priming Get() error: %v", err)
	}

	fail.Store(true)

	got, err := Get[widget](ctx, c, "/widgets/1")
	if err != nil {
		t.Fatalf("Get() with cached fallback error: %v", err)
	}
	if got != first {
		t.Errorf("fallback value = %+v, want cached %+v", got, first)
	}
}

func TestRefusePolicySkipsCacheBothWays(t *testing.T) {
	server, fail, _ := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	c := cachedClient(t, server.URL)
	ctx := context.Background()

	// Prime through the default Accept policy, then break the server.
	if _, err := Get[widget](ctx, c, "/widgets/1"); err != nil {
		t.Fatalf("priming Get() error: %v", err)
	}
	fail.Store(true)

	if _, err := Get[widget](ctx, c, "/widgets/1", WithCachePolicy(CacheRefuse)); err == nil {
		t.Error("CacheRefuse served a cached value instead of erroring")
	}
}

func TestRefusePolicyDoesNotWrite(t *testing.T) {
	server, _, _ := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	c := cachedClient(t, server.URL)
	ctx := context.Background()

	if _, err := Get[widget](ctx, c, "/widgets/1", WithCachePolicy(CacheRefuse)); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	keys, err := c.cache.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("CacheRefuse wrote %d cache entries, want 0", len(keys))
	}
}

func TestPreferPolicyServesCacheWithoutNetwork(t *testing.T) {
	server, _, hits := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	c := cachedClient(t, server.URL)
	ctx := context.Background()

	if _, err := Get[widget](ctx, c, "/widgets/1"); err != nil {
		t.Fatalf("priming Get() error: %v", err)
	}
	before := hits.Load()

	got, err := Get[widget](ctx, c, "/widgets/1", WithCachePolicy(CachePrefer))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "anvil" {
		t.Errorf("Get() = %+v, want cached anvil", got)
	}
	if hits.Load() != before {
		t.Error("CachePrefer hit the network despite a cached value")
	}
}

func TestPreferPolicyFallsThroughOnMiss(t *testing.T) {
	server, _, hits := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	c := cachedClient(t, server.URL)

	got, err := Get[widget](context.Background(), c, "/widgets/1", WithCachePolicy(CachePrefer))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "anvil" || hits.Load() != 1 {
		t.Errorf("miss fall-through: got %+v after %d requests, want anvil after 1", got, hits.Load())
	}
}

func TestPreferPolicySkipsDefaultCachedValue(t *testing.T) {
	server, _, hits := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	c := cachedClient(t, server.URL)
	ctx := context.Background()

	// A literal null decodes cleanly into the zero widget; serving it
	// would hand the caller an empty value while the network was fine.
	key := cache.Key("widget", server.URL+"/widgets/1")
	if err := c.cache.Set(ctx, key, []byte(`null`), 0); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	got, err := Get[widget](ctx, c, "/widgets/1", WithCachePolicy(CachePrefer))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "anvil" || hits.Load() != 1 {
		t.Errorf("default cached value short-circuited: got %+v after %d requests, want anvil after 1", got, hits.Load())
	}
}

func TestPreferThenUpdateRefreshesChangedBody(t *testing.T) {
	var body atomic.Value
	body.Store(`{"ID":"1","Name":"anvil"}`)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body.Load().(string)))
	}))
	defer server.Close()

	refreshed := make(chan widget, 1)
	c := cachedClient(t, server.URL, WithRefreshDelay(time.Millisecond))
	ctx := context.Background()

	if _, err := Get[widget](ctx, c, "/widgets/1"); err != nil {
		t.Fatalf("priming Get() error: %v", err)
	}
	body.Store(`{"ID":"1","Name":"sledgehammer"}`)

	got, err := Get[widget](ctx, c, "/widgets/1",
		WithCachePolicy(CachePreferThenUpdate),
		WithRefresher(func(w widget) { refreshed <- w }))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "anvil" {
		t.Errorf("immediate value = %+v, want the stale cached anvil", got)
	}

	select {
	case fresh := <-refreshed:
		if fresh.Name != "sledgehammer" {
			t.Errorf("refreshed value = %+v, want sledgehammer", fresh)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("refresher was not invoked for a changed body")
	}

	// The cache must now hold the new body.
	key := cache.Key("widget", server.URL+"/widgets/1")
	data, hit, _ := c.cache.Get(ctx, key)
	if !hit {
		t.Fatal("cache entry missing after refresh")
	}
	var stored widget
	if err := json.Unmarshal(data, &stored); err != nil || stored.Name != "sledgehammer" {
		t.Errorf("cached body after refresh = %s, want sledgehammer", data)
	}
}

func TestPreferThenUpdateSkipsUnchangedBody(t *testing.T) {
	server, _, _ := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	refreshed := make(chan widget, 1)
	c := cachedClient(t, server.URL, WithRefreshDelay(time.Millisecond))
	ctx := context.Background()

	if _, err := Get[widget](ctx, c, "/widgets/1"); err != nil {
		t.Fatalf("priming Get() error: %v", err)
	}

	if _, err := Get[widget](ctx, c, "/widgets/1",
		WithCachePolicy(CachePreferThenUpdate),
		WithRefresher(func(w widget) { refreshed <- w })); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	select {
	case w := <-refreshed:
		t.Errorf("refresher invoked with %+v for an unchanged body", w)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotModifiedServesCachedValue(t *testing.T) {
	var conditional atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if conditional.Load() && r.Header.Get("If-None-Match") == "v1" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte(`{"ID":"1","Name":"anvil"}`))
	}))
	defer server.Close()

	c := cachedClient(t, server.URL)
	ctx := context.Background()

	if _, err := Get[widget](ctx, c, "/widgets/1"); err != nil {
		t.Fatalf("priming Get() error: %v", err)
	}
	conditional.Store(true)

	got, err := Get[widget](ctx, c, "/widgets/1", WithValidator("v1"))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got.Name != "anvil" {
		t.Errorf("304 value = %+v, want cached anvil", got)
	}
}

func TestRefusePolicyIgnoresNotModifiedCache(t *testing.T) {
	var conditional atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if conditional.Load() && r.Header.Get("If-None-Match") == "v1" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte(`{"ID":"1","Name":"anvil"}`))
	}))
	defer server.Close()

	c := cachedClient(t, server.URL)
	ctx := context.Background()

	if _, err := Get[widget](ctx, c, "/widgets/1"); err != nil {
		t.Fatalf("priming Get() error: %v", err)
	}
	conditional.Store(true)

	got, err := Get[widget](ctx, c, "/widgets/1", WithValidator("v1"), WithCachePolicy(CacheRefuse))
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if got != (widget{}) {
		t.Errorf("304 under CacheRefuse = %+v, want zero value without a cache read", got)
	}
}

func TestNamespaceOverride(t *testing.T) {
	server, _, _ := flakyServer(t, `{"ID":"1","Name":"anvil"}`)
	c := cachedClient(t, server.URL)
	ctx := context.Background()

	if _, err := Get[widget](ctx, c, "/widgets/1", WithNamespace("inventory")); err != nil {
		t.Fatalf("Get() error: %v", err)
	}

	keys, err := c.cache.Keys(ctx, "inventory/")
	if err != nil {
		t.Fatalf("Keys() error: %v", err)
	}
	if len(keys) != 1 {
		t.Errorf("entries under inventory/ = %d, want 1", len(keys))
	}
}
