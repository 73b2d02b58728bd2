// Package pkg provides the core libraries of the Olive API client.
//
// # Overview
//
// Oliveapi wraps HTTP access to Olive services with the resilience behaviors
// client applications need in the field: bounded retry, per-host circuit
// breaking, response caching with selectable policies, and a durable offline
// queue for mutations made without connectivity.
//
// The packages are organized by concern:
//
//   - [api] - The client façade: typed verbs, cache policies, offline
//     queueing, authentication.
//   - [breaker] - Per-host circuit breaker and shared registry.
//   - [cache] - Response cache backends (file, memory, redis, null).
//   - [queue] - Durable offline-mutation queue (file, mongo).
//   - [config] - TOML + environment configuration.
//   - [errors] - Coded errors shared across the module.
//   - [observability] - Hook points for request, cache, breaker, and queue
//     events.
//
// # Quick Start
//
// Build a client and make typed calls:
//
//	client, _ := api.NewClient(
//	    api.WithBaseURL("https://api.olive.example"),
//	    api.WithRetries(2, 2*time.Second),
//	    api.WithCircuitBreaker(3, 30*time.Second),
//	)
//
//	listings, err := api.Get[[]Listing](ctx, client, "/listings",
//	    api.WithCachePolicy(api.CachePreferThenUpdate),
//	    api.WithRefresher(func(fresh []Listing) { render(fresh) }),
//	)
//
// Mutations survive connectivity loss when an entity is attached:
//
//	_, err = api.Post[Listing](ctx, client, "/listings",
//	    api.WithJSONBody(listing), api.WithEntity(listing))
//
// Replay them once the network returns:
//
//	applied, rejected, err := client.ReplayQueue(ctx)
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...
package pkg
