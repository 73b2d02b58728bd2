// Package api provides a resilient HTTP client for Olive service APIs.
//
// The client composes four mechanisms around a plain HTTP exchange:
//
//   - Bounded retry: a failed send is re-attempted up to a configured
//     number of times with a pause between attempts.
//   - Per-host circuit breaking: after N consecutive transport failures
//     against one host, calls to it fail fast for a cooldown window.
//   - Response caching: the last successful GET body for each
//     (namespace, URL) pair is persisted locally and can be preferred,
//     refreshed in the background, or used as a fallback when the network
//     fails.
//   - Offline queueing: mutations that fail because no network is
//     available are recorded durably and replayed later.
//
// # Calls
//
// Verb helpers are generic over the response type:
//
//	client, _ := api.NewClient(api.WithBaseURL("https://api.example.com"))
//	user, err := api.Get[User](ctx, client, "/users/1")
//	created, err := api.Post[User](ctx, client, "/users", api.WithJSONBody(newUser))
//
// GETs accept a cache policy:
//
//	users, err := api.Get[[]User](ctx, client, "/users",
//	    api.WithCachePolicy(api.CachePrefer))
//
// # Authentication
//
// Two authentication models coexist. Token-based auth attaches a bearer
// token from a pluggable provider; cookie-based auth shares a cookie
// container across calls on the same client. AsHTTPUser propagates the
// current inbound request's cookies outward, AsServiceUser attaches a
// pre-registered service identity.
//
// # Error handling
//
// Low-level failures are recorded on the exchange and surfaced according
// to the client's error mode: ErrorModeReturn (default) returns the error
// to the caller, ErrorModeReport invokes the configured error callback and
// returns the zero value. Background refresh and queue replay never
// surface errors to callers; they log and emit observability events only.
package api
