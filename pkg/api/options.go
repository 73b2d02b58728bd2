package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/olivekit/oliveapi/pkg/breaker"
	"github.com/olivekit/oliveapi/pkg/cache"
	"github.com/olivekit/oliveapi/pkg/queue"
)

// CachePolicy controls how a GET interacts with the response cache.
type CachePolicy int

const (
	// CacheAccept tries the network first; on success the body is cached,
	// on failure the last cached value (if any) is served instead. The
	// default policy.
	CacheAccept CachePolicy = iota

	// CachePrefer serves the cached value when one exists, without a
	// network call; on a miss it falls through to the network.
	CachePrefer

	// CachePreferThenUpdate serves the cached value like CachePrefer, then
	// refreshes it in the background with a conditional request. When the
	// body changed, the cache is updated and the refresher callback (if
	// any) is invoked with the newly decoded value.
	CachePreferThenUpdate

	// CacheRefuse never reads or writes the cache; a network failure
	// surfaces as an error with the zero value.
	CacheRefuse
)

// ErrorMode decides how a recorded exchange error reaches the caller.
type ErrorMode int

const (
	// ErrorModeReturn returns errors to the caller. The default.
	ErrorModeReturn ErrorMode = iota

	// ErrorModeReport swallows errors after invoking the client's error
	// callback, returning the zero value instead.
	ErrorModeReport
)

// TokenProvider supplies the current bearer/session token for outbound
// requests. It is consulted on every send, so rotating tokens work without
// reconfiguring the client.
type TokenProvider func(ctx context.Context) (string, error)

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets the base URL that relative request paths resolve
// against.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient replaces the underlying HTTP transport client. The
// provided client's cookie jar is shared across all calls made through
// this Client, which is what cookie-based auth flows rely on.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithRetries configures bounded retry: a failed send is re-attempted up
// to retries more times, pausing between attempts. Zero retries (the
// default) means one attempt total.
func WithRetries(retries int, pause time.Duration) ClientOption {
	return func(c *Client) {
		c.retries = retries
		c.pause = pause
	}
}

// WithCircuitBreaker enables per-host circuit breaking. Hosts trip open
// after threshold consecutive transport failures and reject calls for
// cooldown.
func WithCircuitBreaker(threshold int, cooldown time.Duration) ClientOption {
	return func(c *Client) {
		c.brkCfg = &breaker.Config{Threshold: threshold, Cooldown: cooldown}
	}
}

// WithBreakerRegistry shares breaker state with other clients. Without
// this option each client owns an isolated registry.
func WithBreakerRegistry(r *breaker.Registry) ClientOption {
	return func(c *Client) { c.registry = r }
}

// WithCache sets the response-cache backend. Without it, caching is
// disabled (NullCache).
func WithCache(store cache.Cache) ClientOption {
	return func(c *Client) { c.cache = store }
}

// WithCachePolicyDefault sets the cache policy applied to GETs that don't
// override it per call.
func WithCachePolicyDefault(p CachePolicy) ClientOption {
	return func(c *Client) { c.policy = p }
}

// WithQueue sets the offline-queue store. Without it, mutations that fail
// offline are not queued.
func WithQueue(store queue.Store) ClientOption {
	return func(c *Client) { c.store = store }
}

// WithTokenProvider enables bearer-token authentication via a pluggable
// provider.
func WithTokenProvider(p TokenProvider) ClientOption {
	return func(c *Client) { c.tokenProvider = p }
}

// WithToken enables bearer-token authentication with a static token.
func WithToken(token string) ClientOption {
	return WithTokenProvider(func(context.Context) (string, error) {
		return token, nil
	})
}

// WithServiceIdentity registers the pre-registered service-user credential
// pair used by AsServiceUser.
func WithServiceIdentity(name, secret string) ClientOption {
	return func(c *Client) {
		c.serviceName = name
		c.serviceSecret = secret
	}
}

// WithErrorMode sets how recorded errors reach callers.
func WithErrorMode(m ErrorMode) ClientOption {
	return func(c *Client) { c.errorMode = m }
}

// WithErrorCallback sets the side-channel invoked whenever an exchange
// records an error, regardless of error mode. Useful for UI alerting.
func WithErrorCallback(fn func(error)) ClientOption {
	return func(c *Client) { c.onError = fn }
}

// WithLogger sets the logger used by background refresh and queue replay.
// Without it, background activity is silent.
func WithLogger(l *log.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithRefreshDelay overrides the pause before a background cache refresh
// starts. The delay keeps the refresh from racing the write that just
// completed. Mostly useful in tests.
func WithRefreshDelay(d time.Duration) ClientOption {
	return func(c *Client) { c.refreshDelay = d }
}

// =============================================================================
// Per-call options
// =============================================================================

// callOptions collects per-call settings.
type callOptions struct {
	query        any
	rawQuery     string
	body         any
	rawBody      string
	contentType  string
	namespace    string
	policy       *CachePolicy
	validator    string
	refresher    any // func(T), asserted inside the generic call
	entity       Queueable
	keepSlash    bool
	extraHeaders map[string]string
}

// CallOption configures one request.
type CallOption func(*callOptions)

// WithQuery flattens v into URL query parameters. A string is used
// verbatim; any other value has its exported fields (or map entries)
// encoded as name=value pairs, skipping zero values.
func WithQuery(v any) CallOption {
	return func(o *callOptions) {
		if s, ok := v.(string); ok {
			o.rawQuery = s
			return
		}
		o.query = v
	}
}

// WithJSONBody sends v serialized as JSON with Content-Type
// application/json.
func WithJSONBody(v any) CallOption {
	return func(o *callOptions) { o.body = v }
}

// WithFormBody sends an already-encoded form string with Content-Type
// application/x-www-form-urlencoded.
func WithFormBody(encoded string) CallOption {
	return func(o *callOptions) {
		o.rawBody = encoded
		o.contentType = contentTypeForm
	}
}

// WithNamespace overrides the cache namespace for this call. By default
// the namespace is derived from the response type's element name.
func WithNamespace(ns string) CallOption {
	return func(o *callOptions) { o.namespace = ns }
}

// WithCachePolicy overrides the client's default cache policy for this
// GET.
func WithCachePolicy(p CachePolicy) CallOption {
	return func(o *callOptions) { o.policy = &p }
}

// WithValidator attaches a conditional-GET validator token; a matching
// server responds "not modified" instead of resending the body.
func WithValidator(token string) CallOption {
	return func(o *callOptions) { o.validator = token }
}

// WithRefresher registers the callback invoked by CachePreferThenUpdate
// when the background refresh finds a changed body. fn must be a func(T)
// where T is the call's response type; other signatures are ignored.
func WithRefresher(fn any) CallOption {
	return func(o *callOptions) { o.refresher = fn }
}

// WithEntity associates a mutating call with a queueable record. When the
// send fails because the network is unavailable, the mutation is persisted
// to the offline queue under this entity's identity instead of being lost.
func WithEntity(e Queueable) CallOption {
	return func(o *callOptions) { o.entity = e }
}

// WithHeader adds a request header.
func WithHeader(name, value string) CallOption {
	return func(o *callOptions) {
		if o.extraHeaders == nil {
			o.extraHeaders = make(map[string]string)
		}
		o.extraHeaders[name] = value
	}
}

// KeepTrailingSlash disables the default trailing-slash normalization for
// this call.
func KeepTrailingSlash() CallOption {
	return func(o *callOptions) { o.keepSlash = true }
}
