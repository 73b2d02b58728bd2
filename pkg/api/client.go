package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/olivekit/oliveapi/pkg/breaker"
	"github.com/olivekit/oliveapi/pkg/cache"
	oerrors "github.com/olivekit/oliveapi/pkg/errors"
	"github.com/olivekit/oliveapi/pkg/observability"
	"github.com/olivekit/oliveapi/pkg/queue"
)

// Client is the public surface of the resilient API client. Construct it
// once with NewClient and share it; every call creates its own
// RequestInfo, while breaker state, the response cache, and the offline
// queue are shared through the client.
type Client struct {
	baseURL string
	http    *http.Client

	retries int
	pause   time.Duration

	brkCfg   *breaker.Config
	registry *breaker.Registry

	cache  cache.Cache
	policy CachePolicy

	store queue.Store

	tokenProvider TokenProvider
	cookies       []*http.Cookie
	serviceName   string
	serviceSecret string

	errorMode ErrorMode
	onError   func(error)

	logger       *log.Logger
	refreshDelay time.Duration
}

// NewClient creates a Client. Without options it performs plain uncached,
// unauthenticated requests with no retry.
func NewClient(opts ...ClientOption) (*Client, error) {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		http: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		cache:        cache.NewNullCache(),
		registry:     breaker.NewRegistry(),
		pause:        2 * time.Second,
		refreshDelay: time.Second,
		logger:       log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseURL != "" {
		u, err := url.Parse(c.baseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, oerrors.New(oerrors.ErrCodeInvalidURL, "base URL %q is not absolute", c.baseURL)
		}
	}
	if c.retries < 0 {
		return nil, oerrors.New(oerrors.ErrCodeInvalidInput, "retries must be >= 0, got %d", c.retries)
	}
	return c, nil
}

// AsHTTPUser returns a client that propagates the inbound request's auth
// cookies on outbound calls, so a server handling a user's request can
// call other services as that user.
func (c *Client) AsHTTPUser(r *http.Request) *Client {
	derived := *c
	derived.cookies = append([]*http.Cookie(nil), r.Cookies()...)
	return &derived
}

// AsServiceUser returns a client that attaches the pre-registered service
// identity (see WithServiceIdentity) for machine-to-machine calls.
func (c *Client) AsServiceUser() *Client {
	derived := *c
	derived.cookies = []*http.Cookie{
		{Name: "olive.service.user", Value: c.serviceName},
		{Name: "olive.service.key", Value: c.serviceSecret},
	}
	return &derived
}

// Cache exposes the client's cache backend, mainly for management
// commands (purge, inspection).
func (c *Client) Cache() cache.Cache { return c.cache }

// QueueStore exposes the client's offline-queue store, mainly for
// management commands. Nil when offline queueing is disabled.
func (c *Client) QueueStore() queue.Store { return c.store }

// =============================================================================
// Verbs
// =============================================================================

// Get issues a GET and decodes the response into T, honoring the cache
// policy (the client default, or WithCachePolicy per call).
func Get[T any](ctx context.Context, c *Client, target string, opts ...CallOption) (T, error) {
	var zero T

	o := applyOpts(opts)
	policy := c.policy
	if o.policy != nil {
		policy = *o.policy
	}

	ri, err := c.buildRequest(ctx, http.MethodGet, target, o)
	if err != nil {
		c.reportErr(err)
		return finish(c, zero, err)
	}

	ns := o.namespace
	if ns == "" {
		ns = namespaceFor[T]()
	}
	key := cache.Key(ns, ri.URL)

	// Cache-first policies.
	if policy == CachePrefer || policy == CachePreferThenUpdate {
		if data, hit, _ := c.cache.Get(ctx, key); hit {
			if v, derr := decodeBody[T](string(data)); derr == nil && !isZeroValue(v) {
				observability.Cache().OnCacheHit(ctx, ns)
				if policy == CachePreferThenUpdate {
					c.backgroundRefresh(ri, key, ns, data, refreshFunc[T](o.refresher))
				}
				return v, nil
			}
			// An entry that no longer decodes, or holds only the type's
			// default value, is no cache at all.
		}
		observability.Cache().OnCacheMiss(ctx, ns)
	}

	if err := c.do(ctx, ri); err != nil {
		// Staleness fallback: trade freshness for availability.
		if policy == CacheAccept {
			if data, hit, _ := c.cache.Get(ctx, key); hit {
				if v, derr := decodeBody[T](string(data)); derr == nil {
					observability.Cache().OnFallback(ctx, ns)
					return v, nil
				}
			}
		}
		return finish(c, zero, err)
	}

	if ri.NotModified {
		// The validator matched: the cached value is still current.
		// Refuse means refuse on the read side too.
		if policy != CacheRefuse {
			if data, hit, _ := c.cache.Get(ctx, key); hit {
				if v, derr := decodeBody[T](string(data)); derr == nil {
					return v, nil
				}
			}
		}
		return zero, nil
	}

	if policy != CacheRefuse {
		c.persist(ctx, key, ns, ri.ResponseText)
	}
	return extractResponse[T](c, ri)
}

// Post issues a POST and decodes the response into T.
func Post[T any](ctx context.Context, c *Client, target string, opts ...CallOption) (T, error) {
	return mutate[T](ctx, c, http.MethodPost, target, opts)
}

// Put issues a PUT and decodes the response into T.
func Put[T any](ctx context.Context, c *Client, target string, opts ...CallOption) (T, error) {
	return mutate[T](ctx, c, http.MethodPut, target, opts)
}

// Patch issues a PATCH and decodes the response into T.
func Patch[T any](ctx context.Context, c *Client, target string, opts ...CallOption) (T, error) {
	return mutate[T](ctx, c, http.MethodPatch, target, opts)
}

// Delete issues a DELETE and decodes the response into T. Use bool as T
// for endpoints that return an empty acknowledgment.
func Delete[T any](ctx context.Context, c *Client, target string, opts ...CallOption) (T, error) {
	return mutate[T](ctx, c, http.MethodDelete, target, opts)
}

// mutate runs the shared non-GET path: send, and on a connectivity
// failure with an associated queueable entity, durably queue the mutation
// and report it as sent.
func mutate[T any](ctx context.Context, c *Client, method, target string, opts []CallOption) (T, error) {
	var zero T

	o := applyOpts(opts)
	ri, err := c.buildRequest(ctx, method, target, o)
	if err != nil {
		c.reportErr(err)
		return finish(c, zero, err)
	}

	if err := c.do(ctx, ri); err == nil {
		return extractResponse[T](c, ri)
	}

	if ri.NetworkUnavailable && o.entity != nil && c.store != nil {
		ns := o.namespace
		if ns == "" {
			ns = namespaceOf(o.entity)
		}
		c.enqueueOffline(ctx, ns, ri, o.entity)
		// The mutation is durably queued, not lost: report it as sent.
		return zero, nil
	}
	return finish(c, zero, ri.Err)
}

// =============================================================================
// Pipeline
// =============================================================================

// do executes one exchange through the retry loop and circuit breaker.
// It returns nil on success; on failure the error is also recorded on ri.
func (c *Client) do(ctx context.Context, ri *RequestInfo) error {
	var br *breaker.Breaker
	if c.brkCfg != nil {
		br = c.registry.Get(ri.host(), *c.brkCfg)
	}

	for attempt := 0; ; attempt++ {
		if br != nil {
			if err := br.Allow(); err != nil {
				// Fail fast: no network attempt, no retry consumed.
				ri.Err = err
				c.report(ri, err)
				return err
			}
		}

		if ri.Send(ctx, c.http) {
			if br != nil {
				br.Success()
			}
			return nil
		}

		tripped := false
		if br != nil && ri.transportFailure() {
			br.Failure()
			tripped = br.State() == breaker.StateOpen
		}

		// Retrying only helps transient failures; a 4xx or a cancelled
		// context would fail the same way every time.
		if tripped || attempt >= c.retries || !oerrors.IsRetryable(ri.Err) {
			c.report(ri, ri.Err)
			return ri.Err
		}

		observability.HTTP().OnRetry(ctx, ri.Method, ri.host(), ri.path(), attempt+1)
		select {
		case <-ctx.Done():
			ri.Err = ctx.Err()
			return ri.Err
		case <-time.After(c.pause):
		}
	}
}

// persist writes a successful response body to the cache. Only called
// when the exchange completed with no error.
func (c *Client) persist(ctx context.Context, key, ns, body string) {
	if err := c.cache.Set(ctx, key, []byte(body), 0); err != nil {
		c.logger.Warn("response cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, ns, len(body))
}

// report fires the side-channel error callback. Background work marks its
// exchanges silent so alerting callbacks only see caller-facing failures.
func (c *Client) report(ri *RequestInfo, err error) {
	if ri.silent {
		return
	}
	c.reportErr(err)
}

// reportErr fires the side-channel callback for failures that happen before
// an exchange exists: URL resolution, body encoding, token fetching.
func (c *Client) reportErr(err error) {
	if c.onError == nil || err == nil {
		return
	}
	c.onError(err)
}

// finish maps a recorded error through the client's error mode.
func finish[T any](c *Client, v T, err error) (T, error) {
	if err == nil {
		return v, nil
	}
	if c.errorMode == ErrorModeReport {
		var zero T
		return zero, nil
	}
	return v, err
}

// =============================================================================
// Request building
// =============================================================================

func applyOpts(opts []CallOption) *callOptions {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// buildRequest resolves the target URL, encodes query and body, and
// attaches authentication.
func (c *Client) buildRequest(ctx context.Context, method, target string, o *callOptions) (*RequestInfo, error) {
	resolved, err := c.resolveURL(target)
	if err != nil {
		return nil, err
	}

	q := o.rawQuery
	if o.query != nil {
		q = encodeQuery(o.query)
	}
	if q != "" {
		sep := "?"
		if strings.Contains(resolved, "?") {
			sep = "&"
		}
		resolved += sep + strings.TrimPrefix(q, "?")
	}

	// Trailing-slash normalization keeps "users" and "users/" on one
	// cache fingerprint. Skipped when a query string is present.
	if !o.keepSlash && !strings.Contains(resolved, "?") {
		resolved = strings.TrimSuffix(resolved, "/")
	}

	ri := &RequestInfo{
		Method:    method,
		URL:       resolved,
		Validator: o.validator,
		Headers:   make(map[string]string, len(o.extraHeaders)+1),
	}
	for k, v := range o.extraHeaders {
		ri.Headers[k] = v
	}

	switch {
	case o.rawBody != "":
		ri.Body = o.rawBody
		ri.ContentType = o.contentType
		if ri.ContentType == "" {
			ri.ContentType = contentTypeForm
		}
	case o.body != nil:
		data, err := json.Marshal(o.body)
		if err != nil {
			return nil, oerrors.Wrap(oerrors.ErrCodeInvalidInput, err, "encoding request body")
		}
		ri.Body = string(data)
		ri.ContentType = contentTypeJSON
	}

	if err := c.prepareAuth(ctx, ri); err != nil {
		return nil, err
	}
	return ri, nil
}

// resolveURL makes target absolute against the client's base URL.
func (c *Client) resolveURL(target string) (string, error) {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target, nil
	}
	if c.baseURL == "" {
		return "", oerrors.New(oerrors.ErrCodeInvalidURL, "relative URL %q with no base URL configured", target)
	}
	return strings.TrimSuffix(c.baseURL, "/") + "/" + strings.TrimPrefix(target, "/"), nil
}

// prepareAuth attaches the bearer token and identity cookies.
func (c *Client) prepareAuth(ctx context.Context, ri *RequestInfo) error {
	if c.tokenProvider != nil {
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return oerrors.Wrap(oerrors.ErrCodeUnauthorized, err, "fetching session token")
		}
		if token != "" {
			ri.Headers["Authorization"] = "Bearer " + token
		}
	}
	if len(c.cookies) > 0 {
		ri.Cookies = append(ri.Cookies, c.cookies...)
	}
	return nil
}

// =============================================================================
// Background refresh
// =============================================================================

// refreshFunc adapts the untyped refresher option to a typed callback.
// Returns nil when no usable refresher was supplied.
func refreshFunc[T any](refresher any) func(string) {
	fn, ok := refresher.(func(T))
	if !ok {
		return nil
	}
	return func(body string) {
		if v, err := decodeBody[T](body); err == nil {
			fn(v)
		}
	}
}

// backgroundRefresh re-requests a cached URL after a short delay, using
// the cached body's content hash as a conditional validator. A changed
// body is persisted and handed to the refresher. Failures are logged and
// never reach the caller, whose call already returned.
func (c *Client) backgroundRefresh(ri *RequestInfo, key, ns string, cached []byte, refresh func(string)) {
	fresh := &RequestInfo{
		Method:    ri.Method,
		URL:       ri.URL,
		Headers:   ri.Headers,
		Cookies:   ri.Cookies,
		Validator: cache.Hash(cached),
		silent:    true,
	}

	go func() {
		defer func() {
			if p := recover(); p != nil {
				err := oerrors.New(oerrors.ErrCodeInternal, "background refresh panicked: %v", p)
				c.logger.Error("background refresh panicked", "url", fresh.URL, "err", err)
			}
		}()

		// Give the primary call's cache write a moment to settle.
		time.Sleep(c.refreshDelay)

		ctx := context.Background()
		if err := c.do(ctx, fresh); err != nil {
			c.logger.Debug("background refresh failed", "url", fresh.URL, "err", err)
			return
		}
		if fresh.NotModified {
			return
		}
		// Content-hash comparison works even against servers that ignore
		// the conditional header.
		if cache.Hash([]byte(fresh.ResponseText)) == cache.Hash(cached) {
			return
		}

		c.persist(ctx, key, ns, fresh.ResponseText)
		if refresh != nil {
			refresh(fresh.ResponseText)
		}
	}()
}
