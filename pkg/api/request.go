package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	oerrors "github.com/olivekit/oliveapi/pkg/errors"
	"github.com/olivekit/oliveapi/pkg/observability"
)

const (
	contentTypeJSON = "application/json"
	contentTypeForm = "application/x-www-form-urlencoded"
)

// RequestInfo represents one outbound HTTP exchange. It is created per
// call, owned exclusively by that call, and records both the request and
// its outcome. Failures are reported through Err and the returned ok
// boolean; Send never panics or returns an error for ordinary HTTP or
// transport failures.
type RequestInfo struct {
	Method      string
	URL         string
	Body        string
	ContentType string

	// Validator is an opaque version token sent as an If-None-Match
	// precondition; a matching server replies 304 instead of a body.
	Validator string

	Headers map[string]string
	Cookies []*http.Cookie

	// Outcome, populated by Send.
	StatusCode   int
	ResponseText string

	// Err holds the failure of the exchange, if any. Exactly one of
	// (ResponseText, Err) is meaningful after a completed attempt, except
	// NotModified which sets neither.
	Err error

	// NotModified reports a 304 response: success, keep the cached value.
	NotModified bool

	// NetworkUnavailable distinguishes "no network at all" from server
	// errors. It drives the offline-queue path for mutations.
	NetworkUnavailable bool

	// silent suppresses the error side channel for background exchanges.
	silent bool
}

// host returns the target host for circuit-breaker accounting.
func (r *RequestInfo) host() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	return u.Host
}

// path returns the URL path for observability events.
func (r *RequestInfo) path() string {
	u, err := url.Parse(r.URL)
	if err != nil {
		return r.URL
	}
	return u.Path
}

// reset clears a previous attempt's outcome before a retry.
func (r *RequestInfo) reset() {
	r.StatusCode = 0
	r.ResponseText = ""
	r.Err = nil
	r.NotModified = false
	r.NetworkUnavailable = false
}

// Send transmits the request and records the outcome. It returns true when
// the exchange succeeded (status below 400, or 304 matching the
// validator). Errors are recorded on the RequestInfo, never thrown.
func (r *RequestInfo) Send(ctx context.Context, client *http.Client) bool {
	r.reset()

	var bodyReader io.Reader
	if r.Body != "" {
		bodyReader = strings.NewReader(r.Body)
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bodyReader)
	if err != nil {
		r.Err = oerrors.Wrap(oerrors.ErrCodeInvalidURL, err, "building %s %s", r.Method, r.URL)
		return false
	}

	req.Header.Set("Accept", contentTypeJSON)
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.Validator != "" {
		req.Header.Set("If-None-Match", r.Validator)
	}
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}
	for _, c := range r.Cookies {
		req.AddCookie(c)
	}

	start := time.Now()
	observability.HTTP().OnRequest(ctx, r.Method, r.host(), r.path())

	resp, err := client.Do(req)
	if err != nil {
		r.NetworkUnavailable = isNetworkUnavailable(err)
		code := oerrors.ErrCodeNetwork
		if r.NetworkUnavailable {
			code = oerrors.ErrCodeOffline
		} else if errors.Is(err, context.DeadlineExceeded) {
			code = oerrors.ErrCodeTimeout
		}
		r.Err = oerrors.Wrap(code, err, "%s %s", r.Method, r.URL)
		if !errors.Is(err, context.Canceled) {
			// Transport failures are transient until proven otherwise.
			r.Err = oerrors.Retryable(r.Err)
		}
		observability.HTTP().OnError(ctx, r.Method, r.host(), r.path(), r.Err)
		return false
	}
	defer resp.Body.Close()

	r.StatusCode = resp.StatusCode
	observability.HTTP().OnResponse(ctx, r.Method, r.host(), r.path(), resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotModified {
		r.NotModified = true
		return true
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		r.Err = oerrors.Retryable(oerrors.Wrap(oerrors.ErrCodeNetwork, err, "reading response of %s %s", r.Method, r.URL))
		observability.HTTP().OnError(ctx, r.Method, r.host(), r.path(), r.Err)
		return false
	}

	if resp.StatusCode >= http.StatusBadRequest {
		r.Err = serverError(resp.StatusCode, raw)
		observability.HTTP().OnError(ctx, r.Method, r.host(), r.path(), r.Err)
		return false
	}

	r.ResponseText = string(raw)
	return true
}

// transportFailure reports whether the last attempt failed at the
// transport level (no response obtained). Only these failures count toward
// circuit-breaker accounting.
func (r *RequestInfo) transportFailure() bool {
	return r.Err != nil && r.StatusCode == 0
}

// isNetworkUnavailable classifies whether a transport error means "no
// network available" rather than a misbehaving server. Connection-level
// failures (refused, unreachable, DNS) count; timeouts and protocol errors
// do not, because the network itself was there.
func isNetworkUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return !opErr.Timeout()
	}
	return false
}

// errorEnvelope is the structured error body Olive services return.
type errorEnvelope struct {
	Message          string `json:"Message"`
	ExceptionMessage string `json:"ExceptionMessage"`
	ExceptionType    string `json:"ExceptionType"`
	StackTrace       string `json:"StackTrace"`
}

// serverError extracts a best-effort human message from an error response
// body: the envelope's Message, else its ExceptionMessage, else the raw
// body, else a generic status line. 5xx responses are marked retryable;
// 4xx responses reflect the request itself and retrying cannot fix them.
func serverError(status int, body []byte) error {
	code := oerrors.ErrCodeServer
	switch status {
	case http.StatusNotFound:
		code = oerrors.ErrCodeNotFound
	case http.StatusUnauthorized:
		code = oerrors.ErrCodeUnauthorized
	case http.StatusForbidden:
		code = oerrors.ErrCodeForbidden
	}

	var err error = oerrors.New(code, "the remote service returned status %d", status)
	var env errorEnvelope
	switch {
	case json.Unmarshal(body, &env) == nil && env.Message != "":
		err = oerrors.New(code, "%s", env.Message)
	case env.ExceptionMessage != "":
		err = oerrors.New(code, "%s", env.ExceptionMessage)
	default:
		if text := strings.TrimSpace(string(body)); text != "" {
			err = oerrors.New(code, "%s", text)
		}
	}

	if status >= http.StatusInternalServerError {
		err = oerrors.Retryable(err)
	}
	return err
}
