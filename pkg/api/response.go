package api

import (
	"encoding/json"
	"reflect"
	"strings"

	oerrors "github.com/olivekit/oliveapi/pkg/errors"
)

// decodeBody deserializes a response body into T.
//
// Two special cases smooth over server bodies that aren't strict JSON:
//   - An empty body decoded into a bool yields false, treating the
//     response as a void acknowledgment.
//   - A plain-text body decoded into a string is quoted first, so it
//     still goes through the JSON decoder.
//
// A decode failure is reported with the target type's name and never
// propagated as a panic.
func decodeBody[T any](body string) (T, error) {
	var v T

	if body == "" {
		// Zero value doubles as the void ack for bool and friends.
		return v, nil
	}

	text := body
	if _, isString := any(v).(string); isString && !strings.HasPrefix(text, `"`) {
		quoted, err := json.Marshal(text)
		if err == nil {
			text = string(quoted)
		}
	}

	if err := json.Unmarshal([]byte(text), &v); err != nil {
		var zero T
		return zero, oerrors.Wrap(oerrors.ErrCodeDeserialize, err,
			"cannot decode response into %s", typeName[T]())
	}
	return v, nil
}

// extractResponse decodes the exchange's captured body into T, routing any
// decode failure through the client's error handling. The zero value is
// returned on failure; the parse error never escapes as a panic.
func extractResponse[T any](c *Client, r *RequestInfo) (T, error) {
	v, err := decodeBody[T](r.ResponseText)
	if err != nil {
		r.Err = err
		c.report(r, err)
		return finish(c, v, err)
	}
	return v, nil
}

// isZeroValue reports whether v is its type's zero value. Reflection keeps
// it working for non-comparable kinds like slices and maps.
func isZeroValue[T any](v T) bool {
	return reflect.ValueOf(&v).Elem().IsZero()
}

// typeName returns T's simple name for error messages.
func typeName[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	return t.String()
}

// namespaceFor derives the default cache namespace from T: the simple name
// of T's element type, unwrapping pointers, slices, and arrays. Callers
// wanting explicit namespaces pass WithNamespace instead.
func namespaceFor[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return strings.NewReplacer("/", "_", "*", "", "[", "", "]", "").Replace(t.String())
}

// namespaceOf is namespaceFor's runtime counterpart for values whose type
// is not known statically, such as queued entities.
func namespaceOf(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return strings.NewReplacer("/", "_", "*", "", "[", "", "]", "").Replace(t.String())
}
