package api

import (
	"fmt"
	"net/url"
	"reflect"
)

// encodeQuery flattens a value into URL-encoded name=value pairs.
//
// Structs contribute every exported field (using the field name, or a
// `query` tag when present); maps contribute their entries. Zero values
// are skipped so optional parameters stay off the wire. Field order is
// stable: alphabetical by name.
func encodeQuery(v any) string {
	if v == nil {
		return ""
	}

	values := url.Values{}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return ""
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		for _, key := range rv.MapKeys() {
			addQueryValue(values, fmt.Sprint(key.Interface()), rv.MapIndex(key))
		}
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag := field.Tag.Get("query"); tag != "" {
				if tag == "-" {
					continue
				}
				name = tag
			}
			addQueryValue(values, name, rv.Field(i))
		}
	default:
		return url.QueryEscape(fmt.Sprint(v))
	}

	// Encode sorts by key, so fingerprints for the same logical query are
	// stable.
	return values.Encode()
}

func addQueryValue(values url.Values, name string, rv reflect.Value) {
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.IsZero() {
		return
	}

	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		for i := 0; i < rv.Len(); i++ {
			values.Add(name, fmt.Sprint(rv.Index(i).Interface()))
		}
		return
	}
	values.Add(name, fmt.Sprint(rv.Interface()))
}
