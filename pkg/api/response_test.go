package api

import (
	"testing"

	oerrors "github.com/olivekit/oliveapi/pkg/errors"
)

func TestDecodeBody(t *testing.T) {
	t.Run("struct", func(t *testing.T) {
		got, err := decodeBody[widget](`{"ID":"1","Name":"anvil"}`)
		if err != nil {
			t.Fatalf("decodeBody() error: %v", err)
		}
		if got.ID != "1" || got.Name != "anvil" {
			t.Errorf("decodeBody() = %+v", got)
		}
	})

	t.Run("empty body yields zero value", func(t *testing.T) {
		got, err := decodeBody[widget]("")
		if err != nil {
			t.Fatalf("decodeBody() error: %v", err)
		}
		if got != (widget{}) {
			t.Errorf("decodeBody(\"\") = %+v, want zero", got)
		}
	})

	t.Run("bare string is accepted", func(t *testing.T) {
		got, err := decodeBody[string]("pong")
		if err != nil {
			t.Fatalf("decodeBody() error: %v", err)
		}
		if got != "pong" {
			t.Errorf("decodeBody() = %q, want %q", got, "pong")
		}
	})

	t.Run("quoted string is accepted", func(t *testing.T) {
		got, err := decodeBody[string](`"pong"`)
		if err != nil {
			t.Fatalf("decodeBody() error: %v", err)
		}
		if got != "pong" {
			t.Errorf("decodeBody() = %q, want %q", got, "pong")
		}
	})

	t.Run("bool", func(t *testing.T) {
		got, err := decodeBody[bool]("true")
		if err != nil || !got {
			t.Errorf("decodeBody() = (%v, %v), want (true, nil)", got, err)
		}
	})

	t.Run("mismatched shape errors with type name", func(t *testing.T) {
		_, err := decodeBody[widget](`[1,2,3]`)
		if err == nil {
			t.Fatal("decodeBody() expected error, got nil")
		}
		if code := oerrors.GetCode(err); code != oerrors.ErrCodeDeserialize {
			t.Errorf("error code = %q, want %q", code, oerrors.ErrCodeDeserialize)
		}
	})
}

func TestNamespaceFor(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"struct", namespaceFor[widget](), "widget"},
		{"pointer", namespaceFor[*widget](), "widget"},
		{"slice", namespaceFor[[]widget](), "widget"},
		{"slice of pointers", namespaceFor[[]*widget](), "widget"},
		{"scalar", namespaceFor[bool](), "bool"},
		{"map", namespaceFor[map[string]any](), "mapstringinterface {}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("namespaceFor() = %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestNamespaceOf(t *testing.T) {
	if got := namespaceOf(&widget{}); got != "widget" {
		t.Errorf("namespaceOf(&widget{}) = %q, want %q", got, "widget")
	}
	if got := namespaceOf([]widget{}); got != "widget" {
		t.Errorf("namespaceOf([]widget{}) = %q, want %q", got, "widget")
	}
}
