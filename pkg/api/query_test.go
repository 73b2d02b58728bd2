package api

import "testing"

func TestEncodeQuery(t *testing.T) {
	type filter struct {
		Page     int      `query:"page"`
		PageSize int      `query:"page_size"`
		Tags     []string `query:"tags"`
		Sort     string
		Internal string `query:"-"`
		hidden   string
	}

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"empty struct", filter{}, ""},
		{
			"struct with tags and slices",
			filter{Page: 2, Tags: []string{"a", "b"}, Sort: "name", Internal: "x", hidden: "y"},
			"Sort=name&page=2&tags=a&tags=b",
		},
		{
			"zero fields skipped",
			filter{Page: 1},
			"page=1",
		},
		{
			"map",
			map[string]any{"b": 2, "a": "one"},
			"a=one&b=2",
		},
		{
			"map skips zero values",
			map[string]any{"a": "", "b": 0, "c": "keep"},
			"c=keep",
		},
		{
			"pointer to struct",
			&filter{Page: 3},
			"page=3",
		},
		{
			"scalar",
			42,
			"42",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := encodeQuery(tt.in); got != tt.want {
				t.Errorf("encodeQuery(%+v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeQueryEscapes(t *testing.T) {
	got := encodeQuery(map[string]string{"q": "anvils & girders"})
	want := "q=anvils+%26+girders"
	if got != want {
		t.Errorf("encodeQuery() = %q, want %q", got, want)
	}
}
