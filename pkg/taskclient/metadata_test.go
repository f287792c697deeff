package taskclient

import (
	"reflect"
	"testing"
)

func TestDecodeMetadata(t *testing.T) {
	cases := []struct {
		name string
		in   any
		kind MetadataKind
		want any
	}{
		{name: "nil", in: nil, kind: MetadataAbsent, want: nil},
		{name: "json object", in: `{"a":1}`, kind: MetadataDecoded, want: map[string]any{"a": float64(1)}},
		{name: "json scalar", in: `42`, kind: MetadataDecoded, want: float64(42)},
		{name: "invalid json", in: "not json", kind: MetadataRaw, want: "not json"},
		{name: "empty string", in: "", kind: MetadataRaw, want: ""},
		{name: "structured", in: map[string]any{"b": true}, kind: MetadataStructured, want: map[string]any{"b": true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			md, err := DecodeMetadata(tc.in)
			if err != nil {
				t.Fatalf("DecodeMetadata: %v", err)
			}
			if md.Kind != tc.kind {
				t.Fatalf("kind = %s, want %s", md.Kind, tc.kind)
			}
			if !reflect.DeepEqual(md.Value, tc.want) {
				t.Fatalf("value = %#v, want %#v", md.Value, tc.want)
			}
		})
	}
}
