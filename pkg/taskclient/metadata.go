package taskclient

import (
	"encoding/json"
	"errors"
)

// MetadataKind reports how a json_metadata value was resolved.
type MetadataKind int

const (
	// MetadataAbsent means the field was missing or null.
	MetadataAbsent MetadataKind = iota
	// MetadataStructured means the server already sent a non-string value.
	MetadataStructured
	// MetadataDecoded means a JSON-encoded string was decoded.
	MetadataDecoded
	// MetadataRaw means the string was not valid JSON and is kept verbatim.
	MetadataRaw
)

func (k MetadataKind) String() string {
	switch k {
	case MetadataAbsent:
		return "absent"
	case MetadataStructured:
		return "structured"
	case MetadataDecoded:
		return "decoded"
	case MetadataRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Metadata is the result of decoding a json_metadata value.
type Metadata struct {
	Kind  MetadataKind
	Value any
}

// decodeJSON is swapped in tests to exercise non-syntax failures.
var decodeJSON = func(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// DecodeMetadata resolves a json_metadata value. Strings holding valid JSON are
// decoded; strings with a JSON syntax error are returned as MetadataRaw with
// the original text. Any other decode failure is returned as an error.
func DecodeMetadata(v any) (Metadata, error) {
	switch val := v.(type) {
	case nil:
		return Metadata{Kind: MetadataAbsent}, nil
	case string:
		var decoded any
		if err := decodeJSON([]byte(val), &decoded); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				return Metadata{Kind: MetadataRaw, Value: val}, nil
			}
			return Metadata{}, err
		}
		return Metadata{Kind: MetadataDecoded, Value: decoded}, nil
	default:
		return Metadata{Kind: MetadataStructured, Value: val}, nil
	}
}
