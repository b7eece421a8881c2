package drawing

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"edgealign/internal/domain"
)

var (
	// ErrNoArray means the text has no '[' ... ']' span.
	ErrNoArray = errors.New("no array found")
	// ErrInvalidJSON means the located span is not valid JSON.
	ErrInvalidJSON = errors.New("invalid json")
	// ErrNotArray means the located span parsed to something other than an array.
	ErrNotArray = errors.New("parsed value is not an array")
)

// extractArray returns the span from the first '[' to the last ']' of the
// trimmed text, which lets the array sit inside prose or a code fence.
func extractArray(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	start := strings.IndexByte(trimmed, '[')
	end := strings.LastIndexByte(trimmed, ']')
	if start < 0 || end < start {
		return "", ErrNoArray
	}
	return trimmed[start : end+1], nil
}

// decodeArray splits the span into raw elements. Elements stay raw so the
// ones that are not rewritten are emitted exactly as they came in.
func decodeArray(span string) ([]json.RawMessage, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal([]byte(span), &raws); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, fmt.Errorf("%w: got %s", ErrNotArray, typeErr.Value)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if raws == nil {
		return nil, fmt.Errorf("%w: got null", ErrNotArray)
	}
	// A null entry fails the whole document; other scalars pass through.
	for i, raw := range raws {
		if bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, fmt.Errorf("%w: element %d is null", ErrInvalidJSON, i)
		}
	}
	return raws, nil
}

// decodeElement returns nil for entries that are not JSON objects.
func decodeElement(raw json.RawMessage) domain.Element {
	var el domain.Element
	if err := json.Unmarshal(raw, &el); err != nil {
		return nil
	}
	return el
}

type field struct {
	key   string
	value float64
}

// rewriteFields sets numeric fields on a raw object while keeping the key
// order of the original; new keys are appended.
func rewriteFields(raw json.RawMessage, fields []field) (json.RawMessage, error) {
	obj := orderedmap.New[string, json.RawMessage]()
	if err := json.Unmarshal(raw, obj); err != nil {
		return nil, fmt.Errorf("decode element: %w", err)
	}
	for _, f := range fields {
		num, err := json.Marshal(f.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.key, err)
		}
		obj.Set(f.key, num)
	}
	out, err := encodeObject(obj)
	if err != nil {
		return nil, fmt.Errorf("encode element: %w", err)
	}
	return out, nil
}

// encodeObject writes obj with its values copied byte for byte. Marshaling
// the map directly would HTML-escape the strings inside the values.
func encodeObject(obj *orderedmap.OrderedMap[string, json.RawMessage]) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(pair.Key); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode terminates with a newline
		buf.WriteByte(':')
		buf.Write(pair.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// encodeArray renders the document with 2-space indentation.
func encodeArray(elements []json.RawMessage) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(elements); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
