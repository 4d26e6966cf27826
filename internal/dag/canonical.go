package dag

import (
	"bytes"
	"encoding/json"
	"sort"
)

// CanonicalJSON produces a deterministic JSON encoding with sorted keys,
// no insignificant whitespace and no HTML escaping. Object ids are hashes of
// this encoding, so it must never change for a given logical value.
func CanonicalJSON(v interface{}) ([]byte, error) {
	data, err := marshalPlain(v)
	if err != nil {
		return nil, err
	}
	// Re-decode into ordered structure and re-encode
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return canonicalEncode(raw)
}

func canonicalEncode(v interface{}) ([]byte, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		buf := []byte{'{'}
		for i, k := range keys {
			if i > 0 {
				buf = append(buf, ',')
			}
			keyBytes, err := marshalPlain(k)
			if err != nil {
				return nil, err
			}
			buf = append(buf, keyBytes...)
			buf = append(buf, ':')
			valBytes, err := canonicalEncode(val[k])
			if err != nil {
				return nil, err
			}
			buf = append(buf, valBytes...)
		}
		buf = append(buf, '}')
		return buf, nil

	case []interface{}:
		buf := []byte{'['}
		for i, item := range val {
			if i > 0 {
				buf = append(buf, ',')
			}
			itemBytes, err := canonicalEncode(item)
			if err != nil {
				return nil, err
			}
			buf = append(buf, itemBytes...)
		}
		buf = append(buf, ']')
		return buf, nil

	default:
		return marshalPlain(v)
	}
}

// marshalPlain is json.Marshal without HTML escaping and without the
// trailing newline json.Encoder appends.
func marshalPlain(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}
