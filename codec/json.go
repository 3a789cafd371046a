package codec

import "encoding/json"

// JSON uses encoding/json. Field names follow the `json` struct tags, which
// keeps cached payloads byte-compatible with the HTTP bodies they came from.
type JSON[V any] struct{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
