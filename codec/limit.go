package codec

import "fmt"

// LimitCodec rejects payloads larger than MaxDecode bytes before handing them
// to Inner. Encode is forwarded unchanged. MaxDecode <= 0 disables the check.
// Useful when the provider is shared (Redis) and entries are not fully trusted.
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("codec: payload too large: %d > %d", len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
