package codec

import (
	"errors"

	"google.golang.org/protobuf/proto"
)

var errNoCtor = errors.New("codec: protobuf codec has no message constructor")

// Protobuf serializes proto messages. Construct with NewProtobuf; the zero
// value cannot decode because it does not know which message to allocate.
type Protobuf[T proto.Message] struct {
	alloc func() T
	opts  proto.MarshalOptions
}

// NewProtobuf returns a codec allocating messages with alloc
// (e.g. func() *pb.Library { return new(pb.Library) }). Output is deterministic
// so equal messages always produce equal cache payloads.
func NewProtobuf[T proto.Message](alloc func() T) Protobuf[T] {
	return Protobuf[T]{alloc: alloc, opts: proto.MarshalOptions{Deterministic: true}}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return c.opts.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	if c.alloc == nil {
		var zero T
		return zero, errNoCtor
	}
	m := c.alloc()
	err := proto.Unmarshal(b, m)
	return m, err
}
