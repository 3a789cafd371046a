package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	version   byte = 1
	kindEntry byte = 1

	// MaxGens bounds the number of generations one entry may carry
	// (one per leading sub-tuple of its key).
	MaxGens = 0xFF

	hdrLen = 4 + 1 + 1 + 8 + 8 + 1
)

var (
	ErrCorrupt = errors.New("querycache: corrupt entry")
	magic4     = [...]byte{'Q', 'R', 'Y', 'C'}
)

// Entry is the decoded form of a stored query result.
//
// Gens holds the generation observed for each key prefix at load time,
// shortest prefix first. FetchedAt is unix nanos. FreshFor is the freshness
// window in nanos the entry was written with; 0 means "use the cache default".
type Entry struct {
	Gens      []uint64
	FetchedAt int64
	FreshFor  int64
	Payload   []byte
}

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Encode frames an entry:
//
//	magic(4) | ver(1) | kind(1) | fetchedAt(i64 be) | freshFor(i64 be) |
//	ngen(u8) | gen(u64 be) * ngen | vlen(u32 be) | payload(vlen)
func Encode(e Entry) ([]byte, error) {
	if n := len(e.Gens); n == 0 || n > MaxGens {
		return nil, fmt.Errorf("querycache: invalid generation count %d", n)
	}
	if uint64(len(e.Payload)) > 0xFFFFFFFF {
		return nil, fmt.Errorf("querycache: payload too large: %d", len(e.Payload))
	}

	var buf bytes.Buffer
	buf.Grow(hdrLen + 8*len(e.Gens) + 4 + len(e.Payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindEntry)

	var u8 [8]byte
	var u4 [4]byte

	binary.BigEndian.PutUint64(u8[:], uint64(e.FetchedAt))
	buf.Write(u8[:])
	binary.BigEndian.PutUint64(u8[:], uint64(e.FreshFor))
	buf.Write(u8[:])

	buf.WriteByte(byte(len(e.Gens)))
	for _, g := range e.Gens {
		binary.BigEndian.PutUint64(u8[:], g)
		buf.Write(u8[:])
	}

	binary.BigEndian.PutUint32(u4[:], uint32(len(e.Payload)))
	buf.Write(u4[:])
	buf.Write(e.Payload)
	return buf.Bytes(), nil
}

// Decode parses an entry produced by Encode. The returned Payload aliases b.
// Trailing bytes are rejected.
func Decode(b []byte) (Entry, error) {
	if len(b) < hdrLen || !hasMagic(b) || b[4] != version || b[5] != kindEntry {
		return Entry{}, ErrCorrupt
	}
	off := 6

	var e Entry
	e.FetchedAt = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	e.FreshFor = int64(binary.BigEndian.Uint64(b[off : off+8]))
	off += 8
	if e.FreshFor < 0 {
		return Entry{}, ErrCorrupt
	}

	n := int(b[off])
	off++
	if n == 0 || 8*n > len(b)-off {
		return Entry{}, ErrCorrupt
	}
	e.Gens = make([]uint64, n)
	for i := 0; i < n; i++ {
		e.Gens[i] = binary.BigEndian.Uint64(b[off : off+8])
		off += 8
	}

	if off+4 > len(b) {
		return Entry{}, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // exact framing: no trailing bytes
		return Entry{}, ErrCorrupt
	}
	e.Payload = b[off : off+vlen]
	return e, nil
}
