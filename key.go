package querycache

import "github.com/unkn0wn-root/querycache/internal/util"

// Key identifies a cached read: operation name plus ordered parameters.
type Key struct {
	Op     string
	Params []string
}

// K builds a Key.
func K(op string, params ...string) Key {
	return Key{Op: op, Params: params}
}

// String renders the key as "op" or "op:p1:p2". Params are escaped so distinct
// tuples never render the same.
func (k Key) String() string { return util.Join(k.Op, k.Params) }

// HasPrefix reports whether p is a leading sub-tuple of k (or k itself).
func (k Key) HasPrefix(p Key) bool {
	if k.Op != p.Op || len(p.Params) > len(k.Params) {
		return false
	}
	for i, v := range p.Params {
		if k.Params[i] != v {
			return false
		}
	}
	return true
}

func (k Key) prefixes() []string { return util.Prefixes(k.Op, k.Params) }
