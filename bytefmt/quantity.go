package bytefmt

import "math/big"

// Quantity is a byte count. A nil Quantity is absent, which is not zero.
type Quantity interface {
	float() (float64, bool)
}

// Int is a signed count. Negative counts are treated as absent.
type Int int64

// Uint is an unsigned count.
type Uint uint64

type bigCount struct{ n *big.Int }

// Big wraps an arbitrary-precision count. It is converted to float64 before
// scaling, so very large values are approximate. Big(nil) is absent.
func Big(n *big.Int) Quantity { return bigCount{n: n} }

func (i Int) float() (float64, bool) {
	if i < 0 {
		return 0, false
	}
	return float64(i), true
}

func (u Uint) float() (float64, bool) { return float64(u), true }

func (b bigCount) float() (float64, bool) {
	if b.n == nil || b.n.Sign() < 0 {
		return 0, false
	}
	f, _ := new(big.Float).SetInt(b.n).Float64()
	return f, true
}
