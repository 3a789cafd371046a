// Package bytefmt renders byte counts on a 1000-based scale.
//
// The unit labels are B, KB, MiB, GB, TB. The mix of decimal and binary
// names is kept as-is so output matches what existing users already see.
package bytefmt

import (
	"math"
	"math/big"
	"strconv"
)

const kilobyte = 1000

// Units indexed by power of 1000.
var Units = [...]string{"B", "KB", "MiB", "GB", "TB"}

const (
	DefaultDecimals = 2
	DefaultZeroUnit = "GB"
)

// Bytes is a formatted quantity. Unit is empty when the count exceeds the
// largest unit.
type Bytes struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

func (b Bytes) String() string {
	s := strconv.FormatFloat(b.Value, 'f', -1, 64)
	if b.Unit == "" {
		return s
	}
	return s + " " + b.Unit
}

type options struct {
	decimals int
	zeroUnit string
}

type Option func(*options)

// WithDecimals sets the rounding precision; negative means 0.
func WithDecimals(d int) Option {
	return func(o *options) {
		if d < 0 {
			d = 0
		}
		o.decimals = d
	}
}

// WithZeroUnit sets the unit printed for a zero count.
func WithZeroUnit(u string) Option {
	return func(o *options) { o.zeroUnit = u }
}

// FormatBytes returns "<value> <unit>", or ok=false when n is absent.
func FormatBytes(n Quantity, opts ...Option) (string, bool) {
	b, ok := FormatBytesSeparate(n, opts...)
	if !ok {
		return "", false
	}
	return b.String(), true
}

// FormatBytesSeparate returns the value and unit, or ok=false when n is absent.
func FormatBytesSeparate(n Quantity, opts ...Option) (Bytes, bool) {
	o := options{decimals: DefaultDecimals, zeroUnit: DefaultZeroUnit}
	for _, opt := range opts {
		opt(&o)
	}
	if n == nil {
		return Bytes{}, false
	}
	v, ok := n.float()
	if !ok {
		return Bytes{}, false
	}
	if v == 0 {
		return Bytes{Value: 0, Unit: o.zeroUnit}, true
	}

	threshold := int(math.Floor(math.Log(v) / math.Log(kilobyte)))
	scaled := v / math.Pow(kilobyte, float64(threshold))
	b := Bytes{Value: round(scaled, o.decimals)}
	if threshold < len(Units) {
		b.Unit = Units[threshold]
	}
	return b, true
}

// round rounds the exact binary value of f to d decimals, halves away from
// zero.
func round(f float64, d int) float64 {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return f
	}
	s := new(big.Rat).SetFloat64(f).FloatString(d)
	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return f
	}
	return r
}
