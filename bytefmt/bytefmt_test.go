package bytefmt

import (
	"math"
	"math/big"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name string
		in   Quantity
		opts []Option
		want string
	}{
		{"zero", Int(0), nil, "0 GB"},
		{"zero custom unit", Uint(0), []Option{WithZeroUnit("B")}, "0 B"},
		{"bytes", Int(999), nil, "999 B"},
		{"one kilobyte", Int(1000), nil, "1 KB"},
		{"rounds", Int(1234), nil, "1.23 KB"},
		{"rounds up", Int(1236), nil, "1.24 KB"},
		{"trims zeros", Int(1_500_000), nil, "1.5 MiB"},
		{"gigabytes", Uint(2_500_000_000), nil, "2.5 GB"},
		{"terabytes", Int(3_210_000_000_000), nil, "3.21 TB"},
		{"one decimal", Int(1_234_567), []Option{WithDecimals(1)}, "1.2 MiB"},
		{"negative decimals", Int(1_600), []Option{WithDecimals(-3)}, "2 KB"},
		{"past the unit table", Int(2_000_000_000_000_000), nil, "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FormatBytes(tt.in, tt.opts...)
			if !ok || got != tt.want {
				t.Fatalf("FormatBytes = %q, %v; want %q", got, ok, tt.want)
			}
		})
	}
}

func TestAbsent(t *testing.T) {
	for name, q := range map[string]Quantity{
		"nil":      nil,
		"nil big":  Big(nil),
		"negative": Int(-1),
	} {
		if s, ok := FormatBytes(q); ok || s != "" {
			t.Fatalf("%s: FormatBytes = %q, %v; want absent", name, s, ok)
		}
		if b, ok := FormatBytesSeparate(q); ok || b != (Bytes{}) {
			t.Fatalf("%s: FormatBytesSeparate = %+v, %v; want absent", name, b, ok)
		}
	}
}

func TestBigMatchesInt(t *testing.T) {
	for _, n := range []int64{0, 1, 999, 1000, 1_234_567, 9_876_543_210, math.MaxInt64} {
		want, _ := FormatBytesSeparate(Int(n))
		got, ok := FormatBytesSeparate(Big(big.NewInt(n)))
		if !ok || got != want {
			t.Fatalf("Big(%d) = %+v, want %+v", n, got, want)
		}
		if u, _ := FormatBytesSeparate(Uint(uint64(n))); u != want {
			t.Fatalf("Uint(%d) = %+v, want %+v", n, u, want)
		}
	}
}

func TestSeparateAgreesWithString(t *testing.T) {
	for _, n := range []int64{0, 7, 1_000, 45_678, 1_500_000, 7_300_000_000} {
		b, _ := FormatBytesSeparate(Int(n), WithDecimals(3))
		s, _ := FormatBytes(Int(n), WithDecimals(3))
		if b.String() != s {
			t.Fatalf("%d: separate %q vs string %q", n, b.String(), s)
		}
	}
}

func TestBigBeyondInt64(t *testing.T) {
	n, _ := new(big.Int).SetString("123000000000000", 10)
	b, ok := FormatBytesSeparate(Big(n))
	if !ok || b.Value != 123 || b.Unit != "TB" {
		t.Fatalf("got %+v, %v", b, ok)
	}
}
