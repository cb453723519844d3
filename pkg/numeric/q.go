// Package numeric provides Q, the non-negative fixed-point scalar domain
// shared by the ATS and GMI kernels. Every operation is pure integer
// arithmetic: no float64 ever appears on the hot path, so results are
// bit-reproducible across platforms. Per spec §4.1.
package numeric

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/mindburn-labs/gtk-core/pkg/gtkerr"
)

// Domain fixes the implicit divisor and saturation ceiling for one
// instantiation of Q. ATS uses an 18-decimal domain; GMI uses 6.
type Domain struct {
	Scale   int64 // 10^d
	Digits  int   // d
	Ceiling int64 // maximum represented integer value (value * Scale)
}

// NewDomain builds a Domain for d fractional digits and a ceiling expressed
// in whole units (e.g. ceiling=10000 with d=18 caps at 10000*10^18).
func NewDomain(d int, ceilingWholeUnits int64) (Domain, error) {
	if d < 0 {
		return Domain{}, Fault{Code: "GTK/NUMERIC/INVALID_SCALE", Detail: fmt.Sprintf("negative scale %d", d)}
	}
	scale := pow10(d)
	ceiling := ceilingWholeUnits
	// ceiling * scale must not overflow int64; check via big.Int.
	prod := new(big.Int).Mul(big.NewInt(ceiling), big.NewInt(scale))
	if !prod.IsInt64() {
		return Domain{}, Fault{Code: "GTK/NUMERIC/CEILING_OVERFLOW", Detail: "ceiling*scale exceeds int64"}
	}
	return Domain{Scale: scale, Digits: d, Ceiling: prod.Int64()}, nil
}

// ATSDomain is the canonical 18-decimal domain with ceiling 10000.
func ATSDomain() Domain {
	d, err := NewDomain(18, 10000)
	if err != nil {
		panic(err) // constants are compile-time known good
	}
	return d
}

// GMIDomain is the canonical 6-decimal domain with ceiling 10000.
func GMIDomain() Domain {
	d, err := NewDomain(6, 10000)
	if err != nil {
		panic(err)
	}
	return d
}

func pow10(d int) int64 {
	v := int64(1)
	for i := 0; i < d; i++ {
		v *= 10
	}
	return v
}

// Fault is a typed, non-rejection invariant violation: faults halt the
// operation and never produce a receipt. It is an alias of gtkerr.Fault so
// callers across the kernel can classify and project any package's faults
// identically.
type Fault = gtkerr.Fault

// SaturatedFlag records whether the most recent operation on a Q value hit
// a domain boundary (saturation on overflow, flooring on underflow). It is
// a transparent diagnostic, never silently swallowed.
type SaturatedFlag struct {
	Saturated bool
	Floored   bool
}

// Q is a non-negative rational v/domain.Scale, represented as the raw
// integer numerator v. Q carries no reference to its Domain: callers must
// not mix values drawn from different domains.
type Q struct {
	v int64
}

// Zero is the additive identity.
func Zero() Q { return Q{v: 0} }

// One returns ONE = domain.Scale, the multiplicative identity for d.
func One(d Domain) Q { return Q{v: d.Scale} }

// FromInt constructs Q from a whole-unit integer: FromInt(3, d) == 3.0.
func FromInt(whole int64, d Domain) (Q, bool) {
	prod := new(big.Int).Mul(big.NewInt(whole), big.NewInt(d.Scale))
	if whole < 0 || !prod.IsInt64() {
		return Q{}, false
	}
	v := prod.Int64()
	sat := v > d.Ceiling
	if sat {
		v = d.Ceiling
	}
	return Q{v: v}, !sat
}

// FromParts constructs Q from an integer part, a fractional numerator, and
// the number of fractional digits the numerator is expressed in (which may
// differ from d.Digits; the fraction is rescaled to d.Digits, truncating
// any excess precision).
func FromParts(whole, frac int64, fracDigits int, d Domain) (Q, error) {
	if whole < 0 || frac < 0 || fracDigits < 0 {
		return Q{}, Fault{Code: "GTK/NUMERIC/NEGATIVE_INPUT", Detail: "FromParts requires non-negative components"}
	}
	wholeScaled := new(big.Int).Mul(big.NewInt(whole), big.NewInt(d.Scale))

	var fracScaled *big.Int
	if fracDigits >= d.Digits {
		divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(fracDigits-d.Digits)), nil)
		fracScaled = new(big.Int).Div(big.NewInt(frac), divisor)
	} else {
		multiplier := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(d.Digits-fracDigits)), nil)
		fracScaled = new(big.Int).Mul(big.NewInt(frac), multiplier)
	}

	total := new(big.Int).Add(wholeScaled, fracScaled)
	if !total.IsInt64() {
		return Q{v: d.Ceiling}, nil
	}
	v := total.Int64()
	if v > d.Ceiling {
		v = d.Ceiling
	}
	return Q{v: v}, nil
}

// ParseDecimal parses a non-negative decimal string ("123.456") into Q at
// domain d, truncating precision beyond d.Digits.
func ParseDecimal(s string, d Domain) (Q, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Q{}, Fault{Code: "GTK/NUMERIC/INVALID_DECIMAL", Detail: "empty string"}
	}
	if strings.HasPrefix(s, "-") {
		return Q{}, Fault{Code: "GTK/NUMERIC/NEGATIVE_INPUT", Detail: s}
	}
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Q{}, Fault{Code: "GTK/NUMERIC/INVALID_DECIMAL", Detail: s}
	}
	if len(parts) == 1 {
		return FromParts(whole, 0, 0, d)
	}
	fracStr := parts[1]
	for _, c := range fracStr {
		if c < '0' || c > '9' {
			return Q{}, Fault{Code: "GTK/NUMERIC/INVALID_DECIMAL", Detail: s}
		}
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return Q{}, Fault{Code: "GTK/NUMERIC/INVALID_DECIMAL", Detail: s}
	}
	return FromParts(whole, frac, len(fracStr), d)
}

// Raw returns the underlying integer representation (numerator over
// d.Scale). Exposed for canonical serialization.
func (q Q) Raw() int64 { return q.v }

// FromRaw reconstructs Q from a previously-serialized raw numerator. The
// caller is responsible for domain consistency; this never faults, matching
// the deserialization contract of a trusted wire value.
func FromRaw(v int64) Q { return Q{v: v} }

// Add returns a+b, saturating at d.Ceiling.
func (a Q) Add(b Q, d Domain) (Q, SaturatedFlag) {
	sum := new(big.Int).Add(big.NewInt(a.v), big.NewInt(b.v))
	if !sum.IsInt64() || sum.Int64() > d.Ceiling {
		return Q{v: d.Ceiling}, SaturatedFlag{Saturated: true}
	}
	return Q{v: sum.Int64()}, SaturatedFlag{}
}

// Sub returns a-b, flooring at zero per spec §4.1 ("flooring sub").
func (a Q) Sub(b Q) (Q, SaturatedFlag) {
	if a.v < b.v {
		return Q{v: 0}, SaturatedFlag{Floored: true}
	}
	return Q{v: a.v - b.v}, SaturatedFlag{}
}

// Mul returns (a*b)/Scale, saturating at d.Ceiling.
func (a Q) Mul(b Q, d Domain) (Q, SaturatedFlag) {
	prod := new(big.Int).Mul(big.NewInt(a.v), big.NewInt(b.v))
	prod.Quo(prod, big.NewInt(d.Scale))
	if !prod.IsInt64() || prod.Int64() > d.Ceiling {
		return Q{v: d.Ceiling}, SaturatedFlag{Saturated: true}
	}
	return Q{v: prod.Int64()}, SaturatedFlag{}
}

// Div returns (a*Scale)/b. Division by zero is a fault, never a saturation.
func (a Q) Div(b Q, d Domain) (Q, error) {
	if b.v == 0 {
		return Q{}, Fault{Code: "GTK/NUMERIC/DIVIDE_BY_ZERO", Detail: "Div by zero Q"}
	}
	num := new(big.Int).Mul(big.NewInt(a.v), big.NewInt(d.Scale))
	num.Quo(num, big.NewInt(b.v))
	if !num.IsInt64() || num.Int64() > d.Ceiling {
		return Q{v: d.Ceiling}, nil
	}
	return Q{v: num.Int64()}, nil
}

// Cmp gives the total order on Q: -1, 0, 1.
func (a Q) Cmp(b Q) int {
	switch {
	case a.v < b.v:
		return -1
	case a.v > b.v:
		return 1
	default:
		return 0
	}
}

// Equal is equality by representation.
func (a Q) Equal(b Q) bool { return a.v == b.v }

// IsZero reports whether q is the additive identity.
func (a Q) IsZero() bool { return a.v == 0 }

// String renders q as a decimal string at domain d, for diagnostics and
// canonical wire encoding.
func (a Q) String(d Domain) string {
	if d.Digits == 0 {
		return strconv.FormatInt(a.v, 10)
	}
	s := strconv.FormatInt(a.v, 10)
	neg := false
	for len(s) <= d.Digits {
		s = "0" + s
	}
	insert := len(s) - d.Digits
	whole, frac := s[:insert], s[insert:]
	if neg {
		whole = "-" + whole
	}
	return whole + "." + frac
}

// SignedDiff returns to.v - from.v as a plain signed integer. Both operands
// live in the non-negative domain, but the difference used internally by the
// Lyapunov check (spec §4.3, "the step uses signed integer arithmetic
// internally when computing deltas") may be negative; this is the one place
// that signedness is allowed to appear, and it never escapes as a Q.
func SignedDiff(from, to Q) int64 {
	return to.v - from.v
}

// AddSigned returns a+delta where delta is a plain signed raw numerator,
// flooring at zero and saturating at d.Ceiling. Used where a Q update is
// driven by a signed intermediate (e.g. a discrete Laplacian term) that must
// still land back in the non-negative domain.
func AddSigned(a Q, delta int64, d Domain) Q {
	sum := new(big.Int).Add(big.NewInt(a.v), big.NewInt(delta))
	if sum.Sign() < 0 {
		return Q{v: 0}
	}
	if !sum.IsInt64() || sum.Int64() > d.Ceiling {
		return Q{v: d.Ceiling}
	}
	return Q{v: sum.Int64()}
}

// Max returns the larger of a, b.
func Max(a, b Q) Q {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

// Min returns the smaller of a, b.
func Min(a, b Q) Q {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
