package constant

import (
	"math/big"

	"github.com/remyoudompheng/bigfft"
	"modernc.org/mathutil"
)

// bigMulThreshold is the operand bit length above which the FFT-based
// multiplier pays for its own overhead; below it, schoolbook big.Int.Mul
// is faster. Mirrors the register VM's habit elsewhere in the corpus of a
// small/fast path guarding a heavier algorithm.
const bigMulThreshold = 1 << 12 // bits

// bigMul multiplies two arbitrary-precision integers, routing oversized
// operands (the rare very-large Int literal, or cross-multiplication of
// two Rational constants during a reduction) through bigfft's asymptotically
// faster multiplication.
func bigMul(a, b *big.Int) *big.Int {
	if a.BitLen() > bigMulThreshold && b.BitLen() > bigMulThreshold {
		return bigfft.Mul(a, b)
	}
	return new(big.Int).Mul(a, b)
}

// NewInt constructs an Int constant from an arbitrary-precision value.
func NewInt(v *big.Int) Int { return Int{Value: new(big.Int).Set(v)} }

// NewRational constructs a Rational constant from a numerator/denominator
// pair, reduced to lowest terms. For operands small enough to fit in an
// int64, the reduction first runs through modernc.org/mathutil's GCD
// (the same fast-path-before-big.Rat shape the rest of the corpus favors)
// before falling back to big.Rat's own arbitrary-precision reduction.
func NewRational(num, den *big.Int) Rational {
	if num.IsInt64() && den.IsInt64() {
		n, d := num.Int64(), den.Int64()
		if g := mathutil.GCD(n, d); g > 1 {
			n, d = n/g, d/g
		}
		return Rational{Value: new(big.Rat).SetFrac(big.NewInt(n), big.NewInt(d))}
	}
	return Rational{Value: new(big.Rat).SetFrac(num, den)}
}

// crossMultiply compares a/b and c/d by cross multiplication, used where a
// reduction needs to order two rationals without constructing an
// intermediate big.Rat (e.g. bounds-checking a Real constant against a
// refinement predicate's literal threshold).
func crossMultiply(a, b, c, d *big.Int) int {
	return bigMul(a, d).Cmp(bigMul(c, b))
}

// CompareRational orders two Rational constants by cross multiplication
// rather than delegating to big.Rat.Cmp, so the corpus's oversized-operand
// fast path (bigMul, and through it bigfft) is the one actually exercised
// by Rational equality/ordering.
func CompareRational(a, b Rational) int {
	return crossMultiply(a.Value.Num(), a.Value.Denom(), b.Value.Num(), b.Value.Denom())
}
