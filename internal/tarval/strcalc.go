package tarval

import (
	"math/big"

	"github.com/remyoudompheng/bigfft"

	"ssair/internal/mode"
)

// requireSameMode panics if a and b do not share a mode; the caller
// (optimize_node's computed_value stage) is responsible for only folding
// binops whose operand modes already match.
func requireSameMode(a, b *Tarval) {
	if a.Mode != b.Mode {
		panic("tarval: operand mode mismatch")
	}
}

func binaryResult(a, b *Tarval, op func(x, y *big.Int) *big.Int) *Tarval {
	if a.IsBad() || b.IsBad() {
		return badTarval(a.Mode)
	}
	requireSameMode(a, b)
	return applyOverflow(op(a.i, b.i), a.Mode)
}

// Add implements strcalc's wide two's-complement addition.
func Add(a, b *Tarval) *Tarval {
	return binaryResult(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Add(x, y) })
}

// AddC adds a and b and reports whether the infinite-precision result
// overflowed the destination mode's representable range, independent of the
// active OverflowPolicy — frontends that need to synthesize their own
// overflow-trap code read the carry directly instead of depending on Bad.
func AddC(a, b *Tarval) (sum *Tarval, carry bool) {
	requireSameMode(a, b)
	raw := new(big.Int).Add(a.i, b.i)
	_, overflowed := normalizeInt(raw, a.Mode)
	return applyOverflow(raw, a.Mode), overflowed
}

// Sub implements strcalc's subtraction.
func Sub(a, b *Tarval) *Tarval {
	return binaryResult(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Sub(x, y) })
}

// SubC mirrors AddC for subtraction.
func SubC(a, b *Tarval) (diff *Tarval, borrow bool) {
	requireSameMode(a, b)
	raw := new(big.Int).Sub(a.i, b.i)
	_, overflowed := normalizeInt(raw, a.Mode)
	return applyOverflow(raw, a.Mode), overflowed
}

// Mul implements strcalc's multiplication, routing through bigfft's
// Schönhage-Strassen algorithm for operands wide enough that the quadratic
// math/big path would dominate runtime. Under a non-wrap overflow policy,
// mulOverflowFastPath first asks whether the product is guaranteed to
// overflow from the operands' magnitudes alone, skipping the multiply
// entirely when it is.
func Mul(a, b *Tarval) *Tarval {
	if a.IsBad() || b.IsBad() {
		return badTarval(a.Mode)
	}
	requireSameMode(a, b)
	if v, ok := mulOverflowFastPath(a, b); ok {
		return v
	}
	return applyOverflow(mulBig(a.i, b.i), a.Mode)
}

func mulBig(x, y *big.Int) *big.Int {
	if widthForMultiply(x, y) {
		return bigfft.Mul(x, y)
	}
	return new(big.Int).Mul(x, y)
}

// mulOverflowFastPath implements sqrtBound's early overflow-range check: if
// both operands' magnitudes already exceed sqrt of the mode's max
// representable magnitude, their product is guaranteed to overflow the
// destination mode and the (potentially very wide) multiply itself can be
// skipped. Only applies under OverflowBad/OverflowSaturate, since
// OverflowWrap still needs the product's actual low bits.
func mulOverflowFastPath(a, b *Tarval) (*Tarval, bool) {
	if a.Mode.Sort() != mode.SortInt || globalOverflowPolicy == OverflowWrap {
		return nil, false
	}
	max, ok := a.Mode.Max().(*Tarval)
	if !ok {
		return nil, false
	}
	bound := sqrtBound(max.i)
	if new(big.Int).Abs(a.i).Cmp(bound) <= 0 || new(big.Int).Abs(b.i).Cmp(bound) <= 0 {
		return nil, false
	}
	if globalOverflowPolicy == OverflowBad {
		return badTarval(a.Mode), true
	}
	lo, hi := modeBounds(a.Mode)
	if (a.i.Sign() < 0) != (b.i.Sign() < 0) {
		return newIntTarval(lo, a.Mode), true
	}
	return newIntTarval(hi, a.Mode), true
}

// Neg implements strcalc's negation (two's-complement: ~x + 1).
func Neg(a *Tarval) *Tarval {
	if a.IsBad() {
		return a
	}
	return applyOverflow(new(big.Int).Neg(a.i), a.Mode)
}

// Not implements strcalc's bitwise complement.
func Not(a *Tarval) *Tarval {
	if a.IsBad() {
		return a
	}
	return applyOverflow(new(big.Int).Not(a.i), a.Mode)
}

// Div implements strcalc's truncating (toward zero) signed/unsigned
// division; the caller must already have rejected a zero divisor (folding a
// would-be trap is never valid — see SPEC_FULL.md §4.F's Proj(Div) rule).
func Div(a, b *Tarval) *Tarval {
	if b.i.Sign() == 0 {
		return badTarval(a.Mode)
	}
	return binaryResult(a, b, func(x, y *big.Int) *big.Int {
		q := new(big.Int)
		q.Quo(x, y)
		return q
	})
}

// Mod implements strcalc's truncating remainder, matching Div's rounding.
func Mod(a, b *Tarval) *Tarval {
	if b.i.Sign() == 0 {
		return badTarval(a.Mode)
	}
	return binaryResult(a, b, func(x, y *big.Int) *big.Int {
		r := new(big.Int)
		r.Rem(x, y)
		return r
	})
}

// DivMod returns both the truncating quotient and remainder in one pass.
func DivMod(a, b *Tarval) (q, r *Tarval) {
	return Div(a, b), Mod(a, b)
}

func bitwise(a, b *Tarval, op func(x, y *big.Int) *big.Int) *Tarval {
	if a.IsBad() || b.IsBad() {
		return badTarval(a.Mode)
	}
	requireSameMode(a, b)
	bits := uint(a.Mode.SizeBits())
	ua, ub := toUnsigned(a.i, bits), toUnsigned(b.i, bits)
	return applyOverflow(op(ua, ub), a.Mode)
}

func toUnsigned(v *big.Int, bits uint) *big.Int {
	if v.Sign() >= 0 {
		return new(big.Int).Set(v)
	}
	mod := new(big.Int).Lsh(big.NewInt(1), bits)
	return new(big.Int).Add(v, mod)
}

// And, Or, Eor implement strcalc's bitwise operators over the mode's full
// storage width (operands are reinterpreted as unsigned bit patterns first).
func And(a, b *Tarval) *Tarval { return bitwise(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).And(x, y) }) }
func Or(a, b *Tarval) *Tarval  { return bitwise(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Or(x, y) }) }
func Eor(a, b *Tarval) *Tarval { return bitwise(a, b, func(x, y *big.Int) *big.Int { return new(big.Int).Xor(x, y) }) }

func shiftAmount(b *Tarval, moduloShift int) uint {
	n := b.i.Uint64()
	if moduloShift > 0 {
		n %= uint64(moduloShift)
	}
	return uint(n)
}

// Shl implements strcalc's logical left shift, reduced modulo the mode's
// modulo-shift width.
func Shl(a, b *Tarval) *Tarval {
	if a.IsBad() {
		return a
	}
	n := shiftAmount(b, a.Mode.ModuloShift())
	bits := uint(a.Mode.SizeBits())
	u := toUnsigned(a.i, bits)
	return applyOverflow(new(big.Int).Lsh(u, n), a.Mode)
}

// Shr implements strcalc's logical (zero-filling) right shift.
func Shr(a, b *Tarval) *Tarval {
	if a.IsBad() {
		return a
	}
	n := shiftAmount(b, a.Mode.ModuloShift())
	bits := uint(a.Mode.SizeBits())
	u := toUnsigned(a.i, bits)
	return applyOverflow(new(big.Int).Rsh(u, n), a.Mode)
}

// Shrs implements strcalc's arithmetic (sign-filling) right shift.
func Shrs(a, b *Tarval) *Tarval {
	if a.IsBad() {
		return a
	}
	n := shiftAmount(b, a.Mode.ModuloShift())
	return applyOverflow(new(big.Int).Rsh(a.i, n), a.Mode)
}

// Rotl implements strcalc's left rotation over the mode's storage width.
func Rotl(a, b *Tarval) *Tarval {
	if a.IsBad() {
		return a
	}
	bits := uint(a.Mode.SizeBits())
	n := shiftAmount(b, a.Mode.ModuloShift()) % bits
	u := toUnsigned(a.i, bits)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
	left := new(big.Int).And(new(big.Int).Lsh(u, n), mask)
	right := new(big.Int).Rsh(u, bits-n)
	return applyOverflow(new(big.Int).Or(left, right), a.Mode)
}

// Cmp implements tarval_cmp's partial order for integer/reference modes.
type CmpResult int

const (
	CmpFalse CmpResult = 0
	CmpLt    CmpResult = 1 << iota
	CmpEq
	CmpGt
	CmpUo
)

// Cmp returns the partial-order encoding for a and b. Mismatched modes or
// either operand being Bad yields CmpFalse; float NaN yields CmpUo.
func Cmp(a, b *Tarval) CmpResult {
	if a.Mode != b.Mode || a.IsBad() || b.IsBad() {
		return CmpFalse
	}
	if a.Mode.IsFloat() {
		return floatCmp(a, b)
	}
	switch a.i.Cmp(b.i) {
	case -1:
		return CmpLt
	case 1:
		return CmpGt
	default:
		return CmpEq
	}
}

// ConvertTo implements tarval_convert_to for integer/reference/boolean
// modes (float conversions are handled in fltcalc.go).
func ConvertTo(tv *Tarval, m *mode.Mode) *Tarval {
	if tv.IsBad() {
		return badTarval(m)
	}
	if tv.Mode.IsFloat() || m.IsFloat() {
		return convertFloatInt(tv, m)
	}
	if m.Sort() == mode.SortBoolean {
		return NewBool(tv.i.Sign() != 0)
	}
	return applyOverflow(new(big.Int).Set(tv.i), m)
}
