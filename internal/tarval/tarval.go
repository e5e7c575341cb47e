// Package tarval implements the target-value (constant) engine: arbitrary
// width two's-complement integer arithmetic ("strcalc") and IEEE-754
// floating point arithmetic ("fltcalc"), both funneled through a single
// interning table so that equal (mode, bit pattern) pairs are
// pointer-identical.
//
// Arbitrary-precision integer work is delegated to math/big, with
// github.com/remyoudompheng/bigfft (Schönhage-Strassen multiplication) for
// very wide operands and modernc.org/mathutil's ISqrt for Mul's early
// overflow check; 80-bit extended float support is delegated to github.com/mewmew/float.
package tarval

import (
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/mewmew/float"
	"modernc.org/mathutil"

	"ssair/internal/mode"
)

// Special is the sentinel kind for tarvals that are not ordinary values.
type Special int

const (
	NotSpecial Special = iota
	Bad
	Undefined
	Reachable
	Unreachable
)

// Tarval is an interned (mode, value) pair.
type Tarval struct {
	Mode    *mode.Mode
	special Special

	// Integer/reference payload: canonical signed big.Int value already
	// reduced to the mode's storage width (see normalizeInt).
	i *big.Int

	// Float payload: exact for F/D (native float32/float64 bit patterns);
	// E (80-bit) is carried via float.Float80.
	f32 float32
	f64 float64
	f80 float.Float80
	nan bool
}

func (tv *Tarval) String() string {
	switch tv.special {
	case Bad:
		return "<bad>"
	case Undefined:
		return "<undefined>"
	case Reachable:
		return "<reachable>"
	case Unreachable:
		return "<unreachable>"
	}
	switch tv.Mode.Sort() {
	case mode.SortFloat:
		return fmt.Sprintf("%v:%s", tv.floatValue(), tv.Mode)
	case mode.SortBoolean:
		return fmt.Sprintf("%v:b", tv.i.Sign() != 0)
	default:
		return fmt.Sprintf("%s:%s", tv.i.String(), tv.Mode)
	}
}

// IsBad reports whether tv is the distinguished Bad sentinel that propagates
// through the local optimizer's GIGO rule.
func (tv *Tarval) IsBad() bool { return tv.special == Bad }

func (tv *Tarval) floatValue() float64 {
	switch tv.Mode.SizeBits() {
	case 32:
		return float64(tv.f32)
	case 80:
		return tv.f80.Float64()
	default:
		return tv.f64
	}
}

// --- interning table ---------------------------------------------------

var (
	internMu sync.Mutex
	intern   = map[string]*Tarval{}
)

func internKey(m *mode.Mode, special Special, payload string) string {
	return fmt.Sprintf("%p|%d|%s", m, special, payload)
}

func internGet(key string, build func() *Tarval) *Tarval {
	internMu.Lock()
	defer internMu.Unlock()
	if tv, ok := intern[key]; ok {
		return tv
	}
	tv := build()
	intern[key] = tv
	return tv
}

func badTarval(m *mode.Mode) *Tarval {
	key := internKey(m, Bad, "")
	return internGet(key, func() *Tarval { return &Tarval{Mode: m, special: Bad} })
}

// GetBad returns the interned Bad tarval for m.
func GetBad(m *mode.Mode) *Tarval { return badTarval(m) }

// GetUndefined, GetReachable, GetUnreachable mirror GetBad for the other
// distinguished auxiliary values used by mode_X/mode_BB folding.
func GetUndefined(m *mode.Mode) *Tarval {
	return internGet(internKey(m, Undefined, ""), func() *Tarval { return &Tarval{Mode: m, special: Undefined} })
}
func GetReachable(m *mode.Mode) *Tarval {
	return internGet(internKey(m, Reachable, ""), func() *Tarval { return &Tarval{Mode: m, special: Reachable} })
}
func GetUnreachable(m *mode.Mode) *Tarval {
	return internGet(internKey(m, Unreachable, ""), func() *Tarval { return &Tarval{Mode: m, special: Unreachable} })
}

// --- integer construction & normalization --------------------------------

// normalizeInt wraps v to the mode's storage width (sign-extending for
// signed modes) and returns (result, overflowed); the overflow policy is
// applied afterwards by applyOverflow.
func normalizeInt(v *big.Int, m *mode.Mode) (*big.Int, bool) {
	bits := uint(m.SizeBits())
	if bits == 0 || bits >= 256 {
		return v, false
	}
	mask := new(big.Int).Lsh(big.NewInt(1), bits)
	mask.Sub(mask, big.NewInt(1))
	r := new(big.Int).And(v, mask)
	if m.IsSigned() {
		half := new(big.Int).Lsh(big.NewInt(1), bits-1)
		if r.Cmp(half) >= 0 {
			r.Sub(r, new(big.Int).Lsh(big.NewInt(1), bits))
		}
	}
	overflowed := r.Cmp(v) != 0
	return r, overflowed
}

func clampToMode(v *big.Int, m *mode.Mode) *big.Int {
	lo, hi := modeBounds(m)
	if v.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	if v.Cmp(hi) > 0 {
		return new(big.Int).Set(hi)
	}
	return v
}

func modeBounds(m *mode.Mode) (lo, hi *big.Int) {
	bits := uint(m.SizeBits())
	if m.IsSigned() {
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits-1), big.NewInt(1))
		lo = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), bits-1))
	} else {
		hi = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), bits), big.NewInt(1))
		lo = big.NewInt(0)
	}
	return lo, hi
}

// applyOverflow reduces v into m's representable range per the active
// OverflowPolicy, returning the resolved tarval (which may be Bad).
func applyOverflow(v *big.Int, m *mode.Mode) *Tarval {
	wrapped, overflowed := normalizeInt(v, m)
	if !overflowed {
		return newIntTarval(wrapped, m)
	}
	switch globalOverflowPolicy {
	case OverflowSaturate:
		return newIntTarval(clampToMode(v, m), m)
	case OverflowBad:
		return badTarval(m)
	default:
		return newIntTarval(wrapped, m)
	}
}

func newIntTarval(v *big.Int, m *mode.Mode) *Tarval {
	key := internKey(m, NotSpecial, v.String())
	return internGet(key, func() *Tarval { return &Tarval{Mode: m, i: new(big.Int).Set(v)} })
}

// NewFromLong constructs (and interns) the tarval for integer value n under
// mode m, wrapping per the mode's width.
func NewFromLong(n int64, m *mode.Mode) *Tarval {
	if m.Sort() == mode.SortBoolean {
		return NewBool(n != 0)
	}
	return applyOverflow(big.NewInt(n), m)
}

// NewFromStr parses a base-10 (optionally signed) integer string into mode m.
func NewFromStr(s string, m *mode.Mode) (*Tarval, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("tarval: invalid integer literal %q", s)
	}
	return applyOverflow(v, m), nil
}

// NewBool returns the interned boolean tarval.
func NewBool(b bool) *Tarval {
	n := int64(0)
	if b {
		n = 1
	}
	key := internKey(mode.B, NotSpecial, fmt.Sprint(n))
	return internGet(key, func() *Tarval { return &Tarval{Mode: mode.B, i: big.NewInt(n)} })
}

// BoolValue extracts the boolean payload of a mode_b tarval.
func (tv *Tarval) BoolValue() bool { return tv.i != nil && tv.i.Sign() != 0 }

// IsLong reports whether tv's integer value fits in a host int64.
func (tv *Tarval) IsLong() bool {
	if tv.i == nil {
		return false
	}
	return tv.i.IsInt64()
}

// Long returns the int64 value of tv; valid only when IsLong is true.
func (tv *Tarval) Long() int64 { return tv.i.Int64() }

// BigInt exposes the canonical signed big.Int payload of an integer tarval.
func (tv *Tarval) BigInt() *big.Int {
	if tv.i == nil {
		return nil
	}
	return new(big.Int).Set(tv.i)
}

// SubBits returns the i-th byte of tv's little-endian bit representation,
// used by code emission to materialize immediates piecewise.
func (tv *Tarval) SubBits(i int) byte {
	if tv.Mode.Sort() == mode.SortFloat {
		return floatByte(tv, i)
	}
	bits := uint(tv.Mode.SizeBits())
	nbytes := int((bits + 7) / 8)
	raw, _ := normalizeInt(tv.i, tv.Mode)
	u := new(big.Int).Set(raw)
	if u.Sign() < 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), bits)
		u.Add(u, mod)
	}
	buf := make([]byte, nbytes)
	b := u.Bytes()
	// big.Int.Bytes is big-endian with no leading zero padding; place it
	// right-justified then reverse for little-endian byte i.
	for k := 0; k < len(b) && k < nbytes; k++ {
		buf[nbytes-1-k] = b[len(b)-1-k]
	}
	if i < 0 || i >= nbytes {
		return 0
	}
	return buf[i]
}

func floatByte(tv *Tarval, i int) byte {
	switch tv.Mode.SizeBits() {
	case 32:
		bits := math.Float32bits(tv.f32)
		return byte(bits >> (8 * uint(i)))
	case 64:
		bits := math.Float64bits(tv.f64)
		return byte(bits >> (8 * uint(i)))
	default:
		b := tv.f80.Bytes()
		if i >= 0 && i < len(b) {
			return b[i]
		}
		return 0
	}
}

// widthForMultiply reports whether a or b's bit length is large enough to
// route through bigfft's Schönhage-Strassen multiply instead of math/big's
// built-in Karatsuba threshold; mirrors strcalc's "use the fast path for
// very wide operands" behavior for the handful of modes wider than 64 bits
// that front-ends occasionally define (e.g. 128-bit wide integer modes).
func widthForMultiply(a, b *big.Int) bool {
	return a.BitLen() > 2048 || b.BitLen() > 2048
}

// sqrtBound returns floor(sqrt(|a|)), used by Mul's early-overflow check: if
// both operands exceed the bound for the destination mode's max value, the
// product is guaranteed to overflow and the multiply itself can be skipped.
func sqrtBound(a *big.Int) *big.Int {
	return mathutil.ISqrt(new(big.Int).Abs(a))
}
