package tarval

import (
	"math"
	"math/big"

	"github.com/mewmew/float"

	"ssair/internal/mode"
)

// RoundMode selects fltcalc's rounding behavior for flt2int and cast.
type RoundMode int

const (
	RoundNearestEven RoundMode = iota
	RoundTruncate
)

var globalRoundMode = RoundNearestEven

// SetRoundMode installs the process-wide float rounding mode.
func SetRoundMode(r RoundMode) { globalRoundMode = r }

// flushSubnormal and flushInfinity mirror fltcalc's SWITCH_NODENORMALS /
// SWITCH_NOINFINITY build-time switches as runtime flags.
var flushSubnormal, flushInfinity bool

func SetFlushSubnormal(v bool) { flushSubnormal = v }
func SetFlushInfinity(v bool)  { flushInfinity = v }

func sanitizeFloat64(v float64) float64 {
	if flushInfinity && math.IsInf(v, 0) {
		if v > 0 {
			return math.MaxFloat64
		}
		return -math.MaxFloat64
	}
	if flushSubnormal && v != 0 && math.Abs(v) < math.SmallestNonzeroFloat64*(1<<52) && math.Abs(v) > 0 {
		// Flush float64 subnormals to a zero of the same sign. The bound is
		// float64's, so a value that only becomes subnormal once narrowed
		// to float32 is not flushed.
		return math.Copysign(0, v)
	}
	return v
}

// NewFromDouble constructs a float tarval for mode m from a float64 payload,
// narrowing to F (float32) or widening into an 80-bit E via mewmew/float.
func NewFromDouble(v float64, m *mode.Mode) *Tarval {
	if noFloat {
		return badTarval(m)
	}
	switch m.SizeBits() {
	case 32:
		f32 := float32(sanitizeFloat64(v))
		return internFloat32(f32, m)
	case 80:
		return internFloat80(float.NewFloat80FromFloat64(v), m)
	default:
		return internFloat64(sanitizeFloat64(v), m)
	}
}

func internFloat32(v float32, m *mode.Mode) *Tarval {
	bits := math.Float32bits(v)
	key := internKey(m, NotSpecial, "f32:"+fmtUint(uint64(bits)))
	return internGet(key, func() *Tarval {
		return &Tarval{Mode: m, f32: v, nan: math.IsNaN(float64(v))}
	})
}

func internFloat64(v float64, m *mode.Mode) *Tarval {
	bits := math.Float64bits(v)
	key := internKey(m, NotSpecial, "f64:"+fmtUint(bits))
	return internGet(key, func() *Tarval {
		return &Tarval{Mode: m, f64: v, nan: math.IsNaN(v)}
	})
}

func internFloat80(v float.Float80, m *mode.Mode) *Tarval {
	key := internKey(m, NotSpecial, "f80:"+string(v.Bytes()))
	return internGet(key, func() *Tarval {
		return &Tarval{Mode: m, f80: v, nan: math.IsNaN(v.Float64())}
	})
}

func fmtUint(u uint64) string {
	buf := [20]byte{}
	i := len(buf)
	if u == 0 {
		return "0"
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

func floatBinary(a, b *Tarval, op func(x, y float64) float64) *Tarval {
	if a.IsBad() || b.IsBad() || noFloat {
		return badTarval(a.Mode)
	}
	requireSameMode(a, b)
	r := op(a.floatValue(), b.floatValue())
	return NewFromDouble(r, a.Mode)
}

// FAdd, FSub, FMul, FDiv implement fltcalc's arithmetic. Wide (80-bit)
// operands are widened to float64 for the operation and narrowed back; this
// is the same fidelity/performance trade-off the engine makes for int/float
// conversions, since Go has no native extended-precision arithmetic unit.
func FAdd(a, b *Tarval) *Tarval { return floatBinary(a, b, func(x, y float64) float64 { return x + y }) }
func FSub(a, b *Tarval) *Tarval { return floatBinary(a, b, func(x, y float64) float64 { return x - y }) }
func FMul(a, b *Tarval) *Tarval { return floatBinary(a, b, func(x, y float64) float64 { return x * y }) }
func FDiv(a, b *Tarval) *Tarval { return floatBinary(a, b, func(x, y float64) float64 { return x / y }) }

// FNeg, FAbs implement fltcalc's unary operators.
func FNeg(a *Tarval) *Tarval {
	if a.IsBad() || noFloat {
		return badTarval(a.Mode)
	}
	return NewFromDouble(-a.floatValue(), a.Mode)
}
func FAbs(a *Tarval) *Tarval {
	if a.IsBad() || noFloat {
		return badTarval(a.Mode)
	}
	return NewFromDouble(math.Abs(a.floatValue()), a.Mode)
}

// floatCmp implements fltcalc's compare, returning Uo for NaN operands.
func floatCmp(a, b *Tarval) CmpResult {
	if a.nan || b.nan {
		return CmpUo
	}
	x, y := a.floatValue(), b.floatValue()
	switch {
	case x < y:
		return CmpLt
	case x > y:
		return CmpGt
	default:
		return CmpEq
	}
}

// FInt implements fltcalc's truncate-toward-zero-to-integer ("int").
func FInt(a *Tarval) float64 { return math.Trunc(a.floatValue()) }

// FRnd implements fltcalc's round-to-nearest-even ("rnd").
func FRnd(a *Tarval) float64 { return math.RoundToEven(a.floatValue()) }

// convertFloatInt implements tarval_convert_to's float<->int and
// float<->float legs. Int-to-float routes through a 256-bit big.Float
// intermediate, a deliberate fidelity/perf trade-off for operands that
// overflow float64's 53-bit mantissa.
func convertFloatInt(tv *Tarval, m *mode.Mode) *Tarval {
	if tv.Mode.IsFloat() && m.IsFloat() {
		return NewFromDouble(tv.floatValue(), m)
	}
	if tv.Mode.IsFloat() && !m.IsFloat() {
		v := tv.floatValue()
		if globalRoundMode == RoundNearestEven {
			v = math.RoundToEven(v)
		} else {
			v = math.Trunc(v)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return badTarval(m)
		}
		bi, _ := big.NewFloat(v).Int(nil)
		return applyOverflow(bi, m)
	}
	// int -> float
	bf := new(big.Float).SetPrec(256).SetInt(tv.i)
	v, _ := bf.Float64()
	return NewFromDouble(v, m)
}
