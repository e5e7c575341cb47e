package tarval

import (
	"math"

	"ssair/internal/mode"
)

// init binds every predefined mode's min/max/null/one/minus_one/all_one
// tarval cache, completing the lazy-binding handshake mode.Mode.BindCaches
// declares: mode cannot import tarval (tarval depends on mode), so the
// binding has to happen here, once, as a side effect of importing this
// package — exactly the role original_source/ir/ir/irmode.c's
// init_mode_values gives the tarval layer (called after modes are defined,
// before anything else touches a mode's cached tarvals).
func init() {
	for _, m := range mode.AllIntModes() {
		bindIntMode(m)
	}
	bindFloatMode(mode.F)
	bindFloatMode(mode.D)
	bindFloatMode(mode.E)
	bindIntMode(mode.P)
	bindBooleanMode(mode.B)
}

func bindIntMode(m *mode.Mode) {
	m.BindCaches(
		func() interface{} { lo, _ := modeBounds(m); return newIntTarval(lo, m) },
		func() interface{} { _, hi := modeBounds(m); return newIntTarval(hi, m) },
		func() interface{} { return NewFromLong(0, m) },
		func() interface{} { return NewFromLong(1, m) },
		func() interface{} { return NewFromLong(-1, m) },
		func() interface{} { return NewFromLong(-1, m) }, // ~0 in two's complement storage
	)
}

func bindFloatMode(m *mode.Mode) {
	m.BindCaches(
		func() interface{} { return NewFromDouble(math.Inf(-1), m) },
		func() interface{} { return NewFromDouble(math.Inf(1), m) },
		func() interface{} { return NewFromDouble(0, m) },
		func() interface{} { return NewFromDouble(1, m) },
		func() interface{} { return NewFromDouble(-1, m) },
		func() interface{} { return NewFromDouble(math.NaN(), m) },
	)
}

func bindBooleanMode(m *mode.Mode) {
	m.BindCaches(
		func() interface{} { return NewBool(false) },
		func() interface{} { return NewBool(true) },
		func() interface{} { return NewBool(false) },
		func() interface{} { return NewBool(true) },
		func() interface{} { return NewBool(true) },
		func() interface{} { return NewBool(true) },
	)
}
