// Package mode implements the machine/semantic type registry: the set of
// process-global, immutable mode singletons every tarval, node, and entity
// is tagged with.
package mode

import "fmt"

// Sort classifies a mode's arithmetic behavior.
type Sort int

const (
	SortInt Sort = iota
	SortReference
	SortFloat
	SortBoolean
	SortMemory
	SortControl
	SortAuxiliary
	SortTuple
)

// Arithmetic selects which tarval sub-engine a mode's values fold through.
type Arithmetic int

const (
	ArithNone Arithmetic = iota
	ArithTwosComplement
	ArithIEEE754
)

// Mode is an opaque, interned machine/semantic type descriptor.
type Mode struct {
	name        string
	sort        Sort
	sizeBits    int
	signed      bool
	arithmetic  Arithmetic
	moduloShift int

	// exponent/mantissa bit widths, meaningful only for SortFloat.
	expBits  int
	mantBits int

	min, max, null, one, minusOne, allOne cachedTarval
}

// cachedTarval defers to a setter installed by the tarval package, breaking
// the import cycle between mode and tarval (tarval depends on mode, not the
// reverse).
type cachedTarval struct {
	get func() interface{}
}

func (m *Mode) String() string { return m.name }

func (m *Mode) Sort() Sort             { return m.sort }
func (m *Mode) SizeBits() int          { return m.sizeBits }
func (m *Mode) IsSigned() bool         { return m.signed }
func (m *Mode) Arithmetic() Arithmetic { return m.arithmetic }
func (m *Mode) ModuloShift() int       { return m.moduloShift }
func (m *Mode) ExpBits() int           { return m.expBits }
func (m *Mode) MantBits() int          { return m.mantBits }

func (m *Mode) IsInt() bool       { return m.sort == SortInt }
func (m *Mode) IsFloat() bool     { return m.sort == SortFloat }
func (m *Mode) IsReference() bool { return m.sort == SortReference }
func (m *Mode) IsNum() bool       { return m.sort == SortInt || m.sort == SortFloat }

// Min returns the cached minimum-value tarval for this mode. The value is
// installed lazily by the tarval package during its own init; calling Min
// before that registration panics, matching the fail-fast posture of the
// rest of the IR core.
func (m *Mode) Min() interface{}      { return m.min.get() }
func (m *Mode) Max() interface{}      { return m.max.get() }
func (m *Mode) Null() interface{}     { return m.null.get() }
func (m *Mode) One() interface{}      { return m.one.get() }
func (m *Mode) MinusOne() interface{} { return m.minusOne.get() }
func (m *Mode) AllOne() interface{}   { return m.allOne.get() }

// BindCaches installs the closures the tarval package uses to lazily compute
// and cache min/max/null/one/minus_one/all_one for this mode, exactly once.
func (m *Mode) BindCaches(min, max, null, one, minusOne, allOne func() interface{}) {
	m.min.get = once(min)
	m.max.get = once(max)
	m.null.get = once(null)
	m.one.get = once(one)
	m.minusOne.get = once(minusOne)
	m.allOne.get = once(allOne)
}

func once(f func() interface{}) func() interface{} {
	var v interface{}
	done := false
	return func() interface{} {
		if !done {
			v = f()
			done = true
		}
		return v
	}
}

func newMode(name string, sort Sort, bits int, signed bool, ar Arithmetic) *Mode {
	m := &Mode{name: name, sort: sort, sizeBits: bits, signed: signed, arithmetic: ar, moduloShift: bits}
	unbound := func() interface{} {
		panic(fmt.Sprintf("mode %s: tarval caches not bound (tarval package not initialized)", name))
	}
	m.BindCaches(unbound, unbound, unbound, unbound, unbound, unbound)
	return m
}

func newFloatMode(name string, bits, expBits, mantBits int) *Mode {
	m := newMode(name, SortFloat, bits, true, ArithIEEE754)
	m.expBits, m.mantBits = expBits, mantBits
	return m
}

// Predefined process-global modes, matching the canonical libFirm set.
var (
	Bs = newMode("Bs", SortInt, 8, true, ArithTwosComplement)
	Bu = newMode("Bu", SortInt, 8, false, ArithTwosComplement)
	Hs = newMode("Hs", SortInt, 16, true, ArithTwosComplement)
	Hu = newMode("Hu", SortInt, 16, false, ArithTwosComplement)
	Is = newMode("Is", SortInt, 32, true, ArithTwosComplement)
	Iu = newMode("Iu", SortInt, 32, false, ArithTwosComplement)
	Ls = newMode("Ls", SortInt, 64, true, ArithTwosComplement)
	Lu = newMode("Lu", SortInt, 64, false, ArithTwosComplement)

	P = newMode("P", SortReference, 64, false, ArithTwosComplement)

	F = newFloatMode("F", 32, 8, 23)
	D = newFloatMode("D", 64, 11, 52)
	E = newFloatMode("E", 80, 15, 64)

	B = newMode("b", SortBoolean, 1, false, ArithNone)
	M = newMode("M", SortMemory, 0, false, ArithNone)
	X = newMode("X", SortControl, 0, false, ArithNone)
	T = newMode("T", SortTuple, 0, false, ArithNone)
	BB = newMode("BB", SortAuxiliary, 0, false, ArithNone)
	ANY = newMode("ANY", SortAuxiliary, 0, false, ArithNone)
	BAD = newMode("BAD", SortAuxiliary, 0, false, ArithNone)
)

var intModes = []*Mode{Bs, Bu, Hs, Hu, Is, Iu, Ls, Lu}

// FindSignedMode returns the signed companion mode of the same width as m,
// used by the builder when lowering an unsigned-to-float conversion through
// a signed intermediate plus correction.
func FindSignedMode(m *Mode) *Mode {
	for _, c := range intModes {
		if c.sizeBits == m.sizeBits && c.signed {
			return c
		}
	}
	return nil
}

// FindUnsignedMode returns the unsigned companion mode of the same width as m.
func FindUnsignedMode(m *Mode) *Mode {
	for _, c := range intModes {
		if c.sizeBits == m.sizeBits && !c.signed {
			return c
		}
	}
	return nil
}

// AllIntModes returns the predefined integer modes in ascending width order,
// used by the lowering pass when it must pick a natural-width companion.
func AllIntModes() []*Mode { return append([]*Mode(nil), intModes...) }
