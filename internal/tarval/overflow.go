package tarval

// OverflowPolicy selects how integer arithmetic reacts when a result falls
// outside its destination mode's representable range.
type OverflowPolicy int

const (
	// OverflowWrap truncates the result to the mode's storage width
	// (standard two's-complement wraparound). This is the default,
	// matching the builder's expectation that arithmetic never aborts.
	OverflowWrap OverflowPolicy = iota
	// OverflowSaturate clamps the result to the mode's min/max.
	OverflowSaturate
	// OverflowBad returns the distinguished Bad tarval instead of a value.
	OverflowBad
)

var globalOverflowPolicy = OverflowWrap

// SetOverflowPolicy installs the process-wide overflow policy used by all
// subsequent integer folds. It is not safe to change concurrently with
// folding in other goroutines.
func SetOverflowPolicy(p OverflowPolicy) { globalOverflowPolicy = p }

// OverflowPolicyInUse returns the currently active overflow policy.
func OverflowPolicyInUse() OverflowPolicy { return globalOverflowPolicy }

// noFloat disables all floating-point folding when a front-end requires
// bit-exact reproduction of a reference compiler's (lack of) constant
// folding; see SPEC_FULL.md's fltcalc discussion.
var noFloat = false

// SetNoFloat toggles float-folding support off (true) or on (false).
func SetNoFloat(v bool) { noFloat = v }
