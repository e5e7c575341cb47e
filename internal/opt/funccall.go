package opt

import (
	"ssair/internal/irg"
	"ssair/internal/tr"
)

// PurityFacts records, per method entity, whether every Call to it can be
// proven free of observable side effects — supplementing the local
// optimizer with the analysis libFirm's ir/opt/funccall.c performs before
// a Call's memory edge can be dropped.
type PurityFacts struct {
	pure map[*tr.Entity]bool
}

// NewPurityFacts seeds the table from each entity's own property mask
// (PropPure/PropConst), the starting point before call-graph propagation.
func NewPurityFacts(entities []*tr.Entity) *PurityFacts {
	f := &PurityFacts{pure: map[*tr.Entity]bool{}}
	for _, e := range entities {
		p := e.Properties()
		f.pure[e] = p&tr.PropPure != 0 || p&tr.PropConst != 0
	}
	return f
}

// Propagate runs a fixed-point pass: a function is pure only if it is
// already marked pure and every Call reachable from its graph targets
// another function this table already considers pure. calls maps each
// entity to the callee entities its graph invokes directly.
func (f *PurityFacts) Propagate(calls map[*tr.Entity][]*tr.Entity) {
	for changed := true; changed; {
		changed = false
		for caller, callees := range calls {
			if !f.pure[caller] {
				continue
			}
			for _, callee := range callees {
				if !f.pure[callee] {
					f.pure[caller] = false
					changed = true
					break
				}
			}
		}
	}
}

// IsPure reports whether e is currently believed side-effect free.
func (f *PurityFacts) IsPure(e *tr.Entity) bool { return f.pure[e] }

// DropsMemoryEdge reports whether a Call to e can bypass the memory chain
// entirely (both operands and result), the optimization this analysis
// exists to enable: a pure call's result depends only on its arguments, so
// it can be treated as an ordinary value-producing node and is eligible for
// the same CSE the local optimizer applies to arithmetic.
func (f *PurityFacts) DropsMemoryEdge(call *irg.Node, callee *tr.Entity) bool {
	return call.Opcode() == irg.OpCall && f.IsPure(callee)
}
