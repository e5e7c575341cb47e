package opt

import (
	"ssair/internal/irg"
	"ssair/internal/tr"
)

// Devirtualize implements the polymorphic-call optimization supplemented
// from libFirm's ir/opt/opt_polymorphy.c: a Call through a Sel into a
// class's method table can be rewritten to a direct Call of the unique
// concrete override, when the override graph (tr.Entity.Overwrites /
// OverwrittenBy) proves there is exactly one live implementation reachable
// from the static receiver type.
type Devirtualizer struct {
	Table *Table
}

// NewDevirtualizer creates a devirtualizer that shares opt's CSE table so a
// rewritten Call participates in the same value numbering as everything
// else the local optimizer produces.
func NewDevirtualizer(t *Table) *Devirtualizer { return &Devirtualizer{Table: t} }

// ResolveUniqueOverride walks virtual and its override subtree
// (OverwrittenBy) and returns the single graph-bearing entity found, or nil
// if there is none or more than one (ambiguous dispatch — the call must stay
// virtual). A method with no overrides that carries a graph resolves to
// itself.
func ResolveUniqueOverride(virtual *tr.Entity) *tr.Entity {
	var leaves []*tr.Entity
	var walk func(e *tr.Entity)
	walk = func(e *tr.Entity) {
		if e.Graph() != nil {
			leaves = append(leaves, e)
		}
		for _, sub := range e.OverwrittenBy() {
			walk(sub)
		}
	}
	walk(virtual)
	if len(leaves) == 1 {
		return leaves[0]
	}
	return nil
}

// Rewrite replaces a Call targeting a polymorphic Sel with a direct Call of
// target's entity, when devirtualization applies; it returns the (possibly
// unchanged) node to keep the call site consistent with optimize_node's
// convention of always returning a usable replacement.
func (d *Devirtualizer) Rewrite(g *irg.Graph, call *irg.Node, sel *irg.Node, virtual *tr.Entity) *irg.Node {
	target := ResolveUniqueOverride(virtual)
	if target == nil {
		return call
	}
	symconst := g.NewNode(call.Block(), irg.OpSymConst, sel.Mode(),
		nil, irg.SymConstAttrs{Kind: irg.SymConstAddrEnt, Entity: target})
	in := call.Ins()
	// operand 0 is memory, operand 1 is the callee address, rest are args.
	newIn := append([]*irg.Node{in[0], symconst}, in[2:]...)
	rewritten := g.NewNode(call.Block(), irg.OpCall, call.Mode(), newIn, irg.CallAttrs{Type: target.Type()})
	return d.Table.Lookup(rewritten)
}
