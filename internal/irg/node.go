package irg

import (
	"fmt"

	"ssair/internal/mode"
	"ssair/internal/tarval"
)

// DebugInfo locates a node in source text, mirroring dbginfo.c's payload
// (file/line/column) plus an optional human-readable function name used
// when printing call stacks.
type DebugInfo struct {
	File     string
	Line     int
	Column   int
	Function string
}

// Attrs is the opcode-specific attribute union. Each opcode that needs
// payload beyond (mode, predecessors) stores one concrete attribute value
// here; optimize_node's attribute-comparison callbacks type-switch on it.
type Attrs interface{}

// ConstAttrs is Const's attribute: the folded tarval.
type ConstAttrs struct{ Tarval *tarval.Tarval }

// SymConstKind discriminates SymConst's payload variants.
type SymConstKind int

const (
	SymConstAddrEnt SymConstKind = iota
	SymConstTypeSize
	SymConstTypeAlign
	SymConstOfsEnt
	SymConstEnumConst
)

// SymConstAttrs is SymConst's attribute.
type SymConstAttrs struct {
	Kind   SymConstKind
	Entity interface{} // *tr.Entity
	Type   interface{} // *tr.Type
}

// CmpAttrs is Cmp's attribute: the Proj consumers mask which relation they
// test, but Cmp itself carries no extra state beyond its two predecessors;
// kept here for forward compatibility with unordered-float relations.
type CmpAttrs struct{}

// Pnc is the "predicate numeric compare" relation mask a Proj(Cmp) tests.
type Pnc int

const (
	PncFalse Pnc = 0
	PncLt    Pnc = 1 << iota
	PncEq
	PncGt
	PncUo
)

func (p Pnc) Negated() Pnc { return ^p & (PncLt | PncEq | PncGt | PncUo) }

// ProjAttrs is Proj's attribute: which result slot of a tuple-valued
// predecessor this projects, plus (for Proj(Cmp)) the tested relation.
type ProjAttrs struct {
	Num int
	Pnc Pnc
}

// SelAttrs is Sel's attribute: the field/array-index entity being selected.
type SelAttrs struct{ Entity interface{} } // *tr.Entity

// CallAttrs is Call's attribute: the callee type, used by the purity and
// devirtualization passes.
type CallAttrs struct {
	Type interface{} // *tr.Type (method type)
}

// LoadStoreAttrs is shared by Load and Store: whether the access is
// volatile (excluded from CSE and from the load/store optimizer's
// elimination rules).
type LoadStoreAttrs struct{ Volatile bool }

// ConfirmAttrs is Confirm's attribute: the bound value and relation it
// asserts, used by range-propagation folding.
type ConfirmAttrs struct {
	Bound interface{} // Node
	Pnc   Pnc
}

// Node is an IR node: opcode, mode, predecessor array, def-use out-edges,
// and opcode-specific attributes. Nodes are allocated on a Graph's obstack
// and never individually freed.
type Node struct {
	graph   *Graph
	opcode  Opcode
	mode    *mode.Mode
	in      []*Node // index -1 (block) stored separately in `block`
	block   *Node   // nil only for Block/Start/Bad/Anchor-class nodes
	attrs   Attrs
	visited uint64
	debug   DebugInfo
	link    interface{}
	loop    interface{}

	outs []outEdge
}

type outEdge struct {
	user *Node
	pos  int
}

func (n *Node) Opcode() Opcode     { return n.opcode }
func (n *Node) Mode() *mode.Mode   { return n.mode }
func (n *Node) Block() *Node       { return n.block }
func (n *Node) Attrs() Attrs       { return n.attrs }
func (n *Node) Debug() DebugInfo   { return n.debug }
func (n *Node) SetDebug(d DebugInfo) { n.debug = d }
func (n *Node) Link() interface{}  { return n.link }
func (n *Node) SetLink(v interface{}) { n.link = v }
func (n *Node) Arity() int         { return len(n.in) }
func (n *Node) Graph() *Graph      { return n.graph }

func (n *Node) String() string {
	return fmt.Sprintf("%s<%d>:%s", n.opcode, n.graph.indexOf(n), n.mode)
}

// In returns the i-th predecessor (0-based, matching the node's own
// arity — the Block predecessor at position -1 is accessed via Block()).
func (n *Node) In(i int) *Node { return n.in[i] }

// SetIn replaces the i-th predecessor, updating def-use edges on both the
// old and new target.
func (n *Node) SetIn(i int, pred *Node) {
	old := n.in[i]
	if old != nil {
		old.removeOut(n, i)
	}
	n.in[i] = pred
	if pred != nil {
		pred.addOut(n, i)
	}
}

// Ins returns a defensive copy of the predecessor array.
func (n *Node) Ins() []*Node {
	out := make([]*Node, len(n.in))
	copy(out, n.in)
	return out
}

// AppendIn grows the predecessor array by one (used by add_immBlock_pred and
// by Phi argument completion).
func (n *Node) AppendIn(pred *Node) {
	idx := len(n.in)
	n.in = append(n.in, nil)
	n.SetIn(idx, pred)
}

func (n *Node) addOut(user *Node, pos int) {
	n.outs = append(n.outs, outEdge{user, pos})
}

func (n *Node) removeOut(user *Node, pos int) {
	for i, e := range n.outs {
		if e.user == user && e.pos == pos {
			n.outs = append(n.outs[:i], n.outs[i+1:]...)
			return
		}
	}
}

// Outs returns the current def-use out-edge set: every (user, operand
// position) pair that references n.
func (n *Node) Outs() []*Node {
	out := make([]*Node, 0, len(n.outs))
	for _, e := range n.outs {
		out = append(out, e.user)
	}
	return out
}

// Visited reports n's last-visited stamp, for the monotonic visited-counter
// cycle-breaking idiom used throughout the optimizer and builder.
func (n *Node) Visited() uint64     { return n.visited }
func (n *Node) SetVisited(v uint64) { n.visited = v }

// IsBlock reports whether n is a Block (used pervasively to special-case
// the -1 predecessor convention).
func (n *Node) IsBlock() bool { return n.opcode == OpBlock }

// SkipID follows Id forwarding nodes, the walker-must-skip-Id invariant
// from SPEC_FULL.md §3.
func SkipID(n *Node) *Node {
	for n.opcode == OpId {
		n = n.in[0]
	}
	return n
}
