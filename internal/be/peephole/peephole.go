// Package peephole implements the backend peephole framework: a reverse
// walk over each block tracking which register each machine value is
// currently held in, dispatching a per-opcode rewrite callback, and
// exchanging matched nodes while keeping def-use edges and register-value
// tracking consistent. Liveness sets are not modelled.
package peephole

import "ssair/internal/irg"

// RegisterClass identifies a register file (general-purpose, floating
// point, ...).
type RegisterClass int

// Callback rewrites n in place given the current register_values snapshot,
// returning the replacement node (n itself if no rewrite applies).
type Callback func(pf *Peepholer, n *irg.Node) *irg.Node

// Peepholer walks one graph's blocks in reverse, tracking
// register_values[class][reg] the way libFirm's bepeephole.c does, so a
// callback can ask "what value currently sits in register r" without
// re-deriving liveness from scratch at every node.
type Peepholer struct {
	Graph    *irg.Graph
	handlers map[irg.Opcode]Callback

	regValues map[RegisterClass]map[int]*irg.Node
}

// New creates a peepholer over g.
func New(g *irg.Graph) *Peepholer {
	return &Peepholer{Graph: g, handlers: map[irg.Opcode]Callback{}, regValues: map[RegisterClass]map[int]*irg.Node{}}
}

// Register installs the rewrite callback for opcode op.
func (pf *Peepholer) Register(op irg.Opcode, cb Callback) { pf.handlers[op] = cb }

// RegisterOf returns the node currently believed to occupy reg in class c,
// or nil if the register is not tracked as holding a known value at the
// current walk position.
func (pf *Peepholer) RegisterOf(c RegisterClass, reg int) *irg.Node {
	return pf.regValues[c][reg]
}

// SetRegister records that reg in class c now holds value.
func (pf *Peepholer) SetRegister(c RegisterClass, reg int, value *irg.Node) {
	m, ok := pf.regValues[c]
	if !ok {
		m = map[int]*irg.Node{}
		pf.regValues[c] = m
	}
	m[reg] = value
}

func (pf *Peepholer) clearRegister(c RegisterClass, reg int) {
	delete(pf.regValues[c], reg)
}

// RegBinding associates a node with the (class, register) it defines and
// the (class, register) values it uses, so Walk can clear/set entries
// around the dispatch call without the caller re-deriving def/use sets.
type RegBinding struct {
	Defines RegisterClass
	DefReg  int
	HasDef  bool
	Uses    []struct {
		Class RegisterClass
		Reg   int
		Value *irg.Node // the predecessor of n that supplies this register
	}
}

// Bindings resolves RegBinding for n; callers register this alongside
// per-opcode rewrite callbacks, since bindings are backend-specific (they
// depend on the instruction selector's register assignment, not on the
// opcode alone).
type Bindings func(n *irg.Node) RegBinding

// killBarriers removes backend barrier nodes (no-op placeholders the
// instruction selector leaves behind to pin scheduling order) before the
// walk begins, since they carry no register-value information and would
// otherwise break the reverse-walk's block traversal.
func killBarriers(g *irg.Graph, isBarrier func(*irg.Node) bool) {
	for _, n := range g.AllNodes() {
		if !isBarrier(n) {
			continue
		}
		for _, user := range n.Outs() {
			for i := 0; i < user.Arity(); i++ {
				if user.In(i) == n {
					user.SetIn(i, n.In(0))
				}
			}
		}
	}
}

// Walk performs the reverse per-block peephole pass: for each block, visit
// its nodes in reverse emission order, clearing the register(s) the node
// defines (so a later peephole rewrite sees a fresh binding) and setting
// the registers it uses to point back at their producing nodes, then
// dispatching to the opcode's registered Callback.
func (pf *Peepholer) Walk(blocks []*irg.Node, order func(block *irg.Node) []*irg.Node, bindings Bindings, isBarrier func(*irg.Node) bool) int {
	killBarriers(pf.Graph, isBarrier)
	rewrites := 0
	for _, block := range blocks {
		nodes := order(block)
		for i := len(nodes) - 1; i >= 0; i-- {
			n := nodes[i]
			b := bindings(n)
			if b.HasDef {
				pf.clearRegister(b.Defines, b.DefReg)
			}
			for _, u := range b.Uses {
				pf.SetRegister(u.Class, u.Reg, u.Value)
			}
			cb, ok := pf.handlers[n.Opcode()]
			if !ok {
				continue
			}
			replacement := cb(pf, n)
			if replacement != n {
				pf.exchange(n, replacement)
				rewrites++
			}
		}
	}
	return rewrites
}

// exchange implements be_peephole_exchange: rewire every user of old to
// point at replacement, and repoint any register-value entry that
// referenced old at replacement. No liveness information is updated.
func (pf *Peepholer) exchange(old, replacement *irg.Node) {
	for _, user := range old.Outs() {
		for i := 0; i < user.Arity(); i++ {
			if user.In(i) == old {
				user.SetIn(i, replacement)
			}
		}
	}
	for class, regs := range pf.regValues {
		for reg, v := range regs {
			if v == old {
				pf.regValues[class][reg] = replacement
			}
		}
	}
}
