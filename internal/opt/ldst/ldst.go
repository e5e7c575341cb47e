// Package ldst implements the load/store optimizer: a per-node alias-aware
// memory-chain walk (RAW/RAR/WAW elimination; write-after-read stores are
// not removed) and a Tarjan SCC-driven pass over loop-invariant loads. It requires its input graph to be
// pinned, have consistent out-edges, no critical edges, and computed
// dominance, mirroring libFirm's ir/opt/ldstopt.c preconditions.
package ldst

import "ssair/internal/irg"

// AliasRelation is the external oracle's verdict on whether two addresses
// can ever refer to overlapping storage.
type AliasRelation int

const (
	AliasNo AliasRelation = iota
	AliasMay
	AliasSure
)

// AliasOracle answers whether two addresses can alias; a real implementation
// consults type-based alias analysis or points-to results computed
// elsewhere. The load/store optimizer never guesses on its own.
type AliasOracle interface {
	GetAliasRelation(addrA, addrB *irg.Node, modeA, modeB *irg.Node) AliasRelation
}

// Optimizer runs the two load/store optimization phases over one graph.
type Optimizer struct {
	Graph  *irg.Graph
	Oracle AliasOracle
	master uint64 // master visited counter for cycle-breaking memory walks
}

// NewOptimizer creates a load/store optimizer for g, consulting oracle for
// alias queries the per-node walk cannot resolve structurally.
func NewOptimizer(g *irg.Graph, oracle AliasOracle) *Optimizer {
	return &Optimizer{Graph: g, Oracle: oracle}
}

// Run executes phase 1 then phase 2 and reports how many nodes were
// eliminated (loads rewritten to reuse a prior value, dead stores removed).
func (o *Optimizer) Run() int {
	n := o.phase1()
	n += o.phase2LoopInvariantMotion()
	return n
}

func skipProj(n *irg.Node) *irg.Node {
	for n.Opcode() == irg.OpProj {
		n = n.In(0)
	}
	return n
}

// phase1 implements do_load_store_optimize: a per-node pass over every Load
// and Store in the graph, walking each one's memory predecessor chain to
// find an eliminable aliasing relationship.
func (o *Optimizer) phase1() int {
	eliminated := 0
	for _, n := range o.Graph.AllNodes() {
		switch n.Opcode() {
		case irg.OpLoad:
			if o.optimizeLoad(n) {
				eliminated++
			}
		case irg.OpStore:
			if o.optimizeStore(n) {
				eliminated++
			}
		}
	}
	return eliminated
}

func (o *Optimizer) optimizeLoad(load *irg.Node) bool {
	if len(load.Outs()) == 0 {
		return true // dead load: nothing reads its result or exception Proj.
	}
	addr := load.In(1)
	mem := load.In(0)
	o.master++
	visited := o.master
	return o.walkMemoryForLoad(load, addr, mem, visited)
}

func (o *Optimizer) walkMemoryForLoad(load, addr, mem *irg.Node, visited uint64) bool {
	pred := skipProj(mem)
	if pred == load || pred.Visited() == visited {
		return false // cycle: give up on this load.
	}
	pred.SetVisited(visited)

	switch pred.Opcode() {
	case irg.OpStore:
		storeAddr := pred.In(1)
		if storeAddr == addr {
			value := pred.In(2)
			return o.replaceLoadResult(load, value)
		}
		if o.Oracle != nil && o.Oracle.GetAliasRelation(storeAddr, addr, pred, load) == AliasNo {
			return o.walkMemoryForLoad(load, addr, pred.In(0), visited)
		}
		return false
	case irg.OpLoad:
		if pred.In(1) == addr && pred.Mode() == load.Mode() {
			return o.replaceLoadResult(load, pred)
		}
		return o.walkMemoryForLoad(load, addr, pred.In(0), visited)
	case irg.OpSync:
		for i := 0; i < pred.Arity(); i++ {
			if o.walkMemoryForLoad(load, addr, pred.In(i), visited) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// replaceLoadResult reroutes load's value Proj (Num 0) to value and its
// memory Proj (Num 1) to load's own memory predecessor, splicing load out of
// both the value and memory chains, then points both Projs at Bad; with no
// remaining out-edges, load itself is left unreferenced (the obstack node
// store has no explicit free).
func (o *Optimizer) replaceLoadResult(load, value *irg.Node) bool {
	for _, user := range load.Outs() {
		if user.Opcode() != irg.OpProj {
			continue
		}
		a, ok := user.Attrs().(irg.ProjAttrs)
		if !ok {
			continue
		}
		switch a.Num {
		case 0:
			rerouteUsers(user, value)
			user.SetIn(0, o.Graph.Bad())
		case 1:
			rerouteUsers(user, load.In(0))
			user.SetIn(0, o.Graph.Bad())
		}
	}
	return true
}

// rerouteUsers points every user of from at to instead, matching the
// def-use fixup idiom the builder's try_remove_unnecessary_phi uses when
// collapsing a node into one of its own operands.
func rerouteUsers(from, to *irg.Node) {
	for _, user := range from.Outs() {
		for i := 0; i < user.Arity(); i++ {
			if user.In(i) == from {
				user.SetIn(i, to)
			}
		}
	}
}

func (o *Optimizer) optimizeStore(store *irg.Node) bool {
	mem := store.In(0)
	addr := store.In(1)
	pred := skipProj(mem)
	if pred.Opcode() == irg.OpStore && pred.In(1) == addr {
		// WAW: pred's value is dead, route its memory predecessor directly
		// into store, skipping pred.
		store.SetIn(0, pred.In(0))
		return true
	}
	return false
}

// phase2LoopInvariantMotion finds strongly connected components (loops) via
// Tarjan's algorithm over the block control-flow graph and, for Loads whose
// address is loop-invariant and never stored to inside the loop, replaces
// every later such Load of the same address with the first one found, so
// repeated invariant loads collapse to one. No Load is moved out of the
// loop.
func (o *Optimizer) phase2LoopInvariantMotion() int {
	sccs := tarjanSCC(o.Graph)
	hoisted := 0
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue // not a loop (trivial SCCs are acyclic blocks).
		}
		entry := loopEntry(scc)
		if entry == nil {
			continue
		}
		cache := map[*irg.Node]*irg.Node{}
		for _, block := range scc {
			for _, n := range blockNodes(o.Graph, block) {
				if n.Opcode() != irg.OpLoad {
					continue
				}
				addr := n.In(1)
				if !isLoopInvariant(addr, scc) {
					continue
				}
				if writtenInLoop(o.Graph, addr, scc) {
					continue
				}
				if existing, ok := cache[addr]; ok {
					o.replaceLoadResult(n, existing)
					hoisted++
					continue
				}
				cache[addr] = n
			}
		}
	}
	return hoisted
}

func blockNodes(g *irg.Graph, block *irg.Node) []*irg.Node {
	var out []*irg.Node
	for _, n := range g.AllNodes() {
		if n.Block() == block {
			out = append(out, n)
		}
	}
	return out
}

func isLoopInvariant(n *irg.Node, scc []*irg.Node) bool {
	if n.Opcode() == irg.OpConst || n.Opcode() == irg.OpSymConst {
		return true
	}
	for _, b := range scc {
		if n.Block() == b {
			return false
		}
	}
	return true
}

func writtenInLoop(g *irg.Graph, addr *irg.Node, scc []*irg.Node) bool {
	for _, block := range scc {
		for _, n := range blockNodes(g, block) {
			if n.Opcode() == irg.OpStore && n.In(1) == addr {
				return true
			}
		}
	}
	return false
}

func loopEntry(scc []*irg.Node) *irg.Node {
	inSCC := map[*irg.Node]bool{}
	for _, b := range scc {
		inSCC[b] = true
	}
	for _, b := range scc {
		for i := 0; i < b.Arity(); i++ {
			pred := b.In(i)
			predBlock := skipProj(pred).Block()
			if predBlock != nil && !inSCC[predBlock] {
				return b
			}
		}
	}
	return nil
}
