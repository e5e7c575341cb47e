package ldst

import (
	"testing"

	"ssair/internal/irg"
	"ssair/internal/mode"
)

func TestOptimizeStoreEliminatesWAW(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	block := g.StartBlock()
	addr := g.NewNode(block, irg.OpSymConst, mode.P, nil, nil)
	v1 := g.NewNode(block, irg.OpConst, mode.Is, nil, irg.ConstAttrs{})
	v2 := g.NewNode(block, irg.OpConst, mode.Is, nil, irg.ConstAttrs{})

	store1 := g.NewNode(block, irg.OpStore, mode.M, []*irg.Node{g.InitialMem(), addr, v1}, nil)
	store2 := g.NewNode(block, irg.OpStore, mode.M, []*irg.Node{store1, addr, v2}, nil)

	o := NewOptimizer(g, nil)
	if !o.optimizeStore(store2) {
		t.Fatal("optimizeStore did not eliminate a same-address WAW pair")
	}
	if store2.In(0) != g.InitialMem() {
		t.Errorf("store2's memory input after WAW elimination = %v, want the pre-store1 memory", store2.In(0))
	}
}

func TestOptimizeStoreKeepsDifferentAddresses(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	block := g.StartBlock()
	addrA := g.NewNode(block, irg.OpSymConst, mode.P, nil, nil)
	addrB := g.NewNode(block, irg.OpSymConst, mode.P, nil, nil)
	v := g.NewNode(block, irg.OpConst, mode.Is, nil, irg.ConstAttrs{})

	store1 := g.NewNode(block, irg.OpStore, mode.M, []*irg.Node{g.InitialMem(), addrA, v}, nil)
	store2 := g.NewNode(block, irg.OpStore, mode.M, []*irg.Node{store1, addrB, v}, nil)

	o := NewOptimizer(g, nil)
	if o.optimizeStore(store2) {
		t.Fatal("optimizeStore eliminated a store pair with different addresses")
	}
	if store2.In(0) != store1 {
		t.Error("store2's memory input should be untouched when addresses differ")
	}
}

func TestWalkMemoryForLoadForwardsStoredValue(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	block := g.StartBlock()
	addr := g.NewNode(block, irg.OpSymConst, mode.P, nil, nil)
	v := g.NewNode(block, irg.OpConst, mode.Is, nil, irg.ConstAttrs{})

	store := g.NewNode(block, irg.OpStore, mode.M, []*irg.Node{g.InitialMem(), addr, v}, nil)
	load := g.NewNode(block, irg.OpLoad, mode.T, []*irg.Node{store, addr}, nil)
	// give load an out-edge so optimizeLoad doesn't short-circuit as dead.
	g.NewNode(block, irg.OpProj, mode.Is, []*irg.Node{load}, irg.ProjAttrs{Num: 0})

	o := NewOptimizer(g, nil)
	if !o.optimizeLoad(load) {
		t.Fatal("optimizeLoad did not forward a same-address store's value")
	}
}

func TestReplaceLoadResultReroutesValueAndMemoryProjs(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	block := g.StartBlock()
	addr := g.NewNode(block, irg.OpSymConst, mode.P, nil, nil)
	v := g.NewNode(block, irg.OpConst, mode.Is, nil, irg.ConstAttrs{})
	m := g.InitialMem()

	store := g.NewNode(block, irg.OpStore, mode.M, []*irg.Node{m, addr, v}, nil)
	load := g.NewNode(block, irg.OpLoad, mode.T, []*irg.Node{store, addr}, nil)
	resProj := g.NewNode(block, irg.OpProj, mode.Is, []*irg.Node{load}, irg.ProjAttrs{Num: 0})
	memProj := g.NewNode(block, irg.OpProj, mode.M, []*irg.Node{load}, irg.ProjAttrs{Num: 1})

	resUser := g.NewNode(block, irg.OpMinus, mode.Is, []*irg.Node{resProj}, nil)
	memUser := g.NewNode(block, irg.OpStore, mode.M, []*irg.Node{memProj, addr, v}, nil)

	o := NewOptimizer(g, nil)
	if !o.optimizeLoad(load) {
		t.Fatal("optimizeLoad did not forward a same-address store's value")
	}
	if resUser.In(0) != v {
		t.Errorf("L.res user rewired to %v, want the stored value v", resUser.In(0))
	}
	if memUser.In(0) != store {
		t.Errorf("L.mem user rewired to %v, want load's own memory predecessor (proj_M(S))", memUser.In(0))
	}
	if len(load.Outs()) != 0 {
		t.Error("load should have no remaining out-edges once both its Projs are rerouted")
	}
}

func TestTarjanSCCFindsLoopAndTrivialBlocksSeparately(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	entry := g.StartBlock()

	header := g.NewNode(nil, irg.OpBlock, mode.BB, nil, nil)
	entryJmp := g.NewNode(entry, irg.OpJmp, mode.X, nil, nil)
	header.AppendIn(entryJmp)

	body := g.NewNode(nil, irg.OpBlock, mode.BB, nil, nil)
	headerJmp := g.NewNode(header, irg.OpJmp, mode.X, nil, nil)
	body.AppendIn(headerJmp)

	backJmp := g.NewNode(body, irg.OpJmp, mode.X, nil, nil)
	header.AppendIn(backJmp) // back-edge closes the header<->body loop.

	sccs := tarjanSCC(g)

	var loopSCC []*irg.Node
	for _, scc := range sccs {
		if len(scc) >= 2 {
			loopSCC = scc
		}
	}
	if loopSCC == nil {
		t.Fatal("tarjanSCC found no multi-node SCC for the header<->body loop")
	}
	inLoop := map[*irg.Node]bool{}
	for _, b := range loopSCC {
		inLoop[b] = true
	}
	if !inLoop[header] || !inLoop[body] {
		t.Error("loop SCC should contain both header and body blocks")
	}
	if inLoop[entry] {
		t.Error("loop SCC should not include the acyclic entry block")
	}
}

func TestLoopEntryFindsBlockWithOutsideEdge(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	entry := g.StartBlock()

	header := g.NewNode(nil, irg.OpBlock, mode.BB, nil, nil)
	entryJmp := g.NewNode(entry, irg.OpJmp, mode.X, nil, nil)
	header.AppendIn(entryJmp)

	body := g.NewNode(nil, irg.OpBlock, mode.BB, nil, nil)
	headerJmp := g.NewNode(header, irg.OpJmp, mode.X, nil, nil)
	body.AppendIn(headerJmp)

	backJmp := g.NewNode(body, irg.OpJmp, mode.X, nil, nil)
	header.AppendIn(backJmp)

	if got := loopEntry([]*irg.Node{header, body}); got != header {
		t.Errorf("loopEntry = %v, want header (the only block with a predecessor outside the SCC)", got)
	}
}
