package construct

import (
	"testing"

	"ssair/internal/irg"
	"ssair/internal/mode"
)

func TestSetGetValueWithinOneBlock(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	b := NewBuilder(g, nil)
	c := g.NewNode(g.StartBlock(), irg.OpConst, mode.Is, nil, irg.ConstAttrs{})
	b.SetValue(g.StartBlock(), 0, c)
	if got := b.GetValue(g.StartBlock(), 0, mode.Is); got != c {
		t.Fatalf("GetValue = %v, want %v", got, c)
	}
}

func TestGetValueFallsThroughSinglePred(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	b := NewBuilder(g, nil)
	c := g.NewNode(g.StartBlock(), irg.OpConst, mode.Is, nil, irg.ConstAttrs{})
	b.SetValue(g.StartBlock(), 0, c)

	jmp := g.NewNode(g.StartBlock(), irg.OpJmp, mode.X, nil, nil)
	next := b.NewImmBlock()
	b.AddImmBlockPred(next, jmp)
	b.MatureImmBlock(next)

	if got := b.GetValue(next, 0, mode.Is); got != c {
		t.Fatalf("GetValue across single pred = %v, want %v", got, c)
	}
}

func TestMatureImmBlockCollapsesTrivialPhi(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	b := NewBuilder(g, nil)
	c := g.NewNode(g.StartBlock(), irg.OpConst, mode.Is, nil, irg.ConstAttrs{})
	b.SetValue(g.StartBlock(), 0, c)

	thenJmp := g.NewNode(g.StartBlock(), irg.OpJmp, mode.X, nil, nil)
	elseJmp := g.NewNode(g.StartBlock(), irg.OpJmp, mode.X, nil, nil)

	join := b.NewImmBlock()
	b.AddImmBlockPred(join, thenJmp)
	b.AddImmBlockPred(join, elseJmp)
	b.MatureImmBlock(join)

	// Both predecessors see the same value c, so the join's read of slot 0
	// must collapse to c rather than staying a genuine 2-input phi.
	if got := b.GetValue(join, 0, mode.Is); got != c {
		t.Fatalf("GetValue at join = %v, want collapsed to %v", got, c)
	}
}

func TestGetValueBuildsGenuinePhiOnDivergentValues(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	b := NewBuilder(g, nil)

	c1 := g.NewNode(g.StartBlock(), irg.OpConst, mode.Is, nil, irg.ConstAttrs{})
	thenBlock := b.NewImmBlock()
	preJmp := g.NewNode(g.StartBlock(), irg.OpJmp, mode.X, nil, nil)
	b.AddImmBlockPred(thenBlock, preJmp)
	b.MatureImmBlock(thenBlock)
	b.SetValue(thenBlock, 0, c1)
	thenExit := g.NewNode(thenBlock, irg.OpJmp, mode.X, nil, nil)

	c2 := g.NewNode(g.StartBlock(), irg.OpConst, mode.Is, nil, irg.ConstAttrs{})
	elseBlock := b.NewImmBlock()
	preJmp2 := g.NewNode(g.StartBlock(), irg.OpJmp, mode.X, nil, nil)
	b.AddImmBlockPred(elseBlock, preJmp2)
	b.MatureImmBlock(elseBlock)
	b.SetValue(elseBlock, 0, c2)
	elseExit := g.NewNode(elseBlock, irg.OpJmp, mode.X, nil, nil)

	join := b.NewImmBlock()
	b.AddImmBlockPred(join, thenExit)
	b.AddImmBlockPred(join, elseExit)
	b.MatureImmBlock(join)

	got := b.GetValue(join, 0, mode.Is)
	if got.Opcode() != irg.OpPhi {
		t.Fatalf("GetValue at join = opcode %v, want Phi (values genuinely differ)", got.Opcode())
	}
	if got.In(0) != c1 || got.In(1) != c2 {
		t.Fatalf("phi args = (%v, %v), want (%v, %v)", got.In(0), got.In(1), c1, c2)
	}
}

func TestKeepAliveMemoryPhiRejectsNonMemoryPhi(t *testing.T) {
	g := irg.NewGraph("e", nil, 1)
	b := NewBuilder(g, nil)
	phi := g.NewNode(g.StartBlock(), irg.OpPhi, mode.Is, nil, nil)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for non-memory phi")
		}
	}()
	b.KeepAliveMemoryPhi(phi)
}
