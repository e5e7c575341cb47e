// Package construct implements the constructive SSA builder: front-ends
// emit into immature blocks via SetValue/AddImmBlockPred, and reads resolve
// on demand through GetValue, inserting placeholder phis that are
// completed once MatureImmBlock fixes a block's final predecessor set.
package construct

import (
	"ssair/internal/irg"
	"ssair/internal/mode"
)

// blockState is the builder's per-block bookkeeping, kept out of irg.Node
// so the graph/node store has no dependency on the builder.
type blockState struct {
	graphArr []*irg.Node // local-variable slot -> current value
	mature   bool
	phis     []*irg.Node // placeholder phis awaiting completion on maturity
}

// InitLocalVariable is the front-end hook invoked when a read reaches the
// start block without ever having been written: front-ends that zero-
// initialize locals return a Const here; others return nil to fall back to
// an Unknown(mode) value.
type InitLocalVariable func(pos int, m *mode.Mode) *irg.Node

// Builder drives constructive SSA emission over one graph.
type Builder struct {
	Graph        *irg.Graph
	InitLocal    InitLocalVariable
	states       map[*irg.Node]*blockState
}

// NewBuilder creates a builder over g. The graph's start block begins
// mature (it has a fixed zero predecessors) and every other block starts
// immature until the front-end explicitly matures it.
func NewBuilder(g *irg.Graph, initLocal InitLocalVariable) *Builder {
	b := &Builder{Graph: g, InitLocal: initLocal, states: map[*irg.Node]*blockState{}}
	start := b.stateOf(g.StartBlock())
	start.mature = true
	return b
}

func (b *Builder) stateOf(block *irg.Node) *blockState {
	s, ok := b.states[block]
	if !ok {
		s = &blockState{graphArr: make([]*irg.Node, b.Graph.NLoc)}
		b.states[block] = s
	}
	return s
}

// NewImmBlock allocates a fresh, immature block with no predecessors yet;
// the front-end adds them with AddImmBlockPred before eventually calling
// MatureImmBlock.
func (b *Builder) NewImmBlock() *irg.Node {
	block := b.Graph.NewNode(nil, irg.OpBlock, mode.BB, nil, nil)
	b.stateOf(block)
	return block
}

// AddImmBlockPred appends a control-flow predecessor (a Jmp/Cond-Proj, or
// any mode_X-valued node) to an immature block.
func (b *Builder) AddImmBlockPred(block, pred *irg.Node) {
	s := b.stateOf(block)
	if s.mature {
		panic("construct: AddImmBlockPred on a matured block")
	}
	block.AppendIn(pred)
}

// SetValue records that local variable pos holds value in block.
func (b *Builder) SetValue(block *irg.Node, pos int, value *irg.Node) {
	s := b.stateOf(block)
	if pos >= len(s.graphArr) {
		grown := make([]*irg.Node, pos+1)
		copy(grown, s.graphArr)
		s.graphArr = grown
	}
	s.graphArr[pos] = value
}

// GetValue resolves a read of local variable pos as observed at the end of
// block, under mode m. This is get_r_value_internal.
func (b *Builder) GetValue(block *irg.Node, pos int, m *mode.Mode) *irg.Node {
	s := b.stateOf(block)
	if pos < len(s.graphArr) && s.graphArr[pos] != nil {
		return s.graphArr[pos]
	}
	if s.mature {
		return b.resolveMature(block, pos, m)
	}
	// Immature: allocate a placeholder phi, link it for later completion.
	phi := b.Graph.NewNode(block, irg.OpPhi, m, nil, nil)
	b.SetValue(block, pos, phi)
	s.phis = append(s.phis, phi)
	return phi
}

func (b *Builder) resolveMature(block *irg.Node, pos int, m *mode.Mode) *irg.Node {
	arity := block.Arity()
	switch {
	case arity == 0:
		var v *irg.Node
		if b.InitLocal != nil {
			v = b.InitLocal(pos, m)
		}
		if v == nil {
			v = b.Graph.NewNode(block, irg.OpUnknown, m, nil, nil)
		}
		b.SetValue(block, pos, v)
		return v
	case arity == 1:
		v := b.GetValue(block.In(0).Block(), pos, m)
		b.SetValue(block, pos, v)
		return v
	default:
		phi := b.Graph.NewNode(block, irg.OpPhi, m, make([]*irg.Node, arity), nil)
		b.SetValue(block, pos, phi)
		b.setPhiArguments(phi, block, pos, m)
		result := b.tryRemoveUnnecessaryPhi(phi)
		b.SetValue(block, pos, result)
		return result
	}
}

func (b *Builder) setPhiArguments(phi, block *irg.Node, pos int, m *mode.Mode) {
	for i := 0; i < block.Arity(); i++ {
		predBlock := block.In(i).Block()
		v := b.GetValue(predBlock, pos, m)
		phi.SetIn(i, v)
	}
}

// MatureImmBlock fixes block's final predecessor set and completes every
// placeholder phi attached to it while it was immature.
func (b *Builder) MatureImmBlock(block *irg.Node) {
	s := b.stateOf(block)
	if s.mature {
		return
	}
	s.mature = true
	phis := s.phis
	s.phis = nil
	for _, phi := range phis {
		in := make([]*irg.Node, block.Arity())
		for i := range in {
			in[i] = nil
		}
		for len(phi.Ins()) < block.Arity() {
			phi.AppendIn(nil)
		}
		// pos was recorded by identity in graphArr; recover it by scanning.
		pos := b.findSlot(block, phi)
		b.setPhiArguments(phi, block, pos, phi.Mode())
		replacement := b.tryRemoveUnnecessaryPhi(phi)
		if replacement != phi {
			b.SetValue(block, pos, replacement)
		}
	}
}

func (b *Builder) findSlot(block *irg.Node, phi *irg.Node) int {
	s := b.stateOf(block)
	for i, v := range s.graphArr {
		if v == phi {
			return i
		}
	}
	return -1
}

// tryRemoveUnnecessaryPhi implements the φ-simplification law: a phi whose
// every input is either itself or a single distinct value v collapses to v,
// recursively freeing any phi that becomes unreferenced as a result.
// Memory phis are never collapsed away from End's keepalive list by this
// function; callers that build loop memory phis add the keepalive
// separately (see (*Builder).KeepAliveMemoryPhi).
func (b *Builder) tryRemoveUnnecessaryPhi(phi *irg.Node) *irg.Node {
	var same *irg.Node
	for i := 0; i < phi.Arity(); i++ {
		in := phi.In(i)
		if in == phi || in == same {
			continue
		}
		if same != nil {
			return phi // more than one distinct non-self input: keep it.
		}
		same = in
	}
	if same == nil {
		// all inputs are self-references (unreachable loop header value):
		// degrade to Unknown so consumers still see a well-typed node.
		same = phi.Graph().NewNode(phi.Block(), irg.OpUnknown, phi.Mode(), nil, nil)
	}

	users := phi.Outs()
	for _, u := range users {
		for i := 0; i < u.Arity(); i++ {
			if u.In(i) == phi {
				u.SetIn(i, same)
			}
		}
		if u.Opcode() == irg.OpPhi && u != phi {
			b.tryRemoveUnnecessaryPhi(u)
		}
	}
	return same
}

// KeepAliveMemoryPhi registers phi on End's keepalive list, preventing it
// from being considered dead purely because a later pass stopped routing
// reads through it — required for memory phis at loop headers.
func (b *Builder) KeepAliveMemoryPhi(phi *irg.Node) {
	if phi.Mode() != mode.M {
		panic("construct: KeepAliveMemoryPhi on a non-memory phi")
	}
	b.Graph.AddKeepAlive(phi)
}
