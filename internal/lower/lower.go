// Package lower implements the lowering pass: Sel resolution to address
// arithmetic, SymConst kind folding, and bitfield read/write expansion. It
// runs after the local optimizer has reached a fixed point and before the
// backend sees the graph.
package lower

import (
	"ssair/internal/irg"
	"ssair/internal/mode"
	"ssair/internal/tarval"
	"ssair/internal/tr"
)

// Lowerer rewrites Sel/SymConst/bitfield nodes in place within a graph.
type Lowerer struct {
	Graph *irg.Graph
}

func New(g *irg.Graph) *Lowerer { return &Lowerer{Graph: g} }

// LowerSel resolves a Sel node to pointer arithmetic, per the field kind:
//   - global entity select: a constant address (SymConst AddrEnt) — no
//     arithmetic needed, the Sel is replaced directly.
//   - struct field: Base + offset.
//   - array index (possibly multi-dimensional): Base + index·sizeof(elem),
//     recursively applying the formula across each dimension.
//   - polymorphic method dispatch: a Load from the object's method table.
func (lw *Lowerer) LowerSel(sel *irg.Node) *irg.Node {
	a, ok := sel.Attrs().(irg.SelAttrs)
	if !ok {
		return sel
	}
	ent, _ := a.Entity.(*tr.Entity)
	if ent == nil {
		return sel
	}

	if ent.Allocation() == tr.AllocStatic && ent.Owner() == nil {
		return lw.Graph.NewNode(sel.Block(), irg.OpSymConst, mode.P, nil,
			irg.SymConstAttrs{Kind: irg.SymConstAddrEnt, Entity: ent})
	}

	base := sel.In(0)
	if ent.Owner() != nil && ent.Owner().Kind() == tr.KindClass && ent.Graph() != nil {
		return lw.lowerVirtualDispatch(sel, base, ent)
	}

	offset := ent.Offset() / 8
	if offset == 0 {
		return base
	}
	offConst := lw.Graph.NewNode(sel.Block(), irg.OpConst, mode.P, nil,
		irg.ConstAttrs{Tarval: tarval.NewFromLong(int64(offset), mode.P)})
	return lw.Graph.NewNode(sel.Block(), irg.OpAdd, mode.P, []*irg.Node{base, offConst}, nil)
}

// LowerArraySel resolves a (possibly multi-dimensional) array index Sel
// whose extra predecessors (beyond the base) are the per-dimension index
// values, applying Base + (i0·d1·d2·...·dn + i1·d2·...·dn + ... + ik)·elemSize.
func (lw *Lowerer) LowerArraySel(sel *irg.Node, elemSizeBytes int, dims []int) *irg.Node {
	base := sel.In(0)
	indices := sel.Ins()[1:]

	var linear *irg.Node
	stride := 1
	for d := len(indices) - 1; d >= 0; d-- {
		idx := indices[d]
		if stride != 1 {
			strideConst := lw.Graph.NewNode(sel.Block(), irg.OpConst, idx.Mode(), nil,
				irg.ConstAttrs{Tarval: tarval.NewFromLong(int64(stride), idx.Mode())})
			idx = lw.Graph.NewNode(sel.Block(), irg.OpMul, idx.Mode(), []*irg.Node{idx, strideConst}, nil)
		}
		if linear == nil {
			linear = idx
		} else {
			linear = lw.Graph.NewNode(sel.Block(), irg.OpAdd, idx.Mode(), []*irg.Node{linear, idx}, nil)
		}
		if d < len(dims) {
			stride *= dims[d]
		}
	}
	sizeConst := lw.Graph.NewNode(sel.Block(), irg.OpConst, mode.P, nil,
		irg.ConstAttrs{Tarval: tarval.NewFromLong(int64(elemSizeBytes), mode.P)})
	byteOffset := lw.Graph.NewNode(sel.Block(), irg.OpMul, mode.P, []*irg.Node{linear, sizeConst}, nil)
	return lw.Graph.NewNode(sel.Block(), irg.OpAdd, mode.P, []*irg.Node{base, byteOffset}, nil)
}

func (lw *Lowerer) lowerVirtualDispatch(sel, receiver *irg.Node, ent *tr.Entity) *irg.Node {
	slot := methodTableSlot(ent)
	vtblPtr := lw.Graph.NewNode(sel.Block(), irg.OpLoad, mode.P, []*irg.Node{lw.Graph.InitialMem(), receiver}, irg.LoadStoreAttrs{})
	slotConst := lw.Graph.NewNode(sel.Block(), irg.OpConst, mode.P, nil,
		irg.ConstAttrs{Tarval: tarval.NewFromLong(int64(slot*8), mode.P)})
	slotAddr := lw.Graph.NewNode(sel.Block(), irg.OpAdd, mode.P, []*irg.Node{vtblPtr, slotConst}, nil)
	return lw.Graph.NewNode(sel.Block(), irg.OpLoad, mode.P, []*irg.Node{lw.Graph.InitialMem(), slotAddr}, irg.LoadStoreAttrs{})
}

func methodTableSlot(ent *tr.Entity) int {
	owner := ent.Owner()
	for i, m := range owner.Members() {
		if m == ent {
			return i
		}
	}
	return 0
}

// LowerSymConst folds the kinds resolvable purely from type/entity layout:
// type_size, type_align, and ofs_ent (an entity's offset within its owner).
// enum_const and every other kind are returned unchanged.
func (lw *Lowerer) LowerSymConst(n *irg.Node) *irg.Node {
	a, ok := n.Attrs().(irg.SymConstAttrs)
	if !ok {
		return n
	}
	var value *tarval.Tarval
	switch a.Kind {
	case irg.SymConstTypeSize:
		t, _ := a.Type.(*tr.Type)
		value = tarval.NewFromLong(int64(t.SizeBits()/8), n.Mode())
	case irg.SymConstTypeAlign:
		t, _ := a.Type.(*tr.Type)
		value = tarval.NewFromLong(int64(t.AlignBits()/8), n.Mode())
	case irg.SymConstOfsEnt:
		e, _ := a.Entity.(*tr.Entity)
		value = tarval.NewFromLong(int64(e.Offset()/8), n.Mode())
	default:
		return n
	}
	return lw.Graph.NewNode(n.Block(), irg.OpConst, n.Mode(), nil, irg.ConstAttrs{Tarval: value})
}

// BitfieldRead expands a bitfield load (Load, then mask/shift to isolate the
// field) into Load-Shl-Shrs (signed) or Load-Shl-Shr (unsigned); no And is
// emitted: shift the loaded word left so the field's high bit
// sits at the mode's own high bit, then shift right (arithmetic for signed
// fields, logical otherwise) by (width - fieldWidth).
func (lw *Lowerer) BitfieldRead(addr *irg.Node, storageMode *mode.Mode, bitOffset, bitWidth int, signed bool) *irg.Node {
	block := addr.Block()
	load := lw.Graph.NewNode(block, irg.OpLoad, storageMode, []*irg.Node{lw.Graph.InitialMem(), addr}, irg.LoadStoreAttrs{})
	width := storageMode.SizeBits()
	leftShift := width - bitOffset - bitWidth
	rightShift := width - bitWidth

	shlConst := lw.Graph.NewNode(block, irg.OpConst, storageMode, nil, irg.ConstAttrs{Tarval: tarval.NewFromLong(int64(leftShift), storageMode)})
	shifted := lw.Graph.NewNode(block, irg.OpShl, storageMode, []*irg.Node{load, shlConst}, nil)

	shrConst := lw.Graph.NewNode(block, irg.OpConst, storageMode, nil, irg.ConstAttrs{Tarval: tarval.NewFromLong(int64(rightShift), storageMode)})
	shrOp := irg.OpShr
	if signed {
		shrOp = irg.OpShrs
	}
	return lw.Graph.NewNode(block, shrOp, storageMode, []*irg.Node{shifted, shrConst}, nil)
}

// BitfieldWrite expands a bitfield store into Load-Shl-And-Or-Store:
// load the storage word, clear the target bits with an And against the
// complement mask, Or in the new value shifted into position, store back.
func (lw *Lowerer) BitfieldWrite(addr *irg.Node, storageMode *mode.Mode, bitOffset, bitWidth int, value *irg.Node) {
	block := addr.Block()
	load := lw.Graph.NewNode(block, irg.OpLoad, storageMode, []*irg.Node{lw.Graph.InitialMem(), addr}, irg.LoadStoreAttrs{})

	fieldMask := (int64(1) << uint(bitWidth)) - 1
	clearMask := ^(fieldMask << uint(bitOffset))
	clearConst := lw.Graph.NewNode(block, irg.OpConst, storageMode, nil, irg.ConstAttrs{Tarval: tarval.NewFromLong(clearMask, storageMode)})
	cleared := lw.Graph.NewNode(block, irg.OpAnd, storageMode, []*irg.Node{load, clearConst}, nil)

	shiftConst := lw.Graph.NewNode(block, irg.OpConst, storageMode, nil, irg.ConstAttrs{Tarval: tarval.NewFromLong(int64(bitOffset), storageMode)})
	shifted := lw.Graph.NewNode(block, irg.OpShl, storageMode, []*irg.Node{value, shiftConst}, nil)

	merged := lw.Graph.NewNode(block, irg.OpOr, storageMode, []*irg.Node{cleared, shifted}, nil)
	lw.Graph.NewNode(block, irg.OpStore, mode.M, []*irg.Node{lw.Graph.InitialMem(), addr, merged}, irg.LoadStoreAttrs{})
}
