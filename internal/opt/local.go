package opt

import (
	"ssair/internal/irg"
	"ssair/internal/mode"
	"ssair/internal/tarval"
)

// Optimizer drives optimize_node over a graph, owning the CSE table and the
// toggles that gate constant folding.
type Optimizer struct {
	Table          *Table
	FoldConstants  bool
	ConstTypeOf    func(tv *tarval.Tarval) interface{} // recovers a source-language type for a folded Const
}

// NewOptimizer creates an optimizer with constant folding enabled and a
// fresh CSE table.
func NewOptimizer() *Optimizer {
	return &Optimizer{Table: NewTable(), FoldConstants: true}
}

func tv(n *irg.Node) (*tarval.Tarval, bool) {
	c, ok := n.Attrs().(irg.ConstAttrs)
	if !ok {
		return nil, false
	}
	return c.Tarval, true
}

// computedValue implements stage 1: pure constant folding. It returns
// (value, true) when n's result is statically known.
func computedValue(n *irg.Node) (*tarval.Tarval, bool) {
	if n.Mode() == mode.T {
		return nil, false
	}
	switch n.Opcode() {
	case irg.OpConst:
		c, _ := tv(n)
		return c, true
	case irg.OpSymConst:
		if a, ok := n.Attrs().(irg.SymConstAttrs); ok && a.Kind == irg.SymConstTypeSize {
			return nil, false // resolved by lowering, not local folding
		}
		return nil, false
	case irg.OpProj:
		if n.In(0).Opcode() == irg.OpCmp {
			if a, ok := n.Attrs().(irg.ProjAttrs); ok {
				if r, ok := cmpResult(n.In(0)); ok {
					return tarval.NewBool(irg.Pnc(r)&a.Pnc != 0), true
				}
				if b, ok := cmpBoundFold(n.In(0), a.Pnc); ok {
					return b, true
				}
			}
		}
	case irg.OpCmp:
		// Cmp is mode_T (tuple); it never folds to a single tarval itself.
		// Its relation is computed by cmpResult (tarval.Cmp) and consumed by
		// this function's Proj(Cmp) arm above, mirroring libFirm's split
		// between computed_value_Cmp and computed_value_Proj.
		return nil, false
	case irg.OpRot:
		a, aok := tv(n.In(0))
		b, bok := tv(n.In(1))
		if aok && bok {
			return tarval.Rotl(a, b), true
		}
	case irg.OpAdd, irg.OpSub, irg.OpMul, irg.OpAnd, irg.OpOr, irg.OpEor:
		a, aok := tv(n.In(0))
		b, bok := tv(n.In(1))
		if aok && bok && a.Mode == b.Mode {
			return foldBinary(n.Opcode(), a, b), true
		}
		if aok {
			if short, ok := shortCircuit(n.Opcode(), a, n.In(1)); ok {
				return short, true
			}
		}
		if bok {
			if short, ok := shortCircuit(n.Opcode(), b, n.In(0)); ok {
				return short, true
			}
		}
	case irg.OpMinus:
		if a, ok := tv(n.In(0)); ok {
			return tarval.Neg(a), true
		}
	case irg.OpNot:
		if a, ok := tv(n.In(0)); ok {
			return tarval.Not(a), true
		}
	}
	// a - a => 0 (integer modes only)
	if n.Opcode() == irg.OpSub && n.In(0) == n.In(1) && n.Mode().Sort() == mode.SortInt {
		return tarval.NewFromLong(0, n.Mode()), true
	}
	return nil, false
}

func foldBinary(op irg.Opcode, a, b *tarval.Tarval) *tarval.Tarval {
	switch op {
	case irg.OpAdd:
		return tarval.Add(a, b)
	case irg.OpSub:
		return tarval.Sub(a, b)
	case irg.OpMul:
		return tarval.Mul(a, b)
	case irg.OpAnd:
		return tarval.And(a, b)
	case irg.OpOr:
		return tarval.Or(a, b)
	case irg.OpEor:
		return tarval.Eor(a, b)
	case irg.OpRot:
		return tarval.Rotl(a, b)
	}
	return nil
}

// cmpResult implements computed_value_Cmp: folds a Cmp node via tarval_cmp
// when both of its operands are known constants of the same mode.
func cmpResult(cmp *irg.Node) (tarval.CmpResult, bool) {
	a, aok := tv(cmp.In(0))
	b, bok := tv(cmp.In(1))
	if !aok || !bok || a.Mode != b.Mode {
		return 0, false
	}
	return tarval.Cmp(a, b), true
}

// cmpBoundFold implements computed_value_Cmp's MIN/MAX-bound table: a
// relation against one of the mode's own extremes is decidable from the
// mode alone, even when the non-constant operand's value is unknown.
// `x >= MIN` and `x <= MAX` fold to true; `x < MIN` and `x > MAX` fold to
// false, for either operand order.
func cmpBoundFold(cmp *irg.Node, pnc irg.Pnc) (*tarval.Tarval, bool) {
	lhs, rhs := cmp.In(0), cmp.In(1)
	m := lhs.Mode()
	if m.Sort() != mode.SortInt {
		return nil, false
	}
	min, okMin := m.Min().(*tarval.Tarval)
	max, okMax := m.Max().(*tarval.Tarval)
	if !okMin || !okMax {
		return nil, false
	}
	if c, ok := tv(rhs); ok {
		if tarval.Cmp(c, min) == tarval.CmpEq {
			switch pnc {
			case irg.PncEq | irg.PncGt: // x >= MIN
				return tarval.NewBool(true), true
			case irg.PncLt: // x < MIN
				return tarval.NewBool(false), true
			}
		}
		if tarval.Cmp(c, max) == tarval.CmpEq {
			switch pnc {
			case irg.PncEq | irg.PncLt: // x <= MAX
				return tarval.NewBool(true), true
			case irg.PncGt: // x > MAX
				return tarval.NewBool(false), true
			}
		}
	}
	if c, ok := tv(lhs); ok {
		if tarval.Cmp(c, min) == tarval.CmpEq {
			switch pnc {
			case irg.PncEq | irg.PncLt: // MIN <= x
				return tarval.NewBool(true), true
			case irg.PncGt: // MIN > x
				return tarval.NewBool(false), true
			}
		}
		if tarval.Cmp(c, max) == tarval.CmpEq {
			switch pnc {
			case irg.PncEq | irg.PncGt: // MAX >= x
				return tarval.NewBool(true), true
			case irg.PncLt: // MAX < x
				return tarval.NewBool(false), true
			}
		}
	}
	return nil, false
}

// shortCircuit folds a binop when only one operand is constant: x&0=0,
// x|~0=~0, x*0=0.
func shortCircuit(op irg.Opcode, c *tarval.Tarval, _ *irg.Node) (*tarval.Tarval, bool) {
	if c.Mode.Sort() != mode.SortInt {
		return nil, false
	}
	switch op {
	case irg.OpAnd:
		if c.BigInt().Sign() == 0 {
			return c, true
		}
	case irg.OpOr:
		if tarval.Cmp(c, c.Mode.AllOne().(*tarval.Tarval)) == tarval.CmpEq {
			return c, true
		}
	case irg.OpMul:
		if c.BigInt().Sign() == 0 {
			return c, true
		}
	}
	return nil, false
}

// equivalentNode implements stage 3: identity rewrites that never allocate.
// Returns n unchanged if no rewrite applies.
func equivalentNode(n *irg.Node) *irg.Node {
	switch n.Opcode() {
	case irg.OpId:
		return equivalentNode(n.In(0))
	case irg.OpAdd:
		if isZero(n.In(1)) {
			return n.In(0)
		}
		if isZero(n.In(0)) {
			return n.In(1)
		}
	case irg.OpSub:
		if isZero(n.In(1)) {
			return n.In(0)
		}
	case irg.OpMul:
		if isOne(n.In(1)) {
			return n.In(0)
		}
		if isOne(n.In(0)) {
			return n.In(1)
		}
	case irg.OpOr, irg.OpAnd:
		if n.In(0) == n.In(1) {
			return n.In(0)
		}
	case irg.OpNot:
		if n.In(0).Opcode() == irg.OpNot {
			return n.In(0).In(0)
		}
	case irg.OpMinus:
		if n.In(0).Opcode() == irg.OpMinus {
			return n.In(0).In(0)
		}
	case irg.OpPhi:
		if same := singleDistinctNonSelfInput(n); same != nil {
			return same
		}
	case irg.OpConfirm:
		if a, ok := n.Attrs().(irg.ConfirmAttrs); ok && a.Pnc == irg.PncEq {
			if _, isConst := n.In(1).Attrs().(irg.ConstAttrs); isConst {
				return n.In(1)
			}
		}
	}
	return n
}

func singleDistinctNonSelfInput(phi *irg.Node) *irg.Node {
	var same *irg.Node
	for i := 0; i < phi.Arity(); i++ {
		in := phi.In(i)
		if in == phi {
			continue
		}
		if same != nil && in != same {
			return nil
		}
		same = in
	}
	return same
}

func isZero(n *irg.Node) bool {
	c, ok := tv(n)
	return ok && c.Mode.Sort() == mode.SortInt && c.BigInt().Sign() == 0
}
func isOne(n *irg.Node) bool {
	c, ok := tv(n)
	return ok && c.Mode.Sort() == mode.SortInt && c.IsLong() && c.Long() == 1
}

// transformNode implements stage 5: rewrites that may allocate new nodes.
func transformNode(g *irg.Graph, n *irg.Node) *irg.Node {
	switch n.Opcode() {
	case irg.OpAdd:
		if n.In(0) == n.In(1) {
			two := g.NewNode(n.Block(), irg.OpConst, n.Mode(), nil, irg.ConstAttrs{Tarval: tarval.NewFromLong(2, n.Mode())})
			return g.NewNode(n.Block(), irg.OpMul, n.Mode(), []*irg.Node{n.In(0), two}, nil)
		}
		if n.In(1).Opcode() == irg.OpMinus {
			return g.NewNode(n.Block(), irg.OpSub, n.Mode(), []*irg.Node{n.In(0), n.In(1).In(0)}, nil)
		}
	case irg.OpSub:
		if isZero(n.In(0)) {
			return g.NewNode(n.Block(), irg.OpMinus, n.Mode(), []*irg.Node{n.In(1)}, nil)
		}
	case irg.OpMul:
		if c, ok := tv(n.In(1)); ok && c.Mode.Sort() == mode.SortInt && c.IsLong() && c.Long() == -1 {
			return g.NewNode(n.Block(), irg.OpMinus, n.Mode(), []*irg.Node{n.In(0)}, nil)
		}
	case irg.OpEor:
		if isOne(n.In(1)) && n.In(0).Opcode() == irg.OpProj {
			if a, ok := n.In(0).Attrs().(irg.ProjAttrs); ok {
				return g.NewNode(n.Block(), irg.OpProj, n.Mode(), n.In(0).Ins(), irg.ProjAttrs{Num: a.Num, Pnc: a.Pnc.Negated()})
			}
		}
	case irg.OpNot:
		if n.In(0).Opcode() == irg.OpProj {
			if a, ok := n.In(0).Attrs().(irg.ProjAttrs); ok {
				return g.NewNode(n.Block(), irg.OpProj, n.Mode(), n.In(0).Ins(), irg.ProjAttrs{Num: a.Num, Pnc: a.Pnc.Negated()})
			}
		}
	case irg.OpOr:
		if r := rotateFusion(g, n); r != n {
			return r
		}
	case irg.OpShl:
		if n.In(0).Opcode() == irg.OpShl {
			if c1, ok1 := tv(n.In(1)); ok1 {
				if c0, ok0 := tv(n.In(0).In(1)); ok0 {
					sum := tarval.Add(c0, c1)
					if sum.IsLong() && int(sum.Long()) < n.Mode().ModuloShift() {
						sc := g.NewNode(n.Block(), irg.OpConst, n.In(1).Mode(), nil, irg.ConstAttrs{Tarval: sum})
						return g.NewNode(n.Block(), irg.OpShl, n.Mode(), []*irg.Node{n.In(0).In(0), sc}, nil)
					}
				}
			}
		}
	}
	return n
}

// rotateFusion implements the Or/Shift fusion into Rot: Shl(x,c1) | Shr(x,c2)
// with c1+c2 equal to the mode's storage width becomes Rot(x,c1), regardless
// of which operand order Or presents them in.
func rotateFusion(g *irg.Graph, n *irg.Node) *irg.Node {
	shl, shr := n.In(0), n.In(1)
	if shl.Opcode() != irg.OpShl || shr.Opcode() != irg.OpShr {
		shl, shr = shr, shl
	}
	if shl.Opcode() != irg.OpShl || shr.Opcode() != irg.OpShr {
		return n
	}
	if shl.In(0) != shr.In(0) {
		return n
	}
	c1, ok1 := tv(shl.In(1))
	c2, ok2 := tv(shr.In(1))
	if !ok1 || !ok2 || !c1.IsLong() || !c2.IsLong() {
		return n
	}
	if int(c1.Long()+c2.Long()) != n.Mode().SizeBits() {
		return n
	}
	return g.NewNode(n.Block(), irg.OpRot, n.Mode(), []*irg.Node{shl.In(0), shl.In(1)}, nil)
}

// OptimizeNode runs the full optimize_node driver: fold, normalize operand
// order, simplify, transform, propagate Bad (GIGO), then CSE.
func (o *Optimizer) OptimizeNode(n *irg.Node) *irg.Node {
	if o.FoldConstants && n.Opcode() != irg.OpConst && n.Mode() != mode.T {
		if c, ok := computedValue(n); ok {
			return o.Table.Lookup(n.Graph().NewNode(n.Block(), irg.OpConst, n.Mode(), nil, irg.ConstAttrs{Tarval: c}))
		}
	}

	normalizeCommutative(n)

	if r := equivalentNode(n); r != n {
		n = r
	}

	if r := transformNode(n.Graph(), n); r != n {
		n = r
	}

	if gigo(n) {
		return n.Graph().Bad()
	}

	return o.Table.Lookup(n)
}

// normalizeCommutative places a constant on the right for commutative
// opcodes when exactly the left operand is constant. Two non-constant
// operands are left in their original order, so CSE can still see the same
// computation in two operand orders.
func normalizeCommutative(n *irg.Node) {
	if !n.Opcode().IsCommutative() || n.Arity() != 2 {
		return
	}
	a, b := n.In(0), n.In(1)
	_, aConst := tv(a)
	_, bConst := tv(b)
	if aConst && !bConst {
		n.SetIn(0, b)
		n.SetIn(1, a)
	}
}

// gigo implements the "garbage in, garbage out" rule: any predecessor being
// Bad poisons the result, except for the handful of opcodes that are
// specifically responsible for consuming Bad (Block, Phi, Tuple, End).
func gigo(n *irg.Node) bool {
	switch n.Opcode() {
	case irg.OpBlock, irg.OpPhi, irg.OpTuple, irg.OpEnd:
		return false
	}
	for i := 0; i < n.Arity(); i++ {
		if n.In(i).Opcode() == irg.OpBad {
			return true
		}
	}
	return false
}
