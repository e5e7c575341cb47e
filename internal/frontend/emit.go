package frontend

import (
	"fmt"

	"ssair/internal/construct"
	"ssair/internal/irg"
	"ssair/internal/mode"
	"ssair/internal/tarval"
)

// Emitter walks a parsed Function with the builder, implementing
// ExprVisitor/StmtVisitor the way the teacher's compiler.go implements
// Visit*Expr over its own AST.
type Emitter struct {
	graph   *irg.Graph
	builder *construct.Builder
	locals  map[string]int
	nextLoc int
	block   *irg.Node
}

// EmitFunction compiles fn into a fresh graph and returns it.
func EmitFunction(fn *Function, entity interface{}) (*irg.Graph, error) {
	g := irg.NewGraph(entity, nil, len(fn.Params)+8)
	b := construct.NewBuilder(g, nil)
	e := &Emitter{graph: g, builder: b, locals: map[string]int{}, block: g.StartBlock()}

	for i, p := range fn.Params {
		e.locals[p] = i
		e.nextLoc = i + 1
		b.SetValue(e.block, i, g.Args())
	}

	e.emitBlock(fn.Body)
	b.MatureImmBlock(g.StartBlock())
	return g, nil
}

func (e *Emitter) slot(name string) int {
	if pos, ok := e.locals[name]; ok {
		return pos
	}
	pos := e.nextLoc
	e.nextLoc++
	e.locals[name] = pos
	return pos
}

func (e *Emitter) emitBlock(b *BlockStmt) {
	for _, s := range b.Stmts {
		s.AcceptStmt(e)
	}
}

// StmtVisitor ----------------------------------------------------------

func (e *Emitter) VisitLet(s *LetStmt) {
	v := e.emitExpr(s.Init)
	e.builder.SetValue(e.block, e.slot(s.Name), v)
}

func (e *Emitter) VisitExprStmt(s *ExprStmt) { e.emitExpr(s.Expr) }

func (e *Emitter) VisitIf(s *IfStmt) {
	cond := e.emitExpr(s.Cond)
	condJmp := e.graph.NewNode(e.block, irg.OpCond, mode.T, []*irg.Node{cond}, nil)
	thenProj := e.graph.NewNode(e.block, irg.OpProj, mode.X, []*irg.Node{condJmp}, irg.ProjAttrs{Num: 1})
	elseProj := e.graph.NewNode(e.block, irg.OpProj, mode.X, []*irg.Node{condJmp}, irg.ProjAttrs{Num: 0})

	thenBlock := e.builder.NewImmBlock()
	e.builder.AddImmBlockPred(thenBlock, thenProj)
	e.builder.MatureImmBlock(thenBlock)
	e.block = thenBlock
	e.emitBlock(s.Then)
	thenExit := e.graph.NewNode(e.block, irg.OpJmp, mode.X, nil, nil)
	thenEndBlock := e.block

	elseBlock := e.builder.NewImmBlock()
	e.builder.AddImmBlockPred(elseBlock, elseProj)
	e.builder.MatureImmBlock(elseBlock)
	e.block = elseBlock
	var elseExit *irg.Node
	elseEndBlock := e.block
	if s.Else != nil {
		e.emitBlock(s.Else)
		elseEndBlock = e.block
	}
	elseExit = e.graph.NewNode(elseEndBlock, irg.OpJmp, mode.X, nil, nil)

	joinBlock := e.builder.NewImmBlock()
	e.builder.AddImmBlockPred(joinBlock, thenExit)
	_ = thenEndBlock
	e.builder.AddImmBlockPred(joinBlock, elseExit)
	e.builder.MatureImmBlock(joinBlock)
	e.block = joinBlock
}

func (e *Emitter) VisitWhile(s *WhileStmt) {
	preJmp := e.graph.NewNode(e.block, irg.OpJmp, mode.X, nil, nil)

	headerBlock := e.builder.NewImmBlock()
	e.builder.AddImmBlockPred(headerBlock, preJmp)
	e.block = headerBlock
	cond := e.emitExpr(s.Cond)
	condNode := e.graph.NewNode(e.block, irg.OpCond, mode.T, []*irg.Node{cond}, nil)
	bodyProj := e.graph.NewNode(e.block, irg.OpProj, mode.X, []*irg.Node{condNode}, irg.ProjAttrs{Num: 1})
	exitProj := e.graph.NewNode(e.block, irg.OpProj, mode.X, []*irg.Node{condNode}, irg.ProjAttrs{Num: 0})

	bodyBlock := e.builder.NewImmBlock()
	e.builder.AddImmBlockPred(bodyBlock, bodyProj)
	e.builder.MatureImmBlock(bodyBlock)
	e.block = bodyBlock
	e.emitBlock(s.Body)
	backJmp := e.graph.NewNode(e.block, irg.OpJmp, mode.X, nil, nil)
	e.builder.AddImmBlockPred(headerBlock, backJmp)
	e.builder.MatureImmBlock(headerBlock)

	exitBlock := e.builder.NewImmBlock()
	e.builder.AddImmBlockPred(exitBlock, exitProj)
	e.builder.MatureImmBlock(exitBlock)
	e.block = exitBlock
}

func (e *Emitter) VisitReturn(s *ReturnStmt) {
	v := e.emitExpr(s.Value)
	ret := e.graph.NewNode(e.block, irg.OpReturn, mode.X, []*irg.Node{e.graph.InitialMem(), v}, nil)
	e.graph.AddKeepAlive(ret)
}

func (e *Emitter) VisitBlock(s *BlockStmt) { e.emitBlock(s) }

// ExprVisitor ------------------------------------------------------------

func (e *Emitter) emitExpr(x Expr) *irg.Node {
	return x.Accept(e).(*irg.Node)
}

func (e *Emitter) VisitIntLiteral(x *IntLiteral) interface{} {
	return e.graph.NewNode(e.block, irg.OpConst, mode.Is, nil, irg.ConstAttrs{Tarval: tarval.NewFromLong(x.Value, mode.Is)})
}

func (e *Emitter) VisitFloatLiteral(x *FloatLiteral) interface{} {
	return e.graph.NewNode(e.block, irg.OpConst, mode.D, nil, irg.ConstAttrs{Tarval: tarval.NewFromDouble(x.Value, mode.D)})
}

func (e *Emitter) VisitIdent(x *Ident) interface{} {
	return e.builder.GetValue(e.block, e.slot(x.Name), mode.Is)
}

func (e *Emitter) VisitBinary(x *Binary) interface{} {
	left := e.emitExpr(x.Left)
	right := e.emitExpr(x.Right)
	switch x.Op {
	case TokPlus:
		return e.graph.NewNode(e.block, irg.OpAdd, left.Mode(), []*irg.Node{left, right}, nil)
	case TokMinus:
		return e.graph.NewNode(e.block, irg.OpSub, left.Mode(), []*irg.Node{left, right}, nil)
	case TokStar:
		return e.graph.NewNode(e.block, irg.OpMul, left.Mode(), []*irg.Node{left, right}, nil)
	case TokSlash:
		return e.graph.NewNode(e.block, irg.OpDiv, left.Mode(), []*irg.Node{left, right}, nil)
	case TokEqEq:
		return e.emitCmp(left, right, irg.PncEq)
	case TokNotEq:
		return e.emitCmp(left, right, irg.PncLt|irg.PncGt)
	case TokLt:
		return e.emitCmp(left, right, irg.PncLt)
	case TokLe:
		return e.emitCmp(left, right, irg.PncLt|irg.PncEq)
	case TokGt:
		return e.emitCmp(left, right, irg.PncGt)
	case TokGe:
		return e.emitCmp(left, right, irg.PncGt|irg.PncEq)
	default:
		panic(fmt.Sprintf("frontend: unhandled binary operator %v", x.Op))
	}
}

func (e *Emitter) emitCmp(left, right *irg.Node, pnc irg.Pnc) *irg.Node {
	cmp := e.graph.NewNode(e.block, irg.OpCmp, mode.T, []*irg.Node{left, right}, irg.CmpAttrs{})
	return e.graph.NewNode(e.block, irg.OpProj, mode.B, []*irg.Node{cmp}, irg.ProjAttrs{Pnc: pnc})
}

func (e *Emitter) VisitCall(x *Call) interface{} {
	args := make([]*irg.Node, 0, len(x.Args)+2)
	args = append(args, e.graph.InitialMem())
	callee := e.graph.NewNode(e.block, irg.OpSymConst, mode.P, nil, irg.SymConstAttrs{})
	args = append(args, callee)
	for _, a := range x.Args {
		args = append(args, e.emitExpr(a))
	}
	call := e.graph.NewNode(e.block, irg.OpCall, mode.T, args, irg.CallAttrs{})
	return e.graph.NewNode(e.block, irg.OpProj, mode.Is, []*irg.Node{call}, irg.ProjAttrs{Num: 1})
}
