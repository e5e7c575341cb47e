package frontend

import (
	"testing"

	"ssair/internal/irg"
)

func TestParseProgramSimpleFunction(t *testing.T) {
	src := `
fn add(a, b) {
    let c = a + b;
    return c;
}
`
	p, err := NewParser("t.sl", src)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	fns, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	if len(fns) != 1 {
		t.Fatalf("ParseProgram returned %d functions, want 1", len(fns))
	}
	fn := fns[0]
	if fn.Name != "add" || len(fn.Params) != 2 {
		t.Fatalf("fn = %+v, want name=add with 2 params", fn)
	}
	if len(fn.Body.Stmts) != 2 {
		t.Fatalf("body has %d statements, want 2 (let, return)", len(fn.Body.Stmts))
	}
	if _, ok := fn.Body.Stmts[0].(*LetStmt); !ok {
		t.Errorf("first statement is %T, want *LetStmt", fn.Body.Stmts[0])
	}
	if _, ok := fn.Body.Stmts[1].(*ReturnStmt); !ok {
		t.Errorf("second statement is %T, want *ReturnStmt", fn.Body.Stmts[1])
	}
}

func TestParseProgramIfWhileCallPrecedence(t *testing.T) {
	src := `
fn f(x) {
    if x < 10 {
        return 1 + 2 * 3;
    } else {
        return g(x);
    }
    while x {
        x;
    }
}
`
	p, err := NewParser("t.sl", src)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	fns, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	body := fns[0].Body.Stmts
	ifStmt, ok := body[0].(*IfStmt)
	if !ok {
		t.Fatalf("first statement is %T, want *IfStmt", body[0])
	}
	if ifStmt.Else == nil {
		t.Fatal("IfStmt.Else should be populated")
	}
	ret := ifStmt.Then.Stmts[0].(*ReturnStmt)
	bin, ok := ret.Value.(*Binary)
	if !ok || bin.Op != TokPlus {
		t.Fatalf("then-branch return value = %T, want top-level + (multiplication binds tighter)", ret.Value)
	}
	if _, ok := bin.Right.(*Binary); !ok {
		t.Error("right side of 1+2*3 should itself be a Binary (2*3)")
	}

	elseRet := ifStmt.Else.Stmts[0].(*ReturnStmt)
	call, ok := elseRet.Value.(*Call)
	if !ok || call.Callee != "g" {
		t.Fatalf("else-branch return value = %+v, want call to g", elseRet.Value)
	}

	if _, ok := body[1].(*WhileStmt); !ok {
		t.Errorf("second statement is %T, want *WhileStmt", body[1])
	}
}

func TestParseProgramRejectsMalformedInput(t *testing.T) {
	p, err := NewParser("t.sl", "fn broken( {")
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	if _, err := p.ParseProgram(); err == nil {
		t.Fatal("ParseProgram accepted malformed input")
	}
}

func TestEmitFunctionProducesWiredGraph(t *testing.T) {
	src := `
fn add(a, b) {
    let c = a + b;
    return c;
}
`
	p, err := NewParser("t.sl", src)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	fns, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}

	g, err := EmitFunction(fns[0], "add")
	if err != nil {
		t.Fatalf("EmitFunction: %v", err)
	}
	var sawAdd, sawReturn bool
	for _, n := range g.AllNodes() {
		switch n.Opcode() {
		case irg.OpAdd:
			sawAdd = true
		case irg.OpReturn:
			sawReturn = true
		}
	}
	if !sawAdd {
		t.Error("emitted graph has no Add node for a + b")
	}
	if !sawReturn {
		t.Error("emitted graph has no Return node")
	}
}

func TestEmitFunctionIfBuildsGenuinePhi(t *testing.T) {
	src := `
fn pick(x) {
    let r = 0;
    if x {
        let r = 1;
    } else {
        let r = 2;
    }
    return r;
}
`
	p, err := NewParser("t.sl", src)
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	fns, err := p.ParseProgram()
	if err != nil {
		t.Fatalf("ParseProgram: %v", err)
	}
	g, err := EmitFunction(fns[0], "pick")
	if err != nil {
		t.Fatalf("EmitFunction: %v", err)
	}
	var sawPhi bool
	for _, n := range g.AllNodes() {
		if n.Opcode() == irg.OpPhi {
			sawPhi = true
		}
	}
	if !sawPhi {
		t.Error("emitted graph for divergent if-branches should contain a genuine Phi at the join")
	}
}
