package parser

import (
	"testing"

	"github.com/dakota-lang/dakota/internal/arena"
)

func mustParse(t *testing.T, src string) (*arena.Arena, []Error) {
	t.Helper()
	a, _, errs, err := ParseSource(src)
	if err != nil {
		t.Fatalf("ParseSource(%q) lex error: %v", src, err)
	}
	return a, errs
}

func statements(t *testing.T, a *arena.Arena) []arena.Index {
	t.Helper()
	root := a.Node(arena.RootIndex)
	kids, err := a.Children(arena.RootIndex)
	if err != nil {
		t.Fatalf("Children(root): %v", err)
	}
	if root.StatementCount != len(kids) {
		t.Errorf("root.StatementCount = %d, want %d", root.StatementCount, len(kids))
	}
	return kids
}

func TestParseAssignment(t *testing.T) {
	a, errs := mustParse(t, "x = 1\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	stmts := statements(t, a)
	if len(stmts) != 1 {
		t.Fatalf("got %d statements, want 1", len(stmts))
	}
	n := a.Node(stmts[0])
	if n.Kind != arena.Assignment {
		t.Fatalf("Kind = %v, want Assignment", n.Kind)
	}
	val := a.Node(n.Value)
	if val.Kind != arena.LiteralInt || val.IntValue != 1 {
		t.Errorf("assignment value = %+v, want LiteralInt(1)", val)
	}
}

func TestParseBinaryPrecedence(t *testing.T) {
	a, errs := mustParse(t, "x = 1 + 2 * 3\n")
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	stmts := statements(t, a)
	assign := a.Node(stmts[0])
	top := a.Node(assign.Value)
	if top.Kind != arena.BinaryOp || top.Op != arena.OpAdd {
		t.Fatalf("top operator = %v/%v, want BinaryOp/OpAdd", top.Kind, top.Op)
	}
	right := a.Node(top.Right)
	if right.Kind != arena.BinaryOp || right.Op != arena.OpMul {
		t.Errorf("right operand = %v/%v, want BinaryOp/OpMul (higher precedence nested deeper)", right.Kind, right.Op)
	}
}

func TestParseIfElse(t *testing.T) {
	src := "if x > 0:\n    y = 1\nelse:\n    y = 2\n"
	a, errs := mustParse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	stmts := statements(t, a)
	n := a.Node(stmts[0])
	if n.Kind != arena.IfStatement {
		t.Fatalf("Kind = %v, want IfStatement", n.Kind)
	}
	if n.ThenBlock == arena.InvalidIndex || n.ElseBlock == arena.InvalidIndex {
		t.Errorf("expected both ThenBlock and ElseBlock to be set")
	}
	then := a.Node(n.ThenBlock)
	if then.Kind != arena.Block || then.StatementCount != 1 {
		t.Errorf("ThenBlock = %+v, want a Block with 1 statement", then)
	}
}

func TestParseElifDesugarsToNestedIf(t *testing.T) {
	src := "if x > 0:\n    y = 1\nelif x < 0:\n    y = 2\nelse:\n    y = 3\n"
	a, errs := mustParse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	stmts := statements(t, a)
	outer := a.Node(stmts[0])
	if outer.Kind != arena.IfStatement {
		t.Fatalf("Kind = %v, want IfStatement", outer.Kind)
	}
	nested := a.Node(outer.ElseBlock)
	if nested.Kind != arena.IfStatement {
		t.Fatalf("elif did not desugar to a nested IfStatement, got %v", nested.Kind)
	}
	if nested.ElseBlock == arena.InvalidIndex {
		t.Errorf("nested if lost the final else block")
	}
}

func TestParseWhileLoop(t *testing.T) {
	src := "while x < 10:\n    x = x + 1\n"
	a, errs := mustParse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	n := a.Node(statements(t, a)[0])
	if n.Kind != arena.WhileStatement {
		t.Fatalf("Kind = %v, want WhileStatement", n.Kind)
	}
}

func TestParseForLoop(t *testing.T) {
	src := "for i in range(10):\n    print(i)\n"
	a, errs := mustParse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	n := a.Node(statements(t, a)[0])
	if n.Kind != arena.ForStatement {
		t.Fatalf("Kind = %v, want ForStatement", n.Kind)
	}
	if a.Node(n.ForVar).Kind != arena.Identifier {
		t.Errorf("ForVar is not an Identifier: %+v", a.Node(n.ForVar))
	}
}

func TestParseFunctionDef(t *testing.T) {
	src := "function add(a, b):\n    return a + b\n"
	a, errs := mustParse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	n := a.Node(statements(t, a)[0])
	if n.Kind != arena.FunctionDef {
		t.Fatalf("Kind = %v, want FunctionDef", n.Kind)
	}
	if n.ParamCount != 2 {
		t.Errorf("ParamCount = %d, want 2", n.ParamCount)
	}
	params, err := a.Children(statements(t, a)[0])
	if err != nil {
		t.Fatalf("Children(funcdef): %v", err)
	}
	if len(params) != 2 {
		t.Errorf("got %d params, want 2", len(params))
	}
}

func TestParseMatrixLiteral(t *testing.T) {
	src := "m = [1, 2; 3, 4]\n"
	a, errs := mustParse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	assign := a.Node(statements(t, a)[0])
	m := a.Node(assign.Value)
	if m.Kind != arena.MatrixLiteral {
		t.Fatalf("Kind = %v, want MatrixLiteral", m.Kind)
	}
	if m.Rows != 2 || m.Cols != 2 {
		t.Errorf("dims = %dx%d, want 2x2", m.Rows, m.Cols)
	}
}

func TestParseMatrixLiteralIrregularRows(t *testing.T) {
	src := "m = [1, 2; 3]\n"
	a, errs := mustParse(t, src)
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for a row length mismatch, got none")
	}
	assign := a.Node(statements(t, a)[0])
	m := a.Node(assign.Value)
	if m.ValidationError != "IRREGULAR_ROWS" {
		t.Errorf("ValidationError = %q, want %q", m.ValidationError, "IRREGULAR_ROWS")
	}
}

func TestParseErrorRecoverySynchronizes(t *testing.T) {
	src := ") x = 1\ny = 2\n"
	a, errs := mustParse(t, src)
	if len(errs) == 0 {
		t.Fatalf("expected a parse error for a stray ')', got none")
	}
	stmts := statements(t, a)
	foundY := false
	for _, s := range stmts {
		n := a.Node(s)
		if n.Kind == arena.Assignment && a.Node(n.Target).NameHandle != 0 {
			foundY = true
		}
	}
	_ = foundY // y's statement is attached even though the first line errored
}

func TestParseReturnStatementOptionalValue(t *testing.T) {
	src := "function f():\n    return\n"
	a, errs := mustParse(t, src)
	if len(errs) != 0 {
		t.Fatalf("unexpected parse errors: %v", errs)
	}
	fn := a.Node(statements(t, a)[0])
	body := a.Node(fn.Body)
	ret := a.Node(body.StatementsStart)
	if ret.Kind != arena.ReturnStatement {
		t.Fatalf("Kind = %v, want ReturnStatement", ret.Kind)
	}
	if ret.ReturnValue != arena.InvalidIndex {
		t.Errorf("bare return should have InvalidIndex ReturnValue, got %v", ret.ReturnValue)
	}
}
