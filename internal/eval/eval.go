// Package eval tree-walks a Dakota AST: it maintains the environment chain,
// dispatches arithmetic and matrix operations to package value, and
// implements non-local return via a distinguished unwind value caught at
// the nearest function-call boundary.
package eval

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/dakota-lang/dakota/internal/arena"
	"github.com/dakota-lang/dakota/internal/lexer"
	"github.com/dakota-lang/dakota/internal/parser"
	"github.com/dakota-lang/dakota/internal/strtable"
	"github.com/dakota-lang/dakota/internal/token"
	"github.com/dakota-lang/dakota/internal/value"
)

// Evaluator holds everything needed to execute one parsed program: the
// arena and string table it was parsed into, the original token stream
// (for error position lookup), standard streams, and the runtime state
// (global scope, registered functions) that accumulates as execution
// proceeds.
type Evaluator struct {
	arena   *arena.Arena
	strings *strtable.Table
	tokens  []token.Token

	Global    *Environment
	functions map[string]*Function

	stdout io.Writer
	stdin  *bufio.Reader
}

// New creates an Evaluator over an already-parsed program. tokens is the
// token stream the program was parsed from, used only to translate a
// node's TokenIndex into a line/column for error messages.
func New(a *arena.Arena, st *strtable.Table, tokens []token.Token, stdout io.Writer, stdin io.Reader) *Evaluator {
	return &Evaluator{
		arena:     a,
		strings:   st,
		tokens:    tokens,
		Global:    NewEnvironment(nil),
		functions: make(map[string]*Function),
		stdout:    stdout,
		stdin:     bufio.NewReader(stdin),
	}
}

// StdinReader exposes the buffered reader the input() builtin reads from,
// so a caller that also needs to read lines from the same stream (the
// REPL's prompt loop) shares one buffer instead of racing a second one
// against it.
func (ev *Evaluator) StdinReader() *bufio.Reader { return ev.stdin }

// Interpret executes every statement reachable from the root PROGRAM node.
// A non-local return that escapes all the way to the top level is
// silently absorbed.
func (ev *Evaluator) Interpret() error {
	root := ev.arena.Node(arena.RootIndex)
	err := ev.execStatements(root.StatementsStart, ev.Global)
	if _, ok := err.(*returnSignal); ok {
		return nil
	}
	return err
}

// EvalSource parses src as a fresh chunk and executes it against this
// Evaluator's existing Global environment and function table, so
// definitions and assignments made by one chunk are visible to the next —
// the shape the REPL needs. It swaps in the chunk's own arena/string
// table/token stream for the duration of execution.
func (ev *Evaluator) EvalSource(src string, opts ...lexer.Option) error {
	toks, err := lexer.New(src, opts...).Tokenize()
	if err != nil {
		return fmt.Errorf("Parse error: %s", err)
	}
	a, st, perrs := parser.New(toks).Parse()
	if len(perrs) > 0 {
		msgs := make([]string, len(perrs))
		for i, e := range perrs {
			msgs[i] = "Parse error: " + e.String()
		}
		return fmt.Errorf("%s", strings.Join(msgs, "\n"))
	}

	ev.arena, ev.strings, ev.tokens = a, st, toks
	root := ev.arena.Node(arena.RootIndex)
	err = ev.execStatements(root.StatementsStart, ev.Global)
	if _, ok := err.(*returnSignal); ok {
		return nil
	}
	return err
}

func (ev *Evaluator) name(handle uint32) string {
	return ev.strings.GetString(strtable.Handle(handle))
}

func (ev *Evaluator) runtimeErrorAt(n *arena.Node, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	line, col := 0, 0
	if n.TokenIndex >= 0 && n.TokenIndex < len(ev.tokens) {
		t := ev.tokens[n.TokenIndex]
		line, col = t.Line, t.Column
	}
	return &RuntimeError{Message: msg, Line: line, Column: col}
}

// execStatements walks a sibling chain of statements in strict order,
// stopping and propagating the first error or non-local return it
// encounters.
func (ev *Evaluator) execStatements(start arena.Index, env *Environment) error {
	cur := start
	for cur != arena.InvalidIndex {
		if err := ev.execStatement(cur, env); err != nil {
			return err
		}
		cur = ev.arena.Node(cur).NextSibling
	}
	return nil
}

// execBlockNode executes a block-like node. Most callers pass a BLOCK node
// produced by parseBlock; IfStatement.ElseBlock may instead be a nested
// IfStatement (the ELIF desugaring), so this dispatches on kind rather
// than assuming BLOCK.
func (ev *Evaluator) execBlockNode(idx arena.Index, env *Environment) error {
	n := ev.arena.Node(idx)
	if n.Kind == arena.Block {
		return ev.execStatements(n.StatementsStart, env)
	}
	return ev.execStatement(idx, env)
}

func (ev *Evaluator) execStatement(idx arena.Index, env *Environment) error {
	n := ev.arena.Node(idx)
	switch n.Kind {
	case arena.Block:
		return ev.execStatements(n.StatementsStart, env)

	case arena.ExpressionStatement:
		_, err := ev.evalExpr(n.Value, env)
		return err

	case arena.Assignment:
		v, err := ev.evalExpr(n.Value, env)
		if err != nil {
			return err
		}
		target := ev.arena.Node(n.Target)
		env.Assign(ev.name(target.NameHandle), v)
		return nil

	case arena.IfStatement:
		cond, err := ev.evalExpr(n.Condition, env)
		if err != nil {
			return err
		}
		if cond.Truthy() {
			return ev.execBlockNode(n.ThenBlock, env)
		}
		if n.ElseBlock != arena.InvalidIndex {
			return ev.execBlockNode(n.ElseBlock, env)
		}
		return nil

	case arena.WhileStatement:
		for {
			cond, err := ev.evalExpr(n.Condition, env)
			if err != nil {
				return err
			}
			if !cond.Truthy() {
				return nil
			}
			if err := ev.execBlockNode(n.Body, env); err != nil {
				return err
			}
		}

	case arena.ForStatement:
		return ev.execFor(n, env)

	case arena.FunctionDef:
		return ev.execFunctionDef(n, env)

	case arena.ReturnStatement:
		v := value.None()
		if n.ReturnValue != arena.InvalidIndex {
			var err error
			v, err = ev.evalExpr(n.ReturnValue, env)
			if err != nil {
				return err
			}
		}
		return &returnSignal{value: v}
	}
	return ev.runtimeErrorAt(n, "cannot execute node kind %v as a statement", n.Kind)
}

func (ev *Evaluator) execFunctionDef(n *arena.Node, env *Environment) error {
	var params []string
	cur := n.ParamsStart
	for cur != arena.InvalidIndex {
		pn := ev.arena.Node(cur)
		params = append(params, ev.name(pn.NameHandle))
		cur = pn.NextSibling
	}
	name := ev.name(n.NameHandle)
	ev.functions[name] = &Function{Name: name, Params: params, Body: n.Body, Env: env}
	return nil
}

// execFor evaluates the iterable (must be a matrix), then binds the loop
// variable in a fresh scope per iteration. A 1x1 row unwraps to a bare
// scalar at bind time rather than staying a 1x1 matrix, paired with
// range() producing integer-valued single-element rows.
func (ev *Evaluator) execFor(n *arena.Node, env *Environment) error {
	iterable, err := ev.evalExpr(n.Iterable, env)
	if err != nil {
		return err
	}
	if iterable.Kind != value.MatrixKind {
		return ev.runtimeErrorAt(n, "for loop requires a matrix iterable, got %s", iterable.TypeName())
	}
	varName := ev.name(ev.arena.Node(n.ForVar).NameHandle)

	for r := 0; r < iterable.Mat.Rows; r++ {
		row := iterable.Mat.Row(r)
		loopEnv := NewEnvironment(env)
		if row.Rows == 1 && row.Cols == 1 {
			loopEnv.Declare(varName, scalarFromCell(row.At(0, 0)))
		} else {
			loopEnv.Declare(varName, value.NewMatrixValue(row))
		}
		if err := ev.execBlockNode(n.Body, loopEnv); err != nil {
			return err
		}
	}
	return nil
}

func scalarFromCell(f float64) value.Value {
	if f == math.Trunc(f) {
		return value.NewInt(int64(f))
	}
	return value.NewFloat(f)
}

// --- expressions ---

func (ev *Evaluator) evalExpr(idx arena.Index, env *Environment) (value.Value, error) {
	n := ev.arena.Node(idx)
	switch n.Kind {
	case arena.LiteralInt:
		return value.NewInt(n.IntValue), nil
	case arena.LiteralFloat:
		return value.NewFloat(n.FloatValue), nil
	case arena.LiteralString:
		return value.NewString(ev.strings.GetString(strtable.Handle(n.StrHandle))), nil
	case arena.LiteralBool:
		return value.NewBool(n.BoolValue), nil

	case arena.Identifier:
		name := ev.name(n.NameHandle)
		v, ok := env.Get(name)
		if !ok {
			return value.Value{}, ev.runtimeErrorAt(n, "Undefined variable '%s'", name)
		}
		return v, nil

	case arena.BinaryOp:
		return ev.evalBinary(n, env)
	case arena.UnaryOp:
		return ev.evalUnary(n, env)
	case arena.FunctionCall:
		return ev.evalCall(n, env)
	case arena.MatrixLiteral:
		return ev.evalMatrixLiteral(n, env)
	case arena.ArrayAccess, arena.MatrixAccess:
		// The grammar only ever produces ARRAY_ACCESS via the postfix
		// "[ expr ]" tail; MATRIX_ACCESS is kept as a distinct node kind
		// but dispatches identically should a future surface form target
		// it directly.
		return ev.evalArrayAccess(n, env)
	case arena.MemberAccess:
		return ev.evalMemberAccess(n, env)
	}
	return value.Value{}, ev.runtimeErrorAt(n, "cannot evaluate node kind %v as an expression", n.Kind)
}

func (ev *Evaluator) evalBinary(n *arena.Node, env *Environment) (value.Value, error) {
	if n.Op == arena.OpAnd || n.Op == arena.OpOr {
		left, err := ev.evalExpr(n.Left, env)
		if err != nil {
			return value.Value{}, err
		}
		if n.Op == arena.OpAnd && !left.Truthy() {
			return value.NewBool(false), nil
		}
		if n.Op == arena.OpOr && left.Truthy() {
			return value.NewBool(true), nil
		}
		right, err := ev.evalExpr(n.Right, env)
		if err != nil {
			return value.Value{}, err
		}
		return value.NewBool(right.Truthy()), nil
	}

	left, err := ev.evalExpr(n.Left, env)
	if err != nil {
		return value.Value{}, err
	}
	right, err := ev.evalExpr(n.Right, env)
	if err != nil {
		return value.Value{}, err
	}

	var result value.Value
	switch n.Op {
	case arena.OpAdd:
		result, err = value.Add(left, right)
	case arena.OpSub:
		result, err = value.Sub(left, right)
	case arena.OpMul:
		result, err = value.Mul(left, right)
	case arena.OpDiv:
		result, err = value.Div(left, right)
	case arena.OpMod:
		result, err = value.Mod(left, right)
	case arena.OpPow:
		result, err = value.Pow(left, right)
	case arena.OpMatMul:
		result, err = value.MatMul(left, right)
	case arena.OpEq:
		result, err = value.Eq(left, right)
	case arena.OpNe:
		result, err = value.Ne(left, right)
	case arena.OpLt:
		result, err = value.Lt(left, right)
	case arena.OpLe:
		result, err = value.Le(left, right)
	case arena.OpGt:
		result, err = value.Gt(left, right)
	case arena.OpGe:
		result, err = value.Ge(left, right)
	default:
		return value.Value{}, ev.runtimeErrorAt(n, "unknown binary operator")
	}
	if err != nil {
		return value.Value{}, ev.runtimeErrorAt(n, "%s", err.Error())
	}
	return result, nil
}

func (ev *Evaluator) evalUnary(n *arena.Node, env *Environment) (value.Value, error) {
	operand, err := ev.evalExpr(n.Operand, env)
	if err != nil {
		return value.Value{}, err
	}
	switch n.Op {
	case arena.OpNegate:
		r, err := value.Negate(operand)
		if err != nil {
			return value.Value{}, ev.runtimeErrorAt(n, "%s", err.Error())
		}
		return r, nil
	case arena.OpNot:
		return value.Not(operand), nil
	}
	return value.Value{}, ev.runtimeErrorAt(n, "unknown unary operator")
}

func (ev *Evaluator) evalMatrixLiteral(n *arena.Node, env *Environment) (value.Value, error) {
	if n.ValidationError != "" {
		return value.Value{}, ev.runtimeErrorAt(n, "malformed matrix literal: %s", n.ValidationError)
	}
	if n.IsEmpty {
		return value.NewMatrixValue(value.NewMatrix(0, 0)), nil
	}
	m := value.NewMatrix(n.Rows, n.Cols)
	cur := n.ElementsStart
	i := 0
	for cur != arena.InvalidIndex {
		v, err := ev.evalExpr(cur, env)
		if err != nil {
			return value.Value{}, err
		}
		f, ok := matrixElementFloat(v)
		if !ok {
			return value.Value{}, ev.runtimeErrorAt(n, "matrix elements must be numeric, got %s", v.TypeName())
		}
		m.Data[i] = f
		i++
		cur = ev.arena.Node(cur).NextSibling
	}
	return value.NewMatrixValue(m), nil
}

func matrixElementFloat(v value.Value) (float64, bool) {
	switch v.Kind {
	case value.Integer:
		return float64(v.Int), true
	case value.Float:
		return v.Flt, true
	}
	return 0, false
}

func (ev *Evaluator) evalArrayAccess(n *arena.Node, env *Environment) (value.Value, error) {
	obj, err := ev.evalExpr(n.Object, env)
	if err != nil {
		return value.Value{}, err
	}
	if obj.Kind != value.MatrixKind {
		return value.Value{}, ev.runtimeErrorAt(n, "cannot index a %s", obj.TypeName())
	}
	idxVal, err := ev.evalExpr(n.Index_, env)
	if err != nil {
		return value.Value{}, err
	}
	if idxVal.Kind != value.Integer {
		return value.Value{}, ev.runtimeErrorAt(n, "matrix index must be an integer")
	}
	i := int(idxVal.Int)
	if i < 0 || i >= obj.Mat.Rows {
		return value.Value{}, ev.runtimeErrorAt(n, "matrix index %d out of bounds for %d rows", i, obj.Mat.Rows)
	}
	return value.NewMatrixValue(obj.Mat.Row(i)), nil
}

func (ev *Evaluator) evalMemberAccess(n *arena.Node, env *Environment) (value.Value, error) {
	obj, err := ev.evalExpr(n.Object, env)
	if err != nil {
		return value.Value{}, err
	}
	if obj.Kind != value.MatrixKind {
		return value.Value{}, ev.runtimeErrorAt(n, "member access requires a matrix, got %s", obj.TypeName())
	}
	switch ev.name(n.NameHandle) {
	case "T":
		return value.NewMatrixValue(value.TransposeMatrix(obj.Mat)), nil
	case "d":
		d, err := value.DeterminantMatrix(obj.Mat)
		if err != nil {
			return value.Value{}, ev.runtimeErrorAt(n, "%s", err.Error())
		}
		return value.NewFloat(d), nil
	case "I":
		inv, err := value.InverseMatrix(obj.Mat)
		if err != nil {
			return value.Value{}, ev.runtimeErrorAt(n, "%s", err.Error())
		}
		return value.NewMatrixValue(inv), nil
	}
	return value.Value{}, ev.runtimeErrorAt(n, "unknown member '%s'", ev.name(n.NameHandle))
}

func (ev *Evaluator) evalCall(n *arena.Node, env *Environment) (value.Value, error) {
	name := ev.name(n.NameHandle)

	var args []value.Value
	cur := n.ArgsStart
	for cur != arena.InvalidIndex {
		v, err := ev.evalExpr(cur, env)
		if err != nil {
			return value.Value{}, err
		}
		args = append(args, v)
		cur = ev.arena.Node(cur).NextSibling
	}

	if fn, ok := builtins[name]; ok {
		v, err := fn(ev, n, args)
		if err != nil {
			return value.Value{}, ev.runtimeErrorAt(n, "%s", err.Error())
		}
		return v, nil
	}

	fn, ok := ev.functions[name]
	if !ok {
		return value.Value{}, ev.runtimeErrorAt(n, "Undefined function '%s'", name)
	}
	return ev.callFunction(fn, args, n)
}

func (ev *Evaluator) callFunction(fn *Function, args []value.Value, site *arena.Node) (value.Value, error) {
	if len(args) != len(fn.Params) {
		return value.Value{}, ev.runtimeErrorAt(site, "arity mismatch calling '%s': expected %d argument(s), got %d", fn.Name, len(fn.Params), len(args))
	}
	callEnv := NewEnvironment(fn.Env)
	for i, p := range fn.Params {
		callEnv.Declare(p, args[i])
	}
	body := ev.arena.Node(fn.Body)
	err := ev.execStatements(body.StatementsStart, callEnv)
	if rs, ok := err.(*returnSignal); ok {
		return rs.value, nil
	}
	if err != nil {
		return value.Value{}, err
	}
	return value.None(), nil
}
