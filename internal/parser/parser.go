// Package parser implements Dakota's statement/expression recursive-descent
// parser: operator-precedence climbing for expressions, a matrix-literal
// sub-parser, and INDENT/DEDENT-driven block parsing, with arena-based
// error recovery by synchronizing to the next statement boundary.
package parser

import (
	"fmt"
	"strconv"

	"github.com/dakota-lang/dakota/internal/arena"
	"github.com/dakota-lang/dakota/internal/lexer"
	"github.com/dakota-lang/dakota/internal/strtable"
	"github.com/dakota-lang/dakota/internal/token"
)

// Error is a single parse diagnostic. Errors do not abort parsing: the
// parser synchronizes to the next statement boundary and keeps going so a
// single source file can be checked in one pass.
type Error struct {
	Message    string
	Line       int
	Column     int
	TokenIndex int
}

func (e Error) String() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Parser turns a token stream into an arena-backed AST.
type Parser struct {
	tokens  []token.Token
	pos     int
	arena   *arena.Arena
	strings *strtable.Table
	errors  []Error
}

// New creates a Parser over tokens. The parser owns a fresh Arena and
// string Table for the resulting tree.
func New(tokens []token.Token) *Parser {
	return &Parser{
		tokens:  tokens,
		arena:   arena.New(),
		strings: strtable.New(),
	}
}

// ParseSource lexes and parses src in one step, a convenience used by the
// CLI, REPL, and tests.
func ParseSource(src string, opts ...lexer.Option) (*arena.Arena, *strtable.Table, []Error, error) {
	toks, err := lexer.New(src, opts...).Tokenize()
	if err != nil {
		return nil, nil, nil, err
	}
	p := New(toks)
	a, st, errs := p.Parse()
	return a, st, errs, nil
}

// Parse consumes the full token stream, attaching each top-level statement
// to the root PROGRAM node, and returns the resulting arena, string table,
// and any parse errors collected along the way.
func (p *Parser) Parse() (*arena.Arena, *strtable.Table, []Error) {
	for !p.atEnd() {
		if p.check(token.NEWLINE) {
			p.advance()
			continue
		}
		start := p.pos
		p.parseStatement()
		if p.pos == start {
			p.errorAt(p.cur(), "unexpected token %s", p.cur().Kind)
			p.synchronize()
		}
	}

	root := p.arena.Node(arena.RootIndex)
	root.StatementsStart = root.FirstChild
	count, err := p.arena.ChainLen(root.FirstChild)
	if err != nil {
		p.errorAt(p.cur(), "%s", err.Error())
	}
	root.StatementCount = count

	return p.arena, p.strings, p.errors
}

// --- token cursor helpers ---

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) peek() token.Token {
	if p.pos+1 >= len(p.tokens) {
		return token.Token{Kind: token.EOF}
	}
	return p.tokens[p.pos+1]
}

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return t
}

func (p *Parser) check(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) atEnd() bool { return p.cur().Kind == token.EOF }

// expect consumes the current token if it matches k, else records a parse
// error describing what was expected.
func (p *Parser) expect(k token.Kind, context string) (token.Token, bool) {
	if p.check(k) {
		return p.advance(), true
	}
	p.errorAt(p.cur(), "expected %s %s, got %s", k, context, p.cur().Kind)
	return token.Token{}, false
}

func (p *Parser) errorAt(tok token.Token, format string, args ...interface{}) {
	p.errors = append(p.errors, Error{
		Message:    fmt.Sprintf(format, args...),
		Line:       tok.Line,
		Column:     tok.Column,
		TokenIndex: p.pos,
	})
}

// synchronize skips tokens until a NEWLINE or a statement-start keyword,
// guaranteeing at least one token of forward progress so the parser never
// loops indefinitely on a malformed statement.
func (p *Parser) synchronize() {
	if p.atEnd() {
		return
	}
	p.advance()
	for !p.atEnd() {
		if p.check(token.NEWLINE) {
			p.advance()
			return
		}
		switch p.cur().Kind {
		case token.IF, token.WHILE, token.FOR, token.FUNCTION, token.RETURN:
			return
		}
		p.advance()
	}
}

func (p *Parser) attachStatement(node arena.Index) {
	if err := p.arena.AddChild(arena.RootIndex, node); err != nil {
		p.errorAt(p.cur(), "%s", err.Error())
	}
}

// --- statement dispatch ---

func (p *Parser) parseStatement() {
	switch p.cur().Kind {
	case token.FUNCTION:
		p.parseFunctionDef()
	case token.IF:
		p.parseIfStatement()
	case token.WHILE:
		p.parseWhileStatement()
	case token.FOR:
		p.parseForStatement()
	case token.RETURN:
		p.parseReturnStatement()
	case token.IDENTIFIER:
		if p.peek().Kind == token.ASSIGN {
			p.parseAssignmentStatement()
		} else {
			p.parseExpressionStatement()
		}
	default:
		p.parseExpressionStatement()
	}
}

func (p *Parser) parseExpressionStatement() {
	idx := p.pos
	expr := p.parseExpression(0)
	node := p.arena.Create(arena.ExpressionStatement, idx)
	p.arena.Node(node).Value = expr
	p.attachStatement(node)
}

func (p *Parser) parseAssignmentStatement() {
	idx := p.pos
	identTok := p.cur()
	p.advance() // IDENT
	p.advance() // '='

	target := p.arena.Create(arena.Identifier, idx)
	p.arena.Node(target).NameHandle = uint32(p.strings.Add(identTok.Lexeme))

	value := p.parseExpression(0)

	node := p.arena.Create(arena.Assignment, idx)
	n := p.arena.Node(node)
	n.Target = target
	n.Value = value
	p.attachStatement(node)
}

func (p *Parser) parseIfStatement() {
	idx := p.pos
	p.advance() // if
	cond := p.parseExpression(0)
	p.expect(token.COLON, "after if condition")
	thenBlock := p.parseBlock()

	elseBlock := arena.InvalidIndex
	if p.check(token.ELSE) {
		p.advance()
		p.expect(token.COLON, "after else")
		elseBlock = p.parseBlock()
	} else if p.check(token.ELIF) {
		elseBlock = p.parseElif()
	}

	node := p.arena.Create(arena.IfStatement, idx)
	n := p.arena.Node(node)
	n.Condition = cond
	n.ThenBlock = thenBlock
	n.ElseBlock = elseBlock
	p.attachStatement(node)
}

// parseElif desugars "elif cond: body ..." into a nested IF_STATEMENT.
// It returns the nested node directly, to be hung off the enclosing
// else_block, rather than attaching it as its own top-level statement.
func (p *Parser) parseElif() arena.Index {
	idx := p.pos
	p.advance() // elif
	cond := p.parseExpression(0)
	p.expect(token.COLON, "after elif condition")
	thenBlock := p.parseBlock()

	elseBlock := arena.InvalidIndex
	if p.check(token.ELSE) {
		p.advance()
		p.expect(token.COLON, "after else")
		elseBlock = p.parseBlock()
	} else if p.check(token.ELIF) {
		elseBlock = p.parseElif()
	}

	node := p.arena.Create(arena.IfStatement, idx)
	n := p.arena.Node(node)
	n.Condition = cond
	n.ThenBlock = thenBlock
	n.ElseBlock = elseBlock
	return node
}

func (p *Parser) parseWhileStatement() {
	idx := p.pos
	p.advance() // while
	cond := p.parseExpression(0)
	p.expect(token.COLON, "after while condition")
	body := p.parseBlock()

	node := p.arena.Create(arena.WhileStatement, idx)
	n := p.arena.Node(node)
	n.Condition = cond
	n.Body = body
	p.attachStatement(node)
}

func (p *Parser) parseForStatement() {
	idx := p.pos
	p.advance() // for

	varIdx := p.pos
	varTok, _ := p.expect(token.IDENTIFIER, "loop variable")
	varNode := p.arena.Create(arena.Identifier, varIdx)
	p.arena.Node(varNode).NameHandle = uint32(p.strings.Add(varTok.Lexeme))

	p.expect(token.IN, "in for-loop header")
	iterable := p.parseExpression(0)
	p.expect(token.COLON, "after for-loop header")
	body := p.parseBlock()

	node := p.arena.Create(arena.ForStatement, idx)
	n := p.arena.Node(node)
	n.ForVar = varNode
	n.Iterable = iterable
	n.Body = body
	p.attachStatement(node)
}

func (p *Parser) parseFunctionDef() {
	idx := p.pos
	p.advance() // function
	nameTok, _ := p.expect(token.IDENTIFIER, "function name")

	node := p.arena.Create(arena.FunctionDef, idx)
	p.arena.Node(node).NameHandle = uint32(p.strings.Add(nameTok.Lexeme))

	p.expect(token.LPAREN, "after function name")
	paramCount := 0
	if !p.check(token.RPAREN) {
		for {
			paramIdx := p.pos
			paramTok, ok := p.expect(token.IDENTIFIER, "parameter name")
			if !ok {
				break
			}
			paramNode := p.arena.Create(arena.Identifier, paramIdx)
			p.arena.Node(paramNode).NameHandle = uint32(p.strings.Add(paramTok.Lexeme))
			if err := p.arena.AddChild(node, paramNode); err != nil {
				p.errorAt(p.cur(), "%s", err.Error())
			}
			paramCount++
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN, "after parameter list")
	p.expect(token.COLON, "after function header")

	body := p.parseBlock()

	n := p.arena.Node(node)
	n.ParamsStart = n.FirstChild
	n.ParamCount = paramCount
	n.Body = body
	p.attachStatement(node)
}

func (p *Parser) parseReturnStatement() {
	idx := p.pos
	p.advance() // return

	value := arena.InvalidIndex
	if !p.check(token.NEWLINE) && !p.atEnd() {
		value = p.parseExpression(0)
	}

	node := p.arena.Create(arena.ReturnStatement, idx)
	p.arena.Node(node).ReturnValue = value
	p.attachStatement(node)
}

// parseBlock requires a NEWLINE then INDENT, parses statements until DEDENT
// or EOF (skipping stray NEWLINEs), consumes the DEDENT, and re-parents the
// statements it just attached to the root onto a fresh BLOCK node, since
// every statement-parsing helper always attaches to root.
func (p *Parser) parseBlock() arena.Index {
	p.expect(token.NEWLINE, "to start a block")
	if !p.check(token.INDENT) {
		p.errorAt(p.cur(), "expected an indented block")
		return p.arena.Create(arena.Block, p.pos)
	}
	p.advance() // INDENT

	marker := p.arena.LastChild(arena.RootIndex)

	for !p.check(token.DEDENT) && !p.atEnd() {
		if p.check(token.NEWLINE) {
			p.advance()
			continue
		}
		start := p.pos
		p.parseStatement()
		if p.pos == start {
			p.errorAt(p.cur(), "unexpected token %s in block", p.cur().Kind)
			p.synchronize()
		}
	}
	if p.check(token.DEDENT) {
		p.advance()
	} else {
		p.errorAt(p.cur(), "expected dedent to close block")
	}

	blockNode := p.arena.Create(arena.Block, p.pos)

	var head arena.Index
	if marker == arena.InvalidIndex {
		root := p.arena.Node(arena.RootIndex)
		head = root.FirstChild
		root.FirstChild = arena.InvalidIndex
	} else {
		m := p.arena.Node(marker)
		head = m.NextSibling
		m.NextSibling = arena.InvalidIndex
	}

	count := p.arena.Reparent(blockNode, head)
	bn := p.arena.Node(blockNode)
	bn.StatementsStart = bn.FirstChild
	bn.StatementCount = count
	return blockNode
}

// --- expressions ---

type assoc int

const (
	leftAssoc assoc = iota
	rightAssoc
)

func precedenceOf(k token.Kind) (prec int, op arena.OpKind, a assoc, ok bool) {
	switch k {
	case token.OR:
		return 1, arena.OpOr, leftAssoc, true
	case token.AND:
		return 2, arena.OpAnd, leftAssoc, true
	case token.EQ:
		return 3, arena.OpEq, leftAssoc, true
	case token.NE:
		return 3, arena.OpNe, leftAssoc, true
	case token.LT:
		return 4, arena.OpLt, leftAssoc, true
	case token.LE:
		return 4, arena.OpLe, leftAssoc, true
	case token.GT:
		return 4, arena.OpGt, leftAssoc, true
	case token.GE:
		return 4, arena.OpGe, leftAssoc, true
	case token.PLUS:
		return 5, arena.OpAdd, leftAssoc, true
	case token.MINUS:
		return 5, arena.OpSub, leftAssoc, true
	case token.STAR:
		return 6, arena.OpMul, leftAssoc, true
	case token.SLASH:
		return 6, arena.OpDiv, leftAssoc, true
	case token.MATMUL:
		return 6, arena.OpMatMul, leftAssoc, true
	case token.PERCENT:
		return 6, arena.OpMul /* placeholder, overridden below */, leftAssoc, true
	case token.STARSTAR:
		return 7, arena.OpPow, rightAssoc, true
	}
	return 0, 0, leftAssoc, false
}

// parseExpression implements precedence climbing: a binary operator at or
// above minPrec consumes its right operand parsed with minPrec'=prec+1
// (or prec for the right-associative "**").
func (p *Parser) parseExpression(minPrec int) arena.Index {
	left := p.parseUnary()

	for {
		opIdx := p.pos
		opKind := p.cur().Kind
		prec, op, a, ok := precedenceOf(opKind)
		if opKind == token.PERCENT {
			op = arena.OpMod
		}
		if !ok || prec < minPrec {
			break
		}
		p.advance()

		nextMin := prec + 1
		if a == rightAssoc {
			nextMin = prec
		}
		right := p.parseExpression(nextMin)

		node := p.arena.Create(arena.BinaryOp, opIdx)
		n := p.arena.Node(node)
		n.Op = op
		n.Left = left
		n.Right = right
		left = node
	}
	return left
}

func (p *Parser) parseUnary() arena.Index {
	if p.check(token.MINUS) {
		idx := p.pos
		p.advance()
		operand := p.parseUnary()
		node := p.arena.Create(arena.UnaryOp, idx)
		n := p.arena.Node(node)
		n.Op = arena.OpNegate
		n.Operand = operand
		return node
	}
	if p.check(token.NOT) {
		idx := p.pos
		p.advance()
		operand := p.parseUnary()
		node := p.arena.Create(arena.UnaryOp, idx)
		n := p.arena.Node(node)
		n.Op = arena.OpNot
		n.Operand = operand
		return node
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() arena.Index {
	idx := p.pos
	tok := p.cur()

	switch tok.Kind {
	case token.INTEGER:
		p.advance()
		v, err := strconv.ParseInt(tok.Lexeme, 10, 64)
		if err != nil {
			p.errorAt(tok, "invalid integer literal %q", tok.Lexeme)
		}
		node := p.arena.Create(arena.LiteralInt, idx)
		p.arena.Node(node).IntValue = v
		return node

	case token.FLOAT:
		p.advance()
		v, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			p.errorAt(tok, "invalid float literal %q", tok.Lexeme)
		}
		node := p.arena.Create(arena.LiteralFloat, idx)
		p.arena.Node(node).FloatValue = v
		return node

	case token.STRING:
		p.advance()
		node := p.arena.Create(arena.LiteralString, idx)
		n := p.arena.Node(node)
		n.StrHandle = uint32(p.strings.Add(tok.Lexeme))
		n.StrLength = len(tok.Lexeme)
		return node

	case token.TRUE, token.FALSE:
		p.advance()
		node := p.arena.Create(arena.LiteralBool, idx)
		p.arena.Node(node).BoolValue = tok.Kind == token.TRUE
		return node

	case token.LPAREN:
		p.advance()
		expr := p.parseExpression(0)
		p.expect(token.RPAREN, "to close parenthesized expression")
		return expr

	case token.LBRACKET:
		return p.parseMatrixLiteral()

	case token.IDENTIFIER:
		p.advance()
		var node arena.Index
		if p.check(token.LPAREN) {
			node = p.parseFunctionCall(idx, tok)
		} else {
			node = p.arena.Create(arena.Identifier, idx)
			p.arena.Node(node).NameHandle = uint32(p.strings.Add(tok.Lexeme))
		}
		return p.parsePostfix(node)

	default:
		p.errorAt(tok, "unexpected token %s in expression", tok.Kind)
		if !p.atEnd() {
			p.advance()
		}
		// Error-recovery placeholder so the caller still receives a valid
		// index to continue building a (partial) tree around.
		node := p.arena.Create(arena.LiteralInt, idx)
		return node
	}
}

func (p *Parser) parsePostfix(node arena.Index) arena.Index {
	for {
		if p.check(token.LBRACKET) {
			idx := p.pos
			p.advance()
			index := p.parseExpression(0)
			p.expect(token.RBRACKET, "to close index expression")
			n := p.arena.Create(arena.ArrayAccess, idx)
			nn := p.arena.Node(n)
			nn.Object = node
			nn.Index_ = index
			node = n
			continue
		}
		if p.check(token.DOT) {
			idx := p.pos
			p.advance()
			memberTok, _ := p.expect(token.IDENTIFIER, "member name after '.'")
			n := p.arena.Create(arena.MemberAccess, idx)
			nn := p.arena.Node(n)
			nn.Object = node
			nn.NameHandle = uint32(p.strings.Add(memberTok.Lexeme))
			node = n
			continue
		}
		break
	}
	return node
}

func (p *Parser) parseFunctionCall(idx int, nameTok token.Token) arena.Index {
	p.advance() // consume '('
	node := p.arena.Create(arena.FunctionCall, idx)
	p.arena.Node(node).NameHandle = uint32(p.strings.Add(nameTok.Lexeme))

	argCount := 0
	if !p.check(token.RPAREN) {
		for {
			arg := p.parseExpression(0)
			if err := p.arena.AddChild(node, arg); err != nil {
				p.errorAt(p.cur(), "%s", err.Error())
			}
			argCount++
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(token.RPAREN, "to close argument list")

	n := p.arena.Node(node)
	n.ArgsStart = n.FirstChild
	n.ArgCount = argCount
	return node
}

// parseMatrixLiteral parses "[" row ("," expr)* (";" row)* "]" where a row
// mismatched in length against the first row's column count is recorded
// as an IRREGULAR_ROWS validation error, and "[]" is accepted as an empty
// matrix.
func (p *Parser) parseMatrixLiteral() arena.Index {
	idx := p.pos
	p.advance() // consume '['
	node := p.arena.Create(arena.MatrixLiteral, idx)

	if p.check(token.RBRACKET) {
		p.advance()
		n := p.arena.Node(node)
		n.IsEmpty = true
		return node
	}

	cols := 0
	for {
		e := p.parseExpression(0)
		if err := p.arena.AddChild(node, e); err != nil {
			p.errorAt(p.cur(), "%s", err.Error())
		}
		cols++
		if p.check(token.COMMA) {
			p.advance()
			continue
		}
		break
	}

	rows := 1
	for p.check(token.SEMICOLON) {
		p.advance()
		rowLen := 0
		for {
			e := p.parseExpression(0)
			if err := p.arena.AddChild(node, e); err != nil {
				p.errorAt(p.cur(), "%s", err.Error())
			}
			rowLen++
			if p.check(token.COMMA) {
				p.advance()
				continue
			}
			break
		}
		rows++
		if rowLen != cols {
			n := p.arena.Node(node)
			n.ValidationError = "IRREGULAR_ROWS"
			p.errorAt(p.cur(), "matrix row %d has %d elements, expected %d", rows, rowLen, cols)
		}
	}

	p.expect(token.RBRACKET, "to close matrix literal")

	n := p.arena.Node(node)
	n.Rows = rows
	n.Cols = cols
	n.ElementsStart = n.FirstChild
	return node
}
