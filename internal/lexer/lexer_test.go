package lexer

import (
	"testing"

	"github.com/dakota-lang/dakota/internal/token"
)

func TestLexerBasicTokens(t *testing.T) {
	input := `( ) [ ] { } , ; : . = < > <= >= == != + - * / % **`
	expected := []token.Kind{
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET,
		token.LBRACE, token.RBRACE, token.COMMA, token.SEMICOLON,
		token.COLON, token.DOT, token.ASSIGN, token.LT, token.GT,
		token.LE, token.GE, token.EQ, token.NE, token.PLUS, token.MINUS,
		token.STAR, token.SLASH, token.PERCENT, token.STARSTAR,
		token.EOF,
	}

	toks, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize(%q) returned error: %v", input, err)
	}
	if len(toks) != len(expected) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(expected), toks)
	}
	for i, want := range expected {
		if toks[i].Kind != want {
			t.Errorf("token[%d].Kind = %v, want %v", i, toks[i].Kind, want)
		}
	}
}

func TestLexerIntegersAndFloats(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
		lex   string
	}{
		{"42", token.INTEGER, "42"},
		{"0", token.INTEGER, "0"},
		{"3.14", token.FLOAT, "3.14"},
		{"1e10", token.FLOAT, "1e10"},
		{"1.5e-3", token.FLOAT, "1.5e-3"},
		{"2.0E+5", token.FLOAT, "2.0E+5"},
	}

	for _, tc := range tests {
		toks, err := New(tc.input).Tokenize()
		if err != nil {
			t.Fatalf("Tokenize(%q) returned error: %v", tc.input, err)
		}
		if toks[0].Kind != tc.kind {
			t.Errorf("Tokenize(%q): kind = %v, want %v", tc.input, toks[0].Kind, tc.kind)
		}
		if toks[0].Lexeme != tc.lex {
			t.Errorf("Tokenize(%q): lexeme = %q, want %q", tc.input, toks[0].Lexeme, tc.lex)
		}
	}
}

func TestLexerStrings(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`"hello"`, "hello"},
		{`"hello world"`, "hello world"},
		{`""`, ""},
		{`"line1\nline2"`, "line1\nline2"},
		{`"a\tb"`, "a\tb"},
	}

	for _, tc := range tests {
		toks, err := New(tc.input).Tokenize()
		if err != nil {
			t.Fatalf("Tokenize(%q) returned error: %v", tc.input, err)
		}
		if toks[0].Kind != token.STRING {
			t.Errorf("Tokenize(%q): kind = %v, want STRING", tc.input, toks[0].Kind)
		}
		if toks[0].Lexeme != tc.want {
			t.Errorf("Tokenize(%q): lexeme = %q, want %q", tc.input, toks[0].Lexeme, tc.want)
		}
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	toks, err := New(`"unterminated`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error instead of INVALID token: %v", err)
	}
	if toks[0].Kind != token.INVALID {
		t.Errorf("kind = %v, want INVALID", toks[0].Kind)
	}
}

func TestLexerKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		input string
		kind  token.Kind
	}{
		{"x", token.IDENTIFIER},
		{"foo123", token.IDENTIFIER},
		{"_private", token.IDENTIFIER},
		{"if", token.IF},
		{"else", token.ELSE},
		{"elif", token.ELIF},
		{"while", token.WHILE},
		{"for", token.FOR},
		{"in", token.IN},
		{"function", token.FUNCTION},
		{"return", token.RETURN},
		{"true", token.TRUE},
		{"false", token.FALSE},
		{"and", token.AND},
		{"or", token.OR},
		{"not", token.NOT},
	}

	for _, tc := range tests {
		toks, err := New(tc.input).Tokenize()
		if err != nil {
			t.Fatalf("Tokenize(%q) returned error: %v", tc.input, err)
		}
		if toks[0].Kind != tc.kind {
			t.Errorf("Tokenize(%q): kind = %v, want %v", tc.input, toks[0].Kind, tc.kind)
		}
	}
}

func TestLexerLineComments(t *testing.T) {
	input := "x = 1 \\ trailing comment\ny = 2"
	toks, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	for _, tok := range toks {
		if tok.Kind == token.COMMENT {
			t.Errorf("comment token leaked into stream without WithCommentPreservation: %v", tok)
		}
	}
}

func TestLexerCommentPreservation(t *testing.T) {
	input := "x = 1 \\ a comment"
	toks, err := New(input, WithCommentPreservation(true)).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	found := false
	for _, tok := range toks {
		if tok.Kind == token.COMMENT {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a COMMENT token with WithCommentPreservation(true), got %v", toks)
	}
}

func TestLexerIndentDedent(t *testing.T) {
	input := "if x\n    y = 1\n    z = 2\nw = 3"
	toks, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}

	var kinds []token.Kind
	for _, tok := range toks {
		kinds = append(kinds, tok.Kind)
	}

	wantIndent := false
	wantDedent := false
	for _, k := range kinds {
		if k == token.INDENT {
			wantIndent = true
		}
		if k == token.DEDENT {
			wantDedent = true
		}
	}
	if !wantIndent {
		t.Errorf("expected an INDENT token, got %v", kinds)
	}
	if !wantDedent {
		t.Errorf("expected a DEDENT token, got %v", kinds)
	}
}

func TestLexerMixedTabsAndSpacesError(t *testing.T) {
	input := "if x\n \t y = 1"
	_, err := New(input).Tokenize()
	if err == nil {
		t.Fatalf("expected an error for mixed tabs and spaces, got none")
	}
}

func TestLexerInconsistentIndentStyleError(t *testing.T) {
	input := "if x\n    y = 1\nif z\n\tw = 2"
	_, err := New(input).Tokenize()
	if err == nil {
		t.Fatalf("expected an error for switching indentation style, got none")
	}
}

func TestLexerUnindentMismatchError(t *testing.T) {
	input := "if x\n    if y\n            z = 1\n        w = 2"
	_, err := New(input).Tokenize()
	if err == nil {
		t.Fatalf("expected an error for an unindent matching no outer level, got none")
	}
}

func TestLexerTabWidthOption(t *testing.T) {
	input := "if x\n\ty = 1"
	toks, err := New(input, WithTabWidth(2)).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	found := false
	for _, tok := range toks {
		if tok.Kind == token.INDENT {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an INDENT token, got %v", toks)
	}
}

func TestLexerLineTracking(t *testing.T) {
	input := "x\ny\nz"
	toks, err := New(input).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize returned error: %v", err)
	}
	if toks[0].Line != 1 {
		t.Errorf("x should be on line 1, got %d", toks[0].Line)
	}
	// toks[1] is NEWLINE, toks[2] is y
	if toks[2].Line != 2 {
		t.Errorf("y should be on line 2, got %d", toks[2].Line)
	}
}
