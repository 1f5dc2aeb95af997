// Package langserver implements a Dakota language server over stdio:
// diagnostics from lex/parse errors on every document change, and hover
// text showing the kind a simple identifier lookup would infer.
package langserver

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"

	"github.com/dakota-lang/dakota/internal/astcache"
	"github.com/dakota-lang/dakota/internal/lexer"
	"github.com/dakota-lang/dakota/internal/parser"
)

const lsName = "dakota-lsp"

// Server bridges LSP editor features to Dakota's lexer/parser.
type Server struct {
	mu   sync.Mutex
	docs map[string]string // URI → full document content

	// parseCache remembers every document text that has already parsed
	// clean, so an unchanged re-open/re-save skips re-lexing and
	// re-parsing entirely.
	parseCache *astcache.Cache

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// New creates a Dakota language server.
func New() *Server {
	s := &Server{
		docs:       make(map[string]string),
		parseCache: astcache.New(),
		version:    "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentHover: s.textDocumentHover,
	}

	s.server = glspserver.NewServer(&s.handler, lsName, false)

	return s
}

// Run starts the language server on stdio. Blocks until the client
// disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

// --- lifecycle handlers ---

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "Dakota LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}
	capabilities.HoverProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- document synchronization ---

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

// --- language features ---

// textDocumentHover reports the kind of literal the identifier under the
// cursor would evaluate to, inferred purely from its own assignment
// expression in the source text (no evaluator is run).
func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	s.mu.Lock()
	text, ok := s.docs[string(uri)]
	s.mu.Unlock()

	if !ok {
		return nil, nil
	}

	word := extractWord(text, pos)
	if word == "" {
		return nil, nil
	}

	kind, ok := inferAssignedKind(text, word)
	if !ok {
		return nil, nil
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: fmt.Sprintf("**%s**: `%s`", word, kind),
		},
	}, nil
}

// inferAssignedKind scans for the last line of the form "name = <literal>"
// in text, at any indentation, and reports a coarse description of the
// literal's kind. This is a
// best-effort hover aid, not a type checker.
func inferAssignedKind(text, name string) (string, bool) {
	lines := strings.Split(text, "\n")
	found := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		prefix := name + " ="
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		rhs := strings.TrimSpace(trimmed[len(prefix):])
		found = describeLiteral(rhs)
	}
	if found == "" {
		return "", false
	}
	return found, true
}

func describeLiteral(rhs string) string {
	switch {
	case rhs == "":
		return ""
	case rhs == "true" || rhs == "false":
		return "boolean"
	case strings.HasPrefix(rhs, "\""):
		return "string"
	case strings.HasPrefix(rhs, "["):
		return "matrix"
	case strings.ContainsAny(rhs, "."):
		return "float"
	default:
		for _, r := range rhs {
			if !unicode.IsDigit(r) && r != '-' {
				return "expression"
			}
		}
		return "integer"
	}
}

// --- diagnostics ---

// publishDiagnostics re-lexes and re-parses text, surfacing every lexical
// and parse error as an LSP diagnostic with severity Error. A text that
// already parsed clean once is remembered in parseCache, so a redundant
// didOpen/didChange for unchanged content skips lexing and parsing
// entirely and publishes the empty diagnostic set straight away.
func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	if s.parseCache.Has(text) {
		go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
			URI:         uri,
			Diagnostics: []protocol.Diagnostic{},
		})
		return
	}

	var diagnostics []protocol.Diagnostic

	toks, err := lexer.New(text).Tokenize()
	if err != nil {
		severity := protocol.DiagnosticSeverityError
		source := lsName
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: 0, Character: 0},
				End:   protocol.Position{Line: 0, Character: 0},
			},
			Severity: &severity,
			Source:   &source,
			Message:  err.Error(),
		})
	} else {
		a, st, perrs := parser.New(toks).Parse()
		for _, e := range perrs {
			severity := protocol.DiagnosticSeverityError
			source := lsName
			line := uint32(0)
			if e.Line > 0 {
				line = uint32(e.Line - 1)
			}
			col := uint32(0)
			if e.Column > 0 {
				col = uint32(e.Column - 1)
			}
			diagnostics = append(diagnostics, protocol.Diagnostic{
				Range: protocol.Range{
					Start: protocol.Position{Line: line, Character: col},
					End:   protocol.Position{Line: line, Character: col + 1},
				},
				Severity: &severity,
				Source:   &source,
				Message:  e.Message,
			})
		}
		if len(perrs) == 0 {
			_ = s.parseCache.Put(text, a, st)
		}
	}

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// --- text extraction helpers ---

// extractWord returns the full identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			start--
		} else {
			break
		}
	}

	end := col
	for end < len(line) {
		ch := rune(line[end])
		if unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_' {
			end++
		} else {
			break
		}
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func boolPtr(b bool) *bool {
	return &b
}
