// Command dakota is the Dakota language driver: it loads a source file (or
// inline source via -c), lexes and parses it, and either prints the
// resulting AST (-p) or runs it through the evaluator.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dakota-lang/dakota/internal/arena"
	"github.com/dakota-lang/dakota/internal/astcache"
	"github.com/dakota-lang/dakota/internal/config"
	"github.com/dakota-lang/dakota/internal/eval"
	"github.com/dakota-lang/dakota/internal/langserver"
	"github.com/dakota-lang/dakota/internal/lexer"
	"github.com/dakota-lang/dakota/internal/parser"
	"github.com/dakota-lang/dakota/internal/repl"
	"github.com/dakota-lang/dakota/internal/strtable"
)

func main() {
	os.Exit(run())
}

// parseCache remembers successful parses by source hash within one process
// run; run consults it before parsing, whether or not -p is given.
var parseCache = astcache.New()

func run() int {
	help := flag.Bool("h", false, "Show help")
	flag.BoolVar(help, "help", false, "Show help")
	interactive := flag.Bool("i", false, "Start interactive REPL")
	flag.BoolVar(interactive, "interactive", false, "Start interactive REPL")
	inlineCode := flag.String("c", "", "Evaluate CODE directly instead of reading a file")
	parseOnly := flag.Bool("p", false, "Parse only; print the AST on success")
	flag.BoolVar(parseOnly, "parse-only", false, "Parse only; print the AST on success")
	verbose := flag.Bool("v", false, "Print token count, node count, and memory usage")
	flag.BoolVar(verbose, "verbose", false, "Print token count, node count, and memory usage")
	serve := flag.Bool("serve", false, "Start the Dakota language server on stdio")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: dakota [options] [path]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a Dakota source file, or starts an interactive session.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  dakota program.dk             # Run a file\n")
		fmt.Fprintf(os.Stderr, "  dakota -i                     # Start the REPL\n")
		fmt.Fprintf(os.Stderr, "  dakota -c 'print(1 + 2)'      # Run inline source\n")
		fmt.Fprintf(os.Stderr, "  dakota -p program.dk          # Parse only, print the AST\n")
		fmt.Fprintf(os.Stderr, "  dakota -serve                 # Start the language server on stdio\n")
	}
	flag.Parse()

	if *help {
		flag.Usage()
		return 0
	}

	cfg, err := config.FindAndLoad(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		cfg = nil
	}
	lexOpts := cfg.LexerOptions()

	if *serve {
		if err := langserver.New().Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			return 1
		}
		return 0
	}

	if *interactive {
		return repl.Run(os.Stdin, os.Stdout, lexOpts...)
	}

	src, srcErr := sourceText(*inlineCode, flag.Args())
	if srcErr != nil {
		fmt.Fprintln(os.Stderr, srcErr)
		return 1
	}

	toks, lexErr := lexer.New(src, lexOpts...).Tokenize()
	if lexErr != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %s\n", lexErr)
		return 1
	}

	var a *arena.Arena
	var st *strtable.Table
	if cached, cachedSt, ok := parseCache.Get(src); ok {
		a, st = cached, cachedSt
	} else {
		var perrs []parser.Error
		a, st, perrs = parser.New(toks).Parse()
		if len(perrs) > 0 {
			for _, e := range perrs {
				fmt.Fprintf(os.Stderr, "Parse error: %s\n", e.String())
			}
			return 1
		}
		_ = parseCache.Put(src, a, st)
	}

	if *verbose {
		commonlog.NewInfoMessage(0, "dakota: parsed source")
		fmt.Fprintf(os.Stderr, "tokens=%d nodes=%d stringTableBytes=%d\n", len(toks), a.Len(), st.MemoryUsage())
	}

	if *parseOnly {
		printAST(a, st, arena.RootIndex, 0)
		return 0
	}

	ev := eval.New(a, st, toks, os.Stdout, os.Stdin)
	if err := ev.Interpret(); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return 0
}

func sourceText(inline string, args []string) (string, error) {
	if inline != "" {
		return inline, nil
	}
	if len(args) == 0 {
		return "", fmt.Errorf("dakota: no input: pass a source file path, -c CODE, or -i")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("dakota: cannot read %s: %w", args[0], err)
	}
	return string(data), nil
}

// printAST renders the arena as an indented tree, for the -p/--parse-only
// path. It walks a node's children via the sibling chain, using whichever
// of FirstChild/StatementsStart/ElementsStart/ParamsStart/ArgsStart applies
// to that node's kind.
func printAST(a *arena.Arena, st *strtable.Table, idx arena.Index, depth int) {
	if idx == arena.InvalidIndex {
		return
	}
	n := a.Node(idx)
	fmt.Println(astLabel(n, st))

	indent := depth + 1
	printChain(a, st, firstChildOf(n), indent)
}

func firstChildOf(n *arena.Node) arena.Index {
	switch n.Kind {
	case arena.Program, arena.Block:
		return n.StatementsStart
	case arena.MatrixLiteral:
		return n.ElementsStart
	case arena.FunctionDef:
		return n.ParamsStart
	case arena.FunctionCall:
		return n.ArgsStart
	}
	return n.FirstChild
}

func printChain(a *arena.Arena, st *strtable.Table, start arena.Index, depth int) {
	for cur := start; cur != arena.InvalidIndex; cur = a.Node(cur).NextSibling {
		fmt.Print(indentStr(depth))
		printAST(a, st, cur, depth)
	}
}

func indentStr(depth int) string {
	s := ""
	for i := 0; i < depth; i++ {
		s += "  "
	}
	return s
}

func astLabel(n *arena.Node, st *strtable.Table) string {
	switch n.Kind {
	case arena.LiteralInt:
		return fmt.Sprintf("Int(%d)", n.IntValue)
	case arena.LiteralFloat:
		return fmt.Sprintf("Float(%g)", n.FloatValue)
	case arena.LiteralString:
		return fmt.Sprintf("String(%q)", st.GetString(strtable.Handle(n.StrHandle)))
	case arena.LiteralBool:
		return fmt.Sprintf("Bool(%v)", n.BoolValue)
	case arena.Identifier:
		return fmt.Sprintf("Identifier(%s)", st.GetString(strtable.Handle(n.NameHandle)))
	case arena.BinaryOp:
		return fmt.Sprintf("BinaryOp(%v)", n.Op)
	case arena.UnaryOp:
		return fmt.Sprintf("UnaryOp(%v)", n.Op)
	case arena.FunctionCall:
		return fmt.Sprintf("Call(%s)", st.GetString(strtable.Handle(n.NameHandle)))
	case arena.FunctionDef:
		return fmt.Sprintf("FunctionDef(%s)", st.GetString(strtable.Handle(n.NameHandle)))
	case arena.MemberAccess:
		return fmt.Sprintf("MemberAccess(.%s)", st.GetString(strtable.Handle(n.NameHandle)))
	}
	return n.Kind.String()
}
