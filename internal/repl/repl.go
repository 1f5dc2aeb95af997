// Package repl implements Dakota's interactive session: a line-accumulating
// read loop (since Dakota blocks are indentation-delimited, a chunk ends at
// a blank line rather than a single newline) over a persistent Evaluator,
// with each session's input logged to a SQLite-backed history store.
package repl

import (
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dakota-lang/dakota/internal/eval"
	"github.com/dakota-lang/dakota/internal/lexer"
)

// Run starts an interactive Dakota session reading from in and writing
// prompts/output to out. It returns a process exit code.
func Run(in io.Reader, out io.Writer, lexOpts ...lexer.Option) int {
	hist, err := openHistory()
	if err != nil {
		fmt.Fprintf(out, "warning: history unavailable: %v\n", err)
	} else {
		defer hist.Close()
	}
	sessionID := uuid.New().String()

	fmt.Fprintln(out, "Dakota REPL (blank line runs the current chunk, Ctrl-D exits)")

	// arena/strings/tokens are populated per chunk by EvalSource; only
	// Global and functions persist across chunks.
	evaluator := eval.New(nil, nil, nil, out, in)
	reader := evaluator.StdinReader()

	var buf strings.Builder

	for {
		if buf.Len() == 0 {
			fmt.Fprint(out, ">> ")
		} else {
			fmt.Fprint(out, ".. ")
		}
		rawLine, err := reader.ReadString('\n')
		if err != nil && rawLine == "" {
			break
		}
		line := strings.TrimRight(rawLine, "\r\n")

		if buf.Len() == 0 && (line == "exit" || line == "quit") {
			break
		}

		if line == "" {
			chunk := buf.String()
			buf.Reset()
			if strings.TrimSpace(chunk) == "" {
				continue
			}
			runChunk(evaluator, chunk, out, lexOpts...)
			if hist != nil {
				hist.record(sessionID, chunk)
			}
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(line)
	}

	if buf.Len() > 0 {
		chunk := buf.String()
		runChunk(evaluator, chunk, out, lexOpts...)
		if hist != nil {
			hist.record(sessionID, chunk)
		}
	}
	fmt.Fprintln(out)
	return 0
}

func runChunk(ev *eval.Evaluator, chunk string, out io.Writer, lexOpts ...lexer.Option) {
	if err := ev.EvalSource(chunk, lexOpts...); err != nil {
		fmt.Fprintln(out, err)
	}
}

// history is a thin SQLite-backed log of every chunk run in any session,
// stored in a single embedded database file.
type history struct {
	db *sql.DB
}

func openHistory() (*history, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolving home directory: %w", err)
	}
	path := filepath.Join(home, ".dakota_history.db")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		source TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history table: %w", err)
	}
	return &history{db: db}, nil
}

func (h *history) record(sessionID, source string) {
	_, _ = h.db.Exec(
		`INSERT INTO history (session_id, source, created_at) VALUES (?, ?, ?)`,
		sessionID, source, time.Now().UTC().Format(time.RFC3339),
	)
}

func (h *history) Close() error {
	return h.db.Close()
}
