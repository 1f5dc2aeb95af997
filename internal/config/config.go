// Package config handles dakota.toml project configuration: lexer layout
// preferences and the default source entry point.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"

	"github.com/dakota-lang/dakota/internal/lexer"
)

// configSchema constrains the shape Load accepts, catching malformed
// dakota.toml files (wrong field types, a negative tab width) before they
// reach the rest of the CLI as a zero-valued Config.
const configSchema = `
project?: {
	name?:    string
	version?: string
}
source?: {
	dirs?:  [...string]
	entry?: string
}
lexer?: {
	"tab-width"?:         int & >=0
	"preserve-comments"?: bool
}
`

// validateAgainstSchema decodes data as TOML, encodes the result as a CUE
// value and checks it against configSchema, giving field-level errors
// instead of toml.Unmarshal's
// Go-type-mismatch messages.
func validateAgainstSchema(data []byte) error {
	ctx := cuecontext.New()

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return fmt.Errorf("decode for schema check: %w", err)
	}

	schema := ctx.CompileString(configSchema)
	if schema.Err() != nil {
		return fmt.Errorf("internal schema error: %w", schema.Err())
	}

	val := ctx.Encode(raw)
	unified := schema.Unify(val)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

// Config represents a dakota.toml project configuration.
type Config struct {
	Project Project `toml:"project"`
	Source  Source  `toml:"source"`
	Lexer   Lexer   `toml:"lexer"`

	// Dir is the directory containing the dakota.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

// Source configures where program sources live and names the project's
// entry file (resolved by EntryPath). The dakota CLI does not read Entry;
// it runs only the file, -c code, or REPL named on its command line.
type Source struct {
	Dirs  []string `toml:"dirs"`
	Entry string   `toml:"entry"`
}

// Lexer mirrors the options lexer.Option exposes, so a project can pin its
// tab width and comment handling in dakota.toml instead of on every CLI
// invocation.
type Lexer struct {
	TabWidth         int  `toml:"tab-width"`
	PreserveComments bool `toml:"preserve-comments"`
}

// Load parses a dakota.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "dakota.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	if err := validateAgainstSchema(data); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if len(c.Source.Dirs) == 0 {
		c.Source.Dirs = []string{"."}
	}
	if c.Lexer.TabWidth == 0 {
		c.Lexer.TabWidth = 4
	}

	return &c, nil
}

// FindAndLoad walks up from startDir looking for a dakota.toml file. It
// returns a nil Config (and nil error) if none is found anywhere above
// startDir — an unconfigured project is not an error.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "dakota.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// LexerOptions translates the loaded configuration into lexer.Option
// values for lexer.New/ParseSource.
func (c *Config) LexerOptions() []lexer.Option {
	if c == nil {
		return nil
	}
	var opts []lexer.Option
	if c.Lexer.TabWidth > 0 {
		opts = append(opts, lexer.WithTabWidth(c.Lexer.TabWidth))
	}
	if c.Lexer.PreserveComments {
		opts = append(opts, lexer.WithCommentPreservation(true))
	}
	return opts
}

// SourceDirPaths returns absolute paths for the configured source
// directories.
func (c *Config) SourceDirPaths() []string {
	var paths []string
	for _, d := range c.Source.Dirs {
		paths = append(paths, filepath.Join(c.Dir, d))
	}
	return paths
}

// EntryPath resolves the configured entry file, if any, to an absolute
// path.
func (c *Config) EntryPath() string {
	if c.Source.Entry == "" {
		return ""
	}
	return filepath.Join(c.Dir, c.Source.Entry)
}
