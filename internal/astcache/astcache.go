// Package astcache caches a parsed program (arena + string table) as
// canonical CBOR, content-addressed by the SHA-256 hash of the source text
// it was parsed from. The CLI consults it before parsing its input, and
// the language server uses it to skip re-parsing a document whose text
// hasn't changed.
package astcache

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/dakota-lang/dakota/internal/arena"
	"github.com/dakota-lang/dakota/internal/strtable"
)

// snapshot is the CBOR wire form of a parsed program: the arena's node
// slice and the string table's interned strings in handle order.
type snapshot struct {
	Nodes   []arena.Node `cbor:"nodes"`
	Strings []string     `cbor:"strings"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("astcache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a parsed program to canonical CBOR bytes.
func Marshal(a *arena.Arena, st *strtable.Table) ([]byte, error) {
	s := snapshot{Nodes: a.Nodes(), Strings: st.Strings()}
	return cborEncMode.Marshal(s)
}

// Unmarshal reconstructs an arena and string table from bytes produced by
// Marshal.
func Unmarshal(data []byte) (*arena.Arena, *strtable.Table, error) {
	var s snapshot
	if err := cbor.Unmarshal(data, &s); err != nil {
		return nil, nil, fmt.Errorf("astcache: unmarshal snapshot: %w", err)
	}
	return arena.FromNodes(s.Nodes), strtable.FromStrings(s.Strings), nil
}

// Hash returns the content address for source text.
func Hash(source string) [32]byte {
	return sha256.Sum256([]byte(source))
}

// Cache is an in-memory content-addressed store of parsed programs, keyed
// by source hash, guarded by a single sync.RWMutex.
type Cache struct {
	mu      sync.RWMutex
	entries map[[32]byte][]byte // hash -> marshaled snapshot
}

// New creates an empty Cache.
func New() *Cache {
	return &Cache{entries: make(map[[32]byte][]byte)}
}

// Put stores the parsed form of source under its content hash.
func (c *Cache) Put(source string, a *arena.Arena, st *strtable.Table) error {
	data, err := Marshal(a, st)
	if err != nil {
		return err
	}
	h := Hash(source)
	c.mu.Lock()
	c.entries[h] = data
	c.mu.Unlock()
	return nil
}

// Get returns the cached parse of source, if present.
func (c *Cache) Get(source string) (*arena.Arena, *strtable.Table, bool) {
	h := Hash(source)
	c.mu.RLock()
	data, ok := c.entries[h]
	c.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}
	a, st, err := Unmarshal(data)
	if err != nil {
		return nil, nil, false
	}
	return a, st, true
}

// Has reports whether source's hash is already cached.
func (c *Cache) Has(source string) bool {
	h := Hash(source)
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[h]
	return ok
}
