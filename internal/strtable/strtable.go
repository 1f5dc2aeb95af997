// Package strtable implements the parser's append-only string table:
// content is pushed once per occurrence and never deduplicated, trading
// compactness for simplicity (mirrored from the original Dakota prototype's
// StringTable, which has exactly this property).
package strtable

// Handle is a dense, monotonically increasing index into a Table. Handle 0
// always denotes the empty string.
type Handle uint32

// Table is an append-only byte buffer plus an offset table, addressed by
// Handle.
type Table struct {
	data    []byte
	offsets []int // offsets[h] is the start of handle h's bytes in data
	lengths []int
}

// New creates an empty Table. Handle 0 is pre-registered as the empty
// string.
func New() *Table {
	t := &Table{}
	t.offsets = append(t.offsets, 0)
	t.lengths = append(t.lengths, 0)
	return t
}

// Add appends s to the table and returns its handle. Empty input always
// returns handle 0 without growing the buffer.
func (t *Table) Add(s string) Handle {
	if len(s) == 0 {
		return 0
	}
	h := Handle(len(t.offsets))
	t.offsets = append(t.offsets, len(t.data))
	t.lengths = append(t.lengths, len(s))
	t.data = append(t.data, s...)
	t.data = append(t.data, 0) // internal NUL terminator
	return h
}

// Get returns the bytes stored at h, or an empty slice if h is out of
// range.
func (t *Table) Get(h Handle) []byte {
	i := int(h)
	if i < 0 || i >= len(t.offsets) {
		return nil
	}
	start := t.offsets[i]
	return t.data[start : start+t.lengths[i]]
}

// GetString is a convenience wrapper around Get that returns a string.
func (t *Table) GetString(h Handle) string {
	return string(t.Get(h))
}

// Clear discards all stored strings, resetting the table to its initial
// state (handle 0 still denotes the empty string).
func (t *Table) Clear() {
	t.data = t.data[:0]
	t.offsets = t.offsets[:1]
	t.lengths = t.lengths[:1]
}

// MemoryUsage reports the approximate number of bytes retained by the
// table's backing storage.
func (t *Table) MemoryUsage() int {
	return len(t.data) + len(t.offsets)*8 + len(t.lengths)*8
}

// ShrinkToFit releases any spare capacity in the backing slices. Intended
// to be called once parsing completes and no further Add calls are
// expected.
func (t *Table) ShrinkToFit() {
	data := make([]byte, len(t.data))
	copy(data, t.data)
	t.data = data

	offsets := make([]int, len(t.offsets))
	copy(offsets, t.offsets)
	t.offsets = offsets

	lengths := make([]int, len(t.lengths))
	copy(lengths, t.lengths)
	t.lengths = lengths
}

// Strings returns every stored string in handle order (handle 1..N),
// excluding the implicit empty string at handle 0. Used to serialize a
// Table for caching.
func (t *Table) Strings() []string {
	out := make([]string, 0, len(t.offsets)-1)
	for h := 1; h < len(t.offsets); h++ {
		out = append(out, t.GetString(Handle(h)))
	}
	return out
}

// FromStrings rebuilds a Table from the ordered string list Strings
// produced, restoring the same handle assignment.
func FromStrings(strs []string) *Table {
	t := New()
	for _, s := range strs {
		t.Add(s)
	}
	return t
}
