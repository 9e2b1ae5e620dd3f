package multimatch

import (
	"unicode"
	"unicode/utf16"
)

// Hit is a single reported match: begin is inclusive, end is
// exclusive, both measured in code units from the start of the text
// (or of the slice, for ParseSlice). Value is the keyword's associated
// value when the automaton was built or loaded with values; HasValue
// is false for a values-less automaton.
type Hit[V any] struct {
	Begin    int
	End      int
	Value    V
	HasValue bool
	Index    int
}

// Len returns End-Begin, the matched keyword's length in code units.
func (h Hit[V]) Len() int { return h.End - h.Begin }

// KV is one (key, value) pair supplied to Build.
type KV[V any] struct {
	Key   string
	Value V
}

// Automaton is a built, immutable Aho-Corasick double-array trie.
// A zero-value Automaton is not usable; obtain one from Build,
// ReadFrom, LoadFromWithValues, LoadFile, or LoadFileCompressed. The
// scan, lookup and WriteTo methods return ErrNotBuilt otherwise; Count
// and IgnoreCase do not check and read the packed state directly.
// Once built, every read-only method is safe to call concurrently
// from multiple goroutines without external synchronization — the
// constructors themselves are not safe to race with readers; publish
// the returned pointer with a happens-before edge (e.g. channel send,
// sync/atomic store, or simply not starting readers until after the
// constructor returns) before sharing it.
type Automaton[V any] struct {
	c         *core
	v         []V
	hasValues bool
	built     bool
}

// Build compiles entries into an Automaton. Duplicate keys are legal:
// every duplicate's index is preserved in the output set, though
// ExactMatch will only ever report the largest. An empty
// entries slice is legal and yields an automaton that matches nothing.
func Build[V any](entries []KV[V], ignoreCase bool) (*Automaton[V], error) {
	keys := make([][]uint16, len(entries))
	totalUnits := 0

	for i, e := range entries {
		units := utf16.Encode([]rune(e.Key))
		if len(units) == 0 {
			return nil, ErrEmptyKey
		}
		if ignoreCase {
			for j, u := range units {
				units[j] = foldCodeUnit(u)
			}
		}
		keys[i] = units
		totalUnits += len(units)
	}

	c := &core{ignoreCase: ignoreCase}

	if len(entries) == 0 {
		c.base = []int32{0}
		c.check = []int32{0}
		c.fail = []int32{0}
		c.output = [][]int32{nil}
		c.l = nil
		return &Automaton[V]{c: c, built: true}, nil
	}

	root, lengths := buildTrie(keys)

	p, err := pack(root, len(entries), totalUnits)
	if err != nil {
		return nil, err
	}

	base, check, size := p.finalize()
	c.base, c.check, c.size = base, check, size
	c.l = lengths

	compileFailAndOutput(root, c)

	values := make([]V, len(entries))
	for i, e := range entries {
		values[i] = e.Value
	}

	return &Automaton[V]{c: c, v: values, hasValues: true, built: true}, nil
}

// BuildKeysOnly is Build without values, for pure-membership dictionaries.
func BuildKeysOnly(keys []string, ignoreCase bool) (*Automaton[struct{}], error) {
	entries := make([]KV[struct{}], len(keys))
	for i, k := range keys {
		entries[i] = KV[struct{}]{Key: k}
	}
	a, err := Build(entries, ignoreCase)
	if err != nil {
		return nil, err
	}
	a.v = nil
	a.hasValues = false
	return a, nil
}

// foldCodeUnit implements the case-folding policy: ASCII uppercase
// letters fold via bit 0x20; everything else folds through
// unicode.ToLower, one code unit at a time. unicode.ToLower (not
// golang.org/x/text/cases) is used deliberately here: folding must be
// length-preserving because begin/end are code-unit indexed, and
// x/text's full case folding is not guaranteed to be.
func foldCodeUnit(c uint16) uint16 {
	if c >= 'A' && c <= 'Z' {
		return c | 0x20
	}
	if c < 0x80 {
		return c
	}
	if utf16.IsSurrogate(rune(c)) {
		// A lone surrogate half does not decode to a rune on its own;
		// surrogate pairs are matched as code-unit sequences, so leave
		// it untouched rather than folding nonsense.
		return c
	}
	return uint16(unicode.ToLower(rune(c)))
}

func foldUnits(units []uint16) []uint16 {
	out := make([]uint16, len(units))
	for i, u := range units {
		out[i] = foldCodeUnit(u)
	}
	return out
}

// nextState is the standard Aho-Corasick getState: transitionWithRoot
// with failure-chasing. Termination follows fail[] strictly decreasing in
// depth and the root's transitionWithRoot never returning undefined.
func (c *core) nextState(s int32, code uint16) int32 {
	for {
		r := c.transitionWithRoot(s, code)
		if r != -1 {
			return r
		}
		s = c.fail[s]
	}
}

// scanUnits drives the scan loop over units, invoking visit for every
// input position whose resulting state has a non-empty output set.
// visit returning false stops the scan immediately.
func (c *core) scanUnits(units []uint16, visit func(position int32, state int32) bool) {
	var current int32
	for i, u := range units {
		code := u
		if c.ignoreCase {
			code = foldCodeUnit(code)
		}
		current = c.nextState(current, code)
		if int(current) < len(c.output) && len(c.output[current]) > 0 {
			if !visit(int32(i+1), current) {
				return
			}
		}
	}
}

// forEachHit is scanUnits generalized to emit one Hit per keyword
// index in output[state], in array order.
func (a *Automaton[V]) forEachHit(units []uint16, predicate func(Hit[V]) bool) {
	a.c.scanUnits(units, func(position int32, state int32) bool {
		for _, k := range a.c.output[state] {
			hit := Hit[V]{
				End:   int(position),
				Index: int(k),
			}
			hit.Begin = hit.End - int(a.c.l[k])
			if a.hasValues {
				hit.Value = a.v[k]
				hit.HasValue = true
			}
			if !predicate(hit) {
				return false
			}
		}
		return true
	})
}

func toUnits(text string) []uint16 {
	return utf16.Encode([]rune(text))
}

// Parse scans text, invoking predicate for every Hit in emission
// order. Returning false from predicate stops the scan immediately;
// exactly the Hits delivered before that point are observed. Parse
// returns ErrNotBuilt if the automaton was never returned by Build or
// Load.
func (a *Automaton[V]) Parse(text string, predicate func(Hit[V]) bool) error {
	if !a.built {
		return ErrNotBuilt
	}
	a.forEachHit(toUnits(text), predicate)
	return nil
}

// ParseAll scans text, invoking action for every Hit. Equivalent to
// Parse with a predicate that always returns true.
func (a *Automaton[V]) ParseAll(text string, action func(Hit[V])) error {
	if !a.built {
		return ErrNotBuilt
	}
	a.forEachHit(toUnits(text), func(h Hit[V]) bool {
		action(h)
		return true
	})
	return nil
}

// ParseSlice scans a bounded slice [start, start+length) of code
// units, with begin/end relative to the slice start rather than any
// enclosing buffer.
func (a *Automaton[V]) ParseSlice(units []uint16, start, length int, predicate func(Hit[V]) bool) error {
	if !a.built {
		return ErrNotBuilt
	}
	a.forEachHit(units[start:start+length], predicate)
	return nil
}

// Collect is the eager variant of ParseAll: it scans text and returns
// every Hit as an ordered slice.
func (a *Automaton[V]) Collect(text string) ([]Hit[V], error) {
	hits := make([]Hit[V], 0, 8)
	if err := a.ParseAll(text, func(h Hit[V]) {
		hits = append(hits, h)
	}); err != nil {
		return nil, err
	}
	return hits, nil
}

// Matches reports whether any keyword occurs anywhere in text,
// stopping the scan at the first hit.
func (a *Automaton[V]) Matches(text string) (bool, error) {
	found := false
	if err := a.Parse(text, func(Hit[V]) bool {
		found = true
		return false
	}); err != nil {
		return false, err
	}
	return found, nil
}

// FindFirst returns the first Hit emitted while scanning text (the
// first entry of output[] at the earliest output-bearing position), or the
// zero Hit and false if nothing matches.
func (a *Automaton[V]) FindFirst(text string) (Hit[V], bool, error) {
	var first Hit[V]
	found := false
	if err := a.Parse(text, func(h Hit[V]) bool {
		first = h
		found = true
		return false
	}); err != nil {
		return Hit[V]{}, false, err
	}
	return first, found, nil
}

// Count returns the number of keywords in the dictionary, including
// duplicates.
func (a *Automaton[V]) Count() int {
	return len(a.c.l)
}

// IgnoreCase reports the case-folding policy the automaton was built
// or loaded with.
func (a *Automaton[V]) IgnoreCase() bool {
	return a.c.ignoreCase
}
