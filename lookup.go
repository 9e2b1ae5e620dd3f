package multimatch

import "unicode/utf16"

// exactMatch walks the DAT for units and returns the keyword index
// encoded at the terminal slot, or (-1, false) if units is not in the
// dictionary, grounded on colin0000007-darts-go's ExactMatchSearch.
func (c *core) exactMatch(units []uint16) (int32, bool) {
	b := c.base[0]

	for _, u := range units {
		code := u
		if c.ignoreCase {
			code = foldCodeUnit(code)
		}

		p := b + int32(code) + 1
		if p < 0 || int(p) >= len(c.check) || c.check[p] != b {
			return -1, false
		}
		b = c.base[p]
	}

	p := b
	if p < 0 || int(p) >= len(c.check) || c.check[p] != b {
		return -1, false
	}

	n := c.base[p]
	if n < 0 {
		return -n - 1, true
	}

	return -1, false
}

// ExactMatch returns the keyword index whose key equals key exactly
// (modulo case folding when IgnoreCase is set), or -1 if key is not in
// the dictionary. When key was inserted more than once, ExactMatch
// reports only the largest duplicate index — the -base encoding has
// room for one index per terminal slot. ExactMatch returns ErrNotBuilt
// if the automaton was never returned by Build or Load.
func (a *Automaton[V]) ExactMatch(key string) (int, error) {
	if !a.built {
		return -1, ErrNotBuilt
	}
	units := utf16.Encode([]rune(key))
	idx, ok := a.c.exactMatch(units)
	if !ok {
		return -1, nil
	}
	return int(idx), nil
}

// Value returns the value associated with key, and whether key was
// found and the automaton carries values at all. Value returns
// ErrNotBuilt if the automaton was never returned by Build or Load.
func (a *Automaton[V]) Value(key string) (V, bool, error) {
	var zero V
	if !a.built {
		return zero, false, ErrNotBuilt
	}
	if !a.hasValues {
		return zero, false, nil
	}
	idx, err := a.ExactMatch(key)
	if err != nil {
		return zero, false, err
	}
	if idx < 0 {
		return zero, false, nil
	}
	return a.v[idx], true, nil
}
