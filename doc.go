// Package multimatch implements a multi-pattern substring matcher: an
// Aho-Corasick automaton encoded as a double-array trie (DAT). Build a
// dictionary of (key, value) pairs once with Build, then scan text in
// a single linear pass with Parse/Collect/Matches/FindFirst, or look a
// key up directly as a perfect hash with ExactMatch.
//
// A built Automaton is immutable: concurrent scans and lookups need no
// external synchronization, but Build/Load must not race with readers
// of the object they are constructing.
package multimatch
