// Package dictparse loads keyword/value dictionaries for matchdemo
// from two sources: a YAML list (ordered, for reproducible packing)
// and a plain-text, possibly UTF-16-encoded file of "key<TAB>value"
// lines. The automaton itself matches UTF-16 code units, so a
// dictionary authored in UTF-16 is a realistic input, not a
// hypothetical one.
package dictparse

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// Entry is one dictionary row: a keyword and its associated value,
// both kept as strings — matchdemo builds an Automaton[string] and
// uses the value as-is (see cmd/matchdemo).
type Entry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// LoadYAML reads a YAML sequence of {key, value} entries. A mapping
// (map[string]string) is deliberately not supported: Go map iteration
// order is randomized, and the packer requires deterministic input
// order to produce byte-identical packed arrays across builds.
func LoadYAML(path string) ([]Entry, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dictparse: reading %s: %w", path, err)
	}

	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("dictparse: parsing %s: %w", path, err)
	}

	return entries, nil
}

// LoadText reads a line-oriented dictionary file: one "key<TAB>value"
// (or bare "key", value defaulting to "") per line, blank lines and
// lines starting with '#' ignored. The file's encoding is sniffed from
// its byte-order mark via golang.org/x/text/encoding/unicode, falling
// back to UTF-8 when no BOM is present, so UTF-16LE/BE dictionaries
// load without the caller pre-converting them.
func LoadText(path string) ([]Entry, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dictparse: opening %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(f, decoder))

	var entries []Entry
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, _ := strings.Cut(line, "\t")
		entries = append(entries, Entry{Key: key, Value: value})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("dictparse: reading %s: %w", path, err)
	}

	return entries, nil
}

// Load picks LoadYAML or LoadText based on path's extension.
func Load(path string) ([]Entry, error) {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return LoadYAML(path)
	}
	return LoadText(path)
}
