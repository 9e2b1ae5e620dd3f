// Package config loads matchdemo's build/runtime options from a
// JSON-with-comments file, in the style of
// calvinalkan-agent-task/config.go: hujson.Standardize to strip
// comments/trailing commas, then a plain json.Unmarshal.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// AutomatonConfig holds the options matchdemo needs to build and run
// an Automaton: where the dictionary lives, how to fold case, and
// whether to persist values alongside the compiled automaton.
type AutomatonConfig struct {
	DictionaryPath string `json:"dictionary_path"` //nolint:tagliatelle
	IgnoreCase     bool   `json:"ignore_case"`      //nolint:tagliatelle
	SaveValues     bool   `json:"save_values"`      //nolint:tagliatelle
	Verbose        bool   `json:"verbose"`
}

// Default returns matchdemo's default configuration.
func Default() AutomatonConfig {
	return AutomatonConfig{
		SaveValues: true,
	}
}

var errConfigRead = errors.New("config: cannot read config file")

// Load reads and parses a JSON-with-comments config file at path,
// starting from Default() and overlaying whatever fields the file
// sets. A missing file is not an error: Load returns the defaults.
func Load(path string) (AutomatonConfig, error) {
	cfg := Default()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return AutomatonConfig{}, fmt.Errorf("%w: %s: %w", errConfigRead, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return AutomatonConfig{}, fmt.Errorf("config: invalid JSONC %s: %w", path, err)
	}

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return AutomatonConfig{}, fmt.Errorf("config: invalid JSON %s: %w", path, err)
	}

	return cfg, nil
}
