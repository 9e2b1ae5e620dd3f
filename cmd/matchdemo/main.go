// Command matchdemo loads a keyword dictionary, builds or loads an
// Automaton, and reports every match in an input text. It doubles as a
// home for the package's supporting dependencies (pflag, hujson
// config, YAML/UTF-16 dictionaries, colorized output, atomic
// persistence) to run end to end.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"unicode/utf16"

	"github.com/fatih/color"
	pflag "github.com/spf13/pflag"

	"github.com/itgcl/multimatch"
	"github.com/itgcl/multimatch/config"
	"github.com/itgcl/multimatch/internal/dictparse"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	flags := pflag.NewFlagSet("matchdemo", pflag.ContinueOnError)
	flags.SetOutput(stderr)

	configPath := flags.StringP("config", "c", "", "path to a JSONC config file")
	dictPath := flags.StringP("dict", "d", "", "dictionary file (.yaml, or key<TAB>value text)")
	textPath := flags.StringP("text", "t", "", "text file to scan (defaults to stdin)")
	ignoreCase := flags.BoolP("ignore-case", "i", false, "case-insensitive matching")
	savePath := flags.String("save", "", "save the compiled automaton here instead of scanning")
	loadPath := flags.String("load", "", "load a compiled automaton from here instead of building one")
	firstOnly := flags.Bool("first", false, "stop at the first match")

	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if flags.Changed("ignore-case") {
		cfg.IgnoreCase = *ignoreCase
	}

	automaton, exitCode := buildOrLoad(cfg, *dictPath, *loadPath, stderr)
	if automaton == nil {
		return exitCode
	}

	if *savePath != "" {
		if err := automaton.SaveFile(*savePath, cfg.SaveValues); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		fmt.Fprintf(stdout, "saved %d keywords to %s\n", automaton.Count(), *savePath)
		return 0
	}

	text, err := readInput(*textPath, stdin)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	return scanAndReport(automaton, text, *firstOnly, stdout, stderr)
}

func buildOrLoad(cfg config.AutomatonConfig, dictPath, loadPath string, stderr io.Writer) (*multimatch.Automaton[string], int) {
	if loadPath != "" {
		a, err := multimatch.LoadFile[string](loadPath)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return nil, 1
		}
		return a, 0
	}

	path := dictPath
	if path == "" {
		path = cfg.DictionaryPath
	}
	if path == "" {
		fmt.Fprintln(stderr, "matchdemo: one of --dict, --load, or a config dictionary_path is required")
		return nil, 2
	}

	entries, err := dictparse.Load(path)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, 1
	}

	kvs := make([]multimatch.KV[string], len(entries))
	for i, e := range entries {
		kvs[i] = multimatch.KV[string]{Key: e.Key, Value: e.Value}
	}

	a, err := multimatch.Build(kvs, cfg.IgnoreCase)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return nil, 1
	}
	return a, 0
}

func readInput(textPath string, stdin io.Reader) ([]byte, error) {
	if textPath != "" {
		return os.ReadFile(textPath) //nolint:gosec
	}
	return io.ReadAll(stdin)
}

func scanAndReport(automaton *multimatch.Automaton[string], text []byte, firstOnly bool, stdout, stderr io.Writer) int {
	units := utf16.Encode([]rune(string(text)))
	highlight := color.New(color.FgHiYellow, color.Bold).SprintFunc()

	out := bufio.NewWriter(stdout)
	defer func() { _ = out.Flush() }()

	printHit := func(h multimatch.Hit[string]) {
		matched := string(utf16.Decode(units[h.Begin:h.End]))
		fmt.Fprintf(out, "[%d,%d) %s", h.Begin, h.End, highlight(matched))
		if h.HasValue {
			fmt.Fprintf(out, " -> %s", h.Value)
		}
		fmt.Fprintln(out)
	}

	if firstOnly {
		hit, ok, err := automaton.FindFirst(string(text))
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		if ok {
			printHit(hit)
		}
		return 0
	}

	if err := automaton.ParseAll(string(text), printHit); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}
