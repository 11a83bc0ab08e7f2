// Command ember is the optional CLI shell spec.md §1 calls out as a
// Non-goal for the core ("a full CLI/REPL"): it reads a script from the
// first argument, evaluates it through internal/interp, and prints the
// resulting value or a diagnostic.
//
// Grounded on the teacher's own entry point
// (_examples/funvibe-funxy/cmd/funxy/main.go's "read file, run pipeline,
// report errors" shape), trimmed to Ember's much smaller surface: no
// backend flag, no LSP, no module loader walking a filesystem tree — just
// build_module/eval (spec.md §6) plus an optional on-disk cache and an
// optional ember.yaml next to the script (internal/config).
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/emberlang/ember/internal/config"
	"github.com/emberlang/ember/internal/interp"
	"github.com/emberlang/ember/internal/modcache"
	"github.com/emberlang/ember/internal/types"
	"github.com/emberlang/ember/internal/value"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: ember <script.ember>")
		os.Exit(2)
	}
	if err := run(os.Args[1]); err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func run(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load(filepath.Join(filepath.Dir(path), "ember.yaml"))
	if err != nil {
		return err
	}

	opts := interp.Options{Optimize: cfg.Optimize, StrictTypes: cfg.StrictTypes}
	if cfg.CacheDir != "" {
		cache, err := modcache.Open(filepath.Join(cfg.CacheDir, "ember-cache.db"))
		if err != nil {
			return err
		}
		defer cache.Close()
		opts.Cache = cache
	}

	it := interp.New(opts)
	mod, err := it.BuildModule(filepath.Base(path), string(source))
	if err != nil {
		return err
	}
	result, err := it.Machine.Call(mod.Entry, nil)
	if err != nil {
		return err
	}
	fmt.Println(formatValue(result))
	return nil
}

// formatValue renders a Value the way a REPL echo would (spec.md has no
// required textual representation for values; this is purely the CLI
// shell's concern, not the core's).
func formatValue(v value.Value) string {
	switch v.Type.Tag {
	case types.Void:
		return "void"
	case types.Bool:
		return fmt.Sprintf("%t", v.AsBool())
	case types.Byte:
		return fmt.Sprintf("%d", v.AsByte())
	case types.Char:
		return fmt.Sprintf("%q", v.AsChar())
	case types.Int32:
		return fmt.Sprintf("%d", v.AsInt32())
	case types.Int64:
		return fmt.Sprintf("%d", v.AsInt64())
	case types.Float32:
		return fmt.Sprintf("%g", v.AsFloat32())
	case types.Float64:
		return fmt.Sprintf("%g", v.AsFloat64())
	case types.String:
		return fmt.Sprintf("%q", v.AsString())
	case types.Tuple:
		parts := make([]string, len(v.Items))
		for i, it := range v.Items {
			parts[i] = formatValue(it)
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case types.List:
		parts := make([]string, len(v.AsList()))
		for i, it := range v.AsList() {
			parts[i] = formatValue(it)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case types.Function:
		return "<function>"
	default:
		return "<?>"
	}
}

// reportError prints err, colorizing a caret-annotated diagnostic's first
// line only when stderr is a real terminal (spec.md's own error types
// already embed the caret snippet via token.Pos.Caret; this just decides
// whether it's worth spending ANSI codes on it).
func reportError(err error) {
	msg := err.Error()
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		fmt.Fprintln(os.Stderr, msg)
		return
	}
	lines := strings.SplitN(msg, "\n", 2)
	fmt.Fprintf(os.Stderr, "\033[31m%s\033[0m", lines[0])
	if len(lines) > 1 {
		fmt.Fprintf(os.Stderr, "\n%s", lines[1])
	}
	fmt.Fprintln(os.Stderr)
}
