package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/docopt/docopt-go"
	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"github.com/superloach/liteexpr/pkg/liteexpr"
)

const Version = "0.2.0"

const usage = `liteexpr is a small expression language for embedding in host programs.

Usage:
  liteexpr [options] [FILE...]
  liteexpr -h | --help
  liteexpr --version

Options:
  -e, --eval=EXPR       Evaluate EXPR and print its result.
  -p, --print           Print the result of each file or of stdin.
  -i, --repl            Run as an interactive REPL.
  -s, --symbols=PATH    Preload bindings from a .json, .toml or .cbor file.
  -c, --config=PATH     Read settings from a TOML file.
  -o, --output=MODE     Print results as text, repr or json.
  --max-depth=N         Bound nested calls; negative removes the bound.
  --verbose             Log all interpreter debug information.
  --debug-lex           Log lexer output.
  --debug-parse         Log parser output.
  --dump                Dump the root scope after each evaluation.
  -h, --help            Print this help message and exit.
  --version             Print the version string and exit.

By default liteexpr interprets stdin, or starts a REPL when stdin is a
terminal. All files of one run share a single root scope:
  liteexpr defs.le main.le
  liteexpr -s grades.json -e 'grades.alice'
`

type options struct {
	files   []string
	eval    string
	print   bool
	repl    bool
	symbols string
	config  string
	output  string

	// nil unless --max-depth was given
	maxDepth *int

	verbose    bool
	debugLex   bool
	debugParse bool
	dump       bool
}

func parseOptions(argv []string, help func(error, string)) (*options, error) {
	p := &docopt.Parser{HelpHandler: help}
	opts, err := p.ParseArgs(usage, argv, "liteexpr v"+Version)
	if err != nil {
		return nil, err
	}

	o := &options{}
	o.files, _ = opts["FILE"].([]string)
	o.eval, _ = opts.String("--eval")
	o.print, _ = opts.Bool("--print")
	o.repl, _ = opts.Bool("--repl")
	o.symbols, _ = opts.String("--symbols")
	o.config, _ = opts.String("--config")
	o.output, _ = opts.String("--output")
	o.verbose, _ = opts.Bool("--verbose")
	o.debugLex, _ = opts.Bool("--debug-lex")
	o.debugParse, _ = opts.Bool("--debug-parse")
	o.dump, _ = opts.Bool("--dump")

	if _, given := opts["--max-depth"].(string); given {
		n, err := opts.Int("--max-depth")
		if err != nil {
			return nil, fmt.Errorf("--max-depth must be an integer: %w", err)
		}
		o.maxDepth = &n
	}

	if o.output != "" && !validOutput(o.output) {
		return nil, fmt.Errorf("unknown output mode %q, expected one of %s",
			o.output, strings.Join(outputModes, ", "))
	}
	return o, nil
}

// engine builds the execution environment, letting flags override cfg.
func (o *options) engine(cfg *Config) *liteexpr.Engine {
	eng := &liteexpr.Engine{
		FatalError: false,
		Debug: liteexpr.DebugConfig{
			Lex:   o.debugLex || o.verbose || cfg.Debug.Lex,
			Parse: o.debugParse || o.verbose || cfg.Debug.Parse,
			Dump:  o.dump || o.verbose || cfg.Debug.Dump,
		},
		MaxDepth: cfg.MaxDepth,
	}
	if o.maxDepth != nil {
		eng.MaxDepth = *o.maxDepth
	}
	if eng.Debug.Lex || eng.Debug.Parse || eng.Debug.Dump {
		eng.Logger = liteexpr.NewDebugLogger(os.Stderr)
	}
	return eng
}

func (o *options) outputMode(cfg *Config, fallback string) string {
	switch {
	case o.output != "":
		return o.output
	case cfg.Output != "":
		return cfg.Output
	}
	return fallback
}

// newContext creates a Context whose root scope starts with symbols bound.
func newContext(eng *liteexpr.Engine, symbols map[string]interface{}) (*liteexpr.Context, error) {
	ctx := eng.CreateContext()
	if len(symbols) == 0 {
		return ctx, nil
	}

	scope, err := liteexpr.NewSymbolTable(symbols, nil)
	if err != nil {
		return nil, err
	}
	ctx.Scope = scope
	return ctx, nil
}

func main() {
	opts, err := parseOptions(os.Args[1:], docopt.PrintHelpAndExit)
	if err != nil {
		liteexpr.LogErrf(liteexpr.ErrSystem, "%s", err)
	}

	cfg := &Config{}
	if opts.config != "" {
		if cfg, err = LoadConfig(opts.config); err != nil {
			liteexpr.LogErrf(liteexpr.ErrSystem, "%s", err)
		}
	}

	symbols := cfg.Symbols
	if opts.symbols != "" {
		fromFile, err := LoadSymbols(opts.symbols)
		if err != nil {
			liteexpr.LogErrf(liteexpr.ErrSystem, "%s", err)
		}
		symbols = mergeSymbols(cfg.Symbols, fromFile)
	}

	eng := opts.engine(cfg)
	ctx, err := newContext(eng, symbols)
	if err != nil {
		liteexpr.LogErrf(liteexpr.ErrSyntax, "invalid symbols: %s", err)
	}

	interactive := opts.repl ||
		(opts.eval == "" && len(opts.files) == 0 && isatty.IsTerminal(os.Stdin.Fd()))

	switch {
	case interactive:
		runRepl(ctx, opts.outputMode(cfg, "repr"))
	case opts.eval != "":
		eng.FatalError = true
		run(ctx, strings.NewReader(opts.eval), opts.outputMode(cfg, "text"), true)
	case len(opts.files) > 0:
		failed := false
		for _, filePath := range opts.files {
			// expand out ~ for $HOME, which is not done by shells
			if strings.HasPrefix(filePath, "~"+string(os.PathSeparator)) {
				filePath = filepath.Join(os.Getenv("HOME"), filePath[2:])
			}

			val, err := ctx.ExecPath(filePath)
			if err != nil {
				// later files still run against the shared scope
				ctx.LogErr(err)
				failed = true
				continue
			}
			if opts.print {
				printResult(os.Stdout, val, opts.outputMode(cfg, "text"))
			}
		}
		if failed {
			os.Exit(1)
		}
	default:
		eng.FatalError = true
		run(ctx, os.Stdin, opts.outputMode(cfg, "text"), opts.print)
	}
}

func run(ctx *liteexpr.Context, input io.Reader, mode string, show bool) {
	val, err := ctx.Exec(input)
	if err != nil {
		ctx.LogErr(err)
		return
	}
	if show {
		printResult(os.Stdout, val, mode)
	}
}

func printResult(w io.Writer, val liteexpr.Value, mode string) {
	out, err := formatResult(val, mode)
	if err != nil {
		liteexpr.LogSafeErr(liteexpr.ErrRuntime, err.Error())
		return
	}
	fmt.Fprintln(w, out)
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".liteexpr_history")
}

func runRepl(ctx *liteexpr.Context, mode string) {
	// add repl-specific builtins
	ctx.LoadFunc("CLEAR", 0, 0, func(ev *liteexpr.Evaluator, in []liteexpr.Value) (liteexpr.Value, error) {
		fmt.Print("\x1b[2J\x1b[H")
		return liteexpr.IntValue(0), nil
	})
	ctx.LoadFunc("DUMP", 0, 0, func(ev *liteexpr.Evaluator, in []liteexpr.Value) (liteexpr.Value, error) {
		liteexpr.LogInteractive(liteexpr.Repr(ev.Scope()))
		return liteexpr.IntValue(0), nil
	})

	cli := liner.NewLiner()
	defer cli.Close()
	cli.SetCtrlCAborts(true)

	history := historyPath()
	if history != "" {
		if f, err := os.Open(history); err == nil {
			cli.ReadHistory(f)
			f.Close()
		}
	}

	for {
		text, err := cli.Prompt("> ")
		if err == liner.ErrPromptAborted {
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			liteexpr.LogErrf(
				liteexpr.ErrSystem,
				"unexpected end of input:\n\t-> %s", err.Error(),
			)
		}

		if strings.TrimSpace(text) == "" {
			continue
		}
		cli.AppendHistory(text)

		// errors are shown and the session carries on with its scope intact
		val, err := ctx.Exec(strings.NewReader(text))
		if err != nil {
			ctx.LogErr(err)
			continue
		}
		out, err := formatResult(val, mode)
		if err != nil {
			liteexpr.LogSafeErr(liteexpr.ErrRuntime, err.Error())
			continue
		}
		liteexpr.LogInteractive(out)
	}

	if history != "" {
		if f, err := os.Create(history); err == nil {
			cli.WriteHistory(f)
			f.Close()
		}
	}
}
