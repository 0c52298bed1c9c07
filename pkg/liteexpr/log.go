package liteexpr

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

const (
	ANSI_RESET       = "\x1b[0;0m"
	ANSI_BLUE        = "\x1b[34;22m"
	ANSI_GREEN       = "\x1b[32;22m"
	ANSI_YELLOW      = "\x1b[33;22m"
	ANSI_RED         = "\x1b[31;22m"
	ANSI_BLUE_BOLD   = "\x1b[34;1m"
	ANSI_GREEN_BOLD  = "\x1b[32;1m"
	ANSI_YELLOW_BOLD = "\x1b[33;1m"
	ANSI_RED_BOLD    = "\x1b[31;1m"
)

// NewDebugLogger returns a human-readable zerolog logger writing to w at
// debug level, suitable for Engine.Logger.
func NewDebugLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: !colorEnabled(w)}).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()
}

func colorEnabled(w io.Writer) bool {
	f, isFile := w.(*os.File)
	return isFile && isatty.IsTerminal(f.Fd()) && os.Getenv("NO_COLOR") == ""
}

func LogInteractive(args ...string) {
	fmt.Println(ANSI_GREEN + strings.Join(args, " ") + ANSI_RESET)
}

func LogInteractivef(s string, args ...interface{}) {
	LogInteractive(fmt.Sprintf(s, args...))
}

func reasonName(reason int) string {
	switch reason {
	case ErrSyntax:
		return "syntax error"
	case ErrRuntime:
		return "runtime error"
	case ErrSystem:
		return "system error"
	case ErrAssert:
		return "invariant violation"
	default:
		return "error"
	}
}

func LogSafeErr(reason int, args ...string) {
	fmt.Fprintln(os.Stderr, ANSI_RED_BOLD+reasonName(reason)+": "+ANSI_RED+strings.Join(args, " ")+ANSI_RESET)
}

func LogErr(reason int, args ...string) {
	LogSafeErr(reason, args...)
	os.Exit(reason)
}

func LogErrf(reason int, s string, args ...interface{}) {
	LogErr(reason, fmt.Sprintf(s, args...))
}
