package vcengine

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// verboseColor reports whether progress lines should carry ANSI color,
// gated on stderr actually being a terminal rather than a redirected file
// or pipe (a driver piping a batch run's output into a log should see
// plain text).
var verboseColor = isatty.IsTerminal(os.Stderr.Fd())

const (
	ansiDim   = "\x1b[2m"
	ansiReset = "\x1b[0m"
)

// logProgress writes a Transform/RunBatch progress line to stderr when cfg
// enables it (Config.Verbose), dimmed when attached to a terminal.
func (e *Engine) logProgress(format string, args ...interface{}) {
	if !e.cfg.Verbose {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if verboseColor {
		fmt.Fprintf(os.Stderr, "%s[vcengine %s]%s %s\n", ansiDim, e.namespace[:8], ansiReset, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "[vcengine %s] %s\n", e.namespace[:8], msg)
}
