package logger

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Logger is the leveled CLI logger threaded through rv's commands and the
// executor. Verbosity comes from the --verbose and --debug flags; without
// either, only warnings and errors are shown. Secret values must never be
// passed as log arguments at any level.
type Logger struct {
	Verbose bool
	Debug   bool
}

// Infof reports command progress. Shown with --verbose or --debug.
func (l Logger) Infof(msg string, args ...any) {
	if l.Verbose || l.Debug {
		fmt.Fprintf(os.Stdout, color.GreenString("[info] ")+msg+"\n", args...)
	}
}

// Debugf reports internal detail (paths, resolution steps). Shown only
// with --debug.
func (l Logger) Debugf(msg string, args ...any) {
	if l.Debug {
		fmt.Fprintf(os.Stdout, color.CyanString("[debug] ")+msg+"\n", args...)
	}
}

// Warnf reports a recoverable problem. Always shown, on stderr.
func (l Logger) Warnf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, color.YellowString("[warn] ")+msg+"\n", args...)
}

// Errorf reports a failure. Always shown, on stderr.
func (l Logger) Errorf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, color.RedString("[error] ")+msg+"\n", args...)
}
