package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

var cliLog = log.New(io.Discard)

// InitLogger writes to the configured log file, or stderr when it cannot be
// opened. verbose enables debug output.
func InitLogger(verbose bool) {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	var out io.Writer = os.Stderr
	if f, err := os.OpenFile(GetString("log.file"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600); err == nil {
		out = f
	}
	cliLog = log.NewWithOptions(out, log.Options{Level: level, ReportTimestamp: true, Prefix: "echoes"})
}

// Logger returns the CLI logger.
func Logger() *log.Logger {
	return cliLog
}
