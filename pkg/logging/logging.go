// Package logging wraps github.com/charmbracelet/log with a small,
// consistent call shape: package-level Debug/Info/Warn/Error/Fatal, plus
// a startup Banner and Section for readable log output.
package logging

import (
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
)

// Logger is a component-scoped leveled logger.
type Logger = charmlog.Logger

var root = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: true,
	TimeFormat:      "15:04:05",
})

// SetLevel sets the minimum level on the root logger and every logger
// derived from it going forward.
func SetLevel(level charmlog.Level) {
	root.SetLevel(level)
}

// Scoped returns a logger prefixed with component, the way
// pkg/logger's package-level functions were implicitly scoped to the
// whole process; here each package (socket, netobject, runtime) gets its
// own prefix.
func Scoped(component string) *Logger {
	return root.WithPrefix(component)
}

// Debug logs at debug level on the root logger.
func Debug(msg string, keyvals ...interface{}) { root.Debug(msg, keyvals...) }

// Info logs at info level on the root logger.
func Info(msg string, keyvals ...interface{}) { root.Info(msg, keyvals...) }

// Warn logs at warn level on the root logger.
func Warn(msg string, keyvals ...interface{}) { root.Warn(msg, keyvals...) }

// Error logs at error level on the root logger.
func Error(msg string, keyvals ...interface{}) { root.Error(msg, keyvals...) }

// Fatal logs at error level then exits 1.
func Fatal(msg string, keyvals ...interface{}) {
	root.Error(msg, keyvals...)
	os.Exit(1)
}

// Section prints a plain (non-logging) section header, kept from the
// teacher's pkg/logger for startup-sequence readability.
func Section(title string) {
	border := "═══════════════════════════════════════════════════════════"
	fmt.Printf("\n╔%s╗\n", border)
	fmt.Printf("║ %-57s ║\n", title)
	fmt.Printf("╚%s╝\n\n", border)
}

// Banner prints the application's startup banner.
func Banner(title, version string) {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                             ║
║   %-58s║
║   Version %-48s║
║                                                             ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, title, version)
}
