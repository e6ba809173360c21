// Package commands contains CLI command implementations for the application.
package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	headerColor  = color.New(color.Bold)
)

// printSuccess writes a green check line.
func printSuccess(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, "✓ "+format+"\n", args...)
}

// printWarn writes a yellow warning line.
func printWarn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, "! "+format+"\n", args...)
}

// printError writes a red failure line.
func printError(w io.Writer, format string, args ...any) {
	errorColor.Fprintf(w, "✗ "+format+"\n", args...)
}

// printHeader writes a bold section line.
func printHeader(w io.Writer, format string, args ...any) {
	headerColor.Fprintf(w, format+"\n", args...)
}

// printField writes an aligned key/value line.
func printField(w io.Writer, name string, value any) {
	fmt.Fprintf(w, "  %-14s %v\n", name+":", value)
}
