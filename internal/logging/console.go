package logging

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
	headingColor = color.New(color.FgCyan, color.Bold)
)

// Progress writes a plain operator progress line.
func Progress(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}

// Success writes a green progress line.
func Success(w io.Writer, format string, args ...any) {
	successColor.Fprintf(w, format+"\n", args...)
}

// Warn writes a yellow progress line.
func Warn(w io.Writer, format string, args ...any) {
	warnColor.Fprintf(w, format+"\n", args...)
}

// Failure writes a red progress line.
func Failure(w io.Writer, format string, args ...any) {
	failColor.Fprintf(w, format+"\n", args...)
}

// Heading writes a bold section heading.
func Heading(w io.Writer, format string, args ...any) {
	headingColor.Fprintf(w, format+"\n", args...)
}
