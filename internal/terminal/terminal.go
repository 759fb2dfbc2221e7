// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package terminal provides helpers for the interactive terminal: tty
// detection, sizing and a transient activity indicator.
package terminal

import (
	"fmt"
	"io"
	"math"
	"os"

	"golang.org/x/term"
)

// DefaultWidth is used when the terminal size cannot be determined.
const DefaultWidth = 80

// IsInteractive reports whether f is attached to a terminal.
func IsInteractive(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// Width returns the width of the terminal on f, or DefaultWidth.
func Width(f *os.File) int {
	if f != nil {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultWidth
}

// LinesFor returns how many terminal rows text of textLength characters
// occupies at the given width.
func LinesFor(textLength, width int) int {
	if width <= 0 {
		width = DefaultWidth
	}
	n := int(math.Ceil(float64(textLength) / float64(width)))
	return max(n, 1)
}

// ClearPreviousLines erases text that was echoed to w, such as a prompt and
// the answer typed into it. One extra line is cleared for the newline the
// user entered.
func ClearPreviousLines(w io.Writer, textLength, width int) {
	linesToClear := LinesFor(textLength, width) + 1
	for i := 0; i < linesToClear; i++ {
		fmt.Fprint(w, "\r\x1b[2K")
		if i < linesToClear-1 {
			fmt.Fprint(w, "\x1b[1A")
		}
	}
}
