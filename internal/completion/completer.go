// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package completion

import (
	"sync/atomic"
	"unicode"
)

// Completer serves tab completion from the most recently published Index.
// It implements readline.AutoCompleter.
type Completer struct {
	current atomic.Pointer[Index]
}

// NewCompleter returns a Completer holding a keyword-only index.
func NewCompleter() *Completer {
	c := &Completer{}
	c.current.Store(NewIndex())
	return c
}

// Publish swaps in a finished index. It is meant as a Refresher callback.
func (c *Completer) Publish(idx *Index) {
	if idx != nil {
		c.current.Store(idx)
	}
}

// Index returns the index currently served.
func (c *Completer) Index() *Index { return c.current.Load() }

// Do returns completion suffixes for the word ending at pos and the length
// of that word.
func (c *Completer) Do(line []rune, pos int) ([][]rune, int) {
	if pos > len(line) {
		pos = len(line)
	}
	start := pos
	for start > 0 && isWordRune(line[start-1]) {
		start--
	}
	word := string(line[start:pos])
	if word == "" {
		return nil, 0
	}

	matches := c.Index().Complete(word)
	n := len([]rune(word))
	out := make([][]rune, 0, len(matches))
	for _, m := range matches {
		r := []rune(m)
		if len(r) <= n {
			continue
		}
		out = append(out, r[n:])
	}
	return out, n
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.' || r == '\\' || r == '$' || r == '"'
}
