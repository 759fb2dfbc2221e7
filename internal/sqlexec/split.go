// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import "strings"

// Split breaks text into statements at semicolons that sit outside quoted
// strings, quoted identifiers, dollar-quoted bodies and comments. Each statement keeps its
// terminating semicolon; blank fragments are dropped.
func Split(text string) []string {
	var (
		out   []string
		start int
		quote byte
	)
	n := len(text)
	for i := 0; i < n; i++ {
		c := text[i]
		if quote != 0 {
			if c == quote {
				// doubled quote is an escaped quote
				if i+1 < n && text[i+1] == quote {
					i++
					continue
				}
				quote = 0
			} else if c == '\\' && quote == '\'' && i+1 < n {
				i++
			}
			continue
		}

		switch {
		case c == '\'' || c == '"' || c == '`':
			quote = c
		case c == '$' && (i == 0 || !isIdentByte(text[i-1])):
			tag := dollarTag(text[i:])
			if tag == "" {
				continue
			}
			end := strings.Index(text[i+len(tag):], tag)
			if end < 0 {
				i = n
			} else {
				i += len(tag) + end + len(tag) - 1
			}
		case c == '-' && i+1 < n && text[i+1] == '-':
			for i < n && text[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && text[i+1] == '*':
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += end + 3
			}
		case c == ';':
			out = appendStatement(out, text[start:i+1])
			start = i + 1
		}
	}
	if start < n {
		out = appendStatement(out, text[start:])
	}
	return out
}

func appendStatement(out []string, s string) []string {
	s = strings.TrimSpace(s)
	if s == "" || s == ";" {
		return out
	}
	return append(out, s)
}

// dollarTag returns the opening $tag$ or $$ at the start of s, or "".
func dollarTag(s string) string {
	for j := 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '$':
			return s[:j+1]
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && j > 1:
		default:
			return ""
		}
	}
	return ""
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
