// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dsn

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Scheme identifies the DSN flavour.
type Scheme string

const (
	SchemeRedshift Scheme = "redshift"
	SchemePostgres Scheme = "postgres"
	SchemeUnknown  Scheme = "unknown"
)

// Defaults applied when the DSN omits them.
const (
	DefaultPort     = 5439
	DefaultDatabase = "dev"
)

const redactedPassword = "****"

// Info is a parsed cluster DSN.
type Info struct {
	Scheme   Scheme
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Params   map[string]string
	Original string
}

// SSLMode returns the sslmode parameter, or "" when absent.
func (i *Info) SSLMode() string { return i.Params["sslmode"] }

// String renders the DSN with every component URL-encoded.
func (i *Info) String() string { return i.render(i.Password) }

// Redacted renders the DSN with the password replaced by asterisks.
func (i *Info) Redacted() string {
	if i.Password == "" {
		return i.render("")
	}
	return i.render(redactedPassword)
}

func (i *Info) render(password string) string {
	var b strings.Builder
	b.WriteString(string(i.Scheme))
	b.WriteString("://")
	switch {
	case i.User != "" && password == redactedPassword:
		b.WriteString(url.User(i.User).String())
		b.WriteString(":" + redactedPassword + "@")
	case i.User != "" && password != "":
		b.WriteString(url.UserPassword(i.User, password).String())
		b.WriteString("@")
	case i.User != "":
		b.WriteString(url.User(i.User).String())
		b.WriteString("@")
	}
	b.WriteString(net.JoinHostPort(i.Host, strconv.Itoa(i.Port)))
	b.WriteString("/")
	b.WriteString(url.PathEscape(i.Database))

	if len(i.Params) > 0 {
		keys := make([]string, 0, len(i.Params))
		for k := range i.Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for n, k := range keys {
			if n == 0 {
				b.WriteString("?")
			} else {
				b.WriteString("&")
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteString("=")
			b.WriteString(url.QueryEscape(i.Params[k]))
		}
	}
	return b.String()
}

// ParseError reports a malformed DSN with an optional hint.
type ParseError struct {
	DSN    string
	Reason string
	Hint   string
}

func (e *ParseError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("invalid DSN format: %s\nHint: %s", e.Reason, e.Hint)
	}
	return fmt.Sprintf("invalid DSN format: %s", e.Reason)
}

// NewParseError creates a new ParseError
func NewParseError(dsn, reason, hint string) *ParseError {
	return &ParseError{
		DSN:    dsn,
		Reason: reason,
		Hint:   hint,
	}
}
