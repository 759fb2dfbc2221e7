// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package errors defines typed errors with categories for user-friendly reporting.
// Every failure the connector layer can raise carries a machine-readable Kind so
// callers can decide whether to retry, abort the batch, or stop the session
// without string matching on driver messages.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// and works with the standard errors.Is / errors.As helpers through Unwrap.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// ConnectionFailed indicates engine-level network or session setup failure.
	ConnectionFailed Kind = "connection_failed"
	// NotConnected indicates a cursor was requested from a closed backend.
	NotConnected Kind = "not_connected"
	// AuthenticationFailed indicates temporary credentials could not be derived.
	AuthenticationFailed Kind = "authentication_failed"
	// StatementFailed indicates a single statement failed to execute.
	StatementFailed Kind = "statement_failed"
	// MetadataDiscoveryFailed indicates a completion refresh query failed.
	MetadataDiscoveryFailed Kind = "metadata_discovery_failed"
	// ConfigInvalid indicates the loaded configuration cannot be used.
	ConfigInvalid Kind = "config_invalid"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// Is reports whether any error in err's chain is an *E of the given kind.
func Is(err error, kind Kind) bool {
	var e *E
	for err != nil {
		if !stderrors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *E in err's chain, or "" when there is none.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
