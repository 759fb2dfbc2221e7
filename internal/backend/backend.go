// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package backend provides the query-engine connectors the CLI talks to.
// It defines the Backend contract every engine variant implements (connection
// lifecycle, cursors, metadata discovery, statistics and capability flags) and
// ships two variants: Amazon Athena, reached through the AWS API, and Amazon
// Redshift, reached over the Postgres wire protocol with optional IAM
// credentials.
//
// A Backend owns at most one live connection. Reconnecting builds the new
// connection first and closes the previous one only after the new one works,
// so a failed switch of database leaves the session usable.
package backend

import (
	"context"
	"iter"
)

// Kind names a supported engine.
type Kind string

const (
	KindAthena   Kind = "athena"
	KindRedshift Kind = "redshift"
)

// Names of optional features a backend may report through SupportsSpecialCommand.
const (
	// OutputLocation means cursors expose where the engine stored the result.
	OutputLocation = "output_location"
	// QueryCost means FormatStatistics reports scanned bytes and an approximate cost.
	QueryCost = "query_cost"
)

// Column is one (table, column) pair produced by TableColumns.
type Column struct {
	Table string
	Name  string
}

// Cursor executes one statement at a time and exposes its result.
type Cursor interface {
	// Execute runs query and buffers its result.
	Execute(ctx context.Context, query string) error
	// Description returns the column names of the last result, or nil when
	// the statement produced no result set (DDL, DML).
	Description() []string
	// FetchAll returns every remaining row of the last result.
	FetchAll(ctx context.Context) ([][]any, error)
	// Close releases the cursor. It is safe to call more than once.
	Close() error
}

// OutputLocator is implemented by cursors that know where the engine wrote the result.
type OutputLocator interface {
	OutputLocation() string
}

// ExecutionStats is implemented by cursors whose engine reports scan statistics.
type ExecutionStats interface {
	DataScannedBytes() int64
	ExecutionTimeMillis() int64
}

// Backend is the capability set every engine variant implements.
type Backend interface {
	// Kind reports which engine this backend talks to.
	Kind() Kind
	// Database returns the active database (schema) name.
	Database() string
	// Connect establishes or re-establishes the connection. An empty database
	// keeps the current one. Calling it with the active database while
	// connected is a no-op.
	Connect(ctx context.Context, database string) error
	// Close releases the connection. Closing a closed backend is a no-op.
	Close() error
	// Cursor returns a new cursor, or a not_connected error.
	Cursor() (Cursor, error)
	// Tables lazily yields the table identifiers of the active database.
	Tables(ctx context.Context) iter.Seq2[string, error]
	// TableColumns lazily yields (table, column) pairs ordered by table then
	// column position.
	TableColumns(ctx context.Context) iter.Seq2[Column, error]
	// Databases returns every database name, in the order the engine lists them.
	Databases(ctx context.Context) ([]string, error)
	// FormatStatistics returns a human-readable statistics suffix for the
	// last statement run on cur, or "" when the engine exposes none.
	FormatStatistics(cur Cursor) string
	// SupportsSpecialCommand reports whether an optional feature is available.
	SupportsSpecialCommand(name string) bool
	// PreQualifiedIdentifiers reports whether Tables already yields
	// schema-qualified display names that must not be escaped again.
	PreQualifiedIdentifiers() bool
}
