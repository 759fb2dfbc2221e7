// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package sqlexec turns raw multi-statement input into an ordered sequence of
// normalized results.
//
// Input is split into statements with a quote- and comment-aware splitter.
// Each statement is offered to the meta-command dispatcher first; statements
// it does not recognise run as SQL on a fresh backend cursor. Execution stops
// at the first failing statement of a batch.
//
// A statement ending in \G switches the display layer to expanded output
// before it runs.
package sqlexec

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"athenacli/cli/internal/backend"
	clierrors "athenacli/cli/internal/errors"
)

// ExpandedMarker is the statement suffix that requests vertical output.
const ExpandedMarker = `\G`

// Engine is the part of a backend the executor needs.
type Engine interface {
	Cursor() (backend.Cursor, error)
	FormatStatistics(cur backend.Cursor) string
	SupportsSpecialCommand(name string) bool
}

// Commands dispatches meta-commands and owns the display flags they share
// with the executor.
type Commands interface {
	// Execute runs text as a meta-command. found is false when text is not
	// a registered command; the executor then runs it as SQL.
	Execute(ctx context.Context, cur backend.Cursor, text string) (results []Result, found bool, err error)
	SetExpanded(on bool)
	SetOutputLocation(location string)
}

// Executor runs statements against one backend.
type Executor struct {
	engine   Engine
	commands Commands
	logger   *zap.Logger
}

// New creates an Executor. commands may be nil, in which case every
// statement is treated as SQL.
func New(engine Engine, commands Commands, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{engine: engine, commands: commands, logger: logger}
}

// Run yields one or more results per statement of text, in source order.
// Blank input yields a single empty Result. The sequence ends after the first
// error.
func (e *Executor) Run(ctx context.Context, text string) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		text = strings.TrimSpace(text)
		if text == "" {
			yield(Result{}, nil)
			return
		}

		for _, stmt := range Split(text) {
			sql := strings.TrimSpace(strings.TrimRight(stmt, ";"))
			if strings.HasSuffix(sql, ExpandedMarker) {
				if e.commands != nil {
					e.commands.SetExpanded(true)
				}
				sql = strings.TrimSpace(strings.TrimSuffix(sql, ExpandedMarker))
			}
			if sql == "" {
				continue
			}

			results, err := e.runStatement(ctx, sql)
			if err != nil {
				e.logger.Debug("statement failed", zap.Error(err))
				yield(Result{}, err)
				return
			}
			for _, r := range results {
				if !yield(r, nil) {
					return
				}
			}
		}
	}
}

func (e *Executor) runStatement(ctx context.Context, sql string) ([]Result, error) {
	cur, err := e.engine.Cursor()
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	if e.commands != nil {
		results, found, err := e.commands.Execute(ctx, cur, sql)
		if found {
			return results, err
		}
	}

	e.logger.Debug("executing", zap.String("sql", sql))
	if err := cur.Execute(ctx, sql); err != nil {
		if clierrors.KindOf(err) == "" {
			err = clierrors.Wrap(clierrors.StatementFailed, "statement failed", err)
		}
		return nil, err
	}

	res, err := e.result(ctx, cur)
	if err != nil {
		return nil, err
	}
	return []Result{res}, nil
}

// result extracts the outcome of the statement that just ran on cur.
func (e *Executor) result(ctx context.Context, cur backend.Cursor) (Result, error) {
	if e.commands != nil && e.engine.SupportsSpecialCommand(backend.OutputLocation) {
		if loc, ok := cur.(backend.OutputLocator); ok {
			e.commands.SetOutputLocation(loc.OutputLocation())
		}
	}

	headers := cur.Description()
	if headers == nil {
		return Result{Status: Status(0) + e.engine.FormatStatistics(cur)}, nil
	}

	rows, err := cur.FetchAll(ctx)
	if err != nil {
		return Result{}, clierrors.Wrap(clierrors.StatementFailed, "could not fetch rows", err)
	}
	if rows == nil {
		rows = [][]any{}
	}
	return Result{
		Rows:    rows,
		Headers: headers,
		Status:  Status(len(rows)) + e.engine.FormatStatistics(cur),
	}, nil
}

// Status renders the row-count part of a result status.
func Status(rows int) string {
	if rows <= 0 {
		return "Query OK"
	}
	if rows == 1 {
		return "1 row in set"
	}
	return fmt.Sprintf("%d rows in set", rows)
}
