// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	clierrors "athenacli/cli/internal/errors"
)

// redshiftCursor holds the session connection only for the duration of
// Execute, so metadata queries can run between statements.
type redshiftCursor struct {
	pool    *pgxpool.Pool
	columns []string
	rows    [][]any
	tag     pgconn.CommandTag
	closed  bool
}

func (c *redshiftCursor) Execute(ctx context.Context, query string) error {
	if c.closed {
		return clierrors.New(clierrors.NotConnected, "cursor is closed")
	}
	c.columns, c.rows = nil, nil

	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return clierrors.Wrap(clierrors.ConnectionFailed, "could not acquire connection", err)
	}
	defer conn.Release()

	rows, err := conn.Query(ctx, query)
	if err != nil {
		return clierrors.Wrap(clierrors.StatementFailed, "statement failed", err)
	}
	defer rows.Close()

	fds := rows.FieldDescriptions()
	if len(fds) > 0 {
		c.columns = make([]string, len(fds))
		for i, fd := range fds {
			c.columns[i] = fd.Name
		}
	}
	for rows.Next() {
		if c.columns == nil {
			continue
		}
		vals, err := rows.Values()
		if err != nil {
			return clierrors.Wrap(clierrors.StatementFailed, "could not decode row", err)
		}
		c.rows = append(c.rows, vals)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		c.columns, c.rows = nil, nil
		return clierrors.Wrap(clierrors.StatementFailed, "statement failed", err)
	}
	c.tag = rows.CommandTag()
	return nil
}

func (c *redshiftCursor) Description() []string { return c.columns }

func (c *redshiftCursor) FetchAll(context.Context) ([][]any, error) {
	rows := c.rows
	c.rows = nil
	return rows, nil
}

// RowsAffected reports the row count of the last command tag.
func (c *redshiftCursor) RowsAffected() int64 { return c.tag.RowsAffected() }

func (c *redshiftCursor) Close() error {
	c.closed = true
	c.rows = nil
	return nil
}
