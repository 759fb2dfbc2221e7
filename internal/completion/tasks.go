// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package completion

import (
	"context"

	"athenacli/cli/internal/backend"
)

// DefaultTasks returns the standard refresh tasks in execution order.
// specialNames supplies the meta-command vocabulary.
func DefaultTasks(specialNames func() []string) []Task {
	return []Task{
		{Name: "databases", Run: refreshDatabases},
		{Name: "schemata", Run: refreshSchemata},
		{Name: "tables", Run: refreshTables},
		{Name: "special_commands", Run: func(_ context.Context, idx *Index, _ Source) error {
			if specialNames != nil {
				idx.ExtendSpecialCommands(specialNames())
			}
			return nil
		}},
	}
}

func refreshDatabases(ctx context.Context, idx *Index, src Source) error {
	dbs, err := src.Databases(ctx)
	if err != nil {
		return err
	}
	idx.ExtendDatabases(dbs...)
	return nil
}

// refreshSchemata records the active database as both a schema and the
// namespace tables are filed under.
func refreshSchemata(_ context.Context, idx *Index, src Source) error {
	db := src.Database()
	idx.ExtendSchemata(db)
	idx.SetDBName(db)
	return nil
}

// refreshTables adds tables and then their columns. Backends that yield
// schema-qualified names get no further escaping. Column discovery is
// all-or-nothing: on failure the tables are kept and the error is returned
// for logging.
func refreshTables(ctx context.Context, idx *Index, src Source) error {
	escape := !src.PreQualifiedIdentifiers()

	var (
		names    []string
		tableErr error
	)
	for name, err := range src.Tables(ctx) {
		if err != nil {
			tableErr = err
			break
		}
		names = append(names, name)
	}
	idx.ExtendRelations(names, escape)
	if tableErr != nil {
		return tableErr
	}

	var cols []backend.Column
	for c, err := range src.TableColumns(ctx) {
		if err != nil {
			return err
		}
		cols = append(cols, c)
	}
	idx.ExtendColumns(cols, escape)
	return nil
}
