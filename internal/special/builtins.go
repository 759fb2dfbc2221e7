// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package special

import (
	"context"
	"fmt"
	"strings"

	"athenacli/cli/internal/backend"
	"athenacli/cli/internal/sqlexec"
)

// Hooks connects the built-in commands to the running session.
type Hooks struct {
	// Backend serves \l, \dt and use.
	Backend backend.Backend
	// DatabaseChanged runs after use switched databases.
	DatabaseChanged func(ctx context.Context, database string)
	// Refresh starts a completion refresh and returns its acknowledgement.
	Refresh func() string
}

// RegisterBuiltins adds the standard command catalog to r. \ol is only
// registered when the backend reports result locations.
func RegisterBuiltins(r *Registry, h Hooks) {
	r.Register(Command{
		Name: "help", Aliases: []string{`\?`}, Syntax: "help",
		Description: "Show this help.",
		Handler: func(context.Context, backend.Cursor, string) ([]sqlexec.Result, error) {
			return []sqlexec.Result{helpResult(r)}, nil
		},
	})
	r.Register(Command{
		Name: "exit", Aliases: []string{"quit", `\q`}, Syntax: "exit",
		Description: "Exit.",
		Handler: func(context.Context, backend.Cursor, string) ([]sqlexec.Result, error) {
			return nil, ErrExit
		},
	})
	r.Register(Command{
		Name: "use", Aliases: []string{`\u`}, Syntax: "use <database>",
		Description: "Change to a new database.",
		Handler: func(ctx context.Context, _ backend.Cursor, arg string) ([]sqlexec.Result, error) {
			return useDatabase(ctx, h, arg)
		},
	})
	r.Register(Command{
		Name: `\l`, Syntax: `\l`,
		Description: "List databases.",
		Handler: func(ctx context.Context, _ backend.Cursor, _ string) ([]sqlexec.Result, error) {
			dbs, err := h.Backend.Databases(ctx)
			if err != nil {
				return nil, err
			}
			return []sqlexec.Result{listResult("Databases", dbs)}, nil
		},
	})
	r.Register(Command{
		Name: `\dt`, Syntax: `\dt [prefix]`,
		Description: "List tables, optionally filtered by prefix.",
		Handler: func(ctx context.Context, _ backend.Cursor, arg string) ([]sqlexec.Result, error) {
			return listTables(ctx, h.Backend, arg)
		},
	})
	r.Register(Command{
		Name: `\x`, Syntax: `\x`,
		Description: "Toggle expanded output.",
		Handler: func(context.Context, backend.Cursor, string) ([]sqlexec.Result, error) {
			return []sqlexec.Result{{Status: "Expanded display is " + onOff(r.ToggleExpanded()) + "."}}, nil
		},
	})
	r.Register(Command{
		Name: `\timing`, Aliases: []string{`\t`}, Syntax: `\timing`,
		Description: "Toggle timing of statements.",
		Handler: func(context.Context, backend.Cursor, string) ([]sqlexec.Result, error) {
			return []sqlexec.Result{{Status: "Timing is " + onOff(r.ToggleTiming()) + "."}}, nil
		},
	})
	r.Register(Command{
		Name: "rehash", Aliases: []string{`\#`}, Syntax: "rehash",
		Description: "Refresh auto-completions.",
		Handler: func(context.Context, backend.Cursor, string) ([]sqlexec.Result, error) {
			msg := "Auto-completion refresh is not available."
			if h.Refresh != nil {
				msg = h.Refresh()
			}
			return []sqlexec.Result{{Status: msg}}, nil
		},
	})
	if h.Backend != nil && h.Backend.SupportsSpecialCommand(backend.OutputLocation) {
		r.Register(Command{
			Name: `\ol`, Syntax: `\ol`,
			Description: "Show the storage location of the last query result.",
			Handler: func(context.Context, backend.Cursor, string) ([]sqlexec.Result, error) {
				loc := r.OutputLocation()
				if loc == "" {
					loc = "No output location recorded yet."
				}
				return []sqlexec.Result{{Status: loc}}, nil
			},
		})
	}
}

func useDatabase(ctx context.Context, h Hooks, arg string) ([]sqlexec.Result, error) {
	db := strings.Trim(strings.TrimSpace(arg), "`\"")
	if db == "" {
		return []sqlexec.Result{{Status: "No database selected."}}, nil
	}
	if err := h.Backend.Connect(ctx, db); err != nil {
		return nil, err
	}
	if h.DatabaseChanged != nil {
		h.DatabaseChanged(ctx, h.Backend.Database())
	}
	return []sqlexec.Result{{Status: fmt.Sprintf("You are now connected to database %q", h.Backend.Database())}}, nil
}

func listTables(ctx context.Context, b backend.Backend, prefix string) ([]sqlexec.Result, error) {
	prefix = strings.ToLower(prefix)
	var names []string
	for name, err := range b.Tables(ctx) {
		if err != nil {
			return nil, err
		}
		if prefix == "" || strings.HasPrefix(strings.ToLower(name), prefix) {
			names = append(names, name)
		}
	}
	return []sqlexec.Result{listResult("Tables", names)}, nil
}

func listResult(header string, names []string) sqlexec.Result {
	rows := make([][]any, len(names))
	for i, n := range names {
		rows[i] = []any{n}
	}
	return sqlexec.Result{Headers: []string{header}, Rows: rows, Status: sqlexec.Status(len(rows))}
}

func helpResult(r *Registry) sqlexec.Result {
	var rows [][]any
	for _, c := range r.Commands() {
		if c.Hidden {
			continue
		}
		rows = append(rows, []any{c.Name, strings.Join(c.Aliases, ", "), c.Description})
	}
	return sqlexec.Result{Headers: []string{"Command", "Shortcut", "Description"}, Rows: rows}
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
