// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package completion

import (
	"maps"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"

	"athenacli/cli/internal/backend"
)

var plainIdentifier = regexp.MustCompile(`^[_a-z][_a-z0-9$]*$`)

// Escape quotes name unless it is a lower-case, non-reserved identifier.
func Escape(name string) string {
	if _, isReserved := reserved[name]; plainIdentifier.MatchString(name) && !isReserved {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// Index is the in-memory catalog of names offered for completion. Entries
// are only ever added or replaced.
type Index struct {
	mu        sync.RWMutex
	dbName    string
	databases []string
	schemata  []string
	tables    map[string]map[string][]string
	special   []string
	all       map[string]struct{}
}

// NewIndex returns an index seeded with SQL keywords.
func NewIndex() *Index {
	idx := &Index{
		tables: map[string]map[string][]string{},
		all:    make(map[string]struct{}, len(Keywords)),
	}
	for _, k := range Keywords {
		idx.all[k] = struct{}{}
	}
	return idx
}

// Clone returns a deep copy that can be extended without touching i.
func (i *Index) Clone() *Index {
	i.mu.RLock()
	defer i.mu.RUnlock()
	c := &Index{
		dbName:    i.dbName,
		databases: slices.Clone(i.databases),
		schemata:  slices.Clone(i.schemata),
		tables:    make(map[string]map[string][]string, len(i.tables)),
		special:   slices.Clone(i.special),
		all:       maps.Clone(i.all),
	}
	for db, tables := range i.tables {
		t := make(map[string][]string, len(tables))
		for name, cols := range tables {
			t[name] = slices.Clone(cols)
		}
		c.tables[db] = t
	}
	return c
}

// SetDBName records the database the tables below belong to.
func (i *Index) SetDBName(name string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.dbName = name
}

func (i *Index) DBName() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.dbName
}

// ExtendDatabases adds database names.
func (i *Index) ExtendDatabases(names ...string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, n := range names {
		if !slices.Contains(i.databases, n) {
			i.databases = append(i.databases, n)
		}
		i.all[n] = struct{}{}
	}
}

// ExtendSchemata registers schema as a table namespace.
func (i *Index) ExtendSchemata(schema string) {
	if schema == "" {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if !slices.Contains(i.schemata, schema) {
		i.schemata = append(i.schemata, schema)
	}
	if _, ok := i.tables[schema]; !ok {
		i.tables[schema] = map[string][]string{}
	}
	i.all[schema] = struct{}{}
}

// ExtendRelations adds table names under the current database. Names are
// escaped unless escape is false.
func (i *Index) ExtendRelations(names []string, escape bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	tables := i.dbTables()
	for _, n := range names {
		if escape {
			n = Escape(n)
		}
		if _, ok := tables[n]; !ok {
			tables[n] = []string{"*"}
		}
		i.all[n] = struct{}{}
	}
}

// ExtendColumns attaches columns to their tables under the current database.
func (i *Index) ExtendColumns(cols []backend.Column, escape bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	tables := i.dbTables()
	for _, c := range cols {
		table, name := c.Table, c.Name
		if escape {
			table, name = Escape(table), Escape(name)
		}
		existing, ok := tables[table]
		if !ok {
			existing = []string{"*"}
		}
		if !slices.Contains(existing, name) {
			existing = append(existing, name)
		}
		tables[table] = existing
		i.all[name] = struct{}{}
	}
}

// ExtendSpecialCommands adds meta-command names.
func (i *Index) ExtendSpecialCommands(names []string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, n := range names {
		if !slices.Contains(i.special, n) {
			i.special = append(i.special, n)
		}
	}
}

// must hold i.mu
func (i *Index) dbTables() map[string][]string {
	t, ok := i.tables[i.dbName]
	if !ok {
		t = map[string][]string{}
		i.tables[i.dbName] = t
	}
	return t
}

// Databases returns the known database names in discovery order.
func (i *Index) Databases() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]string(nil), i.databases...)
}

// Tables returns the sorted table names of the current database.
func (i *Index) Tables() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []string
	for t := range i.tables[i.dbName] {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Columns returns the columns of table in the current database, "*" first.
func (i *Index) Columns(table string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]string(nil), i.tables[i.dbName][table]...)
}

// SpecialCommands returns the registered meta-command names.
func (i *Index) SpecialCommands() []string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return append([]string(nil), i.special...)
}

// Complete returns every known name starting with prefix, compared
// case-insensitively and sorted. Prefixes starting with a backslash only
// match meta-commands.
func (i *Index) Complete(prefix string) []string {
	if prefix == "" {
		return nil
	}
	lower := strings.ToLower(prefix)
	i.mu.RLock()
	defer i.mu.RUnlock()

	seen := map[string]struct{}{}
	var out []string
	add := func(s string) {
		if _, dup := seen[s]; dup {
			return
		}
		if strings.HasPrefix(strings.ToLower(s), lower) {
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	for _, s := range i.special {
		add(s)
	}
	if !strings.HasPrefix(prefix, `\`) {
		for s := range i.all {
			add(s)
		}
	}
	sort.Strings(out)
	return out
}
