// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package completion

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"athenacli/cli/internal/backend"
)

func TestRefreshTables_PreQualified(t *testing.T) {
	src := &fakeSource{
		db:     "dev",
		pre:    true,
		tables: []string{"public.a", "public.b"},
		cols: []backend.Column{
			{Table: "public.a", Name: "id"},
			{Table: "public.b", Name: "Name"},
		},
	}
	idx := NewIndex()
	idx.SetDBName("dev")

	require.NoError(t, refreshTables(context.Background(), idx, src))
	assert.Equal(t, []string{"public.a", "public.b"}, idx.Tables())
	assert.Equal(t, []string{"*", "id"}, idx.Columns("public.a"))
	assert.Equal(t, []string{"*", "Name"}, idx.Columns("public.b"))
}

func TestRefreshTables_BareIdentifiers(t *testing.T) {
	src := &fakeSource{
		db:     "sales",
		tables: []string{"orders", "Order Items", "select"},
		cols:   []backend.Column{{Table: "Order Items", Name: "qty"}},
	}
	idx := NewIndex()
	idx.SetDBName("sales")

	require.NoError(t, refreshTables(context.Background(), idx, src))
	assert.Equal(t, []string{`"Order Items"`, `"select"`, "orders"}, idx.Tables())
	assert.Equal(t, []string{"*", "qty"}, idx.Columns(`"Order Items"`))
}

func TestRefreshTables_ColumnFailureKeepsTables(t *testing.T) {
	src := &fakeSource{
		db:     "sales",
		tables: []string{"orders"},
		cols:   []backend.Column{{Table: "orders", Name: "id"}},
		colErr: errors.New("timeout"),
	}
	idx := NewIndex()
	idx.SetDBName("sales")

	err := refreshTables(context.Background(), idx, src)
	require.Error(t, err)
	assert.Equal(t, []string{"orders"}, idx.Tables())
	assert.Equal(t, []string{"*"}, idx.Columns("orders"))
}

func TestRefreshTables_TableFailureKeepsPartialList(t *testing.T) {
	src := &fakeSource{db: "sales", tables: []string{"orders"}, tablesErr: errors.New("reset")}
	idx := NewIndex()

	assert.Error(t, refreshTables(context.Background(), idx, src))
	assert.Equal(t, []string{"orders"}, idx.Tables())
}

func TestRefreshSchemata(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, refreshSchemata(context.Background(), idx, &fakeSource{db: "analytics"}))
	assert.Equal(t, "analytics", idx.DBName())
	assert.Contains(t, idx.Complete("analy"), "analytics")
}

func TestRefreshDatabases_PreservesOrder(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, refreshDatabases(context.Background(), idx, &fakeSource{dbs: []string{"zeta", "alpha"}}))
	assert.Equal(t, []string{"zeta", "alpha"}, idx.Databases())

	empty := NewIndex()
	require.NoError(t, refreshDatabases(context.Background(), empty, &fakeSource{}))
	assert.Empty(t, empty.Databases())
}
