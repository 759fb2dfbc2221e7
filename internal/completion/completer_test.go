// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package completion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"athenacli/cli/internal/backend"
)

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "orders", want: "orders"},
		{in: "_tmp$1", want: "_tmp$1"},
		{in: "Orders", want: `"Orders"`},
		{in: "order items", want: `"order items"`},
		{in: "select", want: `"select"`},
		{in: `we"ird`, want: `"we""ird"`},
		{in: "1table", want: `"1table"`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestIndexComplete(t *testing.T) {
	idx := NewIndex()
	idx.SetDBName("sales")
	idx.ExtendRelations([]string{"orders", "order_items"}, true)
	idx.ExtendColumns([]backend.Column{{Table: "orders", Name: "ordinal"}}, true)
	idx.ExtendSpecialCommands([]string{`\dt`, `\di`, "rehash"})

	assert.Equal(t, []string{"ORDER", "order_items", "orders", "ordinal"}, idx.Complete("ord"))
	assert.Equal(t, []string{`\di`, `\dt`}, idx.Complete(`\d`))
	assert.Equal(t, []string{"rehash"}, idx.Complete("reh"))
	assert.Nil(t, idx.Complete(""))
}

func TestCompleterDo(t *testing.T) {
	c := NewCompleter()
	idx := NewIndex()
	idx.SetDBName("dev")
	idx.ExtendRelations([]string{"public.orders", "public.users"}, false)
	c.Publish(idx)

	line := []rune("select * from public.o")
	got, n := c.Do(line, len(line))
	assert.Equal(t, len("public.o"), n)
	assert.Equal(t, [][]rune{[]rune("rders")}, got)

	got, n = c.Do([]rune("select  "), 8)
	assert.Nil(t, got)
	assert.Equal(t, 0, n)
}

func TestCompleterPublishIgnoresNil(t *testing.T) {
	c := NewCompleter()
	before := c.Index()
	c.Publish(nil)
	assert.Same(t, before, c.Index())
}

func TestIndexClone(t *testing.T) {
	idx := NewIndex()
	idx.SetDBName("sales")
	idx.ExtendDatabases("sales")
	idx.ExtendColumns([]backend.Column{{Table: "orders", Name: "id"}}, false)

	c := idx.Clone()
	c.ExtendDatabases("staging")
	c.ExtendColumns([]backend.Column{{Table: "orders", Name: "total"}}, false)
	c.ExtendSpecialCommands([]string{`\dt`})

	assert.Equal(t, []string{"sales"}, idx.Databases())
	assert.Equal(t, []string{"*", "id"}, idx.Columns("orders"))
	assert.Empty(t, idx.SpecialCommands())
	assert.Empty(t, idx.Complete("stag"))

	assert.Equal(t, "sales", c.DBName())
	assert.Equal(t, []string{"sales", "staging"}, c.Databases())
	assert.Equal(t, []string{"*", "id", "total"}, c.Columns("orders"))
}
