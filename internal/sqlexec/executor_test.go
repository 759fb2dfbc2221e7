// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package sqlexec

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"athenacli/cli/internal/backend"
	clierrors "athenacli/cli/internal/errors"
)

type fakeResult struct {
	cols []string
	rows [][]any
	err  error
}

type fakeEngine struct {
	results  map[string]fakeResult
	executed []string
	closed   int
	stats    string
	location bool
	cursErr  error
}

func (f *fakeEngine) Cursor() (backend.Cursor, error) {
	if f.cursErr != nil {
		return nil, f.cursErr
	}
	return &fakeCursor{engine: f}, nil
}

func (f *fakeEngine) FormatStatistics(backend.Cursor) string { return f.stats }

func (f *fakeEngine) SupportsSpecialCommand(name string) bool {
	return name == backend.OutputLocation && f.location
}

type fakeCursor struct {
	engine *fakeEngine
	last   fakeResult
	query  string
}

func (c *fakeCursor) Execute(_ context.Context, q string) error {
	c.engine.executed = append(c.engine.executed, q)
	c.query = q
	r, ok := c.engine.results[q]
	if !ok {
		r = fakeResult{}
	}
	c.last = r
	return r.err
}

func (c *fakeCursor) Description() []string { return c.last.cols }

func (c *fakeCursor) FetchAll(context.Context) ([][]any, error) { return c.last.rows, nil }

func (c *fakeCursor) Close() error {
	c.engine.closed++
	return nil
}

func (c *fakeCursor) OutputLocation() string { return "s3://results/" + c.query }

type fakeCommands struct {
	handlers map[string][]Result
	expanded []bool
	location string
}

func (f *fakeCommands) Execute(_ context.Context, _ backend.Cursor, text string) ([]Result, bool, error) {
	r, ok := f.handlers[strings.ToLower(text)]
	return r, ok, nil
}

func (f *fakeCommands) SetExpanded(on bool)          { f.expanded = append(f.expanded, on) }
func (f *fakeCommands) SetOutputLocation(loc string) { f.location = loc }

func collect(t *testing.T, e *Executor, text string) ([]Result, error) {
	t.Helper()
	var out []Result
	for r, err := range e.Run(context.Background(), text) {
		if err != nil {
			return out, err
		}
		out = append(out, r)
	}
	return out, nil
}

func TestRun_BlankInputYieldsSentinel(t *testing.T) {
	e := New(&fakeEngine{}, &fakeCommands{}, zaptest.NewLogger(t))

	results, err := collect(t, e, "   \n\t ")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Empty())
}

func TestRun_OneResultPerStatementInOrder(t *testing.T) {
	eng := &fakeEngine{results: map[string]fakeResult{
		"select 1":   {cols: []string{"_col0"}, rows: [][]any{{int64(1)}}},
		"select 2":   {cols: []string{"_col0"}, rows: [][]any{{int64(2)}, {int64(3)}}},
		"drop table": {},
	}}
	e := New(eng, &fakeCommands{}, zaptest.NewLogger(t))

	results, err := collect(t, e, "select 1; drop table;\nselect 2;")
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, []string{"select 1", "drop table", "select 2"}, eng.executed)

	assert.Equal(t, "1 row in set", results[0].Status)
	assert.Equal(t, []string{"_col0"}, results[0].Headers)

	assert.Equal(t, "Query OK", results[1].Status)
	assert.False(t, results[1].Tabular())
	assert.Nil(t, results[1].Rows)

	assert.Equal(t, "2 rows in set", results[2].Status)
	assert.Equal(t, 3, eng.closed)
}

func TestRun_EmptyResultSetIsTabular(t *testing.T) {
	eng := &fakeEngine{results: map[string]fakeResult{
		"select * from empty": {cols: []string{"id"}},
	}, stats: "\nExecution time: 1 ms"}
	e := New(eng, nil, nil)

	results, err := collect(t, e, "select * from empty")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Tabular())
	assert.NotNil(t, results[0].Rows)
	assert.Empty(t, results[0].Rows)
	assert.Equal(t, "Query OK\nExecution time: 1 ms", results[0].Status)
}

func TestRun_ExpandedMarker(t *testing.T) {
	eng := &fakeEngine{results: map[string]fakeResult{
		"select 1": {cols: []string{"a"}, rows: [][]any{{1}}},
		"select 2": {cols: []string{"a"}, rows: [][]any{{2}}},
	}}
	cmds := &fakeCommands{}
	e := New(eng, cmds, zaptest.NewLogger(t))

	results, err := collect(t, e, `select 1; select 2\G`)
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, []string{"select 1", "select 2"}, eng.executed)
	assert.Equal(t, []bool{true}, cmds.expanded)
}

func TestRun_MetaCommandsTakePrecedence(t *testing.T) {
	eng := &fakeEngine{}
	cmds := &fakeCommands{handlers: map[string][]Result{
		`\dt`: {{Headers: []string{"Tables"}, Rows: [][]any{{"orders"}}, Status: ""}},
	}}
	e := New(eng, cmds, zaptest.NewLogger(t))

	results, err := collect(t, e, `\dt`)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"Tables"}, results[0].Headers)
	assert.Empty(t, eng.executed)
}

func TestRun_FailFast(t *testing.T) {
	eng := &fakeEngine{results: map[string]fakeResult{
		"select 1": {cols: []string{"a"}, rows: [][]any{{1}}},
		"bad":      {err: errors.New("syntax error")},
	}}
	e := New(eng, &fakeCommands{}, zaptest.NewLogger(t))

	results, err := collect(t, e, "select 1; bad; select 3")
	require.Error(t, err)
	assert.True(t, clierrors.Is(err, clierrors.StatementFailed))
	assert.Len(t, results, 1)
	assert.Equal(t, []string{"select 1", "bad"}, eng.executed)
}

func TestRun_CursorErrorPropagates(t *testing.T) {
	eng := &fakeEngine{cursErr: clierrors.New(clierrors.NotConnected, "not connected")}
	e := New(eng, &fakeCommands{}, zaptest.NewLogger(t))

	_, err := collect(t, e, "select 1")
	assert.True(t, clierrors.Is(err, clierrors.NotConnected))
}

func TestRun_PublishesOutputLocation(t *testing.T) {
	eng := &fakeEngine{location: true, results: map[string]fakeResult{
		"select 1": {cols: []string{"a"}, rows: [][]any{{1}}},
	}}
	cmds := &fakeCommands{}
	e := New(eng, cmds, zaptest.NewLogger(t))

	_, err := collect(t, e, "select 1;")
	require.NoError(t, err)
	assert.Equal(t, "s3://results/select 1", cmds.location)

	eng.location = false
	cmds.location = ""
	_, err = collect(t, e, "select 1;")
	require.NoError(t, err)
	assert.Empty(t, cmds.location)
}

func TestRun_StopsWhenConsumerStops(t *testing.T) {
	eng := &fakeEngine{}
	e := New(eng, nil, nil)

	for range e.Run(context.Background(), "a; b; c") {
		break
	}
	assert.Equal(t, []string{"a"}, eng.executed)
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "Query OK", Status(0))
	assert.Equal(t, "1 row in set", Status(1))
	assert.Equal(t, "42 rows in set", Status(42))
}

func TestResultMarshalJSON(t *testing.T) {
	id := [16]byte{0x55, 0x0e, 0x84, 0x00, 0xe2, 0x9b, 0x41, 0xd4, 0xa7, 0x16, 0x44, 0x66, 0x55, 0x44, 0x00, 0x00}
	r := Result{
		Headers: []string{"id", "raw", "n"},
		Rows:    [][]any{{id, []byte{0xde, 0xad}, nil}},
		Status:  "1 row in set",
	}

	b, err := r.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"headers":["id","raw","n"],"rows":[["550e8400-e29b-41d4-a716-446655440000","\\xdead",null]],"status":"1 row in set"}`,
		string(b))
}
