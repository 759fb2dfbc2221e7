// Copyright (c) 2025 Athenacli
// Licensed under the MIT License. See LICENSE file in the project root for details.

package completion

import (
	"context"
	"errors"
	"iter"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"athenacli/cli/internal/backend"
)

type fakeSource struct {
	db          string
	dbs         []string
	dbErr       error
	tables      []string
	tablesErr   error
	cols        []backend.Column
	colErr      error
	pre         bool
	onDatabases func()

	dbCalls atomic.Int32
}

func (f *fakeSource) Database() string { return f.db }

func (f *fakeSource) Databases(context.Context) ([]string, error) {
	f.dbCalls.Add(1)
	if f.onDatabases != nil {
		f.onDatabases()
	}
	return f.dbs, f.dbErr
}

func (f *fakeSource) Tables(context.Context) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, t := range f.tables {
			if !yield(t, nil) {
				return
			}
		}
		if f.tablesErr != nil {
			yield("", f.tablesErr)
		}
	}
}

func (f *fakeSource) TableColumns(context.Context) iter.Seq2[backend.Column, error] {
	return func(yield func(backend.Column, error) bool) {
		for _, c := range f.cols {
			if !yield(c, nil) {
				return
			}
		}
		if f.colErr != nil {
			yield(backend.Column{}, f.colErr)
		}
	}
}

func (f *fakeSource) PreQualifiedIdentifiers() bool { return f.pre }

// callbackRecorder counts callbacks and keeps the last index.
type callbackRecorder struct {
	mu    sync.Mutex
	calls int
	last  *Index
}

func (c *callbackRecorder) record(idx *Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = idx
}

func (c *callbackRecorder) snapshot() (int, *Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls, c.last
}

func TestRefresh_RunsTasksAndDeliversIndex(t *testing.T) {
	src := &fakeSource{
		db:     "sales",
		dbs:    []string{"default", "sales"},
		tables: []string{"orders"},
		cols:   []backend.Column{{Table: "orders", Name: "id"}},
	}
	r := NewRefresher(zaptest.NewLogger(t), DefaultTasks(func() []string { return []string{`\dt`, "use"} })...)
	rec := &callbackRecorder{}

	assert.Equal(t, Started, r.Refresh(context.Background(), src, rec.record))
	r.Wait()

	calls, idx := rec.snapshot()
	require.Equal(t, 1, calls)
	assert.Equal(t, []string{"default", "sales"}, idx.Databases())
	assert.Equal(t, "sales", idx.DBName())
	assert.Equal(t, []string{"orders"}, idx.Tables())
	assert.Equal(t, []string{"*", "id"}, idx.Columns("orders"))
	assert.Equal(t, []string{`\dt`, "use"}, idx.SpecialCommands())
	assert.False(t, r.IsRefreshing())
}

func TestRefresh_SecondCallCoalescesIntoRestart(t *testing.T) {
	entered := make(chan struct{})
	gate := make(chan struct{})
	var once sync.Once

	src := &fakeSource{db: "db", dbs: []string{"db"}}
	src.onDatabases = func() {
		once.Do(func() {
			close(entered)
			<-gate
		})
	}
	r := NewRefresher(zaptest.NewLogger(t), DefaultTasks(nil)...)
	rec := &callbackRecorder{}

	require.Equal(t, Started, r.Refresh(context.Background(), src, rec.record))
	<-entered
	assert.Equal(t, Restarted, r.Refresh(context.Background(), src, rec.record))
	assert.True(t, r.IsRefreshing())

	close(gate)
	r.Wait()

	calls, _ := rec.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, int32(2), src.dbCalls.Load())
	assert.False(t, r.IsRefreshing())
}

func TestRefresh_RestartDuringFinalTaskRunsOneFullPass(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
		pass  int
	)
	entered := make(chan struct{})
	gate := make(chan struct{})

	record := func(name string) func(context.Context, *Index, Source) error {
		return func(_ context.Context, idx *Index, _ Source) error {
			mu.Lock()
			order = append(order, name)
			if name == "first" {
				pass++
				idx.ExtendDatabases("pass" + string(rune('0'+pass)))
			}
			blockNow := name == "last" && pass == 1
			mu.Unlock()
			if blockNow {
				close(entered)
				<-gate
			}
			return nil
		}
	}

	r := NewRefresher(zaptest.NewLogger(t),
		Task{Name: "first", Run: record("first")},
		Task{Name: "middle", Run: record("middle")},
		Task{Name: "last", Run: record("last")},
	)
	rec := &callbackRecorder{}

	r.Refresh(context.Background(), &fakeSource{}, rec.record)
	<-entered
	assert.Equal(t, Restarted, r.Refresh(context.Background(), &fakeSource{}))
	close(gate)
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "middle", "last", "first", "middle", "last"}, order)

	calls, idx := rec.snapshot()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"pass1", "pass2"}, idx.Databases())
}

func TestRefresh_RequestFromCallbackLeavesPublishedIndexAlone(t *testing.T) {
	var pass atomic.Int32
	r := NewRefresher(zaptest.NewLogger(t), Task{
		Name: "count",
		Run: func(_ context.Context, idx *Index, _ Source) error {
			idx.ExtendDatabases("pass" + string(rune('0'+pass.Add(1))))
			return nil
		},
	})

	var (
		mu        sync.Mutex
		published []*Index
		seen      [][]string
	)
	src := &fakeSource{}
	var publish func(*Index)
	publish = func(idx *Index) {
		mu.Lock()
		first := len(published) == 0
		published = append(published, idx)
		seen = append(seen, idx.Databases())
		mu.Unlock()
		if first {
			assert.Equal(t, Restarted, r.Refresh(context.Background(), src, publish))
		}
	}

	require.Equal(t, Started, r.Refresh(context.Background(), src, publish))
	r.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 2)
	assert.NotSame(t, published[0], published[1])
	assert.Equal(t, [][]string{{"pass1"}, {"pass1", "pass2"}}, seen)
	assert.Equal(t, []string{"pass1"}, published[0].Databases())
	assert.Equal(t, []string{"pass1", "pass2"}, published[1].Databases())
	assert.False(t, r.IsRefreshing())
}

func TestRefresh_TaskFailureIsLoggedAndPassContinues(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := &fakeSource{db: "db", dbErr: errors.New("access denied"), tables: []string{"orders"}}
	r := NewRefresher(zap.New(core), DefaultTasks(nil)...)
	rec := &callbackRecorder{}

	r.Refresh(context.Background(), src, rec.record)
	r.Wait()

	calls, idx := rec.snapshot()
	require.Equal(t, 1, calls)
	assert.Empty(t, idx.Databases())
	assert.Equal(t, []string{"orders"}, idx.Tables())

	entries := logs.FilterField(zap.String("task", "databases")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, "completion refresh task failed", entries[0].Message)
}

func TestRefresh_CancelledContextSkipsCallbacks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{db: "db", onDatabases: cancel}
	r := NewRefresher(zaptest.NewLogger(t), DefaultTasks(nil)...)
	rec := &callbackRecorder{}

	r.Refresh(ctx, src, rec.record)
	r.Wait()

	calls, _ := rec.snapshot()
	assert.Equal(t, 0, calls)
	assert.False(t, r.IsRefreshing())
}

func TestRefresh_CanRunAgainAfterCompletion(t *testing.T) {
	src := &fakeSource{db: "db"}
	r := NewRefresher(nil, DefaultTasks(nil)...)
	rec := &callbackRecorder{}

	assert.Equal(t, Started, r.Refresh(context.Background(), src, rec.record))
	r.Wait()
	assert.Equal(t, Started, r.Refresh(context.Background(), src, rec.record))
	r.Wait()

	calls, _ := rec.snapshot()
	assert.Equal(t, 2, calls)
}

func TestRefresh_PublishesToCompleter(t *testing.T) {
	src := &fakeSource{db: "db", tables: []string{"orders"}}
	r := NewRefresher(zaptest.NewLogger(t), DefaultTasks(nil)...)
	c := NewCompleter()
	before := c.Index()

	r.Refresh(context.Background(), src, c.Publish)
	require.Eventually(t, func() bool { return c.Index() != before }, time.Second, time.Millisecond)
	assert.Contains(t, c.Index().Tables(), "orders")
}
