package infra

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const markedQuery = `--sql 0b7c2a52-8a59-4f0e-9d3f-1f2e3d4c5b6a
select 1;
`

type fakeExecutor struct {
	last string
	rows pgx.Rows
	err  error
}

func (f *fakeExecutor) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	f.last = query
	return pgconn.NewCommandTag("UPDATE 2"), f.err
}

func (f *fakeExecutor) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	f.last = query
	return errorRow{err: pgx.ErrNoRows}
}

func (f *fakeExecutor) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	f.last = query
	return f.rows, f.err
}

type countingRows struct {
	pgx.Rows
	left   int
	closed bool
}

func (c *countingRows) Next() bool {
	if c.left == 0 {
		return false
	}
	c.left--
	return true
}

func (c *countingRows) Close()     { c.closed = true }
func (c *countingRows) Err() error { return nil }

func TestSQLRunnerStripsMarker(t *testing.T) {
	var buf bytes.Buffer
	pool := &fakeExecutor{}
	runner := NewSQLRunner(pool, zerolog.New(&buf).Level(zerolog.DebugLevel))

	tag, err := runner.Exec(context.Background(), markedQuery)
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if tag.RowsAffected() != 2 {
		t.Fatalf("got %d rows affected want 2", tag.RowsAffected())
	}
	if strings.Contains(pool.last, "--sql") || strings.TrimSpace(pool.last) != "select 1;" {
		t.Fatalf("marker not stripped: %q", pool.last)
	}
	if !strings.Contains(buf.String(), `"sql":"0b7c2a52-8a59-4f0e-9d3f-1f2e3d4c5b6a"`) {
		t.Fatalf("log missing marker: %s", buf.String())
	}
}

func TestSQLRunnerRejectsUnmarkedQueries(t *testing.T) {
	pool := &fakeExecutor{}
	runner := NewSQLRunner(pool, zerolog.Nop())

	if _, err := runner.Exec(context.Background(), "select 1"); err == nil {
		t.Fatalf("expected marker error")
	}
	if _, err := runner.Query(context.Background(), ""); err == nil {
		t.Fatalf("expected empty query error")
	}
	var n int
	if err := runner.QueryRow(context.Background(), "--sql nope\nselect 1").Scan(&n); err == nil {
		t.Fatalf("expected marker error from Scan")
	}
	if pool.last != "" {
		t.Fatalf("unmarked query reached the pool: %q", pool.last)
	}
}

func TestSQLRunnerWrapsRowsAndErrors(t *testing.T) {
	rows := &countingRows{left: 3}
	pool := &fakeExecutor{rows: rows}
	runner := NewSQLRunner(pool, zerolog.Nop())

	got, err := runner.Query(context.Background(), markedQuery)
	if err != nil {
		t.Fatalf("Query error: %v", err)
	}
	n := 0
	for got.Next() {
		n++
	}
	got.Close()
	if n != 3 || !rows.closed {
		t.Fatalf("got %d rows closed=%v", n, rows.closed)
	}

	var v int
	if err := runner.QueryRow(context.Background(), markedQuery).Scan(&v); !IsNoRows(err) {
		t.Fatalf("got %v want no rows", err)
	}

	boom := errors.New("boom")
	pool.err = boom
	if _, err := runner.Exec(context.Background(), markedQuery); !errors.Is(err, boom) {
		t.Fatalf("got %v want boom", err)
	}
}
