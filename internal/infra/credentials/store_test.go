package credentials

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type stubExecutor struct {
	token string
	err   error
	exec  struct {
		query string
		args  []any
	}
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return stubRow{token: s.token, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	token string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.token
	return nil
}

func TestServiceAccountJSON(t *testing.T) {
	store := NewStore(&stubExecutor{token: " {\"client_email\":\"a@b\"} "})
	raw, err := store.ServiceAccountJSON(context.Background())
	if err != nil {
		t.Fatalf("ServiceAccountJSON error: %v", err)
	}
	if string(raw) != `{"client_email":"a@b"}` {
		t.Fatalf("unexpected key %q", raw)
	}
}

func TestServiceAccountJSON_NoRows(t *testing.T) {
	store := NewStore(&stubExecutor{err: pgx.ErrNoRows})
	raw, err := store.ServiceAccountJSON(context.Background())
	if err != nil {
		t.Fatalf("ServiceAccountJSON error: %v", err)
	}
	if len(raw) != 0 {
		t.Fatalf("expected empty key, got %q", raw)
	}
}

func TestServiceAccountJSON_Error(t *testing.T) {
	boom := errors.New("boom")
	store := NewStore(&stubExecutor{err: boom})
	if _, err := store.ServiceAccountJSON(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSetServiceAccountJSON(t *testing.T) {
	exec := &stubExecutor{}
	store := NewStore(exec)
	key := `{"client_email":"studio@demo.iam.gserviceaccount.com","project_id":"demo"}`
	if err := store.SetServiceAccountJSON(context.Background(), []byte(key)); err != nil {
		t.Fatalf("SetServiceAccountJSON error: %v", err)
	}
	if len(exec.exec.args) != 3 {
		t.Fatalf("expected 3 args, got %d", len(exec.exec.args))
	}
	if v, ok := exec.exec.args[0].(string); !ok || v != ProviderVertex {
		t.Fatalf("expected vertex provider, got %v", exec.exec.args[0])
	}
	if v, ok := exec.exec.args[1].(string); !ok || v != key {
		t.Fatalf("expected key argument, got %T %v", exec.exec.args[1], exec.exec.args[1])
	}
	props, ok := exec.exec.args[2].([]byte)
	if !ok || !strings.Contains(string(props), "studio@demo.iam.gserviceaccount.com") {
		t.Fatalf("expected client email in properties, got %s", props)
	}
}

func TestSetServiceAccountJSONRejectsInvalid(t *testing.T) {
	store := NewStore(&stubExecutor{})
	for _, raw := range []string{"", "  ", "not json", `{"project_id":"x"}`} {
		if err := store.SetServiceAccountJSON(context.Background(), []byte(raw)); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}
