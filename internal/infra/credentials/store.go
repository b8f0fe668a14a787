package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/leavend/campaign-studio/internal/infra"
	"github.com/leavend/campaign-studio/internal/sqlinline"
)

const (
	ProviderVertex = "vertex"
)

// Store reads and writes provider credentials kept in integration_tokens.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// ServiceAccountJSON returns the stored Vertex service-account key, or an
// empty slice when none has been stored.
func (s *Store) ServiceAccountJSON(ctx context.Context) ([]byte, error) {
	token, err := s.Token(ctx, ProviderVertex)
	if err != nil || token == "" {
		return nil, err
	}
	return []byte(token), nil
}

func (s *Store) Token(ctx context.Context, provider string) (string, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectIntegrationToken, provider)
	var token string
	if err := row.Scan(&token); err != nil {
		if infra.IsNoRows(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(token), nil
}

// SetServiceAccountJSON stores a service-account key. The key must be valid
// JSON with a client_email; the email is kept in properties for auditing.
func (s *Store) SetServiceAccountJSON(ctx context.Context, raw []byte) error {
	raw = []byte(strings.TrimSpace(string(raw)))
	if len(raw) == 0 {
		return errors.New("service account json is required")
	}
	var meta struct {
		ClientEmail string `json:"client_email"`
		ProjectID   string `json:"project_id"`
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return errors.New("service account json is not valid json")
	}
	if strings.TrimSpace(meta.ClientEmail) == "" {
		return errors.New("service account json has no client_email")
	}
	return s.upsert(ctx, ProviderVertex, string(raw), map[string]any{
		"client_email": meta.ClientEmail,
		"project_id":   meta.ProjectID,
	})
}

func (s *Store) upsert(ctx context.Context, provider, token string, props map[string]any) error {
	payload := props
	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = s.sql.Exec(ctx, sqlinline.QUpsertIntegrationToken, provider, token, raw)
	return err
}
