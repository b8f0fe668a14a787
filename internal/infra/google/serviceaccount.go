package google

import (
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ServiceAccount is a parsed service-account key.
type ServiceAccount struct {
	ClientEmail  string
	PrivateKeyID string
	PrivateKey   *rsa.PrivateKey
	TokenURI     string
	ProjectID    string
}

type serviceAccountFile struct {
	Type         string `json:"type"`
	ProjectID    string `json:"project_id"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	ClientEmail  string `json:"client_email"`
	TokenURI     string `json:"token_uri"`
}

// ParseServiceAccountJSON parses the JSON key file format issued by Google Cloud.
func ParseServiceAccountJSON(data []byte) (*ServiceAccount, error) {
	var raw serviceAccountFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("service account: decode json: %w", err)
	}
	if raw.Type != "" && raw.Type != "service_account" {
		return nil, fmt.Errorf("service account: unsupported credential type %q", raw.Type)
	}
	email := strings.TrimSpace(raw.ClientEmail)
	if email == "" {
		return nil, errors.New("service account: client_email is required")
	}
	if strings.TrimSpace(raw.PrivateKey) == "" {
		return nil, errors.New("service account: private_key is required")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(raw.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("service account: parse private key: %w", err)
	}
	return &ServiceAccount{
		ClientEmail:  email,
		PrivateKeyID: strings.TrimSpace(raw.PrivateKeyID),
		PrivateKey:   key,
		TokenURI:     strings.TrimSpace(raw.TokenURI),
		ProjectID:    strings.TrimSpace(raw.ProjectID),
	}, nil
}

// LoadServiceAccountFile reads and parses a JSON key file from disk.
func LoadServiceAccountFile(path string) (*ServiceAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("service account: read %s: %w", path, err)
	}
	return ParseServiceAccountJSON(data)
}
