// Package google exchanges service-account credentials for short-lived
// OAuth access tokens using the JWT-bearer grant.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/leavend/campaign-studio/internal/domain"
)

const (
	DefaultTokenURL = "https://oauth2.googleapis.com/token"
	DefaultScope    = "https://www.googleapis.com/auth/cloud-platform"

	jwtBearerGrant   = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	assertionTTL     = time.Hour
	maxErrorBodySize = 4 << 10
)

// AccessToken is a bearer token and the instant it stops being valid.
type AccessToken struct {
	Value     string    `json:"access_token"`
	TokenType string    `json:"token_type"`
	Expiry    time.Time `json:"expiry"`
}

// ValidAt reports whether the token can still be used at now with leeway to spare.
func (t AccessToken) ValidAt(now time.Time, leeway time.Duration) bool {
	return t.Value != "" && now.Add(leeway).Before(t.Expiry)
}

// MinterOptions configures a Minter.
type MinterOptions struct {
	TokenURL   string
	Scope      string
	HTTPClient *http.Client
	Now        func() time.Time
	Logger     *zerolog.Logger
}

// Minter signs assertions and exchanges them at the token endpoint. It keeps
// no state between calls.
type Minter struct {
	tokenURL   string
	scope      string
	httpClient *http.Client
	now        func() time.Time
	logger     zerolog.Logger
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type tokenErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewMinter constructs a Minter with defaults for any unset option.
func NewMinter(opts MinterOptions) *Minter {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	tokenURL := strings.TrimSpace(opts.TokenURL)
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	scope := strings.TrimSpace(opts.Scope)
	if scope == "" {
		scope = DefaultScope
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := zerolog.New(io.Discard)
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Minter{
		tokenURL:   tokenURL,
		scope:      scope,
		httpClient: client,
		now:        now,
		logger:     logger,
	}
}

// Mint returns a fresh access token for sa. Every failure is reported as domain.ErrAuth.
func (m *Minter) Mint(ctx context.Context, sa *ServiceAccount) (AccessToken, error) {
	assertion, err := m.SignAssertion(sa)
	if err != nil {
		return AccessToken{}, err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return AccessToken{}, domain.NewGenerationError(domain.ErrAuth, "mint token", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	issued := m.now()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return AccessToken{}, domain.NewGenerationError(domain.ErrAuth, "mint token", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		genErr := domain.NewGenerationError(domain.ErrAuth, "mint token", errors.New(tokenErrorMessage(body)))
		genErr.StatusCode = resp.StatusCode
		m.logger.Warn().
			Int("status", resp.StatusCode).
			Str("principal", sa.ClientEmail).
			Msg("credentials: token exchange rejected")
		return AccessToken{}, genErr
	}

	var payload tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return AccessToken{}, domain.NewGenerationError(domain.ErrAuth, "mint token", fmt.Errorf("decode token response: %w", err))
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return AccessToken{}, domain.NewGenerationError(domain.ErrAuth, "mint token", errors.New("token response has no access_token"))
	}
	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl <= 0 {
		ttl = assertionTTL
	}
	tokenType := payload.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	m.logger.Debug().
		Str("principal", sa.ClientEmail).
		Dur("ttl", ttl).
		Msg("credentials: minted access token")
	return AccessToken{
		Value:     payload.AccessToken,
		TokenType: tokenType,
		Expiry:    issued.Add(ttl),
	}, nil
}

// SignAssertion builds the RS256 signed claim set exchanged for a token.
func (m *Minter) SignAssertion(sa *ServiceAccount) (string, error) {
	if sa == nil || sa.PrivateKey == nil || sa.ClientEmail == "" {
		return "", domain.NewGenerationError(domain.ErrAuth, "sign assertion", errors.New("service account credential is incomplete"))
	}
	now := m.now()
	claims := jwt.MapClaims{
		"iss":   sa.ClientEmail,
		"scope": m.scope,
		"aud":   m.tokenURL,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if sa.PrivateKeyID != "" {
		token.Header["kid"] = sa.PrivateKeyID
	}
	signed, err := token.SignedString(sa.PrivateKey)
	if err != nil {
		return "", domain.NewGenerationError(domain.ErrAuth, "sign assertion", err)
	}
	return signed, nil
}

func tokenErrorMessage(body []byte) string {
	var apiErr tokenErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != "" {
		if apiErr.ErrorDescription != "" {
			return apiErr.Error + ": " + apiErr.ErrorDescription
		}
		return apiErr.Error
	}
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return msg
	}
	return "token endpoint rejected the assertion"
}
