package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	tok, err := SignJWT(secret, claims)
	if err != nil {
		t.Fatalf("SignJWT error: %v", err)
	}
	return tok
}

func TestAuthJWT(t *testing.T) {
	const secret = "s3cret"
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))
	past := jwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		header string
		status int
		user   string
		locale string
	}{
		{name: "missing header", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer abc.def.ghi", status: http.StatusUnauthorized},
		{
			name:   "wrong secret",
			header: "Bearer " + signed(t, "other", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: future}}),
			status: http.StatusUnauthorized,
		},
		{
			name:   "expired",
			header: "Bearer " + signed(t, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: past}}),
			status: http.StatusUnauthorized,
		},
		{
			name:   "no subject",
			header: "Bearer " + signed(t, secret, Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: future}}),
			status: http.StatusUnauthorized,
		},
		{
			name:   "valid",
			header: "bearer " + signed(t, secret, Claims{Locale: "id-ID", RegisteredClaims: jwt.RegisteredClaims{Subject: "u1", ExpiresAt: future}}),
			status: http.StatusOK,
			user:   "u1",
			locale: "id",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var user, locale string
			h := AuthJWT(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				user = UserIDFromContext(r.Context())
				locale = LocaleFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("got status %d want %d", rec.Code, tc.status)
			}
			if user != tc.user {
				t.Fatalf("got user %q want %q", user, tc.user)
			}
			if tc.locale != "" && locale != tc.locale {
				t.Fatalf("got locale %q want %q", locale, tc.locale)
			}
		})
	}
}

func TestVerifyJWTRejectsOtherAlgorithms(t *testing.T) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"}}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := VerifyJWT("s3cret", tok); err == nil {
		t.Fatalf("expected alg none to be rejected")
	}
}

func TestSignJWTNeedsSecret(t *testing.T) {
	if _, err := SignJWT("", Claims{}); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}
