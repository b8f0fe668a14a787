// Package handlers maps the campaign HTTP API onto the studio service.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/middleware"
	"github.com/leavend/campaign-studio/internal/studio"
)

const maxBodyBytes = 1 << 20

type App struct {
	Studio *studio.Service
	Logger zerolog.Logger
	// Ping checks the database for the health endpoint. Nil skips the check.
	Ping func(ctx context.Context) error
}

func NewApp(s *studio.Service, logger zerolog.Logger) *App {
	return &App{Studio: s, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	middleware.WriteError(w, status, code, message)
}

func (a *App) currentUserID(r *http.Request) string {
	return middleware.UserIDFromContext(r.Context())
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}

// fail writes the HTTP form of a service error.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		a.error(w, http.StatusForbidden, "forbidden", "campaign belongs to another user")
	case errors.Is(err, domain.ErrUnauthorized):
		a.error(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, domain.ErrUnknownStage), errors.Is(err, domain.ErrInvalidJobType):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, domain.ErrStageMismatch),
		errors.Is(err, domain.ErrNoStrategy),
		errors.Is(err, domain.ErrBatchRunning),
		errors.Is(err, domain.ErrNothingToExport):
		a.error(w, http.StatusConflict, "conflict", err.Error())
	default:
		a.Logger.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", middleware.RequestIDFromContext(r.Context())).
			Msg("handler failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
