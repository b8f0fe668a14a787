package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leavend/campaign-studio/internal/domain"
)

type replaceStrategiesRequest struct {
	Strategies []domain.CreativeStrategy `json:"strategies"`
}

func (a *App) SuggestStrategies(w http.ResponseWriter, r *http.Request) {
	st, err := a.Studio.SuggestStrategies(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) ReplaceStrategies(w http.ResponseWriter, r *http.Request) {
	var req replaceStrategiesRequest
	if !a.decode(w, r, &req) {
		return
	}
	st, err := a.Studio.ReplaceStrategies(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), req.Strategies)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) SelectStrategy(w http.ResponseWriter, r *http.Request) {
	st, err := a.Studio.SelectStrategy(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), chi.URLParam(r, "sid"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) RefineStrategy(w http.ResponseWriter, r *http.Request) {
	var patch domain.StrategyPatch
	if !a.decode(w, r, &patch) {
		return
	}
	st, err := a.Studio.RefineStrategy(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), chi.URLParam(r, "sid"), patch)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}
