package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leavend/campaign-studio/internal/domain"
)

type createCampaignRequest struct {
	Name  string             `json:"name"`
	Brief *domain.BriefPatch `json:"brief"`
}

func (a *App) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var req createCampaignRequest
	if !a.decode(w, r, &req) {
		return
	}
	st, err := a.Studio.CreateCampaign(r.Context(), a.currentUserID(r), req.Name, req.Brief)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, st)
}

func (a *App) GetCampaign(w http.ResponseWriter, r *http.Request) {
	st, err := a.Studio.State(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) UpdateBrief(w http.ResponseWriter, r *http.Request) {
	var patch domain.BriefPatch
	if !a.decode(w, r, &patch) {
		return
	}
	st, err := a.Studio.UpdateBrief(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), patch)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) SaveCampaign(w http.ResponseWriter, r *http.Request) {
	rec, err := a.Studio.SaveCampaign(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, rec)
}

func (a *App) LoadCampaign(w http.ResponseWriter, r *http.Request) {
	st, err := a.Studio.LoadCampaign(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}
