package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type exportRequest struct {
	Platform string `json:"platform"`
}

func (a *App) ExportCampaign(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !a.decode(w, r, &req) {
		return
	}
	pkg, err := a.Studio.ExportCampaign(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), req.Platform)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, pkg)
}
