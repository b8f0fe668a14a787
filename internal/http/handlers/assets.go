package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/studio"
	"github.com/leavend/campaign-studio/internal/workflow"
)

type approveRequest struct {
	Approved *bool `json:"approved"`
}

type favoriteRequest struct {
	Favorite bool `json:"favorite"`
}

type reviewRequest struct {
	QualityScore  *float64 `json:"quality_score"`
	QualityIssues []string `json:"quality_issues"`
}

type captionResponse struct {
	Caption domain.Caption `json:"caption"`
	State   workflow.State `json:"state"`
}

// ApproveAsset approves an asset; {"approved": false} revokes the approval.
func (a *App) ApproveAsset(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if !a.decode(w, r, &req) {
		return
	}
	approved := req.Approved == nil || *req.Approved
	st, err := a.Studio.ApproveAsset(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), chi.URLParam(r, "aid"), approved)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) FavoriteAsset(w http.ResponseWriter, r *http.Request) {
	var req favoriteRequest
	if !a.decode(w, r, &req) {
		return
	}
	st, err := a.Studio.FavoriteAsset(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), chi.URLParam(r, "aid"), req.Favorite)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) ReviewAsset(w http.ResponseWriter, r *http.Request) {
	var req reviewRequest
	if !a.decode(w, r, &req) {
		return
	}
	if req.QualityScore != nil && (*req.QualityScore < 0 || *req.QualityScore > 1) {
		a.error(w, http.StatusBadRequest, "bad_request", "quality_score must be between 0 and 1")
		return
	}
	st, err := a.Studio.ReviewAsset(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), chi.URLParam(r, "aid"), req.QualityScore, req.QualityIssues)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) AddCaption(w http.ResponseWriter, r *http.Request) {
	var req studio.CaptionInput
	if !a.decode(w, r, &req) {
		return
	}
	if req.AssetID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "asset_id required")
		return
	}
	c, st, err := a.Studio.AddCaption(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusCreated, captionResponse{Caption: c, State: st})
}

func (a *App) SelectCaption(w http.ResponseWriter, r *http.Request) {
	st, err := a.Studio.SelectCaption(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), chi.URLParam(r, "aid"), chi.URLParam(r, "cid"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}
