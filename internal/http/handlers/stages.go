package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/workflow"
)

type advanceResponse struct {
	Advanced bool           `json:"advanced"`
	State    workflow.State `json:"state"`
}

type goToStageRequest struct {
	Stage string `json:"stage"`
}

// AdvanceStage always answers 200; advanced is false when the stage guard
// did not hold.
func (a *App) AdvanceStage(w http.ResponseWriter, r *http.Request) {
	st, advanced, err := a.Studio.AdvanceStage(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, advanceResponse{Advanced: advanced, State: st})
}

func (a *App) PreviousStage(w http.ResponseWriter, r *http.Request) {
	st, err := a.Studio.PreviousStage(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}

func (a *App) GoToStage(w http.ResponseWriter, r *http.Request) {
	var req goToStageRequest
	if !a.decode(w, r, &req) {
		return
	}
	stage, err := domain.ParseStage(req.Stage)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	st, err := a.Studio.GoToStage(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), stage)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, st)
}
