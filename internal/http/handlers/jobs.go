package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leavend/campaign-studio/internal/domain"
	"github.com/leavend/campaign-studio/internal/middleware"
	"github.com/leavend/campaign-studio/internal/studio"
)

const maxJobsPerBatch = 8

type jobsResponse struct {
	Jobs []domain.GenerationJob `json:"jobs"`
}

func (a *App) CreateJobs(w http.ResponseWriter, r *http.Request) {
	var req studio.JobsInput
	if !a.decode(w, r, &req) {
		return
	}
	if req.Count > maxJobsPerBatch {
		req.Count = maxJobsPerBatch
	}
	if req.Locale == "" {
		req.Locale = middleware.LocaleFromContext(r.Context())
	}
	jobs, err := a.Studio.CreateJobs(r.Context(), chi.URLParam(r, "id"), a.currentUserID(r), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, jobsResponse{Jobs: jobs})
}
