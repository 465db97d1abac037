package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/arena/internal/app"
)

type ProgressDependencies interface {
	Progress(ctx context.Context) (service.ProgressView, error)
}

// ProgressHandler serves the scheduler snapshot.
type ProgressHandler struct {
	deps ProgressDependencies
}

func NewProgressHandler(deps ProgressDependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

// HandleProgress handles GET /api/progress. Without a roster it answers 404.
func (h *ProgressHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Progress(r.Context())
	switch {
	case errors.Is(err, service.ErrNoTournament):
		writeError(w, http.StatusNotFound, "not_found", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	default:
		writeJSON(w, http.StatusOK, view)
	}
}
