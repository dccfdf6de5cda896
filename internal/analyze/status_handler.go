package analyze

import (
	"context"
	"errors"
	"net/http"

	anomalyDb "github.com/go-sod/powersod/internal/anomaly/database"
	"github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/httputil"
	"github.com/go-sod/powersod/internal/logging"
	"github.com/google/uuid"
)

type statusRequest struct {
	ID    uuid.UUID `json:"id"`
	Type  string    `json:"type"`
	Value bool      `json:"value"`
}

type statusResponse struct {
	Status  string        `json:"status"`
	Anomaly model.Anomaly `json:"anomaly"`
}

// NewStatusHandler serves POST /update-anomaly-status.
func NewStatusHandler(cfg *Config, repo Repository) (http.Handler, error) {
	return &statusHandler{cfg: cfg, repo: repo}, nil
}

type statusHandler struct {
	cfg  *Config
	repo Repository
}

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if !httputil.DecodeJSON(ctx, w, r, &req) {
		return
	}
	kind, err := model.ParseStatusKind(req.Type)
	if err != nil {
		httputil.RespBadRequest(ctx, w, "%v", err)
		return
	}

	updated, err := h.repo.UpdateStatus(ctx, req.ID, kind, req.Value)
	switch {
	case errors.Is(err, anomalyDb.ErrNotFound):
		httputil.RespNotFound(ctx, w, "anomaly %s not found", req.ID)
		return
	case err != nil:
		httputil.RespInternalError(ctx, w, "unable update anomaly status: %v", err)
		return
	}
	logging.FromContext(ctx).Infof("anomaly %s: %s set to %v", req.ID, kind, req.Value)
	httputil.RespJSON(ctx, w, http.StatusOK, statusResponse{Status: "ok", Anomaly: updated})
}
