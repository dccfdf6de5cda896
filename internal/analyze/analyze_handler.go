package analyze

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-sod/powersod/internal/alert"
	"github.com/go-sod/powersod/internal/anomaly"
	"github.com/go-sod/powersod/internal/anomaly/lof"
	"github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/httputil"
	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/internal/metrics"
	readingModel "github.com/go-sod/powersod/internal/reading/model"
)

type analyzeRequest struct {
	Building string `json:"building"`
	Year     int    `json:"year"`
	Month    int    `json:"month"`
	detectParams
}

type analyzeResponse struct {
	Anomalies []model.Anomaly `json:"anomalies"`
	Count     int             `json:"count"`
	NewCount  int             `json:"new_count"`
	severityCount
}

// NewAnalyzeHandler serves POST /analyze-anomalies: detection over the stored
// readings of a building month (or year when month is 0), persisted and
// forwarded to the notifier.
func NewAnalyzeHandler(cfg *Config, readings ReadingFinder, repo Repository, notifier alert.Notifier) (http.Handler, error) {
	return &analyzeHandler{cfg: cfg, readings: readings, repo: repo, notifier: notifier}, nil
}

type analyzeHandler struct {
	cfg      *Config
	readings ReadingFinder
	repo     Repository
	notifier alert.Notifier
}

func (h *analyzeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if !httputil.DecodeJSON(ctx, w, r, &req) {
		return
	}
	if req.Building == "" {
		httputil.RespBadRequest(ctx, w, "building is required")
		return
	}
	if req.Month < 0 || req.Month > 12 {
		httputil.RespBadRequest(ctx, w, "month must be in [0, 12], got %d", req.Month)
		return
	}

	from, to := readingModel.MonthRange(req.Year, req.Month)
	series, err := h.readings.FindByBuilding(ctx, req.Building, from, to)
	if err != nil {
		httputil.RespInternalError(ctx, w, "unable load readings: %v", err)
		return
	}
	if len(series) == 0 {
		httputil.RespNotFound(ctx, w, "no readings for building %s in %04d-%02d", req.Building, req.Year, req.Month)
		return
	}

	method, params := req.resolve(h.cfg.LOF)
	anomalies, err := anomaly.Detect(series, method, params)
	if err != nil {
		respDetectErr(ctx, w, err)
		return
	}

	stored, inserted, err := anomaly.StoreNew(ctx, h.repo, anomalies)
	if err != nil {
		httputil.RespInternalError(ctx, w, "unable store anomalies: %v", err)
		return
	}
	metrics.RecordAnomalies(ctx, inserted)
	if h.notifier != nil {
		h.notifier.Notify(inserted...)
	}
	logger.Infof("analyzed building %s with %s: %d anomalies, %d new", req.Building, method, len(anomalies), len(inserted))

	httputil.RespJSON(ctx, w, http.StatusOK, analyzeResponse{
		Anomalies:     stored,
		Count:         len(stored),
		NewCount:      len(inserted),
		severityCount: countSeverities(stored),
	})
}

func respDetectErr(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrUnsupportedMethod) || errors.Is(err, anomaly.ErrInvalidThreshold) ||
		errors.Is(err, lof.ErrInvalidConfig) {
		httputil.RespBadRequest(ctx, w, "%v", err)
		return
	}
	httputil.RespInternalError(ctx, w, "detection failed: %v", err)
}
