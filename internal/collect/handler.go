package collect

import (
	"context"
	"net/http"

	"github.com/go-sod/powersod/internal/httputil"
	"github.com/go-sod/powersod/internal/ingest"
	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/internal/metrics"
	"github.com/go-sod/powersod/internal/reading/model"
)

type request struct {
	Building string      `json:"building"`
	Data     []model.Raw `json:"data"`
}

type response struct {
	Status   string `json:"status"`
	Accepted int    `json:"accepted"`
	Dropped  int    `json:"dropped"`
}

func NewHandler(cfg *Config, collector ingest.Collector) (http.Handler, error) {
	s := &handler{
		collector: collector,
		cfg:       cfg,
	}
	return s, nil
}

type handler struct {
	collector ingest.Collector
	cfg       *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
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

	for i := range req.Data {
		req.Data[i].Building = req.Building
	}
	readings, dropped := model.ParseAll(req.Data)
	readings = model.Normalize(readings)

	if err := h.collector.Collect(ctx, readings...); err != nil {
		httputil.RespInternalError(ctx, w, "unable collect readings: %v", err)
		return
	}
	metrics.RecordCollected(ctx, len(readings))
	logger.Infof("collected %d readings for building %s, dropped %d", len(readings), req.Building, dropped)

	httputil.RespJSON(ctx, w, http.StatusOK, response{Status: "ok", Accepted: len(readings), Dropped: dropped})
}
