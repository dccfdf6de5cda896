package analyze

import (
	"context"
	"net/http"

	"github.com/go-sod/powersod/internal/anomaly"
	"github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/httputil"
	readingModel "github.com/go-sod/powersod/internal/reading/model"
)

type detectRequest struct {
	Building string             `json:"building"`
	Data     []readingModel.Raw `json:"data"`
	detectParams
}

type detectResponse struct {
	Anomalies []model.Anomaly `json:"anomalies"`
	Count     int             `json:"count"`
	Dropped   int             `json:"dropped"`
	severityCount
}

// NewDetectHandler serves POST /detect-anomalies: detection over the supplied
// readings without persistence.
func NewDetectHandler(cfg *Config) (http.Handler, error) {
	return &detectHandler{cfg: cfg}, nil
}

type detectHandler struct {
	cfg *Config
}

func (h *detectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if !httputil.DecodeJSON(ctx, w, r, &req) {
		return
	}
	if len(req.Data) == 0 {
		httputil.RespBadRequest(ctx, w, "no data provided")
		return
	}
	if len(req.Data) > h.cfg.MaxDataItemsLen {
		httputil.RespBadRequest(ctx, w, "data items is too large, max allowed len is %d", h.cfg.MaxDataItemsLen)
		return
	}
	if req.Building != "" {
		for i := range req.Data {
			if req.Data[i].Building == "" {
				req.Data[i].Building = req.Building
			}
		}
	}

	series, dropped := readingModel.ParseAll(req.Data)
	method, params := req.resolve(h.cfg.LOF)
	anomalies, err := anomaly.Detect(series, method, params)
	if err != nil {
		respDetectErr(ctx, w, err)
		return
	}

	httputil.RespJSON(ctx, w, http.StatusOK, detectResponse{
		Anomalies:     anomalies,
		Count:         len(anomalies),
		Dropped:       dropped,
		severityCount: countSeverities(anomalies),
	})
}
