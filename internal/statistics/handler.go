package statistics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-sod/powersod/internal/httputil"
)

type Config struct {
	RequestTimeout time.Duration `envconfig:"SOD_STATS_REQUEST_TIMEOUT" default:"30s"`
}

func NewHandler(cfg *Config, svc *Service) (http.Handler, error) {
	return &handler{cfg: cfg, svc: svc}, nil
}

type handler struct {
	cfg *Config
	svc *Service
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if r.Method != http.MethodGet {
		httputil.RespError(ctx, w, http.StatusMethodNotAllowed, "method %v is not allowed", r.Method)
		return
	}

	q := r.URL.Query()
	building := q.Get("building")
	if building == "" {
		httputil.RespBadRequest(ctx, w, "building is required")
		return
	}
	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		httputil.RespBadRequest(ctx, w, "invalid year %q", q.Get("year"))
		return
	}
	month := 0
	if v := q.Get("month"); v != "" {
		if month, err = strconv.Atoi(v); err != nil || month < 0 || month > 12 {
			httputil.RespBadRequest(ctx, w, "invalid month %q", v)
			return
		}
	}

	m, err := h.svc.Monthly(ctx, building, year, month)
	if err != nil {
		if errors.Is(err, ErrNoReadings) {
			httputil.RespNotFound(ctx, w, "%v", err)
			return
		}
		httputil.RespInternalError(ctx, w, "unable compute statistics: %v", err)
		return
	}
	httputil.RespJSON(ctx, w, http.StatusOK, m)
}
