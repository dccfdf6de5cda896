package analyze

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	anomalyDb "github.com/go-sod/powersod/internal/anomaly/database"
	"github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/httputil"
	readingModel "github.com/go-sod/powersod/internal/reading/model"
)

type listStats struct {
	Total        int `json:"total"`
	Acknowledged int `json:"acknowledged"`
	SDT          int `json:"sdt"`
	severityCount
}

type listResponse struct {
	Alerts []model.Anomaly `json:"alerts"`
	Stats  listStats       `json:"stats"`
}

// NewListHandler serves GET /get-anomalies.
func NewListHandler(cfg *Config, repo Repository) (http.Handler, error) {
	return &listHandler{cfg: cfg, repo: repo}, nil
}

type listHandler struct {
	cfg  *Config
	repo Repository
}

func (h *listHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()

	if r.Method != http.MethodGet {
		httputil.RespError(ctx, w, http.StatusMethodNotAllowed, "method %v is not allowed", r.Method)
		return
	}
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		httputil.RespBadRequest(ctx, w, "%v", err)
		return
	}

	anomalies, err := h.repo.FindAll(ctx, filter)
	if err != nil {
		httputil.RespInternalError(ctx, w, "unable fetch anomalies: %v", err)
		return
	}

	resp := listResponse{Alerts: anomalies, Stats: listStats{Total: len(anomalies), severityCount: countSeverities(anomalies)}}
	for _, a := range anomalies {
		if a.Acknowledged {
			resp.Stats.Acknowledged++
		}
		if a.SDT {
			resp.Stats.SDT++
		}
	}
	httputil.RespJSON(ctx, w, http.StatusOK, resp)
}

func parseFilter(q url.Values) (anomalyDb.Filter, error) {
	filter := anomalyDb.Filter{Building: q.Get("building")}
	var err error
	if v := q.Get("severity"); v != "" {
		if filter.Severity, err = model.ParseSeverity(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("method"); v != "" {
		if filter.Method, err = model.ParseMethod(v); err != nil {
			return filter, err
		}
	}
	for name, dst := range map[string]**bool{
		"acknowledged": &filter.Acknowledged,
		"cleared":      &filter.Cleared,
		"sdt":          &filter.SDT,
	} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return filter, err
		}
		*dst = &b
	}
	if v := q.Get("start_date"); v != "" {
		if filter.From, err = readingModel.ParseDate(v); err != nil {
			return filter, err
		}
	}
	if v := q.Get("end_date"); v != "" {
		if filter.To, err = readingModel.ParseDate(v); err != nil {
			return filter, err
		}
	}
	return filter, nil
}
