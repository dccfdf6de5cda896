package predict

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/go-sod/powersod/internal/forecast"
	"github.com/go-sod/powersod/internal/httputil"
	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/internal/metrics"
	"github.com/go-sod/powersod/internal/reading/model"
	"golang.org/x/sync/errgroup"
)

// Forecaster fits and forecasts one building series.
type Forecaster interface {
	FitAndForecast(ctx context.Context, datasets []model.Dataset, horizonDays int) (*forecast.Result, error)
}

type request struct {
	Datasets    []model.Dataset `json:"datasets"`
	HorizonDays int             `json:"horizon_days"`
}

// buildingResult holds either the forecast or the failure of one building.
type buildingResult struct {
	Building string `json:"building"`
	*forecast.Result
	Error string `json:"error,omitempty"`

	err error
}

// response carries the forecast of a single building at the top level and
// the per building forecasts under Results when several buildings are sent.
type response struct {
	Building string `json:"building,omitempty"`
	*forecast.Result
	Results []buildingResult `json:"results,omitempty"`
}

func NewHandler(cfg *Config, forecaster Forecaster) (http.Handler, error) {
	if forecaster == nil {
		return nil, fmt.Errorf("forecaster instance is not defined")
	}
	return &handler{
		cfg:        cfg,
		forecaster: forecaster,
	}, nil
}

type handler struct {
	forecaster Forecaster
	cfg        *Config
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req request
	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RequestTimeout)
	defer cancel()
	logger := logging.FromContext(ctx)

	if !httputil.DecodeJSON(ctx, w, r, &req) {
		return
	}
	if len(req.Datasets) > h.cfg.MaxDatasets {
		httputil.RespBadRequest(ctx, w, "datasets is too large, max allowed len is %d", h.cfg.MaxDatasets)
		return
	}
	if req.HorizonDays > h.cfg.MaxHorizonDays {
		httputil.RespBadRequest(ctx, w, "horizon_days is too large, max allowed is %d", h.cfg.MaxHorizonDays)
		return
	}

	groups := groupByBuilding(req.Datasets)
	if len(groups) == 0 {
		respForecastErr(ctx, w, forecast.ErrNoData)
		return
	}

	// buildings are forecast independently, a failing one does not cancel the others
	results := make([]buildingResult, len(groups))
	var errGrp errgroup.Group
	for i := range groups {
		i := i
		errGrp.Go(func() error {
			start := time.Now()
			result, err := h.forecaster.FitAndForecast(ctx, groups[i].datasets, req.HorizonDays)
			metrics.RecordForecast(ctx, time.Since(start), err)
			results[i] = buildingResult{Building: groups[i].building, Result: result}
			if err != nil {
				results[i].Result = nil
				results[i].err = fmt.Errorf("building %q: %w", groups[i].building, err)
				results[i].Error = results[i].err.Error()
			}
			return nil
		})
	}
	_ = errGrp.Wait()
	if err := ctx.Err(); err != nil {
		respForecastErr(ctx, w, fmt.Errorf("forecast of %d buildings: %w", len(groups), err))
		return
	}

	if len(results) == 1 {
		if results[0].err != nil {
			respForecastErr(ctx, w, results[0].err)
			return
		}
		logger.Infof("forecast of building %q, horizon %d days", results[0].Building, req.HorizonDays)
		httputil.RespJSON(ctx, w, http.StatusOK, response{Building: results[0].Building, Result: results[0].Result})
		return
	}

	var failed int
	for i := range results {
		if results[i].err != nil {
			failed++
			logger.Warnf("forecast failed: %v", results[i].err)
		}
	}
	logger.Infof("forecast of %d buildings, %d failed, horizon %d days", len(results), failed, req.HorizonDays)
	httputil.RespJSON(ctx, w, http.StatusOK, response{Results: results})
}

type group struct {
	building string
	datasets []model.Dataset
}

// groupByBuilding partitions datasets by building, ordered by name. A dataset
// without a building takes the building of its first row.
func groupByBuilding(datasets []model.Dataset) []group {
	index := map[string]int{}
	var groups []group
	for _, ds := range datasets {
		building := ds.Building
		if building == "" && len(ds.Data) > 0 {
			building = ds.Data[0].Building
		}
		i, ok := index[building]
		if !ok {
			i = len(groups)
			index[building] = i
			groups = append(groups, group{building: building})
		}
		groups[i].datasets = append(groups[i].datasets, ds)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].building < groups[j].building })
	return groups
}

func respForecastErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case forecast.NotFound(err):
		httputil.RespNotFound(ctx, w, "%v", err)
	case errors.Is(err, context.DeadlineExceeded):
		httputil.RespError(ctx, w, http.StatusGatewayTimeout, "%v", err)
	default:
		httputil.RespInternalError(ctx, w, "%v", err)
	}
}
