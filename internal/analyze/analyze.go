// Package analyze exposes anomaly detection over HTTP: detection over stored
// or supplied readings, listing of stored anomalies and operator status updates.
package analyze

import (
	"context"
	"strings"
	"time"

	"github.com/go-sod/powersod/internal/anomaly"
	anomalyDb "github.com/go-sod/powersod/internal/anomaly/database"
	"github.com/go-sod/powersod/internal/anomaly/lof"
	"github.com/go-sod/powersod/internal/anomaly/model"
	readingModel "github.com/go-sod/powersod/internal/reading/model"
	"github.com/google/uuid"
)

// ReadingFinder loads the readings of a building over [from, to).
type ReadingFinder interface {
	FindByBuilding(ctx context.Context, building string, from, to time.Time) ([]readingModel.Reading, error)
}

// Repository is the anomaly persistence used by the handlers.
type Repository interface {
	anomaly.Store
	FindAll(ctx context.Context, filter anomalyDb.Filter) ([]model.Anomaly, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, kind model.StatusKind, value bool) (model.Anomaly, error)
}

// detectParams is the tuning shared by the detection endpoints. Omitted
// fields fall back to the detector defaults.
type detectParams struct {
	Method        model.Method `json:"method"`
	Threshold     *float64     `json:"threshold"`
	NNeighbors    int          `json:"n_neighbors"`
	Contamination *float64     `json:"contamination"`
	Distance      string       `json:"distance"`
}

func (p detectParams) resolve(defaults lof.Config) (model.Method, anomaly.Params) {
	method := p.Method
	if method == 0 {
		method = model.MethodZScore
	}
	params := anomaly.DefaultParams()
	if p.Threshold != nil {
		params.Threshold = *p.Threshold
	}
	params.NNeighbors = defaults.KNum
	if p.NNeighbors > 0 {
		params.NNeighbors = p.NNeighbors
	}
	params.Contamination = defaults.Contamination
	if p.Contamination != nil {
		params.Contamination = *p.Contamination
	}
	params.Distance = defaults.MetricFuncType
	if p.Distance != "" {
		params.Distance = lof.DistanceFuncType(strings.ToUpper(p.Distance))
	}
	params.Algorithm = defaults.AlgType
	return method, params
}

type severityCount struct {
	Critical int `json:"critical"`
	Error    int `json:"error"`
	Warning  int `json:"warning"`
}

func countSeverities(anomalies []model.Anomaly) severityCount {
	var c severityCount
	for _, a := range anomalies {
		switch a.Severity {
		case model.SeverityCritical:
			c.Critical++
		case model.SeverityError:
			c.Error++
		case model.SeverityWarning:
			c.Warning++
		}
	}
	return c
}
