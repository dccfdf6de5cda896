// Package metrics defines the service measures and exposes them in the
// Prometheus text format.
package metrics

import (
	"context"
	"fmt"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"github.com/go-sod/powersod/internal/anomaly/model"
	"github.com/go-sod/powersod/internal/logging"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const Namespace = "powersod"

var (
	KeyMethod   = tag.MustNewKey("method")
	KeySeverity = tag.MustNewKey("severity")
	KeyResult   = tag.MustNewKey("result")
)

var (
	AnomaliesDetected = stats.Int64("anomalies_detected", "Anomalies flagged by detection", stats.UnitDimensionless)
	ReadingsCollected = stats.Int64("readings_collected", "Readings accepted by the collector", stats.UnitDimensionless)
	ForecastLatency   = stats.Float64("forecast_latency", "Duration of a forecast fit", stats.UnitMilliseconds)
	ForecastRuns      = stats.Int64("forecast_runs", "Forecast fits by result", stats.UnitDimensionless)
	CacheLookups      = stats.Int64("cache_lookups", "Statistics cache lookups by result", stats.UnitDimensionless)
)

var Views = []*view.View{
	{
		Name:        "anomalies_detected_total",
		Measure:     AnomaliesDetected,
		Description: AnomaliesDetected.Description(),
		TagKeys:     []tag.Key{KeyMethod, KeySeverity},
		Aggregation: view.Sum(),
	},
	{
		Name:        "readings_collected_total",
		Measure:     ReadingsCollected,
		Description: ReadingsCollected.Description(),
		Aggregation: view.Sum(),
	},
	{
		Name:        "forecast_latency_ms",
		Measure:     ForecastLatency,
		Description: ForecastLatency.Description(),
		Aggregation: view.Distribution(10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000),
	},
	{
		Name:        "forecast_runs_total",
		Measure:     ForecastRuns,
		Description: ForecastRuns.Description(),
		TagKeys:     []tag.Key{KeyResult},
		Aggregation: view.Count(),
	},
	{
		Name:        "cache_lookups_total",
		Measure:     CacheLookups,
		Description: CacheLookups.Description(),
		TagKeys:     []tag.Key{KeyResult},
		Aggregation: view.Count(),
	},
}

// NewExporter registers the views and returns the /metrics handler.
func NewExporter() (*prometheus.Exporter, error) {
	if err := view.Register(Views...); err != nil {
		return nil, fmt.Errorf("unable register views: %w", err)
	}
	pe, err := prometheus.NewExporter(prometheus.Options{Namespace: Namespace})
	if err != nil {
		return nil, fmt.Errorf("unable create prometheus exporter: %w", err)
	}
	view.RegisterExporter(pe)
	return pe, nil
}

func record(ctx context.Context, mutators []tag.Mutator, ms ...stats.Measurement) {
	if err := stats.RecordWithTags(ctx, mutators, ms...); err != nil {
		logging.FromContext(ctx).Debugf("unable record measurement: %v", err)
	}
}

func RecordAnomalies(ctx context.Context, anomalies []model.Anomaly) {
	for _, a := range anomalies {
		record(ctx, []tag.Mutator{
			tag.Upsert(KeyMethod, a.Method.String()),
			tag.Upsert(KeySeverity, a.Severity.String()),
		}, AnomaliesDetected.M(1))
	}
}

func RecordCollected(ctx context.Context, n int) {
	record(ctx, nil, ReadingsCollected.M(int64(n)))
}

func RecordForecast(ctx context.Context, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	record(ctx, []tag.Mutator{tag.Upsert(KeyResult, result)},
		ForecastLatency.M(float64(elapsed)/float64(time.Millisecond)),
		ForecastRuns.M(1),
	)
}

func RecordCacheLookup(ctx context.Context, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	record(ctx, []tag.Mutator{tag.Upsert(KeyResult, result)}, CacheLookups.M(1))
}
