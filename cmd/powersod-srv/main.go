package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/go-sod/powersod/internal/alert"
	"github.com/go-sod/powersod/internal/analyze"
	anomalyDb "github.com/go-sod/powersod/internal/anomaly/database"
	"github.com/go-sod/powersod/internal/buildinfo"
	"github.com/go-sod/powersod/internal/collect"
	powersod "github.com/go-sod/powersod/internal/config"
	"github.com/go-sod/powersod/internal/ingest"
	"github.com/go-sod/powersod/internal/logging"
	"github.com/go-sod/powersod/internal/metrics"
	"github.com/go-sod/powersod/internal/predict"
	readingDb "github.com/go-sod/powersod/internal/reading/database"
	"github.com/go-sod/powersod/internal/server"
	"github.com/go-sod/powersod/internal/setup"
	"github.com/go-sod/powersod/internal/shutdown"
	"github.com/go-sod/powersod/internal/srvenv"
	"github.com/go-sod/powersod/internal/statistics"
)

// managers started by run, each reports once on shutdownCh when it stops
const managersCount = 3

func main() {
	_, _ = fmt.Fprint(os.Stdout, buildinfo.Graffiti)
	_, _ = fmt.Fprintln(os.Stdout, buildinfo.Info.String())

	ctx, done := shutdown.New()
	defer done()
	logger := logging.FromContext(ctx)
	if err := run(ctx, done); err != nil {
		logger.Fatal(err)
	}
}

func run(ctx context.Context, cancel func()) error {
	logger := logging.FromContext(ctx)
	config := powersod.Config{}
	env, err := setup.Setup(ctx, &config)
	if err != nil {
		return fmt.Errorf("setup.Setup: %w", err)
	}
	defer func() {
		if err := env.Close(context.Background()); err != nil {
			logger.Errorf("unable close server environment: %v", err)
		}
	}()

	shutdownCh := make(chan error, managersCount)
	notifier, err := env.ProvideNotifier()(shutdownCh)
	if err != nil {
		return fmt.Errorf("notifier provider function error: %w", err)
	}
	collector, err := env.ProvideIngest()(shutdownCh)
	if err != nil {
		return fmt.Errorf("ingest provider function error: %w", err)
	}
	refresher, err := env.ProvideRefresh()(shutdownCh)
	if err != nil {
		return fmt.Errorf("refresh provider function error: %w", err)
	}
	if err := notifier.Run(ctx); err != nil {
		return fmt.Errorf("notifier.Run: %w", err)
	}
	if err := collector.Run(ctx); err != nil {
		return fmt.Errorf("ingest.Run: %w", err)
	}
	if err := refresher.Run(ctx); err != nil {
		return fmt.Errorf("refresh.Run: %w", err)
	}

	mux, err := newMux(ctx, &config, env, collector, notifier)
	if err != nil {
		return err
	}

	srv, err := server.New(config.Server.Addr, config.Server.MaxConnections)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	grpcSrv, err := server.New(config.Server.GRPCAddr, 0)
	if err != nil {
		return fmt.Errorf("server.New: %w", err)
	}
	health, _ := server.NewHealthServer()

	go func() {
		if err := srv.ServeHTTPHandler(ctx, mux); err != nil {
			logger.Errorf("http server: %v", err)
			cancel()
		}
	}()
	go func() {
		if err := grpcSrv.ServeGRPC(ctx, health); err != nil {
			logger.Errorf("grpc server: %v", err)
			cancel()
		}
	}()
	logger.Infof("%s listening on %s, health on %s", buildinfo.Info.Short(), config.Server.Addr, config.Server.GRPCAddr)

	<-ctx.Done()
	var shutdownErr error
	for i := 0; i < managersCount; i++ {
		if err := <-shutdownCh; err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}
	return shutdownErr
}

// newMux registers every API route. Handler construction errors abort startup.
func newMux(ctx context.Context, config *powersod.Config, env *srvenv.SrvEnv, collector ingest.Collector, notifier alert.Notifier) (*http.ServeMux, error) {
	readings := readingDb.New(env.Database())
	anomalies := anomalyDb.New(env.Database())

	exporter, err := metrics.NewExporter()
	if err != nil {
		return nil, fmt.Errorf("metrics.NewExporter: %w", err)
	}

	handlers := []struct {
		pattern string
		build   func() (http.Handler, error)
	}{
		{"/collect", func() (http.Handler, error) { return collect.NewHandler(&config.Collect, collector) }},
		{"/predict", func() (http.Handler, error) { return predict.NewHandler(&config.Predict, env.Forecaster()) }},
		{"/analyze-anomalies", func() (http.Handler, error) {
			return analyze.NewAnalyzeHandler(&config.Analyze, readings, anomalies, notifier)
		}},
		{"/detect-anomalies", func() (http.Handler, error) { return analyze.NewDetectHandler(&config.Analyze) }},
		{"/get-anomalies", func() (http.Handler, error) { return analyze.NewListHandler(&config.Analyze, anomalies) }},
		{"/update-anomaly-status", func() (http.Handler, error) { return analyze.NewStatusHandler(&config.Analyze, anomalies) }},
		{"/stats", func() (http.Handler, error) { return statistics.NewHandler(&config.Statistics, env.Statistics()) }},
	}

	mux := http.NewServeMux()
	for _, h := range handlers {
		handler, err := h.build()
		if err != nil {
			return nil, fmt.Errorf("handler %s: %w", h.pattern, err)
		}
		mux.Handle(h.pattern, handler)
	}
	mux.Handle("/metrics", exporter)
	mux.Handle("/health", server.HandleHealth(ctx))
	return mux, nil
}
