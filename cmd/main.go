package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/jamal/internal/adapters/detector"
	"github.com/okian/jamal/internal/adapters/http/api"
	"github.com/okian/jamal/internal/adapters/http/swagger"
	"github.com/okian/jamal/internal/adapters/repository"
	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/config"
	"github.com/okian/jamal/pkg/logger"
	"github.com/okian/jamal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	registerRuntimeCollectors(metrics.GetRegistry())

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
	log.Info(ctx, "server stopped")
}

// run builds the service and serves HTTP until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}

	registry, err := service.RegistryFromProfiles(cfg.WeightProfiles)
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("weight profiles: %w", err)
	}

	svc := service.New(
		service.WithLogger(log),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithStore(store),
		service.WithRegistry(registry),
		service.WithDetector(newDetector(cfg)),
		service.WithBeautyThreshold(cfg.BeautyThreshold),
	)
	if err := svc.Start(ctx); err != nil {
		_ = store.Close()
		return fmt.Errorf("start service: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		startServiceMetricsUpdater(gctx, svc)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(gctx, "shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := srv.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
		if err := svc.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("service stop: %w", err))
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// newMux registers the API and docs routes.
func newMux(ctx context.Context, cfg *config.Config, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc,
		api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit),
		api.WithMaxQueryLimit(cfg.MaxQueryLimit),
	).Register(ctx, mux)
	return mux
}

// openStore returns a SQLite store when store_path is set, memory otherwise.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.StorePath == "" {
		return repository.NewMemoryStore(), nil
	}
	st, err := repository.OpenSQLite(ctx, cfg.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// newDetector builds the configured detector behind the rate limiter.
func newDetector(cfg *config.Config) detector.Detector {
	var d detector.Detector
	switch cfg.DetectorMode {
	case config.DetectorHTTP:
		d = detector.NewHTTP(cfg.DetectorURL,
			detector.WithAPIKey(cfg.DetectorAPIKey),
			detector.WithTimeout(cfg.DetectorTimeout()),
		)
	default:
		lo, hi := cfg.DetectorLatency()
		d = detector.NewSimulated(detector.WithLatencyRange(lo, hi))
	}
	if cfg.DetectorRatePerSec <= 0 {
		return d
	}
	burst := cfg.DetectorBurst
	if burst < 1 {
		burst = 1
	}
	return detector.RateLimited(d, rate.Limit(cfg.DetectorRatePerSec), burst)
}

// registerRuntimeCollectors adds Go runtime and process metrics to reg.
func registerRuntimeCollectors(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				logger.Get().Warn(context.Background(), "collector registration failed", logger.Error(err))
			}
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	st := svc.GetStats(ctx)
	metrics.UpdateQueueSize(st.QueueLength)
	metrics.UpdateQueueCapacity(st.QueueCapacity)
	metrics.UpdateWorkerCount(st.WorkerCount)
	metrics.UpdateCamelsRanked(st.CamelsRanked)
}
