package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/jamal/internal/adapters/detector"
	"github.com/okian/jamal/internal/adapters/repository"
	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/config"
	"github.com/okian/jamal/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smartystreets/goconvey/convey"
)

func TestMainFunction(t *testing.T) {
	convey.Convey("Given the main application", t, func() {
		convey.Convey("When testing configuration loading", func() {
			t.Setenv("JAMAL_ADDR", ":8080")
			t.Setenv("JAMAL_QUEUE_SIZE", "1000")
			t.Setenv("JAMAL_WORKER_COUNT", "4")

			convey.Convey("Then configuration should be loadable", func() {
				cfg, err := config.Load(context.Background())
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 1000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 4)
			})
		})

		convey.Convey("When building the detector", func() {
			cfg := config.New(context.Background())

			convey.Convey("Then the default is the simulated detector", func() {
				_, ok := newDetector(cfg).(*detector.Simulated)
				convey.So(ok, convey.ShouldBeTrue)
			})

			convey.Convey("And http mode selects the HTTP detector", func() {
				cfg.DetectorMode = config.DetectorHTTP
				cfg.DetectorURL = "http://detector.local/detect"
				_, ok := newDetector(cfg).(*detector.HTTPDetector)
				convey.So(ok, convey.ShouldBeTrue)
			})

			convey.Convey("And a positive rate wraps it in a limiter", func() {
				cfg.DetectorRatePerSec = 5
				cfg.DetectorBurst = 0
				d := newDetector(cfg)
				_, simulated := d.(*detector.Simulated)
				convey.So(simulated, convey.ShouldBeFalse)
				convey.So(d, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When opening the store", func() {
			ctx := context.Background()
			cfg := config.New(ctx)

			convey.Convey("Then an empty path keeps everything in memory", func() {
				st, err := openStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				_, ok := st.(*repository.MemoryStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(st.Close(), convey.ShouldBeNil)
			})

			convey.Convey("And a path opens SQLite", func() {
				cfg.StorePath = filepath.Join(t.TempDir(), "jamal.db")
				st, err := openStore(ctx, cfg)
				convey.So(err, convey.ShouldBeNil)
				sq, ok := st.(*repository.SQLiteStore)
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(sq.Path(), convey.ShouldEqual, cfg.StorePath)
				convey.So(st.Close(), convey.ShouldBeNil)
			})
		})
	})
}

func TestMux(t *testing.T) {
	convey.Convey("Given a mux over a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		cfg := config.New(ctx)
		svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(4))
		convey.So(svc.Start(ctx), convey.ShouldBeNil)
		convey.Reset(func() {
			_ = svc.Stop(ctx)
			cancel()
		})
		mux := newMux(ctx, cfg, svc)

		convey.Convey("Then API and docs routes are served", func() {
			for _, path := range []string{"/healthz", "/stats", "/leaderboard", "/openapi.yaml", "/api-docs"} {
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, http.NoBody))
				convey.So(w.Code, convey.ShouldEqual, http.StatusOK)
			}
		})

		convey.Convey("And service gauges refresh without panicking", func() {
			convey.So(func() { updateServiceMetrics(ctx, svc) }, convey.ShouldNotPanic)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a configuration on an ephemeral port", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = "127.0.0.1:0"
		cfg.WorkerCount = 2
		cfg.QueueSize = 8

		convey.Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- run(ctx, cfg, logger.Get()) }()
			time.Sleep(100 * time.Millisecond)
			cancel()

			convey.Convey("Then run shuts down cleanly", func() {
				select {
				case err := <-done:
					convey.So(err, convey.ShouldBeNil)
				case <-time.After(10 * time.Second):
					convey.So("run did not return", convey.ShouldBeEmpty)
				}
			})
		})

		convey.Convey("When weight profiles are invalid", func() {
			cfg.WeightProfiles = map[string]map[string]float64{"broken": {"head": 0.5}}

			convey.Convey("Then run fails before serving", func() {
				err := run(context.Background(), cfg, logger.Get())
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestRegisterRuntimeCollectors(t *testing.T) {
	convey.Convey("Given a fresh registry", t, func() {
		reg := prometheus.NewRegistry()

		convey.Convey("Then collectors register once and repeat calls are harmless", func() {
			convey.So(func() {
				registerRuntimeCollectors(reg)
				registerRuntimeCollectors(reg)
			}, convey.ShouldNotPanic)
			families, err := reg.Gather()
			convey.So(err, convey.ShouldBeNil)
			convey.So(len(families), convey.ShouldBeGreaterThan, 0)
		})
	})
}
