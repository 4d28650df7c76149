package config_test

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/jamal/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it has sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.DetectorMode, convey.ShouldEqual, config.DetectorSimulated)
			convey.So(cfg.BeautyThreshold, convey.ShouldEqual, 75.0)
			convey.So(cfg.StorePath, convey.ShouldBeEmpty)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then durations are derived from the millisecond fields", func() {
			lo, hi := cfg.DetectorLatency()
			convey.So(lo, convey.ShouldEqual, 80*time.Millisecond)
			convey.So(hi, convey.ShouldEqual, 150*time.Millisecond)
			convey.So(cfg.DetectorTimeout(), convey.ShouldEqual, 10*time.Second)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a valid config", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("When http mode has no url", func() {
			cfg.DetectorMode = config.DetectorHTTP
			err := cfg.Validate()

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When http mode has a url", func() {
			cfg.DetectorMode = config.DetectorHTTP
			cfg.DetectorURL = "https://detector.example.com/v1/detect"
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When the detector mode is unknown", func() {
			cfg.DetectorMode = "oracle"
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the latency range is inverted", func() {
			cfg.DetectorLatencyMinMS = 200
			cfg.DetectorLatencyMaxMS = 100
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When the threshold is above 100", func() {
			cfg.BeautyThreshold = 120
			convey.So(cfg.Validate(), convey.ShouldNotBeNil)
		})

		convey.Convey("When a weight profile is empty", func() {
			cfg.WeightProfiles = map[string]map[string]float64{"show": {}}
			convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
