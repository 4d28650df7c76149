package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/jamal/internal/adapters/detector"
	eventqueue "github.com/okian/jamal/internal/adapters/mq/queue"
	"github.com/okian/jamal/internal/adapters/repository"
	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedDetector() detector.Detector {
	return detector.Func(func(context.Context, detector.Request) (model.Detection, error) {
		return model.Detection{
			Scores:     model.SubScores{model.RegionHead: 80, model.RegionNeck: 70, model.RegionBody: 90, model.RegionSize: 60},
			Confidence: 90,
		}, nil
	})
}

// waitProcessed polls until the pool has handled n jobs.
func waitProcessed(ctx context.Context, svc *service.Service, n int64) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		st := svc.GetStats(ctx)
		if st.Processed+st.Failed >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}

func TestServiceIntegration(t *testing.T) {
	Convey("Given a started service with a fixed detector", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := service.New(
			service.WithWorkerCount(2),
			service.WithQueueSize(100),
			service.WithDedupeSize(500),
			service.WithDetector(fixedDetector()),
		)
		defer func() { _ = svc.Stop(ctx) }()
		registerHerd(ctx, svc)
		So(svc.Start(ctx), ShouldBeNil)
		So(svc.GetStats(ctx).Started, ShouldBeTrue)

		Convey("When a detection is submitted", func() {
			sub, err := svc.SubmitDetection(ctx, service.DetectionRequest{SubjectID: "a", ImageURL: "https://img.example/a.jpg"})
			So(err, ShouldBeNil)
			So(sub.JobID, ShouldNotBeEmpty)
			So(sub.Duplicate, ShouldBeFalse)
			So(waitProcessed(ctx, svc, 1), ShouldBeTrue)

			Convey("Then an automated 4-region evaluation is stored and ranked", func() {
				rep, err := svc.History(ctx, "a")
				So(err, ShouldBeNil)
				So(rep.Count, ShouldEqual, 1)
				So(rep.AutomatedCount, ShouldEqual, 1)
				So(rep.LatestScore, ShouldEqual, 76.5)

				entry, err := svc.Rank(ctx, "a")
				So(err, ShouldBeNil)
				So(entry.Rank, ShouldEqual, 1)
				So(entry.Score, ShouldEqual, 76.5)
			})

			Convey("Then resubmitting the same image is a duplicate", func() {
				again, err := svc.SubmitDetection(ctx, service.DetectionRequest{SubjectID: "a", ImageURL: "https://img.example/a.jpg"})
				So(err, ShouldBeNil)
				So(again.Duplicate, ShouldBeTrue)
				So(again.Key, ShouldEqual, sub.Key)
			})
		})

		Convey("When the camel is not registered", func() {
			_, err := svc.SubmitDetection(ctx, service.DetectionRequest{SubjectID: "zz", ImageURL: "https://img.example/z.jpg"})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When the image is missing", func() {
			_, err := svc.SubmitDetection(ctx, service.DetectionRequest{SubjectID: "a"})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})

		Convey("When the service is stopped", func() {
			So(svc.Stop(ctx), ShouldBeNil)

			Convey("Then it cannot be restarted", func() {
				So(errors.Is(svc.Start(ctx), service.ErrStopped), ShouldBeTrue)
			})
		})
	})
}

func TestServiceBeforeStart(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		ctx := context.Background()
		svc := service.New()
		registerHerd(ctx, svc)

		Convey("Then detections are refused", func() {
			_, err := svc.SubmitDetection(ctx, service.DetectionRequest{SubjectID: "a", ImageURL: "u"})
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})
	})
}

func TestServiceBackpressure(t *testing.T) {
	Convey("Given one worker stuck on a slow detector and a one-slot queue", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		release := make(chan struct{})
		slow := detector.Func(func(ctx context.Context, _ detector.Request) (model.Detection, error) {
			select {
			case <-release:
			case <-ctx.Done():
				return model.Detection{}, ctx.Err()
			}
			return fixedDetector().Detect(ctx, detector.Request{})
		})
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(1),
			service.WithDetector(slow),
		)
		registerHerd(ctx, svc)
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When more detections arrive than fit", func() {
			var rejected error
			accepted := 0
			for i := 0; i < 5 && rejected == nil; i++ {
				_, err := svc.SubmitDetection(ctx, service.DetectionRequest{
					SubjectID: "a",
					ImageURL:  "https://img.example/" + string(rune('a'+i)) + ".jpg",
				})
				if err != nil {
					rejected = err
					break
				}
				accepted++
			}

			Convey("Then the queue pushes back instead of blocking", func() {
				So(errors.Is(rejected, eventqueue.ErrFull), ShouldBeTrue)
				So(accepted, ShouldBeLessThanOrEqualTo, 2)
			})

			Convey("Then a rejected key can be retried after the queue drains", func() {
				close(release)
				So(waitProcessed(ctx, svc, int64(accepted)), ShouldBeTrue)
				_, err := svc.SubmitDetection(ctx, service.DetectionRequest{
					SubjectID: "a",
					ImageURL:  "https://img.example/" + string(rune('a'+accepted)) + ".jpg",
				})
				So(err, ShouldBeNil)
			})
		})

		Reset(func() {
			select {
			case <-release:
			default:
				close(release)
			}
			_ = svc.Stop(ctx)
		})
	})
}

func TestServiceReplaysLeaderboard(t *testing.T) {
	Convey("Given evaluations persisted in sqlite", t, func() {
		ctx := context.Background()
		path := filepath.Join(t.TempDir(), "jamal.db")

		store, err := repository.OpenSQLite(ctx, path)
		So(err, ShouldBeNil)
		first := service.New(service.WithStore(store))
		registerHerd(ctx, first)
		_, err = first.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "a", Scores: uniform(90, fiveRegions...)})
		So(err, ShouldBeNil)
		_, err = first.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "b", Scores: uniform(70, fiveRegions...)})
		So(err, ShouldBeNil)
		So(first.Stop(ctx), ShouldBeNil)

		Convey("When a new service starts on the same file", func() {
			reopened, err := repository.OpenSQLite(ctx, path)
			So(err, ShouldBeNil)
			second := service.New(service.WithStore(reopened), service.WithWorkerCount(1))
			defer func() { _ = second.Stop(ctx) }()
			So(second.Start(ctx), ShouldBeNil)

			Convey("Then the leaderboard is rebuilt from history", func() {
				top, err := second.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 2)
				So(top[0].CamelID, ShouldEqual, "a")
				So(top[0].Score, ShouldEqual, 90.0)
				So(top[1].CamelID, ShouldEqual, "b")

				p, err := second.Profile(ctx, "a")
				So(err, ShouldBeNil)
				So(p.Overall, ShouldEqual, 76.5)
			})
		})
	})
}

func TestService_StopDrainsAfterCancel(t *testing.T) {
	Convey("Given detections queued behind a blocked detector", t, func() {
		gate := make(chan struct{})
		gated := detector.Func(func(context.Context, detector.Request) (model.Detection, error) {
			<-gate
			return model.Detection{
				Scores:     model.SubScores{model.RegionHead: 80, model.RegionNeck: 70, model.RegionBody: 90, model.RegionSize: 60},
				Confidence: 90,
			}, nil
		})
		svc := service.New(
			service.WithWorkerCount(1),
			service.WithQueueSize(10),
			service.WithDetector(gated),
		)
		startCtx, cancelStart := context.WithCancel(context.Background())
		registerHerd(startCtx, svc)
		So(svc.Start(startCtx), ShouldBeNil)

		for _, img := range []string{"one.jpg", "two.jpg", "three.jpg"} {
			_, err := svc.SubmitDetection(startCtx, service.DetectionRequest{SubjectID: "a", ImageURL: "https://img.example/" + img})
			So(err, ShouldBeNil)
		}

		Convey("When the start context is cancelled before Stop", func() {
			cancelStart()
			time.Sleep(50 * time.Millisecond)
			close(gate)

			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			So(svc.Stop(stopCtx), ShouldBeNil)

			Convey("Then every accepted detection is still recorded", func() {
				st := svc.GetStats(stopCtx)
				So(st.Processed, ShouldEqual, int64(3))
				So(st.Failed, ShouldEqual, int64(0))
				So(st.CamelsRanked, ShouldEqual, 1)
			})
		})
	})
}
