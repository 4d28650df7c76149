package seed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/jamal/internal/adapters/http/api"
	"github.com/okian/jamal/internal/adapters/repository"
	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/internal/seed"
	. "github.com/smartystreets/goconvey/convey"
)

func newServer(ctx context.Context) (*httptest.Server, *service.Service) {
	svc := service.New(service.WithWorkerCount(1), service.WithQueueSize(8))
	So(svc.Start(ctx), ShouldBeNil)
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	return httptest.NewServer(mux), svc
}

func TestGenerator(t *testing.T) {
	Convey("Given two generators with the same seed", t, func() {
		a := seed.NewGenerator(42).Generate(10, 2, 4)
		b := seed.NewGenerator(42).Generate(10, 2, 4)

		Convey("Then sizes follow the request", func() {
			So(len(a.Camels), ShouldEqual, 10)
			So(len(a.Evaluations), ShouldEqual, 20)
			So(len(a.Listings), ShouldEqual, 4)
		})

		Convey("Then attributes and scores are reproducible", func() {
			for i := range a.Camels {
				So(a.Camels[i].Name, ShouldEqual, b.Camels[i].Name)
				So(a.Camels[i].Scores, ShouldResemble, b.Camels[i].Scores)
				So(a.Camels[i].ID, ShouldNotEqual, b.Camels[i].ID)
			}
		})

		Convey("Then every record is valid for the service", func() {
			agg := scoring.NewAggregator()
			for _, c := range a.Camels {
				_, err := model.NewSubjectProfile(c)
				So(err, ShouldBeNil)
				_, err = agg.Aggregate(c.Scores, scoring.FourRegion)
				So(err, ShouldBeNil)
			}
			for _, e := range a.Evaluations {
				_, err := agg.Aggregate(e.Scores, e.Profile)
				So(err, ShouldBeNil)
			}
			for i, l := range a.Listings {
				So(l.CamelID, ShouldEqual, a.Camels[i%len(a.Camels)].ID)
				So(l.Price, ShouldBeGreaterThanOrEqualTo, 5000.0)
			}
		})
	})
}

func TestVerify(t *testing.T) {
	Convey("Given expected rows with a tie", t, func() {
		expected := []seed.Ranked{
			{CamelID: "a", Score: 90},
			{CamelID: "b", Score: 80},
			{CamelID: "c", Score: 80},
			{CamelID: "d", Score: 70},
		}

		Convey("Then a matching leaderboard passes", func() {
			entries := []repository.Entry{
				{Rank: 1, CamelID: "a", Score: 90},
				{Rank: 2, CamelID: "b", Score: 80},
				{Rank: 2, CamelID: "c", Score: 80},
			}
			So(seed.Verify(expected, entries, 3), ShouldBeNil)
		})

		Convey("Then wrong order fails", func() {
			entries := []repository.Entry{
				{Rank: 1, CamelID: "b", Score: 80},
				{Rank: 2, CamelID: "a", Score: 90},
			}
			So(errors.Is(seed.Verify(expected, entries, 2), seed.ErrVerification), ShouldBeTrue)
		})

		Convey("Then dense ranks fail", func() {
			entries := []repository.Entry{
				{Rank: 1, CamelID: "a", Score: 90},
				{Rank: 2, CamelID: "b", Score: 80},
				{Rank: 2, CamelID: "c", Score: 80},
				{Rank: 3, CamelID: "d", Score: 70},
			}
			So(errors.Is(seed.Verify(expected, entries, 4), seed.ErrVerification), ShouldBeTrue)
		})

		Convey("Then a short leaderboard fails", func() {
			So(errors.Is(seed.Verify(expected, nil, 2), seed.ErrVerification), ShouldBeTrue)
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a running server", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		srv, svc := newServer(ctx)
		Reset(func() {
			srv.Close()
			_ = svc.Stop(ctx)
			cancel()
		})

		Convey("When a seed run completes", func() {
			out := filepath.Join(t.TempDir(), "fixtures", "seed.yaml")
			stats, err := seed.Run(ctx, seed.Config{
				BaseURL:             srv.URL,
				Camels:              20,
				EvaluationsPerCamel: 2,
				Listings:            5,
				TopN:                10,
				Workers:             4,
				Timeout:             5 * time.Second,
				Seed:                7,
				OutputFile:          out,
			})

			Convey("Then everything was posted and verified", func() {
				So(err, ShouldBeNil)
				So(stats.CamelsPosted, ShouldEqual, int64(20))
				So(stats.EvaluationsPosted, ShouldEqual, int64(40))
				So(stats.ListingsPosted, ShouldEqual, int64(5))
				So(stats.LeaderboardEntries, ShouldEqual, 10)
				So(svc.GetStats(ctx).CamelsRanked, ShouldEqual, 20)
			})

			Convey("Then the fixture was saved and loads back", func() {
				So(err, ShouldBeNil)
				f, err := seed.LoadFixture(out)
				So(err, ShouldBeNil)
				So(len(f.Camels), ShouldEqual, 20)
				So(len(f.Evaluations), ShouldEqual, 40)
				So(len(f.Listings), ShouldEqual, 5)
				So(f.Evaluations[0].Profile, ShouldEqual, scoring.FiveRegion)
			})
		})

		Convey("When the server rejects a record", func() {
			f := seed.Fixture{Evaluations: []service.EvaluationInput{{SubjectID: "ghost", Scores: model.SubScores{}}}}
			_, err := seed.Submit(ctx, seed.NewClient(srv.URL, time.Second), f, 2)

			Convey("Then the status error surfaces", func() {
				So(errors.Is(err, seed.ErrStatus), ShouldBeTrue)
			})
		})
	})

	Convey("Given no server", t, func() {
		_, err := seed.Run(context.Background(), seed.Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second})

		Convey("Then the health check fails", func() {
			So(err, ShouldNotBeNil)
		})
	})
}

func TestParseFixture(t *testing.T) {
	Convey("Given a JSON fixture", t, func() {
		raw := []byte(`{"camels":[{"id":"a","sex":"female","scores":{"head":80}}],"evaluations":[{"camel_id":"a","scores":{"head":80}}]}`)

		Convey("Then it parses with the API field names", func() {
			f, err := seed.ParseFixture(raw)
			So(err, ShouldBeNil)
			So(f.Camels[0].Sex, ShouldEqual, model.SexFemale)
			So(f.Camels[0].Scores[model.RegionHead], ShouldEqual, 80.0)
			So(f.Evaluations[0].SubjectID, ShouldEqual, "a")
		})
	})

	Convey("Given malformed input", t, func() {
		_, err := seed.ParseFixture([]byte("camels: [\n"))
		So(err, ShouldNotBeNil)
	})
}
