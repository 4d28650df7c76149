package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/jamal/internal/adapters/repository"
	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/history"
	"github.com/okian/jamal/internal/domain/model"
	"github.com/okian/jamal/internal/domain/query"
	"github.com/okian/jamal/internal/domain/scoring"
	"github.com/okian/jamal/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func uniform(v float64, regions ...model.Region) model.SubScores {
	out := model.SubScores{}
	for _, r := range regions {
		out[r] = v
	}
	return out
}

var fiveRegions = []model.Region{model.RegionHead, model.RegionNeck, model.RegionHump, model.RegionBody, model.RegionLegs}

func registerHerd(ctx context.Context, svc *service.Service) {
	_, err := svc.RegisterProfile(ctx, model.SubjectProfile{
		ID: "a", Name: "Shaheen", Sex: "female", Age: 5, Location: "riyadh", Breed: "majaheem",
		Scores: model.SubScores{model.RegionHead: 80, model.RegionNeck: 70, model.RegionBody: 90, model.RegionSize: 60},
	})
	So(err, ShouldBeNil)
	_, err = svc.RegisterProfile(ctx, model.SubjectProfile{
		ID: "b", Name: "Dhafer", Sex: "male", Age: 6, Location: "riyadh", Breed: "majaheem",
		Scores: uniform(95, model.RegionHead, model.RegionNeck, model.RegionBody, model.RegionSize),
	})
	So(err, ShouldBeNil)
	_, err = svc.RegisterProfile(ctx, model.SubjectProfile{
		ID: "c", Name: "Wadha", Sex: "female", Age: 2, Location: "jeddah", Breed: "sofor",
	})
	So(err, ShouldBeNil)
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it carries the built-in weight profiles", func() {
			So(svc, ShouldNotBeNil)
			So(svc.Registry().Names(), ShouldResemble, []string{scoring.FourRegion, scoring.FiveRegion})
		})

		Convey("Then stats report a stopped pipeline", func() {
			stats := svc.GetStats(context.Background())
			So(stats.Started, ShouldBeFalse)
			So(stats.QueueLength, ShouldEqual, 0)
		})
	})
}

func TestRegistryFromProfiles(t *testing.T) {
	Convey("Given extra weight profiles from configuration", t, func() {
		Convey("When they are valid", func() {
			r, err := service.RegistryFromProfiles(map[string]map[string]float64{
				"show": {"head": 0.5, "neck": 0.5},
			})

			Convey("Then they join the built-in ones", func() {
				So(err, ShouldBeNil)
				So(r.Names(), ShouldResemble, []string{scoring.FourRegion, scoring.FiveRegion, "show"})
			})
		})

		Convey("When a table does not sum to one", func() {
			_, err := service.RegistryFromProfiles(map[string]map[string]float64{
				"bad": {"head": 0.5},
			})

			Convey("Then startup must fail", func() {
				So(errors.Is(err, scoring.ErrInvalidWeightTable), ShouldBeTrue)
			})
		})

		Convey("When a name collides with a built-in profile", func() {
			_, err := service.RegistryFromProfiles(map[string]map[string]float64{
				scoring.FourRegion: {"head": 1},
			})
			So(errors.Is(err, scoring.ErrInvalidWeightTable), ShouldBeTrue)
		})
	})
}

func TestService_Profiles(t *testing.T) {
	Convey("Given a service with a registered herd", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithIDGenerator(func() string { return "generated" }))
		registerHerd(ctx, svc)

		Convey("Then a complete 4-region profile gets its overall", func() {
			a, err := svc.Profile(ctx, "a")
			So(err, ShouldBeNil)
			So(a.Overall, ShouldEqual, 76.5)
		})

		Convey("Then an incomplete profile keeps overall 0", func() {
			c, err := svc.Profile(ctx, "c")
			So(err, ShouldBeNil)
			So(c.Overall, ShouldEqual, 0.0)
		})

		Convey("When registering without an id", func() {
			p, err := svc.RegisterProfile(ctx, model.SubjectProfile{Sex: "male", Age: 3})
			So(err, ShouldBeNil)
			So(p.ID, ShouldEqual, "generated")
		})

		Convey("When the id is taken", func() {
			_, err := svc.RegisterProfile(ctx, model.SubjectProfile{ID: "a", Sex: "male"})
			So(errors.Is(err, repository.ErrAlreadyExists), ShouldBeTrue)
		})

		Convey("When a score is out of range", func() {
			_, err := svc.RegisterProfile(ctx, model.SubjectProfile{ID: "x", Sex: "male", Scores: model.SubScores{model.RegionHead: 120}})
			So(errors.Is(err, model.ErrInvalidScoreRange), ShouldBeTrue)
		})

		Convey("When querying profiles by sex", func() {
			got, err := svc.QueryProfiles(ctx, query.PredicateSet{Equals: []query.Equal{{Field: "sex", Value: "female"}}}, &query.SortSpec{Field: "age"}, 0)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			So(got[0].ID, ShouldEqual, "c")
			So(got[1].ID, ShouldEqual, "a")
		})

		Convey("When searching profiles without naming fields", func() {
			got, err := svc.QueryProfiles(ctx, query.PredicateSet{Search: query.Search{Term: "SOFOR"}}, nil, 10)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].ID, ShouldEqual, "c")
		})
	})
}

func TestService_Evaluations(t *testing.T) {
	Convey("Given a service with a registered herd", t, func() {
		ctx := context.Background()
		svc := service.New()
		registerHerd(ctx, svc)

		Convey("When an expert evaluation is recorded", func() {
			e, err := svc.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "a", Scores: uniform(60, fiveRegions...)})

			Convey("Then it is scored under the 5-region profile and classified", func() {
				So(err, ShouldBeNil)
				So(e.Profile, ShouldEqual, scoring.FiveRegion)
				So(e.Source, ShouldEqual, model.SourceExpert)
				So(e.Overall, ShouldEqual, 60.0)
				So(e.Category, ShouldEqual, model.CategoryUgly)
			})

			Convey("And a better one raises the leaderboard and history", func() {
				_, err := svc.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "a", Scores: uniform(90, fiveRegions...)})
				So(err, ShouldBeNil)

				top, err := svc.TopN(ctx, 10)
				So(err, ShouldBeNil)
				So(len(top), ShouldEqual, 1)
				So(top[0].CamelID, ShouldEqual, "a")
				So(top[0].Score, ShouldEqual, 90.0)

				rep, err := svc.History(ctx, "a")
				So(err, ShouldBeNil)
				So(rep.Count, ShouldEqual, 2)
				So(rep.AverageScore, ShouldEqual, 75.0)
				So(rep.BestScore, ShouldEqual, 90.0)
				So(rep.Improvement, ShouldEqual, 30.0)
			})
		})

		Convey("When the detector and an expert both score a camel", func() {
			det := model.Detection{Scores: model.SubScores{
				model.RegionHead: 90, model.RegionNeck: 95, model.RegionBody: 60, model.RegionSize: 99,
			}}
			auto, err := svc.RecordDetection(ctx, model.DetectionJob{SubjectID: "a", ImageURL: "https://img.example/a.jpg"}, det)
			So(err, ShouldBeNil)
			So(auto.Profile, ShouldEqual, scoring.FourRegion)

			Convey("Then a detector-only history names the detector's regions", func() {
				rep, err := svc.History(ctx, "a")
				So(err, ShouldBeNil)
				So(rep.Strengths, ShouldResemble, []model.Region{model.RegionSize, model.RegionNeck})
				So(rep.Weaknesses, ShouldResemble, []model.Region{model.RegionBody, model.RegionHead})
				_, hasLegs := rep.RegionAverages[model.RegionLegs]
				So(hasLegs, ShouldBeFalse)
			})

			Convey("Then a mixed history compares only the shared regions", func() {
				_, err := svc.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "a", Scores: uniform(60, fiveRegions...)})
				So(err, ShouldBeNil)

				rep, err := svc.History(ctx, "a")
				So(err, ShouldBeNil)
				So(rep.AutomatedCount, ShouldEqual, 1)
				So(rep.ExpertCount, ShouldEqual, 1)
				So(rep.RegionAverages[model.RegionHead], ShouldEqual, 75.0)
				So(rep.RegionAverages[model.RegionSize], ShouldEqual, 99.0)
				So(rep.RegionAverages[model.RegionHump], ShouldEqual, 60.0)
				So(rep.SourceDivergence, ShouldResemble, map[model.Region]float64{
					model.RegionHead: 30,
					model.RegionNeck: 35,
					model.RegionBody: 0,
				})
				So(rep.Strengths, ShouldResemble, []model.Region{model.RegionSize, model.RegionNeck})
				So(rep.Weaknesses, ShouldResemble, []model.Region{model.RegionHump, model.RegionBody})
			})
		})

		Convey("When a sub-score is out of range", func() {
			scores := uniform(60, fiveRegions...)
			scores[model.RegionHump] = 101
			_, err := svc.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "a", Scores: scores})
			So(errors.Is(err, scoring.ErrInvalidScoreRange), ShouldBeTrue)
		})

		Convey("When the regions do not match the profile", func() {
			_, err := svc.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "a", Scores: uniform(60, model.RegionHead)})
			So(errors.Is(err, scoring.ErrWeightMismatch), ShouldBeTrue)
		})

		Convey("When the profile is unknown", func() {
			_, err := svc.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "a", Profile: "7-region", Scores: uniform(60, fiveRegions...)})
			So(errors.Is(err, scoring.ErrUnknownProfile), ShouldBeTrue)
		})

		Convey("When the camel is unknown", func() {
			_, err := svc.RecordEvaluation(ctx, service.EvaluationInput{SubjectID: "zz", Scores: uniform(60, fiveRegions...)})
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("When a camel has no history", func() {
			_, err := svc.History(ctx, "b")
			So(errors.Is(err, history.ErrEmptyHistory), ShouldBeTrue)

			_, err = svc.History(ctx, "zz")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Compatibility(t *testing.T) {
	Convey("Given a service with a registered herd", t, func() {
		ctx := context.Background()
		svc := service.New()
		registerHerd(ctx, svc)

		Convey("When scoring a against b", func() {
			res, err := svc.Compatibility(ctx, "a", "b")

			Convey("Then sex, quality, locality and age points add up", func() {
				So(err, ShouldBeNil)
				So(res.Score, ShouldEqual, 70)
				So(res.Breakdown.Sex, ShouldEqual, 20)
				So(res.Breakdown.Trait, ShouldEqual, 0)
				So(res.Breakdown.Quality, ShouldEqual, 25)
				So(res.Breakdown.Locality, ShouldEqual, 15)
				So(res.Breakdown.Age, ShouldEqual, 10)
			})
		})

		Convey("When ranking matches for a", func() {
			matches, err := svc.Matches(ctx, "a", 0)

			Convey("Then the subject is skipped and b leads", func() {
				So(err, ShouldBeNil)
				So(len(matches), ShouldEqual, 2)
				So(matches[0].ProfileID, ShouldEqual, "b")
				So(matches[0].Score, ShouldEqual, 70)
				So(matches[1].ProfileID, ShouldEqual, "c")
			})
		})

		Convey("When a camel is unknown", func() {
			_, err := svc.Compatibility(ctx, "a", "zz")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})
	})
}

func TestService_Listings(t *testing.T) {
	Convey("Given a service with listings", t, func() {
		ctx := context.Background()
		svc := service.New()

		_, err := svc.AddListing(ctx, model.Listing{ID: "l1", Title: "Majaheem she-camel", Price: 100, ViewCount: 3})
		So(err, ShouldBeNil)
		_, err = svc.AddListing(ctx, model.Listing{ID: "l2", Title: "Sofor bull", Price: 50, Sex: "Male", ViewCount: 9})
		So(err, ShouldBeNil)
		l3, err := svc.AddListing(ctx, model.Listing{
			ID: "l3", Title: "Show camel", Price: 300,
			Scores: model.SubScores{model.RegionHead: 80, model.RegionNeck: 70, model.RegionBody: 90, model.RegionSize: 60},
		})
		So(err, ShouldBeNil)

		Convey("Then listing scores derive the overall", func() {
			So(l3.Overall, ShouldEqual, 76.5)
		})

		Convey("Then newest keeps the most recent first", func() {
			got, err := svc.QueryListings(ctx, query.PredicateSet{}, query.SortNewest, 0)
			So(err, ShouldBeNil)
			So(ids(got), ShouldResemble, []string{"l3", "l2", "l1"})
		})

		Convey("Then presets order by price and popularity", func() {
			got, err := svc.QueryListings(ctx, query.PredicateSet{}, query.SortPriceLow, 0)
			So(err, ShouldBeNil)
			So(ids(got), ShouldResemble, []string{"l2", "l1", "l3"})

			got, err = svc.QueryListings(ctx, query.PredicateSet{}, query.SortPopular, 2)
			So(err, ShouldBeNil)
			So(ids(got), ShouldResemble, []string{"l2", "l1"})
		})

		Convey("Then search defaults to the marketplace fields", func() {
			got, err := svc.QueryListings(ctx, query.PredicateSet{Search: query.Search{Term: "maja"}}, "", 0)
			So(err, ShouldBeNil)
			So(ids(got), ShouldResemble, []string{"l1"})
		})

		Convey("Then sex is normalized on the way in", func() {
			got, err := svc.QueryListings(ctx, query.PredicateSet{Equals: []query.Equal{{Field: "sex", Value: "male"}}}, "", 0)
			So(err, ShouldBeNil)
			So(ids(got), ShouldResemble, []string{"l2"})
		})

		Convey("Then a sex filter matches regardless of case", func() {
			filter := []query.Equal{{Field: "sex", Value: " Male "}}
			got, err := svc.QueryListings(ctx, query.PredicateSet{Equals: filter}, "", 0)
			So(err, ShouldBeNil)
			So(ids(got), ShouldResemble, []string{"l2"})
			So(filter[0].Value, ShouldEqual, " Male ")
		})

		Convey("When the sort preset is unknown", func() {
			_, err := svc.QueryListings(ctx, query.PredicateSet{}, "cheapest", 0)
			So(errors.Is(err, query.ErrUnknownSort), ShouldBeTrue)
		})

		Convey("When listing scores do not fit 4-region", func() {
			_, err := svc.AddListing(ctx, model.Listing{Title: "x", Scores: model.SubScores{model.RegionHump: 50}})
			So(errors.Is(err, scoring.ErrWeightMismatch), ShouldBeTrue)
		})

		Convey("When the listing is invalid", func() {
			_, err := svc.AddListing(ctx, model.Listing{Title: "x", Price: -5})
			So(errors.Is(err, service.ErrInvalidRequest), ShouldBeTrue)
		})
	})
}

func ids(ls []model.Listing) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.ID
	}
	return out
}
