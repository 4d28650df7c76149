package history_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/jamal/internal/domain/history"
	"github.com/okian/jamal/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func eval(id string, src model.Source, at time.Duration, overall float64, head, neck, hump, body, legs float64) model.Evaluation {
	return model.Evaluation{
		ID:        id,
		SubjectID: "camel-1",
		Source:    src,
		Profile:   "5-region",
		Overall:   overall,
		CreatedAt: t0.Add(at),
		Scores: model.SubScores{
			model.RegionHead: head,
			model.RegionNeck: neck,
			model.RegionHump: hump,
			model.RegionBody: body,
			model.RegionLegs: legs,
		},
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	Convey("Given the default analyzer", t, func() {
		an := history.NewAnalyzer()

		Convey("When the history is empty", func() {
			_, err := an.Analyze(nil)

			Convey("Then it fails with ErrEmptyHistory", func() {
				So(errors.Is(err, history.ErrEmptyHistory), ShouldBeTrue)
			})
		})

		Convey("When three evaluations arrive out of order", func() {
			evals := []model.Evaluation{
				eval("e3", model.SourceExpert, 2*time.Hour, 85, 90, 90, 80, 85, 80),
				eval("e1", model.SourceExpert, 0, 60, 60, 60, 60, 60, 60),
				eval("e2", model.SourceExpert, time.Hour, 70, 70, 75, 65, 70, 70),
			}
			rep, err := an.Analyze(evals)

			Convey("Then the aggregates follow chronological order", func() {
				So(err, ShouldBeNil)
				So(rep.Count, ShouldEqual, 3)
				So(rep.AverageScore, ShouldEqual, 71.67)
				So(rep.BestScore, ShouldEqual, 85.0)
				So(rep.FirstScore, ShouldEqual, 60.0)
				So(rep.LatestScore, ShouldEqual, 85.0)
				So(rep.Improvement, ShouldEqual, 25.0)
			})

			Convey("Then the input slice is untouched", func() {
				So(evals[0].ID, ShouldEqual, "e3")
			})

			Convey("Then region strengths and weaknesses are ranked", func() {
				So(rep.RegionAverages[model.RegionNeck], ShouldEqual, 75.0)
				So(rep.RegionAverages[model.RegionHump], ShouldEqual, 68.33)
				So(rep.Strengths, ShouldResemble, []model.Region{model.RegionNeck, model.RegionHead})
				So(rep.Weaknesses, ShouldResemble, []model.Region{model.RegionHump, model.RegionLegs})
			})

			Convey("Then no divergence is reported for a single source", func() {
				So(rep.HasDivergence(), ShouldBeFalse)
				So(rep.ExpertCount, ShouldEqual, 3)
			})
		})

		Convey("When region averages tie", func() {
			rep, err := an.Analyze([]model.Evaluation{
				eval("e1", model.SourceExpert, 0, 50, 50, 50, 50, 50, 50),
			})

			Convey("Then canonical order breaks the tie", func() {
				So(err, ShouldBeNil)
				So(rep.Strengths, ShouldResemble, []model.Region{model.RegionHead, model.RegionNeck})
				So(rep.Weaknesses, ShouldResemble, []model.Region{model.RegionHead, model.RegionNeck})
			})
		})

		Convey("When automated and expert evaluations are mixed", func() {
			auto := model.Evaluation{
				ID: "a1", SubjectID: "camel-1", Source: model.SourceAutomated, Overall: 80, CreatedAt: t0,
				Scores: model.SubScores{model.RegionHead: 80, model.RegionNeck: 70, model.RegionBody: 90, model.RegionSize: 85},
			}
			expert := eval("x1", model.SourceExpert, time.Hour, 75, 70, 72, 60, 88, 65)
			rep, err := an.Analyze([]model.Evaluation{auto, expert})

			Convey("Then divergence covers only the regions both sources scored", func() {
				So(err, ShouldBeNil)
				So(rep.HasDivergence(), ShouldBeTrue)
				So(rep.SourceDivergence, ShouldResemble, map[model.Region]float64{
					model.RegionHead: 10,
					model.RegionNeck: 2,
					model.RegionBody: 2,
				})
				So(rep.Improvement, ShouldEqual, -5.0)
			})

			Convey("Then each region is averaged over the evaluations carrying it", func() {
				So(rep.RegionAverages, ShouldResemble, map[model.Region]float64{
					model.RegionHead: 75,
					model.RegionNeck: 71,
					model.RegionHump: 60,
					model.RegionBody: 89,
					model.RegionLegs: 65,
					model.RegionSize: 85,
				})
				So(rep.Strengths, ShouldResemble, []model.Region{model.RegionBody, model.RegionSize})
				So(rep.Weaknesses, ShouldResemble, []model.Region{model.RegionHump, model.RegionLegs})
			})
		})

		Convey("When only the detector has scored the camel", func() {
			rep, err := an.Analyze([]model.Evaluation{{
				ID: "a1", SubjectID: "camel-1", Source: model.SourceAutomated, Overall: 84.6, CreatedAt: t0,
				Scores: model.SubScores{model.RegionHead: 90, model.RegionNeck: 95, model.RegionBody: 60, model.RegionSize: 99},
			}})

			Convey("Then only the detector regions are reported", func() {
				So(err, ShouldBeNil)
				So(rep.RegionAverages, ShouldHaveLength, 4)
				_, hasHump := rep.RegionAverages[model.RegionHump]
				So(hasHump, ShouldBeFalse)
				So(rep.Strengths, ShouldResemble, []model.Region{model.RegionSize, model.RegionNeck})
				So(rep.Weaknesses, ShouldResemble, []model.Region{model.RegionBody, model.RegionHead})
			})
		})

		Convey("When a region falls outside the preferred order", func() {
			rep, err := an.Analyze([]model.Evaluation{{
				ID: "s1", SubjectID: "camel-1", Source: model.SourceExpert, Overall: 50, CreatedAt: t0,
				Scores: model.SubScores{"tail": 50, "coat": 50, model.RegionHead: 50},
			}})

			Convey("Then it follows the known regions by name", func() {
				So(err, ShouldBeNil)
				So(rep.Strengths, ShouldResemble, []model.Region{model.RegionHead, "coat"})
			})
		})

		Convey("When timestamps are equal", func() {
			rep, err := an.Analyze([]model.Evaluation{
				eval("e1", model.SourceExpert, 0, 40, 0, 0, 0, 0, 0),
				eval("e2", model.SourceExpert, 0, 90, 0, 0, 0, 0, 0),
			})

			Convey("Then input order is kept for first and latest", func() {
				So(err, ShouldBeNil)
				So(rep.FirstScore, ShouldEqual, 40.0)
				So(rep.LatestScore, ShouldEqual, 90.0)
			})
		})
	})
}
