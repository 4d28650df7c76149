package model_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/okian/jamal/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNewSubjectProfile(t *testing.T) {
	convey.Convey("Given a subject profile", t, func() {
		base := model.SubjectProfile{
			ID:       "camel-1",
			Name:     "Shaheen",
			Sex:      " Female ",
			Age:      6,
			Location: "riyadh",
			Scores:   model.SubScores{model.RegionHead: 80, model.RegionNeck: 75},
		}

		convey.Convey("When it is valid", func() {
			p, err := model.NewSubjectProfile(base)

			convey.Convey("Then sex is normalized and scores are copied", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Sex, convey.ShouldEqual, model.SexFemale)
				convey.So(p.CreatedAt.IsZero(), convey.ShouldBeFalse)
				base.Scores[model.RegionHead] = 1
				convey.So(p.Scores.Get(model.RegionHead), convey.ShouldEqual, 80.0)
			})
		})

		convey.Convey("When the id is missing", func() {
			base.ID = ""
			_, err := model.NewSubjectProfile(base)

			convey.Convey("Then it is rejected as an invalid profile", func() {
				convey.So(errors.Is(err, model.ErrInvalidProfile), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the sex is unknown", func() {
			base.Sex = "other"
			_, err := model.NewSubjectProfile(base)

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, model.ErrInvalidProfile), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a score is out of range", func() {
			base.Scores = model.SubScores{model.RegionHead: 101}
			_, err := model.NewSubjectProfile(base)

			convey.Convey("Then it reports a score range error", func() {
				convey.So(errors.Is(err, model.ErrInvalidScoreRange), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the score map is nil", func() {
			base.Scores = nil
			p, err := model.NewSubjectProfile(base)

			convey.Convey("Then an empty map is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Scores, convey.ShouldNotBeNil)
				convey.So(p.Scores.Get(model.RegionBody), convey.ShouldEqual, 0.0)
			})
		})
	})
}

func TestSubScores(t *testing.T) {
	convey.Convey("Given sub-scores", t, func() {
		s := model.SubScores{model.RegionHead: 50, model.RegionBody: 60}

		convey.Convey("Then missing regions keep the requested order", func() {
			missing := s.Missing([]model.Region{model.RegionHead, model.RegionNeck, model.RegionBody, model.RegionSize})
			convey.So(missing, convey.ShouldResemble, []model.Region{model.RegionNeck, model.RegionSize})
		})

		convey.Convey("Then NaN is outside the valid range", func() {
			convey.So(model.InRange(math.NaN()), convey.ShouldBeFalse)
			convey.So(model.InRange(0), convey.ShouldBeTrue)
			convey.So(model.InRange(100), convey.ShouldBeTrue)
			convey.So(model.InRange(-0.01), convey.ShouldBeFalse)
		})
	})
}

func TestNewEvaluation(t *testing.T) {
	convey.Convey("Given an evaluation", t, func() {
		e := model.Evaluation{
			ID:        "eval-1",
			SubjectID: "camel-1",
			Source:    model.SourceExpert,
			Profile:   "5-region",
			Scores:    model.SubScores{model.RegionHead: 80},
			CreatedAt: time.Now(),
		}

		convey.Convey("When required fields are present", func() {
			_, err := model.NewEvaluation(e)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("When the source is unknown", func() {
			e.Source = "crowd"
			_, err := model.NewEvaluation(e)
			convey.So(errors.Is(err, model.ErrInvalidEvaluation), convey.ShouldBeTrue)
		})

		convey.Convey("When the timestamp is missing", func() {
			e.CreatedAt = time.Time{}
			_, err := model.NewEvaluation(e)
			convey.So(errors.Is(err, model.ErrInvalidEvaluation), convey.ShouldBeTrue)
		})
	})
}

func TestListingRecord(t *testing.T) {
	convey.Convey("Given a listing", t, func() {
		l := model.Listing{
			ID:         "l-1",
			Title:      "Majaheem she-camel",
			Price:      120000,
			Negotiable: true,
			Scores:     model.SubScores{model.RegionNeck: 88},
		}

		convey.Convey("Then named fields resolve through the record accessors", func() {
			title, ok := l.Text("title")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(title, convey.ShouldEqual, "Majaheem she-camel")

			price, ok := l.Number("price")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(price, convey.ShouldEqual, 120000)

			neck, ok := l.Number("neck")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(neck, convey.ShouldEqual, 88)

			neg, ok := l.Flag("negotiable")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(neg, convey.ShouldBeTrue)

			_, ok = l.Text("unknown")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then validation rejects a negative price", func() {
			l.Price = -1
			convey.So(model.ValidateListing(l), convey.ShouldNotBeNil)
		})
	})
}
