package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Sex of a camel.
type Sex string

// Sex values.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

var validate = validator.New(validator.WithRequiredStructEnabled()) //nolint:gochecknoglobals // shared, goroutine-safe validator

// SubjectProfile is a camel being scored or matched for breeding.
// Overall is derived from Scores and is filled in by the scoring layer.
type SubjectProfile struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name"`
	Sex       Sex       `json:"sex" validate:"required,oneof=male female"`
	Age       int       `json:"age" validate:"gte=0,lte=60"`
	Location  string    `json:"location_province"`
	City      string    `json:"location_city"`
	Breed     string    `json:"breed"`
	Color     string    `json:"color"`
	Scores    SubScores `json:"scores"`
	Overall   float64   `json:"overall_score"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSubjectProfile validates p at the boundary and returns a copy that owns
// its score map. Incomplete score sets are accepted; out-of-range scores are not.
func NewSubjectProfile(p SubjectProfile) (SubjectProfile, error) {
	p.Sex = Sex(strings.ToLower(strings.TrimSpace(string(p.Sex))))
	if err := validate.Struct(p); err != nil {
		return SubjectProfile{}, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	if err := p.Scores.CheckRange(); err != nil {
		return SubjectProfile{}, fmt.Errorf("%w: %v", ErrInvalidScoreRange, err)
	}
	p.Scores = p.Scores.Clone()
	if p.Scores == nil {
		p.Scores = SubScores{}
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	return p, nil
}

// WithOverall returns a copy of p carrying the given derived overall score.
func (p SubjectProfile) WithOverall(overall float64) SubjectProfile {
	p.Scores = p.Scores.Clone()
	p.Overall = overall
	return p
}

// Text implements query.Record.
func (p SubjectProfile) Text(field string) (string, bool) {
	switch field {
	case "id":
		return p.ID, true
	case "name":
		return p.Name, true
	case "sex":
		return string(p.Sex), true
	case "province", "location":
		return p.Location, true
	case "city":
		return p.City, true
	case "breed":
		return p.Breed, true
	case "color":
		return p.Color, true
	}
	return "", false
}

// Number implements query.Record. Region names resolve to sub-scores.
func (p SubjectProfile) Number(field string) (float64, bool) {
	switch field {
	case "age":
		return float64(p.Age), true
	case "overall_score", "score":
		return p.Overall, true
	case "created_at":
		return float64(p.CreatedAt.UnixNano()), true
	}
	v, ok := p.Scores[Region(field)]
	return v, ok
}

// Flag implements query.Record. Profiles carry no boolean fields.
func (p SubjectProfile) Flag(string) (bool, bool) {
	return false, false
}
