package model

import (
	"fmt"
	"time"
)

// Source tells who produced an evaluation.
type Source string

// Evaluation sources.
const (
	SourceAutomated Source = "automated"
	SourceExpert    Source = "expert"
)

// Category is the coarse beauty label attached to an evaluation.
type Category string

// Categories.
const (
	CategoryBeautiful Category = "beautiful"
	CategoryUgly      Category = "ugly"
)

// Evaluation is one scored observation of a camel. Evaluations are
// append-only; a re-evaluation produces a new record.
type Evaluation struct {
	ID         string    `json:"id" validate:"required"`
	SubjectID  string    `json:"subject_id" validate:"required"`
	Source     Source    `json:"source" validate:"required,oneof=automated expert"`
	Profile    string    `json:"profile" validate:"required"`
	Scores     SubScores `json:"scores" validate:"required"`
	Overall    float64   `json:"overall_score"`
	Category   Category  `json:"category,omitempty"`
	Confidence float64   `json:"confidence,omitempty" validate:"gte=0,lte=100"`
	ImageURL   string    `json:"image_url,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at" validate:"required"`
}

// NewEvaluation checks the required fields of e and returns a copy that
// owns its score map. Score ranges and weights are checked by the scoring
// layer before the overall is derived.
func NewEvaluation(e Evaluation) (Evaluation, error) {
	if err := validate.Struct(e); err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrInvalidEvaluation, err)
	}
	e.Scores = e.Scores.Clone()
	return e, nil
}

// Detection is the result returned by the external image detector: four
// region scores (head, neck, body, size) plus a label and confidence.
type Detection struct {
	Scores         SubScores     `json:"scores"`
	Category       Category      `json:"category"`
	Confidence     float64       `json:"confidence"`
	ProcessingTime time.Duration `json:"processing_time"`
}
