// Package detector reaches the external image detector that turns a camel
// photo into four region sub-scores.
package detector

import (
	"context"
	"errors"

	"github.com/okian/jamal/internal/domain/model"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrNoImage     = errors.New("detection request has no image")
	ErrUnavailable = errors.New("detector unavailable")
	ErrBadResponse = errors.New("detector returned an unusable response")
)

// Request is one image submitted for detection.
type Request struct {
	SubjectID string `json:"subject_id,omitempty"`
	ImageURL  string `json:"image_url"`
}

// Detector scores one image. Implementations must honour ctx cancellation.
type Detector interface {
	Detect(ctx context.Context, req Request) (model.Detection, error)
}

// Func adapts a function to Detector.
type Func func(ctx context.Context, req Request) (model.Detection, error)

// Detect calls f.
func (f Func) Detect(ctx context.Context, req Request) (model.Detection, error) {
	return f(ctx, req)
}
