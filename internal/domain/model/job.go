package model

import "time"

// DetectionJob is an accepted request to score one camel image. Key is the
// idempotency key the submission was deduplicated on.
type DetectionJob struct {
	ID          string    `json:"id"`
	Key         string    `json:"key"`
	SubjectID   string    `json:"subject_id"`
	ImageURL    string    `json:"image_url"`
	SubmittedAt time.Time `json:"submitted_at"`
}
