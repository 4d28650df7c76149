package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/jamal/internal/domain/model"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxResponseBytes   = 1 << 20
)

// HTTPOption applies a configuration option to the HTTPDetector.
type HTTPOption func(*HTTPDetector)

// WithAPIKey sends key as a bearer token.
func WithAPIKey(key string) HTTPOption {
	return func(d *HTTPDetector) {
		d.apiKey = key
	}
}

// WithTimeout bounds one detector call.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(d *HTTPDetector) {
		if timeout > 0 {
			d.client.Timeout = timeout
		}
	}
}

// HTTPDetector posts the image URL as JSON to a remote detection endpoint.
type HTTPDetector struct {
	url    string
	apiKey string
	client *http.Client
}

// NewHTTP creates a detector for the given endpoint.
func NewHTTP(url string, opts ...HTTPOption) *HTTPDetector {
	d := &HTTPDetector{
		url:    url,
		client: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// detectResponse is the detector's wire format.
type detectResponse struct {
	Head       *float64 `json:"head_beauty_score"`
	Neck       *float64 `json:"neck_beauty_score"`
	Body       *float64 `json:"body_hump_limbs_score"`
	Size       *float64 `json:"body_size_score"`
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	// ProcessingTime is reported in milliseconds.
	ProcessingTime int64 `json:"processing_time"`
}

// Detect calls the remote detector. Transport failures and non-2xx statuses
// wrap ErrUnavailable; undecodable or incomplete bodies wrap ErrBadResponse.
func (d *HTTPDetector) Detect(ctx context.Context, req Request) (model.Detection, error) {
	if req.ImageURL == "" {
		return model.Detection{}, ErrNoImage
	}
	body, err := json.Marshal(struct {
		ImageURL string `json:"image_url"`
	}{req.ImageURL})
	if err != nil {
		return model.Detection{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return model.Detection{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	start := time.Now()
	resp, err := d.client.Do(httpReq)
	if err != nil {
		return model.Detection{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return model.Detection{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var out detectResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return model.Detection{}, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	if out.Head == nil || out.Neck == nil || out.Body == nil || out.Size == nil {
		return model.Detection{}, fmt.Errorf("%w: missing region score", ErrBadResponse)
	}

	took := time.Duration(out.ProcessingTime) * time.Millisecond
	if took <= 0 {
		took = time.Since(start)
	}
	return model.Detection{
		Scores: model.SubScores{
			model.RegionHead: *out.Head,
			model.RegionNeck: *out.Neck,
			model.RegionBody: *out.Body,
			model.RegionSize: *out.Size,
		},
		Category:       model.Category(out.Category),
		Confidence:     out.Confidence,
		ProcessingTime: took,
	}, nil
}
