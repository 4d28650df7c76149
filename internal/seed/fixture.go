package seed

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	service "github.com/okian/jamal/internal/app"
	"github.com/okian/jamal/internal/domain/model"
	"gopkg.in/yaml.v3"
)

const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// Fixture is a self-contained data set: camels, their evaluations in
// chronological order and marketplace listings.
type Fixture struct {
	Camels      []model.SubjectProfile    `json:"camels"`
	Evaluations []service.EvaluationInput `json:"evaluations,omitempty"`
	Listings    []model.Listing           `json:"listings,omitempty"`
}

// LoadFixture reads a YAML or JSON fixture. Field names follow the JSON
// API in both formats.
func LoadFixture(path string) (Fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return ParseFixture(raw)
}

// ParseFixture decodes YAML (a superset of JSON) into a Fixture.
func ParseFixture(raw []byte) (Fixture, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	// Round-trip through JSON so the model's json tags apply.
	js, err := json.Marshal(doc)
	if err != nil {
		return Fixture{}, fmt.Errorf("parse fixture: %w", err)
	}
	var f Fixture
	if err := json.Unmarshal(js, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// SaveFixture writes f as JSON when path ends in .json and YAML otherwise.
func SaveFixture(path string, f Fixture) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}
	js, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	out := js
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		var doc any
		if err := json.Unmarshal(js, &doc); err != nil {
			return fmt.Errorf("encode fixture: %w", err)
		}
		if out, err = yaml.Marshal(doc); err != nil {
			return fmt.Errorf("encode fixture: %w", err)
		}
	}
	if err := os.WriteFile(path, out, filePermission); err != nil {
		return fmt.Errorf("write fixture: %w", err)
	}
	return nil
}
