package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"

	"github.com/emirozbir/monitor-agent/internal/models"
)

// ReadCases loads the cases in path. A missing file yields no cases.
func ReadCases(path string) ([]models.CaseRequest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return []models.CaseRequest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cases: %w", err)
	}

	var cases []models.CaseRequest
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse cases from %s: %w", path, err)
	}
	return cases, nil
}

// WriteResults writes results to path as indented JSON, creating parent
// directories as needed.
func WriteResults(path string, results []models.CaseResult) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if results == nil {
		results = []models.CaseResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// ReadResults loads results previously written by WriteResults.
func ReadResults(path string) ([]models.CaseResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}

	var results []models.CaseResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("failed to parse results from %s: %w", path, err)
	}
	return results, nil
}
