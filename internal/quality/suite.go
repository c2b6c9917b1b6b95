package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/your-org/icg/internal/models"
	"github.com/your-org/icg/internal/storage"
)

// Suite runs every validation module over the stored catalog and folds
// the outcomes into one report document.
type Suite struct {
	store     storage.Store
	validator *Validator
	reportDir string
	logger    *slog.Logger
}

func NewSuite(store storage.Store, validator *Validator, reportDir string, logger *slog.Logger) *Suite {
	return &Suite{store: store, validator: validator, reportDir: reportDir, logger: logger}
}

// SuiteCase is one checked item inside a module.
type SuiteCase struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score,omitempty"`
	Error  string  `json:"error,omitempty"`
	Passes bool    `json:"passes"`
}

// SuiteModule aggregates the cases of one validation module. A module
// with no checkable items passes vacuously.
type SuiteModule struct {
	TestCases []SuiteCase `json:"test_cases"`
	Passed    bool        `json:"passes_validation"`
}

// SuiteReport is the aggregate of one full validation run.
type SuiteReport struct {
	Timestamp     string                 `json:"timestamp"`
	Modules       map[string]SuiteModule `json:"modules"`
	OverallResult bool                   `json:"overall_result"`
	Duration      float64                `json:"duration_seconds"`
}

// Run validates every stored image, video and persona, then writes the
// aggregate report to <reportDir>/validation_report_<unix>.json and
// returns it together with the report path.
func (s *Suite) Run(ctx context.Context) (*SuiteReport, string, error) {
	s.logger.Info("starting comprehensive validation")
	start := time.Now()

	report := &SuiteReport{
		Timestamp: start.UTC().Format("2006-01-02 15:04:05"),
		Modules:   map[string]SuiteModule{},
	}

	images, err := s.imageModule(ctx)
	if err != nil {
		return nil, "", err
	}
	report.Modules["image_quality"] = images

	videos, err := s.videoModule(ctx)
	if err != nil {
		return nil, "", err
	}
	report.Modules["video_quality"] = videos

	personas, err := s.consistencyModule(ctx)
	if err != nil {
		return nil, "", err
	}
	report.Modules["persona_consistency"] = personas

	report.OverallResult = true
	for _, m := range report.Modules {
		if !m.Passed {
			report.OverallResult = false
		}
	}
	report.Duration = round2(time.Since(start).Seconds())

	path, err := s.writeReport(report)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("comprehensive validation completed",
		"overall_result", report.OverallResult,
		"duration_seconds", report.Duration,
		"report", path)
	return report, path, nil
}

func (s *Suite) imageModule(ctx context.Context) (SuiteModule, error) {
	items, err := s.store.ListContent(ctx, storage.ContentFilter{Type: models.ContentTypeImage})
	if err != nil {
		return SuiteModule{}, err
	}

	cases := make([]SuiteCase, 0, len(items))
	for _, item := range items {
		r, err := s.validator.ValidateImageFile(ctx, item.FilePath, "")
		if err != nil {
			cases = append(cases, SuiteCase{Name: item.ID, Error: err.Error()})
			continue
		}
		cases = append(cases, SuiteCase{Name: item.ID, Score: r.Score, Passes: r.Passed})
	}
	return moduleResult(cases), nil
}

func (s *Suite) videoModule(ctx context.Context) (SuiteModule, error) {
	items, err := s.store.ListContent(ctx, storage.ContentFilter{Type: models.ContentTypeVideo})
	if err != nil {
		return SuiteModule{}, err
	}

	cases := make([]SuiteCase, 0, len(items))
	for _, item := range items {
		r, err := s.validator.ValidateVideo(ctx, item.FilePath)
		if err != nil {
			cases = append(cases, SuiteCase{Name: item.ID, Error: err.Error()})
			continue
		}
		cases = append(cases, SuiteCase{Name: item.ID, Score: r.Score, Passes: r.Passed})
	}
	return moduleResult(cases), nil
}

func (s *Suite) consistencyModule(ctx context.Context) (SuiteModule, error) {
	personas, err := s.store.ListPersonas(ctx)
	if err != nil {
		return SuiteModule{}, err
	}

	var cases []SuiteCase
	for _, p := range personas {
		if p.ReferenceImage == "" {
			continue
		}
		items, err := s.store.ListContent(ctx, storage.ContentFilter{
			Type:      models.ContentTypeImage,
			PersonaID: p.ID,
		})
		if err != nil {
			return SuiteModule{}, err
		}
		if len(items) == 0 {
			continue
		}

		paths := make([]string, 0, len(items))
		for _, item := range items {
			paths = append(paths, item.FilePath)
		}
		r, err := s.validator.PersonaConsistency(ctx, p.ReferenceImage, paths)
		if err != nil {
			cases = append(cases, SuiteCase{Name: p.ID, Error: err.Error()})
			continue
		}
		cases = append(cases, SuiteCase{Name: p.ID, Score: r.Score, Passes: r.Passed})
	}
	return moduleResult(cases), nil
}

func moduleResult(cases []SuiteCase) SuiteModule {
	m := SuiteModule{TestCases: cases, Passed: true}
	for _, c := range cases {
		if !c.Passes {
			m.Passed = false
		}
	}
	if m.TestCases == nil {
		m.TestCases = []SuiteCase{}
	}
	return m
}

func (s *Suite) writeReport(report *SuiteReport) (string, error) {
	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(s.reportDir, fmt.Sprintf("validation_report_%d.json", time.Now().Unix()))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
