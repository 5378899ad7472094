// Package runservice coordinates the aggregation engine and the run
// history ledger behind a single lock, so runs triggered over HTTP or MCP
// never overlap on the same vault.
package runservice

import (
	"context"
	"sync"

	"github.com/HiroshiOkada/update-notes/internal/aggregate"
	"github.com/HiroshiOkada/update-notes/internal/history"
	"github.com/HiroshiOkada/update-notes/internal/models"
)

// RunResult is a run report together with its ledger id.
type RunResult struct {
	RunID int64 `json:"run_id"`
	*aggregate.Report
}

// Service triggers consolidation runs and reads recorded history.
type Service struct {
	engine    *aggregate.Engine
	db        *history.DB
	inputDir  string
	outputDir string

	mu sync.Mutex // serializes runs; output files assume a single writer
}

// NewService creates a run service for one vault.
func NewService(engine *aggregate.Engine, db *history.DB, inputDir, outputDir string) *Service {
	return &Service{engine: engine, db: db, inputDir: inputDir, outputDir: outputDir}
}

// Trigger executes one consolidation run and records it in the ledger.
func (s *Service) Trigger(_ context.Context) (*RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	report, err := s.engine.Run(s.inputDir, s.outputDir)
	if err != nil {
		return nil, err
	}
	runID, err := s.db.RecordRun(report)
	if err != nil {
		return nil, err
	}
	return &RunResult{RunID: runID, Report: report}, nil
}

// ListRuns returns the most recent recorded runs.
func (s *Service) ListRuns(_ context.Context, limit int) ([]history.Run, error) {
	return s.db.ListRuns(limit)
}

// RunNotes returns the per-note outcomes of one recorded run.
func (s *Service) RunNotes(_ context.Context, runID int64) ([]models.NoteOutcome, error) {
	return s.db.RunNotes(runID)
}
