package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emirozbir/monitor-agent/internal/agent"
	"github.com/emirozbir/monitor-agent/internal/batch"
	"github.com/emirozbir/monitor-agent/internal/models"
	"github.com/emirozbir/monitor-agent/internal/ui"
)

// ProcessBatch processes cases one after another. A case that is rejected
// keeps its id with an empty reply. progress may be nil.
func (o *Orchestrator) ProcessBatch(ctx context.Context, cases []models.CaseRequest, progress ui.ProgressReporter) []models.CaseResult {
	if progress == nil {
		progress = &agent.NoOpProgressReporter{}
	}
	defer progress.Stop()

	results := make([]models.CaseResult, 0, len(cases))
	for i := range cases {
		if ctx.Err() != nil {
			break
		}
		progress.Update(fmt.Sprintf("Processing case %d/%d (%s)", i+1, len(cases), cases[i].CaseID))
		res, err := o.Process(ctx, &cases[i])
		if err != nil {
			o.logger.Warn("case rejected", zap.String("case_id", cases[i].CaseID), zap.Error(err))
			res = models.CaseResult{CaseID: cases[i].CaseID}
		}
		results = append(results, res)
	}
	return results
}

// RunBatch reads cases from inputPath, processes them and writes the results
// to outputPath.
func (o *Orchestrator) RunBatch(ctx context.Context, inputPath, outputPath string, progress ui.ProgressReporter) ([]models.CaseResult, models.BatchStats, error) {
	cases, err := batch.ReadCases(inputPath)
	if err != nil {
		return nil, models.BatchStats{}, err
	}
	o.logger.Info("batch started", zap.String("input", inputPath), zap.Int("cases", len(cases)))

	results := o.ProcessBatch(ctx, cases, progress)

	if err := batch.WriteResults(outputPath, results); err != nil {
		return results, models.NewBatchStats(results), fmt.Errorf("batch output: %w", err)
	}

	stats := models.NewBatchStats(results)
	o.logger.Info("batch completed",
		zap.String("output", outputPath),
		zap.Int("total", stats.TotalCases),
		zap.Int("replies", stats.SuccessfulReplies),
		zap.Int("alerts", stats.AlertsTriggered),
	)
	return results, stats, nil
}
