package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	workerpool "github.com/io-m1/MLJResultsCompiler-sub002/internal/adapters/mq/worker"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/merge"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/model"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/report"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/scoring"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/sheet"
	"github.com/io-m1/MLJResultsCompiler-sub002/internal/domain/validate"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/logger"
	"github.com/io-m1/MLJResultsCompiler-sub002/pkg/metrics"
)

// pipelineAdapter adapts the Service pipeline to the worker.Runner
// interface.
type pipelineAdapter struct {
	svc *Service
}

func (a *pipelineAdapter) Run(ctx context.Context, d workerpool.Dispatch) error {
	return a.svc.runPipeline(ctx, d)
}

// runPipeline executes load, merge, score and report for one dispatch.
// Every failure mode, panics included, lands in the job record; the job
// table never keeps a processing entry for a worker that died.
func (s *Service) runPipeline(ctx context.Context, d model.Dispatch) (err error) {
	start := time.Now()

	if s.pipelineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.pipelineTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		metrics.RecordPipelineDuration(float64(time.Since(start).Milliseconds()))
		if err != nil {
			s.failJob(ctx, d.JobID, err)
		}
	}()

	loadStart := time.Now()
	sources, err := s.loadSources(ctx, d.InputRefs)
	if err != nil {
		return fmt.Errorf("failed to load inputs: %w", err)
	}
	metrics.RecordStageDuration("load", float64(time.Since(loadStart).Milliseconds()))

	mergeStart := time.Now()
	res, err := merge.Consolidate(sources)
	if err != nil {
		return fmt.Errorf("failed to merge inputs: %w", err)
	}
	metrics.RecordStageDuration("merge", float64(time.Since(mergeStart).Milliseconds()))
	metrics.RecordMerge(len(res.Roster), res.Duplicates)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("pipeline cancelled: %w", err)
	}

	scoreStart := time.Now()
	sum := scoring.Grade(res.Roster)
	metrics.RecordStageDuration("score", float64(time.Since(scoreStart).Milliseconds()))
	metrics.RecordGrades(sum.Passed, sum.Failed)

	name := report.ArtifactName(d.JobID)
	path := filepath.Join(s.reportDir, name)
	reportStart := time.Now()
	if err := s.writer.Write(ctx, path, res.Roster); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	metrics.RecordStageDuration("report", float64(time.Since(reportStart).Milliseconds()))
	metrics.RecordReportWritten()

	if err := s.store.Complete(ctx, d.JobID, path, name, sum); err != nil {
		return fmt.Errorf("failed to record completion: %w", err)
	}

	metrics.RecordJobCompleted()
	s.logger.Info(ctx, "job completed",
		logger.String("jobID", d.JobID),
		logger.Int("participants", sum.Participants),
		logger.Int("passed", sum.Passed),
		logger.Int("failed", sum.Failed),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// loadSources reads the five input tables concurrently, preserving
// position order.
func (s *Service) loadSources(ctx context.Context, refs []string) ([][]model.SourceRecord, error) {
	sources := make([][]model.SourceRecord, len(refs))

	g, ctx := errgroup.WithContext(ctx)
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			t, err := sheet.Read(ref)
			if err != nil {
				return fmt.Errorf("input %d: %w", i+1, err)
			}
			cols, missing := sheet.Resolve(t.Header)
			if len(missing) > 0 {
				return fmt.Errorf("input %d: %w: missing required column(s): %s",
					i+1, validate.ErrSchema, strings.Join(missing, ", "))
			}
			sources[i] = t.Records(cols)
			metrics.RecordSheetLoaded(t.RowCount())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sources, nil
}

// failJob records a terminal failure on the job record.
func (s *Service) failJob(ctx context.Context, jobID string, cause error) {
	metrics.RecordJobFailed()
	s.logger.Error(ctx, "job failed",
		logger.String("jobID", jobID),
		logger.Error(cause),
	)
	if err := s.store.Fail(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error(ctx, "failed to record job failure",
			logger.String("jobID", jobID),
			logger.Error(err),
		)
	}
}
