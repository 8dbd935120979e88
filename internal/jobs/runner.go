package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ShreedharDynamicCraft/financeautomation/constants"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/extract"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/llm"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/workbook"
)

// Runner executes the three-stage pipeline for one job: text extraction,
// LLM structuring, workbook rendering. It keeps the registry record truthful
// at every checkpoint and cleans up the uploaded file on both outcomes.
type Runner struct {
	registry  *Registry
	extractor extract.TextExtractor
	llm       llm.StructuredExtractor
	renderer  workbook.Renderer
	outputDir string
	logger    *slog.Logger
}

func NewRunner(
	registry *Registry,
	extractor extract.TextExtractor,
	structured llm.StructuredExtractor,
	renderer workbook.Renderer,
	outputDir string,
	logger *slog.Logger,
) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry:  registry,
		extractor: extractor,
		llm:       structured,
		renderer:  renderer,
		outputDir: outputDir,
		logger:    logger,
	}
}

// Process runs the pipeline for jobID. The job context is cancellable through
// Registry.Cancel; cancellation takes effect at stage boundaries and inside
// any stage that honors its context. Errors are recorded on the job and also
// returned for the worker to log.
func (r *Runner) Process(ctx context.Context, jobID string) error {
	rec, err := r.registry.Get(jobID)
	if err != nil {
		return err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	r.registry.bindCancel(jobID, cancel)
	defer func() {
		r.registry.clearCancel(jobID)
		cancel()
	}()

	// Cleanup of the uploaded file is best effort on every outcome.
	defer r.removeUpload(rec.FilePath)

	start := time.Now()
	r.logger.Info("pipeline.start", "task_id", jobID, "filename", rec.Filename, "template", rec.Template)

	tmpl, err := template.Lookup(rec.Template)
	if err != nil {
		return r.fail(jobID, err)
	}
	if err := r.checkpoint(jobID, constants.ProgressStarted); err != nil {
		// Cancelled (or otherwise finished) before we even started.
		r.logger.Info("pipeline.skipped", "task_id", jobID, "reason", err)
		return nil
	}

	// Stage 1: text extraction.
	res, err := r.extractor.Extract(jobCtx, rec.FilePath)
	if err != nil {
		return r.fail(jobID, fmt.Errorf("text extraction: %w", err))
	}
	if strings.TrimSpace(res.Text) == "" {
		return r.fail(jobID, errors.New("no text could be extracted from the PDF file"))
	}
	if err := r.checkpoint(jobID, constants.ProgressExtracted); err != nil {
		r.logger.Info("pipeline.cancelled", "task_id", jobID, "after", "extract")
		return nil
	}
	r.logger.Debug("pipeline.extract.ok", "task_id", jobID, "method", res.Method, "pages", res.Pages, "chars", len(res.Text))

	// Stage 2: LLM structuring.
	sections, _, err := r.llm.ExtractSections(jobCtx, res.Text, tmpl)
	if err != nil {
		return r.fail(jobID, fmt.Errorf("llm extraction: %w", err))
	}
	if sections.Empty() {
		return r.fail(jobID, errors.New("no data extracted by the LLM"))
	}
	if err := r.checkpoint(jobID, constants.ProgressStructured); err != nil {
		r.logger.Info("pipeline.cancelled", "task_id", jobID, "after", "structure")
		return nil
	}
	r.logger.Debug("pipeline.structure.ok", "task_id", jobID, "sections", len(sections))

	// Stage 3: workbook rendering.
	data, err := r.renderer.Render(sections, tmpl)
	if err != nil {
		return r.fail(jobID, fmt.Errorf("workbook rendering: %w", err))
	}

	outName := OutputFilename(jobID, rec.Filename)
	outPath := filepath.Join(r.outputDir, outName)
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return r.fail(jobID, fmt.Errorf("write workbook: %w", err))
	}

	now := time.Now().UTC()
	err = r.registry.Update(jobID, func(j *Job) {
		j.Status = constants.JobStatusCompleted
		j.Progress = constants.ProgressRendered
		j.DownloadURL = "/downloads/" + outName
		j.CompletedAt = &now
	})
	if err != nil {
		// Cancel won the race against the final write; drop the orphaned output.
		if rmErr := os.Remove(outPath); rmErr != nil {
			r.logger.Warn("could not remove orphaned output", "path", outPath, "error", rmErr)
		}
		r.logger.Info("pipeline.cancelled", "task_id", jobID, "after", "render")
		return nil
	}

	r.logger.Info("pipeline.completed",
		"task_id", jobID,
		"output", outName,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// fail records the terminal failure; partial progress is kept for diagnostics.
// A stage interrupted by the worker's deadline lands here too, so a timed-out
// job always reaches a terminal state. If the record is already terminal the
// cancel endpoint won the race and there is nothing left to report.
func (r *Runner) fail(jobID string, cause error) error {
	now := time.Now().UTC()
	err := r.registry.Update(jobID, func(j *Job) {
		j.Status = constants.JobStatusFailed
		j.Error = cause.Error()
		j.CompletedAt = &now
	})
	switch {
	case err == nil:
		r.logger.Error("pipeline.failed", "task_id", jobID, "error", cause)
		return cause
	case errors.Is(err, ErrJobFinished):
		r.logger.Info("pipeline.cancelled", "task_id", jobID, "error", cause)
		return nil
	default:
		r.logger.Error("failure not recorded", "task_id", jobID, "record_error", err, "error", cause)
		return cause
	}
}

// checkpoint bumps progress monotonically.
func (r *Runner) checkpoint(jobID string, progress int) error {
	return r.registry.Update(jobID, func(j *Job) {
		if progress > j.Progress {
			j.Progress = progress
		}
	})
}

func (r *Runner) removeUpload(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.logger.Warn("could not clean up uploaded file", "path", path, "error", err)
		return
	}
	r.logger.Debug("cleaned up uploaded file", "path", path)
}

// OutputFilename derives the workbook filename for a job:
// <task_id>_<original name without extension>_extracted.xlsx
func OutputFilename(jobID, originalName string) string {
	base := strings.TrimSuffix(originalName, filepath.Ext(originalName))
	return fmt.Sprintf("%s_%s_extracted.xlsx", jobID, base)
}
