package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/sqlconvert/pkg/core"
	"github.com/leapstack-labs/sqlconvert/pkg/dialect"
	"golang.org/x/sync/errgroup"
)

// Report is the outcome of a batch conversion.
type Report struct {
	Run  *core.Run // nil without a store
	Plan *Plan

	// Items holds the scripts processed by this batch in dependency order.
	// After a watch event it only contains the changed scripts and their
	// dependents.
	Items []*Item

	Converted int
	Failed    int
	Skipped   int
	Duration  time.Duration
}

// HasFailures reports whether any script failed to load, analyse or render.
func (r *Report) HasFailures() bool {
	return r.Failed > 0 || (r.Plan != nil && len(r.Plan.LoadErrors) > 0)
}

// Summary returns a one-line human-readable summary.
func (r *Report) Summary() string {
	loadErrors := 0
	if r.Plan != nil {
		loadErrors = len(r.Plan.LoadErrors)
	}
	return fmt.Sprintf("Scripts: %d converted, %d failed, %d skipped, %d unreadable | Duration: %s",
		r.Converted, r.Failed, r.Skipped, loadErrors, r.Duration.Round(time.Millisecond))
}

// Convert converts every script under root into the target dialect.
func (e *Engine) Convert(ctx context.Context, root string) (*Report, error) {
	return e.convert(ctx, root, nil)
}

// convert runs a batch. When previous is non-nil it maps relative paths to
// content hashes of the last batch, and only scripts whose hash changed plus
// their dependents are rendered.
func (e *Engine) convert(ctx context.Context, root string, previous map[string]string) (*Report, error) {
	if e.cfg.Target == "" {
		return nil, dialect.ErrDialectRequired
	}
	start := time.Now()
	e.logger.Info("starting conversion", "root", root, "source", e.cfg.Source, "target", e.cfg.Target)

	// history is written even when the batch is cancelled
	storeCtx := context.WithoutCancel(ctx)

	report := &Report{}
	if e.cfg.Store != nil {
		run, err := e.cfg.Store.CreateRun(storeCtx, e.cfg.Source, e.cfg.Target)
		if err != nil {
			return nil, fmt.Errorf("failed to create run: %w", err)
		}
		report.Run = run
		e.logger.Debug("created run", "run_id", run.ID)
	}

	plan, err := e.Plan(ctx, root)
	if err != nil {
		e.finish(storeCtx, report, err)
		return report, err
	}
	report.Plan = plan
	report.Items = selectItems(plan, previous)

	if err := e.renderAll(ctx, report.Items); err != nil {
		e.finish(storeCtx, report, err)
		return report, err
	}
	if err := e.write(report.Items); err != nil {
		e.finish(storeCtx, report, err)
		return report, err
	}

	for _, it := range report.Items {
		switch it.Status {
		case core.RecordStatusConverted:
			report.Converted++
		case core.RecordStatusFailed:
			report.Failed++
		case core.RecordStatusSkipped:
			report.Skipped++
		}
	}
	e.record(storeCtx, report)

	var runErr error
	if report.HasFailures() {
		runErr = fmt.Errorf("%d script(s) failed", report.Failed+len(plan.LoadErrors))
	}
	report.Duration = time.Since(start)
	e.finishRun(storeCtx, report, runErr)
	e.logger.Info("conversion finished", "summary", report.Summary())
	return report, nil
}

// selectItems returns the plan items to process.
func selectItems(plan *Plan, previous map[string]string) []*Item {
	if previous == nil {
		return plan.Items
	}
	var changed []string
	for _, it := range plan.Items {
		if h, ok := previous[it.ID()]; !ok || h != it.Script.Hash {
			changed = append(changed, it.ID())
		}
	}
	affected := make(map[string]bool)
	for _, id := range plan.Graph.Affected(changed) {
		affected[id] = true
	}
	var out []*Item
	for _, it := range plan.Items {
		if affected[it.ID()] {
			out = append(out, it)
		}
	}
	return out
}

// renderAll renders analysed items concurrently.
func (e *Engine) renderAll(ctx context.Context, items []*Item) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, it := range items {
		if !it.ok() {
			continue
		}
		g.Go(func() error {
			text, err := e.converter.Render(gctx, e.cfg.Target, it.Analysed, e.cfg.KeywordCase)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				it.Status = core.RecordStatusFailed
				it.Err = fmt.Errorf("render %s as %s: %w", it.ID(), e.cfg.Target, err)
				return nil
			}
			it.Text = text
			it.Status = core.RecordStatusConverted
			return nil
		})
	}
	return g.Wait()
}

// write stores rendered text under OutputDir, one level after another so
// every file appears after the files it depends on.
func (e *Engine) write(items []*Item) error {
	if e.cfg.OutputDir == "" {
		return nil
	}
	for _, it := range items {
		if it.Status != core.RecordStatusConverted {
			continue
		}
		path := filepath.Join(e.cfg.OutputDir, filepath.FromSlash(OutputName(it.ID())))
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(it.Text), 0o600); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		it.OutputPath = path
		e.logger.Debug("wrote script", "path", path)
	}
	return nil
}

// OutputName maps a source path to its output path: the extension is
// normalised to lower-case .sql.
func OutputName(rel string) string {
	ext := filepath.Ext(rel)
	if strings.EqualFold(ext, ".sql") {
		rel = strings.TrimSuffix(rel, ext)
	}
	return rel + ".sql"
}

// record stores one record per item. Store failures are logged, not returned.
func (e *Engine) record(ctx context.Context, report *Report) {
	if e.cfg.Store == nil || report.Run == nil {
		return
	}
	records := make([]*core.ScriptRecord, 0, len(report.Items)+len(report.Plan.LoadErrors))
	for _, it := range report.Items {
		rec := &core.ScriptRecord{
			RunID:        report.Run.ID,
			Path:         it.ID(),
			Name:         it.Name,
			Kind:         it.Script.Kind,
			Status:       it.Status,
			ContentHash:  it.Script.Hash,
			WarningCount: len(it.Warnings),
			References:   it.References,
		}
		if it.Err != nil {
			rec.Error = it.Err.Error()
		}
		records = append(records, rec)
	}
	for _, le := range report.Plan.LoadErrors {
		records = append(records, &core.ScriptRecord{
			RunID:  report.Run.ID,
			Path:   le.Path,
			Status: core.RecordStatusFailed,
			Error:  le.Error(),
		})
	}
	for _, rec := range records {
		if err := e.cfg.Store.RecordScript(ctx, rec); err != nil {
			e.logger.Warn("failed to record script", "path", rec.Path, "error", err)
		}
	}
}

// finish closes the run after a batch-level error.
func (e *Engine) finish(ctx context.Context, report *Report, err error) {
	e.logger.Info("conversion failed", "error", err)
	e.finishRun(ctx, report, err)
}

func (e *Engine) finishRun(ctx context.Context, report *Report, runErr error) {
	if e.cfg.Store == nil || report.Run == nil {
		return
	}
	status := core.RunStatusCompleted
	msg := ""
	switch {
	case errors.Is(runErr, context.Canceled), errors.Is(runErr, context.DeadlineExceeded):
		status, msg = core.RunStatusCancelled, runErr.Error()
	case runErr != nil:
		status, msg = core.RunStatusFailed, runErr.Error()
	}
	if err := e.cfg.Store.CompleteRun(ctx, report.Run.ID, status, msg); err != nil {
		e.logger.Warn("failed to complete run", "run_id", report.Run.ID, "error", err)
		return
	}
	if run, err := e.cfg.Store.GetRun(ctx, report.Run.ID); err == nil {
		report.Run = run
	}
}

// Hashes returns the content hash of every planned script by relative path.
func (p *Plan) Hashes() map[string]string {
	out := make(map[string]string, len(p.Items))
	for _, it := range p.Items {
		out[it.ID()] = it.Script.Hash
	}
	return out
}
