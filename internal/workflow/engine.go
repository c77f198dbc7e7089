package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"argus/internal/config"
	"argus/internal/logging"
	"argus/internal/notifications"
	"argus/internal/plan"
	"argus/internal/preflight"
	"argus/internal/runstore"
	"argus/internal/services"
	"argus/internal/stage"
	"argus/internal/synthesis"
)

// Engine coordinates workflow runs: single-instance locking, preflight,
// persistence, notifications, and execution.
type Engine struct {
	cfg      *config.Config
	store    *runstore.Store
	notifier notifications.Service
	invoker  stage.Invoker
	logger   *slog.Logger

	lockPath string
	lock     *flock.Flock
}

// NewEngine constructs an engine with initialized dependencies.
func NewEngine(cfg *config.Config, store *runstore.Store, notifier notifications.Service, invoker stage.Invoker, logger *slog.Logger) (*Engine, error) {
	if cfg == nil || store == nil || invoker == nil {
		return nil, errors.New("engine requires config, store, and invoker")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.WorkspaceDir, "argus.lock")
	return &Engine{
		cfg:      cfg,
		store:    store,
		notifier: notifier,
		invoker:  invoker,
		logger:   logging.NewComponentLogger(logger, "engine"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Acquire takes the single-instance lock for the workspace.
func (e *Engine) Acquire() error {
	ok, err := e.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: another argus instance holds %s", services.ErrConfiguration, e.lockPath)
	}
	return nil
}

// Release drops the single-instance lock.
func (e *Engine) Release() {
	if err := e.lock.Unlock(); err != nil {
		e.logger.Warn("failed to release workspace lock", logging.Error(err))
	}
}

// Close releases resources held by the engine.
func (e *Engine) Close() error {
	e.Release()
	return e.store.Close()
}

// LockPath returns the single-instance lock file path.
func (e *Engine) LockPath() string { return e.lockPath }

// RunWorkflow executes one workflow run end to end: preflight, persistence,
// stage execution, report storage, and notifications. The persisted run row
// is returned with the report whenever one was created; an aborted run still
// yields the partial report alongside ErrWorkflowAborted.
func (e *Engine) RunWorkflow(ctx context.Context, target string, depth plan.Depth) (*synthesis.Report, *runstore.Run, error) {
	if strings.TrimSpace(target) == "" {
		return nil, nil, fmt.Errorf("%w: target required", services.ErrValidation)
	}
	depth = plan.ParseDepth(string(depth))

	if failed := failedChecks(preflight.RunAll(ctx, e.cfg)); len(failed) > 0 {
		return nil, nil, fmt.Errorf("%w: preflight failed: %s", services.ErrConfiguration, strings.Join(failed, "; "))
	}

	correlationID := uuid.NewString()
	run, err := e.store.CreateRun(ctx, correlationID, target, string(depth))
	if err != nil {
		return nil, nil, fmt.Errorf("create run: %w", err)
	}

	runCtx := services.WithRunID(ctx, run.ID)
	runCtx = services.WithDepth(runCtx, string(depth))
	runCtx = services.WithRequestID(runCtx, correlationID)
	log := logging.WithContext(runCtx, e.logger)

	if err := e.notifier.NotifyRunStarted(runCtx, target, string(depth)); err != nil {
		log.Warn("run-started notification failed", logging.Error(err))
	}

	runner := NewRunner(e.invoker, e.cfg.Workflow, e.logger)
	start := time.Now()
	report, runErr := runner.Run(runCtx, RunRequest{
		Target:        target,
		Depth:         depth,
		CorrelationID: correlationID,
	})
	elapsed := time.Since(start)

	if report == nil {
		if storeErr := e.store.CompleteRun(runCtx, run.ID, runstore.StatusFailed, "", 0, "", "", errMessage(runErr)); storeErr != nil {
			log.Error("failed to persist failed run", logging.Error(storeErr))
		}
		if notifyErr := e.notifier.NotifyError(runCtx, runErr, target); notifyErr != nil {
			log.Warn("error notification failed", logging.Error(notifyErr))
		}
		return nil, run, runErr
	}

	status := runstore.StatusCompleted
	switch {
	case errors.Is(runErr, ErrWorkflowAborted):
		status = runstore.StatusAborted
	case report.Metrics.DegradedStages > 0:
		status = runstore.StatusDegraded
	}

	reportJSON := ""
	if encoded, marshalErr := json.MarshalIndent(report, "", "  "); marshalErr == nil {
		reportJSON = string(encoded)
	} else {
		log.Warn("failed to encode report", logging.Error(marshalErr))
	}

	if storeErr := e.store.CompleteRun(runCtx, run.ID, status, string(report.QualityGrade), report.CompositeScore, report.ExecutiveSummary, reportJSON, errMessage(runErr)); storeErr != nil {
		log.Error("failed to persist run outcome", logging.Error(storeErr))
	}
	if reportJSON != "" {
		if path, writeErr := e.writeReportFile(correlationID, reportJSON); writeErr != nil {
			log.Warn("failed to write report file", logging.Error(writeErr))
		} else if path != "" {
			log.Info("report written", logging.String("path", path))
		}
	}

	e.notifyOutcome(runCtx, log, status, target, report, elapsed, runErr)
	return report, run, runErr
}

// ListRuns returns recent persisted runs.
func (e *Engine) ListRuns(ctx context.Context, limit int) ([]*runstore.Run, error) {
	return e.store.ListRuns(ctx, limit)
}

// GetRun fetches one persisted run by id.
func (e *Engine) GetRun(ctx context.Context, id int64) (*runstore.Run, error) {
	return e.store.GetRun(ctx, id)
}

func (e *Engine) notifyOutcome(ctx context.Context, log *slog.Logger, status runstore.Status, target string, report *synthesis.Report, elapsed time.Duration, runErr error) {
	var err error
	switch status {
	case runstore.StatusAborted:
		err = e.notifier.NotifyRunAborted(ctx, target, AbortReason(runErr))
	case runstore.StatusDegraded:
		err = e.notifier.NotifyRunDegraded(ctx, target, string(report.QualityGrade), report.Metrics.DegradedStages)
	default:
		err = e.notifier.NotifyRunCompleted(ctx, target, string(report.QualityGrade), elapsed)
	}
	if err != nil {
		log.Warn("run outcome notification failed", logging.Error(err))
	}
}

func (e *Engine) writeReportFile(correlationID, reportJSON string) (string, error) {
	dir := e.cfg.Paths.ReportDir
	if dir == "" {
		return "", nil
	}
	path := filepath.Join(dir, correlationID+".json")
	if err := os.WriteFile(path, []byte(reportJSON), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func failedChecks(results []preflight.Result) []string {
	var failed []string
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, fmt.Sprintf("%s: %s", result.Name, result.Detail))
		}
	}
	return failed
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
