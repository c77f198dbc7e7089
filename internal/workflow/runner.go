package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"argus/internal/config"
	"argus/internal/logging"
	"argus/internal/plan"
	"argus/internal/recovery"
	"argus/internal/stage"
	"argus/internal/synthesis"
)

// ErrWorkflowAborted marks a run terminated by a critical failure. The
// partial report built from completed stages is still returned alongside it.
var ErrWorkflowAborted = errors.New("workflow aborted")

// defaultMaxAttempts bounds per-stage attempts when configuration supplies
// none. Severity escalation normally terminates the loop sooner.
const defaultMaxAttempts = 5

// RunRequest describes one workflow invocation.
type RunRequest struct {
	Target         string
	Depth          plan.Depth
	CorrelationID  string
	InitialContext map[string]any
}

// Runner drives one workflow run: it builds the depth plan, executes stages
// in order with recovery, and synthesizes the final report.
type Runner struct {
	executor *StageExecutor
	metrics  *recovery.Metrics
	maxTries int
	logger   *slog.Logger
}

func NewRunner(invoker stage.Invoker, cfg config.Workflow, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	maxTries := cfg.MaxStageAttempts
	if maxTries <= 0 {
		maxTries = defaultMaxAttempts
	}
	timeout := time.Duration(cfg.StageTimeout) * time.Second
	return &Runner{
		executor: NewStageExecutor(invoker, timeout, logger),
		metrics:  recovery.NewMetrics(),
		maxTries: maxTries,
		logger:   logger,
	}
}

// Metrics exposes the run's recovery counters.
func (r *Runner) Metrics() *recovery.Metrics { return r.metrics }

// Run executes the workflow for the requested depth. Stages run strictly in
// plan order; a stage whose dependency did not succeed is skipped, and only
// an abort stops the run early. The report covers every stage that was
// reached, aborted runs included.
func (r *Runner) Run(ctx context.Context, req RunRequest) (*synthesis.Report, error) {
	workflowPlan, err := plan.Build(req.Depth)
	if err != nil {
		return nil, err
	}

	log := logging.WithContext(ctx, r.logger)
	log.Info("workflow started",
		logging.Depth(string(workflowPlan.Depth)),
		logging.CorrelationID(req.CorrelationID),
		logging.String("target", req.Target),
		logging.Int("stage_count", len(workflowPlan.Stages)))

	results := make(map[string]stage.Result, len(workflowPlan.Stages))
	runContext := make(map[string]any, len(workflowPlan.Stages))
	maps.Copy(runContext, req.InitialContext)

	contributions := make([]synthesis.Contribution, 0, len(workflowPlan.Stages))
	aborted := false
	abortReason := ""

	for _, spec := range workflowPlan.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if unmet := unmetDependency(spec, results); unmet != "" {
			result := stage.Skip(spec.Name, fmt.Sprintf("dependency %s unresolved", unmet))
			results[spec.Name] = result
			contributions = append(contributions, synthesis.Assess(spec.Name, spec.Role, result, workflowPlan.Depth, 0))
			log.Warn("stage skipped",
				logging.Stage(spec.Name),
				logging.String("reason", result.ErrorMessage()))
			continue
		}

		result, elapsed, stageAborted := r.runStage(ctx, spec, workflowPlan.Depth, req, runContext, results)
		results[spec.Name] = result
		contributions = append(contributions, synthesis.Assess(spec.Name, spec.Role, result, workflowPlan.Depth, elapsed))
		if result.Outcome() == stage.OutcomeSuccess {
			runContext[spec.Name] = result.Payload()
		}
		if stageAborted {
			aborted = true
			abortReason = result.ErrorMessage()
			break
		}
	}

	report := synthesis.Synthesize(contributions, workflowPlan.Depth)
	report.CorrelationID = req.CorrelationID
	report.Target = req.Target

	if aborted {
		report.MarkAborted()
		log.Error("workflow aborted",
			logging.CorrelationID(req.CorrelationID),
			logging.String("reason", abortReason))
		return report, fmt.Errorf("%w: %s", ErrWorkflowAborted, abortReason)
	}

	log.Info("workflow completed",
		logging.CorrelationID(req.CorrelationID),
		logging.String("quality_grade", string(report.QualityGrade)),
		logging.Float64("composite_score", report.CompositeScore))
	return report, nil
}

// runStage drives the attempt loop for one stage, applying the planned
// recovery between attempts. The returned bool reports an abort.
func (r *Runner) runStage(ctx context.Context, spec plan.StageSpec, depth plan.Depth, req RunRequest, runContext map[string]any, results map[string]stage.Result) (stage.Result, time.Duration, bool) {
	role := spec.Role
	var params map[string]any
	var entries []recovery.HistoryEntry
	var elapsed time.Duration
	var lastStrategy recovery.Strategy
	lastErr := ""
	retryCount := 0

	for attempt := 0; attempt < r.maxTries; attempt++ {
		stageReq := stage.Request{
			Stage:   spec.Name,
			Role:    role,
			Depth:   string(depth),
			Target:  req.Target,
			Context: runContext,
			Params:  params,
		}
		outcome := r.executor.Execute(ctx, spec, stageReq, retryCount, results)
		elapsed += outcome.Elapsed

		if outcome.Err == nil {
			payload := outcome.Payload
			if retryCount > 0 {
				payload = annotateRecovered(payload, lastStrategy)
			}
			result := stage.Success(spec.Name, payload)
			r.recordEntries(entries, true)
			return result, elapsed, false
		}

		lastErr = outcome.Err.Error()
		rec := outcome.Recovery
		lastStrategy = rec.Strategy
		entries = append(entries, recovery.HistoryEntry{
			Stage:    spec.Name,
			Severity: outcome.Severity,
			Strategy: rec.Strategy,
			Message:  lastErr,
		})

		switch rec.Strategy {
		case recovery.StrategyAbortWorkflow:
			r.recordEntries(entries, false)
			return stage.Failure(spec.Name, lastErr), elapsed, true
		case recovery.StrategyGracefulDegradation:
			payload := degradedPayload(rec)
			r.recordEntries(entries, true)
			return stage.Success(spec.Name, payload), elapsed, false
		case recovery.StrategyFallbackRole:
			role = rec.FallbackRole
		default:
			// retry and simplified execution re-invoke with reduced params
			params = rec.SimplifiedParams
		}
		retryCount++
	}

	// Attempt budget exhausted without the escalation chain resolving the
	// stage. The workflow continues; downstream dependents skip.
	r.recordEntries(entries, false)
	if lastErr == "" {
		lastErr = "stage attempt budget exhausted"
	}
	return stage.Failure(spec.Name, lastErr), elapsed, false
}

func (r *Runner) recordEntries(entries []recovery.HistoryEntry, recovered bool) {
	for _, entry := range entries {
		r.metrics.Record(entry, recovered)
	}
}

// unmetDependency returns the first dependency that did not succeed, or ""
// when the stage may run.
func unmetDependency(spec plan.StageSpec, results map[string]stage.Result) string {
	for _, dep := range spec.DependsOn {
		result, ok := results[dep]
		if !ok || result.Outcome() != stage.OutcomeSuccess {
			return dep
		}
	}
	return ""
}

// annotateRecovered marks a payload produced after one or more recovery
// attempts so quality assessment can discount it.
func annotateRecovered(payload map[string]any, strategy recovery.Strategy) map[string]any {
	annotated := make(map[string]any, len(payload)+2)
	maps.Copy(annotated, payload)
	annotated[stage.KeyRecoveryApplied] = true
	annotated[stage.KeyRecoveryStrategy] = string(strategy)
	return annotated
}

// degradedPayload builds the synthetic success payload for graceful
// degradation from the planner's fallback data.
func degradedPayload(rec recovery.Plan) map[string]any {
	payload := make(map[string]any, len(rec.FallbackPayload)+3)
	maps.Copy(payload, rec.FallbackPayload)
	payload[stage.KeyDegradedExecution] = true
	payload[stage.KeyRecoveryApplied] = true
	payload[stage.KeyRecoveryStrategy] = string(recovery.StrategyGracefulDegradation)
	if rec.DegradationLevel != "" && rec.DegradationLevel != "none" {
		payload["degradation_level"] = rec.DegradationLevel
	}
	return payload
}

// AbortReason extracts the stage failure message from a wrapped abort error.
func AbortReason(err error) string {
	if err == nil || !errors.Is(err, ErrWorkflowAborted) {
		return ""
	}
	msg := err.Error()
	if idx := strings.Index(msg, ": "); idx >= 0 {
		return msg[idx+2:]
	}
	return msg
}
