package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"argus/internal/config"
	"argus/internal/plan"
	"argus/internal/recovery"
	"argus/internal/services"
	"argus/internal/stage"
	"argus/internal/synthesis"
	"argus/internal/workflow"
)

func testWorkflowConfig() config.Workflow {
	return config.Workflow{DefaultDepth: "standard", StageTimeout: 30, MaxStageAttempts: 5}
}

// scriptedInvoker routes each invocation through a per-stage handler and
// records the requests it saw.
type scriptedInvoker struct {
	handlers map[string]func(req stage.Request) (map[string]any, error)
	requests []stage.Request
}

func (s *scriptedInvoker) Invoke(_ context.Context, req stage.Request) (map[string]any, error) {
	s.requests = append(s.requests, req)
	if handler, ok := s.handlers[req.Stage]; ok {
		return handler(req)
	}
	return map[string]any{
		stage.KeySummary: fmt.Sprintf("%s complete", req.Stage),
		"payload_marker": req.Stage,
	}, nil
}

func runWorkflow(t *testing.T, invoker stage.Invoker, cfg config.Workflow, depth plan.Depth) (*synthesis.Report, *workflow.Runner, error) {
	t.Helper()
	runner := workflow.NewRunner(invoker, cfg, nil)
	report, err := runner.Run(context.Background(), workflow.RunRequest{
		Target:        "dossier-42",
		Depth:         depth,
		CorrelationID: "test-correlation",
	})
	return report, runner, err
}

func TestRunAllStagesSucceed(t *testing.T) {
	rich := func(req stage.Request) (map[string]any, error) {
		payload := map[string]any{stage.KeySummary: fmt.Sprintf("%s complete", req.Stage)}
		for i := 1; i < 10; i++ {
			payload[fmt.Sprintf("field_%d", i)] = i
		}
		return payload, nil
	}
	invoker := &scriptedInvoker{handlers: map[string]func(stage.Request) (map[string]any, error){
		plan.StageAcquisition:   rich,
		plan.StageTranscription: rich,
		plan.StageAnalysis:      rich,
	}}
	report, runner, err := runWorkflow(t, invoker, testWorkflowConfig(), plan.DepthStandard)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Metrics.SuccessfulStages != 3 || report.Metrics.FailedStages != 0 {
		t.Fatalf("unexpected metrics: %+v", report.Metrics)
	}
	if report.CompositeScore < 0.7 {
		t.Fatalf("composite score %f below the good threshold", report.CompositeScore)
	}
	if report.QualityGrade != synthesis.GradeGood {
		t.Fatalf("clean standard run graded %s (score %f), want good", report.QualityGrade, report.CompositeScore)
	}
	if report.Aborted {
		t.Fatal("clean run marked aborted")
	}
	if report.CorrelationID != "test-correlation" || report.Target != "dossier-42" {
		t.Fatalf("report identity not set: %q %q", report.CorrelationID, report.Target)
	}

	// Each stage after the first must see its predecessors' payloads.
	last := invoker.requests[len(invoker.requests)-1]
	if last.Stage != plan.StageAnalysis {
		t.Fatalf("last invocation was %s", last.Stage)
	}
	if _, ok := last.Context[plan.StageAcquisition]; !ok {
		t.Fatal("analysis request missing acquisition payload in context")
	}
	if _, ok := last.Context[plan.StageTranscription]; !ok {
		t.Fatal("analysis request missing transcription payload in context")
	}

	snap := runner.Metrics().RecoveryMetrics()
	if snap.SuccessfulRecoveries != 0 || snap.FailedRecoveries != 0 {
		t.Fatalf("clean run recorded recoveries: %+v", snap)
	}
}

func TestRunFallbackRoleRecovery(t *testing.T) {
	invoker := &scriptedInvoker{handlers: map[string]func(stage.Request) (map[string]any, error){
		plan.StageAnalysis: func(req stage.Request) (map[string]any, error) {
			if req.Role == plan.RoleAnalyst {
				return nil, services.Wrap(services.ErrExternalTool, req.Stage, "analyze", "model unavailable", nil)
			}
			return map[string]any{stage.KeySummary: "fallback summary"}, nil
		},
	}}

	report, runner, err := runWorkflow(t, invoker, testWorkflowConfig(), plan.DepthStandard)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	var analysis *synthesis.Contribution
	for i := range report.Contributions {
		if report.Contributions[i].StageName == plan.StageAnalysis {
			analysis = &report.Contributions[i]
		}
	}
	if analysis == nil {
		t.Fatal("analysis contribution missing")
	}
	if analysis.Outcome != string(stage.OutcomeSuccess) {
		t.Fatalf("analysis outcome = %s", analysis.Outcome)
	}
	if !analysis.Result.Flag(stage.KeyRecoveryApplied) {
		t.Fatal("recovered payload missing recovery marker")
	}
	if got := analysis.Result.StringValue(stage.KeyRecoveryStrategy); got != string(recovery.StrategyFallbackRole) {
		t.Fatalf("recovery strategy marker = %q", got)
	}

	// The second analysis invocation must use the substitute role.
	var roles []string
	for _, req := range invoker.requests {
		if req.Stage == plan.StageAnalysis {
			roles = append(roles, req.Role)
		}
	}
	if len(roles) != 2 || roles[0] != plan.RoleAnalyst || roles[1] != "summary_analyst" {
		t.Fatalf("analysis roles = %v", roles)
	}

	snap := runner.Metrics().RecoveryMetrics()
	if snap.SuccessfulRecoveries != 1 {
		t.Fatalf("successful recoveries = %d, want 1", snap.SuccessfulRecoveries)
	}
}

func TestRunTimeoutRetriesWithSimplifiedParams(t *testing.T) {
	invoker := &scriptedInvoker{handlers: map[string]func(stage.Request) (map[string]any, error){
		plan.StageAnalysis: func(req stage.Request) (map[string]any, error) {
			if req.Params["complexity"] == "reduced" {
				return map[string]any{stage.KeySummary: "reduced analysis"}, nil
			}
			return nil, services.Wrap(services.ErrTimeout, req.Stage, "invoke", "stage deadline exceeded", nil)
		},
	}}

	report, runner, err := runWorkflow(t, invoker, testWorkflowConfig(), plan.DepthDeep)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Metrics.FailedStages != 0 {
		t.Fatalf("unexpected failures: %+v", report.Metrics)
	}

	history := runner.Metrics().History()
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
	if history[0].Severity != recovery.SeverityHigh {
		t.Fatalf("timeout severity = %s, want high", history[0].Severity)
	}
	if history[0].Strategy != recovery.StrategyRetry {
		t.Fatalf("timeout strategy = %s, want retry", history[0].Strategy)
	}
}

func TestRunDegradationAfterRepeatedFailures(t *testing.T) {
	invoker := &scriptedInvoker{handlers: map[string]func(stage.Request) (map[string]any, error){
		plan.StageAcquisition: func(req stage.Request) (map[string]any, error) {
			return nil, errors.New("source unreachable")
		},
	}}

	report, runner, err := runWorkflow(t, invoker, testWorkflowConfig(), plan.DepthStandard)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	acquisition := report.Contributions[0]
	if acquisition.Outcome != string(stage.OutcomeSuccess) {
		t.Fatalf("degraded acquisition outcome = %s", acquisition.Outcome)
	}
	if !acquisition.Result.Flag(stage.KeyDegradedExecution) {
		t.Fatal("degraded acquisition missing degraded marker")
	}
	if _, ok := acquisition.Result.PayloadValue(stage.KeyFallbackData); !ok {
		t.Fatal("degraded acquisition missing fallback data")
	}
	if report.Metrics.DegradedStages != 1 {
		t.Fatalf("degraded stages = %d, want 1", report.Metrics.DegradedStages)
	}

	// Foundational failure escalates: retry twice at High, then degrade.
	snap := runner.Metrics().RecoveryMetrics()
	if snap.DegradedExecutions != 1 {
		t.Fatalf("degraded executions = %d, want 1", snap.DegradedExecutions)
	}
	if snap.ErrorHistoryCount != 3 {
		t.Fatalf("history count = %d, want 3 (two retries plus degradation)", snap.ErrorHistoryCount)
	}
}

func TestRunCriticalFailureAborts(t *testing.T) {
	invoker := &scriptedInvoker{handlers: map[string]func(stage.Request) (map[string]any, error){
		plan.StageTranscription: func(req stage.Request) (map[string]any, error) {
			return nil, services.Wrap(services.ErrResourceExhausted, req.Stage, "transcribe", "cannot allocate memory", nil)
		},
	}}

	report, _, err := runWorkflow(t, invoker, testWorkflowConfig(), plan.DepthDeep)
	if !errors.Is(err, workflow.ErrWorkflowAborted) {
		t.Fatalf("expected ErrWorkflowAborted, got %v", err)
	}
	if report == nil {
		t.Fatal("aborted run must still return the partial report")
	}
	if !report.Aborted {
		t.Fatal("report not marked aborted")
	}
	if len(report.Contributions) != 2 {
		t.Fatalf("contributions = %d, want acquisition plus failed transcription", len(report.Contributions))
	}
	failed := report.Contributions[1]
	if failed.Outcome != string(stage.OutcomeFailure) {
		t.Fatalf("aborting stage outcome = %s", failed.Outcome)
	}
	if failed.QualityScore != 0 {
		t.Fatalf("aborting stage quality = %f, want 0", failed.QualityScore)
	}
}

func TestRunSkipsStagesWithFailedDependencies(t *testing.T) {
	// With a budget too small for the escalation chain to degrade, the stage
	// fails outright and its dependents skip.
	cfg := testWorkflowConfig()
	cfg.MaxStageAttempts = 2
	invoker := &scriptedInvoker{handlers: map[string]func(stage.Request) (map[string]any, error){
		plan.StageAnalysis: func(req stage.Request) (map[string]any, error) {
			return nil, errors.New("analysis persistently broken")
		},
	}}

	report, _, err := runWorkflow(t, invoker, cfg, plan.DepthDeep)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	byStage := map[string]synthesis.Contribution{}
	for _, c := range report.Contributions {
		byStage[c.StageName] = c
	}
	if byStage[plan.StageAnalysis].Outcome != string(stage.OutcomeFailure) {
		t.Fatalf("analysis outcome = %s", byStage[plan.StageAnalysis].Outcome)
	}
	verification, ok := byStage[plan.StageVerification]
	if !ok {
		t.Fatal("verification contribution missing")
	}
	if verification.Outcome != string(stage.OutcomeSkip) {
		t.Fatalf("verification outcome = %s, want skip", verification.Outcome)
	}
	if report.Metrics.SuccessRate >= 1 {
		t.Fatalf("success rate = %f with failed and skipped stages", report.Metrics.SuccessRate)
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := workflow.NewRunner(&scriptedInvoker{handlers: map[string]func(stage.Request) (map[string]any, error){}}, testWorkflowConfig(), nil)
	report, err := runner.Run(ctx, workflow.RunRequest{Target: "dossier-42", Depth: plan.DepthStandard})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report != nil {
		t.Fatal("cancelled run should not produce a report")
	}
}
