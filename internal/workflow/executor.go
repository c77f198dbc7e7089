package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"argus/internal/logging"
	"argus/internal/plan"
	"argus/internal/recovery"
	"argus/internal/services"
	"argus/internal/stage"
)

// StageExecutor runs a single stage attempt under the configured timeout and,
// on failure, classifies the error and plans the recovery action. It never
// retries on its own; the run loop owns attempt sequencing.
type StageExecutor struct {
	invoker stage.Invoker
	timeout time.Duration
	logger  *slog.Logger
}

// Attempt is the outcome of one stage invocation.
type Attempt struct {
	Payload  map[string]any
	Err      error
	Severity recovery.Severity
	Recovery recovery.Plan
	Elapsed  time.Duration
}

func NewStageExecutor(invoker stage.Invoker, timeout time.Duration, logger *slog.Logger) *StageExecutor {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StageExecutor{invoker: invoker, timeout: timeout, logger: logger}
}

// Execute invokes the stage once. A nil Attempt.Err means the payload is the
// stage's result; otherwise Attempt.Recovery holds the planned response and
// Attempt.Severity the classification that produced it.
func (e *StageExecutor) Execute(ctx context.Context, spec plan.StageSpec, req stage.Request, retryCount int, preceding map[string]stage.Result) Attempt {
	stageCtx := services.WithStage(ctx, spec.Name)
	cancel := func() {}
	if e.timeout > 0 {
		stageCtx, cancel = context.WithTimeout(stageCtx, e.timeout)
	}
	defer cancel()

	log := logging.WithContext(stageCtx, e.logger)
	log.Info("stage attempt",
		logging.Stage(spec.Name),
		logging.String("role", req.Role),
		logging.Int("retry_count", retryCount))

	start := time.Now()
	payload, err := e.invoker.Invoke(stageCtx, req)
	elapsed := time.Since(start)

	if err == nil {
		log.Info("stage attempt succeeded",
			logging.Stage(spec.Name),
			logging.Duration("elapsed", elapsed),
			logging.Int("payload_fields", len(payload)))
		return Attempt{Payload: payload, Elapsed: elapsed}
	}

	if deadline := stageCtx.Err(); errors.Is(deadline, context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = services.Wrap(services.ErrTimeout, spec.Name, "invoke", "stage deadline exceeded", err)
	}

	depth := plan.ParseDepth(req.Depth)
	severity := recovery.Classify(err, spec.Name, retryCount, depth)
	details := services.Details(err)
	errCtx := recovery.ErrorContext{
		StageName:        spec.Name,
		Role:             req.Role,
		ErrorKind:        details.Kind,
		ErrorMessage:     err.Error(),
		Severity:         severity,
		RetryCount:       retryCount,
		Depth:            depth,
		PrecedingResults: preceding,
		SystemHealth:     systemHealth(),
	}
	recoveryPlan := planSafely(errCtx)

	log.Warn("stage attempt failed",
		logging.Stage(spec.Name),
		logging.Severity(string(severity)),
		logging.Strategy(string(recoveryPlan.Strategy)),
		logging.ErrorKind(string(details.Kind)),
		logging.Duration("elapsed", elapsed),
		logging.Error(err))

	return Attempt{
		Err:      err,
		Severity: severity,
		Recovery: recoveryPlan,
		Elapsed:  elapsed,
	}
}

// planSafely shields the run loop from a panicking recovery planner. A panic
// while deciding how to recover leaves no safe way to continue, so it maps to
// an abort.
func planSafely(errCtx recovery.ErrorContext) (p recovery.Plan) {
	defer func() {
		if r := recover(); r != nil {
			p = recovery.Plan{
				Strategy:         recovery.StrategyAbortWorkflow,
				DegradationLevel: "none",
				ContinueWorkflow: false,
				Reason:           fmt.Sprintf("recovery planning panicked for %s: %v", errCtx.StageName, r),
			}
		}
	}()
	return recovery.PlanRecovery(errCtx)
}

func systemHealth() map[string]any {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return map[string]any{
		"goroutines":   runtime.NumGoroutine(),
		"heap_alloc":   mem.HeapAlloc,
		"num_gc":       mem.NumGC,
		"collected_at": time.Now().UTC().Format(time.RFC3339),
	}
}
