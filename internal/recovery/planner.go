package recovery

import (
	"fmt"

	"argus/internal/plan"
	"argus/internal/stage"
)

// Strategy names one of the five responses to a stage failure.
type Strategy string

const (
	StrategyRetry               Strategy = "retry"
	StrategyFallbackRole        Strategy = "fallback_role"
	StrategySimplifiedExecution Strategy = "simplified_execution"
	StrategyGracefulDegradation Strategy = "graceful_degradation"
	StrategyAbortWorkflow       Strategy = "abort_workflow"
)

// Plan describes the selected recovery action and its parameters.
// ContinueWorkflow is false iff Strategy is StrategyAbortWorkflow.
//
// MaxRetries is the planner's per-strategy allowance. The run loop re-plans
// after every failed attempt under its own overall attempt budget, so severity
// escalation replaces a strategy (and its allowance) before MaxRetries is
// exhausted; the field is advisory for callers that apply a plan without
// re-planning.
type Plan struct {
	Strategy         Strategy
	FallbackRole     string
	FallbackPayload  map[string]any
	SimplifiedParams map[string]any
	MaxRetries       int
	DegradationLevel string
	ContinueWorkflow bool
	Reason           string
}

// fallbackRoles maps a capability role to the role substituted when the
// primary repeatedly fails. Roles without an entry degrade to the analyst,
// which can produce a coarse result from whatever context exists.
var fallbackRoles = map[string]string{
	plan.RoleAcquirer:       "cache_fetcher",
	plan.RoleTranscriber:    "caption_extractor",
	plan.RoleAnalyst:        "summary_analyst",
	plan.RoleFactChecker:    plan.RoleAnalyst,
	plan.RoleArchivist:      plan.RoleAnalyst,
	plan.RoleThreatAssessor: plan.RoleAnalyst,
	plan.RoleProfiler:       plan.RoleAnalyst,
}

// FallbackRoleFor returns the substitute role for a capability role.
func FallbackRoleFor(role string) string {
	if fallback, ok := fallbackRoles[role]; ok {
		return fallback
	}
	return plan.RoleAnalyst
}

// PlanRecovery selects a recovery strategy for a classified failure. The
// decision is keyed by severity and retry count only; it performs no I/O.
func PlanRecovery(ctx ErrorContext) Plan {
	switch ctx.Severity {
	case SeverityCritical:
		return Plan{
			Strategy:         StrategyAbortWorkflow,
			MaxRetries:       0,
			DegradationLevel: "none",
			ContinueWorkflow: false,
			Reason:           fmt.Sprintf("critical failure in %s: %s", ctx.StageName, ctx.ErrorMessage),
		}
	case SeverityHigh:
		if ctx.RetryCount < 2 {
			return Plan{
				Strategy:         StrategyRetry,
				SimplifiedParams: SimplifiedParams(ctx.Depth),
				MaxRetries:       2,
				DegradationLevel: "none",
				ContinueWorkflow: true,
				Reason:           fmt.Sprintf("retrying %s with reduced complexity (attempt %d)", ctx.StageName, ctx.RetryCount+1),
			}
		}
		return Plan{
			Strategy:         StrategyGracefulDegradation,
			FallbackRole:     FallbackRoleFor(ctx.Role),
			FallbackPayload:  fallbackPayload(ctx),
			MaxRetries:       0,
			DegradationLevel: degradationLevel(ctx.RetryCount),
			ContinueWorkflow: true,
			Reason:           fmt.Sprintf("%s exhausted retries, continuing with synthetic fallback data", ctx.StageName),
		}
	case SeverityMedium:
		if ctx.RetryCount < 3 {
			return Plan{
				Strategy:         StrategyFallbackRole,
				FallbackRole:     FallbackRoleFor(ctx.Role),
				MaxRetries:       1,
				DegradationLevel: "none",
				ContinueWorkflow: true,
				Reason:           fmt.Sprintf("switching %s from %s to %s", ctx.StageName, ctx.Role, FallbackRoleFor(ctx.Role)),
			}
		}
		return Plan{
			Strategy:         StrategySimplifiedExecution,
			SimplifiedParams: SimplifiedParams(ctx.Depth),
			MaxRetries:       1,
			DegradationLevel: "none",
			ContinueWorkflow: true,
			Reason:           fmt.Sprintf("fallback role for %s also failing, simplifying execution", ctx.StageName),
		}
	case SeverityLow:
		return Plan{
			Strategy:         StrategySimplifiedExecution,
			SimplifiedParams: SimplifiedParams(ctx.Depth),
			MaxRetries:       1,
			DegradationLevel: "none",
			ContinueWorkflow: true,
			Reason:           fmt.Sprintf("enhancement stage %s failed, simplifying", ctx.StageName),
		}
	default:
		return Plan{
			Strategy:         StrategySimplifiedExecution,
			SimplifiedParams: SimplifiedParams(ctx.Depth),
			MaxRetries:       1,
			DegradationLevel: "none",
			ContinueWorkflow: true,
			Reason:           fmt.Sprintf("unclassified severity for %s, simplifying", ctx.StageName),
		}
	}
}

// SimplifiedParams returns the reduced-complexity parameter set handed to a
// stage on retry or simplified execution. At the two deepest levels recovery
// also narrows the effective depth of the remaining work.
func SimplifiedParams(depth plan.Depth) map[string]any {
	params := map[string]any{
		"complexity":   "reduced",
		"prefer_cache": true,
	}
	switch plan.ParseDepth(string(depth)) {
	case plan.DepthExperimental:
		params["fallback_depth"] = string(plan.DepthComprehensive)
		params["skip_experimental"] = true
	case plan.DepthComprehensive:
		params["fallback_depth"] = string(plan.DepthDeep)
		params["skip_advanced"] = true
	}
	return params
}

func degradationLevel(retryCount int) string {
	if retryCount >= 3 {
		return "severe"
	}
	return "moderate"
}

// fallbackPayload synthesizes the minimal stand-in data a degraded stage
// reports instead of real output. High-severity degradation always requires
// manual review downstream.
func fallbackPayload(ctx ErrorContext) map[string]any {
	payload := map[string]any{
		stage.KeyFallbackData: map[string]any{
			"stage":          ctx.StageName,
			"original_role":  ctx.Role,
			"fallback_role":  FallbackRoleFor(ctx.Role),
			"failure_reason": ctx.ErrorMessage,
			"attempts":       ctx.RetryCount + 1,
		},
		stage.KeyReducedConfidence: true,
	}
	if ctx.Severity == SeverityHigh || ctx.Severity == SeverityCritical {
		payload[stage.KeyRequiresManualReview] = true
	}
	return payload
}
