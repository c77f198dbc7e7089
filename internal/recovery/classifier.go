package recovery

import (
	"context"
	"errors"
	"strings"

	"argus/internal/plan"
	"argus/internal/services"
	"argus/internal/stage"
)

// Severity grades how dangerous a stage failure is to the rest of the run.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ErrorContext captures one stage failure for recovery planning. It is built
// fresh per failure, consumed immediately, and never mutated.
type ErrorContext struct {
	StageName        string
	Role             string
	ErrorKind        services.Kind
	ErrorMessage     string
	Severity         Severity
	RetryCount       int
	Depth            plan.Depth
	PrecedingResults map[string]stage.Result
	SystemHealth     map[string]any
}

// oomPatterns catches resource-exhaustion errors reported by collaborators
// that do not wrap services.ErrResourceExhausted.
var oomPatterns = []string{
	"out of memory",
	"cannot allocate memory",
	"oom",
}

// Classify computes the failure severity for a stage error. Rules are
// evaluated in order and the first match wins; the ordering is load-bearing.
// Foundational-stage failures must never downgrade below High, because every
// downstream stage consumes their output, and timeouts enter at High minimum
// because a hung collaborator is indistinguishable from a lost one.
func Classify(err error, stageName string, retryCount int, depth plan.Depth) Severity {
	if isResourceExhaustion(err) {
		return SeverityCritical
	}
	if isTimeout(err) {
		return SeverityHigh
	}

	class, _ := plan.Classify(stageName)
	switch {
	case class == plan.ClassFoundational || retryCount >= 3:
		return SeverityHigh
	case class == plan.ClassCore || retryCount >= 2:
		return SeverityMedium
	case class == plan.ClassEnhancement:
		return SeverityLow
	default:
		return SeverityMedium
	}
}

func isResourceExhaustion(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, services.ErrResourceExhausted) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range oomPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, services.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
}
