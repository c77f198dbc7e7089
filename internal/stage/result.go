package stage

import (
	"maps"
	"time"
)

// Outcome is the tri-state status of a stage invocation.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkip    Outcome = "skip"
)

// Payload keys the engine writes and synthesis interprets. Capability roles
// may also set them directly.
const (
	KeyDegradedExecution    = "degraded_execution"
	KeyRecoveryApplied      = "recovery_applied"
	KeyRecoveryStrategy     = "recovery_strategy"
	KeyReducedConfidence    = "reduced_confidence"
	KeyRequiresManualReview = "requires_manual_review"
	KeyVerificationStatus   = "verification_status"
	KeyEnhanced             = "enhanced"
	KeyInsights             = "insights"
	KeySummary              = "summary"
	KeyFallbackData         = "fallback_data"
)

// VerificationVerified is the KeyVerificationStatus value that raises
// contribution confidence.
const VerificationVerified = "verified"

// Result is the immutable outcome of one stage invocation. Construct through
// Success, Failure, or Skip; the payload is copied on construction and on
// access so a Result never aliases caller maps.
type Result struct {
	outcome   Outcome
	stepID    string
	payload   map[string]any
	errMsg    string
	createdAt time.Time
}

// Success builds a success result carrying the stage payload.
func Success(stepID string, payload map[string]any) Result {
	return Result{
		outcome:   OutcomeSuccess,
		stepID:    stepID,
		payload:   clonePayload(payload),
		createdAt: time.Now().UTC(),
	}
}

// Failure builds a failure result. The message must be non-empty; a blank
// message is normalized so the error-message invariant holds.
func Failure(stepID, message string) Result {
	if message == "" {
		message = stepID + " failed"
	}
	return Result{
		outcome:   OutcomeFailure,
		stepID:    stepID,
		errMsg:    message,
		createdAt: time.Now().UTC(),
	}
}

// Skip builds a skip result for a stage whose dependencies were not met.
func Skip(stepID, reason string) Result {
	var payload map[string]any
	if reason != "" {
		payload = map[string]any{"skip_reason": reason}
	}
	return Result{
		outcome:   OutcomeSkip,
		stepID:    stepID,
		payload:   payload,
		createdAt: time.Now().UTC(),
	}
}

func (r Result) Outcome() Outcome { return r.outcome }

func (r Result) StepID() string { return r.stepID }

func (r Result) ErrorMessage() string { return r.errMsg }

func (r Result) CreatedAt() time.Time { return r.createdAt }

// Payload returns a copy of the result payload.
func (r Result) Payload() map[string]any {
	return clonePayload(r.payload)
}

// PayloadValue returns a single payload entry without copying the whole map.
func (r Result) PayloadValue(key string) (any, bool) {
	v, ok := r.payload[key]
	return v, ok
}

// PayloadLen returns the number of payload fields present.
func (r Result) PayloadLen() int { return len(r.payload) }

// Flag reports whether a payload key holds boolean true.
func (r Result) Flag(key string) bool {
	v, ok := r.payload[key]
	if !ok {
		return false
	}
	b, ok := v.(bool)
	return ok && b
}

// StringValue returns a payload entry as a string, or "" when absent or not a
// string.
func (r Result) StringValue(key string) string {
	v, ok := r.payload[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func clonePayload(payload map[string]any) map[string]any {
	if len(payload) == 0 {
		return nil
	}
	return maps.Clone(payload)
}
