package synthesis

import (
	"time"

	"argus/internal/plan"
	"argus/internal/stage"
)

// Contribution is the normalized, graded record of one stage's outcome.
// Created once per executed stage and never mutated.
type Contribution struct {
	StageName             string       `json:"stage_name"`
	Role                  string       `json:"capability_role"`
	Result                stage.Result `json:"-"`
	Outcome               string       `json:"outcome"`
	QualityScore          float64      `json:"quality_score"`
	ConfidenceLevel       float64      `json:"confidence_level"`
	ProcessingTimeSeconds float64      `json:"processing_time_seconds"`
	DataCompleteness      float64      `json:"data_completeness"`
	ErrorIndicators       []string     `json:"error_indicators,omitempty"`
}

const qualityBaseline = 0.7

var depthQualityScale = map[plan.Depth]float64{
	plan.DepthStandard:      0.8,
	plan.DepthDeep:          1.0,
	plan.DepthComprehensive: 1.2,
	plan.DepthExperimental:  1.3,
}

// completenessFieldTarget is the payload field count treated as fully
// complete.
const completenessFieldTarget = 10

// Assess converts a stage result into a contribution record. The quality
// score starts from a depth-scaled baseline and is multiplicatively adjusted
// by the recovery and enrichment markers on the payload, then clamped to
// [0,1].
func Assess(stageName, role string, result stage.Result, depth plan.Depth, elapsed time.Duration) Contribution {
	contribution := Contribution{
		StageName:             stageName,
		Role:                  role,
		Result:                result,
		Outcome:               string(result.Outcome()),
		ProcessingTimeSeconds: elapsed.Seconds(),
		ErrorIndicators:       errorIndicators(result),
	}

	if result.Outcome() != stage.OutcomeSuccess {
		return contribution
	}

	quality := qualityBaseline * depthQualityScale[plan.ParseDepth(string(depth))]
	if quality > 1 {
		quality = 1
	}
	if result.Flag(stage.KeyDegradedExecution) {
		quality *= 0.6
	}
	if result.Flag(stage.KeyRecoveryApplied) {
		quality *= 0.8
	}
	if hasInsights(result) {
		quality *= 1.2
	}
	if result.Flag(stage.KeyEnhanced) {
		quality *= 1.1
	}
	contribution.QualityScore = clamp01(quality)

	contribution.ConfidenceLevel = confidenceFor(result)
	contribution.DataCompleteness = clamp01(float64(result.PayloadLen()) / completenessFieldTarget)
	return contribution
}

func confidenceFor(result stage.Result) float64 {
	switch {
	case result.StringValue(stage.KeyVerificationStatus) == stage.VerificationVerified:
		return 0.9
	case result.Flag(stage.KeyRequiresManualReview):
		return 0.4
	case result.Flag(stage.KeyDegradedExecution):
		return 0.5
	default:
		return 0.7
	}
}

func hasInsights(result stage.Result) bool {
	v, ok := result.PayloadValue(stage.KeyInsights)
	if !ok {
		return false
	}
	switch insights := v.(type) {
	case []any:
		return len(insights) > 0
	case []string:
		return len(insights) > 0
	default:
		return false
	}
}

func errorIndicators(result stage.Result) []string {
	var indicators []string
	for _, key := range []string{
		stage.KeyDegradedExecution,
		stage.KeyReducedConfidence,
		stage.KeyRequiresManualReview,
	} {
		if result.Flag(key) {
			indicators = append(indicators, key)
		}
	}
	if msg := result.ErrorMessage(); msg != "" {
		indicators = append(indicators, msg)
	}
	return indicators
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
