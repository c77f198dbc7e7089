package synthesis

import "argus/internal/plan"

// Grade is the five-level rating of an entire workflow run.
type Grade string

const (
	GradeExcellent    Grade = "excellent"
	GradeGood         Grade = "good"
	GradeSatisfactory Grade = "satisfactory"
	GradeLimited      Grade = "limited"
	GradePoor         Grade = "poor"
)

var depthBonus = map[plan.Depth]float64{
	plan.DepthStandard:      0,
	plan.DepthDeep:          0.05,
	plan.DepthComprehensive: 0.10,
	plan.DepthExperimental:  0.15,
}

// CompositeScore fuses the aggregate metrics into one number: quality carries
// the most weight, then confidence, success rate, and completeness, plus a
// bonus for deeper runs.
func CompositeScore(metrics Metrics, depth plan.Depth) float64 {
	score := 0.4*metrics.AverageQuality +
		0.3*metrics.AverageConfidence +
		0.2*metrics.SuccessRate +
		0.1*metrics.AverageCompleteness
	score += depthBonus[plan.ParseDepth(string(depth))]
	return score
}

// GradeFor maps a composite score onto the grade scale.
func GradeFor(score float64) Grade {
	switch {
	case score >= 0.9:
		return GradeExcellent
	case score >= 0.7:
		return GradeGood
	case score >= 0.5:
		return GradeSatisfactory
	case score >= 0.3:
		return GradeLimited
	default:
		return GradePoor
	}
}
