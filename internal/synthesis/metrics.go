package synthesis

import "argus/internal/stage"

// Metrics aggregates all contributions of one run. Derived, recomputed per
// synthesis call, never persisted on its own.
type Metrics struct {
	TotalStages            int     `json:"total_stages"`
	SuccessfulStages       int     `json:"successful_stages"`
	FailedStages           int     `json:"failed_stages"`
	DegradedStages         int     `json:"degraded_stages"`
	AverageQuality         float64 `json:"average_quality"`
	AverageConfidence      float64 `json:"average_confidence"`
	AverageCompleteness    float64 `json:"average_completeness"`
	SuccessRate            float64 `json:"success_rate"`
	TotalProcessingSeconds float64 `json:"total_processing_seconds"`
}

// computeMetrics aggregates contribution records. Averages divide by at least
// one so an empty contribution list yields zeros instead of NaN.
func computeMetrics(contributions []Contribution) Metrics {
	metrics := Metrics{TotalStages: len(contributions)}

	var qualitySum, confidenceSum, completenessSum float64
	for _, c := range contributions {
		qualitySum += c.QualityScore
		confidenceSum += c.ConfidenceLevel
		completenessSum += c.DataCompleteness
		metrics.TotalProcessingSeconds += c.ProcessingTimeSeconds

		switch c.Result.Outcome() {
		case stage.OutcomeSuccess:
			metrics.SuccessfulStages++
			if c.Result.Flag(stage.KeyDegradedExecution) {
				metrics.DegradedStages++
			}
		case stage.OutcomeFailure:
			metrics.FailedStages++
		}
	}

	denominator := float64(len(contributions))
	if denominator < 1 {
		denominator = 1
	}
	metrics.AverageQuality = qualitySum / denominator
	metrics.AverageConfidence = confidenceSum / denominator
	metrics.AverageCompleteness = completenessSum / denominator
	metrics.SuccessRate = float64(metrics.SuccessfulStages) / denominator
	return metrics
}
