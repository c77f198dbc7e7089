package synthesis

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"argus/internal/plan"
)

// Report is the sole externally consumable artifact of a completed run.
type Report struct {
	CorrelationID    string         `json:"correlation_id,omitempty"`
	Target           string         `json:"target,omitempty"`
	Depth            plan.Depth     `json:"depth"`
	ExecutiveSummary string         `json:"executive_summary"`
	QualityGrade     Grade          `json:"quality_grade"`
	CompositeScore   float64        `json:"composite_score"`
	Metrics          Metrics        `json:"synthesis_metrics"`
	Contributions    []Contribution `json:"agent_contributions"`
	Fused            map[string]any `json:"fused_report"`
	Aborted          bool           `json:"aborted,omitempty"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

var titleCaser = cases.Title(language.English)

// Synthesize fuses contributions into one graded report. It never returns an
// error: zero contributions produce a Poor grade with an explicit
// synthesis-failure marker, and calling it twice on the same contribution
// list yields an identical grade and metrics.
func Synthesize(contributions []Contribution, depth plan.Depth) *Report {
	normalized := plan.ParseDepth(string(depth))
	metrics := computeMetrics(contributions)

	report := &Report{
		Depth:         normalized,
		Metrics:       metrics,
		Contributions: contributions,
		GeneratedAt:   time.Now().UTC(),
	}

	if len(contributions) == 0 {
		report.QualityGrade = GradePoor
		report.Fused = map[string]any{"synthesis_failure": true}
		report.ExecutiveSummary = fmt.Sprintf(
			"%s analysis produced no stage contributions; synthesis failed.",
			titleCaser.String(string(normalized)),
		)
		return report
	}

	report.Fused = fuse(contributions, normalized)
	report.CompositeScore = CompositeScore(metrics, normalized)
	report.QualityGrade = GradeFor(report.CompositeScore)
	report.ExecutiveSummary = executiveSummary(report)
	return report
}

func executiveSummary(report *Report) string {
	m := report.Metrics
	summary := fmt.Sprintf(
		"%s-depth analysis graded %s (score %.2f): %d/%d stages succeeded",
		titleCaser.String(string(report.Depth)),
		titleCaser.String(string(report.QualityGrade)),
		report.CompositeScore,
		m.SuccessfulStages,
		m.TotalStages,
	)
	if m.DegradedStages > 0 {
		summary += fmt.Sprintf(", %d degraded", m.DegradedStages)
	}
	if m.FailedStages > 0 {
		summary += fmt.Sprintf(", %d failed", m.FailedStages)
	}
	summary += fmt.Sprintf("; average confidence %.2f.", m.AverageConfidence)
	return summary
}

// MarkAborted annotates the report for a run that stopped before completing
// its plan. Already-produced contributions stay in the report.
func (r *Report) MarkAborted() {
	if r == nil || r.Aborted {
		return
	}
	r.Aborted = true
	r.ExecutiveSummary += " Run aborted before completing the plan; report covers completed stages only."
}
