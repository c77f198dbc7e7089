package synthesis_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"argus/internal/plan"
	"argus/internal/stage"
	"argus/internal/synthesis"
)

func fullPayload(extra map[string]any) map[string]any {
	payload := map[string]any{
		"f1": 1, "f2": 2, "f3": 3, "f4": 4, "f5": 5,
		"f6": 6, "f7": 7, "f8": 8, "f9": 9, "f10": 10,
	}
	for k, v := range extra {
		payload[k] = v
	}
	return payload
}

func deepContributions(t *testing.T) []synthesis.Contribution {
	t.Helper()
	mk := func(stageName, role string, extra map[string]any) synthesis.Contribution {
		return synthesis.Assess(stageName, role, stage.Success(stageName, fullPayload(extra)), plan.DepthDeep, time.Second)
	}
	return []synthesis.Contribution{
		mk(plan.StageAcquisition, plan.RoleAcquirer, nil),
		mk(plan.StageTranscription, plan.RoleTranscriber, nil),
		mk(plan.StageAnalysis, plan.RoleAnalyst, map[string]any{stage.KeyInsights: []string{"pattern"}}),
		mk(plan.StageVerification, plan.RoleFactChecker, map[string]any{stage.KeyVerificationStatus: stage.VerificationVerified}),
	}
}

func TestSynthesizeEmptyContributions(t *testing.T) {
	report := synthesis.Synthesize(nil, plan.DepthDeep)
	if report.QualityGrade != synthesis.GradePoor {
		t.Fatalf("empty synthesis graded %s, want poor", report.QualityGrade)
	}
	if report.CompositeScore != 0 {
		t.Fatalf("empty synthesis score = %f", report.CompositeScore)
	}
	if report.Fused["synthesis_failure"] != true {
		t.Fatal("empty synthesis missing failure marker")
	}
	if report.ExecutiveSummary == "" {
		t.Fatal("empty synthesis missing executive summary")
	}
}

func TestSynthesizeSuccessfulDeepRun(t *testing.T) {
	contributions := deepContributions(t)
	report := synthesis.Synthesize(contributions, plan.DepthDeep)

	if report.Metrics.SuccessfulStages != 4 || report.Metrics.FailedStages != 0 {
		t.Fatalf("unexpected metrics: %+v", report.Metrics)
	}
	if report.Metrics.SuccessRate != 1 {
		t.Fatalf("success rate = %f", report.Metrics.SuccessRate)
	}
	if report.QualityGrade != synthesis.GradeGood {
		t.Fatalf("clean deep run graded %s (score %f), want good", report.QualityGrade, report.CompositeScore)
	}
	if report.CompositeScore < 0.7 || report.CompositeScore >= 0.9 {
		t.Fatalf("composite score %f outside good band", report.CompositeScore)
	}
	if !strings.Contains(report.ExecutiveSummary, "4/4 stages succeeded") {
		t.Fatalf("unexpected summary: %s", report.ExecutiveSummary)
	}
}

func TestSynthesizeSuccessfulStandardRun(t *testing.T) {
	mk := func(stageName, role string) synthesis.Contribution {
		return synthesis.Assess(stageName, role, stage.Success(stageName, fullPayload(nil)), plan.DepthStandard, time.Second)
	}
	contributions := []synthesis.Contribution{
		mk(plan.StageAcquisition, plan.RoleAcquirer),
		mk(plan.StageTranscription, plan.RoleTranscriber),
		mk(plan.StageAnalysis, plan.RoleAnalyst),
	}

	report := synthesis.Synthesize(contributions, plan.DepthStandard)
	if report.Metrics.SuccessRate != 1 {
		t.Fatalf("success rate = %f", report.Metrics.SuccessRate)
	}
	if report.CompositeScore < 0.7 || report.CompositeScore >= 0.9 {
		t.Fatalf("composite score %f outside good band", report.CompositeScore)
	}
	if report.QualityGrade != synthesis.GradeGood {
		t.Fatalf("clean standard run graded %s (score %f), want good", report.QualityGrade, report.CompositeScore)
	}
}

func TestFusedSummariesKeepRuneBoundaries(t *testing.T) {
	longSummary := strings.Repeat("€", 120)
	contributions := deepContributions(t)
	contributions[2] = synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst,
		stage.Success(plan.StageAnalysis, fullPayload(map[string]any{stage.KeySummary: longSummary})),
		plan.DepthDeep, time.Second)

	report := synthesis.Synthesize(contributions, plan.DepthDeep)
	stages, ok := report.Fused["stages"].(map[string]any)
	if !ok {
		t.Fatalf("fused report missing stages: %v", report.Fused)
	}
	entry, ok := stages[plan.StageAnalysis].(map[string]any)
	if !ok {
		t.Fatal("fused report missing analysis stage")
	}
	summary, _ := entry["summary"].(string)
	if summary == "" {
		t.Fatal("fused analysis summary is empty")
	}
	if !utf8.ValidString(summary) {
		t.Fatalf("fused summary is invalid UTF-8: %q", summary)
	}
	if !strings.HasSuffix(summary, "…") {
		t.Fatalf("truncated summary missing ellipsis: %q", summary)
	}
}

func TestSynthesizeIsIdempotent(t *testing.T) {
	contributions := deepContributions(t)
	first := synthesis.Synthesize(contributions, plan.DepthDeep)
	second := synthesis.Synthesize(contributions, plan.DepthDeep)

	if first.QualityGrade != second.QualityGrade {
		t.Fatalf("grades differ: %s vs %s", first.QualityGrade, second.QualityGrade)
	}
	if first.CompositeScore != second.CompositeScore {
		t.Fatalf("scores differ: %f vs %f", first.CompositeScore, second.CompositeScore)
	}
	if first.Metrics != second.Metrics {
		t.Fatalf("metrics differ: %+v vs %+v", first.Metrics, second.Metrics)
	}
}

func TestFusionStrategyByDepth(t *testing.T) {
	contributions := deepContributions(t)

	cases := map[plan.Depth]string{
		plan.DepthStandard:      "basic",
		plan.DepthDeep:          "enhanced",
		plan.DepthComprehensive: "comprehensive",
		plan.DepthExperimental:  "experimental",
	}
	for depth, want := range cases {
		report := synthesis.Synthesize(contributions, depth)
		if got := report.Fused["strategy"]; got != want {
			t.Errorf("depth %s fused with strategy %v, want %s", depth, got, want)
		}
	}
}

func TestBasicFusionFiltersLowConfidence(t *testing.T) {
	degraded := synthesis.Assess(plan.StageTranscription, plan.RoleTranscriber,
		stage.Success(plan.StageTranscription, fullPayload(map[string]any{stage.KeyDegradedExecution: true})),
		plan.DepthStandard, 0)
	verified := synthesis.Assess(plan.StageVerification, plan.RoleFactChecker,
		stage.Success(plan.StageVerification, fullPayload(map[string]any{stage.KeyVerificationStatus: stage.VerificationVerified})),
		plan.DepthStandard, 0)

	report := synthesis.Synthesize([]synthesis.Contribution{degraded, verified}, plan.DepthStandard)
	stages, ok := report.Fused["stages"].(map[string]any)
	if !ok {
		t.Fatalf("fused stages missing: %#v", report.Fused)
	}
	if _, ok := stages[plan.StageTranscription]; ok {
		t.Fatal("basic fusion kept a low-confidence contribution")
	}
	if _, ok := stages[plan.StageVerification]; !ok {
		t.Fatal("basic fusion dropped a confident contribution")
	}
}

func TestComprehensiveFusionCorrelations(t *testing.T) {
	contributions := deepContributions(t)
	report := synthesis.Synthesize(contributions, plan.DepthComprehensive)

	correlations, ok := report.Fused["correlations"].(map[string]float64)
	if !ok {
		t.Fatalf("correlations missing: %#v", report.Fused["correlations"])
	}
	key := plan.StageAnalysis + "|" + plan.StageVerification
	corr, ok := correlations[key]
	if !ok {
		t.Fatalf("missing correlation %s", key)
	}
	if corr < 0 || corr > 1 {
		t.Fatalf("correlation %f out of range", corr)
	}
}

func TestExperimentalFusionPredictiveSignals(t *testing.T) {
	contributions := deepContributions(t)
	threat := synthesis.Assess(plan.StageThreatAssessment, plan.RoleThreatAssessor,
		stage.Success(plan.StageThreatAssessment, fullPayload(map[string]any{
			stage.KeyVerificationStatus: stage.VerificationVerified,
			stage.KeyEnhanced:           true,
		})),
		plan.DepthExperimental, 0)
	contributions = append(contributions, threat)

	report := synthesis.Synthesize(contributions, plan.DepthExperimental)
	signals, ok := report.Fused["predictive_signals"].([]map[string]any)
	if !ok {
		t.Fatalf("predictive signals missing: %#v", report.Fused["predictive_signals"])
	}
	found := false
	for _, signal := range signals {
		if signal["type"] == "risk_forecast" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected risk_forecast signal from confident threat assessment")
	}
}

func TestGradeThresholds(t *testing.T) {
	cases := map[float64]synthesis.Grade{
		0.95: synthesis.GradeExcellent,
		0.90: synthesis.GradeExcellent,
		0.89: synthesis.GradeGood,
		0.70: synthesis.GradeGood,
		0.69: synthesis.GradeSatisfactory,
		0.50: synthesis.GradeSatisfactory,
		0.49: synthesis.GradeLimited,
		0.30: synthesis.GradeLimited,
		0.29: synthesis.GradePoor,
		0.0:  synthesis.GradePoor,
	}
	for score, want := range cases {
		if got := synthesis.GradeFor(score); got != want {
			t.Errorf("GradeFor(%.2f) = %s, want %s", score, got, want)
		}
	}
}

func TestMarkAborted(t *testing.T) {
	report := synthesis.Synthesize(deepContributions(t), plan.DepthDeep)
	summary := report.ExecutiveSummary

	report.MarkAborted()
	if !report.Aborted {
		t.Fatal("report not marked aborted")
	}
	if !strings.Contains(report.ExecutiveSummary, "aborted") {
		t.Fatalf("summary missing abort note: %s", report.ExecutiveSummary)
	}

	// A second call must not append the note again.
	once := report.ExecutiveSummary
	report.MarkAborted()
	if report.ExecutiveSummary != once {
		t.Fatal("MarkAborted is not idempotent")
	}
	if report.ExecutiveSummary == summary {
		t.Fatal("abort note not appended")
	}
}
