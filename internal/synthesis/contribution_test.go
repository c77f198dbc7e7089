package synthesis_test

import (
	"testing"
	"time"

	"argus/internal/plan"
	"argus/internal/stage"
	"argus/internal/synthesis"
)

const epsilon = 1e-9

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}

func TestAssessBaselineByDepth(t *testing.T) {
	result := stage.Success(plan.StageAnalysis, map[string]any{stage.KeySummary: "ok"})

	cases := map[plan.Depth]float64{
		plan.DepthStandard:      0.7 * 0.8,
		plan.DepthDeep:          0.7,
		plan.DepthComprehensive: 0.7 * 1.2,
		plan.DepthExperimental:  0.7 * 1.3,
	}
	for depth, want := range cases {
		c := synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst, result, depth, time.Second)
		if !almostEqual(c.QualityScore, want) {
			t.Errorf("%s quality = %f, want %f", depth, c.QualityScore, want)
		}
		if !almostEqual(c.ConfidenceLevel, 0.7) {
			t.Errorf("%s confidence = %f, want 0.7", depth, c.ConfidenceLevel)
		}
	}
}

func TestAssessNonSuccessScoresZero(t *testing.T) {
	failure := stage.Failure(plan.StageAnalysis, "model unreachable")
	c := synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst, failure, plan.DepthDeep, 2*time.Second)
	if c.QualityScore != 0 || c.ConfidenceLevel != 0 || c.DataCompleteness != 0 {
		t.Fatalf("failure contribution carries non-zero scores: %+v", c)
	}
	if len(c.ErrorIndicators) == 0 {
		t.Fatal("failure contribution missing error indicators")
	}
	if !almostEqual(c.ProcessingTimeSeconds, 2) {
		t.Fatalf("processing time = %f", c.ProcessingTimeSeconds)
	}

	skip := stage.Skip(plan.StageVerification, "dependency analysis unresolved")
	if c := synthesis.Assess(plan.StageVerification, plan.RoleFactChecker, skip, plan.DepthDeep, 0); c.QualityScore != 0 {
		t.Fatalf("skip contribution quality = %f, want 0", c.QualityScore)
	}
}

func TestAssessQualityMultipliers(t *testing.T) {
	degraded := stage.Success(plan.StageAnalysis, map[string]any{stage.KeyDegradedExecution: true})
	c := synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst, degraded, plan.DepthDeep, 0)
	if !almostEqual(c.QualityScore, 0.7*0.6) {
		t.Fatalf("degraded quality = %f, want %f", c.QualityScore, 0.7*0.6)
	}
	if !almostEqual(c.ConfidenceLevel, 0.5) {
		t.Fatalf("degraded confidence = %f, want 0.5", c.ConfidenceLevel)
	}

	recovered := stage.Success(plan.StageAnalysis, map[string]any{stage.KeyRecoveryApplied: true})
	c = synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst, recovered, plan.DepthDeep, 0)
	if !almostEqual(c.QualityScore, 0.7*0.8) {
		t.Fatalf("recovered quality = %f, want %f", c.QualityScore, 0.7*0.8)
	}

	insightful := stage.Success(plan.StageAnalysis, map[string]any{
		stage.KeyInsights: []string{"recurring topic: exfiltration"},
	})
	c = synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst, insightful, plan.DepthDeep, 0)
	if !almostEqual(c.QualityScore, 0.7*1.2) {
		t.Fatalf("insightful quality = %f, want %f", c.QualityScore, 0.7*1.2)
	}

	emptyInsights := stage.Success(plan.StageAnalysis, map[string]any{stage.KeyInsights: []string{}})
	c = synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst, emptyInsights, plan.DepthDeep, 0)
	if !almostEqual(c.QualityScore, 0.7) {
		t.Fatalf("empty insights should not raise quality: %f", c.QualityScore)
	}
}

func TestAssessQualityClamped(t *testing.T) {
	result := stage.Success(plan.StageThreatAssessment, map[string]any{
		stage.KeyInsights: []string{"signal"},
		stage.KeyEnhanced: true,
	})
	c := synthesis.Assess(plan.StageThreatAssessment, plan.RoleThreatAssessor, result, plan.DepthExperimental, 0)
	if c.QualityScore != 1 {
		t.Fatalf("quality = %f, want clamp at 1", c.QualityScore)
	}
}

func TestAssessConfidenceOverrides(t *testing.T) {
	verified := stage.Success(plan.StageVerification, map[string]any{
		stage.KeyVerificationStatus: stage.VerificationVerified,
	})
	c := synthesis.Assess(plan.StageVerification, plan.RoleFactChecker, verified, plan.DepthDeep, 0)
	if !almostEqual(c.ConfidenceLevel, 0.9) {
		t.Fatalf("verified confidence = %f, want 0.9", c.ConfidenceLevel)
	}

	review := stage.Success(plan.StageAnalysis, map[string]any{
		stage.KeyRequiresManualReview: true,
		stage.KeyDegradedExecution:    true,
	})
	c = synthesis.Assess(plan.StageAnalysis, plan.RoleAnalyst, review, plan.DepthDeep, 0)
	if !almostEqual(c.ConfidenceLevel, 0.4) {
		t.Fatalf("manual-review confidence = %f, want 0.4", c.ConfidenceLevel)
	}
}

func TestAssessCompleteness(t *testing.T) {
	payload := map[string]any{}
	for _, key := range []string{"a", "b", "c", "d", "e"} {
		payload[key] = key
	}
	c := synthesis.Assess(plan.StageAcquisition, plan.RoleAcquirer, stage.Success(plan.StageAcquisition, payload), plan.DepthDeep, 0)
	if !almostEqual(c.DataCompleteness, 0.5) {
		t.Fatalf("completeness for 5 fields = %f, want 0.5", c.DataCompleteness)
	}

	for i := 0; i < 20; i++ {
		payload[string(rune('f'+i))] = i
	}
	c = synthesis.Assess(plan.StageAcquisition, plan.RoleAcquirer, stage.Success(plan.StageAcquisition, payload), plan.DepthDeep, 0)
	if c.DataCompleteness != 1 {
		t.Fatalf("completeness should clamp at 1, got %f", c.DataCompleteness)
	}
}
