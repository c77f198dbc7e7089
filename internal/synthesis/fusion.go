package synthesis

import (
	"fmt"
	"unicode/utf8"

	"argus/internal/plan"
	"argus/internal/stage"
)

// basicConfidenceFloor is the confidence threshold below which the basic
// fusion strategy drops a contribution entirely.
const basicConfidenceFloor = 0.6

const summaryTruncateLen = 200

// keyStages is the fixed set of stages the comprehensive strategy
// cross-correlates.
var keyStages = []string{
	plan.StageAnalysis,
	plan.StageVerification,
	plan.StageThreatAssessment,
}

// fuse merges contributions with the strategy selected by depth. Each deeper
// strategy runs the shallower one first and extends its output.
func fuse(contributions []Contribution, depth plan.Depth) map[string]any {
	switch plan.ParseDepth(string(depth)) {
	case plan.DepthExperimental:
		return fuseExperimental(contributions)
	case plan.DepthComprehensive:
		return fuseComprehensive(contributions)
	case plan.DepthDeep:
		return fuseEnhanced(contributions)
	default:
		return fuseBasic(contributions)
	}
}

// fuseBasic keeps only confident contributions and stores a truncated summary
// plus quality and confidence per stage.
func fuseBasic(contributions []Contribution) map[string]any {
	stages := make(map[string]any)
	for _, c := range contributions {
		if c.ConfidenceLevel <= basicConfidenceFloor {
			continue
		}
		stages[c.StageName] = map[string]any{
			"summary":    truncate(c.Result.StringValue(stage.KeySummary), summaryTruncateLen),
			"quality":    c.QualityScore,
			"confidence": c.ConfidenceLevel,
		}
	}
	return map[string]any{
		"strategy": "basic",
		"stages":   stages,
	}
}

// fuseEnhanced includes every contribution regardless of confidence and adds
// a combined weight plus completeness per stage.
func fuseEnhanced(contributions []Contribution) map[string]any {
	stages := make(map[string]any)
	for _, c := range contributions {
		stages[c.StageName] = map[string]any{
			"summary":      truncate(c.Result.StringValue(stage.KeySummary), summaryTruncateLen),
			"quality":      c.QualityScore,
			"confidence":   c.ConfidenceLevel,
			"weight":       c.QualityScore * c.ConfidenceLevel,
			"completeness": c.DataCompleteness,
		}
	}
	return map[string]any{
		"strategy": "enhanced",
		"stages":   stages,
	}
}

// fuseComprehensive extends enhanced fusion with pairwise quality correlation
// across the key analytical stages.
func fuseComprehensive(contributions []Contribution) map[string]any {
	fused := fuseEnhanced(contributions)
	fused["strategy"] = "comprehensive"

	byName := make(map[string]Contribution, len(contributions))
	for _, c := range contributions {
		byName[c.StageName] = c
	}

	correlations := make(map[string]float64)
	for i, a := range keyStages {
		ca, ok := byName[a]
		if !ok {
			continue
		}
		for _, b := range keyStages[i+1:] {
			cb, ok := byName[b]
			if !ok {
				continue
			}
			diff := ca.QualityScore - cb.QualityScore
			if diff < 0 {
				diff = -diff
			}
			corr := 1 - diff
			if corr < 0 {
				corr = 0
			}
			correlations[fmt.Sprintf("%s|%s", a, b)] = corr
		}
	}
	fused["correlations"] = correlations
	return fused
}

// fuseExperimental extends comprehensive fusion with predictive signals
// derived from the exploratory stages.
func fuseExperimental(contributions []Contribution) map[string]any {
	fused := fuseComprehensive(contributions)
	fused["strategy"] = "experimental"

	signals := make([]map[string]any, 0, 2)
	for _, c := range contributions {
		if c.StageName == plan.StageThreatAssessment && c.ConfidenceLevel > 0.7 {
			signals = append(signals, map[string]any{
				"type":       "risk_forecast",
				"source":     c.StageName,
				"confidence": c.ConfidenceLevel,
				"detail":     truncate(c.Result.StringValue(stage.KeySummary), summaryTruncateLen),
			})
		}
		if c.StageName == plan.StageBehavioralProfiling && c.QualityScore > 0.8 {
			signals = append(signals, map[string]any{
				"type":       "behavior_projection",
				"source":     c.StageName,
				"confidence": c.ConfidenceLevel,
			})
		}
	}
	fused["predictive_signals"] = signals
	return fused
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if limit <= 0 || len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
