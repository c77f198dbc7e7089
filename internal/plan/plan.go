package plan

import (
	"fmt"

	"argus/internal/services"
)

// Stage names used across plans. Role names identify the capability expected
// to execute the stage; the registry resolves them at execution time.
const (
	StageAcquisition          = "acquisition"
	StageTranscription        = "transcription"
	StageAnalysis             = "analysis"
	StageVerification         = "verification"
	StageKnowledgeIntegration = "knowledge_integration"
	StageThreatAssessment     = "threat_assessment"
	StageBehavioralProfiling  = "behavioral_profiling"
)

const (
	RoleAcquirer       = "acquirer"
	RoleTranscriber    = "transcriber"
	RoleAnalyst        = "analyst"
	RoleFactChecker    = "fact_checker"
	RoleArchivist      = "archivist"
	RoleThreatAssessor = "threat_assessor"
	RoleProfiler       = "profiler"
)

// Class buckets stages for failure-severity assessment.
type Class string

const (
	// ClassFoundational marks stages every downstream stage depends on.
	ClassFoundational Class = "foundational"
	// ClassCore marks the mid-plan analytical stages.
	ClassCore Class = "core"
	// ClassEnhancement marks stages reachable only at experimental depth.
	ClassEnhancement Class = "enhancement"
)

// stageClasses is the single source of truth for severity classification.
// Every stage referenced by a plan must appear here; Build enforces it.
var stageClasses = map[string]Class{
	StageAcquisition:          ClassFoundational,
	StageTranscription:        ClassCore,
	StageAnalysis:             ClassCore,
	StageVerification:         ClassCore,
	StageKnowledgeIntegration: ClassCore,
	StageThreatAssessment:     ClassEnhancement,
	StageBehavioralProfiling:  ClassEnhancement,
}

// Classify returns the severity class for a stage name.
func Classify(stageName string) (Class, bool) {
	class, ok := stageClasses[stageName]
	return class, ok
}

// StageSpec describes one stage of a plan: its name, the capability role
// required to execute it, and the names of earlier stages it consumes.
type StageSpec struct {
	Name      string
	Role      string
	DependsOn []string
}

// Class returns the severity class of the stage.
func (s StageSpec) Class() Class {
	class, ok := stageClasses[s.Name]
	if !ok {
		return ClassCore
	}
	return class
}

// Plan is an ordered stage sequence for one depth.
type Plan struct {
	Depth  Depth
	Stages []StageSpec
}

// StageNames returns the stage names in plan order.
func (p Plan) StageNames() []string {
	names := make([]string, 0, len(p.Stages))
	for _, spec := range p.Stages {
		names = append(names, spec.Name)
	}
	return names
}

// Contains reports whether the plan includes a stage by name.
func (p Plan) Contains(name string) bool {
	for _, spec := range p.Stages {
		if spec.Name == name {
			return true
		}
	}
	return false
}

func stageSpecs(depth Depth) []StageSpec {
	specs := []StageSpec{
		{Name: StageAcquisition, Role: RoleAcquirer},
		{Name: StageTranscription, Role: RoleTranscriber, DependsOn: []string{StageAcquisition}},
		{Name: StageAnalysis, Role: RoleAnalyst, DependsOn: []string{StageTranscription}},
	}
	if depth.AtLeast(DepthDeep) {
		specs = append(specs, StageSpec{
			Name: StageVerification, Role: RoleFactChecker, DependsOn: []string{StageAnalysis},
		})
	}
	if depth.AtLeast(DepthComprehensive) {
		deps := []string{StageAnalysis, StageVerification}
		specs = append(specs, StageSpec{
			Name: StageKnowledgeIntegration, Role: RoleArchivist, DependsOn: deps,
		})
	}
	if depth.AtLeast(DepthExperimental) {
		specs = append(specs,
			StageSpec{Name: StageThreatAssessment, Role: RoleThreatAssessor, DependsOn: []string{StageAnalysis}},
			StageSpec{Name: StageBehavioralProfiling, Role: RoleProfiler, DependsOn: []string{StageAnalysis, StageThreatAssessment}},
		)
	}
	return specs
}

// Build returns the stage plan for a depth. Unrecognized depths are
// normalized to standard before lookup. The returned plan is validated:
// every stage is classified, the dependency graph is acyclic, and every
// dependency references an earlier stage in the same plan.
func Build(depth Depth) (Plan, error) {
	normalized := ParseDepth(string(depth))
	p := Plan{Depth: normalized, Stages: stageSpecs(normalized)}
	if err := validate(p); err != nil {
		return Plan{}, err
	}
	return p, nil
}

func validate(p Plan) error {
	seen := make(map[string]struct{}, len(p.Stages))
	for _, spec := range p.Stages {
		if spec.Name == "" {
			return services.Wrap(services.ErrConfiguration, "plan", "validate", "stage with empty name", nil)
		}
		if _, ok := stageClasses[spec.Name]; !ok {
			return services.Wrap(services.ErrConfiguration, "plan", "validate",
				fmt.Sprintf("stage %q missing from classification table", spec.Name), nil)
		}
		if spec.Role == "" {
			return services.Wrap(services.ErrConfiguration, "plan", "validate",
				fmt.Sprintf("stage %q has no capability role", spec.Name), nil)
		}
		if _, dup := seen[spec.Name]; dup {
			return services.Wrap(services.ErrConfiguration, "plan", "validate",
				fmt.Sprintf("stage %q appears twice", spec.Name), nil)
		}
		for _, dep := range spec.DependsOn {
			if _, ok := seen[dep]; !ok {
				return services.Wrap(services.ErrConfiguration, "plan", "validate",
					fmt.Sprintf("stage %q depends on %q which is not an earlier stage", spec.Name, dep), nil)
			}
		}
		seen[spec.Name] = struct{}{}
	}
	return nil
}
