package capability

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"argus/internal/config"
	"argus/internal/plan"
	"argus/internal/services"
	"argus/internal/stage"
)

// maxInlineReadBytes bounds how much of a file target the acquirer loads.
const maxInlineReadBytes = 64 * 1024

// NewDefaultRegistry builds the registry of built-in roles. They are
// deliberately shallow heuristics: the engine's contract treats stage
// internals as opaque, and these exist so runs work end to end without
// external services. When the llm section is configured the analyst is backed
// by the model instead.
func NewDefaultRegistry(cfg *config.Config) *Registry {
	registry := NewRegistry()

	var llm *LLMClient
	if cfg != nil {
		llm = NewLLMClient(cfg.LLM)
	}

	registry.Register(plan.RoleAcquirer, RoleFunc(acquire))
	registry.Register("cache_fetcher", RoleFunc(acquireFromCache))
	registry.Register(plan.RoleTranscriber, RoleFunc(transcribe))
	registry.Register("caption_extractor", RoleFunc(extractCaptions))
	registry.Register(plan.RoleAnalyst, &analystRole{llm: llm})
	registry.Register("summary_analyst", RoleFunc(summarize))
	registry.Register(plan.RoleFactChecker, RoleFunc(verify))
	registry.Register(plan.RoleArchivist, RoleFunc(integrate))
	registry.Register(plan.RoleThreatAssessor, RoleFunc(assessThreat))
	registry.Register(plan.RoleProfiler, RoleFunc(profileBehavior))
	return registry
}

func acquire(_ context.Context, req stage.Request) (map[string]any, error) {
	target := strings.TrimSpace(req.Target)
	if target == "" {
		return nil, services.Wrap(services.ErrValidation, req.Stage, "acquire", "no target supplied", nil)
	}

	origin := "inline"
	content := target
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		data, err := os.ReadFile(target)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, req.Stage, "acquire", "read target file", err)
		}
		if len(data) > maxInlineReadBytes {
			data = data[:maxInlineReadBytes]
		}
		origin = "file"
		content = string(data)
	}

	return map[string]any{
		"source":        target,
		"origin":        origin,
		"content":       content,
		"content_bytes": len(content),
		"media_type":    "text",
		"acquired_at":   time.Now().UTC().Format(time.RFC3339),
	}, nil
}

func acquireFromCache(_ context.Context, req stage.Request) (map[string]any, error) {
	// Fallback acquirer: reuse whatever an earlier attempt already pulled in.
	payload := priorPayload(req, plan.StageAcquisition)
	content, _ := payload["content"].(string)
	hit := content != ""
	if !hit {
		content = strings.TrimSpace(req.Target)
	}
	return map[string]any{
		"source":        strings.TrimSpace(req.Target),
		"origin":        "cache",
		"cache_hit":     hit,
		"content":       content,
		"content_bytes": len(content),
		"media_type":    "text",
	}, nil
}

func transcribe(_ context.Context, req stage.Request) (map[string]any, error) {
	content := priorString(req, plan.StageAcquisition, "content")
	if content == "" {
		return nil, services.Wrap(services.ErrValidation, req.Stage, "transcribe", "acquisition produced no content", nil)
	}

	transcript := strings.Join(strings.Fields(content), " ")
	tokens := strings.Fields(transcript)
	return map[string]any{
		"transcript":     transcript,
		"token_count":    len(tokens),
		"line_count":     strings.Count(content, "\n") + 1,
		"language":       "en",
		"normalized":     true,
		stage.KeySummary: firstN(transcript, 200),
	}, nil
}

func extractCaptions(_ context.Context, req stage.Request) (map[string]any, error) {
	// Fallback transcriber: coarse sentence extraction instead of full
	// normalization.
	content := priorString(req, plan.StageAcquisition, "content")
	if content == "" {
		content = strings.TrimSpace(req.Target)
	}
	lines := splitSentences(content)
	if len(lines) > 20 {
		lines = lines[:20]
	}
	transcript := strings.Join(lines, " ")
	return map[string]any{
		"transcript":  transcript,
		"token_count": len(strings.Fields(transcript)),
		"language":    "en",
		"method":      "caption_extraction",
	}, nil
}

// analystRole produces the analysis payload, via the configured model when
// available and a keyword heuristic otherwise.
type analystRole struct {
	llm *LLMClient
}

const analystSystemPrompt = `You are an intelligence analyst. Analyze the supplied transcript and respond with JSON only: {"summary": string, "insights": [string], "sentiment": "negative"|"neutral"|"positive", "risk_level": "low"|"elevated"|"high"}.`

func (a *analystRole) Execute(ctx context.Context, req stage.Request) (map[string]any, error) {
	transcript := priorString(req, plan.StageTranscription, "transcript")
	if transcript == "" {
		return nil, services.Wrap(services.ErrValidation, req.Stage, "analyze", "transcription produced no transcript", nil)
	}

	reduced := paramBool(req.Params, "complexity", "reduced")
	if a.llm != nil && !reduced {
		payload, err := a.analyzeWithModel(ctx, req, transcript)
		if err != nil {
			return nil, services.Wrap(services.ErrExternalTool, req.Stage, "analyze", "model analysis failed", err)
		}
		return payload, nil
	}
	return heuristicAnalysis(transcript, reduced), nil
}

func (a *analystRole) analyzeWithModel(ctx context.Context, _ stage.Request, transcript string) (map[string]any, error) {
	content, err := a.llm.CompleteJSON(ctx, analystSystemPrompt, firstN(transcript, 4000))
	if err != nil {
		return nil, err
	}
	var parsed struct {
		Summary   string   `json:"summary"`
		Insights  []string `json:"insights"`
		Sentiment string   `json:"sentiment"`
		RiskLevel string   `json:"risk_level"`
	}
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return nil, fmt.Errorf("parse model payload: %w", err)
	}
	return map[string]any{
		stage.KeySummary:  strings.TrimSpace(parsed.Summary),
		stage.KeyInsights: parsed.Insights,
		"sentiment":       strings.ToLower(strings.TrimSpace(parsed.Sentiment)),
		"risk_level":      strings.ToLower(strings.TrimSpace(parsed.RiskLevel)),
		"analysis_method": "llm",
	}, nil
}

func heuristicAnalysis(transcript string, reduced bool) map[string]any {
	sentences := splitSentences(transcript)
	summary := strings.Join(firstSentences(sentences, 2), " ")

	payload := map[string]any{
		stage.KeySummary:  summary,
		"sentence_count":  len(sentences),
		"analysis_method": "heuristic",
	}
	if reduced {
		payload["analysis_method"] = "heuristic_reduced"
		return payload
	}

	insights := make([]string, 0, 5)
	for _, word := range topKeywords(transcript, 5) {
		insights = append(insights, fmt.Sprintf("recurring topic: %s", word))
	}
	payload[stage.KeyInsights] = insights
	payload["entities"] = capitalizedTokens(transcript, 10)
	payload["sentiment"] = "neutral"
	return payload
}

func summarize(_ context.Context, req stage.Request) (map[string]any, error) {
	// Fallback analyst: one-sentence summary, no enrichment.
	transcript := priorString(req, plan.StageTranscription, "transcript")
	if transcript == "" {
		transcript = priorString(req, plan.StageAcquisition, "content")
	}
	sentences := splitSentences(transcript)
	return map[string]any{
		stage.KeySummary:  strings.Join(firstSentences(sentences, 1), " "),
		"analysis_method": "fallback_summary",
	}, nil
}

func verify(_ context.Context, req stage.Request) (map[string]any, error) {
	summary := priorString(req, plan.StageAnalysis, stage.KeySummary)
	transcript := priorString(req, plan.StageTranscription, "transcript")
	if summary == "" && transcript == "" {
		return nil, services.Wrap(services.ErrValidation, req.Stage, "verify", "nothing to verify", nil)
	}

	claims := claimSentences(transcript)
	verified := 0
	for _, claim := range claims {
		if strings.Contains(summary, firstN(claim, 40)) || len(strings.Fields(claim)) >= 4 {
			verified++
		}
	}
	status := "unverified"
	if len(claims) == 0 || verified*2 >= len(claims) {
		status = stage.VerificationVerified
	}
	return map[string]any{
		stage.KeyVerificationStatus: status,
		"total_claims":              len(claims),
		"verified_claims":           verified,
		"method":                    "claim_heuristic",
	}, nil
}

func integrate(_ context.Context, req stage.Request) (map[string]any, error) {
	integrated := make([]string, 0, len(req.Context))
	for name := range req.Context {
		integrated = append(integrated, name)
	}
	sort.Strings(integrated)
	if len(integrated) == 0 {
		return nil, services.Wrap(services.ErrValidation, req.Stage, "integrate", "no upstream results to integrate", nil)
	}
	return map[string]any{
		"stages_integrated": len(integrated),
		"cross_references":  integrated,
		"record_key":        fmt.Sprintf("%s/%s", req.Depth, time.Now().UTC().Format("20060102T150405")),
		"stored":            true,
		stage.KeySummary:    fmt.Sprintf("integrated %d stage payloads into the knowledge store", len(integrated)),
	}, nil
}

var threatTerms = []string{
	"attack", "exploit", "breach", "malware", "threat",
	"weapon", "phishing", "ransom", "compromise", "exfiltration",
}

func assessThreat(_ context.Context, req stage.Request) (map[string]any, error) {
	transcript := strings.ToLower(priorString(req, plan.StageTranscription, "transcript"))
	if transcript == "" {
		return nil, services.Wrap(services.ErrValidation, req.Stage, "assess threat", "no transcript available", nil)
	}

	indicators := make([]string, 0, len(threatTerms))
	hits := 0
	for _, term := range threatTerms {
		if count := strings.Count(transcript, term); count > 0 {
			hits += count
			indicators = append(indicators, term)
		}
	}
	level := "low"
	switch {
	case hits >= 8:
		level = "high"
	case hits >= 3:
		level = "elevated"
	}
	return map[string]any{
		"risk_level":       level,
		"indicator_hits":   hits,
		"indicators":       indicators,
		stage.KeySummary:   fmt.Sprintf("threat level %s with %d indicator hits", level, hits),
		stage.KeyEnhanced:  true,
	}, nil
}

func profileBehavior(_ context.Context, req stage.Request) (map[string]any, error) {
	transcript := priorString(req, plan.StageTranscription, "transcript")
	if transcript == "" {
		return nil, services.Wrap(services.ErrValidation, req.Stage, "profile", "no transcript available", nil)
	}

	tokens := strings.Fields(strings.ToLower(transcript))
	firstPerson := 0
	for _, token := range tokens {
		switch strings.Trim(token, ".,!?") {
		case "i", "we", "my", "our":
			firstPerson++
		}
	}
	markers := []string{}
	if len(tokens) > 0 && float64(firstPerson)/float64(len(tokens)) > 0.05 {
		markers = append(markers, "strong_first_person_framing")
	}
	threatLevel := priorString(req, plan.StageThreatAssessment, "risk_level")
	if threatLevel == "high" || threatLevel == "elevated" {
		markers = append(markers, "escalatory_language")
	}
	return map[string]any{
		"behavioral_markers": markers,
		"marker_count":       len(markers),
		"token_sample":       len(tokens),
		stage.KeySummary:     fmt.Sprintf("%d behavioral markers identified", len(markers)),
		stage.KeyEnhanced:    true,
	}, nil
}

// priorPayload returns the payload map a preceding stage stored in the run
// context.
func priorPayload(req stage.Request, stageName string) map[string]any {
	if req.Context == nil {
		return nil
	}
	payload, _ := req.Context[stageName].(map[string]any)
	return payload
}

func priorString(req stage.Request, stageName, key string) string {
	payload := priorPayload(req, stageName)
	if payload == nil {
		return ""
	}
	value, _ := payload[key].(string)
	return value
}

func paramBool(params map[string]any, key string, want any) bool {
	if params == nil {
		return false
	}
	return params[key] == want
}

func firstN(text string, n int) string {
	if len(text) <= n {
		return text
	}
	for n > 0 && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}

func splitSentences(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?' || r == '\n'
	})
	sentences := make([]string, 0, len(raw))
	for _, s := range raw {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			sentences = append(sentences, trimmed+".")
		}
	}
	return sentences
}

func firstSentences(sentences []string, n int) []string {
	if len(sentences) < n {
		return sentences
	}
	return sentences[:n]
}

func claimSentences(text string) []string {
	var claims []string
	for _, sentence := range splitSentences(text) {
		if strings.ContainsAny(sentence, "0123456789") || strings.Contains(sentence, " is ") || strings.Contains(sentence, " are ") {
			claims = append(claims, sentence)
		}
	}
	return claims
}

func topKeywords(text string, limit int) []string {
	counts := make(map[string]int)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		word := strings.Trim(token, ".,!?;:\"'()")
		if len(word) > 4 {
			counts[word]++
		}
	}
	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})
	if len(words) > limit {
		words = words[:limit]
	}
	return words
}

func capitalizedTokens(text string, limit int) []string {
	seen := make(map[string]struct{})
	var entities []string
	for _, token := range strings.Fields(text) {
		word := strings.Trim(token, ".,!?;:\"'()")
		if len(word) < 2 {
			continue
		}
		runes := []rune(word)
		if !unicode.IsUpper(runes[0]) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		entities = append(entities, word)
		if len(entities) >= limit {
			break
		}
	}
	return entities
}
