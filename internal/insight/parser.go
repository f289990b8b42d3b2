package insight

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cortex/internal/adapters/analysis"
	"cortex/pkg/logger"
)

const (
	// similarityThreshold gates ML-confidence enrichment of parsed records.
	similarityThreshold = 0.7
	// defaultConfidence is assigned when no ML prediction matches closely enough.
	defaultConfidence = 0.5
)

var (
	typePattern     = regexp.MustCompile(`(?i)type:\s*([a-z_]+)`)
	priorityPattern = regexp.MustCompile(`(?i)priority:\s*([a-z]+)`)
	impactPattern   = regexp.MustCompile(`(?i)impact:\s*([0-9]*\.?[0-9]+)`)
	bracketPattern  = regexp.MustCompile(`\[([^\]]+)\]`)
	parenPattern    = regexp.MustCompile(`\(([^)]+)\)`)
	bracePattern    = regexp.MustCompile(`\{([^}]+)\}`)
	codeFence       = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")
)

// Parser converts unstructured or loosely-structured analyzer/LLM text into
// typed records. It never returns an error: malformed input degrades to
// heuristic line extraction and, on total failure, an empty slice.
type Parser struct {
	log *logger.Logger
}

// NewParser creates an output parser.
func NewParser() *Parser {
	return &Parser{log: logger.Get().With("component", "output_parser")}
}

type actionJSON struct {
	ID                  string   `json:"id"`
	Type                string   `json:"type"`
	Description         string   `json:"description"`
	Priority            string   `json:"priority"`
	Status              string   `json:"status"`
	Impact              Impact   `json:"impact"`
	Dependencies        []string `json:"dependencies"`
	AutomationPotential float64  `json:"automationPotential"`
}

// ParseActions converts text into workflow actions. Strict JSON is tried
// first with enum coercion; non-JSON input falls back to per-line heuristics.
// Each record's MLConfidence comes from the closest-matching prediction.
func (p *Parser) ParseActions(text string, predictions []analysis.Prediction) []Action {
	text = stripCodeFence(text)
	if strings.TrimSpace(text) == "" {
		return []Action{}
	}

	now := time.Now().UnixMilli()

	var raw []actionJSON
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		actions := make([]Action, 0, len(raw))
		for i, r := range raw {
			a := Action{
				ID:                  r.ID,
				Type:                CoerceActionType(r.Type),
				Description:         r.Description,
				Priority:            CoercePriority(r.Priority),
				Status:              CoerceActionStatus(r.Status),
				Impact:              clampImpact(r.Impact),
				Dependencies:        r.Dependencies,
				AutomationPotential: clamp01(r.AutomationPotential),
			}
			if a.ID == "" {
				a.ID = fmt.Sprintf("action_%d_%d", now, i)
			}
			a.MLConfidence = enrichConfidence(a.Description, predictions)
			actions = append(actions, a)
		}
		return actions
	}

	p.log.Debug("Action text is not valid JSON, falling back to line extraction",
		"text_length", len(text))

	var actions []Action
	for i, line := range nonEmptyLines(text) {
		a := Action{
			ID:          fmt.Sprintf("action_%d_%d", now, i),
			Type:        extractActionType(line),
			Priority:    extractPriority(line),
			Status:      extractStatus(line),
			Description: stripTags(line),
		}
		if v, ok := extractImpact(line); ok {
			a.Impact = Impact{Efficiency: v, Risk: v, Revenue: v}
		}
		a.MLConfidence = enrichConfidence(a.Description, predictions)
		actions = append(actions, a)
	}
	if actions == nil {
		return []Action{}
	}
	return actions
}

type insightJSON struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Priority   string  `json:"priority"`
	Confidence float64 `json:"confidence"`
	Impact     float64 `json:"impact"`
}

// ParseInsights converts text into insights, matching each against the
// backend's ML insights for confidence enrichment.
func (p *Parser) ParseInsights(text string, mlInsights []analysis.ResponseInsight) []Insight {
	text = stripCodeFence(text)
	if strings.TrimSpace(text) == "" {
		return []Insight{}
	}

	now := time.Now()

	var raw []insightJSON
	if err := json.Unmarshal([]byte(text), &raw); err == nil {
		insights := make([]Insight, 0, len(raw))
		for _, r := range raw {
			in := Insight{
				Type:       CoerceType(r.Type),
				Content:    r.Content,
				Priority:   CoercePriority(r.Priority),
				Confidence: clamp01(r.Confidence),
				Impact:     clamp01(r.Impact),
				Timestamp:  now,
				Source:     "hybrid-analysis",
			}
			if in.Confidence == 0 {
				in.Confidence = enrichInsightConfidence(in.Content, mlInsights)
			}
			insights = append(insights, in)
		}
		return insights
	}

	p.log.Debug("Insight text is not valid JSON, falling back to line extraction",
		"text_length", len(text))

	var insights []Insight
	for _, line := range nonEmptyLines(text) {
		in := Insight{
			Type:      extractInsightType(line),
			Content:   stripTags(line),
			Priority:  extractPriority(line),
			Timestamp: now,
			Source:    "heuristic-extraction",
		}
		if v, ok := extractImpact(line); ok {
			in.Impact = v
		}
		in.Confidence = enrichInsightConfidence(in.Content, mlInsights)
		insights = append(insights, in)
	}
	if insights == nil {
		return []Insight{}
	}
	return insights
}

// enrichConfidence finds the best word-overlap match among ML predictions.
func enrichConfidence(description string, predictions []analysis.Prediction) float64 {
	best := 0.0
	conf := defaultConfidence
	for _, pred := range predictions {
		if sim := Similarity(description, pred.Description); sim > best {
			best = sim
			conf = pred.Confidence
		}
	}
	if best > similarityThreshold {
		return conf
	}
	return defaultConfidence
}

func enrichInsightConfidence(content string, mlInsights []analysis.ResponseInsight) float64 {
	best := 0.0
	conf := defaultConfidence
	for _, mli := range mlInsights {
		if sim := Similarity(content, mli.Description); sim > best {
			best = sim
			conf = mli.Confidence
		}
	}
	if best > similarityThreshold {
		return conf
	}
	return defaultConfidence
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimSpace(line))
		}
	}
	return lines
}

// extractActionType looks for an explicit "type: X" marker, then bracket
// or parenthesis tags carrying a valid type name.
func extractActionType(line string) ActionType {
	if m := typePattern.FindStringSubmatch(line); m != nil {
		return CoerceActionType(m[1])
	}
	for _, tag := range tagValues(line) {
		if isValidActionType(tag) {
			return ActionType(tag)
		}
	}
	return ActionTypeAction
}

func extractInsightType(line string) Type {
	if m := typePattern.FindStringSubmatch(line); m != nil {
		return CoerceType(m[1])
	}
	for _, tag := range tagValues(line) {
		if isValidInsightType(tag) {
			return Type(tag)
		}
	}
	return TypeOperational
}

func extractPriority(line string) Priority {
	if m := priorityPattern.FindStringSubmatch(line); m != nil {
		return CoercePriority(m[1])
	}
	for _, tag := range tagValues(line) {
		if tag == string(PriorityHigh) || tag == string(PriorityMedium) || tag == string(PriorityLow) {
			return Priority(tag)
		}
	}
	return PriorityMedium
}

// extractStatus reads a {status} tag.
func extractStatus(line string) ActionStatus {
	if m := bracePattern.FindStringSubmatch(line); m != nil {
		return CoerceActionStatus(m[1])
	}
	return ActionStatusPending
}

func extractImpact(line string) (float64, bool) {
	if m := impactPattern.FindStringSubmatch(line); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			return clamp01(v), true
		}
	}
	return 0, false
}

// tagValues returns lowercased contents of [bracket] and (paren) tags.
func tagValues(line string) []string {
	var tags []string
	for _, m := range bracketPattern.FindAllStringSubmatch(line, -1) {
		tags = append(tags, strings.ToLower(strings.TrimSpace(m[1])))
	}
	for _, m := range parenPattern.FindAllStringSubmatch(line, -1) {
		tags = append(tags, strings.ToLower(strings.TrimSpace(m[1])))
	}
	return tags
}

func isValidActionType(s string) bool {
	switch ActionType(s) {
	case ActionTypeAnalysis, ActionTypePrediction, ActionTypeRecommendation,
		ActionTypeAction, ActionTypeAutomation:
		return true
	}
	return false
}

func isValidInsightType(s string) bool {
	switch Type(s) {
	case TypeMarket, TypeStrategic, TypeOperational, TypeRisk, TypeEfficiency:
		return true
	}
	return false
}

// stripTags removes bracket/paren/brace tags and inline markers, leaving the
// human-readable description.
func stripTags(line string) string {
	out := bracketPattern.ReplaceAllString(line, "")
	out = parenPattern.ReplaceAllString(out, "")
	out = bracePattern.ReplaceAllString(out, "")
	out = typePattern.ReplaceAllString(out, "")
	out = priorityPattern.ReplaceAllString(out, "")
	out = impactPattern.ReplaceAllString(out, "")
	out = strings.Trim(out, " \t-•*:")
	return strings.Join(strings.Fields(out), " ")
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := codeFence.FindStringSubmatch(trimmed); m != nil {
		return m[1]
	}
	return text
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

func clampImpact(im Impact) Impact {
	return Impact{
		Efficiency: clamp01(im.Efficiency),
		Risk:       clamp01(im.Risk),
		Revenue:    clamp01(im.Revenue),
	}
}
