package analysis

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/leadradar/internal/extract"
	"github.com/ppiankov/leadradar/internal/model"
)

// ValidationError reports a provider reply that cannot be coerced into the expected shape
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid provider field %q: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ValidateAnalysis coerces an untyped provider reply into an AnalysisResult.
// Every descriptive field is required so a partial reply is never returned;
// mqa_score and mqa_reasons are optional, and a non-numeric mqa_score is logged and dropped.
func ValidateAnalysis(raw map[string]any) (model.AnalysisResult, error) {
	var out model.AnalysisResult

	out.Summary = coerceString(raw["summary"])
	if out.Summary == "" {
		return model.AnalysisResult{}, invalid("summary", "missing or empty")
	}

	out.CategoryTags = coerceStrings(first(raw, "category_tags", "categoryTags"))
	if len(out.CategoryTags) == 0 {
		return model.AnalysisResult{}, invalid("category_tags", "missing or empty")
	}

	out.Stage = coerceString(raw["stage"])
	if out.Stage == "" {
		return model.AnalysisResult{}, invalid("stage", "missing or empty")
	}
	out.TargetUsers = joinable(first(raw, "target_users", "targetUsers"))
	if out.TargetUsers == "" {
		return model.AnalysisResult{}, invalid("target_users", "missing or empty")
	}
	out.PainPoints = joinable(first(raw, "pain_points", "painPoints"))
	if out.PainPoints == "" {
		return model.AnalysisResult{}, invalid("pain_points", "missing or empty")
	}
	out.BDAngles = coerceStrings(first(raw, "bd_angles", "bdAngles"))
	if len(out.BDAngles) == 0 {
		return model.AnalysisResult{}, invalid("bd_angles", "missing or empty")
	}
	out.MQAScore = coerceScore("mqa_score", first(raw, "mqa_score", "mqaScore"))
	out.MQAReasons = coerceStrings(first(raw, "mqa_reasons", "mqaReasons"))

	return out, nil
}

func validateOutreach(raw map[string]any, ch model.Channel) (model.OutreachMessage, error) {
	style := styleFor(ch)
	msg := model.OutreachMessage{
		Channel: ch,
		Body:    coerceString(raw["body"]),
	}
	if msg.Body == "" {
		return model.OutreachMessage{}, invalid("body", "missing or empty")
	}
	msg.Body = extract.Truncate(msg.Body, style.MaxChars)

	if style.Subject {
		msg.Subject = coerceString(raw["subject"])
		if msg.Subject == "" {
			return model.OutreachMessage{}, invalid("subject", "required for email")
		}
	}
	return msg, nil
}

// validateSequence requires at least n usable touches and keeps the first n
func validateSequence(raw map[string]any, n int) ([]model.SequenceTouch, error) {
	items, ok := raw["touches"].([]any)
	if !ok {
		return nil, invalid("touches", "missing or not an array")
	}
	if len(items) < n {
		return nil, invalid("touches", fmt.Sprintf("got %d touches, want %d", len(items), n))
	}

	touches := make([]model.SequenceTouch, 0, n)
	prevOffset := 0
	for i, item := range items[:n] {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, invalid(fmt.Sprintf("touches[%d]", i), "not an object")
		}
		ch, ok := model.ParseChannel(strings.ToLower(coerceString(obj["channel"])))
		if !ok {
			return nil, invalid(fmt.Sprintf("touches[%d].channel", i), "unknown channel")
		}
		content := coerceString(obj["content"])
		if content == "" {
			return nil, invalid(fmt.Sprintf("touches[%d].content", i), "missing or empty")
		}
		offset, ok := coerceBounded(first(obj, "day_offset", "dayOffset"), 0, maxDayOffset)
		if !ok || offset < prevOffset {
			return nil, invalid(fmt.Sprintf("touches[%d].day_offset", i), "must be a non-decreasing number")
		}
		prevOffset = offset

		touches = append(touches, model.SequenceTouch{
			StepNumber: i + 1,
			Channel:    ch,
			DayOffset:  offset,
			Objective:  coerceString(obj["objective"]),
			Content:    extract.Truncate(content, styleFor(ch).MaxChars),
		})
	}
	return touches, nil
}

func validateAccountPlaybook(raw map[string]any) (model.AccountPlaybook, error) {
	pb := model.AccountPlaybook{
		Personas: coerceStrings(raw["personas"]),
		Angles:   coerceStrings(raw["angles"]),
	}
	if len(pb.Personas) == 0 {
		return model.AccountPlaybook{}, invalid("personas", "missing or empty")
	}
	if len(pb.Angles) == 0 {
		return model.AccountPlaybook{}, invalid("angles", "missing or empty")
	}
	return pb, nil
}

func validateExplanation(raw map[string]any) (string, error) {
	text := coerceString(raw["explanation"])
	if text == "" {
		return "", invalid("explanation", "missing or empty")
	}
	return text, nil
}

func first(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func coerceString(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// coerceStrings accepts an array of strings or a comma-separated string
func coerceStrings(v any) []string {
	var parts []string
	switch t := v.(type) {
	case string:
		parts = strings.Split(t, ",")
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
	case []string:
		parts = t
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// joinable accepts a string or an array and returns a single comma-joined string
func joinable(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.Join(coerceStrings(v), ", ")
}

// maxDayOffset bounds a generated touch to one year after the sequence start
const maxDayOffset = 365

// coerceFloat accepts the numeric shapes a decoded JSON reply can carry
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch t := v.(type) {
	case float64:
		f = t
	case int:
		f = float64(t)
	case int64:
		f = float64(t)
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerceBounded clamps in the float domain before rounding, so out-of-range
// values saturate instead of overflowing the int conversion
func coerceBounded(v any, lo, hi int) (int, bool) {
	f, ok := coerceFloat(v)
	if !ok {
		return 0, false
	}
	f = math.Max(float64(lo), math.Min(float64(hi), f))
	return int(math.Round(f)), true
}

// coerceScore clamps a numeric score to 0..100. Absent stays nil silently;
// present but non-numeric is logged and treated as absent.
func coerceScore(field string, v any) *int {
	if v == nil {
		return nil
	}
	n, ok := coerceBounded(v, 0, 100)
	if !ok {
		zap.L().Warn("non-numeric score from provider, ignoring",
			zap.String("field", field),
			zap.Any("value", v),
		)
		return nil
	}
	return &n
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
