package analysis

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/leadradar/internal/model"
)

func TestValidateAnalysis_Coercion(t *testing.T) {
	raw := map[string]any{
		"summary":       "  A lending market.  ",
		"category_tags": "DeFi, Lending , ",
		"stage":         "seed",
		"target_users":  []any{"traders", "DAOs"},
		"pain_points":   "liquidity",
		"bd_angles":     []any{"integration", 42, ""},
		"mqa_score":     float64(140),
		"mqa_reasons":   []any{"fit"},
	}

	result, err := ValidateAnalysis(raw)
	require.NoError(t, err)
	assert.Equal(t, "A lending market.", result.Summary)
	assert.Equal(t, []string{"DeFi", "Lending"}, result.CategoryTags)
	assert.Equal(t, "traders, DAOs", result.TargetUsers)
	assert.Equal(t, []string{"integration"}, result.BDAngles)
	require.NotNil(t, result.MQAScore)
	assert.Equal(t, 100, *result.MQAScore)
}

// fullReply is a provider reply carrying every required field
func fullReply() map[string]any {
	return map[string]any{
		"summary":       "s",
		"category_tags": []any{"DeFi"},
		"stage":         "seed",
		"target_users":  "traders",
		"pain_points":   "liquidity",
		"bd_angles":     []any{"integration"},
	}
}

func TestValidateAnalysis_Scores(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  *int
	}{
		{"absent", nil, nil},
		{"negative clamps", float64(-5), intPtr(0)},
		{"in range", float64(72.4), intPtr(72)},
		{"huge", 1e20, intPtr(100)},
		{"hugely negative", -1e20, intPtr(0)},
		{"json number", json.Number("64"), intPtr(64)},
		{"non-numeric", "high", nil},
		{"bool", true, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := fullReply()
			if tt.value != nil {
				raw["mqa_score"] = tt.value
			}
			result, err := ValidateAnalysis(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.MQAScore)
		})
	}
}

func TestValidateAnalysis_CamelCaseKeys(t *testing.T) {
	result, err := ValidateAnalysis(map[string]any{
		"summary":      "s",
		"categoryTags": []any{"NFT"},
		"stage":        "growth",
		"targetUsers":  []any{"collectors"},
		"painPoints":   "royalties",
		"bdAngles":     "marketplace listing",
		"mqaScore":     float64(55),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"NFT"}, result.CategoryTags)
	assert.Equal(t, "collectors", result.TargetUsers)
	assert.Equal(t, []string{"marketplace listing"}, result.BDAngles)
	assert.Equal(t, 55, *result.MQAScore)
}

func TestValidateAnalysis_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		raw   map[string]any
		field string
	}{
		{"empty", map[string]any{}, "summary"},
		{"summary not string", map[string]any{"summary": 12}, "summary"},
		{"no tags", map[string]any{"summary": "s", "category_tags": []any{}}, "category_tags"},
		{"no stage", without("stage"), "stage"},
		{"no target users", without("target_users"), "target_users"},
		{"blank pain points", with("pain_points", "  "), "pain_points"},
		{"no bd angles", without("bd_angles"), "bd_angles"},
		{"empty bd angles", with("bd_angles", []any{"", " "}), "bd_angles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateAnalysis(tt.raw)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateAnalysis_MQAOptional(t *testing.T) {
	result, err := ValidateAnalysis(fullReply())
	require.NoError(t, err)
	assert.Nil(t, result.MQAScore)
	assert.Nil(t, result.MQAReasons)
	assert.Equal(t, "seed", result.Stage)
}

func without(key string) map[string]any {
	raw := fullReply()
	delete(raw, key)
	return raw
}

func with(key string, v any) map[string]any {
	raw := fullReply()
	raw[key] = v
	return raw
}

func TestValidateOutreach(t *testing.T) {
	_, err := validateOutreach(map[string]any{"body": "hi"}, model.ChannelEmail)
	assert.Error(t, err, "email needs a subject")

	msg, err := validateOutreach(map[string]any{"subject": "s", "body": "hi"}, model.ChannelEmail)
	require.NoError(t, err)
	assert.Equal(t, "s", msg.Subject)

	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	msg, err = validateOutreach(map[string]any{"body": string(long)}, model.ChannelTwitter)
	require.NoError(t, err)
	assert.Len(t, msg.Body, 280)
}

func TestValidateSequence(t *testing.T) {
	raw := map[string]any{"touches": []any{
		map[string]any{"channel": "Email", "day_offset": float64(0), "objective": "intro", "content": "a"},
		map[string]any{"channel": "telegram", "day_offset": float64(3), "content": "b"},
		map[string]any{"channel": "twitter", "day_offset": float64(5), "content": "c"},
	}}

	touches, err := validateSequence(raw, 2)
	require.NoError(t, err)
	require.Len(t, touches, 2)
	assert.Equal(t, model.ChannelEmail, touches[0].Channel)
	assert.Equal(t, 2, touches[1].StepNumber)
	assert.Equal(t, 3, touches[1].DayOffset)

	_, err = validateSequence(raw, 4)
	assert.Error(t, err, "too few touches")

	bad := map[string]any{"touches": []any{
		map[string]any{"channel": "fax", "day_offset": float64(0), "content": "a"},
	}}
	_, err = validateSequence(bad, 1)
	assert.Error(t, err)

	backwards := map[string]any{"touches": []any{
		map[string]any{"channel": "email", "day_offset": float64(4), "content": "a"},
		map[string]any{"channel": "email", "day_offset": float64(1), "content": "b"},
	}}
	_, err = validateSequence(backwards, 2)
	assert.Error(t, err)

	far := map[string]any{"touches": []any{
		map[string]any{"channel": "email", "day_offset": float64(-3), "content": "a"},
		map[string]any{"channel": "email", "day_offset": 1e20, "content": "b"},
	}}
	touches, err = validateSequence(far, 2)
	require.NoError(t, err)
	assert.Equal(t, 0, touches[0].DayOffset)
	assert.Equal(t, maxDayOffset, touches[1].DayOffset)
}

func TestValidateAccountPlaybook(t *testing.T) {
	pb, err := validateAccountPlaybook(map[string]any{"personas": "CEO, CTO", "angles": []any{"x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"CEO", "CTO"}, pb.Personas)

	_, err = validateAccountPlaybook(map[string]any{"personas": []any{"CEO"}})
	assert.Error(t, err)
}

func intPtr(v int) *int { return &v }
