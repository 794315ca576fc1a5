package analysis

import (
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/leadradar/internal/model"
)

func TestMockAnalysis_Idempotent(t *testing.T) {
	inputs := []struct{ url, content string }{
		{"https://uniswap.org/", "Uniswap is a decentralized swap protocol. Trade tokens."},
		{"https://example.xyz/", ""},
		{"https://rollup.network/", "A zk rollup for payments. Testnet live."},
	}
	icp := &model.IcpProfile{Industries: []string{"defi"}, PainPoints: []string{"liquidity"}}

	for _, in := range inputs {
		t.Run(in.url, func(t *testing.T) {
			a := mockAnalysis(in.url, in.content, icp)
			b := mockAnalysis(in.url, in.content, icp)
			assert.Equal(t, a, b)
		})
	}
}

func TestMockAnalysis_SchemaAndBounds(t *testing.T) {
	for i := 0; i < 200; i++ {
		url := fmt.Sprintf("https://project-%d.fi/", i)
		result := mockAnalysis(url, fmt.Sprintf("content %d", i), nil)

		assert.NotEmpty(t, result.Summary)
		assert.NotEmpty(t, result.CategoryTags)
		assert.LessOrEqual(t, len(result.CategoryTags), 3)
		assert.Contains(t, stageVocab, result.Stage)
		assert.NotEmpty(t, result.TargetUsers)
		assert.NotEmpty(t, result.PainPoints)
		assert.NotEmpty(t, result.BDAngles)
		require.NotNil(t, result.MQAScore)
		assert.GreaterOrEqual(t, *result.MQAScore, 30)
		assert.LessOrEqual(t, *result.MQAScore, 100)
	}
}

func TestMockAnalysis_ScoresSpread(t *testing.T) {
	seen := map[int]bool{}
	for i := 0; i < 300; i++ {
		result := mockAnalysis(fmt.Sprintf("https://p%d.io/", i), "", nil)
		seen[*result.MQAScore/10] = true
	}
	// 30..100 spans eight tens-buckets
	assert.GreaterOrEqual(t, len(seen), 6)
}

func TestMockAnalysis_DifferentInputsDiffer(t *testing.T) {
	a := mockAnalysis("https://a.io/", "", nil)
	b := mockAnalysis("https://b.io/", "", nil)
	assert.NotEqual(t, a, b)
}

func TestMockAnalysis_UsesContentHints(t *testing.T) {
	result := mockAnalysis("https://x.fi/", "Swap tokens and earn yield. NFT marketplace soon.", nil)
	assert.Equal(t, []string{"DeFi", "NFT"}, result.CategoryTags)
	assert.Equal(t, "Swap tokens and earn yield.", result.Summary)
}

func TestMockAnalysis_ICPPainPointsAndReason(t *testing.T) {
	icp := &model.IcpProfile{Industries: []string{"DeFi"}, PainPoints: []string{"slow audits"}}
	result := mockAnalysis("https://x.fi/", "A lending protocol.", icp)
	assert.Equal(t, "slow audits", result.PainPoints)
	assert.Contains(t, result.MQAReasons, "category matches ICP industries")
}

func TestIndex_Bounds(t *testing.T) {
	for seed := uint64(0); seed < 1000; seed += 7 {
		for salt := 0; salt < 5; salt++ {
			i := index(seed, salt, 13)
			assert.GreaterOrEqual(t, i, 0)
			assert.Less(t, i, 13)
		}
	}
	assert.Equal(t, 0, index(42, 0, 0))
}

func TestProjectName(t *testing.T) {
	assert.Equal(t, "Uniswap", ProjectName("https://app.uniswap.org/swap"))
	assert.Equal(t, "Aave", ProjectName("https://aave.com/"))
	assert.Equal(t, "This project", ProjectName("not a url"))
}

func TestMockSequence(t *testing.T) {
	a := model.AnalysisResult{Summary: "s", BDAngles: []string{"integration"}}
	touches := mockSequence("https://x.io/", a, 5)
	require.Len(t, touches, 5)

	prev := -1
	for i, touch := range touches {
		assert.Equal(t, i+1, touch.StepNumber)
		assert.Equal(t, model.Channels[i%len(model.Channels)], touch.Channel)
		assert.GreaterOrEqual(t, touch.DayOffset, prev)
		assert.NotEmpty(t, touch.Content)
		assert.NotEmpty(t, touch.Objective)
		prev = touch.DayOffset
	}
	assert.Equal(t, 0, touches[0].DayOffset)
	assert.Equal(t, "close the loop politely", touches[4].Objective)

	assert.Len(t, mockSequence("https://x.io/", a, 0), DefaultSequenceTouches)
	assert.Len(t, mockSequence("https://x.io/", a, 100), MaxSequenceTouches)
}

func TestMockOutreach_ChannelLimits(t *testing.T) {
	a := model.AnalysisResult{Summary: "Uniswap is a swap protocol.", Stage: "growth", BDAngles: []string{"co-marketing"}}
	for _, ch := range model.Channels {
		msg := mockOutreach("https://uniswap.org/", a, ch, "Acme Labs")
		assert.Equal(t, ch, msg.Channel)
		assert.NotEmpty(t, msg.Body)
		assert.LessOrEqual(t, len(msg.Body), channelStyles[ch].MaxChars)
		if ch == model.ChannelEmail {
			assert.NotEmpty(t, msg.Subject)
		} else {
			assert.Empty(t, msg.Subject)
		}
	}
}

func TestMockAccountPlaybook(t *testing.T) {
	pb := mockAccountPlaybook("https://x.fi/", model.AnalysisResult{CategoryTags: []string{"DeFi"}, BDAngles: []string{"a"}})
	assert.Contains(t, pb.Personas, "Head of BD / Partnerships")
	assert.Equal(t, "a", pb.Angles[0])
	assert.GreaterOrEqual(t, len(pb.Angles), 2)
}

func TestMockAnalysis_ICPMatchNudgesScore(t *testing.T) {
	content := "A lending protocol."
	base := mockAnalysis("https://x.fi/", content, nil)
	matched := mockAnalysis("https://x.fi/", content, &model.IcpProfile{Industries: []string{"DeFi"}})
	unmatched := mockAnalysis("https://x.fi/", content, &model.IcpProfile{Industries: []string{"robotics"}})

	require.NotNil(t, base.MQAScore)
	want := *base.MQAScore + icpMatchNudge
	if want > 100 {
		want = 100
	}
	assert.Equal(t, want, *matched.MQAScore)
	assert.Equal(t, *base.MQAScore, *unmatched.MQAScore)
}

func TestProjectName_MultiByte(t *testing.T) {
	name := ProjectName("https://élan.fi/")
	assert.Equal(t, "Élan", name)
	assert.True(t, utf8.ValidString(name))
}

func TestLowerFirst_MultiByte(t *testing.T) {
	assert.Equal(t, "élan is a vault", lowerFirst("Élan is a vault"))
	assert.Equal(t, "a DEX", lowerFirst("A DEX"))
	assert.Equal(t, "like what you are building", lowerFirst(""))
}

func TestMockOutreach_MultiByteSummaryStaysValid(t *testing.T) {
	a := model.AnalysisResult{Summary: "Élan is a yield vault.", Stage: "seed", BDAngles: []string{"integration"}}
	msg := mockOutreach("https://elan.fi/", a, model.ChannelEmail, "Acme")
	assert.True(t, utf8.ValidString(msg.Body))
	assert.Contains(t, msg.Body, "élan is a yield vault")
}
