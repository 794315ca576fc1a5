package score

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/leadradar/internal/model"
)

func TestScorer_TextScanScenario(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Score(Input{
		Analysis: model.AnalysisResult{
			Summary:      "testnet audit launching",
			CategoryTags: []string{"DeFi"},
			Stage:        "growth",
			BDAngles:     []string{},
		},
		SourceType: model.SourceTextScan,
	})

	// 5 (source) + 5+5+5 (testnet, audit, launching)
	assert.Equal(t, 20, result.LeadScore)
	assert.Equal(t, 20, result.SignalStrength)
	assert.Len(t, result.LeadReasons, 4)
	assert.Contains(t, result.LeadReasons, "Signal keyword: testnet (+5)")
	assert.Contains(t, result.LeadReasons, "Signal keyword: audit (+5)")
	assert.Contains(t, result.LeadReasons, "Signal keyword: launching (+5)")
	assert.Contains(t, result.LeadReasons, "Source: TEXT_SCAN (+5)")
	assert.Empty(t, result.PlaybookMatches)
}

func TestScorer_PlaybookPenaltyScenario(t *testing.T) {
	scorer := NewScorer()
	analysis := model.AnalysisResult{Summary: "meme coin"}

	base := scorer.Score(Input{Analysis: analysis, SourceType: model.SourceWatchlist})
	penalized := scorer.Score(Input{
		Analysis:   analysis,
		SourceType: model.SourceWatchlist,
		Playbooks:  []model.Playbook{{Name: "No memes", Penalties: []string{"meme"}}},
	})

	assert.Equal(t, base.LeadScore-10, penalized.LeadScore)
	assert.Equal(t, []string{"No memes"}, penalized.PlaybookMatches)
}

func TestScorer_PlaybookListedOnce(t *testing.T) {
	scorer := NewScorer()

	result := scorer.Score(Input{
		Analysis:   model.AnalysisResult{Summary: "a lending vault for stablecoin yield"},
		SourceType: model.SourcePageScan,
		Playbooks: []model.Playbook{
			{Name: "DeFi builders", Boosts: []string{"lending", "vault", "yield"}, Penalties: []string{"stablecoin"}},
			{Name: "Gaming", Boosts: []string{"game"}},
		},
	})

	// 10 (source) + 3*10 - 10
	assert.Equal(t, 30, result.LeadScore)
	assert.Equal(t, []string{"DeFi builders"}, result.PlaybookMatches)
}

func TestScorer_ICPMatch(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		name string
		tags []string
		icp  *model.IcpProfile
		want int
	}{
		{"nil icp", []string{"DeFi"}, nil, 5},
		{"no industries", []string{"DeFi"}, &model.IcpProfile{PainPoints: []string{"x"}}, 5},
		{"blank industry", []string{"DeFi"}, &model.IcpProfile{Industries: []string{"  "}}, 5},
		{"match", []string{"Infra", "DeFi Lending"}, &model.IcpProfile{Industries: []string{"defi"}}, 20},
		{"multiple matches count once", []string{"DeFi", "DeFi 2"}, &model.IcpProfile{Industries: []string{"DeFi", "fi"}}, 20},
		{"no match", []string{"Gaming"}, &model.IcpProfile{Industries: []string{"DeFi"}}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := scorer.Score(Input{
				Analysis:   model.AnalysisResult{CategoryTags: tt.tags},
				ICP:        tt.icp,
				SourceType: model.SourceTextScan,
			})
			assert.Equal(t, tt.want, result.LeadScore)
		})
	}
}

func TestScorer_SourceBonus(t *testing.T) {
	scorer := NewScorer()

	tests := []struct {
		source    model.SourceType
		wantScore int
		wantSig   int
	}{
		{model.SourceWatchlist, 20, 10},
		{model.SourcePageScan, 10, 5},
		{model.SourceTextScan, 5, 5},
		{model.SourceType("UNKNOWN"), 0, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			result := scorer.Score(Input{SourceType: tt.source})
			assert.Equal(t, tt.wantScore, result.LeadScore)
			assert.Equal(t, tt.wantSig, result.SignalStrength)
		})
	}
}

func TestScorer_SignalKeywordsMembership(t *testing.T) {
	result := NewScorer().Score(Input{
		Analysis:   model.AnalysisResult{Summary: "beta beta beta"},
		RawContext: "BETA launch",
		SourceType: model.SourceTextScan,
	})
	assert.Equal(t, 10, result.LeadScore)
}

func TestScorer_SignalKeywordsPerOccurrence(t *testing.T) {
	scorer := NewScorerWithOptions(Options{CountPerOccurrence: true})
	result := scorer.Score(Input{
		Analysis:   model.AnalysisResult{Summary: "beta beta beta"},
		SourceType: model.SourceTextScan,
	})
	assert.Equal(t, 20, result.LeadScore)
}

func TestScorer_CustomKeywords(t *testing.T) {
	scorer := NewScorerWithOptions(Options{SignalKeywords: []string{" Airdrop ", ""}})
	result := scorer.Score(Input{
		Analysis:   model.AnalysisResult{Summary: "airdrop and testnet"},
		SourceType: model.SourceTextScan,
	})
	assert.Equal(t, 10, result.LeadScore)
}

func TestScorer_RawContextAndTargetUsersInBlob(t *testing.T) {
	result := NewScorer().Score(Input{
		Analysis: model.AnalysisResult{
			TargetUsers: "Mainnet users",
			PainPoints:  "needs FUNDING",
		},
		RawContext: "we announced it",
		SourceType: model.SourceTextScan,
	})
	assert.Equal(t, 20, result.LeadScore)
}

func TestScorer_Bounds(t *testing.T) {
	scorer := NewScorer()

	var boosts, penalties []string
	for i := 0; i < 20; i++ {
		boosts = append(boosts, fmt.Sprintf("kw%d", i))
		penalties = append(penalties, fmt.Sprintf("bad%d", i))
	}
	var text string
	for _, b := range boosts {
		text += b + " "
	}

	high := scorer.Score(Input{
		Analysis:   model.AnalysisResult{Summary: text + "testnet mainnet launching audit raise funding announced beta alpha"},
		ICP:        &model.IcpProfile{Industries: []string{"defi"}},
		Playbooks:  []model.Playbook{{Name: "all", Boosts: boosts}},
		SourceType: model.SourceWatchlist,
	})
	assert.Equal(t, MaxLeadScore, high.LeadScore)
	assert.Equal(t, MaxSignalStrength, high.SignalStrength)

	lowText := ""
	for _, p := range penalties {
		lowText += p + " "
	}
	low := scorer.Score(Input{
		Analysis:   model.AnalysisResult{Summary: lowText},
		Playbooks:  []model.Playbook{{Name: "none", Penalties: penalties}},
		SourceType: model.SourceTextScan,
	})
	assert.Equal(t, 0, low.LeadScore)
	assert.GreaterOrEqual(t, low.SignalStrength, 0)
}

func TestScorer_EmptyInput(t *testing.T) {
	result := NewScorer().Score(Input{})
	assert.Equal(t, 0, result.LeadScore)
	assert.Equal(t, 0, result.SignalStrength)
	assert.NotNil(t, result.LeadReasons)
	assert.NotNil(t, result.PlaybookMatches)
}

func TestScorer_DoesNotMutateInput(t *testing.T) {
	tags := []string{"DeFi"}
	playbooks := []model.Playbook{{Name: "p", Boosts: []string{"DeFi"}}}
	in := Input{
		Analysis:   model.AnalysisResult{CategoryTags: tags},
		Playbooks:  playbooks,
		SourceType: model.SourceTextScan,
	}

	first := NewScorer().Score(in)
	second := NewScorer().Score(in)

	require.Equal(t, first, second)
	assert.Equal(t, []string{"DeFi"}, tags)
	assert.Equal(t, []string{"DeFi"}, playbooks[0].Boosts)
}

func TestScorer_ContributionsSumToUnclampedScore(t *testing.T) {
	result := NewScorer().Score(Input{
		Analysis:   model.AnalysisResult{Summary: "audit", CategoryTags: []string{"DeFi"}},
		ICP:        &model.IcpProfile{Industries: []string{"DeFi"}},
		SourceType: model.SourcePageScan,
	})

	sum := 0
	for _, c := range result.Contributions {
		sum += c.Delta
	}
	assert.Equal(t, result.LeadScore, sum)
	assert.Equal(t, KindICPMatch, result.Contributions[0].Kind)
}
