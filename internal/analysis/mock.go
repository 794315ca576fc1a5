package analysis

import (
	"fmt"
	"hash/fnv"
	"net/url"
	"strings"
	"unicode"

	"github.com/ppiankov/leadradar/internal/extract"
	"github.com/ppiankov/leadradar/internal/model"
)

const (
	// seedContentLimit bounds how much content feeds the mock seed
	seedContentLimit = 2000

	// icpMatchNudge raises the mock MQA score when a category matches the ICP
	icpMatchNudge = 10
)

// Fixed vocabularies. Order matters: indices are part of the deterministic output.
var (
	categoryVocab = []string{
		"DeFi", "Infrastructure", "NFT", "Gaming", "Payments",
		"Layer 2", "Wallet", "DAO Tooling", "Analytics", "Security",
	}

	// keyword -> category, checked against content before falling back to the hash
	categoryHints = []struct {
		keyword  string
		category string
	}{
		{"swap", "DeFi"}, {"lend", "DeFi"}, {"yield", "DeFi"}, {"liquidity", "DeFi"},
		{"rollup", "Layer 2"}, {"layer 2", "Layer 2"},
		{"nft", "NFT"}, {"collectible", "NFT"},
		{"game", "Gaming"}, {"play-to-earn", "Gaming"},
		{"wallet", "Wallet"},
		{"payment", "Payments"}, {"stablecoin", "Payments"},
		{"dao", "DAO Tooling"}, {"governance", "DAO Tooling"},
		{"oracle", "Infrastructure"}, {"rpc", "Infrastructure"}, {"indexer", "Infrastructure"},
		{"dashboard", "Analytics"}, {"analytics", "Analytics"},
		{"audit", "Security"}, {"security", "Security"},
	}

	stageVocab = []string{"idea", "pre-seed", "seed", "growth", "scale"}

	targetUserVocab = []string{
		"retail DeFi traders",
		"protocol teams and developers",
		"DAO treasuries",
		"institutional desks",
		"NFT collectors and creators",
		"wallet users new to crypto",
	}

	painPointVocab = []string{
		"liquidity fragmentation across chains",
		"user acquisition cost after launch",
		"security review backlog before mainnet",
		"onboarding friction for non-crypto users",
		"unreliable data and RPC infrastructure",
		"governance participation is low",
	}

	angleVocab = []string{
		"co-marketing around their next launch",
		"integration that removes an onboarding step",
		"liquidity or ecosystem incentives partnership",
		"shared audit and security tooling",
		"data partnership for analytics dashboards",
		"intro to our community for early users",
		"pilot with a time-boxed success metric",
	}

	mqaReasonVocab = []string{
		"clear product with a defined user base",
		"active development signals on the site",
		"stage suggests budget for partnerships",
		"positioning overlaps with our offering",
		"public roadmap with upcoming milestones",
	}
)

// seedOf hashes the URL and truncated content into a stable 64-bit seed
func seedOf(rawURL, content string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(rawURL))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(extract.Truncate(content, seedContentLimit)))
	return h.Sum64()
}

// index maps (seed, salt) to [0, n) with a splitmix64 finalizer.
// Pure: no state, same arguments give the same index.
func index(seed uint64, salt, n int) int {
	if n <= 0 {
		return 0
	}
	z := seed + uint64(salt+1)*0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return int(z % uint64(n))
}

func pick(seed uint64, salt int, vocab []string) string {
	return vocab[index(seed, salt, len(vocab))]
}

// pickN returns up to n distinct entries, starting at a seeded offset
func pickN(seed uint64, salt, n int, vocab []string) []string {
	if n > len(vocab) {
		n = len(vocab)
	}
	start := index(seed, salt, len(vocab))
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, vocab[(start+i)%len(vocab)])
	}
	return out
}

// mockAnalysis is the deterministic offline analysis
func mockAnalysis(rawURL, content string, icp *model.IcpProfile) model.AnalysisResult {
	seed := seedOf(rawURL, content)
	lower := strings.ToLower(content)

	tags := hintedCategories(lower)
	for salt := 0; len(tags) < 2 && salt < len(categoryVocab); salt++ {
		tags = appendUnique(tags, pick(seed, 10+salt, categoryVocab))
	}
	if len(tags) > 3 {
		tags = tags[:3]
	}

	stage := pick(seed, 1, stageVocab)
	name := ProjectName(rawURL)

	summary := firstSentence(content)
	if summary == "" {
		summary = fmt.Sprintf("%s is a %s-stage %s project.", name, stage, tags[0])
	}

	painPoints := pick(seed, 3, painPointVocab)
	if icp != nil && len(icp.PainPoints) > 0 {
		painPoints = icp.PainPoints[index(seed, 4, len(icp.PainPoints))]
	}

	// 30..100 inclusive
	score := 30 + index(seed, 5, 71)

	reasons := pickN(seed, 6, 2, mqaReasonVocab)
	if icp.HasIndustries() && matchesIndustry(tags, icp.Industries) {
		score = clamp(score+icpMatchNudge, 0, 100)
		reasons = append(reasons, "category matches ICP industries")
	}

	return model.AnalysisResult{
		Summary:      summary,
		CategoryTags: tags,
		Stage:        stage,
		TargetUsers:  pick(seed, 2, targetUserVocab),
		PainPoints:   painPoints,
		BDAngles:     pickN(seed, 7, 2, angleVocab),
		MQAScore:     &score,
		MQAReasons:   reasons,
	}
}

func hintedCategories(lowerContent string) []string {
	var out []string
	for _, h := range categoryHints {
		if strings.Contains(lowerContent, h.keyword) {
			out = appendUnique(out, h.category)
		}
	}
	return out
}

func matchesIndustry(tags, industries []string) bool {
	for _, tag := range tags {
		t := strings.ToLower(tag)
		for _, ind := range industries {
			ind = strings.ToLower(strings.TrimSpace(ind))
			if ind != "" && strings.Contains(t, ind) {
				return true
			}
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// ProjectName derives a display name from the URL host ("app.uniswap.org" -> "Uniswap")
func ProjectName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "This project"
	}
	labels := strings.Split(strings.TrimPrefix(u.Hostname(), "www."), ".")
	name := labels[0]
	if len(labels) >= 2 {
		name = labels[len(labels)-2]
	}
	if name == "" {
		return "This project"
	}
	return mapFirstRune(name, unicode.ToUpper)
}

// firstSentence returns the first sentence of content, capped at 240 bytes
func firstSentence(content string) string {
	text := strings.Join(strings.Fields(content), " ")
	if text == "" {
		return ""
	}
	for i := 1; i < len(text); i++ {
		if strings.IndexByte(".!?", text[i-1]) >= 0 && text[i] == ' ' {
			text = text[:i]
			break
		}
	}
	return extract.Truncate(text, 240)
}
