package adapters

import "regexp"

// builtinSites lists the aggregators leadradar knows how to read
func builtinSites() []SiteExtractor {
	return []SiteExtractor{
		{
			Name:         "defillama",
			HostPatterns: []string{"defillama.com", "llama.fi"},
			DetailPaths: []*regexp.Regexp{
				regexp.MustCompile(`^/protocol/[^/]+$`),
				regexp.MustCompile(`^/chain/[^/]+$`),
			},
		},
		{
			Name:         "dappradar",
			HostPatterns: []string{"dappradar.com"},
			DetailPaths: []*regexp.Regexp{
				regexp.MustCompile(`^/dapp/[^/]+$`),
				regexp.MustCompile(`^/[a-z0-9-]+/[a-z]+/[^/]+$`),
			},
		},
		{
			Name:         "coingecko",
			HostPatterns: []string{"coingecko.com"},
			DetailPaths: []*regexp.Regexp{
				regexp.MustCompile(`^/([a-z]{2}/)?coins/[^/]+$`),
			},
		},
		{
			Name:         "cryptorank",
			HostPatterns: []string{"cryptorank.io"},
			DetailPaths: []*regexp.Regexp{
				regexp.MustCompile(`^/price/[^/]+$`),
				regexp.MustCompile(`^/ico/[^/]+$`),
			},
		},
		{
			Name:         "rootdata",
			HostPatterns: []string{"rootdata.com"},
			DetailPaths: []*regexp.Regexp{
				regexp.MustCompile(`^/[Pp]rojects/detail/[^/]+$`),
			},
		},
		{
			Name:         "producthunt",
			HostPatterns: []string{"producthunt.com"},
			DetailPaths: []*regexp.Regexp{
				regexp.MustCompile(`^/(posts|products)/[^/]+$`),
			},
		},
	}
}
