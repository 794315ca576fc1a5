package adapters

import (
	"net/url"
	"strings"
)

// projectTLDs are suffixes common to Web3/DeFi project sites
var projectTLDs = []string{".fi", ".xyz", ".finance", ".exchange", ".money", ".network", ".io", ".app", ".gg", ".so", ".zone"}

// projectWords appear in Web3/DeFi project hostnames
var projectWords = []string{
	"protocol", "swap", "vault", "finance", "defi", "dex", "dao", "lend", "stake",
	"staking", "yield", "bridge", "chain", "labs", "network", "pool", "farm", "perp",
}

// noiseHosts are outbound links that are never project sites
var noiseHosts = []string{
	"google.com", "apple.com", "cloudflare.com", "gstatic.com", "googleapis.com",
	"youtube.com", "youtu.be", "reddit.com", "wikipedia.org", "notion.so", "substack.com",
	"etherscan.io", "bscscan.com", "arbiscan.io", "polygonscan.com", "snowtrace.io",
}

// IsLikelyProjectURL guesses whether an outbound link is a project website from
// naming conventions: project-style TLDs or DeFi vocabulary in the hostname.
func IsLikelyProjectURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" || isNoiseHost(host) {
		return false
	}

	for _, tld := range projectTLDs {
		if strings.HasSuffix(host, tld) {
			return true
		}
	}

	label := host
	if idx := strings.LastIndex(host, "."); idx > 0 {
		label = host[:idx]
	}
	for _, word := range projectWords {
		if strings.Contains(label, word) {
			return true
		}
	}
	return false
}

func isNoiseHost(host string) bool {
	for _, noise := range noiseHosts {
		if host == noise || strings.HasSuffix(host, "."+noise) {
			return true
		}
	}
	return false
}
