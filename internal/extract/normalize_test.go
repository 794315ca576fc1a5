package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"lowercases host", "https://Example.COM/Path", "https://example.com/Path", true},
		{"strips www", "https://www.example.com/a", "https://example.com/a", true},
		{"drops fragment", "https://example.com/a#team", "https://example.com/a", true},
		{"strips trailing slash", "https://example.com/docs/", "https://example.com/docs", true},
		{"keeps root slash", "https://example.com", "https://example.com/", true},
		{"drops utm params", "https://example.com/a?utm_source=x&utm_medium=y", "https://example.com/a", true},
		{"drops click ids", "https://example.com/?fbclid=1&gclid=2&msclkid=3&ref=hn&referrer=z", "https://example.com/", true},
		{"keeps real params sorted", "https://example.com/a?b=2&a=1&utm_campaign=q", "https://example.com/a?a=1&b=2", true},
		{"drops default port", "https://example.com:443/a", "https://example.com/a", true},
		{"keeps custom port", "http://example.com:8080/a", "http://example.com:8080/a", true},
		{"rejects ftp", "ftp://example.com/file", "", false},
		{"rejects relative", "/relative/path", "", false},
		{"rejects empty", "", "", false},
		{"rejects garbage", "http://%zz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeURL(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL_FixedPoint(t *testing.T) {
	inputs := []string{
		"https://www.Example.com/a/b/?utm_source=x&z=1&a=2#frag",
		"http://example.com",
		"https://app.uniswap.org/swap?chain=mainnet",
		"https://example.com/a%20b/",
		"https://example.com:8443/x/",
	}

	for _, in := range inputs {
		first, ok := NormalizeURL(in)
		assert.True(t, ok, in)
		second, ok := NormalizeURL(first)
		assert.True(t, ok, first)
		assert.Equal(t, first, second, "normalization should be a projection for %s", in)
	}
}

func TestNormalizeURL_EquivalentsCollapse(t *testing.T) {
	variants := []string{
		"https://example.com/product",
		"https://www.example.com/product/",
		"https://EXAMPLE.com/product?utm_source=newsletter",
		"https://example.com/product?ref=producthunt#pricing",
	}

	want, _ := NormalizeURL(variants[0])
	for _, v := range variants[1:] {
		got, ok := NormalizeURL(v)
		assert.True(t, ok)
		assert.Equal(t, want, got, v)
	}
}

func TestIsSocialHost(t *testing.T) {
	social := []string{"twitter.com", "x.com", "www.facebook.com", "linkedin.com", "instagram.com",
		"t.me", "discord.gg", "github.com", "gist.github.com", "medium.com", "blog.medium.com"}
	for _, h := range social {
		assert.True(t, IsSocialHost(h), h)
	}

	notSocial := []string{"example.com", "xyz.com", "mygithub.com.example.org", "uniswap.org", "telemetry.io"}
	for _, h := range notSocial {
		assert.False(t, IsSocialHost(h), h)
	}
}
