// Package util holds HTTP plumbing shared by the fetcher and the LLM providers.
package util

import (
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

// NewProxyFunc routes requests through the configured proxies.
// Hosts listed in noProxy (comma-separated suffixes) go direct. With no proxies
// configured, or an unparsable one, the environment is used.
func NewProxyFunc(httpProxy, httpsProxy, noProxy string) func(*http.Request) (*url.URL, error) {
	httpURL := parseProxy(httpProxy)
	httpsURL := parseProxy(httpsProxy)
	if httpURL == nil && httpsURL == nil {
		return http.ProxyFromEnvironment
	}

	var bypass []string
	for _, h := range strings.Split(noProxy, ",") {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			bypass = append(bypass, strings.TrimPrefix(h, "."))
		}
	}

	return func(req *http.Request) (*url.URL, error) {
		host := strings.ToLower(req.URL.Hostname())
		for _, b := range bypass {
			if host == b || strings.HasSuffix(host, "."+b) {
				return nil, nil
			}
		}
		if req.URL.Scheme == "https" && httpsURL != nil {
			return httpsURL, nil
		}
		if httpURL != nil {
			return httpURL, nil
		}
		return http.ProxyFromEnvironment(req)
	}
}

func parseProxy(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		zap.L().Warn("ignoring invalid proxy URL", zap.String("proxy", raw))
		return nil
	}
	return u
}
