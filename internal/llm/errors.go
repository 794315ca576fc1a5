package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrorKind classifies provider failures
type ErrorKind string

const (
	KindNetwork ErrorKind = "network" // transport error or timeout
	KindStatus  ErrorKind = "status"  // non-2xx response
	KindEmpty   ErrorKind = "empty"   // no message content
	KindParse   ErrorKind = "parse"   // content is not the expected JSON
)

// ProviderError is returned for every provider-side failure
type ProviderError struct {
	Provider   string
	Kind       ErrorKind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider %s error (HTTP %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newError(provider string, kind ErrorKind, status int, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: status, Err: err}
}

// DecodeJSON extracts the first JSON object in content into an untyped map.
// Models occasionally wrap JSON in prose or code fences; both are tolerated.
func DecodeJSON(provider, content string) (map[string]any, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return nil, newError(provider, KindEmpty, 0, eris.New("empty content"))
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, newError(provider, KindParse, 0, eris.New("no JSON object in response"))
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, newError(provider, KindParse, 0, err)
	}
	return out, nil
}
