package cache

import (
	"encoding/json"
	"time"
)

const pageNamespace = "page"

// Page is a cached fetch result
type Page struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	Body        string    `json:"body"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// PageStore stores fetched pages by URL on top of any Cache
type PageStore struct {
	cache Cache
	ttl   time.Duration
}

// NewPageStore wraps c; ttl 0 uses the underlying cache default
func NewPageStore(c Cache, ttl time.Duration) *PageStore {
	return &PageStore{cache: c, ttl: ttl}
}

// Get returns the cached page for rawURL. Undecodable entries count as a miss.
func (s *PageStore) Get(rawURL string) (*Page, bool) {
	raw, ok := s.cache.Get(Key(pageNamespace, rawURL))
	if !ok {
		return nil, false
	}
	var page Page
	if err := json.Unmarshal(raw, &page); err != nil {
		_ = s.cache.Delete(Key(pageNamespace, rawURL))
		return nil, false
	}
	return &page, true
}

// Put stores page under its request URL
func (s *PageStore) Put(page *Page) error {
	raw, err := json.Marshal(page)
	if err != nil {
		return err
	}
	return s.cache.Set(Key(pageNamespace, page.URL), raw, s.ttl)
}
