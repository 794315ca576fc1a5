package model

import "time"

// Config is the full leadradar configuration
type Config struct {
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	AI           AIConfig           `yaml:"ai" mapstructure:"ai"`
	Discovery    DiscoveryConfig    `yaml:"discovery" mapstructure:"discovery"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the fetched-page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskDir   string        `yaml:"disk_dir" mapstructure:"disk_dir"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig bounds parallel work
type ConcurrencyConfig struct {
	Workers      int `yaml:"workers" mapstructure:"workers"`             // candidate/watchlist fan-out
	ProbeWorkers int `yaml:"probe_workers" mapstructure:"probe_workers"` // reachability probes
}

// RateLimitingConfig is applied per domain
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// AIConfig configures the analysis provider and its capability gate
type AIConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`   // Feature flag
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `yaml:"temperature" mapstructure:"temperature"`
	Plan        string        `yaml:"plan" mapstructure:"plan"` // free, starter, pro, enterprise

	// Positioning of the company doing outreach, embedded into prompts
	Positioning string `yaml:"positioning,omitempty" mapstructure:"positioning"`
}

// DiscoveryConfig controls candidate extraction during scans
type DiscoveryConfig struct {
	MaxCandidates     int  `yaml:"max_candidates" mapstructure:"max_candidates"`
	FollowDetailPages bool `yaml:"follow_detail_pages" mapstructure:"follow_detail_pages"`
	MaxDetailPages    int  `yaml:"max_detail_pages" mapstructure:"max_detail_pages"`
	ProbeCandidates   bool `yaml:"probe_candidates" mapstructure:"probe_candidates"`
}

// StoreConfig locates the SQLite database
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// ServerConfig configures the JSON API
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures zap
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "LeadRadar/0.1 (+https://github.com/ppiankov/leadradar)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			MemoryTTL: 15 * time.Minute,
			DiskDir:   "",
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers:      4,
			ProbeWorkers: 10,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		AI: AIConfig{
			Enabled:     false,
			Provider:    "openai",
			Timeout:     20 * time.Second,
			MaxTokens:   1200,
			Temperature: 0.4,
			Plan:        "free",
		},
		Discovery: DiscoveryConfig{
			MaxCandidates:     25,
			FollowDetailPages: true,
			MaxDetailPages:    10,
			ProbeCandidates:   false,
		},
		Server: ServerConfig{Port: 8080},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
