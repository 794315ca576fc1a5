package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_New(t *testing.T) {
	if l := NewLimiter(10, 5); l.defaultBurst != 5 {
		t.Errorf("expected burst 5, got %d", l.defaultBurst)
	}
	if l := NewLimiter(10, -1); l.defaultBurst != 5 {
		t.Errorf("expected default burst 5 for negative input, got %d", l.defaultBurst)
	}
}

func TestLimiter_Unlimited(t *testing.T) {
	limiter := NewLimiter(0, 1)
	for i := 0; i < 100; i++ {
		if !limiter.Allow("https://defillama.com/protocol/x") {
			t.Fatalf("request %d should pass with no rate limit", i)
		}
	}
}

func TestLimiter_PerHost(t *testing.T) {
	limiter := NewLimiter(1, 1)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "https://defillama.com/protocols"); err != nil {
		t.Fatalf("first wait failed: %v", err)
	}
	if limiter.Allow("https://DefiLlama.com/protocol/aave") {
		t.Error("expected the host's token to be exhausted")
	}
	if !limiter.Allow("https://dappradar.com/") {
		t.Error("expected other host to pass")
	}
}

func TestLimiter_ApplyCrawlDelay(t *testing.T) {
	limiter := NewLimiter(100, 10)
	url := "https://slow.example/"

	limiter.ApplyCrawlDelay(url, 10*time.Second)

	if !limiter.Allow(url) {
		t.Fatal("first request should pass")
	}
	if limiter.Allow(url) {
		t.Error("crawl delay should leave burst 1")
	}
	if !limiter.Allow("https://fast.example/") {
		t.Error("other host keeps the default rate")
	}
}

func TestLimiter_CrawlDelayNeverSpeedsUp(t *testing.T) {
	limiter := NewLimiter(0.1, 1)
	url := "https://x.example/"
	limiter.ApplyCrawlDelay(url, time.Millisecond)

	if got := limiter.limiter("x.example").Limit(); got > 0.1 {
		t.Errorf("limit raised to %v", got)
	}
}

func TestLimiter_InvalidURL(t *testing.T) {
	limiter := NewLimiter(1, 1)
	if err := limiter.Wait(context.Background(), "::invalid"); err == nil {
		t.Error("expected error for invalid URL")
	}
	if limiter.Allow("/relative/path") {
		t.Error("expected URL without host to be refused")
	}
}

func TestLimiter_WaitRespectsContext(t *testing.T) {
	limiter := NewLimiter(0.01, 1)
	url := "https://example.com/"
	_ = limiter.Wait(context.Background(), url)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := limiter.Wait(ctx, url); err == nil {
		t.Error("expected wait to fail once the context expires")
	}
}
