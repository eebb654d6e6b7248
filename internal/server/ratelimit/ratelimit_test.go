package ratelimit

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func testConfig(perMinute, burst int) *Config {
	cfg := ResearchConfig(true, perMinute, burst)
	cfg.CleanupInterval = 0
	return cfg
}

func TestLimiter_Allow(t *testing.T) {
	limiter := NewLimiter(testConfig(10, 3))
	defer limiter.Stop()

	// burst is available immediately
	for i := 0; i < 3; i++ {
		allowed, info := limiter.Allow("127.0.0.1", "/research/overview", "POST")
		if !allowed {
			t.Errorf("Expected request %d to be allowed", i+1)
		}
		if info.Limit != 10 {
			t.Errorf("Expected limit 10, got %d", info.Limit)
		}
	}

	allowed, info := limiter.Allow("127.0.0.1", "/research/overview", "POST")
	if allowed {
		t.Error("Expected request beyond burst to be denied")
	}
	if info.RetryAfter <= 0 || info.RetryAfter > 6*time.Second {
		t.Errorf("Expected retry after within one refill interval, got %v", info.RetryAfter)
	}
	if info.Remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", info.Remaining)
	}
	if !info.ResetTime.After(time.Now()) {
		t.Error("Reset time should be in the future")
	}
}

func TestLimiter_RemainingDecreases(t *testing.T) {
	limiter := NewLimiter(testConfig(60, 5))
	defer limiter.Stop()

	_, first := limiter.Allow("c", "/research/compare", "POST")
	_, second := limiter.Allow("c", "/research/compare", "POST")
	if first.Remaining != 4 || second.Remaining != 3 {
		t.Errorf("Expected remaining 4 then 3, got %d then %d", first.Remaining, second.Remaining)
	}
}

func TestLimiter_SharedAcrossResearchEndpoints(t *testing.T) {
	limiter := NewLimiter(testConfig(10, 2))
	defer limiter.Stop()

	limiter.Allow("c", "/research/overview", "POST")
	limiter.Allow("c", "/research/compare", "POST")
	if allowed, _ := limiter.Allow("c", "/research/custom", "POST"); allowed {
		t.Error("Expected research endpoints to share one budget")
	}
}

func TestLimiter_ClientsIsolated(t *testing.T) {
	limiter := NewLimiter(testConfig(10, 1))
	defer limiter.Stop()

	limiter.Allow("a", "/research/overview", "POST")
	if allowed, _ := limiter.Allow("a", "/research/overview", "POST"); allowed {
		t.Error("Expected client a to be limited")
	}
	if allowed, _ := limiter.Allow("b", "/research/overview", "POST"); !allowed {
		t.Error("Expected client b to be unaffected")
	}
}

func TestLimiter_UnlimitedEndpoints(t *testing.T) {
	limiter := NewLimiter(testConfig(1, 1))
	defer limiter.Stop()

	for _, tc := range []struct{ path, method string }{
		{"/health", "GET"},
		{"/reports/view/x.md", "GET"},
		{"/research/overview", "GET"},
	} {
		for i := 0; i < 5; i++ {
			if allowed, _ := limiter.Allow("c", tc.path, tc.method); !allowed {
				t.Errorf("Expected %s %s to be unlimited", tc.method, tc.path)
			}
		}
	}
	if limiter.Size() != 0 {
		t.Errorf("Expected no tracked limiters, got %d", limiter.Size())
	}
}

func TestLimiter_Whitelist(t *testing.T) {
	cfg := testConfig(1, 1)
	cfg.Whitelist["10.0.0.1"] = true
	limiter := NewLimiter(cfg)
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		if allowed, _ := limiter.Allow("10.0.0.1", "/research/overview", "POST"); !allowed {
			t.Errorf("Expected whitelisted request %d to be allowed", i+1)
		}
	}
}

func TestLimiter_Disabled(t *testing.T) {
	limiter := NewLimiter(ResearchConfig(false, 1, 1))
	defer limiter.Stop()

	for i := 0; i < 10; i++ {
		if allowed, _ := limiter.Allow("c", "/research/overview", "POST"); !allowed {
			t.Errorf("Expected request %d to be allowed when disabled", i+1)
		}
	}
}

func TestLimiter_NilConfig(t *testing.T) {
	limiter := NewLimiter(nil)
	defer limiter.Stop()

	if allowed, _ := limiter.Allow("c", "/research/overview", "POST"); !allowed {
		t.Error("Expected nil config to disable limiting")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	limiter := NewLimiter(testConfig(1, 50))
	defer limiter.Stop()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := limiter.Allow("c", "/research/overview", "POST"); ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 50 {
		t.Errorf("Expected exactly 50 allowed requests, got %d", allowed)
	}
}

func TestLimiter_CleanupClients(t *testing.T) {
	limiter := NewLimiter(testConfig(10, 1))
	defer limiter.Stop()

	for i := 0; i < 3; i++ {
		limiter.Allow(fmt.Sprintf("client-%d", i), "/research/overview", "POST")
	}
	if limiter.Size() != 3 {
		t.Fatalf("Expected 3 tracked limiters, got %d", limiter.Size())
	}

	limiter.cleanupClients(time.Now().Add(-time.Minute))
	if limiter.Size() != 3 {
		t.Errorf("Expected recent limiters to survive, got %d", limiter.Size())
	}

	limiter.cleanupClients(time.Now().Add(time.Minute))
	if limiter.Size() != 0 {
		t.Errorf("Expected idle limiters to be removed, got %d", limiter.Size())
	}
}

func TestLimiter_StopTwice(t *testing.T) {
	limiter := NewLimiter(ResearchConfig(true, 10, 1))
	limiter.Stop()
	limiter.Stop()
}

func TestMatchEndpoint(t *testing.T) {
	configs := []EndpointConfig{
		{Path: "/research/", Method: "POST", Limit: 1, Window: time.Minute},
		{Path: "/reports", Method: "GET", Limit: 1, Window: time.Minute},
	}

	tests := []struct {
		path   string
		method string
		want   string
	}{
		{"/research/overview", "POST", "/research/"},
		{"/research/", "POST", "/research/"},
		{"/research/overview", "GET", ""},
		{"/reports", "GET", "/reports"},
		{"/reports/view/a.md", "GET", ""},
		{"/health", "GET", ""},
	}
	for _, tt := range tests {
		got := MatchEndpoint(tt.path, tt.method, configs)
		gotPath := ""
		if got != nil {
			gotPath = got.Path
		}
		if gotPath != tt.want {
			t.Errorf("MatchEndpoint(%q, %q) = %q, want %q", tt.path, tt.method, gotPath, tt.want)
		}
	}
}
