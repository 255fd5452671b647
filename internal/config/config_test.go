package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default port, got %q", cfg.HTTPPort)
	}
	if cfg.ThinkingDelay != 1500*time.Millisecond || cfg.CalendarDelay != 2*time.Second {
		t.Fatalf("unexpected delays: %v %v", cfg.ThinkingDelay, cfg.CalendarDelay)
	}
	if cfg.SlotAckDelay != 500*time.Millisecond || cfg.BookingDelay != 1500*time.Millisecond {
		t.Fatalf("unexpected delays: %v %v", cfg.SlotAckDelay, cfg.BookingDelay)
	}
	if cfg.DeliveryPolicy != "serialize" {
		t.Fatalf("expected serialize policy, got %q", cfg.DeliveryPolicy)
	}
	if cfg.ConversationTTL != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %v", cfg.ConversationTTL)
	}
	if cfg.RateLimitWindow != time.Minute || cfg.RateLimitMax != 60 {
		t.Fatalf("unexpected rate limit: %v %d", cfg.RateLimitWindow, cfg.RateLimitMax)
	}
	if len(cfg.CORSAllowedOrigins) != 1 || cfg.CORSAllowedOrigins[0] != "*" {
		t.Fatalf("expected wildcard origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("THINKING_DELAY", "10ms")
	t.Setenv("DELIVERY_POLICY", "cancel")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.HTTPPort != "9090" || cfg.ThinkingDelay != 10*time.Millisecond {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.DeliveryPolicy != "cancel" || cfg.RedisDB != 2 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "http://b.test" {
		t.Fatalf("expected two origins, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadConfigInvalidDuration(t *testing.T) {
	t.Setenv("CALENDAR_DELAY", "soon")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
