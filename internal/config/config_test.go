package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("TIMEZONE", "")
	t.Setenv("PRODUCT_CACHE_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Timezone != "Asia/Colombo" {
		t.Fatalf("expected default timezone Asia/Colombo, got %q", cfg.Timezone)
	}
	if cfg.ProductCacheTTLSeconds != 30 {
		t.Fatalf("expected fallback cache TTL 30, got %d", cfg.ProductCacheTTLSeconds)
	}
	if cfg.Address() != ":8080" {
		t.Fatalf("expected address :8080, got %q", cfg.Address())
	}
}
