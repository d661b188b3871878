package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Port != "3000" {
		t.Fatalf("expected default port 3000, got %s", cfg.Port)
	}
	if cfg.PaymentProvider != "mercadopago" {
		t.Fatalf("expected mercadopago as default provider, got %s", cfg.PaymentProvider)
	}
	if cfg.GatewayTimeout != 15*time.Second {
		t.Fatalf("expected GATEWAY_TIMEOUT 15s, got %s", cfg.GatewayTimeout)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected cache disabled by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("PAYMENT_PROVIDER", "stripe")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("PLAN_CACHE_TTL", "1m")
	t.Setenv("BACKEND_URL", "https://api.eduplan.com.br")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Port != "8081" {
		t.Fatalf("expected PORT override, got %s", cfg.Port)
	}
	if cfg.PaymentProvider != "stripe" {
		t.Fatalf("expected PAYMENT_PROVIDER override, got %s", cfg.PaymentProvider)
	}
	if cfg.GatewayTimeout != 3*time.Second {
		t.Fatalf("expected GATEWAY_TIMEOUT 3s, got %s", cfg.GatewayTimeout)
	}
	if cfg.PlanCacheTTL != time.Minute {
		t.Fatalf("expected PLAN_CACHE_TTL 1m, got %s", cfg.PlanCacheTTL)
	}
	if got := cfg.NotificationURL(); got != "https://api.eduplan.com.br/api/webhooks/mercadopago" {
		t.Fatalf("unexpected notification url %s", got)
	}
}
