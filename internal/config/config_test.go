package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("AI_PROVIDER", "")
	cfg := Load()
	if cfg.Port != "12000" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.AIProvider != "gemini" {
		t.Fatalf("expected default provider gemini, got %s", cfg.AIProvider)
	}
	if !cfg.AIEnabled {
		t.Fatal("expected AI enabled by default")
	}
	if cfg.AIMaxHistory != 10 {
		t.Fatalf("expected default max history, got %d", cfg.AIMaxHistory)
	}
	if cfg.SessionQRMaxRetries != 3 {
		t.Fatalf("expected default qr retries, got %d", cfg.SessionQRMaxRetries)
	}
	if cfg.SessionReconnectCap != 30*time.Second {
		t.Fatalf("expected default reconnect cap, got %s", cfg.SessionReconnectCap)
	}
	if cfg.DefaultCountryCode != "20" {
		t.Fatalf("expected default country code, got %s", cfg.DefaultCountryCode)
	}
}

func TestSystemPromptDefault(t *testing.T) {
	t.Setenv("AI_SYSTEM_PROMPT", "")
	cfg := Load()
	if cfg.AISystemPrompt != defaultSystemPrompt {
		t.Fatal("expected built-in persona prompt when unset")
	}
	if !strings.Contains(cfg.AISystemPrompt, "مستشار استثماري") {
		t.Fatal("expected persona prompt to stay in character")
	}

	t.Setenv("AI_SYSTEM_PROMPT", "short prompt")
	cfg = Load()
	if cfg.AISystemPrompt != "short prompt" {
		t.Fatalf("expected override prompt, got %s", cfg.AISystemPrompt)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("AI_PROVIDER", "OpenAI")
	t.Setenv("AI_ENABLED", "false")
	t.Setenv("SESSION_MAX_RECONNECTS", "4")
	t.Setenv("SESSION_TYPING_DELAY", "1s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.AIProvider != "openai" {
		t.Fatalf("expected normalized provider, got %s", cfg.AIProvider)
	}
	if cfg.AIEnabled {
		t.Fatal("expected AI disabled")
	}
	if cfg.SessionMaxReconnects != 4 {
		t.Fatalf("expected reconnect override, got %d", cfg.SessionMaxReconnects)
	}
	if cfg.SessionTypingDelay != time.Second {
		t.Fatalf("expected typing delay override, got %s", cfg.SessionTypingDelay)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("expected parsed origins, got %v", cfg.CORSAllowedOrigins)
	}
}
