package internal

import (
	"strings"
	"testing"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.History.Limit != 10 {
		t.Errorf("history limit = %d, want 10", cfg.History.Limit)
	}
	if cfg.LLM.Temperature != 0.7 || cfg.LLM.MaxTokens != 5000 {
		t.Errorf("llm defaults = %+v", cfg.LLM)
	}
}

func TestHistoryConfig_ZeroLimitValid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.History.Limit = 0
	if err := cfg.Validate(); err != nil {
		t.Fatalf("zero history limit should validate: %v", err)
	}
}

func TestHistoryConfig_NegativeLimitInvalid(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.History.Limit = -1
	if err := cfg.Validate(); err == nil {
		t.Fatal("negative history limit should fail validation")
	}
}

func TestLLMConfig_TemperatureRange(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.LLM.Temperature = 3.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("temperature above 2.0 should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
