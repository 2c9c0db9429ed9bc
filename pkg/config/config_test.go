package config

import (
	"math"
	"os"
	"testing"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg == nil {
		t.Fatal("NewDefaultConfig returned nil")
	}
	if cfg.ActionThresholds["reject"] <= 0 {
		t.Errorf("reject threshold should be positive, got %f", cfg.ActionThresholds["reject"])
	}
	if cfg.DefaultMaxShots <= 0 {
		t.Errorf("DefaultMaxShots should be positive, got %d", cfg.DefaultMaxShots)
	}
}

func TestNewDefaultConfigIndependentCopies(t *testing.T) {
	a := NewDefaultConfig()
	b := NewDefaultConfig()
	a.ActionThresholds["reject"] = 999

	if b.ActionThresholds["reject"] == 999 {
		t.Error("mutating one config's thresholds affected another's")
	}
}

func TestActionLimitsDefaultsUnmentionedToNaN(t *testing.T) {
	cfg := NewDefaultConfig()
	delete(cfg.ActionThresholds, "greylist")

	limits := cfg.ActionLimits()
	if !math.IsNaN(limits["greylist"]) {
		t.Errorf("greylist limit = %v, want NaN", limits["greylist"])
	}
	if math.IsNaN(limits["reject"]) {
		t.Error("reject limit should not be NaN")
	}
}

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load("/nonexistent/profile.yaml")
	if err != nil {
		t.Fatalf("Load returned error for missing file: %v", err)
	}
	if cfg.Name != ProfileBalanced.Name {
		t.Errorf("Name = %q, want %q", cfg.Name, ProfileBalanced.Name)
	}
}

func TestClampInt(t *testing.T) {
	tests := []struct {
		val, min, max, expected int
	}{
		{5, 0, 10, 5},
		{-1, 0, 10, 0},
		{15, 0, 10, 10},
		{0, 0, 10, 0},
		{10, 0, 10, 10},
	}

	for _, tt := range tests {
		result := clampInt(tt.val, tt.min, tt.max)
		if result != tt.expected {
			t.Errorf("clampInt(%d, %d, %d) = %d, want %d",
				tt.val, tt.min, tt.max, result, tt.expected)
		}
	}
}

func TestGetEnvInt(t *testing.T) {
	_ = os.Setenv("TEST_INT_VAR", "42")
	defer func() { _ = os.Unsetenv("TEST_INT_VAR") }()

	if result := GetEnvInt("TEST_INT_VAR", 10); result != 42 {
		t.Errorf("GetEnvInt = %d, want 42", result)
	}
	if result := GetEnvInt("NON_EXISTENT_VAR_XYZ", 100); result != 100 {
		t.Errorf("GetEnvInt = %d, want default 100", result)
	}

	_ = os.Setenv("INVALID_INT_VAR", "not-a-number")
	defer func() { _ = os.Unsetenv("INVALID_INT_VAR") }()
	if result := GetEnvInt("INVALID_INT_VAR", 50); result != 50 {
		t.Errorf("GetEnvInt = %d, want default 50 for invalid int", result)
	}
}

func TestAdminTokenFromEnv(t *testing.T) {
	_ = os.Setenv("SYMSCORE_ADMIN_TOKEN", "fixed-token")
	defer func() { _ = os.Unsetenv("SYMSCORE_ADMIN_TOKEN") }()

	if got := AdminToken(); got != "fixed-token" {
		t.Errorf("AdminToken() = %q, want %q", got, "fixed-token")
	}
}

func TestAdminTokenGeneratesWhenUnset(t *testing.T) {
	_ = os.Unsetenv("SYMSCORE_ADMIN_TOKEN")
	token := AdminToken()
	if token == "" {
		t.Error("generated admin token should not be empty")
	}
	if AdminToken() != token {
		t.Error("generated admin token should be stable for the process lifetime")
	}
}
