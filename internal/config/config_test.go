package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv() {
	for _, key := range []string{
		"APP_NAME", "LOG_LEVEL", "DATA_DIR",
		"ROOT_PREFIX", "ADMIN_PREFIX", "COMMAND_PREFIX", "INVOKE_PREFIX_PATTERN",
		"INITIAL_ROOT_USER_ID", "SESSION_TIMEOUT_SECONDS", "OUTBOUND_TIMEOUT_SECONDS",
	} {
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv()
	t.Setenv("INITIAL_ROOT_USER_ID", "12345@s.whatsapp.net")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AppName != "wacore" {
		t.Errorf("AppName = %q, want %q", cfg.AppName, "wacore")
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "info")
	}
	if cfg.RootPrefix != "root" {
		t.Errorf("RootPrefix = %q, want %q", cfg.RootPrefix, "root")
	}
	if cfg.AdminPrefix != "admin" {
		t.Errorf("AdminPrefix = %q, want %q", cfg.AdminPrefix, "admin")
	}
	if cfg.CommandPrefix != "." {
		t.Errorf("CommandPrefix = %q, want %q", cfg.CommandPrefix, ".")
	}
	if cfg.SessionTimeout != 5*time.Minute {
		t.Errorf("SessionTimeout = %v, want 5m", cfg.SessionTimeout)
	}
	if cfg.OutboundTimeout != 10*time.Second {
		t.Errorf("OutboundTimeout = %v, want 10s", cfg.OutboundTimeout)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv()
	t.Setenv("APP_NAME", "testcore")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("INITIAL_ROOT_USER_ID", "12345@s.whatsapp.net")
	t.Setenv("ROOT_PREFIX", "superuser")
	t.Setenv("SESSION_TIMEOUT_SECONDS", "60")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.AppName != "testcore" {
		t.Errorf("AppName = %q, want %q", cfg.AppName, "testcore")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.RootPrefix != "superuser" {
		t.Errorf("RootPrefix = %q, want %q", cfg.RootPrefix, "superuser")
	}
	if cfg.SessionTimeout != time.Minute {
		t.Errorf("SessionTimeout = %v, want 1m", cfg.SessionTimeout)
	}
}

func TestDataDirResolution(t *testing.T) {
	clearEnv()
	t.Setenv("INITIAL_ROOT_USER_ID", "12345@s.whatsapp.net")
	cwd, _ := os.Getwd()

	t.Setenv("DATA_DIR", "testdata")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := filepath.Join(cwd, "testdata")
	if cfg.DataDir != expected {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, expected)
	}

	t.Setenv("DATA_DIR", "/tmp/wacore-test-data")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DataDir != "/tmp/wacore-test-data" {
		t.Errorf("DataDir = %q, want %q", cfg.DataDir, "/tmp/wacore-test-data")
	}
}

func TestValidationRequiresRootUser(t *testing.T) {
	clearEnv()
	if _, err := Load(); err == nil {
		t.Fatal("expected error when INITIAL_ROOT_USER_ID is unset")
	}
}

func TestEnvDuration(t *testing.T) {
	tests := []struct {
		input    string
		fallback time.Duration
		expect   time.Duration
	}{
		{"", time.Second, time.Second},
		{"30", time.Second, 30 * time.Second},
		{"not-a-number", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			key := "TEST_DURATION_VAR"
			if tt.input != "" {
				os.Setenv(key, tt.input)
			} else {
				os.Unsetenv(key)
			}
			defer os.Unsetenv(key)

			got := envDuration(key, tt.fallback)
			if got != tt.expect {
				t.Errorf("envDuration(%q, %v) = %v, want %v", tt.input, tt.fallback, got, tt.expect)
			}
		})
	}
}
