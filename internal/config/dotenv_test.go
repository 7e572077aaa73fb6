package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnvFileMissingIsNoop(t *testing.T) {
	clearEnv()
	err := LoadDotEnvFile(filepath.Join(t.TempDir(), ".env"))
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
}

func TestLoadDotEnvFileSetsOnlyUnsetKeys(t *testing.T) {
	clearEnv()
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "ROOT_PREFIX=boss\nADMIN_PREFIX=mod\nLOG_LEVEL=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write .env: %v", err)
	}

	t.Setenv("ADMIN_PREFIX", "from-os")

	if err := LoadDotEnvFile(path); err != nil {
		t.Fatalf("LoadDotEnvFile: %v", err)
	}

	if got := os.Getenv("ROOT_PREFIX"); got != "boss" {
		t.Fatalf("ROOT_PREFIX = %q, want boss", got)
	}
	if got := os.Getenv("ADMIN_PREFIX"); got != "from-os" {
		t.Fatalf("ADMIN_PREFIX = %q, want from-os", got)
	}
	if got := os.Getenv("LOG_LEVEL"); got != "from-file" {
		t.Fatalf("LOG_LEVEL = %q, want from-file", got)
	}
}
