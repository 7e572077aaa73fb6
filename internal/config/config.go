package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration: command prefixes, session timeout, and the persistence
// backend's data directory.
type Config struct {
	AppName  string
	LogLevel string
	DataDir  string

	// Command parsing
	RootPrefix          string
	AdminPrefix         string
	CommandPrefix       string
	InvokePrefixPattern string

	// Root bootstrap
	InitialRootUserID string

	// Interactive sessions
	SessionTimeout time.Duration

	// Outbound delivery
	OutboundTimeout time.Duration
}

// Load reads environment variables and returns a validated Config.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getwd: %w", err)
	}

	dataDir := resolvePath(cwd, envStr("DATA_DIR", ".data"))

	cfg := &Config{
		AppName:  envStr("APP_NAME", "wacore"),
		LogLevel: envStr("LOG_LEVEL", "info"),
		DataDir:  dataDir,

		RootPrefix:          envStr("ROOT_PREFIX", "root"),
		AdminPrefix:         envStr("ADMIN_PREFIX", "admin"),
		CommandPrefix:       envStr("COMMAND_PREFIX", "."),
		InvokePrefixPattern: envStr("INVOKE_PREFIX_PATTERN", `^\.(?:[^.].*|)$`),

		InitialRootUserID: envStr("INITIAL_ROOT_USER_ID", ""),

		SessionTimeout:  envDuration("SESSION_TIMEOUT_SECONDS", 5*time.Minute),
		OutboundTimeout: envDuration("OUTBOUND_TIMEOUT_SECONDS", 10*time.Second),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.InitialRootUserID == "" {
		return fmt.Errorf("INITIAL_ROOT_USER_ID cannot be empty")
	}
	if c.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX cannot be empty")
	}
	if c.SessionTimeout <= 0 {
		return fmt.Errorf("SESSION_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

// LoadDotEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment only for keys that are not already set.
func LoadDotEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open dotenv: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		if strings.HasPrefix(value, "\"") && strings.HasSuffix(value, "\"") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}
		if strings.HasPrefix(value, "'") && strings.HasSuffix(value, "'") && len(value) >= 2 {
			value = value[1 : len(value)-1]
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setenv %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan dotenv: %w", err)
	}
	return nil
}

// --- helpers ---

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

func resolvePath(cwd, value string) string {
	if filepath.IsAbs(value) {
		return value
	}
	return filepath.Join(cwd, value)
}
