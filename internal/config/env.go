package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvBuildAnalyze = "BUILD_ANALYZE"
	EnvBaseURL      = "BASE_URL"
	EnvLogLevel     = "PANORAMA_LOG_LEVEL"
)

// envFiles are loaded in order; godotenv never overrides a variable that is
// already set, so .env.local wins over .env.
var envFiles = []string{".env.local", ".env"}

// loadEnvFile loads every readable env file in the working directory.
// Variables already present in the process environment are kept.
func loadEnvFile() {
	loadEnvFiles(envFiles...)
}

func loadEnvFiles(files ...string) {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			slog.Warn("Failed to load env file", "file", f, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", f)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v, ok := os.LookupEnv(EnvBuildAnalyze); ok && v != "" {
		cfg.Build.Analyze = truthy(v)
	}
	if v := os.Getenv(EnvBaseURL); v != "" {
		cfg.Router.Base = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Monitoring.Logging.Level = NormalizeLogLevel(v)
	}
}

// truthy treats recognised booleans literally and any other non-empty value as true.
func truthy(v string) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
		return b
	}
	return strings.TrimSpace(v) != ""
}

// normalize canonicalises values after decoding.
func normalize(cfg *Config) {
	if cfg.Target == "" {
		cfg.Target = TargetStatic
	}
	cfg.Router.Base = NormalizeBase(cfg.Router.Base)
	cfg.Monitoring.Logging.Level = NormalizeLogLevel(string(cfg.Monitoring.Logging.Level))
	cfg.Monitoring.Logging.Format = NormalizeLogFormat(string(cfg.Monitoring.Logging.Format))
	for i := range cfg.Plugins {
		cfg.Plugins[i].Mode = pluginModeNormalizer.Normalize(string(cfg.Plugins[i].Mode))
	}
	if cfg.Generate.Concurrency <= 0 {
		cfg.Generate.Concurrency = 1
	}
	if cfg.Generate.Notify.Subject == "" {
		cfg.Generate.Notify.Subject = "panorama.generate"
	}
	if cfg.Generate.Notify.Stream == "" {
		cfg.Generate.Notify.Stream = "PANORAMA"
	}
	if cfg.Monitoring.Metrics.Path == "" {
		cfg.Monitoring.Metrics.Path = "/metrics"
	}
	if g := cfg.Content.Git; g != nil {
		if g.Path == "" {
			g.Path = "content"
		}
		if g.Auth != nil && g.Auth.Type == "" {
			g.Auth.Type = AuthTypeNone
		}
	}
}

// NormalizeBase returns base with a leading and trailing slash; empty becomes "/".
func NormalizeBase(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return "/"
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}
