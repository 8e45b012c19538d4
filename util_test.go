package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestDirExists(t *testing.T) {
	dir := t.TempDir()
	if !dirExists(dir) {
		t.Errorf("Expected dirExists to return true for existing dir")
	}
	if dirExists(dir + "-notfound") {
		t.Errorf("Expected dirExists to return false for non-existent dir")
	}
}

func TestFormatUptime(t *testing.T) {
	cases := []struct {
		dur      time.Duration
		expected string
	}{
		{time.Second * 5, "5 seconds"},
		{time.Second * 65, "1 minute, 5 seconds"},
		{time.Second * 3665, "1 hour, 1 minute, 5 seconds"},
		{time.Second * 3600, "1 hour, 0 minutes, 0 seconds"},
		{time.Second * 1, "1 second"},
	}
	for _, c := range cases {
		got := formatUptime(c.dur)
		if got != c.expected {
			t.Errorf("formatUptime(%v) = %q, want %q", c.dur, got, c.expected)
		}
	}
}

func TestPlural(t *testing.T) {
	if plural(1) != "" {
		t.Errorf("plural(1) = %q, want \"\"", plural(1))
	}
	if plural(2) != "s" {
		t.Errorf("plural(2) = %q, want \"s\"", plural(2))
	}
	if plural(0) != "s" {
		t.Errorf("plural(0) = %q, want \"s\"", plural(0))
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_STRING", "  value ")
	if got := getEnv("TEST_STRING", "fallback"); got != "value" {
		t.Errorf("getEnv = %q, want value", got)
	}
	t.Setenv("TEST_STRING", "   ")
	if got := getEnv("TEST_STRING", "fallback"); got != "fallback" {
		t.Errorf("getEnv blank = %q, want fallback", got)
	}
}

func TestGetEnvDuration(t *testing.T) {
	os.Setenv("TEST_DURATION", "2s")
	defer os.Unsetenv("TEST_DURATION")
	if got := getEnvDuration("TEST_DURATION", time.Second); got != 2*time.Second {
		t.Errorf("getEnvDuration = %v, want 2s", got)
	}
	os.Setenv("TEST_DURATION", "notaduration")
	if got := getEnvDuration("TEST_DURATION", 3*time.Second); got != 3*time.Second {
		t.Errorf("getEnvDuration fallback = %v, want 3s", got)
	}
	os.Unsetenv("TEST_DURATION")
	if got := getEnvDuration("TEST_DURATION", 4*time.Second); got != 4*time.Second {
		t.Errorf("getEnvDuration fallback unset = %v, want 4s", got)
	}
}

func TestGetEnvInt(t *testing.T) {
	os.Setenv("TEST_INT", "42")
	defer os.Unsetenv("TEST_INT")
	if got := getEnvInt("TEST_INT", 7); got != 42 {
		t.Errorf("getEnvInt = %d, want 42", got)
	}
	os.Setenv("TEST_INT", "notanint")
	if got := getEnvInt("TEST_INT", 8); got != 8 {
		t.Errorf("getEnvInt fallback = %d, want 8", got)
	}
	os.Unsetenv("TEST_INT")
	if got := getEnvInt("TEST_INT", 9); got != 9 {
		t.Errorf("getEnvInt fallback unset = %d, want 9", got)
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GIN_MODE", "release")
	t.Setenv("PORT", "9090")
	t.Setenv("BEST_TIME_BACKEND", "sqlite")
	t.Setenv("SESSION_TIMEOUT", "30m")
	t.Setenv("RATE_LIMIT_RPS", "3")
	t.Setenv("DATA_PATH", "")

	cfg := loadConfig()
	if !cfg.IsProduction {
		t.Error("GIN_MODE=release should mean production")
	}
	if cfg.Port != "9090" || cfg.BestTimeBackend != BackendSQLite {
		t.Errorf("port/backend = %q/%q", cfg.Port, cfg.BestTimeBackend)
	}
	if cfg.SessionTimeout != 30*time.Minute || cfg.RateLimitRPS != 3 {
		t.Errorf("timeout/rps = %v/%d", cfg.SessionTimeout, cfg.RateLimitRPS)
	}
	if cfg.DataPath != "data/data.json" {
		t.Errorf("DataPath = %q, want default", cfg.DataPath)
	}
}

func TestSetupLoggingLevel(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.GlobalLevel())
	saved := log.Logger
	defer func() { log.Logger = saved }()

	setupLogging(true, "warn")
	if zerolog.GlobalLevel() != zerolog.WarnLevel {
		t.Errorf("level = %v, want warn", zerolog.GlobalLevel())
	}
	setupLogging(true, "bogus")
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("production fallback level = %v, want info", zerolog.GlobalLevel())
	}
	setupLogging(false, "")
	if zerolog.GlobalLevel() != zerolog.DebugLevel {
		t.Errorf("development fallback level = %v, want debug", zerolog.GlobalLevel())
	}
}

func TestReqLogFallsBackToGlobal(t *testing.T) {
	if reqLog(context.Background()) != &log.Logger {
		t.Error("reqLog without a request logger should return the global logger")
	}
	if requestID(context.Background()) != "" {
		t.Error("requestID of a bare context should be empty")
	}
}
