package config

import (
	"os"
	"testing"
)

// Test environment variable keys.
const (
	testEnvPostgresDSN = "POSTGRES_DSN"
	testEnvBotToken    = "BOT_TOKEN"
	testEnvTGAPIID     = "TG_API_ID"
	testEnvTGAPIHash   = "TG_API_HASH"
	testEnvAdminIDs    = "ADMIN_IDS"
)

// Test values.
const (
	testPostgresDSN        = "postgres://localhost/test"
	testBotToken           = "123456:ABC-DEF"
	testTGAPIID            = "12345"
	testTGAPIHash          = "abcdef123456"
	testErrLoad            = "Load() error = %v"
	testDefaultEnv         = "local"
	testDefaultSessionPath = "./tg.session"
)

func setRequiredEnvVars(t *testing.T) {
	t.Helper()

	t.Setenv(testEnvPostgresDSN, testPostgresDSN)
	t.Setenv(testEnvBotToken, testBotToken)
	t.Setenv(testEnvTGAPIID, testTGAPIID)
	t.Setenv(testEnvTGAPIHash, testTGAPIHash)
}

func TestLoad_MissingRequired(t *testing.T) {
	// Clear all required vars
	os.Unsetenv(testEnvPostgresDSN)
	os.Unsetenv(testEnvBotToken)
	os.Unsetenv(testEnvTGAPIID)
	os.Unsetenv(testEnvTGAPIHash)

	_, err := Load()
	if err == nil {
		t.Error("expected error for missing required env vars")
	}
}

func TestLoad_ValidConfig(t *testing.T) {
	setRequiredEnvVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.PostgresDSN != testPostgresDSN {
		t.Errorf("PostgresDSN = %q, want %q", cfg.PostgresDSN, testPostgresDSN)
	}

	if cfg.BotToken != testBotToken {
		t.Errorf("BotToken = %q, want %q", cfg.BotToken, testBotToken)
	}

	if cfg.TGAPIID != 12345 {
		t.Errorf("TGAPIID = %d, want %d", cfg.TGAPIID, 12345)
	}
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnvVars(t)

	// Explicitly unset variables that might be in .env to test actual defaults
	os.Unsetenv("APP_ENV")
	os.Unsetenv("FORWARD_TARGET")
	os.Unsetenv("MIN_TEXT_LENGTH")
	os.Unsetenv("WORKER_COUNT")
	os.Unsetenv("HEALTH_PORT")
	os.Unsetenv("DISCOVERY_ENABLED")
	os.Unsetenv("DISCOVERY_QUERIES")
	os.Unsetenv("TG_SESSION_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if cfg.AppEnv != testDefaultEnv {
		t.Errorf("AppEnv default = %q, want %q", cfg.AppEnv, testDefaultEnv)
	}

	if cfg.ForwardTarget != "me" {
		t.Errorf("ForwardTarget default = %q, want %q", cfg.ForwardTarget, "me")
	}

	if cfg.MinTextLength != 18 {
		t.Errorf("MinTextLength default = %d, want %d", cfg.MinTextLength, 18)
	}

	if cfg.WorkerCount != 4 {
		t.Errorf("WorkerCount default = %d, want %d", cfg.WorkerCount, 4)
	}

	if cfg.HealthPort != 8080 {
		t.Errorf("HealthPort default = %d, want %d", cfg.HealthPort, 8080)
	}

	if !cfg.DiscoveryEnabled {
		t.Error("DiscoveryEnabled should default to true")
	}

	if cfg.DiscoveryQueries == "" {
		t.Error("DiscoveryQueries should fall back to the built-in list")
	}

	if cfg.TGSessionPath != testDefaultSessionPath {
		t.Errorf("TGSessionPath default = %q, want %q", cfg.TGSessionPath, testDefaultSessionPath)
	}
}

func TestLoad_AdminIDs(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv(testEnvAdminIDs, "111,222,333")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	if len(cfg.AdminIDs) != 3 {
		t.Fatalf("AdminIDs length = %d, want %d", len(cfg.AdminIDs), 3)
	}

	expected := []int64{111, 222, 333}
	for i, want := range expected {
		if cfg.AdminIDs[i] != want {
			t.Errorf("AdminIDs[%d] = %d, want %d", i, cfg.AdminIDs[i], want)
		}
	}

	if !cfg.IsAdmin(222) {
		t.Error("IsAdmin(222) = false, want true")
	}

	if cfg.IsAdmin(444) {
		t.Error("IsAdmin(444) = true, want false")
	}
}

func TestLoad_InvalidNumeric(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("TG_API_ID", "not-a-number")

	_, err := Load()
	if err == nil {
		t.Error("expected error for invalid TG_API_ID")
	}
}

func TestLoad_InvertedDelays(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("MIN_HUMAN_DELAY_SEC", "5.0")
	t.Setenv("MAX_HUMAN_DELAY_SEC", "1.0")

	_, err := Load()
	if err == nil {
		t.Error("expected error when max delay is below min delay")
	}
}

func TestInitialRuntime(t *testing.T) {
	setRequiredEnvVars(t)
	t.Setenv("DISCOVERY_QUERIES", "taxi toshkent, taxi andijon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf(testErrLoad, err)
	}

	snap, err := cfg.InitialRuntime()
	if err != nil {
		t.Fatalf("InitialRuntime() error = %v", err)
	}

	if snap.MinTextLength != cfg.MinTextLength {
		t.Errorf("MinTextLength = %d, want %d", snap.MinTextLength, cfg.MinTextLength)
	}

	if len(snap.DiscoveryQueries) != 2 {
		t.Fatalf("DiscoveryQueries length = %d, want 2", len(snap.DiscoveryQueries))
	}

	if snap.DiscoveryQueries[1] != "taxi andijon" {
		t.Errorf("DiscoveryQueries[1] = %q, want %q", snap.DiscoveryQueries[1], "taxi andijon")
	}
}
