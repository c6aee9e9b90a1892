package config

import (
	"os"
	"testing"
)

func unsetPSMEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"PSM_STORE_LOCATION", "PSM_LOG_LEVEL", "PSM_MAX_LOG_SIZE_MB",
		"PSM_MAX_LOG_BACKUPS", "PSM_CRON_SCHEDULE", "PSM_HTTP_TIMEOUT_SEC",
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID",
	}
	for _, k := range keys {
		os.Unsetenv(k)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	unsetPSMEnv(t)

	cfg := Load()

	if cfg.StoreLocation != "psm_store.json" {
		t.Errorf("StoreLocation = %q, want psm_store.json", cfg.StoreLocation)
	}
	if cfg.LogLevel != "INFO" {
		t.Errorf("LogLevel = %q, want INFO", cfg.LogLevel)
	}
	if cfg.MaxLogSizeMB != 5 {
		t.Errorf("MaxLogSizeMB = %d, want 5", cfg.MaxLogSizeMB)
	}
	if cfg.MaxLogBackups != 3 {
		t.Errorf("MaxLogBackups = %d, want 3", cfg.MaxLogBackups)
	}
	if cfg.CronSchedule != "0 22 * * 1-5" {
		t.Errorf("CronSchedule = %q, want 0 22 * * 1-5", cfg.CronSchedule)
	}
	if cfg.HTTPTimeoutSec != 20 {
		t.Errorf("HTTPTimeoutSec = %d, want 20", cfg.HTTPTimeoutSec)
	}
	if cfg.TelegramBotToken != "" || cfg.TelegramChatID != "" {
		t.Errorf("expected empty Telegram credentials when unset, got %q/%q", cfg.TelegramBotToken, cfg.TelegramChatID)
	}
}

func TestLoadConfig_OverridesFromEnv(t *testing.T) {
	unsetPSMEnv(t)
	defer unsetPSMEnv(t)

	os.Setenv("PSM_STORE_LOCATION", "/tmp/custom_store.json")
	os.Setenv("PSM_LOG_LEVEL", "DEBUG")
	os.Setenv("PSM_MAX_LOG_SIZE_MB", "20")
	os.Setenv("PSM_HTTP_TIMEOUT_SEC", "45")
	os.Setenv("TELEGRAM_BOT_TOKEN", "test-token")
	os.Setenv("TELEGRAM_CHAT_ID", "12345")

	cfg := Load()

	if cfg.StoreLocation != "/tmp/custom_store.json" {
		t.Errorf("StoreLocation = %q, want /tmp/custom_store.json", cfg.StoreLocation)
	}
	if cfg.LogLevel != "DEBUG" {
		t.Errorf("LogLevel = %q, want DEBUG", cfg.LogLevel)
	}
	if cfg.MaxLogSizeMB != 20 {
		t.Errorf("MaxLogSizeMB = %d, want 20", cfg.MaxLogSizeMB)
	}
	if cfg.HTTPTimeoutSec != 45 {
		t.Errorf("HTTPTimeoutSec = %d, want 45", cfg.HTTPTimeoutSec)
	}
	if cfg.TelegramBotToken != "test-token" || cfg.TelegramChatID != "12345" {
		t.Errorf("Telegram credentials = %q/%q, want test-token/12345", cfg.TelegramBotToken, cfg.TelegramChatID)
	}
}

func TestParseInt_FallsBackOnInvalidValue(t *testing.T) {
	if got := parseInt("not-a-number", 42); got != 42 {
		t.Errorf("parseInt = %d, want fallback 42", got)
	}
	if got := parseInt("7", 42); got != 7 {
		t.Errorf("parseInt = %d, want 7", got)
	}
}
