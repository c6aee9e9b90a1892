package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all tweakable process parameters. Values are loaded from
// environment variables or set to sensible defaults, in the teacher's
// Load()-plus-getEnv*-helpers idiom.
type Config struct {
	StoreLocation    string // Environment: PSM_STORE_LOCATION
	LogLevel         string // Environment: PSM_LOG_LEVEL
	MaxLogSizeMB     int64  // Environment: PSM_MAX_LOG_SIZE_MB
	MaxLogBackups    int    // Environment: PSM_MAX_LOG_BACKUPS
	CronSchedule     string // Environment: PSM_CRON_SCHEDULE
	HTTPTimeoutSec   int    // Environment: PSM_HTTP_TIMEOUT_SEC
	TelegramBotToken string // Environment: TELEGRAM_BOT_TOKEN
	TelegramChatID   string // Environment: TELEGRAM_CHAT_ID
}

// Load initializes the configuration: it reads .env, checks required
// secrets, and populates the Config struct, grounded on the teacher's
// internal/config/config.go Load().
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: No .env file found, using system environment variables")
	}

	requiredSecretVars := map[string]bool{
		"TELEGRAM_BOT_TOKEN": true,
		"TELEGRAM_CHAT_ID":   true,
	}

	var missing []string
	for key := range requiredSecretVars {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		log.Printf("Warning: missing Telegram credentials %v, notifications will be skipped", missing)
	}

	envMap, err := godotenv.Read()
	if err == nil {
		log.Println("--- .env File Variables ---")
		for key, val := range envMap {
			if requiredSecretVars[key] {
				masked := "***"
				if len(val) > 4 {
					masked = "***" + val[len(val)-4:]
				}
				log.Printf("%s=%s", key, masked)
			} else {
				log.Printf("%s=%s", key, val)
			}
		}
		log.Println("---------------------------")
	}

	cfg := &Config{
		StoreLocation:    getEnv("PSM_STORE_LOCATION", "psm_store.json"),
		LogLevel:         getEnv("PSM_LOG_LEVEL", "INFO"),
		MaxLogSizeMB:     getEnvAsInt64("PSM_MAX_LOG_SIZE_MB", 5),
		MaxLogBackups:    getEnvAsInt("PSM_MAX_LOG_BACKUPS", 3),
		CronSchedule:     getEnv("PSM_CRON_SCHEDULE", "0 22 * * 1-5"),
		HTTPTimeoutSec:   getEnvAsInt("PSM_HTTP_TIMEOUT_SEC", 20),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
	}

	log.Printf("Configuration loaded: store=%s, logLevel=%s, cron=%q",
		cfg.StoreLocation, cfg.LogLevel, cfg.CronSchedule)

	return cfg
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return parseInt(valueStr, fallback)
}

func getEnvAsInt64(key string, fallback int64) int64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return parseInt64(valueStr, fallback)
}

func parseInt(s string, fallback int) int {
	val, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Warning: invalid int for config %s, using default %d", s, fallback)
		return fallback
	}
	return val
}

func parseInt64(s string, fallback int64) int64 {
	val, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid int64 for config %s, using default %d", s, fallback)
		return fallback
	}
	return val
}
