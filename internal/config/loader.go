package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies the network preset for any fields still empty,
// and finally applies FLASHD_* environment variable overrides. The returned
// Config has NOT been validated; the caller should invoke Config.Validate().
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env if present (silently ignore if missing).
	_ = godotenv.Load()

	ApplyNetworkPreset(&cfg)
	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known FLASHD_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject addresses and secrets at deploy time without
// touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Network, "FLASHD_NETWORK")
	setStr(&cfg.LogLevel, "FLASHD_LOG_LEVEL")

	setStr(&cfg.Engine.Address, "FLASHD_ENGINE_ADDRESS")
	setStr(&cfg.Engine.Owner, "FLASHD_ENGINE_OWNER")
	setStr(&cfg.Engine.SafetyCap, "FLASHD_ENGINE_SAFETY_CAP")
	setStr(&cfg.Engine.MinProfitThreshold, "FLASHD_ENGINE_MIN_PROFIT_THRESHOLD")

	setStr(&cfg.Facility.Address, "FLASHD_FACILITY_ADDRESS")
	setInt(&cfg.Facility.FeeBps, "FLASHD_FACILITY_FEE_BPS")

	setBool(&cfg.Redis.Enabled, "FLASHD_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "FLASHD_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "FLASHD_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "FLASHD_REDIS_DB")
	setStr(&cfg.Redis.Channel, "FLASHD_REDIS_CHANNEL")

	setBool(&cfg.Server.Enabled, "FLASHD_SERVER_ENABLED")
	setInt(&cfg.Server.Port, "FLASHD_SERVER_PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "FLASHD_SERVER_CORS_ORIGINS")

	setStr(&cfg.Notify.TelegramToken, "FLASHD_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "FLASHD_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "FLASHD_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "FLASHD_NOTIFY_EVENTS")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
