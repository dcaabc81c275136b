package config

import (
	"os"
	"strconv"
	"strings"
)

// applyEnvOverrides layers ADDONSHUB_* environment variables over the file
// configuration. Env always wins; this is the container deployment path.
func applyEnvOverrides(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				*dst = n
			}
		}
	}
	setBool := func(key string, dst *bool) {
		if v, ok := os.LookupEnv(key); ok {
			if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
				*dst = b
			}
		}
	}

	setInt("ADDONSHUB_PORT", &cfg.Port)
	setString("ADDONSHUB_BASE_PATH", &cfg.BasePath)
	setBool("ADDONSHUB_DEBUG", &cfg.Debug)
	setString("ADDONSHUB_LOG_FILE", &cfg.LogFile)

	setString("ADDONSHUB_MANAGEMENT_KEY", &cfg.ManagementKey)
	setString("ADDONSHUB_MANAGEMENT_KEY_HASH", &cfg.ManagementKeyHash)
	setString("ADDONSHUB_ADMIN_HOME_URL", &cfg.AdminHomeURL)
	setString("ADDONSHUB_DEFAULT_LOCALE", &cfg.DefaultLocale)
	setString("ADDONSHUB_LOCALES_DIR", &cfg.LocalesDir)

	setString("ADDONSHUB_ADDONS_ENDPOINT", &cfg.AddonsEndpoint)
	setString("ADDONSHUB_PROXY_URL", &cfg.ProxyURL)
	setString("ADDONSHUB_SHOP_URL", &cfg.ShopURL)
	setString("ADDONSHUB_PLATFORM_VERSION", &cfg.PlatformVersion)
	setInt("ADDONSHUB_REQUEST_TIMEOUT_SEC", &cfg.RequestTimeoutSec)
	setInt("ADDONSHUB_RETRY_MAX", &cfg.RetryMax)
	setBool("ADDONSHUB_RETRY_ON_5XX", &cfg.RetryOn5xx)
	setBool("ADDONSHUB_RETRY_ON_NETWORK_ERROR", &cfg.RetryOnNetworkError)

	setString("ADDONSHUB_COOKIE_KEY", &cfg.CookieKey)
	setInt("ADDONSHUB_COOKIE_LIFETIME_DAYS", &cfg.CookieLifetimeDays)
	setInt("ADDONSHUB_SESSION_TTL_HOURS", &cfg.SessionTTLHours)

	setString("ADDONSHUB_REDIS_ADDR", &cfg.RedisAddr)
	setString("ADDONSHUB_REDIS_PASSWORD", &cfg.RedisPassword)
	setInt("ADDONSHUB_REDIS_DB", &cfg.RedisDB)
	setString("ADDONSHUB_REDIS_PREFIX", &cfg.RedisPrefix)

	setString("ADDONSHUB_POSTGRES_DSN", &cfg.PostgresDSN)
	setString("ADDONSHUB_MODULES_DIR", &cfg.ModulesDir)
	setInt("ADDONSHUB_MODULE_CACHE_TTL_MIN", &cfg.ModuleCacheTTLMin)

	setInt("ADDONSHUB_RATE_LIMIT_RPS", &cfg.RateLimitRPS)
	setInt("ADDONSHUB_RATE_LIMIT_BURST", &cfg.RateLimitBurst)
}
