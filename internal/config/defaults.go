package config

// applyDefaults fills zero-valued fields with service defaults. It runs
// after file parsing and before env overrides, so both can win over it.
func applyDefaults(cfg *Config) {
	if cfg.Port == 0 {
		cfg.Port = 8317
	}
	if cfg.AdminHomeURL == "" {
		cfg.AdminHomeURL = "/admin"
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = "en"
	}
	if cfg.AddonsEndpoint == "" {
		cfg.AddonsEndpoint = "https://api-addons.example.com"
	}
	if cfg.RequestTimeoutSec == 0 {
		cfg.RequestTimeoutSec = 60
	}
	if cfg.RetryMax == 0 {
		cfg.RetryMax = 3
	}
	if cfg.RetryIntervalSec == 0 {
		cfg.RetryIntervalSec = 1
	}
	if cfg.RetryMaxIntervalSec == 0 {
		cfg.RetryMaxIntervalSec = 30
	}
	if cfg.CookieLifetimeDays == 0 {
		cfg.CookieLifetimeDays = 30
	}
	if cfg.SessionTTLHours == 0 {
		cfg.SessionTTLHours = 24
	}
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = "addonshub:"
	}
	if cfg.ModuleCacheTTLMin == 0 {
		cfg.ModuleCacheTTLMin = 60
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 10
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 20
	}
}
