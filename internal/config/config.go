package config

import (
	"sync"
)

// Config is the runtime configuration for the AddonsHub service, loaded
// from a YAML or JSON file with environment overrides applied on top.
type Config struct {
	// Server settings
	Port     int    `yaml:"port" json:"port"`
	BasePath string `yaml:"base_path" json:"base_path"`
	Debug    bool   `yaml:"debug" json:"debug"`
	LogFile  string `yaml:"log_file" json:"log_file"`

	// Admin settings
	ManagementKey     string `yaml:"management_key" json:"management_key"`
	ManagementKeyHash string `yaml:"management_key_hash" json:"management_key_hash"`
	AdminHomeURL      string `yaml:"admin_home_url" json:"admin_home_url"`
	DefaultLocale     string `yaml:"default_locale" json:"default_locale"`
	LocalesDir        string `yaml:"locales_dir" json:"locales_dir"`

	// Marketplace (Addons) settings
	AddonsEndpoint           string `yaml:"addons_endpoint" json:"addons_endpoint"`
	ProxyURL                 string `yaml:"proxy_url" json:"proxy_url"`
	ShopURL                  string `yaml:"shop_url" json:"shop_url"`
	PlatformVersion          string `yaml:"platform_version" json:"platform_version"`
	DialTimeoutSec           int    `yaml:"dial_timeout_sec" json:"dial_timeout_sec"`
	TLSHandshakeTimeoutSec   int    `yaml:"tls_handshake_timeout_sec" json:"tls_handshake_timeout_sec"`
	ResponseHeaderTimeoutSec int    `yaml:"response_header_timeout_sec" json:"response_header_timeout_sec"`
	RequestTimeoutSec        int    `yaml:"request_timeout_sec" json:"request_timeout_sec"`
	RetryMax                 int    `yaml:"retry_max" json:"retry_max"`
	RetryIntervalSec         int    `yaml:"retry_interval_sec" json:"retry_interval_sec"`
	RetryMaxIntervalSec      int    `yaml:"retry_max_interval_sec" json:"retry_max_interval_sec"`
	RetryOn5xx               bool   `yaml:"retry_on_5xx" json:"retry_on_5xx"`
	RetryOnNetworkError      bool   `yaml:"retry_on_network_error" json:"retry_on_network_error"`

	// Credential persistence settings
	CookieKey          string `yaml:"cookie_key" json:"cookie_key"`
	CookieLifetimeDays int    `yaml:"cookie_lifetime_days" json:"cookie_lifetime_days"`
	SessionTTLHours    int    `yaml:"session_ttl_hours" json:"session_ttl_hours"`

	// Redis (session store + marketplace list cache)
	RedisAddr     string `yaml:"redis_addr" json:"redis_addr"`
	RedisPassword string `yaml:"redis_password" json:"redis_password"`
	RedisDB       int    `yaml:"redis_db" json:"redis_db"`
	RedisPrefix   string `yaml:"redis_prefix" json:"redis_prefix"`

	// Module catalog
	PostgresDSN       string `yaml:"postgres_dsn" json:"postgres_dsn"`
	ModulesDir        string `yaml:"modules_dir" json:"modules_dir"`
	ModuleCacheTTLMin int    `yaml:"module_cache_ttl_min" json:"module_cache_ttl_min"`

	// Rate limiting
	RateLimitRPS   int `yaml:"rate_limit_rps" json:"rate_limit_rps"`
	RateLimitBurst int `yaml:"rate_limit_burst" json:"rate_limit_burst"`
}

var (
	globalMu      sync.RWMutex
	globalManager *Manager
)

// LoadWithFile initializes the global config manager from the given path.
// A missing or empty path yields a defaults-only configuration.
func LoadWithFile(path string) *Config {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalManager = NewManager(path)
	return globalManager.Get()
}

// Load returns the current global configuration, initializing defaults if
// LoadWithFile has not been called.
func Load() *Config {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalManager == nil {
		globalManager = NewManager("")
	}
	return globalManager.Get()
}

// GetManager returns the global config manager, or nil before LoadWithFile.
func GetManager() *Manager {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalManager
}
