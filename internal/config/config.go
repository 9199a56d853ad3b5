package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ListenPort      string        // ex: ":8080"
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DataSource     string        // "admin-ajax" | "fixtures"
	DataURL        string        // admin-ajax endpoint (required for admin-ajax)
	DataNonce      string        // admin-ajax nonce (required for admin-ajax)
	DataMapID      int           // map id posted to the endpoint (required for admin-ajax)
	FixtureDays    int           // days of demo availability (fixtures source)
	SettingsFile   string        // path to the settings yaml (optional, empty = built-in defaults)
	ReloadInterval time.Duration // interval between data reloads (default: 1h)

	IconCacheEntries int           // max cached marker images (default: 256)
	IconCacheTTL     time.Duration // lifetime of a cached marker image (default: 1h)

	PoiDebounce time.Duration // quiet period before poi updates apply (0 = immediate)

	// Redis (optional, empty addr = no snapshot persistence)
	RedisAddr           string
	RedisUser           string
	RedisPassword       string
	RedisDB             int
	RedisDT             time.Duration // dial timeout
	RedisRT             time.Duration // read timeout
	RedisWT             time.Duration // write timeout
	RedisMaxWait        time.Duration // max wait between retries
	RedisPingTimeout    time.Duration // timeout for each ping attempt
	RedisPoolSize       int
	RedisConnectTimeout time.Duration // total time to retry connecting
	RedisRetryInterval  time.Duration // initial wait between retries, grows exponentially

	AdminCIDRS []string // restrict the admin routes to these IPs/CIDRs
	TrustProxy bool     // true => trust X-Forwarded-For headers
}

const (
	SourceAdminAjax = "admin-ajax"
	SourceFixtures  = "fixtures"
)

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("CBMAP_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("CBMAP_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("CBMAP_LOG_LEVEL", "info"),
		PrettyLog: mustBool("CBMAP_PRETTY_LOG", true),

		// Data pipeline
		DataSource:     getenv("CBMAP_DATA_SOURCE", SourceFixtures),
		DataURL:        getenv("CBMAP_DATA_URL", ""),
		DataNonce:      getenv("CBMAP_DATA_NONCE", ""),
		DataMapID:      getenvInt("CBMAP_DATA_MAP_ID", 0),
		FixtureDays:    getenvInt("CBMAP_FIXTURE_DAYS", 14),
		SettingsFile:   getenv("CBMAP_SETTINGS_FILE", ""),
		ReloadInterval: mustDuration("CBMAP_RELOAD_INTERVAL", time.Hour),

		IconCacheEntries: getenvInt("CBMAP_ICON_CACHE_ENTRIES", 256),
		IconCacheTTL:     mustDuration("CBMAP_ICON_CACHE_TTL", time.Hour),

		PoiDebounce: mustDuration("CBMAP_POI_DEBOUNCE", 500*time.Millisecond),

		// Redis settings (optional)
		RedisAddr:           getenv("CBMAP_REDIS_ADDR", ""),
		RedisUser:           getenv("CBMAP_REDIS_USERNAME", "default"),
		RedisPassword:       getenv("CBMAP_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("CBMAP_REDIS_DB", 0),
		RedisDT:             mustDuration("CBMAP_REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("CBMAP_REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("CBMAP_REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("CBMAP_REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("CBMAP_REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("CBMAP_REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("CBMAP_REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("CBMAP_REDIS_RETRY_INTERVAL", 2*time.Second),

		// Access restrictions
		AdminCIDRS: splitAndTrim(getenv("CBMAP_ADMIN_CIDRS", "")),
		TrustProxy: mustBool("CBMAP_TRUST_PROXY", false),
	}

	switch cfg.DataSource {
	case SourceFixtures:
		// nothing required
	case SourceAdminAjax:
		if cfg.DataURL == "" || cfg.DataNonce == "" || cfg.DataMapID <= 0 {
			panic("FATAL: CBMAP_DATA_URL, CBMAP_DATA_NONCE and a positive CBMAP_DATA_MAP_ID are required when CBMAP_DATA_SOURCE=admin-ajax")
		}
	default:
		panic(fmt.Sprintf("FATAL: Unknown CBMAP_DATA_SOURCE %q (expected %q or %q)",
			cfg.DataSource, SourceAdminAjax, SourceFixtures))
	}

	return cfg
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
