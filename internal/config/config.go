package config

import (
	"fmt"
	"log"
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

	// Caddy admin API
	CaddyAdminURL  string        // ex: "http://127.0.0.1:2019"
	CaddyServer    string        // apps.http.servers key routes are appended to (ex: "srv0")
	CaddyTLSPolicy int           // apps.tls.automation.policies index subjects are appended to
	CaddyTimeout   time.Duration // per admin request

	// Declared routes
	RoutesFile     string        // path to routes.yaml (optional, empty = file source disabled)
	ReloadInterval time.Duration // interval to re-apply routes.yaml (default: 5m)

	// Redis ledger (optional, empty addr = in-memory only)
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
	RedisWarnThreshold  int           // warn after this many attempts

	AllowedCIDRS []string // optional, restrict the control API to these IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers
}

// LedgerEnabled reports whether routes are persisted to Redis.
func (c *Config) LedgerEnabled() bool { return c.RedisAddr != "" }

func Load() *Config {
	cfg := &Config{
		// Server settings
		ListenPort:      getenv("PORTAL_LISTEN_PORT", ":8080"),
		ShutdownTimeout: mustDuration("PORTAL_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("PORTAL_LOG_LEVEL", "info"),
		PrettyLog: mustBool("PORTAL_PRETTY_LOG", true),

		// Caddy
		CaddyAdminURL:  requireURL("PORTAL_CADDY_ADMIN_URL", "http://127.0.0.1:2019"),
		CaddyServer:    getenv("PORTAL_CADDY_SERVER", "srv0"),
		CaddyTLSPolicy: getenvInt("PORTAL_CADDY_TLS_POLICY", 0),
		CaddyTimeout:   mustDuration("PORTAL_CADDY_TIMEOUT", 10*time.Second),

		// Routes file
		RoutesFile:     getenv("PORTAL_ROUTES_FILE", ""),
		ReloadInterval: mustDuration("PORTAL_RELOAD_INTERVAL", 5*time.Minute),

		// Redis settings
		RedisAddr:           getenv("PORTAL_REDIS_ADDR", ""),
		RedisUser:           getenv("PORTAL_REDIS_USERNAME", ""),
		RedisPassword:       getenv("PORTAL_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("PORTAL_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 10*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 5*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 30*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", 2*time.Second),
		RedisWarnThreshold:  getenvInt("REDIS_WARN_THRESHOLD", 3),

		// Access restrictions
		AllowedCIDRS: splitAndTrim(getenv("PORTAL_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("PORTAL_TRUST_PROXY", false),
	}

	if cfg.CaddyTLSPolicy < 0 {
		panic(fmt.Sprintf("❌ FATAL: PORTAL_CADDY_TLS_POLICY must be >= 0, got %d", cfg.CaddyTLSPolicy))
	}
	if cfg.RoutesFile != "" && cfg.ReloadInterval <= 0 {
		panic("❌ FATAL: PORTAL_RELOAD_INTERVAL must be > 0 when PORTAL_ROUTES_FILE is set")
	}

	// Log config only in debug mode with redacted sensitive fields
	if cfg.LogLevel == "debug" {
		cfgCopy := *cfg
		if cfgCopy.RedisPassword != "" {
			cfgCopy.RedisPassword = "***REDACTED***"
		}
		log.Printf("[DEBUG] cfg: %+v\n", cfgCopy)
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

// requireURL returns the env value (or def) and panics unless it is an
// absolute http(s) URL.
func requireURL(key, def string) string {
	v := getenv(key, def)
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		panic(fmt.Sprintf("❌ FATAL: %s must be an http(s) URL, got %q", key, v))
	}
	return strings.TrimRight(v, "/")
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
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
