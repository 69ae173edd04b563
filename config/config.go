package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Browser   BrowserConfig
	Scraper   ScraperConfig
	Store     StoreConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Webhook   WebhookConfig
	Log       LogConfig
}

// ServerConfig controls the HTTP server.
type ServerConfig struct {
	Host string // default: "0.0.0.0"
	Port int    // default: 8080
	Mode string // "debug", "release", "test"; default: "release"
}

// BrowserConfig controls the headless browser session.
type BrowserConfig struct {
	// Headless controls whether the browser runs headless.
	Headless bool // default: true

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: true

	// WindowW and WindowH set the viewport size.
	WindowW int // default: 1920
	WindowH int // default: 1080

	// UserAgent is the identity string presented to the target.
	UserAgent string

	// BrowserBin overrides the Chromium binary path. Empty means the rod
	// launcher resolves (or downloads) a compatible binary itself.
	BrowserBin string
}

// ScraperConfig controls the search-and-scroll interaction.
type ScraperConfig struct {
	// EntryURL is the fixed entry point of the map-search interface.
	EntryURL string // default: "https://www.google.com/maps"

	// WaitTimeout bounds every individual DOM-presence wait.
	WaitTimeout time.Duration // default: 10s

	// MaxTimeout is the hard deadline for one whole scrape invocation.
	MaxTimeout time.Duration // default: 180s

	// ScrollCount is how many times the results feed is scrolled.
	ScrollCount int // default: 3

	// MaxResults is the default result cap per scrape.
	MaxResults int // default: 20

	// PreWaitMin/PreWaitMax bound the jittered pause before interacting
	// with a freshly navigated page.
	PreWaitMin time.Duration // default: 2s
	PreWaitMax time.Duration // default: 4s

	// ScrollWaitMin/ScrollWaitMax bound the jittered pause between scrolls,
	// giving asynchronous content time to load.
	ScrollWaitMin time.Duration // default: 2s
	ScrollWaitMax time.Duration // default: 5s
}

// StoreConfig controls lead persistence.
type StoreConfig struct {
	// DatabaseURL is the Postgres connection string.
	DatabaseURL string // default: "postgres://localhost:5432/leadscout"
}

// AuthConfig controls API key authentication.
type AuthConfig struct {
	// Enabled toggles API key authentication.
	Enabled bool // default: true

	// APIKeys is the list of valid API keys.
	APIKeys []string
}

// RateLimitConfig controls per-key rate limiting.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per API key. Scrapes hold a
	// browser for tens of seconds, so the default is deliberately low.
	RequestsPerSecond float64 // default: 1

	// Burst is the maximum burst size per API key.
	Burst int // default: 3
}

// CacheConfig controls the query-result cache.
type CacheConfig struct {
	// MaxEntries is the maximum number of cached results.
	MaxEntries int // default: 500
}

// WebhookConfig controls scrape.completed notifications.
type WebhookConfig struct {
	// URL is the endpoint notified after each scrape. Empty disables it.
	URL string

	// Secret signs the payload with HMAC-SHA256 when non-empty.
	Secret string
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "json"
}

// defaultUserAgent matches a mainstream desktop Chrome build; headless
// Chrome's own UA advertises automation.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/96.0.4664.110 Safari/537.36"

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host: envOr("LEADSCOUT_HOST", "0.0.0.0"),
			Port: envIntOr("LEADSCOUT_PORT", 8080),
			Mode: envOr("LEADSCOUT_MODE", "release"),
		},
		Browser: BrowserConfig{
			Headless:   envBoolOr("LEADSCOUT_HEADLESS", true),
			NoSandbox:  envBoolOr("LEADSCOUT_NO_SANDBOX", true),
			WindowW:    envIntOr("LEADSCOUT_WINDOW_W", 1920),
			WindowH:    envIntOr("LEADSCOUT_WINDOW_H", 1080),
			UserAgent:  envOr("LEADSCOUT_USER_AGENT", defaultUserAgent),
			BrowserBin: os.Getenv("LEADSCOUT_BROWSER_BIN"),
		},
		Scraper: ScraperConfig{
			EntryURL:      envOr("LEADSCOUT_ENTRY_URL", "https://www.google.com/maps"),
			WaitTimeout:   envDurationOr("LEADSCOUT_WAIT_TIMEOUT", 10*time.Second),
			MaxTimeout:    envDurationOr("LEADSCOUT_MAX_TIMEOUT", 180*time.Second),
			ScrollCount:   envIntOr("LEADSCOUT_SCROLL_COUNT", 3),
			MaxResults:    envIntOr("LEADSCOUT_MAX_RESULTS", 20),
			PreWaitMin:    envDurationOr("LEADSCOUT_PRE_WAIT_MIN", 2*time.Second),
			PreWaitMax:    envDurationOr("LEADSCOUT_PRE_WAIT_MAX", 4*time.Second),
			ScrollWaitMin: envDurationOr("LEADSCOUT_SCROLL_WAIT_MIN", 2*time.Second),
			ScrollWaitMax: envDurationOr("LEADSCOUT_SCROLL_WAIT_MAX", 5*time.Second),
		},
		Store: StoreConfig{
			DatabaseURL: envOr("LEADSCOUT_DATABASE_URL", "postgres://localhost:5432/leadscout"),
		},
		Auth: AuthConfig{
			Enabled: envBoolOr("LEADSCOUT_AUTH_ENABLED", true),
			APIKeys: envSliceOr("LEADSCOUT_API_KEYS", nil),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: envFloatOr("LEADSCOUT_RATE_RPS", 1.0),
			Burst:             envIntOr("LEADSCOUT_RATE_BURST", 3),
		},
		Cache: CacheConfig{
			MaxEntries: envIntOr("LEADSCOUT_CACHE_MAX_ENTRIES", 500),
		},
		Webhook: WebhookConfig{
			URL:    os.Getenv("LEADSCOUT_WEBHOOK_URL"),
			Secret: os.Getenv("LEADSCOUT_WEBHOOK_SECRET"),
		},
		Log: LogConfig{
			Level:  envOr("LEADSCOUT_LOG_LEVEL", "info"),
			Format: envOr("LEADSCOUT_LOG_FORMAT", "json"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envFloatOr(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envSliceOr(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return fallback
}
