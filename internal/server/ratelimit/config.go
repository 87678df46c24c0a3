package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by LoadConfig.
const (
	EnvEnabled         = "RATE_LIMIT_ENABLED"
	EnvDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	EnvDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	EnvCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	EnvWhitelist       = "RATE_LIMIT_WHITELIST"
	EnvBlacklist       = "RATE_LIMIT_BLACKLIST"
	EnvAssistPerHour   = "RATE_LIMIT_ASSIST_PER_HOUR"
	EnvPDFPerHour      = "RATE_LIMIT_PDF_PER_HOUR"
	EnvSessionsPerHour = "RATE_LIMIT_SESSIONS_PER_HOUR"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // path.Match pattern, or a prefix when it ends in "/"
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// hourlyLimits are the per-hour budgets of the limited endpoint groups.
type hourlyLimits struct {
	assist   int
	pdf      int
	sessions int
}

var defaultHourlyLimits = hourlyLimits{assist: 30, pdf: 20, sessions: 60}

// LoadConfig loads rate limiting configuration from environment variables.
// Unset or unparsable variables keep their defaults.
func LoadConfig() *Config {
	if !envOr(EnvEnabled, true, strconv.ParseBool) {
		return &Config{Enabled: false}
	}

	limits := hourlyLimits{
		assist:   envOr(EnvAssistPerHour, defaultHourlyLimits.assist, strconv.Atoi),
		pdf:      envOr(EnvPDFPerHour, defaultHourlyLimits.pdf, strconv.Atoi),
		sessions: envOr(EnvSessionsPerHour, defaultHourlyLimits.sessions, strconv.Atoi),
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    envOr(EnvDefaultLimit, 1000, strconv.Atoi),
		DefaultWindow:   envOr(EnvDefaultWindow, time.Minute, time.ParseDuration),
		CleanupInterval: envOr(EnvCleanupInterval, 5*time.Minute, time.ParseDuration),
		Whitelist:       parseIPList(os.Getenv(EnvWhitelist)),
		Blacklist:       parseIPList(os.Getenv(EnvBlacklist)),
		EndpointConfigs: limits.endpoints(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return defaultHourlyLimits.endpoints()
}

func (l hourlyLimits) endpoints() []EndpointConfig {
	assistBurst := max(1, l.assist/6)
	return []EndpointConfig{
		// Tier 1: generation calls reach a paid upstream API
		{Path: "/sessions/*/assist/*", Method: "POST", Limit: l.assist, Window: time.Hour, Burst: assistBurst},
		{Path: "/sessions/*/assist/experience/*/polish", Method: "POST", Limit: l.assist, Window: time.Hour, Burst: assistBurst},
		{Path: "/sessions/*/resume.pdf", Method: "GET", Limit: l.pdf, Window: time.Hour, Burst: max(1, l.pdf/10)},

		// Tier 2: session creation
		{Path: "/sessions", Method: "POST", Limit: l.sessions, Window: time.Hour, Burst: max(1, l.sessions/6)},
		{Path: "/", Method: "GET", Limit: l.sessions, Window: time.Hour, Burst: max(1, l.sessions/6)},

		// Tier 3: edits (one request per keystroke) and reads use the default limit
		// Tier 4: health check and event streams are unlimited, see MatchEndpoint
	}
}

// envOr parses the environment variable key, returning def when it is unset or invalid.
func envOr[T any](key string, def T, parse func(string) (T, error)) T {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := parse(value)
	if err != nil {
		return def
	}
	return parsed
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
