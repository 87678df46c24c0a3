package ratelimit

import (
	"net/http"
	"path"
	"strings"
)

// unlimitedEndpoint is returned for requests that are never rate limited.
var unlimitedEndpoint = EndpointConfig{}

// isUnlimited reports whether a request bypasses rate limiting: the health check and the
// long-lived event streams.
func isUnlimited(reqPath, method string) bool {
	return method == http.MethodGet && (reqPath == "/health" || strings.HasSuffix(reqPath, "/events"))
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Config paths are path.Match patterns ("/sessions/*/assist/*"); a pattern ending in "/"
// also matches every path below it. Exact and pattern matches win over prefix matches.
// Returns nil when no configuration applies.
func MatchEndpoint(reqPath string, method string, configs []EndpointConfig) *EndpointConfig {
	if isUnlimited(reqPath, method) {
		unlimited := unlimitedEndpoint
		return &unlimited
	}

	var prefix *EndpointConfig
	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if config.Path == reqPath {
			return config
		}
		if ok, err := path.Match(config.Path, reqPath); err == nil && ok {
			return config
		}
		if prefix == nil && len(config.Path) > 1 && strings.HasSuffix(config.Path, "/") && strings.HasPrefix(reqPath, config.Path) {
			prefix = config
		}
	}

	return prefix
}
