package openrouter

import (
	"fmt"
	"net/url"
	"strings"
)

const defaultBaseURL = "https://openrouter.ai"

var defaultAllowedHosts = map[string]struct{}{
	"openrouter.ai":     {},
	"api.openrouter.ai": {},
}

func normalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return strings.TrimRight(baseURL, "/")
}

// ValidateBaseURL rejects base URLs that could leak the bearer token to an
// unexpected host: https only, no userinfo, no query or fragment, host on
// the allow list.
func ValidateBaseURL(baseURL string, allowedHosts []string) error {
	baseURL = normalizeBaseURL(baseURL)

	u, err := url.Parse(baseURL)
	if err != nil {
		return fmt.Errorf("invalid openrouter base URL: %w", err)
	}
	if !u.IsAbs() || u.Hostname() == "" {
		return fmt.Errorf("invalid openrouter base URL %q: absolute URL with host is required", baseURL)
	}
	if u.User != nil || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid openrouter base URL %q: userinfo, query and fragment are not allowed", baseURL)
	}
	if strings.ToLower(u.Scheme) != "https" {
		return fmt.Errorf("invalid openrouter base URL %q: https is required", baseURL)
	}

	host := strings.ToLower(u.Hostname())
	allowed := defaultAllowedHosts
	if len(allowedHosts) > 0 {
		allowed = make(map[string]struct{}, len(allowedHosts))
		for _, h := range allowedHosts {
			v := strings.ToLower(strings.TrimSpace(h))
			v = strings.TrimPrefix(v, "https://")
			v = strings.TrimPrefix(v, "http://")
			v = strings.Trim(v, "/")
			if i := strings.Index(v, ":"); i >= 0 {
				v = v[:i]
			}
			if v != "" {
				allowed[v] = struct{}{}
			}
		}
		if len(allowed) == 0 {
			allowed = defaultAllowedHosts
		}
	}
	if _, ok := allowed[host]; !ok {
		return fmt.Errorf("invalid openrouter base URL %q: host %q is not allowed", baseURL, host)
	}
	return nil
}
