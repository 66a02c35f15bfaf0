package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate reports misconfigurations as warnings. Settings are never fatal at
// load time so commands like doctor and login still run against a broken file.
func Validate(cfg Settings) []Warning {
	var warnings []Warning

	for name, raw := range map[string]string{
		"endpoint":            cfg.Endpoint,
		"auth_start_endpoint": cfg.AuthStartEndpoint,
		"auth_poll_endpoint":  cfg.AuthPollEndpoint,
	} {
		if msg := checkEndpoint(name, raw); msg != "" {
			warnings = append(warnings, Warning{Message: msg})
		}
	}

	method := strings.ToLower(strings.TrimSpace(cfg.SendMethod))
	if method != "post" && method != "get" {
		warnings = append(warnings, Warning{
			Message: fmt.Sprintf("send_method must be post or get, got %q; using post", cfg.SendMethod),
		})
	}

	if strings.TrimSpace(cfg.Language) == "" {
		warnings = append(warnings, Warning{Message: "language is empty; using en"})
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		warnings = append(warnings, Warning{Message: "request_timeout_seconds must be positive"})
	}
	if cfg.CountdownSeconds <= 0 {
		warnings = append(warnings, Warning{Message: "countdown_seconds must be positive"})
	}

	return warnings
}

// checkEndpoint validates one endpoint URL, returning an empty string when fine.
func checkEndpoint(name, raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Sprintf("%s is empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Sprintf("%s is not a valid http(s) URL: %q", name, raw)
	}
	return ""
}
