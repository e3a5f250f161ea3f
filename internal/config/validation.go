package config

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// hostnameRegex validates hostnames. Single-label names are allowed since
// local proxies commonly serve them.
var hostnameRegex = regexp.MustCompile(`^[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)

// appNameRegex validates app names. The name ends up inside a hosts file
// comment line, so whitespace and control characters are rejected.
var appNameRegex = regexp.MustCompile(`^[^\s\p{Cc}]+$`)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig validates the entire configuration. An empty app name is
// accepted here since it may be supplied on the command line; use
// RequireApp before syncing.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}

	if err := validateSettings(&cfg.Settings); err != nil {
		return err
	}

	if cfg.App.Name != "" && !ValidateAppName(cfg.App.Name) {
		return &ValidationError{
			Field:   "app.name",
			Message: fmt.Sprintf("invalid app name: %q", cfg.App.Name),
		}
	}

	for i, s := range cfg.App.Services {
		if err := validateService(&s, i); err != nil {
			return err
		}
	}

	return nil
}

// RequireApp checks that cfg names the app whose block is managed.
func RequireApp(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Field: "config", Message: "config is nil"}
	}
	if strings.TrimSpace(cfg.App.Name) == "" {
		return &ValidationError{Field: "app.name", Message: "app name is required"}
	}
	if !ValidateAppName(cfg.App.Name) {
		return &ValidationError{
			Field:   "app.name",
			Message: fmt.Sprintf("invalid app name: %q", cfg.App.Name),
		}
	}
	return nil
}

func validateSettings(s *Settings) error {
	switch s.FlushMethod {
	case FlushMethodAuto, FlushMethodDscacheutil, FlushMethodKillall, FlushMethodBoth,
		FlushMethodSystemd, FlushMethodNscd, FlushMethodIpconfig, FlushMethodNone, "":
	default:
		return &ValidationError{
			Field:   "settings.flushMethod",
			Message: fmt.Sprintf("invalid flush method: %s", s.FlushMethod),
		}
	}

	switch s.WindowsElevation {
	case ElevationSudo, ElevationPowerShell, "":
	default:
		return &ValidationError{
			Field:   "settings.windowsElevation",
			Message: fmt.Sprintf("invalid elevation mode: %s", s.WindowsElevation),
		}
	}
	return nil
}

func validateService(s *Service, index int) error {
	fieldPrefix := fmt.Sprintf("app.services[%d]", index)

	if strings.TrimSpace(s.Name) == "" {
		return &ValidationError{
			Field:   fieldPrefix + ".name",
			Message: "service name is required",
		}
	}

	for i, raw := range s.URLs {
		if err := ValidateURL(raw); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("%s.urls[%d]", fieldPrefix, i),
				Message: err.Error(),
			}
		}
	}

	return nil
}

// ValidateURL checks that raw parses and carries a hostname that can be
// mapped in a hosts file.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	if strings.Contains(host, "*") {
		return fmt.Errorf("wildcard host %q cannot be mapped in a hosts file", host)
	}
	if !ValidateHostname(host) && !ValidateIP(host) {
		return fmt.Errorf("invalid host %q", host)
	}
	return nil
}

// ValidateHostname checks if a hostname is valid.
func ValidateHostname(host string) bool {
	if host == "" || len(host) > 253 {
		return false
	}
	return hostnameRegex.MatchString(host)
}

// ValidateIP checks if an IP address is valid (IPv4 or IPv6).
func ValidateIP(ip string) bool {
	if ip == "" {
		return false
	}
	return net.ParseIP(ip) != nil
}

// ValidateAppName checks if an app name can be used as a block identifier.
func ValidateAppName(name string) bool {
	return appNameRegex.MatchString(name)
}
