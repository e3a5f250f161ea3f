// Package hosts keeps a managed block of loopback entries in the system hosts
// file(s) in sync with a project's hostnames.
package hosts

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// LoopbackIPv4 is the IPv4 loopback address every managed host maps to.
	LoopbackIPv4 = "127.0.0.1"
	// LoopbackIPv6 is the IPv6 loopback address every managed host maps to.
	LoopbackIPv6 = "::1"

	localhost = "localhost"
)

// HostEntry is a hostname mapped to both loopback addresses.
type HostEntry struct {
	Hostname string
}

// Lines renders the IPv4 and IPv6 mapping lines for the entry.
func (e HostEntry) Lines() []string {
	return []string{
		LoopbackIPv4 + " " + e.Hostname,
		LoopbackIPv6 + " " + e.Hostname,
	}
}

// NewEntrySet normalizes candidate hostnames into the entries to manage.
// Blank names and localhost are dropped, duplicates collapse onto their first
// occurrence, and the order of first appearance is kept.
func NewEntrySet(candidates []string) []HostEntry {
	seen := make(map[string]bool, len(candidates))
	entries := make([]HostEntry, 0, len(candidates))

	for _, c := range candidates {
		name := strings.TrimSpace(c)
		if name == "" || strings.EqualFold(name, localhost) {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		entries = append(entries, HostEntry{Hostname: name})
	}

	return entries
}

// HostnameFromURL extracts the lower-cased hostname of a service URL,
// without scheme, port or IPv6 brackets.
func HostnameFromURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}

	host := u.Hostname()
	if host == "" {
		return "", fmt.Errorf("invalid url %q: no host", raw)
	}

	return strings.ToLower(host), nil
}

// HostnamesFromURLs extracts the hostnames of every URL that parses. URLs
// that fail are returned separately so the caller can report them.
func HostnamesFromURLs(urls []string) ([]string, []error) {
	var names []string
	var errs []error

	for _, raw := range urls {
		name, err := HostnameFromURL(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		names = append(names, name)
	}

	return names, errs
}
