package media

import (
	"net/url"
	"strings"
)

// DefaultAllowedHosts are the hosts accepted when no allow-list is configured.
var DefaultAllowedHosts = []string{
	"youtube.com",
	"www.youtube.com",
	"m.youtube.com",
	"music.youtube.com",
	"gaming.youtube.com",
	"youtu.be",
}

// Validator accepts absolute http(s) URLs whose host is on an allow-list.
type Validator struct {
	hosts map[string]struct{}
}

// NewValidator returns a Validator for the given hosts. Matching is exact and
// case-insensitive; an empty list falls back to DefaultAllowedHosts.
func NewValidator(hosts []string) *Validator {
	if len(hosts) == 0 {
		hosts = DefaultAllowedHosts
	}
	v := &Validator{hosts: make(map[string]struct{}, len(hosts))}
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			v.hosts[h] = struct{}{}
		}
	}
	return v
}

// Validate reports whether candidate is a supported video URL. It never panics
// on malformed input.
func (v *Validator) Validate(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false
	}

	u, err := url.Parse(candidate)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	_, ok := v.hosts[strings.ToLower(u.Hostname())]
	return ok
}
