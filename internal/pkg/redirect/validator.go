package redirect

import (
	"net/url"
	"strings"
)

// Validator rejects redirect destinations that could leave the portal for an
// attacker-chosen host. Only single-slash relative paths and whitelisted
// http/https hosts pass.
type Validator struct {
	allowedHosts map[string]struct{}
}

func NewValidator(allowedHosts []string) *Validator {
	hosts := make(map[string]struct{}, len(allowedHosts))
	for _, h := range allowedHosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h != "" {
			hosts[h] = struct{}{}
		}
	}
	return &Validator{allowedHosts: hosts}
}

func (v *Validator) IsSafe(raw string) bool {
	if raw == "" {
		return false
	}

	// Backslashes are treated as path separators by some browsers; a leading
	// pair behaves like a protocol-relative URL.
	if strings.Contains(raw, "\\") {
		return false
	}

	// Protocol-relative and triple-slash forms escape to a foreign host.
	if strings.HasPrefix(raw, "//") {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "" && scheme != "http" && scheme != "https" {
		return false
	}

	if parsed.Host == "" {
		if scheme != "" {
			// http:/path and friends; not a destination we can reason about
			return false
		}
		return strings.HasPrefix(raw, "/")
	}

	host := strings.ToLower(parsed.Hostname())
	_, ok := v.allowedHosts[host]
	return ok
}

// Sanitize returns the destination when safe, else the fallback.
func (v *Validator) Sanitize(raw, fallback string) string {
	if v.IsSafe(raw) {
		return raw
	}
	return fallback
}
