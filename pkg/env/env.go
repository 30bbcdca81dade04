package env

import (
	"os"
	"strings"
)

// Get returns the trimmed value of key, or fallback when it is unset or blank.
func Get(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

// Instance names the running replica for logs: the Cloud Run revision and
// host when present, otherwise the hostname.
func Instance() string {
	host := Get("HOSTNAME", "")
	if host == "" {
		host, _ = os.Hostname()
	}
	if rev := Get("K_REVISION", ""); rev != "" {
		if host == "" {
			return rev
		}
		return rev + "/" + host
	}
	if host == "" {
		return "local"
	}
	return host
}
