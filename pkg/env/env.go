package env

import (
	"os"
	"strings"
)

// Get returns the value of the given environment variable or a fallback.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// ListenAddr resolves the HTTP listen address. A platform-provided PORT wins
// over the configured port.
func ListenAddr(configured string) string {
	port := strings.TrimSpace(Get("PORT", configured))
	if port == "" {
		port = "4000"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}
