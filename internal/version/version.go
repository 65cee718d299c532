// Package version provides centralized version management for keyfall.
package version

import (
	_ "embed"
	"strings"
)

//go:embed version.txt
var rawVersion string

// Version returns the current keyfall version.
func Version() string {
	return strings.TrimSpace(rawVersion)
}

// UserAgent returns a standardized user agent string for HTTP requests.
func UserAgent() string {
	return "keyfall/" + Version()
}
