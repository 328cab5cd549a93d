package integrations

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/matzehuels/cratedeps/pkg/buildinfo"
)

const httpTimeout = 10 * time.Second

var (
	// ErrNotFound is returned when a crate or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// NormalizeCrateName converts a crate name to the form registries index it
// under. Crate names are case-insensitive and crates.io treats '-' and '_'
// as equivalent for lookups, but the published spelling is preserved in
// responses, so callers only use this for keys.
func NormalizeCrateName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// UserAgent is sent with every request; crates.io rejects anonymous clients.
var UserAgent = buildinfo.UserAgent()
