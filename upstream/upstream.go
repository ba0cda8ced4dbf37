// Package upstream holds the HTTP clients for the third-party providers the
// query dispatcher fans out to. Each client translates one upstream JSON
// shape into one normalized reply. A client whose key is not configured
// answers with a fixed explanatory text instead of calling out, so the
// caller's conversational flow is never broken by missing configuration.
package upstream

import (
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from a provider. The body is kept so the
// server can log upstream detail; it is never surfaced to clients.
type APIError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func httpClientOrDefault(c *http.Client) *http.Client {
	if c != nil {
		return c
	}
	return http.DefaultClient
}
