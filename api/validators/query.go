package validators

import "net/http"

// QueryString returns the sanitized value of a query parameter.
func QueryString(r *http.Request, key string, maxLen int) string {
	return SanitizeString(r.URL.Query().Get(key), maxLen)
}
