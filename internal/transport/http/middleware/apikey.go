package middleware

import (
	"crypto/subtle"
	"net/http"
)

// APIKey returns middleware enforcing the shared-secret credential for
// service-to-service calls. The presented X-API-KEY header is compared in
// constant time; a mismatch is a plain 401 with no detail.
func APIKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-API-KEY")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
