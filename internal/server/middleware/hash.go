package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/fitcoach/perfmon/internal/utils"
)

// VerifyHashMiddleware checks the HMAC-SHA256 signature of request bodies
// as sent on the wire, before decompression. An empty key disables the
// check; bodyless requests are never checked.
func VerifyHashMiddleware(key string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Method == http.MethodGet || r.Method == http.MethodHead {
				next.ServeHTTP(w, r)
				return
			}

			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))

			if len(bodyBytes) > 0 && !utils.ValidHash(bodyBytes, key, r.Header.Get(utils.HashHeader)) {
				http.Error(w, "invalid hash", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
