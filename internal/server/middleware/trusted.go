package middleware

import (
	"fmt"
	"net"
	"net/http"
)

// TrustedCIDR admits only clients whose address lies in cidr. The address
// is taken from X-Real-IP, falling back to the connection peer. An empty
// cidr admits everyone.
func TrustedCIDR(cidr string) (func(http.Handler) http.Handler, error) {
	if cidr == "" {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	_, ipnet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid trusted subnet %q: %w", cidr, err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := net.ParseIP(r.Header.Get("X-Real-IP"))
			if ip == nil {
				if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
					ip = net.ParseIP(host)
				}
			}
			if ip == nil || !ipnet.Contains(ip) {
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}, nil
}
