package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/tidymark/internal/logger"
)

// AllowOnlyCIDRS allows only specific IPs/CIDRs. An empty or fully invalid
// list rejects every request.
// trustProxy should be true when running behind a trusted reverse proxy/tunnel (e.g., cloudflared).
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	set, invalid := newPrefixSet(allowed)
	if len(invalid) > 0 {
		log.Warn("AllowOnlyCIDRS: ignoring invalid entries", logger.Strings("entries", invalid))
	}
	if len(set) == 0 {
		log.Warn("AllowOnlyCIDRS: no valid entries, rejecting all requests")
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusForbidden)
			})
		}
	}

	log.Debugf("AllowOnlyCIDRS: initialized with %d rules, trustProxy=%v", len(set), trustProxy)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r, trustProxy)
			if !set.contains(ip) {
				log.Debugf("AllowOnlyCIDRS: IP %s REJECTED", ip)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
