package mw

import (
	"net/http"

	"github.com/localpub/localpub/internal/logger"
	"github.com/localpub/localpub/internal/utils"
)

// AllowOnlyCIDRS restricts access to the given IPs/CIDRs. An empty list
// allows everyone: the daemon normally only listens on the LAN anyway.
func AllowOnlyCIDRS(allowed []string, loggerClient logger.Logger) func(http.Handler) http.Handler {
	matcher := utils.NewIPMatcher(allowed)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if matcher.IsEmpty() {
				next.ServeHTTP(w, r)
				return
			}

			ip := utils.ParseHostNoPort(r.RemoteAddr)
			if !matcher.Allow(ip) {
				loggerClient.Warn("request from disallowed IP",
					logger.String("remote_ip", ip),
					logger.String("path", r.URL.Path))
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
