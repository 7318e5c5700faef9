// internal/server/middleware/client_ip.go

package middleware

import (
	"net"
	"net/http"

	"iwitness/internal/service/geo"
)

// GeoClientIP hands the caller's public IP to the geolocation client.
// Loopback and private addresses are left out so the lookup falls back to
// the server's own position.
func GeoClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := net.ParseIP(ClientIP(r))
		if ip != nil && !ip.IsLoopback() && !ip.IsPrivate() && !ip.IsUnspecified() {
			r = r.WithContext(geo.WithClientIP(r.Context(), ip.String()))
		}
		next.ServeHTTP(w, r)
	})
}
