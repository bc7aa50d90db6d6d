package clientip

import (
	"net"
	"net/http"
	"strings"
)

// Unknown is returned when RemoteAddr is empty, so rate-limit keys stay
// non-empty.
const Unknown = "unknown"

// RealClientIP returns the client IP from r.RemoteAddr only. Proxy headers
// are ignored because they are caller-controlled and would let a client pick
// its own rate-limit bucket.
func RealClientIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if addr == "" {
		return Unknown
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = strings.Trim(addr, "[]")
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return host
}
