package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// UnknownIdentity is the shared bucket for callers that cannot be identified.
const UnknownIdentity = "unknown"

// IdentityFunc derives the rate-limit identity of a request.
type IdentityFunc func(r *http.Request) string

// IdentityFromRequest returns an IdentityFunc that uses the first
// X-Forwarded-For entry. Without one, callers share UnknownIdentity unless
// useRemoteAddr is set, in which case the socket peer address is used.
func IdentityFromRequest(useRemoteAddr bool) IdentityFunc {
	return func(r *http.Request) string {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}

		if useRemoteAddr {
			host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
			if err == nil && host != "" {
				return host
			}
			if r.RemoteAddr != "" {
				return r.RemoteAddr
			}
		}
		return UnknownIdentity
	}
}
