package ratelimit

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"example.com/notes-api/internal/errs"
	"example.com/notes-api/internal/response"
)

// ErrTooManyRequests is rendered when a client exhausts its budget.
var ErrTooManyRequests = errs.New(errs.RateLimited, "Too many requests from this IP, please try again later.")

// Middleware enforces l per client key. Requests with an empty key are not
// limited. Rejections get a 429 envelope with Retry-After.
func Middleware(l *Limiter, key func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" || !l.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Max()))

			ok, wait := l.Allow(k)
			if !ok {
				secs := int(math.Ceil(wait.Seconds()))
				if secs < 1 {
					secs = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(secs))
				w.Header().Set("X-RateLimit-Remaining", "0")
				response.Error(w, ErrTooManyRequests)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(l.Remaining(k)))
			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP keys requests by the host part of RemoteAddr. Put chi's RealIP
// middleware in front of it when running behind a trusted proxy.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
