package ratelimit

import (
	"encoding/json"
	"log"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Policy - limit for one endpoint group
type Policy struct {
	Scope       string // "chat", "generate"
	MaxRequests int
	Window      time.Duration
}

// Middleware rejects callers over the policy with 429 before the wrapped
// handler runs. The key is scope plus client IP. Limiter errors let the
// request through.
func Middleware(l Limiter, p Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := p.Scope + ":" + ClientIP(r)
			res, err := l.Allow(r.Context(), key, p.MaxRequests, p.Window)
			if err != nil {
				log.Printf("⚠️ [RateLimit] Check failed for %s, allowing request: %v", key, err)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(p.MaxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.UnixMilli(), 10))

			if !res.Allowed {
				retryAfter := int(math.Ceil(time.Until(res.ResetAt).Seconds()))
				if retryAfter < 1 {
					retryAfter = 1
				}
				log.Printf("⚠️ [RateLimit] %s exceeded %d requests per %v", key, p.MaxRequests, p.Window)

				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests. Please wait a moment and try again.",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP picks the caller address: first X-Forwarded-For hop, then
// X-Real-IP, then the connection address.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
