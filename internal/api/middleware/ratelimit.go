package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openclaw/claw/internal/api/response"
	"github.com/openclaw/claw/internal/ratelimit"
)

var rateLimitRejections = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "rate_limit_rejections_total",
		Help: "Total number of requests rejected by the rate limiter",
	},
	[]string{"route"},
)

// RateLimit returns a middleware that admits at most cfg.Max requests per
// cfg.Window per client IP on the named route. Requests without a resolvable
// client IP all share one "unknown" bucket; that is documented behavior, not
// an accident.
func RateLimit(limiter *ratelimit.Limiter, route string, cfg ratelimit.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			res := limiter.Check(route+":"+ip, cfg)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Max))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(int64(math.Ceil(res.ResetIn.Seconds())), 10))

			if !res.Allowed {
				rateLimitRejections.WithLabelValues(route).Inc()
				w.Header().Set("Retry-After", strconv.FormatInt(int64(math.Ceil(res.ResetIn.Seconds())), 10))
				response.WriteError(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP trusts chi's RealIP middleware to have rewritten RemoteAddr from
// the forwarding headers; here we only strip the port when one is present.
func clientIP(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
