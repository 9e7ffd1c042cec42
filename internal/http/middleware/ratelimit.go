package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/straye-as/qr-attendance/internal/config"
	"go.uber.org/zap"
)

// RateLimiter throttles scan uploads per client IP. Whitelist entries may be
// single addresses or CIDR ranges, so a campus network can be exempted.
type RateLimiter struct {
	enabled   bool
	exempt    []*net.IPNet
	limit     func(http.Handler) http.Handler
	logger    *zap.Logger
	perMinute int
}

func NewRateLimiter(cfg *config.RateLimitConfig, logger *zap.Logger) *RateLimiter {
	rl := &RateLimiter{
		enabled:   cfg.Enabled,
		exempt:    parseExemptions(cfg.WhitelistIPs, logger),
		logger:    logger,
		perMinute: cfg.RequestsPerMinute,
	}
	rl.limit = httprate.Limit(
		cfg.RequestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return "ip:" + ClientIP(r), nil
		}),
		httprate.WithLimitHandler(rl.tooManyRequests),
	)

	logger.Info("Rate limiter initialized",
		zap.Bool("enabled", cfg.Enabled),
		zap.Int("requests_per_minute", cfg.RequestsPerMinute),
		zap.Int("exempt_ranges", len(rl.exempt)),
	)
	return rl
}

func parseExemptions(entries []string, logger *zap.Logger) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !strings.Contains(entry, "/") {
			if ip := net.ParseIP(entry); ip != nil {
				bits := 8 * len(ip.To16())
				if ip.To4() != nil {
					ip, bits = ip.To4(), 32
				}
				nets = append(nets, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
				continue
			}
		} else if _, n, err := net.ParseCIDR(entry); err == nil {
			nets = append(nets, n)
			continue
		}
		logger.Warn("Ignoring invalid rate limit whitelist entry", zap.String("entry", entry))
	}
	return nets
}

// LimitByIP wraps next with the per-IP limit; it is a no-op when limiting is disabled
func (rl *RateLimiter) LimitByIP(next http.Handler) http.Handler {
	if !rl.enabled {
		return next
	}

	limited := rl.limit(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.isExempt(ClientIP(r)) {
			next.ServeHTTP(w, r)
			return
		}
		limited.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) isExempt(addr string) bool {
	ip := net.ParseIP(addr)
	if ip == nil {
		return false
	}
	for _, n := range rl.exempt {
		if n.Contains(ip) {
			return true
		}
	}
	return false
}

func (rl *RateLimiter) tooManyRequests(w http.ResponseWriter, r *http.Request) {
	rl.logger.Warn("Scan rate limit exceeded",
		zap.String("client_ip", ClientIP(r)),
		zap.String("path", r.URL.Path),
		zap.Int("requests_per_minute", rl.perMinute),
	)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Retry-After", "60")
	w.WriteHeader(http.StatusTooManyRequests)
	_, _ = w.Write([]byte(`{"error":"Too many requests. Please try again later."}`))
}

// ClientIP returns the first X-Forwarded-For hop, then X-Real-IP, then the peer address
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
