package config

import "time"

// RateLimitConfig controls the token-bucket limiter applied to /api routes.
// Every request costs one token; buckets refill at a fixed interval.  The
// limiter is distributed (Redis) so multiple instances share the budget.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

// LoadRateLimitConfig reads RATE_LIMIT_* environment variables, falling back
// to defaults generous enough for a small catalog frontend.
func LoadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Enabled:        envBool("RATE_LIMIT_ENABLED", true),
		Capacity:       envInt("RATE_LIMIT_CAPACITY", 60),
		RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
		RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
		TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
		KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_user"),
		Prefix:         getenv("RATE_LIMIT_PREFIX", "ratelimit"),
		Debug:          envBool("RATE_LIMIT_DEBUG", false),
	}
}
