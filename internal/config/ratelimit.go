package config

import (
	"os"
	"strconv"
	"time"
)

// RateLimitConfig defines settings for the Redis-backed limiter that
// protects the payment endpoints.  When Enabled is false or no Redis
// client is configured, limiting is disabled.
type RateLimitConfig struct {
	Enabled  bool
	Capacity int           // requests allowed per window
	Window   time.Duration // window length
	Prefix   string        // Redis key namespace
}

// LoadRateLimitConfig reads environment variables to build a
// RateLimitConfig.  Defaults are used when variables are not set.
func LoadRateLimitConfig() RateLimitConfig {
	cfg := RateLimitConfig{
		Enabled:  envBool("RATE_LIMIT_ENABLED", true),
		Capacity: envIntDef("RATE_LIMIT_CAPACITY", 30),
		Window:   envDur("RATE_LIMIT_WINDOW", time.Minute),
		Prefix:   envStr("RATE_LIMIT_PREFIX", "rl"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	return cfg
}

func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envIntDef(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
