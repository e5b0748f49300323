// Package timeouts provides centralized timeout values for handler
// operations. These are used with context.WithTimeout for database work in
// HTTP handlers so a slow Mongo call cannot pin a request forever.
//
// Guidelines for choosing a timeout:
//   - Ping: health checks and connectivity verification
//   - Short: simple single-document reads or lookups
//   - Medium: list queries, moderate writes, multi-step reads
//   - Long: operations touching multiple collections (decision + audit)
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Default timeout values (used if none are configured).
const (
	DefaultPing   = 2 * time.Second
	DefaultShort  = 5 * time.Second
	DefaultMedium = 10 * time.Second
	DefaultLong   = 30 * time.Second
)

var mu sync.RWMutex

var (
	ping   = DefaultPing
	short  = DefaultShort
	medium = DefaultMedium
	long   = DefaultLong
)

// Ping returns the timeout for health checks.
func Ping() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return ping
}

// Short returns the timeout for simple operations like single-document reads.
func Short() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return short
}

// Medium returns the timeout for moderate operations like list queries.
func Medium() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return medium
}

// Long returns the timeout for operations touching multiple collections.
func Long() time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return long
}

// ConfigureFromEnv reads timeout overrides from environment variables
// (TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM, TIMEOUT_LONG; Go duration
// syntax). Invalid or unset values keep the defaults. Returns the number of
// timeouts configured.
func ConfigureFromEnv() int {
	mu.Lock()
	defer mu.Unlock()
	configured := 0

	set := func(env string, dst *time.Duration) {
		if v := os.Getenv(env); v != "" {
			if d, err := time.ParseDuration(v); err == nil && d > 0 {
				*dst = d
				configured++
			}
		}
	}
	set("TIMEOUT_PING", &ping)
	set("TIMEOUT_SHORT", &short)
	set("TIMEOUT_MEDIUM", &medium)
	set("TIMEOUT_LONG", &long)

	return configured
}

// Reset restores all timeouts to their default values. Useful for testing.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	ping = DefaultPing
	short = DefaultShort
	medium = DefaultMedium
	long = DefaultLong
}

// WithTimeout wraps context.WithTimeout and logs a warning when the
// deadline fires, naming the operation so slow queries are attributable.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
