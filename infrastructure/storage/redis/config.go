// Package redis provides a Redis-backed report store.
package redis

import (
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
)

// Config says where the report store connects and how it names keys.
type Config struct {
	Address  string
	Password string
	DB       int

	// KeyPrefix namespaces every key and always ends in ':'.
	KeyPrefix string

	// Timeout bounds dialing and each read or write.
	Timeout time.Duration

	// PoolSize caps open connections. A run saves one report, so it is small.
	PoolSize int
}

// DefaultConfig points at a local server under the droid: namespace.
func DefaultConfig() Config {
	return Config{
		Address:   "localhost:6379",
		KeyPrefix: "droid:",
		Timeout:   3 * time.Second,
		PoolSize:  4,
	}
}

// ConfigOption adjusts a Config before the store connects.
type ConfigOption func(*Config)

// WithAddress sets the server address.
func WithAddress(addr string) ConfigOption {
	return func(c *Config) {
		if addr != "" {
			c.Address = addr
		}
	}
}

// WithKeyPrefix sets the namespace, adding the trailing ':' when missing.
func WithKeyPrefix(prefix string) ConfigOption {
	return func(c *Config) {
		if prefix != "" {
			c.KeyPrefix = strings.TrimSuffix(prefix, ":") + ":"
		}
	}
}

// WithPassword sets the AUTH password.
func WithPassword(password string) ConfigOption {
	return func(c *Config) {
		c.Password = password
	}
}

// FromStorage maps a scenario storage block onto options. Empty settings
// keep the defaults.
func FromStorage(s domainconfig.StorageConfig) []ConfigOption {
	return []ConfigOption{WithAddress(s.Address), WithKeyPrefix(s.Prefix)}
}

func (c Config) options() *redis.Options {
	return &redis.Options{
		Addr:         c.Address,
		Password:     c.Password,
		DB:           c.DB,
		MaxRetries:   2,
		DialTimeout:  c.Timeout,
		ReadTimeout:  c.Timeout,
		WriteTimeout: c.Timeout,
		PoolSize:     c.PoolSize,
	}
}

// formatScore renders a sorted-set bound from unix nanoseconds.
func formatScore(v int64) string {
	return strconv.FormatInt(v, 10)
}
