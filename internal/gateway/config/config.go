// Package config handles configuration for the gateway, including defaults,
// environment variables, and command-line flags.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the gateway.
//
// Fields:
//   - Addr: bind address for the public HTTP endpoint.
//   - AuthServiceAddr / UserServiceAddr: command channel addresses of the
//     internal services.
//   - SecretKey: HMAC secret for the local token check. Must match the
//     token issuer's secret; there is no default.
//   - RequestTimeout: per-call deadline for outbound channel calls.
type Config struct {
	Addr            string
	AuthServiceAddr string
	UserServiceAddr string
	SecretKey       string
	RequestTimeout  time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// SecretKey deliberately has none.
func (c *Config) LoadDefaults() {
	c.Addr = ":3000"
	c.AuthServiceAddr = "authservice:4001"
	c.UserServiceAddr = "userservice:4002"
	c.RequestTimeout = 5 * time.Second
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from environment variables and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseFlags(cfg)
	return cfg
}

func parseEnv(c *Config) {
	if v := os.Getenv("ADDRESS"); v != "" {
		c.Addr = v
	}
	if v := os.Getenv("AUTH_SERVICE_ADDR"); v != "" {
		c.AuthServiceAddr = v
	}
	if v := os.Getenv("USER_SERVICE_ADDR"); v != "" {
		c.UserServiceAddr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RequestTimeout = time.Duration(n) * time.Second
		}
	}
}
