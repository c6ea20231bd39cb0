// Package config handles configuration for the auth service, including
// defaults, environment variables, and command-line flags.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds runtime settings for the auth service.
//
// Fields:
//   - Addr: bind address for the internal command channel.
//   - UserServiceAddr: address of the credential store's command channel.
//   - SecretKey: HMAC secret for signing session tokens (HS256). There is
//     no default; the process refuses to start without one.
//   - TokenValidityDuration: session token lifetime.
//   - RequestTimeout: per-call deadline for outbound channel calls.
type Config struct {
	Addr                  string
	UserServiceAddr       string
	SecretKey             string
	TokenValidityDuration time.Duration
	RequestTimeout        time.Duration
}

// LoadDefaults populates Config with sensible development defaults.
// SecretKey deliberately has none.
func (c *Config) LoadDefaults() {
	c.Addr = ":4001"
	c.UserServiceAddr = "userservice:4002"
	c.TokenValidityDuration = 60 * time.Minute
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
	if v := os.Getenv("USER_SERVICE_ADDR"); v != "" {
		c.UserServiceAddr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.SecretKey = v
	}
	if v := os.Getenv("TOKEN_VALIDITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TokenValidityDuration = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RequestTimeout = time.Duration(n) * time.Second
		}
	}
}
