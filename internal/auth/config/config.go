package config

import (
	"os"
	"time"
)

const (
	defaultAccessTokenExpiry = 15
	defaultMaxLoginAttempts  = 3
	defaultLockDuration      = 30 * time.Second
)

type JwtConfig struct {
	JWTSecret         string        `yaml:"jwt_secret"`
	AccessTokenExpiry int           `yaml:"access_token_expiry"` // minutes
	MaxLoginAttempts  int           `yaml:"max_login_attempts"`
	LockDuration      time.Duration `yaml:"lock_duration"`
}

// Load reads the secret from JWT_SECRET and fills the rest with defaults.
func Load() *JwtConfig {
	c := &JwtConfig{JWTSecret: os.Getenv("JWT_SECRET")}
	c.ApplyDefaults()
	return c
}

func (c *JwtConfig) ApplyDefaults() {
	if c.AccessTokenExpiry <= 0 {
		c.AccessTokenExpiry = defaultAccessTokenExpiry
	}
	if c.MaxLoginAttempts <= 0 {
		c.MaxLoginAttempts = defaultMaxLoginAttempts
	}
	if c.LockDuration <= 0 {
		c.LockDuration = defaultLockDuration
	}
}

func (c *JwtConfig) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpiry) * time.Minute
}
