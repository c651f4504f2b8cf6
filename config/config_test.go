package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	return Config{
		Server:    ServerConfig{Port: 8080},
		Postgres:  PostgresConfig{Host: "localhost", User: "portal", Database: "portallink", MaxConnLifetime: "1h"},
		Cache:     CacheConfig{HighlightTTL: 5 * time.Minute},
		RateLimit: RateLimitConfig{MaxRequests: 300, Window: time.Minute},
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.Validate())

	// No database at all is allowed.
	empty := Config{}
	assert.NoError(t, empty.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port", func(c *Config) { c.Server.Port = 70000 }},
		{"user", func(c *Config) { c.Postgres.User = " " }},
		{"duration", func(c *Config) { c.Postgres.HealthCheckPeriod = "soon" }},
		{"ttl", func(c *Config) { c.Cache.HighlightTTL = -time.Second }},
		{"rate limit", func(c *Config) { c.RateLimit.MaxRequests = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigured(t *testing.T) {
	assert.False(t, PostgresConfig{Host: "db"}.Configured())
	assert.True(t, PostgresConfig{Database: "portallink"}.Configured())
	assert.False(t, RedisConfig{}.Configured())
	assert.True(t, RedisConfig{Host: "cache"}.Configured())
	assert.False(t, NATSConfig{Host: "  "}.Configured())
}
