package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"CART_PORT", "AUTH_URL", "AUTH_MODE", "REDIS_HOST", "REDIS_PORT",
		"REDIS_PASSWORD", "REDIS_TLS_ENABLED", "CART_SEED_DATA",
		"CART_OPTIMISTIC_WRITES", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg := loadConfig()
	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, 1, cfg.AuthMode)
	assert.Equal(t, "6379", cfg.RedisPort)
	assert.True(t, cfg.RedisTLS)
	assert.False(t, cfg.SeedData)
	assert.False(t, cfg.OptimisticWrites)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("CART_PORT", "8080")
	t.Setenv("AUTH_MODE", "2")
	t.Setenv("REDIS_HOST", "redis.internal")
	t.Setenv("REDIS_TLS_ENABLED", "false")
	t.Setenv("CART_OPTIMISTIC_WRITES", "true")

	cfg := loadConfig()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 2, cfg.AuthMode)
	assert.Equal(t, "redis.internal", cfg.RedisHost)
	assert.False(t, cfg.RedisTLS)
	assert.True(t, cfg.OptimisticWrites)
}

func TestLoadConfigBadValuesFallBack(t *testing.T) {
	t.Setenv("AUTH_MODE", "not-a-number")
	t.Setenv("REDIS_TLS_ENABLED", "maybe")

	cfg := loadConfig()
	assert.Equal(t, 1, cfg.AuthMode)
	assert.True(t, cfg.RedisTLS)
}
