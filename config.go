package main

import (
	"os"
	"strconv"
)

// Config gathers every environment-driven setting in one place. It is built
// once in main and passed to the components that need it; nothing reads the
// environment after startup.
type Config struct {
	Port string

	AuthURL  string
	AuthMode int

	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisTLS      bool

	// SeedData preloads the demo carts on startup (drops existing keys).
	SeedData bool
	// OptimisticWrites opts the Redis adapter into WATCH-based
	// read-modify-write; the default is last-write-wins.
	OptimisticWrites bool

	LogLevel string
}

func loadConfig() Config {
	return Config{
		Port:             getenv("CART_PORT", "5000"),
		AuthURL:          getenv("AUTH_URL", ""),
		AuthMode:         getenvInt("AUTH_MODE", 1),
		RedisHost:        getenv("REDIS_HOST", ""),
		RedisPort:        getenv("REDIS_PORT", "6379"),
		RedisPassword:    getenv("REDIS_PASSWORD", ""),
		RedisTLS:         getenvBool("REDIS_TLS_ENABLED", true),
		SeedData:         getenvBool("CART_SEED_DATA", false),
		OptimisticWrites: getenvBool("CART_OPTIMISTIC_WRITES", false),
		LogLevel:         getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
