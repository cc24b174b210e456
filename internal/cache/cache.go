// Package cache guarda respuestas GET cuando la llamada pide "enable caching".
package cache

import (
	"context"
	"fmt"
	"time"
)

// Cache es el backend de respuestas cacheadas del request builder.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Config elige el backend
type Config struct {
	Driver        string // memory | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// New construye el cache según el driver configurado.
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", cfg.Driver)
	}
}
