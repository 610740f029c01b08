package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/pkg/config"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

var (
	_ inventory.ReportCache = (*RedisCache)(nil)
	_ inventory.ReportCache = (*MemoryCache)(nil)
)

const versionKey = "inventario:ledger:version"

// New crea la caché de reportes: Redis si REDIS_ADDR está definido y responde, si no en memoria.
func New(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) inventory.ReportCache {
	if cfg.Addr == "" {
		log.Info().Msg("REDIS_ADDR vacío, caché de reportes en memoria")
		return NewMemoryCache()
	}
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		MaxRetries:   3,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Warn().Err(err).Str("addr", cfg.Addr).Msg("Redis no disponible, caché de reportes en memoria")
		_ = client.Close()
		return NewMemoryCache()
	}
	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("caché de reportes en Redis")
	return NewRedisCache(client)
}

// RedisCache caché de reportes sobre Redis; la versión del libro es un contador INCR.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache construye la caché con un cliente existente.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Get lee y decodifica una entrada JSON. false si no existe.
func (c *RedisCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("redis decode %s: %w", key, err)
	}
	return true, nil
}

// Set guarda value como JSON con vencimiento.
func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Version devuelve la versión actual del libro (0 si nunca cambió).
func (c *RedisCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis version: %w", err)
	}
	return v, nil
}

// BumpVersion invalida de una vez todos los reportes cacheados.
func (c *RedisCache) BumpVersion(ctx context.Context) error {
	if err := c.client.Incr(ctx, versionKey).Err(); err != nil {
		return fmt.Errorf("redis incr: %w", err)
	}
	return nil
}

// Close cierra el cliente.
func (c *RedisCache) Close() error { return c.client.Close() }

type entry struct {
	raw       []byte
	expiresAt time.Time
}

// MemoryCache caché local de respaldo cuando no hay Redis.
type MemoryCache struct {
	mu      sync.Mutex
	data    map[string]entry
	version int64
}

// NewMemoryCache crea una caché vacía.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string]entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	e, ok := c.data[key]
	if ok && time.Now().After(e.expiresAt) {
		delete(c.data, key)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dst); err != nil {
		return false, fmt.Errorf("memoria decode %s: %w", key, err)
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("memoria encode %s: %w", key, err)
	}
	c.mu.Lock()
	c.data[key] = entry{raw: raw, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Version(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version, nil
}

// BumpVersion además descarta las entradas, que ya no se pueden alcanzar.
func (c *MemoryCache) BumpVersion(context.Context) error {
	c.mu.Lock()
	c.version++
	c.data = make(map[string]entry)
	c.mu.Unlock()
	return nil
}
