package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-core/pkg/config"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

type resumen struct {
	Group string
	Net   int64
}

func TestMemoryCache_GuardaYVence(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []resumen{{Group: "2026-01", Net: 5}}, time.Minute))
	var got []resumen
	ok, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(5), got[0].Net)

	require.NoError(t, c.Set(ctx, "corto", 1, -time.Second))
	var n int
	ok, err = c.Get(ctx, "corto", &n)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCache_BumpVersionInvalida(t *testing.T) {
	c := cache.NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))

	v0, _ := c.Version(ctx)
	require.NoError(t, c.BumpVersion(ctx))
	v1, _ := c.Version(ctx)
	assert.Equal(t, v0+1, v1)

	var n int
	ok, _ := c.Get(ctx, "k", &n)
	assert.False(t, ok)
}

func TestNew_SinRedisUsaMemoria(t *testing.T) {
	c := cache.New(context.Background(), config.RedisConfig{}, logger.Nop())
	_, isMemory := c.(*cache.MemoryCache)
	assert.True(t, isMemory)
}
