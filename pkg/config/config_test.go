package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_ValoresPorDefecto(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, cfg.Reservation.DefaultTTL)
	assert.Equal(t, 2*time.Hour, cfg.Reservation.MaxTTL)
	assert.Equal(t, 500, cfg.Reservation.SweepBatch)
	assert.Equal(t, 3*time.Second, cfg.DB.LockTimeout)
	assert.Equal(t, "inventory.ledger", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTP.Addr())
}

func TestFromViper_LeeDuracionesYListas(t *testing.T) {
	v := viper.New()
	v.Set("RESERVATION_DEFAULT_TTL", "30m")
	v.Set("RESERVATION_SWEEP_INTERVAL", "10")
	v.Set("KAFKA_BROKERS", "k1:9092, k2:9092,")
	v.Set("DB_PORT", "6543")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 30*time.Minute, cfg.Reservation.DefaultTTL)
	assert.Equal(t, 10*time.Second, cfg.Reservation.SweepInterval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 6543, cfg.DB.Port)
}

func TestFromViper_TTLPorDefectoMayorQueMaximoFalla(t *testing.T) {
	v := viper.New()
	v.Set("RESERVATION_DEFAULT_TTL", "3h")
	_, err := fromViper(v)
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := DBConfig{User: "app", Password: "p@ss:word", Host: "db", Port: 5432, DBName: "inv", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss%3Aword@db:5432/inv?sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://x", DBConfig{DatabaseURL: "postgres://x"}.ConnectionString())
}
