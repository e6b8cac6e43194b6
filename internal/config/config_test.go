package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shopdesk/internal/config"
)

func TestDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DSN", "REDIS_ADDR", "CATALOG_TTL", "SESSION_IDLE", "KAFKA_BROKERS", "DEFAULT_TAX_PERCENT", "METRICS_ENABLED"} {
		t.Setenv(k, "")
	}
	c := config.Load()
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "shopdesk.db", c.DBDSN)
	assert.Empty(t, c.RedisAddr)
	assert.Equal(t, 30*time.Second, c.CatalogTTL)
	assert.Equal(t, 8*time.Hour, c.SessionIdle)
	assert.Empty(t, c.KafkaBrokers)
	assert.Equal(t, "18", c.DefaultTaxPercent.String())
	assert.True(t, c.MetricsEnabled)
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CATALOG_TTL", "2m")
	t.Setenv("SESSION_IDLE", "45m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("DEFAULT_TAX_PERCENT", "5.5")
	t.Setenv("METRICS_ENABLED", "false")
	c := config.Load()
	assert.Equal(t, "9090", c.Port)
	assert.Equal(t, 2*time.Minute, c.CatalogTTL)
	assert.Equal(t, 45*time.Minute, c.SessionIdle)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.Equal(t, "5.5", c.DefaultTaxPercent.String())
	assert.False(t, c.MetricsEnabled)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CATALOG_TTL", "soon")
	t.Setenv("SESSION_IDLE", "-1h")
	t.Setenv("DEFAULT_TAX_PERCENT", "140")
	t.Setenv("METRICS_ENABLED", "maybe")
	c := config.Load()
	assert.Equal(t, 30*time.Second, c.CatalogTTL)
	assert.Equal(t, 8*time.Hour, c.SessionIdle)
	assert.Equal(t, "18", c.DefaultTaxPercent.String())
	assert.True(t, c.MetricsEnabled)
}
