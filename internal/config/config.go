package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Config struct {
	Port              string
	DBDSN             string
	LogFile           string
	LogLevel          string
	RedisAddr         string // empty: in-process catalog cache
	CatalogTTL        time.Duration
	SessionIdle       time.Duration // live registers unused this long are dropped
	KafkaBrokers      []string // empty: sale events are not published
	KafkaTopic        string
	DefaultTaxPercent decimal.Decimal
	MetricsEnabled    bool
	SeedDemo          bool
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(env(key, strconv.FormatBool(def)))
	if err != nil {
		return def
	}
	return b
}

func Load() Config {
	ttl, err := time.ParseDuration(env("CATALOG_TTL", "30s"))
	if err != nil || ttl <= 0 {
		ttl = 30 * time.Second
	}
	idle, err := time.ParseDuration(env("SESSION_IDLE", "8h"))
	if err != nil || idle <= 0 {
		idle = 8 * time.Hour
	}
	tax, err := decimal.NewFromString(env("DEFAULT_TAX_PERCENT", "18"))
	if err != nil || tax.IsNegative() || tax.GreaterThan(decimal.NewFromInt(100)) {
		tax = decimal.NewFromInt(18)
	}
	var brokers []string
	for _, b := range strings.Split(env("KAFKA_BROKERS", ""), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return Config{
		Port:              env("PORT", "8080"),
		DBDSN:             env("DB_DSN", "shopdesk.db"), // sqlite file in working dir
		LogFile:           env("LOG_FILE", ""),
		LogLevel:          env("LOG_LEVEL", "info"),
		RedisAddr:         env("REDIS_ADDR", ""),
		CatalogTTL:        ttl,
		SessionIdle:       idle,
		KafkaBrokers:      brokers,
		KafkaTopic:        env("KAFKA_TOPIC", "sales.committed"),
		DefaultTaxPercent: tax,
		MetricsEnabled:    envBool("METRICS_ENABLED", true),
		SeedDemo:          envBool("SEED_DEMO", true),
	}
}

// Fields is the loggable form of the configuration.
func (c Config) Fields() map[string]any {
	return map[string]any{
		"port":         c.Port,
		"db_dsn":       c.DBDSN,
		"log_file":     c.LogFile,
		"redis":        c.RedisAddr,
		"catalog_ttl":  c.CatalogTTL.String(),
		"session_idle": c.SessionIdle.String(),
		"kafka":        strings.Join(c.KafkaBrokers, ","),
		"topic":        c.KafkaTopic,
		"tax":          c.DefaultTaxPercent.String(),
		"metrics":      c.MetricsEnabled,
	}
}
