package main

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"shopdesk/internal/catalog"
	"shopdesk/internal/checkout"
	"shopdesk/internal/config"
	"shopdesk/internal/events"
	"shopdesk/internal/http/handlers"
	applog "shopdesk/internal/log"
	"shopdesk/internal/repos"
	"shopdesk/web"
)

func main() {
	cfg := config.Load()

	zl, err := applog.Init(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		applog.Fatal("startup.logger", err)
	}
	defer func() { _ = zl.Sync() }()
	applog.Info(nil, "startup.config", cfg.Fields())

	db, err := repos.OpenDB(cfg.DBDSN, cfg.SeedDemo)
	if err != nil {
		applog.Fatal("startup.db", err)
	}
	defer db.Close()

	// Catalog cache: Redis when configured, in-process otherwise
	var cache catalog.Cache = catalog.NewMemoryCache(cfg.CatalogTTL)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			applog.Fatal("startup.redis", err)
		}
		cancel()
		defer rdb.Close()
		cache = catalog.NewRedisCache(rdb, cfg.CatalogTTL)
	}
	cat := catalog.New(repos.NewProductRepo(db), cache)

	var publisher checkout.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaTopic, cfg.KafkaBrokers...)
		defer kp.Close()
		ap := events.NewAsync(kp, 256)
		defer ap.Close()
		publisher = ap
	}

	deps := handlers.NewDeps(db, cfg, cat, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go deps.Auth.Sessions.Expire(ctx, 5*time.Minute, cfg.SessionIdle)

	app := fiber.New(fiber.Config{
		Views:        web.Views(),
		ErrorHandler: handlers.ErrorHandler,
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := c.Path()
			return p == "/healthz" || p == "/metrics"
		},
	}))
	app.Use(handlers.CSRF())

	// ---------- Ops ----------
	app.Get("/healthz", func(c *fiber.Ctx) error {
		if err := db.PingContext(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"ok": false})
		}
		return c.JSON(fiber.Map{"ok": true})
	})
	if cfg.MetricsEnabled {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	}

	// ---------- App handlers ----------
	handlers.Routes(app, deps, handlers.DefaultLimits())

	app.Use(func(c *fiber.Ctx) error {
		return handlers.ErrorHandler(c, fiber.ErrNotFound)
	})

	if err := app.Listen(":" + cfg.Port); err != nil {
		applog.Fatal("server.listen", err)
	}
}
