package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/infrastructure/cache"
	"github.com/jhoicas/inventario-core/internal/infrastructure/events"
	"github.com/jhoicas/inventario-core/internal/infrastructure/observability"
	"github.com/jhoicas/inventario-core/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/inventario-core/internal/interfaces/http"
	"github.com/jhoicas/inventario-core/pkg/config"
	"github.com/jhoicas/inventario-core/pkg/logger"
)

// version se sobrescribe en el build: -ldflags "-X main.version=1.2.3".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
		App:   cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("version", version).
		Msg("iniciando aplicación")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupTracing(ctx, cfg.Otel, cfg.App.Name, version)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("aplicar esquema")
		}
		log.Info().Msg("esquema aplicado")
	}

	reportCache := cache.New(ctx, cfg.Redis, log.Component("cache"))
	if c, ok := reportCache.(io.Closer); ok {
		defer c.Close()
	}

	var publisher inventory.EventPublisher = events.NewLogPublisher(log.Component("events"))
	if len(cfg.Kafka.Brokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.Kafka, log.Component("events"))
		if err != nil {
			log.Fatal().Err(err).Strs("brokers", cfg.Kafka.Brokers).Msg("conexión a Kafka")
		}
		defer kp.Close()
		publisher = kp
	}

	txRunner := postgres.NewTxRunner(pool, cfg.DB.LockTimeout)
	effects := inventory.NewEffects(publisher, reportCache, log.Component("effects"))

	ledgerUC := inventory.NewLedgerUseCase(txRunner, effects, log.Component("ledger"))
	reservationUC := inventory.NewReservationUseCase(txRunner, effects, log.Component("reservations"), inventory.ReservationOptions{
		DefaultTTL:     cfg.Reservation.DefaultTTL,
		MaxTTL:         cfg.Reservation.MaxTTL,
		SweepBatchSize: cfg.Reservation.SweepBatch,
	})
	transferUC := inventory.NewTransferUseCase(txRunner, effects, log.Component("transfers"))
	adjustmentUC := inventory.NewAdjustmentUseCase(txRunner, effects, log.Component("adjustments"))
	reconciliationUC := inventory.NewReconciliationUseCase(postgres.NewReconciliationRepository(pool), log.Component("reconciliation"))
	movementUC := inventory.NewMovementUseCase(postgres.NewMovementRepository(pool), reportCache, cfg.Redis.TTL, log.Component("movements"))
	sweeper := inventory.NewExpirySweeper(reservationUC, cfg.Reservation.SweepInterval, log.Component("sweeper"))

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (requiere swag init)
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Inventario Core API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "degraded", "service": cfg.App.Name})
		}
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "version": version})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:         ledgerUC,
		Reservations:   reservationUC,
		Transfers:      transferUC,
		Adjustments:    adjustmentUC,
		Reconciliation: reconciliationUC,
		Movements:      movementUC,
		JWTSecret:      cfg.JWT.Secret,
		Log:            log,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.Run(gctx)
	})
	g.Go(func() error {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("servidor detenido con error")
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Error().Err(err).Msg("cerrar exportador de trazas")
	}
	log.Info().Msg("aplicación detenida")
}
