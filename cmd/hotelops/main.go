package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"hotelops/internal/app/bootstrap"
	"hotelops/internal/app/middleware"
	appoutbox "hotelops/internal/app/outbox"
	"hotelops/internal/app/uow"
	"hotelops/internal/infra/broker/kafka"
	"hotelops/internal/infra/config"
	mongodb "hotelops/internal/infra/db/mongo"
	"hotelops/internal/infra/db/postgres"
	"hotelops/internal/infra/fixtures"
	ginserver "hotelops/internal/infra/http/gin"
	"hotelops/internal/infra/inbox"
	"hotelops/internal/infra/obs"
	"hotelops/internal/infra/outbox"
	"hotelops/internal/infra/storage/memory"
	redisstore "hotelops/internal/infra/storage/redis"
)

const housekeepingConsumer = "housekeeping"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("hotelops stopped", "error", err)
		os.Exit(1)
	}
	logger.Info("hotelops stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	inv, err := loadInventory(cfg)
	if err != nil {
		return err
	}

	drv, err := openDriver(ctx, cfg, inv, logger)
	if err != nil {
		return err
	}
	defer drv.close()

	idem := drv.idempotency
	if cfg.RedisAddr != "" {
		client, err := redisstore.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer client.Close()
		idem = &redisstore.IdempotencyStore{Client: client, TTL: cfg.IdempotencyTTL}
		logger.Info("idempotency keys stored in redis", "addr", cfg.RedisAddr)
	}

	var producer outbox.Producer = outbox.LogProducer{Logger: logger}
	if cfg.KafkaEnabled() {
		p, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer p.Close()
		producer = p
	}
	worker := outbox.NewWorker(drv.outbox, producer)
	worker.Interval = cfg.OutboxPollInterval
	worker.Backoff = cfg.RetryBackoff
	worker.TopicPrefix = cfg.KafkaTopicPrefix
	worker.Logger = logger

	buses := bootstrap.Build(bootstrap.Deps{
		UoW:         drv.factory,
		Idempotency: idem,
		Flusher:     worker,
		Encoder:     appoutbox.JSONEventEncoder{},
		Logger:      logger,
	})

	var wg sync.WaitGroup
	background := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(name+" stopped", "error", err)
			}
		}()
	}
	background("outbox worker", worker.Run)

	if cfg.KafkaEnabled() {
		consumer, err := kafka.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, nil, &kafka.HousekeepingHandler{
			Bus:    buses.Commands,
			Inbox:  drv.inbox,
			Logger: logger,
		})
		if err != nil {
			return fmt.Errorf("kafka consumer: %w", err)
		}
		defer consumer.Close()
		consumer.Logger = logger
		background("housekeeping consumer", func(ctx context.Context) error {
			return consumer.Run(ctx, []string{cfg.HousekeepingTopic})
		})
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Ready: drv.ping}, ginserver.Handlers{
		Availability: ginserver.AvailabilityHandler{Queries: buses.Queries},
		Reservation:  ginserver.ReservationHandler{Commands: buses.Commands, Queries: buses.Queries},
		Room:         ginserver.RoomHandler{Commands: buses.Commands, Queries: buses.Queries},
		Dashboard:    ginserver.DashboardHandler{Queries: buses.Queries},
	})

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "driver", cfg.StorageDriver, "kafka", cfg.KafkaEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	wg.Wait()
	return nil
}

func loadInventory(cfg config.Config) (fixtures.Inventory, error) {
	hotel := fixtures.Default()
	if cfg.FixturesPath != "" {
		h, err := fixtures.Load(cfg.FixturesPath)
		if err != nil {
			return fixtures.Inventory{}, err
		}
		hotel = h
	}
	return hotel.Build(cfg.Currency)
}

// driver bundles everything a storage backend contributes to the process.
type driver struct {
	factory     uow.UoWFactory
	outbox      outbox.Store
	idempotency middleware.IdempotencyStore
	inbox       inbox.Inbox
	ping        func(context.Context) error
	close       func()
}

func openDriver(ctx context.Context, cfg config.Config, inv fixtures.Inventory, logger *slog.Logger) (driver, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			return driver{}, fmt.Errorf("postgres connect: %w", err)
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return driver{}, fmt.Errorf("postgres migrate: %w", err)
		}
		if err := postgres.Seed(ctx, pool, inv); err != nil {
			pool.Close()
			return driver{}, fmt.Errorf("postgres seed: %w", err)
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver)
		return driver{
			factory:     postgres.Factory{Pool: pool},
			outbox:      postgres.NewOutboxStore(pool),
			idempotency: postgres.NewIdempotencyStore(pool, cfg.IdempotencyTTL),
			inbox:       &postgres.InboxStore{Pool: pool, Consumer: housekeepingConsumer},
			ping:        pool.Ping,
			close:       pool.Close,
		}, nil

	case config.DriverMongo:
		client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return driver{}, fmt.Errorf("mongo connect: %w", err)
		}
		closeClient := func() { _ = client.Close(context.Background()) }
		if err := mongodb.EnsureIndexes(ctx, client.DB); err != nil {
			closeClient()
			return driver{}, err
		}
		if err := mongodb.Seed(ctx, client.DB, inv); err != nil {
			closeClient()
			return driver{}, fmt.Errorf("mongo seed: %w", err)
		}
		in, err := inbox.NewMongoStore(ctx, client.DB, housekeepingConsumer)
		if err != nil {
			closeClient()
			return driver{}, fmt.Errorf("mongo inbox: %w", err)
		}
		logger.Info("storage ready", "driver", cfg.StorageDriver, "database", cfg.MongoDB)
		return driver{
			factory:     mongodb.Factory{DB: client.DB},
			outbox:      mongodb.NewOutboxStore(client.DB),
			idempotency: mongodb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL),
			inbox:       in,
			ping:        client.Ping,
			close:       closeClient,
		}, nil

	default:
		store := memory.NewStore()
		store.Seed(inv)
		logger.Info("storage ready", "driver", config.DriverMemory, "rooms", len(inv.Rooms))
		return driver{
			factory:     memory.Factory{Store: store},
			outbox:      store.Outbox(),
			idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
			inbox:       inbox.NewMemory(),
			ping:        func(context.Context) error { return nil },
			close:       func() {},
		}, nil
	}
}
