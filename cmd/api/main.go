package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	drivermongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/quacc/access-point-api/internal/api"
	"github.com/quacc/access-point-api/internal/api/handler"
	"github.com/quacc/access-point-api/internal/core/ports"
	"github.com/quacc/access-point-api/internal/core/registry"
	"github.com/quacc/access-point-api/internal/core/service"
	"github.com/quacc/access-point-api/internal/infrastructure/db/mongo"
	"github.com/quacc/access-point-api/internal/infrastructure/db/redis"
	"github.com/quacc/access-point-api/internal/infrastructure/push"
	"github.com/quacc/access-point-api/internal/infrastructure/queue"
	"github.com/quacc/access-point-api/internal/infrastructure/storage"
	"github.com/quacc/access-point-api/internal/pkg/config"
	"github.com/quacc/access-point-api/pkg/logger"
)

const serviceName = "access-point-api"

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: serviceName,
	})

	if err := run(cfg, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	health := make(map[string]handler.Dependency)

	// --- Snapshot storage ---
	store, closeStore, err := openSnapshotStore(ctx, cfg, health)
	if err != nil {
		return err
	}
	defer closeStore()

	accessPoints := registry.LoadAccessPoints(ctx, store, cfg.Storage.AccessPointsKey, logger.Component("registry"))
	users := registry.LoadUsers(ctx, store, cfg.Storage.UsersKey, logger.Component("registry"),
		registry.WithBcryptCost(cfg.Users.BcryptCost))
	log.Info().
		Int("access_points", accessPoints.Len()).
		Int("users", users.Len()).
		Str("backend", cfg.Storage.Backend).
		Msg("registries loaded")

	// --- Push notifications ---
	subscriptions, closeSubscriptions := openSubscriptionStore(ctx, cfg, health, log)
	defer closeSubscriptions()

	registrar, notifier := newPush(cfg, subscriptions, log)
	health["push"] = handler.Dependency{Check: handler.PushChecker(registrar), Optional: true}

	// --- Reports ---
	reports := service.NewReportService(accessPoints, users, notifier, cfg.Reports.Fanout, log)
	reportQueue := queue.NewDispatcher(cfg.Reports.Workers, reports, log)
	reportQueue.Start(context.WithoutCancel(ctx))

	e := api.NewRouter(api.Dependencies{
		AccessPoints: accessPoints,
		Users:        users,
		Reports:      reports,
		Queue:        reportQueue,
		Registrar:    registrar,
		Notifier:     notifier,
		Health:       health,
		Log:          log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("http server failed")
		}
	}

	// Stop intake, drain queued reports, then persist.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	reportQueue.Close()

	var saveErr error
	if err := accessPoints.Save(shutdownCtx, store, cfg.Storage.AccessPointsKey); err != nil {
		log.Error().Err(err).Msg("saving access points")
		saveErr = errors.Join(saveErr, err)
	}
	if err := users.Save(shutdownCtx, store, cfg.Storage.UsersKey); err != nil {
		log.Error().Err(err).Msg("saving users")
		saveErr = errors.Join(saveErr, err)
	}
	if saveErr == nil {
		log.Info().Msg("registries saved")
	}
	return saveErr
}

// openSnapshotStore selects the persistence backend for the registries.
func openSnapshotStore(ctx context.Context, cfg *config.Config, health map[string]handler.Dependency) (ports.SnapshotStore, func(), error) {
	switch cfg.Storage.Backend {
	case config.StorageMongo:
		client, db, err := mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  serviceName,
		})
		if err != nil {
			return nil, nil, err
		}
		health["mongodb"] = handler.Dependency{Check: handler.MongoChecker(db)}
		return mongo.NewSnapshotRepository(db), disconnectMongo(client), nil
	default:
		return storage.NewFileStore(cfg.Storage.DataDir), func() {}, nil
	}
}

func disconnectMongo(client *drivermongo.Client) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
}

// openSubscriptionStore keeps push subscriptions in Redis when configured,
// in process memory otherwise. An unreachable Redis falls back to memory so
// the rest of the API keeps serving.
func openSubscriptionStore(ctx context.Context, cfg *config.Config, health map[string]handler.Dependency, log zerolog.Logger) (ports.PushSubscriptionStore, func()) {
	if cfg.Redis.Addr == "" {
		return push.NewMemoryStore(), func() {}
	}
	rdb, err := redis.Connect(ctx, redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("addr", cfg.Redis.Addr).
			Msg("redis unavailable, keeping push subscriptions in memory")
		return push.NewMemoryStore(), func() {}
	}
	health["redis"] = handler.Dependency{Check: handler.RedisChecker(rdb)}
	return redis.NewSubscriptionStore(rdb), closeRedis(rdb)
}

func closeRedis(rdb *goredis.Client) func() {
	return func() { _ = rdb.Close() }
}

// newPush builds the web push dispatcher. Without a readable VAPID key the
// API keeps serving with push disabled.
func newPush(cfg *config.Config, store ports.PushSubscriptionStore, log zerolog.Logger) (ports.PushRegistrar, ports.Notifier) {
	keys, err := push.LoadVAPIDKeys(cfg.Push.PrivateKeyFile)
	if err != nil {
		log.Warn().Err(err).
			Str("path", cfg.Push.PrivateKeyFile).
			Msg("push notifications disabled")
		var disabled push.Disabled
		return disabled, disabled
	}
	d := push.NewDispatcher(store, keys, push.Config{
		Subject: cfg.Push.Subject,
		TTL:     cfg.Push.TTL,
		Timeout: cfg.Push.Timeout,
	}, log)
	return d, d
}
