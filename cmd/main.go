package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"github.com/andressep95/session-auth/internal/config"
	"github.com/andressep95/session-auth/internal/handler"
	"github.com/andressep95/session-auth/internal/handler/middleware"
	"github.com/andressep95/session-auth/internal/logger"
	"github.com/andressep95/session-auth/internal/metrics"
	"github.com/andressep95/session-auth/internal/repository"
	"github.com/andressep95/session-auth/internal/repository/memory"
	"github.com/andressep95/session-auth/internal/repository/mongo"
	"github.com/andressep95/session-auth/internal/repository/postgres"
	"github.com/andressep95/session-auth/internal/service"
	"github.com/andressep95/session-auth/pkg/jwt"
	"github.com/andressep95/session-auth/pkg/ratelimit"
	"github.com/andressep95/session-auth/pkg/validator"
)

const defaultMongoDatabase = "auth-app"

var errMigrateOnly = errors.New("migrate only")

// stores bundles the repositories of the selected backend.
type stores struct {
	users    repository.UserRepository
	sessions repository.SessionRepository
	close    func()
}

func main() {
	envFile := pflag.String("env-file", ".env", "dotenv file to load before reading the environment")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, log, *migrateOnly); err != nil {
		if errors.Is(err, errMigrateOnly) {
			log.Info("migrations applied")
			return
		}
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, migrateOnly bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.New(reg)

	st, checks, err := openStores(ctx, cfg, log, migrateOnly)
	if err != nil {
		return err
	}
	defer st.close()

	// A nil interface keeps the limiter on its in-process store.
	var limiterStorage fiber.Storage
	if cfg.Redis.Enabled {
		redisClient, err := initRedis(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("failed to close redis client", "error", err)
			}
		}()
		log.Info("redis connection established", "addr", cfg.Redis.Addr())

		limiterStorage = ratelimit.NewRedisStorage(redisClient)
		checks = append(checks, handler.HealthCheck{
			Name: "redis",
			Pinger: handler.PingFunc(func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			}),
		})
	}

	tokenService, err := jwt.NewTokenService(cfg.JWT.Secret, cfg.JWT.AccessTokenLife.Duration(), cfg.JWT.Issuer)
	if err != nil {
		return fmt.Errorf("failed to initialize token service: %w", err)
	}

	authService := service.NewAuthService(st.users, st.sessions, tokenService, cfg, log, rec)

	sweeper := service.NewSessionSweeper(st.sessions, cfg.Auth.SweepInterval, log, rec)
	go sweeper.Run(ctx)

	authHandler := handler.NewAuthHandler(authService, validator.NewValidator(), cfg, log)
	healthHandler := handler.NewHealthHandler(checks...)

	app := handler.NewApp(cfg, log, rec)
	handler.SetupRoutes(
		app,
		authHandler,
		handler.NewSessionHandler(authService),
		healthHandler,
		middleware.AuthMiddleware(authService),
		middleware.RateLimit(cfg.RateLimit.Max, cfg.RateLimit.Window, limiterStorage),
		reg,
	)

	listenErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			"addr", cfg.Addr(),
			"environment", cfg.Server.Environment,
			"driver", cfg.Database.Driver,
			"strict_device_check", cfg.Auth.StrictDeviceCheck,
		)
		listenErr <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log *slog.Logger, migrateOnly bool) (*stores, []handler.HealthCheck, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.Database.DSN(), log)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				log.Error("failed to close database", "error", err)
			}
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			closeDB()
			return nil, nil, err
		}
		if migrateOnly {
			closeDB()
			return nil, nil, errMigrateOnly
		}
		log.Info("database connection established", "driver", cfg.Database.Driver)

		return &stores{
			users:    postgres.NewUserRepository(db),
			sessions: postgres.NewSessionRepository(db),
			close:    closeDB,
		}, []handler.HealthCheck{{Name: "database", Pinger: handler.PingFunc(db.PingContext)}}, nil

	case config.DriverMongo:
		client, err := mongo.Connect(ctx, cfg.Database.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeClient := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Error("failed to disconnect mongodb", "error", err)
			}
		}

		db := client.Database(mongoDatabaseName(cfg.Database.MongoURI))
		if err := mongo.EnsureIndexes(ctx, db); err != nil {
			closeClient()
			return nil, nil, err
		}
		if migrateOnly {
			closeClient()
			return nil, nil, errMigrateOnly
		}
		log.Info("database connection established", "driver", cfg.Database.Driver, "database", db.Name())

		sessions := mongo.NewSessionRepository(db)
		return &stores{
			users:    mongo.NewUserRepository(db),
			sessions: sessions,
			close:    closeClient,
		}, []handler.HealthCheck{{Name: "database", Pinger: sessions}}, nil

	default:
		if migrateOnly {
			return nil, nil, errMigrateOnly
		}
		log.Warn("using in-memory store; sessions are lost on restart")
		return &stores{
			users:    memory.NewUserRepository(),
			sessions: memory.NewSessionRepository(),
			close:    func() {},
		}, nil, nil
	}
}

// mongoDatabaseName takes the database from the URI path.
func mongoDatabaseName(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultMongoDatabase
	}
	if name := strings.Trim(u.Path, "/"); name != "" {
		return name
	}
	return defaultMongoDatabase
}

func initRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr(),
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
