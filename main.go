package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/example/face-attendance/internal/auth"
	"github.com/example/face-attendance/internal/config"
	"github.com/example/face-attendance/internal/grpcserver"
	"github.com/example/face-attendance/internal/handlers"
	"github.com/example/face-attendance/internal/httpclient"
	"github.com/example/face-attendance/internal/logging"
	"github.com/example/face-attendance/internal/password"
	"github.com/example/face-attendance/internal/queue"
	"github.com/example/face-attendance/internal/repository"
	"github.com/example/face-attendance/internal/storage"
	"github.com/example/face-attendance/internal/usecase"
)

var version = "dev"

func main() {
	configPath := flag.String("config", getEnv("APP_CONFIG", "config.yaml"), "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic(err)
	}

	logger, err := logging.NewLogger(cfg.Logging.Level)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db := initDatabase(ctx, cfg.Database, cfg.Logging.Level, logger)
	repo := repository.NewRepository(db, logger)
	if err := repo.AutoMigrate(ctx); err != nil {
		logger.Fatal("auto migrate failed", zap.Error(err))
	}

	redisCtx, redisCancel := context.WithTimeout(ctx, 5*time.Second)
	defer redisCancel()
	redisClient := initRedis(redisCtx, cfg.Redis, logger)
	defer redisClient.Close()

	client, err := httpclient.NewRecognizerClient(cfg.Recognizer, logger)
	if err != nil {
		logger.Fatal("invalid recognizer configuration", zap.Error(err))
	}

	faceOpts := []usecase.FaceOption{
		usecase.WithResultCache(usecase.NewRedisCache(redisClient), cfg.Redis.ResultTTL),
	}
	readiness := []handlers.ReadinessCheck{
		{Name: "postgres", Ping: repo.Ping},
		{Name: "redis", Ping: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	}

	if cfg.NATS.URL != "" {
		producer, err := queue.NewProducer(cfg.NATS.URL, logger)
		if err != nil {
			logger.Fatal("failed to connect to nats", zap.Error(err))
		}
		defer producer.Close()
		if err := producer.EnsureStream(ctx); err != nil {
			logger.Warn("failed to ensure attendance stream", zap.Error(err))
		}
		faceOpts = append(faceOpts, usecase.WithEventPublisher(producer))
		readiness = append(readiness, handlers.ReadinessCheck{
			Name: "nats",
			Ping: func(context.Context) error { return producer.Ping() },
		})
	} else {
		logger.Info("nats not configured, check-in events are not published")
	}

	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewMinIOStore(cfg.MinIO)
		if err != nil {
			logger.Fatal("failed to create minio client", zap.Error(err))
		}
		if err := store.EnsureBucket(ctx); err != nil {
			logger.Warn("failed to ensure enrollment bucket", zap.Error(err))
		}
		faceOpts = append(faceOpts, usecase.WithPhotoArchive(store))
		readiness = append(readiness, handlers.ReadinessCheck{Name: "minio", Ping: store.Ping})
	} else {
		logger.Info("minio not configured, enrollment photos are not archived")
	}

	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Audience, cfg.JWT.TTL)
	revoker := auth.NewRedisRevoker(redisClient)

	faceUC := usecase.NewFaceUseCase(repo, client, logger, faceOpts...)
	authUC := usecase.NewAuthUseCase(repo, tokens, revoker, logger)
	employeeUC := usecase.NewEmployeeUseCase(repo, password.DefaultParams, logger)

	if cfg.Server.Production() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Server:     cfg.Server,
		CookieName: cfg.JWT.CookieName,
		Version:    version,
		Tokens:     tokens,
		Revoker:    revoker,
		Faces:      faceUC,
		Auth:       authUC,
		Employees:  employeeUC,
		Readiness:  readiness,
		Logger:     logger,
	})

	grpcAddr := fmt.Sprintf(":%d", cfg.Server.GRPCPort)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatal("failed to listen for grpc", zap.String("addr", grpcAddr), zap.Error(err))
	}
	healthServer := grpcserver.New(logger)
	go func() {
		if err := healthServer.Serve(grpcListener); err != nil {
			logger.Error("grpc health server stopped", zap.Error(err))
		}
	}()
	defer healthServer.Stop()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("face attendance API listening", zap.String("addr", addr), zap.String("version", version))
	if err := serveHTTPServer(server, cfg.Server.ShutdownTimeout, logger, drainHealth(healthServer)); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func initDatabase(ctx context.Context, cfg config.DatabaseConfig, logLevel string, zapLogger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.DSN), repository.GormConfig(logLevel))
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		zapLogger.Fatal("failed to access db handle", zap.Error(err))
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		zapLogger.Fatal("database ping failed", zap.Error(err))
	}

	return db
}

func initRedis(ctx context.Context, cfg config.RedisConfig, zapLogger *zap.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
	if err := client.Ping(ctx).Err(); err != nil {
		zapLogger.Fatal("redis connection failed", zap.Error(err))
	}
	return client
}

func serveHTTPServer(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, onShutdown ...func()) error {
	return serveHTTPServerWithOptions(server, shutdownTimeout, logger, nil, nil, onShutdown...)
}

// serveHTTPServerWithOptions serves until the server fails or a signal arrives. On a
// signal the onShutdown hooks run before in-flight requests are drained.
func serveHTTPServerWithOptions(server *http.Server, shutdownTimeout time.Duration, logger *zap.Logger, listener net.Listener, signalCh <-chan os.Signal, onShutdown ...func()) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if listener != nil {
			err = server.Serve(listener)
		} else {
			err = server.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
	}()

	var (
		sigCh       <-chan os.Signal
		stopSignals func()
	)

	if signalCh != nil {
		sigCh = signalCh
		stopSignals = func() {}
	} else {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		sigCh = ch
		stopSignals = func() {
			signal.Stop(ch)
		}
	}
	defer stopSignals()

	select {
	case err := <-errCh:
		return err
	case sig, ok := <-sigCh:
		if !ok {
			return <-errCh
		}
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		for _, hook := range onShutdown {
			hook()
		}
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errCh
	}
}

// drainHealth reports NOT_SERVING over gRPC so balancers stop routing before HTTP drains.
func drainHealth(healthServer *grpcserver.Server) func() {
	return func() { healthServer.SetServing(false) }
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
