package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"roomly/internal/cache"
	"roomly/internal/config"
	"roomly/internal/events"
	"roomly/internal/logging"
	"roomly/internal/service/bookings"
	"roomly/internal/service/rooms"
	"roomly/internal/store/postgres"
	"roomly/internal/telemetry"
	grpcTransport "roomly/internal/transport/grpc"
	"roomly/internal/transport/httpapi"
)

const serviceName = "roomly-server"

func main() {
	bootLog, _ := logging.New("info", "production")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	log, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		bootLog.Fatal("logger init failed", zap.Error(err))
	}
	log = log.With(zap.String("service", serviceName))
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		_ = log.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("starting",
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("grpc_addr", cfg.GRPCAddr),
		zap.String("log_level", cfg.LogLevel),
	)

	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:      cfg.OTelEnabled,
		ServiceName:  serviceName,
		OTLPEndpoint: cfg.OTelEndpoint,
		SampleRatio:  cfg.OTelSampleRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	log.Info("connecting to database", logging.DatabaseFields(cfg.DatabaseURL)...)
	db, err := postgres.Open(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
	})
	if err != nil {
		log.Error("database connection failed", append([]zap.Field{zap.Error(err)}, logging.DatabaseFields(cfg.DatabaseURL)...)...)
		return err
	}
	defer func() {
		if err := postgres.Close(db); err != nil {
			log.Warn("database close failed", zap.Error(err))
		}
	}()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(ctx, db, log); err != nil {
			return err
		}
	}

	readyChecks := map[string]func(context.Context) error{
		"database": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()
		readyChecks["redis"] = func(ctx context.Context) error { return cache.Ping(ctx, rdb) }
		log.Info("day cache enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
	}

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("event publisher close failed", zap.Error(err))
		}
	}()
	if len(cfg.KafkaBrokers) == 0 {
		log.Warn("booking events disabled (no kafka brokers configured)")
	}

	roomSvc := rooms.NewService(postgres.NewRoomRepo(db), cfg.TimeZone)
	bookingSvc := bookings.NewService(postgres.NewBookingRepo(db),
		bookings.WithCache(cache.NewDaySnapshots(rdb, cfg.CacheTTL)),
		bookings.WithEvents(publisher),
		bookings.WithLogger(log),
	)

	httpChecks := make(map[string]httpapi.ReadyCheck, len(readyChecks))
	grpcChecks := make(map[string]grpcTransport.ReadyCheck, len(readyChecks))
	for name, check := range readyChecks {
		httpChecks[name] = check
		grpcChecks[name] = check
	}

	httpServer := httpapi.NewServer(cfg.HTTPAddr, httpapi.Options{
		Rooms:          roomSvc,
		Bookings:       bookingSvc,
		Logger:         log,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		ReadyChecks:    httpChecks,
	})
	grpcServer := grpcTransport.NewServer(log, cfg.GRPCRequestTimeout)

	httpLis, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Error("http listen failed", zap.Error(err), zap.String("http_addr", cfg.HTTPAddr))
		return err
	}
	grpcLis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		_ = httpLis.Close()
		log.Error("grpc listen failed", zap.Error(err), zap.String("grpc_addr", cfg.GRPCAddr))
		return err
	}

	errCh := make(chan error, 2)
	go func() { errCh <- httpServer.Serve(httpLis) }()
	go func() { errCh <- grpcServer.Serve(grpcLis) }()
	go grpcServer.WatchReadiness(ctx, 15*time.Second, grpcChecks)

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case serveErr = <-errCh:
		if serveErr != nil {
			log.Error("server stopped unexpectedly", zap.Error(serveErr))
		}
	}

	grpcServer.Shutdown(cfg.ShutdownTimeout)
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(sctx); err != nil {
		log.Warn("http graceful shutdown failed", zap.Error(err))
	}
	return serveErr
}
