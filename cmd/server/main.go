package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/vogiaan1904/dealview-tracker/config"
	grpcSvc "github.com/vogiaan1904/dealview-tracker/internal/delivery/grpc"
	httpSvc "github.com/vogiaan1904/dealview-tracker/internal/delivery/http"
	"github.com/vogiaan1904/dealview-tracker/internal/delivery/kafka/consumer"
	"github.com/vogiaan1904/dealview-tracker/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/dealview-tracker/internal/infra/redis"
	"github.com/vogiaan1904/dealview-tracker/internal/metrics"
	repo "github.com/vogiaan1904/dealview-tracker/internal/repository/redis"
	"github.com/vogiaan1904/dealview-tracker/internal/service"
	"github.com/vogiaan1904/dealview-tracker/internal/viewbatch"
	pkgGrpc "github.com/vogiaan1904/dealview-tracker/pkg/grpc"
	pkgKafka "github.com/vogiaan1904/dealview-tracker/pkg/kafka"
	pkgLog "github.com/vogiaan1904/dealview-tracker/pkg/logger"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
		File:     cfg.Log.File,
	})
	defer l.Sync()

	// Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewViewMetrics(reg)

	redisCli, err := redis.Connect(ctx, cfg.Redis, l)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer redis.Disconnect(context.Background(), redisCli, l)

	viewRepo := repo.NewRedisViewRepository(redisCli, l)
	statsSvc := service.NewStatsService(viewRepo, l, m)

	// Kafka
	var (
		prod producer.Producer
		cons *consumer.Consumer
	)
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, l)

		kafkaConsGr, err := pkgKafka.NewConsumer(pkgKafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.ConsumerGroupID,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka consumer: %v", err)
		}
		cons = consumer.NewConsumer(kafkaConsGr, statsSvc, l)
	}

	// Tracking collaborator
	var tracker viewbatch.Tracker
	switch cfg.Tracker.Backend {
	case config.TrackerBackendKafka:
		tracker = service.NewKafkaTracker(prod)
	case config.TrackerBackendRedis:
		tracker = service.NewStatsTracker(statsSvc)
	case config.TrackerBackendGRPC:
		trackingCli, err := pkgGrpc.NewTrackingClient(cfg.Tracker.GRpcAddr)
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize gRPC tracking client: %v", err)
		}
		defer trackingCli.Close()
		tracker = service.NewGRPCTracker(trackingCli)
	}
	l.Infof(ctx, "View tracker backend: %s", cfg.Tracker.Backend)

	batcher := viewbatch.NewViewBatcher(tracker, l,
		viewbatch.WithQuietPeriod(cfg.Batcher.QuietPeriod),
		viewbatch.WithMaxWait(cfg.Batcher.MaxWait),
		viewbatch.WithThreshold(cfg.Batcher.VisibilityThreshold),
		viewbatch.WithMetrics(m),
	)

	// Services
	impSvc := service.NewImpressionService(batcher, service.ImpressionConfig{
		BindingTTL:    cfg.Batcher.BindingTTL,
		SweepInterval: cfg.Batcher.SweepInterval,
	}, l, m)
	authSvc := service.NewAuthService(cfg.Admin, l)

	if err := impSvc.StartSweeper(ctx); err != nil {
		l.Fatalf(ctx, "Failed to start binding sweeper: %v", err)
	}

	if cons != nil {
		if err := cons.Start(ctx); err != nil {
			l.Fatalf(ctx, "Failed to start Kafka consumer: %v", err)
		}
	}

	// gRPC server
	gRpcSrv, healthSrv := grpcSvc.NewServer(grpcSvc.NewGrpcService(statsSvc, l), l)
	lnr, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.GRpcPort))
	if err != nil {
		l.Fatalf(ctx, "gRPC server failed to listen: %v", err)
	}

	// HTTP server
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpSvc.NewRouter(httpSvc.NewHandler(impSvc, statsSvc, authSvc, l), reg, l, cfg.Server.CORSAllowOrigins),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Infof(ctx, "gRPC server is listening on port: %d", cfg.Server.GRpcPort)
		if err := gRpcSrv.Serve(lnr); err != nil {
			return fmt.Errorf("failed to serve gRPC: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Info(context.Background(), "Server shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Batcher.ShutdownTimeout)
		defer cancel()

		healthSrv.Shutdown()

		if err := impSvc.StopSweeper(); err != nil && !errors.Is(err, service.ErrSweeperNotRunning) {
			l.Warnf(shutdownCtx, "Failed to stop binding sweeper: %v", err)
		}

		// Pending views are flushed while the tracker is still connected.
		if err := batcher.Close(shutdownCtx); err != nil {
			l.Warnf(shutdownCtx, "View batcher did not drain in time: %v", err)
		}

		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			l.Warnf(shutdownCtx, "HTTP server shutdown: %v", err)
		}
		gRpcSrv.GracefulStop()

		if cons != nil {
			if err := cons.Close(); err != nil {
				l.Warnf(shutdownCtx, "Kafka consumer close: %v", err)
			}
		}
		if prod != nil {
			if err := prod.Close(); err != nil {
				l.Warnf(shutdownCtx, "Kafka producer close: %v", err)
			}
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		l.Errorf(context.Background(), "Server exited with error: %v", err)
		return
	}

	l.Info(context.Background(), "Server exited")
}
