package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/consumer"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/indexer/schema"
	"github.com/Adithya-Monish-Kumar-K/search-core/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-core/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-core/pkg/resilience"
)

const (
	shutdownTimeout = 30 * time.Second
	healthTimeout   = 2 * time.Second
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	sch, err := schema.FromConfig(cfg.Schema)
	if err != nil {
		slog.Error("invalid schema", "error", err)
		os.Exit(1)
	}
	slog.Info("starting indexer service", "index", sch.Name, "fields", sch.NumFields())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	engine := indexer.NewEngine(cfg.Indexer, sch, m)
	engine.StartGCLoop(ctx)

	checker := health.NewChecker(healthTimeout)
	checker.Register("index_engine", true, engine.Ping)

	var invalidator consumer.Invalidator
	if cfg.Redis.Enabled {
		var client *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", resilience.RetryConfig{MaxAttempts: 5, InitialDelay: time.Second}, func() error {
			var err error
			client, err = pkgredis.NewClient(cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, cache invalidation disabled", "error", err)
		} else {
			defer client.Close()
			checker.Register("redis", false, client.Ping)
			invalidator = cache.New(cache.Guard(client, resilience.CircuitBreakerConfig{}), cfg.Redis.CacheTTL, m)
			slog.Info("cache invalidation enabled", "addr", cfg.Redis.Addr)
		}
	}

	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, map[string]http.Handler{
			"/health/live":  checker.LiveHandler(),
			"/health/ready": checker.ReadyHandler(),
		})
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	handler := consumer.HandleMessage(engine, invalidator, m)
	kafkaConsumer := kafka.NewConsumer(
		cfg.Kafka,
		cfg.Kafka.Topics.DocumentIngest,
		handler,
	)
	indexConsumer := consumer.New(kafkaConsumer)

	slog.Info("indexer service ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.DocumentIngest,
		"group", cfg.Kafka.ConsumerGroup,
	)

	if err := indexConsumer.Start(ctx); err != nil {
		slog.Error("consumer error", "error", err)
	}

	slog.Info("draining index garbage collection before shutdown")
	err = resilience.WithTimeout(context.Background(), shutdownTimeout, "engine close", func(context.Context) error {
		return engine.Close()
	})
	if err != nil {
		slog.Error("engine close failed", "error", err)
	}

	slog.Info("indexer service stopped")
}
