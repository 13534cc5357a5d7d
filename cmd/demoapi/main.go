// Command demoapi serves a local copy of the posts/recipes/todos demo API.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-redis/redis/v8"

	"optilist/config"
	"optilist/demoapi"
	"optilist/logging"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	logger, err := logging.New(os.Stdout, cfg.Log)
	if err != nil {
		slog.Error("logger", "error", err)
		os.Exit(1)
	}
	logger = logger.With("service", "demoapi")
	ctx := context.Background()

	var store demoapi.Store
	switch cfg.Server.Store {
	case config.StoreRedis:
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Server.RedisAddr})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Error("could not connect to redis", "addr", cfg.Server.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		store = demoapi.NewRedisStore(redisClient, "demoapi:")
	default:
		store = demoapi.NewMemoryStore()
	}

	if cfg.Server.Seed {
		if err := demoapi.Seed(ctx, store); err != nil {
			logger.Error("seeding store", "error", err)
			os.Exit(1)
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      demoapi.NewRouter(store, logger),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server is listening", "addr", server.Addr, "store", cfg.Server.Store)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("could not listen", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	logger.Info("server is shutting down")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
