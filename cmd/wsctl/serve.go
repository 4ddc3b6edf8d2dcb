package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/goodstudio/spring-projects-spring-ws/internal/config"
	"github.com/goodstudio/spring-projects-spring-ws/internal/server"
	"github.com/goodstudio/spring-projects-spring-ws/internal/storage"
	"github.com/goodstudio/spring-projects-spring-ws/internal/storage/mongodb"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/authn"
)

func newServeCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var configPath, envFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the WS-Security protected SOAP echo service",
		Example: `  wsctl serve --config config.yaml
  wsctl serve --config config.yaml --env-file .env.production`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnv(envFile); err != nil {
				return err
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServer(ctx, cfg, logger(cmd))
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "configuration file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "file with environment variables (default: .env if present)")

	return cmd
}

// loadEnv loads variables from path, or from .env when path is empty and
// the file exists. Variables already set in the environment win.
func loadEnv(path string) error {
	if path == "" {
		_ = godotenv.Load()
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file: %w", err)
	}
	return nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := newUserStore(ctx, cfg)
	if err != nil {
		return err
	}

	cache, closeCache := newUserCache(cfg, logger)
	defer closeCache()

	srv, err := server.New(ctx, cfg, store, cache, logger)
	if err != nil {
		_ = store.Close(context.Background())
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(":" + strconv.Itoa(cfg.Server.Port))
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newUserStore(ctx context.Context, cfg *config.Config) (storage.UserStore, error) {
	if cfg.Security.Store != config.StoreMongoDB {
		return storage.NewMemoryStore(), nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, cfg.Storage.MongoDB.Timeout)
	defer cancel()
	store, err := mongodb.NewStore(connectCtx, &mongodb.Config{
		URI:        cfg.Storage.MongoDB.URI,
		Database:   cfg.Storage.MongoDB.Database,
		Collection: cfg.Storage.MongoDB.Collection,
		Timeout:    cfg.Storage.MongoDB.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening user store: %w", err)
	}
	return store, nil
}

func newUserCache(cfg *config.Config, logger *slog.Logger) (authn.UserCache, func()) {
	redisCfg := cfg.Security.Cache.Redis
	if redisCfg.Address == "" {
		return authn.NopUserCache{}, func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     redisCfg.Address,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
	})
	logger.Info("user cache enabled", "redis", redisCfg.Address, "ttl", cfg.Security.Cache.TTL)
	return authn.NewRedisUserCache(client, cfg.Security.Cache.TTL, logger), func() { _ = client.Close() }
}
