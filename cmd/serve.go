package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/esim-gateway/internal/config"
	"github.com/jmehdipour/esim-gateway/internal/db"
	httpSrv "github.com/jmehdipour/esim-gateway/internal/http"
	"github.com/jmehdipour/esim-gateway/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)
		defer logger.Sync()
		log := logger.Log

		if cfg.Apollo.Token == "" {
			log.Warn("apollo token not configured; only mock requests will succeed")
		}

		// redis is optional; it only backs the rate limiter
		var redisClient *redis.Client
		if cfg.Redis.Addr != "" && cfg.RateLimit.RPS > 0 {
			redisClient, err = db.NewRedisClient(cmd.Context(), db.RedisOpts{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
		}

		gw := newGateway(cfg, log)
		server := httpSrv.NewServer(cfg, gw, redisClient, log.Named("http"))

		errCh := make(chan error, 1)
		go func() {
			log.Info("starting http",
				zap.String("addr", cfg.HTTP.Addr),
				zap.String("env", cfg.App.Env),
				zap.Bool("mock_allowed", cfg.MockAllowed()),
			)
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		var runErr error
		select {
		case sig := <-sigCh:
			log.Info("signal received, shutting down", zap.String("signal", sig.String()))
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("http server exited", zap.Error(err))
				runErr = fmt.Errorf("http server: %w", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return runErr
	},
}
