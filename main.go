package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cppla/miniblog/config"
	"github.com/cppla/miniblog/routes"
	"github.com/cppla/miniblog/services"
	"github.com/cppla/miniblog/utils"
)

func main() {
	// .env is optional; real environment variables still win.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "miniblog",
		Short:        "Minimal blogging API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath, "path to the JSON config file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), configPath)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return migrate(configPath)
		},
	})
	return root
}

func migrate(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	fmt.Println("migration complete")
	return nil
}

func serve(parent context.Context, configPath string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := config.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}

	var (
		revoked utils.RevocationStore = utils.NewMemoryRevocationStore()
		cache   *utils.PostCache
	)
	if cfg.RedisEnabled {
		rc, err := utils.NewRedis(ctx, cfg)
		if err != nil {
			// fall back to single-instance stores
			logger.Warn("redis unavailable, using in-memory revocation and no cache", zap.Error(err))
		} else {
			defer rc.Close()
			revoked = utils.NewRedisRevocationStore(rc)
			cache = utils.NewPostCache(rc, cfg.CacheTTL(), logger)
		}
	}

	auth := services.NewAuthService(db, utils.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL()), revoked, logger)
	r := routes.SetupRouter(routes.Deps{
		Config: cfg,
		DB:     db,
		Logger: logger,
		Auth:   auth,
		Cache:  cache,
	})

	logger.Info("starting server", zap.String("port", cfg.AppPort), zap.String("db_driver", cfg.DBDriver))
	return utils.NewServer(":"+cfg.AppPort, r, logger).Run(ctx)
}
