package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xaenox/anon-bot/internal/storage"
	"github.com/xaenox/anon-bot/pkg/config"
	"go.uber.org/zap"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "anonbot",
		Short:         "Slack bot relaying anonymous messages under channel-scoped pseudonyms",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML config file")

	root.AddCommand(newServeCommand(), newMigrateCommand(), newAdminCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by every command.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}

	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		zc.Level = level
	}

	return zc.Build()
}

func openStorage(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	if cfg.UseInMemory {
		logger.Info("Using in-memory storage")
		return storage.NewMemoryStorage(), nil
	}

	logger.Info("Using PostgreSQL storage")
	dbConfig := storage.DatabaseConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
	}
	return storage.NewPostgresStorage(ctx, dbConfig, logger)
}
