package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/xaenox/anon-bot/internal/bot"
	"github.com/xaenox/anon-bot/internal/classifier"
	"github.com/xaenox/anon-bot/internal/metrics"
	"github.com/xaenox/anon-bot/internal/models"
	"github.com/xaenox/anon-bot/internal/pseudonym"
	"github.com/xaenox/anon-bot/internal/slackapi"
	"github.com/xaenox/anon-bot/pkg/config"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the Slack command and interaction endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// Initialize storage
	store, err := openStorage(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate storage: %w", err)
	}

	// Initialize pseudonym allocator
	pool := pseudonym.DefaultPool()
	if len(cfg.Pseudonym.Pool) > 0 {
		pool, err = pseudonym.NewPool(cfg.Pseudonym.Pool)
		if err != nil {
			return fmt.Errorf("invalid pseudonym pool: %w", err)
		}
	}
	allocator := pseudonym.NewAllocator(store, pool, cfg.Pseudonym.ValidityWindow, logger)

	// Initialize moderation
	policy, err := classifier.ParseFailurePolicy(cfg.Moderation.OnError)
	if err != nil {
		return err
	}
	gpt := classifier.NewGPTClassifier(classifier.GPTConfig{
		APIKey:      cfg.OpenAI.APIKey,
		BaseURL:     cfg.OpenAI.BaseURL,
		Model:       cfg.OpenAI.Model,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Temperature: cfg.OpenAI.Temperature,
		Timeout:     cfg.Moderation.Timeout,
	}, logger)
	filter := classifier.NewFilter(gpt, classifier.NewKeywordClassifier(cfg.Moderation.Blocklist), policy, logger)

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	defaultMode, err := models.ParseChannelMode(cfg.Channels.DefaultMode)
	if err != nil {
		return err
	}

	b := bot.New(bot.Config{
		SigningSecret:    cfg.Slack.SigningSecret,
		VerifySignatures: cfg.Slack.VerifySignatures,
		GoButton:         cfg.Slack.GoButton,
		ClickAck:         bot.ClickAck(cfg.Slack.ClickAck),
		DefaultMode:      defaultMode,
	}, store, allocator, filter, slackapi.NewClient(cfg.Slack.BotToken), m, logger)

	if !cfg.Slack.VerifySignatures {
		logger.Warn("Slack signature verification is disabled")
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      b.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", cfg.Server.Addr),
			zap.String("default_mode", string(defaultMode)),
			zap.String("moderation_on_error", string(policy)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
