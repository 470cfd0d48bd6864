package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xaenox/anon-bot/internal/storage"
	"go.uber.org/zap"
)

// newAdminCommand manages the users allowed to change channel modes.
func newAdminCommand() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage bot administrators",
	}

	admin.AddCommand(
		&cobra.Command{
			Use:   "add USER_ID",
			Short: "Grant administrator rights to a Slack user",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(ctx context.Context, cmd *cobra.Command, store storage.Storage, logger *zap.Logger, args []string) error {
				if err := store.AddAdmin(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to add admin: %w", err)
				}
				logger.Info("Added admin", zap.String("user_id", args[0]))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "remove USER_ID",
			Short: "Revoke administrator rights",
			Args:  cobra.ExactArgs(1),
			RunE: withStore(func(ctx context.Context, cmd *cobra.Command, store storage.Storage, logger *zap.Logger, args []string) error {
				err := store.RemoveAdmin(ctx, args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("user %s is not an admin", args[0])
				}
				if err != nil {
					return fmt.Errorf("failed to remove admin: %w", err)
				}
				logger.Info("Removed admin", zap.String("user_id", args[0]))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List administrators",
			Args:  cobra.NoArgs,
			RunE: withStore(func(ctx context.Context, cmd *cobra.Command, store storage.Storage, logger *zap.Logger, args []string) error {
				admins, err := store.ListAdmins(ctx)
				if err != nil {
					return fmt.Errorf("failed to list admins: %w", err)
				}
				for _, a := range admins {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", a.UserID, a.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				return nil
			}),
		},
	)

	return admin
}

type storeFunc func(ctx context.Context, cmd *cobra.Command, store storage.Storage, logger *zap.Logger, args []string) error

// withStore opens the configured storage around fn.
func withStore(fn storeFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.Database.UseInMemory {
			logger.Warn("Admin changes against in-memory storage are lost on exit")
		}

		ctx := cmd.Context()
		store, err := openStorage(ctx, cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		defer store.Close()

		return fn(ctx, cmd, store, logger, args)
	}
}
