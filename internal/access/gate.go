// Package access decides whether a channel accepts anonymous messages and
// lets admins change that.
package access

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xaenox/anon-bot/internal/models"
	"github.com/xaenox/anon-bot/internal/storage"
	"go.uber.org/zap"
)

// DefaultMode applies to channels that were never configured.
const DefaultMode = models.ModeDisabled

var (
	ErrForbidden   = errors.New("only administrators can configure channel modes")
	ErrInvalidMode = errors.New("invalid channel mode")
)

// InvalidModeError carries the rejected input and the accepted values.
type InvalidModeError struct {
	Input string
	Valid []models.ChannelMode
}

func (e *InvalidModeError) Error() string {
	return fmt.Sprintf("invalid mode %q, use one of: %s", e.Input, e.ValidList())
}

func (e *InvalidModeError) Unwrap() error {
	return ErrInvalidMode
}

// ValidList joins the accepted modes with commas.
func (e *InvalidModeError) ValidList() string {
	names := make([]string, len(e.Valid))
	for i, m := range e.Valid {
		names[i] = string(m)
	}
	return strings.Join(names, ", ")
}

type Store interface {
	storage.ChannelStore
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type Gate struct {
	store       Store
	defaultMode models.ChannelMode
	now         func() time.Time
	logger      *zap.Logger
}

func NewGate(store Store, defaultMode models.ChannelMode, logger *zap.Logger) *Gate {
	if defaultMode == "" {
		defaultMode = DefaultMode
	}
	return &Gate{
		store:       store,
		defaultMode: defaultMode,
		now:         time.Now,
		logger:      logger,
	}
}

func (g *Gate) DefaultMode() models.ChannelMode {
	return g.defaultMode
}

// Mode returns the configured mode of channelID, or the default mode when
// the channel has no configuration.
func (g *Gate) Mode(ctx context.Context, channelID string) (models.ChannelMode, error) {
	cfg, err := g.store.GetChannelConfig(ctx, channelID)
	if errors.Is(err, storage.ErrNotFound) {
		return g.defaultMode, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get channel mode: %w", err)
	}
	return cfg.Mode, nil
}

// SetMode stores a new mode for channelID on behalf of userID. Nothing is
// written unless userID is an admin and modeText names a valid mode.
func (g *Gate) SetMode(ctx context.Context, channelID, modeText, userID string) (models.ChannelMode, error) {
	isAdmin, err := g.store.IsAdmin(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to check admin: %w", err)
	}
	if !isAdmin {
		g.logger.Info("Unauthorized configure attempt",
			zap.String("user_id", userID),
			zap.String("channel_id", channelID))
		return "", ErrForbidden
	}

	mode, err := models.ParseChannelMode(modeText)
	if err != nil {
		return "", &InvalidModeError{Input: modeText, Valid: models.AllChannelModes()}
	}

	cfg := &models.ChannelConfig{
		ChannelID: channelID,
		Mode:      mode,
		UpdatedAt: g.now(),
	}
	if err := g.store.UpsertChannelConfig(ctx, cfg); err != nil {
		return "", fmt.Errorf("failed to update channel mode: %w", err)
	}

	g.logger.Info("Channel mode updated",
		zap.String("channel_id", channelID),
		zap.String("mode", string(mode)),
		zap.String("user_id", userID))

	return mode, nil
}
