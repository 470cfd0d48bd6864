package storage

import (
	"context"
	"errors"
	"time"

	"github.com/xaenox/anon-bot/internal/models"
)

// ErrNotFound is returned when a keyed lookup has no row.
var ErrNotFound = errors.New("not found")

type Storage interface {
	ChannelStore
	PseudonymStore
	MessageStore
	AdminStore

	Migrate(ctx context.Context) error
	Close() error
}

type ChannelStore interface {
	GetChannelConfig(ctx context.Context, channelID string) (*models.ChannelConfig, error)
	UpsertChannelConfig(ctx context.Context, cfg *models.ChannelConfig) error
}

type PseudonymStore interface {
	GetPseudonym(ctx context.Context, userID, channelID string) (*models.PseudonymAssignment, error)
	// ListPseudonyms returns the assignments of a channel used strictly after since.
	ListPseudonyms(ctx context.Context, channelID string, since time.Time) ([]*models.PseudonymAssignment, error)
	UpsertPseudonym(ctx context.Context, a *models.PseudonymAssignment) error
}

type MessageStore interface {
	SaveMessage(ctx context.Context, msg *models.Message) error
	SaveInappropriateMessage(ctx context.Context, msg *models.InappropriateMessage) error
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	AddAdmin(ctx context.Context, userID string) error
	RemoveAdmin(ctx context.Context, userID string) error
	ListAdmins(ctx context.Context) ([]*models.AdminUser, error)
}
