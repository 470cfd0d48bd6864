// Package pseudonym hands out per-channel aliases that expire after a
// validity window.
package pseudonym

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/xaenox/anon-bot/internal/models"
	"github.com/xaenox/anon-bot/internal/storage"
	"go.uber.org/zap"
)

// DefaultWindow is how long an alias stays attached to a user without use.
const DefaultWindow = time.Hour

// Rand is the randomness source used to draw aliases.
type Rand interface {
	Intn(n int) int
}

// globalRand uses the goroutine-safe package-level source.
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

type Allocator struct {
	store  storage.PseudonymStore
	pool   Pool
	window time.Duration
	rand   Rand
	logger *zap.Logger
}

type Option func(*Allocator)

// WithRand replaces the randomness source.
func WithRand(r Rand) Option {
	return func(a *Allocator) { a.rand = r }
}

func NewAllocator(store storage.PseudonymStore, pool Pool, window time.Duration, logger *zap.Logger, opts ...Option) *Allocator {
	if window <= 0 {
		window = DefaultWindow
	}
	if pool.Len() == 0 {
		pool = DefaultPool()
	}
	a := &Allocator{
		store:  store,
		pool:   pool,
		window: window,
		rand:   globalRand{},
		logger: logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Allocator) Pool() Pool {
	return a.pool
}

func (a *Allocator) Window() time.Duration {
	return a.window
}

// Resolve returns the alias of userID in channelID. A live assignment is kept
// and refreshed; otherwise a new alias is drawn from the names not currently
// held by someone else in the channel, or from the whole pool when none are free.
func (a *Allocator) Resolve(ctx context.Context, userID, channelID string, now time.Time) (string, error) {
	current, err := a.store.GetPseudonym(ctx, userID, channelID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", fmt.Errorf("failed to load pseudonym: %w", err)
	}

	if current != nil && current.ActiveAt(now, a.window) {
		current.LastUsedAt = now
		if err := a.store.UpsertPseudonym(ctx, current); err != nil {
			return "", fmt.Errorf("failed to refresh pseudonym: %w", err)
		}
		return current.Pseudo, nil
	}

	active, err := a.store.ListPseudonyms(ctx, channelID, now.Add(-a.window))
	if err != nil {
		return "", fmt.Errorf("failed to list pseudonyms: %w", err)
	}

	inUse := make(map[string]struct{}, len(active))
	for _, other := range active {
		if other.UserID == userID {
			continue
		}
		inUse[strings.ToLower(other.Pseudo)] = struct{}{}
	}

	candidates := make([]string, 0, a.pool.Len())
	for _, name := range a.pool.names {
		if _, taken := inUse[strings.ToLower(name)]; !taken {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 0 {
		a.logger.Warn("Pseudonym pool exhausted, allowing collision",
			zap.String("channel_id", channelID),
			zap.Int("pool_size", a.pool.Len()))
		candidates = a.pool.names
	}

	alias := candidates[a.rand.Intn(len(candidates))]
	assignment := &models.PseudonymAssignment{
		UserID:     userID,
		ChannelID:  channelID,
		Pseudo:     alias,
		LastUsedAt: now,
	}
	if err := a.store.UpsertPseudonym(ctx, assignment); err != nil {
		return "", fmt.Errorf("failed to save pseudonym: %w", err)
	}

	a.logger.Debug("Assigned pseudonym",
		zap.String("user_id", userID),
		zap.String("channel_id", channelID),
		zap.String("alias", alias))

	return alias, nil
}

// LookupUser returns the user currently holding alias in channelID, matched
// case-insensitively. The empty string means nobody holds it. When a
// collision exists the most recently active holder wins.
func (a *Allocator) LookupUser(ctx context.Context, alias, channelID string, now time.Time) (string, error) {
	active, err := a.store.ListPseudonyms(ctx, channelID, now.Add(-a.window))
	if err != nil {
		return "", fmt.Errorf("failed to list pseudonyms: %w", err)
	}

	var (
		userID string
		latest time.Time
	)
	for _, assignment := range active {
		if !strings.EqualFold(assignment.Pseudo, alias) || !assignment.ActiveAt(now, a.window) {
			continue
		}
		if userID == "" || assignment.LastUsedAt.After(latest) {
			userID = assignment.UserID
			latest = assignment.LastUsedAt
		}
	}
	return userID, nil
}
