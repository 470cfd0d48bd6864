package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/anon-bot/internal/models"
)

type pseudonymKey struct {
	userID    string
	channelID string
}

type MemoryStorage struct {
	mu            sync.RWMutex
	channels      map[string]*models.ChannelConfig
	pseudonyms    map[pseudonymKey]*models.PseudonymAssignment
	messages      []*models.Message
	inappropriate []*models.InappropriateMessage
	admins        map[string]*models.AdminUser
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		channels:   make(map[string]*models.ChannelConfig),
		pseudonyms: make(map[pseudonymKey]*models.PseudonymAssignment),
		admins:     make(map[string]*models.AdminUser),
	}
}

// Channel methods
func (s *MemoryStorage) GetChannelConfig(ctx context.Context, channelID string) (*models.ChannelConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cfg, exists := s.channels[channelID]
	if !exists {
		return nil, ErrNotFound
	}
	c := *cfg
	return &c, nil
}

func (s *MemoryStorage) UpsertChannelConfig(ctx context.Context, cfg *models.ChannelConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *cfg
	s.channels[cfg.ChannelID] = &c
	return nil
}

// Pseudonym methods
func (s *MemoryStorage) GetPseudonym(ctx context.Context, userID, channelID string) (*models.PseudonymAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.pseudonyms[pseudonymKey{userID, channelID}]
	if !exists {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *MemoryStorage) ListPseudonyms(ctx context.Context, channelID string, since time.Time) ([]*models.PseudonymAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.PseudonymAssignment
	for key, a := range s.pseudonyms {
		if key.channelID != channelID || !a.LastUsedAt.After(since) {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].LastUsedAt.After(result[j].LastUsedAt)
	})
	return result, nil
}

func (s *MemoryStorage) UpsertPseudonym(ctx context.Context, a *models.PseudonymAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.pseudonyms[pseudonymKey{a.UserID, a.ChannelID}] = &cp
	return nil
}

// Message methods
func (s *MemoryStorage) SaveMessage(ctx context.Context, msg *models.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *msg
	cp.Text = msg.LoggedText()
	s.messages = append(s.messages, &cp)
	return nil
}

func (s *MemoryStorage) SaveInappropriateMessage(ctx context.Context, msg *models.InappropriateMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *msg
	s.inappropriate = append(s.inappropriate, &cp)
	return nil
}

// Messages returns a copy of the relayed message log.
func (s *MemoryStorage) Messages() []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

// InappropriateMessages returns a copy of the moderation audit log.
func (s *MemoryStorage) InappropriateMessages() []models.InappropriateMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.InappropriateMessage, len(s.inappropriate))
	for i, m := range s.inappropriate {
		out[i] = *m
	}
	return out
}

// Admin methods
func (s *MemoryStorage) IsAdmin(ctx context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, exists := s.admins[userID]
	return exists, nil
}

func (s *MemoryStorage) AddAdmin(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[userID]; exists {
		return nil
	}
	s.admins[userID] = &models.AdminUser{UserID: userID, CreatedAt: time.Now()}
	return nil
}

func (s *MemoryStorage) RemoveAdmin(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.admins[userID]; !exists {
		return ErrNotFound
	}
	delete(s.admins, userID)
	return nil
}

func (s *MemoryStorage) ListAdmins(ctx context.Context) ([]*models.AdminUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*models.AdminUser, 0, len(s.admins))
	for _, a := range s.admins {
		cp := *a
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].UserID < result[j].UserID
	})
	return result, nil
}

func (s *MemoryStorage) Migrate(ctx context.Context) error {
	// Nothing to migrate for in-memory storage
	return nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
