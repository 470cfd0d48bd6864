package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xaenox/anon-bot/internal/models"
)

func TestMemoryStorage_ChannelConfig(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if _, err := s.GetChannelConfig(ctx, "C1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	now := time.Now()
	if err := s.UpsertChannelConfig(ctx, &models.ChannelConfig{ChannelID: "C1", Mode: models.ModeFree, UpdatedAt: now}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if err := s.UpsertChannelConfig(ctx, &models.ChannelConfig{ChannelID: "C1", Mode: models.ModeRestricted, UpdatedAt: now.Add(time.Minute)}); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	cfg, err := s.GetChannelConfig(ctx, "C1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if cfg.Mode != models.ModeRestricted {
		t.Errorf("mode = %q, want RESTRICTED", cfg.Mode)
	}
	if !cfg.UpdatedAt.Equal(now.Add(time.Minute)) {
		t.Errorf("updated_at not overwritten: %v", cfg.UpdatedAt)
	}
}

func TestMemoryStorage_Pseudonyms(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	rows := []*models.PseudonymAssignment{
		{UserID: "U1", ChannelID: "C1", Pseudo: "Lynx", LastUsedAt: now.Add(-10 * time.Minute)},
		{UserID: "U2", ChannelID: "C1", Pseudo: "Otter", LastUsedAt: now.Add(-2 * time.Hour)},
		{UserID: "U3", ChannelID: "C2", Pseudo: "Heron", LastUsedAt: now},
		{UserID: "U4", ChannelID: "C1", Pseudo: "Badger", LastUsedAt: now.Add(-time.Minute)},
	}
	for _, r := range rows {
		if err := s.UpsertPseudonym(ctx, r); err != nil {
			t.Fatalf("upsert failed: %v", err)
		}
	}

	active, err := s.ListPseudonyms(ctx, "C1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active assignments, got %d", len(active))
	}
	if active[0].Pseudo != "Badger" || active[1].Pseudo != "Lynx" {
		t.Errorf("unexpected order: %s, %s", active[0].Pseudo, active[1].Pseudo)
	}

	got, err := s.GetPseudonym(ctx, "U2", "C1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	got.Pseudo = "mutated"
	again, _ := s.GetPseudonym(ctx, "U2", "C1")
	if again.Pseudo != "Otter" {
		t.Errorf("stored assignment mutated through returned pointer")
	}

	if _, err := s.GetPseudonym(ctx, "U3", "C1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other channel, got %v", err)
	}
}

func TestMemoryStorage_MessagesRedactDirectMessages(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if err := s.SaveMessage(ctx, &models.Message{ID: "m1", Text: "hello", ChannelName: "general"}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveMessage(ctx, &models.Message{ID: "m2", Text: "private", ChannelName: models.DirectMessageChannel}); err != nil {
		t.Fatal(err)
	}

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Text != "hello" {
		t.Errorf("channel message altered: %q", msgs[0].Text)
	}
	if msgs[1].Text != models.RedactedText {
		t.Errorf("DM message not redacted: %q", msgs[1].Text)
	}
}

func TestMemoryStorage_Admins(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	if ok, _ := s.IsAdmin(ctx, "U1"); ok {
		t.Fatal("empty store should have no admins")
	}
	if err := s.AddAdmin(ctx, "U2"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAdmin(ctx, "U1"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAdmin(ctx, "U1"); err != nil {
		t.Fatalf("adding an existing admin should be a no-op: %v", err)
	}

	admins, _ := s.ListAdmins(ctx)
	if len(admins) != 2 || admins[0].UserID != "U1" || admins[1].UserID != "U2" {
		t.Fatalf("unexpected admin list: %+v", admins)
	}

	if err := s.RemoveAdmin(ctx, "U1"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.IsAdmin(ctx, "U1"); ok {
		t.Error("U1 still admin after removal")
	}
	if err := s.RemoveAdmin(ctx, "U1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound removing missing admin, got %v", err)
	}
}
