package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/xaenox/anon-bot/internal/models"
	"go.uber.org/zap/zaptest"
)

// setupMockDB creates a new mock database for testing.
func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *PostgresStorage) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}

	store := &PostgresStorage{db: db, logger: zaptest.NewLogger(t)}
	return db, mock, store
}

func TestPostgresStorage_GetChannelConfig(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name        string
		setupMock   func(sqlmock.Sqlmock)
		want        models.ChannelMode
		wantErr     error
		errContains string
	}{
		{
			name: "configured channel",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT channel_id, mode, updated_at").
					WithArgs("C1").
					WillReturnRows(sqlmock.NewRows([]string{"channel_id", "mode", "updated_at"}).
						AddRow("C1", "RESTRICTED", now))
			},
			want: models.ModeRestricted,
		},
		{
			name: "unknown channel",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT channel_id, mode, updated_at").
					WithArgs("C1").
					WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT channel_id, mode, updated_at").
					WithArgs("C1").
					WillReturnError(errors.New("connection refused"))
			},
			errContains: "error querying channel config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, store := setupMockDB(t)
			defer db.Close()
			tt.setupMock(mock)

			cfg, err := store.GetChannelConfig(context.Background(), "C1")
			switch {
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			case tt.errContains != "":
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("expected error containing %q, got %v", tt.errContains, err)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if cfg.Mode != tt.want {
					t.Errorf("mode = %q, want %q", cfg.Mode, tt.want)
				}
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("unfulfilled expectations: %v", err)
			}
		})
	}
}

func TestPostgresStorage_UpsertChannelConfig(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("INSERT INTO channel_configs").
		WithArgs("C1", "FREE", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertChannelConfig(context.Background(), &models.ChannelConfig{
		ChannelID: "C1",
		Mode:      models.ModeFree,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_ListPseudonyms(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	since := now.Add(-time.Hour)
	mock.ExpectQuery("SELECT user_id, channel_id, pseudo, last_used").
		WithArgs("C1", since).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "channel_id", "pseudo", "last_used"}).
			AddRow("U1", "C1", "Lynx", now).
			AddRow("U2", "C1", "Otter", now.Add(-time.Minute)))

	got, err := store.ListPseudonyms(context.Background(), "C1", since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Pseudo != "Lynx" || got[1].UserID != "U2" {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_GetPseudonymNotFound(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("FROM pseudonyms").
		WithArgs("U1", "C1").
		WillReturnError(sql.ErrNoRows)

	if _, err := store.GetPseudonym(context.Background(), "U1", "C1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStorage_UpsertPseudonym(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("INSERT INTO pseudonyms").
		WithArgs("U1", "C1", "Lynx", now).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpsertPseudonym(context.Background(), &models.PseudonymAssignment{
		UserID: "U1", ChannelID: "C1", Pseudo: "Lynx", LastUsedAt: now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_SaveMessageRedactsDirectMessages(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec("INSERT INTO messages").
		WithArgs("id-1", models.RedactedText, "U1", "D1", models.DirectMessageChannel, "https://hooks.slack.test/1", now).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.SaveMessage(context.Background(), &models.Message{
		ID:          "id-1",
		Text:        "private words",
		UserID:      "U1",
		ChannelID:   "D1",
		ChannelName: models.DirectMessageChannel,
		ResponseURL: "https://hooks.slack.test/1",
		CreatedAt:   now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestPostgresStorage_SaveInappropriateMessage(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO inappropriate_messages").
		WillReturnError(errors.New("disk full"))

	err := store.SaveInappropriateMessage(context.Background(), &models.InappropriateMessage{ID: "id-1", Text: "tu es nul"})
	if err == nil || !strings.Contains(err.Error(), "error saving inappropriate message") {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestPostgresStorage_IsAdmin(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("U1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.IsAdmin(context.Background(), "U1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected U1 to be admin")
	}
}

func TestPostgresStorage_RemoveAdminMissing(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("DELETE FROM admin_users").
		WithArgs("U1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.RemoveAdmin(context.Background(), "U1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresStorage_Migrate(t *testing.T) {
	db, mock, store := setupMockDB(t)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS channel_configs").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}
