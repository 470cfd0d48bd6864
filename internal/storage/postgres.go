package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/xaenox/anon-bot/internal/models"
	"go.uber.org/zap"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DSN renders the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStorage(ctx context.Context, config DatabaseConfig, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	logger.Info("Connected to PostgreSQL",
		zap.String("host", config.Host),
		zap.Int("port", config.Port),
		zap.String("dbname", config.DBName))

	return &PostgresStorage{db: db, logger: logger}, nil
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetChannelConfig(ctx context.Context, channelID string) (*models.ChannelConfig, error) {
	query := `
		SELECT channel_id, mode, updated_at
		FROM channel_configs
		WHERE channel_id = $1`

	cfg := &models.ChannelConfig{}
	err := s.db.QueryRowContext(ctx, query, channelID).Scan(&cfg.ChannelID, &cfg.Mode, &cfg.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying channel config: %w", err)
	}

	return cfg, nil
}

func (s *PostgresStorage) UpsertChannelConfig(ctx context.Context, cfg *models.ChannelConfig) error {
	query := `
		INSERT INTO channel_configs (channel_id, mode, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (channel_id)
		DO UPDATE SET mode = EXCLUDED.mode, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.ExecContext(ctx, query, cfg.ChannelID, string(cfg.Mode), cfg.UpdatedAt); err != nil {
		return fmt.Errorf("error upserting channel config: %w", err)
	}

	return nil
}

func (s *PostgresStorage) GetPseudonym(ctx context.Context, userID, channelID string) (*models.PseudonymAssignment, error) {
	query := `
		SELECT user_id, channel_id, pseudo, last_used
		FROM pseudonyms
		WHERE user_id = $1 AND channel_id = $2`

	a := &models.PseudonymAssignment{}
	err := s.db.QueryRowContext(ctx, query, userID, channelID).Scan(&a.UserID, &a.ChannelID, &a.Pseudo, &a.LastUsedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying pseudonym: %w", err)
	}

	return a, nil
}

func (s *PostgresStorage) ListPseudonyms(ctx context.Context, channelID string, since time.Time) ([]*models.PseudonymAssignment, error) {
	query := `
		SELECT user_id, channel_id, pseudo, last_used
		FROM pseudonyms
		WHERE channel_id = $1 AND last_used > $2
		ORDER BY last_used DESC`

	rows, err := s.db.QueryContext(ctx, query, channelID, since)
	if err != nil {
		return nil, fmt.Errorf("error querying pseudonyms: %w", err)
	}
	defer rows.Close()

	var result []*models.PseudonymAssignment
	for rows.Next() {
		a := &models.PseudonymAssignment{}
		if err := rows.Scan(&a.UserID, &a.ChannelID, &a.Pseudo, &a.LastUsedAt); err != nil {
			return nil, fmt.Errorf("error scanning pseudonym: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pseudonyms: %w", err)
	}

	return result, nil
}

func (s *PostgresStorage) UpsertPseudonym(ctx context.Context, a *models.PseudonymAssignment) error {
	query := `
		INSERT INTO pseudonyms (user_id, channel_id, pseudo, last_used)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, channel_id)
		DO UPDATE SET pseudo = EXCLUDED.pseudo, last_used = EXCLUDED.last_used`

	if _, err := s.db.ExecContext(ctx, query, a.UserID, a.ChannelID, a.Pseudo, a.LastUsedAt); err != nil {
		return fmt.Errorf("error upserting pseudonym: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveMessage(ctx context.Context, msg *models.Message) error {
	query := `
		INSERT INTO messages (id, text, user_id, channel_id, channel_name, response_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.LoggedText(),
		msg.UserID,
		msg.ChannelID,
		msg.ChannelName,
		msg.ResponseURL,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving message: %w", err)
	}

	return nil
}

func (s *PostgresStorage) SaveInappropriateMessage(ctx context.Context, msg *models.InappropriateMessage) error {
	query := `
		INSERT INTO inappropriate_messages (id, text, user_id, channel_id, channel_name, response_url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.Text,
		msg.UserID,
		msg.ChannelID,
		msg.ChannelName,
		msg.ResponseURL,
		msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("error saving inappropriate message: %w", err)
	}

	return nil
}

func (s *PostgresStorage) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var isAdmin bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM admin_users WHERE user_id = $1)`, userID).Scan(&isAdmin)
	if err != nil {
		return false, fmt.Errorf("error checking admin: %w", err)
	}
	return isAdmin, nil
}

func (s *PostgresStorage) AddAdmin(ctx context.Context, userID string) error {
	query := `
		INSERT INTO admin_users (user_id, created_at)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := s.db.ExecContext(ctx, query, userID, time.Now()); err != nil {
		return fmt.Errorf("error adding admin: %w", err)
	}
	return nil
}

func (s *PostgresStorage) RemoveAdmin(ctx context.Context, userID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM admin_users WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("error removing admin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStorage) ListAdmins(ctx context.Context) ([]*models.AdminUser, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, created_at FROM admin_users ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("error querying admins: %w", err)
	}
	defer rows.Close()

	var admins []*models.AdminUser
	for rows.Next() {
		a := &models.AdminUser{}
		if err := rows.Scan(&a.UserID, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning admin: %w", err)
		}
		admins = append(admins, a)
	}

	return admins, rows.Err()
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
