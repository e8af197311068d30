package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// ─── Config ───────────────────────────────────────────────────────────────────

type Config struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Enabled reports whether any connection setting was given.
func (c Config) Enabled() bool {
	return c.URL != "" || c.Host != ""
}

// DSN prefers a full DATABASE_URL (as set by hosted Postgres) over the
// individual settings.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// ─── Init ─────────────────────────────────────────────────────────────────────

// Open connects, waits for the server to come up, and runs migrations.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	for i := 0; i < 10; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Warn("Waiting for database", slog.Int("attempt", i+1), slog.Any("error", err))
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database after retries: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	logger.Info("Database connected and migrated")
	return db, nil
}

// ─── Migrations ───────────────────────────────────────────────────────────────

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS credentials (
		session_id TEXT NOT NULL,
		name       TEXT NOT NULL,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ DEFAULT NOW(),
		PRIMARY KEY (session_id, name)
	)`,
}

func Migrate(ctx context.Context, db *sql.DB) error {
	for _, m := range migrations {
		if _, err := db.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// ─── Credential Store ─────────────────────────────────────────────────────────

// CredentialStore keeps vendor keys as plain strings, one row per session and
// key name. No encryption, no expiry.
type CredentialStore struct {
	db *sql.DB
}

func NewCredentialStore(db *sql.DB) *CredentialStore {
	return &CredentialStore{db: db}
}

// GetCredential returns "" when the key was never saved.
func (s *CredentialStore) GetCredential(ctx context.Context, sessionID, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM credentials WHERE session_id = $1 AND name = $2`,
		sessionID, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read credential %s: %w", name, err)
	}
	return value, nil
}

// SetCredentials overwrites the given keys in one transaction.
func (s *CredentialStore) SetCredentials(ctx context.Context, sessionID string, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for name, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO credentials (session_id, name, value, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (session_id, name)
			DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`,
			sessionID, name, value); err != nil {
			return fmt.Errorf("failed to save credential %s: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit credentials: %w", err)
	}
	return nil
}

// HasCredentials lets a session that outlived the process be resumed.
func (s *CredentialStore) HasCredentials(ctx context.Context, sessionID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM credentials WHERE session_id = $1)`,
		sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to look up session %s: %w", sessionID, err)
	}
	return exists, nil
}

func (s *CredentialStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
