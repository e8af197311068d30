package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "u", Password: "p", Name: "wanderplan", SSLMode: "disable"}
	assert.True(t, cfg.Enabled())
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=wanderplan sslmode=disable", cfg.DSN())

	cfg.URL = "postgres://u:p@db:5432/wanderplan"
	assert.Equal(t, cfg.URL, cfg.DSN())

	assert.False(t, Config{Port: "5432"}.Enabled())
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS credentials`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_GetCredential(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM credentials WHERE session_id = \$1 AND name = \$2`).
		WithArgs("s1", "GROQ_API_KEY").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("groq-key"))
	mock.ExpectQuery(`SELECT value FROM credentials`).
		WithArgs("s1", "SERP_API_KEY").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	store := NewCredentialStore(db)

	key, err := store.GetCredential(context.Background(), "s1", "GROQ_API_KEY")
	require.NoError(t, err)
	assert.Equal(t, "groq-key", key)

	key, err = store.GetCredential(context.Background(), "s1", "SERP_API_KEY")
	require.NoError(t, err)
	assert.Empty(t, key, "unsaved keys read as empty")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_GetCredentialError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT value FROM credentials`).WillReturnError(errors.New("connection reset"))

	_, err = NewCredentialStore(db).GetCredential(context.Background(), "s1", "GROQ_API_KEY")
	assert.ErrorContains(t, err, "connection reset")
}

func TestCredentialStore_SetCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO credentials .* ON CONFLICT \(session_id, name\)`).
		WithArgs("s1", "GEMINI_API_KEY", "gem-key").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = NewCredentialStore(db).SetCredentials(context.Background(), "s1", map[string]string{"GEMINI_API_KEY": "gem-key"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_SetCredentialsRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO credentials`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewCredentialStore(db).SetCredentials(context.Background(), "s1", map[string]string{"GEMINI_API_KEY": "gem-key"})
	require.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_SetCredentialsEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, NewCredentialStore(db).SetCredentials(context.Background(), "s1", nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_HasCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM credentials WHERE session_id = \$1\)`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("s2").
		WillReturnError(errors.New("connection reset"))

	store := NewCredentialStore(db)

	saved, err := store.HasCredentials(context.Background(), "s1")
	require.NoError(t, err)
	assert.True(t, saved)

	_, err = store.HasCredentials(context.Background(), "s2")
	assert.ErrorContains(t, err, "connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_Ping(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	assert.NoError(t, NewCredentialStore(db).Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
