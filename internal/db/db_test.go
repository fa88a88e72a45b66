package db

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/folio-backend/internal/config"
)

func TestSchemaDeclaresAllTables(t *testing.T) {
	for _, table := range []string{
		"email_campaigns", "newsletter_subscribers", "unsubscribe_tokens",
		"email_send_log", "page_views", "settings", "data_backups",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table, table)
	}
}

func TestMigrate(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE EXTENSION IF NOT EXISTS pgcrypto")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), conn))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedRunsFilesInOrder(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	dir := t.TempDir()
	first := filepath.Join(dir, "subscribers.sql")
	second := filepath.Join(dir, "campaigns.sql")
	require.NoError(t, os.WriteFile(first, []byte("INSERT INTO newsletter_subscribers (email) VALUES ('a@b.c')"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("INSERT INTO email_campaigns (subject, html_content) VALUES ('Hi', '<p/>')"), 0o644))

	mock.ExpectExec("INSERT INTO newsletter_subscribers").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO email_campaigns").WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, Seed(context.Background(), conn, []string{first, second}, zerolog.Nop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenRequiresURL(t *testing.T) {
	_, err := Open(context.Background(), config.DatabaseConfig{}, zerolog.Nop())
	assert.Error(t, err)
}
