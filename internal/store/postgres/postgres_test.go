package postgres_test

import (
	"context"
	"os"
	"testing"

	"lessonpath-backend-go/internal/db"
	"lessonpath-backend-go/internal/migrations"
	"lessonpath-backend-go/internal/store"
	"lessonpath-backend-go/internal/store/postgres"
	"lessonpath-backend-go/internal/store/storetest"

	"github.com/stretchr/testify/require"
)

// The suite truncates every table, so point TEST_DATABASE_URL at a
// throwaway database.
func TestStoreContract(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	database, err := db.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, migrations.Apply(ctx, database))

	storetest.Run(t, func(t *testing.T) store.Store {
		_, err := database.ExecContext(ctx, `TRUNCATE lesson_visits, time_records, lessons, allowlist_entries, users, settings`)
		require.NoError(t, err)
		return postgres.New(database)
	})
}
