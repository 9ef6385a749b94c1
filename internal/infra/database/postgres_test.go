package database_test

import (
	"context"
	"math/rand"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/infra/database"
	"github.com/totegamma/repoindex/internal/infra/database/storetest"
)

const partitionLetters = "abcdefghijklmnopqrstuvwxyz"

func randomPartition() string {
	b := make([]byte, 12)
	for i := range b {
		b[i] = partitionLetters[rand.Intn(len(partitionLetters))]
	}
	return "test_" + string(b)
}

func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("REPOINDEX_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("REPOINDEX_TEST_POSTGRES_DSN not set")
	}

	storetest.Run(t, func(t *testing.T, opts database.Options) *database.Database {
		ctx := context.Background()

		opts.Driver = database.DriverPostgres
		opts.PostgresDSN = dsn
		opts.Partition = randomPartition()
		opts.Logger = zerolog.Nop()

		db, err := database.Open(ctx, opts)
		require.NoError(t, err)
		t.Cleanup(func() {
			db.DropPartition(context.Background())
			db.Close()
		})

		require.NoError(t, db.CreateTables(ctx))
		return db
	})
}

func mustURI(t *testing.T, raw string) repoindex.RecordURI {
	t.Helper()
	u, err := repoindex.ParseURI(raw)
	require.NoError(t, err)
	return u
}
