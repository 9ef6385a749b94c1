package database_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database"
)

func TestOpenRejectsBadConfiguration(t *testing.T) {
	testCases := []struct {
		name string
		opts database.Options
	}{
		{
			name: "partition with digits",
			opts: database.Options{Driver: database.DriverPostgres, PostgresDSN: "postgres://unreachable.invalid/db", Partition: "test1"},
		},
		{
			name: "partition with quote",
			opts: database.Options{Driver: database.DriverPostgres, PostgresDSN: "postgres://unreachable.invalid/db", Partition: `x"; DROP SCHEMA public; --`},
		},
		{
			name: "partition on sqlite",
			opts: database.Options{Driver: database.DriverSqlite, Partition: "isolated"},
		},
		{
			name: "unknown driver",
			opts: database.Options{Driver: "mysql"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.opts.Logger = zerolog.Nop()
			_, err := database.Open(context.Background(), tc.opts)
			assert.True(t, errors.Is(err, domain.ErrConfiguration), "got %v", err)
		})
	}
}
