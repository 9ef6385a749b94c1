package database

import (
	"context"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/totegamma/repoindex/internal/domain"
)

var partitionPattern = regexp.MustCompile(`^[A-Za-z_]+$`)

func validatePartition(partition string) error {
	if partition == "" || partitionPattern.MatchString(partition) {
		return nil
	}
	return domain.ConfigurationError{Field: "partition", Reason: "must match " + partitionPattern.String()}
}

// NewPostgres opens a pooled connection. When partition is set every new
// connection is pinned to that schema.
func NewPostgres(ctx context.Context, dsn, partition string, gormLogger logger.Interface) (*gorm.DB, error) {
	if err := validatePartition(partition); err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Wrap(err, "parse postgres dsn")
	}

	var opts []stdlib.OptionOpenDB
	if partition != "" {
		opts = append(opts, stdlib.OptionAfterConnect(func(ctx context.Context, conn *pgx.Conn) error {
			_, err := conn.Exec(ctx, "SET search_path TO "+pgx.Identifier{partition}.Sanitize())
			return err
		}))
	}

	sqlDB := stdlib.OpenDB(*connConfig, opts...)
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, errors.Wrap(err, "connect postgres")
	}

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		TranslateError: true,
		Logger:         gormLogger,
	})
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}
