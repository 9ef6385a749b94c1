// Package database is the record store: it keeps the generic record log, the
// typed index tables of every plugin and the notifications derived from them
// consistent on either sqlite or postgres.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/totegamma/repoindex"
	"github.com/totegamma/repoindex/internal/domain"
	"github.com/totegamma/repoindex/internal/infra/database/models"
	"github.com/totegamma/repoindex/internal/infra/index"
	"github.com/totegamma/repoindex/internal/infra/repository"
	"github.com/totegamma/repoindex/internal/lexicon"
)

var tracer = otel.Tracer("database")

type Driver string

const (
	DriverSqlite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

const didCacheTTL = 10 * time.Minute

// Publisher fans committed notifications out to live subscribers.
type Publisher interface {
	PublishNotifications(ctx context.Context, events []domain.NotificationEvent) error
}

type Options struct {
	Driver      Driver
	SqlitePath  string
	PostgresDSN string
	Partition   string

	// BestEffort drops the write transaction: IndexRecord runs its steps one
	// after another and DeleteRecord runs them concurrently, neither rolls back.
	BestEffort bool

	Validator index.SchemaValidator // defaults to the bundled lexicon
	Catalog   *index.Catalog        // defaults to index.DefaultCatalog
	Publisher Publisher             // optional
	RootCache *memcache.Client      // optional
	Logger    zerolog.Logger

	// Clock stamps indexed_at; time.Now when nil.
	Clock func() time.Time
}

type Database struct {
	db         *gorm.DB
	driver     Driver
	partition  string
	bestEffort bool

	catalog *index.Catalog
	records *repository.RecordRepository
	roots   *repository.RepoRootRepository
	users   *repository.UserRepository
	notifs  *repository.NotificationRepository
	feed    *repository.FeedRepository

	publisher Publisher
	rootCache *memcache.Client
	didCache  *cache.Cache
	clock     func() time.Time
	log       zerolog.Logger
}

// Open validates opts and connects to the selected backend. Configuration
// errors are reported before any connection is attempted.
func Open(ctx context.Context, opts Options) (*Database, error) {
	if err := validatePartition(opts.Partition); err != nil {
		return nil, err
	}
	if opts.Partition != "" && opts.Driver != DriverPostgres {
		return nil, domain.ConfigurationError{Field: "partition", Reason: "only supported by postgres"}
	}

	catalog := opts.Catalog
	if catalog == nil {
		validator := opts.Validator
		if validator == nil {
			v, err := lexicon.New()
			if err != nil {
				return nil, err
			}
			validator = v
		}
		catalog = index.DefaultCatalog(validator)
	}

	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	gormLogger := NewGormLogger(opts.Logger)

	var db *gorm.DB
	var err error
	switch opts.Driver {
	case DriverSqlite:
		db, err = NewSqlite(ctx, opts.SqlitePath, gormLogger)
	case DriverPostgres:
		db, err = NewPostgres(ctx, opts.PostgresDSN, opts.Partition, gormLogger)
	default:
		return nil, domain.ConfigurationError{Field: "driver", Reason: "unknown driver " + string(opts.Driver)}
	}
	if err != nil {
		return nil, err
	}

	return &Database{
		db:         db,
		driver:     opts.Driver,
		partition:  opts.Partition,
		bestEffort: opts.BestEffort,
		catalog:    catalog,
		records:    repository.NewRecordRepository(db),
		roots:      repository.NewRepoRootRepository(db),
		users:      repository.NewUserRepository(db),
		notifs:     repository.NewNotificationRepository(db),
		feed:       repository.NewFeedRepository(db),
		publisher:  opts.Publisher,
		rootCache:  opts.RootCache,
		didCache:   cache.New(didCacheTTL, 2*didCacheTTL),
		clock:      clock,
		log:        opts.Logger,
	}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateTables creates the partition and every table that does not exist yet.
func (d *Database) CreateTables(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Database.CreateTables")
	defer span.End()

	if d.driver == DriverPostgres && d.partition != "" {
		// partition already matched partitionPattern
		err := d.db.WithContext(ctx).Exec(`CREATE SCHEMA IF NOT EXISTS "` + d.partition + `"`).Error
		if err != nil {
			span.RecordError(err)
			return err
		}
	}

	tables := []any{
		&models.Record{},
		&models.RepoRoot{},
		&models.User{},
		&models.Notification{},
	}
	tables = append(tables, d.catalog.Tables()...)

	if err := d.db.WithContext(ctx).AutoMigrate(tables...); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// DropPartition removes the partition and everything in it.
func (d *Database) DropPartition(ctx context.Context) error {
	if d.driver != DriverPostgres || d.partition == "" {
		return nil
	}
	return d.db.WithContext(ctx).Exec(`DROP SCHEMA IF EXISTS "` + d.partition + `" CASCADE`).Error
}

// ValidateRecord never fails: an unknown collection is an incompatible verdict.
func (d *Database) ValidateRecord(collection string, obj map[string]any) domain.ValidationResult {
	plugin, err := d.catalog.FindTableForCollection(collection)
	if err != nil {
		return domain.ValidationResult{
			Valid:   false,
			Code:    domain.ValidationIncompatible,
			Message: "schema not found",
		}
	}
	return plugin.ValidateSchema(obj)
}

// CanIndexRecord reports whether obj validates. Unlike ValidateRecord it
// returns domain.NotFoundError for an unknown collection.
func (d *Database) CanIndexRecord(collection string, obj map[string]any) (bool, error) {
	plugin, err := d.catalog.FindTableForCollection(collection)
	if err != nil {
		return false, err
	}
	return plugin.ValidateSchema(obj).Valid, nil
}

// IndexRecord writes obj to the record log and its collection's typed table
// and stores the notifications it causes.
func (d *Database) IndexRecord(ctx context.Context, uri repoindex.RecordURI, obj map[string]any) error {
	ctx, span := tracer.Start(ctx, "Database.IndexRecord", trace.WithAttributes(
		attribute.String("uri", uri.String()),
	))
	defer span.End()

	if err := uri.Validate(); err != nil {
		err := domain.ContractViolationError{Reason: err.Error()}
		span.RecordError(err)
		return err
	}

	plugin, err := d.catalog.FindTableForCollection(uri.Collection)
	if err != nil {
		span.RecordError(err)
		return err
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		span.RecordError(err)
		return err
	}

	now := domain.Timestamp(d.clock())
	record := domain.RawRecord{
		URI:        uri,
		Raw:        string(raw),
		IndexedAt:  now,
		ReceivedAt: now,
	}
	notifs := plugin.NotifsForRecord(uri, obj, now)

	write := func(tx *gorm.DB) error {
		if err := d.records.WithTx(tx).Insert(ctx, record); err != nil {
			return err
		}
		if err := plugin.Insert(ctx, tx, uri, obj, now); err != nil {
			return err
		}
		return d.notifs.WithTx(tx).Process(ctx, notifs)
	}

	if d.bestEffort {
		err = write(d.db)
	} else {
		err = d.db.WithContext(ctx).Transaction(write)
	}
	if err != nil {
		span.RecordError(err)
		return err
	}

	d.publish(ctx, notifs)
	return nil
}

// DeleteRecord removes every trace of uri. Deleting an absent record succeeds.
func (d *Database) DeleteRecord(ctx context.Context, uri repoindex.RecordURI) error {
	ctx, span := tracer.Start(ctx, "Database.DeleteRecord", trace.WithAttributes(
		attribute.String("uri", uri.String()),
	))
	defer span.End()

	plugin, err := d.catalog.FindTableForCollection(uri.Collection)
	if err != nil {
		span.RecordError(err)
		return err
	}

	key := uri.String()

	if d.bestEffort {
		var g errgroup.Group
		g.Go(func() error { return plugin.Delete(ctx, d.db, uri) })
		g.Go(func() error { return d.records.Delete(ctx, key) })
		g.Go(func() error { return d.notifs.DeleteForRecord(ctx, key) })
		err = g.Wait()
	} else {
		err = d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := plugin.Delete(ctx, tx, uri); err != nil {
				return err
			}
			if err := d.records.WithTx(tx).Delete(ctx, key); err != nil {
				return err
			}
			return d.notifs.WithTx(tx).DeleteForRecord(ctx, key)
		})
	}
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (d *Database) publish(ctx context.Context, notifs []domain.NotificationEvent) {
	if d.publisher == nil || len(notifs) == 0 {
		return
	}
	if err := d.publisher.PublishNotifications(ctx, notifs); err != nil {
		d.log.Warn().Err(err).Int("count", len(notifs)).Msg("notification publish failed")
	}
}

// GetRecord returns nil, nil when uri is not indexed.
func (d *Database) GetRecord(ctx context.Context, uri repoindex.RecordURI) (map[string]any, error) {
	ctx, span := tracer.Start(ctx, "Database.GetRecord")
	defer span.End()

	record, err := d.records.Get(ctx, uri.String())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	return decodeRaw(record.Raw)
}

// ListCollectionsForDid lists the collection of every record of did in
// collection order. Names repeat once per record.
func (d *Database) ListCollectionsForDid(ctx context.Context, did string) ([]string, error) {
	ctx, span := tracer.Start(ctx, "Database.ListCollectionsForDid")
	defer span.End()

	collections, err := d.records.ListCollections(ctx, did)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return collections, nil
}

func (d *Database) ListRecordsForCollection(ctx context.Context, q domain.ListRecordsQuery) ([]domain.RecordEntry, error) {
	ctx, span := tracer.Start(ctx, "Database.ListRecordsForCollection")
	defer span.End()

	records, err := d.records.List(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	entries := make([]domain.RecordEntry, 0, len(records))
	for _, record := range records {
		value, err := decodeRaw(record.Raw)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		entries = append(entries, domain.RecordEntry{URI: record.URI, Value: value})
	}
	return entries, nil
}

// GetRepoRoot returns "" when did has no root.
func (d *Database) GetRepoRoot(ctx context.Context, did string) (string, error) {
	ctx, span := tracer.Start(ctx, "Database.GetRepoRoot")
	defer span.End()

	if root, ok := d.cachedRoot(did); ok {
		return root, nil
	}

	root, err := d.roots.Get(ctx, did)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	if root != "" {
		d.fillRoot(did, root)
	}
	return root, nil
}

func (d *Database) UpdateRepoRoot(ctx context.Context, did, root string) error {
	ctx, span := tracer.Start(ctx, "Database.UpdateRepoRoot")
	defer span.End()

	if err := d.roots.Upsert(ctx, did, root, domain.Timestamp(d.clock())); err != nil {
		span.RecordError(err)
		return err
	}
	d.forgetRoot(did)
	return nil
}

func (d *Database) RegisterUser(ctx context.Context, input domain.RegisterUserInput) error {
	ctx, span := tracer.Start(ctx, "Database.RegisterUser")
	defer span.End()

	if !repoindex.IsDID(input.Did) {
		err := domain.ContractViolationError{Reason: "user did must start with " + repoindex.DIDPrefix}
		span.RecordError(err)
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return err
	}

	now := domain.Timestamp(d.clock())
	err = d.users.Create(ctx, domain.User{
		Did:            input.Did,
		Username:       input.Username,
		Email:          input.Email,
		Password:       string(hash),
		CreatedAt:      now,
		LastSeenNotifs: now,
	})
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (d *Database) GetUser(ctx context.Context, handleOrDid string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Database.GetUser")
	defer span.End()

	user, err := d.users.Get(ctx, handleOrDid)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return user, nil
}

func (d *Database) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Database.GetUserByEmail")
	defer span.End()

	user, err := d.users.GetByEmail(ctx, email)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return user, nil
}

// GetUserDid passes dids through untouched and resolves usernames.
func (d *Database) GetUserDid(ctx context.Context, handleOrDid string) (string, error) {
	if repoindex.IsDID(handleOrDid) {
		return handleOrDid, nil
	}

	key := repository.FoldASCII(handleOrDid)
	if did, ok := d.didCache.Get(key); ok {
		return did.(string), nil
	}

	user, err := d.GetUser(ctx, handleOrDid)
	if err != nil {
		return "", err
	}

	d.didCache.Set(key, user.Did, cache.DefaultExpiration)
	return user.Did, nil
}

func (d *Database) UpdateUserPassword(ctx context.Context, did, password string) error {
	ctx, span := tracer.Start(ctx, "Database.UpdateUserPassword")
	defer span.End()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if err := d.users.UpdatePassword(ctx, did, string(hash)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// VerifyUserPassword reports false, nil for unknown users and wrong passwords.
func (d *Database) VerifyUserPassword(ctx context.Context, username, password string) (bool, error) {
	ctx, span := tracer.Start(ctx, "Database.VerifyUserPassword")
	defer span.End()

	user, err := d.users.Get(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	return true, nil
}

// ListNotifications returns the newest notifications of did first, marking
// those indexed up to the user's last seen time as read.
func (d *Database) ListNotifications(ctx context.Context, did string, limit int, before *string) ([]domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "Database.ListNotifications")
	defer span.End()

	lastSeen, err := d.lastSeenNotifs(ctx, did)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	rows, err := d.notifs.List(ctx, did, limit, before)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	notifications := make([]domain.Notification, 0, len(rows))
	for _, row := range rows {
		n := domain.Notification{
			NotificationEvent: domain.NotificationEvent{
				UserDid:       row.UserDid,
				RecordURI:     row.RecordURI,
				Author:        row.Author,
				Reason:        domain.NotificationReason(row.Reason),
				ReasonSubject: row.ReasonSubject,
				IndexedAt:     row.IndexedAt,
			},
			IsRead: row.IndexedAt <= lastSeen,
			Cursor: repository.NotificationCursor(row.Notification),
		}
		if row.RecordRaw != nil {
			n.Record, err = decodeRaw(*row.RecordRaw)
			if err != nil {
				span.RecordError(err)
				return nil, err
			}
		}
		notifications = append(notifications, n)
	}
	return notifications, nil
}

func (d *Database) CountUnreadNotifications(ctx context.Context, did string) (int64, error) {
	ctx, span := tracer.Start(ctx, "Database.CountUnreadNotifications")
	defer span.End()

	lastSeen, err := d.lastSeenNotifs(ctx, did)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}

	count, err := d.notifs.CountSince(ctx, did, lastSeen)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}

func (d *Database) UpdateNotificationsSeen(ctx context.Context, did string, seenAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Database.UpdateNotificationsSeen")
	defer span.End()

	if err := d.users.UpdateLastSeenNotifs(ctx, did, domain.Timestamp(seenAt)); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// lastSeenNotifs is "" for dids without an account, so nothing counts as read.
func (d *Database) lastSeenNotifs(ctx context.Context, did string) (string, error) {
	user, err := d.users.Get(ctx, did)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return user.LastSeenNotifs, nil
}

// GetFeedRows runs the feed join. Rows come back ordered by cursor, newest first.
func (d *Database) GetFeedRows(ctx context.Context, q domain.FeedQuery) ([]domain.FeedRow, error) {
	ctx, span := tracer.Start(ctx, "Database.GetFeedRows", trace.WithAttributes(
		attribute.String("algorithm", string(q.Algorithm)),
	))
	defer span.End()

	rows, err := d.feed.Rows(ctx, q)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return rows, nil
}

func decodeRaw(raw string) (map[string]any, error) {
	var value map[string]any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return nil, err
	}
	return value, nil
}
