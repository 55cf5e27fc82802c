package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lifequest_bot/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var ErrNotFound = errors.New("not found")

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"

	maxTxAttempts = 3
)

type txKey struct{}

type Repository struct {
	db              *sqlx.DB
	driver          string
	placeholder     squirrel.PlaceholderFormat
	startingBalance int
	now             func() time.Time
}

type Option func(*Repository)

// WithStartingBalance sets the balance a user row is created with.
func WithStartingBalance(coins int) Option {
	return func(r *Repository) {
		r.startingBalance = coins
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Repository) {
		r.now = now
	}
}

type Config struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Path     string `mapstructure:"path"`
}

func New(cfg Config, opts ...Option) (*Repository, error) {
	r := &Repository{
		driver:      cfg.Driver,
		placeholder: squirrel.Dollar,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}

	var (
		db  *sqlx.DB
		err error
	)
	switch cfg.Driver {
	case DriverPostgres, "":
		r.driver = DriverPostgres
		db, err = sqlx.Connect("pgx", cfg.GetDatabaseURL())
	case DriverSQLite:
		r.placeholder = squirrel.Question
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		db, err = sqlx.Connect("sqlite", cfg.GetDatabaseURL())
		if err == nil {
			// SQLite allows one writer; a single connection keeps
			// transactions from tripping over each other.
			db.SetMaxOpenConns(1)
		}
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	r.db = db

	if err = r.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Logger().Info("Connected to database successfully", zap.String("driver", r.driver))

	return r, nil
}

func (c *Config) GetDatabaseURL() string {
	if c.Driver == DriverSQLite {
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", c.Path)
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Transaction runs fn inside one database transaction. Repository calls made
// with the context handed to fn join that transaction. Nested calls reuse the
// outer transaction. Serialization failures are retried.
func (r *Repository) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err = r.transaction(ctx, fn)
		if err == nil || !IsRetryable(err) {
			return err
		}
		logger.Logger().Warn("Retrying transaction", zap.Int("attempt", attempt), zap.Error(err))
	}
	return err
}

func (r *Repository) transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = fn(context.WithValue(ctx, txKey{}, tx))
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

func (r *Repository) conn(ctx context.Context) sqlx.ExtContext {
	if tx, ok := ctx.Value(txKey{}).(*sqlx.Tx); ok {
		return tx
	}
	return r.db
}

func (r *Repository) sql() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(r.placeholder)
}

func (r *Repository) nowMillis() int64 {
	return toMillis(r.now())
}

// IsRetryable reports whether err is a transient conflict worth running the
// transaction again for.
func IsRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001" || pgErr.Code == "40P01"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code() & 0xff
		return code == sqlite3.SQLITE_BUSY || code == sqlite3.SQLITE_LOCKED
	}
	return false
}

// IsUniqueViolation reports whether err is a unique or primary key conflict.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func fromNullMillis(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := fromMillis(*ms)
	return &t
}
