package pgstorage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	// Postgres driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/domain/users"
	"github.com/andymarkow/bonustier/internal/storage"
	"github.com/andymarkow/bonustier/internal/storage/dbmodels"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

var _ storage.Storage = (*Storage)(nil)

type Storage struct {
	db *sql.DB
}

type Config struct {
	maxOpenConns    int
	maxIdleConns    int
	connMaxIdleTime time.Duration
	connMaxLifetime time.Duration
}

type Option func(s *Config)

func WithMaxOpenConns(conns int) Option {
	return func(c *Config) {
		c.maxOpenConns = conns
	}
}

func WithMaxIdleConns(conns int) Option {
	return func(c *Config) {
		c.maxIdleConns = conns
	}
}

func WithConnMaxIdleTime(idleTime time.Duration) Option {
	return func(c *Config) {
		c.connMaxIdleTime = idleTime
	}
}

func WithConnMaxLifetime(lifetime time.Duration) Option {
	return func(c *Config) {
		c.connMaxLifetime = lifetime
	}
}

func NewStorage(connStr string, opts ...Option) (*Storage, error) {
	cfg := &Config{
		maxOpenConns:    10,
		maxIdleConns:    5,
		connMaxIdleTime: 180 * time.Second,
		connMaxLifetime: 3600 * time.Second,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	db, err := sql.Open("pgx", connStr)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	db.SetMaxOpenConns(cfg.maxOpenConns)
	db.SetMaxIdleConns(cfg.maxIdleConns)
	db.SetConnMaxIdleTime(cfg.connMaxIdleTime)
	db.SetConnMaxLifetime(cfg.connMaxLifetime)

	return &Storage{
		db: db,
	}, nil
}

// Bootstrap applies the embedded database migrations.
func (s *Storage) Bootstrap(ctx context.Context) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("fs.Sub: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, s.db, migrations)
	if err != nil {
		return fmt.Errorf("goose.NewProvider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("provider.Up: %w", err)
	}

	return nil
}

func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("db.Close: %w", err)
	}

	return nil
}

// isRetryableError checks if error is retryable.
func isRetryableError(err error) bool {
	// Connection refused error
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgerrcode.IsConnectionException(pgErr.Code) {
		return true
	}

	return false
}

// WithRetry retries operations in case of retryable errors.
func WithRetry(operation func() error) error {
	// Retry count
	retryCount := 3

	// Initial retry wait time
	var retryWaitTime time.Duration

	// Define the interval between retries
	retryWaitInterval := 2

	var err error

	for i := 0; i < retryCount; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if isRetryableError(err) {
			retryWaitTime = time.Duration((i*retryWaitInterval + 1)) * time.Second // 1s, 3s, 5s, etc.

			time.Sleep(retryWaitTime)
		} else {
			return fmt.Errorf("%w", err)
		}
	}

	return fmt.Errorf("retry attempts exceeded: %w", err)
}

func (s *Storage) Ping(ctx context.Context) error {
	err := WithRetry(func() error {
		if err := s.db.PingContext(ctx); err != nil {
			return fmt.Errorf("db.PingContext: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (s *Storage) CreateUser(ctx context.Context, usr *users.User) error {
	err := WithRetry(func() error {
		query := `INSERT INTO users (id, login, password_hash, spending, level) VALUES ($1, $2, $3, $4, $5)`

		if _, err := s.db.ExecContext(ctx, query,
			usr.ID(), usr.Login(), usr.PasswordHash(), usr.Spending(), usr.Level(),
		); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code) {
				return storage.ErrUserAlreadyExists
			}

			return fmt.Errorf("db.ExecContext: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (s *Storage) GetUserByLogin(ctx context.Context, login string) (*users.User, error) {
	query := `SELECT id, login, password_hash, spending, level FROM users WHERE login = $1`

	return s.getUser(ctx, query, login)
}

func (s *Storage) GetUserByID(ctx context.Context, id string) (*users.User, error) {
	query := `SELECT id, login, password_hash, spending, level FROM users WHERE id = $1`

	return s.getUser(ctx, query, id)
}

func (s *Storage) getUser(ctx context.Context, query string, arg any) (*users.User, error) {
	dbUser := new(dbmodels.User)

	err := WithRetry(func() error {
		row := s.db.QueryRowContext(ctx, query, arg)

		if err := row.Scan(
			&dbUser.ID, &dbUser.Login, &dbUser.PasswordHash, &dbUser.Spending, &dbUser.Level,
		); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return storage.ErrUserNotFound
			}

			return fmt.Errorf("db.QueryRowContext: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	user, err := users.NewUser(dbUser.ID, dbUser.Login, dbUser.PasswordHash, dbUser.Spending, dbUser.Level)
	if err != nil {
		return nil, fmt.Errorf("users.NewUser: %w", err)
	}

	return user, nil
}

func (s *Storage) UpdateUserSpending(ctx context.Context, id string, prev, next decimal.Decimal, level string) error {
	err := WithRetry(func() error {
		query := `UPDATE users SET spending = $1, level = $2 WHERE id = $3 AND spending = $4`

		res, err := s.db.ExecContext(ctx, query, next, level, id, prev)
		if err != nil {
			return fmt.Errorf("db.ExecContext: %w", err)
		}

		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("res.RowsAffected: %w", err)
		}

		// Either the account vanished or its spending moved under us.
		// The caller re-reads to tell the two apart.
		if rows == 0 {
			return storage.ErrSpendingConflict
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (s *Storage) SeedTiers(ctx context.Context, tt []tiers.Tier) error {
	err := WithRetry(func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("db.BeginTx: %w", err)
		}
		defer tx.Rollback() //nolint:errcheck

		query := `INSERT INTO bonus_tiers (name, min_spending) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`

		for _, t := range tt {
			if _, err := tx.ExecContext(ctx, query, t.Name(), t.MinSpending()); err != nil {
				return fmt.Errorf("tx.ExecContext: %w", err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("tx.Commit: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (s *Storage) ListTiers(ctx context.Context) ([]tiers.Tier, error) {
	dbTiers := make([]*dbmodels.BonusTier, 0)

	err := WithRetry(func() error {
		query := `SELECT name, min_spending FROM bonus_tiers ORDER BY min_spending ASC`

		rows, err := s.db.QueryContext(ctx, query)
		if err != nil {
			return fmt.Errorf("db.QueryContext: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			dbTier := new(dbmodels.BonusTier)

			if err := rows.Scan(&dbTier.Name, &dbTier.MinSpending); err != nil {
				return fmt.Errorf("rows.Scan: %w", err)
			}

			dbTiers = append(dbTiers, dbTier)
		}

		if err := rows.Err(); err != nil {
			return fmt.Errorf("rows.Err: %w", err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	tt := make([]tiers.Tier, 0, len(dbTiers))

	for _, dbTier := range dbTiers {
		tier, err := tiers.NewTier(dbTier.Name, dbTier.MinSpending)
		if err != nil {
			return nil, fmt.Errorf("tiers.NewTier: %w", err)
		}

		tt = append(tt, tier)
	}

	return tt, nil
}
