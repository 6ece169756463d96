package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/domain/users"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")

	// ErrSpendingConflict reports a lost compare-and-swap race: the account's
	// spending changed between read and write, the caller must re-read and retry.
	ErrSpendingConflict = errors.New("user spending was modified concurrently")
)

type UserStorage interface {
	CreateUser(ctx context.Context, usr *users.User) error
	GetUserByLogin(ctx context.Context, login string) (*users.User, error)
	GetUserByID(ctx context.Context, id string) (*users.User, error)

	// UpdateUserSpending persists the new spending total and bonus level in a
	// single atomic write, guarded by the previously observed spending value.
	UpdateUserSpending(ctx context.Context, id string, prev, next decimal.Decimal, level string) error
}

type TierStorage interface {
	// SeedTiers inserts the tier catalog if it is not present yet. Idempotent
	// and safe to attempt concurrently at cold start.
	SeedTiers(ctx context.Context, tt []tiers.Tier) error
	ListTiers(ctx context.Context) ([]tiers.Tier, error)
}

type Storage interface {
	UserStorage
	TierStorage
	Close() error
	Ping(ctx context.Context) error
}

func NewStorage(store Storage) Storage {
	return store
}
