package accrual

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/domain/users"
	"github.com/andymarkow/bonustier/internal/storage"
)

// ErrAmountNotPositive rejects zero and negative spending increments.
var ErrAmountNotPositive = errors.New("spending amount must be positive")

// Accrual applies validated spending increments to accounts and keeps the
// persisted bonus level consistent with the tier catalog.
type Accrual struct {
	storage storage.Storage
	catalog *tiers.Catalog
	log     *slog.Logger
}

func NewAccrual(store storage.Storage, catalog *tiers.Catalog, opts ...Option) *Accrual {
	a := &Accrual{
		storage: store,
		catalog: catalog,
		log:     slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

type Option func(a *Accrual)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Accrual) {
		a.log = logger
	}
}

// Accrue adds amount to the account's cumulative spending, re-resolves the
// bonus level and persists both in a single atomic write. Concurrent accruals
// on the same account are serialized by a compare-and-swap on the previously
// observed spending value, so no increment is ever lost.
func (a *Accrual) Accrue(ctx context.Context, userID string, amount decimal.Decimal) (*users.User, error) {
	if !amount.IsPositive() {
		return nil, ErrAmountNotPositive
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("ctx.Err: %w", err)
		}

		user, err := a.storage.GetUserByID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("storage.GetUserByID: %w", err)
		}

		newSpending := user.Spending().Add(amount)
		newLevel := a.catalog.ResolveCurrent(newSpending).Name()

		err = a.storage.UpdateUserSpending(ctx, userID, user.Spending(), newSpending, newLevel)
		if err != nil {
			if errors.Is(err, storage.ErrSpendingConflict) {
				a.log.Debug("spending update conflict, retrying",
					slog.String("user_id", userID))

				continue
			}

			return nil, fmt.Errorf("storage.UpdateUserSpending: %w", err)
		}

		updated, err := users.NewUser(user.ID(), user.Login(), user.PasswordHash(), newSpending, newLevel)
		if err != nil {
			return nil, fmt.Errorf("users.NewUser: %w", err)
		}

		return updated, nil
	}
}
