package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/andymarkow/bonustier/internal/domain/tiers"
	"github.com/andymarkow/bonustier/internal/domain/users"
	"github.com/andymarkow/bonustier/internal/storage"
	"github.com/andymarkow/bonustier/internal/storage/dbmodels"
)

var _ storage.Storage = (*Storage)(nil)

type UserStore struct {
	users  map[string]*dbmodels.User
	logins map[string]string
	mu     sync.Mutex
}

type TierStore struct {
	tiers map[string]dbmodels.BonusTier
	mu    sync.Mutex
}

type Storage struct {
	UserStore UserStore
	TierStore TierStore
}

func NewStorage() *Storage {
	return &Storage{
		UserStore: UserStore{
			users:  make(map[string]*dbmodels.User),
			logins: make(map[string]string),
		},
		TierStore: TierStore{
			tiers: make(map[string]dbmodels.BonusTier),
		},
	}
}

func (s *Storage) Close() error {
	return nil
}

func (s *Storage) Ping(_ context.Context) error {
	return nil
}

func (s *Storage) CreateUser(_ context.Context, usr *users.User) error {
	s.UserStore.mu.Lock()
	defer s.UserStore.mu.Unlock()

	if _, ok := s.UserStore.logins[usr.Login()]; ok {
		return storage.ErrUserAlreadyExists
	}

	s.UserStore.users[usr.ID()] = &dbmodels.User{
		ID:           usr.ID(),
		Login:        usr.Login(),
		PasswordHash: usr.PasswordHash(),
		Spending:     usr.Spending(),
		Level:        usr.Level(),
	}

	s.UserStore.logins[usr.Login()] = usr.ID()

	return nil
}

func (s *Storage) GetUserByLogin(_ context.Context, login string) (*users.User, error) {
	s.UserStore.mu.Lock()
	defer s.UserStore.mu.Unlock()

	id, ok := s.UserStore.logins[login]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	return restoreUser(s.UserStore.users[id])
}

func (s *Storage) GetUserByID(_ context.Context, id string) (*users.User, error) {
	s.UserStore.mu.Lock()
	defer s.UserStore.mu.Unlock()

	dbUser, ok := s.UserStore.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	return restoreUser(dbUser)
}

func (s *Storage) UpdateUserSpending(_ context.Context, id string, prev, next decimal.Decimal, level string) error {
	s.UserStore.mu.Lock()
	defer s.UserStore.mu.Unlock()

	dbUser, ok := s.UserStore.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}

	if !dbUser.Spending.Equal(prev) {
		return storage.ErrSpendingConflict
	}

	dbUser.Spending = next
	dbUser.Level = level

	return nil
}

func (s *Storage) SeedTiers(_ context.Context, tt []tiers.Tier) error {
	s.TierStore.mu.Lock()
	defer s.TierStore.mu.Unlock()

	for _, t := range tt {
		if _, ok := s.TierStore.tiers[t.Name()]; ok {
			continue
		}

		s.TierStore.tiers[t.Name()] = dbmodels.BonusTier{
			Name:        t.Name(),
			MinSpending: t.MinSpending(),
		}
	}

	return nil
}

func (s *Storage) ListTiers(_ context.Context) ([]tiers.Tier, error) {
	s.TierStore.mu.Lock()
	defer s.TierStore.mu.Unlock()

	tt := make([]tiers.Tier, 0, len(s.TierStore.tiers))

	for _, dbTier := range s.TierStore.tiers {
		tier, err := tiers.NewTier(dbTier.Name, dbTier.MinSpending)
		if err != nil {
			return nil, err
		}

		tt = append(tt, tier)
	}

	sort.Slice(tt, func(i, j int) bool {
		return tt[i].MinSpending().LessThan(tt[j].MinSpending())
	})

	return tt, nil
}

func restoreUser(dbUser *dbmodels.User) (*users.User, error) {
	user, err := users.NewUser(dbUser.ID, dbUser.Login, dbUser.PasswordHash, dbUser.Spending, dbUser.Level)
	if err != nil {
		return nil, err
	}

	return user, nil
}
