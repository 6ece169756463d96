package users

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/andymarkow/bonustier/internal/domain/tiers"
)

var (
	ErrUserIDEmpty      = errors.New("user id is empty")
	ErrUserLoginEmpty   = errors.New("user login is empty")
	ErrUserPasswdEmpty  = errors.New("user password is empty")
	ErrSpendingNegative = errors.New("user spending is negative")
	ErrUserLevelEmpty   = errors.New("user bonus level is empty")
)

type User struct {
	id           string
	login        string
	passwordHash string
	spending     decimal.Decimal
	level        string
}

// CreateUser builds a brand-new account: fresh id, hashed credential,
// zero spending at the base bonus level.
func CreateUser(login, password string) (*User, error) {
	if err := ValidateLogin(login); err != nil {
		return nil, err
	}

	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := getPasswordHash(password)
	if err != nil {
		return nil, fmt.Errorf("getPasswordHash: %w", err)
	}

	return &User{
		id:           uuid.NewString(),
		login:        login,
		passwordHash: passwordHash,
		spending:     decimal.Zero,
		level:        tiers.BaseTierName,
	}, nil
}

// NewUser restores an account from persisted state.
func NewUser(id, login, passwordHash string, spending decimal.Decimal, level string) (*User, error) {
	if id == "" {
		return nil, ErrUserIDEmpty
	}

	if err := ValidateLogin(login); err != nil {
		return nil, err
	}

	if spending.IsNegative() {
		return nil, ErrSpendingNegative
	}

	if level == "" {
		return nil, ErrUserLevelEmpty
	}

	return &User{
		id:           id,
		login:        login,
		passwordHash: passwordHash,
		spending:     spending,
		level:        level,
	}, nil
}

func (u *User) ID() string {
	return u.id
}

func (u *User) Login() string {
	return u.login
}

func (u *User) PasswordHash() string {
	return u.passwordHash
}

func (u *User) Spending() decimal.Decimal {
	return u.spending
}

func (u *User) Level() string {
	return u.level
}

func getPasswordHash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt.GenerateFromPassword: %w", err)
	}

	return string(hash), nil
}

func ValidateLogin(login string) error {
	if login == "" {
		return ErrUserLoginEmpty
	}

	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return ErrUserPasswdEmpty
	}

	return nil
}
