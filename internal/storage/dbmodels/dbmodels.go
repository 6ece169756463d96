package dbmodels

import (
	"github.com/shopspring/decimal"
)

type User struct {
	ID           string
	Login        string
	PasswordHash string
	Spending     decimal.Decimal
	Level        string
}

type BonusTier struct {
	Name        string
	MinSpending decimal.Decimal
}
