package models

import (
	"github.com/shopspring/decimal"
)

type UserRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type SpendingRequest struct {
	Amount decimal.Decimal `json:"spending_amount"`
}

type NextLevelResponse struct {
	LevelName string `json:"level_name"`
	// MinSpending is the remaining distance to the next tier, not the
	// absolute threshold (original wire contract).
	MinSpending float64 `json:"min_spending"`
}

type BonusStatusResponse struct {
	CurrentLevel string             `json:"current_level"`
	Spending     float64            `json:"spending"`
	NextLevel    *NextLevelResponse `json:"next_level"`
}

type SpendingResponse struct {
	NewSpending float64 `json:"new_spending"`
	NewLevel    string  `json:"new_level"`
}
