package main

import (
	"github.com/shopspring/decimal"
)

type UserDTO struct {
	Id       int64  `json:"id"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty" validate:"required"`
}

type TransactionDTO struct {
	Id          int64           `json:"id"`
	Type        string          `json:"type" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        *DateTime       `json:"date,omitempty"`
	Category    string          `json:"category"`
	UserId      int64           `json:"userId"`
}

type SummaryDTO struct {
	Balance decimal.Decimal `json:"balance"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ApiResponse is the body of every error reply.
type ApiResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
