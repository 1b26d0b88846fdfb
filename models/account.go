package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InterestRate is the growth factor applied to savings balances once per whole elapsed minute.
var InterestRate = decimal.RequireFromString("1.10")

// balancePlaces bounds the scale of compounded balances.
const balancePlaces = 10

// NewAccount opens an account with the given opening balance.
func NewAccount(name string, accountType AccountType, currency string, initialBalance decimal.Decimal, now time.Time) (*Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidArgument)
	}
	if initialBalance.IsNegative() {
		return nil, fmt.Errorf("%w: initial balance cannot be negative", ErrInvalidArgument)
	}
	return &Account{
		ID:                  uuid.New(),
		Name:                name,
		AccountType:         accountType,
		Currency:            currency,
		Balance:             initialBalance,
		LastUpdated:         now,
		LastInterestApplied: now,
	}, nil
}

// Deposit adds a positive amount to the balance
func (a *Account) Deposit(amount decimal.Decimal, now time.Time) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidArgument)
	}
	a.Balance = a.Balance.Add(amount)
	a.LastUpdated = now
	return nil
}

// Withdraw takes amount from the balance. Withdrawing zero is allowed.
func (a *Account) Withdraw(amount decimal.Decimal, now time.Time) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: amount cannot be negative", ErrInvalidArgument)
	}
	if amount.GreaterThan(a.Balance) {
		return fmt.Errorf("%w: amount %s exceeds balance %s", ErrInsufficientFunds, amount, a.Balance)
	}
	a.Balance = a.Balance.Sub(amount)
	a.LastUpdated = now
	return nil
}

// ApplyInterest compounds the balance once for every whole minute since the
// last application and reports whether anything changed. Only savings accounts
// earn interest. A savings account with no interest timestamp starts its
// clock at now, which counts as a change so the timestamp gets saved.
func (a *Account) ApplyInterest(now time.Time) bool {
	if a.AccountType != Savings {
		return false
	}
	if a.LastInterestApplied.IsZero() {
		a.LastInterestApplied = now
		return true
	}

	minutes := int64(now.Sub(a.LastInterestApplied) / time.Minute)
	if minutes < 1 {
		return false
	}

	factor := InterestRate.Pow(decimal.NewFromInt(minutes))
	a.Balance = a.Balance.Mul(factor).Round(balancePlaces)
	// carry the partial minute over to the next read
	a.LastInterestApplied = a.LastInterestApplied.Add(time.Duration(minutes) * time.Minute)
	a.LastUpdated = now
	return true
}

// IsSavings reports whether the account earns interest
func (a *Account) IsSavings() bool {
	return a.AccountType == Savings
}
