package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amounts are written as plain JSON numbers, the layout stored bank data uses.
// Quoted amounts are still accepted on read.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// AccountType represents the kind of bank account
type AccountType int

const (
	Unknown AccountType = iota
	Savings
	Deposit
)

var accountTypeNames = map[AccountType]string{
	Unknown: "Unknown",
	Savings: "Savings",
	Deposit: "Deposit",
}

func (t AccountType) String() string {
	if name, ok := accountTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("AccountType(%d)", int(t))
}

// ParseAccountType accepts the persisted name of an account type, case-insensitively.
func ParseAccountType(s string) (AccountType, error) {
	for t, name := range accountTypeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return t, nil
		}
	}
	return Unknown, fmt.Errorf("%w: unknown account type %q", ErrInvalidArgument, s)
}

func (t AccountType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes the string form, or the bare number older payloads
// carry. Unrecognised names decode as Unknown.
func (t *AccountType) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		var n int
		if numErr := json.Unmarshal(data, &n); numErr != nil {
			return err
		}
		if _, ok := accountTypeNames[AccountType(n)]; !ok {
			n = int(Unknown)
		}
		*t = AccountType(n)
		return nil
	}
	parsed, err := ParseAccountType(name)
	if err != nil {
		parsed = Unknown
	}
	*t = parsed
	return nil
}

// TransactionType represents what happened to an account
type TransactionType string

const (
	TransactionDeposit  TransactionType = "Deposit"
	TransactionWithdraw TransactionType = "Withdraw"
	TransactionTransfer TransactionType = "Transfer"
)

// ParseTransactionType accepts a transaction type name, case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	for _, t := range []TransactionType{TransactionDeposit, TransactionWithdraw, TransactionTransfer} {
		if strings.EqualFold(strings.TrimSpace(s), string(t)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown transaction type %q", ErrInvalidArgument, s)
}

// Account represents a bank account (Savings or Deposit)
type Account struct {
	ID                  uuid.UUID       `json:"id"`
	Name                string          `json:"name"`
	AccountType         AccountType     `json:"accountType"`
	Currency            string          `json:"currency"`
	Balance             decimal.Decimal `json:"balance"`
	LastUpdated         time.Time       `json:"lastUpdated"`
	LastInterestApplied time.Time       `json:"lastInterestApplied"`
}

// Transaction represents a recorded balance change. Once recorded it is never modified.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"accountId"`
	ToAccountID   *uuid.UUID      `json:"toAccountId,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Date          time.Time       `json:"date"`
	BalanceBefore decimal.Decimal `json:"balanceBefore"`
	BalanceAfter  decimal.Decimal `json:"balanceAfter"`
}

// NewTransaction records a balance change on accountID.
func NewTransaction(accountID uuid.UUID, typ TransactionType, amount, before, after decimal.Decimal, at time.Time) Transaction {
	return Transaction{
		ID:            uuid.New(),
		AccountID:     accountID,
		Amount:        amount,
		Type:          typ,
		Date:          at,
		BalanceBefore: before,
		BalanceAfter:  after,
	}
}

// Involves reports whether accountID is the source or destination of the transaction.
func (tx Transaction) Involves(accountID uuid.UUID) bool {
	if tx.AccountID == accountID {
		return true
	}
	return tx.ToAccountID != nil && *tx.ToAccountID == accountID
}
