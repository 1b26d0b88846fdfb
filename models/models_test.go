package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbbank/models"
)

func TestAccountJSONLayout(t *testing.T) {
	acc := models.Account{
		ID:                  uuid.MustParse("5b3c8f0e-8f7a-4d43-9d5c-0b6a3f1c2d11"),
		Name:                "Rainy day",
		AccountType:         models.Savings,
		Currency:            "EUR",
		Balance:             decimal.RequireFromString("12.34"),
		LastUpdated:         opened,
		LastInterestApplied: opened,
	}

	raw, err := json.Marshal(acc)
	require.Nil(t, err)

	var fields map[string]any
	require.Nil(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "Savings", fields["accountType"])
	assert.Equal(t, 12.34, fields["balance"])
	assert.Contains(t, string(raw), `"balance":12.34`)
	assert.Equal(t, "Rainy day", fields["name"])
	assert.Contains(t, fields, "lastInterestApplied")
	assert.Contains(t, fields, "lastUpdated")
}

func TestTransactionJSONLayout(t *testing.T) {
	to := uuid.New()
	tx := models.NewTransaction(uuid.New(), models.TransactionTransfer,
		decimal.NewFromInt(5), decimal.NewFromInt(10), decimal.NewFromInt(5), opened)
	tx.ToAccountID = &to

	raw, err := json.Marshal(tx)
	require.Nil(t, err)

	var fields map[string]any
	require.Nil(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "Transfer", fields["type"])
	assert.Equal(t, to.String(), fields["toAccountId"])
	assert.Contains(t, string(raw), `"amount":5,`)
	assert.Contains(t, string(raw), `"balanceBefore":10,`)
	assert.Contains(t, string(raw), `"balanceAfter":5}`)

	tx.ToAccountID = nil
	raw, err = json.Marshal(tx)
	require.Nil(t, err)
	assert.NotContains(t, string(raw), "toAccountId")
}

func TestAccountDecodesNumericBalances(t *testing.T) {
	raw := `{"id":"5b3c8f0e-8f7a-4d43-9d5c-0b6a3f1c2d11","name":"Old","accountType":"Deposit",
		"currency":"USD","balance":99.95,"lastUpdated":"2024-01-02T03:04:05Z"}`

	var acc models.Account
	require.Nil(t, json.Unmarshal([]byte(raw), &acc))
	assert.Equal(t, models.Deposit, acc.AccountType)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("99.95")))
	assert.Equal(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), acc.LastUpdated.UTC())
	assert.True(t, acc.LastInterestApplied.IsZero())

	quoted := `{"balance":"0.1000000001"}`
	require.Nil(t, json.Unmarshal([]byte(quoted), &acc))
	assert.Equal(t, "0.1000000001", acc.Balance.String())
}

func TestAccountTypeNames(t *testing.T) {
	for _, typ := range []models.AccountType{models.Unknown, models.Savings, models.Deposit} {
		parsed, err := models.ParseAccountType(typ.String())
		assert.Nil(t, err)
		assert.Equal(t, typ, parsed)
	}

	parsed, err := models.ParseAccountType("savings")
	assert.Nil(t, err)
	assert.Equal(t, models.Savings, parsed)

	_, err = models.ParseAccountType("Checking")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)

	var typ models.AccountType
	require.Nil(t, json.Unmarshal([]byte(`"Checking"`), &typ))
	assert.Equal(t, models.Unknown, typ)

	require.Nil(t, json.Unmarshal([]byte(`1`), &typ))
	assert.Equal(t, models.Savings, typ)
	require.Nil(t, json.Unmarshal([]byte(`7`), &typ))
	assert.Equal(t, models.Unknown, typ)
	assert.NotNil(t, json.Unmarshal([]byte(`true`), &typ))
}

func TestTransactionInvolves(t *testing.T) {
	from, to, other := uuid.New(), uuid.New(), uuid.New()
	tx := models.NewTransaction(from, models.TransactionTransfer, decimal.NewFromInt(1), decimal.NewFromInt(1), decimal.Zero, opened)
	tx.ToAccountID = &to

	assert.True(t, tx.Involves(from))
	assert.True(t, tx.Involves(to))
	assert.False(t, tx.Involves(other))

	_, err := models.ParseTransactionType("withdraw")
	assert.Nil(t, err)
	_, err = models.ParseTransactionType("interest")
	assert.ErrorIs(t, err, models.ErrInvalidArgument)
}
