package models_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hbbank/models"
)

var opened = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func newAccount(t *testing.T, typ models.AccountType, balance string) *models.Account {
	t.Helper()
	acc, err := models.NewAccount("Household", typ, "NOK", decimal.RequireFromString(balance), opened)
	require.Nil(t, err)
	return acc
}

func TestNewAccount(t *testing.T) {
	acc := newAccount(t, models.Savings, "100")

	assert.NotEqual(t, acc.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, "Household", acc.Name)
	assert.Equal(t, "NOK", acc.Currency)
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, opened, acc.LastUpdated)
	assert.Equal(t, opened, acc.LastInterestApplied)

	t.Run("negative opening balance", func(t *testing.T) {
		_, err := models.NewAccount("x", models.Deposit, "NOK", decimal.NewFromInt(-1), opened)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)
	})

	t.Run("blank name", func(t *testing.T) {
		_, err := models.NewAccount("  ", models.Deposit, "NOK", decimal.Zero, opened)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)
	})
}

func TestDeposit(t *testing.T) {
	acc := newAccount(t, models.Deposit, "100")
	later := opened.Add(time.Hour)

	err := acc.Deposit(decimal.RequireFromString("25.50"), later)
	assert.Nil(t, err)
	assert.True(t, acc.Balance.Equal(decimal.RequireFromString("125.50")))
	assert.Equal(t, later, acc.LastUpdated)

	for _, amount := range []string{"0", "-0.01", "-100"} {
		t.Run("rejects "+amount, func(t *testing.T) {
			err := acc.Deposit(decimal.RequireFromString(amount), later.Add(time.Hour))
			assert.ErrorIs(t, err, models.ErrInvalidArgument)
			assert.True(t, acc.Balance.Equal(decimal.RequireFromString("125.50")))
			assert.Equal(t, later, acc.LastUpdated)
		})
	}
}

func TestWithdraw(t *testing.T) {
	acc := newAccount(t, models.Deposit, "100")
	later := opened.Add(time.Minute)

	assert.Nil(t, acc.Withdraw(decimal.NewFromInt(40), later))
	assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
	assert.Equal(t, later, acc.LastUpdated)

	t.Run("zero is allowed", func(t *testing.T) {
		assert.Nil(t, acc.Withdraw(decimal.Zero, later))
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
	})

	t.Run("negative amount", func(t *testing.T) {
		err := acc.Withdraw(decimal.NewFromInt(-5), later)
		assert.ErrorIs(t, err, models.ErrInvalidArgument)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
	})

	t.Run("more than balance", func(t *testing.T) {
		err := acc.Withdraw(decimal.RequireFromString("60.01"), later)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
		assert.True(t, acc.Balance.Equal(decimal.NewFromInt(60)))
	})

	t.Run("entire balance", func(t *testing.T) {
		assert.Nil(t, acc.Withdraw(decimal.NewFromInt(60), later))
		assert.True(t, acc.Balance.IsZero())
	})
}

func TestApplyInterest(t *testing.T) {
	t.Run("compounds per whole minute", func(t *testing.T) {
		acc := newAccount(t, models.Savings, "100")
		now := opened.Add(3*time.Minute + 40*time.Second)

		changed := acc.ApplyInterest(now)
		assert.True(t, changed)
		assert.Equal(t, "133.1", acc.Balance.String())
		assert.Equal(t, opened.Add(3*time.Minute), acc.LastInterestApplied)
		assert.Equal(t, now, acc.LastUpdated)

		// the leftover 40 seconds counts towards the next minute
		changed = acc.ApplyInterest(opened.Add(4 * time.Minute))
		assert.True(t, changed)
		assert.Equal(t, "146.41", acc.Balance.String())
	})

	t.Run("less than a minute", func(t *testing.T) {
		acc := newAccount(t, models.Savings, "100")
		assert.False(t, acc.ApplyInterest(opened.Add(59*time.Second)))
		assert.Equal(t, "100", acc.Balance.String())
		assert.Equal(t, opened, acc.LastInterestApplied)
		assert.Equal(t, opened, acc.LastUpdated)
	})

	t.Run("matches B x 1.1^N", func(t *testing.T) {
		for _, n := range []int64{1, 2, 5, 10} {
			acc := newAccount(t, models.Savings, "250")
			acc.ApplyInterest(opened.Add(time.Duration(n) * time.Minute))

			want := decimal.NewFromInt(250)
			for i := int64(0); i < n; i++ {
				want = want.Mul(decimal.RequireFromString("1.1"))
			}
			assert.True(t, acc.Balance.Equal(want.Round(10)), "n=%d got=%s want=%s", n, acc.Balance, want)
		}
	})

	t.Run("deposit accounts never accrue", func(t *testing.T) {
		acc := newAccount(t, models.Deposit, "100")
		assert.False(t, acc.ApplyInterest(opened.Add(24*time.Hour)))
		assert.Equal(t, "100", acc.Balance.String())
		assert.Equal(t, opened, acc.LastUpdated)
	})

	t.Run("missing timestamp starts the clock", func(t *testing.T) {
		acc := newAccount(t, models.Savings, "100")
		acc.LastInterestApplied = time.Time{}
		now := opened.Add(time.Hour)

		assert.True(t, acc.ApplyInterest(now), "the filled in timestamp has to be saved")
		assert.Equal(t, now, acc.LastInterestApplied)
		assert.Equal(t, "100", acc.Balance.String())

		assert.False(t, acc.ApplyInterest(now.Add(30*time.Second)))
		assert.True(t, acc.ApplyInterest(now.Add(time.Minute)))
		assert.Equal(t, "110", acc.Balance.String())
	})
}
