package domain_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOrder(t *testing.T) {
	t.Run("creates order successfully", func(t *testing.T) {
		order, err := domain.NewOrder("order222", decimal.RequireFromString("100.25"), domain.CurrencyTRY)

		require.NoError(t, err)
		assert.Equal(t, "order222", order.ID)
		assert.Equal(t, "100.25", order.Amount.String())
		assert.Equal(t, domain.CurrencyTRY, order.Currency)
		assert.NotZero(t, order.CreatedAt)
		assert.False(t, order.HasInstallment())
	})

	t.Run("rejects empty order ID", func(t *testing.T) {
		_, err := domain.NewOrder("", decimal.NewFromInt(1), domain.CurrencyTRY)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "order ID is required")
	})

	t.Run("rejects negative amount", func(t *testing.T) {
		_, err := domain.NewOrder("o1", decimal.NewFromInt(-1), domain.CurrencyTRY)

		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeInvalidAmount))
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := domain.NewOrder("o1", decimal.NewFromInt(1), "")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency is required")
	})

	t.Run("installment of one is a single payment", func(t *testing.T) {
		order, err := domain.NewOrder("o1", decimal.NewFromInt(1), domain.CurrencyTRY)
		require.NoError(t, err)

		order.Installment = 1
		assert.False(t, order.HasInstallment())
		order.Installment = 3
		assert.True(t, order.HasInstallment())
	})
}

func TestNewCard(t *testing.T) {
	t.Run("normalizes number and year", func(t *testing.T) {
		card, err := domain.NewCard(" 5555 4444 3333 2222 ", 1, 21, "122", "John Doe", domain.BrandMaster)

		require.NoError(t, err)
		assert.Equal(t, "5555444433332222", card.Number)
		assert.Equal(t, 2021, card.ExpireYear)
		assert.Equal(t, "01", card.MM())
		assert.Equal(t, "21", card.YY())
		assert.Equal(t, "0121", card.MMYY())
		assert.Equal(t, "2101", card.YYMM())
		assert.Equal(t, "01/21", card.Expiry())
	})

	t.Run("keeps four digit year", func(t *testing.T) {
		card, err := domain.NewCard("4159560047417732", 8, 2030, "123", "", "")

		require.NoError(t, err)
		assert.Equal(t, 2030, card.ExpireYear)
		assert.Equal(t, "30", card.YY())
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := domain.NewCard("", 1, 21, "122", "", "")
		assert.Error(t, err)

		_, err = domain.NewCard("4159560047417732", 13, 21, "122", "", "")
		assert.Error(t, err)
	})
}

func TestAccount(t *testing.T) {
	acc := domain.Account{Bank: "isbank", ClientID: "700655000200", Username: "api", Password: "secret"}

	t.Run("require reports first missing field", func(t *testing.T) {
		require.NoError(t, acc.Require(domain.FieldClientID, domain.FieldUsername, domain.FieldPassword))

		err := acc.Require(domain.FieldClientID, domain.FieldStoreKey, domain.FieldTerminalID)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeMissingRequiredField))
		assert.Contains(t, err.Error(), "store_key")
	})

	t.Run("refund credentials fall back to the api user", func(t *testing.T) {
		user, pass := acc.RefundCredentials()
		assert.Equal(t, "api", user)
		assert.Equal(t, "secret", pass)

		withRefund := acc
		withRefund.RefundUsername = "refunder"
		withRefund.RefundPassword = "refund-secret"
		user, pass = withRefund.RefundCredentials()
		assert.Equal(t, "refunder", user)
		assert.Equal(t, "refund-secret", pass)
	})

	t.Run("defaults", func(t *testing.T) {
		assert.Equal(t, domain.LangTR, acc.Language())
		assert.True(t, acc.IsTest())

		prod := acc
		prod.Environment = domain.EnvProd
		prod.Lang = domain.LangEN
		assert.False(t, prod.IsTest())
		assert.Equal(t, domain.LangEN, prod.Language())
	})
}

func TestTransactionType(t *testing.T) {
	tests := []struct {
		tx      domain.TransactionType
		inquiry bool
		payment bool
	}{
		{domain.TxPay, false, true},
		{domain.TxPreAuth, false, true},
		{domain.TxPostAuth, false, true},
		{domain.TxCancel, false, false},
		{domain.TxRefund, false, false},
		{domain.TxStatus, true, false},
		{domain.TxHistory, true, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.tx), func(t *testing.T) {
			assert.Equal(t, tt.inquiry, tt.tx.IsInquiry())
			assert.Equal(t, tt.payment, tt.tx.IsPayment())
		})
	}

	assert.False(t, domain.ModelNonSecure.Is3D())
	assert.True(t, domain.Model3DSecure.Is3D())
	assert.True(t, domain.Model3DPay.Is3D())
	assert.True(t, domain.Model3DHost.Is3D())
}

func TestFields(t *testing.T) {
	fields := domain.Fields{
		domain.F("Name", "api"),
		domain.F("Total", decimal.RequireFromString("1.50")),
		domain.F("Taksit", 3),
		domain.F("Extra", domain.Fields{domain.F("ORDERSTATUS", "QUERY")}),
	}

	assert.Equal(t, "api", fields.String("Name"))
	assert.Equal(t, "1.5", fields.String("Total"))
	assert.Equal(t, "3", fields.String("Taksit"))
	assert.Equal(t, "", fields.String("Missing"))
	assert.Equal(t, "QUERY", fields.Group("Extra").String("ORDERSTATUS"))

	fields.Set("Taksit", "")
	fields.Set("Mode", "P")
	assert.Equal(t, []string{"Name", "Total", "Taksit", "Extra", "Mode"}, fields.Keys())
	assert.Equal(t, "", fields.String("Taksit"))
}

func TestValues(t *testing.T) {
	v := domain.Values{
		"ProcReturnCode": "00",
		"Extra": map[string]any{
			"HOSTDATE": "0305-101010",
			"TRX":      []any{"a", "b"},
		},
		"Nested": domain.Values{"Code": "7"},
	}

	assert.Equal(t, "00", v.Str("ProcReturnCode"))
	assert.Equal(t, "0305-101010", v.Str("Extra", "HOSTDATE"))
	assert.Equal(t, "7", v.Str("Nested", "Code"))
	assert.Equal(t, "", v.Str("Extra", "TRX"))
	assert.Equal(t, "", v.Str("Extra"))
	assert.Equal(t, "", v.Str("ProcReturnCode", "deeper"))

	assert.True(t, v.Has("Extra", "TRX"))
	assert.False(t, v.Has("Extra", "missing"))

	assert.Equal(t, "0305-101010", v.Map("Extra").Str("HOSTDATE"))
	assert.Nil(t, v.Map("ProcReturnCode"))

	assert.Equal(t, "00", v.Fold("procreturncode"))
	assert.Equal(t, "", v.Fold("nothing"))

	form := domain.ValuesFromForm(map[string][]string{"mdStatus": {"1", "2"}, "empty": {}})
	assert.Equal(t, "1", form.Str("mdStatus"))
	assert.False(t, form.Has("empty"))
}

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want domain.ErrorCategory
	}{
		{"nil", nil, ""},
		{"unsupported model", domain.NewUnsupportedModelError("kuveyt", domain.ModelNonSecure), domain.CategoryConfiguration},
		{"missing field", domain.NewMissingRequiredFieldError("store_key"), domain.CategoryConfiguration},
		{"hash mismatch", domain.NewHashMismatchError("estpos"), domain.CategoryAuthentication},
		{"wrapped crc mismatch", fmt.Errorf("verify: %w", domain.NewCRCMismatchError()), domain.CategoryAuthentication},
		{"indeterminate", domain.NewIndeterminateError(io.EOF), domain.CategoryTransport},
		{"deadline", context.DeadlineExceeded, domain.CategoryTransport},
		{"invalid transition", domain.NewInvalidTransitionError("Approved", "Declined"), domain.CategoryInternal},
		{"plain error", errors.New("boom"), domain.CategoryInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.Categorize(tt.err))
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	err := domain.NewTransportError("isbank pay", io.ErrUnexpectedEOF)

	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.True(t, domain.IsErrorCode(fmt.Errorf("outer: %w", err), domain.ErrCodeTransportFailure))
	assert.False(t, domain.IsErrorCode(io.EOF, domain.ErrCodeTransportFailure))
}
