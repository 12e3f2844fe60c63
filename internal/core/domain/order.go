package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the canonical description of what is being paid for.
type Order struct {
	ID          string
	Amount      decimal.Decimal
	Currency    Currency
	Installment int
	SuccessURL  string
	FailURL     string
	IP          string
	Email       string
	Recurring   *Recurring
	Ref         Ref
	CreatedAt   time.Time
}

// Recurring describes a repeating charge set up with the first payment.
type Recurring struct {
	Frequency        int
	FrequencyUnit    RecurringUnit
	InstallmentCount int
	EndDate          time.Time
}

// Ref carries the identifiers of a prior transaction that post-auth, cancel and refund
// operate on.
type Ref struct {
	RetrievalNumber string
	AuthCode        string
	HostLogKey      string
	TransactionID   string
}

func NewOrder(id string, amount decimal.Decimal, currency Currency) (Order, error) {
	if id == "" {
		return Order{}, errors.New("order ID is required")
	}
	if amount.IsNegative() {
		return Order{}, NewInvalidAmountError(amount.String())
	}
	if currency == "" {
		return Order{}, errors.New("currency is required")
	}
	return Order{
		ID:        id,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: time.Now(),
	}, nil
}

// HasInstallment reports whether the order is split, values of one or less are single payments.
func (o Order) HasInstallment() bool {
	return o.Installment > 1
}
