// Package gateway holds what the bank protocol variants share: lookup tables, amount and
// installment formatting, response normalization helpers and the Adapter that binds a
// variant to a merchant account.
package gateway

import (
	"strings"
	"time"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/google/uuid"
)

// Variant is one bank protocol family. Every method is a pure function of its arguments and
// of the variant's injected random source and clock.
type Variant interface {
	Name() string
	Tables() *Tables

	PaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Envelope, error)
	ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error)
	VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error)
	ThreeDPaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Envelope, error)
	StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error)
	CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error)
	RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error)
	HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error)

	NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result
	Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result
	NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result
}

// Option configures the random source and clock of a variant.
type Option func(*Base)

// WithRand replaces the nonce source.
func WithRand(fn func() string) Option {
	return func(b *Base) {
		b.rand = fn
	}
}

// WithClock replaces the time source.
func WithClock(fn func() time.Time) Option {
	return func(b *Base) {
		b.now = fn
	}
}

// Base is embedded by variants for the state they are allowed to hold.
type Base struct {
	rand func() string
	now  func() time.Time
}

func NewBase(opts ...Option) Base {
	b := Base{
		rand: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// Rand returns a fresh nonce.
func (b Base) Rand() string {
	return b.rand()
}

func (b Base) Now() time.Time {
	return b.now()
}
