package ports

import (
	"context"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

// Gateway is one merchant account bound to its bank's protocol. Builders and normalizers do
// no I/O; requests they return are sent through a Transport.
type Gateway interface {
	Bank() string
	Model() domain.SecurityModel

	PaymentRequest(order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Request, error)
	ThreeDFormData(order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.FormData, error)
	VerifyCallback(order domain.Order, raw domain.Values) (*domain.Callback, error)
	ThreeDPaymentRequest(order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Request, error)
	StatusRequest(order domain.Order) (*domain.Request, error)
	CancelRequest(order domain.Order) (*domain.Request, error)
	RefundRequest(order domain.Order) (*domain.Request, error)
	HistoryRequest(order domain.Order) (*domain.Request, error)

	NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result
	Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result
	NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result
}

// Transport serializes a request in its wire format, sends it and decodes the reply.
type Transport interface {
	Send(ctx context.Context, req *domain.Request) (domain.Values, error)
}
