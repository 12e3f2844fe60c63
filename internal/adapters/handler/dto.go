package handler

import (
	"time"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/shopspring/decimal"
)

type OrderRequest struct {
	ID          string            `json:"id" validate:"required,max=64" example:"order222"`
	Amount      decimal.Decimal   `json:"amount" example:"100.25"`
	Currency    string            `json:"currency" validate:"required,len=3" example:"TRY"`
	Installment int               `json:"installment" validate:"gte=0,lte=36"`
	SuccessURL  string            `json:"success_url" validate:"omitempty,url"`
	FailURL     string            `json:"fail_url" validate:"omitempty,url"`
	IP          string            `json:"ip" validate:"omitempty,ip"`
	Email       string            `json:"email" validate:"omitempty,email"`
	Recurring   *RecurringRequest `json:"recurring"`
	Ref         RefRequest        `json:"ref"`
	CreatedAt   *time.Time        `json:"created_at"`
}

type RecurringRequest struct {
	Frequency        int        `json:"frequency" validate:"required,gt=0"`
	FrequencyUnit    string     `json:"frequency_unit" validate:"required,oneof=day week month year"`
	InstallmentCount int        `json:"installment_count" validate:"required,gt=0"`
	EndDate          *time.Time `json:"end_date"`
}

type RefRequest struct {
	RetrievalNumber string `json:"retrieval_number"`
	AuthCode        string `json:"auth_code"`
	HostLogKey      string `json:"host_log_key"`
	TransactionID   string `json:"transaction_id"`
}

type CardRequest struct {
	Number      string `json:"number" validate:"required,numeric,min=13,max=19" example:"5555444433332222"`
	ExpiryMonth int    `json:"expiry_month" validate:"required,min=1,max=12" example:"12"`
	ExpiryYear  int    `json:"expiry_year" validate:"required,min=0,max=9999" example:"2030"`
	CVV         string `json:"cvv" validate:"required,numeric,min=3,max=4" example:"122"`
	HolderName  string `json:"holder_name" validate:"max=64"`
	Brand       string `json:"brand" validate:"omitempty,oneof=visa master amex troy"`
}

type PaymentRequest struct {
	Order  OrderRequest `json:"order"`
	TxType string       `json:"tx_type" validate:"required,oneof=pay pre post"`
	Card   *CardRequest `json:"card"`
}

// ThreeDFormRequest has no card for 3-D Host, where the bank collects it.
type ThreeDFormRequest struct {
	Order  OrderRequest `json:"order"`
	TxType string       `json:"tx_type" validate:"required,oneof=pay pre"`
	Card   *CardRequest `json:"card"`
}

// ThreeDCompleteRequest carries the fields the bank posted to the merchant's return URL.
type ThreeDCompleteRequest struct {
	Order    OrderRequest      `json:"order"`
	TxType   string            `json:"tx_type" validate:"required,oneof=pay pre"`
	Callback map[string]string `json:"callback" validate:"required,min=1"`
}

type OrderOnlyRequest struct {
	Order OrderRequest `json:"order"`
}

// requireAmount rejects orders that would move no money. Inquiries and cancels skip it.
func (o OrderRequest) requireAmount() error {
	if !o.Amount.IsPositive() {
		return domain.NewInvalidAmountError(o.Amount.String())
	}
	return nil
}

func (o OrderRequest) toDomain() (domain.Order, error) {
	order, err := domain.NewOrder(o.ID, o.Amount, domain.Currency(o.Currency))
	if err != nil {
		return domain.Order{}, err
	}
	order.Installment = o.Installment
	order.SuccessURL = o.SuccessURL
	order.FailURL = o.FailURL
	order.IP = o.IP
	order.Email = o.Email
	order.Ref = domain.Ref{
		RetrievalNumber: o.Ref.RetrievalNumber,
		AuthCode:        o.Ref.AuthCode,
		HostLogKey:      o.Ref.HostLogKey,
		TransactionID:   o.Ref.TransactionID,
	}
	if o.CreatedAt != nil {
		order.CreatedAt = *o.CreatedAt
	}
	if o.Recurring != nil {
		order.Recurring = &domain.Recurring{
			Frequency:        o.Recurring.Frequency,
			FrequencyUnit:    domain.RecurringUnit(o.Recurring.FrequencyUnit),
			InstallmentCount: o.Recurring.InstallmentCount,
		}
		if o.Recurring.EndDate != nil {
			order.Recurring.EndDate = *o.Recurring.EndDate
		}
	}
	return order, nil
}

func (c *CardRequest) toDomain() (*domain.Card, error) {
	if c == nil {
		return nil, nil
	}
	return domain.NewCard(c.Number, c.ExpiryMonth, c.ExpiryYear, c.CVV, c.HolderName, domain.CardBrand(c.Brand))
}
