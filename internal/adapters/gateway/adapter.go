package gateway

import (
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
)

// Endpoints are the URLs one bank environment exposes.
type Endpoints struct {
	Payment    string `koanf:"payment" validate:"omitempty,url"`
	Query      string `koanf:"query" validate:"omitempty,url"`
	ThreeD     string `koanf:"three_d" validate:"omitempty,url"`
	ThreeDHost string `koanf:"three_d_host" validate:"omitempty,url"`
}

// URL resolves an endpoint kind. Query falls back to the payment API.
func (e Endpoints) URL(kind domain.Endpoint) string {
	switch kind {
	case domain.EndpointQuery:
		if e.Query != "" {
			return e.Query
		}
		return e.Payment
	case domain.Endpoint3D:
		return e.ThreeD
	case domain.Endpoint3DHost:
		if e.ThreeDHost != "" {
			return e.ThreeDHost
		}
		return e.ThreeD
	default:
		return e.Payment
	}
}

// Merge overlays the non-empty URLs of o.
func (e Endpoints) Merge(o Endpoints) Endpoints {
	if o.Payment != "" {
		e.Payment = o.Payment
	}
	if o.Query != "" {
		e.Query = o.Query
	}
	if o.ThreeD != "" {
		e.ThreeD = o.ThreeD
	}
	if o.ThreeDHost != "" {
		e.ThreeDHost = o.ThreeDHost
	}
	return e
}

// Adapter binds a variant to one merchant account and its endpoints.
type Adapter struct {
	variant   Variant
	account   domain.Account
	endpoints Endpoints
}

var _ ports.Gateway = (*Adapter)(nil)

// NewAdapter fails fast when the account's security model has no mapping for the variant.
func NewAdapter(v Variant, acc domain.Account, endpoints Endpoints) (*Adapter, error) {
	if !v.Tables().Supports(acc.Model) {
		return nil, domain.NewUnsupportedModelError(acc.Bank, acc.Model)
	}
	return &Adapter{variant: v, account: acc, endpoints: endpoints}, nil
}

func (a *Adapter) Bank() string {
	return a.account.Bank
}

func (a *Adapter) Model() domain.SecurityModel {
	return a.account.Model
}

func (a *Adapter) Variant() Variant {
	return a.variant
}

func (a *Adapter) PaymentRequest(order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Request, error) {
	return a.resolve(a.variant.PaymentRequest(a.account, order, tx, card))
}

// ThreeDFormData targets the 3-D host page for the host model and the 3-D gate otherwise.
func (a *Adapter) ThreeDFormData(order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.FormData, error) {
	if !a.account.Model.Is3D() {
		return nil, domain.NewUnsupportedModelError(a.account.Bank, a.account.Model)
	}
	kind := domain.Endpoint3D
	if a.account.Model == domain.Model3DHost {
		kind = domain.Endpoint3DHost
	}
	return a.variant.ThreeDFormData(a.account, order, tx, a.endpoints.URL(kind), card)
}

func (a *Adapter) VerifyCallback(order domain.Order, raw domain.Values) (*domain.Callback, error) {
	return a.variant.VerifyCallback(a.account, order, raw)
}

func (a *Adapter) ThreeDPaymentRequest(order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Request, error) {
	return a.resolve(a.variant.ThreeDPaymentRequest(a.account, order, tx, cb))
}

func (a *Adapter) StatusRequest(order domain.Order) (*domain.Request, error) {
	return a.resolve(a.variant.StatusRequest(a.account, order))
}

func (a *Adapter) CancelRequest(order domain.Order) (*domain.Request, error) {
	return a.resolve(a.variant.CancelRequest(a.account, order))
}

func (a *Adapter) RefundRequest(order domain.Order) (*domain.Request, error) {
	return a.resolve(a.variant.RefundRequest(a.account, order))
}

func (a *Adapter) HistoryRequest(order domain.Order) (*domain.Request, error) {
	return a.resolve(a.variant.HistoryRequest(a.account, order))
}

func (a *Adapter) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	return a.tag(a.variant.NormalizePayment(order, tx, raw))
}

func (a *Adapter) Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result {
	return a.tag(a.variant.Normalize3D(order, tx, cb, raw))
}

func (a *Adapter) NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	return a.tag(a.variant.NormalizeQuery(order, tx, raw))
}

func (a *Adapter) tag(r domain.Result) domain.Result {
	r.Bank = a.account.Bank
	return r
}

func (a *Adapter) resolve(env *domain.Envelope, err error) (*domain.Request, error) {
	if err != nil {
		return nil, err
	}
	url := a.endpoints.URL(env.Endpoint)
	if url == "" {
		return nil, domain.NewMissingRequiredFieldError(a.account.Bank + " " + string(env.Endpoint) + " endpoint")
	}
	env.Bank = a.account.Bank
	return domain.NewRequest(env, url+env.Path), nil
}
