// Package tosla implements the ToslaPos JSON API. Each operation has its own path and every
// body carries a fresh rnd/timeSpan pair signed with the API password.
package tosla

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

const (
	Name = "tosla"

	timeLayout = "20060102150405"
	dateLayout = "20060102"
)

var tables = gateway.Tables{
	Bank: Name,
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:      "Payment",
		domain.TxPreAuth:  "Payment",
		domain.TxPostAuth: "postAuth",
		domain.TxCancel:   "void",
		domain.TxRefund:   "refund",
		domain.TxStatus:   "inquiry",
		domain.TxHistory:  "history",
	},
	Models: map[domain.SecurityModel]string{
		domain.ModelNonSecure: "regular",
		domain.Model3DPay:     "3d_pay",
	},
	Currencies: gateway.ISOCurrencies,
	Langs: map[string]string{
		domain.LangTR: "tr",
		domain.LangEN: "en",
	},
}

// paymentTypes is the paymentType of the Payment operation.
var paymentTypes = map[domain.TransactionType]int{
	domain.TxPay:     1,
	domain.TxPreAuth: 2,
}

var (
	request = crypt.Formula{
		Name:      "tosla request",
		Fields:    []string{crypt.Secret, "clientId", "apiUser", "rnd", "timeSpan"},
		Algorithm: crypt.SHA512Base64,
	}
	callback = crypt.Formula{
		Name: "tosla callback",
		Fields: []string{
			crypt.Secret, "ClientId", "ApiUser", "OrderId", "MdStatus", "BankResponseCode", "BankResponseMessage", "RequestStatus",
		},
		Algorithm: crypt.SHA512Base64,
	}
)

var (
	mdFull = []string{"1"}
	mdHalf = []string{"2", "3", "4"}
)

type Variant struct {
	gateway.Base
	tables *gateway.Tables
}

var _ gateway.Variant = (*Variant)(nil)

func New(opts ...gateway.Option) *Variant {
	t := tables
	return &Variant{Base: gateway.NewBase(opts...), tables: &t}
}

func (v *Variant) Name() string {
	return Name
}

func (v *Variant) Tables() *gateway.Tables {
	return v.tables
}

func requireAPI(acc domain.Account) error {
	return acc.Require(domain.FieldClientID, domain.FieldUsername, domain.FieldStoreKey)
}

// auth returns the signed credential block that opens every request.
func (v *Variant) auth(acc domain.Account) domain.Fields {
	p := crypt.Params{
		"clientId": acc.ClientID,
		"apiUser":  acc.Username,
		"rnd":      v.Rand(),
		"timeSpan": v.Now().Format(timeLayout),
	}
	return domain.Fields{
		domain.F("clientId", json.Number(p["clientId"])),
		domain.F("apiUser", p["apiUser"]),
		domain.F("rnd", p["rnd"]),
		domain.F("timeSpan", p["timeSpan"]),
		domain.F("hash", request.Sign(p, acc.StoreKey)),
	}
}

func (v *Variant) envelope(tx domain.TransactionType, path string, endpoint domain.Endpoint, fields domain.Fields) *domain.Envelope {
	return &domain.Envelope{
		TxType:   tx,
		Endpoint: endpoint,
		Path:     "/" + path,
		Format:   domain.WireJSON,
		Response: domain.WireJSON,
		Fields:   fields,
	}
}

func (v *Variant) PaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if !tx.IsPayment() {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	path, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}

	if tx == domain.TxPostAuth {
		fields := append(v.auth(acc),
			domain.F("orderId", order.ID),
			domain.F("amount", gateway.AmountMinor(order.Amount)),
		)
		return v.envelope(tx, path, domain.EndpointPayment, fields), nil
	}

	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}
	fields := append(v.auth(acc),
		domain.F("orderId", order.ID),
		domain.F("amount", gateway.AmountMinor(order.Amount)),
		domain.F("currency", json.Number(currency)),
		domain.F("installmentCount", gateway.InstallmentZero(order.Installment)),
		domain.F("paymentType", paymentTypes[tx]),
		domain.F("cardHolderName", card.HolderName),
		domain.F("cardNo", card.Number),
		domain.F("expireDate", card.Expiry()),
		domain.F("cvv", card.CVV),
	)
	return v.envelope(tx, path, domain.EndpointPayment, fields), nil
}

// ThreeDFormData signs the 3d_pay form the browser posts to the card form endpoint.
func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if _, err := v.tables.Model(acc.Model); err != nil {
		return nil, err
	}
	if acc.Model != domain.Model3DPay {
		return nil, domain.NewUnsupportedModelError(Name, acc.Model)
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}

	p := crypt.Params{
		"clientId": acc.ClientID,
		"apiUser":  acc.Username,
		"rnd":      v.Rand(),
		"timeSpan": v.Now().Format(timeLayout),
	}
	return &domain.FormData{
		Gateway: gatewayURL,
		Method:  http.MethodPost,
		Inputs: map[string]string{
			"ClientId":         p["clientId"],
			"ApiUser":          p["apiUser"],
			"Rnd":              p["rnd"],
			"TimeSpan":         p["timeSpan"],
			"Hash":             request.Sign(p, acc.StoreKey),
			"OrderId":          order.ID,
			"Amount":           gateway.AmountMinorString(order.Amount),
			"Currency":         currency,
			"InstallmentCount": gateway.InstallmentZeroString(order.Installment),
			"PaymentType":      strconv.Itoa(paymentTypes[tx]),
			"CallbackUrl":      order.SuccessURL,
			"CardHolderName":   card.HolderName,
			"CardNo":           card.Number,
			"ExpireDate":       card.Expiry(),
			"Cvv":              card.CVV,
		},
	}, nil
}

func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldStoreKey); err != nil {
		return nil, err
	}
	if err := callback.Verify(gateway.Params(raw), acc.StoreKey, raw.Str("Hash")); err != nil {
		return nil, err
	}
	if oid := raw.Str("OrderId"); oid != order.ID {
		return nil, domain.NewCallbackMismatchError("order id", order.ID, oid)
	}
	return gateway.NewCallback(raw, raw.Str("MdStatus"), mdFull, mdHalf), nil
}

// ThreeDPaymentRequest always fails: in 3d_pay the bank authorizes before the callback.
func (v *Variant) ThreeDPaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Envelope, error) {
	return nil, domain.NewUnsupportedModelError(Name, domain.Model3DSecure)
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	path, err := v.tables.TxType(domain.TxCancel)
	if err != nil {
		return nil, err
	}
	fields := append(v.auth(acc), domain.F("orderId", order.ID))
	return v.envelope(domain.TxCancel, path, domain.EndpointPayment, fields), nil
}

func (v *Variant) RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	path, err := v.tables.TxType(domain.TxRefund)
	if err != nil {
		return nil, err
	}
	fields := append(v.auth(acc),
		domain.F("orderId", order.ID),
		domain.F("amount", gateway.AmountMinor(order.Amount)),
	)
	return v.envelope(domain.TxRefund, path, domain.EndpointPayment, fields), nil
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	path, err := v.tables.TxType(domain.TxStatus)
	if err != nil {
		return nil, err
	}
	fields := append(v.auth(acc), domain.F("orderId", order.ID))
	return v.envelope(domain.TxStatus, path, domain.EndpointQuery, fields), nil
}

func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	path, err := v.tables.TxType(domain.TxHistory)
	if err != nil {
		return nil, err
	}
	day := order.CreatedAt
	if day.IsZero() {
		day = v.Now()
	}
	fields := append(v.auth(acc),
		domain.F("orderId", order.ID),
		domain.F("transactionDate", day.Format(dateLayout)),
		domain.F("page", 1),
		domain.F("pageSize", 10),
	)
	return v.envelope(domain.TxHistory, path, domain.EndpointQuery, fields), nil
}
