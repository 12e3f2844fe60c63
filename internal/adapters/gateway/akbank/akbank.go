// Package akbank implements the JSON virtual POS API of Akbank. Every request body is
// signed into the auth-hash header with HMAC-SHA512 under the secret key.
package akbank

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

const (
	Name = "akbank"

	version      = "1.00"
	signHeader   = "auth-hash"
	dateLayout   = "2006-01-02T15:04:05.000"
	randomLength = 128
)

var tables = gateway.Tables{
	Bank: Name,
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:      "1000",
		domain.TxPreAuth:  "1004",
		domain.TxPostAuth: "1005",
		domain.TxCancel:   "1003",
		domain.TxRefund:   "1002",
		domain.TxStatus:   "1010",
		domain.TxHistory:  "1009",
	},
	Models: map[domain.SecurityModel]string{
		domain.ModelNonSecure: "NON_SECURE",
		domain.Model3DSecure:  "3D",
		domain.Model3DPay:     "3D_PAY",
		domain.Model3DHost:    "3D_PAY_HOSTING",
	},
	Currencies: gateway.ISOCurrencies,
	RecurringUnits: map[domain.RecurringUnit]string{
		domain.RecurringDay:   "D",
		domain.RecurringWeek:  "W",
		domain.RecurringMonth: "M",
		domain.RecurringYear:  "Y",
	},
	Langs: map[string]string{
		domain.LangTR: "TR",
		domain.LangEN: "EN",
	},
}

var (
	form3D = crypt.Formula{
		Name: "akbank 3d form",
		Fields: []string{
			"paymentModel", "txnCode", "merchantSafeId", "terminalSafeId", "orderId", "lang", "amount",
			"currencyCode", "installCount", "okUrl", "failUrl", "emailAddress", "creditCard", "expiredDate",
			"securityCode", "randomNumber", "requestDateTime",
		},
		Algorithm: crypt.HMACSHA512Base64,
	}
	callback = crypt.HashParams{
		Name:      "akbank callback",
		NamesKey:  "hashParams",
		HashKey:   "hash",
		NameSep:   "+",
		Algorithm: crypt.HMACSHA512Base64,
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

// randomNumber stretches the nonce source to the 128 characters the API requires.
func (v *Variant) randomNumber() string {
	var b strings.Builder
	for b.Len() < randomLength {
		b.WriteString(v.Rand())
	}
	return b.String()[:randomLength]
}

func requireAPI(acc domain.Account) error {
	return acc.Require(domain.FieldClientID, domain.FieldTerminalID, domain.FieldStoreKey)
}

// envelope opens a request with the header every txnCode shares and attaches the body
// signer.
func (v *Variant) envelope(acc domain.Account, tx domain.TransactionType, txnCode string, body ...domain.Field) *domain.Envelope {
	fields := domain.Fields{
		domain.F("version", version),
		domain.F("txnCode", txnCode),
		domain.F("requestDateTime", v.Now().Format(dateLayout)),
		domain.F("randomNumber", v.randomNumber()),
		domain.F("terminal", domain.Fields{
			domain.F("merchantSafeId", acc.ClientID),
			domain.F("terminalSafeId", acc.TerminalID),
		}),
	}
	endpoint := domain.EndpointPayment
	if tx.IsInquiry() {
		endpoint = domain.EndpointQuery
	}
	return &domain.Envelope{
		TxType:   tx,
		Endpoint: endpoint,
		Format:   domain.WireJSON,
		Response: domain.WireJSON,
		Fields:   append(fields, body...),
		Signer:   crypt.NewBodySigner(signHeader, acc.StoreKey, crypt.HMACSHA512Base64),
	}
}

func (v *Variant) transaction(order domain.Order, currency string, installments bool) domain.Fields {
	fields := domain.Fields{
		domain.F("amount", json.Number(gateway.AmountFixed(order.Amount))),
		domain.F("currencyCode", json.Number(currency)),
	}
	if installments {
		fields = append(fields,
			domain.F("motoInd", 0),
			domain.F("installCount", gateway.InstallmentOne(order.Installment)),
		)
	}
	return fields
}

func customer(order domain.Order) domain.Fields {
	return domain.Fields{
		domain.F("emailAddress", order.Email),
		domain.F("ipAddress", order.IP),
	}
}

func (v *Variant) recurring(order domain.Order) (domain.Field, bool, error) {
	if order.Recurring == nil {
		return domain.Field{}, false, nil
	}
	unit, err := v.tables.RecurringUnit(order.Recurring.FrequencyUnit)
	if err != nil {
		return domain.Field{}, false, err
	}
	return domain.F("recurring", domain.Fields{
		domain.F("frequencyInterval", order.Recurring.Frequency),
		domain.F("frequencyCycle", unit),
		domain.F("numberOfInstallments", order.Recurring.InstallmentCount),
	}), true, nil
}

func (v *Variant) PaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if !tx.IsPayment() {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	txnCode, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}

	if tx == domain.TxPostAuth {
		return v.envelope(acc, tx, txnCode,
			domain.F("order", domain.Fields{domain.F("orderId", order.ID)}),
			domain.F("transaction", v.transaction(order, currency, false)),
			domain.F("customer", domain.Fields{domain.F("ipAddress", order.IP)}),
		), nil
	}

	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}
	body := []domain.Field{
		domain.F("card", domain.Fields{
			domain.F("cardNumber", card.Number),
			domain.F("cvv2", card.CVV),
			domain.F("expireDate", card.MMYY()),
		}),
		domain.F("transaction", v.transaction(order, currency, true)),
		domain.F("order", domain.Fields{domain.F("orderId", order.ID)}),
		domain.F("customer", customer(order)),
	}
	rec, ok, err := v.recurring(order)
	if err != nil {
		return nil, err
	}
	if ok {
		body = append(body, rec)
	}
	return v.envelope(acc, tx, txnCode, body...), nil
}

func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	model, err := v.tables.Model(acc.Model)
	if err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	txnCode, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{
		"paymentModel":    model,
		"txnCode":         txnCode,
		"merchantSafeId":  acc.ClientID,
		"terminalSafeId":  acc.TerminalID,
		"orderId":         order.ID,
		"lang":            v.tables.Lang(acc),
		"amount":          gateway.AmountFixed(order.Amount),
		"currencyCode":    currency,
		"installCount":    strconv.Itoa(gateway.InstallmentOne(order.Installment)),
		"okUrl":           order.SuccessURL,
		"failUrl":         order.FailURL,
		"emailAddress":    order.Email,
		"randomNumber":    v.randomNumber(),
		"requestDateTime": v.Now().Format(dateLayout),
	}
	if acc.Model != domain.Model3DHost {
		if card == nil {
			return nil, domain.NewMissingRequiredFieldError("card")
		}
		inputs["creditCard"] = card.Number
		inputs["expiredDate"] = card.MMYY()
		inputs["securityCode"] = card.CVV
	}
	inputs["hash"] = form3D.Sign(crypt.Params(inputs), acc.StoreKey)

	return &domain.FormData{Gateway: gatewayURL, Method: http.MethodPost, Inputs: inputs}, nil
}

func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldStoreKey); err != nil {
		return nil, err
	}
	if err := callback.Verify(gateway.Lookup(raw), acc.StoreKey); err != nil {
		return nil, err
	}
	if oid := raw.Str("orderId"); oid != order.ID {
		return nil, domain.NewCallbackMismatchError("order id", order.ID, oid)
	}
	return gateway.NewCallback(raw, raw.Str("mdStatus"), mdFull, mdHalf), nil
}

// ThreeDPaymentRequest completes a 3D model payment with the secure transaction data of
// the callback.
func (v *Variant) ThreeDPaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	txnCode, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	return v.envelope(acc, tx, txnCode,
		domain.F("order", domain.Fields{domain.F("orderId", order.ID)}),
		domain.F("transaction", v.transaction(order, currency, true)),
		domain.F("secureTransaction", domain.Fields{
			domain.F("secureId", cb.Values.Str("secureId")),
			domain.F("secureEcomInd", cb.Values.Str("secureEcomInd")),
			domain.F("secureData", cb.Values.Str("secureData")),
			domain.F("secureMd", cb.Values.Str("secureMd")),
		}),
		domain.F("customer", customer(order)),
	), nil
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txnCode, err := v.tables.TxType(domain.TxCancel)
	if err != nil {
		return nil, err
	}
	return v.envelope(acc, domain.TxCancel, txnCode,
		domain.F("order", domain.Fields{domain.F("orderId", order.ID)}),
		domain.F("customer", domain.Fields{domain.F("ipAddress", order.IP)}),
	), nil
}

func (v *Variant) RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txnCode, err := v.tables.TxType(domain.TxRefund)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	return v.envelope(acc, domain.TxRefund, txnCode,
		domain.F("order", domain.Fields{domain.F("orderId", order.ID)}),
		domain.F("transaction", v.transaction(order, currency, false)),
		domain.F("customer", domain.Fields{domain.F("ipAddress", order.IP)}),
	), nil
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txnCode, err := v.tables.TxType(domain.TxStatus)
	if err != nil {
		return nil, err
	}
	return v.envelope(acc, domain.TxStatus, txnCode,
		domain.F("order", domain.Fields{domain.F("orderId", order.ID)}),
	), nil
}

// HistoryRequest reports the day the order was created.
func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txnCode, err := v.tables.TxType(domain.TxHistory)
	if err != nil {
		return nil, err
	}
	day := order.CreatedAt
	if day.IsZero() {
		day = v.Now()
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1).Add(-time.Millisecond)
	return v.envelope(acc, domain.TxHistory, txnCode,
		domain.F("report", domain.Fields{
			domain.F("startDateTime", start.Format(dateLayout)),
			domain.F("endDateTime", end.Format(dateLayout)),
		}),
	), nil
}
