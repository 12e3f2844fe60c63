// Package posnet implements the Yapi Kredi PosNet protocol, also used by Albaraka.
package posnet

import (
	"strings"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

const (
	Name    = "posnet"
	root    = "posnetRequest"
	formKey = "xmldata"

	orderIDLen = 24
	xidLen     = 20
)

var tables = gateway.Tables{
	Bank: Name,
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:      "Sale",
		domain.TxPreAuth:  "Auth",
		domain.TxPostAuth: "Capt",
		domain.TxCancel:   "reverse",
		domain.TxRefund:   "return",
		domain.TxStatus:   "agreement",
	},
	Models: map[domain.SecurityModel]string{
		domain.ModelNonSecure: "",
		domain.Model3DSecure:  "3d",
	},
	Currencies: map[domain.Currency]string{
		domain.CurrencyTRY: "TL",
		domain.CurrencyUSD: "US",
		domain.CurrencyEUR: "EU",
		domain.CurrencyGBP: "GB",
		domain.CurrencyJPY: "JP",
		domain.CurrencyRUB: "RU",
	},
	Langs: map[string]string{
		domain.LangTR: "tr",
		domain.LangEN: "en",
	},
}

var (
	// firstHash binds the encryption key to the terminal.
	firstHash = crypt.Formula{
		Name:      "posnet first hash",
		Fields:    []string{crypt.Secret, "tid"},
		Separator: ";",
		Algorithm: crypt.SHA256Base64,
	}
	mac = crypt.Formula{
		Name:      "posnet mac",
		Fields:    []string{"xid", "amount", "currency", "mid", "firstHash"},
		Separator: ";",
		Algorithm: crypt.SHA256Base64,
	}
	callbackSign = crypt.Formula{
		Name:      "posnet callback sign",
		Fields:    []string{"mdStatus", "xid", "amount", "currency", "mid", "firstHash"},
		Separator: ";",
		Algorithm: crypt.SHA256Base64,
	}
)

var responseCodes = gateway.ResponseCodes{
	"0001": domain.DetailBankCall,
	"0005": domain.DetailReject,
	"0007": domain.DetailBankCall,
	"0012": domain.DetailReject,
	"0014": domain.DetailReject,
	"0030": domain.DetailBankCall,
	"0041": domain.DetailReject,
	"0043": domain.DetailReject,
	"0051": domain.DetailInsufficientBalance,
	"0054": domain.DetailExpiredCard,
	"0057": domain.DetailRestrictedCard,
	"0058": domain.DetailRestrictedCard,
	"0062": domain.DetailRestrictedCard,
	"0065": domain.DetailReject,
	"0091": domain.DetailBankCall,
	"0123": domain.DetailInvalidTransaction,
	"0444": domain.DetailBankCall,
}

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

// OrderID pads an order id to the 24 characters the API expects.
func OrderID(id string) string {
	return crypt.LeftPad(id, orderIDLen, '0')
}

// XID pads an order id to the 20 character 3-D transaction id.
func XID(id string) string {
	return crypt.LeftPad(id, xidLen, '0')
}

func requireAPI(acc domain.Account) error {
	return acc.Require(domain.FieldClientID, domain.FieldTerminalID)
}

func (v *Variant) envelope(tx domain.TransactionType, endpoint domain.Endpoint, fields domain.Fields) *domain.Envelope {
	return &domain.Envelope{
		TxType:   tx,
		Endpoint: endpoint,
		Format:   domain.WireXMLInForm,
		FormKey:  formKey,
		Response: domain.WireXML,
		Root:     root,
		Fields:   fields,
	}
}

// request wraps body under the lower-cased transaction literal, as PosNet names its
// operation elements.
func request(acc domain.Account, literal string, body domain.Fields) domain.Fields {
	return domain.Fields{
		domain.F("mid", acc.ClientID),
		domain.F("tid", acc.TerminalID),
		domain.F("tranDateRequired", "1"),
		domain.F(strings.ToLower(literal), body),
	}
}

func (v *Variant) PaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if !tx.IsPayment() {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	literal, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	amount := gateway.AmountMinorString(order.Amount)

	if tx == domain.TxPostAuth {
		body := domain.Fields{
			domain.F("hostLogKey", order.Ref.HostLogKey),
			domain.F("amount", amount),
			domain.F("currencyCode", currency),
			domain.F("installment", gateway.InstallmentPadded(order.Installment)),
		}
		return v.envelope(tx, domain.EndpointPayment, request(acc, literal, body)), nil
	}

	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}
	body := domain.Fields{
		domain.F("orderID", OrderID(order.ID)),
		domain.F("installment", gateway.InstallmentPadded(order.Installment)),
		domain.F("amount", amount),
		domain.F("currencyCode", currency),
		domain.F("ccno", card.Number),
		domain.F("expDate", card.YYMM()),
		domain.F("cvc", card.CVV),
	}
	return v.envelope(tx, domain.EndpointPayment, request(acc, literal, body)), nil
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	literal, err := v.tables.TxType(domain.TxCancel)
	if err != nil {
		return nil, err
	}
	body := domain.Fields{domain.F("transaction", "sale")}
	body = append(body, reference(order)...)
	if order.Ref.AuthCode != "" {
		body = append(body, domain.F("authCode", order.Ref.AuthCode))
	}
	return v.envelope(domain.TxCancel, domain.EndpointPayment, request(acc, literal, body)), nil
}

func (v *Variant) RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	literal, err := v.tables.TxType(domain.TxRefund)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	body := domain.Fields{
		domain.F("amount", gateway.AmountMinorString(order.Amount)),
		domain.F("currencyCode", currency),
	}
	body = append(body, reference(order)...)
	return v.envelope(domain.TxRefund, domain.EndpointPayment, request(acc, literal, body)), nil
}

// reference prefers the host log key and falls back to the padded order id.
func reference(order domain.Order) domain.Fields {
	if order.Ref.HostLogKey != "" {
		return domain.Fields{domain.F("hostLogKey", order.Ref.HostLogKey)}
	}
	return domain.Fields{domain.F("orderID", OrderID(order.ID))}
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	literal, err := v.tables.TxType(domain.TxStatus)
	if err != nil {
		return nil, err
	}
	fields := domain.Fields{
		domain.F("mid", acc.ClientID),
		domain.F("tid", acc.TerminalID),
		domain.F(literal, domain.Fields{domain.F("orderID", OrderID(order.ID))}),
	}
	return v.envelope(domain.TxStatus, domain.EndpointQuery, fields), nil
}

func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if _, err := v.tables.TxType(domain.TxHistory); err != nil {
		return nil, err
	}
	return nil, domain.NewUnsupportedTransactionError(Name, domain.TxHistory)
}
