// Package interpos implements the InterVPOS protocol of Denizbank. Requests are plain form
// posts and replies come back as "key=value;;key=value" text.
package interpos

import (
	"net/http"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

const Name = "interpos"

var tables = gateway.Tables{
	Bank: Name,
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:      "Auth",
		domain.TxPreAuth:  "PreAuth",
		domain.TxPostAuth: "PostAuth",
		domain.TxCancel:   "Void",
		domain.TxRefund:   "Refund",
		domain.TxStatus:   "StatusHistory",
	},
	Models: map[domain.SecurityModel]string{
		domain.ModelNonSecure: "NonSecure",
		domain.Model3DSecure:  "3DModel",
		domain.Model3DPay:     "3DPay",
		domain.Model3DHost:    "3DHost",
	},
	Currencies: gateway.ISOCurrencies,
	Langs: map[string]string{
		domain.LangTR: "tr",
		domain.LangEN: "en",
	},
}

var (
	form3D = crypt.Formula{
		Name: "interpos 3d form",
		Fields: []string{
			"ShopCode", "OrderId", "PurchAmount", "OkUrl", "FailUrl", "TxnType", "InstallmentCount", "Rnd", crypt.Secret,
		},
		Algorithm: crypt.SHA1Base64,
	}
	callback = crypt.HashParams{
		Name:      "interpos callback",
		NamesKey:  "HASHPARAMS",
		ValuesKey: "HASHPARAMSVAL",
		HashKey:   "HASH",
		NameSep:   ":",
		Algorithm: crypt.SHA1Base64,
	}
)

var responseCodes = gateway.ResponseCodes{
	"00":   domain.DetailApproved,
	"01":   domain.DetailBankCall,
	"02":   domain.DetailBankCall,
	"05":   domain.DetailReject,
	"09":   domain.DetailTryAgain,
	"12":   domain.DetailInvalidTransaction,
	"51":   domain.DetailInsufficientBalance,
	"54":   domain.DetailExpiredCard,
	"57":   domain.DetailRestrictedCard,
	"62":   domain.DetailRestrictedCard,
	"77":   domain.DetailRequestRejected,
	"99":   domain.DetailGeneralError,
	"M029": domain.DetailInvalidCredentials,
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

func (v *Variant) envelope(tx domain.TransactionType, fields domain.Fields) *domain.Envelope {
	return &domain.Envelope{
		TxType:   tx,
		Endpoint: domain.EndpointPayment,
		Format:   domain.WireForm,
		Response: domain.WireDelimited,
		Fields:   fields,
	}
}

func requireAPI(acc domain.Account) error {
	return acc.Require(domain.FieldClientID, domain.FieldUsername, domain.FieldPassword)
}

// base opens every API request. ShopCode is the merchant number.
func (v *Variant) base(acc domain.Account, txType string) domain.Fields {
	return domain.Fields{
		domain.F("ShopCode", acc.ClientID),
		domain.F("UserCode", acc.Username),
		domain.F("UserPass", acc.Password),
		domain.F("TxnType", txType),
		domain.F("SecureType", v.tables.Models[domain.ModelNonSecure]),
		domain.F("Lang", v.tables.Lang(acc)),
	}
}

func (v *Variant) PaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if !tx.IsPayment() {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}

	fields := v.base(acc, txType)
	if tx == domain.TxPostAuth {
		fields = append(fields,
			domain.F("OrgOrderId", order.ID),
			domain.F("PurchAmount", gateway.AmountFixed(order.Amount)),
			domain.F("Currency", currency),
			domain.F("MOTO", "0"),
		)
		return v.envelope(tx, fields), nil
	}

	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}
	fields = append(fields,
		domain.F("OrderId", order.ID),
		domain.F("PurchAmount", gateway.AmountFixed(order.Amount)),
		domain.F("Currency", currency),
		domain.F("InstallmentCount", gateway.InstallmentEmpty(order.Installment)),
		domain.F("MOTO", "0"),
		domain.F("CardType", ""),
		domain.F("Pan", card.Number),
		domain.F("Expiry", card.MMYY()),
		domain.F("Cvv2", card.CVV),
	)
	return v.envelope(tx, fields), nil
}

func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := acc.Require(domain.FieldClientID, domain.FieldStoreKey); err != nil {
		return nil, err
	}
	secure, err := v.tables.Model(acc.Model)
	if err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{
		"ShopCode":         acc.ClientID,
		"TxnType":          txType,
		"SecureType":       secure,
		"PurchAmount":      gateway.AmountFixed(order.Amount),
		"Currency":         currency,
		"OrderId":          order.ID,
		"OkUrl":            order.SuccessURL,
		"FailUrl":          order.FailURL,
		"Rnd":              v.Rand(),
		"Lang":             v.tables.Lang(acc),
		"InstallmentCount": gateway.InstallmentEmpty(order.Installment),
	}
	if acc.Model != domain.Model3DHost {
		if card == nil {
			return nil, domain.NewMissingRequiredFieldError("card")
		}
		inputs["Pan"] = card.Number
		inputs["Expiry"] = card.MMYY()
		inputs["Cvv2"] = card.CVV
		inputs["CardType"] = ""
	}
	inputs["Hash"] = form3D.Sign(crypt.Params(inputs), acc.StoreKey)

	return &domain.FormData{Gateway: gatewayURL, Method: http.MethodPost, Inputs: inputs}, nil
}

func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldStoreKey); err != nil {
		return nil, err
	}
	if err := callback.Verify(gateway.Lookup(raw), acc.StoreKey); err != nil {
		return nil, err
	}
	if oid := raw.Str("OrderId"); oid != order.ID {
		return nil, domain.NewCallbackMismatchError("order id", order.ID, oid)
	}
	return gateway.NewCallback(raw, raw.Str("mdStatus"), mdFull, mdHalf), nil
}

// ThreeDPaymentRequest forwards the authentication data of a 3DModel callback.
func (v *Variant) ThreeDPaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	fields := append(v.base(acc, txType),
		domain.F("OrderId", order.ID),
		domain.F("PurchAmount", gateway.AmountFixed(order.Amount)),
		domain.F("Currency", currency),
		domain.F("InstallmentCount", gateway.InstallmentEmpty(order.Installment)),
		domain.F("MOTO", "0"),
		domain.F("RequestGuid", cb.Values.Str("RequestGuid")),
		domain.F("PayerTxnId", cb.Values.Str("PayerTxnId")),
		domain.F("PayerAuthenticationCode", cb.Values.Str("PayerAuthenticationCode")),
		domain.F("Eci", cb.Values.Str("Eci")),
		domain.F("MD", cb.Values.Str("MD")),
	)
	return v.envelope(tx, fields), nil
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(domain.TxCancel)
	if err != nil {
		return nil, err
	}
	fields := append(v.base(acc, txType), domain.F("OrgOrderId", order.ID))
	return v.envelope(domain.TxCancel, fields), nil
}

func (v *Variant) RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(domain.TxRefund)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	fields := append(v.base(acc, txType),
		domain.F("OrgOrderId", order.ID),
		domain.F("PurchAmount", gateway.AmountFixed(order.Amount)),
		domain.F("Currency", currency),
		domain.F("MOTO", "0"),
	)
	return v.envelope(domain.TxRefund, fields), nil
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(domain.TxStatus)
	if err != nil {
		return nil, err
	}
	fields := append(v.base(acc, txType), domain.F("OrderId", order.ID))
	return v.envelope(domain.TxStatus, fields), nil
}

// HistoryRequest is not offered by InterVPOS; StatusHistory already carries the order's
// transaction list.
func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return nil, domain.NewUnsupportedTransactionError(Name, domain.TxHistory)
}

const approvedCode = "00"

func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	code := raw.Str("ProcReturnCode")

	r.ProcReturnCode = code
	r.ErrorCode = raw.Str("ErrorCode")
	r.ErrorMessage = raw.Str("ErrorMessage")
	r.AuthCode = raw.Str("AuthCode")
	r.RefNumber = raw.Str("HostRefNum")
	r.TransactionID = raw.Str("TransId")
	r.SecurityLevel = domain.LevelNonSecure
	gateway.Settle(&r, code == approvedCode, code, responseCodes)
	return r
}

func (v *Variant) Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result {
	src := raw
	if src == nil {
		src = cb.Values
	}
	r := v.NormalizePayment(order, tx, src)
	gateway.Apply3D(&r, cb)
	return r
}

func (v *Variant) NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := v.NormalizePayment(order, tx, raw)
	r.SecurityLevel = ""
	return r
}
