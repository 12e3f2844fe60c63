// Package payfor implements the PayFor protocol of QNB Finansbank.
package payfor

import (
	"net/http"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

const (
	Name    = "payfor"
	mbrID   = "5"
	root    = "PayforRequest"
	charset = "ISO-8859-9"
)

var tables = gateway.Tables{
	Bank: Name,
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:      "Auth",
		domain.TxPreAuth:  "PreAuth",
		domain.TxPostAuth: "PostAuth",
		domain.TxCancel:   "Void",
		domain.TxRefund:   "Refund",
		domain.TxStatus:   "TxnInquiry",
		domain.TxHistory:  "TxnHistory",
	},
	Models: map[domain.SecurityModel]string{
		domain.ModelNonSecure: "NonSecure",
		domain.Model3DSecure:  "3DModel",
		domain.Model3DPay:     "3DPay",
		domain.Model3DHost:    "3DHost",
	},
	Currencies: gateway.ISOCurrencies,
	Langs: map[string]string{
		domain.LangTR: "TR",
		domain.LangEN: "EN",
	},
}

var (
	form3D = crypt.Formula{
		Name: "payfor 3d form",
		Fields: []string{
			"MbrId", "OrderId", "PurchAmount", "OkUrl", "FailUrl", "TxnType", "InstallmentCount", "Rnd", crypt.Secret,
		},
		Algorithm: crypt.SHA1Base64,
	}
	callback = crypt.Formula{
		Name: "payfor callback",
		Fields: []string{
			"MerchantID", crypt.Secret, "OrderId", "AuthCode", "ProcReturnCode", "3DStatus", "ResponseRnd", "UserCode",
		},
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
	"V013": domain.DetailInvalidCredentials,
	"V014": domain.DetailRequestRejected,
}

var (
	statusFull = []string{"1"}
	statusHalf = []string{"2", "3", "4"}
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

func (v *Variant) envelope(tx domain.TransactionType, endpoint domain.Endpoint, fields domain.Fields) *domain.Envelope {
	return &domain.Envelope{
		TxType:   tx,
		Endpoint: endpoint,
		Format:   domain.WireXML,
		Response: domain.WireXML,
		Root:     root,
		Charset:  charset,
		Fields:   fields,
	}
}

func requireAPI(acc domain.Account) error {
	return acc.Require(domain.FieldClientID, domain.FieldUsername, domain.FieldPassword)
}

func credentials(acc domain.Account) domain.Fields {
	return domain.Fields{
		domain.F("MbrId", mbrID),
		domain.F("MerchantId", acc.ClientID),
		domain.F("UserCode", acc.Username),
		domain.F("UserPass", acc.Password),
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
	secure := v.tables.Models[domain.ModelNonSecure]

	if tx == domain.TxPostAuth {
		fields := append(credentials(acc),
			domain.F("OrgOrderId", order.ID),
			domain.F("SecureType", secure),
			domain.F("TxnType", txType),
			domain.F("PurchAmount", gateway.AmountFixed(order.Amount)),
			domain.F("Currency", currency),
			domain.F("Lang", v.tables.Lang(acc)),
		)
		return v.envelope(tx, domain.EndpointPayment, fields), nil
	}

	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}
	fields := append(credentials(acc),
		domain.F("MOTO", "0"),
		domain.F("OrderId", order.ID),
		domain.F("SecureType", secure),
		domain.F("TxnType", txType),
		domain.F("PurchAmount", gateway.AmountFixed(order.Amount)),
		domain.F("Currency", currency),
		domain.F("InstallmentCount", gateway.InstallmentZeroString(order.Installment)),
		domain.F("Lang", v.tables.Lang(acc)),
		domain.F("CardHolderName", card.HolderName),
		domain.F("Pan", card.Number),
		domain.F("Expiry", card.MMYY()),
		domain.F("Cvv2", card.CVV),
	)
	return v.envelope(tx, domain.EndpointPayment, fields), nil
}

func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := acc.Require(domain.FieldClientID, domain.FieldUsername, domain.FieldStoreKey); err != nil {
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
		"MbrId":            mbrID,
		"MerchantID":       acc.ClientID,
		"UserCode":         acc.Username,
		"OrderId":          order.ID,
		"Lang":             v.tables.Lang(acc),
		"SecureType":       secure,
		"TxnType":          txType,
		"PurchAmount":      gateway.AmountFixed(order.Amount),
		"InstallmentCount": gateway.InstallmentZeroString(order.Installment),
		"Currency":         currency,
		"OkUrl":            order.SuccessURL,
		"FailUrl":          order.FailURL,
		"Rnd":              v.Rand(),
	}
	if acc.Model != domain.Model3DHost {
		if card == nil {
			return nil, domain.NewMissingRequiredFieldError("card")
		}
		inputs["CardHolderName"] = card.HolderName
		inputs["Pan"] = card.Number
		inputs["Expiry"] = card.MMYY()
		inputs["Cvv2"] = card.CVV
	}
	inputs["Hash"] = form3D.Sign(crypt.Params(inputs), acc.StoreKey)

	return &domain.FormData{Gateway: gatewayURL, Method: http.MethodPost, Inputs: inputs}, nil
}

func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldStoreKey); err != nil {
		return nil, err
	}
	if err := callback.Verify(gateway.Params(raw), acc.StoreKey, raw.Str("ResponseHash")); err != nil {
		return nil, err
	}
	if oid := raw.Str("OrderId"); oid != order.ID {
		return nil, domain.NewCallbackMismatchError("order id", order.ID, oid)
	}
	return gateway.NewCallback(raw, raw.Str("3DStatus"), statusFull, statusHalf), nil
}

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
	fields := append(credentials(acc),
		domain.F("OrderId", order.ID),
		domain.F("RequestGuid", cb.Values.Str("RequestGuid")),
		domain.F("SecureType", "3DModelPayment"),
		domain.F("TxnType", txType),
		domain.F("PurchAmount", gateway.AmountFixed(order.Amount)),
		domain.F("Currency", currency),
		domain.F("InstallmentCount", gateway.InstallmentZeroString(order.Installment)),
		domain.F("Lang", v.tables.Lang(acc)),
	)
	return v.envelope(tx, domain.EndpointPayment, fields), nil
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.existing(acc, order, domain.TxCancel, false)
}

func (v *Variant) RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.existing(acc, order, domain.TxRefund, true)
}

func (v *Variant) existing(acc domain.Account, order domain.Order, tx domain.TransactionType, withAmount bool) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	fields := append(credentials(acc),
		domain.F("OrgOrderId", order.ID),
		domain.F("SecureType", v.tables.Models[domain.ModelNonSecure]),
		domain.F("TxnType", txType),
	)
	if withAmount {
		fields = append(fields, domain.F("PurchAmount", gateway.AmountFixed(order.Amount)))
	}
	fields = append(fields,
		domain.F("Currency", currency),
		domain.F("Lang", v.tables.Lang(acc)),
	)
	return v.envelope(tx, domain.EndpointPayment, fields), nil
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(domain.TxStatus)
	if err != nil {
		return nil, err
	}
	fields := append(credentials(acc),
		domain.F("OrgOrderId", order.ID),
		domain.F("SecureType", "Inquiry"),
		domain.F("TxnType", txType),
		domain.F("Lang", v.tables.Lang(acc)),
	)
	return v.envelope(domain.TxStatus, domain.EndpointQuery, fields), nil
}

// HistoryRequest reports on the day the order was created.
func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(domain.TxHistory)
	if err != nil {
		return nil, err
	}
	day := order.CreatedAt
	if day.IsZero() {
		day = v.Now()
	}
	fields := append(credentials(acc),
		domain.F("SecureType", "Report"),
		domain.F("TxnType", txType),
		domain.F("ReqDate", day.Format("20060102")),
		domain.F("Lang", v.tables.Lang(acc)),
	)
	if order.ID != "" {
		fields = append(fields, domain.F("OrgOrderId", order.ID))
	}
	return v.envelope(domain.TxHistory, domain.EndpointQuery, fields), nil
}

const approvedCode = "00"

func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	code := raw.Str("ProcReturnCode")

	r.ProcReturnCode = code
	r.ErrorCode = raw.Str("ErrorCode")
	r.ErrorMessage = raw.Str("ErrMsg")
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
