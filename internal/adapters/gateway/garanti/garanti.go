// Package garanti implements the Garanti BBVA virtual POS protocol (GVPS).
package garanti

import (
	"maps"
	"net/http"
	"strconv"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

const (
	Name       = "garanti"
	apiVersion = "v0.01"
	root       = "GVPSRequest"
	formKey    = "data"
)

var tables = gateway.Tables{
	Bank: Name,
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:      "sales",
		domain.TxPreAuth:  "preauth",
		domain.TxPostAuth: "postauth",
		domain.TxCancel:   "void",
		domain.TxRefund:   "refund",
		domain.TxStatus:   "orderinq",
		domain.TxHistory:  "orderhistoryinq",
	},
	Models: map[domain.SecurityModel]string{
		domain.ModelNonSecure: "",
		domain.Model3DSecure:  "3D",
		domain.Model3DPay:     "3D_PAY",
		domain.Model3DHost:    "3D_OOS_FULL",
	},
	Currencies: gateway.ISOCurrencies,
	RecurringUnits: map[domain.RecurringUnit]string{
		domain.RecurringDay:   "D",
		domain.RecurringWeek:  "W",
		domain.RecurringMonth: "M",
		domain.RecurringYear:  "Y",
	},
	Langs: map[string]string{
		domain.LangTR: "tr",
		domain.LangEN: "en",
	},
}

var (
	// hashData signs API requests; securitydata is the chained password digest.
	hashData = crypt.Formula{
		Name:      "garanti hash data",
		Fields:    []string{"orderid", "terminalid", "cardnumber", "amount", "securitydata"},
		Algorithm: crypt.SHA1HexUpper,
	}
	form3D = crypt.Formula{
		Name: "garanti 3d form",
		Fields: []string{
			"terminalid", "orderid", "txnamount", "successurl", "errorurl",
			"txntype", "txninstallmentcount", crypt.Secret, "securitydata",
		},
		Algorithm: crypt.SHA1HexUpper,
	}
	callback = crypt.HashParams{
		Name:      "garanti callback",
		NamesKey:  "hashparams",
		ValuesKey: "hashparamsval",
		HashKey:   "hash",
		NameSep:   ":",
		Algorithm: crypt.SHA1Base64,
	}
)

var responseCodes = gateway.ResponseCodes{
	"00": domain.DetailApproved,
	"01": domain.DetailBankCall,
	"02": domain.DetailBankCall,
	"05": domain.DetailReject,
	"09": domain.DetailTryAgain,
	"12": domain.DetailInvalidTransaction,
	"28": domain.DetailReject,
	"51": domain.DetailInsufficientBalance,
	"54": domain.DetailExpiredCard,
	"57": domain.DetailRestrictedCard,
	"62": domain.DetailRestrictedCard,
	"77": domain.DetailRequestRejected,
	"92": domain.DetailInvalidTransaction,
	"99": domain.DetailGeneralError,
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

func mode(acc domain.Account) string {
	if acc.IsTest() {
		return "TEST"
	}
	return "PROD"
}

func requireAPI(acc domain.Account) error {
	return acc.Require(domain.FieldClientID, domain.FieldTerminalID, domain.FieldUsername, domain.FieldPassword)
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

// request assembles a GVPSRequest. refund selects the PROVRFN user that cancel and refund
// need; card may be empty for operations on an existing order.
func (v *Variant) request(acc domain.Account, order domain.Order, refund bool, cardNumber string, amount string, card, transaction domain.Fields) domain.Fields {
	user, password := acc.Username, acc.Password
	if refund {
		user, password = acc.RefundCredentials()
	}
	hash := hashData.Sign(crypt.Params{
		"orderid":      order.ID,
		"terminalid":   acc.TerminalID,
		"cardnumber":   cardNumber,
		"amount":       amount,
		"securitydata": crypt.SecurityData(password, acc.TerminalID),
	}, "")

	return domain.Fields{
		domain.F("Mode", mode(acc)),
		domain.F("Version", apiVersion),
		domain.F("Terminal", domain.Fields{
			domain.F("ProvUserID", user),
			domain.F("HashData", hash),
			domain.F("UserID", user),
			domain.F("ID", acc.TerminalID),
			domain.F("MerchantID", acc.ClientID),
		}),
		domain.F("Customer", domain.Fields{
			domain.F("IPAddress", order.IP),
			domain.F("EmailAddress", order.Email),
		}),
		domain.F("Card", card),
		domain.F("Order", domain.Fields{
			domain.F("OrderID", order.ID),
			domain.F("GroupID", ""),
		}),
		domain.F("Transaction", transaction),
	}
}

func emptyCard() domain.Fields {
	return domain.Fields{
		domain.F("Number", ""),
		domain.F("ExpireDate", ""),
		domain.F("CVV2", ""),
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
	amount := gateway.AmountMinorString(order.Amount)

	transaction := domain.Fields{
		domain.F("Type", txType),
		domain.F("InstallmentCnt", gateway.InstallmentEmpty(order.Installment)),
		domain.F("Amount", amount),
		domain.F("CurrencyCode", currency),
		domain.F("CardholderPresentCode", "0"),
		domain.F("MotoInd", "N"),
	}

	if tx == domain.TxPostAuth {
		transaction = append(transaction, domain.F("OriginalRetrefNum", order.Ref.RetrievalNumber))
		return v.envelope(tx, domain.EndpointPayment, v.request(acc, order, false, "", amount, emptyCard(), transaction)), nil
	}

	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}
	if order.Recurring != nil {
		rec, err := v.recurring(order)
		if err != nil {
			return nil, err
		}
		transaction = append(transaction, domain.F("Recurring", rec))
	}
	cardFields := domain.Fields{
		domain.F("Number", card.Number),
		domain.F("ExpireDate", card.MMYY()),
		domain.F("CVV2", card.CVV),
	}
	return v.envelope(tx, domain.EndpointPayment, v.request(acc, order, false, card.Number, amount, cardFields, transaction)), nil
}

func (v *Variant) recurring(order domain.Order) (domain.Fields, error) {
	r := order.Recurring
	unit, err := v.tables.RecurringUnit(r.FrequencyUnit)
	if err != nil {
		return nil, err
	}
	start := order.CreatedAt
	if start.IsZero() {
		start = v.Now()
	}
	return domain.Fields{
		domain.F("TotalPaymentNum", strconv.Itoa(r.InstallmentCount)),
		domain.F("FrequencyType", unit),
		domain.F("FrequencyInterval", strconv.Itoa(r.Frequency)),
		domain.F("Type", "G"),
		domain.F("StartDate", start.Format("20060102")),
	}, nil
}

func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := acc.Require(domain.FieldClientID, domain.FieldTerminalID, domain.FieldUsername, domain.FieldPassword, domain.FieldStoreKey); err != nil {
		return nil, err
	}
	level, err := v.tables.Model(acc.Model)
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
		"secure3dsecuritylevel": level,
		"mode":                  mode(acc),
		"apiversion":            apiVersion,
		"terminalprovuserid":    acc.Username,
		"terminaluserid":        acc.Username,
		"terminalmerchantid":    acc.ClientID,
		"terminalid":            acc.TerminalID,
		"txntype":               txType,
		"txnamount":             gateway.AmountMinorString(order.Amount),
		"txncurrencycode":       currency,
		"txninstallmentcount":   gateway.InstallmentEmpty(order.Installment),
		"orderid":               order.ID,
		"successurl":            order.SuccessURL,
		"errorurl":              order.FailURL,
		"customeripaddress":     order.IP,
		"customeremailaddress":  order.Email,
		"lang":                  v.tables.Lang(acc),
	}

	if acc.Model != domain.Model3DHost {
		if card == nil {
			return nil, domain.NewMissingRequiredFieldError("card")
		}
		inputs["cardnumber"] = card.Number
		inputs["cardexpiredatemonth"] = card.MM()
		inputs["cardexpiredateyear"] = card.YY()
		inputs["cardcvv2"] = card.CVV
	}

	params := crypt.Params(maps.Clone(inputs))
	params["securitydata"] = crypt.SecurityData(acc.Password, acc.TerminalID)
	inputs["secure3dhash"] = form3D.Sign(params, acc.StoreKey)

	return &domain.FormData{Gateway: gatewayURL, Method: http.MethodPost, Inputs: inputs}, nil
}

func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldStoreKey); err != nil {
		return nil, err
	}
	if err := callback.Verify(gateway.Lookup(raw), acc.StoreKey); err != nil {
		return nil, err
	}
	if oid := raw.Str("orderid"); oid != order.ID {
		return nil, domain.NewCallbackMismatchError("order id", order.ID, oid)
	}
	return gateway.NewCallback(raw, raw.Str("mdstatus"), mdFull, mdHalf), nil
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
	amount := gateway.AmountMinorString(order.Amount)

	transaction := domain.Fields{
		domain.F("Type", txType),
		domain.F("InstallmentCnt", gateway.InstallmentEmpty(order.Installment)),
		domain.F("Amount", amount),
		domain.F("CurrencyCode", currency),
		domain.F("CardholderPresentCode", "13"),
		domain.F("MotoInd", "N"),
		domain.F("Secure3D", domain.Fields{
			domain.F("AuthenticationCode", cb.Values.Str("cavv")),
			domain.F("SecurityLevel", cb.Values.Str("eci")),
			domain.F("TxnID", cb.Values.Str("xid")),
			domain.F("Md", cb.Values.Str("md")),
		}),
	}
	return v.envelope(tx, domain.EndpointPayment, v.request(acc, order, false, "", amount, emptyCard(), transaction)), nil
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.reversal(acc, order, domain.TxCancel)
}

func (v *Variant) RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.reversal(acc, order, domain.TxRefund)
}

func (v *Variant) reversal(acc domain.Account, order domain.Order, tx domain.TransactionType) (*domain.Envelope, error) {
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
	amount := gateway.AmountMinorString(order.Amount)
	transaction := domain.Fields{
		domain.F("Type", txType),
		domain.F("InstallmentCnt", ""),
		domain.F("Amount", amount),
		domain.F("CurrencyCode", currency),
		domain.F("CardholderPresentCode", "0"),
		domain.F("MotoInd", "N"),
		domain.F("OriginalRetrefNum", order.Ref.RetrievalNumber),
	}
	return v.envelope(tx, domain.EndpointPayment, v.request(acc, order, true, "", amount, emptyCard(), transaction)), nil
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.inquiry(acc, order, domain.TxStatus)
}

func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.inquiry(acc, order, domain.TxHistory)
}

func (v *Variant) inquiry(acc domain.Account, order domain.Order, tx domain.TransactionType) (*domain.Envelope, error) {
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
	amount := gateway.AmountMinorString(order.Amount)
	transaction := domain.Fields{
		domain.F("Type", txType),
		domain.F("InstallmentCnt", ""),
		domain.F("Amount", amount),
		domain.F("CurrencyCode", currency),
		domain.F("CardholderPresentCode", "0"),
		domain.F("MotoInd", "N"),
	}
	return v.envelope(tx, domain.EndpointQuery, v.request(acc, order, false, "", amount, emptyCard(), transaction)), nil
}
