// Package estpos implements the Asseco EST protocol used by Akbank (legacy), Isbank,
// Sekerbank, Anadolubank, Finansbank, Ziraat, Halkbank and TEB.
package estpos

import (
	"strconv"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

// HashVersion selects how 3-D forms and callbacks are signed.
type HashVersion int

const (
	// HashV1 signs a fixed field list with SHA-1.
	HashV1 HashVersion = iota + 1
	// HashV3 signs every form field, sorted, with SHA-512.
	HashV3
)

const (
	Name    = "estpos"
	NameV3  = "estpos-v3"
	root    = "CC5Request"
	charset = "ISO-8859-9"
)

var tables = gateway.Tables{
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:      "Auth",
		domain.TxPreAuth:  "PreAuth",
		domain.TxPostAuth: "PostAuth",
		domain.TxCancel:   "Void",
		domain.TxRefund:   "Credit",
		domain.TxStatus:   "ORDERSTATUS",
		domain.TxHistory:  "ORDERHISTORY",
	},
	Models: map[domain.SecurityModel]string{
		domain.ModelNonSecure: "regular",
		domain.Model3DSecure:  "3d",
		domain.Model3DPay:     "3d_pay",
		domain.Model3DHost:    "3d_pay_hosting",
	},
	Currencies: gateway.ISOCurrencies,
	Brands: map[domain.CardBrand]string{
		domain.BrandVisa:   "1",
		domain.BrandMaster: "2",
	},
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
	// form3D signs the plain 3d model form.
	form3D = crypt.Formula{
		Name:      "estpos 3d form",
		Fields:    []string{"clientid", "oid", "amount", "okUrl", "failUrl", "rnd", crypt.Secret},
		Algorithm: crypt.SHA1Base64,
	}
	// form3DPay signs 3d_pay and 3d_host forms, which also commit to type and installment.
	form3DPay = crypt.Formula{
		Name:      "estpos 3d pay form",
		Fields:    []string{"clientid", "oid", "amount", "okUrl", "failUrl", "islemtipi", "taksit", "rnd", crypt.Secret},
		Algorithm: crypt.SHA1Base64,
	}
	callbackV1 = crypt.HashParams{
		Name:      "estpos callback",
		NamesKey:  "HASHPARAMS",
		ValuesKey: "HASHPARAMSVAL",
		HashKey:   "HASH",
		NameSep:   ":",
		Algorithm: crypt.SHA1Base64,
	}
	sortedV3 = crypt.SortedFormula{
		Name:      "estpos ver3",
		Exclude:   []string{"hash", "encoding"},
		Separator: "|",
		Algorithm: crypt.SHA512Base64,
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
	"99": domain.DetailGeneralError,
}

var (
	mdFull = []string{"1"}
	mdHalf = []string{"2", "3", "4"}
)

type Variant struct {
	gateway.Base
	version HashVersion
	tables  *gateway.Tables
}

var _ gateway.Variant = (*Variant)(nil)

func New(version HashVersion, opts ...gateway.Option) *Variant {
	t := tables
	t.Bank = Name
	if version == HashV3 {
		t.Bank = NameV3
	}
	return &Variant{
		Base:    gateway.NewBase(opts...),
		version: version,
		tables:  &t,
	}
}

func (v *Variant) Name() string {
	return v.tables.Bank
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

func credentials(acc domain.Account) domain.Fields {
	return domain.Fields{
		domain.F("Name", acc.Username),
		domain.F("Password", acc.Password),
		domain.F("ClientId", acc.ClientID),
	}
}

func requireAPI(acc domain.Account) error {
	return acc.Require(domain.FieldClientID, domain.FieldUsername, domain.FieldPassword)
}

func (v *Variant) PaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}

	switch tx {
	case domain.TxPay, domain.TxPreAuth:
	case domain.TxPostAuth:
		return v.postAuth(acc, order, txType), nil
	default:
		return nil, domain.NewUnsupportedTransactionError(v.Name(), tx)
	}
	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}

	fields, err := v.orderFields(acc, order, txType)
	if err != nil {
		return nil, err
	}
	fields = append(fields,
		domain.F("Number", card.Number),
		domain.F("Expires", card.Expiry()),
		domain.F("Cvv2Val", card.CVV),
		domain.F("Mode", "P"),
	)
	if order.Recurring != nil {
		pb, err := v.recurring(order.Recurring)
		if err != nil {
			return nil, err
		}
		fields = append(fields, domain.F("PbOrder", pb))
	}
	return v.envelope(tx, domain.EndpointPayment, fields), nil
}

func (v *Variant) orderFields(acc domain.Account, order domain.Order, txType string) (domain.Fields, error) {
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	installment := gateway.InstallmentEmpty(order.Installment)
	if order.Recurring != nil {
		installment = ""
	}
	return append(credentials(acc),
		domain.F("Type", txType),
		domain.F("IPAddress", order.IP),
		domain.F("Email", order.Email),
		domain.F("OrderId", order.ID),
		domain.F("UserId", ""),
		domain.F("Total", gateway.AmountFixed(order.Amount)),
		domain.F("Currency", currency),
		domain.F("Taksit", installment),
	), nil
}

func (v *Variant) recurring(r *domain.Recurring) (domain.Fields, error) {
	unit, err := v.tables.RecurringUnit(r.FrequencyUnit)
	if err != nil {
		return nil, err
	}
	return domain.Fields{
		domain.F("OrderType", "0"),
		domain.F("OrderFrequencyInterval", strconv.Itoa(r.Frequency)),
		domain.F("OrderFrequencyCycle", unit),
		domain.F("TotalNumberPayments", strconv.Itoa(r.InstallmentCount)),
	}, nil
}

func (v *Variant) postAuth(acc domain.Account, order domain.Order, txType string) *domain.Envelope {
	fields := append(credentials(acc),
		domain.F("Type", txType),
		domain.F("OrderId", order.ID),
	)
	if order.Amount.IsPositive() {
		fields = append(fields, domain.F("Total", gateway.AmountFixed(order.Amount)))
	}
	return v.envelope(domain.TxPostAuth, domain.EndpointPayment, fields)
}

// ThreeDPaymentRequest is the provision call after a successful 3d model authentication.
// The callback's md value stands in for the card number.
func (v *Variant) ThreeDPaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(v.Name(), tx)
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	fields, err := v.orderFields(acc, order, txType)
	if err != nil {
		return nil, err
	}
	fields = append(fields,
		domain.F("Number", cb.Values.Str("md")),
		domain.F("PayerTxnId", cb.Values.Str("xid")),
		domain.F("PayerSecurityLevel", cb.Values.Str("eci")),
		domain.F("PayerAuthenticationCode", cb.Values.Str("cavv")),
		domain.F("Mode", "P"),
	)
	return v.envelope(tx, domain.EndpointPayment, fields), nil
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.query(acc, order, domain.TxStatus)
}

func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.query(acc, order, domain.TxHistory)
}

func (v *Variant) query(acc domain.Account, order domain.Order, tx domain.TransactionType) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	literal, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	fields := append(credentials(acc),
		domain.F("OrderId", order.ID),
		domain.F("Extra", domain.Fields{domain.F(literal, "QUERY")}),
	)
	return v.envelope(tx, domain.EndpointQuery, fields), nil
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(domain.TxCancel)
	if err != nil {
		return nil, err
	}
	fields := append(credentials(acc),
		domain.F("OrderId", order.ID),
		domain.F("Type", txType),
	)
	return v.envelope(domain.TxCancel, domain.EndpointPayment, fields), nil
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
	fields := append(credentials(acc),
		domain.F("OrderId", order.ID),
		domain.F("Currency", currency),
		domain.F("Type", txType),
	)
	if order.Amount.IsPositive() {
		fields = append(fields, domain.F("Total", gateway.AmountFixed(order.Amount)))
	}
	return v.envelope(domain.TxRefund, domain.EndpointPayment, fields), nil
}
