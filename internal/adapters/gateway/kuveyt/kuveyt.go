// Package kuveyt implements the KuveytPos protocol of Kuveyt Turk. Payments are 3-D only:
// the cardholder authenticates, the bank posts back an XML contract and the merchant sends
// a provision message carrying the MD. Status, cancel and refund go over the SOAP service.
package kuveyt

import (
	"maps"
	"net/http"
	"net/url"

	"github.com/DanielPopoola/posgateway/internal/adapters/codec"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

const (
	Name = "kuveyt"

	apiVersion = "TDV2.0.0"
	root       = "KuveytTurkVPosMessage"
	namespace  = "http://boa.net/BOA.Integration.VirtualPos/Service"
	soapAction = namespace + "/IVirtualPosService/"

	securityThreeD = "3"
	securityAPI    = "1"

	callbackField = "AuthenticationResponse"
)

var tables = gateway.Tables{
	Bank: Name,
	TxTypes: map[domain.TransactionType]string{
		domain.TxPay:    "Sale",
		domain.TxCancel: "SaleReversal",
		domain.TxRefund: "Drawback",
		domain.TxStatus: "GetMerchantOrderDetail",
	},
	Models: map[domain.SecurityModel]string{
		domain.Model3DSecure: "3d",
	},
	Currencies: map[domain.Currency]string{
		domain.CurrencyTRY: "0949",
		domain.CurrencyUSD: "0840",
		domain.CurrencyEUR: "0978",
		domain.CurrencyGBP: "0826",
		domain.CurrencyJPY: "0392",
		domain.CurrencyRUB: "0643",
	},
	Brands: map[domain.CardBrand]string{
		domain.BrandVisa:   "Visa",
		domain.BrandMaster: "MasterCard",
		domain.BrandTroy:   "Troy",
	},
	Langs: map[string]string{
		domain.LangTR: "tr",
		domain.LangEN: "en",
	},
}

// Every KuveytPos signature ends with the base64 SHA-1 of the API password.
var (
	form3D = crypt.Formula{
		Name:      "kuveyt 3d form",
		Fields:    []string{"MerchantId", "MerchantOrderId", "Amount", "OkUrl", "FailUrl", "UserName", crypt.Secret},
		Algorithm: crypt.SHA1Base64,
	}
	provision = crypt.Formula{
		Name:      "kuveyt provision",
		Fields:    []string{"MerchantId", "MerchantOrderId", "Amount", "UserName", crypt.Secret},
		Algorithm: crypt.SHA1Base64,
	}
	callback = crypt.Formula{
		Name:      "kuveyt callback",
		Fields:    []string{"MerchantOrderId", "ResponseCode", "OrderId", crypt.Secret},
		Algorithm: crypt.SHA1Base64,
	}
)

var (
	authFull = []string{"00"}
	// ResponseCode 00 is the only success; Kuveyt has no half 3-D outcome.
	authHalf []string
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
	return acc.Require(domain.FieldClientID, domain.FieldTerminalID, domain.FieldUsername, domain.FieldPassword)
}

func (v *Variant) message(tx domain.TransactionType, fields domain.Fields) *domain.Envelope {
	return &domain.Envelope{
		TxType:   tx,
		Endpoint: domain.EndpointPayment,
		Format:   domain.WireXML,
		Response: domain.WireXML,
		Root:     root,
		Fields:   fields,
	}
}

func soap(tx domain.TransactionType, op string, request domain.Fields) *domain.Envelope {
	return &domain.Envelope{
		TxType:     tx,
		Endpoint:   domain.EndpointQuery,
		Format:     domain.WireSOAP,
		Response:   domain.WireSOAP,
		Root:       op,
		Namespace:  namespace,
		SOAPAction: soapAction + op,
		Fields:     domain.Fields{domain.F("request", request)},
	}
}

// PaymentRequest always fails: KuveytPos only authorizes through 3-D.
func (v *Variant) PaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.Envelope, error) {
	return nil, domain.NewUnsupportedModelError(Name, domain.ModelNonSecure)
}

func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	if _, err := v.tables.Model(acc.Model); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	if tx != domain.TxPay {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}
	brand, err := v.tables.Brand(card.Brand)
	if err != nil {
		return nil, err
	}

	amount := gateway.AmountMinorString(order.Amount)
	inputs := map[string]string{
		"APIVersion":          apiVersion,
		"MerchantId":          acc.ClientID,
		"CustomerId":          acc.TerminalID,
		"UserName":            acc.Username,
		"TransactionType":     txType,
		"TransactionSecurity": securityThreeD,
		"InstallmentCount":    gateway.InstallmentZeroString(order.Installment),
		"Amount":              amount,
		"DisplayAmount":       amount,
		"CurrencyCode":        currency,
		"MerchantOrderId":     order.ID,
		"OkUrl":               order.SuccessURL,
		"FailUrl":             order.FailURL,
		"CardHolderName":      card.HolderName,
		"CardType":            brand,
		"CardNumber":          card.Number,
		"CardExpireDateYear":  card.YY(),
		"CardExpireDateMonth": card.MM(),
		"CardCVV2":            card.CVV,
	}
	inputs["HashData"] = form3D.Sign(crypt.Params(inputs), crypt.HashedPassword(acc.Password))

	return &domain.FormData{Gateway: gatewayURL, Method: http.MethodPost, Inputs: inputs}, nil
}

// VerifyCallback unescapes and decodes the posted AuthenticationResponse contract, checks
// its HashData and that it answers this order.
func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldPassword); err != nil {
		return nil, err
	}
	encoded := raw.Str(callbackField)
	if encoded == "" {
		return nil, domain.NewHashMismatchError(callback.Name)
	}
	text, err := url.QueryUnescape(encoded)
	if err != nil {
		return nil, domain.NewMalformedResponseError(err)
	}
	contract, err := codec.DecodeXML([]byte(text))
	if err != nil {
		return nil, domain.NewMalformedResponseError(err)
	}

	if err := callback.Verify(gateway.Params(contract), crypt.HashedPassword(acc.Password), contract.Str("HashData")); err != nil {
		return nil, err
	}
	if oid := contract.Str("MerchantOrderId"); oid != order.ID {
		return nil, domain.NewCallbackMismatchError("order id", order.ID, oid)
	}
	if amount := contract.Str("VPosMessage", "Amount"); amount != "" && amount != gateway.AmountMinorString(order.Amount) {
		return nil, domain.NewCallbackMismatchError("amount", gateway.AmountMinorString(order.Amount), amount)
	}

	values := maps.Clone(raw)
	maps.Copy(values, contract)
	return gateway.NewCallback(values, contract.Str("ResponseCode"), authFull, authHalf), nil
}

func (v *Variant) ThreeDPaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	if tx != domain.TxPay {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}

	amount := gateway.AmountMinorString(order.Amount)
	fields := domain.Fields{
		domain.F("APIVersion", apiVersion),
		domain.F("HashData", v.provisionHash(acc, order)),
		domain.F("MerchantId", acc.ClientID),
		domain.F("CustomerId", acc.TerminalID),
		domain.F("UserName", acc.Username),
		domain.F("TransactionType", txType),
		domain.F("InstallmentCount", gateway.InstallmentZeroString(order.Installment)),
		domain.F("CurrencyCode", currency),
		domain.F("Amount", amount),
		domain.F("MerchantOrderId", order.ID),
		domain.F("TransactionSecurity", securityThreeD),
		domain.F("KuveytTurkVPosAdditionalData", domain.Fields{
			domain.F("AdditionalData", domain.Fields{
				domain.F("Key", "MD"),
				domain.F("Data", cb.Values.Str("MD")),
			}),
		}),
	}
	return v.message(tx, fields), nil
}

func (v *Variant) provisionHash(acc domain.Account, order domain.Order) string {
	return provision.Sign(crypt.Params{
		"MerchantId":      acc.ClientID,
		"MerchantOrderId": order.ID,
		"Amount":          gateway.AmountMinorString(order.Amount),
		"UserName":        acc.Username,
	}, crypt.HashedPassword(acc.Password))
}

// vposMessage is the common VPosMessage of every SOAP request.
func (v *Variant) vposMessage(acc domain.Account, order domain.Order, txType, currency string) domain.Fields {
	amount := gateway.AmountMinorString(order.Amount)
	return domain.Fields{
		domain.F("APIVersion", apiVersion),
		domain.F("InstallmentCount", "0"),
		domain.F("Amount", amount),
		domain.F("DisplayAmount", amount),
		domain.F("CurrencyCode", currency),
		domain.F("MerchantOrderId", order.ID),
		domain.F("TransactionSecurity", securityAPI),
		domain.F("MerchantId", acc.ClientID),
		domain.F("CustomerId", acc.TerminalID),
		domain.F("UserName", acc.Username),
		domain.F("HashData", v.provisionHash(acc, order)),
		domain.F("TransactionType", txType),
		domain.F("SubMerchantId", "0"),
		domain.F("BatchID", "0"),
	}
}

func (v *Variant) CancelRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.reversal(acc, order, domain.TxCancel)
}

func (v *Variant) RefundRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return v.reversal(acc, order, domain.TxRefund)
}

// reversal builds SaleReversal and Drawback, which both reference the bank's order id,
// RRN and provision number from the original payment.
func (v *Variant) reversal(acc domain.Account, order domain.Order, tx domain.TransactionType) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	op, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	if order.Ref.TransactionID == "" {
		return nil, domain.NewMissingRequiredFieldError("order ref transaction id")
	}

	request := domain.Fields{
		domain.F("IsFromExternalNetwork", "true"),
		domain.F("BusinessKey", "0"),
		domain.F("ResourceId", "0"),
		domain.F("ActionId", "0"),
		domain.F("LanguageId", "0"),
		domain.F("CustomerId", acc.TerminalID),
		domain.F("MailOrTelephoneOrder", "true"),
		domain.F("Amount", gateway.AmountMinorString(order.Amount)),
		domain.F("MerchantId", acc.ClientID),
		domain.F("OrderId", order.Ref.TransactionID),
		domain.F("RRN", order.Ref.RetrievalNumber),
		domain.F("ProvisionNumber", order.Ref.AuthCode),
		domain.F("VPosMessage", v.vposMessage(acc, order, op, currency)),
	}
	return soap(tx, op, request), nil
}

func (v *Variant) StatusRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	if err := requireAPI(acc); err != nil {
		return nil, err
	}
	op, err := v.tables.TxType(domain.TxStatus)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	request := domain.Fields{
		domain.F("IsFromExternalNetwork", "true"),
		domain.F("BusinessKey", "0"),
		domain.F("ResourceId", "0"),
		domain.F("ActionId", "0"),
		domain.F("LanguageId", "0"),
		domain.F("CustomerId", acc.TerminalID),
		domain.F("MailOrTelephoneOrder", "true"),
		domain.F("Amount", "0"),
		domain.F("MerchantId", acc.ClientID),
		domain.F("MerchantOrderId", order.ID),
		domain.F("OrderId", order.Ref.TransactionID),
		domain.F("VPosMessage", v.vposMessage(acc, order, op, currency)),
	}
	return soap(domain.TxStatus, op, request), nil
}

func (v *Variant) HistoryRequest(acc domain.Account, order domain.Order) (*domain.Envelope, error) {
	return nil, domain.NewUnsupportedTransactionError(Name, domain.TxHistory)
}
