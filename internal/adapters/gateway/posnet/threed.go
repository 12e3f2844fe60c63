package posnet

import (
	"errors"
	"maps"
	"net/http"
	"strings"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

var errMerchantPacket = errors.New("merchant packet has too few fields")

// Field order of the decrypted MerchantPacket.
var merchantPacketFields = []string{
	"mid", "tid", "amount", "instalment", "xid", "totalPoint", "totalPointAmount",
	"weburl", "hostip", "port", "txStatus", "mdStatus", "errorMessage",
}

func (v *Variant) macParams(acc domain.Account, xid, amount, currency string) crypt.Params {
	return crypt.Params{
		"xid":       xid,
		"amount":    amount,
		"currency":  currency,
		"mid":       acc.ClientID,
		"firstHash": firstHash.Sign(crypt.Params{"tid": acc.TerminalID}, acc.StoreKey),
	}
}

// ThreeDFormData encrypts the card and order data with the OOS cipher and signs it, so the
// cardholder's browser only ever carries ciphertext.
func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := acc.Require(domain.FieldClientID, domain.FieldTerminalID, domain.FieldPosNetID, domain.FieldStoreKey); err != nil {
		return nil, err
	}
	if _, err := v.tables.Model(acc.Model); err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
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
	if card == nil {
		return nil, domain.NewMissingRequiredFieldError("card")
	}

	xid := XID(order.ID)
	amount := gateway.AmountMinorString(order.Amount)
	plain := strings.Join([]string{
		acc.ClientID,
		acc.TerminalID,
		xid,
		amount,
		currency,
		gateway.InstallmentPadded(order.Installment),
		literal,
		card.HolderName,
		card.Number,
		card.YYMM(),
		card.CVV,
	}, ";")

	data, err := crypt.NewOOSCipher(acc.StoreKey).Encrypt(plain)
	if err != nil {
		return nil, err
	}

	return &domain.FormData{
		Gateway: gatewayURL,
		Method:  http.MethodPost,
		Inputs: map[string]string{
			"mid":               acc.ClientID,
			"posnetID":          acc.PosNetID,
			"posnetData":        data,
			"digest":            mac.Sign(v.macParams(acc, xid, amount, currency), ""),
			"vftCode":           "",
			"merchantReturnURL": order.SuccessURL,
			"lang":              v.tables.Lang(acc),
			"url":               "",
			"openANewWindow":    "0",
		},
	}, nil
}

// VerifyCallback decrypts the merchant packet (CRC first), checks that it belongs to this
// order and terminal, then checks the bank's signature.
func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldClientID, domain.FieldTerminalID, domain.FieldStoreKey); err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}

	plain, err := crypt.NewOOSCipher(acc.StoreKey).Decrypt(raw.Str("MerchantPacket"))
	if err != nil {
		return nil, err
	}
	parts := strings.Split(plain, ";")
	if len(parts) < len(merchantPacketFields) {
		return nil, domain.NewDecryptionError(errMerchantPacket)
	}

	values := make(domain.Values, len(raw)+len(merchantPacketFields))
	maps.Copy(values, raw)
	for i, name := range merchantPacketFields {
		values[name] = parts[i]
	}

	xid := XID(order.ID)
	amount := gateway.AmountMinorString(order.Amount)
	checks := []struct{ field, want, got string }{
		{"mid", acc.ClientID, values.Str("mid")},
		{"tid", acc.TerminalID, values.Str("tid")},
		{"xid", xid, values.Str("xid")},
		{"amount", amount, values.Str("amount")},
	}
	for _, c := range checks {
		if c.want != c.got {
			return nil, domain.NewCallbackMismatchError(c.field, c.want, c.got)
		}
	}

	params := v.macParams(acc, xid, amount, currency)
	params["mdStatus"] = values.Str("mdStatus")
	if err := callbackSign.Verify(params, "", raw.Str("Sign")); err != nil {
		return nil, err
	}
	return gateway.NewCallback(values, values.Str("mdStatus"), mdFull, mdHalf), nil
}

func (v *Variant) ThreeDPaymentRequest(acc domain.Account, order domain.Order, tx domain.TransactionType, cb *domain.Callback) (*domain.Envelope, error) {
	if err := acc.Require(domain.FieldClientID, domain.FieldTerminalID, domain.FieldStoreKey); err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(Name, tx)
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}
	xid := XID(order.ID)
	amount := gateway.AmountMinorString(order.Amount)

	fields := domain.Fields{
		domain.F("mid", acc.ClientID),
		domain.F("tid", acc.TerminalID),
		domain.F("oosTranData", domain.Fields{
			domain.F("bankData", cb.Values.Str("BankPacket")),
			domain.F("merchantData", cb.Values.Str("MerchantPacket")),
			domain.F("sign", cb.Values.Str("Sign")),
			domain.F("wpAmount", "0"),
			domain.F("mac", mac.Sign(v.macParams(acc, xid, amount, currency), "")),
		}),
	}
	return v.envelope(tx, domain.EndpointPayment, fields), nil
}
