package akbank

import (
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const approvedCode = "VPS-0000"

// Host codes are ISO 8583 response codes passed through from the authorization system.
var hostCodes = gateway.ResponseCodes{
	"00": domain.DetailApproved,
	"01": domain.DetailBankCall,
	"02": domain.DetailBankCall,
	"05": domain.DetailReject,
	"12": domain.DetailInvalidTransaction,
	"51": domain.DetailInsufficientBalance,
	"54": domain.DetailExpiredCard,
	"57": domain.DetailRestrictedCard,
	"62": domain.DetailRestrictedCard,
	"91": domain.DetailTryAgain,
	"96": domain.DetailGeneralError,
}

func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	code := raw.Str("responseCode")

	r.ProcReturnCode = raw.Str("hostResponseCode")
	r.ErrorCode = code
	r.ErrorMessage = raw.Str("responseMessage")
	r.AuthCode = firstOf(raw, []string{"transaction", "authCode"}, []string{"authCode"})
	r.RefNumber = firstOf(raw, []string{"transaction", "rrn"}, []string{"rrn"})
	r.TransactionID = firstOf(raw, []string{"transaction", "stan"}, []string{"stan"})
	if oid := firstOf(raw, []string{"order", "orderId"}, []string{"orderId"}); oid != "" {
		r.OrderID = oid
	}
	r.SecurityLevel = domain.LevelNonSecure

	detailCode := r.ProcReturnCode
	if detailCode == "" {
		detailCode = code
	}
	gateway.Settle(&r, code == approvedCode, detailCode, hostCodes)
	if r.IsApproved() {
		r.ErrorCode = ""
	}
	return r
}

// Normalize3D reads the provision reply for 3D and the callback for 3D_PAY and
// 3D_PAY_HOSTING.
func (v *Variant) Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result {
	src := raw
	if src == nil {
		src = cb.Values
	}
	r := v.NormalizePayment(order, tx, src)
	gateway.Apply3D(&r, cb)
	return r
}

// NormalizeQuery reads the first transaction of a status or history reply.
func (v *Variant) NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := v.NormalizePayment(order, tx, raw)
	r.SecurityLevel = ""
	if list, ok := raw["txnDetailList"].([]any); ok && len(list) > 0 {
		if first, ok := list[0].(domain.Values); ok {
			if r.AuthCode == "" {
				r.AuthCode = first.Str("authCode")
			}
			if r.RefNumber == "" {
				r.RefNumber = first.Str("rrn")
			}
		}
	}
	return r
}

func firstOf(v domain.Values, paths ...[]string) string {
	for _, p := range paths {
		if s := v.Str(p...); s != "" {
			return s
		}
	}
	return ""
}
