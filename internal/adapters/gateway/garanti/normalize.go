package garanti

import (
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const approvedCode = "00"

func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	code := raw.Str("Transaction", "Response", "ReasonCode")

	r.ProcReturnCode = code
	r.ErrorCode = raw.Str("Transaction", "Response", "Code")
	r.ErrorMessage = raw.Str("Transaction", "Response", "ErrorMsg")
	r.AuthCode = raw.Str("Transaction", "AuthCode")
	r.RefNumber = raw.Str("Transaction", "RetrefNum")
	r.TransactionID = raw.Str("Transaction", "Provision")
	r.SecurityLevel = domain.LevelNonSecure
	gateway.Settle(&r, code == approvedCode, code, responseCodes)
	return r
}

// Normalize3D reads the provision reply for 3D and the callback for 3D_PAY and 3D_OOS_FULL.
func (v *Variant) Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result {
	var r domain.Result
	if raw != nil {
		r = v.NormalizePayment(order, tx, raw)
	} else {
		r = gateway.NewResult(Name, order, tx, cb.Values)
		code := cb.Values.Str("procreturncode")
		r.ProcReturnCode = code
		r.AuthCode = cb.Values.Str("authcode")
		r.RefNumber = cb.Values.Str("hostrefnum")
		r.ErrorMessage = cb.Values.Str("errmsg")
		gateway.Settle(&r, code == approvedCode, code, responseCodes)
	}
	if r.ErrorMessage == "" {
		r.ErrorMessage = cb.Values.Str("mderrormessage")
	}
	gateway.Apply3D(&r, cb)
	return r
}

func (v *Variant) NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := v.NormalizePayment(order, tx, raw)
	r.SecurityLevel = ""
	if auth := raw.Str("Order", "OrderInqResult", "AuthCode"); auth != "" {
		r.AuthCode = auth
	}
	if ref := raw.Str("Order", "OrderInqResult", "RetrefNum"); ref != "" {
		r.RefNumber = ref
	}
	return r
}
