package estpos

import (
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const approvedCode = "00"

func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(v.Name(), order, tx, raw)
	code := raw.Str("ProcReturnCode")

	r.ProcReturnCode = code
	r.AuthCode = raw.Str("AuthCode")
	r.RefNumber = raw.Str("HostRefNum")
	r.TransactionID = raw.Str("TransId")
	r.ErrorCode = raw.Str("Extra", "ERRORCODE")
	r.ErrorMessage = raw.Str("ErrMsg")
	r.SecurityLevel = domain.LevelNonSecure
	if oid := raw.Str("OrderId"); oid != "" {
		r.OrderID = oid
	}
	gateway.Settle(&r, code == approvedCode, code, responseCodes)
	return r
}

// Normalize3D reads the provision reply for the 3d model and the callback itself for
// 3d_pay and 3d_host, where the bank has already authorized.
func (v *Variant) Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result {
	src := raw
	if src == nil {
		src = cb.Values
	}
	r := v.NormalizePayment(order, tx, src)
	r.OrderID = order.ID
	if r.ErrorMessage == "" {
		r.ErrorMessage = cb.Values.Str("mdErrorMsg")
	}
	gateway.Apply3D(&r, cb)
	return r
}

func (v *Variant) NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(v.Name(), order, tx, raw)
	code := raw.Str("ProcReturnCode")

	r.ProcReturnCode = code
	r.ErrorMessage = raw.Str("ErrMsg")
	r.AuthCode = raw.Str("Extra", "AUTH_CODE")
	r.RefNumber = raw.Str("Extra", "HOST_REF_NUM")
	r.TransactionID = raw.Str("TransId")
	if r.TransactionID == "" {
		r.TransactionID = raw.Str("Extra", "TRANS_ID")
	}
	gateway.Settle(&r, code == approvedCode, code, responseCodes)
	return r
}
