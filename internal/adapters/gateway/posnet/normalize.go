package posnet

import (
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	code := raw.Str("respCode")

	r.ProcReturnCode = code
	r.ErrorCode = code
	r.ErrorMessage = raw.Str("respText")
	r.AuthCode = raw.Str("authCode")
	r.RefNumber = raw.Str("hostlogkey")
	r.TransactionID = raw.Str("hostlogkey")
	r.SecurityLevel = domain.LevelNonSecure
	gateway.Settle(&r, raw.Str("approved") == "1", code, responseCodes)
	return r
}

func (v *Variant) Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result {
	var r domain.Result
	if raw != nil {
		r = v.NormalizePayment(order, tx, raw)
	} else {
		r = gateway.NewResult(Name, order, tx, cb.Values)
		r.ErrorMessage = cb.Values.Str("errorMessage")
	}
	gateway.Apply3D(&r, cb)
	return r
}

func (v *Variant) NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	code := raw.Str("respCode")
	r.ProcReturnCode = code
	r.ErrorMessage = raw.Str("respText")

	txn := raw.Map("transactions", "transaction")
	if txn != nil {
		r.AuthCode = txn.Str("authCode")
		r.RefNumber = txn.Str("hostLogKey")
		r.TransactionID = txn.Str("hostLogKey")
	}
	gateway.Settle(&r, raw.Str("approved") == "1", code, responseCodes)
	return r
}
