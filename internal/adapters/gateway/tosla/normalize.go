package tosla

import (
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const (
	successCode  = "0"
	approvedCode = "00"
)

var responseCodes = gateway.ResponseCodes{
	"00": domain.DetailApproved,
	"01": domain.DetailBankCall,
	"05": domain.DetailReject,
	"12": domain.DetailInvalidTransaction,
	"51": domain.DetailInsufficientBalance,
	"54": domain.DetailExpiredCard,
	"57": domain.DetailRestrictedCard,
	"91": domain.DetailTryAgain,
	"99": domain.DetailGeneralError,
}

// NormalizePayment approves only when the API call succeeded (Code 0) and the bank
// authorized (BankResponseCode 00).
func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	bankCode := raw.Str("BankResponseCode")

	r.ProcReturnCode = bankCode
	r.ErrorCode = raw.Str("Code")
	r.ErrorMessage = raw.Str("BankResponseMessage")
	if r.ErrorMessage == "" {
		r.ErrorMessage = raw.Str("Message")
	}
	r.AuthCode = raw.Str("AuthCode")
	r.RefNumber = raw.Str("HostReferenceNumber")
	r.TransactionID = raw.Str("TransactionId")
	if oid := raw.Str("OrderId"); oid != "" {
		r.OrderID = oid
	}
	r.SecurityLevel = domain.LevelNonSecure

	approved := r.ErrorCode == successCode && bankCode == approvedCode
	gateway.Settle(&r, approved, bankCode, responseCodes)
	if approved {
		r.ErrorCode = ""
	}
	return r
}

// Normalize3D reads the 3d_pay callback, where RequestStatus 1 stands in for Code 0.
func (v *Variant) Normalize3D(order domain.Order, tx domain.TransactionType, cb *domain.Callback, raw domain.Values) domain.Result {
	src := raw
	if src == nil {
		src = cb.Values
	}
	r := gateway.NewResult(Name, order, tx, src)
	bankCode := src.Str("BankResponseCode")

	r.ProcReturnCode = bankCode
	r.ErrorMessage = src.Str("BankResponseMessage")
	r.AuthCode = src.Str("AuthCode")
	r.RefNumber = src.Str("HostReferenceNumber")
	r.TransactionID = src.Str("TransactionId")
	gateway.Settle(&r, src.Str("RequestStatus") == "1" && bankCode == approvedCode, bankCode, responseCodes)
	gateway.Apply3D(&r, cb)
	return r
}

func (v *Variant) NormalizeQuery(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	r := v.NormalizePayment(order, tx, raw)
	r.SecurityLevel = ""
	if tx == domain.TxHistory && r.ErrorCode == successCode {
		r.Status = domain.StatusApproved
		r.StatusDetail = domain.DetailApproved
		r.ErrorCode = ""
	}
	return r
}
