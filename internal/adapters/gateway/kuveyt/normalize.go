package kuveyt

import (
	"strings"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

const approvedCode = "00"

var responseCodes = gateway.ResponseCodes{
	"00":               domain.DetailApproved,
	"05":               domain.DetailReject,
	"12":               domain.DetailInvalidTransaction,
	"51":               domain.DetailInsufficientBalance,
	"54":               domain.DetailExpiredCard,
	"57":               domain.DetailRestrictedCard,
	"99":               domain.DetailGeneralError,
	"HashDataError":    domain.DetailRequestRejected,
	"InvalidUserName":  domain.DetailInvalidCredentials,
	"MetaDataNotFound": domain.DetailGeneralError,
}

// NormalizePayment reads a provision contract, or the SOAP result of SaleReversal and
// Drawback.
func (v *Variant) NormalizePayment(order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	if result := soapResult(raw); result != nil {
		return v.normalizeSOAP(order, tx, raw, result, result.Map("Value"))
	}
	r := gateway.NewResult(Name, order, tx, raw)
	code := raw.Str("ResponseCode")

	r.ProcReturnCode = code
	r.ErrorMessage = raw.Str("ResponseMessage")
	r.AuthCode = raw.Str("ProvisionNumber")
	r.RefNumber = raw.Str("RRN")
	r.TransactionID = raw.Str("OrderId")
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
	result := soapResult(raw)
	if result == nil {
		return v.NormalizePayment(order, tx, raw)
	}
	return v.normalizeSOAP(order, tx, raw, result, result.Map("Value", "OrderContract"))
}

func (v *Variant) normalizeSOAP(order domain.Order, tx domain.TransactionType, raw, result, value domain.Values) domain.Result {
	r := gateway.NewResult(Name, order, tx, raw)
	code := value.Str("ResponseCode")

	r.ProcReturnCode = code
	r.AuthCode = firstOf(value, "ProvisionNumber", "ProvNumber")
	r.RefNumber = value.Str("RRN")
	r.TransactionID = value.Str("OrderId")
	r.ErrorCode = result.Str("Results", "Result", "ErrorCode")
	r.ErrorMessage = firstOf(value, "ResponseMessage", "ResponseExplain")
	if r.ErrorMessage == "" {
		r.ErrorMessage = result.Str("Results", "Result", "ErrorMessage")
	}

	if result.Str("Success") != "true" {
		if code == "" {
			code = r.ErrorCode
		}
		gateway.Settle(&r, false, code, responseCodes)
		return r
	}
	gateway.Settle(&r, code == approvedCode, code, responseCodes)
	return r
}

// soapResult finds the <Operation>Result element of an unwrapped SOAP reply.
func soapResult(raw domain.Values) domain.Values {
	for key := range raw {
		if strings.HasSuffix(key, "Result") {
			if m := raw.Map(key); m != nil {
				return m
			}
		}
	}
	return nil
}

func firstOf(v domain.Values, keys ...string) string {
	for _, k := range keys {
		if s := v.Str(k); s != "" {
			return s
		}
	}
	return ""
}
