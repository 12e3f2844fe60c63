package gateway

import (
	"slices"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

// ResponseCodes maps a gateway's response codes to the canonical vocabulary.
type ResponseCodes map[string]domain.StatusDetail

// Detail looks up code. Absent codes stay empty and unknown ones read as a plain decline.
func (c ResponseCodes) Detail(code string) domain.StatusDetail {
	if code == "" {
		return ""
	}
	if d, ok := c[code]; ok {
		return d
	}
	return domain.DetailDeclined
}

// SecurityLevelOf classifies a 3-D authentication indicator. Anything outside full and half,
// including an absent indicator, is an MPI fallback.
func SecurityLevelOf(indicator string, full, half []string) domain.SecurityLevel {
	switch {
	case indicator != "" && slices.Contains(full, indicator):
		return domain.LevelFull3D
	case indicator != "" && slices.Contains(half, indicator):
		return domain.LevelHalf3D
	default:
		return domain.LevelMPIFallback
	}
}

// NewCallback wraps a verified callback and classifies its indicator.
func NewCallback(raw domain.Values, indicator string, full, half []string) *domain.Callback {
	level := SecurityLevelOf(indicator, full, half)
	return &domain.Callback{
		Values:        raw,
		MDStatus:      indicator,
		Authenticated: level != domain.LevelMPIFallback,
		SecurityLevel: level,
	}
}

// NewResult starts a declined result for order; normalizers fill in what the bank sent.
func NewResult(bank string, order domain.Order, tx domain.TransactionType, raw domain.Values) domain.Result {
	return domain.Result{
		Bank:    bank,
		OrderID: order.ID,
		TxType:  tx,
		Status:  domain.StatusDeclined,
		Raw:     raw,
	}
}

// Settle sets status from the approval flag and the detail from the code table. A host code
// that reads as approved under a failed gateway-level code is reported as a rejected request.
func Settle(r *domain.Result, approved bool, code string, codes ResponseCodes) {
	if approved {
		r.Status = domain.StatusApproved
		r.StatusDetail = domain.DetailApproved
		return
	}
	r.Status = domain.StatusDeclined
	r.StatusDetail = codes.Detail(code)
	if r.StatusDetail == domain.DetailApproved {
		r.StatusDetail = domain.DetailRequestRejected
	}
}

// Params flattens the top level text values for signing. Empty values are kept.
func Params(v domain.Values) crypt.Params {
	p := make(crypt.Params, len(v))
	for k, val := range v {
		if s, ok := val.(string); ok {
			p[k] = s
		}
	}
	return p
}

// Lookup adapts Values to the field lookup hash verifiers take.
func Lookup(v domain.Values) func(string) string {
	return func(name string) string {
		return v.Str(name)
	}
}

// Apply3D stamps the authentication outcome on a 3-D result. A failed authentication is a
// decline whatever the provision reply said.
func Apply3D(r *domain.Result, cb *domain.Callback) {
	r.MDStatus = cb.MDStatus
	r.SecurityLevel = cb.SecurityLevel
	if cb.Authenticated {
		return
	}
	r.Status = domain.StatusDeclined
	if r.StatusDetail == "" || r.StatusDetail == domain.DetailApproved {
		r.StatusDetail = domain.DetailDeclined
	}
}
