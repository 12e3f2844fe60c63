package domain

// Status is the coarse canonical outcome of a gateway call.
type Status string

const (
	StatusApproved Status = "approved"
	StatusDeclined Status = "declined"
)

// StatusDetail is the canonical response vocabulary every gateway code is mapped into.
type StatusDetail string

const (
	DetailApproved            StatusDetail = "approved"
	DetailDeclined            StatusDetail = "declined"
	DetailBankCall            StatusDetail = "bank_call"
	DetailReject              StatusDetail = "reject"
	DetailTryAgain            StatusDetail = "try_again"
	DetailInvalidTransaction  StatusDetail = "invalid_transaction"
	DetailInsufficientBalance StatusDetail = "insufficient_balance"
	DetailExpiredCard         StatusDetail = "expired_card"
	DetailRestrictedCard      StatusDetail = "restricted_card"
	DetailRequestRejected     StatusDetail = "request_rejected"
	DetailGeneralError        StatusDetail = "general_error"
	DetailInvalidCredentials  StatusDetail = "invalid_credentials"
)

// SecurityLevel describes how strongly the cardholder was authenticated.
type SecurityLevel string

const (
	LevelNonSecure   SecurityLevel = "Non-secure"
	LevelFull3D      SecurityLevel = "Full 3-D Secure"
	LevelHalf3D      SecurityLevel = "Half 3-D Secure"
	LevelMPIFallback SecurityLevel = "MPI fallback"
)

// Result is the normalized gateway response. Fields the bank did not send stay empty.
type Result struct {
	Bank           string          `json:"bank"`
	OrderID        string          `json:"order_id"`
	TxType         TransactionType `json:"tx_type"`
	Status         Status          `json:"status"`
	StatusDetail   StatusDetail    `json:"status_detail,omitempty"`
	ProcReturnCode string          `json:"proc_return_code,omitempty"`
	ErrorCode      string          `json:"error_code,omitempty"`
	ErrorMessage   string          `json:"error_message,omitempty"`
	AuthCode       string          `json:"auth_code,omitempty"`
	RefNumber      string          `json:"ref_number,omitempty"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	MDStatus       string          `json:"md_status,omitempty"`
	SecurityLevel  SecurityLevel   `json:"security_level,omitempty"`
	Raw            Values          `json:"-"`
}

func (r Result) IsApproved() bool {
	return r.Status == StatusApproved
}

// Callback is a bank's 3-D authentication post after its signature has been verified.
type Callback struct {
	Values        Values
	MDStatus      string
	Authenticated bool
	SecurityLevel SecurityLevel
}
