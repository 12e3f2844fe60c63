package domain

// TransactionType is the canonical operation requested from a gateway.
type TransactionType string

const (
	TxPay      TransactionType = "pay"
	TxPreAuth  TransactionType = "pre"
	TxPostAuth TransactionType = "post"
	TxCancel   TransactionType = "cancel"
	TxRefund   TransactionType = "refund"
	TxStatus   TransactionType = "status"
	TxHistory  TransactionType = "history"
)

// IsInquiry reports whether the transaction only reads gateway state.
func (t TransactionType) IsInquiry() bool {
	return t == TxStatus || t == TxHistory
}

// IsPayment reports whether the transaction is a card payment leg.
func (t TransactionType) IsPayment() bool {
	return t == TxPay || t == TxPreAuth || t == TxPostAuth
}

// SecurityModel is the authentication strategy configured per merchant account.
type SecurityModel string

const (
	ModelNonSecure SecurityModel = "regular"
	Model3DSecure  SecurityModel = "3d"
	Model3DPay     SecurityModel = "3d_pay"
	Model3DHost    SecurityModel = "3d_host"
)

// Is3D reports whether the model involves a browser redirect to the bank.
func (m SecurityModel) Is3D() bool {
	return m == Model3DSecure || m == Model3DPay || m == Model3DHost
}

// Currency is an ISO 4217 alpha code.
type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyJPY Currency = "JPY"
	CurrencyRUB Currency = "RUB"
)

// CardBrand tags the card network.
type CardBrand string

const (
	BrandVisa   CardBrand = "visa"
	BrandMaster CardBrand = "master"
	BrandAmex   CardBrand = "amex"
	BrandTroy   CardBrand = "troy"
)

// RecurringUnit is the period unit of a recurring order.
type RecurringUnit string

const (
	RecurringDay   RecurringUnit = "day"
	RecurringWeek  RecurringUnit = "week"
	RecurringMonth RecurringUnit = "month"
	RecurringYear  RecurringUnit = "year"
)
