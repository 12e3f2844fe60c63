package domain

// Account is a configured merchant on one bank. It is loaded once and only read afterwards,
// so one value may be shared by concurrent transactions.
type Account struct {
	Bank           string
	ClientID       string
	TerminalID     string
	PosNetID       string
	Username       string
	Password       string
	RefundUsername string
	RefundPassword string
	StoreKey       string
	Model          SecurityModel
	Lang           string
	Environment    string
}

const (
	LangTR = "tr"
	LangEN = "en"
)

const (
	EnvTest = "test"
	EnvProd = "prod"
)

// Account field names accepted by Require.
const (
	FieldClientID   = "client_id"
	FieldTerminalID = "terminal_id"
	FieldPosNetID   = "posnet_id"
	FieldUsername   = "username"
	FieldPassword   = "password"
	FieldStoreKey   = "store_key"
)

// Require fails with MISSING_REQUIRED_FIELD for the first empty field.
func (a Account) Require(fields ...string) error {
	for _, f := range fields {
		var v string
		switch f {
		case FieldClientID:
			v = a.ClientID
		case FieldTerminalID:
			v = a.TerminalID
		case FieldPosNetID:
			v = a.PosNetID
		case FieldUsername:
			v = a.Username
		case FieldPassword:
			v = a.Password
		case FieldStoreKey:
			v = a.StoreKey
		}
		if v == "" {
			return NewMissingRequiredFieldError(a.Bank + " account " + f)
		}
	}
	return nil
}

// RefundCredentials returns the dedicated refund user when one is configured.
func (a Account) RefundCredentials() (string, string) {
	if a.RefundUsername != "" {
		return a.RefundUsername, a.RefundPassword
	}
	return a.Username, a.Password
}

// Language returns the account language, defaulting to Turkish.
func (a Account) Language() string {
	if a.Lang == "" {
		return LangTR
	}
	return a.Lang
}

func (a Account) IsTest() bool {
	return a.Environment != EnvProd
}
