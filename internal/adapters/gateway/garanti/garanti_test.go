package garanti_test

import (
	"testing"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/garanti"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func account(model domain.SecurityModel) domain.Account {
	return domain.Account{
		Bank:           "garanti",
		ClientID:       "7000679",
		TerminalID:     "30691298",
		Username:       "PROVAUT",
		Password:       "123qweASD/",
		RefundUsername: "PROVRFN",
		RefundPassword: "123qweASD/",
		StoreKey:       "12345678",
		Model:          model,
		Environment:    domain.EnvTest,
	}
}

func order(t *testing.T) domain.Order {
	t.Helper()
	o, err := domain.NewOrder("order222", decimal.RequireFromString("100.25"), domain.CurrencyTRY)
	require.NoError(t, err)
	o.SuccessURL = "https://domain.com/success"
	o.FailURL = "https://domain.com/fail_page"
	o.IP = "127.0.0.1"
	o.Ref.RetrievalNumber = "100001"
	return o
}

func card(t *testing.T) *domain.Card {
	t.Helper()
	c, err := domain.NewCard("5555444433332222", 12, 21, "122", "John Doe", domain.BrandMaster)
	require.NoError(t, err)
	return c
}

func TestPaymentRequest(t *testing.T) {
	v := garanti.New()

	env, err := v.PaymentRequest(account(domain.ModelNonSecure), order(t), domain.TxPay, card(t))
	require.NoError(t, err)

	assert.Equal(t, domain.WireXMLInForm, env.Format)
	assert.Equal(t, "data", env.FormKey)
	assert.Equal(t, "GVPSRequest", env.Root)

	terminal := env.Fields.Group("Terminal")
	assert.Equal(t, "3732634F78053D42304B0966E263629FE44E258B", terminal.String("HashData"))
	assert.Equal(t, "PROVAUT", terminal.String("ProvUserID"))
	assert.Equal(t, "7000679", terminal.String("MerchantID"))

	tx := env.Fields.Group("Transaction")
	assert.Equal(t, "sales", tx.String("Type"))
	assert.Equal(t, "10025", tx.String("Amount"))
	assert.Equal(t, "949", tx.String("CurrencyCode"))
	assert.Equal(t, "", tx.String("InstallmentCnt"))
	assert.Equal(t, "1221", env.Fields.Group("Card").String("ExpireDate"))
	assert.Equal(t, "TEST", env.Fields.String("Mode"))
}

func TestPaymentRequest_InstallmentCollapse(t *testing.T) {
	v := garanti.New()

	for n, want := range map[int]string{0: "", 1: "", 3: "3"} {
		o := order(t)
		o.Installment = n
		env, err := v.PaymentRequest(account(domain.ModelNonSecure), o, domain.TxPay, card(t))
		require.NoError(t, err)
		assert.Equal(t, want, env.Fields.Group("Transaction").String("InstallmentCnt"), "installment %d", n)
	}
}

func TestCancelUsesRefundCredentials(t *testing.T) {
	v := garanti.New()

	env, err := v.CancelRequest(account(domain.ModelNonSecure), order(t))
	require.NoError(t, err)

	terminal := env.Fields.Group("Terminal")
	assert.Equal(t, "PROVRFN", terminal.String("ProvUserID"))
	assert.Equal(t, "00CD5B6C29D4CEA1F3002D785A9F9B09974AD51D", terminal.String("HashData"))
	assert.Equal(t, "void", env.Fields.Group("Transaction").String("Type"))
	assert.Equal(t, "100001", env.Fields.Group("Transaction").String("OriginalRetrefNum"))
}

func TestInquiries(t *testing.T) {
	v := garanti.New()

	status, err := v.StatusRequest(account(domain.ModelNonSecure), order(t))
	require.NoError(t, err)
	assert.Equal(t, "orderinq", status.Fields.Group("Transaction").String("Type"))
	assert.Equal(t, domain.EndpointQuery, status.Endpoint)

	history, err := v.HistoryRequest(account(domain.ModelNonSecure), order(t))
	require.NoError(t, err)
	assert.Equal(t, "orderhistoryinq", history.Fields.Group("Transaction").String("Type"))
}

func TestThreeDFormData(t *testing.T) {
	v := garanti.New()

	form, err := v.ThreeDFormData(account(domain.Model3DSecure), order(t), domain.TxPay, "https://bank/3d", card(t))
	require.NoError(t, err)

	assert.Equal(t, "AE5068913207ED5146FA232940928E7415547DE9", form.Inputs["secure3dhash"])
	assert.Equal(t, "3D", form.Inputs["secure3dsecuritylevel"])
	assert.Equal(t, "10025", form.Inputs["txnamount"])
	assert.NotContains(t, form.Inputs, "securitydata", "intermediate digest must not leave the process")
	for _, value := range form.Inputs {
		assert.NotEqual(t, "12345678", value, "store key must not be sent")
	}

	_, err = v.ThreeDFormData(account(domain.Model3DSecure), order(t), domain.TxRefund, "https://bank/3d", card(t))
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnsupportedTransaction))
}

func callback() domain.Values {
	return domain.Values{
		"clientid":       "7000679",
		"orderid":        "order222",
		"authcode":       "304919",
		"procreturncode": "00",
		"response":       "Approved",
		"mdstatus":       "1",
		"cavv":           "CAVV1",
		"eci":            "02",
		"md":             "MD1",
		"xid":            "XID1",
		"rnd":            "RND1",
		"hostrefnum":     "HR1",
		"hashparams":     "clientid:orderid:authcode:procreturncode:response:mdstatus:cavv:eci:md:rnd",
		"hashparamsval":  "7000679order22230491900Approved1CAVV102MD1RND1",
		"hash":           "N4VMC5TCuh3SvsAC1wpXbv1A3Ls=",
	}
}

func TestVerifyCallback(t *testing.T) {
	v := garanti.New()

	t.Run("valid", func(t *testing.T) {
		cb, err := v.VerifyCallback(account(domain.Model3DPay), order(t), callback())
		require.NoError(t, err)

		r := v.Normalize3D(order(t), domain.TxPay, cb, nil)
		assert.Equal(t, domain.StatusApproved, r.Status)
		assert.Equal(t, "304919", r.AuthCode)
		assert.Equal(t, "HR1", r.RefNumber)
		assert.Equal(t, domain.LevelFull3D, r.SecurityLevel)
	})

	t.Run("tampered", func(t *testing.T) {
		raw := callback()
		raw["authcode"] = "999999"
		_, err := v.VerifyCallback(account(domain.Model3DPay), order(t), raw)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeHashMismatch))
	})
}

func TestThreeDPaymentRequest(t *testing.T) {
	v := garanti.New()
	cb, err := v.VerifyCallback(account(domain.Model3DSecure), order(t), callback())
	require.NoError(t, err)

	env, err := v.ThreeDPaymentRequest(account(domain.Model3DSecure), order(t), domain.TxPay, cb)
	require.NoError(t, err)

	secure := env.Fields.Group("Transaction").Group("Secure3D")
	assert.Equal(t, "CAVV1", secure.String("AuthenticationCode"))
	assert.Equal(t, "02", secure.String("SecurityLevel"))
	assert.Equal(t, "XID1", secure.String("TxnID"))
	assert.Equal(t, "MD1", secure.String("Md"))
}

func TestNormalizePayment(t *testing.T) {
	v := garanti.New()
	raw := domain.Values{
		"Transaction": domain.Values{
			"Response":  domain.Values{"ReasonCode": "51", "Code": "92", "ErrorMsg": "Insufficient funds"},
			"RetrefNum": "R1",
		},
	}

	r := v.NormalizePayment(order(t), domain.TxPay, raw)

	assert.Equal(t, domain.StatusDeclined, r.Status)
	assert.Equal(t, domain.DetailInsufficientBalance, r.StatusDetail)
	assert.Equal(t, "Insufficient funds", r.ErrorMessage)
	assert.Empty(t, r.AuthCode)
}
