package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
	"github.com/DanielPopoola/posgateway/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPaymentService struct {
	payFn        func(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*service.Outcome, error)
	begin3DFn    func(gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.FormData, error)
	complete3DFn func(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, raw domain.Values) (*service.Outcome, error)
	orderFn      func(op string, order domain.Order) (*service.Outcome, error)
}

func (m *mockPaymentService) Pay(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*service.Outcome, error) {
	return m.payFn(ctx, gw, order, tx, card)
}

func (m *mockPaymentService) Begin3D(gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.FormData, error) {
	return m.begin3DFn(gw, order, tx, card)
}

func (m *mockPaymentService) Complete3D(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, raw domain.Values) (*service.Outcome, error) {
	return m.complete3DFn(ctx, gw, order, tx, raw)
}

func (m *mockPaymentService) Status(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error) {
	return m.orderFn("status", order)
}

func (m *mockPaymentService) History(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error) {
	return m.orderFn("history", order)
}

func (m *mockPaymentService) Cancel(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error) {
	return m.orderFn("cancel", order)
}

func (m *mockPaymentService) Refund(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error) {
	return m.orderFn("refund", order)
}

// stubGateways resolves every known bank to a nil gateway; the mocked service never uses it.
type stubGateways map[string]bool

func (s stubGateways) Gateway(bank string) (ports.Gateway, error) {
	if !s[bank] {
		return nil, domain.NewUnknownBankError(bank)
	}
	return nil, nil
}

func newTestMux(svc PaymentService) *http.ServeMux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewPaymentHandler(svc, stubGateways{"isbank": true}, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux
}

func post(t *testing.T, mux http.Handler, path string, body interface{}) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var resp APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func orderBody() map[string]interface{} {
	return map[string]interface{}{
		"id":       "order222",
		"amount":   "100.25",
		"currency": "TRY",
	}
}

func cardBody() map[string]interface{} {
	return map[string]interface{}{
		"number":       "5555444433332222",
		"expiry_month": 12,
		"expiry_year":  2030,
		"cvv":          "122",
	}
}

func TestHandlePay_Success(t *testing.T) {
	svc := &mockPaymentService{
		payFn: func(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*service.Outcome, error) {
			assert.Equal(t, "order222", order.ID)
			assert.Equal(t, "100.25", order.Amount.StringFixed(2))
			assert.Equal(t, domain.CurrencyTRY, order.Currency)
			assert.Equal(t, domain.TxPay, tx)
			require.NotNil(t, card)
			assert.Equal(t, 2030, card.ExpireYear)
			return &service.Outcome{
				State:  service.StateApproved,
				Result: &domain.Result{Status: domain.StatusApproved, AuthCode: "P77974"},
				Trail:  []service.State{service.StateNonSecure, service.StateApproved},
				Calls:  1,
			}, nil
		},
	}

	rec, resp := post(t, newTestMux(svc), "/banks/isbank/payments", map[string]interface{}{
		"order":   orderBody(),
		"tx_type": "pay",
		"card":    cardBody(),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Approved", data["state"])
	assert.Equal(t, "P77974", data["result"].(map[string]interface{})["auth_code"])
}

func TestHandlePay_Validation(t *testing.T) {
	svc := &mockPaymentService{}

	tests := []struct {
		name   string
		path   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{
			name:   "unknown tx type",
			path:   "/banks/isbank/payments",
			body:   map[string]interface{}{"order": orderBody(), "tx_type": "capture"},
			status: http.StatusBadRequest,
			code:   ErrCodeValidation,
		},
		{
			name: "bad card number",
			path: "/banks/isbank/payments",
			body: map[string]interface{}{"order": orderBody(), "tx_type": "pay", "card": map[string]interface{}{
				"number": "abc", "expiry_month": 12, "expiry_year": 30, "cvv": "122",
			}},
			status: http.StatusBadRequest,
			code:   ErrCodeValidation,
		},
		{
			name: "zero amount",
			path: "/banks/isbank/payments",
			body: map[string]interface{}{"order": map[string]interface{}{
				"id": "o1", "amount": "0", "currency": "TRY",
			}, "tx_type": "pay"},
			status: http.StatusBadRequest,
			code:   domain.ErrCodeInvalidAmount,
		},
		{
			name:   "unknown bank",
			path:   "/banks/nowhere/payments",
			body:   map[string]interface{}{"order": orderBody(), "tx_type": "pay"},
			status: http.StatusNotFound,
			code:   domain.ErrCodeUnknownBank,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := post(t, newTestMux(svc), tt.path, tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestHandlePay_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		out    *service.Outcome
		err    error
		status int
	}{
		{"configuration", nil, domain.NewUnsupportedModelError("isbank", domain.Model3DSecure), http.StatusBadRequest},
		{"indeterminate", &service.Outcome{State: service.StateIndeterminate, Calls: 1}, domain.NewIndeterminateError(context.DeadlineExceeded), http.StatusGatewayTimeout},
		{"transport", &service.Outcome{State: service.StateNonSecure, Calls: 1}, domain.NewTransportError("isbank pay request", io.EOF), http.StatusBadGateway},
		{"malformed", nil, domain.NewMalformedResponseError(io.ErrUnexpectedEOF), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{
				payFn: func(context.Context, ports.Gateway, domain.Order, domain.TransactionType, *domain.Card) (*service.Outcome, error) {
					return tt.out, tt.err
				},
			}

			rec, resp := post(t, newTestMux(svc), "/banks/isbank/payments", map[string]interface{}{
				"order": orderBody(), "tx_type": "pay", "card": cardBody(),
			})

			assert.Equal(t, tt.status, rec.Code)
			require.NotNil(t, resp.Error)
			if tt.out != nil {
				details := resp.Error.Details.(map[string]interface{})
				assert.Equal(t, string(tt.out.State), details["state"])
			}
		})
	}
}

func TestHandleBegin3D(t *testing.T) {
	svc := &mockPaymentService{
		begin3DFn: func(gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.FormData, error) {
			assert.Equal(t, "https://shop.test/ok", order.SuccessURL)
			return &domain.FormData{
				Gateway: "https://bank.test/3d",
				Method:  http.MethodPost,
				Inputs:  map[string]string{"hash": "abc"},
			}, nil
		},
	}

	order := orderBody()
	order["success_url"] = "https://shop.test/ok"
	rec, resp := post(t, newTestMux(svc), "/banks/isbank/3d/form", map[string]interface{}{
		"order": order, "tx_type": "pay", "card": cardBody(),
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "https://bank.test/3d", data["gateway"])
	assert.Equal(t, "abc", data["inputs"].(map[string]interface{})["hash"])
}

func TestHandleComplete3D_HashMismatch(t *testing.T) {
	svc := &mockPaymentService{
		complete3DFn: func(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, raw domain.Values) (*service.Outcome, error) {
			assert.Equal(t, "forged", raw.Str("HASH"))
			return &service.Outcome{
				State: service.StateDeclined,
				Trail: []service.State{service.State3DPending, service.StateDeclined},
			}, domain.NewHashMismatchError("estpos callback")
		},
	}

	rec, resp := post(t, newTestMux(svc), "/banks/isbank/3d/complete", map[string]interface{}{
		"order": orderBody(), "tx_type": "pay", "callback": map[string]string{"HASH": "forged"},
	})

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.ErrCodeHashMismatch, resp.Error.Code)
}

func TestOrderOnlyRoutes(t *testing.T) {
	for _, op := range []string{"status", "history", "cancel", "refund"} {
		t.Run(op, func(t *testing.T) {
			var called string
			svc := &mockPaymentService{
				orderFn: func(name string, order domain.Order) (*service.Outcome, error) {
					called = name
					assert.Equal(t, "T1", order.Ref.TransactionID)
					return &service.Outcome{State: service.StateApproved}, nil
				},
			}

			order := orderBody()
			order["ref"] = map[string]string{"transaction_id": "T1"}
			rec, _ := post(t, newTestMux(svc), "/banks/isbank/"+op, map[string]interface{}{"order": order})

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, op, called)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/banks/isbank/payments", nil)
	rec := httptest.NewRecorder()
	newTestMux(&mockPaymentService{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestOrderOnlyRoutes_ZeroAmount(t *testing.T) {
	tests := []struct {
		op     string
		status int
	}{
		{"status", http.StatusOK},
		{"history", http.StatusOK},
		{"cancel", http.StatusOK},
		{"refund", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.op, func(t *testing.T) {
			svc := &mockPaymentService{
				orderFn: func(name string, order domain.Order) (*service.Outcome, error) {
					assert.True(t, order.Amount.IsZero())
					return &service.Outcome{State: service.StateApproved}, nil
				},
			}

			rec, resp := post(t, newTestMux(svc), "/banks/isbank/"+tt.op, map[string]interface{}{
				"order": map[string]interface{}{"id": "order222", "amount": "0", "currency": "TRY"},
			})

			assert.Equal(t, tt.status, rec.Code)
			if tt.status != http.StatusOK {
				assert.Equal(t, domain.ErrCodeInvalidAmount, resp.Error.Code)
			}
		})
	}
}
