package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/registry"
	"github.com/DanielPopoola/posgateway/internal/adapters/handler"
	"github.com/DanielPopoola/posgateway/internal/adapters/transport"
	"github.com/DanielPopoola/posgateway/internal/config"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newStack serves the full API against a fake bank answering every call with reply.
func newStack(t *testing.T, reply func(w http.ResponseWriter, body string)) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	bank := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		reply(w, string(body))
	}))
	t.Cleanup(bank.Close)

	merchants, err := registry.New().Bind([]domain.Account{{
		Bank:     "isbank",
		ClientID: "700655000200",
		Username: "ISBANKAPI",
		Password: "ISBANK07",
		StoreKey: "TRPS0200",
		Model:    domain.ModelNonSecure,
	}}, map[string]gateway.Endpoints{
		"isbank": {Payment: bank.URL + "/fim/api"},
	})
	require.NoError(t, err)

	httpTransport := transport.NewHTTPTransport(config.TransportConfig{Timeout: 2 * time.Second}, logger)
	retrier := transport.NewInquiryRetrier(httpTransport, config.RetryConfig{BaseDelay: time.Millisecond, MaxRetries: 2}, logger)

	mux := http.NewServeMux()
	handler.NewPaymentHandler(service.NewPaymentService(retrier, logger), merchants, logger).RegisterRoutes(mux)

	api := httptest.NewServer(mux)
	t.Cleanup(api.Close)
	return api
}

func call(t *testing.T, api *httptest.Server, path, body string) (int, handler.APIResponse) {
	t.Helper()
	resp, err := http.Post(api.URL+path, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out handler.APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

const payBody = `{
	"order": {"id": "order222", "amount": "100.25", "currency": "TRY"},
	"tx_type": "pay",
	"card": {"number": "5555444433332222", "expiry_month": 12, "expiry_year": 21, "cvv": "122"}
}`

func TestFlow_NonSecurePayment(t *testing.T) {
	api := newStack(t, func(w http.ResponseWriter, body string) {
		assert.Contains(t, body, "<Total>100.25</Total>")
		assert.Contains(t, body, "<Number>5555444433332222</Number>")
		_, _ = io.WriteString(w, `<?xml version="1.0" encoding="ISO-8859-9"?>
<CC5Response>
	<OrderId>order222</OrderId>
	<Response>Approved</Response>
	<AuthCode>P77974</AuthCode>
	<HostRefNum>022011000201</HostRefNum>
	<ProcReturnCode>00</ProcReturnCode>
	<TransId>22011LpmH13627</TransId>
	<ErrMsg></ErrMsg>
</CC5Response>`)
	})

	status, resp := call(t, api, "/banks/isbank/payments", payBody)

	require.Equal(t, http.StatusOK, status)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "Approved", data["state"])
	assert.Equal(t, float64(1), data["calls"])
	result := data["result"].(map[string]interface{})
	assert.Equal(t, "approved", result["status"])
	assert.Equal(t, "P77974", result["auth_code"])
}

func TestFlow_BankOutage(t *testing.T) {
	api := newStack(t, func(w http.ResponseWriter, _ string) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	status, resp := call(t, api, "/banks/isbank/payments", payBody)

	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, domain.ErrCodeTransportFailure, resp.Error.Code)
}

func TestFlow_StatusRetriedAfterOutage(t *testing.T) {
	var calls atomic.Int32
	api := newStack(t, func(w http.ResponseWriter, body string) {
		assert.Contains(t, body, "ORDERSTATUS")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `<CC5Response><OrderId>order222</OrderId><Response>Approved</Response><ProcReturnCode>00</ProcReturnCode></CC5Response>`)
	})

	status, _ := call(t, api, "/banks/isbank/status", `{"order": {"id": "order222", "amount": "1", "currency": "TRY"}}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFlow_UnknownBank(t *testing.T) {
	api := newStack(t, func(http.ResponseWriter, string) {
		t.Error("bank must not be called")
	})

	status, resp := call(t, api, "/banks/garanti/payments", payBody)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, domain.ErrCodeUnknownBank, resp.Error.Code)
}
