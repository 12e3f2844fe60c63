package registry_test

import (
	"testing"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/registry"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDs(t *testing.T) {
	r := registry.New()

	assert.Equal(t, []string{
		"akbank", "akbank-est", "albaraka", "anadolubank", "denizbank", "finansbank-est", "garanti",
		"halkbank", "isbank", "kuveyt-turk", "qnb-finansbank", "sekerbank", "teb", "tosla", "yapikredi",
		"ziraat",
	}, r.IDs())
}

func TestLookup(t *testing.T) {
	r := registry.New()

	tests := []struct {
		bank    string
		variant string
	}{
		{"isbank", "estpos"},
		{"ziraat", "estpos-v3"},
		{"garanti", "garanti"},
		{"yapikredi", "posnet"},
		{"qnb-finansbank", "payfor"},
		{"denizbank", "interpos"},
		{"kuveyt-turk", "kuveyt"},
		{"akbank", "akbank"},
		{"tosla", "tosla"},
	}
	for _, tt := range tests {
		t.Run(tt.bank, func(t *testing.T) {
			b, err := r.Lookup(tt.bank)
			require.NoError(t, err)
			assert.Equal(t, tt.variant, b.Variant().Name())
			assert.NotEmpty(t, b.Test.Payment)
			assert.NotEmpty(t, b.Prod.Payment)
		})
	}

	_, err := r.Lookup("bank-of-nowhere")
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnknownBank))
}

func TestGateway(t *testing.T) {
	r := registry.New()

	t.Run("environment picks endpoints", func(t *testing.T) {
		acc := domain.Account{Bank: "garanti", Model: domain.ModelNonSecure, Environment: domain.EnvProd}
		gw, err := r.Gateway(acc, gateway.Endpoints{})
		require.NoError(t, err)
		assert.Equal(t, "garanti", gw.Bank())
		assert.Equal(t, "garanti", gw.Variant().Name())
	})

	t.Run("override replaces default", func(t *testing.T) {
		acc := domain.Account{
			Bank: "isbank", ClientID: "700655000200", Username: "u", Password: "p", Model: domain.ModelNonSecure,
		}
		gw, err := r.Gateway(acc, gateway.Endpoints{Payment: "http://localhost:9000/fim/api"})
		require.NoError(t, err)

		o, err := domain.NewOrder("o1", decimal.NewFromInt(1), domain.CurrencyTRY)
		require.NoError(t, err)
		req, err := gw.StatusRequest(o)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:9000/fim/api", req.URL)
		assert.Equal(t, "isbank", req.Bank)
	})

	t.Run("unsupported model", func(t *testing.T) {
		_, err := r.Gateway(domain.Account{Bank: "kuveyt-turk", Model: domain.ModelNonSecure}, gateway.Endpoints{})
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnsupportedModel))
	})

	t.Run("unknown bank", func(t *testing.T) {
		_, err := r.Gateway(domain.Account{Bank: "nope"}, gateway.Endpoints{})
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnknownBank))
	})
}

func TestBind(t *testing.T) {
	r := registry.New()
	accounts := []domain.Account{
		{Bank: "isbank", Model: domain.Model3DSecure},
		{Bank: "tosla", Model: domain.ModelNonSecure},
	}

	merchants, err := r.Bind(accounts, map[string]gateway.Endpoints{
		"tosla": {Payment: "http://localhost:9100/api/Payment"},
	})
	require.NoError(t, err)

	gw, err := merchants.Gateway("tosla")
	require.NoError(t, err)
	assert.Equal(t, domain.ModelNonSecure, gw.Model())

	_, err = merchants.Gateway("garanti")
	assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnknownBank))

	t.Run("duplicate bank", func(t *testing.T) {
		_, err := r.Bind(append(accounts, domain.Account{Bank: "isbank", Model: domain.ModelNonSecure}), nil)
		assert.ErrorContains(t, err, "duplicate account")
	})

	t.Run("unsupported model is wrapped", func(t *testing.T) {
		_, err := r.Bind([]domain.Account{{Bank: "tosla", Model: domain.Model3DHost}}, nil)
		assert.True(t, domain.IsErrorCode(err, domain.ErrCodeUnsupportedModel))
	})
}
