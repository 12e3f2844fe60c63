// Package registry maps bank identifiers to their protocol variant and default endpoints.
package registry

import (
	"fmt"
	"maps"
	"slices"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/akbank"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/estpos"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/garanti"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/interpos"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/kuveyt"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/payfor"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/posnet"
	"github.com/DanielPopoola/posgateway/internal/adapters/gateway/tosla"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
)

// Constructor builds a fresh variant.
type Constructor func(opts ...gateway.Option) gateway.Variant

// Bank is one registered bank: its protocol and the endpoints of both environments.
type Bank struct {
	ID      string
	Variant Constructor
	Test    gateway.Endpoints
	Prod    gateway.Endpoints
}

// Endpoints returns the default URLs for the environment the account targets.
func (b Bank) Endpoints(acc domain.Account) gateway.Endpoints {
	if acc.IsTest() {
		return b.Test
	}
	return b.Prod
}

func estposV1(opts ...gateway.Option) gateway.Variant {
	return estpos.New(estpos.HashV1, opts...)
}

func estposV3(opts ...gateway.Option) gateway.Variant {
	return estpos.New(estpos.HashV3, opts...)
}

func garantiVariant(opts ...gateway.Option) gateway.Variant  { return garanti.New(opts...) }
func posnetVariant(opts ...gateway.Option) gateway.Variant   { return posnet.New(opts...) }
func payforVariant(opts ...gateway.Option) gateway.Variant   { return payfor.New(opts...) }
func interposVariant(opts ...gateway.Option) gateway.Variant { return interpos.New(opts...) }
func kuveytVariant(opts ...gateway.Option) gateway.Variant   { return kuveyt.New(opts...) }
func akbankVariant(opts ...gateway.Option) gateway.Variant   { return akbank.New(opts...) }
func toslaVariant(opts ...gateway.Option) gateway.Variant    { return tosla.New(opts...) }

const estposTest = "https://entegrasyon.asseco-see.com.tr/fim"

func est(id, prodHost string, variant Constructor) Bank {
	return Bank{
		ID:      id,
		Variant: variant,
		Test: gateway.Endpoints{
			Payment: estposTest + "/api",
			ThreeD:  estposTest + "/est3Dgate",
		},
		Prod: gateway.Endpoints{
			Payment: "https://" + prodHost + "/fim/api",
			ThreeD:  "https://" + prodHost + "/fim/est3Dgate",
		},
	}
}

func posnetBank(id, testHost, prodHost string) Bank {
	return Bank{
		ID:      id,
		Variant: posnetVariant,
		Test: gateway.Endpoints{
			Payment: "https://" + testHost + "/PosnetWebService/XML",
			ThreeD:  "https://" + testHost + "/3DSWebService/YKBPaymentService",
		},
		Prod: gateway.Endpoints{
			Payment: "https://" + prodHost + "/PosnetWebService/XML",
			ThreeD:  "https://" + prodHost + "/3DSWebService/YKBPaymentService",
		},
	}
}

var defaults = []Bank{
	est("akbank-est", "www.sanalakpos.com", estposV1),
	est("isbank", "sanalpos.isbank.com.tr", estposV1),
	est("sekerbank", "sanalpos.sekerbank.com.tr", estposV1),
	est("anadolubank", "anadolusanalpos.est.com.tr", estposV1),
	est("finansbank-est", "www.fbwebpos.com", estposV1),
	est("ziraat", "sanalpos2.ziraatbank.com.tr", estposV3),
	est("halkbank", "sanalpos.halkbank.com.tr", estposV3),
	est("teb", "sanalpos.teb.com.tr", estposV3),
	{
		ID:      "garanti",
		Variant: garantiVariant,
		Test: gateway.Endpoints{
			Payment: "https://sanalposprovtest.garantibbva.com.tr/VPServlet",
			ThreeD:  "https://sanalposprovtest.garantibbva.com.tr/servlet/gt3dengine",
		},
		Prod: gateway.Endpoints{
			Payment: "https://sanalposprov.garanti.com.tr/VPServlet",
			ThreeD:  "https://sanalposprov.garanti.com.tr/servlet/gt3dengine",
		},
	},
	posnetBank("yapikredi", "setmpos.ykb.com", "posnet.yapikredi.com.tr"),
	posnetBank("albaraka", "epostest.albarakaturk.com.tr", "epos.albarakaturk.com.tr"),
	{
		ID:      "qnb-finansbank",
		Variant: payforVariant,
		Test: gateway.Endpoints{
			Payment:    "https://vpostest.qnbfinansbank.com/Gateway/XMLGate.aspx",
			ThreeD:     "https://vpostest.qnbfinansbank.com/Gateway/Default.aspx",
			ThreeDHost: "https://vpostest.qnbfinansbank.com/Gateway/3DHost.aspx",
		},
		Prod: gateway.Endpoints{
			Payment:    "https://vpos.qnbfinansbank.com/Gateway/XMLGate.aspx",
			ThreeD:     "https://vpos.qnbfinansbank.com/Gateway/Default.aspx",
			ThreeDHost: "https://vpos.qnbfinansbank.com/Gateway/3DHost.aspx",
		},
	},
	{
		ID:      "denizbank",
		Variant: interposVariant,
		Test: gateway.Endpoints{
			Payment:    "https://test.inter-vpos.com.tr/mpi/Default.aspx",
			ThreeD:     "https://test.inter-vpos.com.tr/mpi/Default.aspx",
			ThreeDHost: "https://test.inter-vpos.com.tr/mpi/3DHost.aspx",
		},
		Prod: gateway.Endpoints{
			Payment:    "https://inter-vpos.com.tr/mpi/Default.aspx",
			ThreeD:     "https://inter-vpos.com.tr/mpi/Default.aspx",
			ThreeDHost: "https://inter-vpos.com.tr/mpi/3DHost.aspx",
		},
	},
	{
		ID:      "kuveyt-turk",
		Variant: kuveytVariant,
		Test: gateway.Endpoints{
			Payment: "https://boatest.kuveytturk.com.tr/boa.virtualpos.services/Home/ThreeDModelProvisionGate",
			ThreeD:  "https://boatest.kuveytturk.com.tr/boa.virtualpos.services/Home/ThreeDModelPayGate",
			Query:   "https://boatest.kuveytturk.com.tr/BOA.Integration.WCFService/BOA.Integration.VirtualPos/VirtualPosService.svc/Basic",
		},
		Prod: gateway.Endpoints{
			Payment: "https://sanalpos.kuveytturk.com.tr/ServiceGateWay/Home/ThreeDModelProvisionGate",
			ThreeD:  "https://sanalpos.kuveytturk.com.tr/ServiceGateWay/Home/ThreeDModelPayGate",
			Query:   "https://boa.kuveytturk.com.tr/BOA.Integration.WCFService/BOA.Integration.VirtualPos/VirtualPosService.svc/Basic",
		},
	},
	{
		ID:      "akbank",
		Variant: akbankVariant,
		Test: gateway.Endpoints{
			Payment:    "https://apipre.akbank.com/api/v1/payment/virtualpos/transaction/process",
			ThreeD:     "https://virtualpospaymentgatewaypre.akbank.com/securepay",
			ThreeDHost: "https://virtualpospaymentgatewaypre.akbank.com/payhosting",
		},
		Prod: gateway.Endpoints{
			Payment:    "https://api.akbank.com/api/v1/payment/virtualpos/transaction/process",
			ThreeD:     "https://virtualpospaymentgateway.akbank.com/securepay",
			ThreeDHost: "https://virtualpospaymentgateway.akbank.com/payhosting",
		},
	},
	{
		ID:      "tosla",
		Variant: toslaVariant,
		Test: gateway.Endpoints{
			Payment: "https://prepentegrasyon.tosla.com/api/Payment",
			ThreeD:  "https://prepentegrasyon.tosla.com/api/Payment/ProcessCardForm",
		},
		Prod: gateway.Endpoints{
			Payment: "https://entegrasyon.tosla.com/api/Payment",
			ThreeD:  "https://entegrasyon.tosla.com/api/Payment/ProcessCardForm",
		},
	},
}

// Registry resolves bank ids. It is read-only after construction.
type Registry struct {
	banks map[string]Bank
	opts  []gateway.Option
}

// New returns a registry of the built-in banks. opts are passed to every variant.
func New(opts ...gateway.Option) *Registry {
	r := &Registry{banks: make(map[string]Bank, len(defaults)), opts: opts}
	for _, b := range defaults {
		r.banks[b.ID] = b
	}
	return r
}

func (r *Registry) Lookup(id string) (Bank, error) {
	b, ok := r.banks[id]
	if !ok {
		return Bank{}, domain.NewUnknownBankError(id)
	}
	return b, nil
}

// IDs lists the registered bank ids in sorted order.
func (r *Registry) IDs() []string {
	return slices.Sorted(maps.Keys(r.banks))
}

// Gateway binds acc to its bank's variant. Non-empty URLs in override replace the defaults.
func (r *Registry) Gateway(acc domain.Account, override gateway.Endpoints) (*gateway.Adapter, error) {
	b, err := r.Lookup(acc.Bank)
	if err != nil {
		return nil, err
	}
	return gateway.NewAdapter(b.Variant(r.opts...), acc, b.Endpoints(acc).Merge(override))
}

// Merchants holds one bound gateway per configured bank.
type Merchants map[string]*gateway.Adapter

// Bind builds a gateway for every account. Overrides are keyed by bank id.
func (r *Registry) Bind(accounts []domain.Account, overrides map[string]gateway.Endpoints) (Merchants, error) {
	m := make(Merchants, len(accounts))
	for _, acc := range accounts {
		if _, dup := m[acc.Bank]; dup {
			return nil, fmt.Errorf("duplicate account for bank %q", acc.Bank)
		}
		gw, err := r.Gateway(acc, overrides[acc.Bank])
		if err != nil {
			return nil, fmt.Errorf("binding %s account: %w", acc.Bank, err)
		}
		m[acc.Bank] = gw
	}
	return m, nil
}

func (m Merchants) Gateway(bank string) (ports.Gateway, error) {
	gw, ok := m[bank]
	if !ok {
		return nil, domain.NewUnknownBankError(bank)
	}
	return gw, nil
}
