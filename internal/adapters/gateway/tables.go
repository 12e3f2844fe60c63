package gateway

import (
	"github.com/DanielPopoola/posgateway/internal/core/domain"
)

// Tables are a variant's static literal mappings. A key missing from a table is
// unsupported by that bank; nothing is guessed.
type Tables struct {
	Bank           string
	TxTypes        map[domain.TransactionType]string
	Models         map[domain.SecurityModel]string
	Currencies     map[domain.Currency]string
	Brands         map[domain.CardBrand]string
	RecurringUnits map[domain.RecurringUnit]string
	Langs          map[string]string
}

func (t *Tables) TxType(tx domain.TransactionType) (string, error) {
	v, ok := t.TxTypes[tx]
	if !ok {
		return "", domain.NewUnsupportedTransactionError(t.Bank, tx)
	}
	return v, nil
}

func (t *Tables) Model(m domain.SecurityModel) (string, error) {
	v, ok := t.Models[m]
	if !ok {
		return "", domain.NewUnsupportedModelError(t.Bank, m)
	}
	return v, nil
}

// Supports reports whether the security model has an entry.
func (t *Tables) Supports(m domain.SecurityModel) bool {
	_, ok := t.Models[m]
	return ok
}

func (t *Tables) Currency(c domain.Currency) (string, error) {
	v, ok := t.Currencies[c]
	if !ok {
		return "", domain.NewUnsupportedCurrencyError(t.Bank, c)
	}
	return v, nil
}

// Brand maps a card brand. Cards without a brand map to "".
func (t *Tables) Brand(b domain.CardBrand) (string, error) {
	if b == "" {
		return "", nil
	}
	v, ok := t.Brands[b]
	if !ok {
		return "", domain.NewUnsupportedCardBrandError(t.Bank, b)
	}
	return v, nil
}

func (t *Tables) RecurringUnit(u domain.RecurringUnit) (string, error) {
	v, ok := t.RecurringUnits[u]
	if !ok {
		return "", domain.NewUnsupportedRecurringError(t.Bank, u)
	}
	return v, nil
}

// Lang maps the account language, falling back to the Turkish literal.
func (t *Tables) Lang(acc domain.Account) string {
	if v, ok := t.Langs[acc.Language()]; ok {
		return v
	}
	return t.Langs[domain.LangTR]
}

// Numeric ISO 4217 codes shared by most Turkish gateways.
var ISOCurrencies = map[domain.Currency]string{
	domain.CurrencyTRY: "949",
	domain.CurrencyUSD: "840",
	domain.CurrencyEUR: "978",
	domain.CurrencyGBP: "826",
	domain.CurrencyJPY: "392",
	domain.CurrencyRUB: "643",
}
