package estpos

import (
	"net/http"

	"github.com/DanielPopoola/posgateway/internal/adapters/gateway"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/crypt"
)

func (v *Variant) ThreeDFormData(acc domain.Account, order domain.Order, tx domain.TransactionType, gatewayURL string, card *domain.Card) (*domain.FormData, error) {
	if err := acc.Require(domain.FieldClientID, domain.FieldStoreKey); err != nil {
		return nil, err
	}
	storeType, err := v.tables.Model(acc.Model)
	if err != nil {
		return nil, err
	}
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(v.Name(), tx)
	}
	txType, err := v.tables.TxType(tx)
	if err != nil {
		return nil, err
	}
	currency, err := v.tables.Currency(order.Currency)
	if err != nil {
		return nil, err
	}

	inputs := map[string]string{
		"clientid":  acc.ClientID,
		"storetype": storeType,
		"amount":    gateway.AmountFixed(order.Amount),
		"oid":       order.ID,
		"okUrl":     order.SuccessURL,
		"failUrl":   order.FailURL,
		"rnd":       v.Rand(),
		"lang":      v.tables.Lang(acc),
		"currency":  currency,
		"taksit":    gateway.InstallmentEmpty(order.Installment),
		"islemtipi": txType,
	}

	if acc.Model != domain.Model3DHost {
		if card == nil {
			return nil, domain.NewMissingRequiredFieldError("card")
		}
		brand, err := v.tables.Brand(card.Brand)
		if err != nil {
			return nil, err
		}
		inputs["pan"] = card.Number
		inputs["Ecom_Payment_Card_ExpDate_Month"] = card.MM()
		inputs["Ecom_Payment_Card_ExpDate_Year"] = card.YY()
		inputs["cv2"] = card.CVV
		if brand != "" {
			inputs["cardType"] = brand
		}
	}

	switch v.version {
	case HashV3:
		inputs["hashAlgorithm"] = "ver3"
		inputs["hash"] = sortedV3.Sign(crypt.Params(inputs), acc.StoreKey)
	default:
		formula := form3DPay
		if acc.Model == domain.Model3DSecure {
			formula = form3D
		}
		inputs["hash"] = formula.Sign(crypt.Params(inputs), acc.StoreKey)
	}

	return &domain.FormData{
		Gateway: gatewayURL,
		Method:  http.MethodPost,
		Inputs:  inputs,
	}, nil
}

// VerifyCallback checks the bank's signature before anything else in the post is read.
func (v *Variant) VerifyCallback(acc domain.Account, order domain.Order, raw domain.Values) (*domain.Callback, error) {
	if err := acc.Require(domain.FieldStoreKey); err != nil {
		return nil, err
	}

	var err error
	switch v.version {
	case HashV3:
		err = sortedV3.Verify(gateway.Params(raw), acc.StoreKey, raw.Fold("HASH"))
	default:
		err = callbackV1.Verify(gateway.Lookup(raw), acc.StoreKey)
	}
	if err != nil {
		return nil, err
	}

	if oid := raw.Str("oid"); oid != order.ID {
		return nil, domain.NewCallbackMismatchError("order id", order.ID, oid)
	}
	return gateway.NewCallback(raw, raw.Str("mdStatus"), mdFull, mdHalf), nil
}
