package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
	"github.com/DanielPopoola/posgateway/internal/core/service"
)

const maxRequestBody = 1 << 20

func validationError(message string) *domain.DomainError {
	return &domain.DomainError{
		Code:    ErrCodeValidation,
		Message: message,
	}
}

// decode reads and validates a JSON body into dst, answering the request itself on failure.
func (h *PaymentHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err != nil {
		WriteError(w, validationError("could not read request body"), h.logger)
		return false
	}

	if err := json.Unmarshal(body, dst); err != nil {
		WriteError(w, validationError("invalid JSON: "+err.Error()), h.logger)
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		WriteError(w, validationError(err.Error()), h.logger)
		return false
	}

	return true
}

// resolve looks up the bank from the path and converts the order. withAmount requires a
// positive amount.
func (h *PaymentHandler) resolve(w http.ResponseWriter, r *http.Request, o OrderRequest, withAmount bool) (ports.Gateway, domain.Order, bool) {
	gw, err := h.gateways.Gateway(r.PathValue("bank"))
	if err != nil {
		WriteError(w, err, h.logger)
		return nil, domain.Order{}, false
	}

	if withAmount {
		if err := o.requireAmount(); err != nil {
			WriteError(w, err, h.logger)
			return nil, domain.Order{}, false
		}
	}

	order, err := o.toDomain()
	if err != nil {
		if domain.Categorize(err) == domain.CategoryInternal {
			err = validationError(err.Error())
		}
		WriteError(w, err, h.logger)
		return nil, domain.Order{}, false
	}

	return gw, order, true
}

func (h *PaymentHandler) card(w http.ResponseWriter, c *CardRequest) (*domain.Card, bool) {
	card, err := c.toDomain()
	if err != nil {
		WriteError(w, validationError(err.Error()), h.logger)
		return nil, false
	}
	return card, true
}

func (h *PaymentHandler) respondOutcome(w http.ResponseWriter, out *service.Outcome, err error) {
	if err != nil {
		if out != nil {
			WriteError(w, err, h.logger, out)
			return
		}
		WriteError(w, err, h.logger)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

// HandlePay sends a non-secure payment, pre-authorization or post-authorization.
func (h *PaymentHandler) HandlePay(w http.ResponseWriter, r *http.Request) {
	var req PaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	gw, order, ok := h.resolve(w, r, req.Order, true)
	if !ok {
		return
	}

	card, ok := h.card(w, req.Card)
	if !ok {
		return
	}

	out, err := h.payments.Pay(r.Context(), gw, order, domain.TransactionType(req.TxType), card)
	h.respondOutcome(w, out, err)
}

// HandleBegin3D returns the form the merchant renders to send the cardholder to the bank.
func (h *PaymentHandler) HandleBegin3D(w http.ResponseWriter, r *http.Request) {
	var req ThreeDFormRequest
	if !h.decode(w, r, &req) {
		return
	}

	gw, order, ok := h.resolve(w, r, req.Order, true)
	if !ok {
		return
	}

	card, ok := h.card(w, req.Card)
	if !ok {
		return
	}

	form, err := h.payments.Begin3D(gw, order, domain.TransactionType(req.TxType), card)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	respondWithJSON(w, http.StatusOK, form)
}

// HandleComplete3D verifies the bank's callback and finishes the transaction.
func (h *PaymentHandler) HandleComplete3D(w http.ResponseWriter, r *http.Request) {
	var req ThreeDCompleteRequest
	if !h.decode(w, r, &req) {
		return
	}

	gw, order, ok := h.resolve(w, r, req.Order, true)
	if !ok {
		return
	}

	raw := make(domain.Values, len(req.Callback))
	for k, v := range req.Callback {
		raw[k] = v
	}

	out, err := h.payments.Complete3D(r.Context(), gw, order, domain.TransactionType(req.TxType), raw)
	h.respondOutcome(w, out, err)
}

func (h *PaymentHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	h.orderOnly(w, r, PaymentService.Status, false)
}

func (h *PaymentHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	h.orderOnly(w, r, PaymentService.History, false)
}

func (h *PaymentHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	h.orderOnly(w, r, PaymentService.Cancel, false)
}

func (h *PaymentHandler) HandleRefund(w http.ResponseWriter, r *http.Request) {
	h.orderOnly(w, r, PaymentService.Refund, true)
}

type orderOp func(PaymentService, context.Context, ports.Gateway, domain.Order) (*service.Outcome, error)

func (h *PaymentHandler) orderOnly(w http.ResponseWriter, r *http.Request, op orderOp, withAmount bool) {
	var req OrderOnlyRequest
	if !h.decode(w, r, &req) {
		return
	}

	gw, order, ok := h.resolve(w, r, req.Order, withAmount)
	if !ok {
		return
	}

	out, err := op(h.payments, r.Context(), gw, order)
	h.respondOutcome(w, out, err)
}
