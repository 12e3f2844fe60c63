// Package service drives a transaction through its security-model flow: build the request,
// send it, verify what comes back and settle on a terminal state.
package service

import (
	"context"
	"log/slog"
	"slices"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
)

// Outcome is where a transaction ended up. Result is nil when no gateway reply was read.
type Outcome struct {
	State  State          `json:"state"`
	Result *domain.Result `json:"result,omitempty"`
	Trail  []State        `json:"trail"`
	Calls  int            `json:"calls"`
}

func (f *flow) outcome(result *domain.Result, calls int) *Outcome {
	return &Outcome{
		State:  f.state,
		Result: result,
		Trail:  slices.Clone(f.trail),
		Calls:  calls,
	}
}

// PaymentService holds no per-transaction state and may be shared across goroutines.
type PaymentService struct {
	transport ports.Transport
	logger    *slog.Logger
}

func NewPaymentService(transport ports.Transport, logger *slog.Logger) *PaymentService {
	return &PaymentService{
		transport: transport,
		logger:    logger,
	}
}

type normalizer func(raw domain.Values) domain.Result

// Pay sends a non-secure payment leg. Post-auth is accepted on every security model.
func (s *PaymentService) Pay(
	ctx context.Context,
	gw ports.Gateway,
	order domain.Order,
	tx domain.TransactionType,
	card *domain.Card,
) (*Outcome, error) {
	if !tx.IsPayment() {
		return nil, domain.NewUnsupportedTransactionError(gw.Bank(), tx)
	}
	if tx != domain.TxPostAuth && gw.Model() != domain.ModelNonSecure {
		return nil, domain.NewUnsupportedModelError(gw.Bank(), gw.Model())
	}

	req, err := gw.PaymentRequest(order, tx, card)
	if err != nil {
		return nil, err
	}

	return s.roundTrip(ctx, newFlow(StateNonSecure), req, func(raw domain.Values) domain.Result {
		return gw.NormalizePayment(order, tx, raw)
	})
}

// Begin3D builds the signed form that redirects the cardholder to the bank. It does no I/O.
func (s *PaymentService) Begin3D(
	gw ports.Gateway,
	order domain.Order,
	tx domain.TransactionType,
	card *domain.Card,
) (*domain.FormData, error) {
	if tx != domain.TxPay && tx != domain.TxPreAuth {
		return nil, domain.NewUnsupportedTransactionError(gw.Bank(), tx)
	}
	return gw.ThreeDFormData(order, tx, card)
}

// Complete3D handles the bank's post back. Nothing in raw is trusted until its signature
// verifies. Full 3-D then sends exactly one authorization request. 3-D Pay and 3-D Host
// read the result from the callback and send nothing.
func (s *PaymentService) Complete3D(
	ctx context.Context,
	gw ports.Gateway,
	order domain.Order,
	tx domain.TransactionType,
	raw domain.Values,
) (*Outcome, error) {
	start, ok := EntryState(gw.Model())
	if !ok || start == StateNonSecure {
		return nil, domain.NewUnsupportedModelError(gw.Bank(), gw.Model())
	}
	f := newFlow(start)

	cb, err := gw.VerifyCallback(order, raw)
	if err != nil {
		if domain.Categorize(err) != domain.CategoryAuthentication {
			return nil, err
		}
		s.logger.Warn("rejected 3-D callback",
			"bank", gw.Bank(),
			"order_id", order.ID,
			"error", err,
		)
		if terr := f.transition(StateDeclined); terr != nil {
			return nil, terr
		}
		return f.outcome(rejected(gw.Bank(), order, tx), 0), err
	}

	if start != State3DPending {
		result := gw.Normalize3D(order, tx, cb, nil)
		if err := f.settle(result); err != nil {
			return nil, err
		}
		return f.outcome(&result, 0), nil
	}

	if err := f.transition(State3DVerified); err != nil {
		return nil, err
	}

	if !cb.Authenticated {
		result := gw.Normalize3D(order, tx, cb, nil)
		if err := f.transition(StateDeclined); err != nil {
			return nil, err
		}
		return f.outcome(&result, 0), nil
	}

	req, err := gw.ThreeDPaymentRequest(order, tx, cb)
	if err != nil {
		return nil, err
	}

	return s.roundTrip(ctx, f, req, func(resp domain.Values) domain.Result {
		return gw.Normalize3D(order, tx, cb, resp)
	})
}

func (s *PaymentService) Status(ctx context.Context, gw ports.Gateway, order domain.Order) (*Outcome, error) {
	return s.inquire(ctx, gw, order, domain.TxStatus, gw.StatusRequest)
}

func (s *PaymentService) History(ctx context.Context, gw ports.Gateway, order domain.Order) (*Outcome, error) {
	return s.inquire(ctx, gw, order, domain.TxHistory, gw.HistoryRequest)
}

func (s *PaymentService) Cancel(ctx context.Context, gw ports.Gateway, order domain.Order) (*Outcome, error) {
	return s.reverse(ctx, gw, order, domain.TxCancel, gw.CancelRequest)
}

func (s *PaymentService) Refund(ctx context.Context, gw ports.Gateway, order domain.Order) (*Outcome, error) {
	return s.reverse(ctx, gw, order, domain.TxRefund, gw.RefundRequest)
}

func (s *PaymentService) inquire(
	ctx context.Context,
	gw ports.Gateway,
	order domain.Order,
	tx domain.TransactionType,
	build func(domain.Order) (*domain.Request, error),
) (*Outcome, error) {
	req, err := build(order)
	if err != nil {
		return nil, err
	}
	return s.roundTrip(ctx, newFlow(StateNonSecure), req, func(raw domain.Values) domain.Result {
		return gw.NormalizeQuery(order, tx, raw)
	})
}

func (s *PaymentService) reverse(
	ctx context.Context,
	gw ports.Gateway,
	order domain.Order,
	tx domain.TransactionType,
	build func(domain.Order) (*domain.Request, error),
) (*Outcome, error) {
	req, err := build(order)
	if err != nil {
		return nil, err
	}
	return s.roundTrip(ctx, newFlow(StateNonSecure), req, func(raw domain.Values) domain.Result {
		return gw.NormalizePayment(order, tx, raw)
	})
}

// roundTrip makes the single outbound call of a flow. An interrupted call leaves the flow
// Indeterminate. Other transport failures return the outcome in its current state with no
// result.
func (s *PaymentService) roundTrip(ctx context.Context, f *flow, req *domain.Request, normalize normalizer) (*Outcome, error) {
	raw, err := s.transport.Send(ctx, req)
	if err != nil {
		s.logger.Error("gateway call failed",
			"bank", req.Bank,
			"tx_type", req.TxType,
			"category", domain.Categorize(err),
			"error", err,
		)
		if domain.IsErrorCode(err, domain.ErrCodeIndeterminate) {
			if terr := f.transition(StateIndeterminate); terr != nil {
				return nil, terr
			}
		}
		return f.outcome(nil, 1), err
	}

	result := normalize(raw)
	if err := f.settle(result); err != nil {
		return nil, err
	}

	s.logger.Info("gateway call settled",
		"bank", req.Bank,
		"tx_type", req.TxType,
		"order_id", result.OrderID,
		"state", f.state,
		"status_detail", result.StatusDetail,
		"proc_return_code", result.ProcReturnCode,
	)

	return f.outcome(&result, 1), nil
}

// rejected is the result reported for a callback whose signature did not verify. None of
// the callback's fields are copied into it.
func rejected(bank string, order domain.Order, tx domain.TransactionType) *domain.Result {
	return &domain.Result{
		Bank:         bank,
		OrderID:      order.ID,
		TxType:       tx,
		Status:       domain.StatusDeclined,
		StatusDetail: domain.DetailDeclined,
	}
}
