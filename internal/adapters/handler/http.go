package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
	"github.com/DanielPopoola/posgateway/internal/core/service"
	"github.com/go-playground/validator"
)

type PaymentService interface {
	Pay(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*service.Outcome, error)
	Begin3D(gw ports.Gateway, order domain.Order, tx domain.TransactionType, card *domain.Card) (*domain.FormData, error)
	Complete3D(ctx context.Context, gw ports.Gateway, order domain.Order, tx domain.TransactionType, raw domain.Values) (*service.Outcome, error)
	Status(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error)
	History(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error)
	Cancel(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error)
	Refund(ctx context.Context, gw ports.Gateway, order domain.Order) (*service.Outcome, error)
}

// GatewayResolver finds the configured gateway for a bank id.
type GatewayResolver interface {
	Gateway(bank string) (ports.Gateway, error)
}

type PaymentHandler struct {
	payments PaymentService
	gateways GatewayResolver
	validate *validator.Validate
	logger   *slog.Logger
}

func NewPaymentHandler(payments PaymentService, gateways GatewayResolver, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		gateways: gateways,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /banks/{bank}/payments", h.HandlePay)
	mux.HandleFunc("POST /banks/{bank}/3d/form", h.HandleBegin3D)
	mux.HandleFunc("POST /banks/{bank}/3d/complete", h.HandleComplete3D)
	mux.HandleFunc("POST /banks/{bank}/status", h.HandleStatus)
	mux.HandleFunc("POST /banks/{bank}/cancel", h.HandleCancel)
	mux.HandleFunc("POST /banks/{bank}/refund", h.HandleRefund)
	mux.HandleFunc("POST /banks/{bank}/history", h.HandleHistory)
}
