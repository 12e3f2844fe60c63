// Package transport sends gateway requests over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/DanielPopoola/posgateway/internal/adapters/codec"
	"github.com/DanielPopoola/posgateway/internal/config"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
)

// maxBody caps how much of a reply is read.
const maxBody = 4 << 20

type HTTPTransport struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
}

var _ ports.Transport = (*HTTPTransport)(nil)

func NewHTTPTransport(cfg config.TransportConfig, logger *slog.Logger) *HTTPTransport {
	return &HTTPTransport{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		userAgent:  cfg.UserAgent,
		logger:     logger,
	}
}

// Send encodes req in its wire format, posts it and decodes the reply. A cancelled context
// or a timeout yields INDETERMINATE, not TRANSPORT_FAILURE.
func (t *HTTPTransport) Send(ctx context.Context, req *domain.Request) (domain.Values, error) {
	op := fmt.Sprintf("%s %s request", req.Bank, req.TxType)

	body, contentType, err := codec.Encode(req.Envelope)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", op, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(body))
	if err != nil {
		return nil, domain.NewTransportError(op, err)
	}

	httpReq.Header.Set("Content-Type", contentType)
	if t.userAgent != "" {
		httpReq.Header.Set("User-Agent", t.userAgent)
	}
	if req.SOAPAction != "" {
		httpReq.Header.Set("SOAPAction", req.SOAPAction)
	}
	if req.Signer != nil {
		name, value := req.Signer.SignBody(body)
		httpReq.Header.Set(name, value)
	}

	start := time.Now()
	resp, err := t.httpClient.Do(httpReq)
	if err != nil {
		return nil, t.callError(ctx, op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, t.callError(ctx, op, err)
	}

	t.logger.Debug("gateway call",
		"bank", req.Bank,
		"tx_type", req.TxType,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, domain.NewTransportError(op, &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(raw),
		})
	}

	return codec.Decode(req.Response, raw)
}

func (t *HTTPTransport) callError(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil || isTimeout(err) {
		t.logger.Warn("gateway call interrupted", "op", op, "error", err)
		return domain.NewIndeterminateError(err)
	}
	return domain.NewTransportError(op, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
