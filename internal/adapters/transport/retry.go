package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/DanielPopoola/posgateway/internal/config"
	"github.com/DanielPopoola/posgateway/internal/core/domain"
	"github.com/DanielPopoola/posgateway/internal/core/ports"
)

// InquiryRetrier retries status and history inquiries. Every other request is sent exactly
// once.
type InquiryRetrier struct {
	inner      ports.Transport
	baseDelay  time.Duration
	maxJitter  time.Duration
	maxRetries int
	logger     *slog.Logger
}

var _ ports.Transport = (*InquiryRetrier)(nil)

func NewInquiryRetrier(inner ports.Transport, cfg config.RetryConfig, logger *slog.Logger) *InquiryRetrier {
	return &InquiryRetrier{
		inner:      inner,
		baseDelay:  cfg.BaseDelay,
		maxJitter:  cfg.MaxJitter,
		maxRetries: max(cfg.MaxRetries, 1),
		logger:     logger,
	}
}

func (r *InquiryRetrier) Send(ctx context.Context, req *domain.Request) (domain.Values, error) {
	if !req.TxType.IsInquiry() {
		return r.inner.Send(ctx, req)
	}

	var lastErr error

	for attempt := 0; attempt < r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, domain.NewIndeterminateError(err)
		}

		values, err := r.inner.Send(ctx, req)
		if err == nil {
			return values, nil
		}

		lastErr = err

		if !isRetryable(ctx, err) {
			return nil, err
		}

		if attempt < r.maxRetries-1 {
			delay := r.backoff(attempt)
			r.logger.Warn("retrying inquiry",
				"bank", req.Bank,
				"tx_type", req.TxType,
				"attempt", attempt+1,
				"delay", delay,
				"error", err,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, domain.NewIndeterminateError(ctx.Err())
			}
		}
	}

	return nil, fmt.Errorf("maximum retries exceeded: %w", lastErr)
}

// isRetryable accepts network failures and 5xx replies, plus client timeouts while ctx is
// still live.
func isRetryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}

	if domain.IsErrorCode(err, domain.ErrCodeIndeterminate) {
		return true
	}

	if !domain.IsErrorCode(err, domain.ErrCodeTransportFailure) {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}

	return true
}

// backoff doubles the base delay per attempt and adds up to maxJitter.
func (r *InquiryRetrier) backoff(attempt int) time.Duration {
	base := r.baseDelay * time.Duration(1<<attempt)

	if r.maxJitter <= 0 {
		return base
	}

	return base + rand.N(r.maxJitter)
}
