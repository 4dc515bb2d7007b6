package payment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/arga-dev/backend-envio/internal/obs"
	"github.com/arga-dev/backend-envio/internal/shipment"
)

var (
	// ErrAlreadyPaid indicates the shipment already carries a payment.
	ErrAlreadyPaid = errors.New("shipment already paid")
	// ErrAmountMismatch indicates the submitted amount differs from the
	// priced total stored on the shipment.
	ErrAmountMismatch = errors.New("payment amount does not match shipment total")
)

// ShipmentStore captures the shipment methods the recorder needs.
type ShipmentStore interface {
	Get(ctx context.Context, id uuid.UUID) (shipment.Shipment, error)
}

// Recorder persists a payment and the shipment's PAID status atomically.
type Recorder interface {
	RecordPaid(ctx context.Context, p Payment) (Payment, error)
}

// RecordInput is the payload for recording a payment.
type RecordInput struct {
	ShipmentID uuid.UUID `json:"shipment_id" validate:"required"`
	Amount     float64   `json:"amount" validate:"gte=0"`
	Method     string    `json:"payment_method" validate:"required"`
	UserID     uuid.UUID `json:"user_id" validate:"required"`
}

// Service records payments against priced shipments. Recording is independent
// of price calculation: a failure here is reported on its own and never
// invalidates an already returned price.
type Service struct {
	Payments  Recorder
	Shipments ShipmentStore
	Now       func() time.Time
}

// Record persists the payment and marks the shipment paid. The stored
// shipment total is authoritative; a non-zero submitted amount must match it.
func (s *Service) Record(ctx context.Context, in RecordInput) (Payment, error) {
	var zero Payment
	if s == nil || s.Payments == nil || s.Shipments == nil {
		return zero, errors.New("payment service not configured")
	}
	ctx, span := otel.Tracer("payment.Service").Start(ctx, "PaymentService.Record")
	defer span.End()

	method := normaliseMethod(in.Method)
	result := "error"
	defer func() {
		if obs.PaymentRecordTotal != nil {
			obs.PaymentRecordTotal.WithLabelValues(method, result).Inc()
		}
	}()
	span.SetAttributes(
		attribute.String("shipment.id", in.ShipmentID.String()),
		attribute.String("payment.method", method),
	)

	sh, err := s.Shipments.Get(ctx, in.ShipmentID)
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	if sh.Status == shipment.StatusPaid || sh.Status == shipment.StatusBilled {
		result = "already_paid"
		return zero, ErrAlreadyPaid
	}
	if in.Amount > 0 && in.Amount != sh.PriceTotal {
		result = "amount_mismatch"
		return zero, fmt.Errorf("%w: got %v expected %v", ErrAmountMismatch, in.Amount, sh.PriceTotal)
	}

	// One transaction covers the payment row and the status flip, so a
	// failed attempt leaves nothing behind for the retry to trip over.
	recorded, err := s.Payments.RecordPaid(ctx, Payment{
		ShipmentID: sh.ID,
		Reference:  s.reference(),
		Amount:     sh.PriceTotal,
		Method:     method,
		UserID:     in.UserID,
	})
	if err != nil {
		span.RecordError(err)
		return zero, err
	}
	result = "success"
	return recorded, nil
}

func (s *Service) reference() string {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return fmt.Sprintf("PAY-%d-%06d", now.Unix(), rand.IntN(1_000_000))
}

func normaliseMethod(method string) string {
	trimmed := strings.ToLower(strings.TrimSpace(method))
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
