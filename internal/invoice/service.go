package invoice

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/arga-dev/backend-envio/internal/obs"
	"github.com/arga-dev/backend-envio/internal/shipment"
)

// ErrNothingToInvoice indicates no unbilled paid shipments fell in the period.
var ErrNothingToInvoice = errors.New("no unbilled shipments in period")

// ShipmentStore captures the shipment methods the generator needs.
type ShipmentStore interface {
	ListUnbilledPaid(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]shipment.Shipment, error)
}

// Inserter persists the invoice and flips its shipments to BILLED in one
// transaction.
type Inserter interface {
	Insert(ctx context.Context, inv Invoice) (Invoice, error)
}

// GenerateInput is the payload for generating an invoice.
type GenerateInput struct {
	CustomerID  uuid.UUID `json:"customer_id" validate:"required"`
	PeriodStart time.Time `json:"period_start" validate:"required"`
	PeriodEnd   time.Time `json:"period_end" validate:"required"`
	UserID      uuid.UUID `json:"user_id" validate:"required"`
}

// Service aggregates unbilled paid shipments into invoices. Generation is
// independent of price calculation; a failure here never touches the stored
// shipment prices.
type Service struct {
	Invoices   Inserter
	Shipments  ShipmentStore
	TaxRateBPS int
	Now        func() time.Time
}

// Generate sums the period's unbilled paid shipments, reapplies the flat tax
// rate to the aggregate, and emits a numbered invoice with one line per
// shipment.
func (s *Service) Generate(ctx context.Context, in GenerateInput) (Invoice, error) {
	var zero Invoice
	if s == nil || s.Invoices == nil || s.Shipments == nil {
		return zero, errors.New("invoice service not configured")
	}
	result := "error"
	defer func() {
		if obs.InvoiceGenerateTotal != nil {
			obs.InvoiceGenerateTotal.WithLabelValues(result).Inc()
		}
	}()
	if !in.PeriodEnd.After(in.PeriodStart) {
		return zero, errors.New("period_end must be after period_start")
	}

	shipments, err := s.Shipments.ListUnbilledPaid(ctx, in.CustomerID, in.PeriodStart, in.PeriodEnd)
	if err != nil {
		return zero, err
	}
	if len(shipments) == 0 {
		result = "empty"
		return zero, ErrNothingToInvoice
	}

	var subtotal float64
	lines := make([]LineItem, 0, len(shipments))
	for _, sh := range shipments {
		subtotal += sh.PriceSubtotal
		lines = append(lines, LineItem{
			ShipmentID:  sh.ID,
			Description: "shipment " + sh.TrackingNumber,
			Amount:      sh.PriceSubtotal,
		})
	}
	tax := subtotal * float64(s.TaxRateBPS) / 10000
	total := math.Round(subtotal + tax)

	now := s.now()
	stored, err := s.Invoices.Insert(ctx, Invoice{
		Number:      fmt.Sprintf("INV-%d-%02d-%06d", now.Year(), int(now.Month()), rand.IntN(1_000_000)),
		CustomerID:  in.CustomerID,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
		Subtotal:    subtotal,
		TaxAmount:   tax,
		Total:       total,
		CreatedBy:   in.UserID,
		Lines:       lines,
	})
	if err != nil {
		return zero, err
	}
	result = "success"
	return stored, nil
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
