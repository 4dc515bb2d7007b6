package invoice

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arga-dev/backend-envio/internal/shipment"
)

type fakeShipments struct {
	unbilled []shipment.Shipment
	listErr  error
}

func (f *fakeShipments) ListUnbilledPaid(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]shipment.Shipment, error) {
	return f.unbilled, f.listErr
}

type fakeInvoices struct {
	inserted *Invoice
	calls    int
	err      error
}

func (f *fakeInvoices) Insert(_ context.Context, inv Invoice) (Invoice, error) {
	f.calls++
	if f.err != nil {
		return Invoice{}, f.err
	}
	inv.ID = uuid.New()
	inv.CreatedAt = time.Now()
	f.inserted = &inv
	return inv, nil
}

func paidShipment(subtotal float64) shipment.Shipment {
	return shipment.Shipment{
		ID:             uuid.New(),
		TrackingNumber: fmt.Sprintf("TRK-1-%06d", int(subtotal)),
		Status:         shipment.StatusPaid,
		PriceSubtotal:  subtotal,
	}
}

func period() GenerateInput {
	return GenerateInput{
		CustomerID:  uuid.New(),
		PeriodStart: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		UserID:      uuid.New(),
	}
}

func TestGenerateAggregatesShipments(t *testing.T) {
	shipments := &fakeShipments{unbilled: []shipment.Shipment{
		paidShipment(2000),
		paidShipment(1500.5),
	}}
	invoices := &fakeInvoices{}
	svc := &Service{
		Invoices:   invoices,
		Shipments:  shipments,
		TaxRateBPS: 1600,
		Now:        func() time.Time { return time.Date(2026, 6, 30, 12, 0, 0, 0, time.UTC) },
	}

	inv, err := svc.Generate(context.Background(), period())
	require.NoError(t, err)

	assert.Equal(t, 3500.5, inv.Subtotal)
	assert.InDelta(t, 560.08, inv.TaxAmount, 1e-9)
	assert.Equal(t, 4061.0, inv.Total)
	require.Len(t, inv.Lines, 2)
	assert.Contains(t, inv.Lines[0].Description, "TRK-")

	assert.Regexp(t, regexp.MustCompile(`^INV-2026-06-\d{6}$`), inv.Number)

	assert.Equal(t, shipments.unbilled[0].ID, inv.Lines[0].ShipmentID)
	assert.Equal(t, shipments.unbilled[1].ID, inv.Lines[1].ShipmentID)
}

func TestGenerateNothingToInvoice(t *testing.T) {
	svc := &Service{Invoices: &fakeInvoices{}, Shipments: &fakeShipments{}, TaxRateBPS: 1600}

	_, err := svc.Generate(context.Background(), period())
	require.ErrorIs(t, err, ErrNothingToInvoice)
}

func TestGenerateRejectsInvertedPeriod(t *testing.T) {
	svc := &Service{Invoices: &fakeInvoices{}, Shipments: &fakeShipments{}, TaxRateBPS: 1600}

	in := period()
	in.PeriodStart, in.PeriodEnd = in.PeriodEnd, in.PeriodStart
	_, err := svc.Generate(context.Background(), in)
	require.Error(t, err)
}

func TestGenerateListErrorPropagates(t *testing.T) {
	boom := errors.New("db down")
	svc := &Service{Invoices: &fakeInvoices{}, Shipments: &fakeShipments{listErr: boom}, TaxRateBPS: 1600}

	_, err := svc.Generate(context.Background(), period())
	require.ErrorIs(t, err, boom)
}

func TestGenerateFailedInsertLeavesNothingForRetry(t *testing.T) {
	invoices := &fakeInvoices{err: errors.New("db down")}
	shipments := &fakeShipments{unbilled: []shipment.Shipment{paidShipment(2000)}}
	svc := &Service{Invoices: invoices, Shipments: shipments, TaxRateBPS: 1600}

	_, err := svc.Generate(context.Background(), period())
	require.Error(t, err)
	assert.Nil(t, invoices.inserted, "a failed attempt must persist nothing")

	invoices.err = nil
	inv, err := svc.Generate(context.Background(), period())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, inv.ID)
	assert.Equal(t, 2, invoices.calls)
}
