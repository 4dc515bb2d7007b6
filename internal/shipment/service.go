package shipment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/arga-dev/backend-envio/internal/pricing"
)

// Quoter is the single pricing engine shipment creation shares with ad-hoc
// quoting. There is deliberately no second, simplified calculator.
type Quoter interface {
	Quote(ctx context.Context, in pricing.Input, skipRules bool) (pricing.Result, error)
}

// Persister captures the store methods the service needs.
type Persister interface {
	Create(ctx context.Context, sh Shipment) (Shipment, error)
	Get(ctx context.Context, id uuid.UUID) (Shipment, error)
	GetByTracking(ctx context.Context, trackingNumber string) (Shipment, error)
}

// CreateInput is the payload for registering a new shipment.
type CreateInput struct {
	CustomerID        uuid.UUID `json:"customer_id" validate:"required"`
	ServiceType       string    `json:"service_type" validate:"required"`
	WeightKg          float64   `json:"weight_kg" validate:"required,gt=0"`
	VolumeCm3         float64   `json:"volume_cm3" validate:"gte=0"`
	DistanceKm        float64   `json:"distance_km" validate:"gte=0"`
	HasInsurance      bool      `json:"has_insurance"`
	DeclaredValue     float64   `json:"declared_value" validate:"gte=0"`
	RequiresSignature bool      `json:"requires_signature"`
}

// Service registers shipments priced through the shared engine.
type Service struct {
	Store    Persister
	Pricer   Quoter
	Currency string
	Now      func() time.Time
}

// Create prices the shipment and persists it together with the breakdown
// snapshot. A pricing failure aborts the creation; nothing partial is stored.
func (s *Service) Create(ctx context.Context, in CreateInput) (Shipment, error) {
	if s == nil || s.Store == nil || s.Pricer == nil {
		return Shipment{}, errors.New("shipment service not configured")
	}
	result, err := s.Pricer.Quote(ctx, pricing.Input{
		ServiceType:       in.ServiceType,
		WeightKg:          in.WeightKg,
		VolumeCm3:         in.VolumeCm3,
		DistanceKm:        in.DistanceKm,
		HasInsurance:      in.HasInsurance,
		DeclaredValue:     in.DeclaredValue,
		RequiresSignature: in.RequiresSignature,
	}, false)
	if err != nil {
		return Shipment{}, err
	}
	return s.Store.Create(ctx, Shipment{
		TrackingNumber:    s.trackingNumber(),
		CustomerID:        in.CustomerID,
		ServiceType:       in.ServiceType,
		WeightKg:          in.WeightKg,
		VolumeCm3:         in.VolumeCm3,
		DistanceKm:        in.DistanceKm,
		HasInsurance:      in.HasInsurance,
		DeclaredValue:     in.DeclaredValue,
		RequiresSignature: in.RequiresSignature,
		Status:            StatusCreated,
		Currency:          s.Currency,
		PriceSubtotal:     result.Subtotal,
		PriceTax:          result.TaxAmount,
		PriceTotal:        result.TotalAmount,
		PriceBreakdown:    result.Breakdown,
	})
}

// GetByTracking looks a shipment up by its public tracking number.
func (s *Service) GetByTracking(ctx context.Context, trackingNumber string) (Shipment, error) {
	if s == nil || s.Store == nil {
		return Shipment{}, errors.New("shipment service not configured")
	}
	return s.Store.GetByTracking(ctx, trackingNumber)
}

func (s *Service) trackingNumber() string {
	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	return fmt.Sprintf("TRK-%d-%06d", now.Unix(), rand.IntN(1_000_000))
}
