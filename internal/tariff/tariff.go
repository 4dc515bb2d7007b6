package tariff

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNoTariffAvailable is returned when no active tariff covers the requested
// service type and weight. A calculation cannot proceed without a tariff.
var ErrNoTariffAvailable = errors.New("no tariff available for service type and weight")

// Tariff is a rate card for a service type over a weight interval.
// Tariffs are managed by back-office configuration and are read-only to the
// pricing engine.
type Tariff struct {
	ID               uuid.UUID  `json:"id"`
	ServiceType      string     `json:"service_type"`
	MinWeightKg      float64    `json:"min_weight_kg"`
	MaxWeightKg      *float64   `json:"max_weight_kg,omitempty"`
	BasePrice        float64    `json:"base_price"`
	PricePerKg       float64    `json:"price_per_kg"`
	PricePerVolume   float64    `json:"price_per_volume_cm3"`
	InsuranceRatePct float64    `json:"insurance_rate_percent"`
	HandlingFee      float64    `json:"handling_fee"`
	DeliveryFee      float64    `json:"delivery_fee"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Covers reports whether the tariff weight interval contains the given weight.
// A nil MaxWeightKg means the interval is unbounded above.
func (t Tariff) Covers(weightKg float64) bool {
	if weightKg < t.MinWeightKg {
		return false
	}
	if t.MaxWeightKg != nil && weightKg > *t.MaxWeightKg {
		return false
	}
	return true
}

// Select picks the cheapest active tariff whose interval contains weightKg.
// Candidates keep their input order, so an equal base price resolves to the
// earlier entry. Returns ErrNoTariffAvailable when nothing matches.
func Select(candidates []Tariff, weightKg float64) (Tariff, error) {
	var (
		best  Tariff
		found bool
	)
	for _, t := range candidates {
		if !t.IsActive || !t.Covers(weightKg) {
			continue
		}
		if !found || t.BasePrice < best.BasePrice {
			best = t
			found = true
		}
	}
	if !found {
		return Tariff{}, ErrNoTariffAvailable
	}
	return best, nil
}
