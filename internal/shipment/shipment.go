package shipment

import (
	"time"

	"github.com/google/uuid"

	"github.com/arga-dev/backend-envio/internal/pricing"
)

// Status tracks the lifecycle states the pricing platform cares about.
// Routing and delivery states live in the operations system.
type Status string

const (
	StatusCreated Status = "CREATED"
	StatusPaid    Status = "PAID"
	StatusBilled  Status = "BILLED"
)

// Shipment is a priced shipment record. The price snapshot is persisted as an
// audit artifact: it is the exact engine output at creation time.
type Shipment struct {
	ID                uuid.UUID      `json:"id"`
	TrackingNumber    string         `json:"tracking_number"`
	CustomerID        uuid.UUID      `json:"customer_id"`
	ServiceType       string         `json:"service_type"`
	WeightKg          float64        `json:"weight_kg"`
	VolumeCm3         float64        `json:"volume_cm3"`
	DistanceKm        float64        `json:"distance_km"`
	HasInsurance      bool           `json:"has_insurance"`
	DeclaredValue     float64        `json:"declared_value"`
	RequiresSignature bool           `json:"requires_signature"`
	Status            Status         `json:"status"`
	Currency          string         `json:"currency"`
	PriceSubtotal     float64        `json:"price_subtotal"`
	PriceTax          float64        `json:"price_tax"`
	PriceTotal        float64        `json:"price_total"`
	PriceBreakdown    []pricing.Line `json:"price_breakdown"`
	InvoiceID         *uuid.UUID     `json:"invoice_id,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}
