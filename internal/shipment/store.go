package shipment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arga-dev/backend-envio/internal/pricing"
)

// DB captures the pgx methods the store relies on. *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists shipment records.
type Store struct {
	DB DB
}

const shipmentColumns = `id, tracking_number, customer_id, service_type, weight_kg,
	volume_cm3, distance_km, has_insurance, declared_value, requires_signature,
	status, currency, price_subtotal, price_tax, price_total, price_breakdown,
	invoice_id, created_at, updated_at`

// Create inserts a shipment with its price snapshot.
func (s Store) Create(ctx context.Context, sh Shipment) (Shipment, error) {
	breakdown, err := json.Marshal(sh.PriceBreakdown)
	if err != nil {
		return Shipment{}, err
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO shipments (
			tracking_number, customer_id, service_type, weight_kg, volume_cm3,
			distance_km, has_insurance, declared_value, requires_signature,
			status, currency, price_subtotal, price_tax, price_total, price_breakdown
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING `+shipmentColumns,
		sh.TrackingNumber, sh.CustomerID, sh.ServiceType, sh.WeightKg, sh.VolumeCm3,
		sh.DistanceKm, sh.HasInsurance, sh.DeclaredValue, sh.RequiresSignature,
		string(sh.Status), sh.Currency, sh.PriceSubtotal, sh.PriceTax, sh.PriceTotal, breakdown)
	return scanShipment(row)
}

// Get returns a shipment by id.
func (s Store) Get(ctx context.Context, id uuid.UUID) (Shipment, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id)
	return scanShipment(row)
}

// GetByTracking returns a shipment by tracking number.
func (s Store) GetByTracking(ctx context.Context, trackingNumber string) (Shipment, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE tracking_number = $1`, trackingNumber)
	return scanShipment(row)
}

// ListUnbilledPaid returns paid, not yet invoiced shipments for a customer
// created inside the period, oldest first.
func (s Store) ListUnbilledPaid(ctx context.Context, customerID uuid.UUID, periodStart, periodEnd time.Time) ([]Shipment, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+shipmentColumns+`
		FROM shipments
		WHERE customer_id = $1
		  AND status = $2
		  AND invoice_id IS NULL
		  AND created_at >= $3
		  AND created_at <= $4
		ORDER BY created_at ASC`,
		customerID, string(StatusPaid), periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	return out, rows.Err()
}

func scanShipment(row pgx.Row) (Shipment, error) {
	var (
		sh        Shipment
		status    string
		breakdown []byte
		invoiceID *uuid.UUID
	)
	err := row.Scan(&sh.ID, &sh.TrackingNumber, &sh.CustomerID, &sh.ServiceType,
		&sh.WeightKg, &sh.VolumeCm3, &sh.DistanceKm, &sh.HasInsurance,
		&sh.DeclaredValue, &sh.RequiresSignature, &status, &sh.Currency,
		&sh.PriceSubtotal, &sh.PriceTax, &sh.PriceTotal, &breakdown,
		&invoiceID, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return Shipment{}, err
	}
	sh.Status = Status(status)
	sh.InvoiceID = invoiceID
	if len(breakdown) > 0 {
		var lines []pricing.Line
		if err := json.Unmarshal(breakdown, &lines); err == nil {
			sh.PriceBreakdown = lines
		}
	}
	return sh, nil
}
