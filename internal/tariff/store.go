package tariff

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arga-dev/backend-envio/internal/common"
)

// DB captures the pgx methods the store relies on. *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists and retrieves tariffs.
type Store struct {
	DB DB
}

const tariffColumns = `id, service_type, min_weight_kg, max_weight_kg, base_price,
	price_per_kg, price_per_volume_cm3, insurance_rate_percent, handling_fee,
	delivery_fee, is_active, created_at, updated_at`

// NormalizeService maps caller-supplied service types onto the catalog's
// upper-case spelling. Every lookup and every cache key must agree on it.
func NormalizeService(serviceType string) string {
	return strings.ToUpper(strings.TrimSpace(serviceType))
}

// ListEligible returns active tariffs whose weight interval contains weightKg,
// cheapest first. Catalog order (creation order) breaks base price ties.
func (s Store) ListEligible(ctx context.Context, serviceType string, weightKg float64) ([]Tariff, error) {
	serviceType = NormalizeService(serviceType)
	rows, err := s.DB.Query(ctx, `
		SELECT `+tariffColumns+`
		FROM tariffs
		WHERE service_type = $1
		  AND is_active
		  AND min_weight_kg <= $2
		  AND (max_weight_kg IS NULL OR max_weight_kg >= $2)
		ORDER BY base_price ASC, created_at ASC`,
		serviceType, weightKg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTariffs(rows)
}

// List returns tariffs for back-office management, newest first.
func (s Store) List(ctx context.Context, limit, offset int32) ([]Tariff, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.DB.Query(ctx, `
		SELECT `+tariffColumns+`
		FROM tariffs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTariffs(rows)
}

// Get returns a single tariff by id.
func (s Store) Get(ctx context.Context, id uuid.UUID) (Tariff, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT `+tariffColumns+`
		FROM tariffs WHERE id = $1`, id)
	return scanTariff(row)
}

// CreateInput carries the fields accepted when creating or replacing a tariff.
type CreateInput struct {
	ServiceType      string
	MinWeightKg      float64
	MaxWeightKg      *float64
	BasePrice        float64
	PricePerKg       float64
	PricePerVolume   float64
	InsuranceRatePct float64
	HandlingFee      float64
	DeliveryFee      float64
	IsActive         bool
}

// Validate checks structural constraints before the row reaches the catalog.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.ServiceType) == "" {
		return common.ValidationError("service_type is required")
	}
	if in.MinWeightKg < 0 {
		return common.ValidationError("min_weight_kg must not be negative")
	}
	if in.MaxWeightKg != nil && *in.MaxWeightKg < in.MinWeightKg {
		return common.ValidationError("max_weight_kg must not be below min_weight_kg")
	}
	if in.BasePrice < 0 {
		return common.ValidationError("base_price must not be negative")
	}
	return nil
}

// Create inserts a tariff row.
func (s Store) Create(ctx context.Context, in CreateInput) (Tariff, error) {
	if err := in.Validate(); err != nil {
		return Tariff{}, err
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO tariffs (
			service_type, min_weight_kg, max_weight_kg, base_price, price_per_kg,
			price_per_volume_cm3, insurance_rate_percent, handling_fee, delivery_fee, is_active
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+tariffColumns,
		NormalizeService(in.ServiceType), in.MinWeightKg, in.MaxWeightKg,
		in.BasePrice, in.PricePerKg, in.PricePerVolume, in.InsuranceRatePct,
		in.HandlingFee, in.DeliveryFee, in.IsActive)
	return scanTariff(row)
}

// Update replaces the mutable fields of an existing tariff.
func (s Store) Update(ctx context.Context, id uuid.UUID, in CreateInput) (Tariff, error) {
	if err := in.Validate(); err != nil {
		return Tariff{}, err
	}
	row := s.DB.QueryRow(ctx, `
		UPDATE tariffs SET
			service_type = $2, min_weight_kg = $3, max_weight_kg = $4, base_price = $5,
			price_per_kg = $6, price_per_volume_cm3 = $7, insurance_rate_percent = $8,
			handling_fee = $9, delivery_fee = $10, is_active = $11, updated_at = now()
		WHERE id = $1
		RETURNING `+tariffColumns,
		id, NormalizeService(in.ServiceType), in.MinWeightKg, in.MaxWeightKg,
		in.BasePrice, in.PricePerKg, in.PricePerVolume, in.InsuranceRatePct,
		in.HandlingFee, in.DeliveryFee, in.IsActive)
	return scanTariff(row)
}

func scanTariffs(rows pgx.Rows) ([]Tariff, error) {
	var out []Tariff
	for rows.Next() {
		t, err := scanTariff(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTariff(row pgx.Row) (Tariff, error) {
	var (
		t         Tariff
		maxWeight *float64
		createdAt time.Time
		updatedAt time.Time
	)
	err := row.Scan(&t.ID, &t.ServiceType, &t.MinWeightKg, &maxWeight, &t.BasePrice,
		&t.PricePerKg, &t.PricePerVolume, &t.InsuranceRatePct, &t.HandlingFee,
		&t.DeliveryFee, &t.IsActive, &createdAt, &updatedAt)
	if err != nil {
		return Tariff{}, err
	}
	t.MaxWeightKg = maxWeight
	t.CreatedAt = createdAt
	t.UpdatedAt = updatedAt
	return t, nil
}
