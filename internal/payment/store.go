package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arga-dev/backend-envio/internal/shipment"
)

// Payment is a persisted payment record for a shipment.
type Payment struct {
	ID         uuid.UUID `json:"id"`
	ShipmentID uuid.UUID `json:"shipment_id"`
	Reference  string    `json:"reference"`
	Amount     float64   `json:"amount"`
	Method     string    `json:"method"`
	UserID     uuid.UUID `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// DB captures the pgx methods the store relies on. *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists payment rows.
type Store struct {
	DB DB
}

const paymentColumns = `id, shipment_id, reference, amount, method, user_id, created_at`

// RecordPaid writes the payment row and flips the shipment to PAID in a
// single transaction. Either both land or neither does, so a retried request
// never finds a stray payment next to an unpaid shipment.
func (s Store) RecordPaid(ctx context.Context, p Payment) (Payment, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Payment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO payments (shipment_id, reference, amount, method, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+paymentColumns,
		p.ShipmentID, p.Reference, p.Amount, p.Method, p.UserID)
	stored, err := scanPayment(row)
	if err != nil {
		return Payment{}, err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE shipments SET status = $2, updated_at = now()
		WHERE id = $1`, p.ShipmentID, string(shipment.StatusPaid))
	if err != nil {
		return Payment{}, err
	}
	if tag.RowsAffected() == 0 {
		return Payment{}, pgx.ErrNoRows
	}

	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	return stored, nil
}

// GetByShipment returns the payment recorded for a shipment, if any.
func (s Store) GetByShipment(ctx context.Context, shipmentID uuid.UUID) (Payment, error) {
	row := s.DB.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments WHERE shipment_id = $1
		ORDER BY created_at DESC LIMIT 1`, shipmentID)
	return scanPayment(row)
}

func scanPayment(row pgx.Row) (Payment, error) {
	var p Payment
	err := row.Scan(&p.ID, &p.ShipmentID, &p.Reference, &p.Amount, &p.Method, &p.UserID, &p.CreatedAt)
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}
