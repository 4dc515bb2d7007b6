package invoice

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arga-dev/backend-envio/internal/shipment"
)

// Invoice aggregates paid shipments for a customer over a billing period.
type Invoice struct {
	ID          uuid.UUID  `json:"id"`
	Number      string     `json:"number"`
	CustomerID  uuid.UUID  `json:"customer_id"`
	PeriodStart time.Time  `json:"period_start"`
	PeriodEnd   time.Time  `json:"period_end"`
	Subtotal    float64    `json:"subtotal"`
	TaxAmount   float64    `json:"tax_amount"`
	Total       float64    `json:"total"`
	CreatedBy   uuid.UUID  `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	Lines       []LineItem `json:"lines,omitempty"`
}

// LineItem is one shipment entry on an invoice.
type LineItem struct {
	ID          int64     `json:"id"`
	InvoiceID   uuid.UUID `json:"invoice_id"`
	ShipmentID  uuid.UUID `json:"shipment_id"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
}

// DB captures the pgx methods the store relies on. *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store persists invoices and their line items.
type Store struct {
	DB DB
}

const invoiceColumns = `id, number, customer_id, period_start, period_end,
	subtotal, tax_amount, total, created_by, created_at`

// Insert writes the invoice header, its line items, and the BILLED status of
// the covered shipments in one transaction. A generation job that fails
// midway leaves no trace, so the retry bills the same shipments onto one
// invoice instead of two.
func (s Store) Insert(ctx context.Context, inv Invoice) (Invoice, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return Invoice{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO invoices (number, customer_id, period_start, period_end, subtotal, tax_amount, total, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+invoiceColumns,
		inv.Number, inv.CustomerID, inv.PeriodStart, inv.PeriodEnd,
		inv.Subtotal, inv.TaxAmount, inv.Total, inv.CreatedBy)
	stored, err := scanInvoice(row)
	if err != nil {
		return Invoice{}, err
	}

	shipmentIDs := make([]uuid.UUID, 0, len(inv.Lines))
	for _, line := range inv.Lines {
		lineRow := tx.QueryRow(ctx, `
			INSERT INTO invoice_lines (invoice_id, shipment_id, description, amount)
			VALUES ($1, $2, $3, $4)
			RETURNING id, invoice_id, shipment_id, description, amount`,
			stored.ID, line.ShipmentID, line.Description, line.Amount)
		var storedLine LineItem
		if err := lineRow.Scan(&storedLine.ID, &storedLine.InvoiceID, &storedLine.ShipmentID,
			&storedLine.Description, &storedLine.Amount); err != nil {
			return Invoice{}, err
		}
		stored.Lines = append(stored.Lines, storedLine)
		shipmentIDs = append(shipmentIDs, storedLine.ShipmentID)
	}

	if len(shipmentIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE shipments SET status = $2, invoice_id = $3, updated_at = now()
			WHERE id = ANY($1)`,
			shipmentIDs, string(shipment.StatusBilled), stored.ID); err != nil {
			return Invoice{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	return stored, nil
}

// Get returns an invoice with its line items.
func (s Store) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		return Invoice{}, err
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, invoice_id, shipment_id, description, amount
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line LineItem
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.ShipmentID, &line.Description, &line.Amount); err != nil {
			return Invoice{}, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, rows.Err()
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.PeriodStart, &inv.PeriodEnd,
		&inv.Subtotal, &inv.TaxAmount, &inv.Total, &inv.CreatedBy, &inv.CreatedAt)
	if err != nil {
		return Invoice{}, err
	}
	return inv, nil
}
