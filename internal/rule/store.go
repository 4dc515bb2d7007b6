package rule

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

// Store persists and retrieves pricing rules. Enum columns are decoded once
// at scan time, so evaluation never re-parses strings.
type Store struct {
	DB DB
}

const ruleColumns = `id, name, is_active, effective_date, expiration_date, priority,
	condition_field, operator, value_from, value_to, action_type, action_value`

// ListActive returns active rules in effect at asOf, highest priority first.
// The id tie-break mirrors insertion order so equal priorities evaluate in
// catalog order.
func (s Store) ListActive(ctx context.Context, asOf time.Time) ([]Rule, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM pricing_rules
		WHERE is_active
		  AND effective_date <= $1
		  AND (expiration_date IS NULL OR expiration_date >= $1)
		ORDER BY priority DESC, created_at ASC, id ASC`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

// List returns all rules for back-office management.
func (s Store) List(ctx context.Context, limit, offset int32) ([]Rule, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.DB.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM pricing_rules
		ORDER BY priority DESC, created_at ASC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRules(rows)
}

// CreateInput carries the fields accepted when creating or replacing a rule.
// Enum fields arrive as their storage strings; decoding happens on read.
type CreateInput struct {
	Name           string
	IsActive       bool
	EffectiveDate  time.Time
	ExpirationDate *time.Time
	Priority       int32
	ConditionField string
	Operator       string
	ValueFrom      float64
	ValueTo        *float64
	ActionType     string
	ActionValue    float64
}

// Validate rejects structurally broken rows. Unrecognised enum values are
// accepted on purpose: the catalog is fail-open and such rules stay inert at
// evaluation time.
func (in CreateInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return common.ValidationError("name is required")
	}
	if in.EffectiveDate.IsZero() {
		return common.ValidationError("effective_date is required")
	}
	if in.ExpirationDate != nil && in.ExpirationDate.Before(in.EffectiveDate) {
		return common.ValidationError("expiration_date must not precede effective_date")
	}
	return nil
}

// Create inserts a rule row.
func (s Store) Create(ctx context.Context, in CreateInput) (Rule, error) {
	if err := in.Validate(); err != nil {
		return Rule{}, err
	}
	row := s.DB.QueryRow(ctx, `
		INSERT INTO pricing_rules (
			name, is_active, effective_date, expiration_date, priority,
			condition_field, operator, value_from, value_to, action_type, action_value
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+ruleColumns,
		strings.TrimSpace(in.Name), in.IsActive, in.EffectiveDate, in.ExpirationDate,
		in.Priority, in.ConditionField, in.Operator, in.ValueFrom, in.ValueTo,
		in.ActionType, in.ActionValue)
	return scanRule(row)
}

// Update replaces an existing rule.
func (s Store) Update(ctx context.Context, id uuid.UUID, in CreateInput) (Rule, error) {
	if err := in.Validate(); err != nil {
		return Rule{}, err
	}
	row := s.DB.QueryRow(ctx, `
		UPDATE pricing_rules SET
			name = $2, is_active = $3, effective_date = $4, expiration_date = $5,
			priority = $6, condition_field = $7, operator = $8, value_from = $9,
			value_to = $10, action_type = $11, action_value = $12, updated_at = now()
		WHERE id = $1
		RETURNING `+ruleColumns,
		id, strings.TrimSpace(in.Name), in.IsActive, in.EffectiveDate, in.ExpirationDate,
		in.Priority, in.ConditionField, in.Operator, in.ValueFrom, in.ValueTo,
		in.ActionType, in.ActionValue)
	return scanRule(row)
}

func scanRules(rows pgx.Rows) ([]Rule, error) {
	var out []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRule(row pgx.Row) (Rule, error) {
	var (
		r         Rule
		expiresAt *time.Time
		field     string
		operator  string
		valueFrom *float64
		valueTo   *float64
		action    string
	)
	err := row.Scan(&r.ID, &r.Name, &r.IsActive, &r.EffectiveDate, &expiresAt,
		&r.Priority, &field, &operator, &valueFrom, &valueTo, &action, &r.ActionValue)
	if err != nil {
		return Rule{}, err
	}
	r.ExpirationDate = expiresAt
	r.Field = ParseConditionField(field)
	r.Op = ParseOperator(operator)
	r.Action = ParseActionType(action)
	if valueFrom != nil {
		r.ValueFrom = *valueFrom
	}
	r.ValueTo = valueTo
	return r, nil
}
