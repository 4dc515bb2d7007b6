package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

// Entry is one recorded catalog mutation. Tariff and rule changes move real
// money, so every admin write leaves a trail.
type Entry struct {
	ID           int64           `json:"id"`
	ActorID      *uuid.UUID      `json:"actor_id,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resource_type"`
	ResourceID   string          `json:"resource_id,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int             `json:"status"`
	IP           string          `json:"ip,omitempty"`
	RequestID    string          `json:"request_id,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// DB captures the pgx methods the store relies on. *pgxpool.Pool satisfies it.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store persists and lists audit entries.
type Store struct {
	DB DB
}

// Insert writes one audit entry.
func (s Store) Insert(ctx context.Context, e Entry) error {
	_, err := s.DB.Exec(ctx, `
		INSERT INTO audit_logs (actor_id, action, resource_type, resource_id, method, path, status, ip, request_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ActorID, e.Action, e.ResourceType, nullable(e.ResourceID), e.Method, e.Path,
		e.Status, nullable(e.IP), nullable(e.RequestID), e.Metadata)
	return err
}

// List returns the most recent entries, optionally filtered by resource type.
func (s Store) List(ctx context.Context, resourceType string, limit, offset int32) ([]Entry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := s.DB.Query(ctx, `
		SELECT id, actor_id, action, resource_type, COALESCE(resource_id, ''), method, path,
			status, COALESCE(ip, ''), COALESCE(request_id, ''), metadata, created_at
		FROM audit_logs
		WHERE $1 = '' OR resource_type = $1
		ORDER BY id DESC
		LIMIT $2 OFFSET $3`, strings.TrimSpace(resourceType), limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.ResourceType, &e.ResourceID,
			&e.Method, &e.Path, &e.Status, &e.IP, &e.RequestID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// Recorder is what write handlers depend on; it never fails their request.
type Recorder interface {
	Record(ctx context.Context, action, resourceType, resourceID string, req *http.Request, status int, metadata any)
}

// Service records catalog mutations. Recording is best-effort: a failed
// insert is logged and swallowed so the admin write itself still succeeds.
type Service struct {
	Store  Store
	Logger zerolog.Logger
}

// Record persists one audit entry derived from the request.
func (s *Service) Record(ctx context.Context, action, resourceType, resourceID string, req *http.Request, status int, metadata any) {
	if s == nil || s.Store.DB == nil {
		return
	}
	e := Entry{
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Status:       status,
	}
	if req != nil {
		e.Method = req.Method
		e.Path = req.URL.Path
		e.IP = req.RemoteAddr
		e.RequestID = req.Header.Get("X-Request-ID")
	}
	if metadata != nil {
		if data, err := json.Marshal(metadata); err == nil {
			e.Metadata = data
		}
	}
	if err := s.Store.Insert(ctx, e); err != nil {
		s.Logger.Error().Err(err).
			Str("action", action).
			Str("resource_type", resourceType).
			Msg("audit entry not recorded")
	}
}
