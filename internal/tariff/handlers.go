package tariff

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arga-dev/backend-envio/internal/common"
)

// Auditor records catalog mutations. Recording never fails the request.
type Auditor interface {
	Record(ctx context.Context, action, resourceType, resourceID string, req *http.Request, status int, metadata any)
}

// Handler exposes back-office tariff management endpoints.
type Handler struct {
	Store Store
	Cache *Cache
	Audit Auditor
}

type tariffPayload struct {
	ServiceType      string   `json:"service_type"`
	MinWeightKg      float64  `json:"min_weight_kg"`
	MaxWeightKg      *float64 `json:"max_weight_kg"`
	BasePrice        float64  `json:"base_price"`
	PricePerKg       float64  `json:"price_per_kg"`
	PricePerVolume   float64  `json:"price_per_volume_cm3"`
	InsuranceRatePct float64  `json:"insurance_rate_percent"`
	HandlingFee      float64  `json:"handling_fee"`
	DeliveryFee      float64  `json:"delivery_fee"`
	IsActive         *bool    `json:"is_active"`
}

func (p tariffPayload) toInput() CreateInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return CreateInput{
		ServiceType:      p.ServiceType,
		MinWeightKg:      p.MinWeightKg,
		MaxWeightKg:      p.MaxWeightKg,
		BasePrice:        p.BasePrice,
		PricePerKg:       p.PricePerKg,
		PricePerVolume:   p.PricePerVolume,
		InsuranceRatePct: p.InsuranceRatePct,
		HandlingFee:      p.HandlingFee,
		DeliveryFee:      p.DeliveryFee,
		IsActive:         active,
	}
}

// List returns tariffs with limit/offset paging.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)
	tariffs, err := h.Store.List(r.Context(), limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list tariffs", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": tariffs})
}

// Create inserts a new tariff.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload tariffPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	created, err := h.Store.Create(r.Context(), payload.toInput())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			common.JSONError(w, http.StatusConflict, common.CodeConflict, "tariff already exists", nil)
			return
		}
		common.RespondError(w, err, http.StatusBadRequest, common.CodeBadRequest)
		return
	}
	_ = h.Cache.InvalidateService(r.Context(), created.ServiceType)
	if h.Audit != nil {
		h.Audit.Record(r.Context(), "tariff.create", "tariff", created.ID.String(), r, http.StatusCreated, payload)
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Update replaces an existing tariff identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid tariff id", nil)
		return
	}
	var payload tariffPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	updated, err := h.Store.Update(r.Context(), id, payload.toInput())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "tariff not found", nil)
			return
		}
		common.RespondError(w, err, http.StatusBadRequest, common.CodeBadRequest)
		return
	}
	_ = h.Cache.InvalidateService(r.Context(), updated.ServiceType)
	if h.Audit != nil {
		h.Audit.Record(r.Context(), "tariff.update", "tariff", updated.ID.String(), r, http.StatusOK, payload)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": updated})
}

func queryInt32(r *http.Request, name string, fallback int32) int32 {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
