package rule

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arga-dev/backend-envio/internal/common"
)

// Auditor records catalog mutations. Recording never fails the request.
type Auditor interface {
	Record(ctx context.Context, action, resourceType, resourceID string, req *http.Request, status int, metadata any)
}

// Handler exposes back-office pricing rule management endpoints.
type Handler struct {
	Store Store
	Cache CachedSource
	Audit Auditor
}

type rulePayload struct {
	Name           string     `json:"name"`
	IsActive       *bool      `json:"is_active"`
	EffectiveDate  time.Time  `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date"`
	Priority       int32      `json:"priority"`
	ConditionField string     `json:"condition_field"`
	Operator       string     `json:"operator"`
	ValueFrom      float64    `json:"value_from"`
	ValueTo        *float64   `json:"value_to"`
	ActionType     string     `json:"action_type"`
	ActionValue    float64    `json:"action_value"`
}

type ruleView struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	IsActive       bool       `json:"is_active"`
	EffectiveDate  time.Time  `json:"effective_date"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	Priority       int32      `json:"priority"`
	ConditionField string     `json:"condition_field"`
	Operator       string     `json:"operator"`
	ValueFrom      float64    `json:"value_from"`
	ValueTo        *float64   `json:"value_to,omitempty"`
	ActionType     string     `json:"action_type"`
	ActionValue    float64    `json:"action_value"`
	Malformed      bool       `json:"malformed"`
}

func toView(r Rule) ruleView {
	return ruleView{
		ID:             r.ID,
		Name:           r.Name,
		IsActive:       r.IsActive,
		EffectiveDate:  r.EffectiveDate,
		ExpirationDate: r.ExpirationDate,
		Priority:       r.Priority,
		ConditionField: r.Field.String(),
		Operator:       r.Op.String(),
		ValueFrom:      r.ValueFrom,
		ValueTo:        r.ValueTo,
		ActionType:     r.Action.String(),
		ActionValue:    r.ActionValue,
		Malformed:      r.Malformed(),
	}
}

func (p rulePayload) toInput() CreateInput {
	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}
	return CreateInput{
		Name:           p.Name,
		IsActive:       active,
		EffectiveDate:  p.EffectiveDate,
		ExpirationDate: p.ExpirationDate,
		Priority:       p.Priority,
		ConditionField: p.ConditionField,
		Operator:       p.Operator,
		ValueFrom:      p.ValueFrom,
		ValueTo:        p.ValueTo,
		ActionType:     p.ActionType,
		ActionValue:    p.ActionValue,
	}
}

// List returns rules with limit/offset paging. The view flags malformed rows
// so operators can spot inert configuration.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	limit := queryInt32(r, "limit", 50)
	offset := queryInt32(r, "offset", 0)
	rules, err := h.Store.List(r.Context(), limit, offset)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list rules", nil)
		return
	}
	views := make([]ruleView, 0, len(rules))
	for _, rl := range rules {
		views = append(views, toView(rl))
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": views})
}

// Create inserts a new pricing rule.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	created, err := h.Store.Create(r.Context(), payload.toInput())
	if err != nil {
		common.RespondError(w, err, http.StatusBadRequest, common.CodeBadRequest)
		return
	}
	_ = h.Cache.InvalidateActive(r.Context())
	if h.Audit != nil {
		h.Audit.Record(r.Context(), "rule.create", "pricing_rule", created.ID.String(), r, http.StatusCreated, payload)
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": toView(created)})
}

// Update replaces an existing rule identified by id.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid rule id", nil)
		return
	}
	var payload rulePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	updated, err := h.Store.Update(r.Context(), id, payload.toInput())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "rule not found", nil)
			return
		}
		common.RespondError(w, err, http.StatusBadRequest, common.CodeBadRequest)
		return
	}
	_ = h.Cache.InvalidateActive(r.Context())
	if h.Audit != nil {
		h.Audit.Record(r.Context(), "rule.update", "pricing_rule", updated.ID.String(), r, http.StatusOK, payload)
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": toView(updated)})
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
