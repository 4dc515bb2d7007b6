package shipment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/arga-dev/backend-envio/internal/common"
	"github.com/arga-dev/backend-envio/internal/tariff"
)

// Handler exposes shipment intake endpoints.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Create registers and prices a new shipment.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shipment service not configured", nil)
		return
	}
	var in CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid shipment input", nil)
			return
		}
	}
	created, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, tariff.ErrNoTariffAvailable) {
			common.JSONError(w, http.StatusUnprocessableEntity, common.CodeNoRateAvailable,
				"no rate available for this service/weight", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to create shipment", nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": created})
}

// Get returns a shipment by tracking number.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "shipment service not configured", nil)
		return
	}
	trackingNumber := strings.TrimSpace(chi.URLParam(r, "trackingNumber"))
	if trackingNumber == "" {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "tracking number is required", nil)
		return
	}
	sh, err := h.Svc.GetByTracking(r.Context(), trackingNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "shipment not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load shipment", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": sh})
}
