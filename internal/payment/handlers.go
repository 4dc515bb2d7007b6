package payment

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"

	"github.com/arga-dev/backend-envio/internal/common"
)

// Handler exposes the payment recording endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

// Record persists a payment for a priced shipment.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "payment service not configured", nil)
		return
	}
	var in RecordInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payment input", nil)
			return
		}
	}
	recorded, err := h.Svc.Record(r.Context(), in)
	switch {
	case err == nil:
		common.JSON(w, http.StatusCreated, map[string]any{"data": recorded})
	case errors.Is(err, pgx.ErrNoRows):
		common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "shipment not found", nil)
	case errors.Is(err, ErrAlreadyPaid):
		common.JSONError(w, http.StatusConflict, "ALREADY_PAID", "shipment already paid", nil)
	case errors.Is(err, ErrAmountMismatch):
		common.JSONError(w, http.StatusUnprocessableEntity, "AMOUNT_MISMATCH", err.Error(), nil)
	default:
		// The computed price itself is not in question; only persistence failed.
		common.JSONError(w, http.StatusInternalServerError, "PAYMENT_PERSISTENCE", "failed to record payment", nil)
	}
}
