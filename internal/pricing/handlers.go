package pricing

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"

	"github.com/arga-dev/backend-envio/internal/common"
	"github.com/arga-dev/backend-envio/internal/tariff"
)

// Handler exposes the quote endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type quoteRequest struct {
	Input
	SkipRules bool `json:"skip_rules"`
}

type quoteResponse struct {
	Result
	Currency string `json:"currency"`
}

// Quote prices a prospective shipment without persisting anything.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "pricing service not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req.Input); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid quote input", validationDetails(err))
			return
		}
	}
	result, err := h.Svc.Quote(r.Context(), req.Input, req.SkipRules)
	if err != nil {
		if errors.Is(err, tariff.ErrNoTariffAvailable) {
			common.JSONError(w, http.StatusUnprocessableEntity, common.CodeNoRateAvailable,
				"no rate available for this service/weight", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to calculate price", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": quoteResponse{Result: result, Currency: h.Svc.Currency}})
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	return fields
}
