package invoice

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5"

	"github.com/arga-dev/backend-envio/internal/common"
)

// Handler exposes invoice endpoints. Generation is enqueued and processed by
// the worker; reads are served directly.
type Handler struct {
	Store    Store
	Tasks    *asynq.Client
	Queue    string
	Validate *validator.Validate
}

// Generate enqueues an invoice generation task for the given customer/period.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	if h.Tasks == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "invoice task client not configured", nil)
		return
	}
	var in GenerateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(in); err != nil {
			common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid invoice input", nil)
			return
		}
	}
	task, err := NewGenerateTask(in)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to build task", nil)
		return
	}
	opts := []asynq.Option{}
	if strings.TrimSpace(h.Queue) != "" {
		opts = append(opts, asynq.Queue(h.Queue))
	}
	info, err := h.Tasks.EnqueueContext(r.Context(), task, opts...)
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INVOICE_PERSISTENCE", "failed to enqueue invoice generation", nil)
		return
	}
	common.JSON(w, http.StatusAccepted, map[string]any{"data": map[string]string{"task_id": info.ID}})
}

// Get returns a stored invoice with its line items.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, "id")))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, common.CodeBadRequest, "invalid invoice id", nil)
		return
	}
	inv, err := h.Store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			common.JSONError(w, http.StatusNotFound, common.CodeNotFound, "invoice not found", nil)
			return
		}
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to load invoice", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": inv})
}
