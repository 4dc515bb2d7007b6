package audit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/arga-dev/backend-envio/internal/common"
)

// Handler lists the audit trail for administrators.
type Handler struct {
	Store Store
}

// List returns recent audit entries, newest first.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Store.DB == nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "audit store not configured", nil)
		return
	}
	q := r.URL.Query()
	entries, err := h.Store.List(r.Context(),
		strings.TrimSpace(q.Get("resource_type")),
		queryInt32(q.Get("limit"), 50),
		queryInt32(q.Get("offset"), 0))
	if err != nil {
		common.JSONError(w, http.StatusInternalServerError, common.CodeInternal, "failed to list audit entries", nil)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": entries})
}

func queryInt32(raw string, fallback int32) int32 {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
