package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRespondErrorUsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	err := NewAppError("VALIDATION", "service_type is required", http.StatusBadRequest, nil)

	RespondError(rec, err, http.StatusInternalServerError, "INTERNAL")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
	assert.Contains(t, rec.Body.String(), "service_type is required")
}

func TestRespondErrorUnwrapsWrappedAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	wrapped := fmt.Errorf("create tariff: %w", NewAppError("VALIDATION", "base_price must not be negative", http.StatusBadRequest, nil))

	RespondError(rec, wrapped, http.StatusInternalServerError, "INTERNAL")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION")
}

func TestRespondErrorFallback(t *testing.T) {
	rec := httptest.NewRecorder()

	RespondError(rec, errors.New("boom"), http.StatusBadRequest, "BAD_REQUEST")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
	assert.Contains(t, rec.Body.String(), "boom")
}

func TestAppErrorUnwrap(t *testing.T) {
	inner := errors.New("constraint violated")
	err := NewAppError("CONFLICT", "tariff already exists", http.StatusConflict, inner)

	assert.True(t, IsAppError(err))
	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "constraint violated", err.Error())
}
