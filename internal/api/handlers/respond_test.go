package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

func TestRespondWithAppError_StatusMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", apperrors.NewNotFoundError("appointment", "appt-1"), http.StatusNotFound},
		{"validation", apperrors.NewValidationError("bad payload"), http.StatusBadRequest},
		{"scheduling conflict", apperrors.NewSchedulingConflictError("overlap"), http.StatusConflict},
		{"insufficient stock", apperrors.NewInsufficientStockError("Amoxicillin", 2), http.StatusConflict},
		{"busy", apperrors.NewBusyError("drug ledger"), http.StatusServiceUnavailable},
		{"plain error", fmt.Errorf("boom"), http.StatusInternalServerError},

		// AppErrors arriving wrapped still map by their type
		{
			"wrapped conflict",
			fmt.Errorf("requesting slot: %w", apperrors.NewSchedulingConflictError("overlap")),
			http.StatusConflict,
		},
		{
			"wrapped not found",
			fmt.Errorf("loading appointment: %w", apperrors.NewNotFoundError("appointment", "appt-1")),
			http.StatusNotFound,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/appointments/appt-1", nil)

			respondWithAppError(rec, req, tc.err)

			assert.Equal(t, tc.want, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}
