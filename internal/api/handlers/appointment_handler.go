package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/caninosoft/vetcore/backend/internal/api/loaders"
	"github.com/caninosoft/vetcore/backend/internal/application/services"
	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	"github.com/caninosoft/vetcore/backend/internal/infrastructure/observability"
)

// AppointmentHandler handles the appointment lifecycle endpoints
type AppointmentHandler struct {
	scheduling *services.SchedulingService
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(scheduling *services.SchedulingService) *AppointmentHandler {
	return &AppointmentHandler{scheduling: scheduling}
}

// RequestAppointment handles POST /api/appointments
func (h *AppointmentHandler) RequestAppointment(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.scheduling.RequestAppointment(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, appointment)
}

// BackfillAppointment handles POST /api/appointments/backfill
func (h *AppointmentHandler) BackfillAppointment(w http.ResponseWriter, r *http.Request) {
	var req services.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	appointment, err := h.scheduling.BackfillAppointment(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, appointment)
}

// GetAppointment handles GET /api/appointments/{id}
func (h *AppointmentHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.scheduling.GetAppointment(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// ListAppointments handles GET /api/appointments
func (h *AppointmentHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := repositories.AppointmentFilter{
		VeterinarianID: query.Get("vet"),
		PatientID:      query.Get("patient"),
		BranchID:       query.Get("branch"),
		Status:         entities.AppointmentStatus(query.Get("status")),
		Limit:          50,
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respondWithError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 && limit <= 200 {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil && offset >= 0 {
			filter.Offset = offset
		}
	}
	if fromStr := query.Get("from"); fromStr != "" {
		from, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid from date format (use RFC3339)")
			return
		}
		filter.From = &from
	}
	if toStr := query.Get("to"); toStr != "" {
		to, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid to date format (use RFC3339)")
			return
		}
		filter.To = &to
	}

	appointments, err := h.scheduling.ListAppointments(r.Context(), filter)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}

	if query.Get("expand") == "details" {
		if expanded, ok := h.expandAppointments(r.Context(), appointments); ok {
			respondWithJSON(w, http.StatusOK, map[string]interface{}{
				"appointments": expanded,
				"count":        len(expanded),
			})
			return
		}
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"appointments": appointments,
		"count":        len(appointments),
	})
}

// expandAppointments resolves the veterinarian and patient for each
// appointment through the request-scoped dataloaders. All Load calls are
// issued before the first thunk is resolved so lookups batch into a single
// query per entity kind
func (h *AppointmentHandler) expandAppointments(ctx context.Context, appointments []*entities.Appointment) ([]map[string]interface{}, bool) {
	l := loaders.For(ctx)
	if l == nil {
		return nil, false
	}

	vetThunks := make([]func() (*entities.Veterinarian, error), len(appointments))
	patientThunks := make([]func() (*entities.Patient, error), len(appointments))
	for i, appointment := range appointments {
		vetThunks[i] = l.VeterinarianLoader.Load(ctx, appointment.VeterinarianID)
		patientThunks[i] = l.PatientLoader.Load(ctx, appointment.PatientID)
	}

	expanded := make([]map[string]interface{}, len(appointments))
	for i, appointment := range appointments {
		item := map[string]interface{}{
			"appointment": appointment,
		}
		if vet, err := vetThunks[i](); err == nil {
			item["veterinarian"] = vet
		}
		if patient, err := patientThunks[i](); err == nil {
			item["patient"] = patient
		}
		expanded[i] = item
	}
	return expanded, true
}

// ConfirmAppointment handles POST /api/appointments/{id}/confirm
func (h *AppointmentHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.scheduling.ConfirmAppointment(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// CompleteAppointment handles POST /api/appointments/{id}/complete
func (h *AppointmentHandler) CompleteAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var req services.CompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.scheduling.CompleteAppointment(r.Context(), id, &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	observability.RecordAppointmentCompleted(r.Context(), string(result.Appointment.Type))
	respondWithJSON(w, http.StatusOK, result)
}

// CancelAppointment handles POST /api/appointments/{id}/cancel
func (h *AppointmentHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid request payload")
			return
		}
	}

	appointment, err := h.scheduling.CancelAppointment(r.Context(), id, req.Reason)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// MarkNoShow handles POST /api/appointments/{id}/no-show
func (h *AppointmentHandler) MarkNoShow(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	appointment, err := h.scheduling.MarkNoShow(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, appointment)
}

// GetRecord handles GET /api/appointments/{id}/record
func (h *AppointmentHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "appointment ID is required")
		return
	}

	record, err := h.scheduling.GetRecord(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, record)
}

// GetCalendar handles GET /api/veterinarians/{id}/calendar
func (h *AppointmentHandler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	vetID := r.PathValue("id")
	if vetID == "" {
		respondWithError(w, http.StatusBadRequest, "veterinarian ID is required")
		return
	}

	query := r.URL.Query()
	from, err := time.Parse(time.RFC3339, query.Get("from"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid from date format (use RFC3339)")
		return
	}
	to, err := time.Parse(time.RFC3339, query.Get("to"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid to date format (use RFC3339)")
		return
	}

	intervals, err := h.scheduling.QueryCalendar(r.Context(), vetID, from, to)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"veterinarian_id": vetID,
		"intervals":       intervals,
	})
}

// GetOpenSlots handles GET /api/veterinarians/{id}/open-slots
func (h *AppointmentHandler) GetOpenSlots(w http.ResponseWriter, r *http.Request) {
	vetID := r.PathValue("id")
	if vetID == "" {
		respondWithError(w, http.StatusBadRequest, "veterinarian ID is required")
		return
	}

	query := r.URL.Query()
	day, err := time.Parse("2006-01-02", query.Get("date"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid date format (use YYYY-MM-DD)")
		return
	}

	duration := 0
	if durationStr := query.Get("duration"); durationStr != "" {
		duration, err = strconv.Atoi(durationStr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "invalid duration parameter")
			return
		}
	}

	slots, err := h.scheduling.OpenSlots(r.Context(), vetID, day, duration)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"veterinarian_id": vetID,
		"slots":           slots,
	})
}
