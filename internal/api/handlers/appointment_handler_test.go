package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninosoft/vetcore/backend/internal/adapters/memory"
	"github.com/caninosoft/vetcore/backend/internal/api/handlers"
	"github.com/caninosoft/vetcore/backend/internal/application/services"
	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/pkg/config"
)

func newAppointmentHandler(t *testing.T) (*handlers.AppointmentHandler, *services.SchedulingService) {
	t.Helper()

	store := memory.NewStore(200*time.Millisecond, 0)
	store.AddBranch(&entities.Branch{ID: "branch-1", Name: "Centro", IsActive: true})
	store.AddVeterinarian(&entities.Veterinarian{
		ID: "vet-1", BranchID: "branch-1", FullName: "Dr. Reyes",
		Specialty: entities.SpecialtyGeneralMedicine, IsActive: true,
	})
	store.AddOwner(&entities.Owner{ID: "owner-1", FullName: "Marta Diaz"})
	store.AddPatient(&entities.Patient{
		ID: "patient-1", OwnerID: "owner-1", Name: "Rocco",
		Species: entities.SpeciesCanine, IsActive: true,
	})
	store.AddDrug(&entities.Drug{
		ID: "drug-rabies", BranchID: "branch-1", Name: "Rabies vaccine",
		Category: entities.DrugCategoryVaccine, Stock: 5, IsActive: true,
	})

	cfg := config.SchedulingConfig{
		LockWait:               200 * time.Millisecond,
		DefaultDurationMinutes: 30,
		DayStartHour:           9,
		DayEndHour:             19,
	}
	scheduling := services.NewSchedulingService(
		store.Appointments(), store.Calendar(), store.ClinicalRecords(),
		store.Veterinarians(), store.Branches(), store.Patients(),
		nil, nil, cfg,
	).WithClock(func() time.Time {
		return time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	})

	return handlers.NewAppointmentHandler(scheduling), scheduling
}

func bookingBody(t *testing.T, start string) *bytes.Buffer {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"patient_id":       "patient-1",
		"veterinarian_id":  "vet-1",
		"branch_id":        "branch-1",
		"type":             "checkup",
		"starts_at":        start,
		"duration_minutes": 30,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(payload)
}

func TestAppointmentHandler_RequestAppointment(t *testing.T) {
	handler, _ := newAppointmentHandler(t)

	t.Run("creates an appointment", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/appointments", bookingBody(t, "2025-06-01T10:00:00Z"))
		w := httptest.NewRecorder()

		handler.RequestAppointment(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)

		var appointment entities.Appointment
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &appointment))
		assert.Equal(t, entities.AppointmentStatusRequested, appointment.Status)
		assert.NotEmpty(t, appointment.ID)
	})

	t.Run("overlap maps to 409", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/appointments", bookingBody(t, "2025-06-01T10:15:00Z"))
		w := httptest.NewRecorder()

		handler.RequestAppointment(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "error")
	})

	t.Run("past interval maps to 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/appointments", bookingBody(t, "2025-04-01T10:00:00Z"))
		w := httptest.NewRecorder()

		handler.RequestAppointment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed body maps to 400", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/appointments", bytes.NewBufferString("{not json"))
		w := httptest.NewRecorder()

		handler.RequestAppointment(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAppointmentHandler_Lifecycle(t *testing.T) {
	handler, scheduling := newAppointmentHandler(t)
	ctx := context.Background()

	appointment, err := scheduling.RequestAppointment(ctx, &services.BookingRequest{
		PatientID:      "patient-1",
		VeterinarianID: "vet-1",
		BranchID:       "branch-1",
		Type:           entities.AppointmentTypeVaccination,
		StartsAt:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	t.Run("confirm", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/api/appointments/"+appointment.ID+"/confirm", nil)
		req.SetPathValue("id", appointment.ID)
		w := httptest.NewRecorder()

		handler.ConfirmAppointment(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"confirmed"`)
	})

	t.Run("complete with stock usage", func(t *testing.T) {
		payload, err := json.Marshal(map[string]interface{}{
			"diagnosis": "annual booster",
			"usages":    []map[string]interface{}{{"drug_id": "drug-rabies", "quantity": 1}},
		})
		require.NoError(t, err)

		req := httptest.NewRequest("POST", "/api/appointments/"+appointment.ID+"/complete", bytes.NewBuffer(payload))
		req.SetPathValue("id", appointment.ID)
		w := httptest.NewRecorder()

		handler.CompleteAppointment(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var result services.CompletionResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.Equal(t, entities.AppointmentStatusCompleted, result.Appointment.Status)
		require.NotNil(t, result.Record)
		assert.Len(t, result.Usages, 1)
	})

	t.Run("double completion maps to 409", func(t *testing.T) {
		payload := bytes.NewBufferString(`{"diagnosis":"again"}`)
		req := httptest.NewRequest("POST", "/api/appointments/"+appointment.ID+"/complete", payload)
		req.SetPathValue("id", appointment.ID)
		w := httptest.NewRecorder()

		handler.CompleteAppointment(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("record is retrievable", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/appointments/"+appointment.ID+"/record", nil)
		req.SetPathValue("id", appointment.ID)
		w := httptest.NewRecorder()

		handler.GetRecord(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "annual booster")
	})
}

func TestAppointmentHandler_Cancel(t *testing.T) {
	handler, scheduling := newAppointmentHandler(t)

	appointment, err := scheduling.RequestAppointment(context.Background(), &services.BookingRequest{
		PatientID:      "patient-1",
		VeterinarianID: "vet-1",
		BranchID:       "branch-1",
		Type:           entities.AppointmentTypeCheckup,
		StartsAt:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/api/appointments/"+appointment.ID+"/cancel",
		bytes.NewBufferString(`{"reason":"owner travelling"}`))
	req.SetPathValue("id", appointment.ID)
	w := httptest.NewRecorder()

	handler.CancelAppointment(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"cancel_reason":"owner travelling"`)
}

func TestAppointmentHandler_GetAppointment_NotFound(t *testing.T) {
	handler, _ := newAppointmentHandler(t)

	req := httptest.NewRequest("GET", "/api/appointments/missing", nil)
	req.SetPathValue("id", "missing")
	w := httptest.NewRecorder()

	handler.GetAppointment(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAppointmentHandler_ListAppointments(t *testing.T) {
	handler, scheduling := newAppointmentHandler(t)
	ctx := context.Background()

	for _, hour := range []int{10, 11} {
		_, err := scheduling.RequestAppointment(ctx, &services.BookingRequest{
			PatientID:      "patient-1",
			VeterinarianID: "vet-1",
			BranchID:       "branch-1",
			Type:           entities.AppointmentTypeCheckup,
			StartsAt:       time.Date(2025, 6, 1, hour, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}

	t.Run("filter by status", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/appointments?status=requested&vet=vet-1", nil)
		w := httptest.NewRecorder()

		handler.ListAppointments(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"count":2`)
	})

	t.Run("unknown status maps to 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/appointments?status=waiting", nil)
		w := httptest.NewRecorder()

		handler.ListAppointments(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestAppointmentHandler_OpenSlots(t *testing.T) {
	handler, scheduling := newAppointmentHandler(t)

	_, err := scheduling.RequestAppointment(context.Background(), &services.BookingRequest{
		PatientID:      "patient-1",
		VeterinarianID: "vet-1",
		BranchID:       "branch-1",
		Type:           entities.AppointmentTypeCheckup,
		StartsAt:       time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/veterinarians/vet-1/open-slots?date=2025-06-01&duration=30", nil)
	req.SetPathValue("id", "vet-1")
	w := httptest.NewRecorder()

	handler.GetOpenSlots(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Slots []services.OpenSlot `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.NotEmpty(t, response.Slots)
	for _, slot := range response.Slots {
		assert.False(t, slot.StartsAt.Before(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)))
	}

	t.Run("bad date maps to 400", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/api/veterinarians/vet-1/open-slots?date=junk", nil)
		req.SetPathValue("id", "vet-1")
		w := httptest.NewRecorder()

		handler.GetOpenSlots(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
