package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/caninosoft/vetcore/backend/internal/application/services"
	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	"github.com/caninosoft/vetcore/backend/pkg/utils"
)

// PatientHandler handles patient, clinical record and vaccination
// endpoints
type PatientHandler struct {
	patients    repositories.PatientRepository
	owners      repositories.OwnerRepository
	scheduling  *services.SchedulingService
	vaccination *services.VaccinationService
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(
	patients repositories.PatientRepository,
	owners repositories.OwnerRepository,
	scheduling *services.SchedulingService,
	vaccination *services.VaccinationService,
) *PatientHandler {
	return &PatientHandler{
		patients:    patients,
		owners:      owners,
		scheduling:  scheduling,
		vaccination: vaccination,
	}
}

// GetPatient handles GET /api/patients/{id}
func (h *PatientHandler) GetPatient(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	patient, err := h.patients.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, patient)
}

// ListOwnerPatients handles GET /api/owners/{id}/patients
func (h *PatientHandler) ListOwnerPatients(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "owner ID is required")
		return
	}

	if _, err := h.owners.GetByID(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	patients, err := h.patients.ListByOwner(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patients": patients,
		"count":    len(patients),
	})
}

// ListRecords handles GET /api/patients/{id}/records
func (h *PatientHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	if _, err := h.patients.GetByID(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	records, err := h.scheduling.ListPatientRecords(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// GetDueVaccinations handles GET /api/patients/{id}/vaccinations/due
func (h *PatientHandler) GetDueVaccinations(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	due, err := h.vaccination.NextDue(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id": id,
		"due":        due,
	})
}

// GetVaccinationHistory handles GET /api/patients/{id}/vaccinations
func (h *PatientHandler) GetVaccinationHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	history, err := h.vaccination.History(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"patient_id":      id,
		"administrations": history,
	})
}

// RecordVaccination handles POST /api/patients/{id}/vaccinations
func (h *PatientHandler) RecordVaccination(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "patient ID is required")
		return
	}

	var req services.AdministrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	req.PatientID = id

	admin, err := h.vaccination.RecordAdministration(r.Context(), &req)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, admin)
}

// GetVaccineCatalog handles GET /api/vaccines/catalog
func (h *PatientHandler) GetVaccineCatalog(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("species")
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, "species query parameter is required")
		return
	}
	species := entities.Species(utils.NormalizeSpecies(raw))
	if species == entities.SpeciesOther {
		respondWithError(w, http.StatusBadRequest, "unknown species")
		return
	}

	catalog, err := h.vaccination.Catalog(r.Context(), species)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"species": species,
		"entries": catalog,
	})
}
