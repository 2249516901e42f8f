package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/caninosoft/vetcore/backend/internal/application/services"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
)

// BranchHandler handles branch, veterinarian and inventory endpoints
type BranchHandler struct {
	branches  repositories.BranchRepository
	vets      repositories.VeterinarianRepository
	treatment *services.TreatmentService
}

// NewBranchHandler creates a new branch handler
func NewBranchHandler(
	branches repositories.BranchRepository,
	vets repositories.VeterinarianRepository,
	treatment *services.TreatmentService,
) *BranchHandler {
	return &BranchHandler{branches: branches, vets: vets, treatment: treatment}
}

// ListBranches handles GET /api/branches
func (h *BranchHandler) ListBranches(w http.ResponseWriter, r *http.Request) {
	branches, err := h.branches.List(r.Context())
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"branches": branches,
		"count":    len(branches),
	})
}

// GetBranch handles GET /api/branches/{id}
func (h *BranchHandler) GetBranch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "branch ID is required")
		return
	}

	branch, err := h.branches.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, branch)
}

// ListVeterinarians handles GET /api/branches/{id}/veterinarians
func (h *BranchHandler) ListVeterinarians(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "branch ID is required")
		return
	}

	if _, err := h.branches.GetByID(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	vets, err := h.vets.ListByBranch(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"veterinarians": vets,
		"count":         len(vets),
	})
}

// GetVeterinarian handles GET /api/veterinarians/{id}
func (h *BranchHandler) GetVeterinarian(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "veterinarian ID is required")
		return
	}

	vet, err := h.vets.GetByID(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, vet)
}

// ListDrugs handles GET /api/branches/{id}/drugs
func (h *BranchHandler) ListDrugs(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "branch ID is required")
		return
	}

	if _, err := h.branches.GetByID(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	drugs, err := h.treatment.ListByBranch(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"drugs": drugs,
		"count": len(drugs),
	})
}

// GetDrug handles GET /api/drugs/{id}
func (h *BranchHandler) GetDrug(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "drug ID is required")
		return
	}

	drug, err := h.treatment.GetDrug(r.Context(), id)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, drug)
}

// RestockDrug handles POST /api/drugs/{id}/restock
func (h *BranchHandler) RestockDrug(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "drug ID is required")
		return
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	drug, err := h.treatment.Restock(r.Context(), id, req.Quantity)
	if err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, drug)
}

// ReverseUsage handles POST /api/usages/{id}/reverse
func (h *BranchHandler) ReverseUsage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		respondWithError(w, http.StatusBadRequest, "usage ID is required")
		return
	}

	if err := h.treatment.ReverseUsage(r.Context(), id); err != nil {
		respondWithAppError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "reversed"})
}
