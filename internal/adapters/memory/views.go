package memory

import (
	"context"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
)

// The repository interfaces overlap in method names (GetByID and friends),
// so the store exposes one view per interface. Views are stateless
// forwarders over the shared store.

// Appointments returns the AppointmentRepository view
func (s *Store) Appointments() repositories.AppointmentRepository { return s }

// Calendar returns the CalendarRepository view
func (s *Store) Calendar() repositories.CalendarRepository { return s }

// ClinicalRecords returns the ClinicalRecordRepository view
func (s *Store) ClinicalRecords() repositories.ClinicalRecordRepository { return s }

// Vaccines returns the VaccineRepository view
func (s *Store) Vaccines() repositories.VaccineRepository { return s }

// Drugs returns the DrugRepository view
func (s *Store) Drugs() repositories.DrugRepository { return drugView{s} }

// Branches returns the BranchRepository view
func (s *Store) Branches() repositories.BranchRepository { return branchView{s} }

// Veterinarians returns the VeterinarianRepository view
func (s *Store) Veterinarians() repositories.VeterinarianRepository { return vetView{s} }

// Owners returns the OwnerRepository view
func (s *Store) Owners() repositories.OwnerRepository { return ownerView{s} }

// Patients returns the PatientRepository view
func (s *Store) Patients() repositories.PatientRepository { return patientView{s} }

type drugView struct{ s *Store }

func (v drugView) GetByID(ctx context.Context, id string) (*entities.Drug, error) {
	return v.s.GetDrugByID(ctx, id)
}

func (v drugView) ListByBranch(ctx context.Context, branchID string) ([]*entities.Drug, error) {
	return v.s.ListByBranch(ctx, branchID)
}

func (v drugView) RecordUsage(ctx context.Context, appointmentID, drugID string, quantity int) (*entities.TreatmentUsage, error) {
	return v.s.RecordUsage(ctx, appointmentID, drugID, quantity)
}

func (v drugView) ReverseUsage(ctx context.Context, usageID string) error {
	return v.s.ReverseUsage(ctx, usageID)
}

func (v drugView) Restock(ctx context.Context, drugID string, quantity int) (*entities.Drug, error) {
	return v.s.Restock(ctx, drugID, quantity)
}

func (v drugView) ListUsagesByAppointment(ctx context.Context, appointmentID string) ([]*entities.TreatmentUsage, error) {
	return v.s.ListUsagesByAppointment(ctx, appointmentID)
}

type branchView struct{ s *Store }

func (v branchView) GetByID(ctx context.Context, id string) (*entities.Branch, error) {
	return v.s.GetBranchByID(ctx, id)
}

func (v branchView) List(ctx context.Context) ([]*entities.Branch, error) {
	return v.s.ListBranches(ctx)
}

type vetView struct{ s *Store }

func (v vetView) GetByID(ctx context.Context, id string) (*entities.Veterinarian, error) {
	return v.s.GetVeterinarianByID(ctx, id)
}

func (v vetView) GetByIDs(ctx context.Context, ids []string) ([]*entities.Veterinarian, error) {
	return v.s.GetVeterinariansByIDs(ctx, ids)
}

func (v vetView) ListByBranch(ctx context.Context, branchID string) ([]*entities.Veterinarian, error) {
	return v.s.ListVeterinariansByBranch(ctx, branchID)
}

type ownerView struct{ s *Store }

func (v ownerView) GetByID(ctx context.Context, id string) (*entities.Owner, error) {
	return v.s.GetOwnerByID(ctx, id)
}

type patientView struct{ s *Store }

func (v patientView) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	return v.s.GetPatientByID(ctx, id)
}

func (v patientView) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	return v.s.GetPatientsByIDs(ctx, ids)
}

func (v patientView) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Patient, error) {
	return v.s.ListByOwner(ctx, ownerID)
}

func (v patientView) ListActive(ctx context.Context) ([]*entities.Patient, error) {
	return v.s.ListActivePatients(ctx)
}
