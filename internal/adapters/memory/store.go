package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
	"github.com/caninosoft/vetcore/backend/pkg/keylock"
)

// Store is an in-process implementation of every repository, used for the
// memory database driver and in tests. Per-veterinarian and per-drug
// mutual exclusion comes from bounded keyed locks: an acquisition that
// outlives the configured wait surfaces as a busy error, mirroring the
// SQL backends.
type Store struct {
	mu        sync.RWMutex
	vetLocks  *keylock.Table
	drugLocks *keylock.Table

	branchCapacity int

	branches      map[string]*entities.Branch
	veterinarians map[string]*entities.Veterinarian
	owners        map[string]*entities.Owner
	patients      map[string]*entities.Patient
	slots         map[string]*entities.CalendarSlot
	appointments  map[string]*entities.Appointment
	records       map[string]*entities.ClinicalRecord
	drugs         map[string]*entities.Drug
	usages        map[string]*entities.TreatmentUsage
	catalog       map[string]*entities.VaccineCatalogEntry
	administered  map[string][]*entities.VaccineAdministration

	// completionHook runs after stock has been consumed but before the
	// completion is applied. Tests use it to force mid-unit failures.
	completionHook func() error
}

// NewStore creates an empty store. lockWait bounds keyed lock
// acquisition; branchCapacity caps simultaneous overlapping reservations
// per branch, zero disables the cap.
func NewStore(lockWait time.Duration, branchCapacity int) *Store {
	return &Store{
		vetLocks:       keylock.New(lockWait),
		drugLocks:      keylock.New(lockWait),
		branchCapacity: branchCapacity,
		branches:       make(map[string]*entities.Branch),
		veterinarians:  make(map[string]*entities.Veterinarian),
		owners:         make(map[string]*entities.Owner),
		patients:       make(map[string]*entities.Patient),
		slots:          make(map[string]*entities.CalendarSlot),
		appointments:   make(map[string]*entities.Appointment),
		records:        make(map[string]*entities.ClinicalRecord),
		drugs:          make(map[string]*entities.Drug),
		usages:         make(map[string]*entities.TreatmentUsage),
		catalog:        make(map[string]*entities.VaccineCatalogEntry),
		administered:   make(map[string][]*entities.VaccineAdministration),
	}
}

// SetCompletionHook installs a test hook invoked mid-completion
func (s *Store) SetCompletionHook(hook func() error) {
	s.completionHook = hook
}

func busyOrCtx(err error, resource string) error {
	if errors.Is(err, keylock.ErrTimeout) {
		return apperrors.NewBusyError(resource)
	}
	return apperrors.NewInternalError("lock acquisition interrupted", err)
}

// --- seeding ---

// AddBranch registers a branch
func (s *Store) AddBranch(branch *entities.Branch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branches[branch.ID] = branch
}

// AddVeterinarian registers a veterinarian
func (s *Store) AddVeterinarian(vet *entities.Veterinarian) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.veterinarians[vet.ID] = vet
}

// AddOwner registers an owner
func (s *Store) AddOwner(owner *entities.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[owner.ID] = owner
}

// AddPatient registers a patient
func (s *Store) AddPatient(patient *entities.Patient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.patients[patient.ID] = patient
}

// AddDrug registers a drug
func (s *Store) AddDrug(drug *entities.Drug) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drugs[drug.ID] = drug
}

// AddCatalogEntry registers a vaccine catalog entry
func (s *Store) AddCatalogEntry(entry *entities.VaccineCatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[entry.ID] = entry
}

// --- CalendarRepository ---

// Reserve commits a slot for the veterinarian covering the interval
func (s *Store) Reserve(ctx context.Context, vetID, branchID string, interval entities.Interval) (*entities.CalendarSlot, error) {
	if !interval.Valid() {
		return nil, apperrors.NewValidationError("reservation interval must have positive length")
	}

	release, err := s.vetLocks.Acquire(ctx, vetID)
	if err != nil {
		return nil, busyOrCtx(err, "veterinarian calendar")
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	overlapping := 0
	for _, slot := range s.slots {
		if !slot.Interval().Overlaps(interval) {
			continue
		}
		if slot.VeterinarianID == vetID {
			return nil, apperrors.NewSchedulingConflictError(
				fmt.Sprintf("interval [%s, %s) overlaps an existing reservation for veterinarian %s",
					interval.Start.Format(time.RFC3339), interval.End.Format(time.RFC3339), vetID))
		}
		if slot.BranchID == branchID {
			overlapping++
		}
	}
	if s.branchCapacity > 0 && overlapping >= s.branchCapacity {
		return nil, apperrors.NewSchedulingConflictError(
			fmt.Sprintf("branch %s is at capacity (%d simultaneous appointments)", branchID, s.branchCapacity))
	}

	slot := &entities.CalendarSlot{
		ID:             uuid.New().String(),
		VeterinarianID: vetID,
		BranchID:       branchID,
		StartsAt:       interval.Start,
		EndsAt:         interval.End,
		CreatedAt:      time.Now().UTC(),
	}
	s.slots[slot.ID] = slot
	return slot, nil
}

// Release frees a reservation. Releasing an unknown slot is a no-op.
func (s *Store) Release(ctx context.Context, slotID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, slotID)
	return nil
}

// Query returns the reserved intervals for a veterinarian between from
// and to, ordered by start time
func (s *Store) Query(ctx context.Context, vetID string, from, to time.Time) ([]entities.Interval, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	window := entities.Interval{Start: from, End: to}
	intervals := []entities.Interval{}
	for _, slot := range s.slots {
		if slot.VeterinarianID != vetID {
			continue
		}
		if slot.Interval().Overlaps(window) {
			intervals = append(intervals, slot.Interval())
		}
	}
	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})
	return intervals, nil
}

// --- AppointmentRepository ---

// Create creates a new appointment
func (s *Store) Create(ctx context.Context, appointment *entities.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *appointment
	s.appointments[appointment.ID] = &copied
	return nil
}

// GetByID retrieves an appointment by ID
func (s *Store) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appointment, ok := s.appointments[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("appointment", id)
	}
	copied := *appointment
	return &copied, nil
}

// List retrieves appointments matching the filter, ordered by scheduled
// start time
func (s *Store) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := []*entities.Appointment{}
	for _, appointment := range s.appointments {
		if filter.VeterinarianID != "" && appointment.VeterinarianID != filter.VeterinarianID {
			continue
		}
		if filter.PatientID != "" && appointment.PatientID != filter.PatientID {
			continue
		}
		if filter.BranchID != "" && appointment.BranchID != filter.BranchID {
			continue
		}
		if filter.Status != "" && appointment.Status != filter.Status {
			continue
		}
		if filter.From != nil && appointment.ScheduledAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !appointment.ScheduledAt.Before(*filter.To) {
			continue
		}
		copied := *appointment
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].ScheduledAt.Before(matched[j].ScheduledAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return []*entities.Appointment{}, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(matched) {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// UpdateStatus transitions an appointment with a compare-and-swap on the
// expected current status
func (s *Store) UpdateStatus(ctx context.Context, id string, from, to entities.AppointmentStatus, cancelReason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	appointment, ok := s.appointments[id]
	if !ok {
		return apperrors.NewNotFoundError("appointment", id)
	}
	if appointment.Status != from {
		return apperrors.NewInvalidTransitionError(string(appointment.Status), string(to))
	}
	appointment.Status = to
	if cancelReason != "" {
		appointment.CancelReason = cancelReason
	}
	appointment.UpdatedAt = time.Now().UTC()
	return nil
}

// Complete atomically creates the clinical record, commits every drug
// usage against stock and transitions the appointment from confirmed to
// completed. Stock decrements are journaled and undone on any failure, so
// a rejected completion leaves no trace.
func (s *Store) Complete(ctx context.Context, appointmentID string, record *entities.ClinicalRecord, usages []entities.UsageRequest) ([]*entities.TreatmentUsage, error) {
	releases, err := s.lockDrugs(ctx, usages)
	if err != nil {
		return nil, err
	}
	defer releases()

	s.mu.Lock()
	defer s.mu.Unlock()

	appointment, ok := s.appointments[appointmentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("appointment", appointmentID)
	}
	if appointment.Status != entities.AppointmentStatusConfirmed {
		return nil, apperrors.NewInvalidTransitionError(string(appointment.Status), string(entities.AppointmentStatusCompleted))
	}

	// Journal of applied decrements, replayed in reverse on failure
	type undo struct {
		drug     *entities.Drug
		quantity int
	}
	journal := []undo{}
	rollbackJournal := func() {
		for i := len(journal) - 1; i >= 0; i-- {
			journal[i].drug.Stock += journal[i].quantity
		}
	}

	now := time.Now().UTC()
	committed := make([]*entities.TreatmentUsage, 0, len(usages))
	for _, usage := range usages {
		if usage.Quantity <= 0 {
			rollbackJournal()
			return nil, apperrors.NewValidationError(fmt.Sprintf("usage quantity for drug %s must be positive", usage.DrugID))
		}
		drug, ok := s.drugs[usage.DrugID]
		if !ok {
			rollbackJournal()
			return nil, apperrors.NewNotFoundError("drug", usage.DrugID)
		}
		if drug.Stock < usage.Quantity {
			rollbackJournal()
			return nil, apperrors.NewInsufficientStockError(drug.Name, drug.Stock)
		}
		drug.Stock -= usage.Quantity
		drug.UpdatedAt = now
		journal = append(journal, undo{drug: drug, quantity: usage.Quantity})
		committed = append(committed, &entities.TreatmentUsage{
			ID:            uuid.New().String(),
			AppointmentID: appointmentID,
			DrugID:        usage.DrugID,
			Quantity:      usage.Quantity,
			RecordedAt:    now,
		})
	}

	if s.completionHook != nil {
		if err := s.completionHook(); err != nil {
			rollbackJournal()
			return nil, err
		}
	}

	for _, usage := range committed {
		s.usages[usage.ID] = usage
	}
	stored := *record
	s.records[appointmentID] = &stored
	appointment.Status = entities.AppointmentStatusCompleted
	appointment.UpdatedAt = now
	return committed, nil
}

// CountOpenByPatient counts non-terminal appointments for a patient
func (s *Store) CountOpenByPatient(ctx context.Context, patientID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, appointment := range s.appointments {
		if appointment.PatientID != patientID {
			continue
		}
		if !appointment.Status.IsTerminal() {
			count++
		}
	}
	return count, nil
}

// lockDrugs acquires the lock for every distinct drug in ascending key
// order, so two completions touching the same drugs cannot deadlock.
func (s *Store) lockDrugs(ctx context.Context, usages []entities.UsageRequest) (func(), error) {
	ids := make([]string, 0, len(usages))
	seen := map[string]struct{}{}
	for _, usage := range usages {
		if _, ok := seen[usage.DrugID]; ok {
			continue
		}
		seen[usage.DrugID] = struct{}{}
		ids = append(ids, usage.DrugID)
	}
	sort.Strings(ids)

	releases := []func(){}
	releaseAll := func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
	for _, id := range ids {
		release, err := s.drugLocks.Acquire(ctx, id)
		if err != nil {
			releaseAll()
			return nil, busyOrCtx(err, "drug stock")
		}
		releases = append(releases, release)
	}
	return releaseAll, nil
}

// --- ClinicalRecordRepository ---

// GetByAppointment retrieves the record created by an appointment's
// completion
func (s *Store) GetByAppointment(ctx context.Context, appointmentID string) (*entities.ClinicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[appointmentID]
	if !ok {
		return nil, apperrors.NewNotFoundError("clinical record for appointment", appointmentID)
	}
	copied := *record
	return &copied, nil
}

// ListByPatient retrieves a patient's clinical history, most recent first
func (s *Store) ListByPatient(ctx context.Context, patientID string) ([]*entities.ClinicalRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := []*entities.ClinicalRecord{}
	for _, record := range s.records {
		if record.PatientID == patientID {
			copied := *record
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

// --- DrugRepository ---

// GetDrugByID retrieves a drug by ID
func (s *Store) GetDrugByID(ctx context.Context, id string) (*entities.Drug, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	drug, ok := s.drugs[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("drug", id)
	}
	copied := *drug
	return &copied, nil
}

// ListByBranch retrieves a branch's active inventory, ordered by name
func (s *Store) ListByBranch(ctx context.Context, branchID string) ([]*entities.Drug, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	drugs := []*entities.Drug{}
	for _, drug := range s.drugs {
		if drug.BranchID == branchID && drug.IsActive {
			copied := *drug
			drugs = append(drugs, &copied)
		}
	}
	sort.Slice(drugs, func(i, j int) bool {
		return strings.ToLower(drugs[i].Name) < strings.ToLower(drugs[j].Name)
	})
	return drugs, nil
}

// RecordUsage decrements stock and appends the usage row atomically
func (s *Store) RecordUsage(ctx context.Context, appointmentID, drugID string, quantity int) (*entities.TreatmentUsage, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("usage quantity must be positive")
	}

	release, err := s.drugLocks.Acquire(ctx, drugID)
	if err != nil {
		return nil, busyOrCtx(err, "drug stock")
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	drug, ok := s.drugs[drugID]
	if !ok {
		return nil, apperrors.NewNotFoundError("drug", drugID)
	}
	if drug.Stock < quantity {
		return nil, apperrors.NewInsufficientStockError(drug.Name, drug.Stock)
	}

	now := time.Now().UTC()
	drug.Stock -= quantity
	drug.UpdatedAt = now

	usage := &entities.TreatmentUsage{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		DrugID:        drugID,
		Quantity:      quantity,
		RecordedAt:    now,
	}
	s.usages[usage.ID] = usage
	return usage, nil
}

// ReverseUsage re-increments stock and removes the usage atomically
func (s *Store) ReverseUsage(ctx context.Context, usageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	usage, ok := s.usages[usageID]
	if !ok {
		return apperrors.NewNotFoundError("treatment usage", usageID)
	}
	if drug, ok := s.drugs[usage.DrugID]; ok {
		drug.Stock += usage.Quantity
		drug.UpdatedAt = time.Now().UTC()
	}
	delete(s.usages, usageID)
	return nil
}

// Restock atomically increments stock by quantity
func (s *Store) Restock(ctx context.Context, drugID string, quantity int) (*entities.Drug, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("restock quantity must be positive")
	}

	release, err := s.drugLocks.Acquire(ctx, drugID)
	if err != nil {
		return nil, busyOrCtx(err, "drug stock")
	}
	defer release()

	s.mu.Lock()
	defer s.mu.Unlock()

	drug, ok := s.drugs[drugID]
	if !ok {
		return nil, apperrors.NewNotFoundError("drug", drugID)
	}
	drug.Stock += quantity
	drug.UpdatedAt = time.Now().UTC()
	copied := *drug
	return &copied, nil
}

// ListUsagesByAppointment retrieves the usages committed against an
// appointment, in recording order
func (s *Store) ListUsagesByAppointment(ctx context.Context, appointmentID string) ([]*entities.TreatmentUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	usages := []*entities.TreatmentUsage{}
	for _, usage := range s.usages {
		if usage.AppointmentID == appointmentID {
			copied := *usage
			usages = append(usages, &copied)
		}
	}
	sort.Slice(usages, func(i, j int) bool {
		return usages[i].RecordedAt.Before(usages[j].RecordedAt)
	})
	return usages, nil
}

// --- VaccineRepository ---

// ListCatalog retrieves the catalog entries for a species, ordered by
// sequence order
func (s *Store) ListCatalog(ctx context.Context, species entities.Species) ([]*entities.VaccineCatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := []*entities.VaccineCatalogEntry{}
	for _, entry := range s.catalog {
		if entry.Species == species {
			entries = append(entries, entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].SequenceOrder < entries[j].SequenceOrder
	})
	return entries, nil
}

// GetCatalogEntry retrieves a catalog entry by ID
func (s *Store) GetCatalogEntry(ctx context.Context, id string) (*entities.VaccineCatalogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.catalog[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("vaccine catalog entry", id)
	}
	return entry, nil
}

// RecordAdministration appends an administration, rejecting a date that
// precedes the latest recorded dose for the same patient and entry
func (s *Store) RecordAdministration(ctx context.Context, admin *entities.VaccineAdministration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, prior := range s.administered[admin.PatientID] {
		if prior.CatalogEntryID == admin.CatalogEntryID && admin.AppliedAt.Before(prior.AppliedAt) {
			return apperrors.NewValidationError(fmt.Sprintf(
				"administration date %s precedes the latest recorded dose on %s",
				admin.AppliedAt.Format("2006-01-02"), prior.AppliedAt.Format("2006-01-02")))
		}
	}

	copied := *admin
	s.administered[admin.PatientID] = append(s.administered[admin.PatientID], &copied)
	return nil
}

// ListAdministrations retrieves a patient's administration history,
// ordered by applied date
func (s *Store) ListAdministrations(ctx context.Context, patientID string) ([]*entities.VaccineAdministration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	admins := make([]*entities.VaccineAdministration, 0, len(s.administered[patientID]))
	for _, admin := range s.administered[patientID] {
		copied := *admin
		admins = append(admins, &copied)
	}
	sort.Slice(admins, func(i, j int) bool {
		return admins[i].AppliedAt.Before(admins[j].AppliedAt)
	})
	return admins, nil
}

// --- reference repositories ---

// GetBranchByID retrieves a branch by ID
func (s *Store) GetBranchByID(ctx context.Context, id string) (*entities.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	branch, ok := s.branches[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("branch", id)
	}
	copied := *branch
	return &copied, nil
}

// ListBranches retrieves all active branches, ordered by name
func (s *Store) ListBranches(ctx context.Context) ([]*entities.Branch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	branches := []*entities.Branch{}
	for _, branch := range s.branches {
		if branch.IsActive {
			copied := *branch
			branches = append(branches, &copied)
		}
	}
	sort.Slice(branches, func(i, j int) bool {
		return branches[i].Name < branches[j].Name
	})
	return branches, nil
}

// GetVeterinarianByID retrieves a veterinarian by ID
func (s *Store) GetVeterinarianByID(ctx context.Context, id string) (*entities.Veterinarian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vet, ok := s.veterinarians[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("veterinarian", id)
	}
	copied := *vet
	return &copied, nil
}

// GetVeterinariansByIDs retrieves veterinarians by IDs; missing IDs are
// omitted
func (s *Store) GetVeterinariansByIDs(ctx context.Context, ids []string) ([]*entities.Veterinarian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vets := []*entities.Veterinarian{}
	for _, id := range ids {
		if vet, ok := s.veterinarians[id]; ok {
			copied := *vet
			vets = append(vets, &copied)
		}
	}
	return vets, nil
}

// ListVeterinariansByBranch retrieves the active veterinarians assigned
// to a branch
func (s *Store) ListVeterinariansByBranch(ctx context.Context, branchID string) ([]*entities.Veterinarian, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	vets := []*entities.Veterinarian{}
	for _, vet := range s.veterinarians {
		if vet.BranchID == branchID && vet.IsActive {
			copied := *vet
			vets = append(vets, &copied)
		}
	}
	sort.Slice(vets, func(i, j int) bool {
		return vets[i].FullName < vets[j].FullName
	})
	return vets, nil
}

// GetOwnerByID retrieves an owner by ID
func (s *Store) GetOwnerByID(ctx context.Context, id string) (*entities.Owner, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("owner", id)
	}
	copied := *owner
	return &copied, nil
}

// GetPatientByID retrieves a patient by ID
func (s *Store) GetPatientByID(ctx context.Context, id string) (*entities.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	patient, ok := s.patients[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("patient", id)
	}
	copied := *patient
	return &copied, nil
}

// GetPatientsByIDs retrieves patients by IDs; missing IDs are omitted
func (s *Store) GetPatientsByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := []*entities.Patient{}
	for _, id := range ids {
		if patient, ok := s.patients[id]; ok {
			copied := *patient
			patients = append(patients, &copied)
		}
	}
	return patients, nil
}

// ListByOwner retrieves an owner's active patients, ordered by name
func (s *Store) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := []*entities.Patient{}
	for _, patient := range s.patients {
		if patient.OwnerID == ownerID && patient.IsActive {
			copied := *patient
			patients = append(patients, &copied)
		}
	}
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].Name < patients[j].Name
	})
	return patients, nil
}

// ListActivePatients retrieves all active patients ordered by ID
func (s *Store) ListActivePatients(ctx context.Context) ([]*entities.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	patients := []*entities.Patient{}
	for _, patient := range s.patients {
		if patient.IsActive {
			copied := *patient
			patients = append(patients, &copied)
		}
	}
	sort.Slice(patients, func(i, j int) bool {
		return patients[i].ID < patients[j].ID
	})
	return patients, nil
}
