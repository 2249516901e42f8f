package memory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

func testStore() *Store {
	return NewStore(200*time.Millisecond, 0)
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t.Fatalf("bad time literal %q: %v", value, err)
	}
	return parsed
}

func TestStore_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects an overlapping interval for the same veterinarian", func(t *testing.T) {
		store := testStore()

		first := entities.NewInterval(at(t, "2026-03-02T10:00:00Z"), 30)
		_, err := store.Reserve(ctx, "vet-1", "branch-1", first)
		require.NoError(t, err)

		second := entities.NewInterval(at(t, "2026-03-02T10:15:00Z"), 30)
		_, err = store.Reserve(ctx, "vet-1", "branch-1", second)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSchedulingConflict))
	})

	t.Run("allows back to back intervals", func(t *testing.T) {
		store := testStore()

		_, err := store.Reserve(ctx, "vet-1", "branch-1", entities.NewInterval(at(t, "2026-03-02T10:00:00Z"), 30))
		require.NoError(t, err)

		// [10:00, 10:30) and [10:30, 11:00) share only the boundary instant
		_, err = store.Reserve(ctx, "vet-1", "branch-1", entities.NewInterval(at(t, "2026-03-02T10:30:00Z"), 30))
		require.NoError(t, err)
	})

	t.Run("allows the same interval for different veterinarians", func(t *testing.T) {
		store := testStore()
		interval := entities.NewInterval(at(t, "2026-03-02T10:00:00Z"), 30)

		_, err := store.Reserve(ctx, "vet-1", "branch-1", interval)
		require.NoError(t, err)
		_, err = store.Reserve(ctx, "vet-2", "branch-1", interval)
		require.NoError(t, err)
	})

	t.Run("enforces branch capacity across veterinarians", func(t *testing.T) {
		store := NewStore(200*time.Millisecond, 2)
		interval := entities.NewInterval(at(t, "2026-03-02T10:00:00Z"), 30)

		_, err := store.Reserve(ctx, "vet-1", "branch-1", interval)
		require.NoError(t, err)
		_, err = store.Reserve(ctx, "vet-2", "branch-1", interval)
		require.NoError(t, err)

		_, err = store.Reserve(ctx, "vet-3", "branch-1", interval)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSchedulingConflict))
	})

	t.Run("releasing an unknown slot is a no-op", func(t *testing.T) {
		store := testStore()
		require.NoError(t, store.Release(ctx, "missing"))
		require.NoError(t, store.Release(ctx, "missing"))
	})

	t.Run("a released interval can be reserved again", func(t *testing.T) {
		store := testStore()
		interval := entities.NewInterval(at(t, "2026-03-02T10:00:00Z"), 30)

		slot, err := store.Reserve(ctx, "vet-1", "branch-1", interval)
		require.NoError(t, err)
		require.NoError(t, store.Release(ctx, slot.ID))

		_, err = store.Reserve(ctx, "vet-1", "branch-1", interval)
		require.NoError(t, err)
	})
}

// Seeded random interval sets: the allocator must accept a candidate
// exactly when it overlaps none of the intervals it already holds.
func TestStore_Reserve_RandomizedIntervals(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	day := at(t, "2026-03-02T08:00:00Z")

	for round := 0; round < 50; round++ {
		store := testStore()
		accepted := []entities.Interval{}

		for i := 0; i < 40; i++ {
			start := day.Add(time.Duration(rng.Intn(600)) * time.Minute)
			candidate := entities.NewInterval(start, 15+rng.Intn(46))

			free := true
			for _, held := range accepted {
				if held.Overlaps(candidate) {
					free = false
					break
				}
			}

			_, err := store.Reserve(ctx, "vet-1", "branch-1", candidate)
			if free {
				require.NoError(t, err, "round %d: free interval [%s, %s) rejected",
					round, candidate.Start, candidate.End)
				accepted = append(accepted, candidate)
				continue
			}
			require.Error(t, err, "round %d: overlapping interval [%s, %s) accepted",
				round, candidate.Start, candidate.End)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSchedulingConflict))
		}
	}
}

// Two simultaneous overlapping reservations for the same veterinarian:
// exactly one wins, the other gets a scheduling conflict.
func TestStore_Reserve_ConcurrentOverlap(t *testing.T) {
	ctx := context.Background()
	base := at(t, "2026-03-02T10:00:00Z")

	for round := 0; round < 200; round++ {
		store := testStore()
		intervals := []entities.Interval{
			entities.NewInterval(base, 30),
			entities.NewInterval(base.Add(15*time.Minute), 30),
		}

		errs := make(chan error, len(intervals))
		var wg sync.WaitGroup
		for _, interval := range intervals {
			wg.Add(1)
			go func(iv entities.Interval) {
				defer wg.Done()
				_, err := store.Reserve(ctx, "vet-1", "branch-1", iv)
				errs <- err
			}(interval)
		}
		wg.Wait()
		close(errs)

		successes, conflicts := 0, 0
		for err := range errs {
			switch {
			case err == nil:
				successes++
			case apperrors.IsType(err, apperrors.ErrorTypeSchedulingConflict):
				conflicts++
			default:
				t.Fatalf("round %d: unexpected error: %v", round, err)
			}
		}
		require.Equal(t, 1, successes, "round %d", round)
		require.Equal(t, 1, conflicts, "round %d", round)
	}
}

func TestStore_Query(t *testing.T) {
	ctx := context.Background()
	store := testStore()

	_, err := store.Reserve(ctx, "vet-1", "branch-1", entities.NewInterval(at(t, "2026-03-02T14:00:00Z"), 30))
	require.NoError(t, err)
	_, err = store.Reserve(ctx, "vet-1", "branch-1", entities.NewInterval(at(t, "2026-03-02T10:00:00Z"), 30))
	require.NoError(t, err)
	_, err = store.Reserve(ctx, "vet-2", "branch-1", entities.NewInterval(at(t, "2026-03-02T11:00:00Z"), 30))
	require.NoError(t, err)

	intervals, err := store.Query(ctx, "vet-1", at(t, "2026-03-02T00:00:00Z"), at(t, "2026-03-03T00:00:00Z"))
	require.NoError(t, err)
	require.Len(t, intervals, 2)
	assert.True(t, intervals[0].Start.Before(intervals[1].Start))
}

func confirmedAppointment(store *Store, t *testing.T) *entities.Appointment {
	t.Helper()
	now := time.Now().UTC()
	appointment := &entities.Appointment{
		ID:              "appt-1",
		PatientID:       "pat-1",
		VeterinarianID:  "vet-1",
		BranchID:        "branch-1",
		SlotID:          "slot-1",
		Type:            entities.AppointmentTypeCheckup,
		Status:          entities.AppointmentStatusConfirmed,
		ScheduledAt:     at(t, "2026-03-02T10:00:00Z"),
		DurationMinutes: 30,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	require.NoError(t, store.Create(context.Background(), appointment))
	return appointment
}

func TestStore_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("swaps when the expected status matches", func(t *testing.T) {
		store := testStore()
		confirmedAppointment(store, t)

		err := store.UpdateStatus(ctx, "appt-1", entities.AppointmentStatusConfirmed, entities.AppointmentStatusCancelled, "owner request")
		require.NoError(t, err)

		got, err := store.GetByID(ctx, "appt-1")
		require.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusCancelled, got.Status)
		assert.Equal(t, "owner request", got.CancelReason)
	})

	t.Run("rejects a stale expectation", func(t *testing.T) {
		store := testStore()
		confirmedAppointment(store, t)

		err := store.UpdateStatus(ctx, "appt-1", entities.AppointmentStatusRequested, entities.AppointmentStatusConfirmed, "")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})
}

func TestStore_Complete(t *testing.T) {
	ctx := context.Background()

	record := func() *entities.ClinicalRecord {
		now := time.Now().UTC()
		return &entities.ClinicalRecord{
			ID:             "rec-1",
			AppointmentID:  "appt-1",
			PatientID:      "pat-1",
			VeterinarianID: "vet-1",
			Diagnosis:      "healthy",
			NoNextControl:  true,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	seedDrug := func(store *Store, stock int) {
		now := time.Now().UTC()
		store.AddDrug(&entities.Drug{
			ID: "drug-1", BranchID: "branch-1", Name: "Rabivax",
			Category: entities.DrugCategoryVaccine, Stock: stock,
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		})
	}

	t.Run("commits usages, record and transition together", func(t *testing.T) {
		store := testStore()
		confirmedAppointment(store, t)
		seedDrug(store, 5)

		usages := []entities.UsageRequest{{DrugID: "drug-1", Quantity: 1}}
		committed, err := store.Complete(ctx, "appt-1", record(), usages)
		require.NoError(t, err)
		require.Len(t, committed, 1)

		drug, err := store.GetDrugByID(ctx, "drug-1")
		require.NoError(t, err)
		assert.Equal(t, 4, drug.Stock)

		appointment, err := store.GetByID(ctx, "appt-1")
		require.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusCompleted, appointment.Status)

		_, err = store.GetByAppointment(ctx, "appt-1")
		require.NoError(t, err)
	})

	t.Run("rejects completion when stock is short and leaves no trace", func(t *testing.T) {
		store := testStore()
		confirmedAppointment(store, t)
		seedDrug(store, 1)

		usages := []entities.UsageRequest{
			{DrugID: "drug-1", Quantity: 1},
			{DrugID: "drug-1", Quantity: 1},
		}
		_, err := store.Complete(ctx, "appt-1", record(), usages)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInsufficientStock))

		drug, err := store.GetDrugByID(ctx, "drug-1")
		require.NoError(t, err)
		assert.Equal(t, 1, drug.Stock, "the first decrement must be undone")

		appointment, err := store.GetByID(ctx, "appt-1")
		require.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusConfirmed, appointment.Status)

		_, err = store.GetByAppointment(ctx, "appt-1")
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))

		leftover, err := store.ListUsagesByAppointment(ctx, "appt-1")
		require.NoError(t, err)
		assert.Empty(t, leftover)
	})

	t.Run("rolls back stock when a mid-unit failure is injected", func(t *testing.T) {
		store := testStore()
		confirmedAppointment(store, t)
		seedDrug(store, 5)

		boom := errors.New("injected")
		store.SetCompletionHook(func() error { return boom })

		usages := []entities.UsageRequest{{DrugID: "drug-1", Quantity: 3}}
		_, err := store.Complete(ctx, "appt-1", record(), usages)
		require.ErrorIs(t, err, boom)

		drug, err := store.GetDrugByID(ctx, "drug-1")
		require.NoError(t, err)
		assert.Equal(t, 5, drug.Stock)

		appointment, err := store.GetByID(ctx, "appt-1")
		require.NoError(t, err)
		assert.Equal(t, entities.AppointmentStatusConfirmed, appointment.Status)
	})

	t.Run("rejects a second completion", func(t *testing.T) {
		store := testStore()
		confirmedAppointment(store, t)
		seedDrug(store, 5)

		_, err := store.Complete(ctx, "appt-1", record(), nil)
		require.NoError(t, err)

		_, err = store.Complete(ctx, "appt-1", record(), nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalidTransition))
	})
}

func TestStore_DrugOperations(t *testing.T) {
	ctx := context.Background()

	seed := func(store *Store, stock int) {
		now := time.Now().UTC()
		store.AddDrug(&entities.Drug{
			ID: "drug-1", BranchID: "branch-1", Name: "Amoxicillin",
			Category: entities.DrugCategoryAntibiotic, Stock: stock,
			IsActive: true, CreatedAt: now, UpdatedAt: now,
		})
	}

	t.Run("usage decrements and reversal restores", func(t *testing.T) {
		store := testStore()
		seed(store, 10)

		usage, err := store.RecordUsage(ctx, "appt-1", "drug-1", 4)
		require.NoError(t, err)

		drug, err := store.GetDrugByID(ctx, "drug-1")
		require.NoError(t, err)
		assert.Equal(t, 6, drug.Stock)

		require.NoError(t, store.ReverseUsage(ctx, usage.ID))
		drug, err = store.GetDrugByID(ctx, "drug-1")
		require.NoError(t, err)
		assert.Equal(t, 10, drug.Stock)
	})

	t.Run("usage beyond stock is rejected with the available quantity", func(t *testing.T) {
		store := testStore()
		seed(store, 2)

		_, err := store.RecordUsage(ctx, "appt-1", "drug-1", 3)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInsufficientStock))
		assert.Contains(t, err.Error(), "2")
	})

	t.Run("restock increments", func(t *testing.T) {
		store := testStore()
		seed(store, 2)

		drug, err := store.Restock(ctx, "drug-1", 8)
		require.NoError(t, err)
		assert.Equal(t, 10, drug.Stock)
	})

	t.Run("a held drug lock surfaces as busy", func(t *testing.T) {
		store := NewStore(50*time.Millisecond, 0)
		seed(store, 10)

		release, err := store.drugLocks.Acquire(ctx, "drug-1")
		require.NoError(t, err)
		defer release()

		_, err = store.RecordUsage(ctx, "appt-1", "drug-1", 1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeBusy))
	})
}

// Randomized concurrent usage and reversal: stock never goes negative
// and the final balance accounts for every committed operation.
func TestStore_DrugStock_ConcurrentUsage(t *testing.T) {
	ctx := context.Background()
	store := NewStore(2*time.Second, 0)
	now := time.Now().UTC()
	store.AddDrug(&entities.Drug{
		ID: "drug-1", BranchID: "branch-1", Name: "Meloxicam",
		Category: entities.DrugCategoryAnalgesic, Stock: 25,
		IsActive: true, CreatedAt: now, UpdatedAt: now,
	})

	var (
		mu       sync.Mutex
		consumed int
	)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 20; i++ {
				quantity := 1 + rng.Intn(3)
				usage, err := store.RecordUsage(ctx, "appt-1", "drug-1", quantity)
				if err != nil {
					assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInsufficientStock),
						"unexpected error: %v", err)
					continue
				}
				if rng.Intn(2) == 0 {
					assert.NoError(t, store.ReverseUsage(ctx, usage.ID))
					continue
				}
				mu.Lock()
				consumed += quantity
				mu.Unlock()

				if drug, err := store.GetDrugByID(ctx, "drug-1"); assert.NoError(t, err) {
					assert.GreaterOrEqual(t, drug.Stock, 0)
				}
			}
		}(int64(g))
	}
	wg.Wait()

	drug, err := store.GetDrugByID(ctx, "drug-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, drug.Stock, 0)
	assert.Equal(t, 25-consumed, drug.Stock)
}

func TestStore_VaccineAdministrations(t *testing.T) {
	ctx := context.Background()
	store := testStore()

	admin := func(id string, applied time.Time) *entities.VaccineAdministration {
		return &entities.VaccineAdministration{
			ID:             id,
			PatientID:      "pat-1",
			CatalogEntryID: "rabies-canine",
			AppliedAt:      applied,
			CreatedAt:      time.Now().UTC(),
		}
	}

	require.NoError(t, store.RecordAdministration(ctx, admin("adm-1", at(t, "2026-01-10T00:00:00Z"))))
	require.NoError(t, store.RecordAdministration(ctx, admin("adm-2", at(t, "2026-06-10T00:00:00Z"))))

	err := store.RecordAdministration(ctx, admin("adm-3", at(t, "2026-03-01T00:00:00Z")))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	history, err := store.ListAdministrations(ctx, "pat-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.True(t, history[0].AppliedAt.Before(history[1].AppliedAt))
}

func TestStore_ListAppointments(t *testing.T) {
	ctx := context.Background()
	store := testStore()

	base := at(t, "2026-03-02T09:00:00Z")
	for i, status := range []entities.AppointmentStatus{
		entities.AppointmentStatusRequested,
		entities.AppointmentStatusConfirmed,
		entities.AppointmentStatusCompleted,
	} {
		now := time.Now().UTC()
		require.NoError(t, store.Create(ctx, &entities.Appointment{
			ID:              string(rune('a' + i)),
			PatientID:       "pat-1",
			VeterinarianID:  "vet-1",
			BranchID:        "branch-1",
			Type:            entities.AppointmentTypeCheckup,
			Status:          status,
			ScheduledAt:     base.Add(time.Duration(i) * time.Hour),
			DurationMinutes: 30,
			CreatedAt:       now,
			UpdatedAt:       now,
		}))
	}

	open, err := store.CountOpenByPatient(ctx, "pat-1")
	require.NoError(t, err)
	assert.Equal(t, 2, open)

	status := entities.AppointmentStatusConfirmed
	listed, err := store.List(ctx, repositories.AppointmentFilter{Status: status})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, status, listed[0].Status)
}
