package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninosoft/vetcore/backend/internal/adapters/memory"
	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// fakeCache is a map-backed CacheProvider that counts hits and misses
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	hits int
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: map[string][]byte{}}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if value, ok := c.data[key]; ok {
		c.hits++
		return value, nil
	}
	return nil, nil
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func span(value int, unit entities.TimeUnit) entities.AgeSpan {
	return entities.AgeSpan{Value: value, Unit: unit}
}

func spanPtr(value int, unit entities.TimeUnit) *entities.AgeSpan {
	s := span(value, unit)
	return &s
}

func strPtr(s string) *string { return &s }

// seedCanineCatalog installs a three-entry canine series: parvo at 6
// weeks with a 3-week booster, distemper at 8 weeks chained to parvo, and
// a one-shot kennel cough dose at 18 weeks chained to distemper.
func seedCanineCatalog(store *memory.Store) {
	store.AddCatalogEntry(&entities.VaccineCatalogEntry{
		ID: "vx-parvo", Species: entities.SpeciesCanine, Name: "Parvovirus",
		RecommendedAge: span(6, entities.TimeUnitWeeks),
		BoosterInterval: spanPtr(3, entities.TimeUnitWeeks),
		SequenceOrder:  1,
	})
	store.AddCatalogEntry(&entities.VaccineCatalogEntry{
		ID: "vx-distemper", Species: entities.SpeciesCanine, Name: "Distemper",
		RecommendedAge: span(8, entities.TimeUnitWeeks),
		BoosterInterval: spanPtr(4, entities.TimeUnitWeeks),
		SequenceOrder:  2,
		PredecessorID:  strPtr("vx-parvo"),
	})
	store.AddCatalogEntry(&entities.VaccineCatalogEntry{
		ID: "vx-kennel", Species: entities.SpeciesCanine, Name: "Kennel cough",
		RecommendedAge: span(18, entities.TimeUnitWeeks),
		SequenceOrder:  3,
		PredecessorID:  strPtr("vx-distemper"),
	})
	store.AddCatalogEntry(&entities.VaccineCatalogEntry{
		ID: "vx-fvrcp", Species: entities.SpeciesFeline, Name: "FVRCP",
		RecommendedAge: span(8, entities.TimeUnitWeeks),
		BoosterInterval: spanPtr(3, entities.TimeUnitWeeks),
		SequenceOrder:  1,
	})
}

type vaccinationFixture struct {
	service *VaccinationService
	store   *memory.Store
	cache   *fakeCache
	now     time.Time
}

func newVaccinationFixture(t *testing.T, birth string) *vaccinationFixture {
	t.Helper()

	store := memory.NewStore(200*time.Millisecond, 0)
	store.AddOwner(&entities.Owner{ID: "owner-1", FullName: "Marta Diaz"})
	store.AddPatient(&entities.Patient{
		ID: "patient-1", OwnerID: "owner-1", Name: "Rocco",
		Species: entities.SpeciesCanine, IsActive: true,
		DateOfBirth: mustTime(t, birth),
	})
	seedCanineCatalog(store)

	cache := newFakeCache()
	now := mustTime(t, "2025-05-01T00:00:00Z")
	service := NewVaccinationService(store.Vaccines(), store.Patients(), cache, nil).
		WithClock(func() time.Time { return now })

	return &vaccinationFixture{service: service, store: store, cache: cache, now: now}
}

func TestVaccinationService_NextDue_NewPatient(t *testing.T) {
	// Born 4 weeks before the pinned clock: parvo (6 weeks) is still two
	// weeks out; the chained entries must not emit yet.
	f := newVaccinationFixture(t, "2025-04-03T00:00:00Z")

	due, err := f.service.NextDue(context.Background(), "patient-1")
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "vx-parvo", due[0].Entry.ID)
	assert.Equal(t, mustTime(t, "2025-05-15T00:00:00Z"), due[0].DueAt)
	assert.False(t, due[0].Overdue)
	assert.Nil(t, due[0].LastApplied)
}

func TestVaccinationService_NextDue_CatchUp(t *testing.T) {
	// An adult with no history is past every recommended age, so the whole
	// overdue series emits despite the missing predecessors.
	f := newVaccinationFixture(t, "2023-01-01T00:00:00Z")

	due, err := f.service.NextDue(context.Background(), "patient-1")
	require.NoError(t, err)
	require.Len(t, due, 3)
	for _, d := range due {
		assert.True(t, d.Overdue, "entry %s should be overdue", d.Entry.ID)
	}
	assert.Equal(t, []string{"vx-parvo", "vx-distemper", "vx-kennel"},
		[]string{due[0].Entry.ID, due[1].Entry.ID, due[2].Entry.ID})
}

func TestVaccinationService_NextDue_BoosterMath(t *testing.T) {
	f := newVaccinationFixture(t, "2025-01-01T00:00:00Z")
	ctx := context.Background()

	applied := mustTime(t, "2025-02-12T00:00:00Z")
	_, err := f.service.RecordAdministration(ctx, &AdministrationRequest{
		PatientID:      "patient-1",
		CatalogEntryID: "vx-parvo",
		AppliedAt:      applied,
	})
	require.NoError(t, err)

	due, err := f.service.NextDue(ctx, "patient-1")
	require.NoError(t, err)
	require.NotEmpty(t, due)

	// Parvo reschedules one booster interval after the dose
	assert.Equal(t, "vx-parvo", due[0].Entry.ID)
	assert.Equal(t, applied.AddDate(0, 0, 21), due[0].DueAt)
	require.NotNil(t, due[0].LastApplied)
	assert.Equal(t, applied, *due[0].LastApplied)

	// Distemper unblocks once its predecessor was administered
	require.Len(t, due, 2)
	assert.Equal(t, "vx-distemper", due[1].Entry.ID)
	assert.Equal(t, mustTime(t, "2025-02-26T00:00:00Z"), due[1].DueAt)
}

func TestVaccinationService_NextDue_OneShotDropsOut(t *testing.T) {
	f := newVaccinationFixture(t, "2023-01-01T00:00:00Z")
	ctx := context.Background()

	for _, entryID := range []string{"vx-parvo", "vx-distemper", "vx-kennel"} {
		_, err := f.service.RecordAdministration(ctx, &AdministrationRequest{
			PatientID:      "patient-1",
			CatalogEntryID: entryID,
			AppliedAt:      mustTime(t, "2025-04-01T00:00:00Z"),
		})
		require.NoError(t, err)
	}

	due, err := f.service.NextDue(ctx, "patient-1")
	require.NoError(t, err)
	// The one-shot kennel cough dose is gone; both boosters remain
	require.Len(t, due, 2)
	assert.Equal(t, "vx-parvo", due[0].Entry.ID)
	assert.Equal(t, "vx-distemper", due[1].Entry.ID)
}

func TestVaccinationService_NextDue_NeverBeforeLatestDose(t *testing.T) {
	f := newVaccinationFixture(t, "2023-01-01T00:00:00Z")
	ctx := context.Background()

	applied := mustTime(t, "2025-04-20T00:00:00Z")
	_, err := f.service.RecordAdministration(ctx, &AdministrationRequest{
		PatientID:      "patient-1",
		CatalogEntryID: "vx-parvo",
		AppliedAt:      applied,
	})
	require.NoError(t, err)

	due, err := f.service.NextDue(ctx, "patient-1")
	require.NoError(t, err)
	for _, d := range due {
		if d.Entry.ID == "vx-parvo" {
			assert.False(t, d.DueAt.Before(applied), "next due precedes latest dose")
		}
	}
}

func TestVaccinationService_NextDue_CachedProjection(t *testing.T) {
	f := newVaccinationFixture(t, "2023-01-01T00:00:00Z")
	ctx := context.Background()

	first, err := f.service.NextDue(ctx, "patient-1")
	require.NoError(t, err)
	second, err := f.service.NextDue(ctx, "patient-1")
	require.NoError(t, err)
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, 1, f.cache.hits)

	// Recording an administration drops the cached projection
	_, err = f.service.RecordAdministration(ctx, &AdministrationRequest{
		PatientID:      "patient-1",
		CatalogEntryID: "vx-parvo",
		AppliedAt:      mustTime(t, "2025-04-01T00:00:00Z"),
	})
	require.NoError(t, err)

	exists, err := f.cache.Exists(ctx, dueCacheKeyPrefix+"patient-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestVaccinationService_RecordAdministration_SpeciesMismatch(t *testing.T) {
	f := newVaccinationFixture(t, "2023-01-01T00:00:00Z")

	_, err := f.service.RecordAdministration(context.Background(), &AdministrationRequest{
		PatientID:      "patient-1",
		CatalogEntryID: "vx-fvrcp",
		AppliedAt:      mustTime(t, "2025-04-01T00:00:00Z"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestVaccinationService_RecordAdministration_Monotonicity(t *testing.T) {
	f := newVaccinationFixture(t, "2023-01-01T00:00:00Z")
	ctx := context.Background()

	_, err := f.service.RecordAdministration(ctx, &AdministrationRequest{
		PatientID:      "patient-1",
		CatalogEntryID: "vx-parvo",
		AppliedAt:      mustTime(t, "2025-04-01T00:00:00Z"),
	})
	require.NoError(t, err)

	// An earlier date for the same pair is rejected
	_, err = f.service.RecordAdministration(ctx, &AdministrationRequest{
		PatientID:      "patient-1",
		CatalogEntryID: "vx-parvo",
		AppliedAt:      mustTime(t, "2025-03-01T00:00:00Z"),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	// The same date is allowed
	_, err = f.service.RecordAdministration(ctx, &AdministrationRequest{
		PatientID:      "patient-1",
		CatalogEntryID: "vx-parvo",
		AppliedAt:      mustTime(t, "2025-04-01T00:00:00Z"),
	})
	require.NoError(t, err)

	history, err := f.service.History(ctx, "patient-1")
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestVaccinationService_Catalog(t *testing.T) {
	f := newVaccinationFixture(t, "2023-01-01T00:00:00Z")

	catalog, err := f.service.Catalog(context.Background(), entities.SpeciesFeline)
	require.NoError(t, err)
	require.Len(t, catalog, 1)
	assert.Equal(t, "FVRCP", catalog[0].Name)
}
