package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/google/uuid"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// CalendarAdapter implements the CalendarRepository interface over SQL.
//
// Reservation serializes per veterinarian: on PostgreSQL each Reserve takes
// an advisory transaction lock keyed on the veterinarian id (bounded by
// lock_timeout), so overlap checks for the same vet never race while
// different vets proceed in parallel. SQLite serializes all writers through
// its single-writer transaction model with a busy timeout. Either bound
// expiring surfaces as a busy error.
type CalendarAdapter struct {
	client         Client
	db             *goqu.Database
	lockWait       time.Duration
	branchCapacity int
}

// NewCalendarAdapter creates a new calendar adapter. branchCapacity caps
// simultaneous overlapping reservations per branch; zero disables the cap.
func NewCalendarAdapter(client Client, lockWait time.Duration, branchCapacity int) repositories.CalendarRepository {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	return &CalendarAdapter{
		client:         client,
		db:             goqu.New(client.Dialect(), client.DB()),
		lockWait:       lockWait,
		branchCapacity: branchCapacity,
	}
}

// Reserve commits a slot for the veterinarian covering the interval
func (a *CalendarAdapter) Reserve(ctx context.Context, vetID, branchID string, interval entities.Interval) (*entities.CalendarSlot, error) {
	if !interval.Valid() {
		return nil, apperrors.NewValidationError("reservation interval must have positive length")
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin reservation transaction", err)
	}
	defer rollback(tx)

	if err := a.lockVetCalendar(ctx, tx, vetID); err != nil {
		return nil, err
	}

	conflict, err := a.hasOverlap(ctx, tx, goqu.Ex{"veterinarian_id": vetID}, interval)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, apperrors.NewSchedulingConflictError(
			fmt.Sprintf("interval [%s, %s) overlaps an existing reservation for veterinarian %s",
				interval.Start.Format(time.RFC3339), interval.End.Format(time.RFC3339), vetID))
	}

	if a.branchCapacity > 0 {
		if err := a.checkBranchCapacity(ctx, tx, branchID, interval); err != nil {
			return nil, err
		}
	}

	slot := &entities.CalendarSlot{
		ID:             uuid.New().String(),
		VeterinarianID: vetID,
		BranchID:       branchID,
		StartsAt:       interval.Start,
		EndsAt:         interval.End,
		CreatedAt:      time.Now().UTC(),
	}

	query, args, err := a.db.Insert("calendar_slots").Rows(goqu.Record{
		"id":              slot.ID,
		"veterinarian_id": slot.VeterinarianID,
		"branch_id":       slot.BranchID,
		"starts_at":       slot.StartsAt,
		"ends_at":         slot.EndsAt,
		"created_at":      slot.CreatedAt,
	}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build slot insert query", err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("veterinarian calendar")
		}
		return nil, apperrors.NewInternalError("failed to insert calendar slot", err)
	}

	if err := tx.Commit(); err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("veterinarian calendar")
		}
		return nil, apperrors.NewInternalError("failed to commit reservation", err)
	}

	return slot, nil
}

// Release frees a reservation. Releasing an unknown slot is a no-op.
func (a *CalendarAdapter) Release(ctx context.Context, slotID string) error {
	query, args, err := a.db.Delete("calendar_slots").Where(goqu.Ex{"id": slotID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build slot delete query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("veterinarian calendar")
		}
		return apperrors.NewInternalError("failed to release calendar slot", err)
	}
	return nil
}

// Query returns the reserved intervals for a veterinarian between from and
// to, ordered by start time
func (a *CalendarAdapter) Query(ctx context.Context, vetID string, from, to time.Time) ([]entities.Interval, error) {
	query, args, err := a.db.Select("starts_at", "ends_at").
		From("calendar_slots").
		Where(goqu.Ex{"veterinarian_id": vetID},
			goqu.C("starts_at").Lt(to),
			goqu.C("ends_at").Gt(from)).
		Order(goqu.C("starts_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build calendar query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query calendar", err)
	}
	defer rows.Close()

	intervals := []entities.Interval{}
	for rows.Next() {
		var iv entities.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, apperrors.NewInternalError("failed to scan calendar slot", err)
		}
		intervals = append(intervals, iv)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate calendar slots", err)
	}

	return intervals, nil
}

// lockVetCalendar serializes the transaction against other reservations
// for the same veterinarian. SQLite needs no explicit lock: its writer
// lock already serializes the transaction.
func (a *CalendarAdapter) lockVetCalendar(ctx context.Context, tx *sql.Tx, vetID string) error {
	if a.client.Dialect() != "postgres" {
		return nil
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", a.lockWait.Milliseconds())); err != nil {
		return apperrors.NewInternalError("failed to set lock timeout", err)
	}
	if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", vetID); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("veterinarian calendar")
		}
		return apperrors.NewInternalError("failed to lock veterinarian calendar", err)
	}
	return nil
}

// hasOverlap reports whether any committed slot matching the filter
// overlaps the half-open interval: starts_at < end AND ends_at > start.
func (a *CalendarAdapter) hasOverlap(ctx context.Context, tx *sql.Tx, filter goqu.Ex, interval entities.Interval) (bool, error) {
	query, args, err := a.db.Select(goqu.COUNT("id")).
		From("calendar_slots").
		Where(filter,
			goqu.C("starts_at").Lt(interval.End),
			goqu.C("ends_at").Gt(interval.Start)).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build overlap query", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		if isBusyErr(err) {
			return false, apperrors.NewBusyError("veterinarian calendar")
		}
		return false, apperrors.NewInternalError("failed to check slot overlap", err)
	}
	return count > 0, nil
}

// checkBranchCapacity rejects the reservation when the branch already has
// branchCapacity overlapping slots across all veterinarians.
func (a *CalendarAdapter) checkBranchCapacity(ctx context.Context, tx *sql.Tx, branchID string, interval entities.Interval) error {
	query, args, err := a.db.Select(goqu.COUNT("id")).
		From("calendar_slots").
		Where(goqu.Ex{"branch_id": branchID},
			goqu.C("starts_at").Lt(interval.End),
			goqu.C("ends_at").Gt(interval.Start)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build capacity query", err)
	}

	var count int
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return apperrors.NewInternalError("failed to check branch capacity", err)
	}
	if count >= a.branchCapacity {
		return apperrors.NewSchedulingConflictError(
			fmt.Sprintf("branch %s is at capacity (%d simultaneous appointments)", branchID, a.branchCapacity))
	}
	return nil
}
