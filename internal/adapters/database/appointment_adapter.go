package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// AppointmentAdapter implements the AppointmentRepository interface
type AppointmentAdapter struct {
	client Client
	db     *goqu.Database
}

// NewAppointmentAdapter creates a new appointment adapter
func NewAppointmentAdapter(client Client) repositories.AppointmentRepository {
	return &AppointmentAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

var appointmentColumns = []interface{}{
	"id", "patient_id", "veterinarian_id", "branch_id", "slot_id",
	"type", "status", "requested_date", "scheduled_at", "duration_minutes",
	"notes", "cancel_reason", "created_at", "updated_at",
}

// Create creates a new appointment
func (a *AppointmentAdapter) Create(ctx context.Context, appointment *entities.Appointment) error {
	record := goqu.Record{
		"id":               appointment.ID,
		"patient_id":       appointment.PatientID,
		"veterinarian_id":  appointment.VeterinarianID,
		"branch_id":        appointment.BranchID,
		"slot_id":          appointment.SlotID,
		"type":             appointment.Type,
		"status":           appointment.Status,
		"requested_date":   appointment.RequestedDate,
		"scheduled_at":     appointment.ScheduledAt,
		"duration_minutes": appointment.DurationMinutes,
		"notes":            appointment.Notes,
		"cancel_reason":    appointment.CancelReason,
		"created_at":       appointment.CreatedAt,
		"updated_at":       appointment.UpdatedAt,
	}

	query, args, err := a.db.Insert("appointments").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	if _, err := a.client.DB().ExecContext(ctx, query, args...); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("appointments")
		}
		return apperrors.NewInternalError("failed to create appointment", err)
	}
	return nil
}

// GetByID retrieves an appointment by ID
func (a *AppointmentAdapter) GetByID(ctx context.Context, id string) (*entities.Appointment, error) {
	query, args, err := a.db.Select(appointmentColumns...).
		From("appointments").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	appointment, err := scanAppointment(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("appointment", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get appointment", err)
	}
	return appointment, nil
}

// List retrieves appointments matching the filter, ordered by scheduled
// start time
func (a *AppointmentAdapter) List(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	ds := a.db.Select(appointmentColumns...).From("appointments")

	if filter.VeterinarianID != "" {
		ds = ds.Where(goqu.Ex{"veterinarian_id": filter.VeterinarianID})
	}
	if filter.PatientID != "" {
		ds = ds.Where(goqu.Ex{"patient_id": filter.PatientID})
	}
	if filter.BranchID != "" {
		ds = ds.Where(goqu.Ex{"branch_id": filter.BranchID})
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("scheduled_at").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("scheduled_at").Lt(*filter.To))
	}

	ds = ds.Order(goqu.C("scheduled_at").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list appointments", err)
	}
	defer rows.Close()

	appointments := []*entities.Appointment{}
	for rows.Next() {
		appointment, err := scanAppointment(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan appointment", err)
		}
		appointments = append(appointments, appointment)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate appointments", err)
	}
	return appointments, nil
}

// UpdateStatus transitions an appointment with a compare-and-swap on the
// expected current status
func (a *AppointmentAdapter) UpdateStatus(ctx context.Context, id string, from, to entities.AppointmentStatus, cancelReason string) error {
	record := goqu.Record{
		"status":     to,
		"updated_at": time.Now().UTC(),
	}
	if cancelReason != "" {
		record["cancel_reason"] = cancelReason
	}

	query, args, err := a.db.Update("appointments").
		Set(record).
		Where(goqu.Ex{"id": id, "status": from}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build status update query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("appointments")
		}
		return apperrors.NewInternalError("failed to update appointment status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		// Distinguish a stale status from a missing row
		current, getErr := a.GetByID(ctx, id)
		if getErr != nil {
			return getErr
		}
		return apperrors.NewInvalidTransitionError(string(current.Status), string(to))
	}
	return nil
}

// Complete atomically creates the clinical record, commits every drug
// usage against stock and transitions the appointment from confirmed to
// completed. One transaction: any failure rolls the whole unit back.
func (a *AppointmentAdapter) Complete(ctx context.Context, appointmentID string, record *entities.ClinicalRecord, usages []entities.UsageRequest) ([]*entities.TreatmentUsage, error) {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin completion transaction", err)
	}
	defer rollback(tx)

	committed := make([]*entities.TreatmentUsage, 0, len(usages))
	now := time.Now().UTC()

	for _, usage := range usages {
		u, err := a.consumeStock(ctx, tx, appointmentID, usage, now)
		if err != nil {
			return nil, err
		}
		committed = append(committed, u)
	}

	recordQuery, args, err := a.db.Insert("clinical_records").Rows(goqu.Record{
		"id":              record.ID,
		"appointment_id":  record.AppointmentID,
		"patient_id":      record.PatientID,
		"veterinarian_id": record.VeterinarianID,
		"diagnosis":       record.Diagnosis,
		"treatment":       record.Treatment,
		"notes":           record.Notes,
		"weight_kg":       record.WeightKg,
		"temperature_c":   record.TemperatureC,
		"exam_refs":       record.ExamRefs,
		"next_control_at": record.NextControlAt,
		"no_next_control": record.NoNextControl,
		"created_at":      record.CreatedAt,
		"updated_at":      record.UpdatedAt,
	}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build record insert query", err)
	}
	if _, err := tx.ExecContext(ctx, recordQuery, args...); err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("clinical records")
		}
		return nil, apperrors.NewInternalError("failed to insert clinical record", err)
	}

	// Status compare-and-swap last: zero rows means the appointment was
	// not confirmed anymore (or never existed) and the unit must abort.
	casQuery, args, err := a.db.Update("appointments").
		Set(goqu.Record{"status": entities.AppointmentStatusCompleted, "updated_at": now}).
		Where(goqu.Ex{"id": appointmentID, "status": entities.AppointmentStatusConfirmed}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build completion status query", err)
	}
	result, err := tx.ExecContext(ctx, casQuery, args...)
	if err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("appointments")
		}
		return nil, apperrors.NewInternalError("failed to complete appointment", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		current, getErr := a.GetByID(ctx, appointmentID)
		if getErr != nil {
			return nil, getErr
		}
		return nil, apperrors.NewInvalidTransitionError(string(current.Status), string(entities.AppointmentStatusCompleted))
	}

	if err := tx.Commit(); err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("appointments")
		}
		return nil, apperrors.NewInternalError("failed to commit completion", err)
	}
	return committed, nil
}

// CountOpenByPatient counts non-terminal appointments for a patient
func (a *AppointmentAdapter) CountOpenByPatient(ctx context.Context, patientID string) (int, error) {
	query, args, err := a.db.Select(goqu.COUNT("id")).
		From("appointments").
		Where(goqu.Ex{
			"patient_id": patientID,
			"status":     []string{string(entities.AppointmentStatusRequested), string(entities.AppointmentStatusConfirmed)},
		}).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build count query", err)
	}

	var count int
	if err := a.client.DB().QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, apperrors.NewInternalError("failed to count open appointments", err)
	}
	return count, nil
}

// consumeStock performs the conditional decrement and usage insert for one
// drug inside the completion transaction. The stock >= quantity guard in
// the UPDATE is what keeps committed stock non-negative under concurrency.
func (a *AppointmentAdapter) consumeStock(ctx context.Context, tx *sql.Tx, appointmentID string, usage entities.UsageRequest, now time.Time) (*entities.TreatmentUsage, error) {
	if usage.Quantity <= 0 {
		return nil, apperrors.NewValidationError(fmt.Sprintf("usage quantity for drug %s must be positive", usage.DrugID))
	}

	updateQuery, args, err := a.db.Update("drugs").
		Set(goqu.Record{
			"stock":      goqu.L("stock - ?", usage.Quantity),
			"updated_at": now,
		}).
		Where(goqu.Ex{"id": usage.DrugID}, goqu.C("stock").Gte(usage.Quantity)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build stock update query", err)
	}

	result, err := tx.ExecContext(ctx, updateQuery, args...)
	if err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("drug stock")
		}
		return nil, apperrors.NewInternalError("failed to decrement stock", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		// Zero rows: the drug is missing or the guard rejected the
		// decrement. Re-read inside the transaction to tell them apart.
		name, stock, err := lookupDrugStock(ctx, tx, a.db, usage.DrugID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.NewInsufficientStockError(name, stock)
	}

	treatmentUsage := &entities.TreatmentUsage{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		DrugID:        usage.DrugID,
		Quantity:      usage.Quantity,
		RecordedAt:    now,
	}

	insertQuery, args, err := a.db.Insert("treatment_usages").Rows(goqu.Record{
		"id":             treatmentUsage.ID,
		"appointment_id": treatmentUsage.AppointmentID,
		"drug_id":        treatmentUsage.DrugID,
		"quantity":       treatmentUsage.Quantity,
		"recorded_at":    treatmentUsage.RecordedAt,
	}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build usage insert query", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("treatment usages")
		}
		return nil, apperrors.NewInternalError("failed to insert treatment usage", err)
	}

	return treatmentUsage, nil
}

// lookupDrugStock reads a drug's name and stock inside a transaction,
// mapping a missing row to a not found error.
func lookupDrugStock(ctx context.Context, tx *sql.Tx, db *goqu.Database, drugID string) (string, int, error) {
	query, args, err := db.Select("name", "stock").From("drugs").Where(goqu.Ex{"id": drugID}).ToSQL()
	if err != nil {
		return "", 0, apperrors.NewInternalError("failed to build drug lookup query", err)
	}

	var name string
	var stock int
	err = tx.QueryRowContext(ctx, query, args...).Scan(&name, &stock)
	if err == sql.ErrNoRows {
		return "", 0, apperrors.NewNotFoundError("drug", drugID)
	}
	if err != nil {
		return "", 0, apperrors.NewInternalError("failed to look up drug", err)
	}
	return name, stock, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*entities.Appointment, error) {
	appointment := &entities.Appointment{}
	var requestedDate sql.NullTime
	var notes, cancelReason sql.NullString

	err := row.Scan(
		&appointment.ID,
		&appointment.PatientID,
		&appointment.VeterinarianID,
		&appointment.BranchID,
		&appointment.SlotID,
		&appointment.Type,
		&appointment.Status,
		&requestedDate,
		&appointment.ScheduledAt,
		&appointment.DurationMinutes,
		&notes,
		&cancelReason,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if requestedDate.Valid {
		appointment.RequestedDate = &requestedDate.Time
	}
	appointment.Notes = notes.String
	appointment.CancelReason = cancelReason.String
	return appointment, nil
}
