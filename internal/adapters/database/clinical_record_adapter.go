package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// ClinicalRecordAdapter implements the ClinicalRecordRepository interface.
// Records are only ever written inside the completion transaction, so this
// adapter is read-only.
type ClinicalRecordAdapter struct {
	client Client
	db     *goqu.Database
}

// NewClinicalRecordAdapter creates a new clinical record adapter
func NewClinicalRecordAdapter(client Client) repositories.ClinicalRecordRepository {
	return &ClinicalRecordAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

var clinicalRecordColumns = []interface{}{
	"id", "appointment_id", "patient_id", "veterinarian_id",
	"diagnosis", "treatment", "notes", "weight_kg", "temperature_c",
	"exam_refs", "next_control_at", "no_next_control",
	"created_at", "updated_at",
}

// GetByAppointment retrieves the record created by an appointment's
// completion
func (a *ClinicalRecordAdapter) GetByAppointment(ctx context.Context, appointmentID string) (*entities.ClinicalRecord, error) {
	query, args, err := a.db.Select(clinicalRecordColumns...).
		From("clinical_records").
		Where(goqu.Ex{"appointment_id": appointmentID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	record, err := scanClinicalRecord(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("clinical record for appointment", appointmentID)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get clinical record", err)
	}
	return record, nil
}

// ListByPatient retrieves a patient's clinical history, most recent first
func (a *ClinicalRecordAdapter) ListByPatient(ctx context.Context, patientID string) ([]*entities.ClinicalRecord, error) {
	query, args, err := a.db.Select(clinicalRecordColumns...).
		From("clinical_records").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.C("created_at").Desc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list clinical records", err)
	}
	defer rows.Close()

	records := []*entities.ClinicalRecord{}
	for rows.Next() {
		record, err := scanClinicalRecord(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan clinical record", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate clinical records", err)
	}
	return records, nil
}

func scanClinicalRecord(row rowScanner) (*entities.ClinicalRecord, error) {
	record := &entities.ClinicalRecord{}
	var treatment, notes, examRefs sql.NullString
	var nextControl sql.NullTime

	err := row.Scan(
		&record.ID,
		&record.AppointmentID,
		&record.PatientID,
		&record.VeterinarianID,
		&record.Diagnosis,
		&treatment,
		&notes,
		&record.WeightKg,
		&record.TemperatureC,
		&examRefs,
		&nextControl,
		&record.NoNextControl,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	record.Treatment = treatment.String
	record.Notes = notes.String
	record.ExamRefs = examRefs.String
	if nextControl.Valid {
		record.NextControlAt = &nextControl.Time
	}
	return record, nil
}
