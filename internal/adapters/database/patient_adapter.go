package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// PatientAdapter implements the PatientRepository interface
type PatientAdapter struct {
	client Client
	db     *goqu.Database
}

// NewPatientAdapter creates a new patient adapter
func NewPatientAdapter(client Client) repositories.PatientRepository {
	return &PatientAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

var patientColumns = []interface{}{
	"id", "owner_id", "name", "species", "breed", "sex",
	"date_of_birth", "is_active", "created_at", "updated_at",
}

// GetByID retrieves a patient by ID
func (a *PatientAdapter) GetByID(ctx context.Context, id string) (*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).From("patients").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	patient, err := scanPatient(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("patient", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get patient", err)
	}
	return patient, nil
}

// GetByIDs retrieves patients by IDs in one round trip. Missing IDs are
// omitted from the result, not errors.
func (a *PatientAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Patient, error) {
	if len(ids) == 0 {
		return []*entities.Patient{}, nil
	}

	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build batch query", err)
	}
	return a.queryPatients(ctx, query, args)
}

// ListByOwner retrieves an owner's active patients, ordered by name
func (a *PatientAdapter) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"owner_id": ownerID, "is_active": true}).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}
	return a.queryPatients(ctx, query, args)
}

// ListActive retrieves all active patients ordered by ID for a stable
// sweep order
func (a *PatientAdapter) ListActive(ctx context.Context) ([]*entities.Patient, error) {
	query, args, err := a.db.Select(patientColumns...).
		From("patients").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.C("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}
	return a.queryPatients(ctx, query, args)
}

func (a *PatientAdapter) queryPatients(ctx context.Context, query string, args []interface{}) ([]*entities.Patient, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query patients", err)
	}
	defer rows.Close()

	patients := []*entities.Patient{}
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan patient", err)
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate patients", err)
	}
	return patients, nil
}

func scanPatient(row rowScanner) (*entities.Patient, error) {
	patient := &entities.Patient{}
	var breed sql.NullString

	err := row.Scan(
		&patient.ID,
		&patient.OwnerID,
		&patient.Name,
		&patient.Species,
		&breed,
		&patient.Sex,
		&patient.DateOfBirth,
		&patient.IsActive,
		&patient.CreatedAt,
		&patient.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	patient.Breed = breed.String
	return patient, nil
}

// OwnerAdapter implements the OwnerRepository interface
type OwnerAdapter struct {
	client Client
	db     *goqu.Database
}

// NewOwnerAdapter creates a new owner adapter
func NewOwnerAdapter(client Client) repositories.OwnerRepository {
	return &OwnerAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

// GetByID retrieves an owner by ID
func (a *OwnerAdapter) GetByID(ctx context.Context, id string) (*entities.Owner, error) {
	query, args, err := a.db.Select("id", "full_name", "phone", "whatsapp_phone", "email", "created_at", "updated_at").
		From("owners").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	owner := &entities.Owner{}
	var whatsappPhone, email sql.NullString
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&owner.ID,
		&owner.FullName,
		&owner.Phone,
		&whatsappPhone,
		&email,
		&owner.CreatedAt,
		&owner.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("owner", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get owner", err)
	}
	owner.WhatsAppPhone = whatsappPhone.String
	owner.Email = email.String
	return owner, nil
}
