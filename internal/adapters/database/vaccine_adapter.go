package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// VaccineAdapter implements the VaccineRepository interface
type VaccineAdapter struct {
	client Client
	db     *goqu.Database
}

// NewVaccineAdapter creates a new vaccine adapter
func NewVaccineAdapter(client Client) repositories.VaccineRepository {
	return &VaccineAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

var catalogColumns = []interface{}{
	"id", "species", "name", "description",
	"recommended_age_value", "recommended_age_unit",
	"booster_interval_value", "booster_interval_unit", "booster_note",
	"sequence_order", "predecessor_id",
}

// ListCatalog retrieves the catalog entries for a species, ordered by
// sequence order
func (a *VaccineAdapter) ListCatalog(ctx context.Context, species entities.Species) ([]*entities.VaccineCatalogEntry, error) {
	query, args, err := a.db.Select(catalogColumns...).
		From("vaccine_catalog").
		Where(goqu.Ex{"species": species}).
		Order(goqu.C("sequence_order").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build catalog query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list vaccine catalog", err)
	}
	defer rows.Close()

	entries := []*entities.VaccineCatalogEntry{}
	for rows.Next() {
		entry, err := scanCatalogEntry(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan catalog entry", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate catalog entries", err)
	}
	return entries, nil
}

// GetCatalogEntry retrieves a catalog entry by ID
func (a *VaccineAdapter) GetCatalogEntry(ctx context.Context, id string) (*entities.VaccineCatalogEntry, error) {
	query, args, err := a.db.Select(catalogColumns...).
		From("vaccine_catalog").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build catalog query", err)
	}

	entry, err := scanCatalogEntry(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("vaccine catalog entry", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get catalog entry", err)
	}
	return entry, nil
}

// RecordAdministration appends an administration after checking date
// monotonicity for the (patient, entry) pair inside one transaction
func (a *VaccineAdapter) RecordAdministration(ctx context.Context, admin *entities.VaccineAdministration) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin administration transaction", err)
	}
	defer rollback(tx)

	latestQuery, args, err := a.db.Select(goqu.MAX("applied_at")).
		From("vaccine_administrations").
		Where(goqu.Ex{"patient_id": admin.PatientID, "catalog_entry_id": admin.CatalogEntryID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build latest administration query", err)
	}

	var latest sql.NullTime
	if err := tx.QueryRowContext(ctx, latestQuery, args...).Scan(&latest); err != nil {
		return apperrors.NewInternalError("failed to check administration history", err)
	}
	if latest.Valid && admin.AppliedAt.Before(latest.Time) {
		return apperrors.NewValidationError(fmt.Sprintf(
			"administration date %s precedes the latest recorded dose on %s",
			admin.AppliedAt.Format("2006-01-02"), latest.Time.Format("2006-01-02")))
	}

	insertQuery, args, err := a.db.Insert("vaccine_administrations").Rows(goqu.Record{
		"id":               admin.ID,
		"patient_id":       admin.PatientID,
		"catalog_entry_id": admin.CatalogEntryID,
		"veterinarian_id":  admin.VeterinarianID,
		"applied_at":       admin.AppliedAt,
		"notes":            admin.Notes,
		"created_at":       admin.CreatedAt,
	}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build administration insert query", err)
	}
	if _, err := tx.ExecContext(ctx, insertQuery, args...); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("vaccine administrations")
		}
		return apperrors.NewInternalError("failed to insert administration", err)
	}

	if err := tx.Commit(); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("vaccine administrations")
		}
		return apperrors.NewInternalError("failed to commit administration", err)
	}
	return nil
}

// ListAdministrations retrieves a patient's administration history,
// ordered by applied date
func (a *VaccineAdapter) ListAdministrations(ctx context.Context, patientID string) ([]*entities.VaccineAdministration, error) {
	query, args, err := a.db.Select("id", "patient_id", "catalog_entry_id", "veterinarian_id", "applied_at", "notes", "created_at").
		From("vaccine_administrations").
		Where(goqu.Ex{"patient_id": patientID}).
		Order(goqu.C("applied_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build administration list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list administrations", err)
	}
	defer rows.Close()

	admins := []*entities.VaccineAdministration{}
	for rows.Next() {
		admin := &entities.VaccineAdministration{}
		var vetID, notes sql.NullString
		if err := rows.Scan(&admin.ID, &admin.PatientID, &admin.CatalogEntryID, &vetID, &admin.AppliedAt, &notes, &admin.CreatedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan administration", err)
		}
		if vetID.Valid {
			admin.VeterinarianID = &vetID.String
		}
		admin.Notes = notes.String
		admins = append(admins, admin)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate administrations", err)
	}
	return admins, nil
}

func scanCatalogEntry(row rowScanner) (*entities.VaccineCatalogEntry, error) {
	entry := &entities.VaccineCatalogEntry{}
	var description, boosterNote, predecessorID sql.NullString
	var ageValue int
	var ageUnit string
	var boosterValue sql.NullInt64
	var boosterUnit sql.NullString

	err := row.Scan(
		&entry.ID,
		&entry.Species,
		&entry.Name,
		&description,
		&ageValue,
		&ageUnit,
		&boosterValue,
		&boosterUnit,
		&boosterNote,
		&entry.SequenceOrder,
		&predecessorID,
	)
	if err != nil {
		return nil, err
	}

	entry.Description = description.String
	entry.BoosterNote = boosterNote.String
	entry.RecommendedAge = entities.AgeSpan{Value: ageValue, Unit: entities.TimeUnit(ageUnit)}
	if boosterValue.Valid && boosterUnit.Valid {
		entry.BoosterInterval = &entities.AgeSpan{
			Value: int(boosterValue.Int64),
			Unit:  entities.TimeUnit(boosterUnit.String),
		}
	}
	if predecessorID.Valid {
		entry.PredecessorID = &predecessorID.String
	}
	return entry, nil
}
