package database

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// BranchAdapter implements the BranchRepository interface
type BranchAdapter struct {
	client Client
	db     *goqu.Database
}

// NewBranchAdapter creates a new branch adapter
func NewBranchAdapter(client Client) repositories.BranchRepository {
	return &BranchAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

var branchColumns = []interface{}{
	"id", "name", "address", "phone", "whatsapp_phone",
	"schedule_note", "is_active", "created_at", "updated_at",
}

// GetByID retrieves a branch by ID
func (a *BranchAdapter) GetByID(ctx context.Context, id string) (*entities.Branch, error) {
	query, args, err := a.db.Select(branchColumns...).From("branches").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	branch, err := scanBranch(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("branch", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get branch", err)
	}
	return branch, nil
}

// List retrieves all active branches, ordered by name
func (a *BranchAdapter) List(ctx context.Context) ([]*entities.Branch, error) {
	query, args, err := a.db.Select(branchColumns...).
		From("branches").
		Where(goqu.Ex{"is_active": true}).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list branches", err)
	}
	defer rows.Close()

	branches := []*entities.Branch{}
	for rows.Next() {
		branch, err := scanBranch(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan branch", err)
		}
		branches = append(branches, branch)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate branches", err)
	}
	return branches, nil
}

func scanBranch(row rowScanner) (*entities.Branch, error) {
	branch := &entities.Branch{}
	var whatsappPhone, scheduleNote sql.NullString

	err := row.Scan(
		&branch.ID,
		&branch.Name,
		&branch.Address,
		&branch.Phone,
		&whatsappPhone,
		&scheduleNote,
		&branch.IsActive,
		&branch.CreatedAt,
		&branch.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	branch.WhatsAppPhone = whatsappPhone.String
	branch.ScheduleNote = scheduleNote.String
	return branch, nil
}

// VeterinarianAdapter implements the VeterinarianRepository interface
type VeterinarianAdapter struct {
	client Client
	db     *goqu.Database
}

// NewVeterinarianAdapter creates a new veterinarian adapter
func NewVeterinarianAdapter(client Client) repositories.VeterinarianRepository {
	return &VeterinarianAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

var veterinarianColumns = []interface{}{
	"id", "branch_id", "full_name", "specialty",
	"license_number", "is_active", "created_at", "updated_at",
}

// GetByID retrieves a veterinarian by ID
func (a *VeterinarianAdapter) GetByID(ctx context.Context, id string) (*entities.Veterinarian, error) {
	query, args, err := a.db.Select(veterinarianColumns...).From("veterinarians").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	vet, err := scanVeterinarian(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("veterinarian", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get veterinarian", err)
	}
	return vet, nil
}

// GetByIDs retrieves veterinarians by IDs in one round trip. Missing IDs
// are omitted from the result, not errors.
func (a *VeterinarianAdapter) GetByIDs(ctx context.Context, ids []string) ([]*entities.Veterinarian, error) {
	if len(ids) == 0 {
		return []*entities.Veterinarian{}, nil
	}

	query, args, err := a.db.Select(veterinarianColumns...).
		From("veterinarians").
		Where(goqu.C("id").In(ids)).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build batch query", err)
	}
	return a.queryVeterinarians(ctx, query, args)
}

// ListByBranch retrieves the active veterinarians assigned to a branch
func (a *VeterinarianAdapter) ListByBranch(ctx context.Context, branchID string) ([]*entities.Veterinarian, error) {
	query, args, err := a.db.Select(veterinarianColumns...).
		From("veterinarians").
		Where(goqu.Ex{"branch_id": branchID, "is_active": true}).
		Order(goqu.C("full_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}
	return a.queryVeterinarians(ctx, query, args)
}

func (a *VeterinarianAdapter) queryVeterinarians(ctx context.Context, query string, args []interface{}) ([]*entities.Veterinarian, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to query veterinarians", err)
	}
	defer rows.Close()

	vets := []*entities.Veterinarian{}
	for rows.Next() {
		vet, err := scanVeterinarian(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan veterinarian", err)
		}
		vets = append(vets, vet)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate veterinarians", err)
	}
	return vets, nil
}

func scanVeterinarian(row rowScanner) (*entities.Veterinarian, error) {
	vet := &entities.Veterinarian{}
	var license sql.NullString

	err := row.Scan(
		&vet.ID,
		&vet.BranchID,
		&vet.FullName,
		&vet.Specialty,
		&license,
		&vet.IsActive,
		&vet.CreatedAt,
		&vet.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	vet.LicenseNumber = license.String
	return vet, nil
}
