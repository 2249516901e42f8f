package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// DrugAdapter implements the DrugRepository (stock ledger) interface.
// Stock mutations are conditional updates guarded on the current quantity,
// so concurrent usages of the same drug serialize on the row and committed
// stock never goes negative.
type DrugAdapter struct {
	client Client
	db     *goqu.Database
}

// NewDrugAdapter creates a new drug adapter
func NewDrugAdapter(client Client) repositories.DrugRepository {
	return &DrugAdapter{
		client: client,
		db:     goqu.New(client.Dialect(), client.DB()),
	}
}

var drugColumns = []interface{}{
	"id", "branch_id", "name", "category", "description",
	"stock", "is_active", "created_at", "updated_at",
}

// GetByID retrieves a drug by ID
func (a *DrugAdapter) GetByID(ctx context.Context, id string) (*entities.Drug, error) {
	query, args, err := a.db.Select(drugColumns...).From("drugs").Where(goqu.Ex{"id": id}).ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	drug, err := scanDrug(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("drug", id)
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get drug", err)
	}
	return drug, nil
}

// ListByBranch retrieves a branch's inventory, ordered by name
func (a *DrugAdapter) ListByBranch(ctx context.Context, branchID string) ([]*entities.Drug, error) {
	query, args, err := a.db.Select(drugColumns...).
		From("drugs").
		Where(goqu.Ex{"branch_id": branchID, "is_active": true}).
		Order(goqu.C("name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list drugs", err)
	}
	defer rows.Close()

	drugs := []*entities.Drug{}
	for rows.Next() {
		drug, err := scanDrug(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan drug", err)
		}
		drugs = append(drugs, drug)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate drugs", err)
	}
	return drugs, nil
}

// RecordUsage decrements stock and appends the usage row as one atomic
// unit
func (a *DrugAdapter) RecordUsage(ctx context.Context, appointmentID, drugID string, quantity int) (*entities.TreatmentUsage, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("usage quantity must be positive")
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to begin usage transaction", err)
	}
	defer rollback(tx)

	now := time.Now().UTC()
	updateQuery, args, err := a.db.Update("drugs").
		Set(goqu.Record{
			"stock":      goqu.L("stock - ?", quantity),
			"updated_at": now,
		}).
		Where(goqu.Ex{"id": drugID}, goqu.C("stock").Gte(quantity)).
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
		name, stock, err := lookupDrugStock(ctx, tx, a.db, drugID)
		if err != nil {
			return nil, err
		}
		return nil, apperrors.NewInsufficientStockError(name, stock)
	}

	usage := &entities.TreatmentUsage{
		ID:            uuid.New().String(),
		AppointmentID: appointmentID,
		DrugID:        drugID,
		Quantity:      quantity,
		RecordedAt:    now,
	}

	insertQuery, args, err := a.db.Insert("treatment_usages").Rows(goqu.Record{
		"id":             usage.ID,
		"appointment_id": usage.AppointmentID,
		"drug_id":        usage.DrugID,
		"quantity":       usage.Quantity,
		"recorded_at":    usage.RecordedAt,
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

	if err := tx.Commit(); err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("drug stock")
		}
		return nil, apperrors.NewInternalError("failed to commit usage", err)
	}
	return usage, nil
}

// ReverseUsage re-increments stock and removes the usage atomically
func (a *DrugAdapter) ReverseUsage(ctx context.Context, usageID string) error {
	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin reversal transaction", err)
	}
	defer rollback(tx)

	selectQuery, args, err := a.db.Select("drug_id", "quantity").
		From("treatment_usages").
		Where(goqu.Ex{"id": usageID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build usage lookup query", err)
	}

	var drugID string
	var quantity int
	err = tx.QueryRowContext(ctx, selectQuery, args...).Scan(&drugID, &quantity)
	if err == sql.ErrNoRows {
		return apperrors.NewNotFoundError("treatment usage", usageID)
	}
	if err != nil {
		return apperrors.NewInternalError("failed to look up treatment usage", err)
	}

	updateQuery, args, err := a.db.Update("drugs").
		Set(goqu.Record{
			"stock":      goqu.L("stock + ?", quantity),
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": drugID}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build restock query", err)
	}
	if _, err := tx.ExecContext(ctx, updateQuery, args...); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("drug stock")
		}
		return apperrors.NewInternalError("failed to restore stock", err)
	}

	deleteQuery, args, err := a.db.Delete("treatment_usages").Where(goqu.Ex{"id": usageID}).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build usage delete query", err)
	}
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("treatment usages")
		}
		return apperrors.NewInternalError("failed to delete treatment usage", err)
	}

	if err := tx.Commit(); err != nil {
		if isBusyErr(err) {
			return apperrors.NewBusyError("drug stock")
		}
		return apperrors.NewInternalError("failed to commit reversal", err)
	}
	return nil
}

// Restock atomically increments stock by quantity
func (a *DrugAdapter) Restock(ctx context.Context, drugID string, quantity int) (*entities.Drug, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("restock quantity must be positive")
	}

	query, args, err := a.db.Update("drugs").
		Set(goqu.Record{
			"stock":      goqu.L("stock + ?", quantity),
			"updated_at": time.Now().UTC(),
		}).
		Where(goqu.Ex{"id": drugID}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build restock query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		if isBusyErr(err) {
			return nil, apperrors.NewBusyError("drug stock")
		}
		return nil, apperrors.NewInternalError("failed to restock drug", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get rows affected", err)
	}
	if affected == 0 {
		return nil, apperrors.NewNotFoundError("drug", drugID)
	}

	return a.GetByID(ctx, drugID)
}

// ListUsagesByAppointment retrieves the usages committed against an
// appointment, in recording order
func (a *DrugAdapter) ListUsagesByAppointment(ctx context.Context, appointmentID string) ([]*entities.TreatmentUsage, error) {
	query, args, err := a.db.Select("id", "appointment_id", "drug_id", "quantity", "recorded_at").
		From("treatment_usages").
		Where(goqu.Ex{"appointment_id": appointmentID}).
		Order(goqu.C("recorded_at").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build usage list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list treatment usages", err)
	}
	defer rows.Close()

	usages := []*entities.TreatmentUsage{}
	for rows.Next() {
		usage := &entities.TreatmentUsage{}
		if err := rows.Scan(&usage.ID, &usage.AppointmentID, &usage.DrugID, &usage.Quantity, &usage.RecordedAt); err != nil {
			return nil, apperrors.NewInternalError("failed to scan treatment usage", err)
		}
		usages = append(usages, usage)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("failed to iterate treatment usages", err)
	}
	return usages, nil
}

func scanDrug(row rowScanner) (*entities.Drug, error) {
	drug := &entities.Drug{}
	var description sql.NullString

	err := row.Scan(
		&drug.ID,
		&drug.BranchID,
		&drug.Name,
		&drug.Category,
		&description,
		&drug.Stock,
		&drug.IsActive,
		&drug.CreatedAt,
		&drug.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	drug.Description = description.String
	return drug, nil
}
