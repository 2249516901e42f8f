package database

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

func TestDrugAdapter_RecordUsage(t *testing.T) {
	t.Run("decrements stock and appends the usage atomically", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewDrugAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "drugs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO "treatment_usages"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		usage, err := adapter.RecordUsage(context.Background(), "appt-1", "drug-1", 2)
		require.NoError(t, err)
		assert.Equal(t, "drug-1", usage.DrugID)
		assert.Equal(t, 2, usage.Quantity)
		assert.NotEmpty(t, usage.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects the usage when the guard blocks the decrement", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewDrugAdapter(client)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "drugs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(`SELECT "name", "stock" FROM "drugs"`).
			WillReturnRows(sqlmock.NewRows([]string{"name", "stock"}).AddRow("Amoxicillin", 1))
		mock.ExpectRollback()

		_, err := adapter.RecordUsage(context.Background(), "appt-1", "drug-1", 5)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInsufficientStock))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive quantities before touching the database", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewDrugAdapter(client)

		_, err := adapter.RecordUsage(context.Background(), "appt-1", "drug-1", 0)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDrugAdapter_ReverseUsage(t *testing.T) {
	t.Run("restores stock and removes the usage", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewDrugAdapter(client)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "drug_id", "quantity" FROM "treatment_usages"`).
			WillReturnRows(sqlmock.NewRows([]string{"drug_id", "quantity"}).AddRow("drug-1", 3))
		mock.ExpectExec(`UPDATE "drugs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM "treatment_usages"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := adapter.ReverseUsage(context.Background(), "usage-1")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("maps an unknown usage to not found", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewDrugAdapter(client)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT "drug_id", "quantity" FROM "treatment_usages"`).
			WillReturnRows(sqlmock.NewRows([]string{"drug_id", "quantity"}))
		mock.ExpectRollback()

		err := adapter.ReverseUsage(context.Background(), "missing")
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDrugAdapter_Restock(t *testing.T) {
	t.Run("maps an unknown drug to not found", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewDrugAdapter(client)

		mock.ExpectExec(`UPDATE "drugs" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		_, err := adapter.Restock(context.Background(), "missing", 10)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		client, mock := setupMockClient(t)
		adapter := NewDrugAdapter(client)

		_, err := adapter.Restock(context.Background(), "drug-1", -1)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCalendarAdapter_Reserve(t *testing.T) {
	// sqlite dialect keeps the reservation path free of advisory lock
	// statements, which are postgres-only
	newSqliteClient := func(t *testing.T) (*mockClient, sqlmock.Sqlmock) {
		t.Helper()
		client, mock := setupMockClient(t)
		client.dialect = "sqlite3"
		return client, mock
	}

	start, err := time.Parse(time.RFC3339, "2026-03-02T10:00:00Z")
	require.NoError(t, err)
	interval := entities.NewInterval(start, 30)

	t.Run("inserts the slot when the interval is free", func(t *testing.T) {
		client, mock := newSqliteClient(t)
		adapter := NewCalendarAdapter(client, 0, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(.+\) FROM .calendar_slots.`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectExec(`INSERT INTO .calendar_slots.`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		slot, err := adapter.Reserve(context.Background(), "vet-1", "branch-1", interval)
		require.NoError(t, err)
		assert.Equal(t, "vet-1", slot.VeterinarianID)
		assert.True(t, slot.StartsAt.Equal(interval.Start))
		assert.True(t, slot.EndsAt.Equal(interval.End))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects an overlapping interval", func(t *testing.T) {
		client, mock := newSqliteClient(t)
		adapter := NewCalendarAdapter(client, 0, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(.+\) FROM .calendar_slots.`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectRollback()

		_, err := adapter.Reserve(context.Background(), "vet-1", "branch-1", interval)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSchedulingConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects a branch at capacity", func(t *testing.T) {
		client, mock := newSqliteClient(t)
		adapter := NewCalendarAdapter(client, 0, 2)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT COUNT\(.+\) FROM .calendar_slots.`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT COUNT\(.+\) FROM .calendar_slots.`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
		mock.ExpectRollback()

		_, err := adapter.Reserve(context.Background(), "vet-1", "branch-1", interval)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeSchedulingConflict))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
