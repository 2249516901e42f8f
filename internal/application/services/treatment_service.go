package services

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
)

// TreatmentService manages drug inventory: usage against appointments,
// reversals and restocking.
type TreatmentService struct {
	drugs        repositories.DrugRepository
	appointments repositories.AppointmentRepository
	eventBus     providers.EventBus
}

// NewTreatmentService creates a new treatment service. eventBus may be
// nil.
func NewTreatmentService(
	drugs repositories.DrugRepository,
	appointments repositories.AppointmentRepository,
	eventBus providers.EventBus,
) *TreatmentService {
	return &TreatmentService{
		drugs:        drugs,
		appointments: appointments,
		eventBus:     eventBus,
	}
}

// GetDrug retrieves a drug by ID
func (s *TreatmentService) GetDrug(ctx context.Context, id string) (*entities.Drug, error) {
	return s.drugs.GetByID(ctx, id)
}

// ListByBranch retrieves the inventory of a branch
func (s *TreatmentService) ListByBranch(ctx context.Context, branchID string) ([]*entities.Drug, error) {
	return s.drugs.ListByBranch(ctx, branchID)
}

// RecordUsage consumes stock against an appointment outside the
// completion flow, for mid-visit corrections.
func (s *TreatmentService) RecordUsage(ctx context.Context, appointmentID, drugID string, quantity int) (*entities.TreatmentUsage, error) {
	if quantity <= 0 {
		return nil, apperrors.NewValidationError("usage quantity must be positive")
	}
	appointment, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appointment.Status.IsTerminal() && appointment.Status != entities.AppointmentStatusCompleted {
		return nil, apperrors.NewValidationError("cannot record usage against a cancelled or no-show appointment")
	}

	usage, err := s.drugs.RecordUsage(ctx, appointmentID, drugID, quantity)
	if err != nil {
		return nil, err
	}

	s.publishStockChange(ctx, drugID, appointment.BranchID, -quantity)
	return usage, nil
}

// ReverseUsage undoes a committed usage, restoring stock
func (s *TreatmentService) ReverseUsage(ctx context.Context, usageID string) error {
	return s.drugs.ReverseUsage(ctx, usageID)
}

// Restock increases a drug's stock by a positive quantity
func (s *TreatmentService) Restock(ctx context.Context, drugID string, quantity int) (*entities.Drug, error) {
	drug, err := s.drugs.Restock(ctx, drugID, quantity)
	if err != nil {
		return nil, err
	}

	s.publishStockChange(ctx, drugID, drug.BranchID, quantity)
	return drug, nil
}

// ListUsagesByAppointment retrieves the usages committed against an
// appointment
func (s *TreatmentService) ListUsagesByAppointment(ctx context.Context, appointmentID string) ([]*entities.TreatmentUsage, error) {
	return s.drugs.ListUsagesByAppointment(ctx, appointmentID)
}

func (s *TreatmentService) publishStockChange(ctx context.Context, drugID, branchID string, delta int) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewClinicEvent(entities.ClinicEventStockChanged, drugID)
	event.BranchID = branchID
	event.Payload["delta"] = delta

	if err := s.eventBus.Publish(ctx, providers.EventChannelStock, event); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("drug_id", drugID).Msg("failed to publish stock event")
	}
}
