package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/providers"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
	"github.com/caninosoft/vetcore/backend/pkg/config"
	apperrors "github.com/caninosoft/vetcore/backend/pkg/errors"
	"github.com/caninosoft/vetcore/backend/pkg/retry"
)

// BookingRequest carries the input of a booking attempt
type BookingRequest struct {
	PatientID      string                   `json:"patient_id"`
	VeterinarianID string                   `json:"veterinarian_id"`
	BranchID       string                   `json:"branch_id"`
	Type           entities.AppointmentType `json:"type"`
	StartsAt       time.Time                `json:"starts_at"`
	// DurationMinutes falls back to the configured default when zero
	DurationMinutes int        `json:"duration_minutes"`
	RequestedDate   *time.Time `json:"requested_date,omitempty"`
	Notes           string     `json:"notes,omitempty"`
}

// CompletionRequest carries the clinical outcome of a visit
type CompletionRequest struct {
	Diagnosis     string                  `json:"diagnosis"`
	Treatment     string                  `json:"treatment,omitempty"`
	Notes         string                  `json:"notes,omitempty"`
	WeightKg      *decimal.Decimal        `json:"weight_kg,omitempty"`
	TemperatureC  *decimal.Decimal        `json:"temperature_c,omitempty"`
	ExamRefs      string                  `json:"exam_refs,omitempty"`
	NextControlAt *time.Time              `json:"next_control_at,omitempty"`
	NoNextControl bool                    `json:"no_next_control"`
	Usages        []entities.UsageRequest `json:"usages,omitempty"`
}

// CompletionResult is what a successful completion returns
type CompletionResult struct {
	Appointment *entities.Appointment     `json:"appointment"`
	Record      *entities.ClinicalRecord  `json:"record"`
	Usages      []*entities.TreatmentUsage `json:"usages"`
}

// OpenSlot is a free interval suggestion on a veterinarian's calendar
type OpenSlot struct {
	StartsAt        time.Time `json:"starts_at"`
	EndsAt          time.Time `json:"ends_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

// SchedulingService owns the appointment lifecycle: booking against the
// calendar, the state machine transitions and the atomic completion unit.
type SchedulingService struct {
	appointments repositories.AppointmentRepository
	calendar     repositories.CalendarRepository
	records      repositories.ClinicalRecordRepository
	vets         repositories.VeterinarianRepository
	branches     repositories.BranchRepository
	patients     repositories.PatientRepository

	eventBus     providers.EventBus
	notification *NotificationService
	cfg          config.SchedulingConfig

	// now is injected so no-show and future checks are testable
	now func() time.Time
}

// NewSchedulingService creates a new scheduling service. eventBus and
// notification may be nil; both paths are best-effort.
func NewSchedulingService(
	appointments repositories.AppointmentRepository,
	calendar repositories.CalendarRepository,
	records repositories.ClinicalRecordRepository,
	vets repositories.VeterinarianRepository,
	branches repositories.BranchRepository,
	patients repositories.PatientRepository,
	eventBus providers.EventBus,
	notification *NotificationService,
	cfg config.SchedulingConfig,
) *SchedulingService {
	return &SchedulingService{
		appointments: appointments,
		calendar:     calendar,
		records:      records,
		vets:         vets,
		branches:     branches,
		patients:     patients,
		eventBus:     eventBus,
		notification: notification,
		cfg:          cfg,
		now:          time.Now,
	}
}

// WithClock replaces the service clock, used in tests
func (s *SchedulingService) WithClock(now func() time.Time) *SchedulingService {
	s.now = now
	return s
}

// RequestAppointment books a future visit. The reservation and the
// appointment row are created in `requested` state.
func (s *SchedulingService) RequestAppointment(ctx context.Context, req *BookingRequest) (*entities.Appointment, error) {
	if !req.StartsAt.After(s.now()) {
		return nil, apperrors.NewValidationError("appointment must be scheduled in the future")
	}
	return s.book(ctx, req)
}

// BackfillAppointment is the administrative entry point for recording
// historical visits. It skips the future check and is gated by
// configuration.
func (s *SchedulingService) BackfillAppointment(ctx context.Context, req *BookingRequest) (*entities.Appointment, error) {
	if !s.cfg.BackfillEnabled {
		return nil, apperrors.NewValidationError("administrative backfill is disabled")
	}
	return s.book(ctx, req)
}

func (s *SchedulingService) book(ctx context.Context, req *BookingRequest) (*entities.Appointment, error) {
	duration := req.DurationMinutes
	if duration == 0 {
		duration = s.cfg.DefaultDurationMinutes
	}
	if duration <= 0 {
		return nil, apperrors.NewValidationError("appointment duration must be positive")
	}
	if !req.Type.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown appointment type %q", req.Type))
	}

	patient, err := s.patients.GetByID(ctx, req.PatientID)
	if err != nil {
		return nil, err
	}
	if !patient.IsActive {
		return nil, apperrors.NewValidationError(fmt.Sprintf("patient %s is inactive", patient.ID))
	}

	vet, err := s.vets.GetByID(ctx, req.VeterinarianID)
	if err != nil {
		return nil, err
	}
	if !vet.IsActive {
		return nil, apperrors.NewValidationError(fmt.Sprintf("veterinarian %s is inactive", vet.ID))
	}
	if vet.BranchID != req.BranchID {
		return nil, apperrors.NewValidationError(fmt.Sprintf(
			"veterinarian %s is not assigned to branch %s", vet.ID, req.BranchID))
	}
	if _, err := s.branches.GetByID(ctx, req.BranchID); err != nil {
		return nil, err
	}

	interval := entities.NewInterval(req.StartsAt, duration)
	slot, err := s.calendar.Reserve(ctx, req.VeterinarianID, req.BranchID, interval)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	appointment := &entities.Appointment{
		ID:              uuid.New().String(),
		PatientID:       req.PatientID,
		VeterinarianID:  req.VeterinarianID,
		BranchID:        req.BranchID,
		SlotID:          slot.ID,
		Type:            req.Type,
		Status:          entities.AppointmentStatusRequested,
		RequestedDate:   req.RequestedDate,
		ScheduledAt:     req.StartsAt,
		DurationMinutes: duration,
		Notes:           req.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		// The reservation must not outlive a failed booking
		s.releaseSlot(ctx, slot.ID)
		return nil, err
	}

	s.publish(ctx, entities.ClinicEventAppointmentRequested, appointment)
	return appointment, nil
}

// ConfirmAppointment transitions requested → confirmed. Confirming an
// already confirmed appointment is a no-op, making retries safe.
func (s *SchedulingService) ConfirmAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	err := s.appointments.UpdateStatus(ctx, id,
		entities.AppointmentStatusRequested, entities.AppointmentStatusConfirmed, "")
	if err != nil {
		appointment, getErr := s.appointments.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if appointment.Status == entities.AppointmentStatusConfirmed {
			return appointment, nil
		}
		return nil, err
	}

	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publish(ctx, entities.ClinicEventAppointmentConfirmed, appointment)
	s.notifyBookingConfirmation(ctx, appointment)
	return appointment, nil
}

// CompleteAppointment closes a confirmed visit: clinical record, stock
// usages and the transition commit or fail as one unit.
func (s *SchedulingService) CompleteAppointment(ctx context.Context, id string, req *CompletionRequest) (*CompletionResult, error) {
	if req.Diagnosis == "" {
		return nil, apperrors.NewValidationError("clinical record requires a diagnosis")
	}
	if req.NextControlAt != nil && req.NoNextControl {
		return nil, apperrors.NewValidationError("next control date and no-next-control are mutually exclusive")
	}

	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	record := &entities.ClinicalRecord{
		ID:             uuid.New().String(),
		AppointmentID:  appointment.ID,
		PatientID:      appointment.PatientID,
		VeterinarianID: appointment.VeterinarianID,
		Diagnosis:      req.Diagnosis,
		Treatment:      req.Treatment,
		Notes:          req.Notes,
		ExamRefs:       req.ExamRefs,
		NextControlAt:  req.NextControlAt,
		NoNextControl:  req.NoNextControl,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.WeightKg != nil {
		record.WeightKg = decimal.NewNullDecimal(*req.WeightKg)
	}
	if req.TemperatureC != nil {
		record.TemperatureC = decimal.NewNullDecimal(*req.TemperatureC)
	}

	usages, err := s.appointments.Complete(ctx, id, record, req.Usages)
	if err != nil {
		return nil, err
	}

	appointment.Status = entities.AppointmentStatusCompleted
	appointment.UpdatedAt = now

	s.publish(ctx, entities.ClinicEventAppointmentCompleted, appointment)
	return &CompletionResult{Appointment: appointment, Record: record, Usages: usages}, nil
}

// CancelAppointment cancels from requested or confirmed, recording the
// reason and releasing the reservation.
func (s *SchedulingService) CancelAppointment(ctx context.Context, id, reason string) (*entities.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !appointment.Status.CanTransitionTo(entities.AppointmentStatusCancelled) {
		return nil, apperrors.NewInvalidTransitionError(string(appointment.Status), string(entities.AppointmentStatusCancelled))
	}

	if err := s.appointments.UpdateStatus(ctx, id, appointment.Status, entities.AppointmentStatusCancelled, reason); err != nil {
		return nil, err
	}
	s.releaseSlot(ctx, appointment.SlotID)

	appointment.Status = entities.AppointmentStatusCancelled
	appointment.CancelReason = reason

	s.publish(ctx, entities.ClinicEventAppointmentCancelled, appointment)
	s.notifyCancellation(ctx, appointment)
	return appointment, nil
}

// MarkNoShow transitions confirmed → no_show once the scheduled interval
// has fully elapsed, and releases the reservation.
func (s *SchedulingService) MarkNoShow(ctx context.Context, id string) (*entities.Appointment, error) {
	appointment, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status != entities.AppointmentStatusConfirmed {
		return nil, apperrors.NewInvalidTransitionError(string(appointment.Status), string(entities.AppointmentStatusNoShow))
	}
	// A no-show before the interval ends is a state-machine precondition
	// failure, same as a stale CAS
	if s.now().Before(appointment.Interval().End) {
		return nil, &apperrors.AppError{
			Type:    apperrors.ErrorTypeInvalidTransition,
			Message: "appointment interval has not elapsed yet",
		}
	}

	if err := s.appointments.UpdateStatus(ctx, id,
		entities.AppointmentStatusConfirmed, entities.AppointmentStatusNoShow, ""); err != nil {
		return nil, err
	}
	s.releaseSlot(ctx, appointment.SlotID)

	appointment.Status = entities.AppointmentStatusNoShow
	s.publish(ctx, entities.ClinicEventAppointmentNoShow, appointment)
	return appointment, nil
}

// GetAppointment retrieves an appointment by ID
func (s *SchedulingService) GetAppointment(ctx context.Context, id string) (*entities.Appointment, error) {
	return s.appointments.GetByID(ctx, id)
}

// ListAppointments retrieves appointments matching the filter
func (s *SchedulingService) ListAppointments(ctx context.Context, filter repositories.AppointmentFilter) ([]*entities.Appointment, error) {
	return s.appointments.List(ctx, filter)
}

// GetRecord retrieves the clinical record of a completed appointment
func (s *SchedulingService) GetRecord(ctx context.Context, appointmentID string) (*entities.ClinicalRecord, error) {
	return s.records.GetByAppointment(ctx, appointmentID)
}

// ListPatientRecords retrieves a patient's clinical history
func (s *SchedulingService) ListPatientRecords(ctx context.Context, patientID string) ([]*entities.ClinicalRecord, error) {
	return s.records.ListByPatient(ctx, patientID)
}

// QueryCalendar returns the reserved intervals of a veterinarian in a
// window
func (s *SchedulingService) QueryCalendar(ctx context.Context, vetID string, from, to time.Time) ([]entities.Interval, error) {
	if !to.After(from) {
		return nil, apperrors.NewValidationError("calendar window must have positive length")
	}
	if _, err := s.vets.GetByID(ctx, vetID); err != nil {
		return nil, err
	}
	return s.calendar.Query(ctx, vetID, from, to)
}

// OpenSlots suggests free intervals of the given duration on a
// veterinarian's working day. Callers use it to offer alternates after a
// scheduling conflict.
func (s *SchedulingService) OpenSlots(ctx context.Context, vetID string, day time.Time, durationMinutes int) ([]OpenSlot, error) {
	if durationMinutes == 0 {
		durationMinutes = s.cfg.DefaultDurationMinutes
	}
	if durationMinutes <= 0 {
		return nil, apperrors.NewValidationError("slot duration must be positive")
	}
	if _, err := s.vets.GetByID(ctx, vetID); err != nil {
		return nil, err
	}

	dayStart := time.Date(day.Year(), day.Month(), day.Day(), s.cfg.DayStartHour, 0, 0, 0, day.Location())
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), s.cfg.DayEndHour, 0, 0, 0, day.Location())

	reserved, err := s.calendar.Query(ctx, vetID, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	sort.Slice(reserved, func(i, j int) bool {
		return reserved[i].Start.Before(reserved[j].Start)
	})

	step := time.Duration(durationMinutes) * time.Minute
	slots := []OpenSlot{}
	cursor := dayStart
	for _, busy := range reserved {
		for !cursor.Add(step).After(busy.Start) {
			slots = append(slots, OpenSlot{StartsAt: cursor, EndsAt: cursor.Add(step), DurationMinutes: durationMinutes})
			cursor = cursor.Add(step)
		}
		if busy.End.After(cursor) {
			cursor = busy.End
		}
	}
	for !cursor.Add(step).After(dayEnd) {
		slots = append(slots, OpenSlot{StartsAt: cursor, EndsAt: cursor.Add(step), DurationMinutes: durationMinutes})
		cursor = cursor.Add(step)
	}
	return slots, nil
}

// releaseSlot frees a reservation with a short retry; release is
// idempotent so retries are safe.
func (s *SchedulingService) releaseSlot(ctx context.Context, slotID string) {
	if slotID == "" {
		return
	}
	cfg := retry.Config{MaxAttempts: 2, InitialDelay: 50 * time.Millisecond, MaxDelay: 500 * time.Millisecond, BackoffFactor: 2}
	err := retry.Do(ctx, cfg, func() error {
		return s.calendar.Release(ctx, slotID)
	})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("slot_id", slotID).Msg("failed to release calendar slot")
	}
}

// publish fans a lifecycle event out on the shared and branch channels,
// best-effort
func (s *SchedulingService) publish(ctx context.Context, eventType entities.ClinicEventType, appointment *entities.Appointment) {
	if s.eventBus == nil {
		return
	}

	event := entities.NewClinicEvent(eventType, appointment.ID)
	event.BranchID = appointment.BranchID
	event.VeterinarianID = appointment.VeterinarianID
	event.PatientID = appointment.PatientID
	event.Payload["status"] = string(appointment.Status)
	event.Payload["type"] = string(appointment.Type)
	event.Payload["scheduled_at"] = appointment.ScheduledAt

	for _, channel := range []string{
		providers.EventChannelAppointments,
		providers.GetBranchChannel(appointment.BranchID),
	} {
		if err := s.eventBus.Publish(ctx, channel, event); err != nil {
			log.Ctx(ctx).Warn().Err(err).Str("channel", channel).Msg("failed to publish appointment event")
		}
	}
}

func (s *SchedulingService) notifyBookingConfirmation(ctx context.Context, appointment *entities.Appointment) {
	if s.notification == nil {
		return
	}
	if err := s.notification.SendBookingConfirmation(ctx, appointment); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("appointment_id", appointment.ID).Msg("booking confirmation not sent")
	}
}

func (s *SchedulingService) notifyCancellation(ctx context.Context, appointment *entities.Appointment) {
	if s.notification == nil {
		return
	}
	if err := s.notification.SendCancellationNotice(ctx, appointment); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("appointment_id", appointment.ID).Msg("cancellation notice not sent")
	}
}
