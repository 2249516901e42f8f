package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/caninosoft/vetcore/backend/internal/domain/entities"
	"github.com/caninosoft/vetcore/backend/internal/domain/repositories"
)

// MessageSender abstracts the outbound WhatsApp channel so tests can
// substitute a fake.
type MessageSender interface {
	SendTemplate(to, templateName, languageCode string, parameters []string) (string, error)
	SendText(to, body string) (string, error)
}

// NotificationService sends WhatsApp notices to owners and records every
// attempt in the notification ledger. All sends are best-effort from the
// caller's perspective.
type NotificationService struct {
	db       *sqlx.DB
	sender   MessageSender
	owners   repositories.OwnerRepository
	patients repositories.PatientRepository
	branches repositories.BranchRepository
}

// NewNotificationService creates a new notification service
func NewNotificationService(
	db *sqlx.DB,
	sender MessageSender,
	owners repositories.OwnerRepository,
	patients repositories.PatientRepository,
	branches repositories.BranchRepository,
) *NotificationService {
	return &NotificationService{
		db:       db,
		sender:   sender,
		owners:   owners,
		patients: patients,
		branches: branches,
	}
}

// NotificationContext contains the data available to template rendering
type NotificationContext struct {
	AppointmentID string
	PatientName   string
	OwnerName     string
	OwnerPhone    string
	BranchName    string
	BranchAddress string
	ScheduledDate string
	ScheduledTime string
	VaccineName   string
	DueDate       string
	CancelReason  string
}

// SendBookingConfirmation notifies the owner that their appointment was
// confirmed
func (n *NotificationService) SendBookingConfirmation(ctx context.Context, appointment *entities.Appointment) error {
	notifCtx, prefs, err := n.buildAppointmentContext(ctx, appointment)
	if err != nil {
		return err
	}
	if !prefs.WhatsAppEnabled || notifCtx.OwnerPhone == "" {
		return nil
	}
	return n.sendWhatsApp(ctx, entities.NotificationBookingConfirmation, notifCtx)
}

// SendCancellationNotice notifies the owner that their appointment was
// cancelled
func (n *NotificationService) SendCancellationNotice(ctx context.Context, appointment *entities.Appointment) error {
	notifCtx, prefs, err := n.buildAppointmentContext(ctx, appointment)
	if err != nil {
		return err
	}
	if !prefs.WhatsAppEnabled || notifCtx.OwnerPhone == "" {
		return nil
	}
	notifCtx.CancelReason = appointment.CancelReason
	return n.sendWhatsApp(ctx, entities.NotificationCancellation, notifCtx)
}

// SendVaccineReminder notifies an owner about a due or overdue
// vaccination for one of their patients. The reminder sweep in cmd/remind
// is the main caller.
func (n *NotificationService) SendVaccineReminder(ctx context.Context, patient *entities.Patient, due *entities.DueVaccination) error {
	owner, err := n.owners.GetByID(ctx, patient.OwnerID)
	if err != nil {
		return err
	}
	prefs := n.preferencesFor(ctx, owner)
	if !prefs.WhatsAppEnabled || !prefs.ReminderEnabled {
		return nil
	}
	phone := n.ownerPhone(owner, prefs)
	if phone == "" {
		return nil
	}

	notifCtx := &NotificationContext{
		PatientName: patient.Name,
		OwnerName:   owner.FullName,
		OwnerPhone:  phone,
		VaccineName: due.Entry.Name,
		DueDate:     due.DueAt.Format("Monday, January 2, 2006"),
	}
	return n.sendWhatsApp(ctx, entities.NotificationVaccineReminder, notifCtx)
}

func (n *NotificationService) buildAppointmentContext(ctx context.Context, appointment *entities.Appointment) (*NotificationContext, *entities.NotificationPreference, error) {
	patient, err := n.patients.GetByID(ctx, appointment.PatientID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := n.owners.GetByID(ctx, patient.OwnerID)
	if err != nil {
		return nil, nil, err
	}
	branch, err := n.branches.GetByID(ctx, appointment.BranchID)
	if err != nil {
		return nil, nil, err
	}

	prefs := n.preferencesFor(ctx, owner)
	notifCtx := &NotificationContext{
		AppointmentID: appointment.ID,
		PatientName:   patient.Name,
		OwnerName:     owner.FullName,
		OwnerPhone:    n.ownerPhone(owner, prefs),
		BranchName:    branch.Name,
		BranchAddress: branch.Address,
		ScheduledDate: appointment.ScheduledAt.Format("Monday, January 2, 2006"),
		ScheduledTime: appointment.ScheduledAt.Format("3:04 PM"),
	}
	return notifCtx, prefs, nil
}

// preferencesFor loads the owner's stored preference row, falling back to
// the WhatsApp-enabled default when none exists
func (n *NotificationService) preferencesFor(ctx context.Context, owner *entities.Owner) *entities.NotificationPreference {
	var prefs entities.NotificationPreference
	query := `SELECT * FROM notification_preferences WHERE owner_id = $1 LIMIT 1`
	if err := n.db.GetContext(ctx, &prefs, query, owner.ID); err != nil {
		return &entities.NotificationPreference{
			OwnerID:         owner.ID,
			WhatsAppEnabled: true,
			ReminderEnabled: true,
		}
	}
	return &prefs
}

func (n *NotificationService) ownerPhone(owner *entities.Owner, prefs *entities.NotificationPreference) string {
	if prefs.Phone != nil && *prefs.Phone != "" {
		return *prefs.Phone
	}
	if owner.WhatsAppPhone != "" {
		return owner.WhatsAppPhone
	}
	return owner.Phone
}

// sendWhatsApp records a pending ledger row, attempts delivery and
// updates the row to sent or failed
func (n *NotificationService) sendWhatsApp(ctx context.Context, notifType entities.NotificationType, notifCtx *NotificationContext) error {
	template, err := n.getTemplate(ctx, entities.ChannelWhatsApp, notifType)
	if err != nil {
		return fmt.Errorf("failed to get template: %w", err)
	}

	now := time.Now()
	notification := &entities.AppointmentNotification{
		ID:               uuid.New().String(),
		AppointmentID:    notifCtx.AppointmentID,
		NotificationType: notifType,
		Channel:          entities.ChannelWhatsApp,
		Recipient:        notifCtx.OwnerPhone,
		Status:           entities.NotificationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := n.createNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to create notification record: %w", err)
	}

	var messageID string
	var sendErr error
	if template.WhatsAppTemplateName != nil && *template.WhatsAppTemplateName != "" {
		messageID, sendErr = n.sender.SendTemplate(
			notifCtx.OwnerPhone,
			*template.WhatsAppTemplateName,
			template.WhatsAppTemplateLang,
			n.templateParameters(notifType, notifCtx),
		)
	} else {
		body := n.renderTemplate(template.Body, notifCtx)
		messageID, sendErr = n.sender.SendText(notifCtx.OwnerPhone, body)
	}

	now = time.Now()
	if sendErr != nil {
		errMsg := sendErr.Error()
		notification.Status = entities.NotificationStatusFailed
		notification.FailedAt = &now
		notification.ErrorMessage = &errMsg
	} else {
		notification.Status = entities.NotificationStatusSent
		notification.MessageID = &messageID
		notification.SentAt = &now
	}
	notification.UpdatedAt = now

	if err := n.updateNotification(ctx, notification); err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	return sendErr
}

// renderTemplate substitutes {{placeholder}} tokens with context values
func (n *NotificationService) renderTemplate(template string, ctx *NotificationContext) string {
	replacements := map[string]string{
		"{{patient_name}}":   ctx.PatientName,
		"{{owner_name}}":     ctx.OwnerName,
		"{{branch_name}}":    ctx.BranchName,
		"{{branch_address}}": ctx.BranchAddress,
		"{{scheduled_date}}": ctx.ScheduledDate,
		"{{scheduled_time}}": ctx.ScheduledTime,
		"{{vaccine_name}}":   ctx.VaccineName,
		"{{due_date}}":       ctx.DueDate,
		"{{cancel_reason}}":  ctx.CancelReason,
	}

	result := template
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}
	return result
}

// templateParameters orders the positional parameters of each approved
// WhatsApp template
func (n *NotificationService) templateParameters(notifType entities.NotificationType, ctx *NotificationContext) []string {
	switch notifType {
	case entities.NotificationVaccineReminder:
		return []string{ctx.PatientName, ctx.VaccineName, ctx.DueDate}
	case entities.NotificationCancellation:
		return []string{ctx.PatientName, ctx.ScheduledDate, ctx.ScheduledTime, ctx.BranchName}
	default:
		return []string{ctx.PatientName, ctx.ScheduledDate, ctx.ScheduledTime, ctx.BranchName, ctx.BranchAddress}
	}
}

func (n *NotificationService) getTemplate(ctx context.Context, channel entities.NotificationChannel, notifType entities.NotificationType) (*entities.NotificationTemplate, error) {
	var template entities.NotificationTemplate
	query := `SELECT * FROM notification_templates WHERE channel = $1 AND template_type = $2 AND is_active = true LIMIT 1`
	if err := n.db.GetContext(ctx, &template, query, string(channel), string(notifType)); err != nil {
		return nil, err
	}
	return &template, nil
}

func (n *NotificationService) createNotification(ctx context.Context, notification *entities.AppointmentNotification) error {
	query := `
		INSERT INTO appointment_notifications
		(id, appointment_id, notification_type, channel, recipient, status, message_id,
		 sent_at, failed_at, error_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.ID, notification.AppointmentID, notification.NotificationType, notification.Channel,
		notification.Recipient, notification.Status, notification.MessageID, notification.SentAt,
		notification.FailedAt, notification.ErrorMessage, notification.CreatedAt, notification.UpdatedAt,
	)
	return err
}

func (n *NotificationService) updateNotification(ctx context.Context, notification *entities.AppointmentNotification) error {
	query := `
		UPDATE appointment_notifications
		SET status = $1, message_id = $2, sent_at = $3, failed_at = $4, error_message = $5, updated_at = $6
		WHERE id = $7
	`
	_, err := n.db.ExecContext(ctx, query,
		notification.Status, notification.MessageID, notification.SentAt,
		notification.FailedAt, notification.ErrorMessage, notification.UpdatedAt, notification.ID,
	)
	return err
}
