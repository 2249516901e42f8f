package entities

import "time"

// NotificationPreference represents an owner's notification settings.
// Owners without a stored preference default to WhatsApp enabled, the
// clinic's primary coordination channel.
type NotificationPreference struct {
	ID              string    `json:"id" db:"id"`
	OwnerID         string    `json:"owner_id" db:"owner_id"`
	Phone           *string   `json:"phone,omitempty" db:"phone"`
	WhatsAppEnabled bool      `json:"whatsapp_enabled" db:"whatsapp_enabled"`
	ReminderEnabled bool      `json:"reminder_enabled" db:"reminder_enabled"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// NotificationChannel represents the delivery channel
type NotificationChannel string

const (
	ChannelWhatsApp NotificationChannel = "whatsapp"
)

// NotificationType represents the notification purpose
type NotificationType string

const (
	NotificationBookingConfirmation NotificationType = "booking_confirmation"
	NotificationCancellation        NotificationType = "cancellation"
	NotificationVaccineReminder     NotificationType = "vaccine_reminder"
)

// NotificationStatus represents the delivery status
type NotificationStatus string

const (
	NotificationStatusPending NotificationStatus = "pending"
	NotificationStatusSent    NotificationStatus = "sent"
	NotificationStatusFailed  NotificationStatus = "failed"
)

// AppointmentNotification tracks notifications sent for an appointment
type AppointmentNotification struct {
	ID               string              `json:"id" db:"id"`
	AppointmentID    string              `json:"appointment_id" db:"appointment_id"`
	NotificationType NotificationType    `json:"notification_type" db:"notification_type"`
	Channel          NotificationChannel `json:"channel" db:"channel"`
	Recipient        string              `json:"recipient" db:"recipient"`
	Status           NotificationStatus  `json:"status" db:"status"`
	MessageID        *string             `json:"message_id,omitempty" db:"message_id"`
	SentAt           *time.Time          `json:"sent_at,omitempty" db:"sent_at"`
	FailedAt         *time.Time          `json:"failed_at,omitempty" db:"failed_at"`
	ErrorMessage     *string             `json:"error_message,omitempty" db:"error_message"`
	CreatedAt        time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at" db:"updated_at"`
}

// NotificationTemplate defines reusable message templates
type NotificationTemplate struct {
	ID                   string              `json:"id" db:"id"`
	Name                 string              `json:"name" db:"name"`
	Channel              NotificationChannel `json:"channel" db:"channel"`
	TemplateType         NotificationType    `json:"template_type" db:"template_type"`
	Body                 string              `json:"body" db:"body"`
	WhatsAppTemplateName *string             `json:"whatsapp_template_name,omitempty" db:"whatsapp_template_name"`
	WhatsAppTemplateLang string              `json:"whatsapp_template_lang" db:"whatsapp_template_lang"`
	IsActive             bool                `json:"is_active" db:"is_active"`
	CreatedAt            time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at" db:"updated_at"`
}
