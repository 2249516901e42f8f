package entities

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// ClinicEventType represents the type of clinic event carried on the bus
type ClinicEventType string

const (
	ClinicEventAppointmentRequested ClinicEventType = "appointment_requested"
	ClinicEventAppointmentConfirmed ClinicEventType = "appointment_confirmed"
	ClinicEventAppointmentCompleted ClinicEventType = "appointment_completed"
	ClinicEventAppointmentCancelled ClinicEventType = "appointment_cancelled"
	ClinicEventAppointmentNoShow    ClinicEventType = "appointment_no_show"
	ClinicEventStockChanged         ClinicEventType = "stock_changed"
	ClinicEventVaccineAdministered  ClinicEventType = "vaccine_administered"
)

// ClinicEvent represents a real-time update published after a state change.
// Consumers are the cache invalidation service and the SSE stream.
type ClinicEvent struct {
	ID             string                 `json:"id"`
	EventType      ClinicEventType        `json:"event_type"`
	BranchID       string                 `json:"branch_id,omitempty"`
	VeterinarianID string                 `json:"veterinarian_id,omitempty"`
	PatientID      string                 `json:"patient_id,omitempty"`
	EntityID       string                 `json:"entity_id"`
	Timestamp      time.Time              `json:"timestamp"`
	Payload        map[string]interface{} `json:"payload,omitempty"`
}

// NewClinicEvent creates a new clinic event
func NewClinicEvent(eventType ClinicEventType, entityID string) *ClinicEvent {
	return &ClinicEvent{
		ID:        generateEventID(),
		EventType: eventType,
		EntityID:  entityID,
		Timestamp: time.Now(),
		Payload:   make(map[string]interface{}),
	}
}

// generateEventID generates a unique event ID
func generateEventID() string {
	return time.Now().Format("20060102150405") + "-" + randomString(8)
}

// randomString generates a random string of specified length
func randomString(length int) string {
	bytes := make([]byte, length/2+1)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based if crypto/rand fails
		return time.Now().Format("150405.000")
	}
	return hex.EncodeToString(bytes)[:length]
}
