package entities

import (
	"time"
)

// Branch represents a clinic location. Each branch owns its own drug
// inventory partition and its assigned veterinarians.
type Branch struct {
	ID            string    `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Address       string    `json:"address" db:"address"`
	Phone         string    `json:"phone" db:"phone"`
	WhatsAppPhone string    `json:"whatsapp_phone" db:"whatsapp_phone"`
	ScheduleNote  string    `json:"schedule_note" db:"schedule_note"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
