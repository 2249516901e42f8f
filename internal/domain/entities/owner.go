package entities

import (
	"time"
)

// Owner represents a pet owner. Owners are reference identities for the
// scheduling core; account management lives in the surrounding application.
type Owner struct {
	ID            string    `json:"id" db:"id"`
	FullName      string    `json:"full_name" db:"full_name"`
	Phone         string    `json:"phone" db:"phone"`
	WhatsAppPhone string    `json:"whatsapp_phone" db:"whatsapp_phone"`
	Email         string    `json:"email" db:"email"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}
