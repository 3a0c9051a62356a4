package models

import "time"

// PaymentStatus tracks a checkout session.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
)

// Payment records a hosted checkout session opened for a case.
type Payment struct {
	ID           uint          `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
	FormulaireID string        `gorm:"size:36;index;not null" json:"formulaire_id"`
	UserID       uint          `gorm:"index;not null" json:"user_id"`
	SessionID    string        `gorm:"size:255;uniqueIndex;not null" json:"session_id"`
	URL          string        `gorm:"size:1000" json:"url"`
	Status       PaymentStatus `gorm:"size:20;not null;default:'pending'" json:"status"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
}

// IsCompleted reports whether the gateway confirmed the payment.
func (p *Payment) IsCompleted() bool { return p.Status == PaymentCompleted }
