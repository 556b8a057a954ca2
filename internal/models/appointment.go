package models

import "time"

// Appointment never stores its end; the busy interval is derived from the
// joined Service every time it is read.
type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ShopID   *uint `gorm:"index" json:"shop_id"`
	BarberID *uint `gorm:"index" json:"barber_id"`

	ClientID uint `gorm:"not null" json:"client_id"`
	Client   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"client"`

	ServiceID uint     `gorm:"not null" json:"service_id"`
	Service   *Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service,omitempty"`

	StartTime time.Time `gorm:"not null;index" json:"start_time"`

	Status string `gorm:"size:20;default:'scheduled';index" json:"status"`

	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
