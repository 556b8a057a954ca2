package models

import "time"

type Service struct {
	ID       uint  `gorm:"primaryKey" json:"id"`
	ShopID   *uint `gorm:"index" json:"shop_id"`
	BarberID *uint `gorm:"index" json:"barber_id"`

	Name            string `gorm:"size:100;not null" json:"name"`
	PriceCents      int64  `gorm:"not null" json:"price_cents"`
	DurationMinutes int    `gorm:"not null" json:"duration_minutes"`
	Active          bool   `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
