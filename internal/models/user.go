package models

import "time"

const (
	RoleClient = "client"
	RoleBarber = "barber"
	RoleOwner  = "owner"
)

type User struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	ShopID     *uint       `gorm:"index" json:"shop_id"`
	Barbershop *Barbershop `gorm:"foreignKey:ShopID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"barbershop,omitempty"`

	Name         string `gorm:"size:100;not null" json:"name"`
	Email        string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:255;not null" json:"-"`
	Phone        string `gorm:"size:20" json:"phone"`
	Role         string `gorm:"size:20;default:'client'" json:"role"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
