package models

import (
	"strings"

	"gorm.io/gorm"
)

// User is a property owner. Deletion is soft (gorm DeletedAt).
type User struct {
	gorm.Model
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Password     string     `gorm:"not null" json:"-"`
	FirstName    string     `gorm:"not null" json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone"`
	TokenVersion int        `gorm:"default:1" json:"-"`
	Properties   []Property `gorm:"foreignKey:OwnerID" json:"properties,omitempty"`
}

func (u *User) DisplayName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

type CreateUserInput struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required,min=2,max=50"`
	LastName        string `json:"last_name" validate:"omitempty,max=50"`
	Phone           string `json:"phone" validate:"omitempty,e164"`
}
