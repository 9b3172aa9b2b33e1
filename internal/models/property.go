package models

import (
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `json:"description,omitempty"`
}

// DefaultCategories are seeded on first migration.
var DefaultCategories = []Category{
	{Name: "Residential", Description: "Houses, flats and apartments"},
	{Name: "Commercial", Description: "Offices, shops and hotels"},
	{Name: "Industrial", Description: "Factories and warehouses"},
	{Name: "Land", Description: "Undeveloped plots"},
}

// Property is owned by a User and only ever soft-deleted.
type Property struct {
	gorm.Model
	OwnerID     uint           `gorm:"not null;index" json:"owner_id"`
	CategoryID  uint           `gorm:"not null;index" json:"category_id"`
	Category    *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Address     string         `gorm:"not null" json:"address"`
	City        string         `json:"city"`
	State       string         `json:"state"`
	Phone       string         `json:"phone"`
	Description string         `gorm:"type:text" json:"description"`
	Images      pq.StringArray `gorm:"type:text[]" json:"images"`
}

type PropertyInput struct {
	CategoryID  uint     `json:"category_id" validate:"required"`
	Address     string   `json:"address" validate:"required,min=5,max=255"`
	City        string   `json:"city" validate:"omitempty,max=100"`
	State       string   `json:"state" validate:"omitempty,max=100"`
	Phone       string   `json:"phone" validate:"required,e164"`
	Description string   `json:"description" validate:"omitempty,max=2000"`
	Images      []string `json:"images" validate:"omitempty,max=20,dive,url"`
}
