package models

import "gorm.io/gorm"

type PolicyStatus string

const (
	PolicyStatusSubmitted   PolicyStatus = "submitted"
	PolicyStatusAssigned    PolicyStatus = "assigned"
	PolicyStatusUnderReview PolicyStatus = "under_review"
	PolicyStatusCompleted   PolicyStatus = "completed"
	PolicyStatusCancelled   PolicyStatus = "cancelled"
)

func (s PolicyStatus) Valid() bool {
	switch s {
	case PolicyStatusSubmitted, PolicyStatusAssigned, PolicyStatusUnderReview,
		PolicyStatusCompleted, PolicyStatusCancelled:
		return true
	}
	return false
}

// PolicyRequest asks for a property to be surveyed for insurance cover.
type PolicyRequest struct {
	gorm.Model
	OwnerID      uint         `gorm:"not null;index" json:"owner_id"`
	PropertyID   uint         `gorm:"not null;index" json:"property_id"`
	Property     *Property    `gorm:"foreignKey:PropertyID" json:"property,omitempty"`
	CoverageType string       `gorm:"not null" json:"coverage_type"`
	Notes        string       `gorm:"type:text" json:"notes"`
	Status       PolicyStatus `gorm:"not null;index;default:'submitted'" json:"status"`
	Assignments  []Assignment `gorm:"foreignKey:PolicyRequestID" json:"assignments,omitempty"`
}

type PolicyInput struct {
	PropertyID   uint   `json:"property_id" validate:"required"`
	CoverageType string `json:"coverage_type" validate:"required,oneof=fire flood theft comprehensive"`
	Notes        string `json:"notes" validate:"omitempty,max=2000"`
}
