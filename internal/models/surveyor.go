package models

import (
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Availability string

const (
	AvailabilityAvailable Availability = "available"
	AvailabilityBusy      Availability = "busy"
	AvailabilityOnLeave   Availability = "on_leave"
)

type SurveyorStatistics struct {
	Assigned  int `json:"assigned"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

type SurveyorSettings struct {
	EmailNotifications bool `json:"email_notifications"`
	MaxActive          int  `json:"max_active"`
}

// DefaultSurveyorSettings applies to profiles created without settings.
var DefaultSurveyorSettings = SurveyorSettings{EmailNotifications: true, MaxActive: 5}

// Surveyor is the profile wrapped around an Employee with the Surveyor role.
type Surveyor struct {
	gorm.Model
	EmployeeID      uint                                   `gorm:"uniqueIndex;not null" json:"employee_id"`
	Employee        Employee                               `gorm:"foreignKey:EmployeeID" json:"employee"`
	Organization    string                                 `gorm:"not null;index" json:"organization"`
	Specializations pq.StringArray                         `gorm:"type:text[]" json:"specializations"`
	Availability    Availability                           `gorm:"not null;default:'available'" json:"availability"`
	Location        string                                 `json:"location"`
	Statistics      datatypes.JSONType[SurveyorStatistics] `json:"statistics"`
	Settings        datatypes.JSONType[SurveyorSettings]   `json:"settings"`
}

type CreateSurveyorInput struct {
	Email           string            `json:"email" validate:"required,email"`
	Password        string            `json:"password" validate:"required,min=8,max=72"`
	FirstName       string            `json:"first_name" validate:"required,min=2,max=50"`
	LastName        string            `json:"last_name" validate:"omitempty,max=50"`
	Phone           string            `json:"phone" validate:"omitempty,e164"`
	Organization    string            `json:"organization" validate:"required,max=120"`
	Specializations []string          `json:"specializations" validate:"omitempty,max=20,dive,min=2,max=60"`
	Location        string            `json:"location" validate:"omitempty,max=120"`
	Settings        *SurveyorSettings `json:"settings"`
}

type UpdateSurveyorInput struct {
	FirstName       *string           `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName        *string           `json:"last_name" validate:"omitempty,max=50"`
	Phone           *string           `json:"phone" validate:"omitempty,e164"`
	Organization    *string           `json:"organization" validate:"omitempty,max=120"`
	Specializations []string          `json:"specializations" validate:"omitempty,max=20,dive,min=2,max=60"`
	Location        *string           `json:"location" validate:"omitempty,max=120"`
	Settings        *SurveyorSettings `json:"settings"`
}

type SurveyorFilter struct {
	Organization string
	Availability Availability
	Search       string
}

type UpdateAvailabilityInput struct {
	Availability Availability `json:"availability" validate:"required,oneof=available busy on_leave"`
}
