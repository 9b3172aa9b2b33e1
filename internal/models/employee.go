package models

import (
	"strings"

	"gorm.io/gorm"
)

type RoleName string

const (
	RoleSuperAdmin RoleName = "Super-admin"
	RoleAdmin      RoleName = "Admin"
	RoleStaff      RoleName = "Staff"
	RoleSurveyor   RoleName = "Surveyor"
)

// AllRoles is ordered from most to least privileged.
var AllRoles = []RoleName{RoleSuperAdmin, RoleAdmin, RoleStaff, RoleSurveyor}

func (r RoleName) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

type StatusName string

const (
	StatusActive   StatusName = "Active"
	StatusInactive StatusName = "Inactive"
)

func (s StatusName) Valid() bool {
	return s == StatusActive || s == StatusInactive
}

// Role and Status are shared reference rows, seeded at migration time.
type Role struct {
	ID          uint     `gorm:"primaryKey" json:"id"`
	Name        RoleName `gorm:"uniqueIndex;not null" json:"name"`
	Description string   `json:"description,omitempty"`
}

type Status struct {
	ID   uint       `gorm:"primaryKey" json:"id"`
	Name StatusName `gorm:"uniqueIndex;not null" json:"name"`
}

type Employee struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	Password     string `gorm:"not null" json:"-"`
	FirstName    string `gorm:"not null" json:"first_name"`
	LastName     string `json:"last_name"`
	Phone        string `json:"phone"`
	RoleID       uint   `gorm:"not null;index" json:"role_id"`
	Role         Role   `gorm:"foreignKey:RoleID" json:"role"`
	StatusID     uint   `gorm:"not null;index" json:"status_id"`
	Status       Status `gorm:"foreignKey:StatusID" json:"status"`
	TokenVersion int    `gorm:"default:1" json:"-"`
	CreatedByID  *uint  `json:"created_by_id,omitempty"`
}

func (e *Employee) DisplayName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func (e *Employee) IsActive() bool {
	return e.Status.Name == StatusActive
}

type CreateEmployeeInput struct {
	Email     string   `json:"email" validate:"required,email"`
	Password  string   `json:"password" validate:"required,min=8,max=72"`
	FirstName string   `json:"first_name" validate:"required,min=2,max=50"`
	LastName  string   `json:"last_name" validate:"omitempty,max=50"`
	Phone     string   `json:"phone" validate:"omitempty,e164"`
	Role      RoleName `json:"role" validate:"required"`
}

type UpdateEmployeeInput struct {
	FirstName *string `json:"first_name" validate:"omitempty,min=2,max=50"`
	LastName  *string `json:"last_name" validate:"omitempty,max=50"`
	Phone     *string `json:"phone" validate:"omitempty,e164"`
}

type EmployeeFilter struct {
	Roles  []RoleName
	Status StatusName
	Search string
}

// AdministratorRoles are the roles managed through the administrator
// endpoints; surveyors have their own.
var AdministratorRoles = []RoleName{RoleSuperAdmin, RoleAdmin, RoleStaff}

type UpdateStatusInput struct {
	Status StatusName `json:"status" validate:"required,oneof=Active Inactive"`
}
