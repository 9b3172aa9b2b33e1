package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentStatusAssigned  AssignmentStatus = "assigned"
	AssignmentStatusAccepted  AssignmentStatus = "accepted"
	AssignmentStatusSubmitted AssignmentStatus = "submitted"
	AssignmentStatusOverdue   AssignmentStatus = "overdue"
)

// Assignment links one surveyor to one policy request. A policy request is
// dual-assigned: exactly two assignments from different organizations.
type Assignment struct {
	gorm.Model
	PolicyRequestID uint             `gorm:"not null;uniqueIndex:idx_assignment_policy_surveyor" json:"policy_request_id"`
	SurveyorID      uint             `gorm:"not null;uniqueIndex:idx_assignment_policy_surveyor;index" json:"surveyor_id"`
	Surveyor        *Surveyor        `gorm:"foreignKey:SurveyorID" json:"surveyor,omitempty"`
	AssignedByID    uint             `gorm:"not null" json:"assigned_by_id"`
	Organization    string           `gorm:"not null" json:"organization"`
	Status          AssignmentStatus `gorm:"not null;index;default:'assigned'" json:"status"`
	Deadline        time.Time        `gorm:"not null;index" json:"deadline"`
	AcceptedAt      *time.Time       `json:"accepted_at,omitempty"`
	SubmittedAt     *time.Time       `json:"submitted_at,omitempty"`
	Report          *SurveyReport    `gorm:"foreignKey:AssignmentID" json:"report,omitempty"`
}

// CanSubmit reports whether a report may still be filed.
func (a *Assignment) CanSubmit() bool {
	switch a.Status {
	case AssignmentStatusAssigned, AssignmentStatusAccepted, AssignmentStatusOverdue:
		return true
	}
	return false
}

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

var riskRank = map[RiskLevel]int{RiskLow: 1, RiskMedium: 2, RiskHigh: 3, RiskCritical: 4}

// Rank orders risk levels; unknown levels rank 0.
func (r RiskLevel) Rank() int { return riskRank[r] }

type SurveyReport struct {
	gorm.Model
	AssignmentID   uint              `gorm:"uniqueIndex;not null" json:"assignment_id"`
	Findings       datatypes.JSONMap `gorm:"type:jsonb" json:"findings"`
	RiskLevel      RiskLevel         `gorm:"not null" json:"risk_level"`
	Recommendation string            `gorm:"type:text" json:"recommendation"`
	Attachments    pq.StringArray    `gorm:"type:text[]" json:"attachments"`
}

type MergedReportStatus string

const (
	MergedReportStatusMerged   MergedReportStatus = "merged"
	MergedReportStatusReleased MergedReportStatus = "released"
)

type MergedReport struct {
	gorm.Model
	PolicyRequestID uint               `gorm:"uniqueIndex;not null" json:"policy_request_id"`
	Reference       string             `gorm:"uniqueIndex;not null" json:"reference"`
	Findings        datatypes.JSONMap  `gorm:"type:jsonb" json:"findings"`
	Conflicts       datatypes.JSONMap  `gorm:"type:jsonb" json:"conflicts"`
	RiskLevel       RiskLevel          `gorm:"not null" json:"risk_level"`
	Recommendation  string             `gorm:"type:text" json:"recommendation"`
	Status          MergedReportStatus `gorm:"not null;default:'merged'" json:"status"`
	MergedByID      *uint              `json:"merged_by_id,omitempty"`
	ReleasedByID    *uint              `json:"released_by_id,omitempty"`
	ReleasedAt      *time.Time         `json:"released_at,omitempty"`
}

type DualAssignInput struct {
	PolicyRequestID uint       `json:"policy_request_id" validate:"required"`
	SurveyorIDs     []uint     `json:"surveyor_ids" validate:"required,len=2,dive,required"`
	Deadline        *time.Time `json:"deadline"`
}

type SubmitReportInput struct {
	Findings       map[string]interface{} `json:"findings" validate:"required,min=1"`
	RiskLevel      RiskLevel              `json:"risk_level" validate:"required,oneof=low medium high critical"`
	Recommendation string                 `json:"recommendation" validate:"required,min=10,max=5000"`
	Attachments    []string               `json:"attachments" validate:"omitempty,max=20,dive,url"`
}
