package repositories

import (
	"context"
	"time"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errAssignmentExists = apperr.Conflict("ASSIGNMENT_EXISTS", "surveyor is already assigned to this policy request")

// AssignmentRepository covers surveyor assignments and their reports.
type AssignmentRepository interface {
	// CreateDual moves the policy from submitted to assigned and inserts
	// the assignments in one transaction.
	CreateDual(ctx context.Context, policyID uint, assignments []*models.Assignment) error
	GetByID(ctx context.Context, id uint) (*models.Assignment, error)
	ListBySurveyor(ctx context.Context, surveyorID uint, offset, limit int) ([]models.Assignment, int64, error)
	ListByPolicy(ctx context.Context, policyID uint) ([]models.Assignment, error)
	Accept(ctx context.Context, id, surveyorID uint, now time.Time) error
	// SubmitReport stores the report, marks the assignment submitted and
	// moves the policy under review.
	SubmitReport(ctx context.Context, assignment *models.Assignment, report *models.SurveyReport, now time.Time) error
	MarkOverdue(ctx context.Context, now time.Time) (int64, error)
	// PoliciesReadyForMerge lists policies with two submitted reports and
	// no merged report yet.
	PoliciesReadyForMerge(ctx context.Context) ([]uint, error)
}

type assignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) CreateDual(ctx context.Context, policyID uint, assignments []*models.Assignment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := transitionPolicy(tx, policyID,
			[]models.PolicyStatus{models.PolicyStatusSubmitted}, models.PolicyStatusAssigned); err != nil {
			return err
		}
		for _, a := range assignments {
			a.PolicyRequestID = policyID
			if err := tx.Omit("Surveyor", "Report").Create(a).Error; err != nil {
				return uniqueViolation(err, errAssignmentExists)
			}
			if err := bumpStatistics(tx, a.SurveyorID, func(s *models.SurveyorStatistics) { s.Assigned++ }); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	var assignment models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Report").
		Preload("Surveyor.Employee").
		First(&assignment, id).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrAssignmentNotFound)
	}
	return &assignment, nil
}

func (r *assignmentRepository) ListBySurveyor(ctx context.Context, surveyorID uint, offset, limit int) ([]models.Assignment, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Assignment{}).Where("surveyor_id = ?", surveyorID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}

	var assignments []models.Assignment
	if err := q.Preload("Report").Order("deadline ASC").Offset(offset).Limit(limit).Find(&assignments).Error; err != nil {
		return nil, 0, dbError(err)
	}
	return assignments, total, nil
}

func (r *assignmentRepository) ListByPolicy(ctx context.Context, policyID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := r.db.WithContext(ctx).
		Preload("Report").
		Preload("Surveyor.Employee").
		Where("policy_request_id = ?", policyID).
		Order("id ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, dbError(err)
	}
	return assignments, nil
}

func (r *assignmentRepository) Accept(ctx context.Context, id, surveyorID uint, now time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ? AND surveyor_id = ? AND status = ?", id, surveyorID, models.AssignmentStatusAssigned).
		Updates(map[string]interface{}{
			"status":      models.AssignmentStatusAccepted,
			"accepted_at": now,
		})
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrAssignmentState
	}
	return nil
}

func (r *assignmentRepository) SubmitReport(ctx context.Context, assignment *models.Assignment, report *models.SurveyReport, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open := []string{
			string(models.AssignmentStatusAssigned),
			string(models.AssignmentStatusAccepted),
			string(models.AssignmentStatusOverdue),
		}
		result := tx.Model(&models.Assignment{}).
			Where("id = ? AND surveyor_id = ? AND status IN ?", assignment.ID, assignment.SurveyorID, open).
			Updates(map[string]interface{}{
				"status":       models.AssignmentStatusSubmitted,
				"submitted_at": now,
			})
		if result.Error != nil {
			return dbError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.ErrAssignmentState
		}

		report.AssignmentID = assignment.ID
		if err := tx.Create(report).Error; err != nil {
			return uniqueViolation(err, apperr.ErrAssignmentState)
		}

		if err := transitionPolicy(tx, assignment.PolicyRequestID,
			[]models.PolicyStatus{models.PolicyStatusAssigned, models.PolicyStatusUnderReview},
			models.PolicyStatusUnderReview); err != nil {
			return err
		}

		return bumpStatistics(tx, assignment.SurveyorID, func(s *models.SurveyorStatistics) { s.Completed++ })
	})
}

func (r *assignmentRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	var overdue []models.Assignment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open := []string{string(models.AssignmentStatusAssigned), string(models.AssignmentStatusAccepted)}
		if err := tx.Model(&overdue).
			Clauses(clause.Returning{Columns: []clause.Column{{Name: "id"}, {Name: "surveyor_id"}}}).
			Where("status IN ? AND deadline < ?", open, now).
			Update("status", models.AssignmentStatusOverdue).Error; err != nil {
			return dbError(err)
		}
		for _, a := range overdue {
			if err := bumpStatistics(tx, a.SurveyorID, func(s *models.SurveyorStatistics) { s.Overdue++ }); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return int64(len(overdue)), nil
}

func (r *assignmentRepository) PoliciesReadyForMerge(ctx context.Context) ([]uint, error) {
	merged := r.db.Model(&models.MergedReport{}).Select("policy_request_id")

	var ids []uint
	err := r.db.WithContext(ctx).Model(&models.Assignment{}).
		Where("policy_request_id NOT IN (?)", merged).
		Group("policy_request_id").
		Having("COUNT(*) FILTER (WHERE status = ?) = 2", models.AssignmentStatusSubmitted).
		Pluck("policy_request_id", &ids).Error
	if err != nil {
		return nil, dbError(err)
	}
	return ids, nil
}

// bumpStatistics applies fn to a surveyor's counters under a row lock.
func bumpStatistics(tx *gorm.DB, surveyorID uint, fn func(*models.SurveyorStatistics)) error {
	var surveyor models.Surveyor
	err := tx.Unscoped().Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "statistics").
		First(&surveyor, surveyorID).Error
	if err != nil {
		return notFound(err, apperr.ErrSurveyorNotFound)
	}

	stats := surveyor.Statistics.Data()
	fn(&stats)
	err = tx.Unscoped().Model(&models.Surveyor{}).
		Where("id = ?", surveyorID).
		Update("statistics", datatypes.NewJSONType(stats)).Error
	return dbError(err)
}
