package repositories

import (
	"context"
	"time"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errReportReleased = apperr.BadRequest("REPORT_STATE", "merged report has already been released")

// ReportRepository stores the merged report of a policy request.
type ReportRepository interface {
	GetMerged(ctx context.Context, policyID uint) (*models.MergedReport, error)
	// SaveMerged inserts report unless the policy already has one; either
	// way the stored report is returned, with created telling which.
	SaveMerged(ctx context.Context, report *models.MergedReport) (stored *models.MergedReport, created bool, err error)
	// Release flips merged to released and completes the policy.
	Release(ctx context.Context, policyID, actorID uint, now time.Time) error
}

type reportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) GetMerged(ctx context.Context, policyID uint) (*models.MergedReport, error) {
	var report models.MergedReport
	if err := r.db.WithContext(ctx).Where("policy_request_id = ?", policyID).First(&report).Error; err != nil {
		return nil, notFound(err, apperr.ErrReportNotFound)
	}
	return &report, nil
}

func (r *reportRepository) SaveMerged(ctx context.Context, report *models.MergedReport) (*models.MergedReport, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "policy_request_id"}}, DoNothing: true}).
		Create(report)
	if result.Error != nil {
		return nil, false, dbError(result.Error)
	}
	if result.RowsAffected == 1 {
		return report, true, nil
	}

	existing, err := r.GetMerged(ctx, report.PolicyRequestID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *reportRepository) Release(ctx context.Context, policyID, actorID uint, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.MergedReport{}).
			Where("policy_request_id = ? AND status = ?", policyID, models.MergedReportStatusMerged).
			Updates(map[string]interface{}{
				"status":         models.MergedReportStatusReleased,
				"released_by_id": actorID,
				"released_at":    now,
			})
		if result.Error != nil {
			return dbError(result.Error)
		}
		if result.RowsAffected == 0 {
			return errReportReleased
		}

		return transitionPolicy(tx, policyID,
			[]models.PolicyStatus{models.PolicyStatusUnderReview}, models.PolicyStatusCompleted)
	})
}
