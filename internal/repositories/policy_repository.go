package repositories

import (
	"context"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/gorm"
)

type PolicyRepository interface {
	Create(ctx context.Context, policy *models.PolicyRequest) error
	GetByID(ctx context.Context, id uint) (*models.PolicyRequest, error)
	GetOwned(ctx context.Context, ownerID, id uint) (*models.PolicyRequest, error)
	ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.PolicyRequest, int64, error)
	List(ctx context.Context, status models.PolicyStatus, offset, limit int) ([]models.PolicyRequest, int64, error)
	// Transition moves the policy to `to` only while it is in one of `from`.
	Transition(ctx context.Context, id uint, from []models.PolicyStatus, to models.PolicyStatus) error
}

type policyRepository struct {
	db *gorm.DB
}

func NewPolicyRepository(db *gorm.DB) PolicyRepository {
	return &policyRepository{db: db}
}

func (r *policyRepository) Create(ctx context.Context, policy *models.PolicyRequest) error {
	if err := r.db.WithContext(ctx).Omit("Property", "Assignments").Create(policy).Error; err != nil {
		return dbError(err)
	}
	return nil
}

func (r *policyRepository) GetByID(ctx context.Context, id uint) (*models.PolicyRequest, error) {
	var policy models.PolicyRequest
	err := r.db.WithContext(ctx).
		Preload("Property").
		Preload("Assignments.Surveyor.Employee").
		First(&policy, id).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrPolicyNotFound)
	}
	return &policy, nil
}

func (r *policyRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.PolicyRequest, error) {
	var policy models.PolicyRequest
	err := r.db.WithContext(ctx).Preload("Property").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&policy).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrPolicyNotFound)
	}
	return &policy, nil
}

func (r *policyRepository) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.PolicyRequest, int64, error) {
	return r.list(ctx, r.db.WithContext(ctx).Where("owner_id = ?", ownerID), offset, limit)
}

func (r *policyRepository) List(ctx context.Context, status models.PolicyStatus, offset, limit int) ([]models.PolicyRequest, int64, error) {
	q := r.db.WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return r.list(ctx, q, offset, limit)
}

func (r *policyRepository) list(ctx context.Context, q *gorm.DB, offset, limit int) ([]models.PolicyRequest, int64, error) {
	q = q.Model(&models.PolicyRequest{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}

	var policies []models.PolicyRequest
	if err := q.Preload("Property").Order("created_at DESC").Offset(offset).Limit(limit).Find(&policies).Error; err != nil {
		return nil, 0, dbError(err)
	}
	return policies, total, nil
}

func (r *policyRepository) Transition(ctx context.Context, id uint, from []models.PolicyStatus, to models.PolicyStatus) error {
	return transitionPolicy(r.db.WithContext(ctx), id, from, to)
}

func transitionPolicy(db *gorm.DB, id uint, from []models.PolicyStatus, to models.PolicyStatus) error {
	result := db.Model(&models.PolicyRequest{}).
		Where("id = ? AND status IN ?", id, policyStatuses(from)).
		Update("status", to)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrPolicyState
	}
	return nil
}

func policyStatuses(statuses []models.PolicyStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
