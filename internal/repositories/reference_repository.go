package repositories

import (
	"context"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/gorm"
)

// ReferenceRepository reads the seeded lookup tables.
type ReferenceRepository interface {
	RoleByName(ctx context.Context, name models.RoleName) (*models.Role, error)
	StatusByName(ctx context.Context, name models.StatusName) (*models.Status, error)
	Categories(ctx context.Context) ([]models.Category, error)
	CategoryExists(ctx context.Context, id uint) (bool, error)
}

type referenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) RoleByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", string(name)).First(&role).Error; err != nil {
		return nil, notFound(err, apperr.BadRequest("INVALID_ROLE", "unknown role "+string(name)))
	}
	return &role, nil
}

func (r *referenceRepository) StatusByName(ctx context.Context, name models.StatusName) (*models.Status, error) {
	var status models.Status
	if err := r.db.WithContext(ctx).Where("name = ?", string(name)).First(&status).Error; err != nil {
		return nil, notFound(err, apperr.BadRequest("INVALID_STATUS", "unknown status "+string(name)))
	}
	return &status, nil
}

func (r *referenceRepository) Categories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.WithContext(ctx).Order("name").Find(&categories).Error; err != nil {
		return nil, dbError(err)
	}
	return categories, nil
}

func (r *referenceRepository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, dbError(err)
	}
	return count > 0, nil
}
