package repositories

import (
	"context"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/gorm"
)

// PropertyRepository scopes every read and write to the owning user. Soft
// deleted rows are invisible through it.
type PropertyRepository interface {
	Create(ctx context.Context, property *models.Property) error
	GetOwned(ctx context.Context, ownerID, id uint) (*models.Property, error)
	ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.Property, int64, error)
	Update(ctx context.Context, property *models.Property) error
	SoftDelete(ctx context.Context, ownerID, id uint) error
}

type propertyRepository struct {
	db *gorm.DB
}

func NewPropertyRepository(db *gorm.DB) PropertyRepository {
	return &propertyRepository{db: db}
}

func (r *propertyRepository) Create(ctx context.Context, property *models.Property) error {
	if err := r.db.WithContext(ctx).Omit("Category").Create(property).Error; err != nil {
		return dbError(err)
	}
	return nil
}

func (r *propertyRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.Property, error) {
	var property models.Property
	err := r.db.WithContext(ctx).Preload("Category").
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&property).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrPropertyNotFound)
	}
	return &property, nil
}

func (r *propertyRepository) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.Property, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Property{}).Where("owner_id = ?", ownerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}

	var properties []models.Property
	if err := q.Preload("Category").Order("created_at DESC").Offset(offset).Limit(limit).Find(&properties).Error; err != nil {
		return nil, 0, dbError(err)
	}
	return properties, total, nil
}

func (r *propertyRepository) Update(ctx context.Context, property *models.Property) error {
	result := r.db.WithContext(ctx).Model(&models.Property{}).
		Where("id = ? AND owner_id = ?", property.ID, property.OwnerID).
		Updates(map[string]interface{}{
			"category_id": property.CategoryID,
			"address":     property.Address,
			"city":        property.City,
			"state":       property.State,
			"phone":       property.Phone,
			"description": property.Description,
			"images":      property.Images,
		})
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrPropertyNotFound
	}
	return nil
}

func (r *propertyRepository) SoftDelete(ctx context.Context, ownerID, id uint) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Property{})
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrPropertyNotFound
	}
	return nil
}
