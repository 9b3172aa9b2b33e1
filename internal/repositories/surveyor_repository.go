package repositories

import (
	"context"
	"strings"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/gorm"
)

var errSurveyorExists = apperr.Conflict("SURVEYOR_EXISTS", "employee already has a surveyor profile")

// SurveyorRepository persists surveyor profiles together with their
// employee rows.
type SurveyorRepository interface {
	// Create inserts the employee when it has no ID yet and then the
	// profile, in one transaction.
	Create(ctx context.Context, employee *models.Employee, surveyor *models.Surveyor) error
	GetByID(ctx context.Context, id uint) (*models.Surveyor, error)
	GetByEmployeeID(ctx context.Context, employeeID uint) (*models.Surveyor, error)
	List(ctx context.Context, filter models.SurveyorFilter, offset, limit int) ([]models.Surveyor, int64, error)
	// Update saves profile columns and the embedded employee's name and phone.
	Update(ctx context.Context, surveyor *models.Surveyor) error
	SetAvailability(ctx context.Context, id uint, availability models.Availability) error
	// Delete soft deletes the profile and its employee together.
	Delete(ctx context.Context, id uint) error
}

type surveyorRepository struct {
	db *gorm.DB
}

func NewSurveyorRepository(db *gorm.DB) SurveyorRepository {
	return &surveyorRepository{db: db}
}

func (r *surveyorRepository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Employee.Role").
		Preload("Employee.Status")
}

func (r *surveyorRepository) Create(ctx context.Context, employee *models.Employee, surveyor *models.Surveyor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if employee.ID == 0 {
			if err := tx.Omit("Role", "Status").Create(employee).Error; err != nil {
				return uniqueViolation(err, apperr.ErrEmailTaken)
			}
		}
		surveyor.EmployeeID = employee.ID
		if err := tx.Omit("Employee").Create(surveyor).Error; err != nil {
			return uniqueViolation(err, errSurveyorExists)
		}
		return nil
	})
}

func (r *surveyorRepository) GetByID(ctx context.Context, id uint) (*models.Surveyor, error) {
	var surveyor models.Surveyor
	if err := r.withRefs(ctx).First(&surveyor, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrSurveyorNotFound)
	}
	return &surveyor, nil
}

func (r *surveyorRepository) GetByEmployeeID(ctx context.Context, employeeID uint) (*models.Surveyor, error) {
	var surveyor models.Surveyor
	if err := r.withRefs(ctx).Where("employee_id = ?", employeeID).First(&surveyor).Error; err != nil {
		return nil, notFound(err, apperr.ErrSurveyorNotFound)
	}
	return &surveyor, nil
}

func (r *surveyorRepository) List(ctx context.Context, filter models.SurveyorFilter, offset, limit int) ([]models.Surveyor, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Surveyor{}).
		Joins("JOIN employees ON employees.id = surveyors.employee_id AND employees.deleted_at IS NULL")

	if filter.Organization != "" {
		q = q.Where("surveyors.organization = ?", filter.Organization)
	}
	if filter.Availability != "" {
		q = q.Where("surveyors.availability = ?", filter.Availability)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("employees.email ILIKE ? OR employees.first_name ILIKE ? OR employees.last_name ILIKE ? OR surveyors.location ILIKE ?",
			like, like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}

	var surveyors []models.Surveyor
	err := q.Preload("Employee.Role").Preload("Employee.Status").
		Order("surveyors.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&surveyors).Error
	if err != nil {
		return nil, 0, dbError(err)
	}
	return surveyors, total, nil
}

func (r *surveyorRepository) Update(ctx context.Context, surveyor *models.Surveyor) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Surveyor{}).Where("id = ?", surveyor.ID).Updates(map[string]interface{}{
			"organization":    surveyor.Organization,
			"specializations": surveyor.Specializations,
			"location":        surveyor.Location,
			"settings":        surveyor.Settings,
		})
		if result.Error != nil {
			return dbError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperr.ErrSurveyorNotFound
		}

		err := tx.Model(&models.Employee{}).Where("id = ?", surveyor.EmployeeID).Updates(map[string]interface{}{
			"first_name": surveyor.Employee.FirstName,
			"last_name":  surveyor.Employee.LastName,
			"phone":      surveyor.Employee.Phone,
		}).Error
		return dbError(err)
	})
}

func (r *surveyorRepository) SetAvailability(ctx context.Context, id uint, availability models.Availability) error {
	result := r.db.WithContext(ctx).Model(&models.Surveyor{}).
		Where("id = ?", id).
		Update("availability", availability)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrSurveyorNotFound
	}
	return nil
}

func (r *surveyorRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var surveyor models.Surveyor
		if err := tx.First(&surveyor, id).Error; err != nil {
			return notFound(err, apperr.ErrSurveyorNotFound)
		}
		if err := tx.Delete(&surveyor).Error; err != nil {
			return dbError(err)
		}
		if err := tx.Delete(&models.Employee{}, surveyor.EmployeeID).Error; err != nil {
			return dbError(err)
		}
		return nil
	})
}
