package repositories

import (
	"context"
	"strings"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/gorm"
)

type employeeRepository struct {
	db *gorm.DB
}

func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Role").Preload("Status")
}

func (r *employeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	if err := r.db.WithContext(ctx).Omit("Role", "Status").Create(employee).Error; err != nil {
		return uniqueViolation(err, apperr.ErrEmailTaken)
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := r.withRefs(ctx).First(&employee, id).Error; err != nil {
		return nil, notFound(err, apperr.ErrEmployeeNotFound)
	}
	return &employee, nil
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.withRefs(ctx).Where("email = ?", email).First(&employee).Error; err != nil {
		return nil, notFound(err, apperr.ErrEmployeeNotFound)
	}
	return &employee, nil
}

func (r *employeeRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Unscoped().Model(&models.Employee{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, dbError(err)
	}
	return count > 0, nil
}

func (r *employeeRepository) List(ctx context.Context, filter models.EmployeeFilter, offset, limit int) ([]models.Employee, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Employee{}).
		Joins("JOIN roles ON roles.id = employees.role_id").
		Joins("JOIN statuses ON statuses.id = employees.status_id")

	if len(filter.Roles) > 0 {
		q = q.Where("roles.name IN ?", roleNames(filter.Roles))
	}
	if filter.Status != "" {
		q = q.Where("statuses.name = ?", string(filter.Status))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		like := "%" + s + "%"
		q = q.Where("employees.email ILIKE ? OR employees.first_name ILIKE ? OR employees.last_name ILIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbError(err)
	}

	var employees []models.Employee
	err := q.Preload("Role").Preload("Status").
		Order("employees.created_at DESC").
		Offset(offset).Limit(limit).
		Find(&employees).Error
	if err != nil {
		return nil, 0, dbError(err)
	}
	return employees, total, nil
}

func (r *employeeRepository) UpdateProfile(ctx context.Context, id uint, input models.UpdateEmployeeInput) error {
	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = *input.FirstName
	}
	if input.LastName != nil {
		updates["last_name"] = *input.LastName
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if len(updates) == 0 {
		return nil
	}
	return r.update(ctx, id, updates)
}

func (r *employeeRepository) SetStatus(ctx context.Context, id uint, statusID uint) error {
	return r.update(ctx, id, map[string]interface{}{"status_id": statusID})
}

func (r *employeeRepository) SoftDelete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Employee{}, id)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrEmployeeNotFound
	}
	return nil
}

func (r *employeeRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	return r.update(ctx, id, map[string]interface{}{
		"password":      hashedPassword,
		"token_version": gorm.Expr("token_version + 1"),
	})
}

func (r *employeeRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	return r.update(ctx, id, map[string]interface{}{
		"token_version": gorm.Expr("token_version + 1"),
	})
}

func (r *employeeRepository) update(ctx context.Context, id uint, updates map[string]interface{}) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return dbError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperr.ErrEmployeeNotFound
	}
	return nil
}

func roleNames(roles []models.RoleName) []string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return names
}
