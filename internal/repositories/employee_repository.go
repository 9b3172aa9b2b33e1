package repositories

import (
	"context"

	"dcip/internal/models"
)

// EmployeeRepository defines the data access for staff accounts. Every read
// preloads Role and Status.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	GetByID(ctx context.Context, id uint) (*models.Employee, error)
	GetByEmail(ctx context.Context, email string) (*models.Employee, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	List(ctx context.Context, filter models.EmployeeFilter, offset, limit int) ([]models.Employee, int64, error)

	UpdateProfile(ctx context.Context, id uint, input models.UpdateEmployeeInput) error
	SetStatus(ctx context.Context, id uint, statusID uint) error
	SoftDelete(ctx context.Context, id uint) error

	// UpdatePassword stores a new hash and bumps the token version
	UpdatePassword(ctx context.Context, id uint, hashedPassword string) error
	IncrementTokenVersion(ctx context.Context, id uint) error
}
