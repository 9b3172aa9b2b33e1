package repositories

import (
	"context"

	"dcip/internal/models"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	// Create inserts a new user; a duplicate email is ErrEmailTaken.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a live user by ID
	GetByID(ctx context.Context, id uint) (*models.User, error)

	// GetByEmail retrieves a live user by email address
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// EmailExists reports whether any user row, deleted or not, holds the email
	EmailExists(ctx context.Context, email string) (bool, error)

	// UpdatePassword stores a new hash and bumps the token version
	UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error

	// IncrementTokenVersion invalidates every token issued so far
	IncrementTokenVersion(ctx context.Context, userID uint) error
}

// EmailInUse reports whether a user or employee row holds the email.
func EmailInUse(ctx context.Context, users UserRepository, employees EmployeeRepository, email string) (bool, error) {
	exists, err := users.EmailExists(ctx, email)
	if err != nil || exists {
		return exists, err
	}
	return employees.EmailExists(ctx, email)
}
