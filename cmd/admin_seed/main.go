// Command admin_seed migrates the schema, seeds the lookup tables and
// creates the first Super-admin from ADMIN_EMAIL and ADMIN_PASSWORD.
package main

import (
	"context"
	"os"

	"dcip/internal/config"
	apperr "dcip/internal/errors"
	"dcip/internal/logger"
	"dcip/internal/models"
	"dcip/internal/repositories"
	"dcip/internal/utils"
	"dcip/internal/validation"

	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg := config.Load()

	log := logger.Init(logger.Options{Production: cfg.Env == "production"})
	defer logger.Sync()

	adminEmail := validation.NormalizeEmail(os.Getenv("ADMIN_EMAIL"))
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD must be set in environment")
	}
	if err := validation.NewPassword(adminPassword, adminPassword); err != nil {
		log.Fatal("ADMIN_PASSWORD is too weak", zap.Error(err))
	}

	db, err := repositories.OpenPostgres(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}()

	ctx := context.Background()
	if err := repositories.Migrate(db); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}
	if err := repositories.Seed(ctx, db); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}

	employees := repositories.NewEmployeeRepository(db)
	refs := repositories.NewReferenceRepository(db)

	existing, err := employees.GetByEmail(ctx, adminEmail)
	switch {
	case err == nil:
		log.Info("administrator already exists", zap.String("email", existing.Email), zap.String("role", string(existing.Role.Name)))
		return
	case apperr.KindOf(err) != apperr.KindNotFound:
		log.Fatal("failed to look up administrator", zap.Error(err))
	}

	taken, err := repositories.NewUserRepository(db).EmailExists(ctx, adminEmail)
	if err != nil {
		log.Fatal("failed to look up users", zap.Error(err))
	}
	if taken {
		log.Fatal("ADMIN_EMAIL already belongs to a property owner account", zap.String("email", adminEmail))
	}

	role, err := refs.RoleByName(ctx, models.RoleSuperAdmin)
	if err != nil {
		log.Fatal("super-admin role missing", zap.Error(err))
	}
	status, err := refs.StatusByName(ctx, models.StatusActive)
	if err != nil {
		log.Fatal("active status missing", zap.Error(err))
	}
	hashed, err := utils.HashPassword(adminPassword)
	if err != nil {
		log.Fatal("failed to hash password", zap.Error(err))
	}

	admin := &models.Employee{
		Email:     adminEmail,
		Password:  hashed,
		FirstName: config.GetEnv("ADMIN_FIRST_NAME", "Super"),
		LastName:  config.GetEnv("ADMIN_LAST_NAME", "Admin"),
		RoleID:    role.ID,
		StatusID:  status.ID,
	}
	if err := employees.Create(ctx, admin); err != nil {
		log.Fatal("failed to create administrator", zap.Error(err))
	}

	log.Info("administrator account created", zap.String("email", adminEmail), zap.Uint("id", admin.ID))
}
