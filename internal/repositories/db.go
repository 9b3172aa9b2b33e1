// Package repositories provides data access layer implementations.
// It handles all database operations and data persistence logic.
package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dcip/internal/config"
	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/repositories/cache"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// DB is the global database instance used across the application.
var DB *gorm.DB
var CacheService *cache.CacheService

// InitDB opens postgres and redis, applies migrations and seeds reference
// data.
func InitDB(cfg config.Config, log *zap.Logger) error {
	db, err := OpenPostgres(cfg.DB, log)
	if err != nil {
		return err
	}
	DB = db

	redisClient := cache.NewRedisClient(&cache.RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	CacheService = cache.NewCacheService(redisClient, cfg.AccessTokenTTL)

	if err := Migrate(db); err != nil {
		return err
	}
	if err := Seed(context.Background(), db); err != nil {
		return err
	}

	log.Info("postgres connected and migrations applied", zap.String("database", cfg.DB.Name))
	return nil
}

// OpenPostgres connects and configures the connection pool.
func OpenPostgres(cfg config.DBConfig, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger:         newGormLogger(log),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate creates or updates every table.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Role{},
		&models.Status{},
		&models.Category{},
		&models.User{},
		&models.Employee{},
		&models.OTP{},
		&models.Property{},
		&models.PolicyRequest{},
		&models.Surveyor{},
		&models.Assignment{},
		&models.SurveyReport{},
		&models.MergedReport{},
	)
}

// Seed inserts the fixed roles, statuses and property categories. It is safe
// to run on every start.
func Seed(ctx context.Context, db *gorm.DB) error {
	roles := make([]models.Role, 0, len(models.AllRoles))
	for _, name := range models.AllRoles {
		roles = append(roles, models.Role{Name: name})
	}
	statuses := []models.Status{{Name: models.StatusActive}, {Name: models.StatusInactive}}
	categories := append([]models.Category(nil), models.DefaultCategories...)

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ignore := clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}
		if err := tx.Clauses(ignore).Create(&roles).Error; err != nil {
			return fmt.Errorf("failed to seed roles: %w", err)
		}
		if err := tx.Clauses(ignore).Create(&statuses).Error; err != nil {
			return fmt.Errorf("failed to seed statuses: %w", err)
		}
		if err := tx.Clauses(ignore).Create(&categories).Error; err != nil {
			return fmt.Errorf("failed to seed categories: %w", err)
		}
		return nil
	})
}

// Close releases the postgres pool and the redis client.
func Close() {
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if CacheService != nil {
		_ = CacheService.Close()
	}
}

func newGormLogger(log *zap.Logger) logger.Interface {
	return logger.New(
		zap.NewStdLog(log.Named("gorm")),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// notFound maps gorm's missing-row error to the given domain error.
func notFound(err error, nf error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nf
	}
	return dbError(err)
}

// dbError wraps any other storage failure as an internal error.
func dbError(err error) error {
	if err == nil {
		return nil
	}
	var de *apperr.DomainError
	if errors.As(err, &de) {
		return err
	}
	return apperr.Internal("database operation failed", err)
}

// uniqueViolation maps a duplicate key to the given conflict error.
func uniqueViolation(err error, conflict error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict
	}
	return dbError(err)
}
