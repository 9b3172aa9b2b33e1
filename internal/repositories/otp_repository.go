package repositories

import (
	"context"
	"time"

	apperr "dcip/internal/errors"
	"dcip/internal/models"

	"gorm.io/gorm"
)

// OTPVerification is what a successful verification writes back.
type OTPVerification struct {
	ExpiresAt           time.Time
	ResetTokenHash      string
	ResetTokenExpiresAt *time.Time
}

// OTPRepository persists one-time codes keyed by (email, purpose). Every
// state change is a conditional statement whose affected-row count decides
// the winner, so concurrent callers never both succeed.
type OTPRepository interface {
	// Replace deletes any record for (email, purpose) and inserts otp.
	Replace(ctx context.Context, otp *models.OTP) error
	Find(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTP, error)
	// MarkVerified flips an unverified, unexpired record to verified.
	MarkVerified(ctx context.Context, id uint, now time.Time, v OTPVerification) (bool, error)
	// ConsumeVerified deletes a verified, unexpired record.
	ConsumeVerified(ctx context.Context, email string, purpose models.OTPPurpose, now time.Time) (bool, error)
	// ConsumeReset deletes the reset record carrying tokenHash if the token
	// is still live.
	ConsumeReset(ctx context.Context, id uint, tokenHash string, now time.Time) (bool, error)
	Delete(ctx context.Context, email string, purpose models.OTPPurpose) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type otpRepository struct {
	db *gorm.DB
}

func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

func (r *otpRepository) Replace(ctx context.Context, otp *models.OTP) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ? AND purpose = ?", otp.Email, otp.Purpose).
			Delete(&models.OTP{}).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
	return dbError(err)
}

func (r *otpRepository) Find(ctx context.Context, email string, purpose models.OTPPurpose) (*models.OTP, error) {
	var otp models.OTP
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		First(&otp).Error
	if err != nil {
		return nil, notFound(err, apperr.ErrOTPInvalid)
	}
	return &otp, nil
}

func (r *otpRepository) MarkVerified(ctx context.Context, id uint, now time.Time, v OTPVerification) (bool, error) {
	updates := map[string]interface{}{
		"verified":    true,
		"verified_at": now,
		"expires_at":  v.ExpiresAt,
	}
	if v.ResetTokenHash != "" {
		updates["reset_token_hash"] = v.ResetTokenHash
		updates["reset_token_expires_at"] = v.ResetTokenExpiresAt
	}

	result := r.db.WithContext(ctx).Model(&models.OTP{}).
		Where("id = ? AND verified = ? AND expires_at > ?", id, false, now).
		Updates(updates)
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *otpRepository) ConsumeVerified(ctx context.Context, email string, purpose models.OTPPurpose, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND verified = ? AND expires_at > ?", email, purpose, true, now).
		Delete(&models.OTP{})
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *otpRepository) ConsumeReset(ctx context.Context, id uint, tokenHash string, now time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("id = ? AND purpose = ? AND verified = ? AND reset_token_hash = ? AND reset_token_expires_at > ?",
			id, models.OTPPurposeResetPassword, true, tokenHash, now).
		Delete(&models.OTP{})
	if result.Error != nil {
		return false, dbError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *otpRepository) Delete(ctx context.Context, email string, purpose models.OTPPurpose) error {
	err := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&models.OTP{}).Error
	return dbError(err)
}

func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.OTP{})
	if result.Error != nil {
		return 0, dbError(result.Error)
	}
	return result.RowsAffected, nil
}
