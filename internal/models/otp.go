package models

import "time"

type OTPPurpose string

const (
	OTPPurposeRegistration  OTPPurpose = "registration"
	OTPPurposeResetPassword OTPPurpose = "reset_password"
)

// OTP is a one-time code keyed by (email, purpose). Only hashes are stored.
// Records are hard-deleted when consumed, replaced or expired.
type OTP struct {
	ID                  uint       `gorm:"primaryKey"`
	Email               string     `gorm:"not null;uniqueIndex:idx_otp_email_purpose"`
	Purpose             OTPPurpose `gorm:"not null;uniqueIndex:idx_otp_email_purpose"`
	CodeHash            string     `gorm:"not null"`
	ExpiresAt           time.Time  `gorm:"not null;index"`
	Verified            bool       `gorm:"default:false"`
	VerifiedAt          *time.Time
	ResetTokenHash      string
	ResetTokenExpiresAt *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Expired reports whether the code itself is past its expiry.
func (o *OTP) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

// ResetTokenLive reports whether a verified reset record still carries a
// usable reset token.
func (o *OTP) ResetTokenLive(now time.Time) bool {
	return o.Verified && o.ResetTokenHash != "" &&
		o.ResetTokenExpiresAt != nil && now.Before(*o.ResetTokenExpiresAt)
}
