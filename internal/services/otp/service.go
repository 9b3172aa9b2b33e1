// Package otp issues and checks one-time codes for email verification and
// password reset. Codes live in postgres keyed by (email, purpose); only
// their bcrypt hashes are stored.
package otp

import (
	"context"
	"time"

	"dcip/internal/config"
	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/repositories"
	"dcip/internal/services/notification"
	"dcip/internal/utils"
	keys "dcip/internal/utils/cache"
	"dcip/internal/validation"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AttemptCounter tracks failed verifications per key.
type AttemptCounter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Count(ctx context.Context, key string) (int64, error)
	Reset(ctx context.Context, key string) error
}

type Service interface {
	// Issue replaces any live code for (email, purpose), mails the new one
	// and returns its expiry.
	Issue(ctx context.Context, email string, purpose models.OTPPurpose) (time.Time, error)
	// Verify checks a code. For the reset purpose it returns the reset
	// token, which is never retrievable again.
	Verify(ctx context.Context, email string, purpose models.OTPPurpose, code string) (string, error)
	// CheckVerified reports ErrEmailNotVerified unless a live verified
	// record exists. It does not consume it.
	CheckVerified(ctx context.Context, email string, purpose models.OTPPurpose) error
	// ConsumeVerified removes a verified record; only one caller succeeds.
	ConsumeVerified(ctx context.Context, email string, purpose models.OTPPurpose) error
	// ConsumeResetToken removes the reset record if token matches; a
	// second call with the same token fails.
	ConsumeResetToken(ctx context.Context, email, token string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

type rule struct {
	length int
	ttl    time.Duration
}

type service struct {
	repo     repositories.OTPRepository
	attempts AttemptCounter
	notifier notification.Service
	cfg      config.OTPConfig
	rules    map[models.OTPPurpose]rule
	log      *zap.Logger
	now      func() time.Time
}

func NewService(
	repo repositories.OTPRepository,
	attempts AttemptCounter,
	notifier notification.Service,
	cfg config.OTPConfig,
	log *zap.Logger,
) Service {
	return &service{
		repo:     repo,
		attempts: attempts,
		notifier: notifier,
		cfg:      cfg,
		rules: map[models.OTPPurpose]rule{
			models.OTPPurposeRegistration:  {length: validation.RegistrationCodeLength, ttl: cfg.RegistrationTTL},
			models.OTPPurposeResetPassword: {length: validation.ResetCodeLength, ttl: cfg.ResetTTL},
		},
		log: log.Named("otp"),
		now: time.Now,
	}
}

func (s *service) rule(purpose models.OTPPurpose) (rule, error) {
	r, ok := s.rules[purpose]
	if !ok {
		return rule{}, apperr.BadRequest("INVALID_PURPOSE", "unknown otp purpose")
	}
	return r, nil
}

func attemptKey(email string, purpose models.OTPPurpose) string {
	return keys.GenerateKey(keys.EntityOTPAttempt, string(purpose), email)
}

func (s *service) Issue(ctx context.Context, email string, purpose models.OTPPurpose) (time.Time, error) {
	r, err := s.rule(purpose)
	if err != nil {
		return time.Time{}, err
	}
	email = validation.NormalizeEmail(email)

	code := utils.NumericCode(r.length)
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return time.Time{}, apperr.Internal("failed to issue otp", err)
	}

	expiresAt := s.now().Add(r.ttl)
	record := &models.OTP{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  string(hash),
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Replace(ctx, record); err != nil {
		return time.Time{}, err
	}
	s.resetAttempts(ctx, email, purpose)

	if err := s.notifier.SendOTP(ctx, email, purpose, code, r.ttl); err != nil {
		if delErr := s.repo.Delete(ctx, email, purpose); delErr != nil {
			s.log.Warn("failed to drop undelivered otp", zap.String("email", email), zap.Error(delErr))
		}
		return time.Time{}, apperr.Internal("failed to send otp email", err)
	}

	s.log.Info("otp issued", zap.String("email", email), zap.String("purpose", string(purpose)))
	return expiresAt, nil
}

func (s *service) Verify(ctx context.Context, email string, purpose models.OTPPurpose, code string) (string, error) {
	if _, err := s.rule(purpose); err != nil {
		return "", err
	}
	email = validation.NormalizeEmail(email)
	key := attemptKey(email, purpose)

	if n, err := s.attempts.Count(ctx, key); err != nil {
		s.log.Warn("otp attempt counter unavailable", zap.Error(err))
	} else if n >= int64(s.cfg.MaxAttempts) {
		s.discard(ctx, email, purpose)
		return "", apperr.ErrOTPAttemptsExceeded
	}

	now := s.now()
	record, err := s.repo.Find(ctx, email, purpose)
	if err != nil {
		return "", err
	}
	if record.Verified || record.Expired(now) {
		return "", apperr.ErrOTPInvalid
	}

	if bcrypt.CompareHashAndPassword([]byte(record.CodeHash), []byte(code)) != nil {
		return "", s.failedAttempt(ctx, email, purpose, key, record.ExpiresAt.Sub(now))
	}

	var (
		resetToken string
		v          repositories.OTPVerification
	)
	switch purpose {
	case models.OTPPurposeResetPassword:
		resetToken = utils.SecureToken()
		hash, err := bcrypt.GenerateFromPassword([]byte(resetToken), bcrypt.DefaultCost)
		if err != nil {
			return "", apperr.Internal("failed to verify otp", err)
		}
		expiresAt := now.Add(s.cfg.ResetTokenTTL)
		v = repositories.OTPVerification{
			ExpiresAt:           expiresAt,
			ResetTokenHash:      string(hash),
			ResetTokenExpiresAt: &expiresAt,
		}
	default:
		v = repositories.OTPVerification{ExpiresAt: now.Add(s.cfg.RegistrationTTL)}
	}

	ok, err := s.repo.MarkVerified(ctx, record.ID, now, v)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", apperr.ErrOTPInvalid
	}

	s.resetAttempts(ctx, email, purpose)
	return resetToken, nil
}

func (s *service) failedAttempt(ctx context.Context, email string, purpose models.OTPPurpose, key string, window time.Duration) error {
	if window <= 0 {
		window = time.Minute
	}
	n, err := s.attempts.Incr(ctx, key, window)
	if err != nil {
		s.log.Warn("otp attempt counter unavailable", zap.Error(err))
		return apperr.ErrOTPInvalid
	}
	if n >= int64(s.cfg.MaxAttempts) {
		s.discard(ctx, email, purpose)
		return apperr.ErrOTPAttemptsExceeded
	}
	return apperr.ErrOTPInvalid
}

func (s *service) discard(ctx context.Context, email string, purpose models.OTPPurpose) {
	if err := s.repo.Delete(ctx, email, purpose); err != nil {
		s.log.Warn("failed to discard otp", zap.String("email", email), zap.Error(err))
	}
}

func (s *service) resetAttempts(ctx context.Context, email string, purpose models.OTPPurpose) {
	if err := s.attempts.Reset(ctx, attemptKey(email, purpose)); err != nil {
		s.log.Warn("failed to reset otp attempts", zap.String("email", email), zap.Error(err))
	}
}

func (s *service) CheckVerified(ctx context.Context, email string, purpose models.OTPPurpose) error {
	record, err := s.repo.Find(ctx, validation.NormalizeEmail(email), purpose)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return err
		}
		return apperr.ErrEmailNotVerified
	}
	if !record.Verified || record.Expired(s.now()) {
		return apperr.ErrEmailNotVerified
	}
	return nil
}

func (s *service) ConsumeVerified(ctx context.Context, email string, purpose models.OTPPurpose) error {
	ok, err := s.repo.ConsumeVerified(ctx, validation.NormalizeEmail(email), purpose, s.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrEmailNotVerified
	}
	return nil
}

func (s *service) ConsumeResetToken(ctx context.Context, email, token string) error {
	email = validation.NormalizeEmail(email)
	now := s.now()

	record, err := s.repo.Find(ctx, email, models.OTPPurposeResetPassword)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			return err
		}
		return apperr.ErrResetTokenInvalid
	}
	if !record.ResetTokenLive(now) {
		return apperr.ErrResetTokenInvalid
	}
	if bcrypt.CompareHashAndPassword([]byte(record.ResetTokenHash), []byte(token)) != nil {
		return apperr.ErrResetTokenInvalid
	}

	ok, err := s.repo.ConsumeReset(ctx, record.ID, record.ResetTokenHash, now)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrResetTokenInvalid
	}
	return nil
}

func (s *service) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpired(ctx, s.now())
}
