// Package reset implements the three-step password reset: mail a code,
// trade the code for a reset token, trade the token for a new password.
package reset

import (
	"context"
	"time"

	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/repositories"
	"dcip/internal/services/otp"
	"dcip/internal/utils"
	"dcip/internal/validation"

	"go.uber.org/zap"
)

type PrincipalInvalidator interface {
	InvalidatePrincipal(ctx context.Context, kind models.PrincipalKind, id uint) error
}

type Service interface {
	SendOTP(ctx context.Context, email string) (time.Time, error)
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	Reset(ctx context.Context, input models.ResetPasswordInput) error
}

type service struct {
	users     repositories.UserRepository
	employees repositories.EmployeeRepository
	otps      otp.Service
	cache     PrincipalInvalidator
	log       *zap.Logger
}

func NewService(
	users repositories.UserRepository,
	employees repositories.EmployeeRepository,
	otps otp.Service,
	cache PrincipalInvalidator,
	log *zap.Logger,
) Service {
	return &service{
		users:     users,
		employees: employees,
		otps:      otps,
		cache:     cache,
		log:       log.Named("reset"),
	}
}

// account is the identity that owns the email. Emails are unique across
// users and employees.
type account struct {
	kind models.PrincipalKind
	id   uint
}

func (s *service) lookup(ctx context.Context, email string) (*account, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return &account{kind: models.PrincipalUser, id: user.ID}, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}

	employee, err := s.employees.GetByEmail(ctx, email)
	if err == nil {
		return &account{kind: models.PrincipalEmployee, id: employee.ID}, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, err
	}
	return nil, apperr.ErrAccountNotFound
}

func (s *service) SendOTP(ctx context.Context, email string) (time.Time, error) {
	if err := validation.Struct(models.OTPRequestInput{Email: email}); err != nil {
		return time.Time{}, err
	}
	email = validation.NormalizeEmail(email)
	if _, err := s.lookup(ctx, email); err != nil {
		return time.Time{}, err
	}
	return s.otps.Issue(ctx, email, models.OTPPurposeResetPassword)
}

func (s *service) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	return s.otps.Verify(ctx, email, models.OTPPurposeResetPassword, code)
}

func (s *service) Reset(ctx context.Context, input models.ResetPasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	if err := validation.NewPassword(input.Password, input.ConfirmPassword); err != nil {
		return err
	}

	email := validation.NormalizeEmail(input.Email)
	acct, err := s.lookup(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return apperr.ErrResetTokenInvalid
		}
		return err
	}

	if err := s.otps.ConsumeResetToken(ctx, email, input.ResetToken); err != nil {
		return err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return err
	}
	if acct.kind == models.PrincipalEmployee {
		err = s.employees.UpdatePassword(ctx, acct.id, hash)
	} else {
		err = s.users.UpdatePassword(ctx, acct.id, hash)
	}
	if err != nil {
		return err
	}

	if err := s.cache.InvalidatePrincipal(ctx, acct.kind, acct.id); err != nil {
		s.log.Warn("principal cache invalidation failed", zap.Error(err))
	}
	s.log.Info("password reset", zap.String("kind", string(acct.kind)), zap.Uint("id", acct.id))
	return nil
}
