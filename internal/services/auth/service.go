package auth

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

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(p *models.Principal) (string, time.Time, error)
}

// PrincipalCache holds resolved identities between requests.
type PrincipalCache interface {
	GetPrincipal(ctx context.Context, kind models.PrincipalKind, id uint) (*models.Principal, error)
	CachePrincipal(ctx context.Context, p *models.Principal) error
	InvalidatePrincipal(ctx context.Context, kind models.PrincipalKind, id uint) error
}

type Service interface {
	RequestRegistrationOTP(ctx context.Context, email string) (time.Time, error)
	VerifyRegistrationOTP(ctx context.Context, email, code string) error
	Register(ctx context.Context, input models.CreateUserInput) (*models.AuthResult, error)
	Login(ctx context.Context, input models.LoginInput) (*models.AuthResult, error)
	EmployeeLogin(ctx context.Context, input models.LoginInput) (*models.AuthResult, error)
	Logout(ctx context.Context, p *models.Principal) error
	ChangePassword(ctx context.Context, p *models.Principal, input models.ChangePasswordInput) error
	// ResolvePrincipal turns verified claims into the request identity.
	// Any mismatch with the stored account is ErrInvalidToken.
	ResolvePrincipal(ctx context.Context, claims *models.PrincipalClaims) (*models.Principal, error)
}

type service struct {
	users     repositories.UserRepository
	employees repositories.EmployeeRepository
	otps      otp.Service
	tokens    TokenIssuer
	cache     PrincipalCache
	log       *zap.Logger
}

func NewService(
	users repositories.UserRepository,
	employees repositories.EmployeeRepository,
	otps otp.Service,
	tokens TokenIssuer,
	cache PrincipalCache,
	log *zap.Logger,
) Service {
	return &service{
		users:     users,
		employees: employees,
		otps:      otps,
		tokens:    tokens,
		cache:     cache,
		log:       log.Named("auth"),
	}
}

func (s *service) RequestRegistrationOTP(ctx context.Context, email string) (time.Time, error) {
	email = validation.NormalizeEmail(email)
	exists, err := s.emailInUse(ctx, email)
	if err != nil {
		return time.Time{}, err
	}
	if exists {
		return time.Time{}, apperr.ErrEmailRegistered
	}
	return s.otps.Issue(ctx, email, models.OTPPurposeRegistration)
}

// emailInUse checks both account tables; an email identifies one account.
func (s *service) emailInUse(ctx context.Context, email string) (bool, error) {
	return repositories.EmailInUse(ctx, s.users, s.employees, email)
}

func (s *service) VerifyRegistrationOTP(ctx context.Context, email, code string) error {
	_, err := s.otps.Verify(ctx, email, models.OTPPurposeRegistration, code)
	return err
}

func (s *service) Register(ctx context.Context, input models.CreateUserInput) (*models.AuthResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validation.NewPassword(input.Password, input.ConfirmPassword); err != nil {
		return nil, err
	}

	email := validation.NormalizeEmail(input.Email)
	exists, err := s.emailInUse(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrEmailTaken
	}

	if err := s.otps.CheckVerified(ctx, email, models.OTPPurposeRegistration); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Email:        email,
		Password:     hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		TokenVersion: 1,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	// A record left behind here expires on its own.
	if err := s.otps.ConsumeVerified(ctx, email, models.OTPPurposeRegistration); err != nil {
		s.log.Warn("failed to consume registration otp", zap.String("email", email), zap.Error(err))
	}

	s.log.Info("user registered", zap.Uint("user_id", user.ID))
	return s.issue(models.PrincipalFromUser(user))
}

func (s *service) Login(ctx context.Context, input models.LoginInput) (*models.AuthResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	user, err := s.users.GetByEmail(ctx, validation.NormalizeEmail(input.Email))
	if err != nil {
		return nil, credentialsError(err)
	}
	if !utils.CheckPassword(user.Password, input.Password) {
		s.log.Info("login failed", zap.Uint("user_id", user.ID))
		return nil, apperr.ErrInvalidCredentials
	}
	return s.issue(models.PrincipalFromUser(user))
}

func (s *service) EmployeeLogin(ctx context.Context, input models.LoginInput) (*models.AuthResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	employee, err := s.employees.GetByEmail(ctx, validation.NormalizeEmail(input.Email))
	if err != nil {
		return nil, credentialsError(err)
	}
	if !utils.CheckPassword(employee.Password, input.Password) {
		s.log.Info("employee login failed", zap.Uint("employee_id", employee.ID))
		return nil, apperr.ErrInvalidCredentials
	}
	return s.issue(models.PrincipalFromEmployee(employee))
}

func (s *service) Logout(ctx context.Context, p *models.Principal) error {
	var err error
	if p.IsEmployee() {
		err = s.employees.IncrementTokenVersion(ctx, p.ID)
	} else {
		err = s.users.IncrementTokenVersion(ctx, p.ID)
	}
	if err != nil {
		return err
	}
	s.dropCache(ctx, p.Kind, p.ID)
	return nil
}

func (s *service) ChangePassword(ctx context.Context, p *models.Principal, input models.ChangePasswordInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}

	var current string
	if p.IsEmployee() {
		e, err := s.employees.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		current = e.Password
	} else {
		u, err := s.users.GetByID(ctx, p.ID)
		if err != nil {
			return err
		}
		current = u.Password
	}
	if !utils.CheckPassword(current, input.CurrentPassword) {
		return apperr.BadRequest("INVALID_PASSWORD", "current password is incorrect")
	}
	if err := validation.NewPassword(input.NewPassword, input.ConfirmPassword); err != nil {
		return err
	}

	hash, err := utils.HashPassword(input.NewPassword)
	if err != nil {
		return err
	}
	if p.IsEmployee() {
		err = s.employees.UpdatePassword(ctx, p.ID, hash)
	} else {
		err = s.users.UpdatePassword(ctx, p.ID, hash)
	}
	if err != nil {
		return err
	}
	s.dropCache(ctx, p.Kind, p.ID)
	return nil
}

func (s *service) ResolvePrincipal(ctx context.Context, claims *models.PrincipalClaims) (*models.Principal, error) {
	if claims == nil || !claims.Kind.Valid() {
		return nil, apperr.ErrInvalidToken
	}

	cached, err := s.cache.GetPrincipal(ctx, claims.Kind, claims.PrincipalID)
	if err != nil {
		s.log.Warn("principal cache read failed", zap.Error(err))
	}
	if cached != nil && cached.TokenVersion == claims.TokenVersion {
		return cached, nil
	}

	var p *models.Principal
	switch claims.Kind {
	case models.PrincipalEmployee:
		e, err := s.employees.GetByID(ctx, claims.PrincipalID)
		if err != nil {
			return nil, tokenError(err)
		}
		p = models.PrincipalFromEmployee(e)
	default:
		u, err := s.users.GetByID(ctx, claims.PrincipalID)
		if err != nil {
			return nil, tokenError(err)
		}
		p = models.PrincipalFromUser(u)
	}

	if p.TokenVersion != claims.TokenVersion {
		return nil, apperr.ErrInvalidToken
	}
	if err := s.cache.CachePrincipal(ctx, p); err != nil {
		s.log.Warn("principal cache write failed", zap.Error(err))
	}
	return p, nil
}

func (s *service) issue(p *models.Principal) (*models.AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(p)
	if err != nil {
		return nil, apperr.Internal("failed to issue token", err)
	}
	return &models.AuthResult{Token: token, ExpiresAt: expiresAt, Principal: p}, nil
}

func (s *service) dropCache(ctx context.Context, kind models.PrincipalKind, id uint) {
	if err := s.cache.InvalidatePrincipal(ctx, kind, id); err != nil {
		s.log.Warn("principal cache invalidation failed", zap.Error(err))
	}
}

// credentialsError hides whether the email exists.
func credentialsError(err error) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.ErrInvalidCredentials
	}
	return err
}

// tokenError collapses a vanished principal into the generic token error.
func tokenError(err error) error {
	if apperr.KindOf(err) == apperr.KindNotFound {
		return apperr.ErrInvalidToken
	}
	return err
}
