package mocks

import (
	"context"
	"time"

	"dcip/internal/models"

	"github.com/stretchr/testify/mock"
)

type OTPService struct {
	mock.Mock
}

func (m *OTPService) Issue(ctx context.Context, email string, purpose models.OTPPurpose) (time.Time, error) {
	args := m.Called(ctx, email, purpose)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *OTPService) Verify(ctx context.Context, email string, purpose models.OTPPurpose, code string) (string, error) {
	args := m.Called(ctx, email, purpose, code)
	return args.String(0), args.Error(1)
}

func (m *OTPService) CheckVerified(ctx context.Context, email string, purpose models.OTPPurpose) error {
	args := m.Called(ctx, email, purpose)
	return args.Error(0)
}

func (m *OTPService) ConsumeVerified(ctx context.Context, email string, purpose models.OTPPurpose) error {
	args := m.Called(ctx, email, purpose)
	return args.Error(0)
}

func (m *OTPService) ConsumeResetToken(ctx context.Context, email, token string) error {
	args := m.Called(ctx, email, token)
	return args.Error(0)
}

func (m *OTPService) PurgeExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type Notifier struct {
	mock.Mock
}

func (m *Notifier) SendOTP(ctx context.Context, email string, purpose models.OTPPurpose, code string, ttl time.Duration) error {
	return m.MethodCalled("SendOTP", ctx, email, purpose, code, ttl).Error(0)
}

func (m *Notifier) SendWelcome(ctx context.Context, employee *models.Employee) error {
	return m.MethodCalled("SendWelcome", ctx, employee).Error(0)
}

func (m *Notifier) SendAssignment(ctx context.Context, email, name string, policyID uint, deadline time.Time) error {
	return m.MethodCalled("SendAssignment", ctx, email, name, policyID, deadline).Error(0)
}

func (m *Notifier) SendReportReleased(ctx context.Context, email, name string, policyID uint, reference string) error {
	return m.MethodCalled("SendReportReleased", ctx, email, name, policyID, reference).Error(0)
}

type PrincipalCache struct {
	mock.Mock
}

func (m *PrincipalCache) GetPrincipal(ctx context.Context, kind models.PrincipalKind, id uint) (*models.Principal, error) {
	args := m.Called(ctx, kind, id)
	p, _ := args.Get(0).(*models.Principal)
	return p, args.Error(1)
}

func (m *PrincipalCache) CachePrincipal(ctx context.Context, p *models.Principal) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *PrincipalCache) InvalidatePrincipal(ctx context.Context, kind models.PrincipalKind, id uint) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

type TokenIssuer struct {
	mock.Mock
}

func (m *TokenIssuer) Issue(p *models.Principal) (string, time.Time, error) {
	args := m.Called(p)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}
