package reset

import (
	"context"
	"errors"
	"testing"
	"time"

	apperr "dcip/internal/errors"
	"dcip/internal/mocks"
	"dcip/internal/models"
	"dcip/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	newPassword = "N3w!Passw0rd"
	token       = "a3f1c9e07b2d4e6f8091a2b3c4d5e6f708192a3b4c5d6e7f8091a2b3c4d5e6f7"
)

type fixture struct {
	users     *mocks.UserRepository
	employees *mocks.EmployeeRepository
	otps      *mocks.OTPService
	cache     *mocks.PrincipalCache
	svc       Service
}

func newFixture() *fixture {
	f := &fixture{
		users:     new(mocks.UserRepository),
		employees: new(mocks.EmployeeRepository),
		otps:      new(mocks.OTPService),
		cache:     new(mocks.PrincipalCache),
	}
	f.svc = NewService(f.users, f.employees, f.otps, f.cache, zap.NewNop())
	return f
}

func user(id uint, email string) *models.User {
	u := &models.User{Email: email}
	u.ID = id
	return u
}

func TestSendOTP(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperr.ErrAccountNotFound)
		f.employees.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperr.ErrEmployeeNotFound)

		_, err := f.svc.SendOTP(ctx, "ghost@example.com")
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
		f.otps.AssertNotCalled(t, "Issue", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("employee email", func(t *testing.T) {
		f := newFixture()
		e := &models.Employee{Email: "staff@example.com"}
		e.ID = 3
		expires := time.Now().Add(10 * time.Minute)
		f.users.On("GetByEmail", ctx, "staff@example.com").Return(nil, apperr.ErrAccountNotFound)
		f.employees.On("GetByEmail", ctx, "staff@example.com").Return(e, nil)
		f.otps.On("Issue", ctx, "staff@example.com", models.OTPPurposeResetPassword).Return(expires, nil)

		got, err := f.svc.SendOTP(ctx, "Staff@Example.com")
		require.NoError(t, err)
		assert.Equal(t, expires, got)
	})

	t.Run("lookup failure is not hidden", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetByEmail", ctx, "owner@example.com").Return(nil, apperr.Internal("database operation failed", errors.New("boom")))

		_, err := f.svc.SendOTP(ctx, "owner@example.com")
		assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	})

	t.Run("malformed email", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.SendOTP(ctx, "not-an-email")
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	input := models.ResetPasswordInput{
		Email:           "owner@example.com",
		ResetToken:      token,
		Password:        newPassword,
		ConfirmPassword: newPassword,
	}

	t.Run("updates the user and drops the cache", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetByEmail", ctx, input.Email).Return(user(5, input.Email), nil)
		f.otps.On("ConsumeResetToken", ctx, input.Email, token).Return(nil)
		f.users.On("UpdatePassword", ctx, uint(5), mock.MatchedBy(func(h string) bool {
			return utils.CheckPassword(h, newPassword)
		})).Return(nil)
		f.cache.On("InvalidatePrincipal", ctx, models.PrincipalUser, uint(5)).Return(nil)

		require.NoError(t, f.svc.Reset(ctx, input))
		f.users.AssertExpectations(t)
		f.cache.AssertExpectations(t)
	})

	t.Run("replayed token", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetByEmail", ctx, input.Email).Return(user(5, input.Email), nil)
		f.otps.On("ConsumeResetToken", ctx, input.Email, token).Return(apperr.ErrResetTokenInvalid)

		err := f.svc.Reset(ctx, input)
		assert.ErrorIs(t, err, apperr.ErrResetTokenInvalid)
		f.users.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown account reads as a bad token", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetByEmail", ctx, input.Email).Return(nil, apperr.ErrAccountNotFound)
		f.employees.On("GetByEmail", ctx, input.Email).Return(nil, apperr.ErrEmployeeNotFound)

		err := f.svc.Reset(ctx, input)
		assert.ErrorIs(t, err, apperr.ErrResetTokenInvalid)
	})

	t.Run("employee account", func(t *testing.T) {
		f := newFixture()
		e := &models.Employee{Email: input.Email}
		e.ID = 8
		f.users.On("GetByEmail", ctx, input.Email).Return(nil, apperr.ErrAccountNotFound)
		f.employees.On("GetByEmail", ctx, input.Email).Return(e, nil)
		f.otps.On("ConsumeResetToken", ctx, input.Email, token).Return(nil)
		f.employees.On("UpdatePassword", ctx, uint(8), mock.Anything).Return(nil)
		f.cache.On("InvalidatePrincipal", ctx, models.PrincipalEmployee, uint(8)).Return(errors.New("redis down"))

		require.NoError(t, f.svc.Reset(ctx, input))
		f.employees.AssertExpectations(t)
	})

	t.Run("weak password never touches the token", func(t *testing.T) {
		f := newFixture()
		weak := input
		weak.Password = "password"
		weak.ConfirmPassword = "password"

		err := f.svc.Reset(ctx, weak)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		f.otps.AssertNotCalled(t, "ConsumeResetToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("malformed token", func(t *testing.T) {
		f := newFixture()
		bad := input
		bad.ResetToken = "short"

		err := f.svc.Reset(ctx, bad)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})
}
