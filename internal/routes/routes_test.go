package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"dcip/internal/config"
	apperr "dcip/internal/errors"
	"dcip/internal/handlers"
	"dcip/internal/middleware"
	"dcip/internal/mocks"
	"dcip/internal/models"
	"dcip/internal/services/assignment"
	"dcip/internal/services/auth"
	"dcip/internal/services/employee"
	"dcip/internal/services/policy"
	"dcip/internal/services/property"
	"dcip/internal/services/reset"
	"dcip/internal/services/scheduler"
	"dcip/internal/services/surveyor"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testAPIKey = "test-api-key"
	strongPass = "Str0ng!Pass"
)

var resetTokenHex = utils.SecureToken()

type fixture struct {
	app        *fiber.App
	tokens     *utils.TokenIssuer
	users      *mocks.UserRepository
	employees  *mocks.EmployeeRepository
	refs       *mocks.ReferenceRepository
	properties *mocks.PropertyRepository
	otps       *mocks.OTPService
	cache      *mocks.PrincipalCache
}

func newFixture() *fixture {
	log := zap.NewNop()
	f := &fixture{
		tokens:     utils.NewTokenIssuer("test-secret", time.Hour),
		users:      new(mocks.UserRepository),
		employees:  new(mocks.EmployeeRepository),
		refs:       new(mocks.ReferenceRepository),
		properties: new(mocks.PropertyRepository),
		otps:       new(mocks.OTPService),
		cache:      new(mocks.PrincipalCache),
	}
	notifier := new(mocks.Notifier)
	policies := new(mocks.PolicyRepository)
	surveyors := new(mocks.SurveyorRepository)

	authService := auth.NewService(f.users, f.employees, f.otps, f.tokens, f.cache, log)
	assignmentService := assignment.NewService(
		new(mocks.AssignmentRepository),
		new(mocks.ReportRepository),
		policies,
		surveyors,
		f.users,
		notifier,
		config.SchedulerConfig{AssignmentDeadline: 72 * time.Hour},
		log,
	)

	f.app = fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(log)})
	SetupRoutes(f.app, Handlers{
		Auth:          handlers.NewAuthHandler(authService),
		PasswordReset: handlers.NewPasswordResetHandler(reset.NewService(f.users, f.employees, f.otps, f.cache, log)),
		Employee:      handlers.NewEmployeeHandler(employee.NewService(f.employees, f.users, f.refs, notifier, f.cache, log)),
		Property:      handlers.NewPropertyHandler(property.NewService(f.properties, f.refs, log)),
		Policy:        handlers.NewPolicyHandler(policy.NewService(policies, f.properties, log), assignmentService),
		Surveyor:      handlers.NewSurveyorHandler(surveyor.NewService(surveyors, f.employees, f.users, f.refs, notifier, f.cache, log)),
		Report:        handlers.NewReportHandler(assignmentService),
		Scheduler:     handlers.NewSchedulerHandler(scheduler.New(f.otps, assignmentService, time.Minute, log)),
		Health:        handlers.NewHealthHandler(map[string]handlers.Pinger{}),
	}, middleware.NewAuthMiddleware(f.tokens, authService, log), Config{APIKey: testAPIKey, OTPLimit: 5})
	return f
}

// login issues a token for p and primes the principal cache with it.
func (f *fixture) login(t *testing.T, p *models.Principal) string {
	t.Helper()
	p.TokenVersion = 1
	token, _, err := f.tokens.Issue(p)
	require.NoError(t, err)
	f.cache.On("GetPrincipal", mock.Anything, p.Kind, p.ID).Return(p, nil)
	return token
}

func (f *fixture) do(t *testing.T, method, path, token string, body interface{}) (int, utils.Envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := f.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env utils.Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func owner() *models.Principal {
	return &models.Principal{ID: 7, Kind: models.PrincipalUser, Email: "owner@example.com"}
}

func staffMember(role models.RoleName, status models.StatusName) *models.Principal {
	return &models.Principal{ID: 2, Kind: models.PrincipalEmployee, Email: "staff@example.com", Role: role, Status: status}
}

func TestHealthNeedsNoAPIKey(t *testing.T) {
	f := newFixture()

	resp, err := f.app.Test(httptest.NewRequest(fiber.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAPIKeyRequired(t *testing.T) {
	f := newFixture()

	resp, err := f.app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/property/categories", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	f.refs.AssertNotCalled(t, "Categories", mock.Anything)

	f.refs.On("Categories", mock.Anything).Return([]models.Category{{Name: "Residential"}}, nil)
	status, env := f.do(t, fiber.MethodGet, "/api/v1/property/categories", "", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)
}

func TestBearerTokenRequired(t *testing.T) {
	f := newFixture()

	status, env := f.do(t, fiber.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, apperr.ErrInvalidToken.Message, env.Message)

	status, _ = f.do(t, fiber.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	token := f.login(t, owner())
	status, env = f.do(t, fiber.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "owner@example.com", data["email"])
}

func TestInactiveEmployeeRejected(t *testing.T) {
	f := newFixture()
	token := f.login(t, staffMember(models.RoleAdmin, models.StatusInactive))

	status, env := f.do(t, fiber.MethodGet, "/api/v1/auth/employees", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperr.ErrInactivePrincipal.Message, env.Message)
	f.employees.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAdminCannotCreateSuperAdmin(t *testing.T) {
	f := newFixture()
	token := f.login(t, staffMember(models.RoleAdmin, models.StatusActive))

	status, env := f.do(t, fiber.MethodPost, "/api/v1/auth/employees", token, models.CreateEmployeeInput{
		Email:     "boss@example.com",
		Password:  strongPass,
		FirstName: "Boss",
		Role:      models.RoleSuperAdmin,
	})
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, apperr.ErrRoleNotGrantable.Message, env.Message)
	f.employees.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)

	status, _ = f.do(t, fiber.MethodGet, "/api/v1/admin/administrators", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestUserCannotReachAdminRoutes(t *testing.T) {
	f := newFixture()
	token := f.login(t, owner())

	status, _ := f.do(t, fiber.MethodGet, "/api/v1/admin/surveyors", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = f.do(t, fiber.MethodPost, "/api/v1/scheduled-processor/run", token, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestPropertySoftDelete(t *testing.T) {
	f := newFixture()
	p := owner()
	token := f.login(t, p)

	f.properties.On("SoftDelete", mock.Anything, p.ID, uint(12)).Return(nil).Once()
	f.properties.On("GetOwned", mock.Anything, p.ID, uint(12)).Return(nil, apperr.ErrPropertyNotFound)

	status, env := f.do(t, fiber.MethodDelete, "/api/v1/property/12", token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)

	status, env = f.do(t, fiber.MethodGet, "/api/v1/property/12", token, nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, apperr.ErrPropertyNotFound.Message, env.Message)

	status, _ = f.do(t, fiber.MethodDelete, "/api/v1/property/abc", token, nil)
	assert.Equal(t, fiber.StatusBadRequest, status)
	f.properties.AssertExpectations(t)
}

func TestPasswordResetTokenIsSingleUse(t *testing.T) {
	f := newFixture()
	u := &models.User{Email: "owner@example.com"}
	u.ID = 7

	f.users.On("GetByEmail", mock.Anything, "owner@example.com").Return(u, nil)
	f.otps.On("ConsumeResetToken", mock.Anything, "owner@example.com", resetTokenHex).Return(nil).Once()
	f.otps.On("ConsumeResetToken", mock.Anything, "owner@example.com", resetTokenHex).Return(apperr.ErrResetTokenInvalid)
	f.users.On("UpdatePassword", mock.Anything, uint(7), mock.AnythingOfType("string")).Return(nil).Once()
	f.cache.On("InvalidatePrincipal", mock.Anything, models.PrincipalUser, uint(7)).Return(nil)

	body := models.ResetPasswordInput{
		Email:           "Owner@Example.com",
		ResetToken:      resetTokenHex,
		Password:        strongPass,
		ConfirmPassword: strongPass,
	}

	status, env := f.do(t, fiber.MethodPost, "/api/v1/reset-password/reset", "", body)
	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, env.Success)

	status, env = f.do(t, fiber.MethodPost, "/api/v1/reset-password/reset", "", body)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, apperr.ErrResetTokenInvalid.Message, env.Message)
	f.users.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestMalformedBody(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(fiber.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	req.Header.Set(middleware.APIKeyHeader, testAPIKey)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestOTPRouteIsRateLimited(t *testing.T) {
	f := newFixture()
	f.users.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
	f.employees.On("EmailExists", mock.Anything, "new@example.com").Return(false, nil)
	f.otps.On("Issue", mock.Anything, "new@example.com", models.OTPPurposeRegistration).Return(time.Now().Add(10*time.Minute), nil)

	body := models.OTPRequestInput{Email: "new@example.com"}
	for i := 0; i < 5; i++ {
		status, _ := f.do(t, fiber.MethodPost, "/api/v1/auth/request-otp", "", body)
		require.Equal(t, fiber.StatusOK, status)
	}
	status, _ := f.do(t, fiber.MethodPost, "/api/v1/auth/request-otp", "", body)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
}
