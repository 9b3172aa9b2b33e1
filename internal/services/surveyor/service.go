package surveyor

import (
	"context"

	"dcip/internal/access"
	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/repositories"
	"dcip/internal/services/notification"
	"dcip/internal/utils"
	"dcip/internal/validation"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var errNotSurveyor = apperr.Conflict("EMAIL_IN_USE", "email belongs to an employee who is not a surveyor")

type PrincipalInvalidator interface {
	InvalidatePrincipal(ctx context.Context, kind models.PrincipalKind, id uint) error
}

type Service interface {
	// Create registers a surveyor profile, creating the underlying employee
	// when the email is new. Both rows are written together or not at all.
	Create(ctx context.Context, actor *models.Principal, input models.CreateSurveyorInput) (*models.Surveyor, error)
	List(ctx context.Context, actor *models.Principal, filter models.SurveyorFilter, page *utils.Pagination) ([]models.Surveyor, error)
	Get(ctx context.Context, actor *models.Principal, id uint) (*models.Surveyor, error)
	Update(ctx context.Context, actor *models.Principal, id uint, input models.UpdateSurveyorInput) (*models.Surveyor, error)
	SetStatus(ctx context.Context, actor *models.Principal, id uint, input models.UpdateStatusInput) (*models.Surveyor, error)
	Delete(ctx context.Context, actor *models.Principal, id uint) error

	Me(ctx context.Context, p *models.Principal) (*models.Surveyor, error)
	UpdateAvailability(ctx context.Context, p *models.Principal, input models.UpdateAvailabilityInput) (*models.Surveyor, error)
}

type service struct {
	surveyors repositories.SurveyorRepository
	employees repositories.EmployeeRepository
	users     repositories.UserRepository
	refs      repositories.ReferenceRepository
	notifier  notification.Service
	cache     PrincipalInvalidator
	log       *zap.Logger
}

func NewService(
	surveyors repositories.SurveyorRepository,
	employees repositories.EmployeeRepository,
	users repositories.UserRepository,
	refs repositories.ReferenceRepository,
	notifier notification.Service,
	cache PrincipalInvalidator,
	log *zap.Logger,
) Service {
	return &service{
		surveyors: surveyors,
		employees: employees,
		users:     users,
		refs:      refs,
		notifier:  notifier,
		cache:     cache,
		log:       log.Named("surveyor"),
	}
}

func (s *service) Create(ctx context.Context, actor *models.Principal, input models.CreateSurveyorInput) (*models.Surveyor, error) {
	if err := access.Authorize(actor, models.ActionSurveyorCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	email := validation.NormalizeEmail(input.Email)

	employee, err := s.employees.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if employee.Role.Name != models.RoleSurveyor {
			return nil, errNotSurveyor
		}
	case apperr.KindOf(err) == apperr.KindNotFound:
		employee, err = s.newEmployee(ctx, actor, email, input)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	settings := models.DefaultSurveyorSettings
	if input.Settings != nil {
		settings = *input.Settings
	}
	surveyor := &models.Surveyor{
		Organization:    input.Organization,
		Specializations: input.Specializations,
		Availability:    models.AvailabilityAvailable,
		Location:        input.Location,
		Statistics:      datatypes.NewJSONType(models.SurveyorStatistics{}),
		Settings:        datatypes.NewJSONType(settings),
	}
	created := employee.ID == 0
	if err := s.surveyors.Create(ctx, employee, surveyor); err != nil {
		return nil, err
	}

	if created {
		if err := s.notifier.SendWelcome(ctx, employee); err != nil {
			s.log.Warn("welcome email failed", zap.Uint("employee_id", employee.ID), zap.Error(err))
		}
	}
	s.log.Info("surveyor created",
		zap.Uint("surveyor_id", surveyor.ID),
		zap.Uint("employee_id", employee.ID),
		zap.Bool("new_employee", created),
		zap.Uint("actor_id", actor.ID))
	return s.surveyors.GetByID(ctx, surveyor.ID)
}

// newEmployee prepares, without saving, the employee row for a new surveyor.
func (s *service) newEmployee(ctx context.Context, actor *models.Principal, email string, input models.CreateSurveyorInput) (*models.Employee, error) {
	if err := validation.NewPassword(input.Password, input.Password); err != nil {
		return nil, err
	}
	taken, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, apperr.ErrEmailTaken
	}
	role, err := s.refs.RoleByName(ctx, models.RoleSurveyor)
	if err != nil {
		return nil, err
	}
	status, err := s.refs.StatusByName(ctx, models.StatusActive)
	if err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}
	createdBy := actor.ID
	return &models.Employee{
		Email:        email,
		Password:     hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		RoleID:       role.ID,
		Role:         *role,
		StatusID:     status.ID,
		Status:       *status,
		TokenVersion: 1,
		CreatedByID:  &createdBy,
	}, nil
}

func (s *service) List(ctx context.Context, actor *models.Principal, filter models.SurveyorFilter, page *utils.Pagination) ([]models.Surveyor, error) {
	if err := access.Authorize(actor, models.ActionSurveyorRead); err != nil {
		return nil, err
	}
	surveyors, total, err := s.surveyors.List(ctx, filter, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	page.SetTotal(total)
	return surveyors, nil
}

func (s *service) Get(ctx context.Context, actor *models.Principal, id uint) (*models.Surveyor, error) {
	if err := access.Authorize(actor, models.ActionSurveyorRead); err != nil {
		return nil, err
	}
	return s.surveyors.GetByID(ctx, id)
}

func (s *service) Update(ctx context.Context, actor *models.Principal, id uint, input models.UpdateSurveyorInput) (*models.Surveyor, error) {
	if err := access.Authorize(actor, models.ActionSurveyorUpdate); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	surveyor, err := s.surveyors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		surveyor.Employee.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		surveyor.Employee.LastName = *input.LastName
	}
	if input.Phone != nil {
		surveyor.Employee.Phone = *input.Phone
	}
	if input.Organization != nil {
		surveyor.Organization = *input.Organization
	}
	if input.Specializations != nil {
		surveyor.Specializations = input.Specializations
	}
	if input.Location != nil {
		surveyor.Location = *input.Location
	}
	if input.Settings != nil {
		surveyor.Settings = datatypes.NewJSONType(*input.Settings)
	}

	if err := s.surveyors.Update(ctx, surveyor); err != nil {
		return nil, err
	}
	s.dropCache(ctx, surveyor.EmployeeID)
	return surveyor, nil
}

func (s *service) SetStatus(ctx context.Context, actor *models.Principal, id uint, input models.UpdateStatusInput) (*models.Surveyor, error) {
	if err := access.Authorize(actor, models.ActionSurveyorUpdate); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	surveyor, err := s.surveyors.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := s.refs.StatusByName(ctx, input.Status)
	if err != nil {
		return nil, err
	}
	if err := s.employees.SetStatus(ctx, surveyor.EmployeeID, status.ID); err != nil {
		return nil, err
	}
	s.dropCache(ctx, surveyor.EmployeeID)

	surveyor.Employee.StatusID = status.ID
	surveyor.Employee.Status = *status
	s.log.Info("surveyor status changed",
		zap.Uint("surveyor_id", id),
		zap.String("status", string(status.Name)),
		zap.Uint("actor_id", actor.ID))
	return surveyor, nil
}

func (s *service) Delete(ctx context.Context, actor *models.Principal, id uint) error {
	if err := access.Authorize(actor, models.ActionSurveyorDelete); err != nil {
		return err
	}
	surveyor, err := s.surveyors.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.surveyors.Delete(ctx, id); err != nil {
		return err
	}
	s.dropCache(ctx, surveyor.EmployeeID)
	s.log.Info("surveyor deleted", zap.Uint("surveyor_id", id), zap.Uint("actor_id", actor.ID))
	return nil
}

func (s *service) Me(ctx context.Context, p *models.Principal) (*models.Surveyor, error) {
	if err := access.Authorize(p, models.ActionSurveyorSelf); err != nil {
		return nil, err
	}
	return s.surveyors.GetByEmployeeID(ctx, p.ID)
}

func (s *service) UpdateAvailability(ctx context.Context, p *models.Principal, input models.UpdateAvailabilityInput) (*models.Surveyor, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	surveyor, err := s.Me(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := s.surveyors.SetAvailability(ctx, surveyor.ID, input.Availability); err != nil {
		return nil, err
	}
	surveyor.Availability = input.Availability
	return surveyor, nil
}

func (s *service) dropCache(ctx context.Context, employeeID uint) {
	if err := s.cache.InvalidatePrincipal(ctx, models.PrincipalEmployee, employeeID); err != nil {
		s.log.Warn("principal cache invalidation failed", zap.Uint("employee_id", employeeID), zap.Error(err))
	}
}
