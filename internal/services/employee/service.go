// Package employee manages staff accounts: registration by a higher role,
// listing, the roles a caller may grant, and the administrator endpoints.
package employee

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
)

type PrincipalInvalidator interface {
	InvalidatePrincipal(ctx context.Context, kind models.PrincipalKind, id uint) error
}

type Service interface {
	RegisterEmployee(ctx context.Context, actor *models.Principal, input models.CreateEmployeeInput) (*models.Employee, error)
	ListEmployees(ctx context.Context, actor *models.Principal, filter models.EmployeeFilter, page *utils.Pagination) ([]models.Employee, error)
	AvailableRoles(ctx context.Context, actor *models.Principal) ([]models.RoleName, error)

	CreateAdministrator(ctx context.Context, actor *models.Principal, input models.CreateEmployeeInput) (*models.Employee, error)
	ListAdministrators(ctx context.Context, actor *models.Principal, filter models.EmployeeFilter, page *utils.Pagination) ([]models.Employee, error)
	GetAdministrator(ctx context.Context, actor *models.Principal, id uint) (*models.Employee, error)
	UpdateAdministrator(ctx context.Context, actor *models.Principal, id uint, input models.UpdateEmployeeInput) (*models.Employee, error)
	SetAdministratorStatus(ctx context.Context, actor *models.Principal, id uint, input models.UpdateStatusInput) (*models.Employee, error)
	DeleteAdministrator(ctx context.Context, actor *models.Principal, id uint) error
}

type service struct {
	employees repositories.EmployeeRepository
	users     repositories.UserRepository
	refs      repositories.ReferenceRepository
	notifier  notification.Service
	cache     PrincipalInvalidator
	log       *zap.Logger
}

func NewService(
	employees repositories.EmployeeRepository,
	users repositories.UserRepository,
	refs repositories.ReferenceRepository,
	notifier notification.Service,
	cache PrincipalInvalidator,
	log *zap.Logger,
) Service {
	return &service{
		employees: employees,
		users:     users,
		refs:      refs,
		notifier:  notifier,
		cache:     cache,
		log:       log.Named("employee"),
	}
}

func (s *service) RegisterEmployee(ctx context.Context, actor *models.Principal, input models.CreateEmployeeInput) (*models.Employee, error) {
	if err := access.Authorize(actor, models.ActionEmployeeCreate); err != nil {
		return nil, err
	}
	if err := access.AuthorizeRoleGrant(actor, input.Role); err != nil {
		return nil, err
	}
	return s.create(ctx, actor, input)
}

func (s *service) create(ctx context.Context, actor *models.Principal, input models.CreateEmployeeInput) (*models.Employee, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if err := validation.NewPassword(input.Password, input.Password); err != nil {
		return nil, err
	}

	email := validation.NormalizeEmail(input.Email)
	exists, err := repositories.EmailInUse(ctx, s.users, s.employees, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, apperr.ErrEmailTaken
	}

	role, err := s.refs.RoleByName(ctx, input.Role)
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
	employee := &models.Employee{
		Email:        email,
		Password:     hash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Phone:        input.Phone,
		RoleID:       role.ID,
		StatusID:     status.ID,
		TokenVersion: 1,
		CreatedByID:  &createdBy,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	employee.Role = *role
	employee.Status = *status

	if err := s.notifier.SendWelcome(ctx, employee); err != nil {
		s.log.Warn("welcome email failed", zap.Uint("employee_id", employee.ID), zap.Error(err))
	}
	s.log.Info("employee registered",
		zap.Uint("employee_id", employee.ID),
		zap.String("role", string(role.Name)),
		zap.Uint("created_by", actor.ID))
	return employee, nil
}

func (s *service) ListEmployees(ctx context.Context, actor *models.Principal, filter models.EmployeeFilter, page *utils.Pagination) ([]models.Employee, error) {
	if err := access.Authorize(actor, models.ActionEmployeeRead); err != nil {
		return nil, err
	}
	return s.list(ctx, filter, page)
}

func (s *service) list(ctx context.Context, filter models.EmployeeFilter, page *utils.Pagination) ([]models.Employee, error) {
	employees, total, err := s.employees.List(ctx, filter, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	page.SetTotal(total)
	return employees, nil
}

func (s *service) AvailableRoles(ctx context.Context, actor *models.Principal) ([]models.RoleName, error) {
	if err := access.Authorize(actor, models.ActionRoleList); err != nil {
		return nil, err
	}
	return access.AssignableRoles(actor), nil
}

func isAdministratorRole(role models.RoleName) bool {
	for _, r := range models.AdministratorRoles {
		if r == role {
			return true
		}
	}
	return false
}

func (s *service) CreateAdministrator(ctx context.Context, actor *models.Principal, input models.CreateEmployeeInput) (*models.Employee, error) {
	if err := access.Authorize(actor, models.ActionAdministratorManage); err != nil {
		return nil, err
	}
	if !isAdministratorRole(input.Role) {
		return nil, apperr.BadRequest("INVALID_ROLE", "administrators must be Super-admin, Admin or Staff")
	}
	if err := access.AuthorizeRoleGrant(actor, input.Role); err != nil {
		return nil, err
	}
	return s.create(ctx, actor, input)
}

func (s *service) ListAdministrators(ctx context.Context, actor *models.Principal, filter models.EmployeeFilter, page *utils.Pagination) ([]models.Employee, error) {
	if err := access.Authorize(actor, models.ActionAdministratorManage); err != nil {
		return nil, err
	}
	roles := make([]models.RoleName, 0, len(models.AdministratorRoles))
	for _, r := range filter.Roles {
		if isAdministratorRole(r) {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = models.AdministratorRoles
	}
	filter.Roles = roles
	return s.list(ctx, filter, page)
}

// administrator loads an employee and hides anyone outside the
// administrator roles.
func (s *service) administrator(ctx context.Context, id uint) (*models.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isAdministratorRole(employee.Role.Name) {
		return nil, apperr.ErrEmployeeNotFound
	}
	return employee, nil
}

func (s *service) GetAdministrator(ctx context.Context, actor *models.Principal, id uint) (*models.Employee, error) {
	if err := access.Authorize(actor, models.ActionAdministratorManage); err != nil {
		return nil, err
	}
	return s.administrator(ctx, id)
}

func (s *service) UpdateAdministrator(ctx context.Context, actor *models.Principal, id uint, input models.UpdateEmployeeInput) (*models.Employee, error) {
	if err := access.Authorize(actor, models.ActionAdministratorManage); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.administrator(ctx, id); err != nil {
		return nil, err
	}
	if err := s.employees.UpdateProfile(ctx, id, input); err != nil {
		return nil, err
	}
	s.dropCache(ctx, id)
	return s.employees.GetByID(ctx, id)
}

func (s *service) SetAdministratorStatus(ctx context.Context, actor *models.Principal, id uint, input models.UpdateStatusInput) (*models.Employee, error) {
	if err := access.Authorize(actor, models.ActionAdministratorManage); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if actor.ID == id {
		return nil, apperr.ErrSelfModification
	}
	employee, err := s.administrator(ctx, id)
	if err != nil {
		return nil, err
	}
	status, err := s.refs.StatusByName(ctx, input.Status)
	if err != nil {
		return nil, err
	}
	if err := s.employees.SetStatus(ctx, id, status.ID); err != nil {
		return nil, err
	}
	s.dropCache(ctx, id)

	employee.StatusID = status.ID
	employee.Status = *status
	s.log.Info("administrator status changed",
		zap.Uint("employee_id", id),
		zap.String("status", string(status.Name)),
		zap.Uint("actor_id", actor.ID))
	return employee, nil
}

func (s *service) DeleteAdministrator(ctx context.Context, actor *models.Principal, id uint) error {
	if err := access.Authorize(actor, models.ActionAdministratorManage); err != nil {
		return err
	}
	if actor.ID == id {
		return apperr.ErrSelfModification
	}
	if _, err := s.administrator(ctx, id); err != nil {
		return err
	}
	if err := s.employees.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.dropCache(ctx, id)
	s.log.Info("administrator deleted", zap.Uint("employee_id", id), zap.Uint("actor_id", actor.ID))
	return nil
}

func (s *service) dropCache(ctx context.Context, id uint) {
	if err := s.cache.InvalidatePrincipal(ctx, models.PrincipalEmployee, id); err != nil {
		s.log.Warn("principal cache invalidation failed", zap.Uint("employee_id", id), zap.Error(err))
	}
}
