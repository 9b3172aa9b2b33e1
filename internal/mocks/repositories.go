// Package mocks holds testify mocks for the repository and collaborator
// interfaces shared across service tests.
package mocks

import (
	"context"
	"time"

	"dcip/internal/models"
	"dcip/internal/repositories"

	"github.com/stretchr/testify/mock"
)

type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *UserRepository) UpdatePassword(ctx context.Context, userID uint, hashedPassword string) error {
	args := m.Called(ctx, userID, hashedPassword)
	return args.Error(0)
}

func (m *UserRepository) IncrementTokenVersion(ctx context.Context, userID uint) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type EmployeeRepository struct {
	mock.Mock
}

func (m *EmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *EmployeeRepository) GetByID(ctx context.Context, id uint) (*models.Employee, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *EmployeeRepository) GetByEmail(ctx context.Context, email string) (*models.Employee, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *EmployeeRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *EmployeeRepository) List(ctx context.Context, filter models.EmployeeFilter, offset, limit int) ([]models.Employee, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	employees, _ := args.Get(0).([]models.Employee)
	return employees, args.Get(1).(int64), args.Error(2)
}

func (m *EmployeeRepository) UpdateProfile(ctx context.Context, id uint, input models.UpdateEmployeeInput) error {
	args := m.Called(ctx, id, input)
	return args.Error(0)
}

func (m *EmployeeRepository) SetStatus(ctx context.Context, id uint, statusID uint) error {
	args := m.Called(ctx, id, statusID)
	return args.Error(0)
}

func (m *EmployeeRepository) SoftDelete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *EmployeeRepository) UpdatePassword(ctx context.Context, id uint, hashedPassword string) error {
	args := m.Called(ctx, id, hashedPassword)
	return args.Error(0)
}

func (m *EmployeeRepository) IncrementTokenVersion(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type ReferenceRepository struct {
	mock.Mock
}

func (m *ReferenceRepository) RoleByName(ctx context.Context, name models.RoleName) (*models.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *ReferenceRepository) StatusByName(ctx context.Context, name models.StatusName) (*models.Status, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Status), args.Error(1)
}

func (m *ReferenceRepository) Categories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	categories, _ := args.Get(0).([]models.Category)
	return categories, args.Error(1)
}

func (m *ReferenceRepository) CategoryExists(ctx context.Context, id uint) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type PropertyRepository struct {
	mock.Mock
}

func (m *PropertyRepository) Create(ctx context.Context, property *models.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *PropertyRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.Property, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *PropertyRepository) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.Property, int64, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	properties, _ := args.Get(0).([]models.Property)
	return properties, args.Get(1).(int64), args.Error(2)
}

func (m *PropertyRepository) Update(ctx context.Context, property *models.Property) error {
	args := m.Called(ctx, property)
	return args.Error(0)
}

func (m *PropertyRepository) SoftDelete(ctx context.Context, ownerID, id uint) error {
	args := m.Called(ctx, ownerID, id)
	return args.Error(0)
}

type PolicyRepository struct {
	mock.Mock
}

func (m *PolicyRepository) Create(ctx context.Context, policy *models.PolicyRequest) error {
	args := m.Called(ctx, policy)
	return args.Error(0)
}

func (m *PolicyRepository) GetByID(ctx context.Context, id uint) (*models.PolicyRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PolicyRequest), args.Error(1)
}

func (m *PolicyRepository) GetOwned(ctx context.Context, ownerID, id uint) (*models.PolicyRequest, error) {
	args := m.Called(ctx, ownerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PolicyRequest), args.Error(1)
}

func (m *PolicyRepository) ListByOwner(ctx context.Context, ownerID uint, offset, limit int) ([]models.PolicyRequest, int64, error) {
	args := m.Called(ctx, ownerID, offset, limit)
	policies, _ := args.Get(0).([]models.PolicyRequest)
	return policies, args.Get(1).(int64), args.Error(2)
}

func (m *PolicyRepository) List(ctx context.Context, status models.PolicyStatus, offset, limit int) ([]models.PolicyRequest, int64, error) {
	args := m.Called(ctx, status, offset, limit)
	policies, _ := args.Get(0).([]models.PolicyRequest)
	return policies, args.Get(1).(int64), args.Error(2)
}

func (m *PolicyRepository) Transition(ctx context.Context, id uint, from []models.PolicyStatus, to models.PolicyStatus) error {
	args := m.Called(ctx, id, from, to)
	return args.Error(0)
}

type SurveyorRepository struct {
	mock.Mock
}

func (m *SurveyorRepository) Create(ctx context.Context, employee *models.Employee, surveyor *models.Surveyor) error {
	args := m.Called(ctx, employee, surveyor)
	return args.Error(0)
}

func (m *SurveyorRepository) GetByID(ctx context.Context, id uint) (*models.Surveyor, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Surveyor), args.Error(1)
}

func (m *SurveyorRepository) GetByEmployeeID(ctx context.Context, employeeID uint) (*models.Surveyor, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Surveyor), args.Error(1)
}

func (m *SurveyorRepository) List(ctx context.Context, filter models.SurveyorFilter, offset, limit int) ([]models.Surveyor, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	surveyors, _ := args.Get(0).([]models.Surveyor)
	return surveyors, args.Get(1).(int64), args.Error(2)
}

func (m *SurveyorRepository) Update(ctx context.Context, surveyor *models.Surveyor) error {
	args := m.Called(ctx, surveyor)
	return args.Error(0)
}

func (m *SurveyorRepository) SetAvailability(ctx context.Context, id uint, availability models.Availability) error {
	args := m.Called(ctx, id, availability)
	return args.Error(0)
}

func (m *SurveyorRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type AssignmentRepository struct {
	mock.Mock
}

func (m *AssignmentRepository) CreateDual(ctx context.Context, policyID uint, assignments []*models.Assignment) error {
	args := m.Called(ctx, policyID, assignments)
	return args.Error(0)
}

func (m *AssignmentRepository) GetByID(ctx context.Context, id uint) (*models.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Assignment), args.Error(1)
}

func (m *AssignmentRepository) ListBySurveyor(ctx context.Context, surveyorID uint, offset, limit int) ([]models.Assignment, int64, error) {
	args := m.Called(ctx, surveyorID, offset, limit)
	assignments, _ := args.Get(0).([]models.Assignment)
	return assignments, args.Get(1).(int64), args.Error(2)
}

func (m *AssignmentRepository) ListByPolicy(ctx context.Context, policyID uint) ([]models.Assignment, error) {
	args := m.Called(ctx, policyID)
	assignments, _ := args.Get(0).([]models.Assignment)
	return assignments, args.Error(1)
}

func (m *AssignmentRepository) Accept(ctx context.Context, id, surveyorID uint, now time.Time) error {
	args := m.Called(ctx, id, surveyorID, now)
	return args.Error(0)
}

func (m *AssignmentRepository) SubmitReport(ctx context.Context, assignment *models.Assignment, report *models.SurveyReport, now time.Time) error {
	args := m.Called(ctx, assignment, report, now)
	return args.Error(0)
}

func (m *AssignmentRepository) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AssignmentRepository) PoliciesReadyForMerge(ctx context.Context) ([]uint, error) {
	args := m.Called(ctx)
	ids, _ := args.Get(0).([]uint)
	return ids, args.Error(1)
}

type ReportRepository struct {
	mock.Mock
}

func (m *ReportRepository) GetMerged(ctx context.Context, policyID uint) (*models.MergedReport, error) {
	args := m.Called(ctx, policyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MergedReport), args.Error(1)
}

func (m *ReportRepository) SaveMerged(ctx context.Context, report *models.MergedReport) (*models.MergedReport, bool, error) {
	args := m.Called(ctx, report)
	var stored *models.MergedReport
	switch v := args.Get(0).(type) {
	case func(*models.MergedReport) *models.MergedReport:
		stored = v(report)
	case *models.MergedReport:
		stored = v
	}
	return stored, args.Bool(1), args.Error(2)
}

func (m *ReportRepository) Release(ctx context.Context, policyID, actorID uint, now time.Time) error {
	args := m.Called(ctx, policyID, actorID, now)
	return args.Error(0)
}

var (
	_ repositories.UserRepository       = (*UserRepository)(nil)
	_ repositories.EmployeeRepository   = (*EmployeeRepository)(nil)
	_ repositories.ReferenceRepository  = (*ReferenceRepository)(nil)
	_ repositories.PropertyRepository   = (*PropertyRepository)(nil)
	_ repositories.PolicyRepository     = (*PolicyRepository)(nil)
	_ repositories.SurveyorRepository   = (*SurveyorRepository)(nil)
	_ repositories.AssignmentRepository = (*AssignmentRepository)(nil)
	_ repositories.ReportRepository     = (*ReportRepository)(nil)
)
