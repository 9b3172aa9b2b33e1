package assignment

import (
	"context"
	"errors"
	"testing"
	"time"

	"dcip/internal/config"
	apperr "dcip/internal/errors"
	"dcip/internal/mocks"
	"dcip/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var (
	fixedNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	staff    = &models.Principal{ID: 1, Kind: models.PrincipalEmployee, Role: models.RoleStaff, Status: models.StatusActive}
	admin    = &models.Principal{ID: 2, Kind: models.PrincipalEmployee, Role: models.RoleAdmin, Status: models.StatusActive}
	me       = &models.Principal{ID: 30, Kind: models.PrincipalEmployee, Role: models.RoleSurveyor, Status: models.StatusActive}
	owner    = &models.Principal{ID: 5, Kind: models.PrincipalUser}
)

type fixture struct {
	assignments *mocks.AssignmentRepository
	reports     *mocks.ReportRepository
	policies    *mocks.PolicyRepository
	surveyors   *mocks.SurveyorRepository
	users       *mocks.UserRepository
	notifier    *mocks.Notifier
	svc         Service
}

func newFixture() *fixture {
	f := &fixture{
		assignments: new(mocks.AssignmentRepository),
		reports:     new(mocks.ReportRepository),
		policies:    new(mocks.PolicyRepository),
		surveyors:   new(mocks.SurveyorRepository),
		users:       new(mocks.UserRepository),
		notifier:    new(mocks.Notifier),
	}
	svc := NewService(f.assignments, f.reports, f.policies, f.surveyors, f.users, f.notifier,
		config.SchedulerConfig{AssignmentDeadline: 72 * time.Hour}, zap.NewNop())
	svc.(*service).now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func surveyorProfile(id, employeeID uint, org string, status models.StatusName, notify bool) *models.Surveyor {
	s := &models.Surveyor{
		EmployeeID:   employeeID,
		Organization: org,
		Availability: models.AvailabilityAvailable,
		Statistics:   datatypes.NewJSONType(models.SurveyorStatistics{}),
		Settings:     datatypes.NewJSONType(models.SurveyorSettings{EmailNotifications: notify}),
	}
	s.ID = id
	s.Employee.ID = employeeID
	s.Employee.Email = "surveyor" + org + "@example.com"
	s.Employee.FirstName = org
	s.Employee.Status = models.Status{Name: status}
	return s
}

func submittedPolicy(id uint) *models.PolicyRequest {
	p := &models.PolicyRequest{OwnerID: 5, Status: models.PolicyStatusSubmitted}
	p.ID = id
	return p
}

func TestAssignDual(t *testing.T) {
	ctx := context.Background()
	in := models.DualAssignInput{PolicyRequestID: 8, SurveyorIDs: []uint{10, 11}}

	t.Run("two organizations", func(t *testing.T) {
		f := newFixture()
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)
		f.surveyors.On("GetByID", ctx, uint(10)).Return(surveyorProfile(10, 30, "Acme", models.StatusActive, true), nil)
		f.surveyors.On("GetByID", ctx, uint(11)).Return(surveyorProfile(11, 31, "Beta", models.StatusActive, false), nil)
		f.assignments.On("CreateDual", ctx, uint(8), mock.MatchedBy(func(as []*models.Assignment) bool {
			return len(as) == 2 &&
				as[0].SurveyorID == 10 && as[1].SurveyorID == 11 &&
				as[0].Organization == "Acme" && as[1].Organization == "Beta" &&
				as[0].Deadline.Equal(fixedNow.Add(72*time.Hour)) &&
				as[0].AssignedByID == staff.ID
		})).Return(nil)
		f.notifier.On("SendAssignment", ctx, "surveyorAcme@example.com", "Acme", uint(8), fixedNow.Add(72*time.Hour)).Return(nil)

		out, err := f.svc.AssignDual(ctx, staff, in)
		require.NoError(t, err)
		assert.Len(t, out, 2)
		f.assignments.AssertExpectations(t)
		f.notifier.AssertExpectations(t)
		f.notifier.AssertNumberOfCalls(t, "SendAssignment", 1)
	})

	t.Run("same organization", func(t *testing.T) {
		f := newFixture()
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)
		f.surveyors.On("GetByID", ctx, uint(10)).Return(surveyorProfile(10, 30, "Acme", models.StatusActive, true), nil)
		f.surveyors.On("GetByID", ctx, uint(11)).Return(surveyorProfile(11, 31, " acme ", models.StatusActive, true), nil)

		_, err := f.svc.AssignDual(ctx, staff, in)
		assert.ErrorIs(t, err, apperr.ErrSameOrganization)
		f.assignments.AssertNotCalled(t, "CreateDual", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("inactive surveyor", func(t *testing.T) {
		f := newFixture()
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)
		f.surveyors.On("GetByID", ctx, uint(10)).Return(surveyorProfile(10, 30, "Acme", models.StatusInactive, true), nil)

		_, err := f.svc.AssignDual(ctx, staff, in)
		assert.ErrorIs(t, err, apperr.ErrSurveyorUnavailable)
	})

	t.Run("same surveyor twice", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.AssignDual(ctx, staff, models.DualAssignInput{PolicyRequestID: 8, SurveyorIDs: []uint{10, 10}})
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})

	t.Run("one surveyor only", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.AssignDual(ctx, staff, models.DualAssignInput{PolicyRequestID: 8, SurveyorIDs: []uint{10}})
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})

	t.Run("policy already assigned", func(t *testing.T) {
		f := newFixture()
		p := submittedPolicy(8)
		p.Status = models.PolicyStatusAssigned
		f.policies.On("GetByID", ctx, uint(8)).Return(p, nil)

		_, err := f.svc.AssignDual(ctx, staff, in)
		assert.ErrorIs(t, err, apperr.ErrPolicyState)
	})

	t.Run("past deadline", func(t *testing.T) {
		f := newFixture()
		past := fixedNow.Add(-time.Hour)
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)

		_, err := f.svc.AssignDual(ctx, staff, models.DualAssignInput{PolicyRequestID: 8, SurveyorIDs: []uint{10, 11}, Deadline: &past})
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
	})

	t.Run("surveyors cannot assign", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.AssignDual(ctx, me, in)
		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})
}

func assignment(id, surveyorID uint, status models.AssignmentStatus) *models.Assignment {
	a := &models.Assignment{PolicyRequestID: 8, SurveyorID: surveyorID, Status: status}
	a.ID = id
	return a
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	report := models.SubmitReportInput{
		Findings:       map[string]interface{}{"roof": "sound"},
		RiskLevel:      models.RiskLow,
		Recommendation: "Insurable as is.",
	}

	t.Run("own open assignment", func(t *testing.T) {
		f := newFixture()
		f.surveyors.On("GetByEmployeeID", ctx, uint(30)).Return(surveyorProfile(10, 30, "Acme", models.StatusActive, true), nil)
		f.assignments.On("GetByID", ctx, uint(40)).Return(assignment(40, 10, models.AssignmentStatusOverdue), nil)
		f.assignments.On("SubmitReport", ctx, mock.Anything, mock.MatchedBy(func(r *models.SurveyReport) bool {
			return r.RiskLevel == models.RiskLow && r.Findings["roof"] == "sound"
		}), fixedNow).Return(nil)

		a, err := f.svc.Submit(ctx, me, 40, report)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusSubmitted, a.Status)
		assert.Equal(t, fixedNow, *a.SubmittedAt)
	})

	t.Run("someone else's assignment", func(t *testing.T) {
		f := newFixture()
		f.surveyors.On("GetByEmployeeID", ctx, uint(30)).Return(surveyorProfile(10, 30, "Acme", models.StatusActive, true), nil)
		f.assignments.On("GetByID", ctx, uint(41)).Return(assignment(41, 11, models.AssignmentStatusAssigned), nil)

		_, err := f.svc.Submit(ctx, me, 41, report)
		assert.ErrorIs(t, err, apperr.ErrAssignmentNotFound)
	})

	t.Run("already submitted", func(t *testing.T) {
		f := newFixture()
		f.surveyors.On("GetByEmployeeID", ctx, uint(30)).Return(surveyorProfile(10, 30, "Acme", models.StatusActive, true), nil)
		f.assignments.On("GetByID", ctx, uint(40)).Return(assignment(40, 10, models.AssignmentStatusSubmitted), nil)

		_, err := f.svc.Submit(ctx, me, 40, report)
		assert.ErrorIs(t, err, apperr.ErrAssignmentState)
		f.assignments.AssertNotCalled(t, "SubmitReport", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("accept", func(t *testing.T) {
		f := newFixture()
		f.surveyors.On("GetByEmployeeID", ctx, uint(30)).Return(surveyorProfile(10, 30, "Acme", models.StatusActive, true), nil)
		f.assignments.On("GetByID", ctx, uint(40)).Return(assignment(40, 10, models.AssignmentStatusAssigned), nil)
		f.assignments.On("Accept", ctx, uint(40), uint(10), fixedNow).Return(nil)

		a, err := f.svc.Accept(ctx, me, 40)
		require.NoError(t, err)
		assert.Equal(t, models.AssignmentStatusAccepted, a.Status)
	})
}

func submittedPair() []models.Assignment {
	a := assignment(40, 10, models.AssignmentStatusSubmitted)
	a.Organization = "Acme"
	a.Report = &models.SurveyReport{Findings: datatypes.JSONMap{"roof": "sound", "wiring": "old"}, RiskLevel: models.RiskLow, Recommendation: "ok"}
	b := assignment(41, 11, models.AssignmentStatusSubmitted)
	b.Organization = "Beta"
	b.Report = &models.SurveyReport{Findings: datatypes.JSONMap{"roof": "sound", "wiring": "new"}, RiskLevel: models.RiskCritical, Recommendation: "no"}
	return []models.Assignment{*a, *b}
}

func TestMerge(t *testing.T) {
	ctx := context.Background()

	t.Run("merges both reports", func(t *testing.T) {
		f := newFixture()
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)
		f.reports.On("GetMerged", ctx, uint(8)).Return(nil, apperr.ErrReportNotFound)
		f.assignments.On("ListByPolicy", ctx, uint(8)).Return(submittedPair(), nil)
		f.reports.On("SaveMerged", ctx, mock.MatchedBy(func(r *models.MergedReport) bool {
			_, conflict := r.Conflicts["wiring"]
			return r.PolicyRequestID == 8 && r.RiskLevel == models.RiskCritical &&
				r.Findings["roof"] == "sound" && conflict && len(r.Reference) == 36 &&
				r.MergedByID != nil && *r.MergedByID == staff.ID
		})).Return(func(r *models.MergedReport) *models.MergedReport { return r }, true, nil)

		r, err := f.svc.Merge(ctx, staff, 8)
		require.NoError(t, err)
		assert.Equal(t, models.MergedReportStatusMerged, r.Status)
		f.reports.AssertExpectations(t)
	})

	t.Run("second merge returns the stored report", func(t *testing.T) {
		f := newFixture()
		stored := &models.MergedReport{PolicyRequestID: 8, Reference: "ref-1", Status: models.MergedReportStatusMerged}
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)
		f.reports.On("GetMerged", ctx, uint(8)).Return(stored, nil)

		r, err := f.svc.Merge(ctx, staff, 8)
		require.NoError(t, err)
		assert.Same(t, stored, r)
		f.assignments.AssertNotCalled(t, "ListByPolicy", mock.Anything, mock.Anything)
	})

	t.Run("incomplete", func(t *testing.T) {
		f := newFixture()
		pair := submittedPair()
		pair[1].Status = models.AssignmentStatusAccepted
		pair[1].Report = nil
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)
		f.reports.On("GetMerged", ctx, uint(8)).Return(nil, apperr.ErrReportNotFound)
		f.assignments.On("ListByPolicy", ctx, uint(8)).Return(pair, nil)

		_, err := f.svc.Merge(ctx, staff, 8)
		assert.ErrorIs(t, err, apperr.ErrReportsIncomplete)
	})
}

func TestRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("staff cannot release", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Release(ctx, staff, 8)
		assert.ErrorIs(t, err, apperr.ErrPermissionDenied)
	})

	t.Run("releases and notifies the owner", func(t *testing.T) {
		f := newFixture()
		u := &models.User{Email: "owner@example.com", FirstName: "Grace"}
		u.ID = 5
		f.reports.On("GetMerged", ctx, uint(8)).Return(&models.MergedReport{PolicyRequestID: 8, Reference: "ref-1", Status: models.MergedReportStatusMerged}, nil)
		f.reports.On("Release", ctx, uint(8), admin.ID, fixedNow).Return(nil)
		f.policies.On("GetByID", ctx, uint(8)).Return(submittedPolicy(8), nil)
		f.users.On("GetByID", ctx, uint(5)).Return(u, nil)
		f.notifier.On("SendReportReleased", ctx, "owner@example.com", "Grace", uint(8), "ref-1").Return(errors.New("smtp down"))

		r, err := f.svc.Release(ctx, admin, 8)
		require.NoError(t, err)
		assert.Equal(t, models.MergedReportStatusReleased, r.Status)
		f.notifier.AssertExpectations(t)
	})

	t.Run("already released", func(t *testing.T) {
		f := newFixture()
		f.reports.On("GetMerged", ctx, uint(8)).Return(&models.MergedReport{Status: models.MergedReportStatusReleased}, nil)

		_, err := f.svc.Release(ctx, admin, 8)
		assert.Equal(t, apperr.KindBadRequest, apperr.KindOf(err))
		f.reports.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetReleased(t *testing.T) {
	ctx := context.Background()

	t.Run("merged but not released is hidden", func(t *testing.T) {
		f := newFixture()
		f.policies.On("GetOwned", ctx, uint(5), uint(8)).Return(submittedPolicy(8), nil)
		f.reports.On("GetMerged", ctx, uint(8)).Return(&models.MergedReport{Status: models.MergedReportStatusMerged}, nil)

		_, err := f.svc.GetReleased(ctx, owner, 8)
		assert.ErrorIs(t, err, apperr.ErrReportNotFound)
	})

	t.Run("someone else's policy", func(t *testing.T) {
		f := newFixture()
		f.policies.On("GetOwned", ctx, uint(5), uint(9)).Return(nil, apperr.ErrPolicyNotFound)

		_, err := f.svc.GetReleased(ctx, owner, 9)
		assert.ErrorIs(t, err, apperr.ErrPolicyNotFound)
	})
}

func TestMergeReady(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	f.assignments.On("PoliciesReadyForMerge", ctx).Return([]uint{8, 9}, nil)
	f.reports.On("GetMerged", ctx, uint(8)).Return(nil, apperr.ErrReportNotFound)
	f.reports.On("GetMerged", ctx, uint(9)).Return(nil, apperr.ErrReportNotFound)
	f.assignments.On("ListByPolicy", ctx, uint(8)).Return(submittedPair(), nil)
	f.assignments.On("ListByPolicy", ctx, uint(9)).Return(nil, apperr.Internal("database operation failed", errors.New("timeout")))
	f.reports.On("SaveMerged", ctx, mock.MatchedBy(func(r *models.MergedReport) bool {
		return r.PolicyRequestID == 8 && r.MergedByID == nil
	})).Return(func(r *models.MergedReport) *models.MergedReport { return r }, true, nil)

	n, err := f.svc.MergeReady(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
