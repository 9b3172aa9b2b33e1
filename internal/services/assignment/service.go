// Package assignment runs the survey workflow: a policy request is given to
// two surveyors from different organizations, each files a report, the
// reports are merged and the merged report is released to the owner.
package assignment

import (
	"context"
	"strings"
	"time"

	"dcip/internal/access"
	"dcip/internal/config"
	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/repositories"
	"dcip/internal/services/notification"
	"dcip/internal/utils"
	"dcip/internal/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

var errReportReleased = apperr.BadRequest("REPORT_STATE", "report has already been released")

// PolicyReports is the staff view of a policy's survey progress. Merged is
// nil until the reports have been merged.
type PolicyReports struct {
	Policy      *models.PolicyRequest `json:"policy"`
	Assignments []models.Assignment   `json:"assignments"`
	Merged      *models.MergedReport  `json:"merged,omitempty"`
}

type Service interface {
	AssignDual(ctx context.Context, actor *models.Principal, input models.DualAssignInput) ([]models.Assignment, error)
	ListMine(ctx context.Context, p *models.Principal, page *utils.Pagination) ([]models.Assignment, error)
	Accept(ctx context.Context, p *models.Principal, id uint) (*models.Assignment, error)
	Submit(ctx context.Context, p *models.Principal, id uint, input models.SubmitReportInput) (*models.Assignment, error)

	// Merge is idempotent: a policy that already has a merged report gets
	// the stored one back unchanged.
	Merge(ctx context.Context, actor *models.Principal, policyID uint) (*models.MergedReport, error)
	Release(ctx context.Context, actor *models.Principal, policyID uint) (*models.MergedReport, error)
	GetPolicyReports(ctx context.Context, actor *models.Principal, policyID uint) (*PolicyReports, error)
	GetReleased(ctx context.Context, owner *models.Principal, policyID uint) (*models.MergedReport, error)

	// MergeReady merges every policy whose two reports are in. It returns
	// how many merged reports were created.
	MergeReady(ctx context.Context) (int, error)
	MarkOverdue(ctx context.Context) (int64, error)
}

type service struct {
	assignments repositories.AssignmentRepository
	reports     repositories.ReportRepository
	policies    repositories.PolicyRepository
	surveyors   repositories.SurveyorRepository
	users       repositories.UserRepository
	notifier    notification.Service
	cfg         config.SchedulerConfig
	log         *zap.Logger
	now         func() time.Time
}

func NewService(
	assignments repositories.AssignmentRepository,
	reports repositories.ReportRepository,
	policies repositories.PolicyRepository,
	surveyors repositories.SurveyorRepository,
	users repositories.UserRepository,
	notifier notification.Service,
	cfg config.SchedulerConfig,
	log *zap.Logger,
) Service {
	return &service{
		assignments: assignments,
		reports:     reports,
		policies:    policies,
		surveyors:   surveyors,
		users:       users,
		notifier:    notifier,
		cfg:         cfg,
		log:         log.Named("assignment"),
		now:         time.Now,
	}
}

func (s *service) AssignDual(ctx context.Context, actor *models.Principal, input models.DualAssignInput) ([]models.Assignment, error) {
	if err := access.Authorize(actor, models.ActionAssignmentCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	if input.SurveyorIDs[0] == input.SurveyorIDs[1] {
		return nil, apperr.BadRequest("DUPLICATE_SURVEYOR", "dual assignment requires two different surveyors")
	}

	policy, err := s.policies.GetByID(ctx, input.PolicyRequestID)
	if err != nil {
		return nil, err
	}
	if policy.Status != models.PolicyStatusSubmitted {
		return nil, apperr.ErrPolicyState
	}

	now := s.now()
	deadline := now.Add(s.cfg.AssignmentDeadline)
	if input.Deadline != nil {
		deadline = *input.Deadline
	}
	if !deadline.After(now) {
		return nil, apperr.BadRequest("INVALID_DEADLINE", "deadline must be in the future")
	}

	surveyors := make([]*models.Surveyor, 0, 2)
	for _, id := range input.SurveyorIDs {
		sv, err := s.surveyors.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if !sv.Employee.IsActive() || sv.Availability != models.AvailabilityAvailable {
			return nil, apperr.ErrSurveyorUnavailable
		}
		surveyors = append(surveyors, sv)
	}
	if sameOrganization(surveyors[0].Organization, surveyors[1].Organization) {
		return nil, apperr.ErrSameOrganization
	}

	pending := make([]*models.Assignment, len(surveyors))
	for i, sv := range surveyors {
		pending[i] = &models.Assignment{
			SurveyorID:   sv.ID,
			AssignedByID: actor.ID,
			Organization: sv.Organization,
			Status:       models.AssignmentStatusAssigned,
			Deadline:     deadline,
		}
	}
	if err := s.assignments.CreateDual(ctx, policy.ID, pending); err != nil {
		return nil, err
	}

	out := make([]models.Assignment, len(pending))
	for i, a := range pending {
		a.Surveyor = surveyors[i]
		out[i] = *a
		s.notifyAssignment(ctx, surveyors[i], policy.ID, deadline)
	}
	s.log.Info("policy dual assigned",
		zap.Uint("policy_id", policy.ID),
		zap.Uint("surveyor_a", surveyors[0].ID),
		zap.Uint("surveyor_b", surveyors[1].ID),
		zap.Time("deadline", deadline),
		zap.Uint("actor_id", actor.ID))
	return out, nil
}

func sameOrganization(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func (s *service) notifyAssignment(ctx context.Context, sv *models.Surveyor, policyID uint, deadline time.Time) {
	if !sv.Settings.Data().EmailNotifications {
		return
	}
	err := s.notifier.SendAssignment(ctx, sv.Employee.Email, sv.Employee.DisplayName(), policyID, deadline)
	if err != nil {
		s.log.Warn("assignment email failed", zap.Uint("surveyor_id", sv.ID), zap.Error(err))
	}
}

// self resolves the calling surveyor's profile.
func (s *service) self(ctx context.Context, p *models.Principal) (*models.Surveyor, error) {
	if err := access.Authorize(p, models.ActionAssignmentWork); err != nil {
		return nil, err
	}
	return s.surveyors.GetByEmployeeID(ctx, p.ID)
}

// own loads an assignment belonging to sv; anyone else's is not found.
func (s *service) own(ctx context.Context, sv *models.Surveyor, id uint) (*models.Assignment, error) {
	a, err := s.assignments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.SurveyorID != sv.ID {
		return nil, apperr.ErrAssignmentNotFound
	}
	return a, nil
}

func (s *service) ListMine(ctx context.Context, p *models.Principal, page *utils.Pagination) ([]models.Assignment, error) {
	sv, err := s.self(ctx, p)
	if err != nil {
		return nil, err
	}
	assignments, total, err := s.assignments.ListBySurveyor(ctx, sv.ID, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	page.SetTotal(total)
	return assignments, nil
}

func (s *service) Accept(ctx context.Context, p *models.Principal, id uint) (*models.Assignment, error) {
	sv, err := s.self(ctx, p)
	if err != nil {
		return nil, err
	}
	a, err := s.own(ctx, sv, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.assignments.Accept(ctx, a.ID, sv.ID, now); err != nil {
		return nil, err
	}
	a.Status = models.AssignmentStatusAccepted
	a.AcceptedAt = &now
	return a, nil
}

func (s *service) Submit(ctx context.Context, p *models.Principal, id uint, input models.SubmitReportInput) (*models.Assignment, error) {
	sv, err := s.self(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	a, err := s.own(ctx, sv, id)
	if err != nil {
		return nil, err
	}
	if !a.CanSubmit() {
		return nil, apperr.ErrAssignmentState
	}

	report := &models.SurveyReport{
		Findings:       datatypes.JSONMap(input.Findings),
		RiskLevel:      input.RiskLevel,
		Recommendation: strings.TrimSpace(input.Recommendation),
		Attachments:    input.Attachments,
	}
	now := s.now()
	if err := s.assignments.SubmitReport(ctx, a, report, now); err != nil {
		return nil, err
	}
	a.Status = models.AssignmentStatusSubmitted
	a.SubmittedAt = &now
	a.Report = report

	s.log.Info("survey report submitted",
		zap.Uint("assignment_id", a.ID),
		zap.Uint("policy_id", a.PolicyRequestID),
		zap.String("risk", string(report.RiskLevel)))
	return a, nil
}

func (s *service) Merge(ctx context.Context, actor *models.Principal, policyID uint) (*models.MergedReport, error) {
	if err := access.Authorize(actor, models.ActionReportMerge); err != nil {
		return nil, err
	}
	if _, err := s.policies.GetByID(ctx, policyID); err != nil {
		return nil, err
	}
	actorID := actor.ID
	report, _, err := s.merge(ctx, policyID, &actorID)
	return report, err
}

func (s *service) merge(ctx context.Context, policyID uint, actorID *uint) (*models.MergedReport, bool, error) {
	existing, err := s.reports.GetMerged(ctx, policyID)
	if err == nil {
		return existing, false, nil
	}
	if apperr.KindOf(err) != apperr.KindNotFound {
		return nil, false, err
	}

	assignments, err := s.assignments.ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, false, err
	}
	subs, err := submissions(assignments)
	if err != nil {
		return nil, false, err
	}

	result := MergeReports(subs[0], subs[1])
	conflicts := make(datatypes.JSONMap, len(result.Conflicts))
	for k, v := range result.Conflicts {
		conflicts[k] = v
	}
	report := &models.MergedReport{
		PolicyRequestID: policyID,
		Reference:       uuid.NewString(),
		Findings:        datatypes.JSONMap(result.Findings),
		Conflicts:       conflicts,
		RiskLevel:       result.RiskLevel,
		Recommendation:  result.Recommendation,
		Status:          models.MergedReportStatusMerged,
		MergedByID:      actorID,
	}
	stored, created, err := s.reports.SaveMerged(ctx, report)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.log.Info("reports merged",
			zap.Uint("policy_id", policyID),
			zap.String("reference", stored.Reference),
			zap.Strings("conflicts", result.ConflictKeys()))
	}
	return stored, created, nil
}

// submissions requires exactly two submitted assignments with reports.
func submissions(assignments []models.Assignment) ([]Submission, error) {
	subs := make([]Submission, 0, 2)
	for _, a := range assignments {
		if a.Status != models.AssignmentStatusSubmitted || a.Report == nil {
			continue
		}
		sub := Submission{
			SurveyorID:     a.SurveyorID,
			Organization:   a.Organization,
			Findings:       a.Report.Findings,
			RiskLevel:      a.Report.RiskLevel,
			Recommendation: a.Report.Recommendation,
		}
		if a.Surveyor != nil {
			sub.SurveyorName = a.Surveyor.Employee.DisplayName()
		}
		subs = append(subs, sub)
	}
	if len(subs) != 2 {
		return nil, apperr.ErrReportsIncomplete
	}
	return subs, nil
}

func (s *service) Release(ctx context.Context, actor *models.Principal, policyID uint) (*models.MergedReport, error) {
	if err := access.Authorize(actor, models.ActionReportRelease); err != nil {
		return nil, err
	}
	report, err := s.reports.GetMerged(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if report.Status == models.MergedReportStatusReleased {
		return nil, errReportReleased
	}

	now := s.now()
	if err := s.reports.Release(ctx, policyID, actor.ID, now); err != nil {
		return nil, err
	}
	releasedBy := actor.ID
	report.Status = models.MergedReportStatusReleased
	report.ReleasedByID = &releasedBy
	report.ReleasedAt = &now

	s.notifyOwner(ctx, report)
	s.log.Info("report released",
		zap.Uint("policy_id", policyID),
		zap.String("reference", report.Reference),
		zap.Uint("actor_id", actor.ID))
	return report, nil
}

func (s *service) notifyOwner(ctx context.Context, report *models.MergedReport) {
	policy, err := s.policies.GetByID(ctx, report.PolicyRequestID)
	if err != nil {
		s.log.Warn("release notice skipped", zap.Uint("policy_id", report.PolicyRequestID), zap.Error(err))
		return
	}
	owner, err := s.users.GetByID(ctx, policy.OwnerID)
	if err != nil {
		s.log.Warn("release notice skipped", zap.Uint("policy_id", policy.ID), zap.Error(err))
		return
	}
	if err := s.notifier.SendReportReleased(ctx, owner.Email, owner.DisplayName(), policy.ID, report.Reference); err != nil {
		s.log.Warn("release email failed", zap.Uint("policy_id", policy.ID), zap.Error(err))
	}
}

func (s *service) GetPolicyReports(ctx context.Context, actor *models.Principal, policyID uint) (*PolicyReports, error) {
	if err := access.Authorize(actor, models.ActionReportRead); err != nil {
		return nil, err
	}
	policy, err := s.policies.GetByID(ctx, policyID)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignments.ListByPolicy(ctx, policyID)
	if err != nil {
		return nil, err
	}
	policy.Assignments = nil

	out := &PolicyReports{Policy: policy, Assignments: assignments}
	merged, err := s.reports.GetMerged(ctx, policyID)
	switch {
	case err == nil:
		out.Merged = merged
	case apperr.KindOf(err) != apperr.KindNotFound:
		return nil, err
	}
	return out, nil
}

func (s *service) GetReleased(ctx context.Context, owner *models.Principal, policyID uint) (*models.MergedReport, error) {
	if err := access.Authorize(owner, models.ActionReportReadOwn); err != nil {
		return nil, err
	}
	if _, err := s.policies.GetOwned(ctx, owner.ID, policyID); err != nil {
		return nil, err
	}
	report, err := s.reports.GetMerged(ctx, policyID)
	if err != nil {
		return nil, err
	}
	if report.Status != models.MergedReportStatusReleased {
		return nil, apperr.ErrReportNotFound
	}
	return report, nil
}

func (s *service) MergeReady(ctx context.Context) (int, error) {
	ids, err := s.assignments.PoliciesReadyForMerge(ctx)
	if err != nil {
		return 0, err
	}
	merged := 0
	for _, id := range ids {
		_, created, err := s.merge(ctx, id, nil)
		if err != nil {
			s.log.Warn("automatic merge failed", zap.Uint("policy_id", id), zap.Error(err))
			continue
		}
		if created {
			merged++
		}
	}
	return merged, nil
}

func (s *service) MarkOverdue(ctx context.Context) (int64, error) {
	return s.assignments.MarkOverdue(ctx, s.now())
}
