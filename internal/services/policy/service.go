package policy

import (
	"context"

	"dcip/internal/access"
	apperr "dcip/internal/errors"
	"dcip/internal/models"
	"dcip/internal/repositories"
	"dcip/internal/utils"
	"dcip/internal/validation"

	"go.uber.org/zap"
)

type Service interface {
	Create(ctx context.Context, owner *models.Principal, input models.PolicyInput) (*models.PolicyRequest, error)
	ListMine(ctx context.Context, owner *models.Principal, page *utils.Pagination) ([]models.PolicyRequest, error)
	Get(ctx context.Context, owner *models.Principal, id uint) (*models.PolicyRequest, error)
	// Cancel is only possible before surveyors are assigned.
	Cancel(ctx context.Context, owner *models.Principal, id uint) (*models.PolicyRequest, error)
	ListAll(ctx context.Context, actor *models.Principal, status models.PolicyStatus, page *utils.Pagination) ([]models.PolicyRequest, error)
}

type service struct {
	policies   repositories.PolicyRepository
	properties repositories.PropertyRepository
	log        *zap.Logger
}

func NewService(policies repositories.PolicyRepository, properties repositories.PropertyRepository, log *zap.Logger) Service {
	return &service{
		policies:   policies,
		properties: properties,
		log:        log.Named("policy"),
	}
}

func (s *service) Create(ctx context.Context, owner *models.Principal, input models.PolicyInput) (*models.PolicyRequest, error) {
	if err := access.Authorize(owner, models.ActionPolicyManage); err != nil {
		return nil, err
	}
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	property, err := s.properties.GetOwned(ctx, owner.ID, input.PropertyID)
	if err != nil {
		return nil, err
	}

	policy := &models.PolicyRequest{
		OwnerID:      owner.ID,
		PropertyID:   property.ID,
		CoverageType: input.CoverageType,
		Notes:        input.Notes,
		Status:       models.PolicyStatusSubmitted,
	}
	if err := s.policies.Create(ctx, policy); err != nil {
		return nil, err
	}
	policy.Property = property

	s.log.Info("policy request submitted",
		zap.Uint("policy_id", policy.ID),
		zap.Uint("property_id", property.ID),
		zap.Uint("owner_id", owner.ID))
	return policy, nil
}

func (s *service) ListMine(ctx context.Context, owner *models.Principal, page *utils.Pagination) ([]models.PolicyRequest, error) {
	if err := access.Authorize(owner, models.ActionPolicyManage); err != nil {
		return nil, err
	}
	policies, total, err := s.policies.ListByOwner(ctx, owner.ID, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	page.SetTotal(total)
	return policies, nil
}

func (s *service) Get(ctx context.Context, owner *models.Principal, id uint) (*models.PolicyRequest, error) {
	if err := access.Authorize(owner, models.ActionPolicyManage); err != nil {
		return nil, err
	}
	return s.policies.GetOwned(ctx, owner.ID, id)
}

func (s *service) Cancel(ctx context.Context, owner *models.Principal, id uint) (*models.PolicyRequest, error) {
	policy, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	err = s.policies.Transition(ctx, id,
		[]models.PolicyStatus{models.PolicyStatusSubmitted},
		models.PolicyStatusCancelled)
	if err != nil {
		return nil, err
	}
	policy.Status = models.PolicyStatusCancelled
	s.log.Info("policy request cancelled", zap.Uint("policy_id", id), zap.Uint("owner_id", owner.ID))
	return policy, nil
}

func (s *service) ListAll(ctx context.Context, actor *models.Principal, status models.PolicyStatus, page *utils.Pagination) ([]models.PolicyRequest, error) {
	if err := access.Authorize(actor, models.ActionPolicyReadAll); err != nil {
		return nil, err
	}
	if status != "" && !status.Valid() {
		return nil, apperr.BadRequest("INVALID_STATUS", "unknown policy status "+string(status))
	}
	policies, total, err := s.policies.List(ctx, status, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	page.SetTotal(total)
	return policies, nil
}
