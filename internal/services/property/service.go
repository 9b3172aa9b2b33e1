package property

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

// Service manages a user's own properties. Another owner's property is
// reported as not found.
type Service interface {
	Categories(ctx context.Context) ([]models.Category, error)
	Create(ctx context.Context, owner *models.Principal, input models.PropertyInput) (*models.Property, error)
	ListMine(ctx context.Context, owner *models.Principal, page *utils.Pagination) ([]models.Property, error)
	Get(ctx context.Context, owner *models.Principal, id uint) (*models.Property, error)
	Update(ctx context.Context, owner *models.Principal, id uint, input models.PropertyInput) (*models.Property, error)
	Delete(ctx context.Context, owner *models.Principal, id uint) error
}

type service struct {
	properties repositories.PropertyRepository
	refs       repositories.ReferenceRepository
	log        *zap.Logger
}

func NewService(properties repositories.PropertyRepository, refs repositories.ReferenceRepository, log *zap.Logger) Service {
	return &service{
		properties: properties,
		refs:       refs,
		log:        log.Named("property"),
	}
}

func (s *service) Categories(ctx context.Context) ([]models.Category, error) {
	return s.refs.Categories(ctx)
}

func (s *service) checkInput(ctx context.Context, input models.PropertyInput) error {
	if err := validation.Struct(input); err != nil {
		return err
	}
	ok, err := s.refs.CategoryExists(ctx, input.CategoryID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.ErrCategoryNotFound
	}
	return nil
}

func (s *service) Create(ctx context.Context, owner *models.Principal, input models.PropertyInput) (*models.Property, error) {
	if err := access.Authorize(owner, models.ActionPropertyManage); err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, input); err != nil {
		return nil, err
	}

	property := &models.Property{
		OwnerID:     owner.ID,
		CategoryID:  input.CategoryID,
		Address:     input.Address,
		City:        input.City,
		State:       input.State,
		Phone:       input.Phone,
		Description: input.Description,
		Images:      input.Images,
	}
	if err := s.properties.Create(ctx, property); err != nil {
		return nil, err
	}
	s.log.Info("property created", zap.Uint("property_id", property.ID), zap.Uint("owner_id", owner.ID))
	return property, nil
}

func (s *service) ListMine(ctx context.Context, owner *models.Principal, page *utils.Pagination) ([]models.Property, error) {
	if err := access.Authorize(owner, models.ActionPropertyManage); err != nil {
		return nil, err
	}
	properties, total, err := s.properties.ListByOwner(ctx, owner.ID, page.Offset, page.Limit)
	if err != nil {
		return nil, err
	}
	page.SetTotal(total)
	return properties, nil
}

func (s *service) Get(ctx context.Context, owner *models.Principal, id uint) (*models.Property, error) {
	if err := access.Authorize(owner, models.ActionPropertyManage); err != nil {
		return nil, err
	}
	return s.properties.GetOwned(ctx, owner.ID, id)
}

func (s *service) Update(ctx context.Context, owner *models.Principal, id uint, input models.PropertyInput) (*models.Property, error) {
	if err := access.Authorize(owner, models.ActionPropertyManage); err != nil {
		return nil, err
	}
	property, err := s.properties.GetOwned(ctx, owner.ID, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkInput(ctx, input); err != nil {
		return nil, err
	}

	property.CategoryID = input.CategoryID
	property.Address = input.Address
	property.City = input.City
	property.State = input.State
	property.Phone = input.Phone
	property.Description = input.Description
	property.Images = input.Images
	if err := s.properties.Update(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// Delete is always soft; the row stays for policies that reference it.
func (s *service) Delete(ctx context.Context, owner *models.Principal, id uint) error {
	if err := access.Authorize(owner, models.ActionPropertyManage); err != nil {
		return err
	}
	if err := s.properties.SoftDelete(ctx, owner.ID, id); err != nil {
		return err
	}
	s.log.Info("property deleted", zap.Uint("property_id", id), zap.Uint("owner_id", owner.ID))
	return nil
}
