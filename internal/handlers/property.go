package handlers

import (
	"dcip/internal/models"
	"dcip/internal/services/property"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PropertyHandler struct {
	propertyService property.Service
}

func NewPropertyHandler(propertyService property.Service) *PropertyHandler {
	return &PropertyHandler{propertyService: propertyService}
}

func (h *PropertyHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.propertyService.Categories(c.UserContext())
	if err != nil {
		return err
	}
	return utils.Success(c, "", categories)
}

func (h *PropertyHandler) Create(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.PropertyInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	created, err := h.propertyService.Create(c.UserContext(), owner, input)
	if err != nil {
		return err
	}
	return utils.Created(c, "property created", created)
}

func (h *PropertyHandler) List(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	page := utils.GetPagination(c)
	items, err := h.propertyService.ListMine(c.UserContext(), owner, &page)
	if err != nil {
		return err
	}
	return utils.Success(c, "", utils.NewPaginatedResponse(items, page))
}

func (h *PropertyHandler) Get(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.propertyService.Get(c.UserContext(), owner, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "", p)
}

func (h *PropertyHandler) Update(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input models.PropertyInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	p, err := h.propertyService.Update(c.UserContext(), owner, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, "property updated", p)
}

func (h *PropertyHandler) Delete(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.propertyService.Delete(c.UserContext(), owner, id); err != nil {
		return err
	}
	return utils.Success(c, "property deleted", nil)
}
