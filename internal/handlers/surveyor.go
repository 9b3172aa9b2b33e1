package handlers

import (
	"strings"

	"dcip/internal/models"
	"dcip/internal/services/surveyor"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type SurveyorHandler struct {
	surveyorService surveyor.Service
}

func NewSurveyorHandler(surveyorService surveyor.Service) *SurveyorHandler {
	return &SurveyorHandler{surveyorService: surveyorService}
}

func (h *SurveyorHandler) Create(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.CreateSurveyorInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	created, err := h.surveyorService.Create(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return utils.Created(c, "surveyor created", created)
}

// List accepts ?organization=&availability=&search= filters.
func (h *SurveyorHandler) List(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	filter := models.SurveyorFilter{
		Organization: strings.TrimSpace(c.Query("organization")),
		Availability: models.Availability(c.Query("availability")),
		Search:       strings.TrimSpace(c.Query("search")),
	}

	page := utils.GetPagination(c)
	items, err := h.surveyorService.List(c.UserContext(), actor, filter, &page)
	if err != nil {
		return err
	}
	return utils.Success(c, "", utils.NewPaginatedResponse(items, page))
}

func (h *SurveyorHandler) Get(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	s, err := h.surveyorService.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "", s)
}

func (h *SurveyorHandler) Update(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input models.UpdateSurveyorInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	s, err := h.surveyorService.Update(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, "surveyor updated", s)
}

func (h *SurveyorHandler) SetStatus(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input models.UpdateStatusInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	s, err := h.surveyorService.SetStatus(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, "status updated", s)
}

func (h *SurveyorHandler) Delete(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.surveyorService.Delete(c.UserContext(), actor, id); err != nil {
		return err
	}
	return utils.Success(c, "surveyor deleted", nil)
}

func (h *SurveyorHandler) Me(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	s, err := h.surveyorService.Me(c.UserContext(), p)
	if err != nil {
		return err
	}
	return utils.Success(c, "", s)
}

func (h *SurveyorHandler) UpdateAvailability(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.UpdateAvailabilityInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	s, err := h.surveyorService.UpdateAvailability(c.UserContext(), p, input)
	if err != nil {
		return err
	}
	return utils.Success(c, "availability updated", s)
}
