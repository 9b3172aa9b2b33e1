package handlers

import (
	"dcip/internal/models"
	"dcip/internal/services/assignment"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// ReportHandler serves the dual assignment and report merging workflow.
type ReportHandler struct {
	assignmentService assignment.Service
}

func NewReportHandler(assignmentService assignment.Service) *ReportHandler {
	return &ReportHandler{assignmentService: assignmentService}
}

func (h *ReportHandler) AssignDual(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.DualAssignInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	assignments, err := h.assignmentService.AssignDual(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return utils.Created(c, "surveyors assigned", assignments)
}

func (h *ReportHandler) MyAssignments(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	page := utils.GetPagination(c)
	items, err := h.assignmentService.ListMine(c.UserContext(), p, &page)
	if err != nil {
		return err
	}
	return utils.Success(c, "", utils.NewPaginatedResponse(items, page))
}

func (h *ReportHandler) Accept(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	a, err := h.assignmentService.Accept(c.UserContext(), p, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "assignment accepted", a)
}

func (h *ReportHandler) Submit(c *fiber.Ctx) error {
	p, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input models.SubmitReportInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	a, err := h.assignmentService.Submit(c.UserContext(), p, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, "report submitted", a)
}

func (h *ReportHandler) Merge(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	merged, err := h.assignmentService.Merge(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "reports merged", merged)
}

func (h *ReportHandler) PolicyReports(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	reports, err := h.assignmentService.GetPolicyReports(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "", reports)
}

func (h *ReportHandler) Release(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	merged, err := h.assignmentService.Release(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "report released", merged)
}
