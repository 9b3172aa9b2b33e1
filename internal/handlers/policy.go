package handlers

import (
	"dcip/internal/models"
	"dcip/internal/services/assignment"
	"dcip/internal/services/policy"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PolicyHandler struct {
	policyService     policy.Service
	assignmentService assignment.Service
}

func NewPolicyHandler(policyService policy.Service, assignmentService assignment.Service) *PolicyHandler {
	return &PolicyHandler{
		policyService:     policyService,
		assignmentService: assignmentService,
	}
}

func (h *PolicyHandler) Create(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.PolicyInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	created, err := h.policyService.Create(c.UserContext(), owner, input)
	if err != nil {
		return err
	}
	return utils.Created(c, "policy request submitted", created)
}

func (h *PolicyHandler) List(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	page := utils.GetPagination(c)
	items, err := h.policyService.ListMine(c.UserContext(), owner, &page)
	if err != nil {
		return err
	}
	return utils.Success(c, "", utils.NewPaginatedResponse(items, page))
}

// ListAll is the staff view over every policy request, optionally
// filtered with ?status=.
func (h *PolicyHandler) ListAll(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	page := utils.GetPagination(c)
	items, err := h.policyService.ListAll(c.UserContext(), actor, models.PolicyStatus(c.Query("status")), &page)
	if err != nil {
		return err
	}
	return utils.Success(c, "", utils.NewPaginatedResponse(items, page))
}

func (h *PolicyHandler) Get(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.policyService.Get(c.UserContext(), owner, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "", p)
}

func (h *PolicyHandler) Cancel(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	p, err := h.policyService.Cancel(c.UserContext(), owner, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "policy request cancelled", p)
}

// Report returns the merged report once it has been released to the owner.
func (h *PolicyHandler) Report(c *fiber.Ctx) error {
	owner, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	report, err := h.assignmentService.GetReleased(c.UserContext(), owner, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "", report)
}
