package handlers

import (
	"strings"

	"dcip/internal/models"
	"dcip/internal/services/employee"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// EmployeeHandler serves employee registration under /auth and the
// administrator management routes.
type EmployeeHandler struct {
	employeeService employee.Service
}

func NewEmployeeHandler(employeeService employee.Service) *EmployeeHandler {
	return &EmployeeHandler{employeeService: employeeService}
}

func (h *EmployeeHandler) RegisterEmployee(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.CreateEmployeeInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	created, err := h.employeeService.RegisterEmployee(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return utils.Created(c, "employee created", created)
}

func (h *EmployeeHandler) ListEmployees(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	page := utils.GetPagination(c)
	items, err := h.employeeService.ListEmployees(c.UserContext(), actor, employeeFilter(c), &page)
	if err != nil {
		return err
	}
	return utils.Success(c, "", utils.NewPaginatedResponse(items, page))
}

func (h *EmployeeHandler) AvailableRoles(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	roles, err := h.employeeService.AvailableRoles(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return utils.Success(c, "", roles)
}

func (h *EmployeeHandler) CreateAdministrator(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	var input models.CreateEmployeeInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	created, err := h.employeeService.CreateAdministrator(c.UserContext(), actor, input)
	if err != nil {
		return err
	}
	return utils.Created(c, "administrator created", created)
}

func (h *EmployeeHandler) ListAdministrators(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	page := utils.GetPagination(c)
	items, err := h.employeeService.ListAdministrators(c.UserContext(), actor, employeeFilter(c), &page)
	if err != nil {
		return err
	}
	return utils.Success(c, "", utils.NewPaginatedResponse(items, page))
}

func (h *EmployeeHandler) GetAdministrator(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	admin, err := h.employeeService.GetAdministrator(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return utils.Success(c, "", admin)
}

func (h *EmployeeHandler) UpdateAdministrator(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}
	var input models.UpdateEmployeeInput
	if err := utils.BindJSON(c, &input); err != nil {
		return err
	}

	admin, err := h.employeeService.UpdateAdministrator(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, "administrator updated", admin)
}

func (h *EmployeeHandler) SetAdministratorStatus(c *fiber.Ctx) error {
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

	admin, err := h.employeeService.SetAdministratorStatus(c.UserContext(), actor, id, input)
	if err != nil {
		return err
	}
	return utils.Success(c, "status updated", admin)
}

func (h *EmployeeHandler) DeleteAdministrator(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := utils.ParamID(c, "id")
	if err != nil {
		return err
	}

	if err := h.employeeService.DeleteAdministrator(c.UserContext(), actor, id); err != nil {
		return err
	}
	return utils.Success(c, "administrator deleted", nil)
}

// employeeFilter reads ?role=Admin,Staff&status=Active&search=...
func employeeFilter(c *fiber.Ctx) models.EmployeeFilter {
	filter := models.EmployeeFilter{
		Status: models.StatusName(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
	}
	for _, r := range strings.Split(c.Query("role"), ",") {
		if r = strings.TrimSpace(r); r != "" {
			filter.Roles = append(filter.Roles, models.RoleName(r))
		}
	}
	return filter
}
