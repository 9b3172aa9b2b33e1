package handlers

import (
	"context"

	"dcip/internal/models"
	"dcip/internal/services/scheduler"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// SchedulerService is the part of *scheduler.Scheduler exposed over HTTP.
type SchedulerService interface {
	Trigger(ctx context.Context, actor *models.Principal) (*scheduler.RunResult, error)
	Status(actor *models.Principal) (*scheduler.Status, error)
}

type SchedulerHandler struct {
	scheduler SchedulerService
}

func NewSchedulerHandler(s SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{scheduler: s}
}

// Run executes one pass synchronously and returns its result.
func (h *SchedulerHandler) Run(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	res, err := h.scheduler.Trigger(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return utils.Success(c, "scheduled jobs executed", res)
}

func (h *SchedulerHandler) Status(c *fiber.Ctx) error {
	actor, err := utils.GetPrincipal(c)
	if err != nil {
		return err
	}

	st, err := h.scheduler.Status(actor)
	if err != nil {
		return err
	}
	return utils.Success(c, "", st)
}
