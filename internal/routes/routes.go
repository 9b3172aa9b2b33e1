// Package routes defines the API routing configuration.
// It mounts every handler under /api/v1 behind the API key and applies
// bearer authentication and permission checks per route.
package routes

import (
	"time"

	"dcip/internal/handlers"
	"dcip/internal/middleware"
	"dcip/internal/models"
	"dcip/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	PasswordReset *handlers.PasswordResetHandler
	Employee      *handlers.EmployeeHandler
	Property      *handlers.PropertyHandler
	Policy        *handlers.PolicyHandler
	Surveyor      *handlers.SurveyorHandler
	Report        *handlers.ReportHandler
	Scheduler     *handlers.SchedulerHandler
	Health        *handlers.HealthHandler
}

// Config carries the route level settings.
type Config struct {
	APIKey string
	// OTPLimit is the number of OTP requests allowed per IP per minute.
	OTPLimit int
}

// SetupRoutes configures all application routes.
func SetupRoutes(app *fiber.App, h Handlers, authMiddleware *middleware.AuthMiddleware, cfg Config) {
	app.Get("/health", h.Health.Check)

	api := app.Group("/api/v1", middleware.APIKey(cfg.APIKey))
	authn := authMiddleware.Handler

	setupAuthRoutes(api, h, authn, otpLimiter(cfg.OTPLimit))
	setupPasswordResetRoutes(api, h.PasswordReset, otpLimiter(cfg.OTPLimit))
	setupPropertyRoutes(api, h.Property, authn)
	setupPolicyRoutes(api, h.Policy, authn)
	setupSurveyorRoutes(api, h.Surveyor, authn)
	setupAdministratorRoutes(api, h.Employee, authn)
	setupReportRoutes(api, h.Report, authn)
	setupSchedulerRoutes(api, h.Scheduler, authn)
}

func setupAuthRoutes(api fiber.Router, h Handlers, authn, otpLimit fiber.Handler) {
	auth := api.Group("/auth")
	auth.Post("/request-otp", otpLimit, h.Auth.RequestOTP)
	auth.Post("/verify-otp", h.Auth.VerifyOTP)
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/employee/login", h.Auth.EmployeeLogin)

	auth.Get("/me", authn, h.Auth.Me)
	auth.Post("/logout", authn, h.Auth.Logout)
	auth.Post("/change-password", authn, h.Auth.ChangePassword)

	auth.Post("/employees", authn, middleware.RequirePermission(models.ActionEmployeeCreate), h.Employee.RegisterEmployee)
	auth.Get("/employees", authn, middleware.RequirePermission(models.ActionEmployeeRead), h.Employee.ListEmployees)
	auth.Get("/roles", authn, middleware.RequirePermission(models.ActionRoleList), h.Employee.AvailableRoles)
}

func setupPasswordResetRoutes(api fiber.Router, h *handlers.PasswordResetHandler, otpLimit fiber.Handler) {
	reset := api.Group("/reset-password")
	reset.Post("/send-otp", otpLimit, h.SendOTP)
	reset.Post("/verify-otp", h.VerifyOTP)
	reset.Post("/reset", h.Reset)
}

func setupPropertyRoutes(api fiber.Router, h *handlers.PropertyHandler, authn fiber.Handler) {
	property := api.Group("/property")
	property.Get("/categories", h.Categories)

	owner := middleware.RequirePermission(models.ActionPropertyManage)
	property.Post("/", authn, owner, h.Create)
	property.Get("/", authn, owner, h.List)
	property.Get("/:id", authn, owner, h.Get)
	property.Put("/:id", authn, owner, h.Update)
	property.Delete("/:id", authn, owner, h.Delete)
}

func setupPolicyRoutes(api fiber.Router, h *handlers.PolicyHandler, authn fiber.Handler) {
	policy := api.Group("/policy", authn)
	policy.Get("/all", middleware.RequirePermission(models.ActionPolicyReadAll), h.ListAll)

	owner := middleware.RequirePermission(models.ActionPolicyManage)
	policy.Post("/", owner, h.Create)
	policy.Get("/", owner, h.List)
	policy.Get("/:id", owner, h.Get)
	policy.Post("/:id/cancel", owner, h.Cancel)
	policy.Get("/:id/report", middleware.RequirePermission(models.ActionReportReadOwn), h.Report)
}

func setupSurveyorRoutes(api fiber.Router, h *handlers.SurveyorHandler, authn fiber.Handler) {
	surveyors := api.Group("/admin/surveyors", authn)

	self := middleware.RequirePermission(models.ActionSurveyorSelf)
	surveyors.Get("/me", self, h.Me)
	surveyors.Patch("/me/availability", self, h.UpdateAvailability)

	surveyors.Post("/", middleware.RequirePermission(models.ActionSurveyorCreate), h.Create)
	surveyors.Get("/", middleware.RequirePermission(models.ActionSurveyorRead), h.List)
	surveyors.Get("/:id", middleware.RequirePermission(models.ActionSurveyorRead), h.Get)
	surveyors.Put("/:id", middleware.RequirePermission(models.ActionSurveyorUpdate), h.Update)
	surveyors.Patch("/:id/status", middleware.RequirePermission(models.ActionSurveyorUpdate), h.SetStatus)
	surveyors.Delete("/:id", middleware.RequirePermission(models.ActionSurveyorDelete), h.Delete)
}

func setupAdministratorRoutes(api fiber.Router, h *handlers.EmployeeHandler, authn fiber.Handler) {
	admins := api.Group("/admin/administrators", authn, middleware.RequirePermission(models.ActionAdministratorManage))
	admins.Post("/", h.CreateAdministrator)
	admins.Get("/", h.ListAdministrators)
	admins.Get("/:id", h.GetAdministrator)
	admins.Put("/:id", h.UpdateAdministrator)
	admins.Patch("/:id/status", h.SetAdministratorStatus)
	admins.Delete("/:id", h.DeleteAdministrator)
}

func setupReportRoutes(api fiber.Router, h *handlers.ReportHandler, authn fiber.Handler) {
	merging := api.Group("/report-merging", authn)

	work := middleware.RequirePermission(models.ActionAssignmentWork)
	merging.Post("/assignments", middleware.RequirePermission(models.ActionAssignmentCreate), h.AssignDual)
	merging.Get("/assignments/mine", work, h.MyAssignments)
	merging.Post("/assignments/:id/accept", work, h.Accept)
	merging.Post("/assignments/:id/submit", work, h.Submit)

	merging.Post("/policies/:id/merge", middleware.RequirePermission(models.ActionReportMerge), h.Merge)
	merging.Get("/policies/:id", middleware.RequirePermission(models.ActionReportRead), h.PolicyReports)
	merging.Post("/policies/:id/release", middleware.RequirePermission(models.ActionReportRelease), h.Release)
}

func setupSchedulerRoutes(api fiber.Router, h *handlers.SchedulerHandler, authn fiber.Handler) {
	processor := api.Group("/scheduled-processor", authn, middleware.RequirePermission(models.ActionSchedulerRun))
	processor.Post("/run", h.Run)
	processor.Get("/status", h.Status)
}

// otpLimiter throttles a route that sends OTP emails, per client IP. Each
// call keeps its own counters.
func otpLimiter(perMinute int) fiber.Handler {
	if perMinute <= 0 {
		perMinute = 5
	}
	return limiter.New(limiter.Config{
		Max:        perMinute,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return utils.Fail(c, fiber.StatusTooManyRequests, "too many requests, please try again later")
		},
	})
}
