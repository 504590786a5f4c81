package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Staff          *handlers.StaffHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Workflows      *handlers.WorkflowsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/users/register", cfg.Users.Register)
	authGroup.Post("/users/login", cfg.Users.Login)

	authGroup.Post("/staff/login", cfg.Staff.Login)
	authGroup.Post("/password/reset/request", cfg.Staff.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Staff.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Staff.ChangePassword)

	// End-user surface.
	user := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireUser())
	user.Get("/categories", cfg.Staff.ListPublicCategories)
	user.Post("/tickets", cfg.Tickets.CreateTicket)
	user.Get("/tickets", cfg.Tickets.ListTickets)
	user.Get("/tickets/:id", cfg.Tickets.GetTicket)
	user.Post("/tickets/:id/comments", cfg.Tickets.AddComment)
	user.Get("/tickets/:id/transitions", cfg.Tickets.ListTransitions)
	user.Post("/tickets/:id/transition", cfg.Tickets.Transition)

	// Staff surface. Any staff role may read and work tickets; scoping is
	// enforced in the services.
	staff := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole())
	staff.Get("/tickets", cfg.StaffTickets.ListStaffTickets)
	staff.Get("/tickets/:id", cfg.StaffTickets.GetStaffTicket)
	staff.Post("/tickets/:id/comments", cfg.StaffTickets.AddStaffComment)
	staff.Get("/tickets/:id/transitions", cfg.StaffTickets.ListStaffTransitions)
	staff.Post("/tickets/:id/transition", cfg.StaffTickets.Transition)
	staff.Get("/tickets/:id/history", cfg.StaffTickets.ListHistory)
	staff.Post("/tickets/:id/assign/self", cfg.StaffTickets.SelfAssign)
	staff.Patch("/tickets/:id/priority", cfg.StaffTickets.UpdatePriority)
	staff.Get("/categories", cfg.Staff.ListCategories)
	staff.Get("/workflows", cfg.Workflows.ListWorkflows)
	staff.Get("/workflows/:id", cfg.Workflows.GetWorkflow)

	lead := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.RoleTeamLead, domain.RoleAdmin))
	lead.Post("/tickets/:id/assign", cfg.StaffTickets.Assign)
	lead.Post("/tickets/:id/assign/auto", cfg.StaffTickets.AutoAssign)

	admin := app.Group("/staff", cfg.AuthMiddleware.Handle, auth.RequireStaffRole(domain.RoleAdmin))
	admin.Post("/categories", cfg.Staff.CreateCategory)
	admin.Patch("/categories/:id", cfg.Staff.UpdateCategory)
	admin.Post("/members", cfg.Staff.CreateStaff)
	admin.Get("/members", cfg.Staff.ListStaff)
	admin.Get("/members/:id", cfg.Staff.GetStaff)
	admin.Patch("/members/:id", cfg.Staff.UpdateStaff)
}
