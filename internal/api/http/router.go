package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/starter-kit/account-service/internal/api/http/handlers"
	"github.com/starter-kit/account-service/internal/auth"
	"github.com/starter-kit/account-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Pages             *handlers.PagesHandler
	Accounts          *handlers.AccountsHandler
	Users             *handlers.UsersHandler
	SessionMiddleware *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Use(cfg.SessionMiddleware.Handle)

	app.Get("/", cfg.Pages.Home)
	app.Get("/dashboard", auth.RequireAuthenticated(), cfg.Pages.Dashboard)

	app.Get("/register", cfg.Accounts.RegisterPage)
	app.Post("/register", cfg.Accounts.RegisterSubmit)
	app.Get("/login", cfg.Accounts.LoginPage)
	app.Post("/login", cfg.Accounts.LoginSubmit)
	app.Post("/logout", cfg.Accounts.Logout)

	app.Get("/password-reset", cfg.Accounts.PasswordResetPage)
	app.Post("/password-reset", cfg.Accounts.PasswordResetSubmit)
	app.Get("/password-reset-confirm/:token", cfg.Accounts.PasswordResetConfirmPage)
	app.Post("/password-reset-confirm/:token", cfg.Accounts.PasswordResetConfirmSubmit)

	profile := app.Group("/profile", auth.RequireAuthenticated())
	profile.Get("/", cfg.Accounts.ProfilePage)
	profile.Post("/", cfg.Accounts.ProfileSubmit)

	manage := app.Group("/users", auth.RequireRoles(domain.RoleAdmin, domain.RoleManager))
	manage.Get("/", cfg.Users.Index)
	manage.Post("/", cfg.Users.Create)
	manage.Get("/edit/:id", cfg.Users.EditPage)
	manage.Post("/edit/:id", cfg.Users.EditSubmit)
	manage.Post("/delete/:id", cfg.Users.Delete)
}
