package handlers

import "github.com/gofiber/fiber/v2"

// PagesHandler serves static-ish public pages and the dashboard.
type PagesHandler struct{}

// NewPagesHandler constructs handler.
func NewPagesHandler() *PagesHandler {
	return &PagesHandler{}
}

// Home handles GET /.
func (h *PagesHandler) Home(c *fiber.Ctx) error {
	return c.Render("public/home", baseBinding(c), "layouts/main")
}

// Dashboard handles GET /dashboard.
func (h *PagesHandler) Dashboard(c *fiber.Ctx) error {
	return c.Render("dashboard", baseBinding(c), "layouts/main")
}
