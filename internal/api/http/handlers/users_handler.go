package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/starter-kit/account-service/internal/api/dto"
	"github.com/starter-kit/account-service/internal/domain"
	"github.com/starter-kit/account-service/internal/repository"
	"github.com/starter-kit/account-service/internal/service"
	apperrors "github.com/starter-kit/account-service/pkg/util"
)

// UsersHandler serves the admin user-management pages.
type UsersHandler struct {
	admin *service.UserAdminService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(admin *service.UserAdminService) *UsersHandler {
	return &UsersHandler{admin: admin}
}

// Index handles GET /users: the paginated listing with search and role
// filter. When the HX-Request header is present only the table fragment is
// rendered so the client can swap it in place.
func (h *UsersHandler) Index(c *fiber.Ctx) error {
	filter := repository.ListFilter{
		Search: c.Query("q"),
		Page:   c.QueryInt("page", 1),
	}
	roleFilter := c.Query("role")
	if role, ok := domain.ParseRole(roleFilter); ok {
		filter.Role = role
	}

	listing, err := h.admin.List(c.Context(), filter)
	if err != nil {
		return err
	}

	if c.Get("HX-Request") != "" {
		return c.Render("users/partials/user_table", fiber.Map{
			"listing":      listing,
			"search_query": filter.Search,
			"role_filter":  roleFilter,
		})
	}

	binding := baseBinding(c)
	binding["listing"] = listing
	binding["roles"] = domain.Roles()
	binding["search_query"] = filter.Search
	binding["role_filter"] = roleFilter
	return c.Render("users/index", binding, "layouts/main")
}

// Create handles POST /users: admin provisioning with an explicit role and
// password.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var form dto.AdminUserForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		flash(c, "error", "Error creating user. Please check the form.")
		return c.Redirect("/users", fiber.StatusFound)
	}

	role, _ := domain.ParseRole(form.Role)
	user, err := h.admin.Create(c.Context(), service.AdminUserInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Role:      role,
		IsActive:  form.IsActive,
	}, form.Password)
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.HTTPStatus < http.StatusInternalServerError {
			flash(c, "error", "Error creating user. Please check the form.")
			return c.Redirect("/users", fiber.StatusFound)
		}
		return err
	}

	flash(c, "success", "User "+user.Email+" created successfully!")
	return c.Redirect("/users", fiber.StatusFound)
}

// EditPage handles GET /users/edit/:id.
func (h *UsersHandler) EditPage(c *fiber.Ctx) error {
	user, err := h.admin.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}

	binding := baseBinding(c)
	binding["user_to_edit"] = user
	binding["roles"] = domain.Roles()
	return c.Render("users/edit", binding, "layouts/main")
}

// EditSubmit handles POST /users/edit/:id. Only the inactive-to-active flip
// triggers the activation email.
func (h *UsersHandler) EditSubmit(c *fiber.Ctx) error {
	var form dto.AdminUserForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		user, getErr := h.admin.Get(c.Context(), c.Params("id"))
		if getErr != nil {
			return getErr
		}
		binding := baseBinding(c)
		binding["user_to_edit"] = user
		binding["roles"] = domain.Roles()
		binding["errors"] = formErrors(err)
		return c.Status(http.StatusBadRequest).Render("users/edit", binding, "layouts/main")
	}

	role, _ := domain.ParseRole(form.Role)
	if _, err := h.admin.Update(c.Context(), c.Params("id"), service.AdminUserInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Role:      role,
		IsActive:  form.IsActive,
	}); err != nil {
		return err
	}

	flash(c, "success", "User updated successfully.")
	return c.Redirect("/users", fiber.StatusFound)
}

// Delete handles POST /users/delete/:id. Deletion is immediate and
// irreversible.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.admin.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}

	flash(c, "success", "User deleted successfully.")
	return c.Redirect("/users", fiber.StatusFound)
}
