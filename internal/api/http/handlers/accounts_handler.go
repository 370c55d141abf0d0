package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/starter-kit/account-service/internal/api/dto"
	"github.com/starter-kit/account-service/internal/auth"
	"github.com/starter-kit/account-service/internal/service"
	apperrors "github.com/starter-kit/account-service/pkg/util"
)

// AccountsHandler serves registration, login and self-service profile pages.
type AccountsHandler struct {
	accounts *service.AccountService
	sessions *auth.SessionManager
}

// NewAccountsHandler constructs handler.
func NewAccountsHandler(accounts *service.AccountService, sessions *auth.SessionManager) *AccountsHandler {
	return &AccountsHandler{accounts: accounts, sessions: sessions}
}

// RegisterPage handles GET /register.
func (h *AccountsHandler) RegisterPage(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); ok {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return c.Render("accounts/register", baseBinding(c), "layouts/main")
}

// RegisterSubmit handles POST /register. On success the new user is logged
// in immediately; the welcome email leaves through the dispatcher.
func (h *AccountsHandler) RegisterSubmit(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); ok {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}

	var form dto.RegisterForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		binding := baseBinding(c)
		binding["form"] = form
		binding["errors"] = formErrors(err)
		return c.Status(http.StatusBadRequest).Render("accounts/register", binding, "layouts/main")
	}

	user, err := h.accounts.Register(c.Context(), service.RegisterInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Password:  form.Password1,
	})
	if err != nil {
		if domainErr := apperrors.ToDomainError(err); domainErr.Code == "CONFLICT" {
			binding := baseBinding(c)
			binding["form"] = form
			binding["errors"] = map[string]any{"email": "this email is already registered"}
			return c.Status(http.StatusBadRequest).Render("accounts/register", binding, "layouts/main")
		}
		return err
	}

	h.establishSession(c, user.ID, user.PasswordHash)
	flash(c, "success", "Registration successful. Welcome!")
	return c.Redirect("/profile", fiber.StatusFound)
}

// LoginPage handles GET /login.
func (h *AccountsHandler) LoginPage(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); ok {
		return c.Redirect("/dashboard", fiber.StatusFound)
	}
	return c.Render("accounts/login", baseBinding(c), "layouts/main")
}

// LoginSubmit handles POST /login. Every successful login publishes the
// sign-in alert with the request origin.
func (h *AccountsHandler) LoginSubmit(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		binding := baseBinding(c)
		binding["form"] = form
		binding["errors"] = formErrors(err)
		return c.Status(http.StatusBadRequest).Render("accounts/login", binding, "layouts/main")
	}

	user, err := h.accounts.Authenticate(c.Context(), form.Email, form.Password, requestOrigin(c))
	if err != nil {
		binding := baseBinding(c)
		binding["form"] = form
		binding["errors"] = map[string]any{"form": "invalid email or password"}
		return c.Render("accounts/login", binding, "layouts/main")
	}

	h.establishSession(c, user.ID, user.PasswordHash)
	return c.Redirect("/dashboard", fiber.StatusFound)
}

// Logout handles POST /logout.
func (h *AccountsHandler) Logout(c *fiber.Ctx) error {
	if sess, ok := auth.SessionFromContext(c); ok {
		sess.Logout()
	}
	return c.Redirect("/", fiber.StatusFound)
}

// ProfilePage handles GET /profile.
func (h *AccountsHandler) ProfilePage(c *fiber.Ctx) error {
	return c.Render("accounts/profile", baseBinding(c), "layouts/main")
}

// ProfileSubmit handles POST /profile. The payload carries a marker naming
// which of the two sub-forms was submitted; exactly one is processed.
func (h *AccountsHandler) ProfileSubmit(c *fiber.Ctx) error {
	switch {
	case c.FormValue("update_profile") != "":
		return h.updateProfile(c)
	case c.FormValue("change_password") != "":
		return h.changePassword(c)
	default:
		return apperrors.NewValidationError("unknown form submission", nil)
	}
}

func (h *AccountsHandler) updateProfile(c *fiber.Ctx) error {
	user, _ := auth.PrincipalFromContext(c)

	var form dto.ProfileForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		binding := baseBinding(c)
		binding["profile_form"] = form
		binding["profile_errors"] = formErrors(err)
		return c.Status(http.StatusBadRequest).Render("accounts/profile", binding, "layouts/main")
	}

	if err := h.accounts.UpdateProfile(c.Context(), user, service.ProfileInput{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
	}); err != nil {
		if domainErr := apperrors.ToDomainError(err); domainErr.Code == "CONFLICT" {
			binding := baseBinding(c)
			binding["profile_form"] = form
			binding["profile_errors"] = map[string]any{"email": "this email is already registered"}
			return c.Status(http.StatusBadRequest).Render("accounts/profile", binding, "layouts/main")
		}
		return err
	}

	flash(c, "success", "Your profile information has been updated.")
	return c.Redirect("/profile", fiber.StatusFound)
}

func (h *AccountsHandler) changePassword(c *fiber.Ctx) error {
	user, _ := auth.PrincipalFromContext(c)

	var form dto.PasswordChangeForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		flash(c, "error", "Please correct the errors in the password form.")
		binding := baseBinding(c)
		binding["password_errors"] = formErrors(err)
		return c.Status(http.StatusBadRequest).Render("accounts/profile", binding, "layouts/main")
	}

	err := h.accounts.ChangePassword(c.Context(), user, form.OldPassword, form.NewPassword1, requestOrigin(c))
	if err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.Code == "VALIDATION_FAILED" {
			flash(c, "error", "Please correct the errors in the password form.")
			binding := baseBinding(c)
			binding["password_errors"] = domainErr.Details
			return c.Status(http.StatusBadRequest).Render("accounts/profile", binding, "layouts/main")
		}
		return err
	}

	// Keep the current session alive across the credential change.
	if sess, ok := auth.SessionFromContext(c); ok {
		sess.RefreshAuthHash(h.sessions.AuthHash(user.PasswordHash))
	}

	flash(c, "success", "Your password has been changed successfully.")
	return c.Redirect("/profile", fiber.StatusFound)
}

// PasswordResetPage handles GET /password-reset.
func (h *AccountsHandler) PasswordResetPage(c *fiber.Ctx) error {
	return c.Render("accounts/password_reset", baseBinding(c), "layouts/main")
}

// PasswordResetSubmit handles POST /password-reset. The response is the same
// whether or not the address exists.
func (h *AccountsHandler) PasswordResetSubmit(c *fiber.Ctx) error {
	var form dto.PasswordResetRequestForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		binding := baseBinding(c)
		binding["errors"] = formErrors(err)
		return c.Status(http.StatusBadRequest).Render("accounts/password_reset", binding, "layouts/main")
	}

	if err := h.accounts.RequestPasswordReset(c.Context(), form.Email); err != nil {
		return err
	}

	flash(c, "success", "If that email exists, a reset link is on its way.")
	return c.Redirect("/password-reset", fiber.StatusFound)
}

// PasswordResetConfirmPage handles GET /password-reset-confirm/:token.
func (h *AccountsHandler) PasswordResetConfirmPage(c *fiber.Ctx) error {
	binding := baseBinding(c)
	binding["token"] = c.Params("token")
	return c.Render("accounts/password_reset_confirm", binding, "layouts/main")
}

// PasswordResetConfirmSubmit handles POST /password-reset-confirm/:token.
func (h *AccountsHandler) PasswordResetConfirmSubmit(c *fiber.Ctx) error {
	var form dto.PasswordResetConfirmForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validate.Struct(form); err != nil {
		binding := baseBinding(c)
		binding["token"] = c.Params("token")
		binding["errors"] = formErrors(err)
		return c.Status(http.StatusBadRequest).Render("accounts/password_reset_confirm", binding, "layouts/main")
	}

	if err := h.accounts.ConfirmPasswordReset(c.Context(), c.Params("token"), form.NewPassword1); err != nil {
		domainErr := apperrors.ToDomainError(err)
		if domainErr.Code == "VALIDATION_FAILED" {
			binding := baseBinding(c)
			binding["token"] = c.Params("token")
			binding["errors"] = map[string]any{"form": domainErr.Message}
			return c.Status(http.StatusBadRequest).Render("accounts/password_reset_confirm", binding, "layouts/main")
		}
		return err
	}

	flash(c, "success", "Your password has been reset. Please sign in.")
	return c.Redirect(auth.LoginPath, fiber.StatusFound)
}

func (h *AccountsHandler) establishSession(c *fiber.Ctx, userID, passwordHash string) {
	if sess, ok := auth.SessionFromContext(c); ok {
		sess.Login(userID, h.sessions.AuthHash(passwordHash))
	}
}

func requestOrigin(c *fiber.Ctx) service.RequestOrigin {
	userAgent := c.Get(fiber.HeaderUserAgent)
	if userAgent == "" {
		userAgent = "Unknown device"
	}
	return service.RequestOrigin{
		IPAddress: c.IP(),
		UserAgent: userAgent,
	}
}
