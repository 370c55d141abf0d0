package dto

// RegisterForm is the public registration payload.
type RegisterForm struct {
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,email"`
	Password1 string `form:"password1" validate:"required,min=8"`
	Password2 string `form:"password2" validate:"required,eqfield=Password1"`
}

// LoginForm is the login payload.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// AdminUserForm is the field set admins submit when creating or editing a
// user. Password is only consulted on the create path.
type AdminUserForm struct {
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,email"`
	Phone     string `form:"phone" validate:"max=20"`
	Role      string `form:"role" validate:"required,oneof=ADMIN MANAGER DEFAULT"`
	IsActive  bool   `form:"is_active"`
	Password  string `form:"password"`
}

// ProfileForm is the self-service profile payload; role and status are not
// editable here.
type ProfileForm struct {
	FirstName string `form:"first_name" validate:"required,max=150"`
	LastName  string `form:"last_name" validate:"required,max=150"`
	Email     string `form:"email" validate:"required,email"`
	Phone     string `form:"phone" validate:"max=20"`
}

// PasswordChangeForm is the self-service password payload.
type PasswordChangeForm struct {
	OldPassword  string `form:"old_password" validate:"required"`
	NewPassword1 string `form:"new_password1" validate:"required,min=8"`
	NewPassword2 string `form:"new_password2" validate:"required,eqfield=NewPassword1"`
}

// PasswordResetRequestForm asks for a reset link.
type PasswordResetRequestForm struct {
	Email string `form:"email" validate:"required,email"`
}

// PasswordResetConfirmForm sets the new password from a reset link.
type PasswordResetConfirmForm struct {
	NewPassword1 string `form:"new_password1" validate:"required,min=8"`
	NewPassword2 string `form:"new_password2" validate:"required,eqfield=NewPassword1"`
}
