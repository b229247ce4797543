package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
	"github.com/ariffaisalsheam/menux-app/internal/validation"
	"github.com/ariffaisalsheam/menux-app/internal/websession"
)

type loginForm struct {
	Email    string `form:"email" binding:"required,email"`
	Password string `form:"password" binding:"required,min=8"`
}

type registerForm struct {
	FirstName       string `form:"firstName" binding:"required,max=100"`
	LastName        string `form:"lastName" binding:"required,max=100"`
	Email           string `form:"email" binding:"required,email"`
	Phone           string `form:"phone" binding:"omitempty,max=32"`
	Password        string `form:"password" binding:"required,min=8,max=128"`
	ConfirmPassword string `form:"confirmPassword" binding:"required,eqfield=Password"`
}

type forgotPasswordForm struct {
	Email string `form:"email" binding:"required,email"`
}

type resetPasswordForm struct {
	Token           string `form:"token" binding:"required"`
	NewPassword     string `form:"newPassword" binding:"required,min=8,max=128"`
	ConfirmPassword string `form:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

// formValues echoes the submitted non-secret fields back into a re-rendered
// form.
func formValues(c *gin.Context, fields ...string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = strings.TrimSpace(c.PostForm(f))
	}
	return out
}

// failureStatus maps a backend error onto the status of the re-rendered form.
func failureStatus(err error) int {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func (h *Handler) loginPage(c *gin.Context) {
	h.views.HTML(c, http.StatusOK, "login", &view{Title: "Login"})
}

func (h *Handler) login(c *gin.Context) {
	var form loginForm
	values := formValues(c, "email")
	if err := c.ShouldBind(&form); err != nil {
		h.views.HTML(c, http.StatusUnprocessableEntity, "login", &view{
			Title: "Login", Form: values, Errors: validation.FieldErrors(err),
		})
		return
	}

	resp, err := authSession(c).Login(c.Request.Context(), strings.TrimSpace(form.Email), form.Password)
	if err != nil {
		h.views.HTML(c, failureStatus(err), "login", &view{Title: "Login", Form: values})
		return
	}
	target := landingFor(resp.User.Role)
	if target == "" {
		target = "/"
	}
	redirect(c, target)
}

func (h *Handler) registerPage(c *gin.Context) {
	h.views.HTML(c, http.StatusOK, "register", &view{Title: "Register"})
}

func (h *Handler) register(c *gin.Context) {
	var form registerForm
	values := formValues(c, "firstName", "lastName", "email", "phone")
	if err := c.ShouldBind(&form); err != nil {
		h.views.HTML(c, http.StatusUnprocessableEntity, "register", &view{
			Title: "Register", Form: values, Errors: validation.FieldErrors(err),
		})
		return
	}

	_, err := authSession(c).Register(c.Request.Context(), apiclient.RegisterRequest{
		Email:     values["email"],
		Password:  form.Password,
		FirstName: values["firstName"],
		LastName:  values["lastName"],
		Phone:     values["phone"],
	})
	if err != nil {
		h.views.HTML(c, failureStatus(err), "register", &view{Title: "Register", Form: values})
		return
	}
	redirect(c, "/login")
}

func (h *Handler) forgotPasswordPage(c *gin.Context) {
	h.views.HTML(c, http.StatusOK, "forgot_password", &view{Title: "Forgot Password"})
}

func (h *Handler) forgotPassword(c *gin.Context) {
	var form forgotPasswordForm
	values := formValues(c, "email")
	if err := c.ShouldBind(&form); err != nil {
		h.views.HTML(c, http.StatusUnprocessableEntity, "forgot_password", &view{
			Title: "Forgot Password", Form: values, Errors: validation.FieldErrors(err),
		})
		return
	}

	ctx := c.Request.Context()
	ws := websession.FromContext(c)
	resp, err := apiClient(c).RequestPasswordReset(ctx, values["email"])
	if err != nil {
		ws.Error(ctx, apiclient.MessageOr(err, "Could not send reset link"))
		h.views.HTML(c, failureStatus(err), "forgot_password", &view{Title: "Forgot Password", Form: values})
		return
	}
	ws.Success(ctx, messageOr(resp.Message, "If an account exists for that email, a reset link has been sent."))
	redirect(c, "/login")
}

func (h *Handler) resetPasswordPage(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		websession.FromContext(c).Error(c.Request.Context(), "Reset link is invalid or has expired")
		redirect(c, "/forgot-password")
		return
	}
	h.views.HTML(c, http.StatusOK, "reset_password", &view{
		Title: "Reset Password", Form: map[string]string{"token": token},
	})
}

func (h *Handler) resetPassword(c *gin.Context) {
	var form resetPasswordForm
	values := map[string]string{"token": c.PostForm("token")}
	if err := c.ShouldBind(&form); err != nil {
		h.views.HTML(c, http.StatusUnprocessableEntity, "reset_password", &view{
			Title: "Reset Password", Form: values, Errors: validation.FieldErrors(err),
		})
		return
	}

	ctx := c.Request.Context()
	ws := websession.FromContext(c)
	resp, err := apiClient(c).ResetPassword(ctx, form.Token, form.NewPassword)
	if err != nil {
		ws.Error(ctx, apiclient.MessageOr(err, "Password reset failed"))
		h.views.HTML(c, failureStatus(err), "reset_password", &view{Title: "Reset Password", Form: values})
		return
	}
	ws.Success(ctx, messageOr(resp.Message, "Password has been reset. Please login."))
	redirect(c, "/login")
}

func messageOr(msg, fallback string) string {
	if msg == "" {
		return fallback
	}
	return msg
}
