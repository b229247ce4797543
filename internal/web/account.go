package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
	"github.com/ariffaisalsheam/menux-app/internal/validation"
	"github.com/ariffaisalsheam/menux-app/internal/websession"
)

type profileForm struct {
	FirstName string `form:"firstName" binding:"required,max=100"`
	LastName  string `form:"lastName" binding:"required,max=100"`
	Email     string `form:"email" binding:"required,email"`
	Phone     string `form:"phone" binding:"omitempty,max=32"`
}

type changePasswordForm struct {
	CurrentPassword string `form:"currentPassword" binding:"required"`
	NewPassword     string `form:"newPassword" binding:"required,min=8,max=128"`
	ConfirmPassword string `form:"confirmPassword" binding:"required,eqfield=NewPassword"`
}

const maxAvatarUpload = 2 << 20

func profileValues(u *apiclient.User) map[string]string {
	values := map[string]string{
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"email":     u.Email,
	}
	if u.Phone != nil {
		values["phone"] = *u.Phone
	}
	return values
}

func (h *Handler) renderAccount(c *gin.Context, status int, form, errs map[string]string) {
	if form == nil {
		form = profileValues(authSession(c).User())
	}
	h.views.HTML(c, status, "account", layout(c, &view{Title: "Account", Form: form, Errors: errs}))
}

func (h *Handler) accountPage(c *gin.Context) {
	h.renderAccount(c, http.StatusOK, nil, nil)
}

func (h *Handler) updateProfile(c *gin.Context) {
	var form profileForm
	values := formValues(c, "firstName", "lastName", "email", "phone")
	if err := c.ShouldBind(&form); err != nil {
		h.renderAccount(c, http.StatusUnprocessableEntity, values, validation.FieldErrors(err))
		return
	}

	ctx := c.Request.Context()
	ws := websession.FromContext(c)
	user, err := apiClient(c).UpdateProfile(ctx, apiclient.ProfileRequest{
		Email:     values["email"],
		FirstName: values["firstName"],
		LastName:  values["lastName"],
		Phone:     values["phone"],
	})
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		ws.Error(ctx, apiclient.MessageOr(err, "Could not update profile"))
		h.renderAccount(c, failureStatus(err), values, nil)
		return
	}
	authSession(c).UpdateUser(user)
	ws.Success(ctx, "Profile updated")
	redirect(c, "/account")
}

func (h *Handler) changePassword(c *gin.Context) {
	var form changePasswordForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderAccount(c, http.StatusUnprocessableEntity, nil, validation.FieldErrors(err))
		return
	}

	ctx := c.Request.Context()
	ws := websession.FromContext(c)
	resp, err := apiClient(c).ChangePassword(ctx, form.CurrentPassword, form.NewPassword)
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		ws.Error(ctx, apiclient.MessageOr(err, "Could not change password"))
		h.renderAccount(c, failureStatus(err), nil, nil)
		return
	}
	ws.Success(ctx, messageOr(resp.Message, "Password changed successfully"))
	redirect(c, "/account")
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxAvatarUpload+64<<10)
	header, err := c.FormFile("avatar")
	if err != nil {
		h.renderAccount(c, http.StatusUnprocessableEntity, nil, map[string]string{"avatar": "Please choose an image"})
		return
	}
	if header.Size > maxAvatarUpload {
		h.renderAccount(c, http.StatusUnprocessableEntity, nil, map[string]string{"avatar": "Image must be 2 MB or smaller"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.renderAccount(c, http.StatusUnprocessableEntity, nil, map[string]string{"avatar": "Please choose an image"})
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	ws := websession.FromContext(c)
	user, err := apiClient(c).UploadAvatar(ctx, strings.TrimSpace(header.Filename), file)
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		ws.Error(ctx, apiclient.MessageOr(err, "Could not upload avatar"))
		h.renderAccount(c, failureStatus(err), nil, nil)
		return
	}
	authSession(c).UpdateUser(user)
	ws.Success(ctx, "Avatar updated")
	redirect(c, "/account")
}
