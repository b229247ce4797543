package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ariffaisalsheam/menux-app/internal/service"
	"github.com/ariffaisalsheam/menux-app/internal/validation"
)

var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid credentials"},
	{service.ErrAccountInactive, http.StatusUnauthorized, "Account is inactive"},
	{service.ErrEmailTaken, http.StatusConflict, "Email already exists"},
	{service.ErrInvalidRefreshToken, http.StatusUnauthorized, "Invalid refresh token"},
	{service.ErrUserUnavailable, http.StatusUnauthorized, "User not found or inactive"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "Invalid token"},
	{service.ErrTokenRevoked, http.StatusUnauthorized, "Session has ended"},
	{service.ErrWrongPassword, http.StatusBadRequest, "Current password is incorrect"},
	{service.ErrInvalidResetToken, http.StatusBadRequest, "Invalid or expired reset token"},
	{service.ErrUnsupportedMedia, http.StatusUnsupportedMediaType, "Unsupported image type"},
	{service.ErrFileTooLarge, http.StatusRequestEntityTooLarge, "File is too large"},
}

func (h HandlerSet) fail(c *gin.Context, err error) {
	for _, r := range errorResponses {
		if errors.Is(err, r.err) {
			c.JSON(r.status, gin.H{"error": r.message})
			return
		}
	}
	h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":  validation.Summary(err),
		"fields": validation.FieldErrors(err),
	})
}
