package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
	"github.com/ariffaisalsheam/menux-app/internal/auth"
)

// Protected admits a signed-in user whose role equals requiredRole exactly.
// An empty requiredRole admits any signed-in user.
func (h *Handler) Protected(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		as := authSession(c)
		as.Initialize(c.Request.Context())

		if h.stillLoading(c, as) {
			return
		}
		user := as.User()
		if user == nil {
			redirect(c, "/login")
			return
		}
		if requiredRole != "" && user.Role != requiredRole {
			redirect(c, "/unauthorized")
			return
		}
		c.Next()
	}
}

// Public keeps signed-in users away from the auth forms by sending them to
// their landing page.
func (h *Handler) Public() gin.HandlerFunc {
	return func(c *gin.Context) {
		as := authSession(c)
		as.Initialize(c.Request.Context())

		if h.stillLoading(c, as) {
			return
		}
		if user := as.User(); user != nil {
			if landing := landingFor(user.Role); landing != "" {
				redirect(c, landing)
				return
			}
		}
		c.Next()
	}
}

// stillLoading renders the loading view while the session is loading.
// Initialize runs synchronously, so the guards only reach it for a session
// whose token check has not finished.
func (h *Handler) stillLoading(c *gin.Context, as *auth.Session) bool {
	if !as.IsLoading() {
		return false
	}
	h.views.HTML(c, http.StatusOK, "loading", &view{Title: "Loading"})
	c.Abort()
	return true
}

func landingFor(role string) string {
	switch role {
	case apiclient.RoleSuperAdmin:
		return "/admin"
	case apiclient.RoleRestaurantOwner:
		return "/restaurant"
	}
	return ""
}

func userTypeFor(role string) string {
	switch role {
	case apiclient.RoleSuperAdmin:
		return "admin"
	case apiclient.RoleRestaurantOwner:
		return "restaurant"
	}
	return ""
}
