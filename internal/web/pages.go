package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
)

type homeData struct {
	Dashboard string
}

type placeholderData struct {
	Message      string
	RestaurantID string
}

type adminData struct {
	Stats *apiclient.UserStats
	Error string
}

// layout fills the signed-in chrome of a view: user, user type and nav.
func layout(c *gin.Context, v *view) *view {
	if user := authSession(c).User(); user != nil {
		v.User = user
		v.UserType = userTypeFor(user.Role)
	}
	return v
}

func (h *Handler) home(c *gin.Context) {
	as := authSession(c)
	as.Initialize(c.Request.Context())

	data := homeData{}
	if user := as.User(); user != nil {
		data.Dashboard = landingFor(user.Role)
	}
	h.views.HTML(c, http.StatusOK, "home", &view{User: as.User(), Data: data})
}

func (h *Handler) page(status int, name, title string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h.views.HTML(c, status, name, &view{Title: title})
	}
}

// placeholder renders a page whose feature is not built yet. Public pages
// carry the restaurant id from the URL.
func (h *Handler) placeholder(title, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := &view{Title: title, Data: placeholderData{
			Message:      message,
			RestaurantID: c.Param("restaurantId"),
		}}
		if c.Param("restaurantId") == "" {
			v = layout(c, v)
		}
		h.views.HTML(c, http.StatusOK, "placeholder", v)
	}
}

func (h *Handler) restaurantDashboard(c *gin.Context) {
	h.views.HTML(c, http.StatusOK, "restaurant_dashboard", layout(c, &view{Title: "Restaurant Dashboard"}))
}

func (h *Handler) adminDashboard(c *gin.Context) {
	data := adminData{}
	stats, err := apiClient(c).AdminStats(c.Request.Context())
	if err != nil {
		if h.sessionExpired(c, err) {
			return
		}
		h.log.Error().Err(err).Msg("load admin stats failed")
		data.Error = apiclient.MessageOr(err, "Could not load statistics")
	} else {
		data.Stats = &stats
	}
	h.views.HTML(c, http.StatusOK, "admin_dashboard", layout(c, &view{Title: "Admin Dashboard", Data: data}))
}

func (h *Handler) logout(c *gin.Context) {
	authSession(c).Logout(c.Request.Context())
	redirect(c, "/")
}
