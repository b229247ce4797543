// Package web serves the server-rendered Menu.X front end.
package web

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
	"github.com/ariffaisalsheam/menux-app/internal/auth"
	"github.com/ariffaisalsheam/menux-app/internal/websession"
)

const (
	authKey    = "auth_session"
	clientKey  = "api_client"
	expiredKey = "session_expired"
)

// HealthCheck reports the reachability of one dependency.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	log      zerolog.Logger
	clients  *apiclient.Factory
	sessions *websession.Manager
	views    *Renderer
	checks   map[string]HealthCheck
}

func New(log zerolog.Logger, clients *apiclient.Factory, sessions *websession.Manager, views *Renderer, checks map[string]HealthCheck) *Handler {
	return &Handler{
		log:      log,
		clients:  clients,
		sessions: sessions,
		views:    views,
		checks:   checks,
	}
}

func (h *Handler) Register(engine *gin.Engine) {
	engine.GET("/healthz", h.health)

	site := engine.Group("/", h.sessions.Middleware(), h.bind)
	site.GET("/", h.home)
	site.GET("/menu/:restaurantId", h.placeholder("Digital Menu", "QR code menu display will be implemented here"))
	site.GET("/order/:restaurantId", h.placeholder("Place Order", "Table ordering will be implemented here"))
	site.GET("/feedback/:restaurantId", h.placeholder("Feedback", "Feedback collection will be implemented here"))
	site.GET("/unauthorized", h.page(http.StatusForbidden, "unauthorized", "Access Denied"))
	site.GET("/404", h.page(http.StatusNotFound, "not_found", "Page Not Found"))
	site.POST("/logout", h.logout)

	public := site.Group("", h.Public())
	public.GET("/login", h.loginPage)
	public.POST("/login", h.login)
	public.GET("/register", h.registerPage)
	public.POST("/register", h.register)
	public.GET("/forgot-password", h.forgotPasswordPage)
	public.POST("/forgot-password", h.forgotPassword)
	public.GET("/reset-password", h.resetPasswordPage)
	public.POST("/reset-password", h.resetPassword)

	owner := site.Group("/restaurant", h.Protected(apiclient.RoleRestaurantOwner))
	owner.GET("", h.restaurantDashboard)
	owner.GET("/menu", h.placeholder("Menu Management", "Menu management will be implemented here"))
	owner.GET("/orders", h.placeholder("Order Management", "Order management will be implemented here"))
	owner.GET("/feedback", h.placeholder("Feedback Management", "Feedback management will be implemented here"))
	owner.GET("/qr-codes", h.placeholder("QR Code Management", "QR code generation and management will be implemented here"))

	admin := site.Group("/admin", h.Protected(apiclient.RoleSuperAdmin))
	admin.GET("", h.adminDashboard)
	admin.GET("/users", h.placeholder("User Management", "User management will be implemented here"))
	admin.GET("/restaurants", h.placeholder("Restaurant Management", "Restaurant management will be implemented here"))
	admin.GET("/analytics", h.placeholder("System Analytics", "System analytics will be implemented here"))

	account := site.Group("/account", h.Protected(""))
	account.GET("", h.accountPage)
	account.POST("", h.updateProfile)
	account.POST("/password", h.changePassword)
	account.POST("/avatar", h.uploadAvatar)

	engine.NoRoute(func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/404")
	})
}

// PanicPage renders the HTML error page after a recovered panic.
func (h *Handler) PanicPage(c *gin.Context) {
	h.views.HTML(c, http.StatusInternalServerError, "error", &view{Title: "Error"})
}

// bind gives the request its backend client and auth session, both backed
// by the browser session's storage.
func (h *Handler) bind(c *gin.Context) {
	ws := websession.FromContext(c)
	client := h.clients.Client(ws, func() { c.Set(expiredKey, true) })
	c.Set(clientKey, client)
	c.Set(authKey, auth.NewSession(client, ws, ws, h.log))
	c.Next()
}

func authSession(c *gin.Context) *auth.Session {
	return c.MustGet(authKey).(*auth.Session)
}

func apiClient(c *gin.Context) *apiclient.Client {
	return c.MustGet(clientKey).(*apiclient.Client)
}

// sessionExpired sends the browser to the login page when err means the
// backend session is gone. The stored tokens are already cleared by then.
func (h *Handler) sessionExpired(c *gin.Context, err error) bool {
	if !errors.Is(err, apiclient.ErrSessionExpired) && !c.GetBool(expiredKey) {
		return false
	}
	ctx := c.Request.Context()
	as := authSession(c)
	as.ClearAuthData(ctx)
	websession.FromContext(c).Error(ctx, "Your session has expired. Please login again.")
	redirect(c, "/login")
	return true
}

// redirect uses 302 for reads and 303 after a form post.
func redirect(c *gin.Context, location string) {
	status := http.StatusFound
	if c.Request.Method == http.MethodPost {
		status = http.StatusSeeOther
	}
	c.Redirect(status, location)
	c.Abort()
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status, results := http.StatusOK, gin.H{}
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			h.log.Warn().Err(err).Str("check", name).Msg("health check failed")
			results[name] = "error"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
