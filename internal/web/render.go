package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/ariffaisalsheam/menux-app/internal/apiclient"
	"github.com/ariffaisalsheam/menux-app/internal/websession"
)

//go:embed templates/*.html
var templateFS embed.FS

type navItem struct {
	Label  string
	Path   string
	Active bool
}

// view is the data every page template receives.
type view struct {
	Title    string
	UserType string
	User     *apiclient.User
	Nav      []navItem
	Flashes  []websession.Flash
	Form     map[string]string
	Errors   map[string]string
	Data     any
}

func (v *view) PanelName() string {
	if v.UserType == "admin" {
		return "Admin Panel"
	}
	return "Restaurant Dashboard"
}

func navFor(userType, current string) []navItem {
	var items []navItem
	switch userType {
	case "admin":
		items = []navItem{
			{Label: "Dashboard", Path: "/admin"},
			{Label: "Users", Path: "/admin/users"},
			{Label: "Restaurants", Path: "/admin/restaurants"},
			{Label: "Analytics", Path: "/admin/analytics"},
		}
	case "restaurant":
		items = []navItem{
			{Label: "Dashboard", Path: "/restaurant"},
			{Label: "Menu", Path: "/restaurant/menu"},
			{Label: "Orders", Path: "/restaurant/orders"},
			{Label: "Feedback", Path: "/restaurant/feedback"},
			{Label: "QR Codes", Path: "/restaurant/qr-codes"},
		}
	}
	for i := range items {
		items[i].Active = items[i].Path == current
	}
	return items
}

// Renderer executes one template set per page, each sharing the base layout.
type Renderer struct {
	pages map[string]*template.Template
	log   zerolog.Logger
}

func NewRenderer(log zerolog.Logger) (*Renderer, error) {
	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}, log: log}
	for _, name := range names {
		base := path.Base(name)
		if base == "base.html" {
			continue
		}
		tmpl, err := template.New(base).ParseFS(templateFS, "templates/base.html", name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		r.pages[strings.TrimSuffix(base, ".html")] = tmpl
	}
	return r, nil
}

// HTML renders page and pops the pending flash messages into it.
func (r *Renderer) HTML(c *gin.Context, status int, page string, v *view) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.log.Error().Str("page", page).Msg("unknown page template")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	if v == nil {
		v = &view{}
	}
	if v.Nav == nil && v.UserType != "" {
		v.Nav = navFor(v.UserType, c.Request.URL.Path)
	}
	if s, ok := websession.Lookup(c); ok {
		v.Flashes = append(v.Flashes, s.PopFlashes(c.Request.Context())...)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", v); err != nil {
		r.log.Error().Err(err).Str("page", page).Msg("render failed")
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", buf.Bytes())
}
