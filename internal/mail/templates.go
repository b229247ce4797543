package mail

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"net/url"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl"))
)

type templateData struct {
	FirstName string
	Link      string
}

// Composer renders the transactional mails. baseURL is the public address
// of the web front end.
type Composer struct {
	baseURL string
}

func NewComposer(baseURL string) Composer {
	return Composer{baseURL: strings.TrimRight(baseURL, "/")}
}

func (c Composer) PasswordReset(to, firstName, token string) (Message, error) {
	link := c.baseURL + "/reset-password?token=" + url.QueryEscape(token)
	return c.render(to, "Reset your Menu.X password", "password_reset", templateData{FirstName: firstName, Link: link})
}

func (c Composer) Welcome(to, firstName string) (Message, error) {
	return c.render(to, "Welcome to Menu.X", "welcome", templateData{FirstName: firstName, Link: c.baseURL + "/login"})
}

func (c Composer) render(to, subject, name string, data templateData) (Message, error) {
	if data.FirstName == "" {
		data.FirstName = "there"
	}
	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("render %s text: %w", name, err)
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.tmpl", data); err != nil {
		return Message{}, fmt.Errorf("render %s html: %w", name, err)
	}
	return Message{To: to, Subject: subject, Text: text.String(), HTML: html.String()}, nil
}
