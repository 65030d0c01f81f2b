package handlers

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageData is what every template renders from
type pageData struct {
	Title         string
	Authenticated bool
	Name          string
	Email         string
	Error         string
	Message       string
	Tab           string
}

// parsePage parses a page together with the shared layout
func parsePage(name string) (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
}

// render executes the layout into a buffer so a template error never
// leaves a half written page behind
func render(w http.ResponseWriter, tmpl *template.Template, status int, data pageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// HomeHandler serves the landing page
type HomeHandler struct {
	template *template.Template
	auth     *Auth
}

// NewHomeHandler creates a new HomeHandler
func NewHomeHandler(auth *Auth) (*HomeHandler, error) {
	tmpl, err := parsePage("home.html")
	if err != nil {
		return nil, err
	}
	return &HomeHandler{template: tmpl, auth: auth}, nil
}

// ServeHTTP handles the GET / request
func (h *HomeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	_, signedIn := h.auth.User(r)
	render(w, h.template, http.StatusOK, pageData{Title: "Inicio", Authenticated: signedIn})
}

// SectionHandler serves a static page that requires a signed-in user
type SectionHandler struct {
	template *template.Template
	auth     *Auth
	title    string
}

// NewSectionHandler creates a SectionHandler for the named template
func NewSectionHandler(auth *Auth, templateName, title string) (*SectionHandler, error) {
	tmpl, err := parsePage(templateName)
	if err != nil {
		return nil, err
	}
	return &SectionHandler{template: tmpl, auth: auth, title: title}, nil
}

// ServeHTTP renders the section or sends anonymous users to /login
func (h *SectionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := h.auth.User(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	render(w, h.template, http.StatusOK, pageData{Title: h.title, Authenticated: true, Email: email})
}

// BlankHandler serves an empty document, like a route whose content never loads
type BlankHandler struct{}

// ServeHTTP writes an empty page
func (BlankHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte("<!DOCTYPE html>\n<html lang=\"es\"><head><meta charset=\"utf-8\"></head><body></body></html>\n"))
}
