package handlers

import (
	"html/template"
	"net/http"
)

// Dashboard tabs
const (
	TabSummary  = "resumen"
	TabRetos    = "retos"
	TabFeedback = "feedback"
)

var dashboardTabs = map[string]bool{
	TabSummary:  true,
	TabRetos:    true,
	TabFeedback: true,
}

// DashboardHandler serves /panel-de-control with its tabs
type DashboardHandler struct {
	template *template.Template
	auth     *Auth
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(auth *Auth) (*DashboardHandler, error) {
	tmpl, err := parsePage("dashboard.html")
	if err != nil {
		return nil, err
	}
	return &DashboardHandler{template: tmpl, auth: auth}, nil
}

// ServeHTTP renders the selected tab. Unknown tabs fall back to the summary.
func (h *DashboardHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	email, ok := h.auth.User(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	tab := r.URL.Query().Get("tab")
	if !dashboardTabs[tab] {
		tab = TabSummary
	}

	render(w, h.template, http.StatusOK, pageData{
		Title:         "Panel de control",
		Authenticated: true,
		Email:         email,
		Tab:           tab,
	})
}
