package handlers

import (
	"errors"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

// RegisterHandler serves the sign-up form and creates accounts
type RegisterHandler struct {
	template *template.Template
	auth     *Auth
	logger   *zap.Logger
}

// NewRegisterHandler creates a new RegisterHandler
func NewRegisterHandler(auth *Auth, logger *zap.Logger) (*RegisterHandler, error) {
	tmpl, err := parsePage("register.html")
	if err != nil {
		return nil, err
	}
	return &RegisterHandler{template: tmpl, auth: auth, logger: logger}, nil
}

// ServeHTTP handles GET and POST /register
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		render(w, h.template, http.StatusOK, pageData{Title: "Crear cuenta"})
	case http.MethodPost:
		h.register(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *RegisterHandler) register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	data := pageData{
		Title: "Crear cuenta",
		Name:  r.PostForm.Get("name"),
		Email: r.PostForm.Get("email"),
	}
	password := r.PostForm.Get("password")

	if data.Name == "" {
		data.Error = "Todos los campos son obligatorios"
		render(w, h.template, http.StatusUnprocessableEntity, data)
		return
	}

	err := h.auth.Register(data.Email, password)
	switch {
	case errors.Is(err, ErrMissingFields):
		data.Error = "Todos los campos son obligatorios"
		render(w, h.template, http.StatusUnprocessableEntity, data)
		return
	case errors.Is(err, ErrAccountExists):
		data.Error = "El correo ya está registrado"
		render(w, h.template, http.StatusConflict, data)
		return
	case err != nil:
		h.logger.Error("registration failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	token, err := h.auth.Login(data.Email, password)
	if err != nil {
		h.logger.Error("login after registration failed", zap.Error(err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, token)

	h.logger.Info("account registered", zap.String("email", normalizeEmail(data.Email)))
	data.Authenticated = true
	data.Message = "success"
	render(w, h.template, http.StatusOK, data)
}

// LoginHandler serves the sign-in form and starts sessions
type LoginHandler struct {
	template *template.Template
	auth     *Auth
	logger   *zap.Logger
}

// NewLoginHandler creates a new LoginHandler
func NewLoginHandler(auth *Auth, logger *zap.Logger) (*LoginHandler, error) {
	tmpl, err := parsePage("login.html")
	if err != nil {
		return nil, err
	}
	return &LoginHandler{template: tmpl, auth: auth, logger: logger}, nil
}

// ServeHTTP handles GET and POST /login
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, ok := h.auth.User(r); ok {
			http.Redirect(w, r, "/panel-de-control", http.StatusSeeOther)
			return
		}
		render(w, h.template, http.StatusOK, pageData{Title: "Iniciar Sesión"})
	case http.MethodPost:
		h.login(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *LoginHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	email := r.PostForm.Get("email")

	token, err := h.auth.Login(email, r.PostForm.Get("password"))
	if err != nil {
		h.logger.Info("login rejected", zap.String("email", normalizeEmail(email)))
		render(w, h.template, http.StatusUnauthorized, pageData{
			Title: "Iniciar Sesión",
			Email: email,
			Error: "Credenciales inválidas",
		})
		return
	}

	setSessionCookie(w, token)
	http.Redirect(w, r, "/panel-de-control", http.StatusSeeOther)
}

// LogoutHandler ends the current session
type LogoutHandler struct {
	auth *Auth
}

// NewLogoutHandler creates a new LogoutHandler
func NewLogoutHandler(auth *Auth) *LogoutHandler {
	return &LogoutHandler{auth: auth}
}

// ServeHTTP handles POST /logout and sends the browser back to /login
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if cookie, err := r.Cookie(SessionCookie); err == nil {
		h.auth.Logout(cookie.Value)
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
