package handlers

import (
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionCookie names the cookie carrying the signed-in token
const SessionCookie = "mentor_session"

// Account errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountExists      = errors.New("account already exists")
	ErrMissingFields      = errors.New("all fields are required")
)

// Auth keeps accounts and signed-in tokens in memory
type Auth struct {
	mu       sync.Mutex
	accounts map[string]string
	tokens   map[string]string
}

// NewAuth creates an Auth holding a single demo account
func NewAuth(email, password string) *Auth {
	return &Auth{
		accounts: map[string]string{normalizeEmail(email): password},
		tokens:   make(map[string]string),
	}
}

// Register creates an account
func (a *Auth) Register(email, password string) error {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return ErrMissingFields
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[email]; ok {
		return ErrAccountExists
	}
	a.accounts[email] = password
	return nil
}

// Login checks credentials and returns a new session token
func (a *Auth) Login(email, password string) (string, error) {
	email = normalizeEmail(email)

	a.mu.Lock()
	defer a.mu.Unlock()
	want, ok := a.accounts[email]
	if !ok || want != password {
		return "", ErrInvalidCredentials
	}
	token := uuid.New().String()
	a.tokens[token] = email
	return token, nil
}

// Logout forgets a token. Unknown tokens are ignored.
func (a *Auth) Logout(token string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tokens, token)
}

// User returns the email signed in on the request, if any
func (a *Auth) User(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", false
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	email, ok := a.tokens[cookie.Value]
	return email, ok
}

func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
