package web

import (
	"crypto/subtle"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noahxzhu/interval-alert/internal/alert"
	"github.com/noahxzhu/interval-alert/internal/model"
	"github.com/noahxzhu/interval-alert/internal/storage"
)

//go:embed templates/*
var templateFS embed.FS

const sessionTTL = 24 * time.Hour

type Server struct {
	store    *storage.Store
	alerts   *alert.Scheduler
	router   *http.ServeMux
	password string

	mu       sync.Mutex
	sessions map[string]time.Time
}

// NewServer wires the alert form and API. An empty password disables login.
func NewServer(store *storage.Store, alerts *alert.Scheduler, password string) *Server {
	s := &Server{
		store:    store,
		alerts:   alerts,
		router:   http.NewServeMux(),
		password: password,
		sessions: make(map[string]time.Time),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	// Public routes
	s.router.HandleFunc("/login", s.handleLogin)
	s.router.HandleFunc("/logout", s.handleLogout)

	// Protected routes
	s.router.HandleFunc("/", s.authMiddleware(s.handleIndex))
	s.router.HandleFunc("/alert", s.authMiddleware(s.handleSetAlert))
	s.router.HandleFunc("/cancel", s.authMiddleware(s.handleCancel))
	s.router.HandleFunc("/settings", s.authMiddleware(s.handleSettings))

	s.router.HandleFunc("/api/alert", s.apiAuth(s.handleAPIAlert))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Middleware
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.password == "" || s.validSession(r) {
			next(w, r)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
	}
}

func (s *Server) apiAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.password == "" || s.validSession(r) {
			next(w, r)
			return
		}
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if ok && s.checkPassword(token) {
			next(w, r)
			return
		}
		writeJSON(w, http.StatusUnauthorized, apiError{Error: "unauthorized"})
	}
}

func (s *Server) validSession(r *http.Request) bool {
	cookie, err := r.Cookie("session_token")
	if err != nil || cookie.Value == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	expiry, ok := s.sessions[cookie.Value]
	if !ok {
		return false
	}
	if time.Now().After(expiry) {
		delete(s.sessions, cookie.Value)
		return false
	}
	return true
}

func (s *Server) checkPassword(candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(s.password)) == 1
}

// Handlers

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.password == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodGet {
		s.renderTemplate(w, http.StatusOK, "login.html", nil)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.checkPassword(r.FormValue("password")) {
		s.renderTemplate(w, http.StatusUnauthorized, "login.html", map[string]interface{}{"Error": "Invalid password"})
		return
	}

	sessionToken := uuid.New().String()
	s.mu.Lock()
	s.sessions[sessionToken] = time.Now().Add(sessionTTL)
	s.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    sessionToken,
		Expires:  time.Now().Add(sessionTTL),
		HttpOnly: true,
	})

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	cookie, _ := r.Cookie("session_token")
	if cookie != nil {
		s.mu.Lock()
		delete(s.sessions, cookie.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{
		Name:     "session_token",
		Value:    "",
		Expires:  time.Now().Add(-1 * time.Hour),
		HttpOnly: true,
	})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

type indexData struct {
	Interval     string
	Message      string
	Confirmation string
	Error        string
	Active       *model.Registration
}

func (s *Server) indexData() indexData {
	var data indexData
	if reg, ok := s.alerts.Status(); ok {
		data.Active = &reg
	}
	return data
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.renderTemplate(w, http.StatusOK, "index.html", s.indexData())
}

func (s *Server) handleSetAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	interval := r.FormValue("interval")
	message := r.FormValue("message")

	confirmation, err := s.alerts.Submit(r.Context(), interval, message)
	data := s.indexData()
	if err != nil {
		data.Interval = interval
		data.Message = message
		data.Error = err.Error()
		s.renderTemplate(w, submitStatus(err), "index.html", data)
		return
	}

	data.Confirmation = confirmation
	s.renderTemplate(w, http.StatusOK, "index.html", data)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := s.alerts.Cancel(r.Context()); err != nil {
		data := s.indexData()
		data.Error = err.Error()
		s.renderTemplate(w, http.StatusInternalServerError, "index.html", data)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.renderTemplate(w, http.StatusOK, "settings.html", s.store.GetSettings())
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	settings := s.store.GetSettings()
	settings.PushoverToken = strings.TrimSpace(r.FormValue("pushover_token"))
	settings.PushoverUser = strings.TrimSpace(r.FormValue("pushover_user"))

	if err := s.store.UpdateSettings(settings); err != nil {
		slog.Error("Failed to update settings", "error", err)
		http.Error(w, "Failed to update settings", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}

// submitStatus maps a Submit error to an HTTP status: bad input is the
// caller's fault, a failed registration is ours.
func submitStatus(err error) int {
	if alert.IsValidation(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) renderTemplate(w http.ResponseWriter, status int, tmplName string, data interface{}) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+tmplName)
	if err != nil {
		http.Error(w, fmt.Sprintf("Template error: %v", err), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.Execute(w, data); err != nil {
		slog.Error("Template execute error", "template", tmplName, "error", err)
	}
}
